// Package normalize canonicalizes free-text and structured fields into
// matchable forms. Every function maps nil to nil and never fails: a value
// that cannot be normalized is dropped to nil, counted later by the quality
// gate rather than raised here.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripAccents decomposes to NFD, drops combining marks, and recomposes.
var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func removeAccents(s string) string {
	out, _, err := transform.String(stripAccents, s)
	if err != nil {
		// Transform over valid UTF-8 cannot fail; fall back to the input.
		return s
	}
	return out
}

// Title normalizes a title for matching: accents stripped, lowercased,
// every non-alphanumeric non-space character replaced by a space, and
// whitespace collapsed to single spaces.
func Title(s *string) *string {
	if s == nil {
		return nil
	}

	lowered := strings.ToLower(removeAccents(*s))

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}

	collapsed := strings.Join(strings.Fields(b.String()), " ")
	return &collapsed
}

// Author normalizes an author name: accents stripped, lowercased, trimmed.
// Punctuation is kept so "meyers, scott" and "meyers scott" stay distinct.
func Author(s *string) *string {
	if s == nil {
		return nil
	}
	out := strings.TrimSpace(strings.ToLower(removeAccents(*s)))
	return &out
}

// Date normalizes a date string to ISO-8601 YYYY-MM-DD. Year-month and
// year-only inputs are padded to the first day; any other shape yields nil.
func Date(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)

	switch {
	case len(v) == 10 && v[4] == '-' && v[7] == '-':
		return &v
	case len(v) == 7 && v[4] == '-':
		padded := v + "-01"
		return &padded
	case len(v) == 4 && isDigits(v):
		padded := v + "-01-01"
		return &padded
	default:
		return nil
	}
}

// Language normalizes a language code to the lowercase BCP-47 shape.
// Shape validity is checked downstream by the quality gate.
func Language(s *string) *string {
	if s == nil {
		return nil
	}
	out := strings.ToLower(strings.TrimSpace(*s))
	return &out
}

// Currency normalizes a currency code to the uppercase ISO-4217 shape.
func Currency(s *string) *string {
	if s == nil {
		return nil
	}
	out := strings.ToUpper(strings.TrimSpace(*s))
	return &out
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}
