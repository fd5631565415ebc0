// Package isbn cleans, validates and converts book identifiers.
//
// ISBN-10 uses the weighted mod-11 checksum with a possible trailing X
// check character; ISBN-13 uses the alternating 1/3 weighted mod-10
// checksum. Conversion from ISBN-10 to ISBN-13 always applies the 978
// Bookland prefix, so the mapping is one-to-one and never reversed here.
package isbn

import "strings"

// Kind classifies a cleaned identifier by length.
type Kind string

const (
	KindISBN10 Kind = "isbn10"
	KindISBN13 Kind = "isbn13"
)

// Normalized is the result of normalizing an identifier: the cleaned value,
// whether its checksum holds, and which format it has. Value is nil and
// Kind empty when the input cleans to nothing or has an unrecognized length.
type Normalized struct {
	Value *string
	Valid bool
	Kind  Kind
}

// Clean strips everything except digits and X from an identifier and
// uppercases it. Returns nil for nil input or input that cleans to empty.
func Clean(s *string) *string {
	if s == nil {
		return nil
	}
	var b strings.Builder
	for _, r := range *s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == 'X' || r == 'x':
			b.WriteByte('X')
		}
	}
	if b.Len() == 0 {
		return nil
	}
	cleaned := b.String()
	return &cleaned
}

// ValidateISBN10 reports whether s cleans to a checksum-valid ISBN-10.
// An X is only permitted as the final check character; anywhere else it
// fails the checksum rather than raising.
func ValidateISBN10(s string) bool {
	cleaned := Clean(&s)
	if cleaned == nil || len(*cleaned) != 10 {
		return false
	}
	id := *cleaned

	total := 0
	for i := 0; i < 9; i++ {
		if id[i] < '0' || id[i] > '9' {
			return false
		}
		total += int(id[i]-'0') * (10 - i)
	}

	switch {
	case id[9] == 'X':
		total += 10
	case id[9] >= '0' && id[9] <= '9':
		total += int(id[9] - '0')
	default:
		return false
	}

	return total%11 == 0
}

// ValidateISBN13 reports whether s cleans to a checksum-valid ISBN-13.
// All thirteen characters must be digits.
func ValidateISBN13(s string) bool {
	cleaned := Clean(&s)
	if cleaned == nil || len(*cleaned) != 13 {
		return false
	}
	id := *cleaned

	checksum := 0
	for i := 0; i < 12; i++ {
		if id[i] < '0' || id[i] > '9' {
			return false
		}
		d := int(id[i] - '0')
		if i%2 == 0 {
			checksum += d
		} else {
			checksum += d * 3
		}
	}
	if id[12] < '0' || id[12] > '9' {
		return false
	}

	check := (10 - checksum%10) % 10
	return check == int(id[12]-'0')
}

// ISBN10To13 converts a valid ISBN-10 to its 978-prefixed ISBN-13 form.
// Returns nil when the input is not a valid ISBN-10.
func ISBN10To13(s string) *string {
	if !ValidateISBN10(s) {
		return nil
	}
	cleaned := *Clean(&s)

	// Drop the old check digit, prepend the Bookland prefix.
	base := "978" + cleaned[:9]

	checksum := 0
	for i := 0; i < 12; i++ {
		d := int(base[i] - '0')
		if i%2 == 0 {
			checksum += d
		} else {
			checksum += d * 3
		}
	}
	check := (10 - checksum%10) % 10

	converted := base + string(rune('0'+check))
	return &converted
}

// Normalize cleans an identifier and classifies it by length, validating
// the checksum for the recognized formats.
func Normalize(s *string) Normalized {
	cleaned := Clean(s)
	if cleaned == nil {
		return Normalized{}
	}

	switch len(*cleaned) {
	case 10:
		return Normalized{Value: cleaned, Valid: ValidateISBN10(*cleaned), Kind: KindISBN10}
	case 13:
		return Normalized{Value: cleaned, Valid: ValidateISBN13(*cleaned), Kind: KindISBN13}
	default:
		return Normalized{Value: cleaned}
	}
}
