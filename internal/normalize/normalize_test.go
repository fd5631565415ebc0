package normalize

import "testing"

func strPtr(s string) *string { return &s }

func TestTitle(t *testing.T) {
	tests := []struct {
		name  string
		input *string
		want  *string
	}{
		{"nil propagates", nil, nil},
		{"lowercase and collapse", strPtr("  The Hobbit:  A Journey (Illustrated)  "), strPtr("the hobbit a journey illustrated")},
		{"accents stripped", strPtr("Cien Años de Soledad"), strPtr("cien anos de soledad")},
		{"punctuation to spaces", strPtr("C++: The Good Parts!"), strPtr("c the good parts")},
		{"digits kept", strPtr("1984"), strPtr("1984")},
		{"empty", strPtr(""), strPtr("")},
		{"only punctuation", strPtr("!!!"), strPtr("")},
		{"french accents", strPtr("Liberté, Égalité"), strPtr("liberte egalite")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Title(tt.input)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("Title() = %v, want %v", got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Errorf("Title() = %q, want %q", *got, *tt.want)
			}
		})
	}
}

// Identical input must always produce identical output.
func TestTitleDeterministic(t *testing.T) {
	in := strPtr("El Niño: Historia (2ª edición)")
	first := Title(in)
	second := Title(in)
	if *first != *second {
		t.Errorf("Title not deterministic: %q vs %q", *first, *second)
	}
}

func TestAuthor(t *testing.T) {
	tests := []struct {
		name  string
		input *string
		want  *string
	}{
		{"nil propagates", nil, nil},
		{"accents and case", strPtr("  Gabriel García Márquez "), strPtr("gabriel garcia marquez")},
		{"punctuation preserved", strPtr("Meyers, Scott"), strPtr("meyers, scott")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Author(tt.input)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("Author() = %v, want %v", got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Errorf("Author() = %q, want %q", *got, *tt.want)
			}
		})
	}
}

func TestDate(t *testing.T) {
	tests := []struct {
		name  string
		input *string
		want  *string
	}{
		{"nil propagates", nil, nil},
		{"full date unchanged", strPtr("2001-09-11"), strPtr("2001-09-11")},
		{"year-month padded", strPtr("2001-09"), strPtr("2001-09-01")},
		{"year padded", strPtr("2001"), strPtr("2001-01-01")},
		{"surrounding space trimmed", strPtr(" 1999 "), strPtr("1999-01-01")},
		{"garbage", strPtr("September 2001"), nil},
		{"empty", strPtr(""), nil},
		{"non-digit year", strPtr("20o1"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Date(tt.input)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("Date() = %v, want %v", got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Errorf("Date() = %q, want %q", *got, *tt.want)
			}
		})
	}
}

func TestLanguageAndCurrency(t *testing.T) {
	if got := Language(strPtr(" EN-us ")); *got != "en-us" {
		t.Errorf("Language = %q, want en-us", *got)
	}
	if got := Language(nil); got != nil {
		t.Errorf("Language(nil) = %v, want nil", got)
	}
	if got := Currency(strPtr(" usd ")); *got != "USD" {
		t.Errorf("Currency = %q, want USD", *got)
	}
	if got := Currency(nil); got != nil {
		t.Errorf("Currency(nil) = %v, want nil", got)
	}
}
