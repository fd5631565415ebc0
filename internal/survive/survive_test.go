package survive

import (
	"reflect"
	"testing"
	"time"

	"github.com/libridata/bookmerge/internal/bookid"
	"github.com/libridata/bookmerge/internal/merge"
	"github.com/libridata/bookmerge/internal/normalize"
	"github.com/libridata/bookmerge/internal/record"
)

var runAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func keyed(sr record.SourceRecord) record.NormalizedRecord {
	nr := normalize.Record(sr)
	nr.CanonicalKey = bookid.Key(nr)
	return nr
}

// The end-to-end scenario: the same book seen by both sources under
// different identifier states must consolidate into one row with the
// survivorship table applied per field.
func TestResolveEffectiveCpp(t *testing.T) {
	scraped := keyed(record.SourceRecord{
		Source:    record.SourceGoodreads,
		RowNumber: 1,
		Title:     record.Ptr("Effective C++"),
		Author:    record.Ptr("Scott Meyers"),
		Rating:    record.Ptr(4.5),
		ISBN10:    record.Ptr("0134685997"),
	})
	api := keyed(record.SourceRecord{
		Source:        record.SourceGoogleBooks,
		RowNumber:     1,
		Title:         record.Ptr("Effective C++: 3rd Edition"),
		Publisher:     record.Ptr("Addison-Wesley"),
		ISBN13:        record.Ptr("9780134685991"),
		PriceAmount:   record.Ptr(45.0),
		PriceCurrency: record.Ptr("usd"),
	})

	if scraped.CanonicalKey != "9780134685991" || api.CanonicalKey != "9780134685991" {
		t.Fatalf("keys diverge: %q vs %q", scraped.CanonicalKey, api.CanonicalKey)
	}

	rows := merge.OuterJoin(
		[]record.NormalizedRecord{scraped},
		[]record.NormalizedRecord{api},
	)
	books := Resolve(rows, runAt)

	if len(books) != 1 {
		t.Fatalf("book count = %d, want 1", len(books))
	}
	b := books[0]

	if b.BookID != "9780134685991" {
		t.Errorf("BookID = %q, want 9780134685991", b.BookID)
	}
	if b.Title == nil || *b.Title != "Effective C++: 3rd Edition" {
		t.Errorf("Title = %v, want the longer Google Books title", b.Title)
	}
	if b.NormalizedTitle == nil || *b.NormalizedTitle != "effective c 3rd edition" {
		t.Errorf("NormalizedTitle = %v, want recomputed from chosen title", b.NormalizedTitle)
	}
	if b.PrimaryAuthor == nil || *b.PrimaryAuthor != "Scott Meyers" {
		t.Errorf("PrimaryAuthor = %v, want Scott Meyers via Goodreads fallback", b.PrimaryAuthor)
	}
	if b.Rating == nil || *b.Rating != 4.5 {
		t.Errorf("Rating = %v, want 4.5 from Goodreads", b.Rating)
	}
	if b.Publisher == nil || *b.Publisher != "Addison-Wesley" {
		t.Errorf("Publisher = %v, want Addison-Wesley", b.Publisher)
	}
	if b.PriceCurrency == nil || *b.PriceCurrency != "USD" {
		t.Errorf("PriceCurrency = %v, want USD", b.PriceCurrency)
	}
	if b.ISBN10 == nil || *b.ISBN10 != "0134685997" {
		t.Errorf("ISBN10 = %v, want 0134685997 via Goodreads fallback", b.ISBN10)
	}
	if b.WinningSource != "googlebooks" {
		t.Errorf("WinningSource = %q, want googlebooks", b.WinningSource)
	}
	if b.UpdatedAt != runAt.Format(time.RFC3339) {
		t.Errorf("UpdatedAt = %q, want run timestamp", b.UpdatedAt)
	}
}

func TestResolveSingleSidedGroup(t *testing.T) {
	only := keyed(record.SourceRecord{
		Source:       record.SourceGoodreads,
		RowNumber:    3,
		Title:        record.Ptr("Lonely Book"),
		Author:       record.Ptr("Solo Author"),
		Rating:       record.Ptr(3.2),
		RatingsCount: record.Ptr(12),
	})

	books := Resolve(merge.OuterJoin([]record.NormalizedRecord{only}, nil), runAt)
	if len(books) != 1 {
		t.Fatalf("book count = %d, want 1", len(books))
	}
	b := books[0]

	if b.Title == nil || *b.Title != "Lonely Book" {
		t.Errorf("Title = %v, want Lonely Book", b.Title)
	}
	// Google-Books-only fields stay nil; nothing is fabricated.
	if b.Subtitle != nil || b.Language != nil || b.PriceAmount != nil || b.PageCount != nil {
		t.Error("Google-Books-only fields must stay nil for a Goodreads-only group")
	}
	if b.Authors != nil || b.Categories != nil {
		t.Error("list fields must stay nil without a Google Books author/category string")
	}
	if b.WinningSource != "goodreads" {
		t.Errorf("WinningSource = %q, want goodreads", b.WinningSource)
	}
}

// Equal-length titles resolve to the Google Books side.
func TestTitleTieBreak(t *testing.T) {
	gr := keyed(record.SourceRecord{
		Source: record.SourceGoodreads, RowNumber: 1,
		Title:  record.Ptr("AAAA"),
		ISBN13: record.Ptr("9780134685991"),
	})
	gb := keyed(record.SourceRecord{
		Source: record.SourceGoogleBooks, RowNumber: 1,
		Title:  record.Ptr("BBBB"),
		ISBN13: record.Ptr("9780134685991"),
	})

	books := Resolve(merge.OuterJoin(
		[]record.NormalizedRecord{gr},
		[]record.NormalizedRecord{gb},
	), runAt)

	if *books[0].Title != "BBBB" {
		t.Errorf("Title = %q, want Google Books side on tie", *books[0].Title)
	}
}

func TestAuthorAndCategoryLists(t *testing.T) {
	gb := keyed(record.SourceRecord{
		Source: record.SourceGoogleBooks, RowNumber: 1,
		Title:      record.Ptr("Listed"),
		AuthorList: record.Ptr("First Author| Second Author |"),
		Categories: record.Ptr("Fiction|Drama"),
		ISBN13:     record.Ptr("9780134685991"),
	})

	books := Resolve(merge.OuterJoin(nil, []record.NormalizedRecord{gb}), runAt)
	b := books[0]

	wantAuthors := []string{"First Author", "Second Author"}
	if !reflect.DeepEqual(b.Authors, wantAuthors) {
		t.Errorf("Authors = %v, want %v", b.Authors, wantAuthors)
	}
	wantCategories := []string{"Fiction", "Drama"}
	if !reflect.DeepEqual(b.Categories, wantCategories) {
		t.Errorf("Categories = %v, want %v", b.Categories, wantCategories)
	}
}

// Running the resolver twice over the same merged input must produce
// byte-identical rows apart from the run timestamp.
func TestResolveIdempotent(t *testing.T) {
	rows := merge.OuterJoin(
		[]record.NormalizedRecord{
			keyed(record.SourceRecord{Source: record.SourceGoodreads, RowNumber: 1, Title: record.Ptr("One"), ISBN10: record.Ptr("0134685997")}),
			keyed(record.SourceRecord{Source: record.SourceGoodreads, RowNumber: 2, Title: record.Ptr("Two")}),
		},
		[]record.NormalizedRecord{
			keyed(record.SourceRecord{Source: record.SourceGoogleBooks, RowNumber: 1, Title: record.Ptr("One Extended"), ISBN13: record.Ptr("9780134685991")}),
		},
	)

	first := Resolve(rows, runAt)
	second := Resolve(rows, runAt.Add(time.Hour))

	if len(first) != len(second) {
		t.Fatalf("row counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		a, b := first[i], second[i]
		a.UpdatedAt, b.UpdatedAt = "", ""
		if !reflect.DeepEqual(a, b) {
			t.Errorf("row %d differs between runs:\n%+v\n%+v", i, a, b)
		}
	}
}

// Every consolidated field must have a rule; a field silently missing from
// the table would fall back to default precedence unnoticed.
func TestRuleTableCoverage(t *testing.T) {
	want := []string{
		"title", "normalized_title", "subtitle", "primary_author",
		"normalized_author", "authors", "publisher", "published_year",
		"published_date", "language", "isbn10", "isbn13", "page_count",
		"categories", "price_amount", "price_currency", "rating", "ratings_count",
	}
	for _, field := range want {
		if _, ok := Rules[field]; !ok {
			t.Errorf("rule table missing field %q", field)
		}
	}
	if len(Rules) != len(want) {
		t.Errorf("rule table has %d entries, want %d", len(Rules), len(want))
	}
}
