// Package survive collapses merged rows sharing a canonical key into one
// consolidated book per key. Which source's value wins for each field is
// driven by a declarative rule table rather than ad hoc conditionals, so
// changing precedence or adding a source is a table edit.
package survive

import (
	"time"

	"github.com/libridata/bookmerge/internal/merge"
	"github.com/libridata/bookmerge/internal/normalize"
	"github.com/libridata/bookmerge/internal/record"
)

// Strategy names how a field's surviving value is combined from the two
// sources.
type Strategy string

const (
	// Longest keeps the longest non-nil string across every row in the
	// group. Equal lengths resolve to Google Books, the same direction as
	// the default precedence.
	Longest Strategy = "longest"
	// PreferGoogleBooks keeps Google Books when non-nil, else Goodreads.
	PreferGoogleBooks Strategy = "prefer_googlebooks"
	// GoogleBooksOnly keeps Google Books or nothing.
	GoogleBooksOnly Strategy = "googlebooks_only"
	// GoodreadsOnly keeps Goodreads or nothing.
	GoodreadsOnly Strategy = "goodreads_only"
	// Recompute derives the value from another already-chosen field.
	Recompute Strategy = "recompute"
	// ParseList splits a pipe-delimited Google Books string into a list,
	// with an empty list becoming nil.
	ParseList Strategy = "parse_list"
)

// Rules is the per-field survivorship table for the consolidated schema.
var Rules = map[string]Strategy{
	"title":             Longest,
	"normalized_title":  Recompute, // from the chosen title
	"subtitle":          GoogleBooksOnly,
	"primary_author":    PreferGoogleBooks,
	"normalized_author": Recompute, // from the chosen primary author
	"authors":           ParseList,
	"publisher":         PreferGoogleBooks,
	"published_year":    PreferGoogleBooks,
	"published_date":    GoogleBooksOnly,
	"language":          GoogleBooksOnly,
	"isbn10":            PreferGoogleBooks,
	"isbn13":            PreferGoogleBooks,
	"page_count":        GoogleBooksOnly,
	"categories":        ParseList,
	"price_amount":      GoogleBooksOnly,
	"price_currency":    GoogleBooksOnly,
	"rating":            GoodreadsOnly,
	"ratings_count":     GoodreadsOnly,
}

// Resolve collapses every key group in the merged set into one consolidated
// book. runAt is the single pipeline-run timestamp stamped on every row.
// Input rows must already be grouped by key (the merger's sorted output).
func Resolve(rows []merge.Row, runAt time.Time) []record.ConsolidatedBook {
	groups := merge.GroupByKey(rows)
	books := make([]record.ConsolidatedBook, 0, len(groups))
	updatedAt := runAt.Format(time.RFC3339)

	for _, group := range groups {
		books = append(books, resolveGroup(group, updatedAt))
	}

	return books
}

// resolveGroup applies the rule table to one group of rows sharing a key.
// Per-field picks read the group's first row; the title scan considers
// every row so a longer title anywhere in the group survives.
func resolveGroup(group []merge.Row, updatedAt string) record.ConsolidatedBook {
	first := group[0]
	gr := first.Goodreads
	gb := first.GoogleBooks

	book := record.ConsolidatedBook{
		BookID:    first.Key,
		UpdatedAt: updatedAt,
	}

	book.Title = longestTitle(group)
	book.NormalizedTitle = normalize.Title(book.Title)

	book.Subtitle = pickStr(Rules["subtitle"], strField(gb, subtitle), strField(gr, subtitle))
	book.PrimaryAuthor = pickStr(Rules["primary_author"], strField(gb, author), strField(gr, author))
	book.NormalizedAuthor = normalize.Author(book.PrimaryAuthor)
	book.Authors = record.SplitList(strField(gb, authorList))

	book.Publisher = pickStr(Rules["publisher"], strField(gb, publisher), strField(gr, publisher))
	book.PublishedYear = pickInt(Rules["published_year"], intField(gb, year), intField(gr, year))
	book.PublishedDate = pickStr(Rules["published_date"], strField(gb, pubDate), strField(gr, pubDate))
	book.Language = pickStr(Rules["language"], strField(gb, language), strField(gr, language))

	book.ISBN10 = pickStr(Rules["isbn10"], strField(gb, isbn10), strField(gr, isbn10))
	book.ISBN13 = pickStr(Rules["isbn13"], strField(gb, isbn13), strField(gr, isbn13))

	book.PageCount = pickInt(Rules["page_count"], intField(gb, pageCount), intField(gr, pageCount))
	book.Categories = record.SplitList(strField(gb, categories))

	book.PriceAmount = pickFloat(Rules["price_amount"], floatField(gb, price), floatField(gr, price))
	book.PriceCurrency = pickStr(Rules["price_currency"], strField(gb, currency), strField(gr, currency))

	book.Rating = pickFloat(Rules["rating"], floatField(gb, rating), floatField(gr, rating))
	book.RatingsCount = pickInt(Rules["ratings_count"], intField(gb, ratingsCount), intField(gr, ratingsCount))

	book.WinningSource = winningSource(gr, gb)

	return book
}

// longestTitle scans every title on both sides of every row in the group.
// Ties go to Google Books because its side is scanned first.
func longestTitle(group []merge.Row) *string {
	var best *string
	consider := func(t *string) {
		if t == nil {
			return
		}
		if best == nil || len(*t) > len(*best) {
			best = t
		}
	}
	for _, row := range group {
		if row.GoogleBooks != nil {
			consider(row.GoogleBooks.Title)
		}
		if row.Goodreads != nil {
			consider(row.Goodreads.Title)
		}
	}
	return best
}

// winningSource tags the row with whichever source contributed more
// non-nil fields, Google Books winning ties.
func winningSource(gr, gb *record.NormalizedRecord) string {
	if countFields(gb) >= countFields(gr) {
		return string(record.SourceGoogleBooks)
	}
	return string(record.SourceGoodreads)
}

// countFields counts the non-nil staged and derived fields of one side.
func countFields(r *record.NormalizedRecord) int {
	if r == nil {
		return 0
	}
	n := 0
	for _, p := range []any{
		r.Title, r.Subtitle, r.Author, r.AuthorList, r.Publisher,
		r.PublishedDate, r.PublishedYear, r.Language, r.PageCount,
		r.Categories, r.ISBN10, r.ISBN13, r.PriceAmount, r.PriceCurrency,
		r.Rating, r.RatingsCount, r.BookURL, r.NormalizedTitle, r.NormalizedAuthor,
	} {
		switch v := p.(type) {
		case *string:
			if v != nil {
				n++
			}
		case *int:
			if v != nil {
				n++
			}
		case *float64:
			if v != nil {
				n++
			}
		}
	}
	return n
}

// Field accessors keep the per-type pickers free of reflection.

type strAccessor func(*record.NormalizedRecord) *string
type intAccessor func(*record.NormalizedRecord) *int
type floatAccessor func(*record.NormalizedRecord) *float64

var (
	subtitle   strAccessor = func(r *record.NormalizedRecord) *string { return r.Subtitle }
	author     strAccessor = func(r *record.NormalizedRecord) *string { return r.Author }
	authorList strAccessor = func(r *record.NormalizedRecord) *string { return r.AuthorList }
	publisher  strAccessor = func(r *record.NormalizedRecord) *string { return r.Publisher }
	pubDate    strAccessor = func(r *record.NormalizedRecord) *string { return r.PublishedDate }
	language   strAccessor = func(r *record.NormalizedRecord) *string { return r.Language }
	isbn10     strAccessor = func(r *record.NormalizedRecord) *string { return r.ISBN10 }
	isbn13     strAccessor = func(r *record.NormalizedRecord) *string { return r.ISBN13 }
	categories strAccessor = func(r *record.NormalizedRecord) *string { return r.Categories }
	currency   strAccessor = func(r *record.NormalizedRecord) *string { return r.PriceCurrency }

	year         intAccessor = func(r *record.NormalizedRecord) *int { return r.PublishedYear }
	pageCount    intAccessor = func(r *record.NormalizedRecord) *int { return r.PageCount }
	ratingsCount intAccessor = func(r *record.NormalizedRecord) *int { return r.RatingsCount }

	price  floatAccessor = func(r *record.NormalizedRecord) *float64 { return r.PriceAmount }
	rating floatAccessor = func(r *record.NormalizedRecord) *float64 { return r.Rating }
)

func strField(r *record.NormalizedRecord, get strAccessor) *string {
	if r == nil {
		return nil
	}
	return get(r)
}

func intField(r *record.NormalizedRecord, get intAccessor) *int {
	if r == nil {
		return nil
	}
	return get(r)
}

func floatField(r *record.NormalizedRecord, get floatAccessor) *float64 {
	if r == nil {
		return nil
	}
	return get(r)
}

func pickStr(s Strategy, gb, gr *string) *string {
	switch s {
	case GoogleBooksOnly:
		return gb
	case GoodreadsOnly:
		return gr
	default: // PreferGoogleBooks
		if gb != nil {
			return gb
		}
		return gr
	}
}

func pickInt(s Strategy, gb, gr *int) *int {
	switch s {
	case GoogleBooksOnly:
		return gb
	case GoodreadsOnly:
		return gr
	default:
		if gb != nil {
			return gb
		}
		return gr
	}
}

func pickFloat(s Strategy, gb, gr *float64) *float64 {
	switch s {
	case GoogleBooksOnly:
		return gb
	case GoodreadsOnly:
		return gr
	default:
		if gb != nil {
			return gb
		}
		return gr
	}
}
