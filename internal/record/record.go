// Package record defines the data model shared by the integration pipeline:
// raw landing shapes, the staged common schema, and the consolidated output
// entities. Absent values are represented as nil pointers throughout; no
// field ever carries a sentinel string.
package record

import (
	"strconv"
	"strings"
)

// Source identifies which upstream system a record came from.
type Source string

const (
	SourceGoodreads   Source = "goodreads"
	SourceGoogleBooks Source = "googlebooks"
)

// GoodreadsBook is one raw record from the Goodreads landing file
// (landing/goodreads_books.json).
type GoodreadsBook struct {
	RowNumber     int      `json:"row_number"`
	Title         *string  `json:"title"`
	Author        *string  `json:"author"`
	Rating        *float64 `json:"rating"`
	RatingsCount  *int     `json:"ratings_count"`
	PublishedYear *int     `json:"published_year"`
	BookURL       *string  `json:"book_url"`
	ISBN10        *string  `json:"isbn10"`
	ISBN13        *string  `json:"isbn13"`
}

// GoogleBooksVolume is one raw record from the Google Books landing file
// (landing/googlebooks_books.csv). Authors and Categories are pipe-delimited
// as emitted by the enricher.
type GoogleBooksVolume struct {
	RowNumber     int
	VolumeID      *string
	Title         *string
	Subtitle      *string
	Authors       *string
	Publisher     *string
	PublishedDate *string
	Language      *string
	PageCount     *int
	Categories    *string
	ISBN10        *string
	ISBN13        *string
	PriceAmount   *float64
	PriceCurrency *string
}

// SourceRecord is one book observation mapped onto the staged common schema.
// Fields a source cannot supply stay nil. Immutable once staged;
// normalization derives a new NormalizedRecord instead of mutating.
type SourceRecord struct {
	Source    Source
	RowNumber int

	Title         *string
	Subtitle      *string
	Author        *string
	AuthorList    *string // pipe-delimited, Google Books only
	Publisher     *string
	PublishedDate *string // raw date string, Google Books only
	PublishedYear *int
	Language      *string
	PageCount     *int
	Categories    *string // pipe-delimited, Google Books only
	ISBN10        *string
	ISBN13        *string
	PriceAmount   *float64
	PriceCurrency *string
	Rating        *float64
	RatingsCount  *int
	BookURL       *string
}

// NormalizedRecord is a SourceRecord plus the derived matching fields.
// The embedded SourceRecord is a copy with in-place normalizations applied
// (cleaned ISBNs, ISO date, lowercase language, uppercase currency).
type NormalizedRecord struct {
	SourceRecord

	NormalizedTitle  *string
	NormalizedAuthor *string

	// CanonicalKey is assigned by the key generator after normalization.
	CanonicalKey string
}

// ConsolidatedBook is the canonical one-row-per-book output entity.
type ConsolidatedBook struct {
	BookID           string   `json:"book_id" parquet:"book_id"`
	Title            *string  `json:"title" parquet:"title,optional"`
	NormalizedTitle  *string  `json:"normalized_title" parquet:"normalized_title,optional"`
	Subtitle         *string  `json:"subtitle" parquet:"subtitle,optional"`
	PrimaryAuthor    *string  `json:"primary_author" parquet:"primary_author,optional"`
	NormalizedAuthor *string  `json:"normalized_author" parquet:"normalized_author,optional"`
	Authors          []string `json:"authors,omitempty" parquet:"authors,list"`
	Publisher        *string  `json:"publisher" parquet:"publisher,optional"`
	PublishedYear    *int     `json:"published_year" parquet:"published_year,optional"`
	PublishedDate    *string  `json:"published_date" parquet:"published_date,optional"`
	Language         *string  `json:"language" parquet:"language,optional"`
	ISBN10           *string  `json:"isbn10" parquet:"isbn10,optional"`
	ISBN13           *string  `json:"isbn13" parquet:"isbn13,optional"`
	PageCount        *int     `json:"page_count" parquet:"page_count,optional"`
	Categories       []string `json:"categories,omitempty" parquet:"categories,list"`
	PriceAmount      *float64 `json:"price_amount" parquet:"price_amount,optional"`
	PriceCurrency    *string  `json:"price_currency" parquet:"price_currency,optional"`
	Rating           *float64 `json:"rating" parquet:"rating,optional"`
	RatingsCount     *int     `json:"ratings_count" parquet:"ratings_count,optional"`
	WinningSource    string   `json:"winning_source" parquet:"winning_source"`
	UpdatedAt        string   `json:"updated_at" parquet:"updated_at"`
}

// ColumnCount is the number of columns in the consolidated table, reported
// by the quality gate.
const ColumnCount = 21

// SourceDetail is one lineage row per original input record, linking it to
// the canonical key it contributed to.
type SourceDetail struct {
	SourceID          string   `json:"source_id" parquet:"source_id"`
	SourceName        string   `json:"source_name" parquet:"source_name"`
	SourceFile        string   `json:"source_file" parquet:"source_file"`
	RowNumber         int      `json:"row_number" parquet:"row_number"`
	CandidateBookID   string   `json:"candidate_book_id" parquet:"candidate_book_id"`
	OriginalTitle     *string  `json:"original_title" parquet:"original_title,optional"`
	OriginalAuthor    *string  `json:"original_author" parquet:"original_author,optional"`
	OriginalISBN10    *string  `json:"original_isbn10" parquet:"original_isbn10,optional"`
	OriginalISBN13    *string  `json:"original_isbn13" parquet:"original_isbn13,optional"`
	OriginalPublisher *string  `json:"original_publisher" parquet:"original_publisher,optional"`
	OriginalPrice     *float64 `json:"original_price" parquet:"original_price,optional"`
	OriginalCurrency  *string  `json:"original_currency" parquet:"original_currency,optional"`
	OriginalLanguage  *string  `json:"original_language" parquet:"original_language,optional"`
	OriginalRating    *float64 `json:"original_rating" parquet:"original_rating,optional"`
	OriginalYear      *int     `json:"original_year" parquet:"original_year,optional"`
	IngestedAt        string   `json:"ingested_at" parquet:"ingested_at"`
}

// StageGoodreads maps a raw Goodreads record to the common schema.
// Goodreads never supplies publisher, language, pages, categories or price.
func StageGoodreads(b GoodreadsBook) SourceRecord {
	return SourceRecord{
		Source:        SourceGoodreads,
		RowNumber:     b.RowNumber,
		Title:         b.Title,
		Author:        b.Author,
		Rating:        b.Rating,
		RatingsCount:  b.RatingsCount,
		PublishedYear: b.PublishedYear,
		ISBN10:        b.ISBN10,
		ISBN13:        b.ISBN13,
		BookURL:       b.BookURL,
	}
}

// StageGoogleBooks maps a raw Google Books record to the common schema.
// The primary author is the first entry of the pipe-delimited author list;
// the publication year is taken from the leading YYYY of the raw date.
func StageGoogleBooks(v GoogleBooksVolume) SourceRecord {
	return SourceRecord{
		Source:        SourceGoogleBooks,
		RowNumber:     v.RowNumber,
		Title:         v.Title,
		Subtitle:      v.Subtitle,
		Author:        FirstAuthor(v.Authors),
		AuthorList:    v.Authors,
		Publisher:     v.Publisher,
		PublishedDate: v.PublishedDate,
		PublishedYear: YearFromDate(v.PublishedDate),
		Language:      v.Language,
		PageCount:     v.PageCount,
		Categories:    v.Categories,
		ISBN10:        v.ISBN10,
		ISBN13:        v.ISBN13,
		PriceAmount:   v.PriceAmount,
		PriceCurrency: v.PriceCurrency,
	}
}

// FirstAuthor returns the first entry of a pipe-delimited author string,
// trimmed, or nil when the list is absent or empty.
func FirstAuthor(authors *string) *string {
	if authors == nil {
		return nil
	}
	first := strings.TrimSpace(strings.SplitN(*authors, "|", 2)[0])
	if first == "" {
		return nil
	}
	return &first
}

// YearFromDate extracts the year from a raw date string shaped YYYY,
// YYYY-MM or YYYY-MM-DD. Anything that does not lead with four digits
// yields nil.
func YearFromDate(date *string) *int {
	if date == nil {
		return nil
	}
	s := strings.TrimSpace(*date)
	if len(s) < 4 {
		return nil
	}
	year, err := strconv.Atoi(s[:4])
	if err != nil {
		return nil
	}
	return &year
}

// SplitList parses a pipe-delimited string into trimmed non-empty entries.
// A nil input or a list with no real entries yields nil.
func SplitList(s *string) []string {
	if s == nil {
		return nil
	}
	var out []string
	for _, part := range strings.Split(*s, "|") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Ptr returns a pointer to v. Convenience for building records in staging
// code and tests.
func Ptr[T any](v T) *T { return &v }
