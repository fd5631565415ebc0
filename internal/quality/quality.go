// Package quality computes data-quality metrics over the consolidated set
// and enforces the blocking assertions that gate output.
package quality

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/libridata/bookmerge/internal/isbn"
	"github.com/libridata/bookmerge/internal/record"
)

var languagePattern = regexp.MustCompile(`^[a-z]{2,3}(-[a-z0-9]{2,8})*$`)
var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// commonCurrencies is the allow-list of frequent ISO-4217 codes. Membership
// is sufficient but not necessary: any 3-uppercase-letter code also passes.
var commonCurrencies = map[string]struct{}{
	"USD": {}, "EUR": {}, "GBP": {}, "JPY": {}, "AUD": {}, "CAD": {}, "CHF": {},
	"CNY": {}, "SEK": {}, "NZD": {}, "MXN": {}, "BRL": {}, "ARS": {}, "CLP": {},
}

// ValidISODate reports whether s is an ISO-8601 date shaped YYYY, YYYY-MM
// or YYYY-MM-DD and denotes a real calendar date. The year-only form must
// fall within 1000–9999.
func ValidISODate(s string) bool {
	switch len(s) {
	case 10:
		_, err := time.Parse("2006-01-02", s)
		return err == nil
	case 7:
		_, err := time.Parse("2006-01", s)
		return err == nil
	case 4:
		year, err := strconv.Atoi(s)
		return err == nil && year >= 1000 && year <= 9999
	default:
		return false
	}
}

// ValidLanguage reports whether s has the simplified BCP-47 shape after
// case folding: a 2–3 letter primary subtag plus optional subtags.
func ValidLanguage(s string) bool {
	return languagePattern.MatchString(s)
}

// ValidCurrency reports whether s is a known common currency code or
// matches the 3-uppercase-letter ISO-4217 shape.
func ValidCurrency(s string) bool {
	if _, ok := commonCurrencies[s]; ok {
		return true
	}
	return currencyPattern.MatchString(s)
}

// ColumnValidation summarizes format validity over the non-nil values of
// one column class.
type ColumnValidation struct {
	TotalNonNull    int     `json:"total_non_null"`
	ValidCount      int     `json:"valid_count"`
	ValidPercentage float64 `json:"valid_percentage"`
}

// Validation groups the per-class column validations.
type Validation struct {
	ISODates   ColumnValidation `json:"iso_dates"`
	Languages  ColumnValidation `json:"bcp47_languages"`
	Currencies ColumnValidation `json:"iso4217_currencies"`
	ISBN13s    ColumnValidation `json:"valid_isbn13"`
}

// DimBookMetrics covers the consolidated table.
type DimBookMetrics struct {
	RowCount     int                `json:"row_count"`
	ColumnCount  int                `json:"column_count"`
	Completeness map[string]float64 `json:"completeness"`
	Validation   Validation         `json:"validation"`
	Duplicates   map[string]int     `json:"duplicates"`
	BySource     map[string]int     `json:"by_source"`
}

// SourceDetailMetrics covers the lineage table.
type SourceDetailMetrics struct {
	RowCount int            `json:"row_count"`
	BySource map[string]int `json:"by_source"`
}

// Report is the quality summary emitted alongside the datasets. Recomputed
// fresh each run; never persisted incrementally.
type Report struct {
	Timestamp    string              `json:"timestamp"`
	DimBook      DimBookMetrics      `json:"dim_book"`
	SourceDetail SourceDetailMetrics `json:"book_source_detail"`
}

// Completeness returns the percentage (0–100) of non-nil values.
func Completeness(nonNull, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(nonNull) / float64(total) * 100
}

// BuildReport computes the full quality report over the consolidated and
// lineage sets.
func BuildReport(books []record.ConsolidatedBook, details []record.SourceDetail, runAt time.Time) *Report {
	rep := &Report{
		Timestamp: runAt.Format(time.RFC3339),
		DimBook: DimBookMetrics{
			RowCount:    len(books),
			ColumnCount: record.ColumnCount,
			Duplicates:  map[string]int{"book_id": duplicateKeys(books)},
			BySource:    map[string]int{},
		},
		SourceDetail: SourceDetailMetrics{
			RowCount: len(details),
			BySource: map[string]int{},
		},
	}

	total := len(books)
	var titles, isbn13s, prices, authors, years int
	for _, b := range books {
		if b.Title != nil {
			titles++
		}
		if b.ISBN13 != nil {
			isbn13s++
		}
		if b.PriceAmount != nil {
			prices++
		}
		if b.PrimaryAuthor != nil {
			authors++
		}
		if b.PublishedYear != nil {
			years++
		}
		rep.DimBook.BySource[b.WinningSource]++
	}
	rep.DimBook.Completeness = map[string]float64{
		"title":          Completeness(titles, total),
		"isbn13":         Completeness(isbn13s, total),
		"price_amount":   Completeness(prices, total),
		"primary_author": Completeness(authors, total),
		"published_year": Completeness(years, total),
	}

	rep.DimBook.Validation = Validation{
		ISODates:   validateColumn(books, func(b record.ConsolidatedBook) *string { return b.PublishedDate }, ValidISODate),
		Languages:  validateColumn(books, func(b record.ConsolidatedBook) *string { return b.Language }, ValidLanguage),
		Currencies: validateColumn(books, func(b record.ConsolidatedBook) *string { return b.PriceCurrency }, ValidCurrency),
		ISBN13s:    validateColumn(books, func(b record.ConsolidatedBook) *string { return b.ISBN13 }, isbn.ValidateISBN13),
	}

	for _, d := range details {
		rep.SourceDetail.BySource[d.SourceName]++
	}

	return rep
}

func validateColumn(books []record.ConsolidatedBook, get func(record.ConsolidatedBook) *string, valid func(string) bool) ColumnValidation {
	var cv ColumnValidation
	for _, b := range books {
		v := get(b)
		if v == nil {
			continue
		}
		cv.TotalNonNull++
		if valid(*v) {
			cv.ValidCount++
		}
	}
	if cv.TotalNonNull > 0 {
		cv.ValidPercentage = float64(cv.ValidCount) / float64(cv.TotalNonNull) * 100
	}
	return cv
}

func duplicateKeys(books []record.ConsolidatedBook) int {
	seen := make(map[string]struct{}, len(books))
	dups := 0
	for _, b := range books {
		if _, ok := seen[b.BookID]; ok {
			dups++
			continue
		}
		seen[b.BookID] = struct{}{}
	}
	return dups
}

// Thresholds are the blocking assertion bounds.
type Thresholds struct {
	MinTitleCompleteness float64 `yaml:"min_title_completeness"`
	PriceMin             float64 `yaml:"price_min"`
	PriceMax             float64 `yaml:"price_max"`
	MinRows              int     `yaml:"min_rows"`
}

// DefaultThresholds returns the standard assertion bounds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinTitleCompleteness: 90,
		PriceMin:             0,
		PriceMax:             1000,
		MinRows:              10,
	}
}

// Assert enforces the blocking invariants over the consolidated set, in
// order, returning a descriptive error for the first violation. Any error
// is fatal to the run: no output may be written after a failed assertion.
func Assert(books []record.ConsolidatedBook, t Thresholds) error {
	var titles int
	for _, b := range books {
		if b.Title != nil {
			titles++
		}
	}
	titleCompleteness := Completeness(titles, len(books))
	if titleCompleteness < t.MinTitleCompleteness {
		return fmt.Errorf("title completeness %.1f%% below required %.1f%%", titleCompleteness, t.MinTitleCompleteness)
	}

	if dups := duplicateKeys(books); dups > 0 {
		return fmt.Errorf("%d duplicate book_id values after deduplication", dups)
	}

	for _, b := range books {
		if b.PriceAmount == nil {
			continue
		}
		if *b.PriceAmount < t.PriceMin || *b.PriceAmount > t.PriceMax {
			return fmt.Errorf("price %.2f for book %s outside [%.0f, %.0f]", *b.PriceAmount, b.BookID, t.PriceMin, t.PriceMax)
		}
	}

	if len(books) < t.MinRows {
		return fmt.Errorf("only %d consolidated books, need at least %d", len(books), t.MinRows)
	}

	return nil
}
