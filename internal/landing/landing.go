// Package landing loads the raw record sets the upstream collectors drop
// in the landing directory: the Goodreads scrape JSON and the Google Books
// enrichment CSV. Structural problems — a missing file, a missing required
// column — are fatal; malformed individual values are left to the
// normalizer, which resolves them to nil.
package landing

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/libridata/bookmerge/internal/record"
)

// GoodreadsFile is the expected landing file name for the scraped catalog.
const GoodreadsFile = "goodreads_books.json"

// GoogleBooksFile is the expected landing file name for the API enrichment.
const GoogleBooksFile = "googlebooks_books.csv"

// goodreadsLanding mirrors the scraper's output envelope. The metadata
// block is ignored here; only the records matter to the pipeline.
type goodreadsLanding struct {
	Books []record.GoodreadsBook `json:"books"`
}

// LoadGoodreads reads the Goodreads landing JSON.
func LoadGoodreads(path string) ([]record.GoodreadsBook, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open goodreads landing file: %w", err)
	}
	defer f.Close()

	var landing goodreadsLanding
	if err := json.NewDecoder(f).Decode(&landing); err != nil {
		return nil, fmt.Errorf("parse goodreads landing file: %w", err)
	}
	if landing.Books == nil {
		return nil, fmt.Errorf("goodreads landing file %s has no books array", path)
	}

	slog.Debug("Loaded goodreads landing", "path", path, "records", len(landing.Books))
	return landing.Books, nil
}

var googleBooksColumns = []string{
	"row_number", "title", "subtitle", "authors", "publisher",
	"published_date", "language", "page_count", "categories",
	"isbn10", "isbn13", "price_amount", "price_currency",
}

// LoadGoogleBooks reads the Google Books landing CSV. The header must
// contain every required column; extra columns (gb_id, thumbnail) are
// tolerated. Empty cells become nil fields.
func LoadGoogleBooks(path string) ([]record.GoogleBooksVolume, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open googlebooks landing file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read googlebooks header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	var missing []string
	for _, name := range googleBooksColumns {
		if _, ok := col[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("googlebooks landing file %s missing required columns: %s", path, strings.Join(missing, ", "))
	}

	var volumes []record.GoogleBooksVolume
	line := 1
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read googlebooks row %d: %w", line, err)
		}

		cell := func(name string) *string {
			idx, ok := col[name]
			if !ok || idx >= len(row) {
				return nil
			}
			v := strings.TrimSpace(row[idx])
			if v == "" {
				return nil
			}
			return &v
		}

		v := record.GoogleBooksVolume{
			VolumeID:      cell("gb_id"),
			Title:         cell("title"),
			Subtitle:      cell("subtitle"),
			Authors:       cell("authors"),
			Publisher:     cell("publisher"),
			PublishedDate: cell("published_date"),
			Language:      cell("language"),
			PageCount:     intCell(cell("page_count")),
			Categories:    cell("categories"),
			ISBN10:        cell("isbn10"),
			ISBN13:        cell("isbn13"),
			PriceAmount:   floatCell(cell("price_amount")),
			PriceCurrency: cell("price_currency"),
		}
		if n := intCell(cell("row_number")); n != nil {
			v.RowNumber = *n
		} else {
			v.RowNumber = line - 1
		}

		volumes = append(volumes, v)
	}

	slog.Debug("Loaded googlebooks landing", "path", path, "records", len(volumes))
	return volumes, nil
}

// intCell parses an integer cell, tolerating a decimal rendering like
// "352.0" that some exporters emit. Unparseable values become nil.
func intCell(s *string) *int {
	if s == nil {
		return nil
	}
	if n, err := strconv.Atoi(*s); err == nil {
		return &n
	}
	if f, err := strconv.ParseFloat(*s, 64); err == nil {
		n := int(f)
		return &n
	}
	return nil
}

func floatCell(s *string) *float64 {
	if s == nil {
		return nil
	}
	f, err := strconv.ParseFloat(*s, 64)
	if err != nil {
		return nil
	}
	return &f
}
