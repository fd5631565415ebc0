package googlebooks

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/libridata/bookmerge/internal/record"
)

var csvHeader = []string{
	"row_number", "gb_id", "title", "subtitle", "authors", "publisher",
	"published_date", "language", "page_count", "categories",
	"isbn10", "isbn13", "price_amount", "price_currency",
}

// WriteCSV writes the enriched volumes as the Google Books landing file.
// Nil fields become empty cells.
func WriteCSV(path string, volumes []record.GoogleBooksVolume) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create landing dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create googlebooks landing file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("write googlebooks header: %w", err)
	}

	str := func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	}

	for _, v := range volumes {
		row := []string{
			strconv.Itoa(v.RowNumber),
			str(v.VolumeID),
			str(v.Title),
			str(v.Subtitle),
			str(v.Authors),
			str(v.Publisher),
			str(v.PublishedDate),
			str(v.Language),
			"",
			str(v.Categories),
			str(v.ISBN10),
			str(v.ISBN13),
			"",
			str(v.PriceCurrency),
		}
		if v.PageCount != nil {
			row[8] = strconv.Itoa(*v.PageCount)
		}
		if v.PriceAmount != nil {
			row[12] = strconv.FormatFloat(*v.PriceAmount, 'f', -1, 64)
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write googlebooks row %d: %w", v.RowNumber, err)
		}
	}

	w.Flush()
	return w.Error()
}
