package goodreads

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/libridata/bookmerge/internal/record"
)

// Metadata documents how a landing file was produced.
type Metadata struct {
	Source            string `json:"source"`
	SearchQuery       string `json:"search_query"`
	SearchURL         string `json:"search_url"`
	UserAgent         string `json:"user_agent"`
	ScrapingTimestamp string `json:"scraping_timestamp"`
	TotalBooksScraped int    `json:"total_books_scraped"`
}

type landingDoc struct {
	Metadata Metadata               `json:"metadata"`
	Books    []record.GoodreadsBook `json:"books"`
}

// WriteLanding saves the scraped books plus run metadata as the
// Goodreads landing JSON.
func (s *Scraper) WriteLanding(path string, books []record.GoodreadsBook, runAt time.Time) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create landing dir: %w", err)
	}

	// An empty run still writes a books array, not null.
	if books == nil {
		books = []record.GoodreadsBook{}
	}

	doc := landingDoc{
		Metadata: Metadata{
			Source:            "Goodreads",
			SearchQuery:       s.Query,
			SearchURL:         fmt.Sprintf("%s/search?q=%s&page=1", s.BaseURL, s.Query),
			UserAgent:         s.UserAgent,
			ScrapingTimestamp: runAt.Format(time.RFC3339),
			TotalBooksScraped: len(books),
		},
		Books: books,
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create goodreads landing file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("write goodreads landing file: %w", err)
	}
	return nil
}
