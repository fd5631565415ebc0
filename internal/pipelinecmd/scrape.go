package pipelinecmd

import (
	"log/slog"
	"time"

	"github.com/libridata/bookmerge/internal/goodreads"
)

func executeScrape(output, query string, maxBooks int) error {
	scraper, err := goodreads.FromEnv()
	if err != nil {
		return err
	}
	if query != "" {
		scraper.Query = query
	}
	if maxBooks > 0 {
		scraper.MaxBooks = maxBooks
	}

	slog.Info("starting scrape", "query", scraper.Query, "max_books", scraper.MaxBooks)
	books, err := scraper.Scrape()
	if err != nil {
		return err
	}

	withISBN13 := 0
	for _, b := range books {
		if b.ISBN13 != nil {
			withISBN13++
		}
	}
	slog.Info("scrape finished", "books", len(books), "with_isbn13", withISBN13)

	return scraper.WriteLanding(output, books, time.Now().UTC())
}
