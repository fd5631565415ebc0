package pipelinecmd

import (
	"log/slog"
	"os"

	"github.com/libridata/bookmerge/internal/googlebooks"
	"github.com/libridata/bookmerge/internal/landing"
)

func executeEnrich(input, output string) error {
	books, err := landing.LoadGoodreads(input)
	if err != nil {
		return err
	}

	apiKey := os.Getenv("GOOGLE_BOOKS_API_KEY")
	if apiKey == "" {
		slog.Warn("GOOGLE_BOOKS_API_KEY not set, using the API unauthenticated with stricter rate limits")
	}

	client := googlebooks.NewClient(apiKey)
	slog.Info("starting enrichment", "books", len(books))
	volumes, _ := client.Enrich(books)

	return googlebooks.WriteCSV(output, volumes)
}
