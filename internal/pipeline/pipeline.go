// Package pipeline runs the end-to-end consolidation: load the landing
// files, stage both sources onto the common schema, normalize, assign
// canonical keys, join, resolve survivorship, and gate the result on the
// quality thresholds. Outputs are only handed back when every gate passes.
package pipeline

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/libridata/bookmerge/internal/bookid"
	"github.com/libridata/bookmerge/internal/config"
	"github.com/libridata/bookmerge/internal/landing"
	"github.com/libridata/bookmerge/internal/merge"
	"github.com/libridata/bookmerge/internal/normalize"
	"github.com/libridata/bookmerge/internal/quality"
	"github.com/libridata/bookmerge/internal/record"
	"github.com/libridata/bookmerge/internal/survive"
)

// Result is everything a successful run produced.
type Result struct {
	Books   []record.ConsolidatedBook
	Details []record.SourceDetail
	Report  *quality.Report
	RunAt   time.Time
}

// Run executes the full pipeline against the configured landing files.
// Any structural problem in the inputs and any failed quality gate abort
// the run with no partial output.
func Run(cfg config.Config) (*Result, error) {
	runAt := time.Now().UTC()

	goodreadsRaw, err := landing.LoadGoodreads(cfg.Landing.GoodreadsPath)
	if err != nil {
		return nil, fmt.Errorf("load goodreads landing: %w", err)
	}
	googleRaw, err := landing.LoadGoogleBooks(cfg.Landing.GoogleBooksPath)
	if err != nil {
		return nil, fmt.Errorf("load googlebooks landing: %w", err)
	}
	slog.Info("landing files loaded",
		"goodreads", len(goodreadsRaw),
		"googlebooks", len(googleRaw))

	goodreadsStaged := make([]record.SourceRecord, 0, len(goodreadsRaw))
	for _, b := range goodreadsRaw {
		goodreadsStaged = append(goodreadsStaged, record.StageGoodreads(b))
	}
	googleStaged := make([]record.SourceRecord, 0, len(googleRaw))
	for _, v := range googleRaw {
		googleStaged = append(googleStaged, record.StageGoogleBooks(v))
	}

	goodreads := bookid.Assign(normalize.Records(goodreadsStaged))
	googlebooks := bookid.Assign(normalize.Records(googleStaged))
	slog.Info("records normalized and keyed",
		"goodreads", len(goodreads),
		"googlebooks", len(googlebooks))

	rows := merge.OuterJoin(goodreads, googlebooks)
	books := survive.Resolve(rows, runAt)
	slog.Info("sources merged",
		"join_rows", len(rows),
		"books", len(books))

	details := buildDetails(goodreadsStaged, goodreads, googleStaged, googlebooks, runAt)

	report := quality.BuildReport(books, details, runAt)
	if err := quality.Assert(books, cfg.Quality); err != nil {
		return nil, fmt.Errorf("quality gate: %w", err)
	}
	slog.Info("quality gate passed", "books", len(books))

	return &Result{
		Books:   books,
		Details: details,
		Report:  report,
		RunAt:   runAt,
	}, nil
}

// buildDetails emits one lineage row per original input record, carrying
// the pre-normalization field values and the canonical key the record
// contributed to.
func buildDetails(goodreadsStaged []record.SourceRecord, goodreads []record.NormalizedRecord,
	googleStaged []record.SourceRecord, googlebooks []record.NormalizedRecord,
	runAt time.Time) []record.SourceDetail {

	ingestedAt := runAt.Format(time.RFC3339)
	details := make([]record.SourceDetail, 0, len(goodreadsStaged)+len(googleStaged))

	add := func(staged record.SourceRecord, key, file string) {
		details = append(details, record.SourceDetail{
			SourceID:          fmt.Sprintf("%s_%d", staged.Source, staged.RowNumber),
			SourceName:        string(staged.Source),
			SourceFile:        file,
			RowNumber:         staged.RowNumber,
			CandidateBookID:   key,
			OriginalTitle:     staged.Title,
			OriginalAuthor:    staged.Author,
			OriginalISBN10:    staged.ISBN10,
			OriginalISBN13:    staged.ISBN13,
			OriginalPublisher: staged.Publisher,
			OriginalPrice:     staged.PriceAmount,
			OriginalCurrency:  staged.PriceCurrency,
			OriginalLanguage:  staged.Language,
			OriginalRating:    staged.Rating,
			OriginalYear:      staged.PublishedYear,
			IngestedAt:        ingestedAt,
		})
	}

	for i, staged := range goodreadsStaged {
		add(staged, goodreads[i].CanonicalKey, landing.GoodreadsFile)
	}
	for i, staged := range googleStaged {
		add(staged, googlebooks[i].CanonicalKey, landing.GoogleBooksFile)
	}
	return details
}
