// Package emit writes the pipeline outputs: the consolidated and lineage
// Parquet tables, the quality metrics JSON, and the generated schema
// documentation. Callers run the quality gate first; nothing here is
// written on a failed run.
package emit

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"github.com/libridata/bookmerge/internal/quality"
	"github.com/libridata/bookmerge/internal/record"
)

// Output file names, fixed by the standard-layer contract.
const (
	DimBookFile        = "dim_book.parquet"
	SourceDetailFile   = "book_source_detail.parquet"
	QualityMetricsFile = "quality_metrics.json"
	SchemaDocFile      = "schema.md"
)

// WriteParquet writes rows as a Parquet file, creating intermediate
// directories as needed.
func WriteParquet[T any](path string, rows []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create parquet file %s: %w", path, err)
	}
	defer f.Close()

	w := parquet.NewGenericWriter[T](f)
	if _, err := w.Write(rows); err != nil {
		return fmt.Errorf("write parquet rows: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}

	slog.Debug("Wrote parquet file", "path", path, "rows", len(rows))
	return nil
}

// ReadDimBook loads a previously written consolidated table, used by the
// report command.
func ReadDimBook(path string) ([]record.ConsolidatedBook, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open parquet file %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat parquet file: %w", err)
	}

	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	reader := parquet.NewGenericReader[record.ConsolidatedBook](pf)
	defer reader.Close()

	var books []record.ConsolidatedBook
	batch := make([]record.ConsolidatedBook, 128)
	for {
		n, err := reader.Read(batch)
		if n > 0 {
			books = append(books, batch[:n]...)
		}
		if err != nil {
			break
		}
	}

	return books, nil
}

// WriteQualityMetrics serializes the quality report as indented JSON.
func WriteQualityMetrics(path string, rep *quality.Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create docs dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create metrics file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("encode quality metrics: %w", err)
	}
	return nil
}

// ReadQualityMetrics loads a previously written metrics file.
func ReadQualityMetrics(path string) (*quality.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read metrics file: %w", err)
	}
	var rep quality.Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("parse metrics file: %w", err)
	}
	return &rep, nil
}
