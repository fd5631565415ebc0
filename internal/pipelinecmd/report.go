package pipelinecmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/libridata/bookmerge/internal/emit"
	"github.com/libridata/bookmerge/internal/quality"
)

func executeReport(standardDir string) error {
	books, err := emit.ReadDimBook(filepath.Join(standardDir, emit.DimBookFile))
	if err != nil {
		return fmt.Errorf("read consolidated table: %w", err)
	}

	report := quality.BuildReport(books, nil, time.Now().UTC())

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
