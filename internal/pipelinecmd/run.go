package pipelinecmd

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/libridata/bookmerge/internal/config"
	"github.com/libridata/bookmerge/internal/emit"
	"github.com/libridata/bookmerge/internal/pipeline"
	"github.com/libridata/bookmerge/internal/storage"
)

func executeRun(configPath, postgresDSN string) error {
	cfg := config.Default()
	if configPath != "" {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
	}
	if postgresDSN != "" {
		cfg.Postgres.DSN = postgresDSN
	}

	res, err := pipeline.Run(cfg)
	if err != nil {
		return err
	}

	dimBookPath := filepath.Join(cfg.Output.StandardDir, emit.DimBookFile)
	if err := emit.WriteParquet(dimBookPath, res.Books); err != nil {
		return fmt.Errorf("write %s: %w", emit.DimBookFile, err)
	}
	detailPath := filepath.Join(cfg.Output.StandardDir, emit.SourceDetailFile)
	if err := emit.WriteParquet(detailPath, res.Details); err != nil {
		return fmt.Errorf("write %s: %w", emit.SourceDetailFile, err)
	}
	metricsPath := filepath.Join(cfg.Output.StandardDir, emit.QualityMetricsFile)
	if err := emit.WriteQualityMetrics(metricsPath, res.Report); err != nil {
		return fmt.Errorf("write %s: %w", emit.QualityMetricsFile, err)
	}
	schemaPath := filepath.Join(cfg.Output.DocsDir, emit.SchemaDocFile)
	if err := emit.WriteSchemaDoc(schemaPath, res.Books, res.RunAt); err != nil {
		return fmt.Errorf("write %s: %w", emit.SchemaDocFile, err)
	}
	slog.Info("outputs written",
		"dim_book", dimBookPath,
		"source_detail", detailPath,
		"metrics", metricsPath,
		"schema", schemaPath)

	if cfg.Postgres.DSN != "" {
		pw, err := storage.NewPostgresWriter(cfg.Postgres.DSN, cfg.Postgres.Table)
		if err != nil {
			return err
		}
		defer pw.Close()

		if err := pw.Write(res.Books); err != nil {
			return err
		}
		slog.Info("warehouse loaded", "table", cfg.Postgres.Table, "books", len(res.Books))
	}

	return nil
}
