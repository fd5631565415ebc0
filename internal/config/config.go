package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/libridata/bookmerge/internal/quality"
	"gopkg.in/yaml.v3"
)

// Landing points at the raw source extracts.
type Landing struct {
	GoodreadsPath   string `yaml:"goodreads_path"`
	GoogleBooksPath string `yaml:"googlebooks_path"`
}

// Output holds the directories the pipeline writes into.
type Output struct {
	StandardDir string `yaml:"standard_dir"`
	DocsDir     string `yaml:"docs_dir"`
}

// Postgres configures the optional warehouse sink. An empty DSN
// disables it.
type Postgres struct {
	DSN   string `yaml:"dsn"`
	Table string `yaml:"table"`
}

// Config is the full pipeline configuration.
type Config struct {
	Landing  Landing            `yaml:"landing"`
	Output   Output             `yaml:"output"`
	Quality  quality.Thresholds `yaml:"quality"`
	Postgres Postgres           `yaml:"postgres"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Landing: Landing{
			GoodreadsPath:   filepath.Join("landing", "goodreads_books.json"),
			GoogleBooksPath: filepath.Join("landing", "googlebooks_books.csv"),
		},
		Output: Output{
			StandardDir: "standard",
			DocsDir:     "docs",
		},
		Quality: quality.DefaultThresholds(),
		Postgres: Postgres{
			Table: "dim_book",
		},
	}
}

// Load reads a YAML config file on top of the defaults, so a partial
// file only overrides the sections it names.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.Landing.GoodreadsPath == "" || cfg.Landing.GoogleBooksPath == "" {
		return cfg, fmt.Errorf("config %s: landing paths must not be empty", path)
	}
	return cfg, nil
}
