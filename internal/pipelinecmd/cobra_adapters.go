package pipelinecmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// NewScrapeCmd creates the scrape command that collects the Goodreads
// landing file.
func NewScrapeCmd() *cobra.Command {
	var output string
	var query string
	var maxBooks int
	var verbose bool

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape Goodreads search results into the landing directory",
		Long: `Scrape walks Goodreads search result pages for the configured query and
writes the raw records to the landing directory as JSON.

USER_AGENT must be set; Goodreads rejects the default Go client string.
GOODREADS_SEARCH_QUERY and GOODREADS_MAX_BOOKS provide defaults the
flags can override.`,
		Example: `  # Scrape with the query from the environment
  bookmerge scrape

  # Scrape 50 cooking books
  bookmerge scrape --query cooking --max-books 50`,
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(verbose)
			return executeScrape(output, query, maxBooks)
		},
	}

	cmd.Flags().StringVar(&output, "output", "landing/goodreads_books.json", "Path for the Goodreads landing file")
	cmd.Flags().StringVar(&query, "query", "", "Search query (overrides GOODREADS_SEARCH_QUERY)")
	cmd.Flags().IntVar(&maxBooks, "max-books", 0, "Maximum books to scrape (overrides GOODREADS_MAX_BOOKS)")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Verbose logging")

	return cmd
}

// NewEnrichCmd creates the enrich command that builds the Google Books
// landing file from the scraped one.
func NewEnrichCmd() *cobra.Command {
	var input string
	var output string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Enrich the scraped books against the Google Books API",
		Long: `Enrich looks every scraped book up in the Google Books volumes API and
writes the results as the Google Books landing CSV. Lookups try ISBN-13
first, then ISBN-10, then title and author.

GOOGLE_BOOKS_API_KEY is optional; without it the API enforces stricter
rate limits and the pauses between lookups get longer.`,
		Example: `  # Enrich the default landing file
  bookmerge enrich

  # Enrich a specific scrape
  bookmerge enrich --input landing/goodreads_books.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(verbose)
			return executeEnrich(input, output)
		},
	}

	cmd.Flags().StringVar(&input, "input", "landing/goodreads_books.json", "Path to the Goodreads landing file")
	cmd.Flags().StringVar(&output, "output", "landing/googlebooks_books.csv", "Path for the Google Books landing file")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Verbose logging")

	return cmd
}

// NewRunCmd creates the run command that executes the consolidation
// pipeline.
func NewRunCmd() *cobra.Command {
	var configPath string
	var postgresDSN string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the consolidation pipeline over the landing files",
		Long: `Run loads both landing files, normalizes and keys every record, merges
the sources, resolves one row per book, and checks the quality gates.
Outputs are only written when every gate passes: the consolidated
parquet tables, the quality metrics JSON, and the schema documentation.`,
		Example: `  # Run with the default layout
  bookmerge run

  # Run with a config file and load the warehouse
  bookmerge run --config bookmerge.yaml --postgres-dsn "$POSTGRES_DSN"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(verbose)
			return executeRun(configPath, postgresDSN)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	cmd.Flags().StringVar(&postgresDSN, "postgres-dsn", "", "Load the consolidated table into PostgreSQL (overrides config)")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Verbose logging")

	return cmd
}

// NewReportCmd creates the report command that prints the quality
// metrics for a finished run.
func NewReportCmd() *cobra.Command {
	var standardDir string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the quality report for the consolidated output",
		Long: `Report reads the consolidated parquet table back and prints the quality
metrics as JSON: completeness per column, duplicate counts, per-source
row counts and format validation rates.`,
		Example: `  # Report on the default output directory
  bookmerge report

  # Report on another run
  bookmerge report --standard /data/standard`,
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(verbose)
			return executeReport(standardDir)
		},
	}

	cmd.Flags().StringVar(&standardDir, "standard", "standard", "Directory holding the consolidated parquet tables")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Verbose logging")

	return cmd
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
