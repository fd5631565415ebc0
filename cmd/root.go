package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/libridata/bookmerge/internal/pipelinecmd"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookmerge",
		Short: "Book metadata consolidation pipeline",
		Long: `Bookmerge collects book metadata from Goodreads and Google Books and
consolidates it into a deduplicated, quality-gated canonical table.

The stages run as subcommands: scrape the catalog, enrich it against the
Google Books API, then run the consolidation over both landing files.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	cmd.AddCommand(pipelinecmd.NewScrapeCmd())
	cmd.AddCommand(pipelinecmd.NewEnrichCmd())
	cmd.AddCommand(pipelinecmd.NewRunCmd())
	cmd.AddCommand(pipelinecmd.NewReportCmd())

	return cmd
}
