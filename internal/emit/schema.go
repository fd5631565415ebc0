package emit

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/libridata/bookmerge/internal/record"
)

// WriteSchemaDoc generates the data dictionary for the consolidated table:
// one row per column with its null percentage and a truncated example
// value, followed by dataset statistics and the normalization and
// deduplication rules.
func WriteSchemaDoc(path string, books []record.ConsolidatedBook, runAt time.Time) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create docs dir: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Schema - %s\n\n", DimBookFile)
	fmt.Fprintf(&b, "Data model documentation generated %s\n\n", runAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "## Table: %s\n\n", DimBookFile)
	b.WriteString("Canonical table: **one row per book**, deduplicated and normalized.\n\n")
	fmt.Fprintf(&b, "### Columns (%d)\n\n", record.ColumnCount)
	b.WriteString("| Column | Nulls | Example |\n")
	b.WriteString("|--------|-------|---------|\n")

	for _, col := range schemaColumns(books) {
		fmt.Fprintf(&b, "| `%s` | %.1f%% | %s |\n", col.name, col.nullPct, col.example)
	}

	withISBN13 := 0
	withPrice := 0
	languages := map[string]struct{}{}
	sources := map[string]struct{}{}
	for _, book := range books {
		if book.ISBN13 != nil {
			withISBN13++
		}
		if book.PriceAmount != nil {
			withPrice++
		}
		if book.Language != nil {
			languages[*book.Language] = struct{}{}
		}
		sources[book.WinningSource] = struct{}{}
	}

	b.WriteString("\n## Statistics\n\n")
	fmt.Fprintf(&b, "- Total books: %d\n", len(books))
	fmt.Fprintf(&b, "- Books with ISBN-13: %d (%s)\n", withISBN13, pct(withISBN13, len(books)))
	fmt.Fprintf(&b, "- Books with price: %d (%s)\n", withPrice, pct(withPrice, len(books)))
	fmt.Fprintf(&b, "- Distinct languages: %d\n", len(languages))
	fmt.Fprintf(&b, "- Winning sources: %s\n", joinKeys(sources))

	b.WriteString(`
## Normalization rules

- **Dates**: ISO-8601 (YYYY-MM-DD). Year-only and year-month inputs are
  padded to the first day; the original precision is approximate.
- **Language**: BCP-47 lowercase (e.g. es, en, pt-br)
- **Currency**: ISO-4217 uppercase (e.g. EUR, USD)
- **ISBN**: checksum-validated, hyphens and spaces stripped
- **book_id**: ISBN-13 when available, otherwise a prefixed content hash

## Deduplication rules

- **Primary key**: ISBN-13 (converted from ISBN-10 when needed)
- **Fallback key**: hash(normalized_title | normalized_author | publisher | year)
- **Title**: longest wins, Google Books on ties
- **Price, language, pages, categories**: Google Books only
- **Rating**: Goodreads only
- **Winning source**: whichever side contributed more fields
`)

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write schema doc: %w", err)
	}
	return nil
}

type schemaColumn struct {
	name    string
	nullPct float64
	example string
}

func schemaColumns(books []record.ConsolidatedBook) []schemaColumn {
	type extractor struct {
		name string
		get  func(record.ConsolidatedBook) *string
	}

	str := func(s *string) *string { return s }
	intStr := func(n *int) *string {
		if n == nil {
			return nil
		}
		v := fmt.Sprintf("%d", *n)
		return &v
	}
	floatStr := func(f *float64) *string {
		if f == nil {
			return nil
		}
		v := fmt.Sprintf("%.2f", *f)
		return &v
	}
	listStr := func(l []string) *string {
		if len(l) == 0 {
			return nil
		}
		v := strings.Join(l, ", ")
		return &v
	}

	extractors := []extractor{
		{"book_id", func(b record.ConsolidatedBook) *string { return &b.BookID }},
		{"title", func(b record.ConsolidatedBook) *string { return str(b.Title) }},
		{"normalized_title", func(b record.ConsolidatedBook) *string { return str(b.NormalizedTitle) }},
		{"subtitle", func(b record.ConsolidatedBook) *string { return str(b.Subtitle) }},
		{"primary_author", func(b record.ConsolidatedBook) *string { return str(b.PrimaryAuthor) }},
		{"normalized_author", func(b record.ConsolidatedBook) *string { return str(b.NormalizedAuthor) }},
		{"authors", func(b record.ConsolidatedBook) *string { return listStr(b.Authors) }},
		{"publisher", func(b record.ConsolidatedBook) *string { return str(b.Publisher) }},
		{"published_year", func(b record.ConsolidatedBook) *string { return intStr(b.PublishedYear) }},
		{"published_date", func(b record.ConsolidatedBook) *string { return str(b.PublishedDate) }},
		{"language", func(b record.ConsolidatedBook) *string { return str(b.Language) }},
		{"isbn10", func(b record.ConsolidatedBook) *string { return str(b.ISBN10) }},
		{"isbn13", func(b record.ConsolidatedBook) *string { return str(b.ISBN13) }},
		{"page_count", func(b record.ConsolidatedBook) *string { return intStr(b.PageCount) }},
		{"categories", func(b record.ConsolidatedBook) *string { return listStr(b.Categories) }},
		{"price_amount", func(b record.ConsolidatedBook) *string { return floatStr(b.PriceAmount) }},
		{"price_currency", func(b record.ConsolidatedBook) *string { return str(b.PriceCurrency) }},
		{"rating", func(b record.ConsolidatedBook) *string { return floatStr(b.Rating) }},
		{"ratings_count", func(b record.ConsolidatedBook) *string { return intStr(b.RatingsCount) }},
		{"winning_source", func(b record.ConsolidatedBook) *string { return &b.WinningSource }},
		{"updated_at", func(b record.ConsolidatedBook) *string { return &b.UpdatedAt }},
	}

	cols := make([]schemaColumn, 0, len(extractors))
	for _, ex := range extractors {
		nulls := 0
		example := "N/A"
		for _, book := range books {
			v := ex.get(book)
			if v == nil || *v == "" {
				nulls++
				continue
			}
			if example == "N/A" {
				example = truncate(*v, 50)
			}
		}
		nullPct := 0.0
		if len(books) > 0 {
			nullPct = float64(nulls) / float64(len(books)) * 100
		}
		cols = append(cols, schemaColumn{name: ex.name, nullPct: nullPct, example: example})
	}
	return cols
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func pct(n, total int) string {
	if total == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(n)/float64(total)*100)
}

func joinKeys(m map[string]struct{}) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}
