// Package storage loads the consolidated table into a PostgreSQL
// warehouse. Each run replaces the table contents wholesale, matching
// the all-or-nothing semantics of the pipeline outputs.
package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/libridata/bookmerge/internal/record"
)

// PostgresWriter persists consolidated books to PostgreSQL.
type PostgresWriter struct {
	db    *sql.DB
	table string
}

// NewPostgresWriter opens a connection, waits for the server to come up,
// and ensures the target table exists.
func NewPostgresWriter(dsn, table string) (*PostgresWriter, error) {
	if table == "" {
		table = "dim_book"
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db, table: table}
	if err := pw.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			book_id           VARCHAR(32) PRIMARY KEY,
			title             TEXT,
			normalized_title  TEXT,
			subtitle          TEXT,
			primary_author    TEXT,
			normalized_author TEXT,
			authors           TEXT,
			publisher         TEXT,
			published_year    INTEGER,
			published_date    VARCHAR(10),
			language          VARCHAR(16),
			isbn10            VARCHAR(10),
			isbn13            VARCHAR(13),
			page_count        INTEGER,
			categories        TEXT,
			price_amount      NUMERIC(10,2),
			price_currency    VARCHAR(3),
			rating            NUMERIC(4,2),
			ratings_count     INTEGER,
			winning_source    VARCHAR(16) NOT NULL,
			updated_at        TIMESTAMPTZ NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_%s_isbn13 ON %s(isbn13);
		CREATE INDEX IF NOT EXISTS idx_%s_winning_source ON %s(winning_source);
	`, pw.table, pw.table, pw.table, pw.table, pw.table))
	return err
}

// Clear deletes all rows from the table.
func (pw *PostgresWriter) Clear() error {
	if _, err := pw.db.Exec(fmt.Sprintf("DELETE FROM %s", pw.table)); err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}
	return nil
}

// Write replaces the table contents with the given books.
func (pw *PostgresWriter) Write(books []record.ConsolidatedBook) error {
	if err := pw.Clear(); err != nil {
		return err
	}

	const batchSize = 50
	for i := 0; i < len(books); i += batchSize {
		end := i + batchSize
		if end > len(books) {
			end = len(books)
		}
		if err := pw.insertBatch(books[i:end]); err != nil {
			return err
		}
	}
	return nil
}

const bookColumns = 21

func (pw *PostgresWriter) insertBatch(batch []record.ConsolidatedBook) error {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]any, 0, len(batch)*bookColumns)

	for idx, b := range batch {
		base := idx * bookColumns
		placeholders := make([]string, bookColumns)
		for j := range placeholders {
			placeholders[j] = fmt.Sprintf("$%d", base+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")

		valueArgs = append(valueArgs,
			b.BookID, b.Title, b.NormalizedTitle, b.Subtitle,
			b.PrimaryAuthor, b.NormalizedAuthor, joinList(b.Authors),
			b.Publisher, b.PublishedYear, b.PublishedDate, b.Language,
			b.ISBN10, b.ISBN13, b.PageCount, joinList(b.Categories),
			b.PriceAmount, b.PriceCurrency, b.Rating, b.RatingsCount,
			b.WinningSource, b.UpdatedAt)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (
			book_id, title, normalized_title, subtitle,
			primary_author, normalized_author, authors,
			publisher, published_year, published_date, language,
			isbn10, isbn13, page_count, categories,
			price_amount, price_currency, rating, ratings_count,
			winning_source, updated_at
		)
		VALUES %s
		ON CONFLICT (book_id) DO NOTHING
	`, pw.table, strings.Join(valueStrings, ","))

	if _, err := pw.db.Exec(query, valueArgs...); err != nil {
		return fmt.Errorf("postgres: insert batch: %w", err)
	}
	return nil
}

// Count returns the number of stored books.
func (pw *PostgresWriter) Count() (int, error) {
	var n int
	if err := pw.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", pw.table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count: %w", err)
	}
	return n, nil
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

// joinList flattens a list column to its pipe-delimited form.
func joinList(l []string) *string {
	if len(l) == 0 {
		return nil
	}
	s := strings.Join(l, "|")
	return &s
}
