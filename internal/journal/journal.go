// Package journal keeps a session-scoped record of completed summaries in an
// in-memory DuckDB database and answers aggregate questions about them.
package journal

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/strrl/text-summarizer/internal/db"
	"github.com/strrl/text-summarizer/pkg/models"
)

const schema = `
	CREATE TABLE IF NOT EXISTS summaries (
		id                VARCHAR PRIMARY KEY,
		style             VARCHAR NOT NULL,
		created_at        TIMESTAMP NOT NULL,
		original_words    INTEGER NOT NULL,
		summary_words     INTEGER NOT NULL,
		compression_ratio DOUBLE NOT NULL
	)
`

// Stats aggregates every summary recorded in the session
type Stats struct {
	Count              int
	OriginalWords      int
	SummaryWords       int
	AverageCompression float64
}

// StyleStats is Stats broken down by style
type StyleStats struct {
	Style models.Style
	Stats
}

// Journal records summaries for the lifetime of one session
type Journal struct {
	db *sql.DB
}

// Open creates a journal backed by a fresh in-memory database
func Open(ctx context.Context) (*Journal, error) {
	database, err := db.OpenMemory()
	if err != nil {
		return nil, err
	}

	j, err := New(ctx, database)
	if err != nil {
		database.Close()
		return nil, err
	}
	return j, nil
}

// New creates a journal on an existing database handle
func New(ctx context.Context, database *sql.DB) (*Journal, error) {
	if _, err := database.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed to create journal schema: %w", err)
	}
	return &Journal{db: database}, nil
}

// Record stores a completed summary
func (j *Journal) Record(ctx context.Context, s models.Summary) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO summaries (id, style, created_at, original_words, summary_words, compression_ratio)
		VALUES (?, ?, ?, ?, ?, ?)
	`, s.ID, string(s.Style), s.CreatedAt.UTC(), s.WordCount.Original, s.WordCount.Summary, s.CompressionRatio)
	if err != nil {
		return fmt.Errorf("failed to record summary %s: %w", s.ID, err)
	}
	return nil
}

// Stats returns totals over every recorded summary
func (j *Journal) Stats(ctx context.Context) (Stats, error) {
	row := j.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) AS total,
			CAST(COALESCE(SUM(original_words), 0) AS BIGINT) AS original_words,
			CAST(COALESCE(SUM(summary_words), 0) AS BIGINT) AS summary_words,
			COALESCE(AVG(compression_ratio), 0) AS avg_compression
		FROM summaries
	`)

	var (
		count, original, summary int64
		avg                      sql.NullFloat64
	)
	if err := row.Scan(&count, &original, &summary, &avg); err != nil {
		return Stats{}, fmt.Errorf("failed to query journal stats: %w", err)
	}

	return Stats{
		Count:              int(count),
		OriginalWords:      int(original),
		SummaryWords:       int(summary),
		AverageCompression: avg.Float64,
	}, nil
}

// StatsByStyle returns totals per style, ordered by style name
func (j *Journal) StatsByStyle(ctx context.Context) ([]StyleStats, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT
			style,
			COUNT(*) AS total,
			CAST(SUM(original_words) AS BIGINT) AS original_words,
			CAST(SUM(summary_words) AS BIGINT) AS summary_words,
			AVG(compression_ratio) AS avg_compression
		FROM summaries
		GROUP BY style
		ORDER BY style
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal stats by style: %w", err)
	}
	defer rows.Close()

	var out []StyleStats
	for rows.Next() {
		var (
			style                    string
			count, original, summary int64
			avg                      sql.NullFloat64
		)
		if err := rows.Scan(&style, &count, &original, &summary, &avg); err != nil {
			return nil, fmt.Errorf("failed to scan journal row: %w", err)
		}
		out = append(out, StyleStats{
			Style: models.Style(style),
			Stats: Stats{
				Count:              int(count),
				OriginalWords:      int(original),
				SummaryWords:       int(summary),
				AverageCompression: avg.Float64,
			},
		})
	}
	return out, rows.Err()
}

// Reset forgets every recorded summary
func (j *Journal) Reset(ctx context.Context) error {
	if _, err := j.db.ExecContext(ctx, `DELETE FROM summaries`); err != nil {
		return fmt.Errorf("failed to reset journal: %w", err)
	}
	return nil
}

// Close releases the database; the recorded data is discarded
func (j *Journal) Close() error {
	return j.db.Close()
}
