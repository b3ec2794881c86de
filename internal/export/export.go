// Package export renders a summary as a plain-text document and saves it.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/strrl/text-summarizer/pkg/models"
)

const timestampLayout = "2006-01-02 15:04:05"

// Document returns the export text for a summary
func Document(s models.Summary) string {
	return fmt.Sprintf("Original Text (%d words):\n%s\n\nSummary (%d words, %s style):\n%s\n\nCompression: %s%%\nGenerated on: %s",
		s.WordCount.Original,
		s.OriginalText,
		s.WordCount.Summary,
		s.Style,
		s.Text,
		formatRatio(s.CompressionRatio),
		s.CreatedAt.Local().Format(timestampLayout),
	)
}

// Filename returns summary-<style>-<YYYY-MM-DD>.txt for the creation date (UTC)
func Filename(s models.Summary) string {
	return fmt.Sprintf("summary-%s-%s.txt", s.Style, s.CreatedAt.UTC().Format("2006-01-02"))
}

// Save writes the export document into dir and returns the file path
func Save(dir string, s models.Summary) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	path := filepath.Join(dir, Filename(s))
	if err := os.WriteFile(path, []byte(Document(s)), 0o644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}

// formatRatio prints whole ratios without a fraction, e.g. 70 rather than 70.00
func formatRatio(r float64) string {
	return strconv.FormatFloat(r, 'f', -1, 64)
}
