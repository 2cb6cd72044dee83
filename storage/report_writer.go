package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"realty-automation/models"
)

// CSVReportWriter writes per-lead send outcomes of an outreach run.
// It is safe for concurrent use.
type CSVReportWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVReportWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVReportWriter(path string) (*CSVReportWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)

	if err := w.Write([]string{
		"run_id", "row", "name", "phone", "status", "error", "at",
	}); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVReportWriter{file: f, writer: w}, nil
}

// WriteResults appends one line per send result.
func (c *CSVReportWriter) WriteResults(runID string, results []models.SendResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, r := range results {
		errText := ""
		if r.Err != nil {
			errText = r.Err.Error()
		}
		row := []string{
			runID,
			strconv.Itoa(r.Lead.Row),
			r.Lead.Name,
			r.Lead.Phone,
			string(r.Status),
			errText,
			r.At.Format(time.RFC3339),
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVReportWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}
