package archive

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"time"

	recorddomain "github.com/ghuser/recordvault/services/record/domain"
	"github.com/ghuser/recordvault/services/record/domain/models"
)

const exportTitle = "Record Vault Export"

// ExportWriter renders the export report to a fixed path, replacing any
// previous report.
type ExportWriter struct {
	path string
}

func NewExportWriter(path string) *ExportWriter {
	return &ExportWriter{path: path}
}

// Path returns the report location.
func (w *ExportWriter) Path() string { return w.path }

// Write renders records, in the given order, stamped with exportedAt.
// The report is written to a temp file in the same directory and renamed
// into place, so readers never observe a partial export.
func (w *ExportWriter) Write(records []*models.Record, exportedAt time.Time) error {
	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create export dir %s: %w", recorddomain.ErrIOFailure, dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".vault_export_*")
	if err != nil {
		return fmt.Errorf("%w: create temp export: %w", recorddomain.ErrIOFailure, err)
	}
	tmpPath := tmp.Name()

	bw := bufio.NewWriter(tmp)
	writeReport(bw, filepath.Base(w.path), records, exportedAt)
	if err := bw.Flush(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: write export: %w", recorddomain.ErrIOFailure, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: close export: %w", recorddomain.ErrIOFailure, err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: chmod export: %w", recorddomain.ErrIOFailure, err)
	}
	if err := os.Rename(tmpPath, w.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: replace %s: %w", recorddomain.ErrIOFailure, w.path, err)
	}
	return nil
}

// writeReport errors surface through bufio.Writer.Flush.
func writeReport(bw *bufio.Writer, fileName string, records []*models.Record, exportedAt time.Time) {
	fmt.Fprintln(bw, exportTitle)
	fmt.Fprintf(bw, "Exported At: %s\n", models.FormatTimestamp(exportedAt))
	fmt.Fprintf(bw, "Total Records: %d\n", len(records))
	fmt.Fprintf(bw, "File: %s\n", fileName)

	for i, r := range records {
		fmt.Fprintln(bw)
		fmt.Fprintf(bw, "Record #%d\n", i+1)
		fmt.Fprintf(bw, "ID: %s\n", r.ID)
		fmt.Fprintf(bw, "Name: %s\n", r.Name)
		fmt.Fprintf(bw, "Details: %s\n", r.DetailsOrNA())
		fmt.Fprintf(bw, "Created: %s\n", models.FormatTimestamp(r.CreatedAt))
		fmt.Fprintf(bw, "Updated: %s\n", models.FormatTimestamp(r.UpdatedAt))
	}
}
