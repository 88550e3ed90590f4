// Package archive writes the vault's file artifacts: automatic JSON backups
// and the human-readable export report.
package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	recorddomain "github.com/ghuser/recordvault/services/record/domain"
	"github.com/ghuser/recordvault/services/record/domain/models"
)

const (
	backupPrefix     = "backup_"
	backupTimeLayout = "2006-01-02_15-04-05"
	maxNameAttempts  = 1000
)

// backupRecord is the on-disk shape of one backed-up record.
type backupRecord struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BackupWriter writes full-collection snapshots into one directory. Backups
// are never overwritten, rotated or deleted.
type BackupWriter struct {
	dir string
	now func() time.Time
}

// NewBackupWriter returns a writer targeting dir. The directory is created
// on first use.
func NewBackupWriter(dir string) *BackupWriter {
	return &BackupWriter{dir: dir, now: time.Now}
}

// Dir returns the backup directory.
func (w *BackupWriter) Dir() string { return w.dir }

// BackupName returns the artifact file name for a backup taken at t.
func BackupName(t time.Time) string {
	return backupPrefix + t.UTC().Format(backupTimeLayout) + ".json"
}

// EnsureDir creates the backup directory and its parents if missing.
func (w *BackupWriter) EnsureDir() error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("%w: create backup dir %s: %w", recorddomain.ErrIOFailure, w.dir, err)
	}
	return nil
}

// Write serializes records, in the given order, into a new backup file and
// returns its path. Two backups within the same second get distinct names
// via a numeric suffix.
func (w *BackupWriter) Write(records []*models.Record) (string, error) {
	if err := w.EnsureDir(); err != nil {
		return "", err
	}

	out := make([]backupRecord, len(records))
	for i, r := range records {
		out[i] = backupRecord{
			ID:        r.ID.String(),
			Name:      r.Name.String(),
			Details:   r.Details,
			CreatedAt: r.CreatedAt.UTC(),
			UpdatedAt: r.UpdatedAt.UTC(),
		}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: encode backup: %w", recorddomain.ErrIOFailure, err)
	}
	data = append(data, '\n')

	f, path, err := w.create(w.now())
	if err != nil {
		return "", err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("%w: write %s: %w", recorddomain.ErrIOFailure, path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("%w: close %s: %w", recorddomain.ErrIOFailure, path, err)
	}
	return path, nil
}

// create opens a fresh file exclusively, probing suffixes _1, _2, ... when
// the plain name is taken.
func (w *BackupWriter) create(t time.Time) (*os.File, string, error) {
	base := BackupName(t)
	stem := base[:len(base)-len(".json")]

	for n := 0; n < maxNameAttempts; n++ {
		name := base
		if n > 0 {
			name = fmt.Sprintf("%s_%d.json", stem, n)
		}
		path := filepath.Join(w.dir, name)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, path, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", fmt.Errorf("%w: create %s: %w", recorddomain.ErrIOFailure, path, err)
		}
	}
	return nil, "", fmt.Errorf("%w: no free backup name for %s", recorddomain.ErrIOFailure, base)
}
