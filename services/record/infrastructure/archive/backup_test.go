package archive

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	recorddomain "github.com/ghuser/recordvault/services/record/domain"
	"github.com/ghuser/recordvault/services/record/domain/models"
)

var fixedTime = time.Date(2026, 10, 17, 14, 3, 9, 0, time.UTC)

func sampleRecords() []*models.Record {
	created := time.Date(2026, 10, 1, 8, 0, 0, 123456000, time.UTC)
	return []*models.Record{
		{ID: uuid.MustParse("6f1c1c7e-3a7b-4c55-9f49-0a1f0f7f0001"), Name: "Router", Details: "Home WiFi", CreatedAt: created, UpdatedAt: created},
		{ID: uuid.MustParse("6f1c1c7e-3a7b-4c55-9f49-0a1f0f7f0002"), Name: "Passport", CreatedAt: created.Add(time.Hour), UpdatedAt: created.Add(2 * time.Hour)},
	}
}

func newTestBackupWriter(t *testing.T) *BackupWriter {
	t.Helper()
	w := NewBackupWriter(filepath.Join(t.TempDir(), "nested", "backups"))
	w.now = func() time.Time { return fixedTime }
	return w
}

func TestBackupName(t *testing.T) {
	local := fixedTime.In(time.FixedZone("X", 3*3600))
	assert.Equal(t, "backup_2026-10-17_14-03-09.json", BackupName(local))
}

func TestBackupWriter_WritesSnapshot(t *testing.T) {
	w := newTestBackupWriter(t)

	path, err := w.Write(sampleRecords())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(w.Dir(), "backup_2026-10-17_14-03-09.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got []map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 2)
	assert.Equal(t, "6f1c1c7e-3a7b-4c55-9f49-0a1f0f7f0001", got[0]["id"])
	assert.Equal(t, "Router", got[0]["name"])
	assert.Equal(t, "Home WiFi", got[0]["details"])
	assert.Equal(t, "2026-10-01T08:00:00.123456Z", got[0]["created_at"])
	assert.Equal(t, "", got[1]["details"])

	assert.Contains(t, string(data), "\n  {\n    \"id\"")
}

func TestBackupWriter_EmptyCollection(t *testing.T) {
	w := newTestBackupWriter(t)
	path, err := w.Write(nil)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

func TestBackupWriter_SameSecondGetsSuffix(t *testing.T) {
	w := newTestBackupWriter(t)

	var paths []string
	for i := 0; i < 3; i++ {
		p, err := w.Write(sampleRecords()[:i])
		require.NoError(t, err)
		paths = append(paths, filepath.Base(p))
	}
	assert.Equal(t, []string{
		"backup_2026-10-17_14-03-09.json",
		"backup_2026-10-17_14-03-09_1.json",
		"backup_2026-10-17_14-03-09_2.json",
	}, paths)

	entries, err := os.ReadDir(w.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestBackupWriter_UnwritableDir(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	w := NewBackupWriter(filepath.Join(blocker, "backups"))
	_, err := w.Write(sampleRecords())
	require.ErrorIs(t, err, recorddomain.ErrIOFailure)
}
