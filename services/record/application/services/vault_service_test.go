package services

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ghuser/recordvault/pkg/app"
	"github.com/ghuser/recordvault/pkg/config"
	"github.com/ghuser/recordvault/pkg/logger"
	recorddomain "github.com/ghuser/recordvault/services/record/domain"
	"github.com/ghuser/recordvault/services/record/domain/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type testVault struct {
	*VaultService
	backupDir  string
	exportPath string
}

func newTestVaultWith(t *testing.T, backupDir string) *testVault {
	t.Helper()
	dir := t.TempDir()
	if backupDir == "" {
		backupDir = filepath.Join(dir, "backups")
	}
	cfg := &config.Config{
		StoreDriver: config.DriverSQLite,
		SQLitePath:  filepath.Join(dir, "vault.db"),
		BackupDir:   backupDir,
		ExportPath:  filepath.Join(dir, "out", "vault_export.txt"),
		ServiceName: "recordvault-test",
	}
	a, err := app.New(context.Background(), cfg, logger.Nop(), app.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	return &testVault{VaultService: New(a).Vault, backupDir: cfg.BackupDir, exportPath: cfg.ExportPath}
}

func newTestVault(t *testing.T) *testVault {
	return newTestVaultWith(t, "")
}

func (v *testVault) backupFiles(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(v.backupDir)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	var out []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "backup_") && strings.HasSuffix(e.Name(), ".json") {
			out = append(out, e.Name())
		}
	}
	return out
}

type backupEntry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func readBackup(t *testing.T, path string) []backupEntry {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var out []backupEntry
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func (v *testVault) mustAdd(t *testing.T, name, details string) *models.Record {
	t.Helper()
	res, err := v.AddRecord(context.Background(), name, details)
	require.NoError(t, err)
	return res.Record
}

func names(records []*models.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Name.String()
	}
	return out
}

func TestAddRecord(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()

	res, err := v.AddRecord(ctx, "  Router ", " Home WiFi ")
	require.NoError(t, err)

	rec := res.Record
	assert.Equal(t, "Router", rec.Name.String())
	assert.Equal(t, "Home WiFi", rec.Details)
	assert.NotEqual(t, uuid.Nil, rec.ID)
	assert.True(t, rec.CreatedAt.Equal(rec.UpdatedAt))

	require.NotEmpty(t, res.BackupPath)
	entries := readBackup(t, res.BackupPath)
	require.Len(t, entries, 1)
	assert.Equal(t, rec.ID.String(), entries[0].ID)
	assert.Equal(t, "Home WiFi", entries[0].Details)
	assert.True(t, entries[0].CreatedAt.Equal(rec.CreatedAt))

	other := v.mustAdd(t, "Passport", "")
	assert.NotEqual(t, rec.ID, other.ID)
}

func TestAddRecord_BlankNameRejected(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()

	for _, name := range []string{"", "   ", "\t\n"} {
		_, err := v.AddRecord(ctx, name, "details")
		require.ErrorIs(t, err, recorddomain.ErrValidation, "name %q", name)
	}

	all, err := v.ListRecords(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Empty(t, v.backupFiles(t))
}

func TestUpdateRecord(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()
	orig := v.mustAdd(t, "Router", "Home WiFi")
	backupsBefore := len(v.backupFiles(t))

	updated, err := v.UpdateRecord(ctx, orig.ID.String(), "X", "")
	require.NoError(t, err)
	assert.Equal(t, "X", updated.Name.String())
	assert.Equal(t, "Home WiFi", updated.Details)
	assert.True(t, orig.CreatedAt.Equal(updated.CreatedAt))
	assert.False(t, updated.UpdatedAt.Before(orig.UpdatedAt))

	assert.Len(t, v.backupFiles(t), backupsBefore, "update must not write a backup")
}

func TestUpdateRecord_Errors(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()
	rec := v.mustAdd(t, "Router", "")

	tests := []struct {
		name    string
		id      string
		newName string
		details string
		want    error
	}{
		{"nothing to update", rec.ID.String(), "  ", "", recorddomain.ErrNothingToUpdate},
		{"malformed id", "not-an-id", "X", "", recorddomain.ErrInvalidID},
		{"empty id", "", "X", "", recorddomain.ErrInvalidID},
		{"unknown id", uuid.NewString(), "X", "", recorddomain.ErrRecordNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.UpdateRecord(ctx, tt.id, tt.newName, tt.details)
			require.ErrorIs(t, err, tt.want)
		})
	}

	got, err := v.SearchRecords(ctx, "id", rec.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Router", got[0].Name.String())
}

func TestDeleteRecord(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()
	keep := v.mustAdd(t, "keep", "")
	gone := v.mustAdd(t, "gone", "")
	backupsBefore := len(v.backupFiles(t))

	_, err := v.DeleteRecord(ctx, gone.ID.String(), false)
	require.ErrorIs(t, err, recorddomain.ErrDeleteCancelled)
	assert.Len(t, v.backupFiles(t), backupsBefore, "cancelled delete must not back up")
	_, err = v.SearchRecords(ctx, "id", gone.ID.String())
	require.NoError(t, err, "cancelled delete must keep the record")

	res, err := v.DeleteRecord(ctx, gone.ID.String(), true)
	require.NoError(t, err)
	assert.Equal(t, gone.ID, res.Record.ID)
	assert.Len(t, v.backupFiles(t), backupsBefore+1)

	entries := readBackup(t, res.BackupPath)
	require.Len(t, entries, 1)
	assert.Equal(t, keep.ID.String(), entries[0].ID)

	_, err = v.SearchRecords(ctx, "id", gone.ID.String())
	require.ErrorIs(t, err, recorddomain.ErrRecordNotFound)

	_, err = v.DeleteRecord(ctx, gone.ID.String(), true)
	require.ErrorIs(t, err, recorddomain.ErrRecordNotFound)
	_, err = v.DeleteRecord(ctx, "42", true)
	require.ErrorIs(t, err, recorddomain.ErrInvalidID)
}

func TestListRecords_InsertionOrder(t *testing.T) {
	v := newTestVault(t)
	var want []string
	for i := 0; i < 12; i++ {
		n := string(rune('z'-i)) + "-record"
		v.mustAdd(t, n, "")
		want = append(want, n)
	}

	got, err := v.ListRecords(context.Background())
	require.NoError(t, err)
	if diff := cmp.Diff(want, names(got)); diff != "" {
		t.Errorf("ListRecords order (-want +got):\n%s", diff)
	}
	assert.Len(t, v.backupFiles(t), 12, "one backup per add")
}

func TestSearchRecords(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()
	passport := v.mustAdd(t, "Passport", "blue cover")
	v.mustAdd(t, "Router", "Home WiFi")
	v.mustAdd(t, "Bypass valve", "")

	got, err := v.SearchRecords(ctx, "name", "pass")
	require.NoError(t, err)
	assert.Equal(t, []string{"Passport", "Bypass valve"}, names(got))

	got, err = v.SearchRecords(ctx, "1", "ROUTER")
	require.NoError(t, err)
	assert.Equal(t, []string{"Router"}, names(got))

	got, err = v.SearchRecords(ctx, "name", "nothing-like-this")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = v.SearchRecords(ctx, "id", "  "+passport.ID.String()+" ")
	require.NoError(t, err)
	require.Len(t, got, 1)
	if diff := cmp.Diff(passport, got[0]); diff != "" {
		t.Errorf("search by id (-want +got):\n%s", diff)
	}

	tests := []struct {
		name string
		mode string
		term string
		want error
	}{
		{"empty term", "name", "   ", recorddomain.ErrValidation},
		{"empty id term", "id", "", recorddomain.ErrValidation},
		{"unknown mode", "tags", "x", recorddomain.ErrInvalidSelection},
		{"malformed id", "2", "abc-123", recorddomain.ErrInvalidID},
		{"unknown id", "id", uuid.NewString(), recorddomain.ErrRecordNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.SearchRecords(ctx, tt.mode, tt.term)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSearchRecords_NonASCIICase(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()
	v.mustAdd(t, "Ärztebrief", "")
	v.mustAdd(t, "ÉCOLE records", "")

	got, err := v.SearchRecords(ctx, "name", "ärzte")
	require.NoError(t, err)
	assert.Equal(t, []string{"Ärztebrief"}, names(got))

	got, err = v.SearchRecords(ctx, "name", "école")
	require.NoError(t, err)
	assert.Equal(t, []string{"ÉCOLE records"}, names(got))
}

func TestSortRecords(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()
	for _, n := range []string{"bravo", "Alpha", "charlie"} {
		v.mustAdd(t, n, "")
	}

	got, err := v.SortRecords(ctx, "name", "asc")
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha", "bravo", "charlie"}, names(got))

	got, err = v.SortRecords(ctx, "createdAt", "desc")
	require.NoError(t, err)
	assert.Equal(t, []string{"charlie", "Alpha", "bravo"}, names(got))

	got, err = v.SortRecords(ctx, "1", "2")
	require.NoError(t, err)
	assert.Equal(t, []string{"charlie", "bravo", "Alpha"}, names(got))

	_, err = v.SortRecords(ctx, "size", "asc")
	require.ErrorIs(t, err, recorddomain.ErrInvalidSelection)
	_, err = v.SortRecords(ctx, "name", "sideways")
	require.ErrorIs(t, err, recorddomain.ErrInvalidSelection)
}

func TestViewStatistics_Empty(t *testing.T) {
	v := newTestVault(t)

	stats, err := v.ViewStatistics(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Count)
	assert.Equal(t, models.NotAvailable, stats.LongestNameText())
	assert.Equal(t, models.NotAvailable, models.FormatTimestamp(stats.LastModified))
	assert.Equal(t, models.NotAvailable, models.FormatTimestamp(stats.EarliestCreated))
	assert.Equal(t, models.NotAvailable, models.FormatTimestamp(stats.LatestCreated))
}

func TestViewStatistics(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()
	first := v.mustAdd(t, "ab", "")
	tieFirst := v.mustAdd(t, "naïve", "")
	v.mustAdd(t, "abcde", "")
	last := v.mustAdd(t, "x", "")

	updated, err := v.UpdateRecord(ctx, first.ID.String(), "", "touched")
	require.NoError(t, err)

	stats, err := v.ViewStatistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Count)
	assert.Equal(t, "naïve", stats.LongestName)
	assert.Equal(t, 5, stats.LongestNameLength)
	assert.Equal(t, tieFirst.ID, stats.LongestNameID)
	assert.True(t, stats.EarliestCreated.Equal(first.CreatedAt))
	assert.True(t, stats.LatestCreated.Equal(last.CreatedAt))
	assert.True(t, stats.LastModified.Equal(updated.UpdatedAt))
}

func TestExportData_Overwrites(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()
	v.now = func() time.Time { return time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC) }

	v.mustAdd(t, "Router", "Home WiFi")
	first, err := v.ExportData(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Count)
	assert.Equal(t, v.exportPath, first.Path)

	v.mustAdd(t, "Passport", "")
	second, err := v.ExportData(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Count)

	entries, err := os.ReadDir(filepath.Dir(v.exportPath))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := os.ReadFile(v.exportPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Total Records: 2")
	assert.Contains(t, string(data), "Exported At: 2026-10-17 09:30:00 UTC")
	assert.Contains(t, string(data), "Record #2\n")
	assert.Contains(t, string(data), "Name: Passport\n")
}

func TestAddRecord_BackupFailureKeepsMutation(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	v := newTestVaultWith(t, filepath.Join(blocker, "backups"))
	ctx := context.Background()

	res, err := v.AddRecord(ctx, "Router", "Home WiFi")
	require.ErrorIs(t, err, recorddomain.ErrIOFailure)
	require.NotNil(t, res)
	require.NotNil(t, res.Record)
	assert.Empty(t, res.BackupPath)

	all, err := v.ListRecords(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, res.Record.ID, all[0].ID)

	del, err := v.DeleteRecord(ctx, res.Record.ID.String(), true)
	require.ErrorIs(t, err, recorddomain.ErrIOFailure)
	require.NotNil(t, del)
	all, err = v.ListRecords(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestOperations_Serialized(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := v.AddRecord(ctx, "concurrent-"+string(rune('a'+i)), "")
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	all, err := v.ListRecords(ctx)
	require.NoError(t, err)
	assert.Len(t, all, n)
	assert.Len(t, v.backupFiles(t), n)
}

// TestEndToEnd walks the operator flow: add, list, delete, list, and checks
// the latest backup holds only what remains.
func TestEndToEnd(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()
	other := v.mustAdd(t, "Passport", "")

	added, err := v.AddRecord(ctx, "Router", "Home WiFi")
	require.NoError(t, err)

	all, err := v.ListRecords(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Router", all[1].Name.String())
	assert.Equal(t, "Home WiFi", all[1].Details)

	deleted, err := v.DeleteRecord(ctx, added.Record.ID.String(), true)
	require.NoError(t, err)

	all, err = v.ListRecords(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, other.ID, all[0].ID)

	entries := readBackup(t, deleted.BackupPath)
	require.Len(t, entries, 1)
	assert.Equal(t, other.ID.String(), entries[0].ID)
	assert.Len(t, v.backupFiles(t), 3)
}
