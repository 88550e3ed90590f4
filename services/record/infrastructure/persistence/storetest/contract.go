// Package storetest holds the behavioural contract every RecordRepository
// backend must satisfy. Backend packages run it from their own tests.
package storetest

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	recorddomain "github.com/ghuser/recordvault/services/record/domain"
	"github.com/ghuser/recordvault/services/record/domain/models"
	"github.com/ghuser/recordvault/services/record/domain/repositories"
)

// Factory returns an empty repository. It is called once per subtest.
type Factory func(t *testing.T) repositories.RecordRepository

// Run executes the contract against repositories produced by newRepo.
func Run(t *testing.T, newRepo Factory) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, repo repositories.RecordRepository)
	}{
		{"CreateAndGet", testCreateAndGet},
		{"CreateRejectsBlankName", testCreateRejectsBlankName},
		{"GetUnknown", testGetUnknown},
		{"UpdatePartial", testUpdatePartial},
		{"UpdateUnknown", testUpdateUnknown},
		{"Delete", testDelete},
		{"ListOrders", testListOrders},
		{"SearchByName", testSearchByName},
		{"SearchByNameLiteral", testSearchByNameLiteral},
		{"SearchByNameFoldsUnicode", testSearchByNameFoldsUnicode},
		{"CountAndLongestName", testCountAndLongestName},
		{"UnicodeRoundTrip", testUnicodeRoundTrip},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newRepo(t))
		})
	}
}

func mustCreate(t *testing.T, repo repositories.RecordRepository, name, details string) *models.Record {
	t.Helper()
	rec, err := repo.Create(context.Background(), name, details)
	require.NoError(t, err)
	return rec
}

func names(records []*models.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Name.String()
	}
	return out
}

func testCreateAndGet(t *testing.T, repo repositories.RecordRepository) {
	ctx := context.Background()
	created := mustCreate(t, repo, "  alpha  ", "  first entry ")

	assert.Equal(t, "alpha", created.Name.String())
	assert.Equal(t, "first entry", created.Details)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(created, got); diff != "" {
		t.Errorf("GetByID mismatch (-created +got):\n%s", diff)
	}
}

func testCreateRejectsBlankName(t *testing.T, repo repositories.RecordRepository) {
	ctx := context.Background()
	_, err := repo.Create(ctx, "   ", "details")
	require.ErrorIs(t, err, recorddomain.ErrValidation)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func testGetUnknown(t *testing.T, repo repositories.RecordRepository) {
	_, err := repo.GetByID(context.Background(), uuid.New())
	require.ErrorIs(t, err, recorddomain.ErrRecordNotFound)
}

func testUpdatePartial(t *testing.T, repo repositories.RecordRepository) {
	ctx := context.Background()
	orig := mustCreate(t, repo, "alpha", "keep me")

	patch, err := models.NewRecordPatch("beta", "")
	require.NoError(t, err)
	updated, err := repo.Update(ctx, orig.ID, patch)
	require.NoError(t, err)

	assert.Equal(t, "beta", updated.Name.String())
	assert.Equal(t, "keep me", updated.Details)
	assert.Equal(t, orig.CreatedAt, updated.CreatedAt)
	assert.False(t, updated.UpdatedAt.Before(orig.UpdatedAt))

	patch, err = models.NewRecordPatch("", "new details")
	require.NoError(t, err)
	updated, err = repo.Update(ctx, orig.ID, patch)
	require.NoError(t, err)
	assert.Equal(t, "beta", updated.Name.String())
	assert.Equal(t, "new details", updated.Details)

	got, err := repo.GetByID(ctx, orig.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(updated, got); diff != "" {
		t.Errorf("stored record differs from update result (-want +got):\n%s", diff)
	}
}

func testUpdateUnknown(t *testing.T, repo repositories.RecordRepository) {
	patch, err := models.NewRecordPatch("beta", "")
	require.NoError(t, err)
	_, err = repo.Update(context.Background(), uuid.New(), patch)
	require.ErrorIs(t, err, recorddomain.ErrRecordNotFound)
}

func testDelete(t *testing.T, repo repositories.RecordRepository) {
	ctx := context.Background()
	keep := mustCreate(t, repo, "keep", "")
	gone := mustCreate(t, repo, "gone", "bye")

	deleted, err := repo.Delete(ctx, gone.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(gone, deleted); diff != "" {
		t.Errorf("Delete returned a different record (-want +got):\n%s", diff)
	}

	_, err = repo.GetByID(ctx, gone.ID)
	require.ErrorIs(t, err, recorddomain.ErrRecordNotFound)
	_, err = repo.Delete(ctx, gone.ID)
	require.ErrorIs(t, err, recorddomain.ErrRecordNotFound)

	all, err := repo.List(ctx, models.OrderCreatedAsc)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, keep.ID, all[0].ID)
}

func testListOrders(t *testing.T, repo repositories.RecordRepository) {
	ctx := context.Background()

	empty, err := repo.List(ctx, models.OrderCreatedAsc)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	for _, n := range []string{"charlie", "Alpha", "bravo", "alpha"} {
		mustCreate(t, repo, n, "")
	}

	tests := []struct {
		order models.SortOrder
		want  []string
	}{
		{models.OrderCreatedAsc, []string{"charlie", "Alpha", "bravo", "alpha"}},
		{models.SortOrder{Field: models.SortByCreatedAt, Direction: models.Descending}, []string{"alpha", "bravo", "Alpha", "charlie"}},
		{models.SortOrder{Field: models.SortByName, Direction: models.Ascending}, []string{"Alpha", "alpha", "bravo", "charlie"}},
		{models.SortOrder{Field: models.SortByName, Direction: models.Descending}, []string{"charlie", "bravo", "Alpha", "alpha"}},
	}
	for _, tt := range tests {
		got, err := repo.List(ctx, tt.order)
		require.NoError(t, err)
		if diff := cmp.Diff(tt.want, names(got)); diff != "" {
			t.Errorf("List(%s) order mismatch (-want +got):\n%s", tt.order, diff)
		}
	}
}

func testSearchByName(t *testing.T, repo repositories.RecordRepository) {
	ctx := context.Background()
	for _, n := range []string{"Project Alpha", "beta", "alphabet soup"} {
		mustCreate(t, repo, n, "")
	}

	got, err := repo.SearchByName(ctx, "ALPHA")
	require.NoError(t, err)
	assert.Equal(t, []string{"Project Alpha", "alphabet soup"}, names(got))

	none, err := repo.SearchByName(ctx, "gamma")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func testSearchByNameFoldsUnicode(t *testing.T, repo repositories.RecordRepository) {
	ctx := context.Background()
	for _, n := range []string{"Ärztebrief", "ÉCOLE records", "Übersicht"} {
		mustCreate(t, repo, n, "")
	}

	tests := []struct {
		term string
		want []string
	}{
		{"ärzte", []string{"Ärztebrief"}},
		{"école", []string{"ÉCOLE records"}},
		{"ÜBER", []string{"Übersicht"}},
		{"RECORDS", []string{"ÉCOLE records"}},
	}
	for _, tt := range tests {
		got, err := repo.SearchByName(ctx, tt.term)
		require.NoError(t, err)
		assert.Equal(t, tt.want, names(got), "term %q", tt.term)
	}
}

func testSearchByNameLiteral(t *testing.T, repo repositories.RecordRepository) {
	ctx := context.Background()
	for _, n := range []string{"100% done", "1000 done", "a_b", "axb", `back\slash`} {
		mustCreate(t, repo, n, "")
	}

	tests := []struct {
		term string
		want []string
	}{
		{"%", []string{"100% done"}},
		{"_", []string{"a_b"}},
		{`\`, []string{`back\slash`}},
	}
	for _, tt := range tests {
		got, err := repo.SearchByName(ctx, tt.term)
		require.NoError(t, err)
		assert.Equal(t, tt.want, names(got), "term %q", tt.term)
	}
}

func testCountAndLongestName(t *testing.T, repo repositories.RecordRepository) {
	ctx := context.Background()

	longest, err := repo.LongestName(ctx)
	require.NoError(t, err)
	assert.Nil(t, longest)

	mustCreate(t, repo, "abc", "")
	first := mustCreate(t, repo, "abcdef", "")
	mustCreate(t, repo, "uvwxyz", "")

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	longest, err = repo.LongestName(ctx)
	require.NoError(t, err)
	require.NotNil(t, longest)
	assert.Equal(t, first.ID, longest.ID)
}

func testUnicodeRoundTrip(t *testing.T, repo repositories.RecordRepository) {
	ctx := context.Background()
	rec := mustCreate(t, repo, "Zürich café ☕", "naïve résumé")

	got, err := repo.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "Zürich café ☕", got.Name.String())
	assert.Equal(t, "naïve résumé", got.Details)

	mustCreate(t, repo, "abcdefghijkl", "")
	longest, err := repo.LongestName(ctx)
	require.NoError(t, err)
	// 13 code points beat 12 even though the byte length differs far more.
	assert.Equal(t, rec.ID, longest.ID)
}
