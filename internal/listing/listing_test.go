package listing

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"jobportal-engine/internal/domain"
	"jobportal-engine/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T, now *time.Time) (*Service, *store.SQLiteStore) {
	t.Helper()
	clock := func() time.Time { return *now }
	st, err := store.OpenSQLite(filepath.Join(t.TempDir(), "jobs.db"), store.WithClock(clock))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return New(st, WithClock(clock, time.UTC)), st
}

func TestParseDays(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"", 30},
		{"abc", 30},
		{"7", 7},
		{" 14 ", 14},
		{"0", 1},
		{"-5", 1},
		{"365", 365},
		{"1000", 365},
		{"99999999999999999999", 365},
		{"-99999999999999999999", 1},
		{"12abc", 30},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseDays(tt.raw))
		})
	}
}

func TestManualID(t *testing.T) {
	a := ManualID(ManualInput{Title: "Engineer", Company: "Acme", Location: "Remote"})
	b := ManualID(ManualInput{Title: "  engineer ", Company: "ACME", Location: "remote"})
	c := ManualID(ManualInput{Title: "Engineer", Company: "Acme", Location: "Berlin"})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 34)
	assert.Regexp(t, `^m-[0-9a-f]{32}$`, a)

	tracked := ManualID(ManualInput{Title: "Engineer", Company: "Acme", Location: "Remote", ApplyURL: "https://Jobs.Acme.com/1?utm_source=x#apply"})
	clean := ManualID(ManualInput{Title: "Engineer", Company: "Acme", Location: "Remote", ApplyURL: "https://jobs.acme.com/1"})
	assert.Equal(t, clean, tracked)
}

func TestAddManual_StoresOnce(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	svc, st := newService(t, &now)
	ctx := context.Background()

	in := ManualInput{
		Title:       "Engineer",
		Company:     "Acme",
		Location:    "Remote",
		Description: "<p>Hello</p><script>x()</script><p>World</p>",
		ApplyURL:    "https://acme.example/jobs/1?utm_source=x",
	}
	got, err := svc.AddManual(ctx, in)
	require.NoError(t, err)
	assert.NotZero(t, got.ID)
	assert.Equal(t, domain.SourceManual, got.Source)
	assert.Equal(t, ManualID(in), got.SourceJobID)
	require.NotNil(t, got.Description)
	assert.Equal(t, "Hello\n\nWorld", *got.Description)
	require.NotNil(t, got.ApplyURL)
	assert.Equal(t, "https://acme.example/jobs/1", *got.ApplyURL)
	assert.Equal(t, now, got.CreatedAt)

	again, err := svc.AddManual(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, got.ID, again.ID)

	n, err := st.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAddManual_BlankDescriptionIsAbsent(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	svc, _ := newService(t, &now)

	got, err := svc.AddManual(context.Background(), ManualInput{Title: "T", Company: "C", Location: "L", Description: "   "})
	require.NoError(t, err)
	assert.Nil(t, got.Description)
	assert.Nil(t, got.ApplyURL)
}

func TestAddManual_ValidationError(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	svc, st := newService(t, &now)
	ctx := context.Background()

	_, err := svc.AddManual(ctx, ManualInput{Title: "  ", Location: "Remote", ApplyURL: "not a url"})
	var ve *ValidationError
	require.True(t, errors.As(err, &ve), "want *ValidationError, got %v", err)

	var fields []string
	for _, f := range ve.Fields {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{"title", "company", "apply_url"}, fields)

	n, err := st.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestToday(t *testing.T) {
	now := time.Date(2024, 5, 1, 23, 0, 0, 0, time.UTC)
	svc, st := newService(t, &now)
	ctx := context.Background()

	_, err := st.Upsert(ctx, []domain.Job{{Source: "lever", SourceJobID: "old", Title: "A", Company: "C", Location: "L"}})
	require.NoError(t, err)
	now = now.Add(2 * time.Hour)
	_, err = st.Upsert(ctx, []domain.Job{{Source: "lever", SourceJobID: "new", Title: "B", Company: "C", Location: "L"}})
	require.NoError(t, err)

	rows, err := svc.Today(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "new", rows[0].SourceJobID)
}

func TestSearch_Scenario(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	svc, st := newService(t, &now)
	ctx := context.Background()

	for _, id := range []string{"1", "2", "3"} {
		_, err := st.Upsert(ctx, []domain.Job{{Source: "greenhouse", SourceJobID: id, Title: "Job " + id, Company: "C", Location: "L"}})
		require.NoError(t, err)
		now = now.Add(72 * time.Hour)
	}

	rows, err := svc.Search(ctx, SearchParams{Days: "30"})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "3", rows[0].SourceJobID)
	assert.Equal(t, "2", rows[1].SourceJobID)
	assert.Equal(t, "1", rows[2].SourceJobID)

	rows, err = svc.Search(ctx, SearchParams{Days: "5"})
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	rows, err = svc.Search(ctx, SearchParams{Q: "job 2"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "2", rows[0].SourceJobID)
}

func TestDelete(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	svc, _ := newService(t, &now)
	ctx := context.Background()

	got, err := svc.AddManual(ctx, ManualInput{Title: "T", Company: "C", Location: "L"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, got.ID))
	assert.ErrorIs(t, svc.Delete(ctx, got.ID), store.ErrNotFound)
}
