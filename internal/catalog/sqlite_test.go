package catalog

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	logger := zerolog.New(io.Discard)
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "nested", "catalog.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_PutAndRecord(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLite(t)

	rec := sampleRecord("COMP 1405", "Fall")
	require.NoError(t, store.PutCourse(ctx, &rec))

	got, err := store.Record(ctx, "COMP 1405", "Fall")
	require.NoError(t, err)
	assert.Equal(t, rec, *got)

	_, err = store.Record(ctx, "COMP 1405", "Winter")
	assert.ErrorIs(t, err, ErrCourseNotFound)
	_, err = store.Record(ctx, "MATH 1007", "Fall")
	assert.ErrorIs(t, err, ErrCourseNotFound)
}

func TestSQLiteStore_Upsert(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLite(t)

	rec := sampleRecord("COMP 1405", "Fall")
	require.NoError(t, store.PutCourse(ctx, &rec))

	rec.Title = "Renamed"
	require.NoError(t, store.PutCourse(ctx, &rec))

	got, err := store.Record(ctx, "COMP 1405", "Fall")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)

	var count int
	require.NoError(t, store.QueryRowContext(ctx, `SELECT COUNT(*) FROM courses`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestSQLiteStore_TermsAndCodes(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLite(t)

	require.NoError(t, store.PutCourses(ctx, []CourseRecord{
		sampleRecord("COMP 1405", "Fall"),
		sampleRecord("MATH 1007", "Fall"),
		sampleRecord("COMP 1405", "Winter"),
	}))

	terms, err := store.Terms(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Fall", "Winter"}, terms)

	codes, err := store.CourseCodes(ctx, "Fall")
	require.NoError(t, err)
	assert.Equal(t, []string{"COMP 1405", "COMP 1405 A", "COMP 1405 B", "MATH 1007", "MATH 1007 A", "MATH 1007 B"}, codes)

	codes, err = store.CourseCodes(ctx, "Summer")
	require.NoError(t, err)
	assert.Empty(t, codes)
}

func TestSQLiteStore_ClosedIsUnavailable(t *testing.T) {
	store := newTestSQLite(t)
	require.NoError(t, store.Close())

	_, err := store.Record(context.Background(), "COMP 1405", "Fall")
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = store.Terms(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}
