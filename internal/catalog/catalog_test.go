package catalog

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"coursesched/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCatalog(store Store) *RecordCatalog {
	logger := zerolog.New(io.Discard)
	return NewRecordCatalog(store, "test", &logger)
}

func TestRecordCatalog_GetCourse(t *testing.T) {
	ctx := context.Background()
	rec := sampleRecord("COMP 1405", "Fall")

	store := &mockStore{}
	store.On("Record", ctx, "COMP 1405", "Fall").Return(&rec, nil)
	store.On("Record", ctx, "NOPE 1000", "Fall").Return(nil, ErrCourseNotFound)
	store.On("Record", ctx, "DOWN 1000", "Fall").Return(nil, errors.New("connection refused"))

	bad := sampleRecord("BAD 1000", "Fall")
	bad.LectureSections[0].MeetingDates[0].DayOfWeek = "Sun"
	store.On("Record", ctx, "BAD 1000", "Fall").Return(&bad, nil)

	c := newTestCatalog(store)

	course, err := c.GetCourse(ctx, "COMP 1405", "Fall")
	require.NoError(t, err)
	assert.Equal(t, "COMP 1405", course.Code)

	// every call yields an independent graph
	again, err := c.GetCourse(ctx, "COMP 1405", "Fall")
	require.NoError(t, err)
	course.LectureSections = course.LectureSections[:1]
	assert.Len(t, again.LectureSections, 2)

	_, err = c.GetCourse(ctx, "NOPE 1000", "Fall")
	assert.ErrorIs(t, err, ErrCourseNotFound)
	assert.NotErrorIs(t, err, ErrUnavailable)

	_, err = c.GetCourse(ctx, "DOWN 1000", "Fall")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.NotErrorIs(t, err, ErrCourseNotFound)

	_, err = c.GetCourse(ctx, "BAD 1000", "Fall")
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestRecordCatalog_Unavailable(t *testing.T) {
	ctx := context.Background()
	c := newTestCatalog(&UnavailableStore{Reason: errors.New("no credentials")})

	_, err := c.GetCourse(ctx, "COMP 1405", "Fall")
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = c.GetTerms(ctx)
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = c.GetCourseCodeAndSectionList(ctx, "Fall")
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = (&UnavailableStore{}).Terms(ctx)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.New(io.Discard)

	t.Run("file backend", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "classes.json")
		require.NoError(t, os.WriteFile(path, []byte(snapshotJSON(t, sampleRecord("COMP 1405", "Fall"))), 0o644))

		cfg := &config.Config{}
		cfg.Catalog.Backend = config.BackendFile
		cfg.Catalog.SnapshotPath = path

		h := Open(ctx, cfg, &logger)
		defer h.Close()

		require.NotNil(t, h.Snapshot)
		_, err := h.GetCourse(ctx, "COMP 1405", "Fall")
		require.NoError(t, err)

		require.NoError(t, os.WriteFile(path, []byte(snapshotJSON(t, sampleRecord("MATH 1007", "Fall"))), 0o644))
		require.NoError(t, h.Reload(ctx))
		_, err = h.GetCourse(ctx, "MATH 1007", "Fall")
		require.NoError(t, err)
		assert.NoError(t, h.Ping(ctx))
	})

	t.Run("sqlite backend", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Catalog.Backend = config.BackendSQLite
		cfg.Catalog.SQLitePath = filepath.Join(t.TempDir(), "catalog.db")

		h := Open(ctx, cfg, &logger)
		defer h.Close()

		require.NotNil(t, h.SQLite)
		terms, err := h.GetTerms(ctx)
		require.NoError(t, err)
		assert.Empty(t, terms)
		assert.NoError(t, h.Reload(ctx))
		assert.NoError(t, h.Ping(ctx))
	})

	t.Run("broken backend falls back to unavailable", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Catalog.Backend = config.BackendFile
		cfg.Catalog.SnapshotPath = filepath.Join(t.TempDir(), "missing.json")

		h := Open(ctx, cfg, &logger)
		defer h.Close()

		_, err := h.GetTerms(ctx)
		assert.ErrorIs(t, err, ErrUnavailable)
		assert.ErrorIs(t, h.Ping(ctx), ErrUnavailable)
	})

	t.Run("missing snapshot loads once it appears", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "classes.json")
		cfg := &config.Config{}
		cfg.Catalog.Backend = config.BackendFile
		cfg.Catalog.SnapshotPath = path

		h := Open(ctx, cfg, &logger)
		defer h.Close()

		require.NotNil(t, h.Snapshot)
		assert.False(t, h.Snapshot.Loaded())
		require.Error(t, h.Err())
		require.Error(t, h.Reload(ctx))
		assert.ErrorIs(t, h.Ping(ctx), ErrUnavailable)

		require.NoError(t, os.WriteFile(path, []byte(snapshotJSON(t, sampleRecord("COMP 1405", "Fall"))), 0o644))
		require.NoError(t, h.Reload(ctx))

		assert.True(t, h.Snapshot.Loaded())
		assert.NoError(t, h.Err())
		assert.NoError(t, h.Ping(ctx))
		_, err := h.GetCourse(ctx, "COMP 1405", "Fall")
		assert.NoError(t, err)
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Catalog.Backend = "mongodb"

		h := Open(ctx, cfg, &logger)
		_, err := h.GetCourse(ctx, "COMP 1405", "Fall")
		assert.ErrorIs(t, err, ErrUnavailable)
		assert.ErrorIs(t, err, ErrUnknownBackend)

		err = h.Ping(ctx)
		assert.ErrorIs(t, err, ErrUnavailable)
		assert.ErrorIs(t, err, ErrUnknownBackend)
		assert.NoError(t, h.Reload(ctx))
		assert.Error(t, h.Ping(ctx))
	})
}
