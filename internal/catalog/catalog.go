package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"coursesched/internal/metrics"
	"coursesched/internal/model"

	"github.com/rs/zerolog"
)

var (
	// ErrCourseNotFound is an expected outcome: the course is not offered in that term.
	ErrCourseNotFound = errors.New("course not found")
	// ErrUnavailable marks a store that could not be reached or read.
	ErrUnavailable = errors.New("course catalog unavailable")
	// ErrInvalidRecord marks a stored record that does not convert to a course.
	ErrInvalidRecord = errors.New("invalid course record")
)

// Catalog is what the request layer needs from course storage.
type Catalog interface {
	GetCourse(ctx context.Context, code, term string) (*model.Course, error)
	GetTerms(ctx context.Context) ([]string, error)
	GetCourseCodeAndSectionList(ctx context.Context, term string) ([]string, error)
}

// Store is the raw record layer implemented by every backend.
type Store interface {
	Record(ctx context.Context, code, term string) (*CourseRecord, error)
	Terms(ctx context.Context) ([]string, error)
	CourseCodes(ctx context.Context, term string) ([]string, error)
}

// RecordCatalog turns stored records into fresh Course graphs on every call,
// so callers are free to filter what they get back.
type RecordCatalog struct {
	store   Store
	backend string
	logger  *zerolog.Logger
}

func NewRecordCatalog(store Store, backend string, logger *zerolog.Logger) *RecordCatalog {
	return &RecordCatalog{store: store, backend: backend, logger: logger}
}

func (c *RecordCatalog) GetCourse(ctx context.Context, code, term string) (*model.Course, error) {
	rec, err := c.store.Record(ctx, code, term)
	switch {
	case errors.Is(err, ErrCourseNotFound):
		metrics.IncCatalogLookup(c.backend, "miss")
		c.logger.Info().Str("course", code).Str("term", term).Msg("course not found")
		return nil, err
	case err != nil:
		metrics.IncCatalogLookup(c.backend, "error")
		return nil, asUnavailable(err)
	}
	metrics.IncCatalogLookup(c.backend, "hit")

	course, err := rec.ToCourse()
	if err != nil {
		c.logger.Error().Err(err).Str("course", code).Str("term", term).Msg("stored course does not convert")
		return nil, fmt.Errorf("%w: %s-%s: %w", ErrInvalidRecord, code, term, err)
	}
	return course, nil
}

func (c *RecordCatalog) GetTerms(ctx context.Context) ([]string, error) {
	terms, err := c.store.Terms(ctx)
	if err != nil {
		return nil, asUnavailable(err)
	}
	return terms, nil
}

func (c *RecordCatalog) GetCourseCodeAndSectionList(ctx context.Context, term string) ([]string, error) {
	codes, err := c.store.CourseCodes(ctx, term)
	if err != nil {
		return nil, asUnavailable(err)
	}
	return codes, nil
}

func asUnavailable(err error) error {
	if errors.Is(err, ErrUnavailable) || errors.Is(err, ErrInvalidRecord) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

// stringSet collects strings and hands them back sorted.
type stringSet map[string]struct{}

func (s stringSet) add(v string) {
	s[v] = struct{}{}
}

func (s stringSet) sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// addCourseCodes adds the bare subject and "<subject> <section>" for every lecture section.
func (s stringSet) addCourseCodes(rec *CourseRecord) {
	for _, sec := range rec.LectureSections {
		s.add(rec.Subject)
		s.add(rec.Subject + " " + sec.SectionID)
	}
}
