package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/rs/zerolog"
)

// SnapshotSource yields the whole catalog as one JSON object keyed "<Subject>-<Term>".
type SnapshotSource interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	String() string
}

type S3Source struct {
	API    s3iface.S3API
	Bucket string
	Key    string
}

func (s *S3Source) Open(ctx context.Context) (io.ReadCloser, error) {
	out, err := s.API.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Key),
	})
	if err != nil {
		return nil, err
	}
	return out.Body, nil
}

func (s *S3Source) String() string {
	return "s3://" + s.Bucket + "/" + s.Key
}

type FileSource struct {
	Path string
}

func (f *FileSource) Open(_ context.Context) (io.ReadCloser, error) {
	return os.Open(f.Path)
}

func (f *FileSource) String() string {
	return f.Path
}

// SnapshotStore serves lookups from an in-memory copy of a snapshot. Reload
// swaps in a new copy; readers never see a half-loaded map.
type SnapshotStore struct {
	source SnapshotSource
	logger *zerolog.Logger

	mu      sync.RWMutex
	courses map[string]*CourseRecord
}

// NewSnapshotStore performs the initial load.
func NewSnapshotStore(ctx context.Context, source SnapshotSource, logger *zerolog.Logger) (*SnapshotStore, error) {
	s := newSnapshotStore(source, logger)
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// newSnapshotStore returns a store that answers ErrUnavailable until the
// first successful Reload.
func newSnapshotStore(source SnapshotSource, logger *zerolog.Logger) *SnapshotStore {
	return &SnapshotStore{source: source, logger: logger}
}

// Loaded reports whether a snapshot has been read at least once.
func (s *SnapshotStore) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.courses != nil
}

func (s *SnapshotStore) notLoaded() error {
	return fmt.Errorf("%w: snapshot %s not loaded", ErrUnavailable, s.source)
}

func (s *SnapshotStore) Reload(ctx context.Context) error {
	courses, err := ReadSnapshot(ctx, s.source)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.courses = courses
	s.mu.Unlock()

	s.logger.Info().Str("source", s.source.String()).Int("courses", len(courses)).Msg("catalog snapshot loaded")
	return nil
}

// ReadSnapshot fetches and decodes a snapshot without keeping it.
func ReadSnapshot(ctx context.Context, source SnapshotSource) (map[string]*CourseRecord, error) {
	body, err := source.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: open snapshot %s: %w", ErrUnavailable, source, err)
	}
	defer body.Close()

	courses := map[string]*CourseRecord{}
	if err := json.NewDecoder(body).Decode(&courses); err != nil {
		return nil, fmt.Errorf("%w: decode snapshot %s: %w", ErrInvalidRecord, source, err)
	}
	return courses, nil
}

func (s *SnapshotStore) Record(_ context.Context, code, term string) (*CourseRecord, error) {
	s.mu.RLock()
	courses := s.courses
	s.mu.RUnlock()

	if courses == nil {
		return nil, s.notLoaded()
	}
	rec, ok := courses[SnapshotKey(code, term)]
	if !ok || rec == nil {
		return nil, ErrCourseNotFound
	}
	return rec, nil
}

func (s *SnapshotStore) Terms(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.courses == nil {
		return nil, s.notLoaded()
	}
	terms := stringSet{}
	for key, rec := range s.courses {
		if rec == nil || rec.Term == "" {
			s.logger.Warn().Str("key", key).Msg("snapshot course has no term")
			continue
		}
		terms.add(rec.Term)
	}
	return terms.sorted(), nil
}

func (s *SnapshotStore) CourseCodes(_ context.Context, term string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.courses == nil {
		return nil, s.notLoaded()
	}
	codes := stringSet{}
	for _, rec := range s.courses {
		if rec != nil && rec.Term == term {
			codes.addCourseCodes(rec)
		}
	}
	return codes.sorted(), nil
}
