package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"coursesched/internal/config"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var ErrUnknownBackend = errors.New("unknown catalog backend")

// Handle is an opened catalog plus the resources behind it.
type Handle struct {
	*RecordCatalog

	Backend  string
	Redis    *redis.Client
	SQLite   *SQLiteStore
	Snapshot *SnapshotStore

	cache   *CachedStore
	closers []io.Closer

	mu      sync.RWMutex
	openErr error
}

// Open builds the backend named by cfg.Catalog.Backend and puts the Redis
// cache in front of it when one is configured. A backend that cannot be
// built is replaced by UnavailableStore, so Open itself never fails; the
// error is kept and reported by Err and Ping. A snapshot backend whose first
// load fails stays in place and starts serving after a successful Reload.
func Open(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *Handle {
	h := &Handle{Backend: cfg.Catalog.Backend}

	store, err := h.openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Str("backend", cfg.Catalog.Backend).Msg("catalog backend unavailable")
		h.openErr = err
		if store == nil {
			store = &UnavailableStore{Reason: err}
		}
	}

	if ttl := cfg.CacheTTL(); ttl > 0 {
		h.Redis = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		h.closers = append(h.closers, h.Redis)
		h.cache = NewCachedStore(store, h.Redis, ttl, cfg.Catalog.Backend, logger)
		store = h.cache
	}

	h.RecordCatalog = NewRecordCatalog(store, cfg.Catalog.Backend, logger)
	return h
}

func (h *Handle) openStore(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (Store, error) {
	switch cfg.Catalog.Backend {
	case config.BackendSQLite:
		db, err := NewSQLiteStore(cfg.Catalog.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		h.SQLite = db
		h.closers = append(h.closers, db)
		return db, nil

	case config.BackendDynamoDB:
		if cfg.Catalog.Table == "" {
			return nil, errors.New("catalog.table is required for the dynamodb backend")
		}
		sess, err := newAWSSession(cfg)
		if err != nil {
			return nil, err
		}
		return NewDynamoStore(dynamodb.New(sess), cfg.Catalog.Table, logger), nil

	case config.BackendS3:
		if cfg.Catalog.Bucket == "" {
			return nil, errors.New("catalog.bucket is required for the s3 backend")
		}
		sess, err := newAWSSession(cfg)
		if err != nil {
			return nil, err
		}
		source := &S3Source{API: s3.New(sess), Bucket: cfg.Catalog.Bucket, Key: cfg.Catalog.Key}
		return h.openSnapshot(ctx, source, logger)

	case config.BackendFile:
		if cfg.Catalog.SnapshotPath == "" {
			return nil, errors.New("catalog.snapshot_path is required for the file backend")
		}
		return h.openSnapshot(ctx, &FileSource{Path: cfg.Catalog.SnapshotPath}, logger)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Catalog.Backend)
	}
}

func (h *Handle) openSnapshot(ctx context.Context, source SnapshotSource, logger *zerolog.Logger) (Store, error) {
	loadCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	snap := newSnapshotStore(source, logger)
	h.Snapshot = snap
	return snap, snap.Reload(loadCtx)
}

func newAWSSession(cfg *config.Config) (*session.Session, error) {
	awsCfg := &aws.Config{Region: aws.String(cfg.AWS.Region)}
	if cfg.AWS.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.AWS.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}
	if cfg.AWS.AccessKeyID != "" && cfg.AWS.SecretAccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AWS.AccessKeyID, cfg.AWS.SecretAccessKey, "")
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("create aws session: %w", err)
	}
	return sess, nil
}

// Reload refreshes a snapshot backend and drops cached entries. It is a no-op
// for table backends. A successful reload clears the error left by Open.
func (h *Handle) Reload(ctx context.Context) error {
	if h.Snapshot == nil {
		return nil
	}
	if err := h.Snapshot.Reload(ctx); err != nil {
		return err
	}

	h.mu.Lock()
	h.openErr = nil
	h.mu.Unlock()

	if h.cache != nil {
		if err := h.cache.Purge(ctx); err != nil {
			return fmt.Errorf("purge cache: %w", err)
		}
	}
	return nil
}

// Err returns the reason the backend could not be opened, or nil once it
// serves.
func (h *Handle) Err() error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.openErr
}

// Ping reports whether the backend is open and the backing resources answer.
func (h *Handle) Ping(ctx context.Context) error {
	if err := h.Err(); err != nil {
		return asUnavailable(err)
	}
	if h.SQLite != nil {
		if err := h.SQLite.PingContext(ctx); err != nil {
			return fmt.Errorf("sqlite: %w", err)
		}
	}
	if h.Redis != nil {
		if err := h.Redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

func (h *Handle) Close() error {
	var errs []error
	for i := len(h.closers) - 1; i >= 0; i-- {
		if err := h.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
