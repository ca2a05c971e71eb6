package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

// SQLiteStore keeps one JSON document per (subject, term) in a local table.
type SQLiteStore struct {
	*sql.DB
	logger *zerolog.Logger
}

// NewSQLiteStore opens the table store and creates its tables if they don't exist.
func NewSQLiteStore(path string, logger *zerolog.Logger) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := &SQLiteStore{DB: db, logger: logger}
	if err := store.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("Catalog database initialized")
	return store, nil
}

func (s *SQLiteStore) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS courses (
			subject TEXT NOT NULL,
			term TEXT NOT NULL,
			data TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (subject, term)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_courses_term ON courses(term)`,
	}

	for _, query := range queries {
		if _, err := s.Exec(query); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) Record(ctx context.Context, code, term string) (*CourseRecord, error) {
	var data string
	err := s.QueryRowContext(ctx, `SELECT data FROM courses WHERE subject = ? AND term = ?`, code, term).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCourseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: query course: %w", ErrUnavailable, err)
	}

	var rec CourseRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("%w: decode %s-%s: %w", ErrInvalidRecord, code, term, err)
	}
	return &rec, nil
}

func (s *SQLiteStore) Terms(ctx context.Context) ([]string, error) {
	rows, err := s.QueryContext(ctx, `SELECT DISTINCT term FROM courses ORDER BY term`)
	if err != nil {
		return nil, fmt.Errorf("%w: query terms: %w", ErrUnavailable, err)
	}
	defer rows.Close()

	terms := []string{}
	for rows.Next() {
		var term string
		if err := rows.Scan(&term); err != nil {
			return nil, fmt.Errorf("%w: scan term: %w", ErrUnavailable, err)
		}
		terms = append(terms, term)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate terms: %w", ErrUnavailable, err)
	}
	return terms, nil
}

func (s *SQLiteStore) CourseCodes(ctx context.Context, term string) ([]string, error) {
	rows, err := s.QueryContext(ctx, `SELECT data FROM courses WHERE term = ?`, term)
	if err != nil {
		return nil, fmt.Errorf("%w: query courses: %w", ErrUnavailable, err)
	}
	defer rows.Close()

	codes := stringSet{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("%w: scan course: %w", ErrUnavailable, err)
		}
		var rec CourseRecord
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			s.logger.Warn().Err(err).Str("term", term).Msg("skipping undecodable course row")
			continue
		}
		codes.addCourseCodes(&rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate courses: %w", ErrUnavailable, err)
	}
	return codes.sorted(), nil
}

// PutCourses upserts records in a single transaction.
func (s *SQLiteStore) PutCourses(ctx context.Context, records []CourseRecord) error {
	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO courses (subject, term, data, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(subject, term) DO UPDATE SET data = excluded.data, updated_at = CURRENT_TIMESTAMP`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for i := range records {
		data, err := json.Marshal(&records[i])
		if err != nil {
			return fmt.Errorf("encode %s-%s: %w", records[i].Subject, records[i].Term, err)
		}
		if _, err := stmt.ExecContext(ctx, records[i].Subject, records[i].Term, string(data)); err != nil {
			return fmt.Errorf("upsert %s-%s: %w", records[i].Subject, records[i].Term, err)
		}
	}

	return tx.Commit()
}

// PutCourse upserts a single record.
func (s *SQLiteStore) PutCourse(ctx context.Context, rec *CourseRecord) error {
	return s.PutCourses(ctx, []CourseRecord{*rec})
}
