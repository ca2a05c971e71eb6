// Command catalog-import loads a scraped catalog snapshot into the sqlite table store.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"coursesched/internal/catalog"
	"coursesched/internal/config"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

type options struct {
	snapshotPath string
	dbPath       string
	strict       bool
}

type result struct {
	imported int
	skipped  int
}

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", os.Getenv("SCHEDULER_CONFIG_PATH"), "path to config.yaml")
	snapshotPath := flag.String("snapshot", "", "catalog snapshot JSON (defaults to catalog.snapshot_path)")
	dbPath := flag.String("db", "", "sqlite database (defaults to catalog.sqlite_path)")
	strict := flag.Bool("strict", false, "abort on the first record that does not convert")
	flag.Parse()

	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	opts := options{snapshotPath: *snapshotPath, dbPath: *dbPath, strict: *strict}
	if opts.snapshotPath == "" {
		opts.snapshotPath = cfg.Catalog.SnapshotPath
	}
	if opts.dbPath == "" {
		opts.dbPath = cfg.Catalog.SQLitePath
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	res, err := run(ctx, opts, &logger)
	stop()
	if err != nil {
		logger.Fatal().Err(err).Msg("catalog import failed")
	}

	logger.Info().
		Str("snapshot", opts.snapshotPath).
		Str("db", opts.dbPath).
		Int("imported", res.imported).
		Int("skipped", res.skipped).
		Msg("catalog import finished")
}

// run reads the snapshot, keeps the records that convert and writes them to
// the sqlite store. The store is closed before run returns.
func run(ctx context.Context, opts options, logger *zerolog.Logger) (res result, err error) {
	if opts.snapshotPath == "" {
		return res, errors.New("set -snapshot or catalog.snapshot_path")
	}
	if opts.dbPath == "" {
		return res, errors.New("set -db or catalog.sqlite_path")
	}

	courses, err := catalog.ReadSnapshot(ctx, &catalog.FileSource{Path: opts.snapshotPath})
	if err != nil {
		return res, fmt.Errorf("read snapshot %s: %w", opts.snapshotPath, err)
	}

	keys := make([]string, 0, len(courses))
	for k := range courses {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	records := make([]catalog.CourseRecord, 0, len(courses))
	for _, k := range keys {
		rec := courses[k]
		if rec == nil || rec.Subject == "" || rec.Term == "" {
			logger.Warn().Str("key", k).Msg("skipping entry without subject or term")
			res.skipped++
			continue
		}
		if _, err := rec.ToCourse(); err != nil {
			if opts.strict {
				return res, fmt.Errorf("invalid course record %s: %w", k, err)
			}
			logger.Warn().Err(err).Str("key", k).Msg("skipping invalid course record")
			res.skipped++
			continue
		}
		records = append(records, *rec)
	}

	store, err := catalog.NewSQLiteStore(opts.dbPath, logger)
	if err != nil {
		return res, fmt.Errorf("open db %s: %w", opts.dbPath, err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close db: %w", cerr))
		}
	}()

	if err := store.PutCourses(ctx, records); err != nil {
		return res, fmt.Errorf("import courses: %w", err)
	}
	res.imported = len(records)
	return res, nil
}
