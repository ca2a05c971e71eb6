package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"coursesched/internal/api"
	"coursesched/internal/catalog"
	"coursesched/internal/config"
	"coursesched/internal/metrics"
	"coursesched/internal/scheduler"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("SCHEDULER_CONFIG_PATH"))
	if err != nil {
		fallback := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
		fallback.Fatal().Err(err).Msg("failed to load config")
	}

	logger := newLogger(cfg)
	log.Logger = logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cat := catalog.Open(ctx, cfg, &logger)
	defer func() {
		if err := cat.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close catalog")
		}
	}()

	reload := func() error {
		if err := cat.Reload(ctx); err != nil {
			logger.Error().Err(err).Msg("failed to reload catalog snapshot")
			return err
		}
		logger.Info().Time("reloaded_at", time.Now()).Msg("catalog snapshot reloaded")
		return nil
	}

	switch {
	case cfg.Catalog.Backend == config.BackendFile && cat.Snapshot != nil:
		// the watcher also picks up a snapshot that was missing at startup
		if err := config.WatchFile(ctx, cfg.Catalog.SnapshotPath, cfg.WatchInterval(), reload); err != nil {
			logger.Error().Err(err).Msg("catalog watch failed")
		}
	case cat.Snapshot != nil && cat.Err() != nil:
		go retryLoad(ctx, cfg.WatchInterval(), reload)
	}

	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, cat, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	gen := scheduler.NewGenerator(cfg.Scheduler.MaxSchedules)
	srv := api.NewHTTPServer(cfg, cat, gen, &logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	logger.Info().
		Str("backend", cfg.Catalog.Backend).
		Int("max_schedules", gen.MaxSchedules()).
		Msg("course scheduler started")

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("api server error")
		}
	case <-ctx.Done():
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Error().Err(err).Msg("api server shutdown")
	}
	logger.Info().Msg("course scheduler stopped")
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Logging.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if cfg.Logging.Pretty {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		return zerolog.New(output).Level(level).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
}

// retryLoad calls load every interval until it succeeds or ctx ends.
func retryLoad(ctx context.Context, interval time.Duration, load func() error) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if load() == nil {
				return
			}
		}
	}
}

func startHealthServer(ctx context.Context, port int, cat *catalog.Handle, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := cat.Ping(ctxPing); err != nil {
			http.Error(w, "catalog not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
