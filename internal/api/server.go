package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"coursesched/internal/catalog"
	"coursesched/internal/config"
	"coursesched/internal/scheduler"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const requestIDHeader = "X-Request-ID"

// Envelope is present in every response body.
type Envelope struct {
	Error       bool   `json:"Error"`
	ErrorReason string `json:"ErrorReason"`
}

// HTTPServer exposes the schedule generator and the course catalog.
type HTTPServer struct {
	server    *http.Server
	catalog   catalog.Catalog
	generator *scheduler.Generator
	logger    *zerolog.Logger

	apiKey  string
	origins []string
	limiter *rate.Limiter
}

func NewHTTPServer(cfg *config.Config, cat catalog.Catalog, gen *scheduler.Generator, logger *zerolog.Logger) *HTTPServer {
	s := &HTTPServer{
		catalog:   cat,
		generator: gen,
		logger:    logger,
		apiKey:    cfg.Server.APIKey,
		origins:   cfg.Server.AllowedOrigins,
	}
	if len(s.origins) == 0 {
		s.origins = []string{"*"}
	}
	if cfg.Server.RateLimitPerSecond > 0 {
		burst := cfg.Server.RateLimitBurst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.Server.RateLimitPerSecond), burst)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/schedules", s.handleSchedules)
	mux.HandleFunc("/api/schedules/export", s.handleExport)
	mux.HandleFunc("/api/terms", s.handleTerms)
	mux.HandleFunc("/api/courses", s.handleCourses)

	s.server = &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      s.withRequestID(s.withCORS(s.withAPIKey(s.withRateLimit(mux)))),
		ReadTimeout:  cfg.ReadTimeout(),
		WriteTimeout: cfg.WriteTimeout(),
	}
	return s
}

func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

// Start blocks until the server stops. A graceful shutdown is not an error.
func (s *HTTPServer) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("api server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *HTTPServer) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		s.logger.Debug().
			Str("request_id", id).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("took", time.Since(start)).
			Msg("request served")
	})
}

func (s *HTTPServer) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := s.allowedOrigin(r.Header.Get("Origin")); origin != "" {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Headers", "Content-Type, X-Api-Key, X-Request-ID")
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			if origin != "*" {
				h.Add("Vary", "Origin")
			}
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *HTTPServer) allowedOrigin(origin string) string {
	for _, o := range s.origins {
		if o == "*" {
			return "*"
		}
		if origin != "" && strings.EqualFold(o, origin) {
			return origin
		}
	}
	return ""
}

// withRateLimit runs after withAPIKey; only authenticated /api/ calls take tokens.
func (s *HTTPServer) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && strings.HasPrefix(r.URL.Path, "/api/") && !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "Too many requests, slow down!")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *HTTPServer) withAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey != "" && strings.HasPrefix(r.URL.Path, "/api/") {
			got := r.Header.Get("X-Api-Key")
			if subtle.ConstantTimeCompare([]byte(got), []byte(s.apiKey)) != 1 {
				writeError(w, http.StatusUnauthorized, "A valid API key is required!")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, reason string) {
	writeJSON(w, status, Envelope{Error: true, ErrorReason: reason})
}

// writeCatalogError maps a catalog failure to a response.
func (s *HTTPServer) writeCatalogError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrUnavailable):
		s.logger.Warn().Err(err).Msg("catalog unavailable")
		writeError(w, http.StatusServiceUnavailable, "The course catalog is unavailable, try again later!")
	default:
		s.logger.Error().Err(err).Msg("catalog lookup failed")
		writeError(w, http.StatusInternalServerError, "Something went wrong reading the course catalog!")
	}
}
