package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/pep299/meeting-summarizer/internal/cache"
	"github.com/pep299/meeting-summarizer/internal/config"
	"github.com/pep299/meeting-summarizer/internal/logging"
	"github.com/pep299/meeting-summarizer/internal/slack"
	"github.com/pep299/meeting-summarizer/internal/summary"
)

// SummaryGenerator produces envelopes from transcript text
type SummaryGenerator interface {
	GenerateSummary(ctx context.Context, transcript string) (*summary.Envelope, error)
}

// Server holds the HTTP handlers and their dependencies
type Server struct {
	config       *config.Config
	summarizer   SummaryGenerator
	cacheManager *cache.Manager
	slackClient  *slack.Client
	logger       *logrus.Entry
	version      string
}

// Option customizes the server
type Option func(*Server)

// WithCache serves identical transcripts from m
func WithCache(m *cache.Manager) Option {
	return func(s *Server) {
		s.cacheManager = m
	}
}

// WithSlack enables summary notifications through c
func WithSlack(c *slack.Client) Option {
	return func(s *Server) {
		s.slackClient = c
	}
}

// WithVersion sets the version reported by the health endpoint
func WithVersion(version string) Option {
	return func(s *Server) {
		if version != "" {
			s.version = version
		}
	}
}

// WithLogger overrides the component logger
func WithLogger(logger *logrus.Entry) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, summarizer SummaryGenerator, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if summarizer == nil {
		return nil, errors.New("summarizer is required")
	}

	s := &Server{
		config:     cfg,
		summarizer: summarizer,
		logger:     logging.NewLogger("http"),
		version:    "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SetupRoutes configures HTTP routes
func (s *Server) SetupRoutes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.corsMiddleware)
	r.Use(s.loggingMiddleware)

	r.HandleFunc("/", s.rootHandler).Methods(http.MethodGet, http.MethodOptions)

	// Health check
	r.HandleFunc("/api/health", s.healthHandler).Methods(http.MethodGet, http.MethodOptions)

	// Summary operations
	r.HandleFunc("/api/summarize-meeting", s.summarizeMeetingHandler).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/upload-pdf", s.uploadPDFHandler).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/summary-schema", s.summarySchemaHandler).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/api/render", s.renderHandler).Methods(http.MethodPost, http.MethodOptions)

	// Cache operations
	r.HandleFunc("/api/cache/stats", s.cacheStatsHandler).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/api/cache", s.cacheClearHandler).Methods(http.MethodDelete, http.MethodOptions)

	// Configuration
	r.HandleFunc("/api/config", s.configHandler).Methods(http.MethodGet, http.MethodOptions)

	// Method mismatches on known paths
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r
}

// Middleware functions

// corsMiddleware adds CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		// Wrap the ResponseWriter to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		entry := s.logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     wrapped.statusCode,
			"duration":   time.Since(start).String(),
		})
		if wrapped.statusCode >= http.StatusInternalServerError {
			entry.Warn("request failed")
		} else {
			entry.Info("request handled")
		}
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
