// Package server exposes the HTTP surface: health check, page extraction and
// prompt synthesis. Handlers stay thin; the work happens in the injected
// delegates.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/contextman/contextman/internal/config"
	"github.com/contextman/contextman/internal/llm"
)

// Extractor produces the text content of a web page.
type Extractor interface {
	Extract(ctx context.Context, pageURL string) (string, error)
}

// Synthesizer builds a structured prompt from goal, context and code.
type Synthesizer interface {
	Synthesize(ctx context.Context, in llm.SynthesisInput) (string, error)
}

type Server struct {
	cfg         *config.Config
	logger      *slog.Logger
	extractor   Extractor
	synthesizer Synthesizer
}

func New(cfg *config.Config, logger *slog.Logger, extractor Extractor, synthesizer Synthesizer) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:         cfg,
		logger:      logger,
		extractor:   extractor,
		synthesizer: synthesizer,
	}
}

// Handler returns the routed HTTP handler with request logging attached.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", s.handlePing)
	mux.HandleFunc("POST /parse", s.handleParse)
	mux.HandleFunc("POST /synthesize", s.handleSynthesize)
	return s.requestLogger(mux)
}

// decodeJSON reads a size-capped JSON body into dst. The returned status is
// meaningful only when err is non-nil.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) (int, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxRequestBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return http.StatusRequestEntityTooLarge, err
		}
		return http.StatusBadRequest, err
	}
	return http.StatusOK, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to write response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, detail string) {
	s.writeJSON(w, status, errorResponse{Detail: detail})
}

// requestLogger tags every request with an ID and logs method, path, status
// and duration.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.New().String()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.logger.Info("request",
			"id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start).Truncate(time.Millisecond).String(),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
