// Package api exposes the query surface over HTTP. The endpoints are thin:
// all semantics live in the ai and retrieval packages.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/poiesic/stockscope/ai"
	"github.com/poiesic/stockscope/index"
	"github.com/poiesic/stockscope/metrics"
	"github.com/poiesic/stockscope/retrieval"
)

var (
	// ErrExtractorRequired is returned when a query extractor is not provided.
	ErrExtractorRequired = errors.New("query extractor required")

	// ErrAssemblerRequired is returned when a retrieval assembler is not
	// provided.
	ErrAssemblerRequired = errors.New("retrieval assembler required")
)

// Server handles the HTTP query surface.
type Server struct {
	extractor ai.QueryExtractor
	assembler *retrieval.Assembler
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics enables request metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger.With("component", "api") }
}

// NewServer creates the API server.
func NewServer(extractor ai.QueryExtractor, assembler *retrieval.Assembler, opts ...Option) (*Server, error) {
	if extractor == nil {
		return nil, ErrExtractorRequired
	}
	if assembler == nil {
		return nil, ErrAssemblerRequired
	}

	s := &Server{
		extractor: extractor,
		assembler: assembler,
		logger:    slog.Default().With("component", "api"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Routes returns the HTTP handler serving /explore, /healthz and /metrics.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /explore", s.handleExplore)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.Handle("GET /metrics", metrics.Handler())
	return mux
}

type exploreRequest struct {
	UserQuery string `json:"user_query"`
}

type exploreResponse struct {
	Prompt string `json:"prompt"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleExplore runs the full query pipeline: extract filter + question,
// embed, retrieve, render the prompt.
func (s *Server) handleExplore(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req exploreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserQuery == "" {
		s.writeError(w, http.StatusBadRequest, "user_query is required")
		return
	}

	extracted, err := s.extractor.ExtractQuery(r.Context(), req.UserQuery)
	if err != nil {
		s.logger.Error("query extraction failed", "error", err)
		s.writeError(w, statusForError(err), "could not interpret query")
		return
	}

	// An extraction may consume the whole query into the filter; fall back to
	// embedding the original text so retrieval still has a question.
	question := extracted.Question
	if question == "" {
		question = req.UserQuery
	}

	bundle, err := s.assembler.Assemble(r.Context(), extracted.Filter, question)
	if err != nil {
		s.logger.Error("context assembly failed", "error", err)
		s.writeError(w, statusForError(err), "could not assemble context")
		return
	}

	if s.metrics != nil {
		s.metrics.ContextSnippets.Observe(float64(len(bundle.Snippets)))
		s.metrics.ExploreLatency.Observe(time.Since(start).Seconds())
	}

	s.writeJSON(w, http.StatusOK, exploreResponse{
		Prompt: retrieval.BuildPrompt(bundle, question),
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}` + "\n"))
}

// statusForError maps pipeline failures onto upstream-vs-server blame:
// malformed model output and index unavailability are 502, anything else 500.
func statusForError(err error) int {
	switch {
	case errors.Is(err, ai.ErrMalformedExtraction):
		return http.StatusBadGateway
	case errors.Is(err, index.ErrIndexUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	if s.metrics != nil {
		s.metrics.ExploreRequestsTotal.WithLabelValues(strconv.Itoa(status)).Inc()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("could not write response", "error", err)
	}
}
