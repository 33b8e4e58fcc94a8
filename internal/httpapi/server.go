// Package httpapi serves the single-page UI and the JSON API around the
// upload/analyze/format pipeline.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog/log"

	"weedlens/internal/bootstrap"
	"weedlens/internal/session"
	"weedlens/internal/storage"
	"weedlens/internal/vision"
)

type apiError struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// HistoryStore is the slice of the storage layer the server needs.
type HistoryStore interface {
	AddAnalysis(rec storage.AnalysisRecord) error
	RecentAnalyses(limit int) ([]storage.AnalysisRecord, error)
}

// Server wires the session manager, the analyzer, and the bootstrap loader
// behind the HTTP routes.
type Server struct {
	mux      *http.ServeMux
	sessions *session.Manager
	analyzer vision.Analyzer
	loader   *bootstrap.Loader
	history  HistoryStore
	limiter  *clientLimiter
}

// NewServer creates the HTTP server. history may be nil to disable the
// history endpoint's persistence.
func NewServer(sessions *session.Manager, analyzer vision.Analyzer, loader *bootstrap.Loader, history HistoryStore, ratePerMinute int) *Server {
	s := &Server{
		mux:      http.NewServeMux(),
		sessions: sessions,
		analyzer: analyzer,
		loader:   loader,
		history:  history,
		limiter:  newClientLimiter(ratePerMinute),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.Handle("/static/", s.handleStatic())
	s.mux.HandleFunc("/healthz", s.handleHealthz)

	s.mux.HandleFunc("/api/v1/session", s.handleSession)
	s.mux.Handle("/api/v1/analyze", s.limiter.wrap(http.HandlerFunc(s.handleAnalyze)))
	s.mux.Handle("/api/v1/reanalyze", s.limiter.wrap(http.HandlerFunc(s.handleReanalyze)))
	s.mux.HandleFunc("/api/v1/history", s.handleHistory)
}

// Handler returns the full middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	return requestIDMiddleware(loggingMiddleware(s.mux))
}

// writeErr logs and writes a JSON error response. Server-side failures are
// also reported to Sentry when it is configured.
func (s *Server) writeErr(ctx context.Context, w http.ResponseWriter, code int, msg string, detail string) {
	ev := log.Warn()
	if code >= 500 {
		ev = log.Error()
		sentry.CaptureMessage(fmt.Sprintf("HTTP %d: %s (detail: %s)", code, msg, detail))
	}
	ev.Int("status", code).Str("error", msg).Str("requestId", requestIDFrom(ctx)).Msg("request failed")
	writeJSON(w, code, apiError{Error: msg, Detail: detail})
}
