package httpapi

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"weedlens/internal/intake"
	"weedlens/internal/report"
	"weedlens/internal/session"
	"weedlens/internal/storage"
	"weedlens/web"
)

const sessionCookieName = "weedlens_session"

// uploadBodyLimit caps the request body above the intake ceiling so that the
// intake validation, not the HTTP layer, decides oversized uploads.
const uploadBodyLimit = intake.MaxUploadBytes + 1<<20

// stateResponse is the JSON shape of a session state.
type stateResponse struct {
	Status    session.Status `json:"status"`
	Image     string         `json:"image,omitempty"`
	MediaType string         `json:"mediaType,omitempty"`
	Result    string         `json:"result,omitempty"`
	Lines     []report.Line  `json:"lines,omitempty"`
	Error     string         `json:"error,omitempty"`
}

func stateOf(s *session.Session) stateResponse {
	state := s.State()
	resp := stateResponse{
		Status: state.Status,
		Result: state.Result,
		Error:  state.Error,
	}
	if !state.Image.IsZero() {
		resp.Image = state.Image.DataURL()
		resp.MediaType = state.Image.MediaType()
	}
	if state.Result != "" {
		resp.Lines = report.Format(state.Result)
	}
	return resp
}

// ensureSession returns the caller's session, creating and bootstrapping a
// new one (and setting the cookie) when none exists.
func (s *Server) ensureSession(w http.ResponseWriter, r *http.Request) *session.Session {
	if c, err := r.Cookie(sessionCookieName); err == nil {
		if sess, ok := s.sessions.Get(c.Value); ok {
			return sess
		}
	}

	sess := s.sessions.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sess.ID(),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	// First paint gets the bundled placeholder and canned text; the remote
	// analyzer is never involved here.
	img, analysis, err := s.loader.Load(r.Context())
	if err != nil {
		log.Warn().Err(err).Msg("failed to load default content")
		sess.Fail("Failed to load the default image.")
		return sess
	}
	sess.SetDefaultContent(img, analysis)
	return sess
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(web.Index)
}

func (s *Server) handleStatic() http.Handler {
	return http.FileServer(http.FS(web.StaticFS))
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSession returns the caller's current state, bootstrapping a fresh
// session on first contact.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErr(r.Context(), w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}
	sess := s.ensureSession(w, r)
	writeJSON(w, http.StatusOK, stateOf(sess))
}

// handleAnalyze accepts a multipart image upload, stores it as the session's
// current image, and runs the analysis.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeErr(r.Context(), w, http.StatusMethodNotAllowed, "method not allowed", "use POST")
		return
	}
	sess := s.ensureSession(w, r)

	r.Body = http.MaxBytesReader(w, r.Body, uploadBodyLimit)
	file, header, err := r.FormFile("image")
	if err != nil {
		s.writeErr(r.Context(), w, http.StatusBadRequest, "image file is required", err.Error())
		return
	}
	defer file.Close()

	img, err := intake.FromReader(file, header.Header.Get("Content-Type"), header.Size)
	if err != nil {
		// Rejected uploads leave the existing image and result untouched.
		s.writeErr(r.Context(), w, http.StatusBadRequest, err.Error(), "")
		return
	}

	if err := sess.SetImage(img); err != nil {
		// An in-flight run keeps its original image; the upload is ignored.
		s.writeErr(r.Context(), w, http.StatusConflict, err.Error(), "")
		return
	}
	s.runAnalysis(w, r, sess, img)
}

// handleReanalyze re-runs the analysis on the session's current image.
func (s *Server) handleReanalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeErr(r.Context(), w, http.StatusMethodNotAllowed, "method not allowed", "use POST")
		return
	}
	sess := s.ensureSession(w, r)
	s.runAnalysis(w, r, sess, sess.State().Image)
}

func (s *Server) runAnalysis(w http.ResponseWriter, r *http.Request, sess *session.Session, img intake.Image) {
	err := sess.RunAnalysis(r.Context(), s.analyzer)
	switch {
	case errors.Is(err, session.ErrAnalysisInFlight):
		s.writeErr(r.Context(), w, http.StatusConflict, err.Error(), "")
		return
	case errors.Is(err, session.ErrNoImage):
		s.writeErr(r.Context(), w, http.StatusBadRequest, err.Error(), "")
		return
	case err != nil:
		// The failure is already part of the session state; the page shows it
		// as a banner next to whatever result was there before.
		writeJSON(w, http.StatusOK, stateOf(sess))
		return
	}

	s.recordHistory(sess, img)
	writeJSON(w, http.StatusOK, stateOf(sess))
}

func (s *Server) recordHistory(sess *session.Session, img intake.Image) {
	if s.history == nil || img.IsZero() {
		return
	}
	payload, err := img.Payload()
	if err != nil {
		return
	}
	sum := sha256.Sum256(payload)
	rec := storage.AnalysisRecord{
		ImageSHA:  hex.EncodeToString(sum[:]),
		MediaType: img.MediaType(),
		Result:    sess.State().Result,
	}
	if err := s.history.AddAnalysis(rec); err != nil {
		log.Warn().Err(err).Msg("failed to record analysis history")
	}
}

// handleHistory lists recent analyses, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErr(r.Context(), w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}
	if s.history == nil {
		writeJSON(w, http.StatusOK, []storage.AnalysisRecord{})
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			s.writeErr(r.Context(), w, http.StatusBadRequest, "limit must be between 1 and 100", "")
			return
		}
		limit = n
	}

	recs, err := s.history.RecentAnalyses(limit)
	if err != nil {
		s.writeErr(r.Context(), w, http.StatusInternalServerError, "failed to load history", err.Error())
		return
	}
	if recs == nil {
		recs = []storage.AnalysisRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}
