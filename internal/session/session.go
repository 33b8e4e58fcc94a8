// Package session owns the per-page analysis state: the current image, the
// latest analysis text, and an explicit state machine replacing loose
// loading/error flags.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"weedlens/internal/intake"
	"weedlens/internal/vision"
)

// Status is the analysis lifecycle state of a session.
type Status string

const (
	// StatusIdle means no image has been loaded yet.
	StatusIdle Status = "idle"
	// StatusLoading means an analysis is in flight.
	StatusLoading Status = "loading"
	// StatusReady means the latest analysis completed successfully.
	StatusReady Status = "ready"
	// StatusFailed means the latest operation failed. A previous result, if
	// any, is still carried in the state.
	StatusFailed Status = "failed"
)

var (
	// ErrAnalysisInFlight is returned when RunAnalysis is called while a
	// previous run has not completed. The new request is ignored.
	ErrAnalysisInFlight = errors.New("an analysis is already in progress")
	// ErrNoImage is returned when RunAnalysis is called before any image was
	// loaded.
	ErrNoImage = errors.New("no image to analyze")
)

// State is a consistent snapshot of a session.
type State struct {
	Status Status
	Image  intake.Image
	Result string
	// Error holds a user-readable message; set only when Status is
	// StatusFailed, and cleared whenever a new operation starts.
	Error string
}

// Session holds the upload/analysis state for one browser page view. All
// transitions go through its methods, which serialize on an internal mutex.
type Session struct {
	id string

	mu       sync.Mutex
	status   Status
	image    intake.Image
	result   string
	errMsg   string
	lastSeen time.Time
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// State returns a snapshot of the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{Status: s.status, Image: s.image, Result: s.result, Error: s.errMsg}
}

// SetImage stores a freshly uploaded image as the current one and clears any
// existing error, per the intake contract. The previous result stays until a
// new analysis replaces it.
//
// While an analysis is in flight the upload is rejected with
// ErrAnalysisInFlight: the pending run will complete against the image it
// started with, and swapping the image underneath it would pair that result
// with a photo it does not describe.
func (s *Session) SetImage(img intake.Image) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusLoading {
		return ErrAnalysisInFlight
	}
	s.image = img
	s.errMsg = ""
	if s.status == StatusFailed {
		s.status = StatusIdle
		if s.result != "" {
			s.status = StatusReady
		}
	}
	return nil
}

// SetDefaultContent installs the bootstrap placeholder image and canned
// analysis text without calling the analyzer.
func (s *Session) SetDefaultContent(img intake.Image, analysis string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.image = img
	s.result = analysis
	s.errMsg = ""
	s.status = StatusReady
}

// Fail records a user-visible failure message. Image and result are left
// untouched.
func (s *Session) Fail(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusFailed
	s.errMsg = msg
}

// RunAnalysis submits the current image to the analyzer with the weed report
// prompt and applies the outcome to the session state.
//
// Overlapping runs are ignored rather than raced: a call while another run is
// in flight returns ErrAnalysisInFlight and leaves all state alone.
func (s *Session) RunAnalysis(ctx context.Context, analyzer vision.Analyzer) error {
	s.mu.Lock()
	if s.status == StatusLoading {
		s.mu.Unlock()
		return ErrAnalysisInFlight
	}
	if s.image.IsZero() {
		s.mu.Unlock()
		return ErrNoImage
	}
	img := s.image
	s.status = StatusLoading
	s.errMsg = ""
	s.mu.Unlock()

	text, err := analyzer.Describe(ctx, img, WeedReportPrompt)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		log.Warn().Str("sessionId", s.id).Err(err).Msg("analysis failed")
		s.status = StatusFailed
		s.errMsg = userMessage(err)
		return err
	}

	s.status = StatusReady
	s.result = text
	log.Info().Str("sessionId", s.id).Int("resultLen", len(text)).Msg("analysis complete")
	return nil
}

// userMessage converts an analysis error into the text shown in the error
// banner.
func userMessage(err error) string {
	switch {
	case errors.Is(err, vision.ErrInvalidImageData):
		return "The selected image could not be read. Please try another photo."
	case errors.Is(err, vision.ErrEmptyResponse):
		return "The analysis service returned an empty response. Please try again."
	}
	var analysisErr *vision.AnalysisError
	if errors.As(err, &analysisErr) {
		return analysisErr.Error()
	}
	return "Failed to analyze the image. Please try again."
}
