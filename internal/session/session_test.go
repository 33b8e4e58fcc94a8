package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weedlens/internal/intake"
	"weedlens/internal/vision"
)

// analyzerFunc adapts a function to the vision.Analyzer interface.
type analyzerFunc func(ctx context.Context, img intake.Image, prompt string) (string, error)

func (f analyzerFunc) Describe(ctx context.Context, img intake.Image, prompt string) (string, error) {
	return f(ctx, img, prompt)
}

func testImage() intake.Image {
	return intake.FromBytes([]byte{0xff, 0xd8}, "image/jpeg")
}

func TestRunAnalysisSuccess(t *testing.T) {
	s := NewManager().Create()
	require.NoError(t, s.SetImage(testImage()))

	var gotPrompt string
	analyzer := analyzerFunc(func(ctx context.Context, img intake.Image, prompt string) (string, error) {
		gotPrompt = prompt
		return "1. Weed Identification:\n- Name: Dandelion", nil
	})

	require.NoError(t, s.RunAnalysis(context.Background(), analyzer))

	state := s.State()
	assert.Equal(t, StatusReady, state.Status)
	assert.Equal(t, "1. Weed Identification:\n- Name: Dandelion", state.Result)
	assert.Empty(t, state.Error)
	assert.Equal(t, WeedReportPrompt, gotPrompt)
}

func TestRunAnalysisFailureKeepsPreviousResult(t *testing.T) {
	s := NewManager().Create()
	require.NoError(t, s.SetImage(testImage()))

	ok := analyzerFunc(func(ctx context.Context, img intake.Image, prompt string) (string, error) {
		return "previous result", nil
	})
	require.NoError(t, s.RunAnalysis(context.Background(), ok))

	failing := analyzerFunc(func(ctx context.Context, img intake.Image, prompt string) (string, error) {
		return "", &vision.AnalysisError{Reason: "service unavailable"}
	})
	err := s.RunAnalysis(context.Background(), failing)
	assert.Error(t, err)

	state := s.State()
	assert.Equal(t, StatusFailed, state.Status)
	assert.Equal(t, "previous result", state.Result)
	assert.Contains(t, state.Error, "service unavailable")
}

func TestRunAnalysisWithoutImage(t *testing.T) {
	s := NewManager().Create()
	err := s.RunAnalysis(context.Background(), analyzerFunc(func(ctx context.Context, img intake.Image, prompt string) (string, error) {
		t.Fatal("analyzer must not be called without an image")
		return "", nil
	}))
	assert.ErrorIs(t, err, ErrNoImage)
}

func TestRunAnalysisIgnoresOverlappingInvocation(t *testing.T) {
	s := NewManager().Create()
	require.NoError(t, s.SetImage(testImage()))

	started := make(chan struct{})
	release := make(chan struct{})
	slow := analyzerFunc(func(ctx context.Context, img intake.Image, prompt string) (string, error) {
		close(started)
		<-release
		return "slow result", nil
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, s.RunAnalysis(context.Background(), slow))
	}()

	<-started
	assert.Equal(t, StatusLoading, s.State().Status)

	// Second invocation while the first is in flight is ignored.
	err := s.RunAnalysis(context.Background(), slow)
	assert.ErrorIs(t, err, ErrAnalysisInFlight)

	close(release)
	wg.Wait()

	state := s.State()
	assert.Equal(t, StatusReady, state.Status)
	assert.Equal(t, "slow result", state.Result)
}

func TestSetImageRejectedWhileAnalysisInFlight(t *testing.T) {
	s := NewManager().Create()
	first := intake.FromBytes([]byte("first"), "image/jpeg")
	require.NoError(t, s.SetImage(first))

	started := make(chan struct{})
	release := make(chan struct{})
	slow := analyzerFunc(func(ctx context.Context, img intake.Image, prompt string) (string, error) {
		close(started)
		<-release
		return "analysis of first", nil
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, s.RunAnalysis(context.Background(), slow))
	}()

	<-started

	// An upload while the run is in flight must not swap the image the
	// pending result will be stored against.
	second := intake.FromBytes([]byte("second"), "image/jpeg")
	err := s.SetImage(second)
	assert.ErrorIs(t, err, ErrAnalysisInFlight)
	assert.Equal(t, first, s.State().Image)

	close(release)
	wg.Wait()

	state := s.State()
	assert.Equal(t, StatusReady, state.Status)
	assert.Equal(t, first, state.Image)
	assert.Equal(t, "analysis of first", state.Result)
}

func TestLoadingAndErrorNeverBothAsserted(t *testing.T) {
	s := NewManager().Create()
	require.NoError(t, s.SetImage(testImage()))

	failing := analyzerFunc(func(ctx context.Context, img intake.Image, prompt string) (string, error) {
		return "", errors.New("boom")
	})
	_ = s.RunAnalysis(context.Background(), failing)

	state := s.State()
	assert.Equal(t, StatusFailed, state.Status)
	assert.NotEmpty(t, state.Error)

	// Starting a new run clears the error before anything else happens.
	observing := analyzerFunc(func(ctx context.Context, img intake.Image, prompt string) (string, error) {
		inner := s.State()
		assert.Equal(t, StatusLoading, inner.Status)
		assert.Empty(t, inner.Error)
		return "ok", nil
	})
	require.NoError(t, s.RunAnalysis(context.Background(), observing))
}

func TestSetImageClearsError(t *testing.T) {
	s := NewManager().Create()
	s.Fail("something went wrong")
	require.Equal(t, StatusFailed, s.State().Status)

	require.NoError(t, s.SetImage(testImage()))
	state := s.State()
	assert.Empty(t, state.Error)
	assert.NotEqual(t, StatusFailed, state.Status)
}

func TestSetDefaultContent(t *testing.T) {
	s := NewManager().Create()
	s.SetDefaultContent(testImage(), "canned analysis")

	state := s.State()
	assert.Equal(t, StatusReady, state.Status)
	assert.Equal(t, "canned analysis", state.Result)
	assert.False(t, state.Image.IsZero())
}

func TestManagerGetAndEviction(t *testing.T) {
	m := NewManager()
	now := time.Now()
	m.now = func() time.Time { return now }

	s := m.Create()
	got, ok := m.Get(s.ID())
	require.True(t, ok)
	assert.Same(t, s, got)

	_, ok = m.Get("unknown")
	assert.False(t, ok)

	// Jump past the TTL; the next Create sweeps the stale session out.
	now = now.Add(DefaultSessionTTL + time.Minute)
	m.Create()
	_, ok = m.Get(s.ID())
	assert.False(t, ok)
	assert.Equal(t, 1, m.Len())
}
