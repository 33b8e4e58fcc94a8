// Package vision wraps external multimodal models behind a single capability:
// describe an uploaded image in natural language.
package vision

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"weedlens/internal/intake"
)

// inlineMIMEType tags the payload sent to the model. The upstream API accepts
// the common image formats under this tag regardless of the actual encoding.
const inlineMIMEType = "image/jpeg"

// defaultPrompt is used when the caller provides an empty or whitespace prompt.
const defaultPrompt = "Describe this image."

// base64Marker separates the data-URL header from the encoded payload.
const base64Marker = "base64,"

var (
	// ErrInvalidImageData is returned when the image is not a usable data URL.
	// It is detected before any network activity.
	ErrInvalidImageData = errors.New("invalid image data")
	// ErrEmptyResponse is returned when the model answered with no text.
	ErrEmptyResponse = errors.New("analysis service returned an empty response")
)

// AnalysisError wraps a transport or service failure from the model provider.
type AnalysisError struct {
	Reason string
	Err    error
}

func (e *AnalysisError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *AnalysisError) Unwrap() error { return e.Err }

// Analyzer can describe an image guided by a text prompt. A call is a single
// attempt: no retries, no internal timeout.
type Analyzer interface {
	Describe(ctx context.Context, img intake.Image, prompt string) (string, error)
}

// extractPayload pulls the decoded image bytes out of a data URL. It fails
// with ErrInvalidImageData when the base64 marker or payload is missing.
func extractPayload(img intake.Image) ([]byte, error) {
	_, encoded, ok := strings.Cut(img.DataURL(), base64Marker)
	if !ok || encoded == "" {
		return nil, ErrInvalidImageData
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImageData, err)
	}
	return data, nil
}

// effectivePrompt substitutes the generic default for blank prompts.
func effectivePrompt(prompt string) string {
	if strings.TrimSpace(prompt) == "" {
		return defaultPrompt
	}
	return prompt
}

// Unconfigured returns an Analyzer that fails on first use with a message
// naming the missing credential. Startup proceeds without the key; only an
// actual analysis reports it.
func Unconfigured(missingEnv string) Analyzer {
	return unconfiguredAnalyzer{missingEnv: missingEnv}
}

type unconfiguredAnalyzer struct {
	missingEnv string
}

func (u unconfiguredAnalyzer) Describe(ctx context.Context, img intake.Image, prompt string) (string, error) {
	return "", &AnalysisError{Reason: fmt.Sprintf("analysis service is not configured: %s is not set", u.missingEnv)}
}
