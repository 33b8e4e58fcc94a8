package vision

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"weedlens/internal/intake"
)

// DefaultGeminiModel is the model used when none is configured.
const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiAnalyzer uses Google's Gemini API for image description.
type GeminiAnalyzer struct {
	client *genai.Client
	model  string
}

// NewGeminiAnalyzer creates a Gemini-based analyzer with the given API key.
func NewGeminiAnalyzer(ctx context.Context, apiKey, model string) (*GeminiAnalyzer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiAnalyzer{client: client, model: model}, nil
}

// Describe implements the Analyzer interface using Gemini.
func (g *GeminiAnalyzer) Describe(ctx context.Context, img intake.Image, prompt string) (string, error) {
	data, err := extractPayload(img)
	if err != nil {
		return "", err
	}

	parts := []*genai.Part{
		genai.NewPartFromText(effectivePrompt(prompt)),
		{InlineData: &genai.Blob{Data: data, MIMEType: inlineMIMEType}},
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", &AnalysisError{Reason: "failed to analyze image, please try again", Err: err}
	}

	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyResponse
	}

	text := result.Text()
	if text == "" {
		return "", ErrEmptyResponse
	}

	log.Debug().Str("model", g.model).Int("responseLen", len(text)).Msg("gemini vision response")
	return text, nil
}
