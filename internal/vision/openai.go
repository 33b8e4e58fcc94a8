package vision

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"weedlens/internal/intake"
)

// DefaultOpenAIModel is the model used when none is configured.
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAIAnalyzer uses OpenAI's vision-capable chat API for image description.
type OpenAIAnalyzer struct {
	client openai.Client
	model  string
}

// NewOpenAIAnalyzer creates an OpenAI-based analyzer with the given API key.
func NewOpenAIAnalyzer(apiKey, model string) *OpenAIAnalyzer {
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAIAnalyzer{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Describe implements the Analyzer interface using OpenAI.
func (o *OpenAIAnalyzer) Describe(ctx context.Context, img intake.Image, prompt string) (string, error) {
	data, err := extractPayload(img)
	if err != nil {
		return "", err
	}

	// Re-encode under the fixed inline tag rather than reusing the upload's
	// declared type.
	dataURL := fmt.Sprintf("data:%s;base64,%s", inlineMIMEType, base64.StdEncoding.EncodeToString(data))

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(effectivePrompt(prompt)),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL: dataURL,
				}),
			}),
		},
	})
	if err != nil {
		return "", &AnalysisError{Reason: "failed to analyze image, please try again", Err: err}
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}

	return resp.Choices[0].Message.Content, nil
}
