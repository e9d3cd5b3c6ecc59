// Package openaicompat adapts the OpenAI SDK to the ChatCompleter
// interface, for hosts that point the completion path at an
// OpenAI-compatible endpoint instead of the platform default.
package openaicompat

import (
	"context"
	"fmt"
	"os"

	gigalabel "github.com/gigatools/gigalabel"
	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

// Completer performs chat completions through the OpenAI SDK.
type Completer struct {
	client openai.Client
	model  string
}

// NewCompleter creates a Completer for the given model. If apiKey is
// empty, the OPENAI_API_KEY environment variable is used. baseURL may be
// empty for the official endpoint.
func NewCompleter(apiKey, baseURL, model string) (*Completer, error) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &Completer{
		client: openai.NewClient(opts...),
		model:  model,
	}, nil
}

// Complete implements the ChatCompleter interface.
func (c *Completer) Complete(ctx context.Context, req gigalabel.CompletionRequest) (*gigalabel.CompletionResult, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(req.SystemPrompt))
	}
	messages = append(messages, openai.UserMessage(req.UserPrompt))

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		Messages:    messages,
		Temperature: openai.Float(float64(req.Temperature)),
		MaxTokens:   openai.Int(int64(req.MaxTokens)),
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion response contains no choices")
	}

	return &gigalabel.CompletionResult{
		Text: resp.Choices[0].Message.Content,
		Usage: gigalabel.Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
		Model: resp.Model,
	}, nil
}
