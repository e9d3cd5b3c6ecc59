package gigalabel

import (
	"context"
	"fmt"

	"github.com/gigatools/gigalabel/gigachat"
)

// GigaChatEmbedder adapts a gigachat.Client to the Embedder interface.
type GigaChatEmbedder struct {
	client *gigachat.Client
	model  string
}

// NewGigaChatEmbedder wraps client as an Embedder using the given
// embedding model.
func NewGigaChatEmbedder(client *gigachat.Client, model string) *GigaChatEmbedder {
	return &GigaChatEmbedder{client: client, model: model}
}

// Embed returns the first embedding the endpoint produced for text.
func (e *GigaChatEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.Embeddings(ctx, e.model, []string{text})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embeddings response contains no data")
	}
	if len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("embeddings response contains an empty vector")
	}
	return resp.Data[0].Embedding, nil
}

// GigaChatCompleter adapts a gigachat.Client to the ChatCompleter
// interface.
type GigaChatCompleter struct {
	client *gigachat.Client
	model  string
}

// NewGigaChatCompleter wraps client as a ChatCompleter using the given
// chat model.
func NewGigaChatCompleter(client *gigachat.Client, model string) *GigaChatCompleter {
	return &GigaChatCompleter{client: client, model: model}
}

// Complete sends the prompt pair as a system/user message sequence and
// maps the first choice into a CompletionResult.
func (c *GigaChatCompleter) Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error) {
	messages := make([]gigachat.ChatMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, gigachat.ChatMessage{
			Role:    gigachat.MessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	messages = append(messages, gigachat.ChatMessage{
		Role:    gigachat.MessageRoleUser,
		Content: req.UserPrompt,
	})

	resp, err := c.client.ChatCompletion(ctx, gigachat.ChatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, err
	}

	return &CompletionResult{
		Text: resp.Choices[0].Message.Content,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
		Model: resp.Model,
	}, nil
}
