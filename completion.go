package gigalabel

import (
	"context"
	"fmt"

	"github.com/gigatools/gigalabel/gigachat"
	"github.com/gigatools/gigalabel/template"
)

// Completer renders a system/user prompt pair from an incoming event,
// requests one chat completion and emits the event augmented with the
// structured response under the "completion" field.
type Completer struct {
	client         ChatCompleter
	logger         Logger
	systemTemplate string
	userTemplate   string
	temperature    float32
	maxTokens      int
}

// NewCompleter creates a Completer from the given configuration.
func NewCompleter(cfg CompletionConfig) (*Completer, error) {
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid completion config: %w", err)
	}

	client := cfg.Client
	if client == nil {
		client = NewGigaChatCompleter(gigachat.NewClient(cfg.Credentials, cfg.Scope), cfg.Model)
	}

	return &Completer{
		client:         client,
		logger:         cfg.Logger,
		systemTemplate: cfg.SystemTemplate,
		userTemplate:   cfg.UserTemplate,
		temperature:    cfg.Temperature,
		maxTokens:      cfg.MaxTokens,
	}, nil
}

// Process handles a single event. Any failure produces a skipped outcome
// and a logged error; there is no retry.
func (c *Completer) Process(ctx context.Context, event Event) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Errorf("completion failed with internal error: %v", r)
			outcome = Skipped(fmt.Sprintf("internal error: %v", r))
		}
	}()

	systemPrompt := ""
	if c.systemTemplate != "" {
		rendered, err := template.Render(c.systemTemplate, event)
		if err != nil {
			c.logger.Errorf("system prompt rendering failed: %v", err)
			return Skipped("system prompt rendering failed")
		}
		systemPrompt = rendered
	}

	userPrompt, err := template.Render(c.userTemplate, event)
	if err != nil {
		c.logger.Errorf("user prompt rendering failed: %v", err)
		return Skipped("user prompt rendering failed")
	}

	result, err := c.client.Complete(ctx, CompletionRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		Temperature:  c.temperature,
		MaxTokens:    c.maxTokens,
	})
	if err != nil {
		c.logger.Errorf("chat completion failed: %v", err)
		return Skipped("chat completion failed")
	}

	out := event.Clone()
	out["completion"] = result
	return Emitted(out)
}
