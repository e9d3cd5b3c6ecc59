package gigalabel

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gigatools/gigalabel/gigachat"
	"github.com/gigatools/gigalabel/logging"
	"go.uber.org/zap/zapcore"
)

const (
	// DefaultMinSimilarity is the similarity threshold a label must meet
	// to be selected.
	DefaultMinSimilarity = 0.7

	// DefaultMaxTokens bounds completion length when none is configured.
	DefaultMaxTokens = 1024
)

// Float32 returns a pointer to v, for optional config fields such as
// Config.MinSimilarity.
func Float32(v float32) *float32 { return &v }

// Config holds configuration for a Classifier.
type Config struct {
	// Embedder generates embeddings. If nil, a GigaChat-backed embedder
	// is built from Credentials and Scope.
	Embedder Embedder

	// Store caches label embeddings. If nil, an in-memory store scoped to
	// the classifier instance is used.
	Store LabelStore

	// Logger receives skip and failure reports. If nil, a zap console
	// logger is used.
	Logger Logger

	// Credentials is the base64 authorization key for the platform.
	// Required unless Embedder is provided.
	Credentials string

	// Scope selects the API tier. Required unless Embedder is provided.
	Scope gigachat.Scope

	// Labels is the category set texts are classified into. Labels must
	// be unique.
	Labels []string

	// TextTemplate renders the text to classify from the event's fields,
	// e.g. "{{payload}}".
	TextTemplate string

	// MinSimilarity is the inclusive selection threshold in [0, 1].
	// If nil, DefaultMinSimilarity is used; an explicit zero keeps every
	// label with a non-negative score.
	MinSimilarity *float32

	// EmbeddingModel names the remote embedding model. If empty, the
	// platform default is used.
	EmbeddingModel string
}

// applyDefaults fills in default values for unset config fields.
func (c *Config) applyDefaults() {
	if c.MinSimilarity == nil {
		c.MinSimilarity = Float32(DefaultMinSimilarity)
	}
	if c.Store == nil {
		c.Store = NewMemoryLabelStore()
	}
	if c.Logger == nil {
		c.Logger = logging.New(zapcore.InfoLevel)
	}
	if c.EmbeddingModel == "" {
		c.EmbeddingModel = gigachat.DefaultEmbeddingModel
	}
}

// Validate rejects configuration that would fail at runtime. It runs
// after applyDefaults, so an unset MinSimilarity has already become the
// default rather than an error.
func (c *Config) Validate() error {
	if c.Embedder == nil {
		if strings.TrimSpace(c.Credentials) == "" {
			return errors.New("credentials are required")
		}
		if !c.Scope.Valid() {
			return fmt.Errorf("invalid scope %q", c.Scope)
		}
	}

	if len(c.Labels) == 0 {
		return errors.New("at least one label is required")
	}
	seen := make(map[string]struct{}, len(c.Labels))
	for _, label := range c.Labels {
		if strings.TrimSpace(label) == "" {
			return errors.New("labels must not be empty")
		}
		if _, dup := seen[label]; dup {
			return fmt.Errorf("duplicate label %q", label)
		}
		seen[label] = struct{}{}
	}

	if strings.TrimSpace(c.TextTemplate) == "" {
		return errors.New("text template is required")
	}
	if *c.MinSimilarity < 0 || *c.MinSimilarity > 1 {
		return fmt.Errorf("min similarity %v is outside [0, 1]", *c.MinSimilarity)
	}

	return nil
}

// CompletionConfig holds configuration for a Completer.
type CompletionConfig struct {
	// Client performs the completion exchange. If nil, a GigaChat-backed
	// client is built from Credentials and Scope.
	Client ChatCompleter

	// Logger receives failure reports. If nil, a zap console logger is
	// used.
	Logger Logger

	// Credentials and Scope authenticate against the platform. Required
	// unless Client is provided.
	Credentials string
	Scope       gigachat.Scope

	// Model names the chat model. If empty, the platform default is used.
	Model string

	// SystemTemplate and UserTemplate render the prompt pair from the
	// event's fields.
	SystemTemplate string
	UserTemplate   string

	// Temperature is the sampling temperature in [0, 2].
	Temperature float32

	// MaxTokens bounds the completion length. If 0, DefaultMaxTokens is
	// used.
	MaxTokens int
}

func (c *CompletionConfig) applyDefaults() {
	if c.Logger == nil {
		c.Logger = logging.New(zapcore.InfoLevel)
	}
	if c.Model == "" {
		c.Model = gigachat.DefaultChatModel
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = DefaultMaxTokens
	}
}

func (c *CompletionConfig) Validate() error {
	if c.Client == nil {
		if strings.TrimSpace(c.Credentials) == "" {
			return errors.New("credentials are required")
		}
		if !c.Scope.Valid() {
			return fmt.Errorf("invalid scope %q", c.Scope)
		}
	}

	if strings.TrimSpace(c.UserTemplate) == "" {
		return errors.New("user prompt template is required")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature %v is outside [0, 2]", c.Temperature)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max tokens must be positive, got %d", c.MaxTokens)
	}

	return nil
}
