package gigalabel

import "context"

// Embedder generates vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ChatCompleter performs one chat completion exchange.
type ChatCompleter interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error)
}

// LabelStore holds previously computed label embeddings. Implementations
// must be safe for use from a single pipeline goroutine; the in-memory
// store is additionally mutex-guarded so a concurrent host cannot corrupt
// it. Implementations must not alias caller slices: a vector returned by
// Get, or passed to Put, belongs to the caller afterwards.
type LabelStore interface {
	Get(ctx context.Context, label string) ([]float32, bool, error)
	Put(ctx context.Context, label string, vector []float32) error
}

// Logger is the observability sink the pipelines write to. The zap
// sugared logger satisfies it directly.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}
