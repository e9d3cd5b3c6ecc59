package gigalabel

// Event is one unit of input flowing through a pipeline: an arbitrary
// record of named fields. Emitted events carry every original field plus
// the fields added by the pipeline.
type Event map[string]any

// Clone returns a shallow copy of the event. Pipeline augmentation only
// adds top-level fields, so a shallow copy keeps the input untouched.
func (e Event) Clone() Event {
	out := make(Event, len(e)+2)
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Status tells whether a processed input produced an output event.
type Status int

const (
	// StatusEmitted means the input produced exactly one output event.
	StatusEmitted Status = iota

	// StatusSkipped means the input produced no output event. The reason
	// is recorded on the outcome and logged; it is never surfaced as an
	// error to the caller.
	StatusSkipped
)

// Outcome is the result of processing a single input event.
type Outcome struct {
	Status Status

	// Event is the augmented output event. Nil unless Status is StatusEmitted.
	Event Event

	// Reason explains a skip in human terms. Empty when emitted.
	Reason string
}

// Emitted wraps an output event in a successful outcome.
func Emitted(event Event) Outcome {
	return Outcome{Status: StatusEmitted, Event: event}
}

// Skipped builds an outcome for an input that produced no output.
func Skipped(reason string) Outcome {
	return Outcome{Status: StatusSkipped, Reason: reason}
}

// Usage is the token accounting reported by the completion endpoint.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// CompletionRequest is one chat completion exchange: a rendered system
// and user prompt pair plus sampling parameters.
type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float32
	MaxTokens    int
}

// CompletionResult is the structured response attached to the output
// event under the "completion" field.
type CompletionResult struct {
	Text  string `json:"text"`
	Usage Usage  `json:"usage"`
	Model string `json:"model"`
}

// Metrics provides counters about a classifier's activity.
type Metrics struct {
	// Processed is the number of inputs seen.
	Processed int

	// Emitted is the number of output events produced.
	Emitted int

	// Skipped is the number of inputs that produced no output.
	Skipped int

	// LabelCacheHits is the number of label embeddings served from the
	// cache instead of the remote provider.
	LabelCacheHits int
}
