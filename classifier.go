package gigalabel

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/gigatools/gigalabel/gigachat"
	"github.com/gigatools/gigalabel/template"
	"github.com/gigatools/gigalabel/vecmath"
)

// Classifier scores incoming text events against a configured label set
// by embedding similarity and emits the input augmented with the
// selected labels and the full similarity map.
type Classifier struct {
	embedder      Embedder
	store         LabelStore
	logger        Logger
	labels        []string
	textTemplate  string
	minSimilarity float32

	metricsLock sync.RWMutex
	processed   int
	emitted     int
	cacheHits   int
}

// NewClassifier creates a Classifier from the given configuration.
func NewClassifier(cfg Config) (*Classifier, error) {
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid classifier config: %w", err)
	}

	embedder := cfg.Embedder
	if embedder == nil {
		client := gigachat.NewClient(cfg.Credentials, cfg.Scope)
		embedder = NewGigaChatEmbedder(client, cfg.EmbeddingModel)
	}

	labels := make([]string, len(cfg.Labels))
	copy(labels, cfg.Labels)

	return &Classifier{
		embedder:      embedder,
		store:         cfg.Store,
		logger:        cfg.Logger,
		labels:        labels,
		textTemplate:  cfg.TextTemplate,
		minSimilarity: *cfg.MinSimilarity,
	}, nil
}

// Process classifies a single event. It never returns an error: every
// failure inside the pipeline is converted into a skipped outcome and
// reported through the logger, so one bad input cannot abort a batch.
func (c *Classifier) Process(ctx context.Context, event Event) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Errorf("classification failed with internal error: %v", r)
			outcome = Skipped(fmt.Sprintf("internal error: %v", r))
		}
	}()

	c.recordProcessed()

	text, err := template.Render(c.textTemplate, event)
	if err != nil {
		c.logger.Errorf("text template rendering failed: %v", err)
		return Skipped("text template rendering failed")
	}

	// An empty rendered text produces no output and triggers no network
	// calls at all; label resolution is deliberately deferred until the
	// text is known to be classifiable.
	text = strings.TrimSpace(text)
	if text == "" {
		c.logger.Debugf("rendered text is empty, skipping event")
		return Skipped("empty text")
	}

	resolved := c.resolveLabels(ctx)

	textVector, err := c.embedder.Embed(ctx, text)
	if err != nil {
		c.logger.Errorf("failed to embed text: %v", err)
		return Skipped("text embedding failed")
	}

	// Labels whose embedding failed are absent from the similarity map:
	// not scored as zero, not reported as errors.
	similarities := make(map[string]float32, len(resolved))
	for _, label := range c.labels {
		labelVector, ok := resolved[label]
		if !ok {
			continue
		}
		score, err := vecmath.Cosine(textVector, labelVector)
		if err != nil {
			c.logger.Warnf("cannot score label %q: %v", label, err)
			continue
		}
		similarities[label] = score
	}

	selected := make([]string, 0, len(similarities))
	for _, label := range c.labels {
		if score, ok := similarities[label]; ok && score >= c.minSimilarity {
			selected = append(selected, label)
		}
	}

	out := event.Clone()
	out["labels"] = selected
	out["similarities"] = similarities

	c.recordEmitted()
	return Emitted(out)
}

// ProcessBatch classifies events strictly sequentially and returns the
// emitted events in input order. Skipped inputs leave no trace beyond
// the log.
func (c *Classifier) ProcessBatch(ctx context.Context, events []Event) []Event {
	out := make([]Event, 0, len(events))
	for _, event := range events {
		if outcome := c.Process(ctx, event); outcome.Status == StatusEmitted {
			out = append(out, outcome.Event)
		}
	}
	return out
}

// resolveLabels returns the embedding for every configured label that
// has one, fetching missing entries from the embedder. A label whose
// fetch fails is omitted from the result and left out of the store, so
// the next invocation retries it; the returned map may be a strict
// subset of the configured set.
func (c *Classifier) resolveLabels(ctx context.Context) map[string][]float32 {
	resolved := make(map[string][]float32, len(c.labels))

	for _, label := range c.labels {
		vector, ok, err := c.store.Get(ctx, label)
		if err != nil {
			c.logger.Warnf("label store lookup for %q failed: %v", label, err)
		}
		if ok {
			c.recordCacheHit()
			resolved[label] = vector
			continue
		}

		vector, err = c.embedder.Embed(ctx, label)
		if err != nil {
			c.logger.Errorf("failed to embed label %q, omitting it from scoring: %v", label, err)
			continue
		}
		resolved[label] = vector

		if err := c.store.Put(ctx, label, vector); err != nil {
			// The fetched vector is still used for this event.
			c.logger.Warnf("failed to cache embedding for %q: %v", label, err)
		}
	}

	return resolved
}

// Metrics returns current classification counters.
func (c *Classifier) Metrics() Metrics {
	c.metricsLock.RLock()
	defer c.metricsLock.RUnlock()

	return Metrics{
		Processed:      c.processed,
		Emitted:        c.emitted,
		Skipped:        c.processed - c.emitted,
		LabelCacheHits: c.cacheHits,
	}
}

func (c *Classifier) recordProcessed() {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	c.processed++
}

func (c *Classifier) recordEmitted() {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	c.emitted++
}

func (c *Classifier) recordCacheHit() {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	c.cacheHits++
}
