package gigalabel_test

import (
	"context"
	"errors"
	"math"
	"testing"

	gigalabel "github.com/gigatools/gigalabel"
	"github.com/gigatools/gigalabel/testutil"
)

// unitVector returns a 2-d unit vector whose cosine similarity against
// {1, 0} is exactly x.
func unitVector(x float64) []float32 {
	return []float32{float32(x), float32(math.Sqrt(1 - x*x))}
}

// newTestClassifier builds a classifier over the given labels with a
// mock embedder that looks vectors up by text.
func newTestClassifier(t *testing.T, labels []string, vectors map[string][]float32, logger gigalabel.Logger) (*gigalabel.Classifier, *testutil.MockEmbedder) {
	t.Helper()

	embedder := &testutil.MockEmbedder{
		EmbedFunc: func(ctx context.Context, text string) ([]float32, error) {
			vector, ok := vectors[text]
			if !ok {
				return nil, errors.New("no vector for " + text)
			}
			return vector, nil
		},
	}

	if logger == nil {
		logger = &testutil.CaptureLogger{}
	}

	clf, err := gigalabel.NewClassifier(gigalabel.Config{
		Embedder:     embedder,
		Logger:       logger,
		Labels:       labels,
		TextTemplate: "{{payload}}",
	})
	if err != nil {
		t.Fatalf("NewClassifier failed: %v", err)
	}

	return clf, embedder
}

func TestClassifierSelectsLabelsAboveThreshold(t *testing.T) {
	vectors := map[string][]float32{
		"the game last night": {1, 0},
		"sports":              unitVector(0.85),
		"politics":            unitVector(0.30),
		"tech":                unitVector(0.72),
	}
	clf, _ := newTestClassifier(t, []string{"sports", "politics", "tech"}, vectors, nil)

	outcome := clf.Process(context.Background(), gigalabel.Event{"payload": "the game last night"})
	if outcome.Status != gigalabel.StatusEmitted {
		t.Fatalf("expected emitted outcome, got skip: %s", outcome.Reason)
	}

	selected, ok := outcome.Event["labels"].([]string)
	if !ok {
		t.Fatalf("labels field has unexpected type %T", outcome.Event["labels"])
	}
	if len(selected) != 2 || selected[0] != "sports" || selected[1] != "tech" {
		t.Errorf("selected labels = %v, want [sports tech]", selected)
	}

	similarities, ok := outcome.Event["similarities"].(map[string]float32)
	if !ok {
		t.Fatalf("similarities field has unexpected type %T", outcome.Event["similarities"])
	}
	if len(similarities) != 3 {
		t.Fatalf("expected 3 similarity entries, got %d", len(similarities))
	}
	for label, want := range map[string]float64{"sports": 0.85, "politics": 0.30, "tech": 0.72} {
		if got := float64(similarities[label]); math.Abs(got-want) > 1e-5 {
			t.Errorf("similarity[%s] = %v, want %v", label, got, want)
		}
	}
}

func TestClassifierThresholdIsInclusive(t *testing.T) {
	// Text and label embed to the same vector, so the score is exactly
	// 1.0 and sits on the threshold boundary.
	embedder := &testutil.MockEmbedder{
		EmbedFunc: func(ctx context.Context, text string) ([]float32, error) {
			return []float32{1, 0}, nil
		},
	}

	clf, err := gigalabel.NewClassifier(gigalabel.Config{
		Embedder:      embedder,
		Logger:        &testutil.CaptureLogger{},
		Labels:        []string{"exact"},
		TextTemplate:  "{{payload}}",
		MinSimilarity: gigalabel.Float32(1.0),
	})
	if err != nil {
		t.Fatalf("NewClassifier failed: %v", err)
	}

	outcome := clf.Process(context.Background(), gigalabel.Event{"payload": "anything"})
	if outcome.Status != gigalabel.StatusEmitted {
		t.Fatalf("expected emitted outcome, got skip: %s", outcome.Reason)
	}

	selected := outcome.Event["labels"].([]string)
	if len(selected) != 1 || selected[0] != "exact" {
		t.Errorf("a score equal to the threshold must be selected, got %v", selected)
	}
}

func TestClassifierExplicitZeroThreshold(t *testing.T) {
	// Text and label are orthogonal, so the score is exactly 0. An
	// explicit zero threshold must keep it; it is not the unset value.
	vectors := map[string][]float32{
		"some text":  {1, 0},
		"orthogonal": {0, 1},
	}
	embedder := &testutil.MockEmbedder{
		EmbedFunc: func(ctx context.Context, text string) ([]float32, error) {
			return vectors[text], nil
		},
	}

	clf, err := gigalabel.NewClassifier(gigalabel.Config{
		Embedder:      embedder,
		Logger:        &testutil.CaptureLogger{},
		Labels:        []string{"orthogonal"},
		TextTemplate:  "{{payload}}",
		MinSimilarity: gigalabel.Float32(0),
	})
	if err != nil {
		t.Fatalf("NewClassifier failed: %v", err)
	}

	outcome := clf.Process(context.Background(), gigalabel.Event{"payload": "some text"})
	if outcome.Status != gigalabel.StatusEmitted {
		t.Fatalf("expected emitted outcome, got skip: %s", outcome.Reason)
	}

	selected := outcome.Event["labels"].([]string)
	if len(selected) != 1 || selected[0] != "orthogonal" {
		t.Errorf("a zero threshold must select a zero score, got %v", selected)
	}
}

func TestClassifierCachesLabelEmbeddings(t *testing.T) {
	labels := []string{"a", "b", "c", "d", "e"}
	vectors := map[string][]float32{"some text": {1, 0, 0}}
	for _, label := range labels {
		vectors[label] = []float32{0, 1, 0}
	}

	store := gigalabel.NewMemoryLabelStore()
	// Pre-seed two labels; resolution must fetch exactly the other three.
	store.Put(context.Background(), "a", []float32{0, 1, 0})
	store.Put(context.Background(), "b", []float32{0, 1, 0})

	embedder := &testutil.MockEmbedder{
		EmbedFunc: func(ctx context.Context, text string) ([]float32, error) {
			return vectors[text], nil
		},
	}

	clf, err := gigalabel.NewClassifier(gigalabel.Config{
		Embedder:     embedder,
		Store:        store,
		Logger:       &testutil.CaptureLogger{},
		Labels:       labels,
		TextTemplate: "{{payload}}",
	})
	if err != nil {
		t.Fatalf("NewClassifier failed: %v", err)
	}

	clf.Process(context.Background(), gigalabel.Event{"payload": "some text"})

	// 3 missing labels + 1 text embedding.
	if embedder.CallCount != 4 {
		t.Errorf("expected 4 embed calls after first event, got %d", embedder.CallCount)
	}
	for _, cached := range []string{"a", "b"} {
		if n := embedder.CallsFor(cached); n != 0 {
			t.Errorf("cached label %q was re-fetched %d times", cached, n)
		}
	}

	// A second event with the unchanged label set only embeds the text.
	clf.Process(context.Background(), gigalabel.Event{"payload": "some text"})
	if embedder.CallCount != 5 {
		t.Errorf("expected 5 embed calls after second event, got %d", embedder.CallCount)
	}

	metrics := clf.Metrics()
	if metrics.LabelCacheHits != 7 {
		t.Errorf("expected 7 label cache hits (2 + 5), got %d", metrics.LabelCacheHits)
	}
}

func TestClassifierEmptyTextSkipsSilently(t *testing.T) {
	logger := &testutil.CaptureLogger{}
	clf, embedder := newTestClassifier(t, []string{"sports"}, map[string][]float32{}, logger)

	// The payload field is absent, so the template renders empty.
	outcome := clf.Process(context.Background(), gigalabel.Event{"other": "value"})

	if outcome.Status != gigalabel.StatusSkipped {
		t.Fatal("expected skipped outcome for empty text")
	}
	if embedder.CallCount != 0 {
		t.Errorf("empty text must trigger no embed calls, got %d", embedder.CallCount)
	}
	if logger.ErrorCount() != 0 {
		t.Errorf("empty text is not an error, got %d error logs", logger.ErrorCount())
	}
}

func TestClassifierLabelFailureDegradesGracefully(t *testing.T) {
	labels := []string{"a", "b", "c", "d", "e"}
	vectors := map[string][]float32{"some text": {1, 0}}
	for _, label := range labels {
		if label != "c" {
			vectors[label] = unitVector(0.9)
		}
	}
	logger := &testutil.CaptureLogger{}
	clf, _ := newTestClassifier(t, labels, vectors, logger)

	outcome := clf.Process(context.Background(), gigalabel.Event{"payload": "some text"})
	if outcome.Status != gigalabel.StatusEmitted {
		t.Fatalf("one failed label must not abort classification, got skip: %s", outcome.Reason)
	}

	similarities := outcome.Event["similarities"].(map[string]float32)
	if len(similarities) != 4 {
		t.Errorf("expected 4 similarity entries, got %d", len(similarities))
	}
	if _, present := similarities["c"]; present {
		t.Error("failed label must be absent from similarities, not scored as zero")
	}
	if logger.ErrorCount() == 0 {
		t.Error("the failed label should have been logged")
	}
}

func TestClassifierTextEmbeddingFailureSkipsEvent(t *testing.T) {
	logger := &testutil.CaptureLogger{}
	vectors := map[string][]float32{
		"sports": unitVector(0.9),
		"first":  {1, 0},
		"third":  {1, 0},
		// "second" is missing, so its text embedding fails.
	}
	clf, _ := newTestClassifier(t, []string{"sports"}, vectors, logger)

	events := []gigalabel.Event{
		{"payload": "first", "id": 1},
		{"payload": "second", "id": 2},
		{"payload": "third", "id": 3},
	}
	out := clf.ProcessBatch(context.Background(), events)

	if len(out) != 2 {
		t.Fatalf("expected 2 emitted events, got %d", len(out))
	}
	if out[0]["id"] != 1 || out[1]["id"] != 3 {
		t.Errorf("emitted events out of order: %v", out)
	}
	if logger.ErrorCount() != 1 {
		t.Errorf("expected 1 logged error for the failed event, got %d", logger.ErrorCount())
	}

	metrics := clf.Metrics()
	if metrics.Processed != 3 || metrics.Emitted != 2 || metrics.Skipped != 1 {
		t.Errorf("unexpected metrics %+v", metrics)
	}
}

func TestClassifierRecoversFromPanic(t *testing.T) {
	logger := &testutil.CaptureLogger{}
	embedder := &testutil.MockEmbedder{
		EmbedFunc: func(ctx context.Context, text string) ([]float32, error) {
			panic("embedder blew up")
		},
	}

	clf, err := gigalabel.NewClassifier(gigalabel.Config{
		Embedder:     embedder,
		Logger:       logger,
		Labels:       []string{"sports"},
		TextTemplate: "{{payload}}",
	})
	if err != nil {
		t.Fatalf("NewClassifier failed: %v", err)
	}

	outcome := clf.Process(context.Background(), gigalabel.Event{"payload": "boom"})
	if outcome.Status != gigalabel.StatusSkipped {
		t.Fatal("expected a panicking input to be skipped")
	}
	if logger.ErrorCount() == 0 {
		t.Error("the panic should have been logged")
	}

	// The classifier keeps working for the next input.
	embedder.EmbedFunc = nil
	outcome = clf.Process(context.Background(), gigalabel.Event{"payload": "fine"})
	if outcome.Status != gigalabel.StatusEmitted {
		t.Errorf("expected recovery after panic, got skip: %s", outcome.Reason)
	}
}

func TestClassifierOmitsUnscorableLabels(t *testing.T) {
	logger := &testutil.CaptureLogger{}
	vectors := map[string][]float32{
		"some text": {1, 0},
		"good":      unitVector(0.9),
		"zero":      {0, 0},
		"short":     {1},
	}
	clf, _ := newTestClassifier(t, []string{"good", "zero", "short"}, vectors, logger)

	outcome := clf.Process(context.Background(), gigalabel.Event{"payload": "some text"})
	if outcome.Status != gigalabel.StatusEmitted {
		t.Fatalf("expected emitted outcome, got skip: %s", outcome.Reason)
	}

	similarities := outcome.Event["similarities"].(map[string]float32)
	if len(similarities) != 1 {
		t.Errorf("expected only the scorable label, got %v", similarities)
	}
	if len(logger.Warns) != 2 {
		t.Errorf("expected 2 warnings for unscorable labels, got %v", logger.Warns)
	}
}

func TestClassifierPreservesOriginalFields(t *testing.T) {
	vectors := map[string][]float32{
		"some text": {1, 0},
		"sports":    unitVector(0.9),
	}
	clf, _ := newTestClassifier(t, []string{"sports"}, vectors, nil)

	input := gigalabel.Event{"payload": "some text", "topic": "news", "seq": 7}
	outcome := clf.Process(context.Background(), input)

	if outcome.Event["topic"] != "news" || outcome.Event["seq"] != 7 || outcome.Event["payload"] != "some text" {
		t.Errorf("original fields missing from output: %v", outcome.Event)
	}
	if _, present := input["labels"]; present {
		t.Error("input event must not be mutated")
	}
}
