// Command gigalabel classifies JSON events from stdin against a label
// set and writes the augmented events to stdout, one JSON object per
// line.
//
// Credentials come from GIGACHAT_CREDENTIALS and GIGACHAT_SCOPE, loaded
// from the environment or a .env file.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	gigalabel "github.com/gigatools/gigalabel"
	"github.com/gigatools/gigalabel/gigachat"
	"github.com/gigatools/gigalabel/logging"
	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

func main() {
	labelsFlag := flag.String("labels", "", "comma-separated label set (required)")
	templateFlag := flag.String("template", "{{payload}}", "text template rendered against each event")
	thresholdFlag := flag.Float64("min-similarity", gigalabel.DefaultMinSimilarity, "inclusive similarity threshold in [0,1]")
	modelFlag := flag.String("model", gigachat.DefaultEmbeddingModel, "embedding model name")
	verboseFlag := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	if err := run(*labelsFlag, *templateFlag, float32(*thresholdFlag), *modelFlag, *verboseFlag); err != nil {
		fmt.Fprintln(os.Stderr, "gigalabel:", err)
		os.Exit(1)
	}
}

func run(labels, textTemplate string, threshold float32, model string, verbose bool) error {
	// A missing .env file is fine; the variables may already be exported.
	_ = godotenv.Load()

	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	logger := logging.New(level)
	defer logger.Sync()

	labelSet := splitLabels(labels)
	if len(labelSet) == 0 {
		return fmt.Errorf("at least one label is required, use -labels")
	}

	clf, err := gigalabel.NewClassifier(gigalabel.Config{
		Credentials:    os.Getenv("GIGACHAT_CREDENTIALS"),
		Scope:          gigachat.Scope(os.Getenv("GIGACHAT_SCOPE")),
		Labels:         labelSet,
		TextTemplate:   textTemplate,
		MinSimilarity:  gigalabel.Float32(threshold),
		EmbeddingModel: model,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	ctx := context.Background()
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	encoder := json.NewEncoder(os.Stdout)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var event gigalabel.Event
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			logger.Errorf("skipping malformed input line: %v", err)
			continue
		}

		outcome := clf.Process(ctx, event)
		if outcome.Status != gigalabel.StatusEmitted {
			continue
		}
		if err := encoder.Encode(outcome.Event); err != nil {
			return fmt.Errorf("failed to write output event: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	metrics := clf.Metrics()
	logger.Infof("processed=%d emitted=%d skipped=%d cache_hits=%d",
		metrics.Processed, metrics.Emitted, metrics.Skipped, metrics.LabelCacheHits)

	return nil
}

func splitLabels(raw string) []string {
	parts := strings.Split(raw, ",")
	labels := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			labels = append(labels, trimmed)
		}
	}
	return labels
}
