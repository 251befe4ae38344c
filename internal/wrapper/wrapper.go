// Package wrapper implements the model-wrapper layer: one
// wrapper per underlying classifier, each producing a normalized
// ModelSignal from input text. There is no real inference backend in
// scope here — each wrapper is a deterministic, heuristic stand-in that
// derives a score from extracted lexical features of the message text.
package wrapper

import (
	"context"
	"time"

	"crisiswatch/internal/config"
	cerrors "crisiswatch/internal/errors"
	"crisiswatch/internal/models"
	"crisiswatch/pkg/trace"
)

// Wrapper is the public contract every model wrapper satisfies:
// analyze(text) → ModelSignal | error, bounded by a timeout and never
// panicking.
type Wrapper interface {
	ModelID() string
	Analyze(ctx context.Context, text string) (models.ModelSignal, error)
}

// New builds the concrete Wrapper for one ModelConfig entry, per its Kind.
func New(cfg config.ModelConfig) Wrapper {
	base := base{cfg: cfg}
	switch cfg.Kind {
	case "sentiment":
		return &sentimentWrapper{base}
	case "irony":
		return &ironyWrapper{base}
	case "emotion":
		return &emotionWrapper{base}
	default:
		return &crisisClassifierWrapper{base}
	}
}

type base struct {
	cfg config.ModelConfig
}

func (b base) ModelID() string { return b.cfg.ModelID }

// runWithTimeout truncates text per the wrapper's configured strategy, runs
// infer inside the wrapper's own timeout (independent of the request
// deadline), and maps any failure or deadline overrun into a
// ModelUnavailable error carrying this model's id.
func runWithTimeout(ctx context.Context, b base, text string, infer func(string) (label string, score float64)) (models.ModelSignal, error) {
	span := trace.StartSpan("model_wrapper." + b.cfg.ModelID)
	defer span.End()

	truncated, wasTruncated := Truncate(text, b.cfg.TokenBudget, b.cfg.TruncationStrategy)

	timeout := b.cfg.Timeout
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	wctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		label string
		score float64
	}
	done := make(chan result, 1)
	go func() {
		label, score := infer(truncated)
		done <- result{label, score}
	}()

	select {
	case r := <-done:
		return models.ModelSignal{
			ModelID:      b.cfg.ModelID,
			RawLabel:     r.label,
			RawScore:     clamp01(r.score),
			ModelWeight:  b.cfg.Weight,
			WasTruncated: wasTruncated,
		}, nil
	case <-wctx.Done():
		err := cerrors.ModelUnavailable(b.cfg.ModelID, wctx.Err())
		return models.ModelSignal{ModelID: b.cfg.ModelID, Err: err}, err
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
