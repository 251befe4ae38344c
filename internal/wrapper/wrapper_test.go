package wrapper

import (
	"context"
	"testing"
	"time"

	"crisiswatch/internal/config"
)

func testModelConfig(kind string) config.ModelConfig {
	return config.ModelConfig{
		ModelID:            kind,
		Kind:                kind,
		Enabled:             true,
		Weight:              1.0,
		TokenBudget:         512,
		TruncationStrategy:  "tail",
		Timeout:             100 * time.Millisecond,
	}
}

func TestNew_DispatchesByKind(t *testing.T) {
	cases := map[string]string{
		"sentiment":          "sentiment",
		"irony":              "irony",
		"emotion":            "emotion",
		"crisis_classifier":  "crisis_classifier",
		"unknown_kind":       "crisis_classifier", // default fallback
	}

	for kind, wantKind := range cases {
		w := New(testModelConfig(kind))
		if w.ModelID() != kind {
			t.Errorf("kind %q: expected ModelID %q, got %q", kind, kind, w.ModelID())
		}
		var gotKind string
		switch w.(type) {
		case *sentimentWrapper:
			gotKind = "sentiment"
		case *ironyWrapper:
			gotKind = "irony"
		case *emotionWrapper:
			gotKind = "emotion"
		case *crisisClassifierWrapper:
			gotKind = "crisis_classifier"
		}
		if gotKind != wantKind {
			t.Errorf("kind %q: expected a %s wrapper, got %T", kind, wantKind, w)
		}
	}
}

func TestCrisisClassifierWrapper_DetectsStrongPhrase(t *testing.T) {
	w := New(testModelConfig("crisis_classifier"))
	sig, err := w.Analyze(context.Background(), "I want to die and end my life")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sig.CrisisSignal < 0.7 {
		t.Errorf("expected a high crisis_signal for strong phrases, got %v", sig.CrisisSignal)
	}
}

func TestCrisisClassifierWrapper_NeutralText(t *testing.T) {
	w := New(testModelConfig("crisis_classifier"))
	sig, err := w.Analyze(context.Background(), "the weather is nice today")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sig.CrisisSignal != 0 {
		t.Errorf("expected zero crisis_signal for neutral text, got %v", sig.CrisisSignal)
	}
}

func TestIronyWrapper_NeverVotesPositive(t *testing.T) {
	w := New(testModelConfig("irony"))
	sig, err := w.Analyze(context.Background(), "oh great, just what i needed today")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sig.RawLabel != "ironic" {
		t.Fatalf("expected ironic label, got %s", sig.RawLabel)
	}
	if sig.CrisisSignal > 0.5 {
		t.Errorf("irony's normalized value should dampen, not vote positive; got %v", sig.CrisisSignal)
	}
}

func TestWrapper_TimeoutProducesModelUnavailable(t *testing.T) {
	cfg := testModelConfig("sentiment")
	cfg.Timeout = 1 * time.Nanosecond
	w := New(cfg)

	sig, err := w.Analyze(context.Background(), "some text")
	if err == nil {
		t.Fatal("expected a timeout error")
	}
	if sig.Available() {
		t.Error("signal should report unavailable on timeout")
	}
}

func TestTruncate_RoundTripWhenUnderBudget(t *testing.T) {
	text := "short text"
	out, truncated := Truncate(text, 100, "tail")
	if truncated {
		t.Error("expected no truncation when text is within budget")
	}
	if out != text {
		t.Errorf("expected unmodified text, got %q", out)
	}
}

func TestTruncate_HeadAndTail(t *testing.T) {
	text := "0123456789"
	head, truncated := Truncate(text, 4, "head")
	if !truncated || head != "0123" {
		t.Errorf("expected head truncation to 0123, got %q truncated=%v", head, truncated)
	}

	tail, truncated := Truncate(text, 4, "tail")
	if !truncated || tail != "6789" {
		t.Errorf("expected tail truncation to 6789, got %q truncated=%v", tail, truncated)
	}
}

func TestNormalize_IronyDampensRatherThanVotes(t *testing.T) {
	if v := Normalize(KindIrony, "sincere", 0); v != 1 {
		t.Errorf("expected sincere irony normalization to be 1 (no dampening), got %v", v)
	}
	if v := Normalize(KindIrony, "ironic", 0.8); v < 0.2-1e-9 || v > 0.2+1e-9 {
		t.Errorf("expected 1-score for ironic label, got %v", v)
	}
}
