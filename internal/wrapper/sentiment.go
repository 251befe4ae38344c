package wrapper

import (
	"context"
	"strings"

	"crisiswatch/internal/models"
)

type sentimentWrapper struct{ base }

var negativeWords = []string{
	"sad", "depressed", "awful", "terrible", "miserable", "hate", "angry",
	"worthless", "lonely", "exhausted", "hurt", "crying", "broken",
}

var positiveWords = []string{
	"great", "happy", "good", "thanks", "grateful", "excited", "love",
	"wonderful", "amazing", "fun", "glad", "blessed",
}

func (w *sentimentWrapper) Analyze(ctx context.Context, text string) (models.ModelSignal, error) {
	sig, err := runWithTimeout(ctx, w.base, text, w.infer)
	if err != nil {
		return sig, err
	}
	return applyNormalization(KindSentiment, sig), nil
}

func (w *sentimentWrapper) infer(text string) (string, float64) {
	lower := strings.ToLower(text)
	neg := countMatches(lower, negativeWords)
	pos := countMatches(lower, positiveWords)

	switch {
	case neg == 0 && pos == 0:
		return "neutral", 0.5
	case neg > pos:
		return "negative", clamp01(0.5 + 0.12*float64(neg-pos))
	case pos > neg:
		return "positive", clamp01(0.5 + 0.12*float64(pos-neg))
	default:
		return "neutral", 0.5
	}
}
