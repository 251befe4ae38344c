package wrapper

import (
	"context"
	"strings"

	"crisiswatch/internal/models"
)

type emotionWrapper struct{ base }

var emotionLexicon = map[string][]string{
	"grief":   {"miss them", "lost my", "passed away", "grieving", "funeral"},
	"sadness": {"so sad", "crying", "heartbroken", "down", "blue"},
	"fear":    {"scared", "terrified", "afraid", "panic", "anxious"},
	"anger":   {"furious", "so angry", "rage", "hate everything", "pissed"},
	"joy":     {"thrilled", "delighted", "so happy", "can't stop smiling"},
}

// emotionOrder fixes iteration order so the best match is deterministic
// when a text happens to hit more than one lexicon.
var emotionOrder = []string{"grief", "fear", "anger", "sadness", "joy"}

func (w *emotionWrapper) Analyze(ctx context.Context, text string) (models.ModelSignal, error) {
	sig, err := runWithTimeout(ctx, w.base, text, w.infer)
	if err != nil {
		return sig, err
	}
	return applyNormalization(KindEmotion, sig), nil
}

func (w *emotionWrapper) infer(text string) (string, float64) {
	lower := strings.ToLower(text)

	bestLabel := "neutral"
	bestHits := 0
	for _, label := range emotionOrder {
		hits := countMatches(lower, emotionLexicon[label])
		if hits > bestHits {
			bestHits = hits
			bestLabel = label
		}
	}

	if bestHits == 0 {
		return "neutral", 0.5
	}
	return bestLabel, clamp01(0.55 + 0.15*float64(bestHits-1))
}
