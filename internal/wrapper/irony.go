package wrapper

import (
	"context"
	"strings"

	"crisiswatch/internal/models"
)

// ironyWrapper detects sarcastic framing so the engine can dampen other
// models' contributions rather than having irony contribute a
// positive crisis term of its own.
type ironyWrapper struct{ base }

var ironyMarkers = []string{
	"oh great", "just what i needed", "just perfect", "wonderful, just wonderful",
	"yeah right", "sure, because that", "totally", "/s",
}

var ironyEmoji = []string{"🙄", "😒", "🙃"}

func (w *ironyWrapper) Analyze(ctx context.Context, text string) (models.ModelSignal, error) {
	sig, err := runWithTimeout(ctx, w.base, text, w.infer)
	if err != nil {
		return sig, err
	}
	return applyNormalization(KindIrony, sig), nil
}

func (w *ironyWrapper) infer(text string) (string, float64) {
	lower := strings.ToLower(text)
	hits := countMatches(lower, ironyMarkers)
	for _, e := range ironyEmoji {
		if strings.Contains(text, e) {
			hits++
		}
	}

	if hits == 0 {
		return "sincere", 0
	}
	score := clamp01(0.6 + 0.15*float64(hits-1))
	return "ironic", score
}
