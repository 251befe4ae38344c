package wrapper

import (
	"context"
	"regexp"
	"strings"

	"crisiswatch/internal/models"
)

// crisisClassifierWrapper stands in for a fine-tuned zero-shot classifier
// whose label vocabulary includes an explicit crisis/suicidal-ideation
// class. It extracts lexical features from the message and combines them
// additively into a bounded score.
type crisisClassifierWrapper struct{ base }

var crisisPhrases = []string{
	"kill myself", "end my life", "want to die", "can't go on",
	"can't do this anymore", "no reason to live", "better off dead",
	"suicidal", "ending it all", "not worth living",
}

var crisisSoftPhrases = []string{
	"hopeless", "worthless", "give up", "can't take it", "nobody cares",
	"so tired of everything", "no way out",
}

var crisisFirstPersonDistressPattern = regexp.MustCompile(`\bi\s+(can'?t|cannot|won'?t)\s+\w+`)

func (w *crisisClassifierWrapper) Analyze(ctx context.Context, text string) (models.ModelSignal, error) {
	sig, err := runWithTimeout(ctx, w.base, text, w.infer)
	if err != nil {
		return sig, err
	}
	return applyNormalization(KindCrisisClassifier, sig), nil
}

func (w *crisisClassifierWrapper) infer(text string) (string, float64) {
	lower := strings.ToLower(text)

	strongHits := countMatches(lower, crisisPhrases)
	softHits := countMatches(lower, crisisSoftPhrases)

	score := 0.0
	if strongHits > 0 {
		score = 0.75 + 0.08*float64(strongHits-1)
	} else if softHits > 0 {
		score = 0.35 + 0.1*float64(softHits-1)
	}

	if crisisFirstPersonDistressPattern.MatchString(lower) {
		score += 0.1
	}
	if strings.Contains(text, "!!!") || strings.Count(text, "!") >= 3 {
		score += 0.05
	}

	score = clamp01(score)

	if score > 0 {
		return "crisis", score
	}
	return "neutral", 1 - score
}

func countMatches(lower string, phrases []string) int {
	n := 0
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			n++
		}
	}
	return n
}
