package wrapper

import "crisiswatch/internal/models"

// Kind distinguishes the four normalization rule tables.
type Kind string

const (
	KindCrisisClassifier Kind = "crisis_classifier"
	KindSentiment        Kind = "sentiment"
	KindIrony            Kind = "irony"
	KindEmotion          Kind = "emotion"
)

var crisisPositiveLabels = map[string]bool{
	"crisis":             true,
	"suicidal_ideation":  true,
	"self_harm":          true,
}

var emotionPositiveLabels = map[string]bool{
	"grief":   true,
	"sadness": true,
	"fear":    true,
	"anger":   true,
}

// Normalize maps a wrapper's (kind, label, score) into crisis_signal per
// the rule table for that model kind. crisis_signal is
// deterministic from (label, score) alone.
func Normalize(kind Kind, label string, score float64) float64 {
	switch kind {
	case KindCrisisClassifier:
		if crisisPositiveLabels[label] {
			return score
		}
		return 0

	case KindSentiment:
		switch label {
		case "negative":
			return score
		case "neutral":
			return 0.5 * score
		default: // "positive"
			return 0
		}

	case KindIrony:
		// Irony is a dampener, not a positive signal: an
		// ironic message is less reliably crisis-indicative, so its
		// normalized value is 1-score when ironic, reported for the
		// engine to apply as a downweighting factor rather than a vote.
		if label == "ironic" {
			return 1 - score
		}
		return 1

	case KindEmotion:
		if emotionPositiveLabels[label] {
			return score
		}
		return 0

	default:
		return 0
	}
}

// applyNormalization fills in CrisisSignal on an otherwise-built signal.
func applyNormalization(kind Kind, sig models.ModelSignal) models.ModelSignal {
	sig.CrisisSignal = Normalize(kind, sig.RawLabel, sig.RawScore)
	return sig
}
