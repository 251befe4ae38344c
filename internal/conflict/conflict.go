// Package conflict implements the Conflict Layer: it detects
// disagreement among per-model signals, classifies it, and produces a
// resolution note that may optionally pull the score toward the median.
package conflict

import (
	"fmt"
	"sort"

	"crisiswatch/internal/config"
	"crisiswatch/internal/models"
)

const (
	positiveBand = 0.6 // signal at or above this counts as crisis-positive
	negativeBand = 0.3 // signal at or below this counts as crisis-negative
)

// Detect computes variance and polarity split across available non-irony
// signals, classifies any detected conflict, and optionally adjusts the
// weighted score toward the median.
func Detect(signals map[string]models.ModelSignal, weightedScore float64, cfg config.ConflictConfig) models.ConflictResult {
	values := availableValues(signals)

	variance := populationVariance(values)
	positives, negatives := polaritySplit(values)
	polaritySplitNonTrivial := positives > 0 && negatives > 0

	detected := variance >= cfg.DisagreementThreshold || polaritySplitNonTrivial

	result := models.ConflictResult{
		Detected:      detected,
		Kind:          models.ConflictNone,
		Variance:      variance,
		AdjustedScore: weightedScore,
	}

	if !detected {
		result.ResolutionNote = "models agree within configured tolerance"
		return result
	}

	result.Kind = classify(signals, values, weightedScore, positives, negatives)
	result.Delta = delta(values)
	result.ResolutionNote = resolutionNote(result.Kind, variance)

	if cfg.AdjustOnLabelMismatch && result.Kind == models.ConflictLabelMismatch {
		result.AdjustedScore = pullTowardMedian(weightedScore, values)
		result.ResolutionNote = "models split between crisis-positive and crisis-negative labels; score pulled toward the signal median"
	}

	return result
}

func availableValues(signals map[string]models.ModelSignal) map[string]float64 {
	values := make(map[string]float64, len(signals))
	for id, sig := range signals {
		if id == "irony" || !sig.Available() {
			continue
		}
		values[id] = sig.CrisisSignal
	}
	return values
}

func polaritySplit(values map[string]float64) (positives, negatives int) {
	for _, v := range values {
		switch {
		case v >= positiveBand:
			positives++
		case v <= negativeBand:
			negatives++
		}
	}
	return
}

func populationVariance(values map[string]float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	variance := 0.0
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	return variance / float64(len(values))
}

func delta(values map[string]float64) float64 {
	if len(values) == 0 {
		return 0
	}
	min, max := 1.0, 0.0
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return max - min
}

// classify distinguishes score_variance, label_mismatch, and sign_flip.
// label_mismatch requires both a strongly positive and a
// strongly negative signal; sign_flip requires the primary model
// (crisis_classifier, when present) to disagree with the overall weighted
// direction; anything else with detected variance is score_variance.
func classify(signals map[string]models.ModelSignal, values map[string]float64, weightedScore float64, positives, negatives int) models.ConflictKind {
	if positives > 0 && negatives > 0 {
		return models.ConflictLabelMismatch
	}

	if primary, ok := signals["crisis_classifier"]; ok && primary.Available() {
		primaryPositive := primary.CrisisSignal >= positiveBand
		overallPositive := weightedScore >= positiveBand
		if primaryPositive != overallPositive {
			return models.ConflictSignFlip
		}
	}

	return models.ConflictScoreVariance
}

func resolutionNote(kind models.ConflictKind, variance float64) string {
	switch kind {
	case models.ConflictLabelMismatch:
		return "models split between crisis-positive and crisis-negative labels; annotated, score not adjusted"
	case models.ConflictSignFlip:
		return "primary model disagrees with the weighted consensus direction"
	default:
		return fmt.Sprintf("signal variance %.3f exceeds tolerance; models broadly agree on direction", variance)
	}
}

func pullTowardMedian(score float64, values map[string]float64) float64 {
	if len(values) == 0 {
		return score
	}
	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		sorted = append(sorted, v)
	}
	sort.Float64s(sorted)

	median := sorted[len(sorted)/2]
	if len(sorted)%2 == 0 {
		median = (sorted[len(sorted)/2-1] + sorted[len(sorted)/2]) / 2
	}

	return (score + median) / 2
}
