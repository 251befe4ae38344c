// Package consensus implements the Consensus Layer: it fuses
// per-model signals into a consensus score and label via a named voting
// algorithm, grounded in the variance/agreement idiom of the reference
// ensemble classifier (other_examples' proth1-text-moderator
// ClassifierEnsemble.computeAgreement).
package consensus

import (
	"math"

	"crisiswatch/internal/models"
)

// SeverityThresholds mirrors config.SeverityConfig without importing the
// config package, keeping this layer free of a config dependency.
type SeverityThresholds struct {
	Critical, High, Medium, Low float64
}

func (t SeverityThresholds) label(score float64) string {
	switch {
	case score >= t.Critical:
		return string(models.SeverityCritical)
	case score >= t.High:
		return string(models.SeverityHigh)
	case score >= t.Medium:
		return string(models.SeverityMedium)
	case score >= t.Low:
		return string(models.SeverityLow)
	default:
		return string(models.SeveritySafe)
	}
}

// Compute dispatches to the named algorithm, defaulting to weighted_voting
// for an unrecognized name.
func Compute(algorithm string, signals map[string]models.ModelSignal, positiveThreshold float64, thresholds SeverityThresholds) models.ConsensusResult {
	available := availableNonIrony(signals)

	if len(available) < 2 {
		return passthrough(algorithm, available, thresholds)
	}

	switch algorithm {
	case "majority":
		return majority(available, positiveThreshold, thresholds)
	case "unanimous":
		return unanimous(available, positiveThreshold, thresholds)
	default:
		return weightedVoting(available, thresholds)
	}
}

// availableNonIrony excludes failed wrappers and the irony dampener,
// which never casts a consensus vote of its own.
func availableNonIrony(signals map[string]models.ModelSignal) []models.ModelSignal {
	out := make([]models.ModelSignal, 0, len(signals))
	for id, sig := range signals {
		if id == "irony" || !sig.Available() {
			continue
		}
		out = append(out, sig)
	}
	return out
}

// passthrough handles the "fewer than two signals" edge case:
// the single available signal passes through with full agreement.
func passthrough(algorithm string, available []models.ModelSignal, thresholds SeverityThresholds) models.ConsensusResult {
	score := 0.0
	if len(available) == 1 {
		score = available[0].CrisisSignal
	}
	return models.ConsensusResult{
		Algorithm:      algorithm,
		ConsensusScore: score,
		ConsensusLabel: thresholds.label(score),
		Agreement:      1.0,
	}
}

func weightedVoting(signals []models.ModelSignal, thresholds SeverityThresholds) models.ConsensusResult {
	var numerator, denominator float64
	for _, sig := range signals {
		numerator += sig.CrisisSignal * sig.ModelWeight
		denominator += sig.ModelWeight
	}
	score := 0.0
	if denominator > 0 {
		score = numerator / denominator
	}

	return models.ConsensusResult{
		Algorithm:      "weighted_voting",
		ConsensusScore: score,
		ConsensusLabel: thresholds.label(score),
		Agreement:      1 - normalizedVariance(signals),
	}
}

// majority counts "crisis" votes using a strict > comparison against
// positiveThreshold: a tie does not count as majority.
func majority(signals []models.ModelSignal, positiveThreshold float64, thresholds SeverityThresholds) models.ConsensusResult {
	var votingWeight, totalWeight float64
	for _, sig := range signals {
		totalWeight += sig.ModelWeight
		if sig.CrisisSignal > positiveThreshold {
			votingWeight += sig.ModelWeight
		}
	}

	ratio := 0.0
	if totalWeight > 0 {
		ratio = votingWeight / totalWeight
	}

	return models.ConsensusResult{
		Algorithm:      "majority",
		ConsensusScore: ratio,
		ConsensusLabel: thresholds.label(ratio),
		Agreement:      math.Abs(ratio-0.5) * 2,
	}
}

// unanimous requires every signal to vote "crisis"; otherwise the
// consensus score is clamped below the low threshold.
func unanimous(signals []models.ModelSignal, positiveThreshold float64, thresholds SeverityThresholds) models.ConsensusResult {
	var numerator, denominator float64
	allPositive := true
	for _, sig := range signals {
		numerator += sig.CrisisSignal * sig.ModelWeight
		denominator += sig.ModelWeight
		if sig.CrisisSignal <= positiveThreshold {
			allPositive = false
		}
	}

	score := 0.0
	if denominator > 0 {
		score = numerator / denominator
	}
	if !allPositive && score >= thresholds.Low {
		score = thresholds.Low * 0.5
	}

	return models.ConsensusResult{
		Algorithm:      "unanimous",
		ConsensusScore: score,
		ConsensusLabel: thresholds.label(score),
		Agreement:      1 - normalizedVariance(signals),
	}
}

// normalizedVariance returns the variance of crisis_signal across signals,
// already bounded to [0,1] since signals are themselves bounded to [0,1]
// (max possible variance of values in [0,1] is 0.25, so this is scaled by
// 4 to report on a comparable [0,1] agreement scale).
func normalizedVariance(signals []models.ModelSignal) float64 {
	if len(signals) == 0 {
		return 0
	}
	mean := 0.0
	for _, sig := range signals {
		mean += sig.CrisisSignal
	}
	mean /= float64(len(signals))

	variance := 0.0
	for _, sig := range signals {
		d := sig.CrisisSignal - mean
		variance += d * d
	}
	variance /= float64(len(signals))

	scaled := variance * 4
	if scaled > 1 {
		scaled = 1
	}
	return scaled
}
