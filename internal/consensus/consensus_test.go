package consensus

import (
	"errors"
	"testing"

	"crisiswatch/internal/models"
)

var errUnavailable = errors.New("model unavailable")

func thresholds() SeverityThresholds {
	return SeverityThresholds{Critical: 0.9, High: 0.7, Medium: 0.45, Low: 0.25}
}

func sig(id string, crisisSignal, weight float64) models.ModelSignal {
	return models.ModelSignal{
		ModelID:      id,
		CrisisSignal: crisisSignal,
		ModelWeight:  weight,
	}
}

func TestCompute_FewerThanTwoSignalsPassesThrough(t *testing.T) {
	signals := map[string]models.ModelSignal{
		"crisis_classifier": sig("crisis_classifier", 0.8, 1.0),
	}
	res := Compute("weighted_voting", signals, 0.5, thresholds())

	if res.ConsensusScore != 0.8 {
		t.Errorf("expected passthrough score 0.8, got %v", res.ConsensusScore)
	}
	if res.Agreement != 1.0 {
		t.Errorf("expected full agreement for a single signal, got %v", res.Agreement)
	}
}

func TestCompute_NoAvailableSignalsPassesThroughZero(t *testing.T) {
	signals := map[string]models.ModelSignal{
		"crisis_classifier": {ModelID: "crisis_classifier", Err: errUnavailable},
	}
	res := Compute("weighted_voting", signals, 0.5, thresholds())

	if res.ConsensusScore != 0 {
		t.Errorf("expected zero score with no available signals, got %v", res.ConsensusScore)
	}
	if res.ConsensusLabel != string(models.SeveritySafe) {
		t.Errorf("expected safe label, got %s", res.ConsensusLabel)
	}
}

func TestCompute_ExcludesIronyFromVoting(t *testing.T) {
	signals := map[string]models.ModelSignal{
		"crisis_classifier": sig("crisis_classifier", 0.9, 1.0),
		"sentiment":         sig("sentiment", 0.8, 1.0),
		"irony":             sig("irony", 1.0, 1.0),
	}
	res := Compute("weighted_voting", signals, 0.5, thresholds())

	// irony never casts a vote, so the weighted average is over the two
	// remaining signals only: (0.9+0.8)/2 = 0.85.
	if res.ConsensusScore < 0.84 || res.ConsensusScore > 0.86 {
		t.Errorf("expected irony excluded from the weighted average, got %v", res.ConsensusScore)
	}
}

func TestMajority_StrictGreaterThanExcludesTies(t *testing.T) {
	signals := map[string]models.ModelSignal{
		"crisis_classifier": sig("crisis_classifier", 0.5, 1.0),
		"sentiment":         sig("sentiment", 0.5, 1.0),
	}
	res := Compute("majority", signals, 0.5, thresholds())

	// both signals sit exactly on the threshold; a tie does not count as
	// a positive vote, so zero of the weight votes positive.
	if res.ConsensusScore != 0 {
		t.Errorf("expected a tie at the threshold not to count as a vote, got %v", res.ConsensusScore)
	}
}

func TestMajority_AboveThresholdCountsAsVote(t *testing.T) {
	signals := map[string]models.ModelSignal{
		"crisis_classifier": sig("crisis_classifier", 0.51, 1.0),
		"sentiment":         sig("sentiment", 0.1, 1.0),
	}
	res := Compute("majority", signals, 0.5, thresholds())

	if res.ConsensusScore != 0.5 {
		t.Errorf("expected half the weight voting positive, got %v", res.ConsensusScore)
	}
}

func TestUnanimous_AllPositiveKeepsWeightedScore(t *testing.T) {
	signals := map[string]models.ModelSignal{
		"crisis_classifier": sig("crisis_classifier", 0.9, 1.0),
		"sentiment":         sig("sentiment", 0.8, 1.0),
	}
	res := Compute("unanimous", signals, 0.5, thresholds())

	if res.ConsensusScore < 0.84 || res.ConsensusScore > 0.86 {
		t.Errorf("expected the plain weighted average when all vote positive, got %v", res.ConsensusScore)
	}
}

func TestUnanimous_OneDissenterClampsScore(t *testing.T) {
	signals := map[string]models.ModelSignal{
		"crisis_classifier": sig("crisis_classifier", 0.9, 1.0),
		"sentiment":         sig("sentiment", 0.1, 1.0),
	}
	res := Compute("unanimous", signals, 0.5, thresholds())

	if res.ConsensusScore >= thresholds().Low {
		t.Errorf("expected a dissenting model to clamp the score below the low threshold, got %v", res.ConsensusScore)
	}
}

func TestCompute_UnknownAlgorithmDefaultsToWeightedVoting(t *testing.T) {
	signals := map[string]models.ModelSignal{
		"crisis_classifier": sig("crisis_classifier", 0.9, 1.0),
		"sentiment":         sig("sentiment", 0.1, 1.0),
	}
	res := Compute("not_a_real_algorithm", signals, 0.5, thresholds())

	if res.Algorithm != "weighted_voting" {
		t.Errorf("expected an unrecognized algorithm to default to weighted_voting, got %s", res.Algorithm)
	}
}
