package explain

import (
	"strings"
	"testing"

	"crisiswatch/internal/models"
)

func baseAssessment() *models.CrisisAssessment {
	return &models.CrisisAssessment{
		Severity:   models.SeverityHigh,
		CrisisScore: 0.82,
		Confidence: 0.7,
		Signals: map[string]models.ModelSignal{
			"crisis_classifier": {RawLabel: "crisis", CrisisSignal: 0.9, ModelWeight: 1},
			"sentiment":         {RawLabel: "negative", CrisisSignal: 0.6, ModelWeight: 1},
			"emotion":           {RawLabel: "sadness", CrisisSignal: 0.4, ModelWeight: 1},
			"irony":             {RawLabel: "sincere", CrisisSignal: 1.0, ModelWeight: 1},
		},
		RecommendedAction: "priority_response",
	}
}

func TestBuild_UnrecognizedVerbosityFallsBackToStandard(t *testing.T) {
	exp := Build(baseAssessment(), "loud")
	if exp.Verbosity != "standard" {
		t.Errorf("expected fallback to standard, got %s", exp.Verbosity)
	}
}

func TestBuild_MinimalOmitsDetail(t *testing.T) {
	a := baseAssessment()
	a.Conflict.Detected = true
	a.Conflict.Kind = models.ConflictLabelMismatch

	exp := Build(a, "minimal")
	if strings.Contains(exp.Summary, "disagreed") {
		t.Errorf("expected minimal verbosity to omit conflict detail, got %q", exp.Summary)
	}
}

func TestBuild_StandardIncludesConflictButNotTrend(t *testing.T) {
	a := baseAssessment()
	a.Conflict.Detected = true
	a.Conflict.Kind = models.ConflictLabelMismatch
	a.ContextAnalysis = &models.ContextAnalysisResult{
		Trend: models.TrendResult{Direction: models.TrendWorsening, Velocity: models.VelocityRapid},
	}

	exp := Build(a, "standard")
	if !strings.Contains(exp.Summary, "disagreed") {
		t.Errorf("expected standard verbosity to mention disagreement, got %q", exp.Summary)
	}
	if strings.Contains(exp.Summary, "velocity") {
		t.Errorf("expected standard verbosity to omit trend velocity detail, got %q", exp.Summary)
	}
}

func TestBuild_DetailedIncludesTrendAndLateNight(t *testing.T) {
	a := baseAssessment()
	a.ContextAnalysis = &models.ContextAnalysisResult{
		Trend:    models.TrendResult{Direction: models.TrendWorsening, Velocity: models.VelocityRapid},
		Temporal: models.TemporalResult{LateNightRisk: true},
	}

	exp := Build(a, "detailed")
	if !strings.Contains(exp.Summary, "velocity") {
		t.Errorf("expected detailed verbosity to include trend velocity, got %q", exp.Summary)
	}
	if !strings.Contains(exp.Summary, "late at night") {
		t.Errorf("expected detailed verbosity to mention late-night posting, got %q", exp.Summary)
	}
}

func TestBuild_KeyFactorsLimitedToTopThreeSignals(t *testing.T) {
	exp := Build(baseAssessment(), "standard")

	signalFactors := 0
	for _, f := range exp.KeyFactors {
		if strings.Contains(f, "crisis_classifier") || strings.Contains(f, "sentiment") || strings.Contains(f, "emotion") || strings.Contains(f, "irony") {
			signalFactors++
		}
	}
	if signalFactors != 3 {
		t.Errorf("expected exactly the top 3 available signals as factors, got %d: %v", signalFactors, exp.KeyFactors)
	}
}

func TestBuild_SummaryNeverExceedsLimit(t *testing.T) {
	a := baseAssessment()
	a.ContextAnalysis = &models.ContextAnalysisResult{
		Escalation: models.EscalationResult{Detected: true, Rate: models.EscalationSudden},
		Trend:      models.TrendResult{Direction: models.TrendWorsening, Velocity: models.VelocityRapid},
		Temporal:   models.TemporalResult{LateNightRisk: true},
	}
	a.Conflict.Detected = true
	a.Conflict.Kind = models.ConflictSignFlip

	exp := Build(a, "detailed")
	if len(exp.Summary) > maxSummaryChars {
		t.Errorf("expected summary bounded to %d chars, got %d", maxSummaryChars, len(exp.Summary))
	}
}
