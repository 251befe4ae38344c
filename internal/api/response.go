package api

import (
	"crisiswatch/internal/models"
	"crisiswatch/internal/schema"
)

// toResponse maps the pipeline's internal CrisisAssessment to the wire
// contract. Kept separate from internal/models so the wire
// format doesn't shift every time an internal value type is reshaped.
func toResponse(a *models.CrisisAssessment, processingTimeMs int64) schema.AnalyzeResponse {
	signals := make(map[string]schema.SignalView, len(a.Signals))
	for id, s := range a.Signals {
		signals[id] = schema.SignalView{
			Label:        s.RawLabel,
			Score:        s.RawScore,
			CrisisSignal: s.CrisisSignal,
			Weight:       s.ModelWeight,
			WasTruncated: s.WasTruncated,
		}
	}

	resp := schema.AnalyzeResponse{
		CrisisDetected:       a.CrisisDetected,
		Severity:             string(a.Severity),
		CrisisScore:          a.CrisisScore,
		Confidence:           a.Confidence,
		RequiresIntervention: a.RequiresIntervention,
		RecommendedAction:    a.RecommendedAction,
		Signals:              signals,
		Consensus: schema.ConsensusView{
			Algorithm:      a.Consensus.Algorithm,
			ConsensusScore: a.Consensus.ConsensusScore,
			ConsensusLabel: a.Consensus.ConsensusLabel,
			Agreement:      a.Consensus.Agreement,
		},
		ConflictAnalysis: schema.ConflictView{
			Detected:   a.Conflict.Detected,
			Kind:       string(a.Conflict.Kind),
			Variance:   a.Conflict.Variance,
			Delta:      a.Conflict.Delta,
			Resolution: a.Conflict.ResolutionNote,
		},
		Warnings:         a.Warnings,
		ProcessingTimeMs: processingTimeMs,
	}

	if a.ContextAnalysis != nil {
		resp.ContextAnalysis = toContextView(a.ContextAnalysis)
	}
	if a.Explanation != nil {
		resp.Explanation = &schema.ExplanationView{
			Verbosity:         a.Explanation.Verbosity,
			Summary:           a.Explanation.Summary,
			KeyFactors:        a.Explanation.KeyFactors,
			RecommendedAction: a.Explanation.RecommendedAction,
		}
	}

	return resp
}

func toContextView(c *models.ContextAnalysisResult) *schema.ContextAnalysisView {
	var matched *string
	if c.Escalation.MatchedPattern != "" {
		matched = &c.Escalation.MatchedPattern
	}

	return &schema.ContextAnalysisView{
		Escalation: schema.EscalationView{
			Detected:       c.Escalation.Detected,
			Rate:           string(c.Escalation.Rate),
			Confidence:     c.Escalation.Confidence,
			MatchedPattern: matched,
			ScoreDelta:     c.Escalation.ScoreDelta,
			TimeSpanHours:  c.Escalation.TimeSpanHours,
		},
		Temporal: schema.TemporalView{
			LateNightRisk: c.Temporal.LateNightRisk,
			RapidPosting:  c.Temporal.RapidPosting,
			IsWeekend:     c.Temporal.IsWeekend,
			HourOfDay:     c.Temporal.HourOfDay,
			RiskModifier:  c.Temporal.RiskModifier,
			UserTimezone:  c.Temporal.UserTimezone,
		},
		Trend: schema.TrendView{
			Direction:        string(c.Trend.Direction),
			Velocity:         string(c.Trend.Velocity),
			Scores:           c.Trend.Scores,
			Start:            c.Trend.Start,
			End:              c.Trend.End,
			Peak:             c.Trend.Peak,
			InflectionPoints: c.Trend.InflectionPoints,
		},
		InterventionUrgency: string(c.InterventionUrgency),
		InterventionDelayed: c.InterventionDelayed,
		HistoryMetadata: schema.HistoryMetadata{
			ItemsConsidered:  c.HistoryMetadata.ItemsConsidered,
			ItemsTruncated:   c.HistoryMetadata.ItemsTruncated,
			ValidationIssues: c.HistoryMetadata.ValidationIssues,
		},
	}
}
