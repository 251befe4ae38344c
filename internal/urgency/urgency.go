// Package urgency implements the intervention urgency calculator: crisis
// score, escalation, and temporal factors fold into one of {none, low,
// standard, high, immediate}, with monotone boost rules, and into a
// deterministic recommended_action.
package urgency

import "crisiswatch/internal/models"

var levelRank = map[models.InterventionUrgency]int{
	models.UrgencyNone:      0,
	models.UrgencyLow:       1,
	models.UrgencyStandard:  2,
	models.UrgencyHigh:      3,
	models.UrgencyImmediate: 4,
}

var rankLevel = []models.InterventionUrgency{
	models.UrgencyNone, models.UrgencyLow, models.UrgencyStandard, models.UrgencyHigh, models.UrgencyImmediate,
}

var baseBySeverity = map[models.Severity]models.InterventionUrgency{
	models.SeveritySafe:     models.UrgencyNone,
	models.SeverityLow:      models.UrgencyLow,
	models.SeverityMedium:   models.UrgencyStandard,
	models.SeverityHigh:     models.UrgencyHigh,
	models.SeverityCritical: models.UrgencyImmediate,
}

// Calculate applies the base severity mapping then the boost rules in
// order. lateNightScoreFloor is the configured crisis_score threshold the
// late-night boost rule requires before it fires.
func Calculate(severity models.Severity, crisisScore float64, lateNightScoreFloor float64, esc models.EscalationResult, temp models.TemporalResult) models.InterventionUrgency {
	level := baseBySeverity[severity]

	if esc.Rate == models.EscalationSudden || esc.Rate == models.EscalationRapid {
		level = bump(level)
	}
	if temp.LateNightRisk && crisisScore >= lateNightScoreFloor {
		level = bump(level)
	}
	if temp.RapidPosting {
		level = bump(level)
	}

	return level
}

func bump(level models.InterventionUrgency) models.InterventionUrgency {
	rank := levelRank[level] + 1
	if rank > levelRank[models.UrgencyImmediate] {
		rank = levelRank[models.UrgencyImmediate]
	}
	return rankLevel[rank]
}

// InterventionDelayed reports whether the supplied score series crossed
// the "high" severity threshold earlier than the current (last) index,
// meaning an escalating user should have triggered intervention sooner.
func InterventionDelayed(series []float64, highThreshold float64) bool {
	if len(series) < 2 {
		return false
	}
	for i := 0; i < len(series)-1; i++ {
		if series[i] >= highThreshold {
			return true
		}
	}
	return false
}

// recommendedAction is the deterministic (severity, urgency) → action
// table operators use to script automated responses.
var recommendedAction = map[models.Severity]map[models.InterventionUrgency]string{
	models.SeverityCritical: {
		models.UrgencyImmediate: "immediate_outreach",
		models.UrgencyHigh:      "priority_response",
	},
	models.SeverityHigh: {
		models.UrgencyHigh:      "priority_response",
		models.UrgencyImmediate: "immediate_outreach",
	},
	models.SeverityMedium: {
		models.UrgencyStandard: "watch",
		models.UrgencyHigh:     "priority_response",
	},
	models.SeverityLow: {
		models.UrgencyLow:      "observe",
		models.UrgencyStandard: "watch",
	},
}

// RecommendedAction maps (severity, urgency) to an action string, falling
// back to "none" for combinations not named explicitly in the table.
func RecommendedAction(severity models.Severity, level models.InterventionUrgency) string {
	if byUrgency, ok := recommendedAction[severity]; ok {
		if action, ok := byUrgency[level]; ok {
			return action
		}
	}
	if level == models.UrgencyNone {
		return "none"
	}
	return "none"
}
