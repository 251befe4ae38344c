// Package explain implements the optional Explanation Builder:
// a verbosity-tunable natural-language summary of a CrisisAssessment,
// bounded to respect the chat-embed limits the alerter also enforces.
package explain

import (
	"fmt"
	"sort"
	"strings"

	"crisiswatch/internal/models"
)

const maxSummaryChars = 1024

// Build produces an Explanation for the given verbosity ("minimal",
// "standard", or "detailed"; unrecognized values fall back to "standard").
func Build(a *models.CrisisAssessment, verbosity string) *models.Explanation {
	switch verbosity {
	case "minimal", "standard", "detailed":
	default:
		verbosity = "standard"
	}

	summary := summarize(a, verbosity)
	factors := keyFactors(a, verbosity)

	return &models.Explanation{
		Verbosity:         verbosity,
		Summary:           truncate(summary, maxSummaryChars),
		KeyFactors:        factors,
		RecommendedAction: a.RecommendedAction,
	}
}

func summarize(a *models.CrisisAssessment, verbosity string) string {
	base := fmt.Sprintf("Severity %s (score %.2f, confidence %.2f).", a.Severity, a.CrisisScore, a.Confidence)

	if verbosity == "minimal" {
		return base
	}

	var b strings.Builder
	b.WriteString(base)

	if a.Conflict.Detected {
		b.WriteString(fmt.Sprintf(" Models disagreed (%s).", a.Conflict.Kind))
	}

	if a.ContextAnalysis != nil {
		ctx := a.ContextAnalysis
		if ctx.Escalation.Detected {
			b.WriteString(fmt.Sprintf(" Escalation detected (%s).", ctx.Escalation.Rate))
		}
		if verbosity == "detailed" {
			b.WriteString(fmt.Sprintf(" Trend is %s at %s velocity.", ctx.Trend.Direction, ctx.Trend.Velocity))
			if ctx.Temporal.LateNightRisk {
				b.WriteString(" Message was posted late at night.")
			}
		}
	}

	return b.String()
}

func keyFactors(a *models.CrisisAssessment, verbosity string) []string {
	var factors []string

	for _, id := range topSignalIDs(a.Signals, 3) {
		sig := a.Signals[id]
		factors = append(factors, fmt.Sprintf("%s: %s (%.2f)", id, sig.RawLabel, sig.CrisisSignal))
	}

	if a.ContextAnalysis != nil {
		ctx := a.ContextAnalysis
		if ctx.Escalation.MatchedPattern != "" {
			factors = append(factors, "pattern: "+ctx.Escalation.MatchedPattern)
		}
		if ctx.Temporal.LateNightRisk {
			factors = append(factors, "late-night posting")
		}
		if ctx.Temporal.RapidPosting {
			factors = append(factors, "rapid posting")
		}
		if verbosity == "detailed" && ctx.Temporal.IsWeekend {
			factors = append(factors, "weekend posting")
		}
	}

	return factors
}

// topSignalIDs returns up to n model ids sorted by descending
// crisis_signal, among those that returned a value.
func topSignalIDs(signals map[string]models.ModelSignal, n int) []string {
	ids := make([]string, 0, len(signals))
	for id, sig := range signals {
		if sig.Available() {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		return signals[ids[i]].CrisisSignal > signals[ids[j]].CrisisSignal
	})
	if len(ids) > n {
		ids = ids[:n]
	}
	return ids
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit-1] + "…"
}
