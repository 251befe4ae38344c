package api

import (
	"crisiswatch/internal/config"
	"crisiswatch/internal/schema"
)

// contextConfigView flattens config.ContextConfig into the GET/PUT
// /config/context wire shape: a handful of named thresholds an
// operator can tune without a full config reload.
func contextConfigView(c config.ContextConfig) schema.ContextConfigView {
	return schema.ContextConfigView{
		MaxHistorySize: c.MaxHistorySize,
		Escalation: map[string]float64{
			"sudden_threshold":  c.Escalation.SuddenThreshold,
			"rapid_threshold":   c.Escalation.RapidThreshold,
			"gradual_threshold": c.Escalation.GradualThreshold,
		},
		Temporal: map[string]float64{
			"late_night_modifier":    c.Temporal.LateNightModifier,
			"weekend_modifier":       c.Temporal.WeekendModifier,
			"rapid_posting_modifier": c.Temporal.RapidPostingModifier,
		},
		Trend: map[string]float64{
			"worsening_threshold":  c.Trend.WorseningThreshold,
			"improving_threshold":  c.Trend.ImprovingThreshold,
			"volatility_threshold": c.Trend.VolatilityThreshold,
		},
	}
}

// mergeContextConfig applies whichever named fields the caller supplied in
// view onto a copy of current, leaving the rest untouched. Unknown keys
// are ignored rather than rejected, a lenient-PATCH style that tolerates
// older clients sending a partial view.
func mergeContextConfig(current config.ContextConfig, view schema.ContextConfigView) config.ContextConfig {
	next := current
	if view.MaxHistorySize > 0 {
		next.MaxHistorySize = view.MaxHistorySize
	}
	if v, ok := view.Escalation["sudden_threshold"]; ok {
		next.Escalation.SuddenThreshold = v
	}
	if v, ok := view.Escalation["rapid_threshold"]; ok {
		next.Escalation.RapidThreshold = v
	}
	if v, ok := view.Escalation["gradual_threshold"]; ok {
		next.Escalation.GradualThreshold = v
	}
	if v, ok := view.Temporal["late_night_modifier"]; ok {
		next.Temporal.LateNightModifier = v
	}
	if v, ok := view.Temporal["weekend_modifier"]; ok {
		next.Temporal.WeekendModifier = v
	}
	if v, ok := view.Temporal["rapid_posting_modifier"]; ok {
		next.Temporal.RapidPostingModifier = v
	}
	if v, ok := view.Trend["worsening_threshold"]; ok {
		next.Trend.WorseningThreshold = v
	}
	if v, ok := view.Trend["improving_threshold"]; ok {
		next.Trend.ImprovingThreshold = v
	}
	if v, ok := view.Trend["volatility_threshold"]; ok {
		next.Trend.VolatilityThreshold = v
	}
	return next
}
