package ctxanalysis

import (
	"time"

	"crisiswatch/internal/config"
	"crisiswatch/internal/models"
)

// detectTemporal derives late-night, rapid-posting, weekend, and
// hour-of-day risk modifiers. hour_of_day is computed in the
// caller's timezone when a valid IANA name is supplied; invalid names fall
// back to UTC silently here — the handler is responsible for surfacing the
// warning.
func detectTemporal(currentTime time.Time, timestamps []time.Time, userTimezone string, cfg config.TemporalConfig) models.TemporalResult {
	local := currentTime
	tzUsed := "UTC"
	if userTimezone != "" {
		if loc, err := time.LoadLocation(userTimezone); err == nil {
			local = currentTime.In(loc)
			tzUsed = userTimezone
		}
	}

	hour := local.Hour()
	lateNight := inWrappingRange(hour, cfg.LateNightStartHour, cfg.LateNightEndHour)
	weekend := local.Weekday() == time.Saturday || local.Weekday() == time.Sunday

	rapidPosting := detectRapidPosting(timestamps, cfg.RapidPostingMessageCount, cfg.RapidPostingThresholdMins)

	modifier := 1.0
	if lateNight {
		modifier *= orDefault(cfg.LateNightModifier, 1.2)
	}
	if weekend {
		modifier *= orDefault(cfg.WeekendModifier, 1.1)
	}
	if rapidPosting {
		modifier *= orDefault(cfg.RapidPostingModifier, 1.2)
	}

	return models.TemporalResult{
		LateNightRisk: lateNight,
		RapidPosting:  rapidPosting,
		IsWeekend:     weekend,
		HourOfDay:     hour,
		RiskModifier:  modifier,
		UserTimezone:  tzUsed,
	}
}

// inWrappingRange reports whether hour falls in [start, end) treating the
// range as wrapping past midnight when start > end (e.g. [22, 5)).
func inWrappingRange(hour, start, end int) bool {
	if start <= end {
		return hour >= start && hour < end
	}
	return hour >= start || hour < end
}

// detectRapidPosting reports whether at least messageCount timestamps
// (including the current message, the last entry) fall within the
// trailing window ending at the most recent timestamp.
func detectRapidPosting(timestamps []time.Time, messageCount int, window time.Duration) bool {
	if len(timestamps) < messageCount {
		return false
	}
	latest := timestamps[len(timestamps)-1]
	count := 0
	for _, t := range timestamps {
		if latest.Sub(t) <= window {
			count++
		}
	}
	return count >= messageCount
}

func orDefault(v, def float64) float64 {
	if v <= 0 {
		return def
	}
	return v
}
