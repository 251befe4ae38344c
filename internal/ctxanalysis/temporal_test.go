package ctxanalysis

import (
	"testing"
	"time"

	"crisiswatch/internal/config"
)

func temporalCfg() config.TemporalConfig {
	return config.TemporalConfig{
		LateNightStartHour:        22,
		LateNightEndHour:          5,
		RapidPostingMessageCount:  3,
		RapidPostingThresholdMins: 10 * time.Minute,
		LateNightModifier:         1.2,
		WeekendModifier:           1.1,
		RapidPostingModifier:      1.2,
	}
}

func TestDetectTemporal_FlagsLateNight(t *testing.T) {
	cfg := temporalCfg()
	// Saturday 2026-01-03 at 23:00 UTC is both late night and a weekend.
	current := time.Date(2026, 1, 3, 23, 0, 0, 0, time.UTC)

	res := detectTemporal(current, []time.Time{current}, "", cfg)
	if !res.LateNightRisk {
		t.Error("expected late night risk to be flagged")
	}
	if !res.IsWeekend {
		t.Error("expected Saturday to be flagged as a weekend")
	}
	if res.RiskModifier <= 1.0 {
		t.Errorf("expected a compounded risk modifier above 1.0, got %v", res.RiskModifier)
	}
}

func TestDetectTemporal_InvalidTimezoneFallsBackToUTC(t *testing.T) {
	cfg := temporalCfg()
	current := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)

	res := detectTemporal(current, []time.Time{current}, "Not/A_Real_Zone", cfg)
	if res.UserTimezone != "UTC" {
		t.Errorf("expected fallback to UTC, got %s", res.UserTimezone)
	}
}

func TestDetectRapidPosting_RequiresMessagesWithinWindow(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	timestamps := []time.Time{
		base,
		base.Add(2 * time.Minute),
		base.Add(4 * time.Minute),
	}

	if !detectRapidPosting(timestamps, 3, 10*time.Minute) {
		t.Error("expected three messages within the window to count as rapid posting")
	}

	spread := []time.Time{
		base,
		base.Add(20 * time.Minute),
		base.Add(40 * time.Minute),
	}
	if detectRapidPosting(spread, 3, 10*time.Minute) {
		t.Error("expected messages spread beyond the window not to count as rapid posting")
	}
}
