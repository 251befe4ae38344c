package ctxanalysis

import (
	"testing"
	"time"

	"crisiswatch/internal/config"
	"crisiswatch/internal/models"
)

func testCfg() config.ContextConfig {
	return config.ContextConfig{
		MaxHistorySize: 20,
		Escalation: config.EscalationConfig{
			SuddenThreshold:       0.4,
			RapidThreshold:        0.3,
			RapidThresholdHours:   6,
			GradualThreshold:      0.2,
			GradualThresholdHours: 72,
			MinimumMessages:       3,
		},
		Temporal: config.TemporalConfig{
			LateNightStartHour:        22,
			LateNightEndHour:          5,
			RapidPostingMessageCount:  3,
			RapidPostingThresholdMins: 10 * time.Minute,
			LateNightModifier:         1.2,
			WeekendModifier:           1.1,
			RapidPostingModifier:      1.2,
		},
		Trend: config.TrendConfig{
			SmoothingWindow:     3,
			WorseningThreshold:  0.2,
			ImprovingThreshold:  -0.2,
			VolatilityThreshold: 0.3,
			RapidVelocity:       0.3,
			ModerateVelocity:    0.15,
			GradualVelocity:     0.05,
		},
	}
}

func TestAnalyze_UsesSuppliedScoreOverRescore(t *testing.T) {
	a := New(testCfg())
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	score := 0.9
	history := []HistoryPoint{
		{Text: "earlier message", Timestamp: base, CrisisScore: &score},
	}

	called := false
	rescore := func(string) float64 {
		called = true
		return 0.1
	}

	result, _ := a.Analyze(history, "current message", 0.5, models.SeverityLow, base.Add(time.Hour), "", rescore)
	if called {
		t.Error("expected rescoreFn not to be invoked when a supplied score is present")
	}
	if result.Trend.Start != 0.9 {
		t.Errorf("expected the supplied score to seed the series, got %v", result.Trend.Start)
	}
}

func TestAnalyze_RescoresWhenScoreMissing(t *testing.T) {
	a := New(testCfg())
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	history := []HistoryPoint{
		{Text: "earlier message", Timestamp: base},
	}

	rescore := func(string) float64 { return 0.3 }

	result, _ := a.Analyze(history, "current message", 0.5, models.SeverityLow, base.Add(time.Hour), "", rescore)
	if result.Trend.Start != 0.3 {
		t.Errorf("expected the rescored value to seed the series, got %v", result.Trend.Start)
	}
}

func TestPreprocess_FlagsOutOfOrderItems(t *testing.T) {
	a := New(testCfg())
	later := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	earlier := later.Add(-time.Hour)

	_, _, warnings := a.preprocess([]HistoryPoint{
		{Text: "b", Timestamp: later},
		{Text: "a", Timestamp: earlier},
	})

	found := false
	for _, w := range warnings {
		if w == "history items were supplied out of order" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an out-of-order warning, got %v", warnings)
	}
}

func TestPreprocess_FlagsFutureTimestamp(t *testing.T) {
	a := New(testCfg())
	_, _, warnings := a.preprocess([]HistoryPoint{
		{Text: "future", Timestamp: time.Now().Add(24 * time.Hour)},
	})

	found := false
	for _, w := range warnings {
		if w == "history item has a future timestamp" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a future-timestamp warning, got %v", warnings)
	}
}

func TestPreprocess_TruncatesToMaxHistorySize(t *testing.T) {
	cfg := testCfg()
	cfg.MaxHistorySize = 2
	a := New(cfg)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	history := []HistoryPoint{
		{Text: "1", Timestamp: base},
		{Text: "2", Timestamp: base.Add(time.Hour)},
		{Text: "3", Timestamp: base.Add(2 * time.Hour)},
	}

	points, meta, warnings := a.preprocess(history)
	if len(points) != 2 {
		t.Fatalf("expected truncation to 2 items, got %d", len(points))
	}
	if meta.ItemsTruncated != 1 {
		t.Errorf("expected 1 item truncated, got %d", meta.ItemsTruncated)
	}
	if points[0].Text != "2" || points[1].Text != "3" {
		t.Errorf("expected the most recent items to survive, got %+v", points)
	}

	found := false
	for _, w := range warnings {
		if w == "message_history truncated to the most recent items" {
			found = true
		}
	}
	if !found {
		t.Error("expected a truncation warning")
	}
}
