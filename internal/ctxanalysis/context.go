// Package ctxanalysis implements the Context Analyzer and its three
// sub-detectors: escalation, temporal, and trend. It runs only
// when a non-empty history accompanies the request.
package ctxanalysis

import (
	"sort"
	"time"

	"crisiswatch/internal/config"
	"crisiswatch/internal/models"
)

// HistoryPoint is one history sample after decoding from the wire, the way
// this package wants it: plain UTC timestamp and an optional prior score.
type HistoryPoint struct {
	Text        string
	Timestamp   time.Time
	CrisisScore *float64
}

// Analyzer orchestrates preprocessing and the three sub-detectors.
type Analyzer struct {
	cfg config.ContextConfig
}

func New(cfg config.ContextConfig) *Analyzer {
	return &Analyzer{cfg: cfg}
}

// Analyze runs preprocessing then all three sub-detectors, using
// rescoreFn to re-score any history item that lacks a supplied
// crisis_score: trust supplied scores, re-score otherwise.
func (a *Analyzer) Analyze(history []HistoryPoint, currentText string, currentScore float64, currentSeverity models.Severity, currentTime time.Time, userTimezone string, rescoreFn func(text string) float64) (*models.ContextAnalysisResult, []string) {
	points, meta, warnings := a.preprocess(history)

	series := make([]float64, 0, len(points)+1)
	for _, p := range points {
		if p.CrisisScore != nil {
			series = append(series, *p.CrisisScore)
		} else {
			series = append(series, rescoreFn(p.Text))
		}
	}
	series = append(series, currentScore)

	var timestamps []time.Time
	for _, p := range points {
		timestamps = append(timestamps, p.Timestamp)
	}
	timestamps = append(timestamps, currentTime)

	esc := detectEscalation(series, timestamps, currentSeverity, a.cfg.Escalation)
	temp := detectTemporal(currentTime, timestamps, userTimezone, a.cfg.Temporal)
	trend := analyzeTrend(series, a.cfg.Trend)

	result := &models.ContextAnalysisResult{
		Escalation:      esc,
		Temporal:        temp,
		Trend:           trend,
		HistoryMetadata: meta,
	}
	return result, warnings
}

// preprocess sorts ascending by timestamp, truncates to max_history_size
// most recent items, and validates. Validation issues are
// non-fatal and surfaced as warnings rather than failing the request.
func (a *Analyzer) preprocess(history []HistoryPoint) ([]HistoryPoint, models.HistoryMetadata, []string) {
	points := make([]HistoryPoint, len(history))
	copy(points, history)

	var warnings []string
	now := time.Now()
	for i, p := range points {
		if p.Timestamp.After(now) {
			warnings = append(warnings, "history item has a future timestamp")
		}
		if i > 0 && p.Timestamp.Before(points[i-1].Timestamp) {
			warnings = append(warnings, "history items were supplied out of order")
		}
		if p.CrisisScore != nil && (*p.CrisisScore < 0 || *p.CrisisScore > 1) {
			warnings = append(warnings, "history item has an out-of-range crisis_score")
		}
	}

	sort.Slice(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})

	maxSize := a.cfg.MaxHistorySize
	if maxSize <= 0 {
		maxSize = 20
	}

	truncated := 0
	if len(points) > maxSize {
		truncated = len(points) - maxSize
		points = points[truncated:]
		warnings = append(warnings, "message_history truncated to the most recent items")
	}

	meta := models.HistoryMetadata{
		ItemsConsidered:  len(points),
		ItemsTruncated:   truncated,
		ValidationIssues: warnings,
	}
	return points, meta, warnings
}
