package ctxanalysis

import (
	"math"
	"time"

	"crisiswatch/internal/config"
	"crisiswatch/internal/models"
)

// detectEscalation classifies the trajectory across the score series and
// matches it against a small library of named shapes.
func detectEscalation(series []float64, timestamps []time.Time, currentSeverity models.Severity, cfg config.EscalationConfig) models.EscalationResult {
	if len(series) < 2 {
		return models.EscalationResult{Rate: models.EscalationNone}
	}

	scoreDelta := series[len(series)-1] - series[0]
	timeSpanHours := timestamps[len(timestamps)-1].Sub(timestamps[0]).Hours()

	suddenThreshold := cfg.SuddenThreshold
	rapidThreshold := cfg.RapidThreshold
	gradualThreshold := gradualThresholdFor(currentSeverity, cfg)

	var rate models.EscalationRate
	switch {
	case scoreDelta >= suddenThreshold && timeSpanHours < 1:
		rate = models.EscalationSudden
	case scoreDelta >= rapidThreshold && timeSpanHours <= cfg.RapidThresholdHours:
		rate = models.EscalationRapid
	case scoreDelta >= gradualThreshold && timeSpanHours <= cfg.GradualThresholdHours && len(series) >= cfg.MinimumMessages:
		rate = models.EscalationGradual
	default:
		rate = models.EscalationNone
	}

	result := models.EscalationResult{
		Detected:      rate != models.EscalationNone,
		Rate:          rate,
		ScoreDelta:    scoreDelta,
		TimeSpanHours: timeSpanHours,
	}

	if result.Detected {
		pattern, patternConfidence := matchPattern(series, timestamps)
		result.MatchedPattern = pattern
		result.Confidence = confidenceFor(scoreDelta, len(series), cfg.MinimumMessages, series)
		if patternConfidence > result.Confidence {
			result.Confidence = patternConfidence
		}
	}

	return result
}

func gradualThresholdFor(severity models.Severity, cfg config.EscalationConfig) float64 {
	if cfg.PerSeverityThresholds == nil {
		return cfg.GradualThreshold
	}
	if t, ok := cfg.PerSeverityThresholds[string(severity)]; ok {
		return t
	}
	return cfg.GradualThreshold
}

// confidenceFor scales with delta magnitude, series length relative to the
// minimum sample size, and the inverse of the variance in consecutive
// deltas.
func confidenceFor(scoreDelta float64, length, minimumMessages int, series []float64) float64 {
	lengthFactor := float64(length) / float64(maxInt(1, minimumMessages))
	if lengthFactor > 2 {
		lengthFactor = 2
	}

	deltas := consecutiveDeltas(series)
	varDeltas := variance(deltas)
	stability := 1 / (1 + varDeltas*10)

	confidence := math.Abs(scoreDelta) * lengthFactor * stability
	return clamp01(confidence)
}

func consecutiveDeltas(series []float64) []float64 {
	if len(series) < 2 {
		return nil
	}
	deltas := make([]float64, 0, len(series)-1)
	for i := 1; i < len(series); i++ {
		deltas = append(deltas, series[i]-series[i-1])
	}
	return deltas
}

func variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	v := 0.0
	for _, x := range values {
		d := x - mean
		v += d * d
	}
	return v / float64(len(values))
}

// namedPattern is one qualitative shape in the library.
type namedPattern struct {
	name  string
	match func(series []float64, timestamps []time.Time) (bool, float64)
}

var namedPatterns = []namedPattern{
	{
		name: "evening_deterioration",
		match: func(series []float64, timestamps []time.Time) (bool, float64) {
			if len(series) < 3 || len(timestamps) == 0 {
				return false, 0
			}
			monotonic := isMonotonicNonDecreasing(series)
			lastHour := timestamps[len(timestamps)-1].Hour()
			eveningInflection := lastHour >= 18 || lastHour < 2
			if monotonic && eveningInflection {
				return true, 0.8
			}
			return false, 0
		},
	},
	{
		name: "post_rejection_spiral",
		match: func(series []float64, timestamps []time.Time) (bool, float64) {
			if len(series) < 3 {
				return false, 0
			}
			// plateau then a sharp spike on the final step
			plateauVar := variance(series[:len(series)-1])
			finalJump := series[len(series)-1] - series[len(series)-2]
			if plateauVar < 0.02 && finalJump >= 0.3 {
				return true, 0.75
			}
			return false, 0
		},
	},
	{
		name: "chronic_low_grade",
		match: func(series []float64, timestamps []time.Time) (bool, float64) {
			if len(series) < 3 {
				return false, 0
			}
			allElevated := true
			for _, s := range series {
				if s < 0.3 || s > 0.6 {
					allElevated = false
					break
				}
			}
			if allElevated && variance(series) < 0.01 {
				return true, 0.6
			}
			return false, 0
		},
	},
}

func matchPattern(series []float64, timestamps []time.Time) (string, float64) {
	best := ""
	bestConfidence := 0.0
	for _, p := range namedPatterns {
		if matched, confidence := p.match(series, timestamps); matched && confidence > bestConfidence {
			best = p.name
			bestConfidence = confidence
		}
	}
	return best, bestConfidence
}

func isMonotonicNonDecreasing(series []float64) bool {
	for i := 1; i < len(series); i++ {
		if series[i] < series[i-1] {
			return false
		}
	}
	return true
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
