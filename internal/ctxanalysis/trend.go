package ctxanalysis

import (
	"math"

	"crisiswatch/internal/config"
	"crisiswatch/internal/models"
)

// analyzeTrend smooths the score series with a short moving window before
// classifying direction and velocity. Smoothing lowers peak
// values (a sharp 1.0 can smooth toward ~0.75) while preserving direction.
func analyzeTrend(series []float64, cfg config.TrendConfig) models.TrendResult {
	window := cfg.SmoothingWindow
	if window <= 0 {
		window = 3
	}
	smoothed := movingAverage(series, window)

	direction := classifyDirection(smoothed, cfg)
	velocity := classifyVelocity(smoothed, cfg)

	peak := 0.0
	for _, s := range series {
		if s > peak {
			peak = s
		}
	}

	return models.TrendResult{
		Direction:        direction,
		Velocity:         velocity,
		Scores:           series,
		Start:            firstOr(series, 0),
		End:              lastOr(series, 0),
		Peak:             peak,
		InflectionPoints: inflectionPoints(smoothed),
	}
}

func movingAverage(series []float64, window int) []float64 {
	if len(series) == 0 {
		return nil
	}
	out := make([]float64, len(series))
	for i := range series {
		lo := i - window + 1
		if lo < 0 {
			lo = 0
		}
		sum := 0.0
		for j := lo; j <= i; j++ {
			sum += series[j]
		}
		out[i] = sum / float64(i-lo+1)
	}
	return out
}

func classifyDirection(smoothed []float64, cfg config.TrendConfig) models.TrendDirection {
	if len(smoothed) < 2 {
		return models.TrendStable
	}

	delta := smoothed[len(smoothed)-1] - smoothed[0]
	maxConsecutive := maxAbsConsecutiveDelta(smoothed)

	switch {
	case delta >= cfg.WorseningThreshold:
		return models.TrendWorsening
	case delta <= cfg.ImprovingThreshold:
		return models.TrendImproving
	case maxConsecutive > cfg.VolatilityThreshold:
		return models.TrendVolatile
	default:
		return models.TrendStable
	}
}

func classifyVelocity(smoothed []float64, cfg config.TrendConfig) models.TrendVelocity {
	deltas := consecutiveDeltas(smoothed)
	if len(deltas) == 0 {
		return models.VelocityNone
	}

	meanAbs := 0.0
	for _, d := range deltas {
		meanAbs += math.Abs(d)
	}
	meanAbs /= float64(len(deltas))

	switch {
	case meanAbs >= cfg.RapidVelocity:
		return models.VelocityRapid
	case meanAbs >= cfg.ModerateVelocity:
		return models.VelocityModerate
	case meanAbs >= cfg.GradualVelocity:
		return models.VelocityGradual
	default:
		return models.VelocityNone
	}
}

func maxAbsConsecutiveDelta(series []float64) float64 {
	max := 0.0
	for _, d := range consecutiveDeltas(series) {
		if a := math.Abs(d); a > max {
			max = a
		}
	}
	return max
}

// inflectionPoints finds local extrema in the smoothed series: indices
// where the slope changes sign.
func inflectionPoints(smoothed []float64) []int {
	if len(smoothed) < 3 {
		return nil
	}
	var points []int
	for i := 1; i < len(smoothed)-1; i++ {
		prevDelta := smoothed[i] - smoothed[i-1]
		nextDelta := smoothed[i+1] - smoothed[i]
		if (prevDelta > 0 && nextDelta < 0) || (prevDelta < 0 && nextDelta > 0) {
			points = append(points, i)
		}
	}
	return points
}

func firstOr(series []float64, def float64) float64 {
	if len(series) == 0 {
		return def
	}
	return series[0]
}

func lastOr(series []float64, def float64) float64 {
	if len(series) == 0 {
		return def
	}
	return series[len(series)-1]
}
