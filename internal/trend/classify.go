// Package trend classifies a value against its historical series: average,
// signed percentage deviation, and direction of movement. The classifier is
// pure; the companion threshold policy maps deviation magnitude to severity
// for the downstream analysis tasks.
package trend

import "math"

// Direction values.
const (
	DirectionUnknown          = "unknown"
	DirectionInsufficientData = "insufficient_data"
	DirectionIncreasing       = "increasing"
	DirectionDecreasing       = "decreasing"
	DirectionStable           = "stable"
)

// Stability band: the recent average must move more than 5% past the earlier
// average to count as increasing or decreasing.
const (
	increaseFactor = 1.05
	decreaseFactor = 0.95
)

// Severity bands on absolute deviation percent.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
	SeverityInfo     = "info"

	criticalDeviationPercent = 50.0
	warningDeviationPercent  = 25.0
)

// MinHistoryDays is the number of historical days a store needs before it is
// eligible for anomaly evaluation.
const MinHistoryDays = 3

// Classification compares a value against its history. Average and
// DeviationPercent are nil when there is no history at all. Average is
// rounded to 2 decimal places and DeviationPercent to 1, at this boundary
// only; intermediate math runs at full precision.
type Classification struct {
	Average          *float64 `json:"average"`
	DeviationPercent *float64 `json:"deviation_percent"`
	Direction        string   `json:"direction"`
}

// Classify compares today's value against the historical series, which must
// be ordered by date ascending.
func Classify(today float64, historical []float64) Classification {
	if len(historical) == 0 {
		return Classification{Direction: DirectionUnknown}
	}

	avg := mean(historical)

	deviation := 0.0
	if avg > 0 {
		deviation = (today - avg) / avg * 100
	}

	direction := DirectionInsufficientData
	if len(historical) >= 2 {
		recent := historical[len(historical)-2:]
		earlier := historical[:len(historical)-2]
		if len(earlier) == 0 {
			earlier = historical[:1]
		}
		recentAvg := mean(recent)
		earlierAvg := mean(earlier)

		switch {
		case recentAvg > earlierAvg*increaseFactor:
			direction = DirectionIncreasing
		case recentAvg < earlierAvg*decreaseFactor:
			direction = DirectionDecreasing
		default:
			direction = DirectionStable
		}
	}

	roundedAvg := roundTo(avg, 2)
	roundedDev := roundTo(deviation, 1)
	return Classification{
		Average:          &roundedAvg,
		DeviationPercent: &roundedDev,
		Direction:        direction,
	}
}

// Severity maps the magnitude of a deviation percentage to a severity band.
func Severity(deviationPercent float64) string {
	abs := math.Abs(deviationPercent)
	switch {
	case abs >= criticalDeviationPercent:
		return SeverityCritical
	case abs >= warningDeviationPercent:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func roundTo(v float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(v*factor) / factor
}
