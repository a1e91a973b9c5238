package stats

import (
	"math"
	"sort"
)

// madConsistency is the asymptotic consistency factor that makes MAD a
// standard-deviation-equivalent under a normal distribution. Part of the
// detection contract; do not change.
const madConsistency = 1.4826

// Median returns the statistical median of xs. On even-length input it is
// the average of the two middle elements. ok is false for empty input.
// xs is not modified.
func Median(xs []float64) (float64, bool) {
	n := len(xs)
	if n == 0 {
		return 0, false
	}
	sorted := make([]float64, n)
	copy(sorted, xs)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2], true
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2, true
}

// MAD returns the Median Absolute Deviation of xs:
//
//	MAD = median(|x_i - median(xs)|)
//
// Returns 0 for empty input.
func MAD(xs []float64) float64 {
	med, ok := Median(xs)
	if !ok {
		return 0
	}
	deviations := make([]float64, len(xs))
	for i, x := range xs {
		deviations[i] = math.Abs(x - med)
	}
	m, _ := Median(deviations)
	return m
}

// ZScoreMAD returns the MAD-scaled robust z-score of current against xs:
//
//	z = (current - median) / (1.4826 × MAD)
//
// ok is false if xs is empty or MAD is zero (all values identical), in
// which case the score is undefined and no alert may be derived from it.
func ZScoreMAD(current float64, xs []float64) (float64, bool) {
	med, ok := Median(xs)
	if !ok {
		return 0, false
	}
	mad := MAD(xs)
	if mad == 0 {
		return 0, false
	}
	return (current - med) / (madConsistency * mad), true
}

// LVR returns the liquidity-to-volume ratio volume24h / liquidity, or nil
// when either input is missing or liquidity is not strictly positive.
// Zero or negative liquidity is rejected, not clamped.
func LVR(volume24h, liquidity *float64) *float64 {
	if volume24h == nil || liquidity == nil || *liquidity <= 0 {
		return nil
	}
	r := *volume24h / *liquidity
	return &r
}

// LVR health labels. Boundaries are closed below, open above.
const (
	HealthHealthy  = "Healthy"   // lvr < 2.0
	HealthElevated = "Elevated"  // 2.0 <= lvr < 10.0
	HealthHighRisk = "High Risk" // lvr >= 10.0
)

// ClassifyLVR maps a ratio to its health label.
func ClassifyLVR(lvr float64) string {
	switch {
	case lvr < 2.0:
		return HealthHealthy
	case lvr < 10.0:
		return HealthElevated
	default:
		return HealthHighRisk
	}
}
