// Package stats implements the statistical core of the monitor: time-bounded
// rolling windows of observations and the robust estimators (median, MAD,
// MAD-scaled z-score) the detectors run over them.
package stats

import "time"

// Observation is a single timestamped data point captured from the CLOB API.
type Observation struct {
	Timestamp time.Time
	Value     float64
}

// RollingWindow is a time-based sliding window of observations. Entries are
// kept in insertion order (timestamps non-decreasing in normal operation) and
// evicted lazily from the head against the current wall clock, so a long gap
// with no new observations still drains stale data on the next read.
//
// The window is not safe for concurrent use; the cycle orchestrator is the
// sole mutator.
type RollingWindow struct {
	duration time.Duration
	minObs   int
	obs      []Observation
}

// DefaultMinObservations is the number of observations required before a
// window's statistics are considered valid.
const DefaultMinObservations = 30

// NewRollingWindow creates a window covering the given duration.
// minObservations <= 0 selects DefaultMinObservations.
func NewRollingWindow(duration time.Duration, minObservations int) *RollingWindow {
	if minObservations <= 0 {
		minObservations = DefaultMinObservations
	}
	return &RollingWindow{
		duration: duration,
		minObs:   minObservations,
		obs:      make([]Observation, 0, 64),
	}
}

// Add appends an observation and evicts entries that have aged out.
// A zero timestamp means "now". Future timestamps are accepted as-is;
// an already-expired timestamp is accepted and immediately evicted.
func (w *RollingWindow) Add(value float64, timestamp time.Time) {
	if timestamp.IsZero() {
		timestamp = time.Now()
	}
	w.obs = append(w.obs, Observation{Timestamp: timestamp, Value: value})
	w.evictStale()
}

// evictStale drops observations older than the window duration relative to
// the current wall clock. An observation at time t is retained iff
// now - t <= duration.
func (w *RollingWindow) evictStale() {
	cutoff := time.Now().Add(-w.duration)
	idx := 0
	for idx < len(w.obs) && w.obs[idx].Timestamp.Before(cutoff) {
		idx++
	}
	if idx > 0 {
		w.obs = w.obs[idx:]
	}
}

// Values returns the in-window values in timestamp order, after eviction.
func (w *RollingWindow) Values() []float64 {
	w.evictStale()
	vals := make([]float64, len(w.obs))
	for i, o := range w.obs {
		vals[i] = o.Value
	}
	return vals
}

// Len returns the current observation count, after eviction.
func (w *RollingWindow) Len() int {
	w.evictStale()
	return len(w.obs)
}

// Median returns the median of current values. ok is false for an empty window.
func (w *RollingWindow) Median() (float64, bool) {
	return Median(w.Values())
}

// MAD returns the median absolute deviation of current values.
// ok is false for an empty window; identical values yield 0.
func (w *RollingWindow) MAD() (float64, bool) {
	vals := w.Values()
	if len(vals) == 0 {
		return 0, false
	}
	return MAD(vals), true
}

// IsValid reports whether the window holds enough observations for its
// statistics to be trusted by the detectors.
func (w *RollingWindow) IsValid() bool {
	w.evictStale()
	return len(w.obs) >= w.minObs
}

// MinObservations returns the validity threshold.
func (w *RollingWindow) MinObservations() int { return w.minObs }
