// Package types defines shared data structures used across all packages.
//
// This package is the common vocabulary for the monitor — monitored events
// and markets, the five alert variants, and the metric/window enums the
// statistical detectors iterate over. It has no dependencies on internal
// packages, so it can be imported by any layer.
package types

import "time"

// ————————————————————————————————————————————————————————————————————————
// Core enums
// ————————————————————————————————————————————————————————————————————————

// Metric identifies which observed series a rolling window tracks.
type Metric string

const (
	MetricVolume Metric = "volume" // order book total size (bids + asks)
	MetricPrice  Metric = "price"  // CLOB midpoint price
)

// Window identifies one of the two rolling window spans kept per metric.
type Window string

const (
	Window1h Window = "1h"
	Window4h Window = "4h"
)

// Duration returns the time span covered by the window.
func (w Window) Duration() time.Duration {
	switch w {
	case Window4h:
		return 4 * time.Hour
	default:
		return time.Hour
	}
}

// Direction indicates which way a price moved.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// ————————————————————————————————————————————————————————————————————————
// Monitored state
// ————————————————————————————————————————————————————————————————————————

// MonitoredMarket is one outcome leg of a market within a monitored event.
// Optional numerics are pointers: nil means the upstream did not provide a
// usable value, which is distinct from zero — the spike detector, LVR
// calculation, and alert formatting all rely on that distinction.
type MonitoredMarket struct {
	ID       string // conditionId (or Gamma market id as fallback)
	Question string
	Outcome  string // "Yes" or "No" for binary markets
	TokenID  string // CLOB token id for this outcome, empty if unknown

	CurrentPrice  *float64 // latest outcome price, nil if unparseable
	PreviousPrice *float64 // price from the prior snapshot, nil on first sight
	IsClosed      bool

	Volume24h *float64
	Liquidity *float64
	LVR       *float64 // volume_24h / liquidity, recomputed on every snapshot
}

// MonitoredEvent is an event group being tracked, keyed by slug.
type MonitoredEvent struct {
	Slug        string
	Name        string
	Markets     []MonitoredMarket
	LastUpdated time.Time
}

// ————————————————————————————————————————————————————————————————————————
// Alerts
// ————————————————————————————————————————————————————————————————————————

// AlertKind tags the five alert variants.
type AlertKind string

const (
	KindSpike        AlertKind = "spike"
	KindLiquidity    AlertKind = "liquidity_warning"
	KindZScore       AlertKind = "zscore"
	KindMAD          AlertKind = "mad"
	KindClosedMarket AlertKind = "closed_market"
)

// Alert is the common interface over the five alert variants. Detectors
// produce alerts as immutable values; the notifier dispatches on Kind.
type Alert interface {
	Kind() AlertKind
	Time() time.Time
}

// SpikeAlert reports a single-poll price change at or above the spike
// threshold on an open market.
type SpikeAlert struct {
	EventName     string
	Question      string
	Outcome       string
	PriceBefore   float64
	PriceAfter    float64
	ChangePercent float64 // unsigned
	Direction     Direction
	DetectedAt    time.Time
}

func (a SpikeAlert) Kind() AlertKind { return KindSpike }
func (a SpikeAlert) Time() time.Time { return a.DetectedAt }

// LiquidityWarning reports a spike that landed on a thin book. It only ever
// accompanies a SpikeAlert from the same cycle and carries the spike's
// price-change fields plus the LVR assessment.
type LiquidityWarning struct {
	EventName     string
	Question      string
	Outcome       string
	PriceBefore   float64
	PriceAfter    float64
	ChangePercent float64
	Direction     Direction
	LVR           float64
	HealthStatus  string // Healthy / Elevated / High Risk
	Volume24h     *float64
	Liquidity     *float64
	DetectedAt    time.Time
}

func (a LiquidityWarning) Kind() AlertKind { return KindLiquidity }
func (a LiquidityWarning) Time() time.Time { return a.DetectedAt }

// ZScoreAlert reports a robust z-score breach on a rolling volume window.
type ZScoreAlert struct {
	TokenID    string
	EventName  string // human-readable context, may be empty
	Outcome    string
	Metric     Metric
	Window     Window
	Current    float64
	Median     float64
	MAD        float64
	ZScore     float64 // sign preserved
	Threshold  float64
	DetectedAt time.Time
}

func (a ZScoreAlert) Kind() AlertKind { return KindZScore }
func (a ZScoreAlert) Time() time.Time { return a.DetectedAt }

// MADAlert reports a price deviation beyond the configured MAD multiplier.
type MADAlert struct {
	TokenID             string
	EventName           string
	Outcome             string
	Metric              Metric
	Window              Window
	Current             float64
	Median              float64
	MAD                 float64
	Multiplier          float64 // achieved |current - median| / mad
	ThresholdMultiplier float64
	DetectedAt          time.Time
}

func (a MADAlert) Kind() AlertKind { return KindMAD }
func (a MADAlert) Time() time.Time { return a.DetectedAt }

// ClosedMarketAlert reports a market's open → closed transition.
type ClosedMarketAlert struct {
	EventName  string
	EventSlug  string
	Question   string
	Outcome    string
	FinalPrice *float64 // from the snapshot's outcomePrices, nil if unavailable
	DetectedAt time.Time
}

func (a ClosedMarketAlert) Kind() AlertKind { return KindClosedMarket }
func (a ClosedMarketAlert) Time() time.Time { return a.DetectedAt }

// Float returns a pointer to v. Convenience for optional numeric literals.
func Float(v float64) *float64 { return &v }
