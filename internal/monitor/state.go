// Package monitor holds the in-memory surveillance state and the detection
// pipeline that runs over it each poll cycle.
//
// The State owns two maps: slug → MonitoredEvent (from the Gamma event
// feed) and token id → MarketStatistics (rolling windows fed by the CLOB
// token feed). The Monitor orchestrator is the sole mutator of both;
// detectors get read access plus the cooldown manager.
package monitor

import (
	"time"

	"polymarket-watch/internal/clob"
	"polymarket-watch/internal/gamma"
	"polymarket-watch/internal/stats"
	"polymarket-watch/pkg/types"
)

// MarketStatistics holds the four rolling windows kept per CLOB token:
// {volume, price} × {1h, 4h}. Created lazily on a token's first
// observation, never destroyed.
type MarketStatistics struct {
	TokenID     string
	Volume1h    *stats.RollingWindow
	Volume4h    *stats.RollingWindow
	Price1h     *stats.RollingWindow
	Price4h     *stats.RollingWindow
	LastUpdated time.Time
}

// NewMarketStatistics creates the window set for a token.
func NewMarketStatistics(tokenID string) *MarketStatistics {
	return &MarketStatistics{
		TokenID:  tokenID,
		Volume1h: stats.NewRollingWindow(types.Window1h.Duration(), 0),
		Volume4h: stats.NewRollingWindow(types.Window4h.Duration(), 0),
		Price1h:  stats.NewRollingWindow(types.Window1h.Duration(), 0),
		Price4h:  stats.NewRollingWindow(types.Window4h.Duration(), 0),
	}
}

// Window returns the rolling window for a (metric, window) pair. The
// z-score and MAD detectors iterate this cross product instead of
// branching on four fields.
func (ms *MarketStatistics) Window(metric types.Metric, window types.Window) *stats.RollingWindow {
	switch {
	case metric == types.MetricVolume && window == types.Window1h:
		return ms.Volume1h
	case metric == types.MetricVolume && window == types.Window4h:
		return ms.Volume4h
	case metric == types.MetricPrice && window == types.Window1h:
		return ms.Price1h
	case metric == types.MetricPrice && window == types.Window4h:
		return ms.Price4h
	}
	return nil
}

// Observe appends one (price, volume) sample to all four windows.
func (ms *MarketStatistics) Observe(price, volume float64, timestamp time.Time) {
	ms.Volume1h.Add(volume, timestamp)
	ms.Volume4h.Add(volume, timestamp)
	ms.Price1h.Add(price, timestamp)
	ms.Price4h.Add(price, timestamp)
	ms.LastUpdated = timestamp
}

// WindowSummary describes one rolling window for debug logging.
type WindowSummary struct {
	Observations int
	IsValid      bool
	Median       float64
	MAD          float64
}

// Summary returns per-window counts and statistics for a token.
func (ms *MarketStatistics) Summary() map[string]WindowSummary {
	out := make(map[string]WindowSummary, 4)
	for _, metric := range []types.Metric{types.MetricVolume, types.MetricPrice} {
		for _, window := range []types.Window{types.Window1h, types.Window4h} {
			w := ms.Window(metric, window)
			median, _ := w.Median()
			mad, _ := w.MAD()
			out[string(metric)+"_"+string(window)] = WindowSummary{
				Observations: w.Len(),
				IsValid:      w.IsValid(),
				Median:       median,
				MAD:          mad,
			}
		}
	}
	return out
}

// TokenInfo is the human-readable context attached to statistical alerts.
type TokenInfo struct {
	EventName string
	Outcome   string
}

// State is the in-memory surveillance state. Restart loses it by design;
// the warm-up discipline (window validity) tolerates the cold start.
type State struct {
	Events map[string]*types.MonitoredEvent // keyed by slug
	Stats  map[string]*MarketStatistics     // keyed by CLOB token id
}

// NewState creates empty state.
func NewState() *State {
	return &State{
		Events: make(map[string]*types.MonitoredEvent),
		Stats:  make(map[string]*MarketStatistics),
	}
}

// ParseEvent converts a raw Gamma event into monitored state, fanning each
// market out into one MonitoredMarket per outcome. Unparseable numeric
// fields become nil, never an error.
func ParseEvent(ev *gamma.Event) *types.MonitoredEvent {
	event := &types.MonitoredEvent{
		Slug:        ev.Slug,
		Name:        ev.Title,
		LastUpdated: time.Now(),
	}

	for i := range ev.Markets {
		raw := &ev.Markets[i]
		volume24h := raw.Volume24hr.Ptr()
		liquidity := raw.LiquidityNum.Ptr()

		for j, outcome := range raw.Outcomes {
			var price *float64
			if j < len(raw.OutcomePrices) {
				price = gamma.ParsePrice(raw.OutcomePrices[j])
			}
			var tokenID string
			if j < len(raw.ClobTokenIds) {
				tokenID = raw.ClobTokenIds[j]
			}

			event.Markets = append(event.Markets, types.MonitoredMarket{
				ID:           raw.Key(),
				Question:     raw.Question,
				Outcome:      outcome,
				TokenID:      tokenID,
				CurrentPrice: price,
				IsClosed:     raw.Closed,
				Volume24h:    volume24h,
				Liquidity:    liquidity,
				LVR:          stats.LVR(volume24h, liquidity),
			})
		}
	}

	return event
}

// ApplyEventSnapshot folds a raw event snapshot into state. For each event
// present in the snapshot, markets are reparsed and reconciled against the
// prior state by (question, outcome): a matched market's old current price
// becomes the new previous price; a market seen for the first time keeps
// previous price nil, which suppresses spike detection for one cycle. LVR
// is recomputed from the fresh volume and liquidity. Events absent from the
// snapshot are left untouched.
func (s *State) ApplyEventSnapshot(snapshot map[string]*gamma.Event, now time.Time) {
	for slug, raw := range snapshot {
		prior, tracked := s.Events[slug]
		if !tracked {
			continue
		}

		parsed := ParseEvent(raw)
		parsed.Slug = slug
		parsed.LastUpdated = now

		previous := make(map[[2]string]*float64, len(prior.Markets))
		for i := range prior.Markets {
			m := &prior.Markets[i]
			previous[[2]string{m.Question, m.Outcome}] = m.CurrentPrice
		}

		for i := range parsed.Markets {
			m := &parsed.Markets[i]
			if prev, ok := previous[[2]string{m.Question, m.Outcome}]; ok {
				m.PreviousPrice = prev
			}
			// closed never reverts within a process lifetime
			if priorClosed := wasClosed(prior, m.Question, m.Outcome); priorClosed {
				m.IsClosed = true
			}
		}

		s.Events[slug] = parsed
	}
}

func wasClosed(event *types.MonitoredEvent, question, outcome string) bool {
	for i := range event.Markets {
		m := &event.Markets[i]
		if m.Question == question && m.Outcome == outcome {
			return m.IsClosed
		}
	}
	return false
}

// ApplyTokenSnapshot folds the per-token CLOB snapshot into the rolling
// windows. Entries missing either component are skipped entirely.
func (s *State) ApplyTokenSnapshot(snapshot map[string]clob.Snapshot, now time.Time) {
	for tokenID, snap := range snapshot {
		if snap.Price == nil || snap.BookSize == nil {
			continue
		}
		ms, ok := s.Stats[tokenID]
		if !ok {
			ms = NewMarketStatistics(tokenID)
			s.Stats[tokenID] = ms
		}
		ms.Observe(*snap.Price, *snap.BookSize, now)
	}
}

// ActiveTokenIDs returns the CLOB token ids of every open market across all
// tracked events.
func (s *State) ActiveTokenIDs() []string {
	var ids []string
	for _, event := range s.Events {
		for i := range event.Markets {
			m := &event.Markets[i]
			if m.TokenID != "" && !m.IsClosed {
				ids = append(ids, m.TokenID)
			}
		}
	}
	return ids
}

// TokenContext maps token id → (event name, outcome) so statistical alerts
// can carry human-readable context.
func (s *State) TokenContext() map[string]TokenInfo {
	ctx := make(map[string]TokenInfo)
	for _, event := range s.Events {
		for i := range event.Markets {
			m := &event.Markets[i]
			if m.TokenID != "" {
				ctx[m.TokenID] = TokenInfo{EventName: event.Name, Outcome: m.Outcome}
			}
		}
	}
	return ctx
}

// FindMarket looks a market up by its (event name, question, outcome)
// identity, the key the liquidity-warning detector uses to pair spikes
// with their markets.
func (s *State) FindMarket(eventName, question, outcome string) *types.MonitoredMarket {
	for _, event := range s.Events {
		if event.Name != eventName {
			continue
		}
		for i := range event.Markets {
			m := &event.Markets[i]
			if m.Question == question && m.Outcome == outcome {
				return m
			}
		}
	}
	return nil
}
