package monitor

import (
	"math"
	"strings"
	"time"

	"polymarket-watch/internal/gamma"
	"polymarket-watch/internal/stats"
	"polymarket-watch/pkg/types"
)

// detectSpike checks one market for a single-poll price change at or above
// threshold (percent). No alert on the first observation (previous price
// nil), on a zero previous price, on a missing current price, or on a
// closed market.
func detectSpike(m *types.MonitoredMarket, threshold float64, now time.Time) *types.SpikeAlert {
	if m.IsClosed || m.PreviousPrice == nil || m.CurrentPrice == nil || *m.PreviousPrice == 0 {
		return nil
	}

	change := *m.CurrentPrice - *m.PreviousPrice
	changePercent := math.Abs(change / *m.PreviousPrice * 100)
	if changePercent < threshold {
		return nil
	}

	direction := types.DirectionDown
	if change > 0 {
		direction = types.DirectionUp
	}

	return &types.SpikeAlert{
		Question:      m.Question,
		Outcome:       m.Outcome,
		PriceBefore:   *m.PreviousPrice,
		PriceAfter:    *m.CurrentPrice,
		ChangePercent: changePercent,
		Direction:     direction,
		DetectedAt:    now,
	}
}

// DetectSpikes runs the spike detector across all monitored events.
func DetectSpikes(events map[string]*types.MonitoredEvent, threshold float64, now time.Time) []types.SpikeAlert {
	var spikes []types.SpikeAlert
	for _, event := range events {
		for i := range event.Markets {
			if spike := detectSpike(&event.Markets[i], threshold, now); spike != nil {
				spike.EventName = event.Name
				spikes = append(spikes, *spike)
			}
		}
	}
	return spikes
}

// DetectLiquidityWarnings produces a warning for each of this cycle's
// spikes whose market carries an LVR strictly above the threshold. The
// warning never fires without its spike: the input is the spike list, and
// markets are looked up by the spike's (event, question, outcome) identity.
func DetectLiquidityWarnings(state *State, spikes []types.SpikeAlert, lvrThreshold float64, now time.Time) []types.LiquidityWarning {
	var warnings []types.LiquidityWarning

	for _, spike := range spikes {
		m := state.FindMarket(spike.EventName, spike.Question, spike.Outcome)
		if m == nil || m.LVR == nil || *m.LVR <= lvrThreshold {
			continue
		}

		warnings = append(warnings, types.LiquidityWarning{
			EventName:     spike.EventName,
			Question:      spike.Question,
			Outcome:       spike.Outcome,
			PriceBefore:   spike.PriceBefore,
			PriceAfter:    spike.PriceAfter,
			ChangePercent: spike.ChangePercent,
			Direction:     spike.Direction,
			LVR:           *m.LVR,
			HealthStatus:  stats.ClassifyLVR(*m.LVR),
			Volume24h:     m.Volume24h,
			Liquidity:     m.Liquidity,
			DetectedAt:    now,
		})
	}

	return warnings
}

// DetectClosedMarkets compares the incoming raw snapshot against the prior
// event state and emits one alert per open → closed transition. It runs
// before the snapshot is applied, so "prior" really is the previous cycle's
// view. Events whose markets are all closed in the new snapshot are
// returned in the removal list; the orchestrator deletes them before any
// further state work.
func DetectClosedMarkets(events map[string]*types.MonitoredEvent, snapshot map[string]*gamma.Event, now time.Time) ([]types.ClosedMarketAlert, []string) {
	var alerts []types.ClosedMarketAlert
	var removeSlugs []string

	for slug, event := range events {
		raw, ok := snapshot[slug]
		if !ok {
			continue
		}

		rawByQuestion := make(map[string]*gamma.Market, len(raw.Markets))
		for i := range raw.Markets {
			rawByQuestion[raw.Markets[i].Question] = &raw.Markets[i]
		}

		allClosed := true
		for i := range event.Markets {
			m := &event.Markets[i]
			rawMarket, ok := rawByQuestion[m.Question]
			if !ok {
				continue
			}

			if rawMarket.Closed && !m.IsClosed {
				alerts = append(alerts, types.ClosedMarketAlert{
					EventName:  event.Name,
					EventSlug:  slug,
					Question:   m.Question,
					Outcome:    m.Outcome,
					FinalPrice: finalPrice(rawMarket, m),
					DetectedAt: now,
				})
			}

			if !rawMarket.Closed {
				allClosed = false
			}
		}

		if allClosed && len(event.Markets) > 0 {
			removeSlugs = append(removeSlugs, slug)
		}
	}

	return alerts, removeSlugs
}

// finalPrice extracts the settled price from the snapshot's outcomePrices,
// indexed by outcome ("yes" → 0, anything else → 1), falling back to the
// market's last known price when the array is missing or short.
func finalPrice(raw *gamma.Market, m *types.MonitoredMarket) *float64 {
	idx := 1
	if strings.EqualFold(m.Outcome, "yes") {
		idx = 0
	}
	if idx < len(raw.OutcomePrices) {
		if price := gamma.ParsePrice(raw.OutcomePrices[idx]); price != nil {
			return price
		}
	}
	return m.CurrentPrice
}

// statWindows is the span cross product the statistical detectors iterate.
var statWindows = []types.Window{types.Window1h, types.Window4h}

// DetectZScoreAlerts runs the robust z-score detector over every token's
// volume windows. A window must be valid (enough observations) and have a
// defined z-score (non-zero MAD); |z| must strictly exceed the threshold.
// Survivors are gated through the cooldown manager keyed by
// (token, volume, window) with the z-score as the escalation score.
func DetectZScoreAlerts(
	statsByToken map[string]*MarketStatistics,
	threshold float64,
	cooldown *CooldownManager,
	tokenCtx map[string]TokenInfo,
	now time.Time,
) []types.ZScoreAlert {
	var alerts []types.ZScoreAlert

	for tokenID, ms := range statsByToken {
		for _, window := range statWindows {
			w := ms.Window(types.MetricVolume, window)
			if !w.IsValid() {
				continue
			}
			values := w.Values()
			if len(values) == 0 {
				continue
			}

			current := values[len(values)-1]
			z, ok := stats.ZScoreMAD(current, values)
			if !ok || math.Abs(z) <= threshold {
				continue
			}

			key := CooldownKey{TokenID: tokenID, Metric: types.MetricVolume, Window: window}
			if !cooldown.ShouldAlert(key, z, now) {
				continue
			}
			cooldown.RecordAlert(key, z, now)

			median, _ := stats.Median(values)
			alert := types.ZScoreAlert{
				TokenID:    tokenID,
				Metric:     types.MetricVolume,
				Window:     window,
				Current:    current,
				Median:     median,
				MAD:        stats.MAD(values),
				ZScore:     z,
				Threshold:  threshold,
				DetectedAt: now,
			}
			if info, ok := tokenCtx[tokenID]; ok {
				alert.EventName = info.EventName
				alert.Outcome = info.Outcome
			}
			alerts = append(alerts, alert)
		}
	}

	return alerts
}

// DetectMADAlerts runs the MAD-multiplier detector over every token's price
// windows: alert iff |current − median| / mad strictly exceeds the
// configured multiplier (requires mad > 0). The achieved multiplier is the
// cooldown escalation score, keyed by (token, price, window).
func DetectMADAlerts(
	statsByToken map[string]*MarketStatistics,
	multiplier float64,
	cooldown *CooldownManager,
	tokenCtx map[string]TokenInfo,
	now time.Time,
) []types.MADAlert {
	var alerts []types.MADAlert

	for tokenID, ms := range statsByToken {
		for _, window := range statWindows {
			w := ms.Window(types.MetricPrice, window)
			if !w.IsValid() {
				continue
			}
			values := w.Values()
			if len(values) == 0 {
				continue
			}

			current := values[len(values)-1]
			median, _ := stats.Median(values)
			mad := stats.MAD(values)
			if mad == 0 {
				continue
			}

			achieved := math.Abs(current-median) / mad
			if achieved <= multiplier {
				continue
			}

			key := CooldownKey{TokenID: tokenID, Metric: types.MetricPrice, Window: window}
			if !cooldown.ShouldAlert(key, achieved, now) {
				continue
			}
			cooldown.RecordAlert(key, achieved, now)

			alert := types.MADAlert{
				TokenID:             tokenID,
				Metric:              types.MetricPrice,
				Window:              window,
				Current:             current,
				Median:              median,
				MAD:                 mad,
				Multiplier:          achieved,
				ThresholdMultiplier: multiplier,
				DetectedAt:          now,
			}
			if info, ok := tokenCtx[tokenID]; ok {
				alert.EventName = info.EventName
				alert.Outcome = info.Outcome
			}
			alerts = append(alerts, alert)
		}
	}

	return alerts
}
