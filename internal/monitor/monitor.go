package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"polymarket-watch/internal/clob"
	"polymarket-watch/internal/config"
	"polymarket-watch/internal/gamma"
	"polymarket-watch/pkg/types"
)

// Notifier delivers a batch of alerts and reports how many got through.
type Notifier interface {
	Send(ctx context.Context, alerts []types.Alert) int
}

// Monitor is the cycle orchestrator: it polls the Gamma and CLOB feeds,
// folds snapshots into State, runs the enabled detectors, and pushes the
// resulting alerts to the notifier. Single goroutine; nothing here is
// concurrency-safe and nothing needs to be.
type Monitor struct {
	cfg      *config.Config
	gamma    *gamma.Client
	clob     *clob.Client
	notifier Notifier
	state    *State
	cooldown *CooldownManager
	logger   *slog.Logger

	cycles int
}

// New wires the monitor from its collaborators.
func New(cfg *config.Config, gammaClient *gamma.Client, clobClient *clob.Client, notifier Notifier, logger *slog.Logger) *Monitor {
	return &Monitor{
		cfg:      cfg,
		gamma:    gammaClient,
		clob:     clobClient,
		notifier: notifier,
		state:    NewState(),
		cooldown: NewCooldownManager(cfg.CooldownDuration(), cfg.EscalationThreshold, logger),
		logger:   logger.With("component", "monitor"),
	}
}

// State exposes the monitor's state for inspection in tests.
func (m *Monitor) State() *State { return m.state }

// Bootstrap validates the configured slugs against the Gamma API and seeds
// state with the initial event snapshots. It fails only when no slug
// resolves at all; partial validity runs with what resolved.
func (m *Monitor) Bootstrap(ctx context.Context) error {
	valid := m.gamma.ValidateSlugs(ctx, m.cfg.Slugs)
	if len(valid) == 0 {
		return fmt.Errorf("none of the %d configured slugs resolved", len(m.cfg.Slugs))
	}
	if len(valid) < len(m.cfg.Slugs) {
		m.logger.Warn("some slugs did not resolve",
			"configured", len(m.cfg.Slugs), "valid", len(valid))
	}

	snapshot := m.gamma.FetchAll(ctx, valid)
	for slug, raw := range snapshot {
		m.state.Events[slug] = ParseEvent(raw)
	}

	m.logger.Info("monitor bootstrapped",
		"events", len(m.state.Events),
		"detectors", m.enabledDetectors(),
		"cooldown_minutes", m.cfg.CooldownMinutes,
		"escalation_threshold", m.cfg.EscalationThreshold)
	return nil
}

func (m *Monitor) enabledDetectors() []string {
	var names []string
	for _, name := range config.ValidDetectors {
		if m.cfg.DetectorEnabled(name) {
			names = append(names, name)
		}
	}
	return names
}

// RunCycle executes one full poll cycle at time now. Per-market and
// per-token failures are absorbed upstream (clients return partial
// snapshots); only a total Gamma outage makes the cycle a no-op.
func (m *Monitor) RunCycle(ctx context.Context, now time.Time) {
	m.cycles++
	var alerts []types.Alert

	m.cooldown.CleanupStale(now)

	slugs := make([]string, 0, len(m.state.Events))
	for slug := range m.state.Events {
		slugs = append(slugs, slug)
	}
	if len(slugs) == 0 {
		m.logger.Warn("no events left to monitor")
		return
	}

	snapshot := m.gamma.FetchAll(ctx, slugs)
	if len(snapshot) == 0 {
		m.logger.Warn("event snapshot empty, skipping cycle")
		return
	}

	// Closed-market detection runs against the raw snapshot before state
	// mutation, so the prior open/closed flags are still visible.
	if m.cfg.DetectorEnabled(config.DetectorClosed) {
		closed, removeSlugs := DetectClosedMarkets(m.state.Events, snapshot, now)
		for _, a := range closed {
			alerts = append(alerts, a)
		}
		for _, slug := range removeSlugs {
			m.logger.Info("event fully closed, removing from monitoring", "slug", slug)
			delete(m.state.Events, slug)
			delete(snapshot, slug)
		}
	}

	m.state.ApplyEventSnapshot(snapshot, now)

	var spikes []types.SpikeAlert
	if m.cfg.DetectorEnabled(config.DetectorSpike) {
		spikes = DetectSpikes(m.state.Events, m.cfg.SpikeThreshold, now)
		for _, a := range spikes {
			alerts = append(alerts, a)
		}
	}
	if m.cfg.DetectorEnabled(config.DetectorLVR) {
		for _, a := range DetectLiquidityWarnings(m.state, spikes, m.cfg.LVRThreshold, now) {
			alerts = append(alerts, a)
		}
	}

	tokenIDs := m.cfg.ClobTokenIDs
	if len(tokenIDs) == 0 {
		tokenIDs = m.state.ActiveTokenIDs()
	}
	if len(tokenIDs) > 0 {
		tokens := m.clob.PollTokens(ctx, tokenIDs)
		m.state.ApplyTokenSnapshot(tokens, now)
	}

	tokenCtx := m.state.TokenContext()
	if m.cfg.DetectorEnabled(config.DetectorZScore) {
		for _, a := range DetectZScoreAlerts(m.state.Stats, m.cfg.ZScoreThreshold, m.cooldown, tokenCtx, now) {
			alerts = append(alerts, a)
		}
	}
	if m.cfg.DetectorEnabled(config.DetectorMAD) {
		for _, a := range DetectMADAlerts(m.state.Stats, m.cfg.MADMultiplier, m.cooldown, tokenCtx, now) {
			alerts = append(alerts, a)
		}
	}

	if len(alerts) > 0 {
		m.notifier.Send(ctx, alerts)
	}

	m.logWarmup()
	m.logger.Debug("cycle complete",
		"cycle", m.cycles,
		"events", len(m.state.Events),
		"tokens", len(m.state.Stats),
		"alerts", len(alerts))
}

// logWarmup reports window fill progress every 10 cycles until every
// tracked token has at least one valid window.
func (m *Monitor) logWarmup() {
	if m.cycles%10 != 0 || len(m.state.Stats) == 0 {
		return
	}
	ready := 0
	for _, ms := range m.state.Stats {
		if ms.Volume1h.IsValid() {
			ready++
		}
	}
	if ready < len(m.state.Stats) {
		m.logger.Info("statistical windows warming up",
			"ready", ready, "total", len(m.state.Stats),
			"min_observations", stat1hMinObs(m.state.Stats))
	}
}

func stat1hMinObs(statsByToken map[string]*MarketStatistics) int {
	for _, ms := range statsByToken {
		return ms.Volume1h.MinObservations()
	}
	return 0
}

// Run executes poll cycles until the context is cancelled. The inter-cycle
// sleep is sliced into one-second waits so shutdown latency stays bounded
// regardless of the configured poll interval.
func (m *Monitor) Run(ctx context.Context) {
	interval := time.Duration(m.cfg.PollInterval) * time.Second
	m.logger.Info("monitor started", "poll_interval", interval)

	for {
		start := time.Now()
		m.RunCycle(ctx, start)

		remaining := interval - time.Since(start)
		for remaining > 0 {
			slice := time.Second
			if remaining < slice {
				slice = remaining
			}
			select {
			case <-ctx.Done():
				m.logger.Info("monitor stopping", "cycles", m.cycles)
				return
			case <-time.After(slice):
			}
			remaining -= slice
		}

		if ctx.Err() != nil {
			m.logger.Info("monitor stopping", "cycles", m.cycles)
			return
		}
	}
}
