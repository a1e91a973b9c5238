package monitor

import (
	"log/slog"
	"time"

	"polymarket-watch/pkg/types"
)

// CooldownKey identifies one suppression scope: a (market, metric, window)
// triple. One key exists per statistical detector target.
type CooldownKey struct {
	TokenID string
	Metric  types.Metric
	Window  types.Window
}

// CooldownEntry remembers the last alert fired for a key.
type CooldownEntry struct {
	LastAlertTime time.Time
	LastScore     float64
}

// CooldownManager suppresses repeated alerts for the same key within the
// cooldown duration, with an escalation override: a score that increased by
// at least the escalation threshold since the last recorded alert fires
// through the cooldown. Only increases count — the comparison is against
// the last recorded score, not an absolute delta.
type CooldownManager struct {
	entries    map[CooldownKey]CooldownEntry
	cooldown   time.Duration // zero disables suppression entirely
	escalation float64
	logger     *slog.Logger
}

// NewCooldownManager creates a cooldown manager. A zero cooldown disables
// suppression (ShouldAlert always passes).
func NewCooldownManager(cooldown time.Duration, escalation float64, logger *slog.Logger) *CooldownManager {
	return &CooldownManager{
		entries:    make(map[CooldownKey]CooldownEntry),
		cooldown:   cooldown,
		escalation: escalation,
		logger:     logger.With("component", "cooldown"),
	}
}

// ShouldAlert reports whether an alert for key with the given score may
// fire at time now. It does not record anything; callers must call
// RecordAlert after the alert is actually emitted.
func (cm *CooldownManager) ShouldAlert(key CooldownKey, score float64, now time.Time) bool {
	if cm.cooldown == 0 {
		return true
	}

	entry, ok := cm.entries[key]
	if !ok {
		return true
	}

	if now.Sub(entry.LastAlertTime) >= cm.cooldown {
		return true
	}

	if score-entry.LastScore >= cm.escalation {
		return true
	}

	return false
}

// RecordAlert upserts the entry for a key after an alert was emitted.
func (cm *CooldownManager) RecordAlert(key CooldownKey, score float64, now time.Time) {
	cm.entries[key] = CooldownEntry{LastAlertTime: now, LastScore: score}
}

// Clear removes the entry for a key, re-arming it immediately. Called when
// the caller determines the anomaly has resolved.
func (cm *CooldownManager) Clear(key CooldownKey) {
	delete(cm.entries, key)
}

// CleanupStale removes entries older than twice the cooldown duration.
// Called once per cycle before detection.
func (cm *CooldownManager) CleanupStale(now time.Time) {
	if cm.cooldown == 0 {
		return
	}

	removed := 0
	for key, entry := range cm.entries {
		if now.Sub(entry.LastAlertTime) > 2*cm.cooldown {
			delete(cm.entries, key)
			removed++
		}
	}
	if removed > 0 {
		cm.logger.Debug("cleaned up stale cooldown entries", "count", removed)
	}
}

// Len returns the number of live entries.
func (cm *CooldownManager) Len() int { return len(cm.entries) }
