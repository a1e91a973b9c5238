package monitor

import (
	"log/slog"
	"testing"
	"time"

	"polymarket-watch/pkg/types"
)

var testKey = CooldownKey{TokenID: "tok", Metric: types.MetricVolume, Window: types.Window1h}

func newTestCooldown(cooldown time.Duration, escalation float64) *CooldownManager {
	return NewCooldownManager(cooldown, escalation, slog.Default())
}

func TestCooldownFirstAlertPasses(t *testing.T) {
	t.Parallel()
	cm := newTestCooldown(30*time.Minute, 1.0)
	if !cm.ShouldAlert(testKey, 4.0, time.Now()) {
		t.Error("first alert should pass")
	}
}

func TestCooldownSuppressesWithinWindow(t *testing.T) {
	t.Parallel()
	cm := newTestCooldown(30*time.Minute, 1.0)
	start := time.Now()

	cm.RecordAlert(testKey, 4.0, start)
	if cm.ShouldAlert(testKey, 4.2, start.Add(10*time.Minute)) {
		t.Error("similar score inside the cooldown should be suppressed")
	}
}

func TestCooldownExpires(t *testing.T) {
	t.Parallel()
	cm := newTestCooldown(30*time.Minute, 1.0)
	start := time.Now()

	cm.RecordAlert(testKey, 4.0, start)
	if !cm.ShouldAlert(testKey, 4.0, start.Add(30*time.Minute)) {
		t.Error("alert should pass once the cooldown has elapsed")
	}
}

func TestCooldownEscalationOverride(t *testing.T) {
	t.Parallel()
	cm := newTestCooldown(30*time.Minute, 1.0)
	start := time.Now()

	// T: z=4.0 fires. T+10min: z=5.5 escalated (+1.5 >= 1.0) → fires.
	// T+20min: z=5.8 (+0.3 from the recorded 5.5) → suppressed.
	cm.RecordAlert(testKey, 4.0, start)

	at10 := start.Add(10 * time.Minute)
	if !cm.ShouldAlert(testKey, 5.5, at10) {
		t.Fatal("escalated score should override the cooldown")
	}
	cm.RecordAlert(testKey, 5.5, at10)

	if cm.ShouldAlert(testKey, 5.8, start.Add(20*time.Minute)) {
		t.Error("small increase over the re-recorded score should be suppressed")
	}
}

func TestCooldownSuppressedScoreNotRecorded(t *testing.T) {
	t.Parallel()
	cm := newTestCooldown(30*time.Minute, 1.0)
	start := time.Now()

	// T: 4.0 recorded. T+10min: 4.5 suppressed (Δ 0.5) and NOT recorded.
	// T+20min: 5.2 compares against the recorded 4.0 (Δ 1.2) → fires.
	cm.RecordAlert(testKey, 4.0, start)
	if cm.ShouldAlert(testKey, 4.5, start.Add(10*time.Minute)) {
		t.Fatal("Δ 0.5 should be suppressed")
	}
	if !cm.ShouldAlert(testKey, 5.2, start.Add(20*time.Minute)) {
		t.Error("Δ 1.2 against the last recorded score should fire")
	}
}

func TestCooldownDecreaseNeverEscalates(t *testing.T) {
	t.Parallel()
	cm := newTestCooldown(30*time.Minute, 1.0)
	start := time.Now()

	cm.RecordAlert(testKey, 6.0, start)
	if cm.ShouldAlert(testKey, 3.0, start.Add(5*time.Minute)) {
		t.Error("a falling score must not override the cooldown")
	}
}

func TestCooldownZeroDisablesSuppression(t *testing.T) {
	t.Parallel()
	cm := newTestCooldown(0, 1.0)
	now := time.Now()

	cm.RecordAlert(testKey, 4.0, now)
	if !cm.ShouldAlert(testKey, 4.0, now) {
		t.Error("zero cooldown should never suppress")
	}
}

func TestCooldownClearRearmsKey(t *testing.T) {
	t.Parallel()
	cm := newTestCooldown(30*time.Minute, 1.0)
	now := time.Now()

	cm.RecordAlert(testKey, 4.0, now)
	cm.Clear(testKey)
	if !cm.ShouldAlert(testKey, 4.0, now.Add(time.Minute)) {
		t.Error("cleared key should fire immediately")
	}
}

func TestCooldownKeysAreIndependent(t *testing.T) {
	t.Parallel()
	cm := newTestCooldown(30*time.Minute, 1.0)
	now := time.Now()

	cm.RecordAlert(testKey, 4.0, now)
	other := CooldownKey{TokenID: "tok", Metric: types.MetricPrice, Window: types.Window1h}
	if !cm.ShouldAlert(other, 4.0, now) {
		t.Error("different metric must have its own cooldown scope")
	}
}

func TestCleanupStale(t *testing.T) {
	t.Parallel()
	cm := newTestCooldown(30*time.Minute, 1.0)
	start := time.Now()

	cm.RecordAlert(testKey, 4.0, start)
	fresh := CooldownKey{TokenID: "tok2", Metric: types.MetricVolume, Window: types.Window4h}
	cm.RecordAlert(fresh, 4.0, start.Add(50*time.Minute))

	// testKey is 61min old (> 2×30min), fresh is 11min old
	cm.CleanupStale(start.Add(61 * time.Minute))
	if cm.Len() != 1 {
		t.Errorf("Len = %d, want 1", cm.Len())
	}
	if !cm.ShouldAlert(testKey, 4.0, start.Add(61*time.Minute)) {
		t.Error("cleaned key should fire like a first alert")
	}
}
