package alert

import (
	"strings"
	"testing"
	"time"

	"polymarket-watch/pkg/types"
)

var testTime = time.Date(2026, 8, 24, 12, 30, 0, 0, time.UTC)

func TestEscapeMarkdown(t *testing.T) {
	t.Parallel()
	got := EscapeMarkdown("Will X_Y win? (50-50!)")
	want := `Will X\_Y win? \(50\-50\!\)`
	if got != want {
		t.Errorf("EscapeMarkdown = %q, want %q", got, want)
	}
}

func TestEscapeMarkdownPlainTextUntouched(t *testing.T) {
	t.Parallel()
	if got := EscapeMarkdown("plain text"); got != "plain text" {
		t.Errorf("EscapeMarkdown = %q", got)
	}
}

func TestFormatSpike(t *testing.T) {
	t.Parallel()
	msg := FormatAlert(types.SpikeAlert{
		EventName:     "Election 2028",
		Question:      "Will candidate A win?",
		Outcome:       "Yes",
		PriceBefore:   0.50,
		PriceAfter:    0.58,
		ChangePercent: 16.0,
		Direction:     types.DirectionUp,
		DetectedAt:    testTime,
	})
	for _, want := range []string{"Price Spike Detected", "Election 2028", "↑", "+16.0%", "2026-08-24 12:30:00"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestFormatSpikeDownDirection(t *testing.T) {
	t.Parallel()
	msg := FormatAlert(types.SpikeAlert{
		Direction:     types.DirectionDown,
		ChangePercent: 7.5,
		DetectedAt:    testTime,
	})
	if !strings.Contains(msg, "↓") || !strings.Contains(msg, "-7.5%") {
		t.Errorf("expected down arrow and negative sign:\n%s", msg)
	}
}

func TestFormatLiquidityWarning(t *testing.T) {
	t.Parallel()
	msg := FormatAlert(types.LiquidityWarning{
		EventName:     "Event",
		Question:      "Q",
		Outcome:       "No",
		PriceBefore:   0.3,
		PriceAfter:    0.4,
		ChangePercent: 33.3,
		Direction:     types.DirectionUp,
		LVR:           12.5,
		HealthStatus:  "High Risk",
		DetectedAt:    testTime,
	})
	for _, want := range []string{"Liquidity Warning", "12.5", "High Risk"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestFormatZScoreWithContext(t *testing.T) {
	t.Parallel()
	msg := FormatAlert(types.ZScoreAlert{
		TokenID:    "tok-1",
		EventName:  "Election",
		Outcome:    "Yes",
		Metric:     types.MetricVolume,
		Window:     types.Window1h,
		Current:    9000,
		Median:     1000,
		MAD:        500,
		ZScore:     10.79,
		Threshold:  3.5,
		DetectedAt: testTime,
	})
	for _, want := range []string{"Z-Score Alert", "Election \\[Yes\\]", "volume (1h)", "spike"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestFormatZScoreFallsBackToTokenID(t *testing.T) {
	t.Parallel()
	msg := FormatAlert(types.ZScoreAlert{
		TokenID: "tok-raw", ZScore: -4.2, DetectedAt: testTime,
	})
	if !strings.Contains(msg, "tok\\-raw") {
		t.Errorf("expected escaped token id:\n%s", msg)
	}
	if !strings.Contains(msg, "drop") {
		t.Errorf("negative z-score should read as drop:\n%s", msg)
	}
}

func TestFormatMADAboveBelow(t *testing.T) {
	t.Parallel()
	above := FormatAlert(types.MADAlert{Current: 0.9, Median: 0.5, Multiplier: 4.0, DetectedAt: testTime})
	if !strings.Contains(above, "above") {
		t.Errorf("expected above:\n%s", above)
	}
	below := FormatAlert(types.MADAlert{Current: 0.1, Median: 0.5, Multiplier: 4.0, DetectedAt: testTime})
	if !strings.Contains(below, "below") {
		t.Errorf("expected below:\n%s", below)
	}
}

func TestFormatClosedMarket(t *testing.T) {
	t.Parallel()
	msg := FormatAlert(types.ClosedMarketAlert{
		EventName:  "Event",
		Question:   "Q",
		Outcome:    "Yes",
		FinalPrice: types.Float(0.97),
		DetectedAt: testTime,
	})
	if !strings.Contains(msg, "Market Closed") || !strings.Contains(msg, "0.9700") {
		t.Errorf("message = %s", msg)
	}
}

func TestFormatClosedMarketMissingPrice(t *testing.T) {
	t.Parallel()
	msg := FormatAlert(types.ClosedMarketAlert{DetectedAt: testTime})
	if !strings.Contains(msg, "N/A") {
		t.Errorf("expected N/A for nil final price:\n%s", msg)
	}
}
