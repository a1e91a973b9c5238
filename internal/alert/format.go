// Package alert formats and delivers alert notifications to Telegram.
//
// Each of the five alert kinds has its own Markdown template. User-supplied
// strings (event names, market questions) are escaped before interpolation
// so they can't break the markup. Delivery is fire-and-forget: a failed or
// rate-limited send drops the alert with a log line, the service continues.
package alert

import (
	"fmt"
	"strings"

	"polymarket-watch/pkg/types"
)

const timeLayout = "2006-01-02 15:04:05"

var markdownEscaper = strings.NewReplacer(
	"_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]",
	"(", "\\(", ")", "\\)", "~", "\\~", "`", "\\`",
	">", "\\>", "#", "\\#", "+", "\\+", "-", "\\-",
	"=", "\\=", "|", "\\|", "{", "\\{", "}", "\\}",
	".", "\\.", "!", "\\!",
)

// EscapeMarkdown backslash-prefixes every character Telegram's Markdown
// parser treats as markup.
func EscapeMarkdown(text string) string {
	return markdownEscaper.Replace(text)
}

// FormatAlert renders any alert variant to its message body.
func FormatAlert(a types.Alert) string {
	switch alert := a.(type) {
	case types.SpikeAlert:
		return formatSpike(alert)
	case types.LiquidityWarning:
		return formatLiquidityWarning(alert)
	case types.ZScoreAlert:
		return formatZScore(alert)
	case types.MADAlert:
		return formatMAD(alert)
	case types.ClosedMarketAlert:
		return formatClosedMarket(alert)
	default:
		return fmt.Sprintf("unknown alert kind: %s", a.Kind())
	}
}

func directionArrow(d types.Direction) (arrow, sign string) {
	if d == types.DirectionUp {
		return "↑", "+"
	}
	return "↓", "-"
}

func formatSpike(a types.SpikeAlert) string {
	arrow, sign := directionArrow(a.Direction)
	return fmt.Sprintf(
		"🚨 *Price Spike Detected*\n\n"+
			"*Event*: %s\n"+
			"*Market*: %s\n"+
			"*Outcome*: %s\n"+
			"*Price*: %.4f %s %.4f (%s%.1f%%)\n"+
			"*Time*: %s UTC",
		EscapeMarkdown(a.EventName),
		EscapeMarkdown(a.Question),
		a.Outcome,
		a.PriceBefore, arrow, a.PriceAfter, sign, a.ChangePercent,
		a.DetectedAt.UTC().Format(timeLayout),
	)
}

func formatLiquidityWarning(a types.LiquidityWarning) string {
	arrow, sign := directionArrow(a.Direction)
	return fmt.Sprintf(
		"⚠️ *Liquidity Warning*\n\n"+
			"*Event*: %s\n"+
			"*Market*: %s\n"+
			"*Outcome*: %s\n"+
			"*Price*: %.4f %s %.4f (%s%.1f%%)\n"+
			"*LVR*: %.1f (%s)\n"+
			"*Time*: %s UTC",
		EscapeMarkdown(a.EventName),
		EscapeMarkdown(a.Question),
		a.Outcome,
		a.PriceBefore, arrow, a.PriceAfter, sign, a.ChangePercent,
		a.LVR, a.HealthStatus,
		a.DetectedAt.UTC().Format(timeLayout),
	)
}

func formatZScore(a types.ZScoreAlert) string {
	direction := "spike"
	if a.ZScore < 0 {
		direction = "drop"
	}
	market := a.TokenID
	if a.EventName != "" {
		market = fmt.Sprintf("%s [%s]", a.EventName, a.Outcome)
	}
	return fmt.Sprintf(
		"📊 *Z-Score Alert*\n\n"+
			"*Market*: %s\n"+
			"*Metric*: %s (%s)\n"+
			"*Current*: %.4f\n"+
			"*Median*: %.4f\n"+
			"*MAD*: %.4f\n"+
			"*Z-Score*: %+.2f (%s)\n"+
			"*Threshold*: ±%.1f\n"+
			"*Time*: %s UTC",
		EscapeMarkdown(market),
		a.Metric, a.Window,
		a.Current, a.Median, a.MAD,
		a.ZScore, direction,
		a.Threshold,
		a.DetectedAt.UTC().Format(timeLayout),
	)
}

func formatMAD(a types.MADAlert) string {
	// above/below is derived here, not carried on the alert
	direction := "above"
	if a.Current < a.Median {
		direction = "below"
	}
	market := a.TokenID
	if a.EventName != "" {
		market = fmt.Sprintf("%s [%s]", a.EventName, a.Outcome)
	}
	return fmt.Sprintf(
		"📈 *MAD Alert*\n\n"+
			"*Market*: %s\n"+
			"*Metric*: %s (%s)\n"+
			"*Current*: %.4f\n"+
			"*Median*: %.4f\n"+
			"*MAD*: %.4f\n"+
			"*Deviation*: %.1fx MAD (%s median)\n"+
			"*Threshold*: %.1fx MAD\n"+
			"*Time*: %s UTC",
		EscapeMarkdown(market),
		a.Metric, a.Window,
		a.Current, a.Median, a.MAD,
		a.Multiplier, direction,
		a.ThresholdMultiplier,
		a.DetectedAt.UTC().Format(timeLayout),
	)
}

func formatClosedMarket(a types.ClosedMarketAlert) string {
	priceStr := "N/A"
	if a.FinalPrice != nil {
		priceStr = fmt.Sprintf("%.4f", *a.FinalPrice)
	}
	return fmt.Sprintf(
		"✅ *Market Closed*\n\n"+
			"*Event*: %s\n"+
			"*Market*: %s\n"+
			"*Outcome*: %s\n"+
			"*Final Price*: %s\n"+
			"*Time*: %s UTC",
		EscapeMarkdown(a.EventName),
		EscapeMarkdown(a.Question),
		a.Outcome,
		priceStr,
		a.DetectedAt.UTC().Format(timeLayout),
	)
}
