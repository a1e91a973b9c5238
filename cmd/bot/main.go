// Polymarket Watch — a continuous surveillance service for Polymarket
// prediction markets.
//
// Architecture:
//
//	main.go              — entry point: loads config, starts the monitor, waits for SIGINT/SIGTERM
//	monitor/monitor.go   — orchestrator: runs the poll cycle, wires feeds → detectors → notifier
//	monitor/state.go     — in-memory state: tracked events + per-token rolling windows
//	monitor/detector.go  — the five detectors: spike, liquidity warning, closed market, z-score, MAD
//	monitor/cooldown.go  — per-(token, metric, window) alert suppression with escalation override
//	stats/               — rolling time windows and robust statistics (median, MAD, z-score, LVR)
//	gamma/client.go      — REST client for the Gamma events API (market metadata, prices, liquidity)
//	clob/client.go       — REST client for the CLOB API (midpoints, order books), token-bucket limited
//	alert/               — Markdown formatting + Telegram delivery
//
// What it watches for:
//
//	Sudden single-poll price moves, price moves landing on thin order books
//	(high volume-to-liquidity ratio), statistically anomalous volume or price
//	against rolling 1h/4h baselines, and markets transitioning to closed.
//	Every finding becomes a Telegram message.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"polymarket-watch/internal/alert"
	"polymarket-watch/internal/clob"
	"polymarket-watch/internal/config"
	"polymarket-watch/internal/gamma"
	"polymarket-watch/internal/monitor"
)

func main() {
	// .env is optional; real env vars win either way
	_ = godotenv.Load()

	cfgPath := "configs/config.yaml"
	if p := os.Getenv("POLYWATCH_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath, slog.Default())
	if err != nil {
		slog.Error("failed to load config", "error", err, "path", cfgPath)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	// Set up logger
	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Logging.Level)}
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)

	gammaClient := gamma.NewClient(cfg.API.GammaBaseURL, logger)
	clobClient := clob.NewClient(cfg.API.CLOBBaseURL, logger)
	notifier := alert.NewNotifier(cfg.Telegram, cfg.API.TelegramBaseURL, logger)

	mon := monitor.New(cfg, gammaClient, clobClient, notifier, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := mon.Bootstrap(ctx); err != nil {
		logger.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}

	logger.Info("polymarket watch started",
		"slugs", len(cfg.Slugs),
		"poll_interval", cfg.PollInterval,
		"spike_threshold", cfg.SpikeThreshold,
		"lvr_threshold", cfg.LVRThreshold,
	)

	mon.Run(ctx)
	logger.Info("shutdown complete")
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
