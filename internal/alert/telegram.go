package alert

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"polymarket-watch/internal/config"
	"polymarket-watch/pkg/types"
)

// telegramResponse is the Bot API envelope for sendMessage.
type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Notifier delivers formatted alerts via the Telegram Bot API.
type Notifier struct {
	http     *resty.Client
	botToken string
	chatID   string
	logger   *slog.Logger
}

// NewNotifier creates a Telegram notifier. Sends are not retried: a dropped
// alert is acceptable, a duplicated one is noise.
func NewNotifier(cfg config.TelegramConfig, baseURL string, logger *slog.Logger) *Notifier {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetHeader("Content-Type", "application/json")

	return &Notifier{
		http:     httpClient,
		botToken: cfg.BotToken,
		chatID:   cfg.ChatID,
		logger:   logger.With("component", "alerter"),
	}
}

// SendMessage posts one message body to the configured chat. Returns an
// error on anything other than an acknowledged 200.
func (n *Notifier) SendMessage(ctx context.Context, message string) error {
	payload := map[string]string{
		"chat_id":    n.chatID,
		"text":       message,
		"parse_mode": "Markdown",
	}

	var result telegramResponse
	resp, err := n.http.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&result).
		Post(fmt.Sprintf("/bot%s/sendMessage", n.botToken))
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}

	switch {
	case resp.StatusCode() == http.StatusTooManyRequests:
		return fmt.Errorf("telegram rate limited")
	case resp.StatusCode() != http.StatusOK:
		return fmt.Errorf("telegram send: status %d", resp.StatusCode())
	case !result.OK:
		return fmt.Errorf("telegram api error: %s", result.Description)
	}
	return nil
}

// Send formats and delivers every alert, one message each. Failures drop
// the alert and are logged; there is no retry queue. Returns the number of
// alerts delivered.
func (n *Notifier) Send(ctx context.Context, alerts []types.Alert) int {
	sent := 0
	for _, a := range alerts {
		if err := n.SendMessage(ctx, FormatAlert(a)); err != nil {
			n.logger.Error("failed to send alert", "kind", a.Kind(), "error", err)
			continue
		}
		sent++
	}
	if len(alerts) > 0 {
		n.logger.Info("alerts delivered", "sent", sent, "total", len(alerts))
	}
	return sent
}
