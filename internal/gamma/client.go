// Package gamma implements the Gamma API client for event snapshots.
//
// The monitor fetches each tracked event by slug:
//   - FetchEvent:    GET /events/slug/{slug} — one event with its markets
//   - FetchAll:      fetch every tracked slug; failures drop that slug for
//     the cycle without aborting the others
//   - ValidateSlugs: startup check that drops unknown slugs (404)
//
// Requests are retried on transport errors, 5xx, and 429 with backoff.
// A 404 is permanent for the slug and is reported as ErrNotFound.
package gamma

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrNotFound marks a slug unknown to the upstream.
var ErrNotFound = errors.New("event not found")

// Market is the JSON shape of one market inside a Gamma event response.
// Outcomes, OutcomePrices, and ClobTokenIds may arrive either as arrays or
// as JSON-encoded strings containing arrays; Volume24hr and LiquidityNum
// may arrive as numbers or string-encoded numbers. The Flex* types accept
// both shapes.
type Market struct {
	ID            string      `json:"id"`
	ConditionID   string      `json:"conditionId"`
	Question      string      `json:"question"`
	Outcomes      FlexStrings `json:"outcomes"`
	OutcomePrices FlexStrings `json:"outcomePrices"`
	ClobTokenIds  FlexStrings `json:"clobTokenIds"`
	Closed        bool        `json:"closed"`
	Volume24hr    FlexFloat64 `json:"volume24hr"`
	LiquidityNum  FlexFloat64 `json:"liquidityNum"`
}

// Key returns the market identifier, preferring conditionId.
func (m *Market) Key() string {
	if m.ConditionID != "" {
		return m.ConditionID
	}
	return m.ID
}

// Event is the JSON shape of GET /events/slug/{slug}.
type Event struct {
	Slug    string   `json:"slug"`
	Title   string   `json:"title"`
	Markets []Market `json:"markets"`
}

// Client is the Gamma REST API client.
type Client struct {
	http   *resty.Client
	logger *slog.Logger
}

// NewClient creates a Gamma client with timeout, retry, and backoff.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(time.Second).
		SetRetryMaxWaitTime(10 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() >= 500 || r.StatusCode() == http.StatusTooManyRequests
		})

	return &Client{
		http:   httpClient,
		logger: logger.With("component", "gamma"),
	}
}

// FetchEvent fetches one event by slug. Returns ErrNotFound on 404.
func (c *Client) FetchEvent(ctx context.Context, slug string) (*Event, error) {
	var result Event
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&result).
		Get("/events/slug/" + slug)
	if err != nil {
		return nil, fmt.Errorf("fetch event %s: %w", slug, err)
	}
	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return nil, fmt.Errorf("fetch event %s: %w", slug, ErrNotFound)
	case resp.StatusCode() != http.StatusOK:
		return nil, fmt.Errorf("fetch event %s: status %d", slug, resp.StatusCode())
	}
	return &result, nil
}

// FetchAll fetches raw event data for every slug. Slugs that fail are
// omitted from the result; the cycle proceeds with what arrived.
func (c *Client) FetchAll(ctx context.Context, slugs []string) map[string]*Event {
	snapshot := make(map[string]*Event, len(slugs))
	for _, slug := range slugs {
		event, err := c.FetchEvent(ctx, slug)
		if err != nil {
			c.logger.Error("failed to fetch event", "slug", slug, "error", err)
			continue
		}
		snapshot[slug] = event
	}
	return snapshot
}

// ValidateSlugs checks each configured slug against the upstream and returns
// the ones that resolve. Invalid slugs are logged and dropped.
func (c *Client) ValidateSlugs(ctx context.Context, slugs []string) []string {
	valid := make([]string, 0, len(slugs))
	for _, slug := range slugs {
		event, err := c.FetchEvent(ctx, slug)
		if err != nil {
			c.logger.Warn("invalid slug, skipping", "slug", slug, "error", err)
			continue
		}
		c.logger.Info("validated slug", "slug", slug, "title", event.Title)
		valid = append(valid, slug)
	}
	return valid
}
