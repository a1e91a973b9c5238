// Package clob implements the Polymarket CLOB REST client for token snapshots.
//
// The monitor reads three unauthenticated endpoints per tracked token:
//   - Midpoint: GET /midpoint — mid price between best bid and best ask
//   - Price:    GET /price    — last trade price
//   - Book:     GET /book     — L2 order book; the monitor only needs the
//     total resting size across bids and asks
//
// Every request is rate-limited via per-category TokenBuckets and retried on
// transport errors and 5xx. A 429 backs off exponentially (base × 2ⁿ) before
// retrying. A 404 means the token is unknown and yields a missing datum for
// this cycle, not an error.
package clob

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

// PriceLevel is a single bid or ask level in the order book. Price and Size
// are strings because the CLOB API returns them as strings to preserve
// decimal precision.
type PriceLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// Book is the REST response from GET /book for a single token.
type Book struct {
	Market  string       `json:"market"`
	AssetID string       `json:"asset_id"`
	Bids    []PriceLevel `json:"bids"`
	Asks    []PriceLevel `json:"asks"`
}

// TotalSize sums the size field across all bids and asks. Invalid or
// missing sizes count as zero. Summation goes through decimal so large
// books don't accumulate float error level by level.
func (b *Book) TotalSize() float64 {
	total := decimal.Zero
	for _, side := range [][]PriceLevel{b.Bids, b.Asks} {
		for _, level := range side {
			size, err := decimal.NewFromString(level.Size)
			if err != nil {
				continue
			}
			total = total.Add(size)
		}
	}
	return total.InexactFloat64()
}

// Snapshot is one token's datum for a cycle. Either component may be nil
// when the corresponding fetch failed or returned 404.
type Snapshot struct {
	Price    *float64 // midpoint price
	BookSize *float64 // total resting size across bids and asks
}

type midpointResponse struct {
	Mid string `json:"mid"`
}

type priceResponse struct {
	Price string `json:"price"`
}

// Client is the CLOB REST API client.
type Client struct {
	http   *resty.Client
	rl     *RateLimiter
	logger *slog.Logger
}

// NewClient creates a CLOB client with rate limiting and retry.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(time.Second).
		SetRetryMaxWaitTime(8 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() >= 500 || r.StatusCode() == http.StatusTooManyRequests
		}).
		SetRetryAfter(func(c *resty.Client, r *resty.Response) (time.Duration, error) {
			// 429: exponential backoff base × 2ⁿ
			if r != nil && r.StatusCode() == http.StatusTooManyRequests {
				return time.Second * time.Duration(1<<r.Request.Attempt), nil
			}
			return c.RetryWaitTime, nil
		})

	return &Client{
		http:   httpClient,
		rl:     NewRateLimiter(),
		logger: logger.With("component", "clob"),
	}
}

// Midpoint fetches the midpoint price for a token. A 404 returns (nil, nil):
// the token has no datum this cycle.
func (c *Client) Midpoint(ctx context.Context, tokenID string) (*float64, error) {
	if err := c.rl.Price.Wait(ctx); err != nil {
		return nil, err
	}

	var result midpointResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("token_id", tokenID).
		SetResult(&result).
		Get("/midpoint")
	if err != nil {
		return nil, fmt.Errorf("get midpoint: %w", err)
	}
	switch {
	case resp.StatusCode() == http.StatusNotFound:
		c.logger.Warn("token not found for midpoint", "token", tokenID)
		return nil, nil
	case resp.StatusCode() != http.StatusOK:
		return nil, fmt.Errorf("get midpoint: status %d", resp.StatusCode())
	}
	return parseDecimalField(result.Mid), nil
}

// Price fetches the last trade price for a token. Same 404 semantics as
// Midpoint.
func (c *Client) Price(ctx context.Context, tokenID string) (*float64, error) {
	if err := c.rl.Price.Wait(ctx); err != nil {
		return nil, err
	}

	var result priceResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("token_id", tokenID).
		SetResult(&result).
		Get("/price")
	if err != nil {
		return nil, fmt.Errorf("get price: %w", err)
	}
	switch {
	case resp.StatusCode() == http.StatusNotFound:
		c.logger.Warn("token not found for price", "token", tokenID)
		return nil, nil
	case resp.StatusCode() != http.StatusOK:
		return nil, fmt.Errorf("get price: status %d", resp.StatusCode())
	}
	return parseDecimalField(result.Price), nil
}

// FetchBook fetches the order book for a token. A 404 returns (nil, nil).
func (c *Client) FetchBook(ctx context.Context, tokenID string) (*Book, error) {
	if err := c.rl.Book.Wait(ctx); err != nil {
		return nil, err
	}

	var result Book
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("token_id", tokenID).
		SetResult(&result).
		Get("/book")
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}
	switch {
	case resp.StatusCode() == http.StatusNotFound:
		c.logger.Warn("token not found for book", "token", tokenID)
		return nil, nil
	case resp.StatusCode() != http.StatusOK:
		return nil, fmt.Errorf("get book: status %d", resp.StatusCode())
	}
	return &result, nil
}

// PollTokens fetches midpoint and book for every token and returns the
// per-token snapshots. A failed fetch leaves the corresponding component
// nil; it never aborts the rest of the poll.
func (c *Client) PollTokens(ctx context.Context, tokenIDs []string) map[string]Snapshot {
	results := make(map[string]Snapshot, len(tokenIDs))

	for _, tokenID := range tokenIDs {
		var snap Snapshot

		price, err := c.Midpoint(ctx, tokenID)
		if err != nil {
			c.logger.Error("midpoint fetch failed", "token", tokenID, "error", err)
		} else {
			snap.Price = price
		}

		book, err := c.FetchBook(ctx, tokenID)
		if err != nil {
			c.logger.Error("book fetch failed", "token", tokenID, "error", err)
		} else if book != nil {
			size := book.TotalSize()
			snap.BookSize = &size
		}

		results[tokenID] = snap
		c.logger.Debug("token polled", "token", tokenID,
			"has_price", snap.Price != nil, "has_book", snap.BookSize != nil)
	}

	return results
}

// parseDecimalField converts a string-encoded decimal to *float64,
// nil on failure.
func parseDecimalField(s string) *float64 {
	dec, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	v := dec.InexactFloat64()
	return &v
}
