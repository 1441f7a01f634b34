// Covidwatch - COVID Statistics Query Facade
// Copyright 2026 Ash B. (ash123)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ash123/covidwatch

// Package covid provides the client for the third-party COVID statistics
// API (covid-api.mmediagroup.fr).
//
// Client features:
//   - Typed JSON decoding into models.HistoryResponse / models.CasesResponse
//     (no silent default-node traversal; decode failures are surfaced)
//   - Configurable per-call timeout
//   - Automatic HTTP 429 handling with exponential backoff
//   - Context support for cancellation
//   - Optional circuit breaker wrapper (circuit_breaker.go)
//
// The upstream exposes two idempotent GET endpoints:
//
//	GET {base}/history/?country={country}&status={deaths|confirmed}
//	GET {base}/cases/?country={country}
package covid

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"

	"github.com/ash123/covidwatch/internal/config"
	"github.com/ash123/covidwatch/internal/metrics"
	"github.com/ash123/covidwatch/internal/models"
)

// maxErrorBodySize limits how much of an error response body is read for
// diagnostics, preventing unbounded allocation on large error pages.
const maxErrorBodySize = 64 * 1024 // 64KB

// StatsClient is the interface the aggregator depends on. Implemented by
// Client for production and by CircuitBreakerClient when the breaker is
// enabled; tests substitute fakes.
//
// Thread safety: all methods are safe for concurrent use.
type StatsClient interface {
	// FetchSeries returns the cumulative date series for one country and
	// status. An unknown country yields an empty series, not an error.
	FetchSeries(ctx context.Context, country string, status models.Status) (models.DateSeries, error)

	// FetchPopulation returns the country's population snapshot. The value
	// is not date-specific; callers treat it as valid for a whole range.
	FetchPopulation(ctx context.Context, country string) (int64, error)
}

// Client handles communication with the statistics API.
//
// Each request creates its own *http.Request; the underlying http.Client
// reuses connections across calls.
type Client struct {
	baseURL        string
	client         *http.Client
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewClient creates a statistics API client from configuration.
func NewClient(cfg *config.UpstreamConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		maxRetries:     cfg.MaxRetries,
		retryBaseDelay: cfg.RetryBaseDelay,
	}
}

// FetchSeries issues GET /history/ and returns All.dates as a DateSeries.
func (c *Client) FetchSeries(ctx context.Context, country string, status models.Status) (models.DateSeries, error) {
	start := time.Now()

	params := url.Values{}
	params.Set("country", country)
	params.Set("status", string(status))

	var resp models.HistoryResponse
	err := c.get(ctx, "history", params, &resp)
	metrics.RecordUpstreamRequest("history", err, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("fetch series for %s/%s: %w", country, status, err)
	}

	return resp.All.Dates, nil
}

// FetchPopulation issues GET /cases/ and returns All.population.
func (c *Client) FetchPopulation(ctx context.Context, country string) (int64, error) {
	start := time.Now()

	params := url.Values{}
	params.Set("country", country)

	var resp models.CasesResponse
	err := c.get(ctx, "cases", params, &resp)
	metrics.RecordUpstreamRequest("cases", err, time.Since(start))
	if err != nil {
		return 0, fmt.Errorf("fetch population for %s: %w", country, err)
	}

	return resp.All.Population, nil
}

// get performs the shared request boilerplate: build the URL, run the
// request with 429 backoff, check the HTTP status and decode the body into
// result. Decode failures are returned, never swallowed.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, result interface{}) error {
	reqURL := fmt.Sprintf("%s/%s/?%s", c.baseURL, endpoint, params.Encode())

	resp, err := c.doRequestWithRateLimit(ctx, reqURL)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := readBodyForError(resp.Body)
		return fmt.Errorf("%s request returned status %d: %s", endpoint, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}

	return nil
}

// doRequestWithRateLimit performs an HTTP GET with automatic rate limit
// handling. HTTP 429 responses are retried with exponential backoff (base
// delay doubling per attempt), honoring a Retry-After header when present.
// The context cancels backoff waits as well as in-flight requests.
func (c *Client) doRequestWithRateLimit(ctx context.Context, reqURL string) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("HTTP request failed: %w", err)
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		_ = resp.Body.Close() // retrying anyway

		if attempt == c.maxRetries {
			lastErr = fmt.Errorf("rate limit exceeded after %d retries (HTTP 429)", c.maxRetries)
			break
		}

		delay := c.retryBaseDelay * time.Duration(1<<uint(attempt))
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := time.ParseDuration(retryAfter + "s"); err == nil {
				delay = seconds
			}
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, lastErr
}

// readBodyForError reads at most maxErrorBodySize bytes of a response body
// for error reporting.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("... (truncated)")...)
	}
	return body
}
