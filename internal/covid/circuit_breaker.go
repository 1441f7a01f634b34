// Covidwatch - COVID Statistics Query Facade
// Copyright 2026 Ash B. (ash123)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ash123/covidwatch

package covid

import (
	"context"
	"errors"
	"fmt"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/ash123/covidwatch/internal/config"
	"github.com/ash123/covidwatch/internal/logging"
	"github.com/ash123/covidwatch/internal/metrics"
	"github.com/ash123/covidwatch/internal/models"
)

// CircuitBreakerClient wraps Client with the circuit breaker pattern to
// prevent a request storm against an unavailable or slow statistics API.
// The aggregate operations fan out one or two calls per tracked country, so
// an outage would otherwise multiply into many hanging requests.
//
// The breaker uses real time for its interval and timeout calculations;
// tests exercise the wrapped client directly or tune the settings down.
type CircuitBreakerClient struct {
	client StatsClient
	cb     *gobreaker.CircuitBreaker[any]
	name   string
}

// NewCircuitBreakerClient wraps client with a breaker configured from cfg:
// the circuit opens once the failure rate reaches cfg.FailureRate with at
// least cfg.MinRequests observed, and probes again after cfg.Timeout.
func NewCircuitBreakerClient(client StatsClient, cfg *config.BreakerConfig) *CircuitBreakerClient {
	cbName := "covid-api"

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3, // concurrent probes allowed in half-open state
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}

			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= cfg.FailureRate

			if shouldTrip {
				logging.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("[CIRCUIT BREAKER] Opening circuit")
			}

			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &CircuitBreakerClient{
		client: client,
		cb:     cb,
		name:   cbName,
	}
}

// execute wraps an upstream call with circuit breaker protection.
func (cbc *CircuitBreakerClient) execute(fn func() (any, error)) (any, error) {
	result, err := cbc.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "rejected").Inc()
			logging.Warn().Err(err).Msg("[CIRCUIT BREAKER] Request rejected")
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "failure").Inc()
		}
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "success").Inc()
	return result, nil
}

// FetchSeries retrieves a country's series with breaker protection.
func (cbc *CircuitBreakerClient) FetchSeries(ctx context.Context, country string, status models.Status) (models.DateSeries, error) {
	result, err := cbc.execute(func() (any, error) {
		return cbc.client.FetchSeries(ctx, country, status)
	})
	if err != nil {
		return nil, err
	}
	series, ok := result.(models.DateSeries)
	if !ok {
		return nil, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return series, nil
}

// FetchPopulation retrieves a country's population with breaker protection.
func (cbc *CircuitBreakerClient) FetchPopulation(ctx context.Context, country string) (int64, error) {
	result, err := cbc.execute(func() (any, error) {
		return cbc.client.FetchPopulation(ctx, country)
	})
	if err != nil {
		return 0, err
	}
	population, ok := result.(int64)
	if !ok {
		return 0, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return population, nil
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
