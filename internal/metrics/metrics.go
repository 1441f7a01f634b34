// Covidwatch - COVID Statistics Query Facade
// Copyright 2026 Ash B. (ash123)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ash123/covidwatch

// Package metrics provides Prometheus instrumentation for the service:
// query-surface latency and throughput, upstream call performance, circuit
// breaker state and watchlist size.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "covidwatch_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "covidwatch_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "covidwatch_api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Upstream Statistics API Metrics
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "covidwatch_upstream_requests_total",
			Help: "Total number of upstream statistics API requests",
		},
		[]string{"endpoint", "outcome"}, // endpoint: "history", "cases"; outcome: "success", "failure"
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "covidwatch_upstream_request_duration_seconds",
			Help:    "Upstream statistics API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// UpstreamSoftFailures counts per-country fetch failures that were
	// degraded to per-entry markers instead of aborting an aggregate.
	UpstreamSoftFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "covidwatch_upstream_soft_failures_total",
			Help: "Upstream fetch failures absorbed by aggregate operations",
		},
		[]string{"operation"},
	)

	// Aggregate fan-out size per request (tracked countries).
	AggregateFanout = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "covidwatch_aggregate_fanout_countries",
			Help:    "Number of tracked countries fanned out per aggregate request",
			Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "covidwatch_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "covidwatch_circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "covidwatch_circuit_breaker_requests_total",
			Help: "Circuit breaker request outcomes",
		},
		[]string{"name", "outcome"}, // "success", "failure", "rejected"
	)

	// Upstream response cache metrics.
	UpstreamCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "covidwatch_upstream_cache_requests_total",
			Help: "Upstream response cache lookups",
		},
		[]string{"outcome"}, // "hit", "miss"
	)

	UpstreamCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "covidwatch_upstream_cache_entries",
			Help: "Current number of entries in the upstream response cache",
		},
	)

	// Watchlist Registry Metrics
	WatchlistUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "covidwatch_watchlist_users",
			Help: "Number of registered users in the watchlist registry",
		},
	)
)

// RecordAPIRequest records a completed API request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the active request gauge.
func TrackActiveRequest(active bool) {
	if active {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordUpstreamRequest records one upstream statistics API call.
func RecordUpstreamRequest(endpoint string, err error, duration time.Duration) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	UpstreamRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	UpstreamRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}
