// Covidwatch - COVID Statistics Query Facade
// Copyright 2026 Ash B. (ash123)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ash123/covidwatch

// Package models defines the API response envelope and the domain types
// shared between the upstream client, the aggregator and the HTTP surface.
package models

import "time"

// APIResponse is the uniform envelope for every endpoint.
// Status is "success" or "error"; Error is populated only on failure.
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata for observability.
//
// Fields:
//   - Timestamp: server time when the response was generated (RFC3339)
//   - QueryTimeMS: aggregate execution time in milliseconds, including all
//     upstream fan-out calls (0 for registry-only operations)
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// APIError represents an error response with structured detail.
//
// Common error codes:
//   - VALIDATION_ERROR: invalid or malformed request parameters
//   - UNAUTHORIZED: user identifier was never registered
//   - DATA_UNAVAILABLE: upstream returned no data for the requested keys
//   - UPSTREAM_ERROR: the statistics API could not be reached or parsed
//   - RATE_LIMIT_EXCEEDED: too many requests
//   - METHOD_NOT_ALLOWED: wrong HTTP method
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
