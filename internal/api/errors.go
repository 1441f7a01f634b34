// Covidwatch - COVID Statistics Query Facade
// Copyright 2026 Ash B. (ash123)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ash123/covidwatch

// Package api provides the HTTP query surface of the service.
//
// errors.go - machine-readable error codes used in the APIError envelope.
package api

const (
	// CodeValidation marks invalid or malformed request parameters.
	CodeValidation = "VALIDATION_ERROR"

	// CodeUnauthorized marks operations referencing a user that was never
	// registered.
	CodeUnauthorized = "UNAUTHORIZED"

	// CodeDataUnavailable marks requests for which the upstream series has
	// no data (gap or unknown country), distinct from a transport failure.
	CodeDataUnavailable = "DATA_UNAVAILABLE"

	// CodeUpstreamError marks failures reaching or parsing the statistics API.
	CodeUpstreamError = "UPSTREAM_ERROR"

	// CodeMethodNotAllowed marks non-GET requests to the query surface.
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
)
