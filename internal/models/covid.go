// Covidwatch - COVID Statistics Query Facade
// Copyright 2026 Ash B. (ash123)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ash123/covidwatch

package models

import (
	"fmt"
	"math"
	"time"

	"github.com/goccy/go-json"
)

// ISODate is the key format for DateSeries and response maps ("2006-01-02"),
// matching the date keys the upstream API reports.
const ISODate = "2006-01-02"

// Status selects which upstream time series to fetch.
type Status string

const (
	StatusDeaths    Status = "deaths"
	StatusConfirmed Status = "confirmed"
)

// Valid reports whether the status is one the upstream API understands.
func (s Status) Valid() bool {
	return s == StatusDeaths || s == StatusConfirmed
}

// DateSeries maps an ISO date string to the cumulative count reported for
// that day. Values are cumulative in the real-world data; this is not
// enforced locally.
type DateSeries map[string]int64

// At returns the cumulative count for the given day.
func (s DateSeries) At(day time.Time) (int64, bool) {
	v, ok := s[day.Format(ISODate)]
	return v, ok
}

// HistoryResponse is the typed shape of GET /v1/history/.
// The upstream keys the country-wide aggregate under "All".
type HistoryResponse struct {
	All struct {
		Country string     `json:"country"`
		Dates   DateSeries `json:"dates"`
	} `json:"All"`
}

// CasesResponse is the typed shape of GET /v1/cases/.
type CasesResponse struct {
	All struct {
		Country    string `json:"country"`
		Population int64  `json:"population"`
	} `json:"All"`
}

// SentinelRatio is the ratio reported when no tracked country has data for a
// date. It is the lowest representable finite value so that any country with
// data wins a maximum search, and it stays JSON-serializable (unlike -Inf).
const SentinelRatio = -math.MaxFloat64

// CountryRatio pairs a country with its per-capita ratio for one date.
// The zero-country sentinel {"" , SentinelRatio} means "no country has data".
type CountryRatio struct {
	Country string  `json:"country"`
	Ratio   float64 `json:"ratio"`
}

// Sentinel reports whether the pair is the no-data sentinel.
func (c CountryRatio) Sentinel() bool {
	return c.Country == ""
}

// MarshalJSON emits a non-finite ratio (population 0 upstream) as null.
// Both encoding/json and goccy/go-json refuse to encode Inf and NaN.
func (c CountryRatio) MarshalJSON() ([]byte, error) {
	if math.IsInf(c.Ratio, 0) || math.IsNaN(c.Ratio) {
		return []byte(fmt.Sprintf(`{"country":%q,"ratio":null}`, c.Country)), nil
	}
	type alias CountryRatio
	return json.Marshal(alias(c))
}

// CountryDeltas is the per-country slot of the between-dates aggregate.
// Deltas maps ISO date to the daily new count. Error carries a per-entry
// marker when the country's upstream fetch failed; the join is not aborted.
type CountryDeltas struct {
	Deltas map[string]int64 `json:"deltas,omitempty"`
	Error  string           `json:"error,omitempty"`
}
