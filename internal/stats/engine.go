// Covidwatch - COVID Statistics Query Facade
// Copyright 2026 Ash B. (ash123)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ash123/covidwatch

// Package stats contains the pure metric computations over date-indexed
// cumulative series: daily deltas, per-capita ratios and per-date maxima.
// No I/O happens here.
package stats

import (
	"time"

	"github.com/ash123/covidwatch/internal/models"
)

// DailyDelta returns series[day] - series[day-1], the number of new cases
// reported on day. ok is false when either key is absent from the series;
// callers decide whether a gap is an error or a skipped data point.
func DailyDelta(series models.DateSeries, day time.Time) (int64, bool) {
	today, ok := series.At(day)
	if !ok {
		return 0, false
	}
	yesterday, ok := series.At(day.AddDate(0, 0, -1))
	if !ok {
		return 0, false
	}
	return today - yesterday, true
}

// PerCapitaRatio divides a daily delta by the country's population as
// IEEE754 floating-point division. A zero population yields ±Inf or NaN,
// never a panic; serialization handles non-finite values.
func PerCapitaRatio(delta, population int64) float64 {
	return float64(delta) / float64(population)
}

// HighestRatio returns the pair with the maximum ratio, or the no-data
// sentinel ("", models.SentinelRatio) for an empty input. The sentinel is
// the lowest representable value so any real pair beats it; ties keep the
// first pair seen.
func HighestRatio(pairs []models.CountryRatio) models.CountryRatio {
	best := models.CountryRatio{Country: "", Ratio: models.SentinelRatio}
	for _, p := range pairs {
		if best.Sentinel() || p.Ratio > best.Ratio {
			best = p
		}
	}
	return best
}

// DaysBetween generates every date in the half-open range [from, to).
// Returns nil when to is not after from.
func DaysBetween(from, to time.Time) []time.Time {
	if !to.After(from) {
		return nil
	}
	var days []time.Time
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}
