// Covidwatch - COVID Statistics Query Facade
// Copyright 2026 Ash B. (ash123)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ash123/covidwatch

// Package aggregate orchestrates the concurrent upstream fan-out for the
// query operations: it resolves a user's tracked countries, issues the
// per-country statistics calls in parallel, joins the results and reduces
// them with the stats package.
//
// Failure policy: an unregistered user (watchlist.ErrUnauthorized) aborts
// the whole operation; per-country upstream failures are soft and populate
// per-entry error markers (or drop the country from a reduction) instead of
// crashing the join.
package aggregate

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ash123/covidwatch/internal/covid"
	"github.com/ash123/covidwatch/internal/logging"
	"github.com/ash123/covidwatch/internal/metrics"
	"github.com/ash123/covidwatch/internal/models"
	"github.com/ash123/covidwatch/internal/stats"
	"github.com/ash123/covidwatch/internal/watchlist"
)

// ErrNoData is returned when the upstream series lacks the keys needed for
// the requested computation. Distinct from an upstream transport failure.
var ErrNoData = errors.New("no upstream data for the requested date")

// maxConcurrentFetches bounds the upstream fan-out per request so a user
// tracking many countries cannot open an unbounded number of connections.
const maxConcurrentFetches = 16

// Aggregator wires the watchlist registry to the statistics client.
type Aggregator struct {
	client   covid.StatsClient
	registry *watchlist.Registry
}

// New creates an Aggregator.
func New(client covid.StatsClient, registry *watchlist.Registry) *Aggregator {
	return &Aggregator{
		client:   client,
		registry: registry,
	}
}

// DailyNewCases returns the number of new deaths reported for one country
// on one day. Not user-scoped; the watchlist is not consulted.
//
// Historical quirk: this operation queries the deaths series even though
// the exposed route mentions confirmed cases. Kept for client compatibility.
func (a *Aggregator) DailyNewCases(ctx context.Context, country string, day time.Time) (int64, error) {
	series, err := a.client.FetchSeries(ctx, country, models.StatusDeaths)
	if err != nil {
		return 0, err
	}

	delta, ok := stats.DailyDelta(series, day)
	if !ok {
		return 0, ErrNoData
	}
	return delta, nil
}

// CasesPerCountryBetweenDates returns, for each of the user's tracked
// countries, the daily delta for every date in the half-open range
// [from, to). One series fetch per country, all concurrent. Dates whose
// delta cannot be computed (gap in the series) are omitted from that
// country's map; a failed fetch yields a per-country error marker.
func (a *Aggregator) CasesPerCountryBetweenDates(ctx context.Context, user string, from, to time.Time, status models.Status) (map[string]models.CountryDeltas, error) {
	countries, err := a.registry.Countries(user)
	if err != nil {
		return nil, err
	}

	days := stats.DaysBetween(from, to)
	metrics.AggregateFanout.Observe(float64(len(countries)))

	results := make(map[string]models.CountryDeltas, len(countries))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for _, country := range countries {
		g.Go(func() error {
			series, err := a.client.FetchSeries(gctx, country, status)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				metrics.UpstreamSoftFailures.WithLabelValues("cases_between_dates").Inc()
				logging.Ctx(gctx).Warn().Err(err).Str("country", country).Msg("series fetch failed, marking entry")
				results[country] = models.CountryDeltas{Error: "upstream data unavailable"}
				return nil
			}

			deltas := make(map[string]int64, len(days))
			for _, day := range days {
				if delta, ok := stats.DailyDelta(series, day); ok {
					deltas[day.Format(models.ISODate)] = delta
				}
			}
			results[country] = models.CountryDeltas{Deltas: deltas}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// countrySnapshot joins one country's two upstream fetches.
type countrySnapshot struct {
	country    string
	series     models.DateSeries
	population int64
}

// HighestRatioPerDate returns, for every date in [from, to), the tracked
// country with the maximum per-capita delta ratio, or the no-data sentinel
// when no tracked country has data for that date.
//
// The per-country series and population fetches are hoisted outside the
// date loop: both are idempotent and stable across the range, so fetching
// once per country instead of once per (country, date) pair does not change
// observable results. Within a country the two fetches run concurrently.
// A country whose fetch fails is excluded from the reduction.
func (a *Aggregator) HighestRatioPerDate(ctx context.Context, user string, from, to time.Time, status models.Status) (map[string]models.CountryRatio, error) {
	countries, err := a.registry.Countries(user)
	if err != nil {
		return nil, err
	}

	days := stats.DaysBetween(from, to)
	metrics.AggregateFanout.Observe(float64(len(countries)))

	snapshots := make([]countrySnapshot, 0, len(countries))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for _, country := range countries {
		g.Go(func() error {
			var (
				series     models.DateSeries
				population int64
			)

			fg, fctx := errgroup.WithContext(gctx)
			fg.Go(func() error {
				s, err := a.client.FetchSeries(fctx, country, status)
				series = s
				return err
			})
			fg.Go(func() error {
				p, err := a.client.FetchPopulation(fctx, country)
				population = p
				return err
			})

			if err := fg.Wait(); err != nil {
				metrics.UpstreamSoftFailures.WithLabelValues("highest_ratio").Inc()
				logging.Ctx(gctx).Warn().Err(err).Str("country", country).Msg("country fetch failed, excluding from reduction")
				return nil
			}

			mu.Lock()
			snapshots = append(snapshots, countrySnapshot{
				country:    country,
				series:     series,
				population: population,
			})
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]models.CountryRatio, len(days))
	for _, day := range days {
		pairs := make([]models.CountryRatio, 0, len(snapshots))
		for _, snap := range snapshots {
			delta, ok := stats.DailyDelta(snap.series, day)
			if !ok {
				continue
			}
			pairs = append(pairs, models.CountryRatio{
				Country: snap.country,
				Ratio:   stats.PerCapitaRatio(delta, snap.population),
			})
		}
		out[day.Format(models.ISODate)] = stats.HighestRatio(pairs)
	}
	return out, nil
}
