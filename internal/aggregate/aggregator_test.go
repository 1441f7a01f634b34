// Covidwatch - COVID Statistics Query Facade
// Copyright 2026 Ash B. (ash123)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ash123/covidwatch

package aggregate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ash123/covidwatch/internal/models"
	"github.com/ash123/covidwatch/internal/watchlist"
)

// fakeClient serves canned per-country data; countries listed in failing
// return an error on every call.
type fakeClient struct {
	series      map[string]models.DateSeries
	populations map[string]int64
	failing     map[string]bool
}

func (f *fakeClient) FetchSeries(_ context.Context, country string, _ models.Status) (models.DateSeries, error) {
	if f.failing[country] {
		return nil, errors.New("upstream down")
	}
	return f.series[country], nil
}

func (f *fakeClient) FetchPopulation(_ context.Context, country string) (int64, error) {
	if f.failing[country] {
		return 0, errors.New("upstream down")
	}
	return f.populations[country], nil
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func registryWith(t *testing.T, user string, countries ...string) *watchlist.Registry {
	t.Helper()
	r := watchlist.NewRegistry()
	r.Register(user)
	for _, c := range countries {
		if err := r.AddCountry(user, c); err != nil {
			t.Fatalf("AddCountry(%s) error = %v", c, err)
		}
	}
	return r
}

func TestDailyNewCases(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		series: map[string]models.DateSeries{
			"France": {"2021-01-01": 100, "2021-01-02": 130},
		},
	}
	agg := New(client, watchlist.NewRegistry())

	delta, err := agg.DailyNewCases(context.Background(), "France", date(2021, time.January, 2))
	if err != nil {
		t.Fatalf("DailyNewCases() error = %v", err)
	}
	if delta != 30 {
		t.Errorf("Delta = %d, want 30", delta)
	}
}

func TestDailyNewCases_NoData(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		series: map[string]models.DateSeries{
			"France": {"2021-01-02": 130}, // prior day missing
		},
	}
	agg := New(client, watchlist.NewRegistry())

	_, err := agg.DailyNewCases(context.Background(), "France", date(2021, time.January, 2))
	if !errors.Is(err, ErrNoData) {
		t.Errorf("Error = %v, want ErrNoData", err)
	}
}

func TestDailyNewCases_UpstreamFailure(t *testing.T) {
	t.Parallel()

	client := &fakeClient{failing: map[string]bool{"France": true}}
	agg := New(client, watchlist.NewRegistry())

	_, err := agg.DailyNewCases(context.Background(), "France", date(2021, time.January, 2))
	if err == nil || errors.Is(err, ErrNoData) {
		t.Errorf("Error = %v, want a transport error distinct from ErrNoData", err)
	}
}

func TestCasesPerCountryBetweenDates(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		series: map[string]models.DateSeries{
			"France": {"2020-12-31": 90, "2021-01-01": 100, "2021-01-02": 130, "2021-01-03": 200},
			"Italy":  {"2020-12-31": 50, "2021-01-01": 55, "2021-01-02": 75, "2021-01-03": 80},
		},
	}
	agg := New(client, registryWith(t, "alice", "France", "Italy"))

	// Half-open range: 3rd excluded, so exactly two date keys per country.
	result, err := agg.CasesPerCountryBetweenDates(context.Background(), "alice",
		date(2021, time.January, 1), date(2021, time.January, 3), models.StatusDeaths)
	if err != nil {
		t.Fatalf("CasesPerCountryBetweenDates() error = %v", err)
	}

	if len(result) != 2 {
		t.Fatalf("len(result) = %d, want 2 countries", len(result))
	}

	france := result["France"]
	if france.Error != "" {
		t.Fatalf("France error marker = %q, want none", france.Error)
	}
	if len(france.Deltas) != 2 {
		t.Fatalf("len(France.Deltas) = %d, want 2", len(france.Deltas))
	}
	if france.Deltas["2021-01-01"] != 10 || france.Deltas["2021-01-02"] != 30 {
		t.Errorf("France deltas = %v, want 2021-01-01:10 2021-01-02:30", france.Deltas)
	}
	if _, ok := france.Deltas["2021-01-03"]; ok {
		t.Error("Range end must be exclusive; 2021-01-03 present")
	}

	italy := result["Italy"]
	if italy.Deltas["2021-01-01"] != 5 || italy.Deltas["2021-01-02"] != 20 {
		t.Errorf("Italy deltas = %v, want 2021-01-01:5 2021-01-02:20", italy.Deltas)
	}
}

func TestCasesPerCountryBetweenDates_Unauthorized(t *testing.T) {
	t.Parallel()

	agg := New(&fakeClient{}, watchlist.NewRegistry())

	_, err := agg.CasesPerCountryBetweenDates(context.Background(), "ghost",
		date(2021, time.January, 1), date(2021, time.January, 3), models.StatusDeaths)
	if !errors.Is(err, watchlist.ErrUnauthorized) {
		t.Errorf("Error = %v, want watchlist.ErrUnauthorized", err)
	}
}

func TestCasesPerCountryBetweenDates_SoftFailureMarker(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		series: map[string]models.DateSeries{
			"France": {"2020-12-31": 90, "2021-01-01": 100},
		},
		failing: map[string]bool{"Italy": true},
	}
	agg := New(client, registryWith(t, "alice", "France", "Italy"))

	result, err := agg.CasesPerCountryBetweenDates(context.Background(), "alice",
		date(2021, time.January, 1), date(2021, time.January, 2), models.StatusConfirmed)
	if err != nil {
		t.Fatalf("One failing country must not abort the join: %v", err)
	}

	if result["France"].Error != "" || result["France"].Deltas["2021-01-01"] != 10 {
		t.Errorf("France = %+v, want clean deltas", result["France"])
	}
	if result["Italy"].Error == "" {
		t.Error("Italy should carry an error marker")
	}
	if len(result["Italy"].Deltas) != 0 {
		t.Errorf("Italy deltas = %v, want none alongside the error marker", result["Italy"].Deltas)
	}
}

func TestCasesPerCountryBetweenDates_GapsOmitted(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		series: map[string]models.DateSeries{
			// 2021-01-02 missing: both the 2nd and the 3rd lack a delta.
			"France": {"2020-12-31": 90, "2021-01-01": 100, "2021-01-03": 200},
		},
	}
	agg := New(client, registryWith(t, "alice", "France"))

	result, err := agg.CasesPerCountryBetweenDates(context.Background(), "alice",
		date(2021, time.January, 1), date(2021, time.January, 4), models.StatusDeaths)
	if err != nil {
		t.Fatalf("CasesPerCountryBetweenDates() error = %v", err)
	}

	deltas := result["France"].Deltas
	if len(deltas) != 1 {
		t.Fatalf("Deltas = %v, want only 2021-01-01", deltas)
	}
	if deltas["2021-01-01"] != 10 {
		t.Errorf("Delta = %d, want 10", deltas["2021-01-01"])
	}
}

func TestCasesPerCountryBetweenDates_EmptyWatchlist(t *testing.T) {
	t.Parallel()

	agg := New(&fakeClient{}, registryWith(t, "alice"))

	result, err := agg.CasesPerCountryBetweenDates(context.Background(), "alice",
		date(2021, time.January, 1), date(2021, time.January, 3), models.StatusDeaths)
	if err != nil {
		t.Fatalf("CasesPerCountryBetweenDates() error = %v", err)
	}
	if len(result) != 0 {
		t.Errorf("Result = %v, want empty map for empty watchlist", result)
	}
}

func TestHighestRatioPerDate(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		series: map[string]models.DateSeries{
			// France: deltas 10, 30; Italy: deltas 5, 40.
			"France": {"2020-12-31": 90, "2021-01-01": 100, "2021-01-02": 130},
			"Italy":  {"2020-12-31": 50, "2021-01-01": 55, "2021-01-02": 95},
		},
		populations: map[string]int64{
			"France": 1000, // ratios: 0.01, 0.03
			"Italy":  100,  // ratios: 0.05, 0.40
		},
	}
	agg := New(client, registryWith(t, "alice", "France", "Italy"))

	result, err := agg.HighestRatioPerDate(context.Background(), "alice",
		date(2021, time.January, 1), date(2021, time.January, 3), models.StatusDeaths)
	if err != nil {
		t.Fatalf("HighestRatioPerDate() error = %v", err)
	}

	if len(result) != 2 {
		t.Fatalf("len(result) = %d, want 2 dates", len(result))
	}
	if got := result["2021-01-01"]; got.Country != "Italy" || got.Ratio != 0.05 {
		t.Errorf("2021-01-01 = %+v, want Italy/0.05", got)
	}
	if got := result["2021-01-02"]; got.Country != "Italy" || got.Ratio != 0.4 {
		t.Errorf("2021-01-02 = %+v, want Italy/0.4", got)
	}
}

func TestHighestRatioPerDate_SingleCountryWinsEverywhere(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		series: map[string]models.DateSeries{
			"France": {
				"2020-12-31": 90,
				"2021-01-01": 100,
				"2021-01-02": 130,
				"2021-01-03": 200,
			},
		},
		populations: map[string]int64{"France": 1000},
	}
	agg := New(client, registryWith(t, "alice", "France"))

	result, err := agg.HighestRatioPerDate(context.Background(), "alice",
		date(2021, time.January, 1), date(2021, time.January, 4), models.StatusDeaths)
	if err != nil {
		t.Fatalf("HighestRatioPerDate() error = %v", err)
	}

	if len(result) != 3 {
		t.Fatalf("len(result) = %d, want 3 dates", len(result))
	}
	for day, pair := range result {
		if pair.Country != "France" {
			t.Errorf("%s = %+v, want France with full data", day, pair)
		}
	}
}

func TestHighestRatioPerDate_SentinelWhenNoData(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		series:      map[string]models.DateSeries{"France": {}},
		populations: map[string]int64{"France": 1000},
	}
	agg := New(client, registryWith(t, "alice", "France"))

	result, err := agg.HighestRatioPerDate(context.Background(), "alice",
		date(2021, time.January, 1), date(2021, time.January, 2), models.StatusDeaths)
	if err != nil {
		t.Fatalf("HighestRatioPerDate() error = %v", err)
	}

	got, ok := result["2021-01-01"]
	if !ok {
		t.Fatal("Expected an entry for every date in the range")
	}
	if !got.Sentinel() {
		t.Errorf("Entry = %+v, want no-data sentinel", got)
	}
	if got.Ratio != models.SentinelRatio {
		t.Errorf("Sentinel ratio = %g, want %g", got.Ratio, models.SentinelRatio)
	}
}

func TestHighestRatioPerDate_FailedCountryExcluded(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		series: map[string]models.DateSeries{
			"France": {"2020-12-31": 90, "2021-01-01": 100},
		},
		populations: map[string]int64{"France": 1000},
		failing:     map[string]bool{"Italy": true},
	}
	agg := New(client, registryWith(t, "alice", "France", "Italy"))

	result, err := agg.HighestRatioPerDate(context.Background(), "alice",
		date(2021, time.January, 1), date(2021, time.January, 2), models.StatusDeaths)
	if err != nil {
		t.Fatalf("One failing country must not abort the reduction: %v", err)
	}
	if got := result["2021-01-01"]; got.Country != "France" {
		t.Errorf("2021-01-01 = %+v, want France (Italy excluded)", got)
	}
}

func TestHighestRatioPerDate_Unauthorized(t *testing.T) {
	t.Parallel()

	agg := New(&fakeClient{}, watchlist.NewRegistry())

	_, err := agg.HighestRatioPerDate(context.Background(), "ghost",
		date(2021, time.January, 1), date(2021, time.January, 2), models.StatusDeaths)
	if !errors.Is(err, watchlist.ErrUnauthorized) {
		t.Errorf("Error = %v, want watchlist.ErrUnauthorized", err)
	}
}

func TestHighestRatioPerDate_EmptyRange(t *testing.T) {
	t.Parallel()

	agg := New(&fakeClient{}, registryWith(t, "alice", "France"))

	result, err := agg.HighestRatioPerDate(context.Background(), "alice",
		date(2021, time.January, 2), date(2021, time.January, 2), models.StatusDeaths)
	if err != nil {
		t.Fatalf("HighestRatioPerDate() error = %v", err)
	}
	if len(result) != 0 {
		t.Errorf("Result = %v, want empty map for from == to", result)
	}
}
