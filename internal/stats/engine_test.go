// Covidwatch - COVID Statistics Query Facade
// Copyright 2026 Ash B. (ash123)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ash123/covidwatch

package stats

import (
	"math"
	"testing"
	"time"

	"github.com/ash123/covidwatch/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDailyDelta_Basic(t *testing.T) {
	t.Parallel()

	series := models.DateSeries{
		"2021-01-01": 100,
		"2021-01-02": 130,
		"2021-01-03": 130,
	}

	delta, ok := DailyDelta(series, date(2021, time.January, 2))
	if !ok {
		t.Fatal("Expected delta for 2021-01-02")
	}
	if delta != 30 {
		t.Errorf("Delta = %d, want 30", delta)
	}

	delta, ok = DailyDelta(series, date(2021, time.January, 3))
	if !ok {
		t.Fatal("Expected delta for 2021-01-03")
	}
	if delta != 0 {
		t.Errorf("Delta = %d, want 0", delta)
	}
}

func TestDailyDelta_NegativeOnCorrection(t *testing.T) {
	t.Parallel()

	// Upstream occasionally revises cumulative counts downward; the delta
	// must come out negative, not clamped.
	series := models.DateSeries{
		"2021-01-01": 100,
		"2021-01-02": 90,
	}

	delta, ok := DailyDelta(series, date(2021, time.January, 2))
	if !ok {
		t.Fatal("Expected delta despite downward revision")
	}
	if delta != -10 {
		t.Errorf("Delta = %d, want -10", delta)
	}
}

func TestDailyDelta_MissingKeys(t *testing.T) {
	t.Parallel()

	series := models.DateSeries{
		"2021-01-02": 130,
	}

	// Prior day absent.
	if _, ok := DailyDelta(series, date(2021, time.January, 2)); ok {
		t.Error("Expected no delta when the prior day is missing")
	}
	// Requested day absent.
	if _, ok := DailyDelta(series, date(2021, time.January, 5)); ok {
		t.Error("Expected no delta when the requested day is missing")
	}
	// Empty series (unknown country upstream).
	if _, ok := DailyDelta(models.DateSeries{}, date(2021, time.January, 2)); ok {
		t.Error("Expected no delta for an empty series")
	}
}

func TestPerCapitaRatio_Basic(t *testing.T) {
	t.Parallel()

	ratio := PerCapitaRatio(30, 1000000)
	if ratio != 0.00003 {
		t.Errorf("Ratio = %g, want 0.00003", ratio)
	}
	if r := PerCapitaRatio(0, 1000000); r != 0 {
		t.Errorf("Ratio for zero delta = %g, want 0", r)
	}
}

func TestPerCapitaRatio_ZeroPopulation(t *testing.T) {
	t.Parallel()

	// IEEE754 semantics, never a panic.
	if r := PerCapitaRatio(30, 0); !math.IsInf(r, 1) {
		t.Errorf("Ratio = %g, want +Inf", r)
	}
	if r := PerCapitaRatio(-30, 0); !math.IsInf(r, -1) {
		t.Errorf("Ratio = %g, want -Inf", r)
	}
	if r := PerCapitaRatio(0, 0); !math.IsNaN(r) {
		t.Errorf("Ratio = %g, want NaN", r)
	}
}

func TestHighestRatio_Empty(t *testing.T) {
	t.Parallel()

	best := HighestRatio(nil)
	if !best.Sentinel() {
		t.Errorf("Expected sentinel for empty input, got %+v", best)
	}
	if best.Ratio != models.SentinelRatio {
		t.Errorf("Sentinel ratio = %g, want %g", best.Ratio, models.SentinelRatio)
	}
}

func TestHighestRatio_PicksMaximum(t *testing.T) {
	t.Parallel()

	best := HighestRatio([]models.CountryRatio{
		{Country: "France", Ratio: 0.002},
		{Country: "Italy", Ratio: 0.005},
		{Country: "Spain", Ratio: 0.001},
	})
	if best.Country != "Italy" || best.Ratio != 0.005 {
		t.Errorf("Best = %+v, want Italy/0.005", best)
	}
}

func TestHighestRatio_NegativeRatiosBeatSentinel(t *testing.T) {
	t.Parallel()

	// Any real pair must win, even with a negative ratio (downward revision).
	best := HighestRatio([]models.CountryRatio{
		{Country: "France", Ratio: -0.004},
		{Country: "Italy", Ratio: -0.001},
	})
	if best.Country != "Italy" {
		t.Errorf("Best = %+v, want Italy", best)
	}
}

func TestHighestRatio_TieKeepsFirst(t *testing.T) {
	t.Parallel()

	best := HighestRatio([]models.CountryRatio{
		{Country: "France", Ratio: 0.003},
		{Country: "Italy", Ratio: 0.003},
	})
	if best.Country != "France" {
		t.Errorf("Best = %+v, want first pair France on tie", best)
	}
}

func TestHighestRatio_InfBeatsFinite(t *testing.T) {
	t.Parallel()

	// Zero-population country yields +Inf; it wins the max-search.
	best := HighestRatio([]models.CountryRatio{
		{Country: "France", Ratio: 0.003},
		{Country: "Vatican", Ratio: math.Inf(1)},
	})
	if best.Country != "Vatican" {
		t.Errorf("Best = %+v, want Vatican with +Inf", best)
	}
}

func TestDaysBetween_HalfOpen(t *testing.T) {
	t.Parallel()

	days := DaysBetween(date(2021, time.January, 1), date(2021, time.January, 4))
	if len(days) != 3 {
		t.Fatalf("len(days) = %d, want 3", len(days))
	}
	want := []string{"2021-01-01", "2021-01-02", "2021-01-03"}
	for i, d := range days {
		if got := d.Format(models.ISODate); got != want[i] {
			t.Errorf("days[%d] = %s, want %s", i, got, want[i])
		}
	}
}

func TestDaysBetween_EmptyAndInverted(t *testing.T) {
	t.Parallel()

	if days := DaysBetween(date(2021, time.January, 4), date(2021, time.January, 4)); days != nil {
		t.Errorf("Expected nil for from == to, got %v", days)
	}
	if days := DaysBetween(date(2021, time.January, 5), date(2021, time.January, 4)); days != nil {
		t.Errorf("Expected nil for inverted range, got %v", days)
	}
}

func TestDaysBetween_CrossesMonthBoundary(t *testing.T) {
	t.Parallel()

	days := DaysBetween(date(2021, time.January, 30), date(2021, time.February, 2))
	if len(days) != 3 {
		t.Fatalf("len(days) = %d, want 3", len(days))
	}
	if got := days[2].Format(models.ISODate); got != "2021-02-01" {
		t.Errorf("days[2] = %s, want 2021-02-01", got)
	}
}
