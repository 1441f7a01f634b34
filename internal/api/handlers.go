// Covidwatch - COVID Statistics Query Facade
// Copyright 2026 Ash B. (ash123)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ash123/covidwatch

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/ash123/covidwatch/internal/aggregate"
	"github.com/ash123/covidwatch/internal/models"
	"github.com/ash123/covidwatch/internal/watchlist"
)

// Handler holds the dependencies of every endpoint handler.
type Handler struct {
	agg       *aggregate.Aggregator
	registry  *watchlist.Registry
	startTime time.Time
}

// NewHandler creates a Handler.
func NewHandler(agg *aggregate.Aggregator, registry *watchlist.Registry) *Handler {
	return &Handler{
		agg:       agg,
		registry:  registry,
		startTime: time.Now(),
	}
}

// dailyCasesParams are the parameters of /1/daily-new-confirmed-cases.
type dailyCasesParams struct {
	Country string `validate:"required"`
	Date    string `validate:"required,datetime=02-01-2006"`
}

// userParams are the parameters of the registry operations.
type userParams struct {
	User string `validate:"required"`
}

// userCountryParams are the parameters of add-country / remove-country.
type userCountryParams struct {
	User    string `validate:"required"`
	Country string `validate:"required"`
}

// rangeParams are the parameters of every between-dates operation.
// The range is half-open: [From, To).
type rangeParams struct {
	User string `validate:"required"`
	From string `validate:"required,datetime=02-01-2006"`
	To   string `validate:"required,datetime=02-01-2006"`
}

// parseRange validates and parses rangeParams, writing the 400 response on
// failure. A To before From is rejected; To equal to From is an empty range.
func parseRange(w http.ResponseWriter, r *http.Request) (user string, from, to time.Time, ok bool) {
	q := r.URL.Query()
	params := rangeParams{
		User: q.Get("user"),
		From: q.Get("from"),
		To:   q.Get("to"),
	}
	if !validateRequest(w, &params) {
		return "", time.Time{}, time.Time{}, false
	}

	from, _ = parseDate(params.From)
	to, _ = parseDate(params.To)
	if to.Before(from) {
		respondError(w, http.StatusBadRequest, CodeValidation, "to must not be before from", nil)
		return "", time.Time{}, time.Time{}, false
	}
	return params.User, from, to, true
}

// DailyNewCases handles /1/daily-new-confirmed-cases.
//
// @Summary Daily new cases for one country
// @Description Returns the delta between the cumulative counts of the given date and the prior day.
// @Tags Queries
// @Produce json
// @Param country query string true "Country code"
// @Param date query string true "Date (dd-MM-yyyy)"
// @Success 200 {object} models.APIResponse
// @Router /1/daily-new-confirmed-cases [get]
func (h *Handler) DailyNewCases(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := dailyCasesParams{
		Country: q.Get("country"),
		Date:    q.Get("date"),
	}
	if !validateRequest(w, &params) {
		return
	}
	day, _ := parseDate(params.Date)

	start := time.Now()
	delta, err := h.agg.DailyNewCases(r.Context(), params.Country, day)
	if err != nil {
		if errors.Is(err, aggregate.ErrNoData) {
			respondError(w, http.StatusNotFound, CodeDataUnavailable, "no upstream data for the requested date", err)
			return
		}
		respondError(w, http.StatusBadGateway, CodeUpstreamError, "statistics API unavailable", err)
		return
	}

	respondSuccess(w, map[string]interface{}{
		"country":   params.Country,
		"date":      day.Format(models.ISODate),
		"new_cases": delta,
	}, time.Since(start))
}

// Register handles /2/register. Idempotent; never fails.
//
// @Summary Register a user
// @Tags Watchlist
// @Produce json
// @Param user query string true "User identifier"
// @Success 200 {object} models.APIResponse
// @Router /2/register [get]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	params := userParams{User: r.URL.Query().Get("user")}
	if !validateRequest(w, &params) {
		return
	}

	h.registry.Register(params.User)
	respondSuccess(w, nil, 0)
}

// AddCountry handles /2/add-country.
//
// @Summary Track a country for a user
// @Tags Watchlist
// @Produce json
// @Param user query string true "User identifier"
// @Param country query string true "Country code"
// @Success 200 {object} models.APIResponse
// @Failure 401 {object} models.APIResponse "User never registered"
// @Router /2/add-country [get]
func (h *Handler) AddCountry(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := userCountryParams{
		User:    q.Get("user"),
		Country: q.Get("country"),
	}
	if !validateRequest(w, &params) {
		return
	}

	if err := h.registry.AddCountry(params.User, params.Country); err != nil {
		respondError(w, http.StatusUnauthorized, CodeUnauthorized, "user is not registered", err)
		return
	}
	respondSuccess(w, nil, 0)
}

// RemoveCountry handles /2/remove-country.
//
// @Summary Stop tracking a country for a user
// @Tags Watchlist
// @Produce json
// @Param user query string true "User identifier"
// @Param country query string true "Country code"
// @Success 200 {object} models.APIResponse
// @Failure 401 {object} models.APIResponse "User never registered"
// @Router /2/remove-country [get]
func (h *Handler) RemoveCountry(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := userCountryParams{
		User:    q.Get("user"),
		Country: q.Get("country"),
	}
	if !validateRequest(w, &params) {
		return
	}

	if err := h.registry.RemoveCountry(params.User, params.Country); err != nil {
		respondError(w, http.StatusUnauthorized, CodeUnauthorized, "user is not registered", err)
		return
	}
	respondSuccess(w, nil, 0)
}

// GetCountries handles /2/get-countries.
//
// @Summary List a user's tracked countries
// @Tags Watchlist
// @Produce json
// @Param user query string true "User identifier"
// @Success 200 {object} models.APIResponse
// @Failure 401 {object} models.APIResponse "User never registered"
// @Router /2/get-countries [get]
func (h *Handler) GetCountries(w http.ResponseWriter, r *http.Request) {
	params := userParams{User: r.URL.Query().Get("user")}
	if !validateRequest(w, &params) {
		return
	}

	countries, err := h.registry.Countries(params.User)
	if err != nil {
		respondError(w, http.StatusUnauthorized, CodeUnauthorized, "user is not registered", err)
		return
	}
	respondSuccess(w, countries, 0)
}

// casesPerCountry is the shared implementation of the two between-dates
// endpoints; status selects the upstream series.
func (h *Handler) casesPerCountry(w http.ResponseWriter, r *http.Request, status models.Status) {
	user, from, to, ok := parseRange(w, r)
	if !ok {
		return
	}

	start := time.Now()
	result, err := h.agg.CasesPerCountryBetweenDates(r.Context(), user, from, to, status)
	if err != nil {
		if errors.Is(err, watchlist.ErrUnauthorized) {
			respondError(w, http.StatusUnauthorized, CodeUnauthorized, "user is not registered", err)
			return
		}
		respondError(w, http.StatusBadGateway, CodeUpstreamError, "statistics API unavailable", err)
		return
	}
	respondSuccess(w, result, time.Since(start))
}

// DeathsPerCountryBetweenDates handles /2/get-deaths-per-country-between-dates.
//
// @Summary Daily death deltas per tracked country over a date range
// @Tags Queries
// @Produce json
// @Param user query string true "User identifier"
// @Param from query string true "Range start, inclusive (dd-MM-yyyy)"
// @Param to query string true "Range end, exclusive (dd-MM-yyyy)"
// @Success 200 {object} models.APIResponse
// @Failure 401 {object} models.APIResponse "User never registered"
// @Router /2/get-deaths-per-country-between-dates [get]
func (h *Handler) DeathsPerCountryBetweenDates(w http.ResponseWriter, r *http.Request) {
	h.casesPerCountry(w, r, models.StatusDeaths)
}

// ConfirmedPerCountryBetweenDates handles /2/get-confirmed-per-country-between-dates.
//
// @Summary Daily confirmed-case deltas per tracked country over a date range
// @Tags Queries
// @Produce json
// @Param user query string true "User identifier"
// @Param from query string true "Range start, inclusive (dd-MM-yyyy)"
// @Param to query string true "Range end, exclusive (dd-MM-yyyy)"
// @Success 200 {object} models.APIResponse
// @Failure 401 {object} models.APIResponse "User never registered"
// @Router /2/get-confirmed-per-country-between-dates [get]
func (h *Handler) ConfirmedPerCountryBetweenDates(w http.ResponseWriter, r *http.Request) {
	h.casesPerCountry(w, r, models.StatusConfirmed)
}

// highestRatio is the shared implementation of the two highest-per-capita
// endpoints; status selects the upstream series.
func (h *Handler) highestRatio(w http.ResponseWriter, r *http.Request, status models.Status) {
	user, from, to, ok := parseRange(w, r)
	if !ok {
		return
	}

	start := time.Now()
	result, err := h.agg.HighestRatioPerDate(r.Context(), user, from, to, status)
	if err != nil {
		if errors.Is(err, watchlist.ErrUnauthorized) {
			respondError(w, http.StatusUnauthorized, CodeUnauthorized, "user is not registered", err)
			return
		}
		respondError(w, http.StatusBadGateway, CodeUpstreamError, "statistics API unavailable", err)
		return
	}
	respondSuccess(w, result, time.Since(start))
}

// HighestDeathsRelative handles /2/get-highest-deaths-cases-relative-to-country.
//
// @Summary Tracked country with the highest per-capita death delta, per date
// @Tags Queries
// @Produce json
// @Param user query string true "User identifier"
// @Param from query string true "Range start, inclusive (dd-MM-yyyy)"
// @Param to query string true "Range end, exclusive (dd-MM-yyyy)"
// @Success 200 {object} models.APIResponse
// @Failure 401 {object} models.APIResponse "User never registered"
// @Router /2/get-highest-deaths-cases-relative-to-country [get]
func (h *Handler) HighestDeathsRelative(w http.ResponseWriter, r *http.Request) {
	h.highestRatio(w, r, models.StatusDeaths)
}

// HighestConfirmedRelative handles /2/get-highest-confirmed-cases-relative-to-country.
//
// @Summary Tracked country with the highest per-capita confirmed delta, per date
// @Tags Queries
// @Produce json
// @Param user query string true "User identifier"
// @Param from query string true "Range start, inclusive (dd-MM-yyyy)"
// @Param to query string true "Range end, exclusive (dd-MM-yyyy)"
// @Success 200 {object} models.APIResponse
// @Failure 401 {object} models.APIResponse "User never registered"
// @Router /2/get-highest-confirmed-cases-relative-to-country [get]
func (h *Handler) HighestConfirmedRelative(w http.ResponseWriter, r *http.Request) {
	h.highestRatio(w, r, models.StatusConfirmed)
}

// Health handles /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, map[string]interface{}{
		"status":  "healthy",
		"users":   h.registry.Users(),
		"uptime":  time.Since(h.startTime).Seconds(),
		"version": "1.0.0",
	}, 0)
}

// HealthLive handles /health/live (Kubernetes-style liveness probe).
// Returns 200 if the process is alive, regardless of dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	}, 0)
}

// HealthReady handles /health/ready (Kubernetes-style readiness probe).
// The service holds no connections that need warm-up; ready once serving.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, map[string]interface{}{
		"ready": true,
	}, 0)
}
