// Covidwatch - COVID Statistics Query Facade
// Copyright 2026 Ash B. (ash123)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ash123/covidwatch

package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ash123/covidwatch/internal/config"
	"github.com/ash123/covidwatch/internal/middleware"
)

// Router assembles the HTTP routes of the query surface.
type Router struct {
	handler *Handler
	cfg     *config.APIConfig
}

// NewRouter creates a Router.
func NewRouter(handler *Handler, cfg *config.APIConfig) *Router {
	return &Router{
		handler: handler,
		cfg:     cfg,
	}
}

// Setup configures all HTTP routes using Chi: /1/* for the unscoped query,
// /2/* for the user-scoped watchlist and aggregate operations.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: router.cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}))

	// The whole surface is GET-only; reject other methods with the same
	// machine-readable envelope the handlers use.
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed,
			fmt.Sprintf("method %s is not allowed", r.Method), nil)
	})

	// Operational endpoints: no rate limiting so monitoring stays cheap.
	r.Route("/health", func(r chi.Router) {
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Query surface: per-IP rate limited and instrumented. The limit
	// protects this service only; upstream calls are never throttled.
	r.Group(func(r chi.Router) {
		r.Use(httprate.LimitByIP(router.cfg.RateLimitReqs, router.cfg.RateLimitWindow))
		r.Use(middleware.PrometheusMetrics)

		r.Get("/1/daily-new-confirmed-cases", router.handler.DailyNewCases)

		r.Route("/2", func(r chi.Router) {
			r.Get("/register", router.handler.Register)
			r.Get("/add-country", router.handler.AddCountry)
			r.Get("/remove-country", router.handler.RemoveCountry)
			r.Get("/get-countries", router.handler.GetCountries)
			r.Get("/get-deaths-per-country-between-dates", router.handler.DeathsPerCountryBetweenDates)
			r.Get("/get-confirmed-per-country-between-dates", router.handler.ConfirmedPerCountryBetweenDates)
			r.Get("/get-highest-deaths-cases-relative-to-country", router.handler.HighestDeathsRelative)
			r.Get("/get-highest-confirmed-cases-relative-to-country", router.handler.HighestConfirmedRelative)
		})
	})

	return r
}
