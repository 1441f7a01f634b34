// Covidwatch - COVID Statistics Query Facade
// Copyright 2026 Ash B. (ash123)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ash123/covidwatch

// Package main is the entry point for the Covidwatch server.
//
// Covidwatch is a thin query facade over the public COVID-19 statistics API
// at covid-api.mmediagroup.fr. It keeps per-user country watchlists in memory
// and answers derived queries over the upstream cumulative series: daily
// deltas, per-country deltas over a date range, and the tracked country with
// the highest per-capita delta for each date in a range.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: Load settings from environment variables and config files (Koanf v2)
//  2. Upstream client: HTTP client for the statistics API, with retry/backoff
//     and an optional circuit breaker
//  3. Watchlist registry: in-memory per-user tracked-country sets
//  4. Aggregator: concurrent fan-out over tracked countries
//  5. HTTP server: Chi router with the /1 and /2 query surfaces
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest priority wins):
//   - Environment variables (COVIDWATCH_HTTP_PORT, COVIDWATCH_COVID_API_URL, ...)
//   - Config file (config.yaml, or CONFIG_PATH)
//   - Built-in defaults
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops accepting new connections
//   - Waits for in-flight requests to complete (shutdown timeout)
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ash123/covidwatch/internal/aggregate"
	"github.com/ash123/covidwatch/internal/api"
	"github.com/ash123/covidwatch/internal/config"
	"github.com/ash123/covidwatch/internal/covid"
	"github.com/ash123/covidwatch/internal/logging"
	"github.com/ash123/covidwatch/internal/watchlist"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize zerolog with configuration
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("upstream_url", cfg.Upstream.BaseURL).
		Bool("breaker_enabled", cfg.Upstream.Breaker.Enabled).
		Msg("Configuration loaded")

	// Upstream client, optionally wrapped in a circuit breaker and a
	// response cache. The cache sits outermost so hits skip the breaker.
	var client covid.StatsClient = covid.NewClient(&cfg.Upstream)
	if cfg.Upstream.Breaker.Enabled {
		client = covid.NewCircuitBreakerClient(client, &cfg.Upstream.Breaker)
		logging.Info().Msg("Circuit breaker enabled for upstream calls")
	}
	if cfg.Upstream.CacheTTL > 0 {
		client = covid.NewCachedClient(client, cfg.Upstream.CacheTTL)
		logging.Info().Dur("ttl", cfg.Upstream.CacheTTL).Msg("Upstream response cache enabled")
	}

	registry := watchlist.NewRegistry()
	agg := aggregate.New(client, registry)

	handler := api.NewHandler(agg, registry)
	router := api.NewRouter(handler, &cfg.API)

	server := &http.Server{
		Addr:         cfg.Server.ListenAddr(),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Run the server; errors other than graceful close are fatal.
	serverErr := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		serverErr <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("HTTP server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("Graceful shutdown failed, forcing close")
		if err := server.Close(); err != nil {
			logging.Error().Err(err).Msg("Forced close failed")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}
