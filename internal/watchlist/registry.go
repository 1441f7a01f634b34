// Covidwatch - COVID Statistics Query Facade
// Copyright 2026 Ash B. (ash123)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ash123/covidwatch

// Package watchlist holds the per-user registry of tracked countries. The
// registry is the only mutable shared state in the process; it is volatile
// and lost on restart.
package watchlist

import (
	"errors"
	"sort"
	"sync"

	"github.com/ash123/covidwatch/internal/metrics"
)

// ErrUnauthorized is returned by every operation other than Register when
// the user identifier was never registered. A registered user with an empty
// country set is not unauthorized.
var ErrUnauthorized = errors.New("user is not registered")

// Registry maps user identifiers to sets of country codes. All operations
// are atomic per user and safe for concurrent use across users.
type Registry struct {
	mu    sync.RWMutex
	users map[string]map[string]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		users: make(map[string]map[string]struct{}),
	}
}

// Register ensures an entry for the user exists with an empty country set.
// Idempotent; never fails.
func (r *Registry) Register(user string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user]; !ok {
		r.users[user] = make(map[string]struct{})
		metrics.WatchlistUsers.Set(float64(len(r.users)))
	}
}

// AddCountry inserts a country into the user's set. Idempotent.
// Returns ErrUnauthorized if the user was never registered.
func (r *Registry) AddCountry(user, country string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.users[user]
	if !ok {
		return ErrUnauthorized
	}
	set[country] = struct{}{}
	return nil
}

// RemoveCountry removes a country from the user's set; no-op when the
// country is absent. Returns ErrUnauthorized if the user was never registered.
func (r *Registry) RemoveCountry(user, country string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.users[user]
	if !ok {
		return ErrUnauthorized
	}
	delete(set, country)
	return nil
}

// Countries returns a sorted snapshot of the user's tracked countries.
// The snapshot is a copy; later registry mutations never alias into it.
// Returns ErrUnauthorized if the user was never registered.
func (r *Registry) Countries(user string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, ok := r.users[user]
	if !ok {
		return nil, ErrUnauthorized
	}

	countries := make([]string, 0, len(set))
	for c := range set {
		countries = append(countries, c)
	}
	sort.Strings(countries)
	return countries, nil
}

// Users returns the number of registered users.
func (r *Registry) Users() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}
