// VODCache - Video Delivery Cache Capacity Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vodcache

package catalog

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/vodcache/internal/logging"
	"github.com/tomtom215/vodcache/internal/metrics"
	"github.com/tomtom215/vodcache/internal/models"
)

// CircuitBreakerFetcher wraps a Fetcher with the circuit breaker pattern so a
// failing metadata service is not hammered by every worker.
//
// While the circuit is open, fetches fail immediately and the catalog stores
// placeholders for the affected ids.
//
// Circuit breaker configuration:
//   - Max 3 concurrent requests in half-open state
//   - 1 minute measurement window
//   - 30 second timeout before attempting recovery
//   - Opens after 60% failure rate with minimum 10 requests
//
// Not-found answers count as successes: the service is healthy, the asset
// just does not exist.
type CircuitBreakerFetcher struct {
	fetcher Fetcher
	cb      *gobreaker.CircuitBreaker[models.Asset]
	name    string
}

// NewCircuitBreakerFetcher wraps fetcher. name labels logs and metrics.
func NewCircuitBreakerFetcher(name string, fetcher Fetcher) *CircuitBreakerFetcher {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[models.Asset](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}

			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6

			if shouldTrip {
				logging.Warn().Str("breaker", name).Uint32("failures", counts.TotalFailures).Float64("failure_rate", failureRatio*100).Msg("[CIRCUIT BREAKER] Opening circuit")
			}

			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},

		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},
	})

	return &CircuitBreakerFetcher{fetcher: fetcher, cb: cb, name: name}
}

// Fetch implements Fetcher.
func (f *CircuitBreakerFetcher) Fetch(ctx context.Context, id string) (models.Asset, error) {
	asset, err := f.cb.Execute(func() (models.Asset, error) {
		return f.fetcher.Fetch(ctx, id)
	})

	switch {
	case errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(f.name, "rejected").Inc()
	case err != nil && !errors.Is(err, ErrNotFound):
		metrics.CircuitBreakerRequests.WithLabelValues(f.name, "failure").Inc()
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(f.name, "success").Inc()
	}
	return asset, err
}

// State returns the current breaker state.
func (f *CircuitBreakerFetcher) State() gobreaker.State {
	return f.cb.State()
}

// stateToFloat converts circuit breaker state to numeric value for metrics
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// stateToString converts circuit breaker state to string for logging
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
