// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

package fetcher

import (
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/mdspoller/internal/logging"
	"github.com/tomtom215/mdspoller/internal/metrics"
	"github.com/tomtom215/mdspoller/internal/models"
)

// ErrCircuitOpen is returned while a provider's circuit breaker rejects requests.
var ErrCircuitOpen = errors.New("circuit breaker open")

// BreakerSettings tunes the per-provider circuit breakers.
type BreakerSettings struct {
	// Failures is the number of consecutive failed requests that opens the
	// circuit. Zero disables the breaker.
	Failures uint32
	// Timeout is how long the circuit stays open before a trial request.
	Timeout time.Duration
	// MaxRequests is the number of trial requests allowed while half-open.
	MaxRequests uint32
}

// DefaultBreakerSettings opens after 5 consecutive failures and tries again
// after 2 minutes.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		Failures:    5,
		Timeout:     2 * time.Minute,
		MaxRequests: 1,
	}
}

type breaker struct {
	name string
	cb   *gobreaker.CircuitBreaker[*models.Body]
}

// newBreaker creates the breaker of one provider. Counts are never reset
// while closed, so failures accumulate across polling runs.
func newBreaker(name string, s BreakerSettings) *breaker {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[*models.Body](gobreaker.Settings{
		Name:        name,
		MaxRequests: s.MaxRequests,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			trip := counts.ConsecutiveFailures >= s.Failures
			if trip {
				logging.Warn().
					Str("breaker", name).
					Uint32("consecutive_failures", counts.ConsecutiveFailures).
					Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return trip
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", stateToString(from)).
				Str("to", stateToString(to)).
				Msg("[CIRCUIT BREAKER] State transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, stateToString(from), stateToString(to)).Inc()
		},
		IsSuccessful: countsAsSuccess,
	})
	return &breaker{name: name, cb: cb}
}

// countsAsSuccess keeps cancellations and payload problems from tripping
// the breaker: only transport, HTTP status and auth failures count.
func countsAsSuccess(err error) bool {
	if err == nil {
		return true
	}
	switch models.KindOf(err) {
	case models.KindFetch, models.KindAuth:
		return false
	default:
		return true
	}
}

func (b *breaker) execute(rawURL string, fn func() (*models.Body, error)) (*models.Body, error) {
	body, err := b.cb.Execute(fn)
	counts := b.cb.Counts()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(float64(counts.ConsecutiveFailures))

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
		return nil, models.NewPollError(models.KindFetch, rawURL, ErrCircuitOpen)
	case countsAsSuccess(err):
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
	}
	return body, err
}

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
