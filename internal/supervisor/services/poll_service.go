// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/mdspoller/internal/logging"
	"github.com/tomtom215/mdspoller/internal/poller"
)

// Runner performs one poller run. Satisfied by *poller.Poller.
type Runner interface {
	Run(ctx context.Context) (*poller.Report, error)
}

// PollService runs the poller once on start and then every interval.
//
// Provider failures are logged and do not stop the service. An error from
// Run itself (the provider list could not be read) is returned so the
// supervisor restarts the service with backoff.
type PollService struct {
	runner     Runner
	interval   time.Duration
	runTimeout time.Duration
	name       string

	// onReport is called after every completed run; used by tests.
	onReport func(*poller.Report)
}

// NewPollService creates a poll service. A non-positive interval becomes
// 5 minutes. A zero runTimeout means runs have no deadline.
func NewPollService(runner Runner, interval, runTimeout time.Duration) *PollService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &PollService{
		runner:     runner,
		interval:   interval,
		runTimeout: runTimeout,
		name:       "provider-poller",
	}
}

// Serve implements suture.Service.
func (s *PollService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := s.runOnce(ctx); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *PollService) runOnce(ctx context.Context) error {
	runCtx := ctx
	if s.runTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.runTimeout)
		defer cancel()
	}

	report, err := s.runner.Run(runCtx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// A run that hit its own deadline is retried on the next tick.
		if errors.Is(err, context.DeadlineExceeded) {
			logging.Warn().Dur("run_timeout", s.runTimeout).Msg("Poller run timed out")
			return nil
		}
		return fmt.Errorf("poller run failed: %w", err)
	}

	for _, res := range report.Failed() {
		logging.Error().
			Err(res.Err).
			Str("run_id", report.RunID).
			Str("provider", res.Label()).
			Msg("Provider poll failed")
	}
	if s.onReport != nil {
		s.onReport(report)
	}
	return nil
}

func (s *PollService) String() string {
	return s.name
}
