// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

package poller

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/mdspoller/internal/models"
)

// State is the terminal state of one provider poll.
type State string

// Terminal states.
const (
	StateDone    State = "DONE"
	StateFailed  State = "FAILED"
	StateSkipped State = "SKIPPED"
)

// ProviderResult summarises the poll of one provider.
type ProviderResult struct {
	ProviderID     uuid.UUID
	Name           string
	State          State
	Reason         string
	Pages          int
	Records        int
	Dropped        int
	DevicesCreated int
	// Cursor is the last committed position; zero when nothing committed.
	Cursor   models.Cursor
	Duration time.Duration
	Err      error
}

// Label renders the provider as "name (id)".
func (r ProviderResult) Label() string {
	return fmt.Sprintf("%s (%s)", r.Name, r.ProviderID)
}

// Report is the outcome of one run over all selected providers.
type Report struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration
	Results   []ProviderResult
}

// Count returns how many providers ended in state s.
func (r *Report) Count(s State) int {
	n := 0
	for _, res := range r.Results {
		if res.State == s {
			n++
		}
	}
	return n
}

// Failed returns the results of failed providers in run order.
func (r *Report) Failed() []ProviderResult {
	var out []ProviderResult
	for _, res := range r.Results {
		if res.State == StateFailed {
			out = append(out, res)
		}
	}
	return out
}

// Err joins the errors of every failed provider, nil when none failed.
func (r *Report) Err() error {
	var errs []error
	for _, res := range r.Failed() {
		errs = append(errs, fmt.Errorf("%s: %w", res.Label(), res.Err))
	}
	return errors.Join(errs...)
}

// FirstError returns the error of the first failed provider.
func (r *Report) FirstError() error {
	for _, res := range r.Results {
		if res.State == StateFailed {
			return res.Err
		}
	}
	return nil
}
