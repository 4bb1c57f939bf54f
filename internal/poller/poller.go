// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

package poller

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/mdspoller/internal/cursor"
	"github.com/tomtom215/mdspoller/internal/database"
	"github.com/tomtom215/mdspoller/internal/logging"
	"github.com/tomtom215/mdspoller/internal/metrics"
	"github.com/tomtom215/mdspoller/internal/models"
)

// MaxWorkers bounds the number of providers polled concurrently.
const MaxWorkers = 16

// Fetcher retrieves one decoded page of a provider API.
type Fetcher interface {
	Get(ctx context.Context, p *models.Provider, rawURL string) (*models.Body, error)
}

// Store is the part of the record store the poller needs.
type Store interface {
	ListProviders(ctx context.Context) ([]*models.Provider, error)
	WithTx(ctx context.Context, fn func(ctx context.Context, tx *database.Tx) error) error
}

// Backfill polls an explicit cursor range instead of the persisted cursor.
// The provider's persisted cursor is left untouched.
type Backfill struct {
	From models.Cursor
	To   models.Cursor
}

// Options configures a Poller.
type Options struct {
	// Workers is the number of providers polled concurrently, 1 when unset.
	Workers int
	// CreateRegisterEvents synthesizes a register event for new devices.
	CreateRegisterEvents bool
	// ProviderIDs limits a run to these providers when not empty.
	ProviderIDs []uuid.UUID
	Backfill    *Backfill
}

// Poller pulls status changes from every registered provider.
type Poller struct {
	store   Store
	fetcher Fetcher
	engine  *cursor.Engine
	opts    Options
}

// New creates a Poller.
func New(store Store, fetcher Fetcher, engine *cursor.Engine, opts Options) *Poller {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Workers > MaxWorkers {
		opts.Workers = MaxWorkers
	}
	return &Poller{store: store, fetcher: fetcher, engine: engine, opts: opts}
}

// Run polls the selected providers once. Provider failures are reported in
// the Report; the error is only set when the run could not start.
func (p *Poller) Run(ctx context.Context) (*Report, error) {
	if logging.RunIDFromContext(ctx) == "" {
		ctx = logging.ContextWithNewRunID(ctx)
	}
	log := logging.Ctx(ctx)
	started := time.Now()

	providers, err := p.store.ListProviders(ctx)
	if err != nil {
		return nil, models.NewPollError(models.KindStore, "", fmt.Errorf("failed to list providers: %w", err))
	}
	providers, err = p.selectProviders(providers)
	if err != nil {
		return nil, err
	}

	log.Info().Int("providers", len(providers)).Int("workers", p.opts.Workers).Msg("Poller run started")

	results := make([]ProviderResult, len(providers))
	var g errgroup.Group
	g.SetLimit(p.opts.Workers)
	for i, provider := range providers {
		g.Go(func() error {
			results[i] = p.pollProvider(ctx, provider)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	report := &Report{
		RunID:     logging.RunIDFromContext(ctx),
		StartedAt: started.UTC(),
		Duration:  time.Since(started),
		Results:   results,
	}
	failed := report.Count(StateFailed)
	metrics.RecordRun(report.Duration, len(providers), failed)

	log.Info().
		Int("done", report.Count(StateDone)).
		Int("skipped", report.Count(StateSkipped)).
		Int("failed", failed).
		Dur("duration", report.Duration).
		Msg("Poller run finished")
	return report, nil
}

// selectProviders applies the ProviderIDs filter, keeping registry order.
func (p *Poller) selectProviders(all []*models.Provider) ([]*models.Provider, error) {
	if len(p.opts.ProviderIDs) == 0 {
		return all, nil
	}
	wanted := make(map[uuid.UUID]bool, len(p.opts.ProviderIDs))
	for _, id := range p.opts.ProviderIDs {
		wanted[id] = true
	}

	var selected []*models.Provider
	for _, provider := range all {
		if wanted[provider.ID] {
			selected = append(selected, provider)
			delete(wanted, provider.ID)
		}
	}
	for id := range wanted {
		return nil, models.NewPollError(models.KindConfig, "", fmt.Errorf("%w: %s", database.ErrProviderNotFound, id))
	}
	return selected, nil
}
