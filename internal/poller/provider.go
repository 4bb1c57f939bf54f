// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

package poller

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/mdspoller/internal/cursor"
	"github.com/tomtom215/mdspoller/internal/database"
	"github.com/tomtom215/mdspoller/internal/logging"
	"github.com/tomtom215/mdspoller/internal/metrics"
	"github.com/tomtom215/mdspoller/internal/models"
	"github.com/tomtom215/mdspoller/internal/translate"
	"github.com/tomtom215/mdspoller/internal/validation"
)

// pollProvider runs the page loop of one provider. It never panics on a
// provider error: every failure ends up in the returned result.
func (p *Poller) pollProvider(ctx context.Context, provider *models.Provider) (res ProviderResult) {
	started := time.Now()
	res = ProviderResult{ProviderID: provider.ID, Name: provider.Name}
	ctx = logging.ContextWithProvider(ctx, provider.ID.String(), provider.Name)
	log := logging.Ctx(ctx)

	defer func() {
		res.Duration = time.Since(started)
		kind := ""
		if res.Err != nil {
			kind = string(models.KindOf(res.Err))
		}
		metrics.RecordProviderPoll(provider.Name, string(res.State), kind, res.Duration)
	}()

	fail := func(err error) ProviderResult {
		res.State = StateFailed
		res.Err = err
		log.Error().Err(err).Str("kind", string(models.KindOf(err))).
			Int("pages", res.Pages).Msg("Provider poll failed")
		return res
	}
	skip := func(reason string) ProviderResult {
		res.State = StateSkipped
		res.Reason = reason
		return res
	}

	if provider.BaseAPIURL == "" {
		log.Debug().Msg("Provider has no base_api_url, skipping")
		return skip("no base_api_url")
	}
	if err := provider.Validate(); err != nil {
		return fail(models.NewPollError(models.KindConfig, "", err))
	}

	var pos models.Cursor
	if bf := p.opts.Backfill; bf != nil {
		pos = bf.From
	} else {
		gated, lag, err := p.engine.UnderLag(provider)
		if err != nil {
			return fail(err)
		}
		if gated {
			log.Info().Dur("lag", lag).Msg("Provider is within its polling lag, skipping")
			return skip("polling lag")
		}
		pos = p.engine.Position(provider)
	}

	req, err := p.engine.Plan(provider, pos)
	if err != nil {
		return fail(err)
	}
	log.Info().Str("cursor", pos.String()).Str("endpoint", req.Endpoint).Msg("Polling provider")

	pageURL := req.URL
	for pageURL != "" {
		if err := ctx.Err(); err != nil {
			return fail(models.NewPollError(models.KindCancelled, pageURL, err))
		}

		body, err := p.fetcher.Get(ctx, provider, pageURL)
		if err != nil {
			return fail(err)
		}
		if _, err := translate.Translate(body); err != nil {
			return fail(models.NewPollError(models.KindUnsupportedVersion, pageURL, err))
		}

		entries, ok := body.StatusChanges()
		if !ok {
			return fail(models.NewPollError(models.KindMalformedBody, pageURL, models.ErrMissingStatusChanges))
		}
		if len(entries) == 0 && !req.Archive {
			log.Debug().Str("url", logging.SanitizeURL(pageURL)).Msg("Empty page, nothing more to poll")
			break
		}

		page := validation.StatusChanges(ctx, entries, validation.Options{SwapLngLat: provider.Configuration.SwapLngLat})
		next, advance := p.engine.Advance(req, pos, cursor.Page{
			Size:         len(entries),
			MaxEventTime: page.MaxEventTime,
			MaxRecorded:  page.MaxRecorded,
		})

		var stats pageStats
		err = p.store.WithTx(ctx, func(ctx context.Context, tx *database.Tx) error {
			var err error
			stats, err = p.writePage(ctx, tx, provider, page.Kept)
			if err != nil {
				return err
			}
			if advance && p.opts.Backfill == nil {
				return tx.SaveCursor(ctx, provider.ID, next)
			}
			return nil
		})
		if err != nil {
			return fail(storeError(pageURL, err))
		}

		pos = next
		if p.opts.Backfill == nil {
			cursor.Apply(&provider.Cursor, next)
		}
		res.Cursor = next
		res.Pages++
		res.Records += stats.records
		res.DevicesCreated += stats.devicesCreated
		res.Dropped += len(page.Dropped)
		for kind, n := range page.DroppedByKind() {
			metrics.RecordsDropped.WithLabelValues(provider.Name, string(kind)).Add(float64(n))
		}
		metrics.PagesProcessed.WithLabelValues(provider.Name, req.Endpoint).Inc()

		log.Debug().
			Int("entries", len(entries)).
			Int("kept", len(page.Kept)).
			Int("dropped", len(page.Dropped)).
			Str("cursor", next.String()).
			Msg("Page committed")

		if !advance {
			break
		}
		if bf := p.opts.Backfill; bf != nil && cursor.Reached(pos, bf.To) {
			log.Info().Str("cursor", pos.String()).Msg("Backfill range reached")
			break
		}
		pageURL = body.Links.Next
	}

	res.State = StateDone
	log.Info().
		Int("pages", res.Pages).
		Int("records", res.Records).
		Int("dropped", res.Dropped).
		Msg("Provider poll finished")
	return res
}

// storeError tags a failed page transaction with the URL of the page.
func storeError(pageURL string, err error) error {
	var pe *models.PollError
	if errors.As(err, &pe) {
		return err
	}
	switch {
	case models.KindOf(err) == models.KindCancelled:
		return models.NewPollError(models.KindCancelled, pageURL, err)
	case database.IsConstraintError(err):
		return models.NewPollError(models.KindUpsertConflict, pageURL, err)
	default:
		return models.NewPollError(models.KindStore, pageURL, err)
	}
}
