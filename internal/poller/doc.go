// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

/*
Package poller drives one ingestion run over the registered MDS providers.

For each provider the poller plans the first request from the provider's
cursor, then follows links.next page by page. Every page is translated to
the latest payload shape, validated, and written in its own transaction
together with the advanced cursor, so an interrupted run resumes from the
last committed page.

# Provider States

	IDLE -> SKIPPED   no base_api_url, or still within provider_polling_lag
	IDLE -> DONE      pagination ended (empty page or no next link)
	IDLE -> FAILED    a fetch, version, store or cancellation error

A failing provider never stops the run: its open transaction is rolled
back, the error is kept in the Report, and the next provider is polled.

# Usage

	engine := cursor.NewEngine(cursor.Options{Limit: cursor.DefaultLimit})
	p := poller.New(db, fetcher.New(tokens, fetcher.DefaultOptions()), engine, poller.Options{
		Workers:              cfg.Poller.Workers,
		CreateRegisterEvents: cfg.Poller.CreateRegisterEvents,
	})
	report, err := p.Run(ctx)

# Records

Status changes become event records with source "pull". Pulled records
never replace a stored row, so events pushed by the provider keep
precedence. Providers and devices referenced by a page are created when
missing; with CreateRegisterEvents a synthetic register event is written
1ms before the first event of each new device.

# Backfill

Options.Backfill polls an explicit cursor range. Records are written as
usual but the provider's persisted cursor is not touched, and the lag gate
does not apply.
*/
package poller
