// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

// Package database is the DuckDB record store of the poller.
//
// # Overview
//
// The store keeps three tables: the provider registry with its polling
// cursors, the devices seen so far and the append-only event log. Polled
// pages are written through a Tx so that the records of a page and the
// cursor that follows them commit together or not at all.
//
// # Architecture
//
//   - database.go: connection lifecycle and initialization
//   - database_schema.go: table and index creation
//   - migrations.go: versioned data migrations tracked in schema_migrations
//   - providers.go: registry reads and administrative synchronization
//   - tx.go: transactional bulk upserts and cursor persistence
//   - records.go: read helpers for devices and event records
//
// # Write Semantics
//
// Bulk statements are chunked and use ON CONFLICT:
//   - providers and devices: insert-or-ignore on the primary key
//   - event_records: insert-or-ignore on (device_id, timestamp), or
//     overwrite when the caller asks for it; the poller never does, so
//     records pushed through the agency API always win over polled ones
//
// Rows that repeat a conflict key inside one call collapse to the last one
// before the statement is built, since DuckDB rejects a statement that hits
// the same key twice.
//
// # Usage Example
//
//	db, err := database.New(&cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	err = db.WithTx(ctx, func(ctx context.Context, tx *database.Tx) error {
//	    if err := tx.UpsertEventRecords(ctx, records, models.SourcePull, false); err != nil {
//	        return err
//	    }
//	    return tx.SaveCursor(ctx, provider.ID, next)
//	})
//
// # Thread Safety
//
// DB is safe for concurrent use. A Tx belongs to the goroutine running the
// WithTx callback.
package database
