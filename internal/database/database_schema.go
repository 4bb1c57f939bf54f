// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

/*
database_schema.go - Database Schema Management

Tables:
  - providers: registry of MDS providers, their API settings and the three
    persisted polling cursors
  - devices: vehicles first seen through a provider feed or pushed by the
    agency API
  - event_records: append-only vehicle event log, unique per device and
    timestamp; source tells pushed rows from polled ones

Authentication and API configuration are stored as JSON text so the
administrative shape can evolve without migrations.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the core database tables
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range db.getTableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}

	return nil
}

// getTableCreationQueries returns the table creation SQL statements
func (db *DB) getTableCreationQueries() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS providers (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			base_api_url TEXT,
			api_version TEXT NOT NULL DEFAULT '0.3',
			api_authentication TEXT,
			api_configuration TEXT,
			last_event_time_polled TIMESTAMP,
			last_recorded_polled TIMESTAMP,
			last_skip_polled BIGINT,
			created_at TIMESTAMP NOT NULL
		);`,

		`CREATE TABLE IF NOT EXISTS devices (
			id UUID PRIMARY KEY,
			provider_id UUID NOT NULL,
			identification_number TEXT NOT NULL,
			category TEXT NOT NULL,
			propulsion TEXT NOT NULL,
			dn_status TEXT,
			saved_at TIMESTAMP NOT NULL
		);`,

		`CREATE TABLE IF NOT EXISTS event_records (
			device_id UUID NOT NULL,
			"timestamp" TIMESTAMP NOT NULL,
			lng DOUBLE,
			lat DOUBLE,
			alt DOUBLE,
			event_type TEXT NOT NULL,
			event_type_reason TEXT,
			properties TEXT,
			source TEXT NOT NULL,
			publication_time TIMESTAMP,
			saved_at TIMESTAMP NOT NULL,
			PRIMARY KEY (device_id, "timestamp")
		);`,
	}
}

// createIndexes creates the secondary indexes
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range db.getIndexQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute index query: %s: %w", query, err)
		}
	}

	return nil
}

// getIndexQueries returns index creation SQL statements. Columns rewritten by
// ON CONFLICT DO UPDATE must stay unindexed.
func (db *DB) getIndexQueries() []string {
	return []string{
		`CREATE INDEX IF NOT EXISTS idx_devices_provider ON devices(provider_id);`,
		`CREATE INDEX IF NOT EXISTS idx_event_records_timestamp ON event_records("timestamp");`,
	}
}
