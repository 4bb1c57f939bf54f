// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/mdspoller/internal/logging"
	"github.com/tomtom215/mdspoller/internal/metrics"
	"github.com/tomtom215/mdspoller/internal/models"
)

// maxRowsPerStatement bounds the VALUES list of one bulk statement.
const maxRowsPerStatement = 256

// Tx is one unit of work. Every row written through a Tx shares the same
// saved_at timestamp, captured when the transaction opened.
type Tx struct {
	tx      *sql.Tx
	savedAt time.Time
}

// WithTx runs fn in a transaction. It commits when fn returns nil and
// rolls back otherwise, including when ctx is cancelled before commit.
func (db *DB) WithTx(ctx context.Context, fn func(ctx context.Context, tx *Tx) error) (err error) {
	sqlTx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	tx := &Tx{tx: sqlTx, savedAt: db.now().UTC()}

	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := sqlTx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
				logging.Ctx(ctx).Error().
					Err(rbErr).
					AnErr("original_error", err).
					Msg("Transaction rollback failed")
			}
		}
	}()

	if err = fn(ctx, tx); err != nil {
		return err
	}
	if err = ctx.Err(); err != nil {
		return err
	}
	if err = sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ExistingDeviceIDs returns the subset of ids already stored in devices.
func (tx *Tx) ExistingDeviceIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	return tx.existingIDs(ctx, "devices", ids)
}

// ExistingProviderIDs returns the subset of ids already stored in providers.
func (tx *Tx) ExistingProviderIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	return tx.existingIDs(ctx, "providers", ids)
}

func (tx *Tx) existingIDs(ctx context.Context, table string, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	found := make(map[uuid.UUID]bool, len(ids))
	ids = uniqueIDs(ids)
	for start := 0; start < len(ids); start += maxRowsPerStatement {
		chunk := ids[start:min(start+maxRowsPerStatement, len(ids))]
		args := make([]any, len(chunk))
		for i, id := range chunk {
			args[i] = id
		}

		began := time.Now()
		rows, err := tx.tx.QueryContext(ctx,
			`SELECT id FROM `+table+` WHERE id IN (`+placeholders(len(chunk))+`)`, args...)
		metrics.RecordDBQuery("select", table, time.Since(began), err)
		if err != nil {
			return nil, fmt.Errorf("failed to query %s ids: %w", table, err)
		}
		for rows.Next() {
			var id uuid.UUID
			if err := rows.Scan(&id); err != nil {
				closeQuietly(rows)
				return nil, fmt.Errorf("failed to scan %s id: %w", table, err)
			}
			found[id] = true
		}
		err = rows.Err()
		closeWithLog(rows, table+" id rows")
		if err != nil {
			return nil, fmt.Errorf("failed to iterate %s ids: %w", table, err)
		}
	}
	return found, nil
}

// UpsertProviders inserts providers first seen in a feed. Existing rows,
// including their registry settings and cursors, are left untouched.
func (tx *Tx) UpsertProviders(ctx context.Context, providers []*models.Provider) error {
	seen := make(map[uuid.UUID]int, len(providers))
	var unique []*models.Provider
	for _, p := range providers {
		if i, ok := seen[p.ID]; ok {
			unique[i] = p
			continue
		}
		seen[p.ID] = len(unique)
		unique = append(unique, p)
	}

	return tx.bulkInsert(ctx, "providers",
		`INSERT INTO providers (id, name, created_at) VALUES `,
		` ON CONFLICT (id) DO NOTHING`,
		3, len(unique), func(i int) []any {
			p := unique[i]
			return []any{p.ID, p.Name, tx.savedAt}
		})
}

// UpsertDevices inserts devices first seen in a feed; existing devices are
// never rewritten.
func (tx *Tx) UpsertDevices(ctx context.Context, devices []*models.Device) error {
	seen := make(map[uuid.UUID]int, len(devices))
	var unique []*models.Device
	for _, d := range devices {
		if i, ok := seen[d.ID]; ok {
			unique[i] = d
			continue
		}
		seen[d.ID] = len(unique)
		unique = append(unique, d)
	}

	propulsion := make([]string, len(unique))
	for i, d := range unique {
		encoded, err := json.Marshal(nonNilStrings(d.Propulsion))
		if err != nil {
			return fmt.Errorf("device %s: failed to encode propulsion: %w", d.ID, err)
		}
		propulsion[i] = string(encoded)
	}

	return tx.bulkInsert(ctx, "devices",
		`INSERT INTO devices (id, provider_id, identification_number, category, propulsion, dn_status, saved_at) VALUES `,
		` ON CONFLICT (id) DO NOTHING`,
		7, len(unique), func(i int) []any {
			d := unique[i]
			return []any{d.ID, d.ProviderID, d.IdentificationNumber, d.Category, propulsion[i], nullString(d.DNStatus), tx.savedAt}
		})
}

// UpsertEventRecords writes event records with the given source. On a
// (device_id, timestamp) conflict the stored row is kept unless
// onConflictUpdate is set, in which case location, event type, properties,
// source and saved_at are overwritten. Rows repeating a key within one call
// collapse to the last one.
func (tx *Tx) UpsertEventRecords(ctx context.Context, records []*models.EventRecord, source models.EventSource, onConflictUpdate bool) error {
	seen := make(map[models.RecordKey]int, len(records))
	var unique []*models.EventRecord
	for _, r := range records {
		key := r.Key()
		if i, ok := seen[key]; ok {
			unique[i] = r
			continue
		}
		seen[key] = len(unique)
		unique = append(unique, r)
	}

	properties := make([]sql.NullString, len(unique))
	for i, r := range unique {
		if r.Properties == nil {
			continue
		}
		encoded, err := json.Marshal(r.Properties)
		if err != nil {
			return fmt.Errorf("event record %s@%d: failed to encode properties: %w", r.DeviceID, r.Key().Timestamp, err)
		}
		properties[i] = sql.NullString{String: string(encoded), Valid: true}
	}

	conflict := ` ON CONFLICT (device_id, "timestamp") DO NOTHING`
	if onConflictUpdate {
		conflict = ` ON CONFLICT (device_id, "timestamp") DO UPDATE SET
			lng = EXCLUDED.lng,
			lat = EXCLUDED.lat,
			alt = EXCLUDED.alt,
			event_type = EXCLUDED.event_type,
			event_type_reason = EXCLUDED.event_type_reason,
			properties = EXCLUDED.properties,
			source = EXCLUDED.source,
			publication_time = EXCLUDED.publication_time,
			saved_at = EXCLUDED.saved_at`
	}

	return tx.bulkInsert(ctx, "event_records",
		`INSERT INTO event_records (device_id, "timestamp", lng, lat, alt, event_type, event_type_reason,
			properties, source, publication_time, saved_at) VALUES `,
		conflict,
		11, len(unique), func(i int) []any {
			r := unique[i]
			var lng, lat, alt sql.NullFloat64
			if r.Point != nil {
				lng = sql.NullFloat64{Float64: r.Point.Lng, Valid: true}
				lat = sql.NullFloat64{Float64: r.Point.Lat, Valid: true}
				if r.Point.Alt != nil {
					alt = sql.NullFloat64{Float64: *r.Point.Alt, Valid: true}
				}
			}
			var published sql.NullTime
			if r.PublicationTime != nil {
				published = sql.NullTime{Time: r.PublicationTime.UTC(), Valid: true}
			}
			return []any{
				r.DeviceID, r.Timestamp.UTC(), lng, lat, alt, r.EventType, nullString(r.EventTypeReason),
				properties[i], string(source), published, tx.savedAt,
			}
		})
}

// SaveCursor persists the active cursor of a provider.
func (tx *Tx) SaveCursor(ctx context.Context, providerID uuid.UUID, c models.Cursor) error {
	var (
		column string
		value  any
	)
	switch c.Kind {
	case models.CursorTotalEvents:
		column, value = "last_skip_polled", c.Skip
	case models.CursorStartRecorded:
		column, value = "last_recorded_polled", c.Time.UTC()
	default:
		column, value = "last_event_time_polled", c.Time.UTC()
	}

	start := time.Now()
	res, err := tx.tx.ExecContext(ctx, `UPDATE providers SET `+column+` = ? WHERE id = ?`, value, providerID)
	metrics.RecordDBQuery("update", "providers", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to save cursor %s: %w", c, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrProviderNotFound, providerID)
	}
	return nil
}

// bulkInsert writes n rows of width columns in chunks of at most
// maxRowsPerStatement rows.
func (tx *Tx) bulkInsert(ctx context.Context, table, prefix, suffix string, width, n int, row func(i int) []any) error {
	for start := 0; start < n; start += maxRowsPerStatement {
		end := min(start+maxRowsPerStatement, n)

		var query strings.Builder
		query.WriteString(prefix)
		args := make([]any, 0, (end-start)*width)
		for i := start; i < end; i++ {
			if i > start {
				query.WriteString(", ")
			}
			query.WriteString("(")
			query.WriteString(placeholders(width))
			query.WriteString(")")
			args = append(args, row(i)...)
		}
		query.WriteString(suffix)

		began := time.Now()
		_, err := tx.tx.ExecContext(ctx, query.String(), args...)
		metrics.RecordDBQuery("upsert", table, time.Since(began), err)
		if err != nil {
			return fmt.Errorf("failed to upsert %s: %w", table, err)
		}
		metrics.DBRowsWritten.WithLabelValues(table).Add(float64(end - start))
	}
	return nil
}

// placeholders returns n comma-separated parameter markers.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
