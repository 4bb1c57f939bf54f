// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/mdspoller/internal/metrics"
	"github.com/tomtom215/mdspoller/internal/models"
)

// Lookup errors of the read helpers.
var (
	ErrDeviceNotFound = errors.New("device not found")
	ErrRecordNotFound = errors.New("event record not found")
)

// GetDevice returns one device.
func (db *DB) GetDevice(ctx context.Context, id uuid.UUID) (*models.Device, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var (
		d          models.Device
		propulsion string
		dnStatus   sql.NullString
	)
	start := time.Now()
	err := db.conn.QueryRowContext(ctx, `SELECT id, provider_id, identification_number, category, propulsion, dn_status, saved_at
		FROM devices WHERE id = ?`, id).
		Scan(&d.ID, &d.ProviderID, &d.IdentificationNumber, &d.Category, &propulsion, &dnStatus, &d.SavedAt)
	metrics.RecordDBQuery("select", "devices", time.Since(start), ignoreNotFound(err))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get device %s: %w", id, err)
	}

	if err := json.Unmarshal([]byte(propulsion), &d.Propulsion); err != nil {
		return nil, fmt.Errorf("device %s: invalid propulsion: %w", id, err)
	}
	d.DNStatus = dnStatus.String
	d.SavedAt = d.SavedAt.UTC()
	return &d, nil
}

// GetEventRecord returns the record of a device at a timestamp.
func (db *DB) GetEventRecord(ctx context.Context, deviceID uuid.UUID, ts time.Time) (*models.EventRecord, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var (
		r             models.EventRecord
		lng, lat, alt sql.NullFloat64
		reason        sql.NullString
		properties    sql.NullString
		source        string
		published     sql.NullTime
	)
	start := time.Now()
	err := db.conn.QueryRowContext(ctx, `SELECT device_id, "timestamp", lng, lat, alt, event_type, event_type_reason,
			properties, source, publication_time, saved_at
		FROM event_records WHERE device_id = ? AND "timestamp" = ?`, deviceID, ts.UTC()).
		Scan(&r.DeviceID, &r.Timestamp, &lng, &lat, &alt, &r.EventType, &reason,
			&properties, &source, &published, &r.SavedAt)
	metrics.RecordDBQuery("select", "event_records", time.Since(start), ignoreNotFound(err))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s@%s", ErrRecordNotFound, deviceID, ts.UTC().Format(time.RFC3339Nano))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event record: %w", err)
	}

	r.Timestamp = r.Timestamp.UTC()
	r.SavedAt = r.SavedAt.UTC()
	r.EventTypeReason = reason.String
	r.Source = models.EventSource(source)
	if lng.Valid && lat.Valid {
		r.Point = &models.Point{Lng: lng.Float64, Lat: lat.Float64}
		if alt.Valid {
			a := alt.Float64
			r.Point.Alt = &a
		}
	}
	if published.Valid {
		t := published.Time.UTC()
		r.PublicationTime = &t
	}
	if properties.Valid {
		if err := json.Unmarshal([]byte(properties.String), &r.Properties); err != nil {
			return nil, fmt.Errorf("event record %s: invalid properties: %w", deviceID, err)
		}
	}
	return &r, nil
}

// CountEventRecords counts the records of source, or all records when
// source is empty.
func (db *DB) CountEventRecords(ctx context.Context, source models.EventSource) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT COUNT(*) FROM event_records`
	var args []any
	if source != "" {
		query += ` WHERE source = ?`
		args = append(args, string(source))
	}

	var n int64
	start := time.Now()
	err := db.conn.QueryRowContext(ctx, query, args...).Scan(&n)
	metrics.RecordDBQuery("count", "event_records", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("failed to count event records: %w", err)
	}
	return n, nil
}
