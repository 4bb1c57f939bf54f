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

	"github.com/tomtom215/mdspoller/internal/logging"
	"github.com/tomtom215/mdspoller/internal/metrics"
	"github.com/tomtom215/mdspoller/internal/models"
)

const providerColumns = `id, name, base_api_url, api_version, api_authentication, api_configuration,
	last_event_time_polled, last_recorded_polled, last_skip_polled, created_at`

// ListProviders returns every registered provider ordered by name.
func (db *DB) ListProviders(ctx context.Context) ([]*models.Provider, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `SELECT `+providerColumns+` FROM providers ORDER BY name, id`)
	metrics.RecordDBQuery("select", "providers", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query providers: %w", err)
	}
	defer closeWithLog(rows, "provider rows")

	var providers []*models.Provider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate providers: %w", err)
	}
	return providers, nil
}

// GetProvider returns one provider or ErrProviderNotFound.
func (db *DB) GetProvider(ctx context.Context, id uuid.UUID) (*models.Provider, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	row := db.conn.QueryRowContext(ctx, `SELECT `+providerColumns+` FROM providers WHERE id = ?`, id)
	p, err := scanProvider(row)
	metrics.RecordDBQuery("select", "providers", time.Since(start), ignoreNotFound(err))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, id)
	}
	return p, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProvider(row rowScanner) (*models.Provider, error) {
	var (
		p                         models.Provider
		baseURL, auth, apiConfig  sql.NullString
		apiVersion                string
		lastEventTime, lastRecord sql.NullTime
		lastSkip                  sql.NullInt64
	)
	err := row.Scan(&p.ID, &p.Name, &baseURL, &apiVersion, &auth, &apiConfig,
		&lastEventTime, &lastRecord, &lastSkip, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan provider: %w", err)
	}

	p.BaseAPIURL = baseURL.String
	p.APIVersion = models.APIVersion(apiVersion)
	if auth.Valid && auth.String != "" {
		if err := json.Unmarshal([]byte(auth.String), &p.Authentication); err != nil {
			return nil, fmt.Errorf("provider %s: invalid api_authentication: %w", p.ID, err)
		}
	}
	if apiConfig.Valid && apiConfig.String != "" {
		if err := json.Unmarshal([]byte(apiConfig.String), &p.Configuration); err != nil {
			return nil, fmt.Errorf("provider %s: invalid api_configuration: %w", p.ID, err)
		}
	}
	if lastEventTime.Valid {
		t := lastEventTime.Time.UTC()
		p.Cursor.LastEventTimePolled = &t
	}
	if lastRecord.Valid {
		t := lastRecord.Time.UTC()
		p.Cursor.LastRecordedPolled = &t
	}
	if lastSkip.Valid {
		n := lastSkip.Int64
		p.Cursor.LastSkipPolled = &n
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return &p, nil
}

// SyncProviders upserts administratively configured providers. Registry
// columns are overwritten; cursor columns of existing rows are preserved.
func (db *DB) SyncProviders(ctx context.Context, providers []*models.Provider) error {
	if len(providers) == 0 {
		return nil
	}
	return db.WithTx(ctx, func(ctx context.Context, tx *Tx) error {
		for _, p := range providers {
			auth, err := json.Marshal(p.Authentication)
			if err != nil {
				return fmt.Errorf("provider %s: failed to encode authentication: %w", p.ID, err)
			}
			apiConfig, err := json.Marshal(p.Configuration)
			if err != nil {
				return fmt.Errorf("provider %s: failed to encode api_configuration: %w", p.ID, err)
			}

			start := time.Now()
			_, err = tx.tx.ExecContext(ctx, `INSERT INTO providers
				(id, name, base_api_url, api_version, api_authentication, api_configuration, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT (id) DO UPDATE SET
					name = EXCLUDED.name,
					base_api_url = EXCLUDED.base_api_url,
					api_version = EXCLUDED.api_version,
					api_authentication = EXCLUDED.api_authentication,
					api_configuration = EXCLUDED.api_configuration`,
				p.ID, p.Name, nullString(p.BaseAPIURL), string(p.APIVersion), string(auth), string(apiConfig), tx.savedAt)
			metrics.RecordDBQuery("upsert", "providers", time.Since(start), err)
			if err != nil {
				return fmt.Errorf("failed to sync provider %s: %w", p.ID, err)
			}
		}
		logging.Ctx(ctx).Info().Int("providers", len(providers)).Msg("Synchronized configured providers")
		return nil
	})
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func ignoreNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	return err
}
