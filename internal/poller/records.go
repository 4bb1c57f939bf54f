// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

package poller

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/mdspoller/internal/database"
	"github.com/tomtom215/mdspoller/internal/logging"
	"github.com/tomtom215/mdspoller/internal/metrics"
	"github.com/tomtom215/mdspoller/internal/models"
)

// publicationDriftWarning is the gap between publication_time and recorded
// above which a status change is logged.
const publicationDriftWarning = 10 * time.Minute

type pageStats struct {
	records          int
	providersCreated int
	devicesCreated   int
}

// writePage stores the validated status changes of one page inside tx:
// unknown providers first, then unknown devices with their optional
// register events, then the event records themselves. Pulled records never
// overwrite a stored row.
func (p *Poller) writePage(ctx context.Context, tx *database.Tx, provider *models.Provider, changes []models.StatusChange) (pageStats, error) {
	var stats pageStats
	if len(changes) == 0 {
		return stats, nil
	}
	log := logging.Ctx(ctx)

	providerIDs := make([]uuid.UUID, 0, 1)
	deviceIDs := make([]uuid.UUID, 0, len(changes))
	foreign := 0
	for i := range changes {
		sc := &changes[i]
		providerIDs = append(providerIDs, sc.ProviderID)
		deviceIDs = append(deviceIDs, sc.DeviceID)
		if sc.ProviderID != provider.ID {
			foreign++
		}
	}
	if foreign > 0 {
		metrics.ForeignProviderRecords.WithLabelValues(provider.Name).Add(float64(foreign))
	}

	knownProviders, err := tx.ExistingProviderIDs(ctx, providerIDs)
	if err != nil {
		return stats, err
	}
	var newProviders []*models.Provider
	for i := range changes {
		sc := &changes[i]
		if knownProviders[sc.ProviderID] {
			continue
		}
		knownProviders[sc.ProviderID] = true
		newProviders = append(newProviders, newProvider(ctx, sc))
	}
	if len(newProviders) > 0 {
		if err := tx.UpsertProviders(ctx, newProviders); err != nil {
			return stats, fmt.Errorf("failed to create providers: %w", err)
		}
		stats.providersCreated = len(newProviders)
		log.Info().Str("providers", joinIDs(newProviders, func(p *models.Provider) uuid.UUID { return p.ID })).
			Msg("Providers created")
	}

	knownDevices, err := tx.ExistingDeviceIDs(ctx, deviceIDs)
	if err != nil {
		return stats, err
	}
	var newDevices []*models.Device
	firstSeen := make(map[uuid.UUID]time.Time)
	for i := range changes {
		sc := &changes[i]
		if knownDevices[sc.DeviceID] {
			continue
		}
		if at, ok := firstSeen[sc.DeviceID]; ok {
			if sc.EventTime.Before(at) {
				firstSeen[sc.DeviceID] = sc.EventTime
			}
			continue
		}
		firstSeen[sc.DeviceID] = sc.EventTime
		newDevices = append(newDevices, newDevice(ctx, sc))
	}
	if len(newDevices) > 0 {
		if err := tx.UpsertDevices(ctx, newDevices); err != nil {
			return stats, fmt.Errorf("failed to create devices: %w", err)
		}
		stats.devicesCreated = len(newDevices)
		metrics.DevicesCreated.WithLabelValues(provider.Name).Add(float64(len(newDevices)))
		log.Info().Int("count", len(newDevices)).Msg("Devices created")

		if p.opts.CreateRegisterEvents {
			registers := make([]*models.EventRecord, 0, len(newDevices))
			for _, d := range newDevices {
				registers = append(registers, registerEvent(d.ID, firstSeen[d.ID]))
			}
			if err := tx.UpsertEventRecords(ctx, registers, models.SourcePull, false); err != nil {
				return stats, fmt.Errorf("failed to create register events: %w", err)
			}
		}
	}

	records := make([]*models.EventRecord, 0, len(changes))
	for i := range changes {
		records = append(records, newEventRecord(ctx, &changes[i]))
	}
	if err := tx.UpsertEventRecords(ctx, records, models.SourcePull, false); err != nil {
		return stats, fmt.Errorf("failed to write event records: %w", err)
	}
	stats.records = len(records)
	metrics.RecordsIngested.WithLabelValues(provider.Name).Add(float64(len(records)))
	return stats, nil
}

func newProvider(ctx context.Context, sc *models.StatusChange) *models.Provider {
	if sc.ProviderName == "" {
		logging.Ctx(ctx).Warn().Str("new_provider_id", sc.ProviderID.String()).Msg("Provider has no name")
	}
	return &models.Provider{ID: sc.ProviderID, Name: sc.ProviderName}
}

// newDevice builds the device row of a status change. Ownership follows the
// payload, which may name another provider than the one being polled.
func newDevice(ctx context.Context, sc *models.StatusChange) *models.Device {
	identification := sc.VehicleID
	if identification == "" {
		logging.Ctx(ctx).Warn().Str("device_id", sc.DeviceID.String()).Msg("Device has no identification number")
		identification = "test-" + strings.SplitN(sc.DeviceID.String(), "-", 2)[0]
	}
	return &models.Device{
		ID:                   sc.DeviceID,
		ProviderID:           sc.ProviderID,
		IdentificationNumber: identification,
		Category:             sc.VehicleType,
		Propulsion:           sc.PropulsionType,
		DNStatus:             sc.EventType,
	}
}

func newEventRecord(ctx context.Context, sc *models.StatusChange) *models.EventRecord {
	properties := map[string]any{"trip_id": nil}
	if sc.AssociatedTrip != "" {
		properties["trip_id"] = sc.AssociatedTrip
	}

	var point *models.Point
	if sc.Point != nil {
		pt := *sc.Point
		point = &pt
		gps := map[string]any{"lng": pt.Lng, "lat": pt.Lat}
		if pt.Alt != nil && *pt.Alt != 0 {
			gps["altitude"] = *pt.Alt
		}
		telemetry := map[string]any{
			"timestamp":   nil,
			"gps":         gps,
			"battery_pct": nil,
		}
		if sc.TelemetryTimestamp != nil {
			telemetry["timestamp"] = *sc.TelemetryTimestamp
		}
		if sc.BatteryPct != nil {
			telemetry["battery_pct"] = *sc.BatteryPct
		}
		properties["telemetry"] = telemetry
	}

	published := sc.PublicationTime
	if sc.PublicationTime != nil && sc.Recorded != nil {
		drift := sc.PublicationTime.Sub(*sc.Recorded).Abs()
		if drift > publicationDriftWarning {
			logging.Ctx(ctx).Warn().
				Str("device_id", sc.DeviceID.String()).
				Dur("drift", drift).
				Msg("publication_time and recorded differ")
		}
	}
	if published == nil {
		published = sc.Recorded
	}

	return &models.EventRecord{
		DeviceID:        sc.DeviceID,
		Timestamp:       sc.EventTime,
		Point:           point,
		EventType:       sc.AgencyEventType,
		EventTypeReason: sc.AgencyEventReason,
		Properties:      properties,
		Source:          models.SourcePull,
		PublicationTime: published,
	}
}

// registerEvent simulates the registration of a device first seen at
// firstEvent. It sits 1ms before that event so both fit under the
// (device, timestamp) key.
func registerEvent(deviceID uuid.UUID, firstEvent time.Time) *models.EventRecord {
	return &models.EventRecord{
		DeviceID:   deviceID,
		Timestamp:  firstEvent.Add(-time.Millisecond),
		EventType:  models.EventRegister,
		Properties: map[string]any{"created_on_register": true},
		Source:     models.SourcePull,
	}
}

func joinIDs[T any](items []T, id func(T) uuid.UUID) string {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = id(item).String()
	}
	return strings.Join(ids, ", ")
}
