// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

package validation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/mdspoller/internal/codec"
	"github.com/tomtom215/mdspoller/internal/logging"
	"github.com/tomtom215/mdspoller/internal/models"
)

// Options tunes StatusChanges for one provider.
type Options struct {
	SwapLngLat bool
}

// Dropped is a status change rejected by StatusChanges.
type Dropped struct {
	Index    int
	DeviceID string
	Kind     models.ErrorKind
	Err      error
}

// Result is the outcome of validating one page.
type Result struct {
	Kept    []models.StatusChange
	Dropped []Dropped
	// MaxEventTime is the latest event_time of every entry with a readable
	// event_time, kept or dropped. Nil when there is none.
	MaxEventTime *time.Time
	// MaxRecorded is the latest recorded time over the same entries. Nil
	// when none carries one.
	MaxRecorded *time.Time
}

// ValidEventTimes reports whether any entry had a readable event_time.
func (r Result) ValidEventTimes() bool {
	return r.MaxEventTime != nil
}

// DroppedByKind counts the dropped entries per error kind.
func (r Result) DroppedByKind() map[models.ErrorKind]int {
	out := make(map[models.ErrorKind]int)
	for _, d := range r.Dropped {
		out[d.Kind]++
	}
	return out
}

// requiredFields are the status change fields an entry cannot do without.
type requiredFields struct {
	ProviderID      string   `validate:"required"`
	DeviceID        string   `validate:"required"`
	VehicleType     string   `validate:"required"`
	PropulsionType  []string `validate:"required,min=1"`
	EventType       string   `validate:"required"`
	EventTypeReason string   `validate:"required"`
}

var errUnknownReason = errors.New("unknown event_type_reason")

// StatusChanges validates a page of status changes.
func StatusChanges(ctx context.Context, entries []models.WireStatusChange, opts Options) Result {
	log := logging.Ctx(ctx)
	res := Result{Kept: make([]models.StatusChange, 0, len(entries))}

	for i := range entries {
		w := &entries[i]

		eventMS, err := codec.ParseMS(w.EventTime)
		if err != nil {
			log.Warn().Err(err).Int("index", i).Str("device_id", w.DeviceID).
				Msg("Status change has no valid event_time, dropping it")
			res.Dropped = append(res.Dropped, Dropped{Index: i, DeviceID: w.DeviceID, Kind: models.KindBadRecord, Err: err})
			continue
		}
		eventTime := codec.FromMS(eventMS)
		if res.MaxEventTime == nil || eventTime.After(*res.MaxEventTime) {
			res.MaxEventTime = &eventTime
		}

		recorded, err := codec.ParseOptionalTime(w.Recorded)
		if err != nil {
			log.Warn().Err(err).Str("device_id", w.DeviceID).Msg("Ignoring unreadable recorded time")
			recorded = nil
		}
		if recorded != nil && (res.MaxRecorded == nil || recorded.After(*res.MaxRecorded)) {
			r := *recorded
			res.MaxRecorded = &r
		}

		sc, kind, err := validateEntry(w, eventTime, recorded, opts)
		if err != nil {
			log.Warn().Err(err).Int("index", i).Str("device_id", w.DeviceID).
				Str("kind", string(kind)).
				Msg("Invalid status change, dropping it")
			res.Dropped = append(res.Dropped, Dropped{Index: i, DeviceID: w.DeviceID, Kind: kind, Err: err})
			continue
		}
		if sc.Point == nil {
			log.Warn().Str("device_id", sc.DeviceID.String()).Msg("Device has no event_location")
		}
		res.Kept = append(res.Kept, sc)
	}
	return res
}

func validateEntry(w *models.WireStatusChange, eventTime time.Time, recorded *time.Time, opts Options) (models.StatusChange, models.ErrorKind, error) {
	if w.DecodeErr != nil {
		return models.StatusChange{}, models.KindBadRecord, w.DecodeErr
	}
	req := requiredFields{
		ProviderID:      w.ProviderID,
		DeviceID:        w.DeviceID,
		VehicleType:     w.VehicleType,
		PropulsionType:  w.PropulsionType,
		EventType:       w.EventType,
		EventTypeReason: w.EventTypeReason,
	}
	if verr := ValidateStruct(&req); verr != nil {
		return models.StatusChange{}, models.KindBadRecord, verr
	}

	providerID, err := uuid.Parse(w.ProviderID)
	if err != nil {
		return models.StatusChange{}, models.KindBadRecord, fmt.Errorf("invalid provider_id: %w", err)
	}
	deviceID, err := uuid.Parse(w.DeviceID)
	if err != nil {
		return models.StatusChange{}, models.KindBadRecord, fmt.Errorf("invalid device_id: %w", err)
	}

	ev, ok := models.AgencyEventForReason(w.EventTypeReason)
	if !ok {
		return models.StatusChange{}, models.KindBadRecord, fmt.Errorf("%w %q", errUnknownReason, w.EventTypeReason)
	}

	sc := models.StatusChange{
		ProviderID:        providerID,
		DeviceID:          deviceID,
		VehicleID:         w.VehicleID,
		VehicleType:       w.VehicleType,
		PropulsionType:    w.PropulsionType,
		EventType:         w.EventType,
		EventTypeReason:   w.EventTypeReason,
		AgencyEventType:   ev.Type,
		AgencyEventReason: ev.Reason,
		EventTime:         eventTime,
		AssociatedTrip:    w.AssociatedTrip,
		BatteryPct:        w.BatteryPct,
		Recorded:          recorded,
	}
	if w.ProviderName != nil {
		sc.ProviderName = *w.ProviderName
	}

	if hasValue(w.EventLocation) {
		loc, err := codec.ParsePointFeature(w.EventLocation, opts.SwapLngLat)
		if err != nil {
			if errors.Is(err, codec.ErrOutOfRange) {
				return models.StatusChange{}, models.KindBadParam, err
			}
			return models.StatusChange{}, models.KindBadRecord, err
		}
		sc.Point = &models.Point{Lng: loc.Lng, Lat: loc.Lat, Alt: loc.Alt}
		sc.TelemetryTimestamp = loc.Timestamp
	}

	if pub, err := codec.ParseOptionalTime(w.PublicationTime); err == nil {
		sc.PublicationTime = pub
	}
	return sc, "", nil
}

func hasValue(raw []byte) bool {
	s := string(raw)
	return len(raw) > 0 && s != "null" && s != "{}"
}
