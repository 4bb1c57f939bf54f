// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

package models

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Body is a decoded Provider API response page.
type Body struct {
	Version string    `json:"version"`
	Data    *BodyData `json:"data"`
	Links   Links     `json:"links"`
}

// ErrMissingStatusChanges reports a page without a data.status_changes
// array. An explicit empty array is a valid, empty page.
var ErrMissingStatusChanges = errors.New("response has no data.status_changes array")

// StatusChanges returns the entries of the page, or false when the body
// carries no status_changes array at all.
func (b *Body) StatusChanges() ([]WireStatusChange, bool) {
	if b.Data == nil || !b.Data.present {
		return nil, false
	}
	return b.Data.StatusChanges, true
}

// BodyData wraps the page payload.
type BodyData struct {
	StatusChanges []WireStatusChange `json:"status_changes"`

	present bool
}

// UnmarshalJSON records whether status_changes was present, since a
// missing or null array must not be mistaken for an empty page.
func (d *BodyData) UnmarshalJSON(b []byte) error {
	var raw struct {
		StatusChanges *[]WireStatusChange `json:"status_changes"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*d = BodyData{}
	if raw.StatusChanges != nil {
		d.StatusChanges = *raw.StatusChanges
		d.present = true
	}
	return nil
}

// Links carries pagination. Next is empty on the last page.
type Links struct {
	Next string `json:"next"`
}

// WireStatusChange is a status change as served by a provider. Fields whose
// encoding differs between versions or that are validated entry by entry
// are kept raw.
type WireStatusChange struct {
	ProviderID      string          `json:"provider_id"`
	ProviderName    *string         `json:"provider_name,omitempty"`
	DeviceID        string          `json:"device_id"`
	VehicleID       string          `json:"vehicle_id,omitempty"`
	VehicleType     string          `json:"vehicle_type"`
	PropulsionType  []string        `json:"propulsion_type"`
	EventType       string          `json:"event_type"`
	EventTypeReason string          `json:"event_type_reason"`
	EventTime       json.RawMessage `json:"event_time"`
	EventLocation   json.RawMessage `json:"event_location,omitempty"`
	AssociatedTrip  string          `json:"associated_trip,omitempty"`
	AssociatedTrips []string        `json:"associated_trips,omitempty"`
	BatteryPct      *float64        `json:"battery_pct,omitempty"`
	Recorded        json.RawMessage `json:"recorded,omitempty"`
	PublicationTime json.RawMessage `json:"publication_time,omitempty"`

	// DecodeErr is set when the entry is well-formed JSON of the wrong
	// shape. Only device_id, event_time and recorded are recovered then.
	DecodeErr error `json:"-"`
}

// UnmarshalJSON never fails on a well-formed value, so that one entry of
// the wrong shape cannot fail the whole page.
func (w *WireStatusChange) UnmarshalJSON(b []byte) error {
	type plain WireStatusChange
	var p plain
	err := json.Unmarshal(b, &p)
	if err == nil {
		*w = WireStatusChange(p)
		return nil
	}
	*w = WireStatusChange{DecodeErr: fmt.Errorf("undecodable status change: %w", err)}

	var partial struct {
		DeviceID  json.RawMessage `json:"device_id"`
		EventTime json.RawMessage `json:"event_time"`
		Recorded  json.RawMessage `json:"recorded"`
	}
	if json.Unmarshal(b, &partial) == nil {
		w.DeviceID = rawText(partial.DeviceID)
		w.EventTime = partial.EventTime
		w.Recorded = partial.Recorded
	}
	return nil
}

// rawText returns a JSON string's content, or any other value verbatim.
func rawText(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}

// StatusChange is a validated status change in canonical form.
type StatusChange struct {
	ProviderID         uuid.UUID
	ProviderName       string
	DeviceID           uuid.UUID
	VehicleID          string
	VehicleType        string
	PropulsionType     []string
	EventType          string
	EventTypeReason    string
	AgencyEventType    string
	AgencyEventReason  string
	EventTime          time.Time
	Point              *Point
	TelemetryTimestamp *int64
	AssociatedTrip     string
	BatteryPct         *float64
	Recorded           *time.Time
	PublicationTime    *time.Time
}
