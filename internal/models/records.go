// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

package models

import (
	"time"

	"github.com/google/uuid"
)

// EventSource tells pushed Agency API records apart from polled ones.
type EventSource string

// Event sources.
const (
	SourcePush EventSource = "push"
	SourcePull EventSource = "pull"
)

// Point is a WGS-84 position with optional altitude.
type Point struct {
	Lng float64
	Lat float64
	Alt *float64
}

// Device is a vehicle known to the agency.
type Device struct {
	ID                   uuid.UUID
	ProviderID           uuid.UUID
	IdentificationNumber string
	Category             string
	Propulsion           []string
	DNStatus             string
	SavedAt              time.Time
}

// EventRecord is one entry of the append-only event log, unique per
// (DeviceID, Timestamp).
type EventRecord struct {
	DeviceID        uuid.UUID
	Timestamp       time.Time
	Point           *Point
	EventType       string
	EventTypeReason string
	Properties      map[string]any
	Source          EventSource
	PublicationTime *time.Time
	SavedAt         time.Time
}

// RecordKey is the uniqueness key of an EventRecord.
type RecordKey struct {
	DeviceID  uuid.UUID
	Timestamp int64 // milliseconds
}

// Key returns the record's uniqueness key.
func (r *EventRecord) Key() RecordKey {
	return RecordKey{DeviceID: r.DeviceID, Timestamp: r.Timestamp.UnixMilli()}
}
