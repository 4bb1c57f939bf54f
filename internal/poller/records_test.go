// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

package poller

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/mdspoller/internal/models"
)

func ptr[T any](v T) *T { return &v }

func TestNewDevice(t *testing.T) {
	ctx := context.Background()
	deviceID := uuid.MustParse("8a0f7cb8-1f3c-4a0e-9f3e-2f1b2c3d4e5f")
	providerID := uuid.New()

	tests := []struct {
		name      string
		vehicleID string
		want      string
	}{
		{"vehicle id kept", "ABC-123", "ABC-123"},
		{"missing vehicle id synthesized", "", "test-8a0f7cb8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDevice(ctx, &models.StatusChange{
				ProviderID:     providerID,
				DeviceID:       deviceID,
				VehicleID:      tt.vehicleID,
				VehicleType:    models.VehicleBicycle,
				PropulsionType: []string{"human", "electric_assist"},
				EventType:      models.StatusAvailable,
			})
			if d.IdentificationNumber != tt.want {
				t.Errorf("IdentificationNumber = %q, want %q", d.IdentificationNumber, tt.want)
			}
			if d.ProviderID != providerID || d.Category != models.VehicleBicycle || d.DNStatus != models.StatusAvailable {
				t.Errorf("device = %+v", d)
			}
			if len(d.Propulsion) != 2 {
				t.Errorf("Propulsion = %v", d.Propulsion)
			}
		})
	}
}

func TestNewEventRecord_Telemetry(t *testing.T) {
	at := time.Date(2012, 1, 1, 0, 0, 0, 0, time.UTC)
	sc := &models.StatusChange{
		DeviceID:           uuid.New(),
		EventTime:          at,
		AgencyEventType:    models.EventServiceEnd,
		AgencyEventReason:  models.ReasonLowBattery,
		Point:              &models.Point{Lng: 2.35, Lat: 48.85, Alt: ptr(35.5)},
		TelemetryTimestamp: ptr(int64(1_325_375_999_000)),
		BatteryPct:         ptr(0.12),
		AssociatedTrip:     "trip-1",
	}

	r := newEventRecord(context.Background(), sc)
	if !r.Timestamp.Equal(at) || r.EventType != models.EventServiceEnd || r.EventTypeReason != models.ReasonLowBattery {
		t.Errorf("record = %+v", r)
	}
	if r.Source != models.SourcePull {
		t.Errorf("Source = %s, want pull", r.Source)
	}
	if r.Properties["trip_id"] != "trip-1" {
		t.Errorf("trip_id = %v", r.Properties["trip_id"])
	}

	telemetry, ok := r.Properties["telemetry"].(map[string]any)
	if !ok {
		t.Fatalf("telemetry = %#v", r.Properties["telemetry"])
	}
	if telemetry["timestamp"] != int64(1_325_375_999_000) || telemetry["battery_pct"] != 0.12 {
		t.Errorf("telemetry = %#v", telemetry)
	}
	gps := telemetry["gps"].(map[string]any)
	if gps["lng"] != 2.35 || gps["lat"] != 48.85 || gps["altitude"] != 35.5 {
		t.Errorf("gps = %#v", gps)
	}

	// The record owns its point.
	sc.Point.Lng = 0
	if r.Point.Lng != 2.35 {
		t.Error("record point aliases the status change")
	}
}

func TestNewEventRecord_NoLocation(t *testing.T) {
	r := newEventRecord(context.Background(), &models.StatusChange{
		DeviceID:        uuid.New(),
		EventTime:       time.Now(),
		AgencyEventType: models.EventTripStart,
		BatteryPct:      ptr(0.9),
	})
	if r.Point != nil {
		t.Errorf("Point = %+v, want nil", r.Point)
	}
	if _, ok := r.Properties["telemetry"]; ok {
		t.Error("telemetry present without location")
	}
	if v, ok := r.Properties["trip_id"]; !ok || v != nil {
		t.Errorf("trip_id = %v (present %v), want explicit null", v, ok)
	}
}

func TestNewEventRecord_ZeroAltitudeOmitted(t *testing.T) {
	r := newEventRecord(context.Background(), &models.StatusChange{
		DeviceID:  uuid.New(),
		EventTime: time.Now(),
		Point:     &models.Point{Lng: 1, Lat: 2, Alt: ptr(0.0)},
	})
	gps := r.Properties["telemetry"].(map[string]any)["gps"].(map[string]any)
	if _, ok := gps["altitude"]; ok {
		t.Errorf("gps = %#v, want no altitude", gps)
	}
}

func TestNewEventRecord_PublicationTime(t *testing.T) {
	published := time.Date(2020, 5, 1, 10, 0, 0, 0, time.UTC)
	recorded := published.Add(-time.Hour)

	tests := []struct {
		name      string
		published *time.Time
		recorded  *time.Time
		want      *time.Time
	}{
		{"publication time wins", &published, &recorded, &published},
		{"falls back to recorded", nil, &recorded, &recorded},
		{"neither", nil, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newEventRecord(context.Background(), &models.StatusChange{
				DeviceID:        uuid.New(),
				EventTime:       published,
				PublicationTime: tt.published,
				Recorded:        tt.recorded,
			})
			switch {
			case tt.want == nil && r.PublicationTime != nil:
				t.Errorf("PublicationTime = %v, want nil", r.PublicationTime)
			case tt.want != nil && (r.PublicationTime == nil || !r.PublicationTime.Equal(*tt.want)):
				t.Errorf("PublicationTime = %v, want %v", r.PublicationTime, *tt.want)
			}
		})
	}
}

func TestRegisterEvent(t *testing.T) {
	id := uuid.New()
	first := time.Date(2012, 1, 1, 0, 0, 0, 0, time.UTC)

	r := registerEvent(id, first)
	if r.DeviceID != id || !r.Timestamp.Equal(first.Add(-time.Millisecond)) {
		t.Errorf("register event at %v, want %v", r.Timestamp, first.Add(-time.Millisecond))
	}
	if r.EventType != models.EventRegister || r.Point != nil {
		t.Errorf("register event = %+v", r)
	}
	if r.Properties["created_on_register"] != true {
		t.Errorf("properties = %v", r.Properties)
	}
}

func TestReport(t *testing.T) {
	failure := models.NewPollError(models.KindFetch, "https://mds.example.com", context.DeadlineExceeded)
	report := &Report{Results: []ProviderResult{
		{Name: "a", State: StateDone},
		{Name: "b", State: StateFailed, Err: failure},
		{Name: "c", State: StateSkipped},
	}}

	if report.Count(StateDone) != 1 || len(report.Failed()) != 1 {
		t.Errorf("done = %d, failed = %d", report.Count(StateDone), len(report.Failed()))
	}
	if report.FirstError() != failure {
		t.Errorf("FirstError() = %v", report.FirstError())
	}
	if models.KindOf(report.Err()) != models.KindFetch {
		t.Errorf("Err() kind = %s", models.KindOf(report.Err()))
	}
}
