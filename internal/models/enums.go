// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

package models

// Agency event types stored in EventRecord.EventType.
const (
	EventRegister        = "register"
	EventServiceStart    = "service_start"
	EventServiceEnd      = "service_end"
	EventProviderDropOff = "provider_drop_off"
	EventProviderPickUp  = "provider_pick_up"
	EventCityPickUp      = "city_pick_up"
	EventTripStart       = "trip_start"
	EventTripEnd         = "trip_end"
	// EventAgencyDropOff only exists on the provider side; it is kept
	// verbatim so no information is lost.
	EventAgencyDropOff = "agency_drop_off"
)

// Agency event type reasons stored in EventRecord.EventTypeReason.
const (
	ReasonMaintenance = "maintenance"
	ReasonLowBattery  = "low_battery"
	ReasonRebalance   = "rebalance"
)

// AgencyEvent is an agency event type with an optional reason.
type AgencyEvent struct {
	Type   string
	Reason string
}

// providerReasonToAgencyEvent maps a provider event_type_reason onto the
// agency vocabulary.
var providerReasonToAgencyEvent = map[string]AgencyEvent{
	// available
	"service_start":        {Type: EventServiceStart},
	"user_drop_off":        {Type: EventTripEnd},
	"rebalance_drop_off":   {Type: EventProviderDropOff},
	"maintenance_drop_off": {Type: EventProviderDropOff, Reason: ReasonMaintenance},
	"agency_drop_off":      {Type: EventAgencyDropOff},
	// reserved
	"user_pick_up": {Type: EventTripStart},
	// unavailable
	"maintenance": {Type: EventServiceEnd, Reason: ReasonMaintenance},
	"low_battery": {Type: EventServiceEnd, Reason: ReasonLowBattery},
	// removed
	"service_end":         {Type: EventProviderPickUp},
	"rebalance_pick_up":   {Type: EventProviderPickUp, Reason: ReasonRebalance},
	"maintenance_pick_up": {Type: EventProviderPickUp, Reason: ReasonMaintenance},
	"agency_pick_up":      {Type: EventCityPickUp},
}

// AgencyEventForReason looks up a provider event_type_reason.
func AgencyEventForReason(reason string) (AgencyEvent, bool) {
	ev, ok := providerReasonToAgencyEvent[reason]
	return ev, ok
}

// Device categories and statuses as served by providers.
const (
	VehicleBicycle = "bicycle"
	VehicleScooter = "scooter"
	VehicleCar     = "car"

	StatusAvailable   = "available"
	StatusReserved    = "reserved"
	StatusUnavailable = "unavailable"
	StatusRemoved     = "removed"
	StatusTrip        = "trip"
)
