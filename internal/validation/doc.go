// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

// Package validation checks provider payloads and configuration.
//
// ValidateStruct wraps a shared go-playground/validator instance and turns
// its errors into readable field messages. It is used for the providers of
// the config file and for the required fields of status changes.
//
// StatusChanges is the page validator of the poller. It never fails: each
// entry is either kept, in canonical form, or dropped with a reason.
//
//  1. event_time must read as integer milliseconds (numeric strings are
//     accepted). Entries without one are dropped first and do not count
//     toward the cursor maxima.
//  2. provider_id and device_id must be UUIDs, vehicle_type,
//     propulsion_type and event_type must be present, and
//     event_type_reason must map to an agency event.
//  3. event_location, when present, must be a GeoJSON Point Feature with
//     coordinates in range, after the optional lng/lat swap.
//
// Missing locations, provider names and vehicle ids are accepted.
package validation
