// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

/*
Package models defines the data structures shared by the provider poller.

Three groups of types live here:

  - Registry and store rows: Provider, Device, EventRecord.
  - Wire shapes of the MDS Provider API: Body and WireStatusChange, decoded
    as-is from provider responses and rewritten to the latest version by
    the translate package.
  - StatusChange: a validated, typed status change produced by the
    validation package and consumed by the poller.

The package also owns the agency event vocabulary, the provider reason
table used to map provider event reasons onto agency events, and the error
kinds reported by a poller run.
*/
package models
