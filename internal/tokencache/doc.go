// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

/*
Package tokencache keeps one OAuth2 bearer token per provider, encrypted at
rest.

Tokens are serialized to JSON, sealed with Fernet (github.com/fernet/fernet-go)
and stored under "oauth2-token:<provider-id>" with a TTL ten seconds shorter
than the token's own lifetime. Two backends share the same semantics:

  - MemoryBackend: a mutex-guarded map with lazy expiry, for single-process runs.
  - BadgerBackend: BadgerDB with native entry TTLs, so tokens survive restarts
    and can be shared by successive CLI invocations.

Any entry that cannot be decrypted (rotated key, corrupt payload, foreign
value) is reported as a miss, never as an error.
*/
package tokencache
