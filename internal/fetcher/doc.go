// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

/*
Package fetcher performs the authenticated GET requests of the poller
against provider APIs.

One call to Fetcher.Get issues a single logical request:

 1. The provider's rate limiter (golang.org/x/time/rate) is waited on.
 2. The Accept header advertises the provider's MDS version (0.2 and 0.3
    also accept plain JSON; 0.4 only the MDS media type).
 3. For OAuth2 providers a bearer token is taken from the token cache or
    obtained with the client-credentials grant (golang.org/x/oauth2).
 4. Network errors and 5xx responses are retried once. A 401 or 403 on an
    OAuth2 provider invalidates the cached token, fetches a new one and
    retries once; a second rejection is an auth_error.
 5. A Content-Type declaring another MDS version is logged, never trusted:
    the body's own version field wins.

Every provider gets its own circuit breaker (github.com/sony/gobreaker/v2)
so a provider that keeps failing is short-circuited across runs in serve
mode. All failures are *models.PollError values carrying the request URL.
*/
package fetcher
