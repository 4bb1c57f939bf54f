// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

/*
Package services adapts long-running components to suture.Service.

PollService calls a Runner (normally *poller.Poller) once at start and then
on every tick. Provider failures inside a run are logged; an error returned
by Run itself ends Serve so the supervisor restarts it. A run that exceeds
its RunTimeout is abandoned and retried on the next tick.

HTTPServerService drives an *http.Server: ListenAndServe runs in a goroutine
and context cancellation triggers a bounded Shutdown.
*/
package services
