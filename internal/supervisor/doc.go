// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

/*
Package supervisor runs the serve mode of the poller under suture v4.

The tree has two layers so that a crashing poller never takes the
metrics endpoint down with it:

	mdspoller
	├── ingest-layer
	│   └── provider-poller   (services.PollService)
	└── api-layer
	    └── metrics-server    (services.HTTPServerService)

Failed services restart with backoff once FailureThreshold failures
accumulate; failures decay at FailureDecay per second. Supervisor events
are logged through sutureslog on a slog.Logger, which main builds with
logging.NewSlogLogger so that everything ends up in zerolog.

Usage:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddIngestService(services.NewPollService(p, cfg.Poller.Interval, cfg.Poller.RunTimeout))
	tree.AddAPIService(services.NewHTTPServerService(srv, 10*time.Second))
	return tree.Serve(ctx)

Serve returns when ctx is cancelled. Services that do not stop within
ShutdownTimeout are listed by UnstoppedServiceReport.
*/
package supervisor
