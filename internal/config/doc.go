// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

/*
Package config loads the poller configuration.

Configuration is layered with koanf: built-in defaults, then an optional
YAML file, then environment variables. Later layers win. Only the
variables listed below are read from the environment; anything else is
ignored.

# Configuration File

The file is taken from CONFIG_PATH, or the first of config.yaml,
config.yml, /etc/mdspoller/config.yaml and /etc/mdspoller/config.yml that
exists. Besides the settings it may declare providers, which are synced
into the record store when the poller starts:

	poller:
	  limit_days: 90
	  workers: 4
	providers:
	  - id: 63f13c48-34ff-49d2-aca7-cf6a5b6171c3
	    name: Lime
	    base_api_url: https://data.lime.bike/api/partners/v1/mds
	    api_version: "0.3"
	    authentication:
	      type: oauth2
	      client_id: agency
	      client_secret: s3cret
	    api_configuration:
	      polling_cursor: start_recorded
	      provider_polling_lag: PT1H

# Environment Variables

Poller:
  - PROVIDER_POLLER_LIMIT_DAYS: look-back for never-polled providers, "null" for no limit (default: 90)
  - POLLER_CREATE_REGISTER_EVENTS: synthesize register events for new devices (default: false)
  - POLLER_WORKERS: providers polled concurrently, 1 to 16 (default: 1)
  - POLLER_INTERVAL: period between runs in serve mode (default: 5m)
  - POLLER_RUN_TIMEOUT: deadline of one run, 0 for none (default: 0)

Token cache:
  - POLLER_TOKEN_CACHE: memory or badger (default: memory)
  - POLLER_TOKEN_CACHE_PATH: BadgerDB directory (default: /data/token-cache)
  - POLLER_TOKEN_ENCRYPTION_KEY: Fernet key or passphrase; a random key is generated when empty

Provider API client:
  - FETCH_TIMEOUT (default: 30s), FETCH_RETRY_DELAY (default: 1s)
  - FETCH_RATE_LIMIT: requests per second per provider, 0 for none (default: 0)
  - FETCH_RATE_BURST (default: 1)
  - FETCH_BREAKER_FAILURES: consecutive failures opening the breaker, 0 disables it (default: 5)
  - FETCH_BREAKER_TIMEOUT (default: 2m)

Storage, HTTP and logging:
  - DUCKDB_PATH (default: /data/mdspoller.duckdb), DUCKDB_MAX_MEMORY (default: 1GB), DUCKDB_THREADS
  - HTTP_HOST (default: 0.0.0.0), HTTP_PORT (default: 9464)
  - LOG_LEVEL (default: info), LOG_FORMAT json or console (default: json), LOG_CALLER

# Usage

	cfg, err := config.LoadWithKoanf()
	if err != nil {
	    log.Fatal(err)
	}
	providers, err := cfg.ProviderModels()
*/
package config
