// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

package cursor

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/mdspoller/internal/codec"
	"github.com/tomtom215/mdspoller/internal/metrics"
	"github.com/tomtom215/mdspoller/internal/models"
)

// Request is the first request of a provider poll.
type Request struct {
	URL      string
	Endpoint string
	// Archive is set when a 0.4 provider is served from the hourly archive.
	// ArchiveHour is then the instant the cursor moves to if the hour
	// turns out to be empty.
	Archive     bool
	ArchiveHour time.Time
	// Cursor is the position the request was planned from.
	Cursor models.Cursor
}

// Plan builds the initial request for p starting at pos.
func (e *Engine) Plan(p *models.Provider, pos models.Cursor) (Request, error) {
	strategy, err := models.StrategyFor(p.APIVersion)
	if err != nil {
		return Request{}, models.NewPollError(models.KindUnsupportedVersion, "", err)
	}
	if err := pos.Kind.AllowedFor(p.APIVersion); err != nil {
		return Request{}, models.NewPollError(models.KindConfig, "", err)
	}
	if pos.Kind.IsTime() {
		metrics.CursorAge.WithLabelValues(p.Name).Set(e.now().Sub(pos.Time).Seconds())
	}

	if strategy.Events == "" {
		query := url.Values{}
		query.Set(pos.Kind.QueryParam(), cursorValue(pos))
		return e.request(p, strategy.StatusChanges, query, pos), nil
	}

	threshold, err := p.Configuration.Threshold()
	if err != nil {
		return Request{}, models.NewPollError(models.KindConfig, "", fmt.Errorf("realtime_threshold: %w", err))
	}
	lag, err := p.Configuration.PollingLag()
	if err != nil {
		return Request{}, models.NewPollError(models.KindConfig, "", fmt.Errorf("provider_polling_lag: %w", err))
	}

	now := e.now()
	next := pos.Time.Add(time.Hour)
	if now.Sub(next) > threshold {
		query := url.Values{}
		query.Set("event_time", codec.HourKey(next))
		req := e.request(p, strategy.StatusChanges, query, pos)
		req.Archive = true
		req.ArchiveHour = next.UTC()
		return req, nil
	}

	query := url.Values{}
	query.Set("start_time", cursorValue(pos))
	query.Set("end_time", strconv.FormatInt(codec.ToMS(now.Add(-lag)), 10))
	return e.request(p, strategy.Events, query, pos), nil
}

// request builds the URL of endpoint. Configured status_changes_params are
// merged after the cursor parameters and win on conflict.
func (e *Engine) request(p *models.Provider, endpoint string, query url.Values, pos models.Cursor) Request {
	for k, v := range p.Configuration.StatusChangesParams {
		query.Set(k, v)
	}
	return Request{
		URL:      EndpointURL(p.BaseAPIURL, endpoint, p.Configuration.TrailingSlash) + "?" + query.Encode(),
		Endpoint: endpoint,
		Cursor:   pos,
	}
}

// EndpointURL joins an endpoint onto a provider's base URL.
func EndpointURL(base, endpoint string, trailingSlash bool) string {
	u := strings.TrimRight(base, "/") + "/" + endpoint
	if trailingSlash {
		u += "/"
	}
	return u
}

func cursorValue(c models.Cursor) string {
	if c.Kind == models.CursorTotalEvents {
		return strconv.FormatInt(c.Skip, 10)
	}
	return strconv.FormatInt(codec.ToMS(c.Time), 10)
}
