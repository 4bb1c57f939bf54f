// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/tomtom215/mdspoller/internal/logging"
	"github.com/tomtom215/mdspoller/internal/metrics"
	"github.com/tomtom215/mdspoller/internal/models"
)

// maxBodySize caps a decoded page.
const maxBodySize = 256 << 20

// Options configures a Fetcher.
type Options struct {
	// Timeout bounds each HTTP request. Defaults to 30s.
	Timeout time.Duration
	// RetryDelay is the pause before retrying a transient failure.
	RetryDelay time.Duration
	// RateLimit is the per-provider request rate in requests per second.
	// Zero means unlimited.
	RateLimit float64
	// RateBurst is the per-provider burst size. Defaults to 1.
	RateBurst int
	Breaker   BreakerSettings
	// Client overrides the HTTP client. Timeout is ignored when set.
	Client *http.Client
}

// DefaultOptions returns the options used by the poll-providers command.
func DefaultOptions() Options {
	return Options{
		Timeout:    30 * time.Second,
		RetryDelay: time.Second,
		Breaker:    DefaultBreakerSettings(),
	}
}

// Fetcher issues provider API requests. It is safe for concurrent use.
type Fetcher struct {
	client *http.Client
	tokens TokenStore
	opts   Options

	mu        sync.Mutex
	providers map[uuid.UUID]*providerState
}

type providerState struct {
	limiter *rate.Limiter
	breaker *breaker
}

// New creates a Fetcher. tokens may be nil when no provider uses OAuth2.
func New(tokens TokenStore, opts Options) *Fetcher {
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Fetcher{
		client:    client,
		tokens:    tokens,
		opts:      opts,
		providers: make(map[uuid.UUID]*providerState),
	}
}

func (f *Fetcher) stateFor(p *models.Provider) *providerState {
	f.mu.Lock()
	defer f.mu.Unlock()

	if st, ok := f.providers[p.ID]; ok {
		return st
	}
	limit := rate.Inf
	if f.opts.RateLimit > 0 {
		limit = rate.Limit(f.opts.RateLimit)
	}
	burst := f.opts.RateBurst
	if burst < 1 {
		burst = 1
	}
	st := &providerState{limiter: rate.NewLimiter(limit, burst)}
	if f.opts.Breaker.Failures > 0 {
		st.breaker = newBreaker("provider:"+p.ID.String(), f.opts.Breaker)
	}
	f.providers[p.ID] = st
	return st
}

// Get fetches and decodes one page of p's API. The returned body has not
// been translated or validated.
func (f *Fetcher) Get(ctx context.Context, p *models.Provider, rawURL string) (*models.Body, error) {
	strategy, err := models.StrategyFor(p.APIVersion)
	if err != nil {
		return nil, models.NewPollError(models.KindUnsupportedVersion, rawURL, err)
	}
	st := f.stateFor(p)
	fn := func() (*models.Body, error) {
		return f.getWithRetry(ctx, p, strategy, st.limiter, rawURL)
	}
	if st.breaker == nil {
		return fn()
	}
	return st.breaker.execute(rawURL, fn)
}

func (f *Fetcher) getWithRetry(ctx context.Context, p *models.Provider, strategy models.VersionStrategy, limiter *rate.Limiter, rawURL string) (*models.Body, error) {
	oauth := p.Authentication.Kind() == models.AuthOAuth2
	var authRetried, transientRetried bool

	for {
		body, err := f.attempt(ctx, p, strategy, limiter, rawURL)
		if err == nil {
			return body, nil
		}

		switch {
		case oauth && isAuthRejection(err) && !authRetried:
			authRetried = true
			metrics.FetchRetries.WithLabelValues(p.Name, "auth").Inc()
			logging.Ctx(ctx).Info().Int("status", statusCode(err)).Msg("Access token rejected, refreshing it")
			f.invalidateToken(ctx, p)
			continue
		case isTransient(err) && !transientRetried:
			transientRetried = true
			metrics.FetchRetries.WithLabelValues(p.Name, "transient").Inc()
			logging.Ctx(ctx).Warn().Err(err).Msg("Request failed, retrying once")
			if err := sleepCtx(ctx, f.opts.RetryDelay); err != nil {
				return nil, models.NewPollError(models.KindCancelled, rawURL, err)
			}
			continue
		}
		return nil, err
	}
}

// attempt performs a single request.
func (f *Fetcher) attempt(ctx context.Context, p *models.Provider, strategy models.VersionStrategy, limiter *rate.Limiter, rawURL string) (*models.Body, error) {
	if err := limiter.Wait(ctx); err != nil {
		return nil, models.NewPollError(models.KindCancelled, rawURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, models.NewPollError(models.KindFetch, rawURL, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", strategy.Accept)

	oauth := p.Authentication.Kind() == models.AuthOAuth2
	if oauth {
		tok, err := f.token(ctx, p)
		if err != nil {
			return nil, err
		}
		tok.SetAuthHeader(req)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		metrics.RecordFetch(p.Name, 0, time.Since(start))
		if ctx.Err() != nil {
			return nil, models.NewPollError(models.KindCancelled, rawURL, ctx.Err())
		}
		return nil, markTransient(models.NewPollError(models.KindFetch, rawURL, fmt.Errorf("request failed: %w", err)))
	}
	defer closeBody(resp.Body)
	metrics.RecordFetch(p.Name, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		serr := &StatusError{StatusCode: resp.StatusCode, Body: readBodyForError(resp.Body)}
		kind := models.KindFetch
		if oauth && isAuthRejection(serr) {
			kind = models.KindAuth
		}
		perr := models.NewPollError(kind, rawURL, serr)
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, markTransient(perr)
		}
		return nil, perr
	}

	f.checkContentType(ctx, p, strategy.Version, resp.Header.Get("Content-Type"))

	var body models.Body
	dec := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize))
	if err := dec.Decode(&body); err != nil {
		if ctx.Err() != nil {
			return nil, models.NewPollError(models.KindCancelled, rawURL, ctx.Err())
		}
		return nil, models.NewPollError(models.KindMalformedBody, rawURL, fmt.Errorf("failed to decode response: %w", err))
	}
	return &body, nil
}

// checkContentType warns when the response declares another MDS version
// than the provider is configured for.
func (f *Fetcher) checkContentType(ctx context.Context, p *models.Provider, expected models.APIVersion, contentType string) {
	declared, ok := contentTypeVersion(contentType, models.MDSContentType)
	if !ok {
		return
	}
	v, err := models.ParseAPIVersion(declared)
	if err == nil && v == expected {
		return
	}
	metrics.ContentTypeMismatches.WithLabelValues(p.Name).Inc()
	logging.Ctx(ctx).Warn().
		Str("expected", string(expected)).
		Str("received", declared).
		Msg("Provider declares another API version in Content-Type")
}

func closeBody(body io.ReadCloser) {
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(body, maxErrorBodySize))
	if err := body.Close(); err != nil {
		logging.Debug().Err(err).Msg("Failed to close response body")
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
