// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/tomtom215/mdspoller/internal/logging"
	"github.com/tomtom215/mdspoller/internal/metrics"
	"github.com/tomtom215/mdspoller/internal/models"
)

// DefaultTokenPath is requested on the provider's host when no token URL is
// configured.
const DefaultTokenPath = "/oauth2/token"

// TokenStore caches provider bearer tokens. *tokencache.Cache implements it.
type TokenStore interface {
	Get(ctx context.Context, providerID uuid.UUID) (*oauth2.Token, error)
	Put(ctx context.Context, providerID uuid.UUID, tok *oauth2.Token) error
	Invalidate(ctx context.Context, providerID uuid.UUID) error
}

// TokenURL returns the token endpoint of an OAuth2 provider. Without an
// explicit URL the default path is resolved against the root of the
// provider's host.
func TokenURL(p *models.Provider) (string, error) {
	creds := p.Authentication.OAuth2
	if creds != nil && creds.TokenURL != "" {
		return creds.TokenURL, nil
	}
	base, err := url.Parse(p.BaseAPIURL)
	if err != nil {
		return "", fmt.Errorf("invalid base_api_url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return "", fmt.Errorf("base_api_url %q is not absolute", p.BaseAPIURL)
	}
	tokenURL := base.ResolveReference(&url.URL{Path: DefaultTokenPath}).String()
	if p.Configuration.TrailingSlash && !strings.HasSuffix(tokenURL, "/") {
		tokenURL += "/"
	}
	return tokenURL, nil
}

// token returns a valid bearer token for p, from the store when possible.
func (f *Fetcher) token(ctx context.Context, p *models.Provider) (*oauth2.Token, error) {
	if f.tokens != nil {
		tok, err := f.tokens.Get(ctx, p.ID)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Token cache lookup failed, requesting a new token")
		} else if tok != nil {
			return tok, nil
		}
	}

	tok, err := f.requestToken(ctx, p)
	if err != nil {
		return nil, err
	}
	if f.tokens != nil {
		if err := f.tokens.Put(ctx, p.ID, tok); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Failed to cache token")
		}
	}
	return tok, nil
}

// requestToken runs the client-credentials grant, retrying once on failure.
func (f *Fetcher) requestToken(ctx context.Context, p *models.Provider) (*oauth2.Token, error) {
	creds := p.Authentication.OAuth2
	if creds == nil {
		return nil, models.NewPollError(models.KindAuth, "", errors.New("provider has no oauth2 credentials"))
	}
	tokenURL, err := TokenURL(p)
	if err != nil {
		return nil, models.NewPollError(models.KindAuth, "", err)
	}

	params := url.Values{}
	for k, v := range creds.ExtraTokenParams {
		params.Set(k, v)
	}
	cfg := clientcredentials.Config{
		ClientID:       creds.ClientID,
		ClientSecret:   creds.ClientSecret,
		TokenURL:       tokenURL,
		EndpointParams: params,
		AuthStyle:      oauth2.AuthStyleInHeader,
	}
	// Route the grant through our client so timeouts and test transports apply.
	tctx := context.WithValue(ctx, oauth2.HTTPClient, f.client)

	var tok *oauth2.Token
	for attempt := 1; attempt <= 2; attempt++ {
		tok, err = cfg.Token(tctx)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			return nil, models.NewPollError(models.KindCancelled, tokenURL, ctx.Err())
		}
		logging.Ctx(ctx).Warn().Err(err).Int("attempt", attempt).
			Str("token_url", logging.SanitizeURL(tokenURL)).
			Msg("Token request failed")
	}
	if err != nil {
		metrics.TokenFetches.WithLabelValues(p.Name, "failure").Inc()
		return nil, models.NewPollError(models.KindAuth, tokenURL, err)
	}

	metrics.TokenFetches.WithLabelValues(p.Name, "success").Inc()
	logging.Ctx(ctx).Debug().Time("expiry", tok.Expiry).Msg("Obtained new access token")
	return tok, nil
}

func (f *Fetcher) invalidateToken(ctx context.Context, p *models.Provider) {
	if f.tokens == nil {
		return
	}
	if err := f.tokens.Invalidate(ctx, p.ID); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Failed to invalidate cached token")
	}
}
