// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

package tokencache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/tomtom215/mdspoller/internal/logging"
	"github.com/tomtom215/mdspoller/internal/metrics"
	"golang.org/x/oauth2"
)

const (
	// KeyPrefix namespaces token entries in shared backends.
	KeyPrefix = "oauth2-token:"

	// SafetyMargin is removed from every token lifetime to absorb clock drift.
	SafetyMargin = 10 * time.Second

	// DefaultLifetime applies to tokens that carry no expiry information.
	DefaultLifetime = time.Hour
)

// Cache is the per-provider OAuth2 token cache. It is safe for concurrent
// use as long as its Backend is.
type Cache struct {
	backend Backend
	cipher  *Cipher
}

// Options configures Open.
type Options struct {
	Backend BackendType
	// Path is the BadgerDB directory for the badger backend.
	Path string
	// EncryptionKey is a Fernet key or passphrase. When empty a random key
	// is generated, which makes previously cached tokens unreadable.
	EncryptionKey string
}

// New creates a cache over backend, sealing entries with cipher.
func New(backend Backend, cipher *Cipher) *Cache {
	return &Cache{backend: backend, cipher: cipher}
}

// Open builds a cache from options.
func Open(opts Options) (*Cache, error) {
	key := opts.EncryptionKey
	if key == "" {
		generated, err := GenerateKey()
		if err != nil {
			return nil, err
		}
		logging.Warn().
			Str("backend", string(opts.Backend)).
			Msg("POLLER_TOKEN_ENCRYPTION_KEY not set: generated a random key, cached tokens will not survive a restart")
		key = generated
	}
	cipher, err := NewCipher(key)
	if err != nil {
		return nil, err
	}

	var backend Backend
	switch opts.Backend {
	case "", BackendMemory:
		backend = NewMemoryBackend()
	case BackendBadger:
		if opts.Path == "" {
			return nil, errors.New("badger token cache requires a path")
		}
		backend, err = OpenBadger(opts.Path)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown token cache backend %q", opts.Backend)
	}
	return New(backend, cipher), nil
}

// Key returns the backend key of a provider's token.
func Key(providerID uuid.UUID) string {
	return KeyPrefix + providerID.String()
}

// Get returns the cached token of a provider, or nil when there is none,
// it has expired, or it cannot be decrypted.
func (c *Cache) Get(ctx context.Context, providerID uuid.UUID) (*oauth2.Token, error) {
	sealed, err := c.backend.Get(ctx, Key(providerID))
	if errors.Is(err, ErrNotFound) {
		metrics.TokenCacheLookups.WithLabelValues("miss").Inc()
		return nil, nil
	}
	if err != nil {
		metrics.TokenCacheLookups.WithLabelValues("error").Inc()
		return nil, err
	}

	plain, ok := c.cipher.Decrypt(sealed)
	if !ok {
		metrics.TokenCacheLookups.WithLabelValues("undecryptable").Inc()
		logging.Ctx(ctx).Info().Msg("Invalid token stored in the cache, ignoring it")
		return nil, nil
	}

	var tok oauth2.Token
	if err := json.Unmarshal(plain, &tok); err != nil || tok.AccessToken == "" {
		metrics.TokenCacheLookups.WithLabelValues("undecryptable").Inc()
		logging.Ctx(ctx).Info().Msg("Unreadable token stored in the cache, ignoring it")
		return nil, nil
	}
	if !tok.Expiry.IsZero() && !time.Now().Before(tok.Expiry) {
		metrics.TokenCacheLookups.WithLabelValues("miss").Inc()
		return nil, nil
	}

	metrics.TokenCacheLookups.WithLabelValues("hit").Inc()
	return &tok, nil
}

// Put caches tok for its remaining lifetime minus SafetyMargin. Tokens that
// would expire within the margin are not cached.
func (c *Cache) Put(ctx context.Context, providerID uuid.UUID, tok *oauth2.Token) error {
	return c.PutTTL(ctx, providerID, tok, Lifetime(tok))
}

// PutTTL caches tok for lifetime minus SafetyMargin.
func (c *Cache) PutTTL(ctx context.Context, providerID uuid.UUID, tok *oauth2.Token, lifetime time.Duration) error {
	ttl := lifetime - SafetyMargin
	if ttl <= 0 {
		logging.Ctx(ctx).Debug().Dur("lifetime", lifetime).Msg("Token expires too soon to be cached")
		return nil
	}

	plain, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}
	sealed, err := c.cipher.Encrypt(plain)
	if err != nil {
		return err
	}
	if err := c.backend.Set(ctx, Key(providerID), sealed, ttl); err != nil {
		return err
	}
	logging.Ctx(ctx).Info().Dur("ttl", ttl).Msg("New token stored in cache")
	return nil
}

// Invalidate removes the provider's cached token.
func (c *Cache) Invalidate(ctx context.Context, providerID uuid.UUID) error {
	logging.Ctx(ctx).Debug().Msg("Token deleted from cache")
	return c.backend.Delete(ctx, Key(providerID))
}

// Close releases the backend.
func (c *Cache) Close() error {
	return c.backend.Close()
}

// Lifetime is how long tok remains usable: expires_in when the token
// endpoint sent it, else the time to its expiry, else DefaultLifetime.
func Lifetime(tok *oauth2.Token) time.Duration {
	if tok.ExpiresIn > 0 {
		return time.Duration(tok.ExpiresIn) * time.Second
	}
	if !tok.Expiry.IsZero() {
		return time.Until(tok.Expiry)
	}
	return DefaultLifetime
}
