// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

package poller

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/tomtom215/mdspoller/internal/codec"
	"github.com/tomtom215/mdspoller/internal/fetcher"
	"github.com/tomtom215/mdspoller/internal/models"
	"github.com/tomtom215/mdspoller/internal/tokencache"
)

func newTokenCache(t *testing.T) *tokencache.Cache {
	t.Helper()
	cache, err := tokencache.Open(tokencache.Options{Backend: tokencache.BackendMemory})
	if err != nil {
		t.Fatalf("tokencache.Open: %v", err)
	}
	t.Cleanup(func() { _ = cache.Close() })
	return cache
}

func oauthTestProvider(baseURL string) *models.Provider {
	return &models.Provider{
		ID:         uuid.New(),
		Name:       "oauth",
		BaseAPIURL: baseURL,
		APIVersion: models.APIVersion03,
		Authentication: models.Authentication{
			Type:   models.AuthOAuth2,
			OAuth2: &models.OAuth2Credentials{ClientID: "client", ClientSecret: "secret"},
		},
	}
}

func TestRun_OAuthTokenInvalidation(t *testing.T) {
	tests := []struct {
		name         string
		acceptFresh  bool
		wantState    State
		wantKind     models.ErrorKind
		wantRecords  int64
		wantDataHits int32
	}{
		{name: "refreshed token accepted", acceptFresh: true, wantState: StateDone, wantRecords: 1, wantDataHits: 2},
		{name: "refreshed token rejected", acceptFresh: false, wantState: StateFailed, wantKind: models.KindAuth, wantDataHits: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := setupTestDB(t)
			tokens := newTokenCache(t)
			providerID := uuid.New()
			body := page(t, "0.3.0", "", statusChange(providerID, uuid.New(), 1_325_376_000_000, "service_start"))

			var tokenHits, dataHits atomic.Int32
			mux := http.NewServeMux()
			mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
				tokenHits.Add(1)
				w.Header().Set("Content-Type", "application/json")
				_, _ = io.WriteString(w, `{"access_token":"fresh","token_type":"bearer","expires_in":3600}`)
			})
			mux.HandleFunc("/mds/status_changes", func(w http.ResponseWriter, r *http.Request) {
				dataHits.Add(1)
				if !tt.acceptFresh || r.Header.Get("Authorization") != "Bearer fresh" {
					w.WriteHeader(http.StatusUnauthorized)
					return
				}
				w.Header().Set("Content-Type", models.MDSContentType+";version=0.3")
				_, _ = io.WriteString(w, body)
			})
			srv := httptest.NewServer(mux)
			defer srv.Close()

			p := oauthTestProvider(srv.URL + "/mds")
			p.ID = providerID
			registerProvider(t, db, p, startTime(1_325_375_000_000))
			stale := &oauth2.Token{AccessToken: "stale", TokenType: "bearer", Expiry: time.Now().Add(time.Hour)}
			if err := tokens.Put(context.Background(), p.ID, stale); err != nil {
				t.Fatalf("Put: %v", err)
			}

			f := fetcher.New(tokens, fetcher.Options{Timeout: 5 * time.Second, RetryDelay: time.Millisecond})
			res := resultFor(t, runOnce(t, db, f, Options{}), p.ID)

			if res.State != tt.wantState {
				t.Fatalf("state = %s, want %s (err %v)", res.State, tt.wantState, res.Err)
			}
			if tt.wantKind != "" && models.KindOf(res.Err) != tt.wantKind {
				t.Errorf("kind = %s, want %s (err %v)", models.KindOf(res.Err), tt.wantKind, res.Err)
			}
			if got := dataHits.Load(); got != tt.wantDataHits {
				t.Errorf("data requests = %d, want %d", got, tt.wantDataHits)
			}
			if tokenHits.Load() < 1 {
				t.Error("token endpoint never called")
			}
			if n := countRecords(t, db); n != tt.wantRecords {
				t.Errorf("event records = %d, want %d", n, tt.wantRecords)
			}
			if tt.wantState == StateDone {
				if got := lastEventTime(t, db, p.ID); got == nil || codec.ToMS(*got) != 1_325_376_000_000 {
					t.Errorf("last_event_time_polled = %v", got)
				}
			}
		})
	}
}
