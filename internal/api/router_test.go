// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/mdspoller/internal/config"
	"github.com/tomtom215/mdspoller/internal/database"
)

type fakeStore struct {
	pingErr error
	pings   int
}

func (f *fakeStore) Ping(context.Context) error {
	f.pings++
	return f.pingErr
}

func serve(t *testing.T, store Store, path string) *httptest.ResponseRecorder {
	t.Helper()
	router := NewRouter(NewHandler(store), time.Second)
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		pingErr    error
		wantCode   int
		wantStatus string
	}{
		{"database up", nil, http.StatusOK, "healthy"},
		{"database down", errors.New("database is closed"), http.StatusServiceUnavailable, "degraded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, &fakeStore{pingErr: tt.pingErr}, "/healthz")
			if rec.Code != tt.wantCode {
				t.Errorf("status code = %d, want %d", rec.Code, tt.wantCode)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}
			body := decode[HealthStatus](t, rec)
			if body.Status != tt.wantStatus || body.DatabaseConnected != (tt.pingErr == nil) {
				t.Errorf("body = %+v", body)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	rec := serve(t, &fakeStore{}, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Error("metrics output missing default collectors")
	}
}

func TestRouter_JSONErrors(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		path     string
		wantCode int
		wantMsg  string
	}{
		{"unknown path", http.MethodGet, "/providers", http.StatusNotFound, "not found"},
		{"wrong method", http.MethodPost, "/healthz", http.StatusMethodNotAllowed, "method not allowed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := NewRouter(NewHandler(&fakeStore{}), 0)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.wantCode {
				t.Fatalf("%s %s = %d, want %d", tt.method, tt.path, rec.Code, tt.wantCode)
			}
			if body := decode[errorBody](t, rec); body.Error != tt.wantMsg {
				t.Errorf("error = %q, want %q", body.Error, tt.wantMsg)
			}
		})
	}
}

func TestRouter_WithDatabase(t *testing.T) {
	db, err := database.New(&config.DatabaseConfig{Path: ":memory:", MaxMemory: "1GB", Threads: 1})
	if err != nil {
		t.Fatalf("database.New: %v", err)
	}

	if rec := serve(t, db, "/healthz"); rec.Code != http.StatusOK {
		t.Errorf("GET /healthz = %d, want 200", rec.Code)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if rec := serve(t, db, "/healthz"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("GET /healthz after close = %d, want 503", rec.Code)
	}
}

func TestRouter_RateLimitsHealth(t *testing.T) {
	store := &fakeStore{}
	router := NewRouter(NewHandler(store), time.Second)

	for i := 0; i < healthRateLimit; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status code = %d", i, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status code = %d, want 429", rec.Code)
	}
	if store.pings != healthRateLimit {
		t.Errorf("pings = %d, want %d", store.pings, healthRateLimit)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("/metrics status code = %d, want 200 while health checks are limited", rec.Code)
	}
}
