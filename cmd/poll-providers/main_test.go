// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/mdspoller/internal/models"
	"github.com/tomtom215/mdspoller/internal/poller"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
		check   func(t *testing.T, o options)
	}{
		{
			name: "no flags",
			args: nil,
			check: func(t *testing.T, o options) {
				if o.raiseOnError || o.serve || len(o.providers) != 0 {
					t.Errorf("options = %+v, want zero", o)
				}
			},
		},
		{
			name: "raise on error and repeated providers",
			args: []string{"--raise-on-error", "--provider", "a", "--provider=b"},
			check: func(t *testing.T, o options) {
				if !o.raiseOnError {
					t.Error("raiseOnError not set")
				}
				if len(o.providers) != 2 || o.providers[1] != "b" {
					t.Errorf("providers = %v", o.providers)
				}
			},
		},
		{name: "positional argument", args: []string{"extra"}, wantErr: true},
		{name: "unknown flag", args: []string{"--verbose"}, wantErr: true},
		{name: "backfill with serve", args: []string{"--serve", "--cursor", "start_time"}, wantErr: true},
		{name: "from without cursor", args: []string{"--from", "0"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := parseFlags(tt.args, &bytes.Buffer{})
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseFlags(%v) error = %v, wantErr %v", tt.args, err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, o)
			}
		})
	}
}

func TestOptionsBackfill(t *testing.T) {
	tests := []struct {
		name     string
		opts     options
		wantNil  bool
		wantErr  bool
		wantFrom models.Cursor
	}{
		{name: "none", opts: options{}, wantNil: true},
		{
			name:     "time range",
			opts:     options{cursorKind: "start_time", from: "2019-10-16T00:00:00Z", to: "1571270400000"},
			wantFrom: models.Cursor{Kind: models.CursorStartTime, Time: time.Date(2019, 10, 16, 0, 0, 0, 0, time.UTC)},
		},
		{
			name:     "skip range",
			opts:     options{cursorKind: "total_events", from: "100", to: "500"},
			wantFrom: models.Cursor{Kind: models.CursorTotalEvents, Skip: 100},
		},
		{name: "bad kind", opts: options{cursorKind: "end_time", from: "1", to: "2"}, wantErr: true},
		{name: "missing to", opts: options{cursorKind: "start_time", from: "1"}, wantErr: true},
		{name: "bad value", opts: options{cursorKind: "total_events", from: "x", to: "2"}, wantErr: true},
		{name: "inverted", opts: options{cursorKind: "total_events", from: "9", to: "2"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := tt.opts.backfill()
			if (err != nil) != tt.wantErr {
				t.Fatalf("backfill() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if tt.wantNil {
				if b != nil {
					t.Errorf("backfill() = %+v, want nil", b)
				}
				return
			}
			if b.From.Kind != tt.wantFrom.Kind || !b.From.Time.Equal(tt.wantFrom.Time) || b.From.Skip != tt.wantFrom.Skip {
				t.Errorf("From = %+v, want %+v", b.From, tt.wantFrom)
			}
		})
	}
}

func TestOptionsProviderIDs(t *testing.T) {
	id := uuid.New()
	ids, err := options{providers: []string{id.String()}}.providerIDs()
	if err != nil || len(ids) != 1 || ids[0] != id {
		t.Errorf("providerIDs() = %v, %v", ids, err)
	}
	if _, err := (options{providers: []string{"lime"}}).providerIDs(); err == nil {
		t.Error("providerIDs() accepted a non-uuid")
	}
}

func TestPrintReport(t *testing.T) {
	id := uuid.MustParse("63f13c48-34ff-49d2-aca7-cf6a5b6171c3")
	report := &poller.Report{Results: []poller.ProviderResult{
		{ProviderID: id, Name: "Lime", State: poller.StateDone, Records: 12, Pages: 2},
		{ProviderID: id, Name: "Bird", State: poller.StateSkipped, Reason: "polling lag"},
		{ProviderID: id, Name: "Dott", State: poller.StateFailed,
			Err: models.NewPollError(models.KindFetch, "https://mds.dott.example.com", errors.New("HTTP 502"))},
	}}

	var stdout, stderr bytes.Buffer
	printReport(&stdout, &stderr, report)

	wantOut := "Polling Lime (63f13c48-34ff-49d2-aca7-cf6a5b6171c3)... Success (12 records, 2 pages)\n" +
		"Polling Bird (63f13c48-34ff-49d2-aca7-cf6a5b6171c3)... Skipped (polling lag)\n"
	if stdout.String() != wantOut {
		t.Errorf("stdout = %q, want %q", stdout.String(), wantOut)
	}
	wantErr := "Polling Dott (63f13c48-34ff-49d2-aca7-cf6a5b6171c3)... Failed: fetch_error: HTTP 502\n"
	if stderr.String() != wantErr {
		t.Errorf("stderr = %q, want %q", stderr.String(), wantErr)
	}
}

// mdsServer serves one 0.3 page with a single status change for any
// status_changes request, or HTTP 500 when failing is set.
func mdsServer(t *testing.T, providerID uuid.UUID, failing bool) *httptest.Server {
	t.Helper()
	eventMS := time.Now().Add(-time.Hour).UnixMilli()
	deviceID := uuid.New()
	body, err := json.Marshal(map[string]any{
		"version": "0.3.0",
		"data": map[string]any{"status_changes": []map[string]any{{
			"provider_id":       providerID.String(),
			"provider_name":     "Lime",
			"device_id":         deviceID.String(),
			"vehicle_id":        "VIN-1",
			"vehicle_type":      "scooter",
			"propulsion_type":   []string{"electric"},
			"event_type":        "available",
			"event_type_reason": "service_start",
			"event_time":        eventMS,
			"event_location": map[string]any{
				"type":       "Feature",
				"properties": map[string]any{"timestamp": eventMS},
				"geometry":   map[string]any{"type": "Point", "coordinates": []float64{2.35, 48.85}},
			},
		}}},
		"links": map[string]any{},
	})
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failing {
			http.Error(w, "upstream down", http.StatusInternalServerError)
			return
		}
		if !strings.HasSuffix(r.URL.Path, "/status_changes") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.mds.provider+json;version=0.3")
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T, baseURL string, providerID uuid.UUID) string {
	t.Helper()
	dir := t.TempDir()
	yaml := fmt.Sprintf(`
fetch:
  retry_delay: 1ms
  breaker_failures: 0
database:
  path: %s
  threads: 1
logging:
  level: error
providers:
  - id: %s
    name: Lime
    base_api_url: %s
    api_version: "0.3"
`, filepath.Join(dir, "poller.duckdb"), providerID, baseURL)
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestRun_EndToEnd(t *testing.T) {
	tests := []struct {
		name       string
		failing    bool
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{
			name:       "success",
			wantCode:   exitOK,
			wantStdout: "... Success (1 records, 1 pages)",
		},
		{
			name:       "failure without raise",
			failing:    true,
			wantCode:   exitOK,
			wantStderr: "... Failed: fetch_error",
		},
		{
			name:       "failure with raise",
			failing:    true,
			args:       []string{"--raise-on-error"},
			wantCode:   exitFailure,
			wantStderr: "... Failed: fetch_error",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			providerID := uuid.New()
			srv := mdsServer(t, providerID, tt.failing)
			args := append([]string{"--config", writeConfig(t, srv.URL, providerID)}, tt.args...)

			var stdout, stderr bytes.Buffer
			code := run(context.Background(), args, &stdout, &stderr)
			if code != tt.wantCode {
				t.Fatalf("run() = %d, want %d\nstdout: %s\nstderr: %s", code, tt.wantCode, stdout.String(), stderr.String())
			}
			if tt.wantStdout != "" && !strings.Contains(stdout.String(), tt.wantStdout) {
				t.Errorf("stdout = %q, want it to contain %q", stdout.String(), tt.wantStdout)
			}
			if tt.wantStderr != "" && !strings.Contains(stderr.String(), tt.wantStderr) {
				t.Errorf("stderr = %q, want it to contain %q", stderr.String(), tt.wantStderr)
			}
		})
	}
}

func TestRun_UsageErrors(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), []string{"--provider", "not-a-uuid"}, &stdout, &stderr); code != exitUsage {
		t.Errorf("run() = %d, want %d", code, exitUsage)
	}
	if code := run(context.Background(), []string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}, &stdout, &stderr); code != exitStartup {
		t.Errorf("run() with missing config = %d, want %d", code, exitStartup)
	}
}
