// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

package models

import (
	"fmt"
	"time"
)

// CursorKind selects which persisted field drives a provider's polling.
type CursorKind string

// Cursor strategies.
const (
	CursorStartTime     CursorKind = "start_time"
	CursorStartRecorded CursorKind = "start_recorded"
	CursorTotalEvents   CursorKind = "total_events"
)

// ParseCursorKind validates a cursor name.
func ParseCursorKind(s string) (CursorKind, error) {
	switch k := CursorKind(s); k {
	case CursorStartTime, CursorStartRecorded, CursorTotalEvents:
		return k, nil
	case "":
		return CursorStartTime, nil
	default:
		return "", fmt.Errorf("unknown polling cursor %q", s)
	}
}

// QueryParam is the query-string parameter carrying the cursor value.
func (k CursorKind) QueryParam() string {
	if k == CursorTotalEvents {
		return "skip"
	}
	return string(k)
}

// IsTime reports whether the cursor holds an instant rather than a count.
func (k CursorKind) IsTime() bool {
	return k == CursorStartTime || k == CursorStartRecorded
}

// AllowedFor rejects cursors a version does not define: 0.2 and 0.4 only
// know start_time.
func (k CursorKind) AllowedFor(v APIVersion) error {
	s, err := StrategyFor(v)
	if err != nil {
		return err
	}
	if !s.Supports(k) {
		return fmt.Errorf("polling cursor %q is not available in MDS %s", k, v)
	}
	return nil
}

// CursorState is the three persisted cursor columns of a provider.
// Nil means never polled.
type CursorState struct {
	LastEventTimePolled *time.Time
	LastRecordedPolled  *time.Time
	LastSkipPolled      *int64
}

// Cursor is the single active arm of a provider's cursor state. Time is
// meaningful for time-based kinds, Skip for total_events.
type Cursor struct {
	Kind CursorKind
	Time time.Time
	Skip int64
}

// String renders the cursor for logs.
func (c Cursor) String() string {
	if c.Kind == CursorTotalEvents {
		return fmt.Sprintf("%s=%d", c.Kind, c.Skip)
	}
	return fmt.Sprintf("%s=%s", c.Kind, c.Time.UTC().Format(time.RFC3339Nano))
}
