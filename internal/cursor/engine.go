// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

package cursor

import (
	"fmt"
	"time"

	"github.com/tomtom215/mdspoller/internal/codec"
	"github.com/tomtom215/mdspoller/internal/models"
)

// DefaultLimit is how far back a provider without a cursor is polled.
const DefaultLimit = 90 * 24 * time.Hour

// Options configures an Engine.
type Options struct {
	// Limit is the initial look-back window of time cursors.
	Limit time.Duration
	// Unbounded starts time cursors at the epoch instead.
	Unbounded bool
	// Now overrides the clock.
	Now func() time.Time
}

// Engine plans requests and advances cursors. It holds no per-provider
// state and is safe for concurrent use.
type Engine struct {
	limit     time.Duration
	unbounded bool
	now       func() time.Time
}

// NewEngine creates an Engine.
func NewEngine(opts Options) *Engine {
	e := &Engine{limit: opts.Limit, unbounded: opts.Unbounded, now: opts.Now}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// Now returns the engine's current time.
func (e *Engine) Now() time.Time {
	return e.now()
}

// initialTime is where a never-polled time cursor starts.
func (e *Engine) initialTime() time.Time {
	if e.unbounded {
		return time.Unix(0, 0).UTC()
	}
	return e.now().Add(-e.limit).UTC()
}

// Position returns the current value of p's active cursor, falling back
// to the initial value when nothing was persisted.
func (e *Engine) Position(p *models.Provider) models.Cursor {
	kind := p.CursorKind()
	c := models.Cursor{Kind: kind}
	switch kind {
	case models.CursorTotalEvents:
		if p.Cursor.LastSkipPolled != nil {
			c.Skip = *p.Cursor.LastSkipPolled
		}
	case models.CursorStartRecorded:
		c.Time = e.timeOrInitial(p.Cursor.LastRecordedPolled)
	default:
		c.Time = e.timeOrInitial(p.Cursor.LastEventTimePolled)
	}
	return c
}

func (e *Engine) timeOrInitial(t *time.Time) time.Time {
	if t == nil {
		return e.initialTime()
	}
	return t.UTC()
}

// UnderLag reports whether p must not be polled yet because its last
// event time is more recent than its polling lag. Only the start_time
// cursor is gated.
func (e *Engine) UnderLag(p *models.Provider) (bool, time.Duration, error) {
	lag, err := p.Configuration.PollingLag()
	if err != nil {
		return false, 0, models.NewPollError(models.KindConfig, "", fmt.Errorf("provider_polling_lag: %w", err))
	}
	if lag <= 0 || p.CursorKind() != models.CursorStartTime {
		return false, lag, nil
	}
	last := e.timeOrInitial(p.Cursor.LastEventTimePolled)
	return e.now().Sub(last) < lag, lag, nil
}

// Page summarises a processed page for Advance.
type Page struct {
	// Size is the number of status changes served, valid or not.
	Size         int
	MaxEventTime *time.Time
	MaxRecorded  *time.Time
}

// Advance returns the cursor after page was processed from pos. ok is
// false when the page gives no reason to move and polling should stop.
func (e *Engine) Advance(req Request, pos models.Cursor, page Page) (next models.Cursor, ok bool) {
	if page.Size == 0 {
		if req.Archive {
			// An empty archive hour is skipped for good.
			return maxCursor(pos, req.ArchiveHour), true
		}
		return pos, false
	}

	switch pos.Kind {
	case models.CursorTotalEvents:
		return models.Cursor{Kind: pos.Kind, Skip: pos.Skip + int64(page.Size)}, true
	case models.CursorStartRecorded:
		return advanceTime(pos, page.MaxRecorded, req), true
	default:
		return advanceTime(pos, page.MaxEventTime, req), true
	}
}

func advanceTime(pos models.Cursor, candidate *time.Time, req Request) models.Cursor {
	if candidate == nil {
		if req.Archive {
			return maxCursor(pos, req.ArchiveHour)
		}
		// Nothing readable in a non-empty page: step past it.
		return models.Cursor{Kind: pos.Kind, Time: pos.Time.Add(time.Millisecond)}
	}
	return maxCursor(pos, *candidate)
}

func maxCursor(pos models.Cursor, t time.Time) models.Cursor {
	if t.After(pos.Time) {
		return models.Cursor{Kind: pos.Kind, Time: t.UTC()}
	}
	return pos
}

// Reached reports whether c is at or past the backfill bound to.
func Reached(c, to models.Cursor) bool {
	if c.Kind == models.CursorTotalEvents {
		return c.Skip >= to.Skip
	}
	return !c.Time.Before(to.Time)
}

// Apply writes c into the matching field of state.
func Apply(state *models.CursorState, c models.Cursor) {
	switch c.Kind {
	case models.CursorTotalEvents:
		skip := c.Skip
		state.LastSkipPolled = &skip
	case models.CursorStartRecorded:
		t := c.Time.UTC()
		state.LastRecordedPolled = &t
	default:
		t := c.Time.UTC()
		state.LastEventTimePolled = &t
	}
}

// ParseValue reads a backfill bound for kind: RFC 3339 or milliseconds for
// time cursors, an integer for total_events.
func ParseValue(kind models.CursorKind, raw string) (models.Cursor, error) {
	c := models.Cursor{Kind: kind}
	if kind == models.CursorTotalEvents {
		var skip int64
		if _, err := fmt.Sscan(raw, &skip); err != nil || skip < 0 {
			return c, fmt.Errorf("invalid skip value %q", raw)
		}
		c.Skip = skip
		return c, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		c.Time = t.UTC()
		return c, nil
	}
	ms, err := codec.ParseMS([]byte(raw))
	if err != nil {
		return c, fmt.Errorf("invalid time value %q: want RFC 3339 or milliseconds", raw)
	}
	c.Time = codec.FromMS(ms)
	return c, nil
}
