// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

package models

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies poller failures.
type ErrorKind string

// Error kinds reported by a poller run.
const (
	KindFetch              ErrorKind = "fetch_error"
	KindUnsupportedVersion ErrorKind = "unsupported_version"
	KindMalformedBody      ErrorKind = "malformed_body"
	KindBadRecord          ErrorKind = "bad_record"
	KindBadParam           ErrorKind = "bad_param"
	KindUpsertConflict     ErrorKind = "upsert_conflict"
	KindAuth               ErrorKind = "auth_error"
	KindCancelled          ErrorKind = "cancelled"
	KindConfig             ErrorKind = "config_error"
	KindStore              ErrorKind = "store_error"
	KindUnknown            ErrorKind = "unknown"
)

// PollError is an error tagged with its kind and the URL being processed.
type PollError struct {
	Kind ErrorKind
	URL  string
	Err  error
}

// NewPollError wraps err with a kind. A nil err yields nil.
func NewPollError(kind ErrorKind, url string, err error) error {
	if err == nil {
		return nil
	}
	return &PollError{Kind: kind, URL: url, Err: err}
}

func (e *PollError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.URL, e.Err)
}

func (e *PollError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err. Untagged context errors are reported as
// cancelled.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var pe *PollError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCancelled
	}
	if errors.Is(err, ErrUnsupportedVersion) {
		return KindUnsupportedVersion
	}
	return KindUnknown
}
