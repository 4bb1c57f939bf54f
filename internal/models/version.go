// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

package models

import "fmt"

// VersionStrategy describes how one MDS version is polled: which endpoints
// exist, what the Accept header advertises, which cursors are usable and
// whether payloads need translating to the latest shape.
type VersionStrategy struct {
	Version APIVersion
	// StatusChanges is the paginated history endpoint. In 0.4 it only
	// serves archived hours, indexed by event_time=YYYY-MM-DDTHH.
	StatusChanges string
	// Events is the 0.4 realtime endpoint; empty for older versions.
	Events    string
	Accept    string
	Cursors   []CursorKind
	Translate bool
}

var versionStrategies = map[APIVersion]VersionStrategy{
	APIVersion02: {
		Version:       APIVersion02,
		StatusChanges: "status_changes",
		Accept:        acceptWithJSON(APIVersion02),
		Cursors:       []CursorKind{CursorStartTime},
		Translate:     true,
	},
	APIVersion03: {
		Version:       APIVersion03,
		StatusChanges: "status_changes",
		Accept:        acceptWithJSON(APIVersion03),
		Cursors:       []CursorKind{CursorStartTime, CursorStartRecorded, CursorTotalEvents},
	},
	APIVersion04: {
		Version:       APIVersion04,
		StatusChanges: "status_changes",
		Events:        "events",
		Accept:        mdsMediaType(APIVersion04),
		Cursors:       []CursorKind{CursorStartTime},
	},
}

// StrategyFor returns the polling strategy of version v. Spellings accepted
// by ParseAPIVersion, such as "0.3.1" or "v0_3", are normalized first.
func StrategyFor(v APIVersion) (VersionStrategy, error) {
	s, ok := versionStrategies[v]
	if ok {
		return s, nil
	}
	normalized, err := ParseAPIVersion(string(v))
	if err != nil {
		return VersionStrategy{}, err
	}
	if s, ok = versionStrategies[normalized]; !ok {
		return VersionStrategy{}, fmt.Errorf("%w: %q", ErrUnsupportedVersion, v)
	}
	return s, nil
}

// Supports reports whether cursor kind k can be used with this version.
func (s VersionStrategy) Supports(k CursorKind) bool {
	for _, c := range s.Cursors {
		if c == k {
			return true
		}
	}
	return false
}

func mdsMediaType(v APIVersion) string {
	return MDSContentType + ";version=" + string(v)
}

// Some providers only honour the generic JSON type before 0.4.
func acceptWithJSON(v APIVersion) string {
	return "application/json," + mdsMediaType(v)
}
