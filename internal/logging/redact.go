// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

package logging

import (
	"net/url"
	"strings"
)

// sensitiveParams are query parameters that never reach the logs verbatim.
var sensitiveParams = map[string]bool{
	"access_token":  true,
	"client_secret": true,
	"token":         true,
	"api_key":       true,
	"apikey":        true,
	"password":      true,
}

// SanitizeToken masks a bearer token, keeping the first and last 4 characters.
// Example: "eyJhbGciOiJIUzI1NiJ9.e30.abc" -> "eyJh....abc"
func SanitizeToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// SanitizeURL strips credentials from a provider URL before logging it:
// userinfo is dropped and sensitive query values are masked.
func SanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return truncateString(raw, 256)
	}
	if u.User != nil {
		u.User = url.User("***")
	}

	q := u.Query()
	changed := false
	for key := range q {
		if sensitiveParams[strings.ToLower(key)] {
			q.Set(key, "***")
			changed = true
		}
	}
	if changed {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// SanitizeBody shortens a response body for inclusion in an error message.
func SanitizeBody(body []byte) string {
	return truncateString(strings.TrimSpace(string(body)), 512)
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "...(truncated)"
}
