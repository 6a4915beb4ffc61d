// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package constants

import "time"

// Session constraints
const (
	// JoinCodeBytes is the number of random bytes encoded into a join code.
	JoinCodeBytes = 6

	// MaxSessionWindow is the longest window a session may cover.
	MaxSessionWindow = 366 * 24 * time.Hour

	// MaxSessionNameLength bounds the display name of a session.
	MaxSessionNameLength = 200
)

// Runtime defaults
const (
	// DefaultSessionCacheSize is the number of sessions kept in memory.
	DefaultSessionCacheSize = 256

	// DefaultSessionCacheTTL bounds how stale a cached session may get when
	// another instance writes it.
	DefaultSessionCacheTTL = 30 * time.Second

	// DefaultCalendarFetchWorkers bounds concurrent calendar feed fetches.
	DefaultCalendarFetchWorkers = 4

	// DefaultCalendarFetchTimeout is the per-feed HTTP timeout.
	DefaultCalendarFetchTimeout = 15 * time.Second
)
