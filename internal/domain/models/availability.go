// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import "time"

// EntryKind distinguishes busy and free entries in a day listing.
type EntryKind string

const (
	EntryKindBusy EntryKind = "busy"
	EntryKindOpen EntryKind = "open"
)

// DayEntry is one clipped piece of a busy event or open interval that falls on
// a single calendar day.
type DayEntry struct {
	Kind     EntryKind `json:"kind"`
	Interval Interval  `json:"interval"`
	Title    string    `json:"title,omitempty"`
	OwnerID  string    `json:"owner_id,omitempty"`
	IsAllDay bool      `json:"is_all_day,omitempty"`
}

// DaySection groups the entries whose piece starts on Day.
type DaySection struct {
	// Day is midnight of the section's calendar day in the display location.
	Day     time.Time  `json:"day"`
	Entries []DayEntry `json:"entries"`
}

// AvailabilityView is the result of one full recompute for a session.
type AvailabilityView struct {
	SessionUID string         `json:"session_uid"`
	Window     Interval       `json:"window"`
	Timezone   string         `json:"timezone"`
	Busy       []Interval     `json:"busy"`
	Open       []OpenInterval `json:"open"`
	BusyDays   []DaySection   `json:"busy_days"`
	OpenDays   []DaySection   `json:"open_days"`
	// Excluded lists the participants hidden from this view.
	Excluded    []string  `json:"excluded,omitempty"`
	ComputedAt  time.Time `json:"computed_at"`
	FetchErrors []string  `json:"fetch_errors,omitempty"`
}

// ReconciliationProposal is the outcome of comparing imported calendar events
// against a session's canonical events, awaiting user confirmation.
type ReconciliationProposal struct {
	New            []BusyEvent `json:"new"`
	AlreadyTracked []BusyEvent `json:"already_tracked"`
}
