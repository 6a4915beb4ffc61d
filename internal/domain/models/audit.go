// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"fmt"
	"time"
)

// EditKind is the closed set of structural edits recorded in a session history.
type EditKind string

const (
	EditKindStartDateChanged   EditKind = "start_date_changed"
	EditKindEndDateChanged     EditKind = "end_date_changed"
	EditKindParticipantAdded   EditKind = "participant_added"
	EditKindParticipantRemoved EditKind = "participant_removed"
	EditKindCalendarSynced     EditKind = "calendar_synced"
)

var editKinds = []EditKind{
	EditKindStartDateChanged,
	EditKindEndDateChanged,
	EditKindParticipantAdded,
	EditKindParticipantRemoved,
	EditKindCalendarSynced,
}

// IsValid reports whether k is one of the known edit kinds.
func (k EditKind) IsValid() bool {
	for _, known := range editKinds {
		if k == known {
			return true
		}
	}
	return false
}

func (k EditKind) String() string {
	return string(k)
}

// ParseEditKind converts s into an EditKind.
func ParseEditKind(s string) (EditKind, error) {
	k := EditKind(s)
	if !k.IsValid() {
		return "", fmt.Errorf("unknown edit kind %q", s)
	}
	return k, nil
}

// AuditEntry records one structural change to a session. Entries are only
// ever appended; a whole history may be cleared by an admin.
type AuditEntry struct {
	UID       string    `json:"uid" msgpack:"uid"`
	Author    string    `json:"author" msgpack:"author"`
	AuthorID  string    `json:"author_id" msgpack:"author_id"`
	CreatedAt time.Time `json:"created_at" msgpack:"created_at"`
	EditKind  EditKind  `json:"edit_kind" msgpack:"edit_kind"`
	Before    *string   `json:"before,omitempty" msgpack:"before,omitempty"`
	After     *string   `json:"after,omitempty" msgpack:"after,omitempty"`
}

// Actor identifies who performs an edit.
type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
