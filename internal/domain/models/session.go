// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"fmt"
	"slices"
	"time"
)

// Session is the key-value store representation of a group or room: a
// bounded-time scheduling unit with participants, admins and busy events.
type Session struct {
	UID            string          `json:"uid"`
	Name           string          `json:"name"`
	Code           string          `json:"code"`
	Timezone       string          `json:"timezone,omitempty"`
	WindowStart    time.Time       `json:"window_start"`
	WindowEnd      time.Time       `json:"window_end"`
	ParticipantIDs []string        `json:"participant_ids"`
	AdminIDs       []string        `json:"admin_ids"`
	Events         []BusyEvent     `json:"events,omitempty"`
	History        []AuditEntry    `json:"-"`
	Settings       SessionSettings `json:"settings"`
	CreatedAt      *time.Time      `json:"created_at,omitempty"`
	UpdatedAt      *time.Time      `json:"updated_at,omitempty"`
}

// SessionSettings holds the limits an admin configures for a session.
type SessionSettings struct {
	MinParticipants int       `json:"min_participants"`
	MaxParticipants int       `json:"max_participants"`
	BoundedStart    time.Time `json:"bounded_start"`
	BoundedEnd      time.Time `json:"bounded_end"`
	IsLocked        bool      `json:"is_locked"`
	AllowJoin       bool      `json:"allow_join"`
}

// Window returns the session's visible window.
func (s *Session) Window() Interval {
	return Interval{Start: s.WindowStart, End: s.WindowEnd}
}

// Bounds returns the outer limits the window may move within. A zero bound
// leaves that side open. The zero Interval is returned when no bounds are
// configured.
func (s *Session) Bounds() (Interval, bool) {
	if s.Settings.BoundedStart.IsZero() && s.Settings.BoundedEnd.IsZero() {
		return Interval{}, false
	}
	return Interval{Start: s.Settings.BoundedStart, End: s.Settings.BoundedEnd}, true
}

// WithinBounds reports whether t lies inside the configured bounds.
func (s *Session) WithinBounds(t time.Time) bool {
	if !s.Settings.BoundedStart.IsZero() && t.Before(s.Settings.BoundedStart) {
		return false
	}
	if !s.Settings.BoundedEnd.IsZero() && t.After(s.Settings.BoundedEnd) {
		return false
	}
	return true
}

// Location resolves the session timezone, falling back to UTC.
func (s *Session) Location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Validate checks the window and settings invariants.
func (s *Session) Validate() error {
	if s.WindowStart.After(s.WindowEnd) {
		return fmt.Errorf("window start %s is after window end %s",
			s.WindowStart.Format(time.RFC3339), s.WindowEnd.Format(time.RFC3339))
	}
	if bounds, ok := s.Bounds(); ok {
		if !bounds.Start.IsZero() && !bounds.End.IsZero() && bounds.Start.After(bounds.End) {
			return fmt.Errorf("bounded start is after bounded end")
		}
		if !s.WithinBounds(s.WindowStart) || !s.WithinBounds(s.WindowEnd) {
			return fmt.Errorf("window %s is outside bounds %s", s.Window(), bounds)
		}
	}
	if s.Settings.MinParticipants < 0 || s.Settings.MaxParticipants < 0 {
		return fmt.Errorf("participant limits must not be negative")
	}
	if s.Settings.MaxParticipants > 0 && s.Settings.MinParticipants > s.Settings.MaxParticipants {
		return fmt.Errorf("min participants %d exceeds max participants %d",
			s.Settings.MinParticipants, s.Settings.MaxParticipants)
	}
	return nil
}

// HasParticipant reports whether id is a participant.
func (s *Session) HasParticipant(id string) bool {
	return slices.Contains(s.ParticipantIDs, id)
}

// IsAdmin reports whether id has admin rights.
func (s *Session) IsAdmin(id string) bool {
	return slices.Contains(s.AdminIDs, id)
}

// RoleOf returns the role id holds in the session.
func (s *Session) RoleOf(id string) Role {
	switch {
	case s.IsAdmin(id):
		return RoleAdmin
	case s.HasParticipant(id):
		return RoleMember
	default:
		return RoleNone
	}
}

// AddParticipant adds id if missing and reports whether it was added.
func (s *Session) AddParticipant(id string) bool {
	if s.HasParticipant(id) {
		return false
	}
	s.ParticipantIDs = append(s.ParticipantIDs, id)
	return true
}

// RemoveParticipant removes id from the participants and admins and reports
// whether it was a participant.
func (s *Session) RemoveParticipant(id string) bool {
	if !s.HasParticipant(id) {
		return false
	}
	s.ParticipantIDs = slices.DeleteFunc(s.ParticipantIDs, func(p string) bool { return p == id })
	s.AdminIDs = slices.DeleteFunc(s.AdminIDs, func(p string) bool { return p == id })
	return true
}

// GrantAdmin gives id admin rights and reports whether anything changed.
func (s *Session) GrantAdmin(id string) bool {
	if !s.HasParticipant(id) || s.IsAdmin(id) {
		return false
	}
	s.AdminIDs = append(s.AdminIDs, id)
	return true
}

// RevokeAdmin removes admin rights from id and reports whether anything changed.
func (s *Session) RevokeAdmin(id string) bool {
	if !s.IsAdmin(id) {
		return false
	}
	s.AdminIDs = slices.DeleteFunc(s.AdminIDs, func(p string) bool { return p == id })
	return true
}

// Snapshot returns a deep copy safe to hand to the aggregation engine while
// the original keeps being edited.
func (s *Session) Snapshot() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	cp.ParticipantIDs = slices.Clone(s.ParticipantIDs)
	cp.AdminIDs = slices.Clone(s.AdminIDs)
	cp.Events = slices.Clone(s.Events)
	cp.History = slices.Clone(s.History)
	return &cp
}

// Tags generates a consistent set of tags for the session.
func (s *Session) Tags() []string {
	if s == nil {
		return nil
	}

	tags := []string{}
	if s.UID != "" {
		tags = append(tags, s.UID, fmt.Sprintf("session_uid:%s", s.UID))
	}
	if s.Name != "" {
		tags = append(tags, fmt.Sprintf("name:%s", s.Name))
	}
	if s.Code != "" {
		tags = append(tags, fmt.Sprintf("code:%s", s.Code))
	}
	return tags
}
