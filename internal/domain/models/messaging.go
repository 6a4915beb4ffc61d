// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import "time"

// NATS subjects that the availability service sends messages about.
const (
	// SessionUpdatedSubject is published after any persisted change to a session.
	// The subject is of the form: lfx.availability.session_updated
	SessionUpdatedSubject = "lfx.availability.session_updated"

	// HistoryAppendedSubject is published for every new audit entry.
	// The subject is of the form: lfx.availability.history_appended
	HistoryAppendedSubject = "lfx.availability.history_appended"

	// HistoryClearedSubject is published when an admin clears a session history.
	// The subject is of the form: lfx.availability.history_cleared
	HistoryClearedSubject = "lfx.availability.history_cleared"

	// CalendarSyncedSubject is published when imported events were committed.
	// The subject is of the form: lfx.availability.calendar_synced
	CalendarSyncedSubject = "lfx.availability.calendar_synced"
)

// NATS wildcard subjects that the availability service handles messages about.
const (
	// AvailabilityAPIQueue is the queue group name for the availability API.
	// The subject is of the form: lfx.availability-api.queue
	AvailabilityAPIQueue = "lfx.availability-api.queue"
)

// NATS specific subjects that the availability service handles messages about.
const (
	// OpenIntervalsSubject computes busy/open time for a session.
	// The subject is of the form: lfx.availability-api.open_intervals
	OpenIntervalsSubject = "lfx.availability-api.open_intervals"

	// SessionHistorySubject returns the sorted audit trail of a session.
	// The subject is of the form: lfx.availability-api.session_history
	SessionHistorySubject = "lfx.availability-api.session_history"

	// CalendarSyncProposeSubject returns a reconciliation proposal.
	// The subject is of the form: lfx.availability-api.calendar_sync.propose
	CalendarSyncProposeSubject = "lfx.availability-api.calendar_sync.propose"

	// CalendarSyncCommitSubject commits a confirmed reconciliation proposal.
	// The subject is of the form: lfx.availability-api.calendar_sync.commit
	CalendarSyncCommitSubject = "lfx.availability-api.calendar_sync.commit"

	// ParticipantActionsSubject returns the actions a viewer may take on a participant.
	// The subject is of the form: lfx.availability-api.participant_actions
	ParticipantActionsSubject = "lfx.availability-api.participant_actions"

	// The subjects below perform structural session edits. Each successful edit
	// appends one audit entry and publishes SessionUpdatedSubject.
	SessionCreateSubject            = "lfx.availability-api.session.create"
	SessionGetSubject               = "lfx.availability-api.session.get"
	SessionWindowStartSubject       = "lfx.availability-api.session.window_start"
	SessionWindowEndSubject         = "lfx.availability-api.session.window_end"
	SessionParticipantAddSubject    = "lfx.availability-api.session.participant_add"
	SessionParticipantRemoveSubject = "lfx.availability-api.session.participant_remove"
	SessionJoinSubject              = "lfx.availability-api.session.join"
	SessionAdminGrantSubject        = "lfx.availability-api.session.admin_grant"
	SessionAdminRevokeSubject       = "lfx.availability-api.session.admin_revoke"
	SessionHistoryClearSubject      = "lfx.availability-api.session.history_clear"
)

// SessionUpdatedMessage is the schema for the message sent when a session changed.
type SessionUpdatedMessage struct {
	SessionUID string    `json:"session_uid"`
	Revision   uint64    `json:"revision,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
	Tags       []string  `json:"tags,omitempty"`
}

// HistoryAppendedMessage is the schema for the message sent for a new audit entry.
type HistoryAppendedMessage struct {
	SessionUID string     `json:"session_uid"`
	Entry      AuditEntry `json:"entry"`
}

// HistoryClearedMessage is the schema for the message sent when a history is truncated.
type HistoryClearedMessage struct {
	SessionUID string    `json:"session_uid"`
	ClearedBy  string    `json:"cleared_by"`
	Removed    int       `json:"removed"`
	ClearedAt  time.Time `json:"cleared_at"`
}

// CalendarSyncedMessage is the schema for the message sent after a sync commit.
type CalendarSyncedMessage struct {
	SessionUID    string `json:"session_uid"`
	ParticipantID string `json:"participant_id"`
	Added         int    `json:"added"`
	Omitted       int    `json:"omitted"`
}

// OpenIntervalsRequest is the request body for OpenIntervalsSubject.
type OpenIntervalsRequest struct {
	SessionUID string `json:"session_uid"`
	// Excluded participant ids are hidden from aggregation for this view only.
	Excluded []string `json:"excluded,omitempty"`
	// Window optionally narrows the session window.
	Window *Interval `json:"window,omitempty"`
	// Timezone overrides the session timezone for day sections.
	Timezone string `json:"timezone,omitempty"`
	// LiveCalendars fetches participant calendars in addition to stored events.
	LiveCalendars bool `json:"live_calendars,omitempty"`
}

// SessionHistoryRequest is the request body for SessionHistorySubject.
type SessionHistoryRequest struct {
	SessionUID string `json:"session_uid"`
	// Order is "asc" or "desc"; defaults to "desc".
	Order string `json:"order,omitempty"`
}

// CalendarSyncProposeRequest is the request body for CalendarSyncProposeSubject.
type CalendarSyncProposeRequest struct {
	SessionUID    string `json:"session_uid"`
	ParticipantID string `json:"participant_id"`
}

// CalendarSyncCommitRequest is the request body for CalendarSyncCommitSubject.
type CalendarSyncCommitRequest struct {
	SessionUID    string                 `json:"session_uid"`
	ParticipantID string                 `json:"participant_id"`
	Proposal      ReconciliationProposal `json:"proposal"`
	Omitted       []BusyEvent            `json:"omitted,omitempty"`
	Actor         Actor                  `json:"actor"`
}

// ParticipantActionsRequest is the request body for ParticipantActionsSubject.
type ParticipantActionsRequest struct {
	SessionUID string `json:"session_uid"`
	ViewerID   string `json:"viewer_id"`
	TargetID   string `json:"target_id"`
}

// CreateSessionRequest is the request body for SessionCreateSubject.
type CreateSessionRequest struct {
	Name        string          `json:"name"`
	Timezone    string          `json:"timezone,omitempty"`
	WindowStart time.Time       `json:"window_start"`
	WindowEnd   time.Time       `json:"window_end"`
	Settings    SessionSettings `json:"settings"`
	Actor       Actor           `json:"actor"`
}

// SessionGetRequest is the request body for SessionGetSubject.
type SessionGetRequest struct {
	SessionUID string `json:"session_uid"`
}

// ChangeWindowRequest is the request body for the window edit subjects.
type ChangeWindowRequest struct {
	SessionUID string    `json:"session_uid"`
	Value      time.Time `json:"value"`
	Actor      Actor     `json:"actor"`
}

// ParticipantRequest is the request body for participant and admin edits.
type ParticipantRequest struct {
	SessionUID    string `json:"session_uid"`
	ParticipantID string `json:"participant_id"`
	Actor         Actor  `json:"actor"`
}

// JoinRequest is the request body for SessionJoinSubject.
type JoinRequest struct {
	Code  string `json:"code"`
	Actor Actor  `json:"actor"`
}

// ClearHistoryRequest is the request body for SessionHistoryClearSubject.
type ClearHistoryRequest struct {
	SessionUID string `json:"session_uid"`
	Actor      Actor  `json:"actor"`
	// Confirmed must be true; clearing cannot be undone.
	Confirmed bool `json:"confirmed"`
}

// ReplyEnvelope wraps every reply sent by the request handlers.
type ReplyEnvelope struct {
	Data  any         `json:"data,omitempty"`
	Error *ReplyError `json:"error,omitempty"`
}

// ReplyError describes a failed request.
type ReplyError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
