// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/linuxfoundation/lfx-v2-availability-service/internal/availability"
	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-availability-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-availability-service/pkg/utils"
)

// CommitSyncRequest confirms a reconciliation proposal.
type CommitSyncRequest struct {
	SessionUID    string
	ParticipantID string
	Proposal      models.ReconciliationProposal
	// Omitted events of the proposal are not imported.
	Omitted []models.BusyEvent
	Actor   models.Actor
}

// CommitSyncResult reports what a commit imported.
type CommitSyncResult struct {
	Session *models.Session `json:"session"`
	Added   int             `json:"added"`
	Omitted int             `json:"omitted"`
}

// CalendarSyncService imports participant calendars into a session in two
// steps: a proposal that writes nothing and a commit of the confirmed events.
type CalendarSyncService struct {
	CalendarProvider domain.CalendarProvider
	Sessions         *SessionService
}

// NewCalendarSyncService creates a new CalendarSyncService. Commits go through
// sessions so they share its per-session serialization.
func NewCalendarSyncService(calendarProvider domain.CalendarProvider, sessions *SessionService) *CalendarSyncService {
	return &CalendarSyncService{
		CalendarProvider: calendarProvider,
		Sessions:         sessions,
	}
}

// ServiceReady checks if the service is ready for use.
func (s *CalendarSyncService) ServiceReady() bool {
	return s.CalendarProvider != nil &&
		s.Sessions != nil &&
		s.Sessions.ServiceReady()
}

// ProposeSync fetches the calendar of participantID over the session window and
// splits it into events the session does not track yet and events it already
// does.
func (s *CalendarSyncService) ProposeSync(ctx context.Context, sessionUID, participantID string) (models.ReconciliationProposal, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return models.ReconciliationProposal{}, domain.NewUnavailableError("calendar sync is not configured")
	}
	ctx = logging.AppendCtx(ctx, slog.String("session_uid", sessionUID))
	ctx = logging.AppendCtx(ctx, slog.String("participant_id", participantID))

	session, err := s.Sessions.SessionRepository.Get(ctx, sessionUID)
	if err != nil {
		logLoadError(ctx, err)
		return models.ReconciliationProposal{}, err
	}
	if !session.HasParticipant(participantID) {
		return models.ReconciliationProposal{}, domain.NewNotFoundError(
			fmt.Sprintf("%s is not a participant", participantID))
	}

	window := session.Window()
	fetched, err := s.CalendarProvider.FetchBusyEvents(ctx, participantID, window)
	if err != nil {
		if len(fetched) == 0 {
			slog.ErrorContext(ctx, "failed to fetch participant calendar", logging.ErrKey, err)
			return models.ReconciliationProposal{}, err
		}
		slog.WarnContext(ctx, "participant calendar partially fetched", logging.ErrKey, err)
	}

	candidates := make([]models.BusyEvent, 0, len(fetched))
	for _, e := range fetched {
		candidates = append(candidates, e.WithOwner(participantID))
	}

	proposal, err := availability.Reconcile(session.Events, candidates, window)
	if err != nil {
		slog.WarnContext(ctx, "calendar returned events that cannot be reconciled", logging.ErrKey, err)
		return models.ReconciliationProposal{}, err
	}

	slog.DebugContext(ctx, "calendar sync proposal",
		"new", len(proposal.New), "already_tracked", len(proposal.AlreadyTracked))
	return proposal, nil
}

// CommitSync adds the confirmed new events of a proposal to the session and
// records one calendar synced audit entry. Committing events the session
// already holds changes nothing.
func (s *CalendarSyncService) CommitSync(ctx context.Context, req CommitSyncRequest) (*CommitSyncResult, error) {
	if s.Sessions == nil || !s.Sessions.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.NewUnavailableError("calendar sync is not configured")
	}
	if req.ParticipantID == "" {
		return nil, domain.NewValidationError("participant id is required")
	}
	if err := availability.ValidateEvents(req.Proposal.New); err != nil {
		return nil, err
	}
	for _, e := range req.Proposal.New {
		if e.OwnerID != req.ParticipantID {
			return nil, domain.NewValidationError(
				fmt.Sprintf("event %s is not owned by %s", e, req.ParticipantID))
		}
		if e.IsSystemGenerated {
			return nil, domain.NewValidationError(
				fmt.Sprintf("event %s is system generated and cannot be imported", e))
		}
	}

	var added, omitted int
	session, err := s.Sessions.mutate(ctx, req.SessionUID, req.Actor, func(session *models.Session) (bool, *models.AuditEntry, error) {
		if !session.HasParticipant(req.ParticipantID) {
			return false, nil, domain.NewNotFoundError(fmt.Sprintf("%s is not a participant", req.ParticipantID))
		}
		if req.Actor.ID != req.ParticipantID && !session.IsAdmin(req.Actor.ID) {
			return false, nil, domain.NewConflictError(
				fmt.Sprintf("%s may not import the calendar of %s", req.Actor.ID, req.ParticipantID), domain.ErrNotPermitted)
		}

		proposal := inWindow(req.Proposal, session.Window())
		omitted = countOmitted(proposal, req.Omitted)

		before := len(session.Events)
		added = len(availability.Added(session.Events, proposal, req.Omitted))
		if added == 0 {
			return false, nil, nil
		}
		session.Events = availability.Commit(session.Events, proposal, req.Omitted)

		return true, &models.AuditEntry{
			EditKind: models.EditKindCalendarSynced,
			Before:   utils.Ptr(strconv.Itoa(before)),
			After:    utils.Ptr(strconv.Itoa(len(session.Events))),
		}, nil
	})
	if err != nil {
		return nil, err
	}

	if added > 0 {
		s.Sessions.publish(ctx, func() error {
			return s.Sessions.MessageBuilder.SendCalendarSynced(ctx, models.CalendarSyncedMessage{
				SessionUID:    session.UID,
				ParticipantID: req.ParticipantID,
				Added:         added,
				Omitted:       omitted,
			})
		})
	}

	slog.InfoContext(ctx, "calendar sync committed",
		"session_uid", session.UID, "participant_id", req.ParticipantID, "added", added, "omitted", omitted)
	return &CommitSyncResult{Session: session, Added: added, Omitted: omitted}, nil
}

// inWindow drops proposed events that do not overlap window. The window may
// have moved since the proposal was made.
func inWindow(proposal models.ReconciliationProposal, window models.Interval) models.ReconciliationProposal {
	kept := make([]models.BusyEvent, 0, len(proposal.New))
	for _, e := range proposal.New {
		if e.Interval.Overlaps(window) {
			kept = append(kept, e)
		}
	}
	proposal.New = kept
	return proposal
}

// countOmitted counts the distinct proposed events the caller left out.
func countOmitted(proposal models.ReconciliationProposal, omitted []models.BusyEvent) int {
	skip := make(map[models.EventKey]struct{}, len(omitted))
	for _, e := range omitted {
		skip[e.Key()] = struct{}{}
	}
	counted := make(map[models.EventKey]struct{}, len(skip))
	for _, e := range proposal.New {
		if _, ok := skip[e.Key()]; ok {
			counted[e.Key()] = struct{}{}
		}
	}
	return len(counted)
}
