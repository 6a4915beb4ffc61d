// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/linuxfoundation/lfx-v2-availability-service/internal/availability"
	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-availability-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-availability-service/pkg/concurrent"
	"github.com/linuxfoundation/lfx-v2-availability-service/pkg/constants"
	"github.com/linuxfoundation/lfx-v2-availability-service/pkg/utils"
)

const joinCodeAttempts = 3

// sessionEdit applies one change to session in place. It reports whether the
// session changed and the audit entry describing the change, if the change has
// an edit kind. Author, UID and timestamp of the entry are filled in later.
type sessionEdit func(session *models.Session) (changed bool, entry *models.AuditEntry, err error)

// SessionService performs the structural edits of a session. Edits of one
// session are serialized in process and guarded across processes by the store
// revision.
type SessionService struct {
	SessionRepository domain.SessionRepository
	MessageBuilder    domain.MessageBuilder
	Clock             domain.Clock
	Config            ServiceConfig
	// CodeSource feeds join code generation. Nil uses crypto/rand.
	CodeSource io.Reader

	locks *concurrent.KeyedMutex
	pool  *concurrent.WorkerPool
}

// NewSessionService creates a new SessionService.
func NewSessionService(
	sessionRepository domain.SessionRepository,
	messageBuilder domain.MessageBuilder,
	clock domain.Clock,
	config ServiceConfig,
) *SessionService {
	if clock == nil {
		clock = domain.SystemClock
	}
	return &SessionService{
		SessionRepository: sessionRepository,
		MessageBuilder:    messageBuilder,
		Clock:             clock,
		Config:            config.withDefaults(),
		locks:             concurrent.NewKeyedMutex(),
		pool:              concurrent.NewWorkerPool(3),
	}
}

// ServiceReady checks if the service is ready for use.
func (s *SessionService) ServiceReady() bool {
	return s.SessionRepository != nil &&
		s.MessageBuilder != nil
}

func (s *SessionService) notReady(ctx context.Context) error {
	slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
	return domain.NewUnavailableError("session service is not ready")
}

// GetSession returns the session with its history.
func (s *SessionService) GetSession(ctx context.Context, sessionUID string) (*models.Session, error) {
	if !s.ServiceReady() {
		return nil, s.notReady(ctx)
	}
	ctx = logging.AppendCtx(ctx, slog.String("session_uid", sessionUID))

	session, err := s.SessionRepository.Get(ctx, sessionUID)
	if err != nil {
		logLoadError(ctx, err)
		return nil, err
	}
	return session, nil
}

func (s *SessionService) validateCreateSessionRequest(req models.CreateSessionRequest) error {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.NewValidationError("session name is required")
	}
	if len(name) > constants.MaxSessionNameLength {
		return domain.NewValidationError(
			fmt.Sprintf("session name must not exceed %d characters", constants.MaxSessionNameLength))
	}
	if req.Actor.ID == "" {
		return domain.NewValidationError("actor id is required")
	}
	window := models.NewInterval(req.WindowStart, req.WindowEnd)
	if err := availability.ValidateWindow(window); err != nil {
		return err
	}
	if window.Duration() > constants.MaxSessionWindow {
		return domain.NewValidationError(
			fmt.Sprintf("session window must not exceed %s", constants.MaxSessionWindow), domain.ErrInvalidWindow)
	}
	if req.Timezone != "" {
		if _, err := time.LoadLocation(req.Timezone); err != nil {
			return domain.NewValidationError(fmt.Sprintf("unknown timezone %q", req.Timezone), err)
		}
	}
	return nil
}

// CreateSession stores a new session owned by the actor, who becomes its first
// participant and admin.
func (s *SessionService) CreateSession(ctx context.Context, req models.CreateSessionRequest) (*models.Session, error) {
	if !s.ServiceReady() {
		return nil, s.notReady(ctx)
	}

	if err := s.validateCreateSessionRequest(req); err != nil {
		slog.WarnContext(ctx, "invalid create session request", logging.ErrKey, err)
		return nil, err
	}

	now := s.Clock.Now()
	session := &models.Session{
		UID:            uuid.New().String(),
		Name:           strings.TrimSpace(req.Name),
		Timezone:       req.Timezone,
		WindowStart:    req.WindowStart,
		WindowEnd:      req.WindowEnd,
		ParticipantIDs: []string{req.Actor.ID},
		AdminIDs:       []string{req.Actor.ID},
		Events:         []models.BusyEvent{},
		Settings:       req.Settings,
		CreatedAt:      &now,
		UpdatedAt:      &now,
	}
	if err := session.Validate(); err != nil {
		slog.WarnContext(ctx, "invalid session settings", logging.ErrKey, err)
		return nil, domain.NewValidationError(err.Error(), domain.ErrInvalidWindow)
	}
	if limit := session.Settings.MaxParticipants; limit > 0 && limit < len(session.ParticipantIDs) {
		return nil, domain.NewValidationError("max participants must allow the session creator")
	}

	ctx = logging.AppendCtx(ctx, slog.String("session_uid", session.UID))

	var err error
	for attempt := 0; attempt < joinCodeAttempts; attempt++ {
		session.Code, err = utils.NewJoinCode(s.CodeSource, constants.JoinCodeBytes)
		if err != nil {
			slog.ErrorContext(ctx, "failed to generate join code", logging.ErrKey, err)
			return nil, domain.NewInternalError("failed to generate join code", err)
		}
		err = s.SessionRepository.Create(ctx, session)
		if err == nil || domain.GetErrorType(err) != domain.ErrorTypeConflict {
			break
		}
		slog.DebugContext(ctx, "join code collision, retrying", "attempt", attempt+1)
	}
	if err != nil {
		slog.ErrorContext(ctx, "error creating session in store", logging.ErrKey, err)
		return nil, err
	}

	s.publish(ctx, func() error {
		return s.MessageBuilder.SendSessionUpdated(ctx, models.SessionUpdatedMessage{
			SessionUID: session.UID,
			UpdatedAt:  now,
			Tags:       session.Tags(),
		})
	})

	slog.InfoContext(ctx, "created session")
	return session, nil
}

// ChangeWindowStart moves the start of the session window. The window must
// stay ordered and inside the configured bounds.
func (s *SessionService) ChangeWindowStart(ctx context.Context, sessionUID string, start time.Time, actor models.Actor) (*models.Session, error) {
	return s.changeWindow(ctx, sessionUID, actor, models.EditKindStartDateChanged, func(session *models.Session) *time.Time {
		return &session.WindowStart
	}, start)
}

// ChangeWindowEnd moves the end of the session window.
func (s *SessionService) ChangeWindowEnd(ctx context.Context, sessionUID string, end time.Time, actor models.Actor) (*models.Session, error) {
	return s.changeWindow(ctx, sessionUID, actor, models.EditKindEndDateChanged, func(session *models.Session) *time.Time {
		return &session.WindowEnd
	}, end)
}

func (s *SessionService) changeWindow(
	ctx context.Context,
	sessionUID string,
	actor models.Actor,
	kind models.EditKind,
	field func(*models.Session) *time.Time,
	value time.Time,
) (*models.Session, error) {
	return s.mutate(ctx, sessionUID, actor, func(session *models.Session) (bool, *models.AuditEntry, error) {
		if err := requireAdmin(session, actor); err != nil {
			return false, nil, err
		}
		if err := requireUnlocked(session); err != nil {
			return false, nil, err
		}

		target := field(session)
		if target.Equal(value) {
			return false, nil, nil
		}
		before := *target
		*target = value

		if err := availability.ValidateWindow(session.Window()); err != nil {
			return false, nil, err
		}
		if session.Window().Duration() > constants.MaxSessionWindow {
			return false, nil, domain.NewValidationError(
				fmt.Sprintf("session window must not exceed %s", constants.MaxSessionWindow), domain.ErrInvalidWindow)
		}
		if err := session.Validate(); err != nil {
			return false, nil, domain.NewValidationError(err.Error(), domain.ErrInvalidWindow)
		}

		return true, &models.AuditEntry{
			EditKind: kind,
			Before:   utils.Ptr(before.UTC().Format(time.RFC3339)),
			After:    utils.Ptr(value.UTC().Format(time.RFC3339)),
		}, nil
	})
}

// AddParticipant adds participantID on behalf of an admin.
func (s *SessionService) AddParticipant(ctx context.Context, sessionUID, participantID string, actor models.Actor) (*models.Session, error) {
	if participantID == "" {
		return nil, domain.NewValidationError("participant id is required")
	}
	return s.mutate(ctx, sessionUID, actor, func(session *models.Session) (bool, *models.AuditEntry, error) {
		if err := requireAdmin(session, actor); err != nil {
			return false, nil, err
		}
		return addParticipant(session, participantID)
	})
}

// JoinByCode adds the actor to the session that uses code. The session must
// allow joining.
func (s *SessionService) JoinByCode(ctx context.Context, code string, actor models.Actor) (*models.Session, error) {
	if !s.ServiceReady() {
		return nil, s.notReady(ctx)
	}

	code = utils.NormalizeJoinCode(code)
	if !utils.IsJoinCode(code) {
		return nil, domain.NewValidationError("invalid join code")
	}
	if actor.ID == "" {
		return nil, domain.NewValidationError("actor id is required")
	}

	session, err := s.SessionRepository.GetByCode(ctx, code)
	if err != nil {
		logLoadError(ctx, err)
		return nil, err
	}

	return s.mutate(ctx, session.UID, actor, func(session *models.Session) (bool, *models.AuditEntry, error) {
		if !session.Settings.AllowJoin {
			return false, nil, domain.NewConflictError("session does not allow joining", domain.ErrNotPermitted)
		}
		if session.HasParticipant(actor.ID) {
			return false, nil, nil
		}
		return addParticipant(session, actor.ID)
	})
}

func addParticipant(session *models.Session, participantID string) (bool, *models.AuditEntry, error) {
	if err := requireUnlocked(session); err != nil {
		return false, nil, err
	}
	if session.HasParticipant(participantID) {
		return false, nil, domain.NewConflictError(fmt.Sprintf("%s is already a participant", participantID))
	}
	if limit := session.Settings.MaxParticipants; limit > 0 && len(session.ParticipantIDs) >= limit {
		return false, nil, domain.NewConflictError(fmt.Sprintf("session is limited to %d participants", limit))
	}
	session.AddParticipant(participantID)
	return true, &models.AuditEntry{
		EditKind: models.EditKindParticipantAdded,
		After:    utils.Ptr(participantID),
	}, nil
}

// RemoveParticipant removes participantID. Admins may remove others; any
// participant may remove themselves, which is leaving the session.
func (s *SessionService) RemoveParticipant(ctx context.Context, sessionUID, participantID string, actor models.Actor) (*models.Session, error) {
	if participantID == "" {
		return nil, domain.NewValidationError("participant id is required")
	}
	return s.mutate(ctx, sessionUID, actor, func(session *models.Session) (bool, *models.AuditEntry, error) {
		if !session.HasParticipant(participantID) {
			return false, nil, domain.NewNotFoundError(fmt.Sprintf("%s is not a participant", participantID))
		}

		isSelf := participantID == actor.ID
		allowed := models.ActionsFor(session.RoleOf(actor.ID), session.RoleOf(participantID), isSelf)
		required := models.ActionRemoveParticipant
		if isSelf {
			required = models.ActionLeaveSession
		}
		if !allowed.Has(required) {
			return false, nil, domain.NewConflictError(
				fmt.Sprintf("%s may not %s", actor.ID, required), domain.ErrNotPermitted)
		}

		if err := requireUnlocked(session); err != nil {
			return false, nil, err
		}
		if limit := session.Settings.MinParticipants; limit > 0 && len(session.ParticipantIDs) <= limit {
			return false, nil, domain.NewConflictError(fmt.Sprintf("session requires at least %d participants", limit))
		}
		if session.IsAdmin(participantID) && len(session.AdminIDs) == 1 {
			return false, nil, domain.NewConflictError("session must keep at least one admin")
		}

		session.RemoveParticipant(participantID)
		return true, &models.AuditEntry{
			EditKind: models.EditKindParticipantRemoved,
			Before:   utils.Ptr(participantID),
		}, nil
	})
}

// GrantAdmin makes a participant an admin. Role changes have no edit kind and
// leave the history untouched.
func (s *SessionService) GrantAdmin(ctx context.Context, sessionUID, participantID string, actor models.Actor) (*models.Session, error) {
	return s.mutate(ctx, sessionUID, actor, func(session *models.Session) (bool, *models.AuditEntry, error) {
		if err := requireAction(session, actor, participantID, models.ActionGrantAdmin); err != nil {
			return false, nil, err
		}
		return session.GrantAdmin(participantID), nil, nil
	})
}

// RevokeAdmin removes admin rights from a participant. The last admin keeps
// them.
func (s *SessionService) RevokeAdmin(ctx context.Context, sessionUID, participantID string, actor models.Actor) (*models.Session, error) {
	return s.mutate(ctx, sessionUID, actor, func(session *models.Session) (bool, *models.AuditEntry, error) {
		if err := requireAction(session, actor, participantID, models.ActionRevokeAdmin); err != nil {
			return false, nil, err
		}
		if len(session.AdminIDs) == 1 {
			return false, nil, domain.NewConflictError("session must keep at least one admin")
		}
		return session.RevokeAdmin(participantID), nil, nil
	})
}

// ParticipantActions lists what viewerID may do to targetID in the session.
func (s *SessionService) ParticipantActions(ctx context.Context, sessionUID, viewerID, targetID string) ([]models.Action, error) {
	if !s.ServiceReady() {
		return nil, s.notReady(ctx)
	}
	ctx = logging.AppendCtx(ctx, slog.String("session_uid", sessionUID))

	session, err := s.SessionRepository.Get(ctx, sessionUID)
	if err != nil {
		logLoadError(ctx, err)
		return nil, err
	}
	if !session.HasParticipant(targetID) {
		return []models.Action{}, nil
	}
	actions := models.ActionsFor(session.RoleOf(viewerID), session.RoleOf(targetID), viewerID == targetID)
	return actions.List(), nil
}

// History returns the audit trail of a session sorted by creation time.
func (s *SessionService) History(ctx context.Context, sessionUID string, order availability.SortOrder) ([]models.AuditEntry, error) {
	if !s.ServiceReady() {
		return nil, s.notReady(ctx)
	}
	ctx = logging.AppendCtx(ctx, slog.String("session_uid", sessionUID))

	exists, err := s.SessionRepository.Exists(ctx, sessionUID)
	if err != nil {
		slog.ErrorContext(ctx, "error checking session existence", logging.ErrKey, err)
		return nil, err
	}
	if !exists {
		return nil, domain.NewNotFoundError(fmt.Sprintf("session %s not found", sessionUID), domain.ErrSessionNotFound)
	}

	entries, err := s.SessionRepository.ListHistory(ctx, sessionUID)
	if err != nil {
		slog.ErrorContext(ctx, "error listing session history", logging.ErrKey, err)
		return nil, err
	}
	return availability.NewHistoryLog(entries).Sorted(order), nil
}

// ClearHistory truncates the audit trail. Only admins may clear it and the
// caller must confirm, since the entries cannot be restored.
func (s *SessionService) ClearHistory(ctx context.Context, sessionUID string, actor models.Actor, confirmed bool) (int, error) {
	if !s.ServiceReady() {
		return 0, s.notReady(ctx)
	}
	if !confirmed {
		return 0, domain.NewValidationError("clearing the history must be confirmed", domain.ErrConfirmationRequired)
	}
	ctx = logging.AppendCtx(ctx, slog.String("session_uid", sessionUID))

	unlock := s.locks.Lock(sessionUID)
	defer unlock()

	session, err := s.SessionRepository.Get(ctx, sessionUID)
	if err != nil {
		logLoadError(ctx, err)
		return 0, err
	}
	if err := requireAdmin(session, actor); err != nil {
		return 0, err
	}

	removed, err := s.SessionRepository.ClearHistory(ctx, sessionUID)
	if err != nil {
		slog.ErrorContext(ctx, "error clearing session history", logging.ErrKey, err)
		return 0, err
	}

	if removed > 0 {
		s.publish(ctx, func() error {
			return s.MessageBuilder.SendHistoryCleared(ctx, models.HistoryClearedMessage{
				SessionUID: sessionUID,
				ClearedBy:  actor.ID,
				Removed:    removed,
				ClearedAt:  s.Clock.Now(),
			})
		})
	}

	slog.InfoContext(ctx, "cleared session history", "removed", removed, "cleared_by", actor.ID)
	return removed, nil
}

// mutate runs edit against the latest stored session under the per-session
// lock, persists the result, appends the audit entry and publishes the change.
// An edit that changes nothing returns the session untouched.
func (s *SessionService) mutate(ctx context.Context, sessionUID string, actor models.Actor, edit sessionEdit) (*models.Session, error) {
	if !s.ServiceReady() {
		return nil, s.notReady(ctx)
	}
	if sessionUID == "" {
		return nil, domain.NewValidationError("session uid is required")
	}
	if actor.ID == "" {
		return nil, domain.NewValidationError("actor id is required")
	}
	ctx = logging.AppendCtx(ctx, slog.String("session_uid", sessionUID))

	unlock := s.locks.Lock(sessionUID)
	defer unlock()

	session, revision, err := s.SessionRepository.GetWithRevision(ctx, sessionUID)
	if err != nil {
		logLoadError(ctx, err)
		return nil, err
	}

	changed, entry, err := edit(session)
	if err != nil {
		slog.WarnContext(ctx, "session edit rejected", "actor_id", actor.ID, logging.ErrKey, err)
		return nil, err
	}
	if !changed {
		return session, nil
	}

	now := s.Clock.Now()
	session.UpdatedAt = &now

	next, err := s.SessionRepository.Update(ctx, session, revision)
	if err != nil {
		slog.ErrorContext(ctx, "error updating session in store", logging.ErrKey, err)
		return nil, err
	}

	messages := []func() error{
		func() error {
			return s.MessageBuilder.SendSessionUpdated(ctx, models.SessionUpdatedMessage{
				SessionUID: session.UID,
				Revision:   next,
				UpdatedAt:  now,
				Tags:       session.Tags(),
			})
		},
	}

	if entry != nil {
		entry.UID = uuid.New().String()
		entry.Author = actor.Name
		entry.AuthorID = actor.ID
		entry.CreatedAt = now

		// The edit is already stored; a lost audit entry is reported, not undone.
		if err := s.SessionRepository.AppendHistory(ctx, session.UID, *entry); err != nil {
			slog.ErrorContext(ctx, "error appending audit entry, history is missing an edit",
				"edit_kind", entry.EditKind, logging.ErrKey, err, logging.PriorityCritical())
		} else {
			slog.DebugContext(ctx, "audit entry appended",
				"edit_kind", entry.EditKind,
				"before", utils.Deref(entry.Before),
				"after", utils.Deref(entry.After))
			session.History = append(session.History, *entry)
			appended := *entry
			messages = append(messages, func() error {
				return s.MessageBuilder.SendHistoryAppended(ctx, models.HistoryAppendedMessage{
					SessionUID: session.UID,
					Entry:      appended,
				})
			})
		}
	}

	s.publish(ctx, messages...)

	slog.DebugContext(ctx, "session updated", "revision", next, "actor_id", actor.ID)
	return session, nil
}

// publish sends notifications on the worker pool. Delivery is best effort:
// failures are logged and never fail the edit that caused them.
func (s *SessionService) publish(ctx context.Context, messages ...func() error) {
	for _, err := range s.pool.RunAll(ctx, messages...) {
		slog.WarnContext(ctx, "failed to publish session notification", logging.ErrKey, err)
	}
}

func requireAdmin(session *models.Session, actor models.Actor) error {
	if !session.IsAdmin(actor.ID) {
		return domain.NewConflictError(fmt.Sprintf("%s is not an admin of the session", actor.ID), domain.ErrNotPermitted)
	}
	return nil
}

func requireUnlocked(session *models.Session) error {
	if session.Settings.IsLocked {
		return domain.NewConflictError("session is locked", domain.ErrSessionLocked)
	}
	return nil
}

func requireAction(session *models.Session, actor models.Actor, targetID string, action models.Action) error {
	if !session.HasParticipant(targetID) {
		return domain.NewNotFoundError(fmt.Sprintf("%s is not a participant", targetID))
	}
	allowed := models.ActionsFor(session.RoleOf(actor.ID), session.RoleOf(targetID), actor.ID == targetID)
	if !allowed.Has(action) {
		return domain.NewConflictError(fmt.Sprintf("%s may not %s", actor.ID, action), domain.ErrNotPermitted)
	}
	return nil
}

func logLoadError(ctx context.Context, err error) {
	if domain.GetErrorType(err) == domain.ErrorTypeNotFound {
		slog.WarnContext(ctx, "session not found", logging.ErrKey, err)
		return
	}
	slog.ErrorContext(ctx, "error getting session from store", logging.ErrKey, err)
}
