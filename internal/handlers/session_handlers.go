// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/linuxfoundation/lfx-v2-availability-service/internal/availability"
	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-availability-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-availability-service/internal/service"
)

type messageFunc func(ctx context.Context, msg domain.Message) (any, error)

// SessionHandler answers the availability request/reply subjects.
type SessionHandler struct {
	availabilityService *service.AvailabilityService
	sessionService      *service.SessionService
	calendarSyncService *service.CalendarSyncService
}

func NewSessionHandler(
	availabilityService *service.AvailabilityService,
	sessionService *service.SessionService,
	calendarSyncService *service.CalendarSyncService,
) *SessionHandler {
	return &SessionHandler{
		availabilityService: availabilityService,
		sessionService:      sessionService,
		calendarSyncService: calendarSyncService,
	}
}

// HandlerReady reports whether the session and availability services can
// serve requests. Calendar sync is optional and answers unavailable when no
// calendar sources are configured.
func (h *SessionHandler) HandlerReady() bool {
	return h.availabilityService != nil && h.availabilityService.ServiceReady() &&
		h.sessionService != nil && h.sessionService.ServiceReady()
}

// Subjects lists every subject the handler answers, for subscription.
func (h *SessionHandler) Subjects() []string {
	subjects := make([]string, 0, len(h.handlers()))
	for subject := range h.handlers() {
		subjects = append(subjects, subject)
	}
	return subjects
}

func (h *SessionHandler) handlers() map[string]messageFunc {
	return map[string]messageFunc{
		models.OpenIntervalsSubject:            h.HandleOpenIntervals,
		models.SessionHistorySubject:           h.HandleSessionHistory,
		models.CalendarSyncProposeSubject:      h.HandleCalendarSyncPropose,
		models.CalendarSyncCommitSubject:       h.HandleCalendarSyncCommit,
		models.ParticipantActionsSubject:       h.HandleParticipantActions,
		models.SessionCreateSubject:            h.HandleSessionCreate,
		models.SessionGetSubject:               h.HandleSessionGet,
		models.SessionWindowStartSubject:       h.HandleWindowStart,
		models.SessionWindowEndSubject:         h.HandleWindowEnd,
		models.SessionParticipantAddSubject:    h.HandleParticipantAdd,
		models.SessionParticipantRemoveSubject: h.HandleParticipantRemove,
		models.SessionJoinSubject:              h.HandleJoin,
		models.SessionAdminGrantSubject:        h.HandleAdminGrant,
		models.SessionAdminRevokeSubject:       h.HandleAdminRevoke,
		models.SessionHistoryClearSubject:      h.HandleHistoryClear,
	}
}

// HandleMessage implements domain.MessageHandler interface
func (h *SessionHandler) HandleMessage(ctx context.Context, msg domain.Message) {
	subject := msg.Subject()
	ctx = logging.AppendCtx(ctx, slog.String("subject", subject))
	slog.DebugContext(ctx, "handling NATS message")

	handler, ok := h.handlers()[subject]
	if !ok {
		slog.WarnContext(ctx, "unknown subject")
		h.reply(ctx, msg, nil, domain.NewValidationError(fmt.Sprintf("unknown subject %s", subject)))
		return
	}

	data, err := handler(ctx, msg)
	if err != nil {
		switch domain.GetErrorType(err) {
		case domain.ErrorTypeInternal, domain.ErrorTypeUnavailable:
			slog.ErrorContext(ctx, "error handling message", logging.ErrKey, err)
		default:
			slog.InfoContext(ctx, "request rejected", logging.ErrKey, err)
		}
	}
	h.reply(ctx, msg, data, err)
}

func (h *SessionHandler) reply(ctx context.Context, msg domain.Message, data any, err error) {
	if !msg.HasReply() {
		slog.DebugContext(ctx, "handled NATS message (no reply expected)")
		return
	}

	envelope := models.ReplyEnvelope{Data: data}
	if err != nil {
		envelope = models.ReplyEnvelope{Error: &models.ReplyError{
			Type:    domain.GetErrorType(err).String(),
			Message: err.Error(),
		}}
	}

	response, marshalErr := json.Marshal(envelope)
	if marshalErr != nil {
		slog.ErrorContext(ctx, "error marshaling reply", logging.ErrKey, marshalErr)
		response, _ = json.Marshal(models.ReplyEnvelope{Error: &models.ReplyError{
			Type:    domain.ErrorTypeInternal.String(),
			Message: "failed to encode reply",
		}})
	}

	if err := msg.Respond(response); err != nil {
		slog.ErrorContext(ctx, "error responding to NATS message", logging.ErrKey, err)
		return
	}
	slog.DebugContext(ctx, "responded to NATS message")
}

func decode[T any](msg domain.Message) (T, error) {
	var req T
	if err := json.Unmarshal(msg.Data(), &req); err != nil {
		return req, domain.NewValidationError("malformed request body", err)
	}
	return req, nil
}

// HandleOpenIntervals computes the busy and open time of a session.
func (h *SessionHandler) HandleOpenIntervals(ctx context.Context, msg domain.Message) (any, error) {
	req, err := decode[models.OpenIntervalsRequest](msg)
	if err != nil {
		return nil, err
	}
	return h.availabilityService.ComputeAvailability(ctx, service.AvailabilityRequest{
		SessionUID:    req.SessionUID,
		Excluded:      models.NewVisibilitySet(req.Excluded...),
		Window:        req.Window,
		Timezone:      req.Timezone,
		LiveCalendars: req.LiveCalendars,
	})
}

// HandleSessionHistory returns the audit trail of a session, newest first
// unless "asc" is requested.
func (h *SessionHandler) HandleSessionHistory(ctx context.Context, msg domain.Message) (any, error) {
	req, err := decode[models.SessionHistoryRequest](msg)
	if err != nil {
		return nil, err
	}
	order, err := availability.ParseSortOrder(req.Order)
	if err != nil {
		return nil, domain.NewValidationError("invalid history order", err)
	}
	return h.sessionService.History(ctx, req.SessionUID, order)
}

func (h *SessionHandler) HandleCalendarSyncPropose(ctx context.Context, msg domain.Message) (any, error) {
	req, err := decode[models.CalendarSyncProposeRequest](msg)
	if err != nil {
		return nil, err
	}
	if h.calendarSyncService == nil {
		return nil, domain.NewUnavailableError("calendar sync is not configured")
	}
	return h.calendarSyncService.ProposeSync(ctx, req.SessionUID, req.ParticipantID)
}

func (h *SessionHandler) HandleCalendarSyncCommit(ctx context.Context, msg domain.Message) (any, error) {
	req, err := decode[models.CalendarSyncCommitRequest](msg)
	if err != nil {
		return nil, err
	}
	if h.calendarSyncService == nil {
		return nil, domain.NewUnavailableError("calendar sync is not configured")
	}
	return h.calendarSyncService.CommitSync(ctx, service.CommitSyncRequest{
		SessionUID:    req.SessionUID,
		ParticipantID: req.ParticipantID,
		Proposal:      req.Proposal,
		Omitted:       req.Omitted,
		Actor:         req.Actor,
	})
}

func (h *SessionHandler) HandleParticipantActions(ctx context.Context, msg domain.Message) (any, error) {
	req, err := decode[models.ParticipantActionsRequest](msg)
	if err != nil {
		return nil, err
	}
	return h.sessionService.ParticipantActions(ctx, req.SessionUID, req.ViewerID, req.TargetID)
}

func (h *SessionHandler) HandleSessionCreate(ctx context.Context, msg domain.Message) (any, error) {
	req, err := decode[models.CreateSessionRequest](msg)
	if err != nil {
		return nil, err
	}
	return h.sessionService.CreateSession(ctx, req)
}

func (h *SessionHandler) HandleSessionGet(ctx context.Context, msg domain.Message) (any, error) {
	req, err := decode[models.SessionGetRequest](msg)
	if err != nil {
		return nil, err
	}
	return h.sessionService.GetSession(ctx, req.SessionUID)
}

func (h *SessionHandler) HandleWindowStart(ctx context.Context, msg domain.Message) (any, error) {
	req, err := decode[models.ChangeWindowRequest](msg)
	if err != nil {
		return nil, err
	}
	return h.sessionService.ChangeWindowStart(ctx, req.SessionUID, req.Value, req.Actor)
}

func (h *SessionHandler) HandleWindowEnd(ctx context.Context, msg domain.Message) (any, error) {
	req, err := decode[models.ChangeWindowRequest](msg)
	if err != nil {
		return nil, err
	}
	return h.sessionService.ChangeWindowEnd(ctx, req.SessionUID, req.Value, req.Actor)
}

func (h *SessionHandler) HandleParticipantAdd(ctx context.Context, msg domain.Message) (any, error) {
	req, err := decode[models.ParticipantRequest](msg)
	if err != nil {
		return nil, err
	}
	return h.sessionService.AddParticipant(ctx, req.SessionUID, req.ParticipantID, req.Actor)
}

func (h *SessionHandler) HandleParticipantRemove(ctx context.Context, msg domain.Message) (any, error) {
	req, err := decode[models.ParticipantRequest](msg)
	if err != nil {
		return nil, err
	}
	return h.sessionService.RemoveParticipant(ctx, req.SessionUID, req.ParticipantID, req.Actor)
}

func (h *SessionHandler) HandleJoin(ctx context.Context, msg domain.Message) (any, error) {
	req, err := decode[models.JoinRequest](msg)
	if err != nil {
		return nil, err
	}
	return h.sessionService.JoinByCode(ctx, req.Code, req.Actor)
}

func (h *SessionHandler) HandleAdminGrant(ctx context.Context, msg domain.Message) (any, error) {
	req, err := decode[models.ParticipantRequest](msg)
	if err != nil {
		return nil, err
	}
	return h.sessionService.GrantAdmin(ctx, req.SessionUID, req.ParticipantID, req.Actor)
}

func (h *SessionHandler) HandleAdminRevoke(ctx context.Context, msg domain.Message) (any, error) {
	req, err := decode[models.ParticipantRequest](msg)
	if err != nil {
		return nil, err
	}
	return h.sessionService.RevokeAdmin(ctx, req.SessionUID, req.ParticipantID, req.Actor)
}

// HistoryClearedReply is the reply data of SessionHistoryClearSubject.
type HistoryClearedReply struct {
	Removed int `json:"removed"`
}

func (h *SessionHandler) HandleHistoryClear(ctx context.Context, msg domain.Message) (any, error) {
	req, err := decode[models.ClearHistoryRequest](msg)
	if err != nil {
		return nil, err
	}
	removed, err := h.sessionService.ClearHistory(ctx, req.SessionUID, req.Actor, req.Confirmed)
	if err != nil {
		return nil, err
	}
	return HistoryClearedReply{Removed: removed}, nil
}
