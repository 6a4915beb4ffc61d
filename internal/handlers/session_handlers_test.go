// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package handlers

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain/mocks"
	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-availability-service/internal/service"
)

type testReply struct {
	Data  json.RawMessage    `json:"data"`
	Error *models.ReplyError `json:"error"`
}

func handlerSession() *models.Session {
	day := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	return &models.Session{
		UID:            "session-1",
		Name:           "Planning",
		Code:           "3mJr7AoUXx2Wqd",
		Timezone:       "UTC",
		WindowStart:    day.Add(8 * time.Hour),
		WindowEnd:      day.Add(13 * time.Hour),
		ParticipantIDs: []string{"alice", "bob"},
		AdminIDs:       []string{"alice"},
		Events: []models.BusyEvent{
			{Title: "Standup", OwnerID: "alice", Interval: models.NewInterval(day.Add(9*time.Hour), day.Add(11*time.Hour))},
			{Title: "Review", OwnerID: "bob", Interval: models.NewInterval(day.Add(10*time.Hour), day.Add(12*time.Hour))},
		},
	}
}

// setupHandlerForTesting creates a SessionHandler with all mock dependencies for testing
func setupHandlerForTesting(withCalendar bool) (*SessionHandler, *mocks.MockSessionRepository, *mocks.MockMessageBuilder) {
	repo := new(mocks.MockSessionRepository)
	builder := new(mocks.MockMessageBuilder)
	clock := domain.ClockFunc(func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) })

	availabilityService := service.NewAvailabilityService(repo, nil, clock, service.ServiceConfig{})
	sessionService := service.NewSessionService(repo, builder, clock, service.ServiceConfig{})

	var calendarSyncService *service.CalendarSyncService
	if withCalendar {
		calendarSyncService = service.NewCalendarSyncService(new(mocks.MockCalendarProvider), sessionService)
	}

	return NewSessionHandler(availabilityService, sessionService, calendarSyncService), repo, builder
}

// request sends body on subject and returns the decoded reply.
func request(t *testing.T, handler *SessionHandler, subject string, body []byte) testReply {
	t.Helper()
	msg := mocks.NewMockMessage(body, subject)
	msg.On("HasReply").Return(true)

	var raw []byte
	msg.On("Respond", mock.Anything).Run(func(args mock.Arguments) {
		raw = args.Get(0).([]byte)
	}).Return(nil)

	handler.HandleMessage(context.Background(), msg)
	msg.AssertExpectations(t)

	var reply testReply
	require.NoError(t, json.Unmarshal(raw, &reply))
	return reply
}

func TestSessionHandler_HandlerReady(t *testing.T) {
	handler, _, _ := setupHandlerForTesting(false)
	assert.True(t, handler.HandlerReady())

	assert.False(t, NewSessionHandler(nil, nil, nil).HandlerReady())
	assert.False(t, NewSessionHandler(handler.availabilityService, service.NewSessionService(nil, nil, nil, service.ServiceConfig{}), nil).HandlerReady())
}

func TestSessionHandler_Subjects(t *testing.T) {
	handler, _, _ := setupHandlerForTesting(true)

	subjects := handler.Subjects()
	assert.Len(t, subjects, 15)
	assert.Contains(t, subjects, models.OpenIntervalsSubject)
	assert.Contains(t, subjects, models.SessionHistoryClearSubject)
}

func TestSessionHandler_HandleMessage(t *testing.T) {
	tests := []struct {
		name          string
		subject       string
		body          string
		setupMocks    func(*mocks.MockSessionRepository)
		expectedError string
		checkData     func(t *testing.T, data json.RawMessage)
	}{
		{
			name:    "get session",
			subject: models.SessionGetSubject,
			body:    `{"session_uid":"session-1"}`,
			setupMocks: func(repo *mocks.MockSessionRepository) {
				repo.On("Get", mock.Anything, "session-1").Return(handlerSession(), nil)
			},
			checkData: func(t *testing.T, data json.RawMessage) {
				var session models.Session
				require.NoError(t, json.Unmarshal(data, &session))
				assert.Equal(t, "session-1", session.UID)
				assert.Equal(t, []string{"alice", "bob"}, session.ParticipantIDs)
			},
		},
		{
			name:    "session not found",
			subject: models.SessionGetSubject,
			body:    `{"session_uid":"missing"}`,
			setupMocks: func(repo *mocks.MockSessionRepository) {
				repo.On("Get", mock.Anything, "missing").
					Return(nil, domain.NewNotFoundError("session missing not found", domain.ErrSessionNotFound))
			},
			expectedError: "not_found",
		},
		{
			name:          "malformed body",
			subject:       models.SessionGetSubject,
			body:          `{"session_uid":`,
			expectedError: "validation",
		},
		{
			name:          "unknown subject",
			subject:       "lfx.availability-api.unknown",
			body:          `{}`,
			expectedError: "validation",
		},
		{
			name:    "open intervals",
			subject: models.OpenIntervalsSubject,
			body:    `{"session_uid":"session-1","excluded":["bob"]}`,
			setupMocks: func(repo *mocks.MockSessionRepository) {
				repo.On("Get", mock.Anything, "session-1").Return(handlerSession(), nil)
			},
			checkData: func(t *testing.T, data json.RawMessage) {
				var view models.AvailabilityView
				require.NoError(t, json.Unmarshal(data, &view))
				require.Len(t, view.Busy, 1)
				assert.Equal(t, 9, view.Busy[0].Start.Hour())
				assert.Equal(t, 11, view.Busy[0].End.Hour())
				assert.Len(t, view.Open, 2)
				assert.Equal(t, []string{"bob"}, view.Excluded)
			},
		},
		{
			name:          "invalid history order",
			subject:       models.SessionHistorySubject,
			body:          `{"session_uid":"session-1","order":"sideways"}`,
			expectedError: "validation",
		},
		{
			name:    "participant actions",
			subject: models.ParticipantActionsSubject,
			body:    `{"session_uid":"session-1","viewer_id":"alice","target_id":"bob"}`,
			setupMocks: func(repo *mocks.MockSessionRepository) {
				repo.On("Get", mock.Anything, "session-1").Return(handlerSession(), nil)
			},
			checkData: func(t *testing.T, data json.RawMessage) {
				var actions []models.Action
				require.NoError(t, json.Unmarshal(data, &actions))
				assert.Equal(t, []models.Action{models.ActionGrantAdmin, models.ActionRemoveParticipant}, actions)
			},
		},
		{
			name:          "clear history requires confirmation",
			subject:       models.SessionHistoryClearSubject,
			body:          `{"session_uid":"session-1","actor":{"id":"alice"}}`,
			expectedError: "validation",
		},
		{
			name:          "calendar sync without sources",
			subject:       models.CalendarSyncProposeSubject,
			body:          `{"session_uid":"session-1","participant_id":"alice"}`,
			expectedError: "unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, repo, _ := setupHandlerForTesting(false)
			if tt.setupMocks != nil {
				tt.setupMocks(repo)
			}

			reply := request(t, handler, tt.subject, []byte(tt.body))

			if tt.expectedError != "" {
				require.NotNil(t, reply.Error)
				assert.Equal(t, tt.expectedError, reply.Error.Type)
				assert.NotEmpty(t, reply.Error.Message)
				assert.Empty(t, reply.Data)
				return
			}
			require.Nil(t, reply.Error)
			tt.checkData(t, reply.Data)
		})
	}
}

func TestSessionHandler_HandleHistoryClear(t *testing.T) {
	handler, repo, builder := setupHandlerForTesting(false)
	repo.On("Get", mock.Anything, "session-1").Return(handlerSession(), nil)
	repo.On("ClearHistory", mock.Anything, "session-1").Return(4, nil)
	builder.On("SendHistoryCleared", mock.Anything, mock.Anything).Return(nil)

	reply := request(t, handler, models.SessionHistoryClearSubject,
		[]byte(`{"session_uid":"session-1","actor":{"id":"alice"},"confirmed":true}`))

	require.Nil(t, reply.Error)
	assert.JSONEq(t, `{"removed":4}`, string(reply.Data))
	builder.AssertExpectations(t)
}

func TestSessionHandler_NoReply(t *testing.T) {
	handler, repo, _ := setupHandlerForTesting(false)
	repo.On("Get", mock.Anything, "session-1").Return(handlerSession(), nil)

	msg := mocks.NewMockMessage([]byte(`{"session_uid":"session-1"}`), models.SessionGetSubject)
	msg.On("HasReply").Return(false)

	handler.HandleMessage(context.Background(), msg)

	msg.AssertNotCalled(t, "Respond", mock.Anything)
	repo.AssertExpectations(t)
}
