// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain/mocks"
	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-availability-service/pkg/constants"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() domain.Clock {
	return domain.ClockFunc(func() time.Time { return testNow })
}

// at returns the given day of March 2025 at hour:minute UTC.
func at(day, hour, minute int) time.Time {
	return time.Date(2025, 3, day, hour, minute, 0, 0, time.UTC)
}

func busy(title, owner string, start, end time.Time) models.BusyEvent {
	return models.BusyEvent{Title: title, Interval: models.NewInterval(start, end), OwnerID: owner}
}

// testSession is a session on March 3rd from 8:00 to 13:00 where alice is the
// only admin and alice and bob are busy from 9:00 to 12:00 combined.
func testSession() *models.Session {
	return &models.Session{
		UID:            "session-1",
		Name:           "Planning",
		Code:           "3mJr7AoUXx2Wqd",
		Timezone:       "UTC",
		WindowStart:    at(3, 8, 0),
		WindowEnd:      at(3, 13, 0),
		ParticipantIDs: []string{"alice", "bob", "carol"},
		AdminIDs:       []string{"alice"},
		Events: []models.BusyEvent{
			busy("Standup", "alice", at(3, 9, 0), at(3, 11, 0)),
			busy("Review", "bob", at(3, 10, 0), at(3, 12, 0)),
		},
		Settings: models.SessionSettings{AllowJoin: true},
	}
}

func expectPublish(mb *mocks.MockMessageBuilder) {
	mb.On("SendSessionUpdated", mock.Anything, mock.Anything).Return(nil).Maybe()
	mb.On("SendHistoryAppended", mock.Anything, mock.Anything).Return(nil).Maybe()
	mb.On("SendHistoryCleared", mock.Anything, mock.Anything).Return(nil).Maybe()
	mb.On("SendCalendarSynced", mock.Anything, mock.Anything).Return(nil).Maybe()
}

func TestServiceConfig_Defaults(t *testing.T) {
	tests := []struct {
		name     string
		config   ServiceConfig
		expected ServiceConfig
	}{
		{
			name:     "zero config gets defaults",
			config:   ServiceConfig{},
			expected: DefaultServiceConfig(),
		},
		{
			name:   "explicit values are kept",
			config: ServiceConfig{CalendarFetchWorkers: 9, CalendarFetchTimeout: time.Second},
			expected: ServiceConfig{
				CalendarFetchWorkers: 9,
				CalendarFetchTimeout: time.Second,
			},
		},
		{
			name:   "negative values get defaults",
			config: ServiceConfig{CalendarFetchWorkers: -1, CalendarFetchTimeout: -time.Second},
			expected: ServiceConfig{
				CalendarFetchWorkers: constants.DefaultCalendarFetchWorkers,
				CalendarFetchTimeout: constants.DefaultCalendarFetchTimeout,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.config.withDefaults())
		})
	}
}

func TestServices_ServiceReady(t *testing.T) {
	repo := &mocks.MockSessionRepository{}
	builder := &mocks.MockMessageBuilder{}
	provider := &mocks.MockCalendarProvider{}

	tests := []struct {
		name          string
		service       Service
		expectedReady bool
	}{
		{"availability ready", NewAvailabilityService(repo, nil, nil, ServiceConfig{}), true},
		{"availability missing repository", NewAvailabilityService(nil, provider, nil, ServiceConfig{}), false},
		{"sessions ready", NewSessionService(repo, builder, nil, ServiceConfig{}), true},
		{"sessions missing message builder", NewSessionService(repo, nil, nil, ServiceConfig{}), false},
		{"sessions missing repository", NewSessionService(nil, builder, nil, ServiceConfig{}), false},
		{"calendar sync ready", NewCalendarSyncService(provider, NewSessionService(repo, builder, nil, ServiceConfig{})), true},
		{"calendar sync missing provider", NewCalendarSyncService(nil, NewSessionService(repo, builder, nil, ServiceConfig{})), false},
		{"calendar sync missing sessions", NewCalendarSyncService(provider, nil), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedReady, tt.service.ServiceReady())
		})
	}
}
