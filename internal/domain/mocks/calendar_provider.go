// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain/models"
)

// MockCalendarProvider implements CalendarProvider for testing
type MockCalendarProvider struct {
	mock.Mock
}

func (m *MockCalendarProvider) FetchBusyEvents(ctx context.Context, participantID string, window models.Interval) ([]models.BusyEvent, error) {
	args := m.Called(ctx, participantID, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.BusyEvent), args.Error(1)
}
