// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain/models"
)

// MockMessageBuilder implements MessageBuilder for testing
type MockMessageBuilder struct {
	mock.Mock
}

func (m *MockMessageBuilder) SendSessionUpdated(ctx context.Context, data models.SessionUpdatedMessage) error {
	args := m.Called(ctx, data)
	return args.Error(0)
}

func (m *MockMessageBuilder) SendHistoryAppended(ctx context.Context, data models.HistoryAppendedMessage) error {
	args := m.Called(ctx, data)
	return args.Error(0)
}

func (m *MockMessageBuilder) SendHistoryCleared(ctx context.Context, data models.HistoryClearedMessage) error {
	args := m.Called(ctx, data)
	return args.Error(0)
}

func (m *MockMessageBuilder) SendCalendarSynced(ctx context.Context, data models.CalendarSyncedMessage) error {
	args := m.Called(ctx, data)
	return args.Error(0)
}
