// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain/models"
)

// MockSessionRepository implements SessionRepository for testing
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Create(ctx context.Context, session *models.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) Exists(ctx context.Context, sessionUID string) (bool, error) {
	args := m.Called(ctx, sessionUID)
	return args.Bool(0), args.Error(1)
}

func (m *MockSessionRepository) Get(ctx context.Context, sessionUID string) (*models.Session, error) {
	args := m.Called(ctx, sessionUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockSessionRepository) GetWithRevision(ctx context.Context, sessionUID string) (*models.Session, uint64, error) {
	args := m.Called(ctx, sessionUID)
	if args.Get(0) == nil {
		return nil, args.Get(1).(uint64), args.Error(2)
	}
	return args.Get(0).(*models.Session), args.Get(1).(uint64), args.Error(2)
}

func (m *MockSessionRepository) GetByCode(ctx context.Context, code string) (*models.Session, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockSessionRepository) Update(ctx context.Context, session *models.Session, revision uint64) (uint64, error) {
	args := m.Called(ctx, session, revision)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *MockSessionRepository) Delete(ctx context.Context, sessionUID string, revision uint64) error {
	args := m.Called(ctx, sessionUID, revision)
	return args.Error(0)
}

func (m *MockSessionRepository) AppendHistory(ctx context.Context, sessionUID string, entry models.AuditEntry) error {
	args := m.Called(ctx, sessionUID, entry)
	return args.Error(0)
}

func (m *MockSessionRepository) ListHistory(ctx context.Context, sessionUID string) ([]models.AuditEntry, error) {
	args := m.Called(ctx, sessionUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AuditEntry), args.Error(1)
}

func (m *MockSessionRepository) ClearHistory(ctx context.Context, sessionUID string) (int, error) {
	args := m.Called(ctx, sessionUID)
	return args.Int(0), args.Error(1)
}
