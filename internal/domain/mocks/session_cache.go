// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain/models"
)

// MockSessionCache implements SessionCache for testing
type MockSessionCache struct {
	mock.Mock
}

func (m *MockSessionCache) Get(sessionUID string) (*models.Session, uint64, bool) {
	args := m.Called(sessionUID)
	if args.Get(0) == nil {
		return nil, args.Get(1).(uint64), args.Bool(2)
	}
	return args.Get(0).(*models.Session), args.Get(1).(uint64), args.Bool(2)
}

func (m *MockSessionCache) Put(session *models.Session, revision uint64) {
	m.Called(session, revision)
}

func (m *MockSessionCache) Evict(sessionUID string) {
	m.Called(sessionUID)
}
