// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"
	"time"

	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain/models"
)

// SessionRepository defines the interface for session storage operations.
// The availability core never calls it directly: services call the core and
// then persist the result through this interface.
type SessionRepository interface {
	// Session operations
	Create(ctx context.Context, session *models.Session) error
	Exists(ctx context.Context, sessionUID string) (bool, error)
	Get(ctx context.Context, sessionUID string) (*models.Session, error)
	GetWithRevision(ctx context.Context, sessionUID string) (*models.Session, uint64, error)
	GetByCode(ctx context.Context, code string) (*models.Session, error)
	Update(ctx context.Context, session *models.Session, revision uint64) (uint64, error)
	Delete(ctx context.Context, sessionUID string, revision uint64) error

	// History operations
	AppendHistory(ctx context.Context, sessionUID string, entry models.AuditEntry) error
	ListHistory(ctx context.Context, sessionUID string) ([]models.AuditEntry, error)
	ClearHistory(ctx context.Context, sessionUID string) (int, error)
}

// CalendarProvider supplies raw busy events for a participant. Implementations
// perform I/O and must honour ctx cancellation.
type CalendarProvider interface {
	FetchBusyEvents(ctx context.Context, participantID string, window models.Interval) ([]models.BusyEvent, error)
}

// SessionCache memoizes fetched sessions with a bounded eviction policy.
type SessionCache interface {
	Get(sessionUID string) (*models.Session, uint64, bool)
	Put(session *models.Session, revision uint64)
	Evict(sessionUID string)
}

// Clock supplies the current time for audit entries.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now calls f.
func (f ClockFunc) Now() time.Time {
	return f()
}

// SystemClock is the wall clock in UTC.
var SystemClock Clock = ClockFunc(func() time.Time { return time.Now().UTC() })
