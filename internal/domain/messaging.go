// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"

	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain/models"
)

// Message represents a domain message interface
type Message interface {
	Subject() string
	Data() []byte
	Respond(data []byte) error
	HasReply() bool
}

// MessageHandler defines how the service handles incoming messages
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg Message)
	HandlerReady() bool
}

// SessionEventSender publishes notifications about session changes so that
// viewers can trigger a recompute.
type SessionEventSender interface {
	SendSessionUpdated(ctx context.Context, data models.SessionUpdatedMessage) error
	SendHistoryAppended(ctx context.Context, data models.HistoryAppendedMessage) error
	SendHistoryCleared(ctx context.Context, data models.HistoryClearedMessage) error
	SendCalendarSynced(ctx context.Context, data models.CalendarSyncedMessage) error
}

// MessageBuilder is the main interface that composes all messaging capabilities.
type MessageBuilder interface {
	SessionEventSender
}
