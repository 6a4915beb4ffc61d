// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package messaging

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-availability-service/internal/logging"
	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// INatsConn is the subset of *nats.Conn used to publish session events.
type INatsConn interface {
	IsConnected() bool
	PublishMsg(msg *nats.Msg) error
}

// MessageBuilder publishes session events to NATS.
type MessageBuilder struct {
	NatsConn INatsConn
}

var _ domain.MessageBuilder = (*MessageBuilder)(nil)

// NewMessageBuilder creates a new MessageBuilder.
func NewMessageBuilder(natsConn INatsConn) *MessageBuilder {
	return &MessageBuilder{
		NatsConn: natsConn,
	}
}

// publish sends data on subject, carrying the trace context of ctx in the
// message headers.
func (m *MessageBuilder) publish(ctx context.Context, subject string, data []byte) error {
	if m.NatsConn == nil {
		return domain.NewUnavailableError("NATS connection is not configured")
	}

	msg := nats.NewMsg(subject)
	msg.Data = data
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(msg.Header))

	if err := m.NatsConn.PublishMsg(msg); err != nil {
		slog.ErrorContext(ctx, "error sending message to NATS", logging.ErrKey, err, "subject", subject)
		return err
	}
	slog.DebugContext(ctx, "sent message to NATS", "subject", subject)
	return nil
}

func (m *MessageBuilder) publishJSON(ctx context.Context, subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.ErrorContext(ctx, "error marshalling data into JSON", logging.ErrKey, err, "subject", subject)
		return err
	}
	return m.publish(ctx, subject, data)
}

// SendSessionUpdated announces that a session document changed so viewers
// recompute their availability.
func (m *MessageBuilder) SendSessionUpdated(ctx context.Context, data models.SessionUpdatedMessage) error {
	return m.publishJSON(ctx, models.SessionUpdatedSubject, data)
}

// SendHistoryAppended announces a new audit entry.
func (m *MessageBuilder) SendHistoryAppended(ctx context.Context, data models.HistoryAppendedMessage) error {
	return m.publishJSON(ctx, models.HistoryAppendedSubject, data)
}

// SendHistoryCleared announces that an admin cleared a session history.
func (m *MessageBuilder) SendHistoryCleared(ctx context.Context, data models.HistoryClearedMessage) error {
	return m.publishJSON(ctx, models.HistoryClearedSubject, data)
}

// SendCalendarSynced announces that imported calendar events were committed.
func (m *MessageBuilder) SendCalendarSynced(ctx context.Context, data models.CalendarSyncedMessage) error {
	return m.publishJSON(ctx, models.CalendarSyncedSubject, data)
}
