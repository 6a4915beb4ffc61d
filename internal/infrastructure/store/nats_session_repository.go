// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-availability-service/internal/logging"
)

// historyAppendAttempts bounds the read-modify-write retries of AppendHistory
// when two writers race on the same session history.
const historyAppendAttempts = 3

// historyDocument is the value stored per session in the history bucket.
type historyDocument struct {
	SessionUID string              `msgpack:"session_uid"`
	Entries    []models.AuditEntry `msgpack:"entries"`
}

// NatsSessionRepository implements domain.SessionRepository on two buckets:
// sessions (JSON, plus the join code index) and history (msgpack).
type NatsSessionRepository struct {
	sessions   *NatsBaseRepository[models.Session]
	history    *NatsBaseRepository[historyDocument]
	keyBuilder *KeyBuilder
}

// NewNatsSessionRepository creates a session repository.
func NewNatsSessionRepository(sessions, history INatsKeyValue) *NatsSessionRepository {
	return &NatsSessionRepository{
		sessions:   NewNatsBaseRepository[models.Session](sessions, "session", JSONCodec{}),
		history:    NewNatsBaseRepository[historyDocument](history, "session history", MsgpackCodec{}),
		keyBuilder: NewKeyBuilder(""),
	}
}

// IsReady reports whether both buckets are configured.
func (r *NatsSessionRepository) IsReady() bool {
	return r.sessions.IsReady() && r.history.IsReady()
}

func (r *NatsSessionRepository) sessionKey(uid string) string {
	return r.keyBuilder.EntityKey(KeyPrefixSession, uid)
}

func (r *NatsSessionRepository) codeKey(code string) string {
	return r.keyBuilder.IndexKey(KeyPrefixIndexCode, code)
}

func (r *NatsSessionRepository) historyKey(uid string) string {
	return r.keyBuilder.EntityKey(KeyPrefixSession, uid)
}

// Create stores a new session and its join code index entry.
func (r *NatsSessionRepository) Create(ctx context.Context, session *models.Session) error {
	ctx = logging.AppendCtx(ctx, slog.String("session_uid", session.UID))

	exists, err := r.sessions.Exists(ctx, r.sessionKey(session.UID))
	if err != nil {
		return err
	}
	if exists {
		return domain.NewConflictError(fmt.Sprintf("session %s already exists", session.UID))
	}

	if session.Code != "" {
		taken, err := r.sessions.Exists(ctx, r.codeKey(session.Code))
		if err != nil {
			return err
		}
		if taken {
			return domain.NewConflictError("join code is already in use")
		}
	}

	if _, err := r.sessions.Put(ctx, r.sessionKey(session.UID), session); err != nil {
		return err
	}

	if session.Code != "" {
		if err := r.sessions.PutIndex(ctx, r.codeKey(session.Code), session.UID); err != nil {
			slog.ErrorContext(ctx, "error creating join code index, session will not be joinable by code",
				logging.ErrKey, err)
			return err
		}
	}

	slog.DebugContext(ctx, "created session in NATS KV store")
	return nil
}

// Exists reports whether a session with uid is stored.
func (r *NatsSessionRepository) Exists(ctx context.Context, sessionUID string) (bool, error) {
	return r.sessions.Exists(ctx, r.sessionKey(sessionUID))
}

// Get returns the session with its history attached.
func (r *NatsSessionRepository) Get(ctx context.Context, sessionUID string) (*models.Session, error) {
	session, _, err := r.GetWithRevision(ctx, sessionUID)
	return session, err
}

// GetWithRevision returns the session, with history attached, and the
// revision of the session document.
func (r *NatsSessionRepository) GetWithRevision(ctx context.Context, sessionUID string) (*models.Session, uint64, error) {
	session, revision, err := r.sessions.GetWithRevision(ctx, r.sessionKey(sessionUID))
	if err != nil {
		if domain.GetErrorType(err) == domain.ErrorTypeNotFound {
			return nil, 0, domain.NewNotFoundError(
				fmt.Sprintf("session %s not found", sessionUID), domain.ErrSessionNotFound)
		}
		return nil, 0, err
	}

	history, err := r.ListHistory(ctx, sessionUID)
	if err != nil {
		return nil, 0, err
	}
	session.History = history

	return session, revision, nil
}

// GetByCode resolves a join code through the index.
func (r *NatsSessionRepository) GetByCode(ctx context.Context, code string) (*models.Session, error) {
	uid, err := r.sessions.LookupIndex(ctx, r.codeKey(code))
	if err != nil {
		if domain.GetErrorType(err) == domain.ErrorTypeNotFound {
			return nil, domain.NewNotFoundError("no session uses this join code", domain.ErrSessionNotFound)
		}
		return nil, err
	}
	return r.Get(ctx, uid)
}

// Update replaces the session document if revision still matches. History is
// stored separately and is not written here. The new revision is returned.
func (r *NatsSessionRepository) Update(ctx context.Context, session *models.Session, revision uint64) (uint64, error) {
	return r.sessions.Update(ctx, r.sessionKey(session.UID), session, revision)
}

// Delete removes the session, its join code index entry and its history.
func (r *NatsSessionRepository) Delete(ctx context.Context, sessionUID string, revision uint64) error {
	ctx = logging.AppendCtx(ctx, slog.String("session_uid", sessionUID))

	session, err := r.sessions.Get(ctx, r.sessionKey(sessionUID))
	if err != nil {
		return err
	}

	if err := r.sessions.Delete(ctx, r.sessionKey(sessionUID), revision); err != nil {
		return err
	}

	if session.Code != "" {
		if err := r.sessions.DeleteIndex(ctx, r.codeKey(session.Code)); err != nil {
			slog.WarnContext(ctx, "failed to delete join code index", logging.ErrKey, err)
		}
	}

	if err := r.history.Delete(ctx, r.historyKey(sessionUID), 0); err != nil &&
		domain.GetErrorType(err) != domain.ErrorTypeNotFound {
		slog.WarnContext(ctx, "failed to delete session history", logging.ErrKey, err)
	}

	return nil
}

// AppendHistory adds entry at the end of the session's history.
func (r *NatsSessionRepository) AppendHistory(ctx context.Context, sessionUID string, entry models.AuditEntry) error {
	key := r.historyKey(sessionUID)

	var lastErr error
	for attempt := 0; attempt < historyAppendAttempts; attempt++ {
		doc, revision, err := r.history.GetWithRevision(ctx, key)
		switch {
		case err == nil:
			doc.Entries = append(doc.Entries, entry)
			_, err = r.history.Update(ctx, key, doc, revision)
		case domain.GetErrorType(err) == domain.ErrorTypeNotFound:
			_, err = r.history.Put(ctx, key, &historyDocument{
				SessionUID: sessionUID,
				Entries:    []models.AuditEntry{entry},
			})
		}
		if err == nil {
			return nil
		}
		if domain.GetErrorType(err) != domain.ErrorTypeConflict {
			return err
		}
		lastErr = err
		slog.DebugContext(ctx, "history append raced with another writer, retrying",
			"session_uid", sessionUID, "attempt", attempt+1)
	}
	return lastErr
}

// ListHistory returns the entries in insertion order. A session without
// history yields an empty slice.
func (r *NatsSessionRepository) ListHistory(ctx context.Context, sessionUID string) ([]models.AuditEntry, error) {
	doc, err := r.history.Get(ctx, r.historyKey(sessionUID))
	if err != nil {
		if domain.GetErrorType(err) == domain.ErrorTypeNotFound {
			return []models.AuditEntry{}, nil
		}
		return nil, err
	}
	if doc.Entries == nil {
		return []models.AuditEntry{}, nil
	}
	return doc.Entries, nil
}

// ClearHistory removes every entry and returns how many were removed.
func (r *NatsSessionRepository) ClearHistory(ctx context.Context, sessionUID string) (int, error) {
	key := r.historyKey(sessionUID)
	doc, revision, err := r.history.GetWithRevision(ctx, key)
	if err != nil {
		if domain.GetErrorType(err) == domain.ErrorTypeNotFound {
			return 0, nil
		}
		return 0, err
	}

	if err := r.history.Delete(ctx, key, revision); err != nil {
		return 0, err
	}
	return len(doc.Entries), nil
}
