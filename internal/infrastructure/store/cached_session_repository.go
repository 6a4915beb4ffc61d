// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"log/slog"

	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain/models"
)

// CachedSessionRepository serves session reads from a SessionCache and
// evicts on every write that goes through it, both before the write and once
// it has returned so a read racing the write cannot leave the old copy cached. Writers on other instances are
// only observed once the entry is evicted or ages out of the cache, so the
// cache should be sized for the working set of a single instance.
type CachedSessionRepository struct {
	domain.SessionRepository
	cache domain.SessionCache
}

// NewCachedSessionRepository wraps repo with cache.
func NewCachedSessionRepository(repo domain.SessionRepository, cache domain.SessionCache) *CachedSessionRepository {
	return &CachedSessionRepository{SessionRepository: repo, cache: cache}
}

func (r *CachedSessionRepository) Get(ctx context.Context, sessionUID string) (*models.Session, error) {
	session, _, err := r.GetWithRevision(ctx, sessionUID)
	return session, err
}

func (r *CachedSessionRepository) GetWithRevision(ctx context.Context, sessionUID string) (*models.Session, uint64, error) {
	if session, revision, ok := r.cache.Get(sessionUID); ok {
		slog.DebugContext(ctx, "session cache hit", "session_uid", sessionUID)
		return session.Snapshot(), revision, nil
	}

	session, revision, err := r.SessionRepository.GetWithRevision(ctx, sessionUID)
	if err != nil {
		return nil, 0, err
	}
	r.cache.Put(session.Snapshot(), revision)
	return session, revision, nil
}

func (r *CachedSessionRepository) Update(ctx context.Context, session *models.Session, revision uint64) (uint64, error) {
	r.cache.Evict(session.UID)
	defer r.cache.Evict(session.UID)
	return r.SessionRepository.Update(ctx, session, revision)
}

func (r *CachedSessionRepository) Delete(ctx context.Context, sessionUID string, revision uint64) error {
	r.cache.Evict(sessionUID)
	defer r.cache.Evict(sessionUID)
	return r.SessionRepository.Delete(ctx, sessionUID, revision)
}

func (r *CachedSessionRepository) AppendHistory(ctx context.Context, sessionUID string, entry models.AuditEntry) error {
	r.cache.Evict(sessionUID)
	defer r.cache.Evict(sessionUID)
	return r.SessionRepository.AppendHistory(ctx, sessionUID, entry)
}

func (r *CachedSessionRepository) ClearHistory(ctx context.Context, sessionUID string) (int, error) {
	r.cache.Evict(sessionUID)
	defer r.cache.Evict(sessionUID)
	return r.SessionRepository.ClearHistory(ctx, sessionUID)
}
