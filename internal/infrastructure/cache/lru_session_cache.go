// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package cache holds in-process caches for domain entities.
package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain/models"
)

type cachedSession struct {
	session  *models.Session
	revision uint64
}

// LRUSessionCache is a bounded session cache with least-recently-used
// eviction. Entries also expire after ttl so that writes made by other
// instances become visible.
type LRUSessionCache struct {
	lru *expirable.LRU[string, cachedSession]
}

// NewLRUSessionCache creates a cache holding at most size sessions. A zero ttl
// disables expiry.
func NewLRUSessionCache(size int, ttl time.Duration) *LRUSessionCache {
	if size <= 0 {
		size = 1
	}
	return &LRUSessionCache{lru: expirable.NewLRU[string, cachedSession](size, nil, ttl)}
}

// Get returns a copy of the cached session.
func (c *LRUSessionCache) Get(sessionUID string) (*models.Session, uint64, bool) {
	entry, ok := c.lru.Get(sessionUID)
	if !ok {
		return nil, 0, false
	}
	return entry.session.Snapshot(), entry.revision, true
}

// Put caches a copy of session at revision.
func (c *LRUSessionCache) Put(session *models.Session, revision uint64) {
	if session == nil || session.UID == "" {
		return
	}
	c.lru.Add(session.UID, cachedSession{session: session.Snapshot(), revision: revision})
}

// Evict drops sessionUID from the cache.
func (c *LRUSessionCache) Evict(sessionUID string) {
	c.lru.Remove(sessionUID)
}

// Len returns the number of cached sessions.
func (c *LRUSessionCache) Len() int {
	return c.lru.Len()
}
