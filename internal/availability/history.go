// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package availability

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain/models"
)

// SortOrder selects the direction of a history projection.
type SortOrder int

const (
	Ascending SortOrder = iota
	Descending
)

// ParseSortOrder accepts "asc"/"ascending" and "desc"/"descending". The empty
// string means Descending, newest first.
func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "desc", "descending":
		return Descending, nil
	case "asc", "ascending":
		return Ascending, nil
	default:
		return Descending, fmt.Errorf("unknown sort order %q", s)
	}
}

// HistoryLog is the append-only audit trail of one session. Append and Clear
// are serialized; projections never reorder the underlying entries.
type HistoryLog struct {
	mu      sync.RWMutex
	entries []models.AuditEntry
}

// NewHistoryLog seeds a log with entries in their original insertion order.
func NewHistoryLog(entries []models.AuditEntry) *HistoryLog {
	return &HistoryLog{entries: slices.Clone(entries)}
}

// Append adds entry at the end of the log.
func (h *HistoryLog) Append(entry models.AuditEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, entry)
}

// Sorted returns a copy ordered by CreatedAt. Entries with equal timestamps
// keep insertion order in Ascending; Descending is the exact reverse.
func (h *HistoryLog) Sorted(order SortOrder) []models.AuditEntry {
	out := h.Entries()
	slices.SortStableFunc(out, func(a, b models.AuditEntry) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	if order == Descending {
		slices.Reverse(out)
	}
	return out
}

// Clear truncates the log and returns how many entries were removed. Clearing
// an empty log is a no-op. This cannot be undone; callers gate it behind an
// explicit confirmation.
func (h *HistoryLog) Clear() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := len(h.entries)
	if n == 0 {
		return 0
	}
	h.entries = nil
	return n
}

// Entries returns a copy in insertion order.
func (h *HistoryLog) Entries() []models.AuditEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(h.entries)
}

// Len returns the number of entries.
func (h *HistoryLog) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}
