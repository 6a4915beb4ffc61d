// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package availability

import (
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(uid string, minute int) models.AuditEntry {
	return models.AuditEntry{
		UID:       uid,
		Author:    "Alice",
		AuthorID:  "alice",
		CreatedAt: day.Add(time.Duration(minute) * time.Minute),
		EditKind:  models.EditKindParticipantAdded,
	}
}

func uids(entries []models.AuditEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.UID)
	}
	return out
}

func TestHistoryLogSorted(t *testing.T) {
	log := NewHistoryLog(nil)
	log.Append(entry("c", 30))
	log.Append(entry("a", 10))
	log.Append(entry("b1", 20))
	log.Append(entry("b2", 20))

	asc := log.Sorted(Ascending)
	desc := log.Sorted(Descending)

	assert.Equal(t, []string{"a", "b1", "b2", "c"}, uids(asc))
	reversed := slices.Clone(asc)
	slices.Reverse(reversed)
	assert.Equal(t, reversed, desc)

	assert.Equal(t, []string{"c", "a", "b1", "b2"}, uids(log.Entries()), "projection must not reorder storage")
}

func TestHistoryLogClear(t *testing.T) {
	log := NewHistoryLog([]models.AuditEntry{entry("a", 1), entry("b", 2)})
	require.Equal(t, 2, log.Len())

	assert.Equal(t, 2, log.Clear())
	assert.Equal(t, 0, log.Len())
	assert.Empty(t, log.Sorted(Descending))

	assert.Equal(t, 0, log.Clear(), "clearing an empty log is a no-op")
}

func TestNewHistoryLogCopiesInput(t *testing.T) {
	seed := []models.AuditEntry{entry("a", 1)}
	log := NewHistoryLog(seed)
	seed[0].UID = "mutated"
	assert.Equal(t, []string{"a"}, uids(log.Entries()))
}

func TestHistoryLogConcurrentAppend(t *testing.T) {
	log := NewHistoryLog(nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			log.Append(entry("e", i))
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, log.Len())
}

func TestParseSortOrder(t *testing.T) {
	tests := []struct {
		in       string
		expected SortOrder
		wantErr  bool
	}{
		{in: "", expected: Descending},
		{in: "desc", expected: Descending},
		{in: "Descending", expected: Descending},
		{in: "asc", expected: Ascending},
		{in: " ascending ", expected: Ascending},
		{in: "sideways", expected: Descending, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSortOrder(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expected, got)
		})
	}
}
