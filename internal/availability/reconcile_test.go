// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package availability

import (
	"errors"
	"testing"
	"time"

	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func titled(title, owner string, startHour, endHour int) models.BusyEvent {
	return models.BusyEvent{Title: title, Interval: iv(startHour, endHour), OwnerID: owner}
}

func TestReconcile(t *testing.T) {
	existing := []models.BusyEvent{
		titled("standup", "alice", 9, 10),
		titled("lunch", "alice", 12, 13),
	}

	tests := []struct {
		name            string
		candidates      []models.BusyEvent
		expectedNew     []models.BusyEvent
		expectedTracked []models.BusyEvent
	}{
		{
			name:            "all candidates already tracked",
			candidates:      []models.BusyEvent{titled("standup", "alice", 9, 10)},
			expectedNew:     []models.BusyEvent{},
			expectedTracked: []models.BusyEvent{titled("standup", "alice", 9, 10)},
		},
		{
			name:            "different title is a new event",
			candidates:      []models.BusyEvent{titled("stand-up", "alice", 9, 10)},
			expectedNew:     []models.BusyEvent{titled("stand-up", "alice", 9, 10)},
			expectedTracked: []models.BusyEvent{},
		},
		{
			name:            "different owner is a new event",
			candidates:      []models.BusyEvent{titled("standup", "bob", 9, 10)},
			expectedNew:     []models.BusyEvent{titled("standup", "bob", 9, 10)},
			expectedTracked: []models.BusyEvent{},
		},
		{
			name:            "candidates outside the window are dropped",
			candidates:      []models.BusyEvent{titled("gym", "alice", 19, 20)},
			expectedNew:     []models.BusyEvent{},
			expectedTracked: []models.BusyEvent{},
		},
		{
			name: "duplicate candidates collapse",
			candidates: []models.BusyEvent{
				titled("review", "alice", 14, 15),
				titled("review", "alice", 14, 15),
			},
			expectedNew:     []models.BusyEvent{titled("review", "alice", 14, 15)},
			expectedTracked: []models.BusyEvent{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proposal, err := Reconcile(existing, tt.candidates, iv(8, 18))
			require.NoError(t, err)
			assert.Equal(t, tt.expectedNew, proposal.New)
			assert.Equal(t, tt.expectedTracked, proposal.AlreadyTracked)
		})
	}
}

func TestReconcileMatchesInstantsAcrossLocations(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	existing := []models.BusyEvent{titled("standup", "alice", 9, 10)}
	candidate := titled("standup", "alice", 9, 10)
	candidate.Interval = candidate.Interval.In(loc)

	proposal, err := Reconcile(existing, []models.BusyEvent{candidate}, iv(8, 18))
	require.NoError(t, err)
	assert.Empty(t, proposal.New)
	assert.Len(t, proposal.AlreadyTracked, 1)
}

func TestReconcileRejectsInvalidInput(t *testing.T) {
	_, err := Reconcile(nil, nil, iv(18, 8))
	assert.True(t, errors.Is(err, domain.ErrInvalidWindow))

	_, err = Reconcile(nil, []models.BusyEvent{titled("bad", "a", 10, 9)}, iv(8, 18))
	assert.True(t, errors.Is(err, domain.ErrInvalidInterval))
}

func TestCommit(t *testing.T) {
	existing := []models.BusyEvent{titled("standup", "alice", 9, 10)}
	candidates := []models.BusyEvent{
		titled("standup", "alice", 9, 10),
		titled("review", "alice", 14, 15),
		titled("dentist", "alice", 16, 17),
	}

	proposal, err := Reconcile(existing, candidates, iv(8, 18))
	require.NoError(t, err)
	require.Len(t, proposal.New, 2)

	t.Run("omitted events are not added", func(t *testing.T) {
		omitted := []models.BusyEvent{titled("dentist", "alice", 16, 17)}
		got := Commit(existing, proposal, omitted)
		assert.Equal(t, []models.BusyEvent{
			titled("standup", "alice", 9, 10),
			titled("review", "alice", 14, 15),
		}, got)
		assert.Equal(t, []models.BusyEvent{titled("review", "alice", 14, 15)}, Added(existing, proposal, omitted))
	})

	t.Run("committing twice is idempotent", func(t *testing.T) {
		once := Commit(existing, proposal, nil)
		twice := Commit(once, proposal, nil)
		assert.Equal(t, once, twice)
		assert.Len(t, once, 3)
		assert.Empty(t, Added(once, proposal, nil))

		again, err := Reconcile(once, candidates, iv(8, 18))
		require.NoError(t, err)
		assert.Empty(t, again.New)
		assert.Len(t, again.AlreadyTracked, 3)
	})

	t.Run("duplicates already tracked collapse", func(t *testing.T) {
		doubled := []models.BusyEvent{
			titled("standup", "alice", 9, 10),
			titled("standup", "alice", 9, 10),
		}
		once := Commit(doubled, proposal, nil)
		twice := Commit(once, proposal, nil)
		assert.Equal(t, []models.BusyEvent{
			titled("standup", "alice", 9, 10),
			titled("review", "alice", 14, 15),
			titled("dentist", "alice", 16, 17),
		}, twice)
		assert.Equal(t, once, twice)
		assert.Len(t, Added(doubled, proposal, nil), 2)
	})

	t.Run("existing order is preserved", func(t *testing.T) {
		got := Commit(existing, proposal, nil)
		assert.Equal(t, existing[0], got[0])
	})
}
