// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package availability

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitByDay(t *testing.T) {
	mon := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	tue := mon.AddDate(0, 0, 1)
	wed := mon.AddDate(0, 0, 2)
	thu := mon.AddDate(0, 0, 3)

	tests := []struct {
		name     string
		interval models.Interval
		expected []models.Interval
	}{
		{
			name:     "same day is returned unchanged",
			interval: models.NewInterval(mon.Add(9*time.Hour), mon.Add(17*time.Hour)),
			expected: []models.Interval{models.NewInterval(mon.Add(9*time.Hour), mon.Add(17*time.Hour))},
		},
		{
			name:     "overnight splits at midnight",
			interval: models.NewInterval(mon.Add(22*time.Hour), tue.Add(2*time.Hour)),
			expected: []models.Interval{
				models.NewInterval(mon.Add(22*time.Hour), tue.Add(-time.Second)),
				models.NewInterval(tue, tue.Add(2*time.Hour)),
			},
		},
		{
			name:     "multi-day includes full intermediate days",
			interval: models.NewInterval(mon.Add(20*time.Hour), thu.Add(3*time.Hour)),
			expected: []models.Interval{
				models.NewInterval(mon.Add(20*time.Hour), tue.Add(-time.Second)),
				models.NewInterval(tue, wed.Add(-time.Second)),
				models.NewInterval(wed, thu.Add(-time.Second)),
				models.NewInterval(thu, thu.Add(3*time.Hour)),
			},
		},
		{
			name:     "ending exactly at midnight drops the empty tail",
			interval: models.NewInterval(mon.Add(22*time.Hour), tue),
			expected: []models.Interval{
				models.NewInterval(mon.Add(22*time.Hour), tue.Add(-time.Second)),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitByDay(tt.interval, time.UTC)
			require.Len(t, got, len(tt.expected))
			for i := range got {
				assert.True(t, tt.expected[i].Start.Equal(got[i].Start), "piece %d start: %s", i, got[i])
				assert.True(t, tt.expected[i].End.Equal(got[i].End), "piece %d end: %s", i, got[i])
			}
		})
	}
}

func TestSplitByDayUsesLocation(t *testing.T) {
	newYork, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	minusFive := time.FixedZone("UTC-5", -5*60*60)

	tests := []struct {
		name      string
		interval  models.Interval
		loc       *time.Location
		utcPieces int
		expected  []models.Interval
	}{
		{
			// 02:00-06:00 UTC is 21:00-01:00 in UTC-5.
			name: "local midnight splits an interval that is one day in UTC",
			interval: models.NewInterval(
				time.Date(2024, 3, 5, 2, 0, 0, 0, time.UTC),
				time.Date(2024, 3, 5, 6, 0, 0, 0, time.UTC),
			),
			loc:       minusFive,
			utcPieces: 1,
			expected: []models.Interval{
				models.NewInterval(time.Date(2024, 3, 4, 21, 0, 0, 0, minusFive), time.Date(2024, 3, 4, 23, 59, 59, 0, minusFive)),
				models.NewInterval(time.Date(2024, 3, 5, 0, 0, 0, 0, minusFive), time.Date(2024, 3, 5, 1, 0, 0, 0, minusFive)),
			},
		},
		{
			// Clocks skip 02:00-03:00 on March 10th, so that day is 23 hours long.
			name: "daylight saving change keeps wall-clock day bounds",
			interval: models.NewInterval(
				time.Date(2024, 3, 9, 20, 0, 0, 0, newYork),
				time.Date(2024, 3, 11, 2, 0, 0, 0, newYork),
			),
			loc:       newYork,
			utcPieces: 2,
			expected: []models.Interval{
				models.NewInterval(time.Date(2024, 3, 9, 20, 0, 0, 0, newYork), time.Date(2024, 3, 9, 23, 59, 59, 0, newYork)),
				models.NewInterval(time.Date(2024, 3, 10, 0, 0, 0, 0, newYork), time.Date(2024, 3, 10, 23, 59, 59, 0, newYork)),
				models.NewInterval(time.Date(2024, 3, 11, 0, 0, 0, 0, newYork), time.Date(2024, 3, 11, 2, 0, 0, 0, newYork)),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, SplitByDay(tt.interval, time.UTC), tt.utcPieces)

			got := SplitByDay(tt.interval, tt.loc)
			require.Len(t, got, len(tt.expected))
			for i := range got {
				assert.True(t, tt.expected[i].Start.Equal(got[i].Start), "piece %d start: %s", i, got[i])
				assert.True(t, tt.expected[i].End.Equal(got[i].End), "piece %d end: %s", i, got[i])
				assert.Equal(t, tt.loc, got[i].Start.Location())
			}
		})
	}
}

func TestSplitByDayNilLocation(t *testing.T) {
	interval := models.NewInterval(at(22, 0), at(26, 0))
	assert.Equal(t, SplitByDay(interval, time.UTC), SplitByDay(interval, nil))
}

func TestGroupByDay(t *testing.T) {
	events := []models.BusyEvent{
		{Title: "late", Interval: models.NewInterval(at(22, 0), at(26, 0)), OwnerID: "a"},
		{Title: "early", Interval: models.NewInterval(at(8, 0), at(9, 0)), OwnerID: "b"},
	}
	open := []models.OpenInterval{models.NewOpenInterval(models.NewInterval(at(9, 0), at(22, 0)))}

	entries := append(SegmentEvents(events, time.UTC), SegmentOpen(open, time.UTC)...)
	sections := GroupByDay(entries, time.UTC)

	require.Len(t, sections, 2)
	assert.True(t, sections[0].Day.Equal(day))
	assert.True(t, sections[1].Day.Equal(day.AddDate(0, 0, 1)))

	first := sections[0].Entries
	require.Len(t, first, 3)
	assert.Equal(t, "early", first[0].Title)
	assert.Equal(t, models.EntryKindOpen, first[1].Kind)
	assert.Equal(t, "late", first[2].Title)

	second := sections[1].Entries
	require.Len(t, second, 1)
	assert.Equal(t, "late", second[0].Title)
	assert.Equal(t, models.EntryKindBusy, second[0].Kind)
}

func TestGroupByDayEmpty(t *testing.T) {
	assert.Empty(t, GroupByDay(nil, time.UTC))
}
