// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package availability

import (
	"cmp"
	"slices"
	"time"

	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain/models"
)

// StartOfDay returns midnight of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// EndOfDay returns 23:59:59 of t's calendar day in loc.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	return StartOfDay(t, loc).AddDate(0, 0, 1).Add(-time.Second)
}

func sameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// SplitByDay cuts interval at calendar-day boundaries in loc. An interval that
// starts and ends on the same day is returned unchanged. A trailing piece that
// would be empty (an interval ending exactly at midnight) is dropped.
func SplitByDay(interval models.Interval, loc *time.Location) []models.Interval {
	if loc == nil {
		loc = time.UTC
	}
	if !interval.IsValid() || sameDay(interval.Start, interval.End, loc) {
		return []models.Interval{interval}
	}

	start := interval.Start.In(loc)
	end := interval.End.In(loc)
	lastDay := StartOfDay(end, loc)

	pieces := []models.Interval{models.NewInterval(start, EndOfDay(start, loc))}
	for day := StartOfDay(start, loc).AddDate(0, 0, 1); day.Before(lastDay); day = day.AddDate(0, 0, 1) {
		pieces = append(pieces, models.NewInterval(day, EndOfDay(day, loc)))
	}
	if lastDay.Before(end) {
		pieces = append(pieces, models.NewInterval(lastDay, end))
	}
	return pieces
}

// SegmentEvents splits busy events into per-day display entries.
func SegmentEvents(events []models.BusyEvent, loc *time.Location) []models.DayEntry {
	var entries []models.DayEntry
	for _, e := range events {
		for _, piece := range SplitByDay(e.Interval, loc) {
			entries = append(entries, models.DayEntry{
				Kind:     models.EntryKindBusy,
				Interval: piece,
				Title:    e.Title,
				OwnerID:  e.OwnerID,
				IsAllDay: e.IsAllDay,
			})
		}
	}
	return entries
}

// SegmentOpen splits open intervals into per-day display entries.
func SegmentOpen(open []models.OpenInterval, loc *time.Location) []models.DayEntry {
	var entries []models.DayEntry
	for _, o := range open {
		for _, piece := range SplitByDay(o.Interval, loc) {
			entries = append(entries, models.DayEntry{
				Kind:     models.EntryKindOpen,
				Interval: piece,
			})
		}
	}
	return entries
}

// GroupByDay buckets entries into sections keyed by the calendar day of each
// entry's start, in chronological order.
func GroupByDay(entries []models.DayEntry, loc *time.Location) []models.DaySection {
	if loc == nil {
		loc = time.UTC
	}
	byDay := make(map[int64]*models.DaySection)
	for _, entry := range entries {
		day := StartOfDay(entry.Interval.Start, loc)
		section, ok := byDay[day.Unix()]
		if !ok {
			section = &models.DaySection{Day: day}
			byDay[day.Unix()] = section
		}
		section.Entries = append(section.Entries, entry)
	}

	sections := make([]models.DaySection, 0, len(byDay))
	for _, section := range byDay {
		slices.SortStableFunc(section.Entries, func(a, b models.DayEntry) int {
			return cmp.Or(
				a.Interval.Start.Compare(b.Interval.Start),
				a.Interval.End.Compare(b.Interval.End),
			)
		})
		sections = append(sections, *section)
	}
	slices.SortFunc(sections, func(a, b models.DaySection) int {
		return a.Day.Compare(b.Day)
	})
	return sections
}
