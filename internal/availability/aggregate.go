// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package availability

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain/models"
)

// Aggregation is the merged busy time of a window and its complement.
type Aggregation struct {
	Window models.Interval
	Busy   []models.Interval
	Open   []models.OpenInterval
}

// ValidateWindow rejects windows that start after they end.
func ValidateWindow(window models.Interval) error {
	if !window.IsValid() {
		return domain.NewValidationError(
			fmt.Sprintf("window start %s is after window end %s", window.Start, window.End),
			domain.ErrInvalidWindow)
	}
	return nil
}

// ValidateEvents rejects the first event whose interval starts after it ends.
func ValidateEvents(events []models.BusyEvent) error {
	for i, e := range events {
		if !e.Interval.IsValid() {
			return domain.NewValidationError(
				fmt.Sprintf("event %d (%q, owner %s) starts after it ends", i, e.Title, e.OwnerID),
				domain.ErrInvalidInterval)
		}
	}
	return nil
}

// MergeBusy clips the events to window and merges overlapping or touching
// ranges into the minimal sorted set of disjoint busy blocks.
func MergeBusy(busy []models.BusyEvent, window models.Interval) ([]models.Interval, error) {
	if err := ValidateWindow(window); err != nil {
		return nil, err
	}
	if err := ValidateEvents(busy); err != nil {
		return nil, err
	}
	return mergeClipped(busy, window), nil
}

// ComputeOpenIntervals returns the free time inside window not covered by any
// busy event. The result is sorted, disjoint and free of zero-length ranges,
// and together with MergeBusy it covers window exactly.
func ComputeOpenIntervals(busy []models.BusyEvent, window models.Interval) ([]models.OpenInterval, error) {
	agg, err := Aggregate(busy, window)
	if err != nil {
		return nil, err
	}
	return agg.Open, nil
}

// Aggregate computes both the merged busy blocks and the open intervals.
func Aggregate(busy []models.BusyEvent, window models.Interval) (Aggregation, error) {
	blocks, err := MergeBusy(busy, window)
	if err != nil {
		return Aggregation{}, err
	}
	return Aggregation{
		Window: window,
		Busy:   blocks,
		Open:   gaps(blocks, window),
	}, nil
}

func mergeClipped(busy []models.BusyEvent, window models.Interval) []models.Interval {
	clipped := make([]models.Interval, 0, len(busy))
	for _, e := range busy {
		// Derived placeholders from older clients are not real busy time.
		if e.IsSystemGenerated || e.Interval.IsEmpty() {
			continue
		}
		if iv, ok := e.Interval.Clip(window); ok {
			clipped = append(clipped, iv)
		}
	}
	if len(clipped) == 0 {
		return []models.Interval{}
	}

	slices.SortFunc(clipped, func(a, b models.Interval) int {
		if c := a.Start.Compare(b.Start); c != 0 {
			return c
		}
		return a.End.Compare(b.End)
	})

	blocks := make([]models.Interval, 0, len(clipped))
	current := clipped[0]
	for _, iv := range clipped[1:] {
		if !iv.Start.After(current.End) {
			if iv.End.After(current.End) {
				current.End = iv.End
			}
			continue
		}
		blocks = append(blocks, current)
		current = iv
	}
	return append(blocks, current)
}

func gaps(blocks []models.Interval, window models.Interval) []models.OpenInterval {
	open := make([]models.OpenInterval, 0, len(blocks)+1)
	cursor := window.Start
	for _, b := range blocks {
		if cursor.Before(b.Start) {
			open = append(open, models.NewOpenInterval(models.NewInterval(cursor, b.Start)))
		}
		if b.End.After(cursor) {
			cursor = b.End
		}
	}
	if cursor.Before(window.End) {
		open = append(open, models.NewOpenInterval(models.NewInterval(cursor, window.End)))
	}
	return open
}

// SortEvents orders events by start then end, leaving the input untouched.
func SortEvents(events []models.BusyEvent) []models.BusyEvent {
	out := slices.Clone(events)
	slices.SortStableFunc(out, func(a, b models.BusyEvent) int {
		return cmp.Or(
			a.Interval.Start.Compare(b.Interval.Start),
			a.Interval.End.Compare(b.Interval.End),
		)
	})
	return out
}
