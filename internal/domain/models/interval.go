// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"fmt"
	"time"
)

// Interval is a closed time range. Start must not be after End; zero-length
// intervals are legal and are used as instantaneous markers.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewInterval builds an interval without validating it.
func NewInterval(start, end time.Time) Interval {
	return Interval{Start: start, End: end}
}

// Duration returns the length of the interval.
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// IsEmpty reports whether the interval has zero length.
func (i Interval) IsEmpty() bool {
	return i.Start.Equal(i.End)
}

// IsValid reports whether Start <= End.
func (i Interval) IsValid() bool {
	return !i.Start.After(i.End)
}

// Validate returns an error when the interval starts after it ends.
func (i Interval) Validate() error {
	if !i.IsValid() {
		return fmt.Errorf("interval %s starts after it ends", i)
	}
	return nil
}

// Contains reports whether t lies within [Start, End].
func (i Interval) Contains(t time.Time) bool {
	return !t.Before(i.Start) && !t.After(i.End)
}

// Overlaps reports whether the two intervals share a non-empty range. A
// zero-length interval overlaps other when it lies within it.
func (i Interval) Overlaps(other Interval) bool {
	if i.IsEmpty() {
		return other.Contains(i.Start)
	}
	if other.IsEmpty() {
		return i.Contains(other.Start)
	}
	return i.Start.Before(other.End) && i.End.After(other.Start)
}

// Clip restricts the interval to window. The boolean is false when nothing of
// positive length remains.
func (i Interval) Clip(window Interval) (Interval, bool) {
	start := i.Start
	if window.Start.After(start) {
		start = window.Start
	}
	end := i.End
	if window.End.Before(end) {
		end = window.End
	}
	if !start.Before(end) {
		return Interval{}, false
	}
	return Interval{Start: start, End: end}, true
}

// In converts both bounds to loc.
func (i Interval) In(loc *time.Location) Interval {
	return Interval{Start: i.Start.In(loc), End: i.End.In(loc)}
}

// String renders the interval for logs and audit values.
func (i Interval) String() string {
	return fmt.Sprintf("%s/%s", i.Start.Format(time.RFC3339), i.End.Format(time.RFC3339))
}

// Provenance tags where a rendered interval came from.
type Provenance string

const (
	// ProvenanceComputed marks free time derived by the aggregation engine.
	ProvenanceComputed Provenance = "computed"
)

// OpenInterval is free time inside a session window. It is derived on every
// recompute and must never be stored as a BusyEvent or fed back as input.
type OpenInterval struct {
	Interval
	Provenance Provenance `json:"provenance"`
}

// NewOpenInterval tags interval as computed free time.
func NewOpenInterval(interval Interval) OpenInterval {
	return OpenInterval{Interval: interval, Provenance: ProvenanceComputed}
}
