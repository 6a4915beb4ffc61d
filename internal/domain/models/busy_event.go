// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"fmt"
	"time"
)

// BusyEvent is a range during which a participant is occupied. It is a value
// object: edits produce new instances.
type BusyEvent struct {
	Title    string   `json:"title"`
	Interval Interval `json:"interval"`
	IsAllDay bool     `json:"is_all_day"`
	// OwnerID is the participant whose calendar produced the event.
	OwnerID string `json:"owner_id"`
	// IsSystemGenerated marks legacy placeholders that were derived from open
	// intervals and folded into the event list. They are ignored by aggregation.
	IsSystemGenerated bool `json:"is_system_generated,omitempty"`
}

// EventKey is the structural identity of a BusyEvent: title, interval and owner.
type EventKey struct {
	Title   string
	Start   int64
	End     int64
	OwnerID string
}

// Key returns the structural identity used for de-duplication. Times are
// compared as instants so that the same moment in two locations is equal.
func (e BusyEvent) Key() EventKey {
	return EventKey{
		Title:   e.Title,
		Start:   e.Interval.Start.UnixNano(),
		End:     e.Interval.End.UnixNano(),
		OwnerID: e.OwnerID,
	}
}

// StructurallyEqual reports whether two events share title, interval and owner.
func (e BusyEvent) StructurallyEqual(other BusyEvent) bool {
	return e.Key() == other.Key()
}

// WithInterval returns a copy of the event covering interval.
func (e BusyEvent) WithInterval(interval Interval) BusyEvent {
	e.Interval = interval
	return e
}

// WithOwner returns a copy of the event attributed to ownerID.
func (e BusyEvent) WithOwner(ownerID string) BusyEvent {
	e.OwnerID = ownerID
	return e
}

// Start is a shortcut for e.Interval.Start.
func (e BusyEvent) Start() time.Time {
	return e.Interval.Start
}

// End is a shortcut for e.Interval.End.
func (e BusyEvent) End() time.Time {
	return e.Interval.End
}

func (e BusyEvent) String() string {
	return fmt.Sprintf("%q[%s] owner=%s", e.Title, e.Interval, e.OwnerID)
}
