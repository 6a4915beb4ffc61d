// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import "slices"

// VisibilitySet holds the participant ids hidden from aggregation in one view.
// It lives only as long as the view and never touches the session itself.
type VisibilitySet map[string]struct{}

// NewVisibilitySet returns a set excluding ids.
func NewVisibilitySet(ids ...string) VisibilitySet {
	set := make(VisibilitySet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Toggle flips the exclusion of id and reports whether it is now excluded.
func (s VisibilitySet) Toggle(id string) bool {
	if _, ok := s[id]; ok {
		delete(s, id)
		return false
	}
	s[id] = struct{}{}
	return true
}

// Excludes reports whether id is hidden. A nil set excludes nothing.
func (s VisibilitySet) Excludes(id string) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of excluded participants.
func (s VisibilitySet) Len() int {
	return len(s)
}

// IDs returns the excluded ids in sorted order.
func (s VisibilitySet) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Clone returns an independent copy, used to pass an immutable snapshot to
// a recompute.
func (s VisibilitySet) Clone() VisibilitySet {
	cp := make(VisibilitySet, len(s))
	for id := range s {
		cp[id] = struct{}{}
	}
	return cp
}
