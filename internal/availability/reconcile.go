// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package availability

import (
	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain/models"
)

// Reconcile splits imported calendar events into those the session does not
// yet track and those it already does, by structural identity. Candidates that
// do not overlap window are dropped and duplicate candidates collapse to one.
// Nothing is written; the proposal must be confirmed through Commit.
func Reconcile(existing, candidates []models.BusyEvent, window models.Interval) (models.ReconciliationProposal, error) {
	if err := ValidateWindow(window); err != nil {
		return models.ReconciliationProposal{}, err
	}
	if err := ValidateEvents(candidates); err != nil {
		return models.ReconciliationProposal{}, err
	}

	tracked := keySet(existing)
	seen := make(map[models.EventKey]struct{}, len(candidates))
	proposal := models.ReconciliationProposal{
		New:            []models.BusyEvent{},
		AlreadyTracked: []models.BusyEvent{},
	}
	for _, c := range candidates {
		if !c.Interval.Overlaps(window) {
			continue
		}
		key := c.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		if _, ok := tracked[key]; ok {
			proposal.AlreadyTracked = append(proposal.AlreadyTracked, c)
			continue
		}
		proposal.New = append(proposal.New, c)
	}
	return proposal, nil
}

// Commit returns existing followed by the proposal's new events minus omitted,
// keeping the first occurrence of every structural identity. Committing the
// same proposal again is a no-op.
func Commit(existing []models.BusyEvent, proposal models.ReconciliationProposal, omitted []models.BusyEvent) []models.BusyEvent {
	present := make(map[models.EventKey]struct{}, len(existing)+len(proposal.New))
	out := make([]models.BusyEvent, 0, len(existing)+len(proposal.New))
	for _, e := range existing {
		if _, ok := present[e.Key()]; ok {
			continue
		}
		present[e.Key()] = struct{}{}
		out = append(out, e)
	}
	return append(out, additions(present, proposal, omitted)...)
}

// Added returns the events of proposal that Commit would actually append.
func Added(existing []models.BusyEvent, proposal models.ReconciliationProposal, omitted []models.BusyEvent) []models.BusyEvent {
	return additions(keySet(existing), proposal, omitted)
}

// additions records every returned event in present.
func additions(present map[models.EventKey]struct{}, proposal models.ReconciliationProposal, omitted []models.BusyEvent) []models.BusyEvent {
	skip := keySet(omitted)
	added := []models.BusyEvent{}
	for _, e := range proposal.New {
		key := e.Key()
		if _, ok := skip[key]; ok {
			continue
		}
		if _, ok := present[key]; ok {
			continue
		}
		present[key] = struct{}{}
		added = append(added, e)
	}
	return added
}

func keySet(events []models.BusyEvent) map[models.EventKey]struct{} {
	set := make(map[models.EventKey]struct{}, len(events))
	for _, e := range events {
		set[e.Key()] = struct{}{}
	}
	return set
}
