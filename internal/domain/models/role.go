// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import "slices"

// Role is the standing a user has in a session.
type Role string

const (
	RoleNone   Role = "none"
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

// Action is a role-gated operation offered on a participant.
type Action string

const (
	ActionGrantAdmin        Action = "grant_admin"
	ActionRevokeAdmin       Action = "revoke_admin"
	ActionRemoveParticipant Action = "remove_participant"
	ActionLeaveSession      Action = "leave_session"
)

// ActionSet is an unordered set of actions.
type ActionSet map[Action]struct{}

// Has reports whether a is in the set.
func (s ActionSet) Has(a Action) bool {
	_, ok := s[a]
	return ok
}

// List returns the actions sorted by name.
func (s ActionSet) List() []Action {
	out := make([]Action, 0, len(s))
	for a := range s {
		out = append(out, a)
	}
	slices.Sort(out)
	return out
}

func newActionSet(actions ...Action) ActionSet {
	set := make(ActionSet, len(actions))
	for _, a := range actions {
		set[a] = struct{}{}
	}
	return set
}

// ActionsFor returns what viewer may do to target. isSelf is true when the
// viewer is looking at their own entry; target decides between grant and
// revoke.
func ActionsFor(viewer, target Role, isSelf bool) ActionSet {
	if isSelf {
		if viewer == RoleNone {
			return newActionSet()
		}
		return newActionSet(ActionLeaveSession)
	}
	if viewer != RoleAdmin {
		return newActionSet()
	}
	switch target {
	case RoleAdmin:
		return newActionSet(ActionRevokeAdmin, ActionRemoveParticipant)
	case RoleMember:
		return newActionSet(ActionGrantAdmin, ActionRemoveParticipant)
	default:
		return newActionSet()
	}
}
