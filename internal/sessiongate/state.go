// Package sessiongate owns the session state machine and every
// allow/redirect decision made for a navigation or request.
package sessiongate

import (
	"fmt"

	"github.com/angelmondragon/tillcore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tillcore-backend/pkg/errors"
)

// Snapshot is the set of facts the gate evaluates. It is rebuilt from storage
// on every request so a branch closed mid-session is seen on the next call.
type Snapshot struct {
	Authenticated        bool
	StaffActive          bool
	BusinessActive       bool
	Role                 enums.StaffRole
	MustChangeCredential bool
	BranchActive         bool
}

// Event is something that moves a session between states.
type Event string

const (
	EventLogin             Event = "login"
	EventCredentialChanged Event = "credential_changed"
	EventBranchDeactivated Event = "branch_deactivated"
	EventBranchReactivated Event = "branch_reactivated"
	EventLogout            Event = "logout"
)

// StateFor derives the session state from a snapshot. Owners are never
// gated on branch status, and a closed branch outranks a pending credential
// change.
func StateFor(s Snapshot) enums.SessionState {
	if !s.Authenticated || !s.StaffActive || !s.BusinessActive || !s.Role.IsValid() {
		return enums.SessionStateUnauthenticated
	}
	if s.Role != enums.StaffRoleOwner && !s.BranchActive {
		return enums.SessionStateBranchClosedBlocked
	}
	if s.MustChangeCredential {
		return enums.SessionStatePendingCredentialChange
	}
	return enums.SessionStateActive
}

// Transition applies an event to a state. Pairs missing from the table are
// rejected with STATE_CONFLICT.
func Transition(from enums.SessionState, event Event, s Snapshot) (enums.SessionState, error) {
	if event == EventLogout {
		return enums.SessionStateUnauthenticated, nil
	}

	switch from {
	case enums.SessionStateUnauthenticated:
		if event == EventLogin {
			s.Authenticated = true
			next := StateFor(s)
			if next != enums.SessionStateUnauthenticated {
				return next, nil
			}
		}
	case enums.SessionStatePendingCredentialChange:
		switch event {
		case EventCredentialChanged:
			return enums.SessionStateActive, nil
		case EventBranchDeactivated:
			if s.Role != enums.StaffRoleOwner {
				return enums.SessionStateBranchClosedBlocked, nil
			}
			return from, nil
		}
	case enums.SessionStateActive:
		if event == EventBranchDeactivated {
			if s.Role != enums.StaffRoleOwner {
				return enums.SessionStateBranchClosedBlocked, nil
			}
			return from, nil
		}
	case enums.SessionStateBranchClosedBlocked:
		if event == EventBranchReactivated {
			if s.MustChangeCredential {
				return enums.SessionStatePendingCredentialChange, nil
			}
			return enums.SessionStateActive, nil
		}
	}
	return from, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("no transition from %s on %s", from, event))
}
