package enums

import "fmt"

// SessionState is the navigation state of a staff session.
type SessionState string

const (
	SessionStateUnauthenticated         SessionState = "unauthenticated"
	SessionStatePendingCredentialChange SessionState = "pending_credential_change"
	SessionStateActive                  SessionState = "active"
	SessionStateBranchClosedBlocked     SessionState = "branch_closed_blocked"
)

var validSessionStates = []SessionState{
	SessionStateUnauthenticated,
	SessionStatePendingCredentialChange,
	SessionStateActive,
	SessionStateBranchClosedBlocked,
}

// String implements fmt.Stringer.
func (s SessionState) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s SessionState) IsValid() bool {
	for _, candidate := range validSessionStates {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSessionState converts raw input into a SessionState.
func ParseSessionState(value string) (SessionState, error) {
	for _, candidate := range validSessionStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid session state %q", value)
}
