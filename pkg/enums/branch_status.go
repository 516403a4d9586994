package enums

import "fmt"

// BranchStatus tracks whether a branch accepts writes and staff sessions.
type BranchStatus string

const (
	BranchStatusActive   BranchStatus = "active"
	BranchStatusInactive BranchStatus = "inactive"
)

var validBranchStatuses = []BranchStatus{
	BranchStatusActive,
	BranchStatusInactive,
}

// String implements fmt.Stringer.
func (s BranchStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s BranchStatus) IsValid() bool {
	for _, candidate := range validBranchStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseBranchStatus converts raw input into a BranchStatus.
func ParseBranchStatus(value string) (BranchStatus, error) {
	for _, candidate := range validBranchStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid branch status %q", value)
}
