package enums

import "fmt"

type StaffStatus string

const (
	StaffStatusActive      StaffStatus = "active"
	StaffStatusDeactivated StaffStatus = "deactivated"
)

var validStaffStatuses = []StaffStatus{
	StaffStatusActive,
	StaffStatusDeactivated,
}

// String implements fmt.Stringer.
func (s StaffStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s StaffStatus) IsValid() bool {
	for _, candidate := range validStaffStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseStaffStatus converts raw input into a StaffStatus.
func ParseStaffStatus(value string) (StaffStatus, error) {
	for _, candidate := range validStaffStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid staff status %q", value)
}
