package enums

import "fmt"

// StaffRole is the permission role a staff member holds inside a business.
type StaffRole string

const (
	StaffRoleOwner      StaffRole = "owner"
	StaffRoleManager    StaffRole = "manager"
	StaffRoleAccountant StaffRole = "accountant"
	StaffRoleCashier    StaffRole = "cashier"
	StaffRoleStaff      StaffRole = "staff"
)

var validStaffRoles = []StaffRole{
	StaffRoleOwner,
	StaffRoleManager,
	StaffRoleAccountant,
	StaffRoleCashier,
	StaffRoleStaff,
}

// String implements fmt.Stringer.
func (r StaffRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known StaffRole.
func (r StaffRole) IsValid() bool {
	for _, candidate := range validStaffRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// PinnedToBranch reports whether the role only sees its assigned branch.
func (r StaffRole) PinnedToBranch() bool {
	switch r {
	case StaffRoleManager, StaffRoleCashier, StaffRoleStaff:
		return true
	default:
		return false
	}
}

// OwnRecordsOnly reports whether the role only sees records it created.
func (r StaffRole) OwnRecordsOnly() bool {
	return r == StaffRoleCashier || r == StaffRoleStaff
}

// CanSell reports whether the role may run checkout.
func (r StaffRole) CanSell() bool {
	switch r {
	case StaffRoleOwner, StaffRoleManager, StaffRoleCashier, StaffRoleStaff:
		return true
	default:
		return false
	}
}

// CanManageCatalog reports whether the role may create or edit products and restock.
func (r StaffRole) CanManageCatalog() bool {
	return r == StaffRoleOwner || r == StaffRoleManager
}

// CanManageStaff reports whether the role may invite or edit staff.
func (r StaffRole) CanManageStaff() bool {
	return r == StaffRoleOwner || r == StaffRoleManager
}

// ParseStaffRole converts raw input into a StaffRole.
func ParseStaffRole(value string) (StaffRole, error) {
	for _, candidate := range validStaffRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid staff role %q", value)
}
