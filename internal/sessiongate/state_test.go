package sessiongate

import (
	"testing"

	"github.com/angelmondragon/tillcore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tillcore-backend/pkg/errors"
)

func live(role enums.StaffRole) Snapshot {
	return Snapshot{Authenticated: true, StaffActive: true, BusinessActive: true, Role: role, BranchActive: true}
}

func TestStateFor(t *testing.T) {
	closedPending := live(enums.StaffRoleCashier)
	closedPending.BranchActive = false
	closedPending.MustChangeCredential = true

	closedOwner := live(enums.StaffRoleOwner)
	closedOwner.BranchActive = false

	pending := live(enums.StaffRoleManager)
	pending.MustChangeCredential = true

	deactivated := live(enums.StaffRoleCashier)
	deactivated.StaffActive = false

	suspended := live(enums.StaffRoleOwner)
	suspended.BusinessActive = false

	cases := []struct {
		name string
		in   Snapshot
		want enums.SessionState
	}{
		{"anonymous", Snapshot{}, enums.SessionStateUnauthenticated},
		{"deactivated staff", deactivated, enums.SessionStateUnauthenticated},
		{"inactive business", suspended, enums.SessionStateUnauthenticated},
		{"unknown role", live(enums.StaffRole("janitor")), enums.SessionStateUnauthenticated},
		{"active cashier", live(enums.StaffRoleCashier), enums.SessionStateActive},
		{"pending manager", pending, enums.SessionStatePendingCredentialChange},
		{"closure beats pending", closedPending, enums.SessionStateBranchClosedBlocked},
		{"owner exempt from closure", closedOwner, enums.SessionStateActive},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StateFor(tc.in); got != tc.want {
				t.Fatalf("StateFor() = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestTransitionTable(t *testing.T) {
	pendingSnap := live(enums.StaffRoleCashier)
	pendingSnap.MustChangeCredential = true
	closedSnap := live(enums.StaffRoleStaff)
	closedSnap.BranchActive = false

	cases := []struct {
		name  string
		from  enums.SessionState
		event Event
		snap  Snapshot
		want  enums.SessionState
	}{
		{"login active", enums.SessionStateUnauthenticated, EventLogin, live(enums.StaffRoleCashier), enums.SessionStateActive},
		{"login pending", enums.SessionStateUnauthenticated, EventLogin, pendingSnap, enums.SessionStatePendingCredentialChange},
		{"login closed branch", enums.SessionStateUnauthenticated, EventLogin, closedSnap, enums.SessionStateBranchClosedBlocked},
		{"credential changed", enums.SessionStatePendingCredentialChange, EventCredentialChanged, pendingSnap, enums.SessionStateActive},
		{"branch deactivated", enums.SessionStateActive, EventBranchDeactivated, live(enums.StaffRoleManager), enums.SessionStateBranchClosedBlocked},
		{"owner keeps session", enums.SessionStateActive, EventBranchDeactivated, live(enums.StaffRoleOwner), enums.SessionStateActive},
		{"branch reactivated", enums.SessionStateBranchClosedBlocked, EventBranchReactivated, live(enums.StaffRoleStaff), enums.SessionStateActive},
		{"logout from blocked", enums.SessionStateBranchClosedBlocked, EventLogout, closedSnap, enums.SessionStateUnauthenticated},
		{"logout from active", enums.SessionStateActive, EventLogout, live(enums.StaffRoleOwner), enums.SessionStateUnauthenticated},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Transition(tc.from, tc.event, tc.snap)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("Transition() = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestTransitionRejectsUnlistedPairs(t *testing.T) {
	deactivated := live(enums.StaffRoleCashier)
	deactivated.StaffActive = false

	cases := []struct {
		from  enums.SessionState
		event Event
		snap  Snapshot
	}{
		{enums.SessionStateActive, EventLogin, live(enums.StaffRoleCashier)},
		{enums.SessionStateBranchClosedBlocked, EventCredentialChanged, live(enums.StaffRoleCashier)},
		{enums.SessionStateUnauthenticated, EventCredentialChanged, live(enums.StaffRoleCashier)},
		{enums.SessionStateUnauthenticated, EventLogin, deactivated},
	}
	for _, tc := range cases {
		got, err := Transition(tc.from, tc.event, tc.snap)
		if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
			t.Fatalf("%s on %s: expected state conflict, got %v", tc.from, tc.event, err)
		}
		if got != tc.from {
			t.Fatalf("rejected transition must keep state %s, got %s", tc.from, got)
		}
	}
}
