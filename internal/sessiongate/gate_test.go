package sessiongate

import (
	"testing"

	"github.com/angelmondragon/tillcore-backend/pkg/config"
	"github.com/angelmondragon/tillcore-backend/pkg/enums"
)

func testGate() *Gate {
	return NewGate(RoutesFromConfig(config.SessionConfig{
		LoginPath:            "/login",
		ChangeCredentialPath: "change-password",
		BranchClosedPath:     "/branch-closed/",
		HomePath:             "/dashboard",
		LogoutPath:           "/logout",
		ExitPath:             "/exit",
		PublicPaths:          []string{"/register", " /health "},
	}))
}

func TestGateDecide(t *testing.T) {
	gate := testGate()

	pending := live(enums.StaffRoleCashier)
	pending.MustChangeCredential = true
	blocked := live(enums.StaffRoleCashier)
	blocked.BranchActive = false

	cases := []struct {
		name     string
		snap     Snapshot
		path     string
		allow    bool
		redirect string
	}{
		{"anonymous to login", Snapshot{}, "/login", true, ""},
		{"anonymous to public", Snapshot{}, "/register", true, ""},
		{"anonymous to app", Snapshot{}, "/dashboard", false, "/login"},
		{"pending to app", pending, "/products", false, "/change-password"},
		{"pending to change page", pending, "/change-password", true, ""},
		{"pending may log out", pending, "/logout", true, ""},
		{"blocked to app", blocked, "/sales/42", false, "/branch-closed"},
		{"blocked to public", blocked, "/register", false, "/branch-closed"},
		{"blocked to closed page", blocked, "/branch-closed", true, ""},
		{"blocked may log out", blocked, "/logout", true, ""},
		{"blocked may exit", blocked, "/exit?from=pos", true, ""},
		{"active to nested page", live(enums.StaffRoleManager), "/products/abc", true, ""},
		{"active to login", live(enums.StaffRoleManager), "/login", false, "/dashboard"},
		{"active to closed page", live(enums.StaffRoleManager), "/branch-closed", false, "/dashboard"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := gate.Decide(tc.snap, tc.path)
			if got.Allow != tc.allow || got.Redirect != tc.redirect {
				t.Fatalf("Decide(%q) = %+v, want allow=%v redirect=%q", tc.path, got, tc.allow, tc.redirect)
			}
			if got.State != StateFor(tc.snap) {
				t.Fatalf("decision state %s does not match %s", got.State, StateFor(tc.snap))
			}
		})
	}
}

func TestGateDoesNotMatchSiblingPrefixes(t *testing.T) {
	gate := testGate()
	if d := gate.Decide(Snapshot{}, "/login-help"); d.Allow {
		t.Fatalf("sibling of login route must not be allowed: %+v", d)
	}
}

func TestGateTarget(t *testing.T) {
	gate := testGate()
	want := map[enums.SessionState]string{
		enums.SessionStateUnauthenticated:         "/login",
		enums.SessionStatePendingCredentialChange: "/change-password",
		enums.SessionStateBranchClosedBlocked:     "/branch-closed",
		enums.SessionStateActive:                  "/dashboard",
	}
	for state, path := range want {
		if got := gate.Target(state); got != path {
			t.Fatalf("Target(%s) = %s, want %s", state, got, path)
		}
	}
}
