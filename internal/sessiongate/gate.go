package sessiongate

import (
	"path"
	"strings"

	"github.com/angelmondragon/tillcore-backend/pkg/config"
	"github.com/angelmondragon/tillcore-backend/pkg/enums"
)

// Routes are the client paths the gate allows or redirects to.
type Routes struct {
	Login            string
	ChangeCredential string
	BranchClosed     string
	Home             string
	Logout           string
	Exit             string
	Public           []string
}

// RoutesFromConfig builds the route table from the session config.
func RoutesFromConfig(cfg config.SessionConfig) Routes {
	return Routes{
		Login:            cleanPath(cfg.LoginPath),
		ChangeCredential: cleanPath(cfg.ChangeCredentialPath),
		BranchClosed:     cleanPath(cfg.BranchClosedPath),
		Home:             cleanPath(cfg.HomePath),
		Logout:           cleanPath(cfg.LogoutPath),
		Exit:             cleanPath(cfg.ExitPath),
		Public:           cleanPaths(cfg.PublicPaths),
	}
}

// Decision is the gate's answer for one navigation.
type Decision struct {
	Allow    bool               `json:"allow"`
	Redirect string             `json:"redirect,omitempty"`
	State    enums.SessionState `json:"state"`
}

type Gate struct {
	routes Routes
}

func NewGate(routes Routes) *Gate {
	return &Gate{routes: routes}
}

func (g *Gate) Routes() Routes {
	return g.routes
}

// Target is the canonical landing path for a state.
func (g *Gate) Target(state enums.SessionState) string {
	switch state {
	case enums.SessionStateActive:
		return g.routes.Home
	case enums.SessionStatePendingCredentialChange:
		return g.routes.ChangeCredential
	case enums.SessionStateBranchClosedBlocked:
		return g.routes.BranchClosed
	default:
		return g.routes.Login
	}
}

// Decide returns whether the snapshot may visit target, or where it must go
// instead.
func (g *Gate) Decide(s Snapshot, target string) Decision {
	state := StateFor(s)
	target = cleanPath(target)

	var allowed bool
	switch state {
	case enums.SessionStateUnauthenticated:
		allowed = g.matches(target, g.routes.Login) || g.public(target)
	case enums.SessionStatePendingCredentialChange:
		allowed = g.matches(target, g.routes.ChangeCredential) || g.exits(target)
	case enums.SessionStateBranchClosedBlocked:
		allowed = g.matches(target, g.routes.BranchClosed) || g.exits(target)
	case enums.SessionStateActive:
		allowed = !g.matches(target, g.routes.Login) && !g.matches(target, g.routes.BranchClosed)
	}

	if allowed {
		return Decision{Allow: true, State: state}
	}
	return Decision{Redirect: g.Target(state), State: state}
}

func (g *Gate) exits(target string) bool {
	return g.matches(target, g.routes.Logout) || g.matches(target, g.routes.Exit)
}

func (g *Gate) public(target string) bool {
	for _, p := range g.routes.Public {
		if g.matches(target, p) {
			return true
		}
	}
	return false
}

func (g *Gate) matches(target, route string) bool {
	if route == "" {
		return false
	}
	if target == route {
		return true
	}
	return route != "/" && strings.HasPrefix(target, route+"/")
}

func cleanPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

func cleanPaths(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if cleaned := cleanPath(p); cleaned != "" {
			out = append(out, cleaned)
		}
	}
	return out
}
