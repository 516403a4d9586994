package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/tillcore-backend/api/middleware"
	"github.com/angelmondragon/tillcore-backend/api/responses"
	"github.com/angelmondragon/tillcore-backend/api/validators"
	"github.com/angelmondragon/tillcore-backend/internal/auth"
	"github.com/angelmondragon/tillcore-backend/internal/sessiongate"
	"github.com/angelmondragon/tillcore-backend/internal/tenants"
	"github.com/angelmondragon/tillcore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tillcore-backend/pkg/errors"
	"github.com/angelmondragon/tillcore-backend/pkg/logger"
)

type sessionResolver interface {
	Resolve(ctx context.Context, staffID uuid.UUID) (sessiongate.Snapshot, *tenants.Identity, error)
}

type sessionView struct {
	State    enums.SessionState `json:"state"`
	Redirect string             `json:"redirect"`
	Profile  *auth.Profile      `json:"profile,omitempty"`
}

type navigateRequest struct {
	Path string `json:"path" validate:"required,max=512"`
}

// SessionCurrent reports the caller's gate state and landing path.
func SessionCurrent(resolver sessionResolver, gate *sessiongate.Gate, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		snapshot, identity, err := resolver.Resolve(ctx, middleware.StaffIDFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Passthrough(err, pkgerrors.CodeDependency, "resolve session"))
			return
		}
		state := sessiongate.StateFor(snapshot)
		view := sessionView{State: state, Redirect: gate.Target(state)}
		if identity != nil && state != enums.SessionStateUnauthenticated {
			profile := auth.ProfileFromIdentity(identity)
			view.Profile = &profile
		}
		responses.WriteSuccess(w, view)
	}
}

// SessionNavigate answers whether the caller may open a client path.
func SessionNavigate(resolver sessionResolver, gate *sessiongate.Gate, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var body navigateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		snapshot, _, err := resolver.Resolve(ctx, middleware.StaffIDFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Passthrough(err, pkgerrors.CodeDependency, "resolve session"))
			return
		}
		responses.WriteSuccess(w, gate.Decide(snapshot, body.Path))
	}
}
