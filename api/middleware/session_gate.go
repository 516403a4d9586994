package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/tillcore-backend/api/responses"
	"github.com/angelmondragon/tillcore-backend/internal/sessiongate"
	"github.com/angelmondragon/tillcore-backend/internal/tenants"
	pkgerrors "github.com/angelmondragon/tillcore-backend/pkg/errors"
	"github.com/angelmondragon/tillcore-backend/pkg/logger"
)

type snapshotResolver interface {
	Resolve(ctx context.Context, staffID uuid.UUID) (sessiongate.Snapshot, *tenants.Identity, error)
}

// SessionGate re-resolves the caller on every request and asks the gate
// whether the caller may use a surface that stands for route. Refusals are
// SESSION_REDIRECT with the state and the path the client must go to.
func SessionGate(resolver snapshotResolver, gate *sessiongate.Gate, route string, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			staffID := StaffIDFromContext(ctx)
			if staffID == uuid.Nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
				return
			}

			snapshot, identity, err := resolver.Resolve(ctx, staffID)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Passthrough(err, pkgerrors.CodeDependency, "resolve session"))
				return
			}

			decision := gate.Decide(snapshot, route)
			if !decision.Allow {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeSessionRedirect, "session requires redirect").
					WithDetails(map[string]any{
						"state":    decision.State,
						"redirect": decision.Redirect,
					}))
				return
			}

			ctx = WithIdentity(ctx, identity, decision.State)
			if logg != nil && identity != nil {
				fields := map[string]any{
					"business_id":   identity.Actor.BusinessID.String(),
					"actor_role":    string(identity.Actor.Role),
					"session_state": string(decision.State),
				}
				if identity.Actor.BranchID != nil {
					fields["branch_id"] = identity.Actor.BranchID.String()
				}
				ctx = logg.WithFields(ctx, fields)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
