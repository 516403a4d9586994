package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/tillcore-backend/internal/tenants"
	"github.com/angelmondragon/tillcore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tillcore-backend/pkg/errors"
	"github.com/angelmondragon/tillcore-backend/pkg/visibility"
)

type contextKey string

const (
	ctxStaffID  contextKey = "staff_id"
	ctxAccessID contextKey = "access_id"
	ctxRawToken contextKey = "raw_token"
	ctxIdentity contextKey = "identity"
	ctxState    contextKey = "session_state"
)

func StaffIDFromContext(ctx context.Context) uuid.UUID {
	if ctx == nil {
		return uuid.Nil
	}
	if v, ok := ctx.Value(ctxStaffID).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

// AccessIDFromContext returns the jti of the bearer token.
func AccessIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAccessID).(string); ok {
		return v
	}
	return ""
}

func RawTokenFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRawToken).(string); ok {
		return v
	}
	return ""
}

// IdentityFromContext returns the identity resolved by SessionGate.
func IdentityFromContext(ctx context.Context) *tenants.Identity {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxIdentity).(*tenants.Identity); ok {
		return v
	}
	return nil
}

// RequireActor returns the resolved actor or UNAUTHORIZED.
func RequireActor(ctx context.Context) (visibility.Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return visibility.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return actor, nil
}

// ActorFromContext returns the freshly resolved actor; ok is false when
// SessionGate has not run for the request.
func ActorFromContext(ctx context.Context) (visibility.Actor, bool) {
	identity := IdentityFromContext(ctx)
	if identity == nil {
		return visibility.Actor{}, false
	}
	return identity.Actor, true
}

func SessionStateFromContext(ctx context.Context) enums.SessionState {
	if ctx == nil {
		return enums.SessionStateUnauthenticated
	}
	if v, ok := ctx.Value(ctxState).(enums.SessionState); ok {
		return v
	}
	return enums.SessionStateUnauthenticated
}

// WithStaffID injects the authenticated staff id.
func WithStaffID(ctx context.Context, staffID uuid.UUID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxStaffID, staffID)
}

// WithIdentity injects a resolved identity and its gate state.
func WithIdentity(ctx context.Context, identity *tenants.Identity, state enums.SessionState) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxIdentity, identity)
	return context.WithValue(ctx, ctxState, state)
}
