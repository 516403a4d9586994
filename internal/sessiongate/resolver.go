package sessiongate

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/tillcore-backend/internal/tenants"
	pkgerrors "github.com/angelmondragon/tillcore-backend/pkg/errors"
)

type identitySource interface {
	Identity(ctx context.Context, staffID uuid.UUID) (*tenants.Identity, error)
}

// Resolver loads a fresh snapshot for an authenticated staff id.
type Resolver struct {
	source identitySource
}

func NewResolver(source identitySource) (*Resolver, error) {
	if source == nil {
		return nil, fmt.Errorf("identity source required")
	}
	return &Resolver{source: source}, nil
}

// Resolve returns the identity together with its snapshot. A staff id that
// no longer resolves yields an unauthenticated snapshot and a nil identity.
func (r *Resolver) Resolve(ctx context.Context, staffID uuid.UUID) (Snapshot, *tenants.Identity, error) {
	identity, err := r.source.Identity(ctx, staffID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) || pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
			return Snapshot{}, nil, nil
		}
		return Snapshot{}, nil, err
	}
	return SnapshotFromIdentity(identity), identity, nil
}

func (r *Resolver) Snapshot(ctx context.Context, staffID uuid.UUID) (Snapshot, error) {
	snapshot, _, err := r.Resolve(ctx, staffID)
	return snapshot, err
}

func SnapshotFromIdentity(identity *tenants.Identity) Snapshot {
	if identity == nil {
		return Snapshot{}
	}
	return Snapshot{
		Authenticated:        true,
		StaffActive:          identity.StaffActive,
		BusinessActive:       identity.BusinessActive,
		Role:                 identity.Actor.Role,
		MustChangeCredential: identity.MustChangeCredential,
		BranchActive:         identity.BranchActive,
	}
}
