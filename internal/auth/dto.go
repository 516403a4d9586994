package auth

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/tillcore-backend/internal/tenants"
	"github.com/angelmondragon/tillcore-backend/pkg/enums"
)

// LoginRequest captures the staff credentials sent to the login endpoint.
type LoginRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Credential string `json:"credential" validate:"required"`
}

// Profile is the staff identity returned with a session.
type Profile struct {
	StaffID     uuid.UUID       `json:"staff_id"`
	BusinessID  uuid.UUID       `json:"business_id"`
	BranchID    *uuid.UUID      `json:"branch_id,omitempty"`
	Role        enums.StaffRole `json:"role"`
	Email       string          `json:"email"`
	DisplayName string          `json:"display_name"`
	Currency    enums.Currency  `json:"currency"`
	Timezone    string          `json:"timezone"`
}

// LoginResponse contains the tokens and the gate state a session starts in.
type LoginResponse struct {
	AccessToken  string             `json:"access_token"`
	RefreshToken string             `json:"refresh_token"`
	ExpiresAt    time.Time          `json:"expires_at"`
	State        enums.SessionState `json:"state"`
	Redirect     string             `json:"redirect"`
	Profile      Profile            `json:"profile"`
}

type ChangeCredentialRequest struct {
	Current string `json:"current_credential" validate:"required"`
	New     string `json:"new_credential" validate:"required"`
}

type ChangeCredentialResponse struct {
	State    enums.SessionState `json:"state"`
	Redirect string             `json:"redirect"`
}

// RefreshRequest pairs the (possibly expired) access token with its refresh token.
type RefreshRequest struct {
	AccessToken  string `json:"-"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RegisterResponse is a freshly created tenant plus the owner's first session.
type RegisterResponse struct {
	Tenant  tenants.RegisterResult `json:"tenant"`
	Session LoginResponse          `json:"session"`
}

// ProfileFromIdentity projects a resolved identity into its public profile.
func ProfileFromIdentity(identity *tenants.Identity) Profile {
	return Profile{
		StaffID:     identity.Actor.StaffID,
		BusinessID:  identity.Actor.BusinessID,
		BranchID:    identity.Actor.BranchID,
		Role:        identity.Actor.Role,
		Email:       identity.Email,
		DisplayName: identity.DisplayName,
		Currency:    identity.Currency,
		Timezone:    identity.Timezone,
	}
}
