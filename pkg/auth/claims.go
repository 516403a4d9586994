package auth

import (
	"github.com/angelmondragon/tillcore-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	StaffID    uuid.UUID
	BusinessID uuid.UUID
	BranchID   *uuid.UUID
	Role       enums.StaffRole
	JTI        string
}

// AccessTokenClaims represents the typed JWT issued to clients. The claims are
// only a hint of who is calling; tenant, branch and role are re-resolved from
// storage on every request.
type AccessTokenClaims struct {
	StaffID    uuid.UUID       `json:"staff_id"`
	BusinessID uuid.UUID       `json:"business_id"`
	BranchID   *uuid.UUID      `json:"branch_id,omitempty"`
	Role       enums.StaffRole `json:"role"`
	jwt.RegisteredClaims
}
