package tenants

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/tillcore-backend/pkg/db/models"
	"github.com/angelmondragon/tillcore-backend/pkg/enums"
	"github.com/angelmondragon/tillcore-backend/pkg/visibility"
)

// BusinessDTO exposes tenant settings in API responses.
type BusinessDTO struct {
	ID                 uuid.UUID                `json:"id"`
	Name               string                   `json:"name"`
	OwnerID            *uuid.UUID               `json:"owner_id,omitempty"`
	Currency           enums.Currency           `json:"currency"`
	TaxRateBps         int                      `json:"tax_rate_bps"`
	Timezone           string                   `json:"timezone"`
	SubscriptionPlan   enums.SubscriptionPlan   `json:"subscription_plan"`
	SubscriptionStatus enums.SubscriptionStatus `json:"subscription_status"`
	TrialEndsAt        *time.Time               `json:"trial_ends_at,omitempty"`
	MaxBranches        int                      `json:"max_branches"`
	MaxStaff           int                      `json:"max_staff"`
	CreatedAt          time.Time                `json:"created_at"`
}

// BranchDTO exposes a branch in API responses.
type BranchDTO struct {
	ID            uuid.UUID          `json:"id"`
	BusinessID    uuid.UUID          `json:"business_id"`
	Name          string             `json:"name"`
	Address       *string            `json:"address,omitempty"`
	Status        enums.BranchStatus `json:"status"`
	DeactivatedAt *time.Time         `json:"deactivated_at,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
}

// StaffDTO never carries the credential hash.
type StaffDTO struct {
	ID                   uuid.UUID         `json:"id"`
	BusinessID           uuid.UUID         `json:"business_id"`
	BranchID             *uuid.UUID        `json:"branch_id,omitempty"`
	Email                string            `json:"email"`
	DisplayName          string            `json:"display_name"`
	Role                 enums.StaffRole   `json:"role"`
	Status               enums.StaffStatus `json:"status"`
	MustChangeCredential bool              `json:"must_change_credential"`
	LastLoginAt          *time.Time        `json:"last_login_at,omitempty"`
	CreatedAt            time.Time         `json:"created_at"`
}

// RegisterRequest captures the public sign-up payload.
type RegisterRequest struct {
	BusinessName  string
	OwnerName     string
	Email         string
	Credential    string
	BranchName    string
	BranchAddress *string
	Currency      string
	Timezone      string
	TaxRateBps    *int
}

// RegisterResult is the tenant created by Register.
type RegisterResult struct {
	Business BusinessDTO `json:"business"`
	Owner    StaffDTO    `json:"owner"`
	Branch   BranchDTO   `json:"branch"`
}

// UpdateBusinessInput carries owner-editable settings. Nil fields are untouched.
type UpdateBusinessInput struct {
	BusinessID uuid.UUID
	Name       *string
	Currency   *string
	TaxRateBps *int
	Timezone   *string
}

type CreateBranchInput struct {
	BusinessID uuid.UUID
	Name       string
	Address    *string
}

type SetBranchStatusInput struct {
	BusinessID uuid.UUID
	BranchID   uuid.UUID
	Status     enums.BranchStatus
}

// InviteStaffInput captures the data required to add a staff member.
type InviteStaffInput struct {
	BusinessID  uuid.UUID
	Email       string
	DisplayName string
	Role        enums.StaffRole
	BranchID    *uuid.UUID
}

// InviteStaffResult carries the one-time temporary credential.
type InviteStaffResult struct {
	Staff          StaffDTO `json:"staff"`
	TempCredential string   `json:"temp_credential"`
}

// UpdateStaffInput reassigns role, branch or display name in place.
type UpdateStaffInput struct {
	BusinessID  uuid.UUID
	StaffID     uuid.UUID
	DisplayName *string
	Role        *enums.StaffRole
	BranchID    *uuid.UUID
}

// Identity is the fresh view of a staff member used for authorization and
// session gating.
type Identity struct {
	Actor                visibility.Actor
	Email                string
	DisplayName          string
	StaffActive          bool
	BusinessActive       bool
	MustChangeCredential bool
	BranchID             *uuid.UUID
	BranchActive         bool
	Timezone             string
	Currency             enums.Currency
	TaxRateBps           int
}

func BusinessFromModel(m *models.Business) BusinessDTO {
	return BusinessDTO{
		ID:                 m.ID,
		Name:               m.Name,
		OwnerID:            m.OwnerID,
		Currency:           m.Currency,
		TaxRateBps:         m.TaxRateBps,
		Timezone:           m.Timezone,
		SubscriptionPlan:   m.SubscriptionPlan,
		SubscriptionStatus: m.SubscriptionStatus,
		TrialEndsAt:        m.TrialEndsAt,
		MaxBranches:        m.MaxBranches,
		MaxStaff:           m.MaxStaff,
		CreatedAt:          m.CreatedAt,
	}
}

func BranchFromModel(m *models.Branch) BranchDTO {
	return BranchDTO{
		ID:            m.ID,
		BusinessID:    m.BusinessID,
		Name:          m.Name,
		Address:       m.Address,
		Status:        m.Status,
		DeactivatedAt: m.DeactivatedAt,
		CreatedAt:     m.CreatedAt,
	}
}

func StaffFromModel(m *models.StaffMember) StaffDTO {
	return StaffDTO{
		ID:                   m.ID,
		BusinessID:           m.BusinessID,
		BranchID:             m.BranchID,
		Email:                m.Email,
		DisplayName:          m.DisplayName,
		Role:                 m.Role,
		Status:               m.Status,
		MustChangeCredential: m.MustChangeCredential,
		LastLoginAt:          m.LastLoginAt,
		CreatedAt:            m.CreatedAt,
	}
}
