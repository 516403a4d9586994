package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/tillcore-backend/api/middleware"
	"github.com/angelmondragon/tillcore-backend/api/responses"
	"github.com/angelmondragon/tillcore-backend/api/validators"
	"github.com/angelmondragon/tillcore-backend/internal/tenants"
	"github.com/angelmondragon/tillcore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tillcore-backend/pkg/errors"
	"github.com/angelmondragon/tillcore-backend/pkg/logger"
)

type updateBusinessRequest struct {
	BusinessID uuid.UUID `json:"business_id" validate:"required"`
	Name       *string   `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Currency   *string   `json:"currency,omitempty" validate:"omitempty,len=3"`
	TaxRateBps *int      `json:"tax_rate_bps,omitempty" validate:"omitempty,min=0,max=10000"`
	Timezone   *string   `json:"timezone,omitempty" validate:"omitempty,max=64"`
}

type createBranchRequest struct {
	BusinessID uuid.UUID `json:"business_id" validate:"required"`
	Name       string    `json:"name" validate:"required,max=200"`
	Address    *string   `json:"address,omitempty" validate:"omitempty,max=500"`
}

type branchStatusRequest struct {
	BusinessID uuid.UUID `json:"business_id" validate:"required"`
	Status     string    `json:"status" validate:"required"`
}

type inviteStaffRequest struct {
	BusinessID  uuid.UUID  `json:"business_id" validate:"required"`
	Email       string     `json:"email" validate:"required,email,max=254"`
	DisplayName string     `json:"display_name" validate:"required,max=120"`
	Role        string     `json:"role" validate:"required"`
	BranchID    *uuid.UUID `json:"branch_id,omitempty"`
}

type updateStaffRequest struct {
	BusinessID  uuid.UUID  `json:"business_id" validate:"required"`
	DisplayName *string    `json:"display_name,omitempty" validate:"omitempty,min=1,max=120"`
	Role        *string    `json:"role,omitempty"`
	BranchID    *uuid.UUID `json:"branch_id,omitempty"`
}

type businessTargetRequest struct {
	BusinessID uuid.UUID `json:"business_id" validate:"required"`
}

func BusinessGet(svc tenants.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actor, err := middleware.RequireActor(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		dto, err := svc.GetBusiness(ctx, actor)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// BusinessUpdate edits owner-level settings such as currency and tax rate.
func BusinessUpdate(svc tenants.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actor, err := middleware.RequireActor(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var body updateBusinessRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		dto, err := svc.UpdateBusiness(ctx, actor, tenants.UpdateBusinessInput{
			BusinessID: body.BusinessID,
			Name:       trimmedPtr(body.Name),
			Currency:   trimmedPtr(body.Currency),
			TaxRateBps: body.TaxRateBps,
			Timezone:   trimmedPtr(body.Timezone),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func BranchList(svc tenants.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actor, err := middleware.RequireActor(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		branches, err := svc.ListBranches(ctx, actor)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, branches)
	}
}

func BranchCreate(svc tenants.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actor, err := middleware.RequireActor(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var body createBranchRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		dto, err := svc.CreateBranch(ctx, actor, tenants.CreateBranchInput{
			BusinessID: body.BusinessID,
			Name:       validators.SanitizeString(body.Name, 200),
			Address:    validators.SanitizeOptional(body.Address, 500),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

// BranchSetStatus opens or closes a branch. A closed branch locks out its
// non-owner staff.
func BranchSetStatus(svc tenants.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actor, err := middleware.RequireActor(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		branchID, err := validators.ParsePathUUID(r, "branchID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var body branchStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		status, err := enums.ParseBranchStatus(body.Status)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid branch status"))
			return
		}
		dto, err := svc.SetBranchStatus(ctx, actor, tenants.SetBranchStatusInput{
			BusinessID: body.BusinessID,
			BranchID:   branchID,
			Status:     status,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func StaffList(svc tenants.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actor, err := middleware.RequireActor(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		staff, err := svc.ListStaff(ctx, actor)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, staff)
	}
}

// StaffInvite adds a staff member and returns their one-time credential.
func StaffInvite(svc tenants.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actor, err := middleware.RequireActor(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var body inviteStaffRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		role, err := enums.ParseStaffRole(body.Role)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role"))
			return
		}
		result, err := svc.InviteStaff(ctx, actor, tenants.InviteStaffInput{
			BusinessID:  body.BusinessID,
			Email:       validators.SanitizeString(body.Email, 254),
			DisplayName: validators.SanitizeString(body.DisplayName, 120),
			Role:        role,
			BranchID:    body.BranchID,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func StaffUpdate(svc tenants.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actor, err := middleware.RequireActor(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		staffID, err := validators.ParsePathUUID(r, "staffID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var body updateStaffRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		input := tenants.UpdateStaffInput{
			BusinessID:  body.BusinessID,
			StaffID:     staffID,
			DisplayName: trimmedPtr(body.DisplayName),
			BranchID:    body.BranchID,
		}
		if body.Role != nil {
			role, err := enums.ParseStaffRole(*body.Role)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role"))
				return
			}
			input.Role = &role
		}
		dto, err := svc.UpdateStaff(ctx, actor, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func StaffDeactivate(svc tenants.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actor, err := middleware.RequireActor(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		staffID, err := validators.ParsePathUUID(r, "staffID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var body businessTargetRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		dto, err := svc.DeactivateStaff(ctx, actor, body.BusinessID, staffID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}
