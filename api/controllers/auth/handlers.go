package auth

import (
	"net/http"

	"github.com/angelmondragon/tillcore-backend/api/middleware"
	"github.com/angelmondragon/tillcore-backend/api/responses"
	"github.com/angelmondragon/tillcore-backend/api/validators"
	"github.com/angelmondragon/tillcore-backend/internal/auth"
	"github.com/angelmondragon/tillcore-backend/internal/tenants"
	pkgerrors "github.com/angelmondragon/tillcore-backend/pkg/errors"
	"github.com/angelmondragon/tillcore-backend/pkg/logger"
)

// TokenHeader mirrors the freshly minted access token for clients that
// prefer headers over the body.
const TokenHeader = "X-Tillcore-Token"

type registerRequest struct {
	BusinessName  string  `json:"business_name" validate:"required,max=200"`
	OwnerName     string  `json:"owner_name" validate:"required,max=120"`
	Email         string  `json:"email" validate:"required,email,max=254"`
	Credential    string  `json:"credential" validate:"required"`
	BranchName    string  `json:"branch_name" validate:"omitempty,max=200"`
	BranchAddress *string `json:"branch_address,omitempty" validate:"omitempty,max=500"`
	Currency      string  `json:"currency" validate:"omitempty,len=3"`
	Timezone      string  `json:"timezone" validate:"omitempty,max=64"`
	TaxRateBps    *int    `json:"tax_rate_bps,omitempty" validate:"omitempty,min=0,max=10000"`
}

// AuthLogin wires the login endpoint into the HTTP layer.
func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		body.Email = validators.SanitizeString(body.Email, 254)

		result, err := svc.Login(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set(TokenHeader, result.AccessToken)
		responses.WriteSuccess(w, result)
	}
}

// AuthRegister creates a business with its owner and first branch, then
// signs the owner in.
func AuthRegister(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body registerRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Register(r.Context(), tenants.RegisterRequest{
			BusinessName:  validators.SanitizeString(body.BusinessName, 200),
			OwnerName:     validators.SanitizeString(body.OwnerName, 120),
			Email:         validators.SanitizeString(body.Email, 254),
			Credential:    body.Credential,
			BranchName:    validators.SanitizeString(body.BranchName, 200),
			BranchAddress: validators.SanitizeOptional(body.BranchAddress, 500),
			Currency:      validators.SanitizeString(body.Currency, 3),
			Timezone:      validators.SanitizeString(body.Timezone, 64),
			TaxRateBps:    body.TaxRateBps,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set(TokenHeader, result.Session.AccessToken)
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// AuthRefresh rotates the refresh token bound to the presented access token.
// The access token may already be expired.
func AuthRefresh(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := middleware.BearerToken(r)
		if token == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		var body auth.RefreshRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		body.AccessToken = token

		result, err := svc.Refresh(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set(TokenHeader, result.AccessToken)
		responses.WriteSuccess(w, result)
	}
}

func AuthLogout(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accessID := middleware.AccessIDFromContext(r.Context())
		if accessID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session"))
			return
		}
		if err := svc.Logout(r.Context(), accessID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}

// AuthChangeCredential replaces the caller's credential and clears a
// pending forced change.
func AuthChangeCredential(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var body auth.ChangeCredentialRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		result, err := svc.ChangeCredential(ctx, middleware.StaffIDFromContext(ctx), body)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
