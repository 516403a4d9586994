package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/tillcore-backend/api/middleware"
	"github.com/angelmondragon/tillcore-backend/api/responses"
	"github.com/angelmondragon/tillcore-backend/api/validators"
	"github.com/angelmondragon/tillcore-backend/internal/checkout"
	pkgerrors "github.com/angelmondragon/tillcore-backend/pkg/errors"
	"github.com/angelmondragon/tillcore-backend/pkg/logger"
)

type checkoutLineRequest struct {
	ProductID      uuid.UUID `json:"product_id" validate:"required"`
	Quantity       int64     `json:"quantity" validate:"gt=0,lte=1000000"`
	UnitPriceCents *int64    `json:"unit_price_cents,omitempty" validate:"omitempty,gte=0"`
}

type checkoutRequest struct {
	BranchID    uuid.UUID             `json:"branch_id"`
	Lines       []checkoutLineRequest `json:"lines" validate:"required,min=1,max=200,dive"`
	CustomerRef *string               `json:"customer_ref,omitempty" validate:"omitempty,max=120"`
}

// Checkout records a sale. A pinned actor may omit branch_id.
func Checkout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actor, err := middleware.RequireActor(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var body checkoutRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		branchID := body.BranchID
		if branchID == uuid.Nil && actor.BranchID != nil {
			branchID = *actor.BranchID
		}
		if branchID == uuid.Nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "branch_id is required"))
			return
		}

		req := checkout.Request{
			BranchID:    branchID,
			Lines:       make([]checkout.LineRequest, 0, len(body.Lines)),
			CustomerRef: validators.SanitizeOptional(body.CustomerRef, 120),
		}
		for _, line := range body.Lines {
			req.Lines = append(req.Lines, checkout.LineRequest{
				ProductID:      line.ProductID,
				Quantity:       line.Quantity,
				UnitPriceCents: line.UnitPriceCents,
			})
		}

		sale, err := svc.Execute(ctx, actor, req)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, sale)
	}
}
