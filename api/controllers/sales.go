package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/tillcore-backend/api/middleware"
	"github.com/angelmondragon/tillcore-backend/api/responses"
	"github.com/angelmondragon/tillcore-backend/api/validators"
	"github.com/angelmondragon/tillcore-backend/internal/sales"
	pkgerrors "github.com/angelmondragon/tillcore-backend/pkg/errors"
	"github.com/angelmondragon/tillcore-backend/pkg/logger"
	"github.com/angelmondragon/tillcore-backend/pkg/pagination"
	"github.com/angelmondragon/tillcore-backend/pkg/visibility"
)

type saleReader interface {
	Get(ctx context.Context, actor visibility.Actor, saleID uuid.UUID) (*sales.SaleDTO, error)
	List(ctx context.Context, actor visibility.Actor, params sales.ListParams) (pagination.Page[sales.SaleDTO], error)
}

// SaleList pages through the caller's visible sales, newest first.
// from/to bound created_at as a half-open range.
func SaleList(reader saleReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actor, err := middleware.RequireActor(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		filter, err := validators.ParseFilter(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		from, err := validators.ParseQueryTime(r, "from")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		to, err := validators.ParseQueryTime(r, "to")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var rg sales.Range
		if from != nil {
			rg.From = *from
		}
		if to != nil {
			rg.To = *to
		}
		if from != nil && to != nil && !from.Before(*to) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "to must be after from"))
			return
		}

		page, err := reader.List(ctx, actor, sales.ListParams{
			Filter:     filter,
			Range:      rg,
			Pagination: pagination.Params{Limit: limit, Cursor: r.URL.Query().Get("cursor")},
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WritePage(w, page.Items, page.NextCursor)
	}
}

func SaleGet(reader saleReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actor, err := middleware.RequireActor(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		saleID, err := validators.ParsePathUUID(r, "saleID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		sale, err := reader.Get(ctx, actor, saleID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, sale)
	}
}
