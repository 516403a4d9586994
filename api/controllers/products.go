package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/tillcore-backend/api/middleware"
	"github.com/angelmondragon/tillcore-backend/api/responses"
	"github.com/angelmondragon/tillcore-backend/api/validators"
	product "github.com/angelmondragon/tillcore-backend/internal/products"
	"github.com/angelmondragon/tillcore-backend/pkg/logger"
	"github.com/angelmondragon/tillcore-backend/pkg/pagination"
)

type createProductRequest struct {
	BusinessID    uuid.UUID            `json:"business_id" validate:"required"`
	BranchID      uuid.UUID            `json:"branch_id" validate:"required"`
	Name          string               `json:"name" validate:"required,max=200"`
	Category      string               `json:"category" validate:"required,max=100"`
	SKU           *string              `json:"sku,omitempty" validate:"omitempty,max=64"`
	UnitCostCents int64                `json:"unit_cost_cents" validate:"min=0"`
	InitialStock  int64                `json:"initial_stock" validate:"min=0,max=1000000"`
	Prices        []product.PriceInput `json:"prices" validate:"required,min=1,max=20,dive"`
}

type updateProductRequest struct {
	BusinessID    uuid.UUID             `json:"business_id" validate:"required"`
	Name          *string               `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Category      *string               `json:"category,omitempty" validate:"omitempty,min=1,max=100"`
	SKU           *string               `json:"sku,omitempty" validate:"omitempty,max=64"`
	UnitCostCents *int64                `json:"unit_cost_cents,omitempty" validate:"omitempty,min=0"`
	IsActive      *bool                 `json:"is_active,omitempty"`
	Prices        *[]product.PriceInput `json:"prices,omitempty" validate:"omitempty,min=1,max=20,dive"`
}

type restockRequest struct {
	BusinessID uuid.UUID `json:"business_id" validate:"required"`
	Quantity   int64     `json:"quantity" validate:"gt=0,lte=1000000"`
}

// ProductCreate adds a product to a branch catalog with its opening stock.
func ProductCreate(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actor, err := middleware.RequireActor(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var body createProductRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		dto, err := svc.CreateProduct(ctx, actor, product.CreateProductInput{
			BusinessID:    body.BusinessID,
			BranchID:      body.BranchID,
			Name:          validators.SanitizeString(body.Name, 200),
			Category:      validators.SanitizeString(body.Category, 100),
			SKU:           validators.SanitizeOptional(body.SKU, 64),
			UnitCostCents: body.UnitCostCents,
			InitialStock:  body.InitialStock,
			Prices:        body.Prices,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

func ProductUpdate(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actor, err := middleware.RequireActor(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		productID, err := validators.ParsePathUUID(r, "productID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var body updateProductRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input := product.UpdateProductInput{
			BusinessID:    body.BusinessID,
			ProductID:     productID,
			Name:          trimmedPtr(body.Name),
			Category:      trimmedPtr(body.Category),
			SKU:           body.SKU,
			UnitCostCents: body.UnitCostCents,
			IsActive:      body.IsActive,
			Prices:        body.Prices,
		}
		dto, err := svc.UpdateProduct(ctx, actor, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// ProductRestock adds received units to a product's stock.
func ProductRestock(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actor, err := middleware.RequireActor(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		productID, err := validators.ParsePathUUID(r, "productID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var body restockRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.RestockProduct(ctx, actor, product.RestockProductInput{
			BusinessID: body.BusinessID,
			ProductID:  productID,
			Quantity:   body.Quantity,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func ProductGet(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actor, err := middleware.RequireActor(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		productID, err := validators.ParsePathUUID(r, "productID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		dto, err := svc.GetProduct(ctx, actor, productID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// ProductList browses the catalog visible to the caller.
func ProductList(svc product.Service, logg *logger.Logger) http.HandlerFunc {
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
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		includeArchived, err := validators.ParseQueryBool(r, "include_archived")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		query := r.URL.Query()
		page, err := svc.ListProducts(ctx, actor, product.ListProductsInput{
			Filter:          filter,
			Category:        validators.SanitizeString(query.Get("category"), 100),
			Query:           validators.SanitizeString(query.Get("q"), 200),
			IncludeArchived: includeArchived,
			Pagination:      pagination.Params{Limit: limit, Cursor: query.Get("cursor")},
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WritePage(w, page.Items, page.NextCursor)
	}
}

// ProductMovements lists the most recent stock movements of a product.
func ProductMovements(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actor, err := middleware.RequireActor(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		productID, err := validators.ParsePathUUID(r, "productID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		movements, err := svc.ListMovements(ctx, actor, productID, limit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, movements)
	}
}

func trimmedPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	return &trimmed
}
