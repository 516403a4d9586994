package product

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/tillcore-backend/pkg/db/models"
	"github.com/angelmondragon/tillcore-backend/pkg/enums"
	"github.com/angelmondragon/tillcore-backend/pkg/pagination"
	"github.com/angelmondragon/tillcore-backend/pkg/visibility"
)

// PriceInput is one entry of a product's price list.
type PriceInput struct {
	Label      string `json:"label" validate:"required"`
	PriceCents int64  `json:"price_cents" validate:"min=0"`
	IsDefault  bool   `json:"is_default"`
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	BusinessID    uuid.UUID
	BranchID      uuid.UUID
	Name          string
	Category      string
	SKU           *string
	UnitCostCents int64
	InitialStock  int64
	Prices        []PriceInput
}

// UpdateProductInput holds optional mutation values. Prices, when set,
// replaces the whole list. Stock is never touched here.
type UpdateProductInput struct {
	BusinessID    uuid.UUID
	ProductID     uuid.UUID
	Name          *string
	Category      *string
	SKU           *string
	UnitCostCents *int64
	IsActive      *bool
	Prices        *[]PriceInput
}

type RestockProductInput struct {
	BusinessID uuid.UUID
	ProductID  uuid.UUID
	Quantity   int64
}

// ListProductsInput captures the browse filters of the catalog.
type ListProductsInput struct {
	Filter          visibility.Filter
	Category        string
	Query           string
	IncludeArchived bool
	Pagination      pagination.Params
}

type PriceDTO struct {
	ID         uuid.UUID `json:"id"`
	Label      string    `json:"label"`
	PriceCents int64     `json:"price_cents"`
	IsDefault  bool      `json:"is_default"`
}

// ProductDTO is the API representation of a product.
type ProductDTO struct {
	ID            uuid.UUID  `json:"id"`
	BusinessID    uuid.UUID  `json:"business_id"`
	BranchID      uuid.UUID  `json:"branch_id"`
	Name          string     `json:"name"`
	Category      string     `json:"category"`
	SKU           *string    `json:"sku,omitempty"`
	UnitCostCents int64      `json:"unit_cost_cents"`
	StockQty      int64      `json:"stock_qty"`
	IsActive      bool       `json:"is_active"`
	Prices        []PriceDTO `json:"prices"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type MovementDTO struct {
	ID        uuid.UUID                 `json:"id"`
	Delta     int64                     `json:"delta"`
	Reason    enums.StockMovementReason `json:"reason"`
	ActorID   uuid.UUID                 `json:"actor_id"`
	CreatedAt time.Time                 `json:"created_at"`
}

type RestockResult struct {
	ProductID uuid.UUID `json:"product_id"`
	StockQty  int64     `json:"stock_qty"`
}

func FromModel(p *models.Product) ProductDTO {
	dto := ProductDTO{
		ID:            p.ID,
		BusinessID:    p.BusinessID,
		BranchID:      p.BranchID,
		Name:          p.Name,
		Category:      p.Category,
		SKU:           p.SKU,
		UnitCostCents: p.UnitCostCents,
		StockQty:      p.StockQty,
		IsActive:      p.IsActive,
		Prices:        make([]PriceDTO, 0, len(p.Prices)),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	for _, price := range p.Prices {
		dto.Prices = append(dto.Prices, PriceDTO{
			ID:         price.ID,
			Label:      price.Label,
			PriceCents: price.PriceCents,
			IsDefault:  price.IsDefault,
		})
	}
	return dto
}

func movementFromModel(m models.StockMovement) MovementDTO {
	return MovementDTO{ID: m.ID, Delta: m.Delta, Reason: m.Reason, ActorID: m.ActorID, CreatedAt: m.CreatedAt}
}
