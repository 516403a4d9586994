package sales

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/tillcore-backend/pkg/db/models"
	"github.com/angelmondragon/tillcore-backend/pkg/pagination"
	"github.com/angelmondragon/tillcore-backend/pkg/visibility"
)

// LineInput is one priced line of a sale. A product may appear on several
// lines (different price labels); their quantities must add up to the
// deducted quantity.
type LineInput struct {
	ProductID      uuid.UUID
	Quantity       int64
	UnitPriceCents int64
}

type Totals struct {
	SubtotalCents int64
	TaxCents      int64
	TotalCents    int64
}

type RecordInput struct {
	BusinessID  uuid.UUID
	BranchID    uuid.UUID
	StaffID     uuid.UUID
	CustomerRef *string
	Currency    string
	Lines       []LineInput
	Totals      Totals
}

// Range is a half-open time window [From, To). A zero bound is open.
type Range struct {
	From time.Time
	To   time.Time
}

type ListParams struct {
	Filter     visibility.Filter
	Range      Range
	Pagination pagination.Params
}

type SaleLineDTO struct {
	Position       int       `json:"position"`
	ProductID      uuid.UUID `json:"product_id"`
	ProductName    string    `json:"product_name"`
	Category       string    `json:"category"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	Quantity       int64     `json:"quantity"`
	LineTotalCents int64     `json:"line_total_cents"`
}

type SaleDTO struct {
	ID            uuid.UUID     `json:"id"`
	BusinessID    uuid.UUID     `json:"business_id"`
	BranchID      uuid.UUID     `json:"branch_id"`
	StaffID       uuid.UUID     `json:"staff_id"`
	CustomerRef   *string       `json:"customer_ref,omitempty"`
	Currency      string        `json:"currency"`
	SubtotalCents int64         `json:"subtotal_cents"`
	TaxCents      int64         `json:"tax_cents"`
	TotalCents    int64         `json:"total_cents"`
	ItemCount     int64         `json:"item_count"`
	Lines         []SaleLineDTO `json:"lines"`
	CreatedAt     time.Time     `json:"created_at"`
}

// Summary aggregates a set of sales.
type Summary struct {
	Transactions int64 `json:"transactions"`
	RevenueCents int64 `json:"revenue_cents"`
	TaxCents     int64 `json:"tax_cents"`
	GrossCents   int64 `json:"gross_cents"`
	COGSCents    int64 `json:"cogs_cents"`
	ItemsSold    int64 `json:"items_sold"`
	ProfitCents  int64 `json:"gross_profit_cents"`
}

type BestSeller struct {
	ProductID    uuid.UUID `json:"product_id"`
	ProductName  string    `json:"product_name"`
	Category     string    `json:"category"`
	Quantity     int64     `json:"quantity"`
	RevenueCents int64     `json:"revenue_cents"`
}

// DailyPoint is one calendar day in the tenant timezone.
type DailyPoint struct {
	Date         string `json:"date"`
	RevenueCents int64  `json:"revenue_cents"`
	Transactions int64  `json:"transactions"`
}

func FromModel(m *models.Sale) SaleDTO {
	dto := SaleDTO{
		ID:            m.ID,
		BusinessID:    m.BusinessID,
		BranchID:      m.BranchID,
		StaffID:       m.StaffID,
		CustomerRef:   m.CustomerRef,
		Currency:      m.Currency,
		SubtotalCents: m.SubtotalCents,
		TaxCents:      m.TaxCents,
		TotalCents:    m.TotalCents,
		ItemCount:     m.ItemCount,
		Lines:         make([]SaleLineDTO, 0, len(m.Lines)),
		CreatedAt:     m.CreatedAt,
	}
	for _, line := range m.Lines {
		dto.Lines = append(dto.Lines, SaleLineDTO{
			Position:       line.Position,
			ProductID:      line.ProductID,
			ProductName:    line.ProductName,
			Category:       line.Category,
			UnitPriceCents: line.UnitPriceCents,
			Quantity:       line.Quantity,
			LineTotalCents: line.LineTotalCents,
		})
	}
	return dto
}
