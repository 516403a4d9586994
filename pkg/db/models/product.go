package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is a sellable item stocked at a single branch. StockQty is only
// mutated through the inventory ledger.
type Product struct {
	ID            uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	BusinessID    uuid.UUID      `gorm:"column:business_id;type:uuid;not null;index"`
	BranchID      uuid.UUID      `gorm:"column:branch_id;type:uuid;not null;index"`
	Name          string         `gorm:"column:name;not null"`
	Category      string         `gorm:"column:category;not null"`
	SKU           *string        `gorm:"column:sku"`
	UnitCostCents int64          `gorm:"column:unit_cost_cents;not null"`
	StockQty      int64          `gorm:"column:stock_qty;not null;check:chk_products_stock_qty_nonnegative,stock_qty >= 0"`
	IsActive      bool           `gorm:"column:is_active;not null"`
	Prices        []ProductPrice `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// DefaultPrice returns the price flagged as default, if any.
func (p Product) DefaultPrice() (ProductPrice, bool) {
	for _, price := range p.Prices {
		if price.IsDefault {
			return price, true
		}
	}
	return ProductPrice{}, false
}
