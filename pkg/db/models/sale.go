package models

import (
	"time"

	"github.com/google/uuid"
)

// Sale is an immutable completed transaction. Ids are UUIDv7 so primary key
// order follows creation order.
type Sale struct {
	ID            uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	BusinessID    uuid.UUID      `gorm:"column:business_id;type:uuid;not null;index:idx_sales_business_created,priority:1"`
	BranchID      uuid.UUID      `gorm:"column:branch_id;type:uuid;not null;index"`
	StaffID       uuid.UUID      `gorm:"column:staff_id;type:uuid;not null;index"`
	CustomerRef   *string        `gorm:"column:customer_ref"`
	Currency      string         `gorm:"column:currency;not null"`
	SubtotalCents int64          `gorm:"column:subtotal_cents;not null"`
	TaxCents      int64          `gorm:"column:tax_cents;not null"`
	TotalCents    int64          `gorm:"column:total_cents;not null"`
	CostCents     int64          `gorm:"column:cost_cents;not null"`
	ItemCount     int64          `gorm:"column:item_count;not null"`
	Lines         []SaleLineItem `gorm:"foreignKey:SaleID"`
	CreatedAt     time.Time      `gorm:"column:created_at;not null;index:idx_sales_business_created,priority:2"`
}
