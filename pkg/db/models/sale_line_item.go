package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SaleLineItem freezes the product details at the moment of sale.
type SaleLineItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	SaleID         uuid.UUID `gorm:"column:sale_id;type:uuid;not null;index"`
	Position       int       `gorm:"column:position;not null"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	ProductName    string    `gorm:"column:product_name;not null"`
	Category       string    `gorm:"column:category;not null"`
	UnitPriceCents int64     `gorm:"column:unit_price_cents;not null"`
	UnitCostCents  int64     `gorm:"column:unit_cost_cents;not null"`
	Quantity       int64     `gorm:"column:quantity;not null"`
	LineTotalCents int64     `gorm:"column:line_total_cents;not null"`
	LineCostCents  int64     `gorm:"column:line_cost_cents;not null"`
}

func (l *SaleLineItem) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
