package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductPrice is one sell price of a product (retail, wholesale, ...).
type ProductPrice struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	Label      string    `gorm:"column:label;not null"`
	PriceCents int64     `gorm:"column:price_cents;not null"`
	IsDefault  bool      `gorm:"column:is_default;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (p *ProductPrice) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
