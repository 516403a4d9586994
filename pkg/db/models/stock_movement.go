package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tillcore-backend/pkg/enums"
)

// StockMovement is an append-only audit row for every ledger mutation.
type StockMovement struct {
	ID         uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey"`
	BusinessID uuid.UUID                 `gorm:"column:business_id;type:uuid;not null"`
	BranchID   uuid.UUID                 `gorm:"column:branch_id;type:uuid;not null;index"`
	ProductID  uuid.UUID                 `gorm:"column:product_id;type:uuid;not null;index"`
	Delta      int64                     `gorm:"column:delta;not null"`
	Reason     enums.StockMovementReason `gorm:"column:reason;not null"`
	ActorID    uuid.UUID                 `gorm:"column:actor_id;type:uuid;not null"`
	CreatedAt  time.Time                 `gorm:"column:created_at;autoCreateTime"`
}

func (m *StockMovement) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
