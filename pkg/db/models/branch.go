package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tillcore-backend/pkg/enums"
)

// Branch is a physical location of a business.
type Branch struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	BusinessID    uuid.UUID          `gorm:"column:business_id;type:uuid;not null;index"`
	Name          string             `gorm:"column:name;not null"`
	Address       *string            `gorm:"column:address"`
	Status        enums.BranchStatus `gorm:"column:status;not null"`
	DeactivatedAt *time.Time         `gorm:"column:deactivated_at"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (b *Branch) BeforeCreate(*gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.Status == "" {
		b.Status = enums.BranchStatusActive
	}
	return nil
}

func (b Branch) IsActive() bool {
	return b.Status == enums.BranchStatusActive
}
