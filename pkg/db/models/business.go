package models

import (
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tillcore-backend/pkg/enums"
)

// Business is the tenant root. Every other record carries its id.
type Business struct {
	ID                 uuid.UUID                `gorm:"column:id;type:uuid;primaryKey"`
	Name               string                   `gorm:"column:name;not null"`
	OwnerID            *uuid.UUID               `gorm:"column:owner_id;type:uuid"`
	Currency           enums.Currency           `gorm:"column:currency;not null"`
	TaxRateBps         int                      `gorm:"column:tax_rate_bps;not null"`
	Timezone           string                   `gorm:"column:timezone;not null"`
	SubscriptionPlan   enums.SubscriptionPlan   `gorm:"column:subscription_plan;not null"`
	SubscriptionStatus enums.SubscriptionStatus `gorm:"column:subscription_status;not null"`
	TrialEndsAt        *time.Time               `gorm:"column:trial_ends_at"`
	MaxBranches        int                      `gorm:"column:max_branches;not null"`
	MaxStaff           int                      `gorm:"column:max_staff;not null"`
	IsActive           bool                     `gorm:"column:is_active;not null"`
	CreatedAt          time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

func (b *Business) BeforeCreate(*gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Location resolves the business timezone, falling back to UTC.
func (b Business) Location() *time.Location {
	if b.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(b.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
