package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tillcore-backend/pkg/enums"
)

// StaffMember is a person who can sign in to a business.
type StaffMember struct {
	ID                   uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	BusinessID           uuid.UUID         `gorm:"column:business_id;type:uuid;not null;index"`
	BranchID             *uuid.UUID        `gorm:"column:branch_id;type:uuid;index"`
	Email                string            `gorm:"column:email;not null;uniqueIndex:idx_staff_members_email"`
	DisplayName          string            `gorm:"column:display_name;not null"`
	CredentialHash       string            `gorm:"column:credential_hash;not null"`
	Role                 enums.StaffRole   `gorm:"column:role;not null"`
	Status               enums.StaffStatus `gorm:"column:status;not null"`
	MustChangeCredential bool              `gorm:"column:must_change_credential;not null"`
	LastLoginAt          *time.Time        `gorm:"column:last_login_at"`
	CreatedAt            time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *StaffMember) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Status == "" {
		s.Status = enums.StaffStatusActive
	}
	return nil
}

func (s StaffMember) IsActive() bool {
	return s.Status == enums.StaffStatusActive
}
