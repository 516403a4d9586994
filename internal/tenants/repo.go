package tenants

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tillcore-backend/pkg/db/models"
	"github.com/angelmondragon/tillcore-backend/pkg/enums"
	"github.com/angelmondragon/tillcore-backend/pkg/visibility"
)

// Repository persists businesses, branches and staff members.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to tenant operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository running inside the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) CreateBusiness(ctx context.Context, business *models.Business) error {
	if business == nil {
		return fmt.Errorf("business is required")
	}
	return r.db.WithContext(ctx).Create(business).Error
}

func (r *Repository) FindBusiness(ctx context.Context, id uuid.UUID) (*models.Business, error) {
	var business models.Business
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&business).Error; err != nil {
		return nil, err
	}
	return &business, nil
}

func (r *Repository) UpdateBusiness(ctx context.Context, business *models.Business) error {
	if business == nil {
		return fmt.Errorf("business is required")
	}
	return r.db.WithContext(ctx).Save(business).Error
}

// ListExpiredTrials returns trialing businesses whose trial ended by now,
// oldest first.
func (r *Repository) ListExpiredTrials(ctx context.Context, now time.Time, limit int) ([]models.Business, error) {
	var rows []models.Business
	q := r.db.WithContext(ctx).
		Where("subscription_status = ?", enums.SubscriptionStatusTrialing).
		Where("trial_ends_at IS NOT NULL AND trial_ends_at <= ?", now.UTC()).
		Order("trial_ends_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// MarkTrialExpired flips a single business only while it is still trialing.
func (r *Repository) MarkTrialExpired(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Business{}).
		Where("id = ? AND subscription_status = ?", id, enums.SubscriptionStatusTrialing).
		Updates(map[string]any{
			"subscription_status": enums.SubscriptionStatusExpired,
			"updated_at":          now.UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *Repository) CreateBranch(ctx context.Context, branch *models.Branch) error {
	if branch == nil {
		return fmt.Errorf("branch is required")
	}
	return r.db.WithContext(ctx).Create(branch).Error
}

// FindBranch loads a branch of the given business.
func (r *Repository) FindBranch(ctx context.Context, businessID, branchID uuid.UUID) (*models.Branch, error) {
	var branch models.Branch
	if err := r.db.WithContext(ctx).
		Where("id = ? AND business_id = ?", branchID, businessID).
		First(&branch).Error; err != nil {
		return nil, err
	}
	return &branch, nil
}

func (r *Repository) FindBranchByID(ctx context.Context, branchID uuid.UUID) (*models.Branch, error) {
	var branch models.Branch
	if err := r.db.WithContext(ctx).Where("id = ?", branchID).First(&branch).Error; err != nil {
		return nil, err
	}
	return &branch, nil
}

func (r *Repository) UpdateBranch(ctx context.Context, branch *models.Branch) error {
	if branch == nil {
		return fmt.Errorf("branch is required")
	}
	return r.db.WithContext(ctx).Save(branch).Error
}

func (r *Repository) CountBranches(ctx context.Context, businessID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Branch{}).Where("business_id = ?", businessID).Count(&count).Error
	return count, err
}

// ListBranches returns the branches visible to scope ordered by name.
func (r *Repository) ListBranches(ctx context.Context, scope visibility.Scope) ([]models.Branch, error) {
	var rows []models.Branch
	err := r.db.WithContext(ctx).
		Scopes(scope.Scoped(visibility.BranchColumns)).
		Order("branches.name ASC, branches.id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *Repository) CreateStaff(ctx context.Context, staff *models.StaffMember) error {
	if staff == nil {
		return fmt.Errorf("staff member is required")
	}
	staff.Email = normalizeEmail(staff.Email)
	return r.db.WithContext(ctx).Create(staff).Error
}

func (r *Repository) FindStaff(ctx context.Context, id uuid.UUID) (*models.StaffMember, error) {
	var staff models.StaffMember
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&staff).Error; err != nil {
		return nil, err
	}
	return &staff, nil
}

// FindStaffByEmail matches case-insensitively.
func (r *Repository) FindStaffByEmail(ctx context.Context, email string) (*models.StaffMember, error) {
	var staff models.StaffMember
	if err := r.db.WithContext(ctx).
		Where("lower(email) = ?", normalizeEmail(email)).
		First(&staff).Error; err != nil {
		return nil, err
	}
	return &staff, nil
}

func (r *Repository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.StaffMember{}).
		Where("lower(email) = ?", normalizeEmail(email)).
		Count(&count).Error
	return count > 0, err
}

func (r *Repository) CountActiveStaff(ctx context.Context, businessID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.StaffMember{}).
		Where("business_id = ? AND status = ?", businessID, enums.StaffStatusActive).
		Count(&count).Error
	return count, err
}

// ListStaff returns the staff visible to scope ordered by display name.
func (r *Repository) ListStaff(ctx context.Context, scope visibility.Scope) ([]models.StaffMember, error) {
	var rows []models.StaffMember
	err := r.db.WithContext(ctx).
		Scopes(scope.Scoped(visibility.StaffColumns)).
		Order("staff_members.display_name ASC, staff_members.id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *Repository) UpdateStaff(ctx context.Context, staff *models.StaffMember) error {
	if staff == nil {
		return fmt.Errorf("staff member is required")
	}
	return r.db.WithContext(ctx).Save(staff).Error
}

func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.StaffMember{}).
		Where("id = ?", id).
		Update("last_login_at", at.UTC()).Error
}

// UpdateCredential stores a new hash and clears the forced-rotation flag.
func (r *Repository) UpdateCredential(ctx context.Context, id uuid.UUID, hash string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.StaffMember{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"credential_hash":        hash,
			"must_change_credential": false,
			"updated_at":             at.UTC(),
		}).Error
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
