package tenants

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tillcore-backend/pkg/config"
	"github.com/angelmondragon/tillcore-backend/pkg/db"
	"github.com/angelmondragon/tillcore-backend/pkg/db/models"
	"github.com/angelmondragon/tillcore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tillcore-backend/pkg/errors"
	"github.com/angelmondragon/tillcore-backend/pkg/security"
	"github.com/angelmondragon/tillcore-backend/pkg/visibility"
)

const (
	tempCredentialLength = 12
	maxTaxRateBps        = 10000
)

// Service exposes the tenant directory.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error)
	GetBusiness(ctx context.Context, actor visibility.Actor) (*BusinessDTO, error)
	UpdateBusiness(ctx context.Context, actor visibility.Actor, input UpdateBusinessInput) (*BusinessDTO, error)
	ListBranches(ctx context.Context, actor visibility.Actor) ([]BranchDTO, error)
	CreateBranch(ctx context.Context, actor visibility.Actor, input CreateBranchInput) (*BranchDTO, error)
	SetBranchStatus(ctx context.Context, actor visibility.Actor, input SetBranchStatusInput) (*BranchDTO, error)
	ListStaff(ctx context.Context, actor visibility.Actor) ([]StaffDTO, error)
	InviteStaff(ctx context.Context, actor visibility.Actor, input InviteStaffInput) (*InviteStaffResult, error)
	UpdateStaff(ctx context.Context, actor visibility.Actor, input UpdateStaffInput) (*StaffDTO, error)
	DeactivateStaff(ctx context.Context, actor visibility.Actor, businessID, staffID uuid.UUID) (*StaffDTO, error)
	Identity(ctx context.Context, staffID uuid.UUID) (*Identity, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams bundles the dependencies required to build a tenant service.
type ServiceParams struct {
	DB             txRunner
	Repo           *Repository
	TenantConfig   config.TenantConfig
	PasswordConfig config.PasswordConfig
	Clock          func() time.Time
}

type service struct {
	db        txRunner
	repo      *Repository
	tenantCfg config.TenantConfig
	pwdCfg    config.PasswordConfig
	now       func() time.Time
}

// NewService constructs the tenant directory.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("tenant repository is required")
	}
	clock := params.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		db:        params.DB,
		repo:      params.Repo,
		tenantCfg: params.TenantConfig,
		pwdCfg:    params.PasswordConfig,
		now:       clock,
	}, nil
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	businessName := strings.TrimSpace(req.BusinessName)
	ownerName := strings.TrimSpace(req.OwnerName)
	branchName := strings.TrimSpace(req.BranchName)
	email := normalizeEmail(req.Email)
	switch {
	case businessName == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "business name is required")
	case ownerName == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner name is required")
	case branchName == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "branch name is required")
	case !strings.Contains(email, "@"):
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid email")
	}
	if err := security.ValidateCredentialStrength(req.Credential, s.pwdCfg.MinLength); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}

	currency, err := s.resolveCurrency(req.Currency)
	if err != nil {
		return nil, err
	}
	timezone, err := s.resolveTimezone(req.Timezone)
	if err != nil {
		return nil, err
	}
	taxRate := s.tenantCfg.DefaultTaxRateBps
	if req.TaxRateBps != nil {
		taxRate = *req.TaxRateBps
	}
	if err := validateTaxRate(taxRate); err != nil {
		return nil, err
	}

	hash, err := security.HashCredential(req.Credential, s.pwdCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash credential")
	}

	now := s.now()
	trialEnds := now.Add(s.tenantCfg.TrialPeriod())
	var (
		business models.Business
		owner    models.StaffMember
		branch   models.Branch
	)
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		exists, err := repo.EmailExists(ctx, email)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check email")
		}
		if exists {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}

		business = models.Business{
			Name:               businessName,
			Currency:           currency,
			TaxRateBps:         taxRate,
			Timezone:           timezone,
			SubscriptionPlan:   enums.SubscriptionPlanTrial,
			SubscriptionStatus: enums.SubscriptionStatusTrialing,
			TrialEndsAt:        &trialEnds,
			MaxBranches:        s.tenantCfg.MaxBranches,
			MaxStaff:           s.tenantCfg.MaxStaff,
			IsActive:           true,
		}
		if err := repo.CreateBusiness(ctx, &business); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create business")
		}

		owner = models.StaffMember{
			BusinessID:     business.ID,
			Email:          email,
			DisplayName:    ownerName,
			CredentialHash: hash,
			Role:           enums.StaffRoleOwner,
			Status:         enums.StaffStatusActive,
		}
		if err := repo.CreateStaff(ctx, &owner); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create owner")
		}

		business.OwnerID = &owner.ID
		if err := repo.UpdateBusiness(ctx, &business); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "link owner")
		}

		branch = models.Branch{
			BusinessID: business.ID,
			Name:       branchName,
			Address:    trimmedPtr(req.BranchAddress),
			Status:     enums.BranchStatusActive,
		}
		if err := repo.CreateBranch(ctx, &branch); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create branch")
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Passthrough(err, pkgerrors.CodeDependency, "register business")
	}

	return &RegisterResult{
		Business: BusinessFromModel(&business),
		Owner:    StaffFromModel(&owner),
		Branch:   BranchFromModel(&branch),
	}, nil
}

func (s *service) GetBusiness(ctx context.Context, actor visibility.Actor) (*BusinessDTO, error) {
	if visibility.For(actor).DenyAll() {
		return nil, pkgerrors.New(pkgerrors.CodeScopeViolation, "scope denies all access")
	}
	business, err := s.loadBusiness(ctx, s.repo, actor.BusinessID)
	if err != nil {
		return nil, err
	}
	dto := BusinessFromModel(business)
	return &dto, nil
}

func (s *service) UpdateBusiness(ctx context.Context, actor visibility.Actor, input UpdateBusinessInput) (*BusinessDTO, error) {
	if err := actor.RequireBusiness(input.BusinessID); err != nil {
		return nil, err
	}
	if actor.Role != enums.StaffRoleOwner {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the owner may edit business settings")
	}

	business, err := s.loadBusiness(ctx, s.repo, input.BusinessID)
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "business name is required")
		}
		business.Name = name
	}
	if input.Currency != nil {
		currency, err := s.resolveCurrency(*input.Currency)
		if err != nil {
			return nil, err
		}
		business.Currency = currency
	}
	if input.TaxRateBps != nil {
		if err := validateTaxRate(*input.TaxRateBps); err != nil {
			return nil, err
		}
		business.TaxRateBps = *input.TaxRateBps
	}
	if input.Timezone != nil {
		if strings.TrimSpace(*input.Timezone) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "timezone is required")
		}
		tz, err := s.resolveTimezone(*input.Timezone)
		if err != nil {
			return nil, err
		}
		business.Timezone = tz
	}

	if err := s.repo.UpdateBusiness(ctx, business); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update business")
	}
	dto := BusinessFromModel(business)
	return &dto, nil
}

func (s *service) ListBranches(ctx context.Context, actor visibility.Actor) ([]BranchDTO, error) {
	scope := visibility.For(actor)
	if scope.DenyAll() {
		return nil, pkgerrors.New(pkgerrors.CodeScopeViolation, "scope denies all access")
	}
	rows, err := s.repo.ListBranches(ctx, scope)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list branches")
	}
	out := make([]BranchDTO, 0, len(rows))
	for i := range rows {
		out = append(out, BranchFromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) CreateBranch(ctx context.Context, actor visibility.Actor, input CreateBranchInput) (*BranchDTO, error) {
	if err := actor.RequireBusiness(input.BusinessID); err != nil {
		return nil, err
	}
	if !actor.Role.CanManageStaff() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "insufficient role")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "branch name is required")
	}

	var branch models.Branch
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		business, err := s.loadBusiness(ctx, repo, input.BusinessID)
		if err != nil {
			return err
		}
		count, err := repo.CountBranches(ctx, business.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count branches")
		}
		if business.MaxBranches > 0 && count >= int64(business.MaxBranches) {
			return pkgerrors.New(pkgerrors.CodeConflict, "branch limit reached")
		}
		branch = models.Branch{
			BusinessID: business.ID,
			Name:       name,
			Address:    trimmedPtr(input.Address),
			Status:     enums.BranchStatusActive,
		}
		if err := repo.CreateBranch(ctx, &branch); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create branch")
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Passthrough(err, pkgerrors.CodeDependency, "create branch")
	}
	dto := BranchFromModel(&branch)
	return &dto, nil
}

func (s *service) SetBranchStatus(ctx context.Context, actor visibility.Actor, input SetBranchStatusInput) (*BranchDTO, error) {
	if err := actor.RequireBusiness(input.BusinessID); err != nil {
		return nil, err
	}
	if actor.Role != enums.StaffRoleOwner {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the owner may change branch status")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid branch status")
	}

	branch, err := s.repo.FindBranch(ctx, input.BusinessID, input.BranchID)
	if err != nil {
		return nil, mapLoadError(err, "branch")
	}
	if branch.Status != input.Status {
		branch.Status = input.Status
		if input.Status == enums.BranchStatusInactive {
			at := s.now()
			branch.DeactivatedAt = &at
		} else {
			branch.DeactivatedAt = nil
		}
		if err := s.repo.UpdateBranch(ctx, branch); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update branch")
		}
	}
	dto := BranchFromModel(branch)
	return &dto, nil
}

func (s *service) ListStaff(ctx context.Context, actor visibility.Actor) ([]StaffDTO, error) {
	scope := visibility.For(actor)
	if scope.DenyAll() {
		return nil, pkgerrors.New(pkgerrors.CodeScopeViolation, "scope denies all access")
	}
	rows, err := s.repo.ListStaff(ctx, scope)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list staff")
	}
	out := make([]StaffDTO, 0, len(rows))
	for i := range rows {
		out = append(out, StaffFromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) InviteStaff(ctx context.Context, actor visibility.Actor, input InviteStaffInput) (*InviteStaffResult, error) {
	if err := actor.RequireBusiness(input.BusinessID); err != nil {
		return nil, err
	}
	if !actor.Role.CanManageStaff() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "insufficient role")
	}
	email := normalizeEmail(input.Email)
	name := strings.TrimSpace(input.DisplayName)
	if !strings.Contains(email, "@") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid email")
	}
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "display name is required")
	}
	if err := checkAssignableRole(actor, input.Role); err != nil {
		return nil, err
	}
	branchID, err := normalizeBranchPin(actor, input.Role, input.BranchID)
	if err != nil {
		return nil, err
	}

	temp, err := security.GenerateTempCredential(tempCredentialLength)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate temp credential")
	}
	hash, err := security.HashCredential(temp, s.pwdCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash credential")
	}

	var staff models.StaffMember
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		business, err := s.loadBusiness(ctx, repo, input.BusinessID)
		if err != nil {
			return err
		}
		if branchID != nil {
			if err := s.requireActiveBranch(ctx, repo, business.ID, *branchID); err != nil {
				return err
			}
		}
		count, err := repo.CountActiveStaff(ctx, business.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count staff")
		}
		if business.MaxStaff > 0 && count >= int64(business.MaxStaff) {
			return pkgerrors.New(pkgerrors.CodeConflict, "staff limit reached")
		}
		exists, err := repo.EmailExists(ctx, email)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check email")
		}
		if exists {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}

		staff = models.StaffMember{
			BusinessID:           business.ID,
			BranchID:             branchID,
			Email:                email,
			DisplayName:          name,
			CredentialHash:       hash,
			Role:                 input.Role,
			Status:               enums.StaffStatusActive,
			MustChangeCredential: true,
		}
		if err := repo.CreateStaff(ctx, &staff); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create staff")
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Passthrough(err, pkgerrors.CodeDependency, "invite staff")
	}

	return &InviteStaffResult{Staff: StaffFromModel(&staff), TempCredential: temp}, nil
}

func (s *service) UpdateStaff(ctx context.Context, actor visibility.Actor, input UpdateStaffInput) (*StaffDTO, error) {
	if err := actor.RequireBusiness(input.BusinessID); err != nil {
		return nil, err
	}
	if !actor.Role.CanManageStaff() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "insufficient role")
	}
	target, err := s.loadManagedStaff(ctx, actor, input.StaffID)
	if err != nil {
		return nil, err
	}

	if input.DisplayName != nil {
		name := strings.TrimSpace(*input.DisplayName)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "display name is required")
		}
		target.DisplayName = name
	}

	if input.Role != nil || input.BranchID != nil {
		if target.Role == enums.StaffRoleOwner {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "the owner cannot be reassigned")
		}
		role := target.Role
		if input.Role != nil {
			role = *input.Role
		}
		if err := checkAssignableRole(actor, role); err != nil {
			return nil, err
		}
		requested := target.BranchID
		if input.BranchID != nil {
			requested = input.BranchID
		}
		if role == enums.StaffRoleAccountant && input.BranchID == nil {
			requested = nil
		}
		branchID, err := normalizeBranchPin(actor, role, requested)
		if err != nil {
			return nil, err
		}
		if branchID != nil && (target.BranchID == nil || *target.BranchID != *branchID) {
			if err := s.requireActiveBranch(ctx, s.repo, target.BusinessID, *branchID); err != nil {
				return nil, err
			}
		}
		target.Role = role
		target.BranchID = branchID
	}

	if err := s.repo.UpdateStaff(ctx, target); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update staff")
	}
	dto := StaffFromModel(target)
	return &dto, nil
}

func (s *service) DeactivateStaff(ctx context.Context, actor visibility.Actor, businessID, staffID uuid.UUID) (*StaffDTO, error) {
	if err := actor.RequireBusiness(businessID); err != nil {
		return nil, err
	}
	if !actor.Role.CanManageStaff() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "insufficient role")
	}
	if staffID == actor.StaffID {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "staff cannot deactivate themselves")
	}
	target, err := s.loadManagedStaff(ctx, actor, staffID)
	if err != nil {
		return nil, err
	}
	if target.Role == enums.StaffRoleOwner {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "the owner cannot be deactivated")
	}
	if target.Status != enums.StaffStatusDeactivated {
		target.Status = enums.StaffStatusDeactivated
		if err := s.repo.UpdateStaff(ctx, target); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate staff")
		}
	}
	dto := StaffFromModel(target)
	return &dto, nil
}

func (s *service) Identity(ctx context.Context, staffID uuid.UUID) (*Identity, error) {
	if staffID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "staff id is required")
	}
	staff, err := s.repo.FindStaff(ctx, staffID)
	if err != nil {
		return nil, mapLoadError(err, "staff member")
	}
	business, err := s.loadBusiness(ctx, s.repo, staff.BusinessID)
	if err != nil {
		return nil, err
	}

	identity := &Identity{
		Actor: visibility.Actor{
			StaffID:    staff.ID,
			BusinessID: staff.BusinessID,
			BranchID:   staff.BranchID,
			Role:       staff.Role,
		},
		Email:                staff.Email,
		DisplayName:          staff.DisplayName,
		StaffActive:          staff.IsActive(),
		BusinessActive:       business.IsActive,
		MustChangeCredential: staff.MustChangeCredential,
		BranchID:             staff.BranchID,
		BranchActive:         true,
		Timezone:             business.Timezone,
		Currency:             business.Currency,
		TaxRateBps:           business.TaxRateBps,
	}
	if staff.BranchID != nil {
		branch, err := s.repo.FindBranch(ctx, staff.BusinessID, *staff.BranchID)
		if err != nil {
			return nil, mapLoadError(err, "branch")
		}
		identity.BranchActive = branch.IsActive()
	}
	return identity, nil
}

// loadManagedStaff fetches a staff member the actor may administer. Rows
// outside the actor's scope read as not found.
func (s *service) loadManagedStaff(ctx context.Context, actor visibility.Actor, staffID uuid.UUID) (*models.StaffMember, error) {
	target, err := s.repo.FindStaff(ctx, staffID)
	if err != nil {
		return nil, mapLoadError(err, "staff member")
	}
	record := visibility.Record{BusinessID: target.BusinessID, StaffID: &target.ID}
	if target.BranchID != nil {
		record.BranchID = *target.BranchID
	}
	if !visibility.For(actor).Allows(record) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "staff member not found")
	}
	if actor.Role == enums.StaffRoleManager && !managerAssignable(target.Role) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "managers may only administer cashiers and staff")
	}
	return target, nil
}

func (s *service) loadBusiness(ctx context.Context, repo *Repository, id uuid.UUID) (*models.Business, error) {
	business, err := repo.FindBusiness(ctx, id)
	if err != nil {
		return nil, mapLoadError(err, "business")
	}
	return business, nil
}

func (s *service) requireActiveBranch(ctx context.Context, repo *Repository, businessID, branchID uuid.UUID) error {
	branch, err := repo.FindBranch(ctx, businessID, branchID)
	if err != nil {
		return mapLoadError(err, "branch")
	}
	if !branch.IsActive() {
		return pkgerrors.New(pkgerrors.CodeBranchInactive, "branch is inactive").
			WithDetails(map[string]any{"branch_id": branch.ID})
	}
	return nil
}

func (s *service) resolveCurrency(raw string) (enums.Currency, error) {
	value := strings.ToUpper(strings.TrimSpace(raw))
	if value == "" {
		value = s.tenantCfg.DefaultCurrency
	}
	currency, err := enums.ParseCurrency(value)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unsupported currency")
	}
	return currency, nil
}

func (s *service) resolveTimezone(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		value = s.tenantCfg.DefaultTimezone
	}
	if value == "" {
		value = "UTC"
	}
	if _, err := time.LoadLocation(value); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown timezone")
	}
	return value, nil
}

func validateTaxRate(bps int) error {
	if bps < 0 || bps > maxTaxRateBps {
		return pkgerrors.New(pkgerrors.CodeValidation, "tax rate must be between 0 and 10000 basis points")
	}
	return nil
}

func checkAssignableRole(actor visibility.Actor, role enums.StaffRole) error {
	if !role.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}
	if role == enums.StaffRoleOwner {
		return pkgerrors.New(pkgerrors.CodeValidation, "a business has exactly one owner")
	}
	if actor.Role == enums.StaffRoleManager && !managerAssignable(role) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "managers may only assign cashier or staff roles")
	}
	return nil
}

// normalizeBranchPin returns the branch a role should be pinned to.
func normalizeBranchPin(actor visibility.Actor, role enums.StaffRole, requested *uuid.UUID) (*uuid.UUID, error) {
	if !role.PinnedToBranch() {
		if requested != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("role %s is not pinned to a branch", role))
		}
		return nil, nil
	}
	if requested == nil || *requested == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("role %s requires a branch", role))
	}
	if actor.Role.PinnedToBranch() && (actor.BranchID == nil || *actor.BranchID != *requested) {
		return nil, pkgerrors.New(pkgerrors.CodeScopeViolation, "branch outside actor scope")
	}
	id := *requested
	return &id, nil
}

func managerAssignable(role enums.StaffRole) bool {
	return role == enums.StaffRoleCashier || role == enums.StaffRoleStaff
}

func mapLoadError(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, what+" not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load "+what)
}

func trimmedPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
