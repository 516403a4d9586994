package product

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tillcore-backend/internal/inventory"
	"github.com/angelmondragon/tillcore-backend/pkg/db"
	"github.com/angelmondragon/tillcore-backend/pkg/db/models"
	"github.com/angelmondragon/tillcore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tillcore-backend/pkg/errors"
	"github.com/angelmondragon/tillcore-backend/pkg/pagination"
	"github.com/angelmondragon/tillcore-backend/pkg/visibility"
)

const skuIndex = "idx_products_branch_sku"

// Service exposes catalog management for a branch.
type Service interface {
	CreateProduct(ctx context.Context, actor visibility.Actor, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, actor visibility.Actor, input UpdateProductInput) (*ProductDTO, error)
	RestockProduct(ctx context.Context, actor visibility.Actor, input RestockProductInput) (*RestockResult, error)
	GetProduct(ctx context.Context, actor visibility.Actor, productID uuid.UUID) (*ProductDTO, error)
	ListProducts(ctx context.Context, actor visibility.Actor, input ListProductsInput) (pagination.Page[ProductDTO], error)
	ListMovements(ctx context.Context, actor visibility.Actor, productID uuid.UUID, limit int) ([]MovementDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type stockLedger interface {
	Restock(ctx context.Context, tx *gorm.DB, input inventory.RestockInput) (int64, error)
	Movements(ctx context.Context, branchID, productID uuid.UUID, limit int) ([]models.StockMovement, error)
}

type branchLoader interface {
	FindBranch(ctx context.Context, businessID, branchID uuid.UUID) (*models.Branch, error)
}

// ServiceParams bundles the dependencies required to build a product service.
type ServiceParams struct {
	DB       txRunner
	Repo     *Repository
	Ledger   stockLedger
	Branches branchLoader
	Clock    func() time.Time
}

type service struct {
	db       txRunner
	repo     *Repository
	ledger   stockLedger
	branches branchLoader
	now      func() time.Time
}

// NewService constructs a product service instance.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if params.Branches == nil {
		return nil, fmt.Errorf("branch loader required")
	}
	clock := params.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		db:       params.DB,
		repo:     params.Repo,
		ledger:   params.Ledger,
		branches: params.Branches,
		now:      clock,
	}, nil
}

// CreateProduct creates the product with its price list. Opening stock is
// booked through the ledger in the same transaction.
func (s *service) CreateProduct(ctx context.Context, actor visibility.Actor, input CreateProductInput) (*ProductDTO, error) {
	if err := s.authorizeWrite(actor, input.BusinessID); err != nil {
		return nil, err
	}
	if !visibility.For(actor).AllowsBranch(input.BusinessID, input.BranchID) {
		return nil, pkgerrors.New(pkgerrors.CodeScopeViolation, "branch outside actor scope")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.UnitCostCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit cost must not be negative")
	}
	if input.InitialStock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "initial stock must not be negative")
	}
	prices, err := buildPrices(input.Prices)
	if err != nil {
		return nil, err
	}
	if _, err := s.activeBranch(ctx, input.BusinessID, input.BranchID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	product := &models.Product{
		BusinessID:    input.BusinessID,
		BranchID:      input.BranchID,
		Name:          name,
		Category:      strings.TrimSpace(input.Category),
		SKU:           trimmedPtr(input.SKU),
		UnitCostCents: input.UnitCostCents,
		IsActive:      true,
		Prices:        prices,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, product); err != nil {
			if db.IsUniqueViolation(err, skuIndex) {
				return pkgerrors.New(pkgerrors.CodeConflict, "sku already used in this branch")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
		}
		if input.InitialStock == 0 {
			return nil
		}
		qty, err := s.ledger.Restock(ctx, tx, inventory.RestockInput{
			BranchID:  product.BranchID,
			ProductID: product.ID,
			ActorID:   actor.StaffID,
			Quantity:  input.InitialStock,
			Reason:    enums.StockMovementReasonInitial,
		})
		product.StockQty = qty
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, product.ID)
}

func (s *service) UpdateProduct(ctx context.Context, actor visibility.Actor, input UpdateProductInput) (*ProductDTO, error) {
	if err := s.authorizeWrite(actor, input.BusinessID); err != nil {
		return nil, err
	}
	product, err := s.loadForWrite(ctx, actor, input.ProductID)
	if err != nil {
		return nil, err
	}
	if _, err := s.activeBranch(ctx, product.BusinessID, product.BranchID); err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name must not be empty")
		}
		product.Name = name
	}
	if input.Category != nil {
		product.Category = strings.TrimSpace(*input.Category)
	}
	if input.SKU != nil {
		product.SKU = trimmedPtr(input.SKU)
	}
	if input.UnitCostCents != nil {
		if *input.UnitCostCents < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit cost must not be negative")
		}
		product.UnitCostCents = *input.UnitCostCents
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	var prices []models.ProductPrice
	if input.Prices != nil {
		if prices, err = buildPrices(*input.Prices); err != nil {
			return nil, err
		}
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateDetails(ctx, product, s.now().UTC()); err != nil {
			if db.IsUniqueViolation(err, skuIndex) {
				return pkgerrors.New(pkgerrors.CodeConflict, "sku already used in this branch")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
		}
		if prices != nil {
			if err := repo.ReplacePrices(ctx, product.ID, prices); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace prices")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, product.ID)
}

func (s *service) RestockProduct(ctx context.Context, actor visibility.Actor, input RestockProductInput) (*RestockResult, error) {
	if err := s.authorizeWrite(actor, input.BusinessID); err != nil {
		return nil, err
	}
	product, err := s.loadForWrite(ctx, actor, input.ProductID)
	if err != nil {
		return nil, err
	}
	var qty int64
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		qty, err = s.ledger.Restock(ctx, tx, inventory.RestockInput{
			BranchID:  product.BranchID,
			ProductID: product.ID,
			ActorID:   actor.StaffID,
			Quantity:  input.Quantity,
			Reason:    enums.StockMovementReasonRestock,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &RestockResult{ProductID: product.ID, StockQty: qty}, nil
}

// GetProduct loads one product. Rows outside the actor's scope read as not found.
func (s *service) GetProduct(ctx context.Context, actor visibility.Actor, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.loadVisible(ctx, actor, productID)
	if err != nil {
		return nil, err
	}
	dto := FromModel(product)
	return &dto, nil
}

func (s *service) ListProducts(ctx context.Context, actor visibility.Actor, input ListProductsInput) (pagination.Page[ProductDTO], error) {
	scope := visibility.For(actor)
	if scope.DenyAll() {
		return pagination.Page[ProductDTO]{}, pkgerrors.New(pkgerrors.CodeScopeViolation, "scope denies all access")
	}
	scope, err := scope.Narrow(input.Filter)
	if err != nil {
		return pagination.Page[ProductDTO]{}, err
	}
	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return pagination.Page[ProductDTO]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, scope, input, cursor)
	if err != nil {
		return pagination.Page[ProductDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	dtos := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, FromModel(&rows[i]))
	}
	return pagination.Paginate(dtos, input.Pagination.Limit, func(p ProductDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	}), nil
}

func (s *service) ListMovements(ctx context.Context, actor visibility.Actor, productID uuid.UUID, limit int) ([]MovementDTO, error) {
	product, err := s.loadVisible(ctx, actor, productID)
	if err != nil {
		return nil, err
	}
	rows, err := s.ledger.Movements(ctx, product.BranchID, product.ID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]MovementDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, movementFromModel(row))
	}
	return out, nil
}

func (s *service) authorizeWrite(actor visibility.Actor, businessID uuid.UUID) error {
	if err := actor.RequireBusiness(businessID); err != nil {
		return err
	}
	if !actor.Role.CanManageCatalog() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "role may not manage the catalog")
	}
	return nil
}

func (s *service) loadVisible(ctx context.Context, actor visibility.Actor, productID uuid.UUID) (*models.Product, error) {
	scope := visibility.For(actor)
	if scope.DenyAll() {
		return nil, pkgerrors.New(pkgerrors.CodeScopeViolation, "scope denies all access")
	}
	product, err := s.repo.Find(ctx, productID)
	if err != nil {
		return nil, mapLoadError(err)
	}
	if !scope.AllowsProduct(*product) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

// loadForWrite is loadVisible for mutations: a product of the actor's own
// business that sits in another branch is a scope violation.
func (s *service) loadForWrite(ctx context.Context, actor visibility.Actor, productID uuid.UUID) (*models.Product, error) {
	product, err := s.repo.Find(ctx, productID)
	if err != nil {
		return nil, mapLoadError(err)
	}
	if product.BusinessID != actor.BusinessID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if !visibility.For(actor).AllowsProduct(*product) {
		return nil, pkgerrors.New(pkgerrors.CodeScopeViolation, "product outside actor scope")
	}
	return product, nil
}

func (s *service) activeBranch(ctx context.Context, businessID, branchID uuid.UUID) (*models.Branch, error) {
	branch, err := s.branches.FindBranch(ctx, businessID, branchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "branch not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load branch")
	}
	if !branch.IsActive() {
		return nil, pkgerrors.New(pkgerrors.CodeBranchInactive, "branch is inactive").
			WithDetails(map[string]any{"branch_id": branch.ID})
	}
	return branch, nil
}

func (s *service) reload(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, mapLoadError(err)
	}
	dto := FromModel(product)
	return &dto, nil
}

// buildPrices validates a price list: at least one entry, unique labels and
// exactly one default.
func buildPrices(inputs []PriceInput) ([]models.ProductPrice, error) {
	if len(inputs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one price is required")
	}
	seen := make(map[string]struct{}, len(inputs))
	defaults := 0
	out := make([]models.ProductPrice, 0, len(inputs))
	for _, in := range inputs {
		label := strings.TrimSpace(in.Label)
		if label == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price label is required")
		}
		key := strings.ToLower(label)
		if _, dup := seen[key]; dup {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("duplicate price label %q", label))
		}
		seen[key] = struct{}{}
		if in.PriceCents < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
		}
		if in.IsDefault {
			defaults++
		}
		out = append(out, models.ProductPrice{Label: label, PriceCents: in.PriceCents, IsDefault: in.IsDefault})
	}
	if defaults != 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "exactly one default price is required")
	}
	return out, nil
}

func mapLoadError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
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
