// Package inventory owns per-branch product stock. No other package writes
// products.stock_qty.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/tillcore-backend/pkg/db"
	"github.com/angelmondragon/tillcore-backend/pkg/db/models"
	"github.com/angelmondragon/tillcore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tillcore-backend/pkg/errors"
)

// MaxQuantity caps a single line, a merged product total and a restock.
const MaxQuantity int64 = 1_000_000

// Line requests a quantity of one product.
type Line struct {
	ProductID uuid.UUID
	Quantity  int64
}

type DeductInput struct {
	BranchID uuid.UUID
	ActorID  uuid.UUID
	Lines    []Line
}

type RestockInput struct {
	BranchID  uuid.UUID
	ProductID uuid.UUID
	ActorID   uuid.UUID
	Quantity  int64
	Reason    enums.StockMovementReason
}

// Ledger validates and commits stock mutations inside caller transactions.
type Ledger struct {
	db     *gorm.DB
	locker *Locker
	now    func() time.Time
}

// NewLedger binds the ledger to a read handle and a branch locker.
func NewLedger(conn *gorm.DB, locker *Locker) *Ledger {
	if locker == nil {
		locker = NewLocker()
	}
	return &Ledger{
		db:     conn,
		locker: locker,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Lock acquires the per-branch critical section. Hold it across the whole
// transaction that calls Deduct.
func (l *Ledger) Lock(branchID uuid.UUID) func() {
	return l.locker.Lock(branchID)
}

// Deduct removes every requested quantity or nothing. The whole batch is
// validated before the first write; a lost compare-and-swap surfaces as
// INSUFFICIENT_STOCK so the caller's transaction rolls back as a unit.
func (l *Ledger) Deduct(ctx context.Context, tx *gorm.DB, input DeductInput) (*Deduction, error) {
	if tx == nil {
		return nil, gorm.ErrInvalidTransaction
	}
	lines, err := mergeLines(input.Lines)
	if err != nil {
		return nil, err
	}
	if input.BranchID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "branch id is required")
	}

	branch, err := l.activeBranch(ctx, tx, input.BranchID)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	products, err := l.lockProducts(ctx, tx, branch.ID, ids)
	if err != nil {
		return nil, err
	}

	receipt := &Deduction{
		businessID: branch.BusinessID,
		branchID:   branch.ID,
		actorID:    input.ActorID,
		lines:      make([]deductedLine, 0, len(lines)),
	}
	for _, line := range lines {
		product, ok := products[line.ProductID]
		if !ok || !product.IsActive {
			return nil, unknownProduct(line.ProductID)
		}
		if product.StockQty < line.Quantity {
			return nil, insufficientStock(line.ProductID, product.StockQty, line.Quantity)
		}
		receipt.lines = append(receipt.lines, deductedLine{product: product, quantity: line.Quantity})
	}

	now := l.now()
	movements := make([]models.StockMovement, 0, len(lines))
	for _, line := range lines {
		res := tx.WithContext(ctx).
			Model(&models.Product{}).
			Where("id = ? AND branch_id = ? AND stock_qty >= ?", line.ProductID, branch.ID, line.Quantity).
			Updates(map[string]any{
				"stock_qty":  gorm.Expr("stock_qty - ?", line.Quantity),
				"updated_at": now,
			})
		if res.Error != nil {
			if db.IsCheckViolation(res.Error) {
				return nil, l.lostRace(ctx, tx, branch.ID, line)
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "deduct stock")
		}
		if res.RowsAffected != 1 {
			return nil, l.lostRace(ctx, tx, branch.ID, line)
		}
		movements = append(movements, models.StockMovement{
			BusinessID: branch.BusinessID,
			BranchID:   branch.ID,
			ProductID:  line.ProductID,
			Delta:      -line.Quantity,
			Reason:     enums.StockMovementReasonSale,
			ActorID:    input.ActorID,
			CreatedAt:  now,
		})
	}
	if err := tx.WithContext(ctx).Create(&movements).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append stock movements")
	}
	return receipt, nil
}

// Restock increments stock for one product and returns the new quantity.
func (l *Ledger) Restock(ctx context.Context, tx *gorm.DB, input RestockInput) (int64, error) {
	if tx == nil {
		return 0, gorm.ErrInvalidTransaction
	}
	if input.Quantity <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if input.Quantity > MaxQuantity {
		return 0, quantityTooLarge(input.ProductID, input.Quantity)
	}
	if input.ProductID == uuid.Nil || input.BranchID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "branch and product are required")
	}
	reason := input.Reason
	if reason == "" {
		reason = enums.StockMovementReasonRestock
	}
	if !reason.IsValid() || reason == enums.StockMovementReasonSale {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid restock reason")
	}

	branch, err := l.activeBranch(ctx, tx, input.BranchID)
	if err != nil {
		return 0, err
	}
	products, err := l.lockProducts(ctx, tx, branch.ID, []uuid.UUID{input.ProductID})
	if err != nil {
		return 0, err
	}
	product, ok := products[input.ProductID]
	if !ok {
		return 0, unknownProduct(input.ProductID)
	}
	if product.StockQty > math.MaxInt64-input.Quantity {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "restock would overflow stock").
			WithDetails(map[string]any{"product_id": product.ID, "available": product.StockQty, "requested": input.Quantity})
	}

	now := l.now()
	res := tx.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND branch_id = ?", product.ID, branch.ID).
		Updates(map[string]any{
			"stock_qty":  gorm.Expr("stock_qty + ?", input.Quantity),
			"updated_at": now,
		})
	if res.Error != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "restock")
	}
	movement := models.StockMovement{
		BusinessID: branch.BusinessID,
		BranchID:   branch.ID,
		ProductID:  product.ID,
		Delta:      input.Quantity,
		Reason:     reason,
		ActorID:    input.ActorID,
		CreatedAt:  now,
	}
	if err := tx.WithContext(ctx).Create(&movement).Error; err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append stock movement")
	}
	return product.StockQty + input.Quantity, nil
}

// Available reads the current quantity of a product in a branch.
func (l *Ledger) Available(ctx context.Context, branchID, productID uuid.UUID) (int64, error) {
	var product models.Product
	err := l.db.WithContext(ctx).
		Select("stock_qty").
		Where("id = ? AND branch_id = ?", productID, branchID).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read stock")
	}
	return product.StockQty, nil
}

// Movements lists the most recent ledger entries of a product, newest first.
func (l *Ledger) Movements(ctx context.Context, branchID, productID uuid.UUID, limit int) ([]models.StockMovement, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var rows []models.StockMovement
	err := l.db.WithContext(ctx).
		Where("branch_id = ? AND product_id = ?", branchID, productID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stock movements")
	}
	return rows, nil
}

func (l *Ledger) activeBranch(ctx context.Context, tx *gorm.DB, branchID uuid.UUID) (*models.Branch, error) {
	var branch models.Branch
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "SHARE"}).
		Where("id = ?", branchID).
		First(&branch).Error
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
	return &branch, nil
}

// lockProducts loads the branch's products with row locks, prices attached.
func (l *Ledger) lockProducts(ctx context.Context, tx *gorm.DB, branchID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	var rows []models.Product
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("branch_id = ? AND id IN ?", branchID, ids).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	out := make(map[uuid.UUID]models.Product, len(rows))
	if len(rows) == 0 {
		return out, nil
	}

	var prices []models.ProductPrice
	if err := tx.WithContext(ctx).
		Where("product_id IN ?", ids).
		Order("is_default DESC, label ASC").
		Find(&prices).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load prices")
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	for _, price := range prices {
		if product, ok := out[price.ProductID]; ok {
			product.Prices = append(product.Prices, price)
			out[price.ProductID] = product
		}
	}
	return out, nil
}

func (l *Ledger) lostRace(ctx context.Context, tx *gorm.DB, branchID uuid.UUID, line Line) error {
	var product models.Product
	available := int64(0)
	if err := tx.WithContext(ctx).
		Select("stock_qty").
		Where("id = ? AND branch_id = ?", line.ProductID, branchID).
		First(&product).Error; err == nil {
		available = product.StockQty
	}
	return insufficientStock(line.ProductID, available, line.Quantity)
}

// mergeLines validates the request and sums repeated products, keeping the
// order of first appearance.
func mergeLines(lines []Line) ([]Line, error) {
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one line is required")
	}
	index := make(map[uuid.UUID]int, len(lines))
	merged := make([]Line, 0, len(lines))
	for i, line := range lines {
		if line.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d: product id is required", i))
		}
		if line.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d: quantity must be positive", i))
		}
		if line.Quantity > MaxQuantity {
			return nil, quantityTooLarge(line.ProductID, line.Quantity)
		}
		if pos, ok := index[line.ProductID]; ok {
			if merged[pos].Quantity > MaxQuantity-line.Quantity {
				return nil, quantityTooLarge(line.ProductID, merged[pos].Quantity+line.Quantity)
			}
			merged[pos].Quantity += line.Quantity
			continue
		}
		index[line.ProductID] = len(merged)
		merged = append(merged, line)
	}
	return merged, nil
}

func insufficientStock(productID uuid.UUID, available, requested int64) error {
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
		WithDetails(map[string]any{
			"product_id": productID,
			"available":  available,
			"requested":  requested,
		})
}

func quantityTooLarge(productID uuid.UUID, requested int64) error {
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity exceeds %d", MaxQuantity)).
		WithDetails(map[string]any{
			"product_id": productID,
			"requested":  requested,
			"max":        MaxQuantity,
		})
}

func unknownProduct(productID uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeUnknownProduct, fmt.Sprintf("product %s is not sold at this branch", productID))
}
