// Package sales appends immutable sale records and answers scoped reads and
// aggregations over them.
package sales

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tillcore-backend/internal/inventory"
	"github.com/angelmondragon/tillcore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/tillcore-backend/pkg/errors"
)

// Recorder owns the sales tables. It exposes no update or delete.
type Recorder struct {
	db  *gorm.DB
	now func() time.Time
}

func NewRecorder(conn *gorm.DB) *Recorder {
	return &Recorder{
		db:  conn,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the timestamp source.
func (r *Recorder) WithClock(now func() time.Time) *Recorder {
	out := *r
	out.now = now
	return &out
}

// Record appends a sale inside tx. The deduction receipt must come from the
// same transaction and cover exactly the recorded quantities.
func (r *Recorder) Record(ctx context.Context, tx *gorm.DB, receipt *inventory.Deduction, input RecordInput) (*models.Sale, error) {
	if tx == nil {
		return nil, gorm.ErrInvalidTransaction
	}
	if receipt == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock deduction receipt is required")
	}
	if input.BusinessID == uuid.Nil || input.BranchID == uuid.Nil || input.StaffID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "business, branch and staff are required")
	}
	if receipt.BranchID() != input.BranchID || receipt.BusinessID() != input.BusinessID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "receipt belongs to another branch")
	}
	if receipt.ActorID() != input.StaffID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "receipt belongs to another staff member")
	}
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one line is required")
	}

	products := make(map[uuid.UUID]models.Product)
	for _, line := range receipt.Lines() {
		products[line.Product.ID] = line.Product
	}
	deducted := receipt.Quantities()
	requested := make(map[uuid.UUID]int64, len(deducted))

	var subtotal, cost, items int64
	lines := make([]models.SaleLineItem, 0, len(input.Lines))
	for i, line := range input.Lines {
		if line.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d: quantity must be positive", i))
		}
		if line.UnitPriceCents < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d: price must not be negative", i))
		}
		product, ok := products[line.ProductID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d: product was not deducted", i))
		}
		lineTotal, err := LineAmount(line.UnitPriceCents, line.Quantity)
		if err != nil {
			return nil, err
		}
		if requested[line.ProductID], err = AddAmount(requested[line.ProductID], line.Quantity); err != nil {
			return nil, err
		}
		lineCost, err := LineAmount(product.UnitCostCents, line.Quantity)
		if err != nil {
			return nil, err
		}
		if subtotal, err = AddAmount(subtotal, lineTotal); err != nil {
			return nil, err
		}
		if cost, err = AddAmount(cost, lineCost); err != nil {
			return nil, err
		}
		if items, err = AddAmount(items, line.Quantity); err != nil {
			return nil, err
		}
		lines = append(lines, models.SaleLineItem{
			Position:       i,
			ProductID:      product.ID,
			ProductName:    product.Name,
			Category:       product.Category,
			UnitPriceCents: line.UnitPriceCents,
			UnitCostCents:  product.UnitCostCents,
			Quantity:       line.Quantity,
			LineTotalCents: lineTotal,
			LineCostCents:  lineCost,
		})
	}
	if len(requested) != len(deducted) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale lines do not match the deduction")
	}
	for id, qty := range deducted {
		if requested[id] != qty {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale lines do not match the deduction")
		}
	}

	totals := input.Totals
	if totals.TaxCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tax must not be negative")
	}
	if totals.SubtotalCents != subtotal {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subtotal does not match line totals")
	}
	if total, err := AddAmount(totals.SubtotalCents, totals.TaxCents); err != nil || totals.TotalCents != total {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "total must equal subtotal plus tax")
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate sale id")
	}
	sale := &models.Sale{
		ID:            id,
		BusinessID:    input.BusinessID,
		BranchID:      input.BranchID,
		StaffID:       input.StaffID,
		CustomerRef:   trimmedPtr(input.CustomerRef),
		Currency:      strings.ToUpper(strings.TrimSpace(input.Currency)),
		SubtotalCents: totals.SubtotalCents,
		TaxCents:      totals.TaxCents,
		TotalCents:    totals.TotalCents,
		CostCents:     cost,
		ItemCount:     items,
		Lines:         lines,
		CreatedAt:     r.now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(sale).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert sale")
	}
	return sale, nil
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
