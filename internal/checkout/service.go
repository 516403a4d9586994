// Package checkout runs the point-of-sale transaction: deduct stock, price
// the lines, record the sale. Either all of it commits or none of it does.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/tillcore-backend/internal/inventory"
	"github.com/angelmondragon/tillcore-backend/internal/sales"
	"github.com/angelmondragon/tillcore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/tillcore-backend/pkg/errors"
	"github.com/angelmondragon/tillcore-backend/pkg/logger"
	"github.com/angelmondragon/tillcore-backend/pkg/metrics"
	"github.com/angelmondragon/tillcore-backend/pkg/visibility"
)

const basisPointsPerUnit = 10000

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type stockLedger interface {
	Lock(branchID uuid.UUID) func()
	Deduct(ctx context.Context, tx *gorm.DB, input inventory.DeductInput) (*inventory.Deduction, error)
}

type saleRecorder interface {
	Record(ctx context.Context, tx *gorm.DB, receipt *inventory.Deduction, input sales.RecordInput) (*models.Sale, error)
}

type tenantLoader interface {
	FindBusiness(ctx context.Context, id uuid.UUID) (*models.Business, error)
	FindBranchByID(ctx context.Context, branchID uuid.UUID) (*models.Branch, error)
}

// Service executes checkout orchestration.
type Service interface {
	Execute(ctx context.Context, actor visibility.Actor, req Request) (*sales.SaleDTO, error)
}

// Request is a cart submitted at the till.
type Request struct {
	BranchID    uuid.UUID
	Lines       []LineRequest
	CustomerRef *string
}

// LineRequest sells a quantity of a product. UnitPriceCents picks one of the
// product's sell prices; nil means the default price.
type LineRequest struct {
	ProductID      uuid.UUID
	Quantity       int64
	UnitPriceCents *int64
}

// ServiceParams bundles the dependencies required to build a checkout service.
type ServiceParams struct {
	DB       txRunner
	Ledger   stockLedger
	Recorder saleRecorder
	Tenants  tenantLoader
	Metrics  *metrics.CheckoutMetrics
	Logger   *logger.Logger
}

type service struct {
	db       txRunner
	ledger   stockLedger
	recorder saleRecorder
	tenants  tenantLoader
	metrics  *metrics.CheckoutMetrics
	logg     *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if params.Recorder == nil {
		return nil, fmt.Errorf("sale recorder required")
	}
	if params.Tenants == nil {
		return nil, fmt.Errorf("tenant loader required")
	}
	return &service{
		db:       params.DB,
		ledger:   params.Ledger,
		recorder: params.Recorder,
		tenants:  params.Tenants,
		metrics:  params.Metrics,
		logg:     params.Logger,
	}, nil
}

func (s *service) Execute(ctx context.Context, actor visibility.Actor, req Request) (result *sales.SaleDTO, err error) {
	started := time.Now()
	defer func() {
		s.metrics.Observe(Outcome(err), time.Since(started), len(req.Lines))
	}()

	if !actor.Role.CanSell() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role may not sell")
	}
	if req.BranchID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "branch id is required")
	}
	if len(req.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one line is required")
	}
	for i, line := range req.Lines {
		if line.UnitPriceCents != nil && *line.UnitPriceCents < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d: price must not be negative", i))
		}
	}

	branch, err := s.tenants.FindBranchByID(ctx, req.BranchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "branch not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load branch")
	}
	if !visibility.For(actor).AllowsBranch(branch.BusinessID, branch.ID) {
		return nil, pkgerrors.New(pkgerrors.CodeScopeViolation, "branch outside actor scope")
	}
	if !branch.IsActive() {
		return nil, pkgerrors.New(pkgerrors.CodeBranchInactive, "branch is inactive").
			WithDetails(map[string]any{"branch_id": branch.ID})
	}
	business, err := s.tenants.FindBusiness(ctx, branch.BusinessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load business")
	}

	unlock := s.ledger.Lock(branch.ID)
	defer unlock()

	var sale *models.Sale
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		stockLines := make([]inventory.Line, 0, len(req.Lines))
		for _, line := range req.Lines {
			stockLines = append(stockLines, inventory.Line{ProductID: line.ProductID, Quantity: line.Quantity})
		}
		receipt, err := s.ledger.Deduct(ctx, tx, inventory.DeductInput{
			BranchID: branch.ID,
			ActorID:  actor.StaffID,
			Lines:    stockLines,
		})
		if err != nil {
			return err
		}

		priced, err := priceLines(receipt, req.Lines)
		if err != nil {
			return err
		}
		totals, err := ComputeTotals(priced, business.TaxRateBps)
		if err != nil {
			return err
		}

		sale, err = s.recorder.Record(ctx, tx, receipt, sales.RecordInput{
			BusinessID:  business.ID,
			BranchID:    branch.ID,
			StaffID:     actor.StaffID,
			CustomerRef: req.CustomerRef,
			Currency:    business.Currency.String(),
			Lines:       priced,
			Totals:      totals,
		})
		return err
	})
	if err != nil {
		s.logFailure(ctx, err)
		return nil, pkgerrors.Passthrough(err, pkgerrors.CodeDependency, "checkout")
	}

	if s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{"sale_id": sale.ID.String(), "total_cents": sale.TotalCents})
		s.logg.Info(ctx, "checkout completed")
	}
	dto := sales.FromModel(sale)
	return &dto, nil
}

func (s *service) logFailure(ctx context.Context, err error) {
	if s.logg == nil {
		return
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		s.logg.Error(ctx, "checkout failed", err)
		return
	}
	switch typed.Code() {
	case pkgerrors.CodeUnknownProduct, pkgerrors.CodeScopeViolation:
		s.logg.Warn(s.logg.WithField(ctx, "reason", typed.Message()), "checkout rejected")
	case pkgerrors.CodeDependency, pkgerrors.CodeInternal:
		s.logg.Error(ctx, "checkout failed", err)
	}
}

// priceLines resolves each requested line against the sell prices captured
// on the deduction receipt.
func priceLines(receipt *inventory.Deduction, lines []LineRequest) ([]sales.LineInput, error) {
	products := make(map[uuid.UUID]models.Product)
	for _, line := range receipt.Lines() {
		products[line.Product.ID] = line.Product
	}
	out := make([]sales.LineInput, 0, len(lines))
	for i, line := range lines {
		product, ok := products[line.ProductID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeUnknownProduct, fmt.Sprintf("product %s was not deducted", line.ProductID))
		}
		price, err := resolvePrice(product, line.UnitPriceCents)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d: %s", i, err.Error()))
		}
		out = append(out, sales.LineInput{ProductID: product.ID, Quantity: line.Quantity, UnitPriceCents: price})
	}
	return out, nil
}

func resolvePrice(product models.Product, requested *int64) (int64, error) {
	if requested == nil {
		price, ok := product.DefaultPrice()
		if !ok {
			return 0, fmt.Errorf("product %s has no default price", product.ID)
		}
		return price.PriceCents, nil
	}
	for _, price := range product.Prices {
		if price.PriceCents == *requested {
			return price.PriceCents, nil
		}
	}
	return 0, fmt.Errorf("%d is not a sell price of product %s", *requested, product.ID)
}

// ComputeTotals sums the lines and applies the tax rate, rounding half up to
// the minor unit.
func ComputeTotals(lines []sales.LineInput, taxRateBps int) (sales.Totals, error) {
	var subtotal int64
	for _, line := range lines {
		amount, err := sales.LineAmount(line.UnitPriceCents, line.Quantity)
		if err != nil {
			return sales.Totals{}, err
		}
		if subtotal, err = sales.AddAmount(subtotal, amount); err != nil {
			return sales.Totals{}, err
		}
	}
	tax := decimal.NewFromInt(subtotal).
		Mul(decimal.NewFromInt(int64(taxRateBps))).
		Div(decimal.NewFromInt(basisPointsPerUnit)).
		Round(0)
	if tax.GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
		return sales.Totals{}, pkgerrors.New(pkgerrors.CodeValidation, "sale amount out of range")
	}
	total, err := sales.AddAmount(subtotal, tax.IntPart())
	if err != nil {
		return sales.Totals{}, err
	}
	return sales.Totals{SubtotalCents: subtotal, TaxCents: tax.IntPart(), TotalCents: total}, nil
}

// Outcome maps a checkout result to its metrics label.
func Outcome(err error) string {
	if err == nil {
		return metrics.CheckoutOutcomeCompleted
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		return metrics.CheckoutOutcomeFailed
	}
	switch typed.Code() {
	case pkgerrors.CodeInsufficientStock:
		return metrics.CheckoutOutcomeInsufficientStock
	case pkgerrors.CodeUnknownProduct:
		return metrics.CheckoutOutcomeUnknownProduct
	case pkgerrors.CodeBranchInactive:
		return metrics.CheckoutOutcomeBranchInactive
	case pkgerrors.CodeValidation, pkgerrors.CodeForbidden, pkgerrors.CodeScopeViolation, pkgerrors.CodeNotFound:
		return metrics.CheckoutOutcomeRejected
	default:
		return metrics.CheckoutOutcomeFailed
	}
}
