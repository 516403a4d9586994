package checkout

import (
	"context"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"gorm.io/gorm"

	"github.com/angelmondragon/tillcore-backend/internal/inventory"
	product "github.com/angelmondragon/tillcore-backend/internal/products"
	"github.com/angelmondragon/tillcore-backend/internal/sales"
	"github.com/angelmondragon/tillcore-backend/internal/tenants"
	"github.com/angelmondragon/tillcore-backend/pkg/db"
	"github.com/angelmondragon/tillcore-backend/pkg/db/dbtest"
	"github.com/angelmondragon/tillcore-backend/pkg/db/models"
	"github.com/angelmondragon/tillcore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tillcore-backend/pkg/errors"
	"github.com/angelmondragon/tillcore-backend/pkg/metrics"
	"github.com/angelmondragon/tillcore-backend/pkg/visibility"
)

type fixture struct {
	client   *db.Client
	conn     *gorm.DB
	svc      Service
	registry *prometheus.Registry
	business models.Business
	main     models.Branch
	other    models.Branch
	owner    visibility.Actor
}

func newFixture(t *testing.T, taxRateBps int) *fixture {
	t.Helper()
	client, conn := dbtest.Client(t)

	f := &fixture{client: client, conn: conn, registry: prometheus.NewRegistry()}
	f.business = models.Business{Name: "Corner", Currency: enums.CurrencyUSD, Timezone: "UTC", TaxRateBps: taxRateBps,
		SubscriptionPlan: enums.SubscriptionPlanTrial, SubscriptionStatus: enums.SubscriptionStatusTrialing, IsActive: true}
	if err := conn.Create(&f.business).Error; err != nil {
		t.Fatalf("seed business: %v", err)
	}
	f.main = models.Branch{BusinessID: f.business.ID, Name: "Main"}
	f.other = models.Branch{BusinessID: f.business.ID, Name: "Depot"}
	for _, b := range []*models.Branch{&f.main, &f.other} {
		if err := conn.Create(b).Error; err != nil {
			t.Fatalf("seed branch: %v", err)
		}
	}
	f.owner = visibility.Actor{StaffID: uuid.New(), BusinessID: f.business.ID, Role: enums.StaffRoleOwner}

	svc, err := NewService(ServiceParams{
		DB:       client,
		Ledger:   inventory.NewLedger(conn, inventory.NewLocker()),
		Recorder: sales.NewRecorder(conn),
		Tenants:  tenants.NewRepository(conn),
		Metrics:  metrics.NewCheckoutMetrics(f.registry),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	f.svc = svc
	return f
}

func (f *fixture) product(t *testing.T, branch models.Branch, name string, stock int64, prices ...models.ProductPrice) models.Product {
	t.Helper()
	p := models.Product{
		BusinessID:    f.business.ID,
		BranchID:      branch.ID,
		Name:          name,
		Category:      "snacks",
		UnitCostCents: 100,
		StockQty:      stock,
		IsActive:      true,
		Prices:        prices,
	}
	if err := f.conn.Create(&p).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return p
}

func (f *fixture) stock(t *testing.T, productID uuid.UUID) int64 {
	t.Helper()
	var p models.Product
	if err := f.conn.First(&p, "id = ?", productID).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	return p.StockQty
}

func (f *fixture) saleCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	if err := f.conn.Model(&models.Sale{}).Count(&n).Error; err != nil {
		t.Fatalf("count sales: %v", err)
	}
	return n
}

func (f *fixture) outcomes(t *testing.T, outcome string) float64 {
	t.Helper()
	families, err := f.registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, family := range families {
		if family.GetName() != "tillcore_checkout_outcomes_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			if labelValue(metric, "outcome") == outcome {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func labelValue(metric *dto.Metric, name string) string {
	for _, pair := range metric.GetLabel() {
		if pair.GetName() == name {
			return pair.GetValue()
		}
	}
	return ""
}

func retail(cents int64) models.ProductPrice {
	return models.ProductPrice{Label: "retail", PriceCents: cents, IsDefault: true}
}

func int64Ptr(v int64) *int64 { return &v }

func TestExecuteRecordsSaleWithTax(t *testing.T) {
	f := newFixture(t, 825)
	chips := f.product(t, f.main, "Chips", 10, retail(199), models.ProductPrice{Label: "promo", PriceCents: 150})
	soda := f.product(t, f.main, "Soda", 5, retail(250))

	sale, err := f.svc.Execute(context.Background(), f.owner, Request{
		BranchID: f.main.ID,
		Lines: []LineRequest{
			{ProductID: chips.ID, Quantity: 2},
			{ProductID: soda.ID, Quantity: 1},
			{ProductID: chips.ID, Quantity: 1, UnitPriceCents: int64Ptr(150)},
		},
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	// 2*199 + 250 + 150 = 798; 798 * 8.25% = 65.835 -> 66
	if sale.SubtotalCents != 798 || sale.TaxCents != 66 || sale.TotalCents != 864 {
		t.Fatalf("unexpected totals: %+v", sale)
	}
	if sale.Currency != "USD" {
		t.Fatalf("expected USD, got %s", sale.Currency)
	}
	if len(sale.Lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(sale.Lines))
	}
	if got := f.stock(t, chips.ID); got != 7 {
		t.Fatalf("expected chips stock 7, got %d", got)
	}
	if got := f.stock(t, soda.ID); got != 4 {
		t.Fatalf("expected soda stock 4, got %d", got)
	}
	if got := f.outcomes(t, metrics.CheckoutOutcomeCompleted); got != 1 {
		t.Fatalf("expected one completed outcome, got %v", got)
	}
}

func TestRecordedSaleSurvivesPriceEdit(t *testing.T) {
	f := newFixture(t, 1000)
	soap := f.product(t, f.main, "Soap", 10, retail(1000))
	ctx := context.Background()

	sold, err := f.svc.Execute(ctx, f.owner, Request{
		BranchID: f.main.ID,
		Lines:    []LineRequest{{ProductID: soap.ID, Quantity: 3}},
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	products, err := product.NewService(product.ServiceParams{
		DB:       f.client,
		Repo:     product.NewRepository(f.conn),
		Ledger:   inventory.NewLedger(f.conn, nil),
		Branches: tenants.NewRepository(f.conn),
	})
	if err != nil {
		t.Fatalf("product service: %v", err)
	}
	renamed := "Lavender Soap"
	prices := []product.PriceInput{{Label: "retail", PriceCents: 1200, IsDefault: true}}
	updated, err := products.UpdateProduct(ctx, f.owner, product.UpdateProductInput{
		BusinessID: f.business.ID,
		ProductID:  soap.ID,
		Name:       &renamed,
		Prices:     &prices,
	})
	if err != nil {
		t.Fatalf("update product: %v", err)
	}
	if len(updated.Prices) != 1 || updated.Prices[0].PriceCents != 1200 {
		t.Fatalf("price list not replaced: %+v", updated.Prices)
	}

	reread, err := sales.NewRecorder(f.conn).Get(ctx, f.owner, sold.ID)
	if err != nil {
		t.Fatalf("get sale: %v", err)
	}
	if reread.SubtotalCents != 3000 || reread.TaxCents != 300 || reread.TotalCents != 3300 {
		t.Fatalf("totals changed after price edit: %+v", reread)
	}
	if reread.SubtotalCents != sold.SubtotalCents || reread.TotalCents != sold.TotalCents {
		t.Fatalf("re-read differs from recorded sale: %+v vs %+v", reread, sold)
	}
	if len(reread.Lines) != 1 {
		t.Fatalf("expected one line, got %d", len(reread.Lines))
	}
	line := reread.Lines[0]
	if line.UnitPriceCents != 1000 || line.LineTotalCents != 3000 || line.ProductName != "Soap" {
		t.Fatalf("line snapshot changed after price edit: %+v", line)
	}

	next, err := f.svc.Execute(ctx, f.owner, Request{
		BranchID: f.main.ID,
		Lines:    []LineRequest{{ProductID: soap.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("execute after edit: %v", err)
	}
	if next.Lines[0].UnitPriceCents != 1200 {
		t.Fatalf("new sales should use the edited price, got %d", next.Lines[0].UnitPriceCents)
	}
}

func TestExecuteInsufficientStockLeavesNothingBehind(t *testing.T) {
	f := newFixture(t, 0)
	bread := f.product(t, f.main, "Bread", 3, retail(300))
	milk := f.product(t, f.main, "Milk", 1, retail(120))

	_, err := f.svc.Execute(context.Background(), f.owner, Request{
		BranchID: f.main.ID,
		Lines: []LineRequest{
			{ProductID: bread.ID, Quantity: 2},
			{ProductID: milk.ID, Quantity: 2},
		},
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if got := f.stock(t, bread.ID); got != 3 {
		t.Fatalf("bread stock should be untouched, got %d", got)
	}
	if got := f.saleCount(t); got != 0 {
		t.Fatalf("expected no sale, got %d", got)
	}
	if got := f.outcomes(t, metrics.CheckoutOutcomeInsufficientStock); got != 1 {
		t.Fatalf("expected insufficient stock outcome, got %v", got)
	}
}

func TestExecuteRejectsPriceOutsideList(t *testing.T) {
	f := newFixture(t, 0)
	tea := f.product(t, f.main, "Tea", 4, retail(220))

	_, err := f.svc.Execute(context.Background(), f.owner, Request{
		BranchID: f.main.ID,
		Lines:    []LineRequest{{ProductID: tea.ID, Quantity: 1, UnitPriceCents: int64Ptr(1)}},
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if got := f.stock(t, tea.ID); got != 4 {
		t.Fatalf("deduction should roll back, stock=%d", got)
	}
	if got := f.outcomes(t, metrics.CheckoutOutcomeRejected); got != 1 {
		t.Fatalf("expected rejected outcome, got %v", got)
	}
}

func TestExecuteUnknownProduct(t *testing.T) {
	f := newFixture(t, 0)
	_, err := f.svc.Execute(context.Background(), f.owner, Request{
		BranchID: f.main.ID,
		Lines:    []LineRequest{{ProductID: uuid.New(), Quantity: 1}},
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnknownProduct) {
		t.Fatalf("expected unknown product, got %v", err)
	}
	if got := f.outcomes(t, metrics.CheckoutOutcomeUnknownProduct); got != 1 {
		t.Fatalf("expected unknown product outcome, got %v", got)
	}
}

func TestExecuteEnforcesRoleAndScope(t *testing.T) {
	f := newFixture(t, 0)
	item := f.product(t, f.other, "Gum", 9, retail(50))
	req := Request{BranchID: f.other.ID, Lines: []LineRequest{{ProductID: item.ID, Quantity: 1}}}

	accountant := visibility.Actor{StaffID: uuid.New(), BusinessID: f.business.ID, Role: enums.StaffRoleAccountant}
	if _, err := f.svc.Execute(context.Background(), accountant, req); !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("accountant should not sell, got %v", err)
	}

	mainID := f.main.ID
	cashier := visibility.Actor{StaffID: uuid.New(), BusinessID: f.business.ID, BranchID: &mainID, Role: enums.StaffRoleCashier}
	if _, err := f.svc.Execute(context.Background(), cashier, req); !pkgerrors.IsCode(err, pkgerrors.CodeScopeViolation) {
		t.Fatalf("cashier pinned to another branch, got %v", err)
	}

	stranger := visibility.Actor{StaffID: uuid.New(), BusinessID: uuid.New(), Role: enums.StaffRoleOwner}
	if _, err := f.svc.Execute(context.Background(), stranger, req); !pkgerrors.IsCode(err, pkgerrors.CodeScopeViolation) {
		t.Fatalf("foreign owner should be rejected, got %v", err)
	}
	if got := f.stock(t, item.ID); got != 9 {
		t.Fatalf("stock changed: %d", got)
	}
	if got := f.outcomes(t, metrics.CheckoutOutcomeRejected); got != 3 {
		t.Fatalf("expected 3 rejected outcomes, got %v", got)
	}
}

func TestExecuteInactiveBranch(t *testing.T) {
	f := newFixture(t, 0)
	item := f.product(t, f.main, "Candle", 2, retail(500))
	if err := f.conn.Model(&models.Branch{}).Where("id = ?", f.main.ID).Update("status", enums.BranchStatusInactive).Error; err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	_, err := f.svc.Execute(context.Background(), f.owner, Request{
		BranchID: f.main.ID,
		Lines:    []LineRequest{{ProductID: item.ID, Quantity: 1}},
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeBranchInactive) {
		t.Fatalf("expected branch inactive, got %v", err)
	}
	if got := f.outcomes(t, metrics.CheckoutOutcomeBranchInactive); got != 1 {
		t.Fatalf("expected branch inactive outcome, got %v", got)
	}
}

func TestExecuteValidatesRequest(t *testing.T) {
	f := newFixture(t, 0)
	cases := []Request{
		{Lines: []LineRequest{{ProductID: uuid.New(), Quantity: 1}}},
		{BranchID: f.main.ID},
		{BranchID: f.main.ID, Lines: []LineRequest{{ProductID: uuid.New(), Quantity: 1, UnitPriceCents: int64Ptr(-5)}}},
	}
	for i, req := range cases {
		if _, err := f.svc.Execute(context.Background(), f.owner, req); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestComputeTotalsRoundsHalfUp(t *testing.T) {
	lines := []sales.LineInput{{Quantity: 1, UnitPriceCents: 10}}
	got, err := ComputeTotals(lines, 500)
	if err != nil || got.TaxCents != 1 || got.TotalCents != 11 {
		t.Fatalf("expected 0.5 to round up, got %+v err=%v", got, err)
	}
	got, err = ComputeTotals(lines, 0)
	if err != nil || got.TaxCents != 0 || got.SubtotalCents != 10 {
		t.Fatalf("unexpected zero-rate totals %+v err=%v", got, err)
	}
}

func TestComputeTotalsRejectsOverflow(t *testing.T) {
	cases := map[string][]sales.LineInput{
		"line product": {{Quantity: 1 << 40, UnitPriceCents: 1 << 40}},
		"subtotal sum": {{Quantity: 1, UnitPriceCents: math.MaxInt64}, {Quantity: 1, UnitPriceCents: 1}},
		"tax on top":   {{Quantity: 1, UnitPriceCents: math.MaxInt64 - 10}},
	}
	for name, lines := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ComputeTotals(lines, 1000); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestOutcomeMapping(t *testing.T) {
	cases := map[string]error{
		metrics.CheckoutOutcomeCompleted:         nil,
		metrics.CheckoutOutcomeInsufficientStock: pkgerrors.New(pkgerrors.CodeInsufficientStock, "short"),
		metrics.CheckoutOutcomeUnknownProduct:    pkgerrors.New(pkgerrors.CodeUnknownProduct, "gone"),
		metrics.CheckoutOutcomeBranchInactive:    pkgerrors.New(pkgerrors.CodeBranchInactive, "closed"),
		metrics.CheckoutOutcomeRejected:          pkgerrors.New(pkgerrors.CodeScopeViolation, "nope"),
		metrics.CheckoutOutcomeFailed:            context.DeadlineExceeded,
	}
	for want, err := range cases {
		if got := Outcome(err); got != want {
			t.Fatalf("Outcome(%v) = %s, want %s", err, got, want)
		}
	}
}
