package product

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tillcore-backend/internal/inventory"
	"github.com/angelmondragon/tillcore-backend/internal/tenants"
	"github.com/angelmondragon/tillcore-backend/pkg/db/dbtest"
	"github.com/angelmondragon/tillcore-backend/pkg/db/models"
	"github.com/angelmondragon/tillcore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tillcore-backend/pkg/errors"
	"github.com/angelmondragon/tillcore-backend/pkg/pagination"
	"github.com/angelmondragon/tillcore-backend/pkg/visibility"
)

type catalog struct {
	conn     *gorm.DB
	svc      Service
	business models.Business
	main     models.Branch
	annex    models.Branch
	owner    visibility.Actor
}

func newCatalog(t *testing.T) *catalog {
	t.Helper()
	client, conn := dbtest.Client(t)
	c := &catalog{conn: conn}
	c.business = models.Business{Name: "Corner", Currency: enums.CurrencyUSD, Timezone: "UTC",
		SubscriptionPlan: enums.SubscriptionPlanTrial, SubscriptionStatus: enums.SubscriptionStatusTrialing, IsActive: true}
	if err := conn.Create(&c.business).Error; err != nil {
		t.Fatalf("seed business: %v", err)
	}
	c.main = models.Branch{BusinessID: c.business.ID, Name: "Main"}
	c.annex = models.Branch{BusinessID: c.business.ID, Name: "Annex"}
	for _, b := range []*models.Branch{&c.main, &c.annex} {
		if err := conn.Create(b).Error; err != nil {
			t.Fatalf("seed branch: %v", err)
		}
	}
	c.owner = visibility.Actor{StaffID: uuid.New(), BusinessID: c.business.ID, Role: enums.StaffRoleOwner}

	tick := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc, err := NewService(ServiceParams{
		DB:       client,
		Repo:     NewRepository(conn),
		Ledger:   inventory.NewLedger(conn, nil),
		Branches: tenants.NewRepository(conn),
		Clock: func() time.Time {
			tick = tick.Add(time.Second)
			return tick
		},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	c.svc = svc
	return c
}

func (c *catalog) pinned(role enums.StaffRole, branch models.Branch) visibility.Actor {
	id := branch.ID
	return visibility.Actor{StaffID: uuid.New(), BusinessID: c.business.ID, BranchID: &id, Role: role}
}

func (c *catalog) create(t *testing.T, actor visibility.Actor, branch models.Branch, name string, stock int64) *ProductDTO {
	t.Helper()
	dto, err := c.svc.CreateProduct(context.Background(), actor, CreateProductInput{
		BusinessID:    c.business.ID,
		BranchID:      branch.ID,
		Name:          name,
		Category:      "pantry",
		UnitCostCents: 120,
		InitialStock:  stock,
		Prices: []PriceInput{
			{Label: "retail", PriceCents: 250, IsDefault: true},
			{Label: "wholesale", PriceCents: 200},
		},
	})
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	return dto
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	if !pkgerrors.IsCode(err, code) {
		t.Fatalf("expected %s, got %v", code, err)
	}
}

func TestCreateProductBooksInitialStock(t *testing.T) {
	c := newCatalog(t)
	dto := c.create(t, c.owner, c.main, "Rice", 12)

	if dto.StockQty != 12 {
		t.Fatalf("expected stock 12, got %d", dto.StockQty)
	}
	if len(dto.Prices) != 2 || !dto.Prices[0].IsDefault || dto.Prices[0].PriceCents != 250 {
		t.Fatalf("unexpected prices %+v", dto.Prices)
	}
	moves, err := c.svc.ListMovements(context.Background(), c.owner, dto.ID, 10)
	if err != nil {
		t.Fatalf("movements: %v", err)
	}
	if len(moves) != 1 || moves[0].Reason != enums.StockMovementReasonInitial || moves[0].Delta != 12 {
		t.Fatalf("expected one initial movement, got %+v", moves)
	}
}

func TestCreateProductValidatesPriceList(t *testing.T) {
	c := newCatalog(t)
	cases := map[string][]PriceInput{
		"empty":        nil,
		"no default":   {{Label: "retail", PriceCents: 100}},
		"two defaults": {{Label: "a", PriceCents: 1, IsDefault: true}, {Label: "b", PriceCents: 2, IsDefault: true}},
		"dup label":    {{Label: "Retail", PriceCents: 1, IsDefault: true}, {Label: "retail ", PriceCents: 2}},
		"negative":     {{Label: "retail", PriceCents: -1, IsDefault: true}},
	}
	for name, prices := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := c.svc.CreateProduct(context.Background(), c.owner, CreateProductInput{
				BusinessID: c.business.ID,
				BranchID:   c.main.ID,
				Name:       "Beans",
				Prices:     prices,
			})
			requireCode(t, err, pkgerrors.CodeValidation)
		})
	}
}

func TestCreateProductEnforcesTenantAndRole(t *testing.T) {
	c := newCatalog(t)
	input := CreateProductInput{
		BusinessID: c.business.ID,
		BranchID:   c.annex.ID,
		Name:       "Salt",
		Prices:     []PriceInput{{Label: "retail", PriceCents: 90, IsDefault: true}},
	}

	mismatched := input
	mismatched.BusinessID = uuid.New()
	_, err := c.svc.CreateProduct(context.Background(), c.owner, mismatched)
	requireCode(t, err, pkgerrors.CodeScopeViolation)

	missing := input
	missing.BusinessID = uuid.Nil
	_, err = c.svc.CreateProduct(context.Background(), c.owner, missing)
	requireCode(t, err, pkgerrors.CodeScopeViolation)

	_, err = c.svc.CreateProduct(context.Background(), c.pinned(enums.StaffRoleCashier, c.annex), input)
	requireCode(t, err, pkgerrors.CodeForbidden)

	_, err = c.svc.CreateProduct(context.Background(), c.pinned(enums.StaffRoleManager, c.main), input)
	requireCode(t, err, pkgerrors.CodeScopeViolation)

	if _, err := c.svc.CreateProduct(context.Background(), c.pinned(enums.StaffRoleManager, c.annex), input); err != nil {
		t.Fatalf("manager of annex should create: %v", err)
	}
}

func TestWritesRejectedOnInactiveBranch(t *testing.T) {
	c := newCatalog(t)
	dto := c.create(t, c.owner, c.main, "Oil", 3)
	if err := c.conn.Model(&models.Branch{}).Where("id = ?", c.main.ID).Update("status", enums.BranchStatusInactive).Error; err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	name := "Olive Oil"
	_, err := c.svc.UpdateProduct(context.Background(), c.owner, UpdateProductInput{BusinessID: c.business.ID, ProductID: dto.ID, Name: &name})
	requireCode(t, err, pkgerrors.CodeBranchInactive)

	_, err = c.svc.RestockProduct(context.Background(), c.owner, RestockProductInput{BusinessID: c.business.ID, ProductID: dto.ID, Quantity: 5})
	requireCode(t, err, pkgerrors.CodeBranchInactive)

	_, err = c.svc.CreateProduct(context.Background(), c.owner, CreateProductInput{
		BusinessID: c.business.ID, BranchID: c.main.ID, Name: "Vinegar",
		Prices: []PriceInput{{Label: "retail", PriceCents: 90, IsDefault: true}},
	})
	requireCode(t, err, pkgerrors.CodeBranchInactive)

	got, err := c.svc.GetProduct(context.Background(), c.owner, dto.ID)
	if err != nil {
		t.Fatalf("owner should still read: %v", err)
	}
	if got.StockQty != 3 || got.Name != "Oil" {
		t.Fatalf("product changed: %+v", got)
	}
}

func TestUpdateReplacesPricesWithoutTouchingStock(t *testing.T) {
	c := newCatalog(t)
	dto := c.create(t, c.owner, c.main, "Flour", 8)

	prices := []PriceInput{{Label: "promo", PriceCents: 199, IsDefault: true}}
	archived := false
	cost := int64(130)
	updated, err := c.svc.UpdateProduct(context.Background(), c.owner, UpdateProductInput{
		BusinessID:    c.business.ID,
		ProductID:     dto.ID,
		Prices:        &prices,
		IsActive:      &archived,
		UnitCostCents: &cost,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.StockQty != 8 {
		t.Fatalf("stock must not change, got %d", updated.StockQty)
	}
	if len(updated.Prices) != 1 || updated.Prices[0].Label != "promo" || updated.IsActive || updated.UnitCostCents != 130 {
		t.Fatalf("unexpected update result %+v", updated)
	}
}

func TestRestockAndScopedReads(t *testing.T) {
	c := newCatalog(t)
	mainItem := c.create(t, c.owner, c.main, "Sugar", 1)
	c.create(t, c.owner, c.annex, "Tea", 1)

	res, err := c.svc.RestockProduct(context.Background(), c.pinned(enums.StaffRoleManager, c.main), RestockProductInput{
		BusinessID: c.business.ID, ProductID: mainItem.ID, Quantity: 4,
	})
	if err != nil {
		t.Fatalf("restock: %v", err)
	}
	if res.StockQty != 5 {
		t.Fatalf("expected 5 after restock, got %d", res.StockQty)
	}

	_, err = c.svc.RestockProduct(context.Background(), c.pinned(enums.StaffRoleManager, c.annex), RestockProductInput{
		BusinessID: c.business.ID, ProductID: mainItem.ID, Quantity: 4,
	})
	requireCode(t, err, pkgerrors.CodeScopeViolation)

	cashier := c.pinned(enums.StaffRoleCashier, c.annex)
	page, err := c.svc.ListProducts(context.Background(), cashier, ListProductsInput{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].Name != "Tea" {
		t.Fatalf("cashier should only see the annex catalog, got %+v", page.Items)
	}
	_, err = c.svc.GetProduct(context.Background(), cashier, mainItem.ID)
	requireCode(t, err, pkgerrors.CodeNotFound)

	stranger := visibility.Actor{StaffID: uuid.New(), BusinessID: uuid.New(), Role: enums.StaffRoleOwner}
	_, err = c.svc.GetProduct(context.Background(), stranger, mainItem.ID)
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestListProductsFiltersAndPages(t *testing.T) {
	c := newCatalog(t)
	for _, name := range []string{"Apple Juice", "Apple Pie", "Bread", "Apple Cider"} {
		c.create(t, c.owner, c.main, name, 1)
	}

	first, err := c.svc.ListProducts(context.Background(), c.owner, ListProductsInput{
		Query:      "apple",
		Pagination: pagination.Params{Limit: 2},
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(first.Items) != 2 || first.NextCursor == "" {
		t.Fatalf("expected a full first page with cursor, got %+v", first)
	}
	if first.Items[0].Name != "Apple Cider" || first.Items[1].Name != "Apple Pie" {
		t.Fatalf("expected newest first, got %s, %s", first.Items[0].Name, first.Items[1].Name)
	}

	second, err := c.svc.ListProducts(context.Background(), c.owner, ListProductsInput{
		Query:      "apple",
		Pagination: pagination.Params{Limit: 2, Cursor: first.NextCursor},
	})
	if err != nil {
		t.Fatalf("list page 2: %v", err)
	}
	if len(second.Items) != 1 || second.Items[0].Name != "Apple Juice" || second.NextCursor != "" {
		t.Fatalf("unexpected second page %+v", second)
	}

	branchID := c.annex.ID
	empty, err := c.svc.ListProducts(context.Background(), c.owner, ListProductsInput{Filter: visibility.Filter{BranchID: &branchID}})
	if err != nil {
		t.Fatalf("list annex: %v", err)
	}
	if len(empty.Items) != 0 {
		t.Fatalf("annex has no products, got %d", len(empty.Items))
	}
}
