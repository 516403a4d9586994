package sales

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tillcore-backend/internal/inventory"
	"github.com/angelmondragon/tillcore-backend/pkg/db/dbtest"
	"github.com/angelmondragon/tillcore-backend/pkg/db/models"
	"github.com/angelmondragon/tillcore-backend/pkg/enums"
	"github.com/angelmondragon/tillcore-backend/pkg/visibility"
)

type world struct {
	conn     *gorm.DB
	ledger   *inventory.Ledger
	business models.Business
	main     models.Branch
	harbor   models.Branch
	owner    visibility.Actor
}

func newWorld(t *testing.T, timezone string) *world {
	t.Helper()
	conn := dbtest.Open(t)
	w := &world{conn: conn, ledger: inventory.NewLedger(conn, nil)}
	w.business = models.Business{Name: "Shop", Currency: enums.CurrencyUSD, Timezone: timezone,
		SubscriptionPlan: enums.SubscriptionPlanTrial, SubscriptionStatus: enums.SubscriptionStatusTrialing, IsActive: true}
	if err := conn.Create(&w.business).Error; err != nil {
		t.Fatalf("seed business: %v", err)
	}
	w.main = models.Branch{BusinessID: w.business.ID, Name: "Main"}
	w.harbor = models.Branch{BusinessID: w.business.ID, Name: "Harbor"}
	for _, b := range []*models.Branch{&w.main, &w.harbor} {
		if err := conn.Create(b).Error; err != nil {
			t.Fatalf("seed branch: %v", err)
		}
	}
	w.owner = visibility.Actor{StaffID: uuid.New(), BusinessID: w.business.ID, Role: enums.StaffRoleOwner}
	return w
}

func (w *world) product(t *testing.T, branch models.Branch, name string, costCents, stock int64) models.Product {
	t.Helper()
	p := models.Product{
		BusinessID:    w.business.ID,
		BranchID:      branch.ID,
		Name:          name,
		Category:      "grocery",
		UnitCostCents: costCents,
		StockQty:      stock,
		IsActive:      true,
		Prices:        []models.ProductPrice{{Label: "retail", PriceCents: costCents * 2, IsDefault: true}},
	}
	if err := w.conn.Create(&p).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return p
}

func (w *world) pinned(role enums.StaffRole, branch models.Branch) visibility.Actor {
	id := branch.ID
	return visibility.Actor{StaffID: uuid.New(), BusinessID: w.business.ID, BranchID: &id, Role: role}
}

// sell deducts and records one sale at the given instant with a flat price.
func (w *world) sell(t *testing.T, staff visibility.Actor, branch models.Branch, at time.Time, taxCents int64, lines ...LineInput) *models.Sale {
	t.Helper()
	recorder := NewRecorder(w.conn).WithClock(func() time.Time { return at })
	var sale *models.Sale
	err := w.conn.Transaction(func(tx *gorm.DB) error {
		req := make([]inventory.Line, 0, len(lines))
		var subtotal int64
		for _, l := range lines {
			req = append(req, inventory.Line{ProductID: l.ProductID, Quantity: l.Quantity})
			subtotal += l.UnitPriceCents * l.Quantity
		}
		receipt, err := w.ledger.Deduct(context.Background(), tx, inventory.DeductInput{BranchID: branch.ID, ActorID: staff.StaffID, Lines: req})
		if err != nil {
			return err
		}
		sale, err = recorder.Record(context.Background(), tx, receipt, RecordInput{
			BusinessID: w.business.ID,
			BranchID:   branch.ID,
			StaffID:    staff.StaffID,
			Currency:   "usd",
			Lines:      lines,
			Totals:     Totals{SubtotalCents: subtotal, TaxCents: taxCents, TotalCents: subtotal + taxCents},
		})
		return err
	})
	if err != nil {
		t.Fatalf("sell: %v", err)
	}
	return sale
}
