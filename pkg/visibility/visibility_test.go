package visibility

import (
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/tillcore-backend/pkg/db/dbtest"
	"github.com/angelmondragon/tillcore-backend/pkg/db/models"
	"github.com/angelmondragon/tillcore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tillcore-backend/pkg/errors"
)

type fixture struct {
	business, otherBusiness uuid.UUID
	branchA, branchB        uuid.UUID
	cashier, otherCashier   uuid.UUID
}

func newFixture() fixture {
	return fixture{
		business:      uuid.New(),
		otherBusiness: uuid.New(),
		branchA:       uuid.New(),
		branchB:       uuid.New(),
		cashier:       uuid.New(),
		otherCashier:  uuid.New(),
	}
}

func ptr(id uuid.UUID) *uuid.UUID { return &id }

func TestForRoleMatrix(t *testing.T) {
	f := newFixture()
	saleA := Record{BusinessID: f.business, BranchID: f.branchA, StaffID: ptr(f.cashier)}
	saleAOther := Record{BusinessID: f.business, BranchID: f.branchA, StaffID: ptr(f.otherCashier)}
	saleB := Record{BusinessID: f.business, BranchID: f.branchB, StaffID: ptr(f.otherCashier)}
	foreign := Record{BusinessID: f.otherBusiness, BranchID: f.branchA, StaffID: ptr(f.cashier)}
	productA := Record{BusinessID: f.business, BranchID: f.branchA}

	cases := []struct {
		name  string
		actor Actor
		want  map[string]bool
	}{
		{
			name:  "owner sees whole business",
			actor: Actor{StaffID: uuid.New(), BusinessID: f.business, Role: enums.StaffRoleOwner},
			want:  map[string]bool{"saleA": true, "saleAOther": true, "saleB": true, "foreign": false, "productA": true},
		},
		{
			name:  "accountant sees whole business",
			actor: Actor{StaffID: uuid.New(), BusinessID: f.business, Role: enums.StaffRoleAccountant},
			want:  map[string]bool{"saleA": true, "saleAOther": true, "saleB": true, "foreign": false, "productA": true},
		},
		{
			name:  "manager sees own branch",
			actor: Actor{StaffID: uuid.New(), BusinessID: f.business, BranchID: ptr(f.branchA), Role: enums.StaffRoleManager},
			want:  map[string]bool{"saleA": true, "saleAOther": true, "saleB": false, "foreign": false, "productA": true},
		},
		{
			name:  "cashier sees own records",
			actor: Actor{StaffID: f.cashier, BusinessID: f.business, BranchID: ptr(f.branchA), Role: enums.StaffRoleCashier},
			want:  map[string]bool{"saleA": true, "saleAOther": false, "saleB": false, "foreign": false, "productA": true},
		},
		{
			name:  "pinned role without branch is denied",
			actor: Actor{StaffID: f.cashier, BusinessID: f.business, Role: enums.StaffRoleStaff},
			want:  map[string]bool{"saleA": false, "saleAOther": false, "saleB": false, "foreign": false, "productA": false},
		},
		{
			name:  "unknown role is denied",
			actor: Actor{StaffID: uuid.New(), BusinessID: f.business, Role: enums.StaffRole("auditor")},
			want:  map[string]bool{"saleA": false, "saleAOther": false, "saleB": false, "foreign": false, "productA": false},
		},
	}

	records := map[string]Record{"saleA": saleA, "saleAOther": saleAOther, "saleB": saleB, "foreign": foreign, "productA": productA}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			scope := For(tc.actor)
			for name, rec := range records {
				if got := scope.Allows(rec); got != tc.want[name] {
					t.Fatalf("%s: Allows=%v want %v", name, got, tc.want[name])
				}
			}
		})
	}
}

func TestNarrowRejectsWidening(t *testing.T) {
	f := newFixture()
	manager := For(Actor{StaffID: uuid.New(), BusinessID: f.business, BranchID: ptr(f.branchA), Role: enums.StaffRoleManager})

	if _, err := manager.Narrow(Filter{BranchID: ptr(f.branchB)}); !pkgerrors.IsCode(err, pkgerrors.CodeScopeViolation) {
		t.Fatalf("expected scope violation for foreign branch, got %v", err)
	}
	if _, err := manager.Narrow(Filter{BusinessID: ptr(f.otherBusiness)}); !pkgerrors.IsCode(err, pkgerrors.CodeScopeViolation) {
		t.Fatalf("expected scope violation for foreign business, got %v", err)
	}

	narrowed, err := manager.Narrow(Filter{BranchID: ptr(f.branchA), StaffID: ptr(f.cashier)})
	if err != nil {
		t.Fatalf("narrow within scope: %v", err)
	}
	if narrowed.Allows(Record{BusinessID: f.business, BranchID: f.branchA, StaffID: ptr(f.otherCashier)}) {
		t.Fatalf("narrowed scope should exclude other staff")
	}

	cashier := For(Actor{StaffID: f.cashier, BusinessID: f.business, BranchID: ptr(f.branchA), Role: enums.StaffRoleCashier})
	if _, err := cashier.Narrow(Filter{StaffID: ptr(f.otherCashier)}); !pkgerrors.IsCode(err, pkgerrors.CodeScopeViolation) {
		t.Fatalf("cashier must not read another cashier, got %v", err)
	}

	denied := For(Actor{})
	if _, err := denied.Narrow(Filter{}); !pkgerrors.IsCode(err, pkgerrors.CodeScopeViolation) {
		t.Fatalf("deny-all scope must refuse narrowing, got %v", err)
	}
}

func TestNarrowOwnerToBranch(t *testing.T) {
	f := newFixture()
	owner := For(Actor{StaffID: uuid.New(), BusinessID: f.business, Role: enums.StaffRoleOwner})
	narrowed, err := owner.Narrow(Filter{BranchID: ptr(f.branchB)})
	if err != nil {
		t.Fatalf("owner narrowing: %v", err)
	}
	if narrowed.AllowsBranch(f.business, f.branchA) || !narrowed.AllowsBranch(f.business, f.branchB) {
		t.Fatalf("narrowed owner scope should only admit branch B")
	}
}

func TestApplyMatchesAllows(t *testing.T) {
	db := dbtest.Open(t)
	f := newFixture()

	seed := []models.Sale{
		newSale(f.business, f.branchA, f.cashier),
		newSale(f.business, f.branchA, f.otherCashier),
		newSale(f.business, f.branchB, f.otherCashier),
		newSale(f.otherBusiness, f.branchA, f.cashier),
	}
	for i := range seed {
		if err := db.Create(&seed[i]).Error; err != nil {
			t.Fatalf("seed sale: %v", err)
		}
	}

	actors := []Actor{
		{StaffID: uuid.New(), BusinessID: f.business, Role: enums.StaffRoleOwner},
		{StaffID: uuid.New(), BusinessID: f.business, BranchID: ptr(f.branchA), Role: enums.StaffRoleManager},
		{StaffID: f.cashier, BusinessID: f.business, BranchID: ptr(f.branchA), Role: enums.StaffRoleCashier},
		{StaffID: f.cashier, BusinessID: f.business, Role: enums.StaffRoleCashier},
	}
	for _, actor := range actors {
		scope := For(actor)
		var rows []models.Sale
		if err := scope.Apply(db.Model(&models.Sale{}), SaleColumns).Find(&rows).Error; err != nil {
			t.Fatalf("query: %v", err)
		}
		want := 0
		for _, s := range seed {
			staff := s.StaffID
			if scope.Allows(Record{BusinessID: s.BusinessID, BranchID: s.BranchID, StaffID: &staff}) {
				want++
			}
		}
		if len(rows) != want {
			t.Fatalf("role %s: sql returned %d rows, predicate admits %d", actor.Role, len(rows), want)
		}
	}
}

func newSale(business, branch, staff uuid.UUID) models.Sale {
	return models.Sale{
		ID:            uuid.Must(uuid.NewV7()),
		BusinessID:    business,
		BranchID:      branch,
		StaffID:       staff,
		Currency:      "USD",
		SubtotalCents: 100,
		TotalCents:    100,
		ItemCount:     1,
	}
}

func TestActorRequireBusiness(t *testing.T) {
	f := newFixture()
	actor := Actor{StaffID: f.cashier, BusinessID: f.business, Role: enums.StaffRoleOwner}

	if err := actor.RequireBusiness(f.business); err != nil {
		t.Fatalf("own business should pass: %v", err)
	}
	for name, id := range map[string]uuid.UUID{"missing": uuid.Nil, "foreign": f.otherBusiness} {
		err := actor.RequireBusiness(id)
		if !pkgerrors.IsCode(err, pkgerrors.CodeScopeViolation) {
			t.Fatalf("%s business: expected scope violation, got %v", name, err)
		}
	}
}

func TestAllowsSaleAndProduct(t *testing.T) {
	f := newFixture()
	scope := For(Actor{StaffID: f.cashier, BusinessID: f.business, BranchID: ptr(f.branchA), Role: enums.StaffRoleCashier})

	if !scope.AllowsSale(models.Sale{BusinessID: f.business, BranchID: f.branchA, StaffID: f.cashier}) {
		t.Fatal("cashier should see own sale")
	}
	if scope.AllowsSale(models.Sale{BusinessID: f.business, BranchID: f.branchA, StaffID: f.otherCashier}) {
		t.Fatal("cashier must not see a colleague's sale")
	}
	if !scope.AllowsProduct(models.Product{BusinessID: f.business, BranchID: f.branchA}) {
		t.Fatal("cashier should see products of own branch")
	}
	if scope.AllowsProduct(models.Product{BusinessID: f.business, BranchID: f.branchB}) {
		t.Fatal("cashier must not see products of another branch")
	}
}
