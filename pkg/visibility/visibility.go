// Package visibility decides which tenant records an actor may read or write.
//
// For is a pure function of the actor snapshot; it never touches storage.
// The same predicate is available in-memory (Allows) and as a GORM scope
// (Apply) so list, get and aggregate queries share one rule.
package visibility

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tillcore-backend/pkg/db/models"
	"github.com/angelmondragon/tillcore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tillcore-backend/pkg/errors"
)

// Actor is the resolved identity a request runs as.
type Actor struct {
	StaffID    uuid.UUID
	BusinessID uuid.UUID
	BranchID   *uuid.UUID
	Role       enums.StaffRole
}

// RequireBusiness rejects a write whose target business is missing or is not
// the actor's own.
func (a Actor) RequireBusiness(businessID uuid.UUID) error {
	if businessID == uuid.Nil {
		return violation("business id is required")
	}
	if businessID != a.BusinessID {
		return violation("business outside actor scope")
	}
	return nil
}

// Record describes the ownership columns of a tenant row. StaffID is nil for
// rows that are not owned by an individual (products, branches).
type Record struct {
	BusinessID uuid.UUID
	BranchID   uuid.UUID
	StaffID    *uuid.UUID
}

// Filter is a caller-requested narrowing of a scope.
type Filter struct {
	BusinessID *uuid.UUID
	BranchID   *uuid.UUID
	StaffID    *uuid.UUID
}

// Scope is the set of rows an actor may see.
type Scope struct {
	deny       bool
	businessID uuid.UUID
	branchID   *uuid.UUID
	staffID    *uuid.UUID
}

// Columns names the ownership columns of a table for Apply. An empty Staff
// column means the table carries no per-staff ownership.
type Columns struct {
	Business string
	Branch   string
	Staff    string
}

var (
	SaleColumns    = Columns{Business: "sales.business_id", Branch: "sales.branch_id", Staff: "sales.staff_id"}
	ProductColumns = Columns{Business: "products.business_id", Branch: "products.branch_id"}
	BranchColumns  = Columns{Business: "branches.business_id", Branch: "branches.id"}
	StaffColumns   = Columns{Business: "staff_members.business_id", Branch: "staff_members.branch_id", Staff: "staff_members.id"}
)

func denyAll() Scope {
	return Scope{deny: true}
}

// For derives the scope of an actor. Anything it cannot classify is denied.
func For(actor Actor) Scope {
	if actor.BusinessID == uuid.Nil || actor.StaffID == uuid.Nil || !actor.Role.IsValid() {
		return denyAll()
	}
	scope := Scope{businessID: actor.BusinessID}

	if actor.Role.PinnedToBranch() {
		if actor.BranchID == nil || *actor.BranchID == uuid.Nil {
			return denyAll()
		}
		branch := *actor.BranchID
		scope.branchID = &branch
	}
	if actor.Role.OwnRecordsOnly() {
		staff := actor.StaffID
		scope.staffID = &staff
	}
	return scope
}

// DenyAll reports whether the scope admits nothing.
func (s Scope) DenyAll() bool {
	return s.deny
}

func (s Scope) BusinessID() uuid.UUID {
	return s.businessID
}

// BranchID is the branch the scope is pinned to, if any.
func (s Scope) BranchID() *uuid.UUID {
	return s.branchID
}

// StaffID is the staff member the scope is pinned to, if any.
func (s Scope) StaffID() *uuid.UUID {
	return s.staffID
}

// Allows evaluates the scope against a single record.
func (s Scope) Allows(r Record) bool {
	if s.deny || r.BusinessID != s.businessID {
		return false
	}
	if s.branchID != nil && r.BranchID != *s.branchID {
		return false
	}
	if s.staffID != nil && r.StaffID != nil && *r.StaffID != *s.staffID {
		return false
	}
	return true
}

// AllowsBranch reports whether the scope may touch rows of the given branch.
func (s Scope) AllowsBranch(businessID, branchID uuid.UUID) bool {
	return s.Allows(Record{BusinessID: businessID, BranchID: branchID})
}

func (s Scope) AllowsSale(sale models.Sale) bool {
	staff := sale.StaffID
	return s.Allows(Record{BusinessID: sale.BusinessID, BranchID: sale.BranchID, StaffID: &staff})
}

func (s Scope) AllowsProduct(p models.Product) bool {
	return s.Allows(Record{BusinessID: p.BusinessID, BranchID: p.BranchID})
}

// Narrow intersects the scope with a requested filter. A filter that reaches
// outside the scope is a violation, never a silent widening.
func (s Scope) Narrow(f Filter) (Scope, error) {
	if s.deny {
		return s, violation("scope denies all access")
	}
	out := s
	if f.BusinessID != nil && *f.BusinessID != s.businessID {
		return denyAll(), violation("business outside actor scope")
	}
	if f.BranchID != nil {
		if s.branchID != nil && *s.branchID != *f.BranchID {
			return denyAll(), violation("branch outside actor scope")
		}
		branch := *f.BranchID
		out.branchID = &branch
	}
	if f.StaffID != nil {
		if s.staffID != nil && *s.staffID != *f.StaffID {
			return denyAll(), violation("staff outside actor scope")
		}
		staff := *f.StaffID
		out.staffID = &staff
	}
	return out, nil
}

// Apply projects the scope onto a query as WHERE conditions.
func (s Scope) Apply(db *gorm.DB, cols Columns) *gorm.DB {
	if s.deny || cols.Business == "" {
		return db.Where("1 = 0")
	}
	db = db.Where(fmt.Sprintf("%s = ?", cols.Business), s.businessID)
	if s.branchID != nil {
		if cols.Branch == "" {
			return db.Where("1 = 0")
		}
		db = db.Where(fmt.Sprintf("%s = ?", cols.Branch), *s.branchID)
	}
	if s.staffID != nil && cols.Staff != "" {
		db = db.Where(fmt.Sprintf("%s = ?", cols.Staff), *s.staffID)
	}
	return db
}

// Scoped adapts Apply for db.Scopes(...).
func (s Scope) Scoped(cols Columns) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return s.Apply(db, cols)
	}
}

func violation(msg string) error {
	return pkgerrors.New(pkgerrors.CodeScopeViolation, msg)
}
