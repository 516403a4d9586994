package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "idx_staff_members_email"}
	wrapped := fmt.Errorf("insert staff: %w", pgErr)

	if !IsUniqueViolation(wrapped, "") {
		t.Fatalf("expected pg unique violation to match")
	}
	if !IsUniqueViolation(wrapped, "idx_staff_members_email") {
		t.Fatalf("expected constraint match")
	}
	if IsUniqueViolation(wrapped, "other_constraint") {
		t.Fatalf("expected constraint mismatch")
	}
	if !IsUniqueViolation(errors.New("UNIQUE constraint failed: staff_members.email"), "") {
		t.Fatalf("expected sqlite unique violation to match")
	}
	if IsUniqueViolation(nil, "") {
		t.Fatalf("nil error should not match")
	}
}

func TestIsCheckViolation(t *testing.T) {
	if !IsCheckViolation(&pgconn.PgError{Code: "23514"}) {
		t.Fatalf("expected pg check violation")
	}
	if IsCheckViolation(&pgconn.PgError{Code: "23505"}) {
		t.Fatalf("unique violation is not a check violation")
	}
	if !IsCheckViolation(errors.New("CHECK constraint failed: chk_products_stock_qty_nonnegative")) {
		t.Fatalf("expected sqlite check violation")
	}
}
