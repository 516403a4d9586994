package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "access denied"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected"},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, publicMsg: "state transition disallowed", detailsOK: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
		{code: CodeInsufficientStock, status: http.StatusConflict, publicMsg: "insufficient stock", detailsOK: true},
		{code: CodeUnknownProduct, status: http.StatusUnprocessableEntity, publicMsg: "product unavailable"},
		{code: CodeBranchInactive, status: http.StatusLocked, publicMsg: "branch is closed", detailsOK: true},
		{code: CodeScopeViolation, status: http.StatusForbidden, publicMsg: "access denied"},
		{code: CodeSessionRedirect, status: http.StatusConflict, publicMsg: "session requires redirect", detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	base.WithDetails(map[string]any{"field": "foo"})
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeConflict {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := New(CodeForbidden, "no entry")
	if got := As(err); got == nil || got.Code() != CodeForbidden {
		t.Fatalf("As failed to return typed error")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestIsCodeFollowsWrapChain(t *testing.T) {
	inner := New(CodeInsufficientStock, "short")
	outer := fmt.Errorf("checkout: %w", inner)
	if !IsCode(outer, CodeInsufficientStock) {
		t.Fatalf("expected IsCode to see wrapped typed error")
	}
	if IsCode(outer, CodeUnknownProduct) {
		t.Fatalf("unexpected code match")
	}
	if IsCode(stdErrors.New("plain"), CodeInternal) {
		t.Fatalf("plain errors carry no code")
	}
}

func TestPassthroughKeepsTypedErrors(t *testing.T) {
	typed := New(CodeBranchInactive, "closed")
	if got := Passthrough(typed, CodeInternal, "wrap"); got != typed {
		t.Fatalf("expected typed error to pass through")
	}
	plain := stdErrors.New("db down")
	got := As(Passthrough(plain, CodeInternal, "load branch"))
	if got == nil || got.Code() != CodeInternal || !stdErrors.Is(got, plain) {
		t.Fatalf("expected plain error wrapped as internal, got %v", got)
	}
	if Passthrough(nil, CodeInternal, "noop") != nil {
		t.Fatalf("nil should stay nil")
	}
}

func TestDumpCollectsChain(t *testing.T) {
	err := fmt.Errorf("outer: %w", Wrap(CodeDependency, stdErrors.New("redis down"), "cache"))
	d := Dump(err)
	if d.Code != CodeDependency {
		t.Fatalf("expected dependency code, got %q", d.Code)
	}
	if len(d.Chain) != 3 {
		t.Fatalf("expected 3 chain entries, got %d: %v", len(d.Chain), d.Chain)
	}
}

func TestDumpNamesSchemaInvariant(t *testing.T) {
	cases := map[string]struct {
		err  error
		want string
	}{
		"pgx stock check": {
			err:  Wrap(CodeDependency, &pgconn.PgError{Code: "23514", ConstraintName: "chk_products_stock_qty_nonnegative", TableName: "products"}, "deduct stock"),
			want: "stock_non_negative",
		},
		"pq owner index": {
			err:  fmt.Errorf("insert staff: %w", &pq.Error{Code: "23505", Constraint: "idx_staff_members_one_owner"}),
			want: "single_owner",
		},
		"immutability trigger": {
			err:  &pgconn.PgError{Code: "P0001", Message: "sales are immutable: UPDATE on sales rejected"},
			want: "sale_immutable",
		},
		"unrelated constraint": {
			err:  &pgconn.PgError{Code: "23503", ConstraintName: "fk_businesses_owner"},
			want: "",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			d := Dump(tc.err)
			if d.PGCode == "" {
				t.Fatalf("expected postgres diagnostics in %+v", d)
			}
			if d.Invariant != tc.want {
				t.Fatalf("expected invariant %q got %q", tc.want, d.Invariant)
			}
		})
	}

	if d := Dump(stdErrors.New("plain")); d.Invariant != "" || d.PGCode != "" {
		t.Fatalf("plain errors carry no diagnostics, got %+v", d)
	}
}
