package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// raiseException is the SQLSTATE of a plpgsql RAISE EXCEPTION, used by the
// sale immutability triggers.
const raiseException = "P0001"

// invariants names the schema guard behind each constraint or index so logs
// say which rule a write broke.
var invariants = map[string]string{
	"chk_products_stock_qty_nonnegative": "stock_non_negative",
	"chk_sales_total":                    "sale_total_balanced",
	"chk_staff_members_owner_unpinned":   "owner_unpinned",
	"idx_staff_members_one_owner":        "single_owner",
	"idx_staff_members_email":            "unique_staff_email",
	"idx_products_branch_sku":            "unique_branch_sku",
	"idx_product_prices_one_default":     "single_default_price",
}

// ErrorDump is the log projection of an error chain.
type ErrorDump struct {
	TopMessage string   `json:"top_message"`
	Code       Code     `json:"code,omitempty"`
	Chain      []string `json:"chain,omitempty"`

	PGCode       string `json:"pg_code,omitempty"`
	PGConstraint string `json:"pg_constraint,omitempty"`
	PGTable      string `json:"pg_table,omitempty"`
	PGColumn     string `json:"pg_column,omitempty"`
	PGDetail     string `json:"pg_detail,omitempty"`
	PGMessage    string `json:"pg_message,omitempty"`

	// Invariant is set when the database rejected a write through one of
	// the schema guards.
	Invariant string `json:"invariant,omitempty"`
}

// Dump flattens err for structured logging. Postgres diagnostics are read
// from either driver.
func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}
	d := ErrorDump{TopMessage: err.Error()}
	if te := As(err); te != nil {
		d.Code = te.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var pgxErr *pgconn.PgError
	var pqErr *pq.Error
	switch {
	case errors.As(err, &pgxErr):
		d.PGCode, d.PGConstraint = pgxErr.Code, pgxErr.ConstraintName
		d.PGTable, d.PGColumn = pgxErr.TableName, pgxErr.ColumnName
		d.PGDetail, d.PGMessage = pgxErr.Detail, pgxErr.Message
	case errors.As(err, &pqErr):
		d.PGCode, d.PGConstraint = string(pqErr.Code), pqErr.Constraint
		d.PGTable, d.PGColumn = pqErr.Table, pqErr.Column
		d.PGDetail, d.PGMessage = pqErr.Detail, pqErr.Message
	default:
		return d
	}
	d.Invariant = invariantFor(d.PGCode, d.PGConstraint, d.PGMessage)
	return d
}

func invariantFor(code, constraint, message string) string {
	if name, ok := invariants[constraint]; ok {
		return name
	}
	if code == raiseException && strings.HasPrefix(message, "sales are immutable") {
		return "sale_immutable"
	}
	return ""
}
