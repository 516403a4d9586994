package enums

import "fmt"

// StockMovementReason labels why a stock ledger entry was written.
type StockMovementReason string

const (
	StockMovementReasonSale    StockMovementReason = "sale"
	StockMovementReasonRestock StockMovementReason = "restock"
	StockMovementReasonInitial StockMovementReason = "initial"
)

var validStockMovementReasons = []StockMovementReason{
	StockMovementReasonSale,
	StockMovementReasonRestock,
	StockMovementReasonInitial,
}

// String implements fmt.Stringer.
func (r StockMovementReason) String() string {
	return string(r)
}

// IsValid reports whether the value is known.
func (r StockMovementReason) IsValid() bool {
	for _, candidate := range validStockMovementReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseStockMovementReason converts raw input into a StockMovementReason.
func ParseStockMovementReason(value string) (StockMovementReason, error) {
	for _, candidate := range validStockMovementReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stock movement reason %q", value)
}
