package sales

import (
	"math"

	pkgerrors "github.com/angelmondragon/tillcore-backend/pkg/errors"
)

// LineAmount multiplies a non-negative unit amount by a quantity, rejecting
// results that do not fit in int64 minor units.
func LineAmount(unitCents, quantity int64) (int64, error) {
	if unitCents < 0 || quantity < 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "amounts must not be negative")
	}
	if quantity != 0 && unitCents > math.MaxInt64/quantity {
		return 0, amountOutOfRange()
	}
	return unitCents * quantity, nil
}

// AddAmount sums two non-negative amounts with the same range check.
func AddAmount(a, b int64) (int64, error) {
	if a < 0 || b < 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "amounts must not be negative")
	}
	if a > math.MaxInt64-b {
		return 0, amountOutOfRange()
	}
	return a + b, nil
}

func amountOutOfRange() error {
	return pkgerrors.New(pkgerrors.CodeValidation, "sale amount out of range")
}
