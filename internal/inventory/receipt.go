package inventory

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/tillcore-backend/pkg/db/models"
)

// Deduction is the receipt of a committed stock deduction. Only the ledger
// constructs one, so holding a *Deduction proves the stock left the shelf
// inside the caller's transaction.
type Deduction struct {
	businessID uuid.UUID
	branchID   uuid.UUID
	actorID    uuid.UUID
	lines      []deductedLine
}

type deductedLine struct {
	product  models.Product
	quantity int64
}

// ReceiptLine is a read-only copy of one deducted product. Product is the
// snapshot taken before the stock was decremented, prices included.
type ReceiptLine struct {
	Product  models.Product
	Quantity int64
}

func (d *Deduction) BusinessID() uuid.UUID { return d.businessID }
func (d *Deduction) BranchID() uuid.UUID   { return d.branchID }
func (d *Deduction) ActorID() uuid.UUID    { return d.actorID }

// Lines returns the deducted products in request order, merged per product.
func (d *Deduction) Lines() []ReceiptLine {
	out := make([]ReceiptLine, 0, len(d.lines))
	for _, line := range d.lines {
		product := line.product
		product.Prices = append([]models.ProductPrice(nil), line.product.Prices...)
		out = append(out, ReceiptLine{Product: product, Quantity: line.quantity})
	}
	return out
}

// Quantities maps product id to the deducted quantity.
func (d *Deduction) Quantities() map[uuid.UUID]int64 {
	out := make(map[uuid.UUID]int64, len(d.lines))
	for _, line := range d.lines {
		out[line.product.ID] = line.quantity
	}
	return out
}
