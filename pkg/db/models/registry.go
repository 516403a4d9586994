package models

// All lists every persisted model in dependency order. Used by sqlite
// auto-migration in local development and tests.
func All() []any {
	return []any{
		&Business{},
		&Branch{},
		&StaffMember{},
		&Product{},
		&ProductPrice{},
		&StockMovement{},
		&Sale{},
		&SaleLineItem{},
	}
}
