package models

// All returns every model in migration order, parents before children.
func All() []any {
	return []any{
		&Pharmacy{},
		&User{},
		&Supplier{},
		&Medicine{},
		&Batch{},
		&Customer{},
		&Sale{},
		&SaleItem{},
		&Expense{},
		&AuditLog{},
	}
}
