package models

// All returns every persisted model in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&Customer{},
		&InventoryItem{},
		&Rfq{},
		&QuotationVersion{},
		&QuotationVersionItem{},
		&NegotiationCommunication{},
		&SkuNegotiationHistory{},
		&CustomerResponse{},
		&QuotationResponse{},
		&QuotationResponseItem{},
	}
}
