package models

import (
	"time"

	"github.com/diewo77/uds-rfq/internal/lifecycle"
	"github.com/shopspring/decimal"
)

// QuotationVersion is a priced snapshot of an RFQ's line items.
// Only Status, Notes and FinalPrice change after creation.
type QuotationVersion struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// (rfq_id, version_number) is unique: version numbers are 1, 2, 3... per RFQ.
	RfqID         uint `gorm:"not null;uniqueIndex:idx_rfq_version_number,priority:1" json:"rfq_id"`
	VersionNumber int  `gorm:"not null;uniqueIndex:idx_rfq_version_number,priority:2" json:"version_number"`

	EntryType lifecycle.EntryType `gorm:"size:30;not null" json:"entry_type"`
	Status    lifecycle.Status    `gorm:"size:20;not null" json:"status"`

	EstimatedPrice decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"estimated_price"`
	FinalPrice     decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"final_price"`

	Changes           string  `gorm:"type:text" json:"changes,omitempty"`
	Notes             string  `gorm:"type:text" json:"notes,omitempty"`
	CreatedBy         string  `gorm:"size:255" json:"created_by,omitempty"`
	SubmittedByUserID *string `gorm:"size:255" json:"submitted_by_user_id,omitempty"`

	Items []QuotationVersionItem `gorm:"foreignKey:QuotationVersionID" json:"items,omitempty"`
}

// QuotationVersionItem is one priced line of a version. Immutable once written.
type QuotationVersionItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	QuotationVersionID uint `gorm:"index;not null" json:"quotation_version_id"`
	SkuID              uint `gorm:"index;not null" json:"sku_id"`

	Quantity   int             `gorm:"not null" json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(14,4);not null" json:"unit_price"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(16,4);not null" json:"total_price"`
	Comment    string          `gorm:"type:text" json:"comment,omitempty"`

	// Sku is filled from inventory when a version is returned; not stored.
	Sku *SkuDescriptor `gorm:"-" json:"sku,omitempty"`
}

// LineTotal calculates quantity × unit price.
func (item *QuotationVersionItem) LineTotal() decimal.Decimal {
	return item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
}

// AggregatePrice sums the stored line totals and rounds to the whole currency unit.
func AggregatePrice(items []QuotationVersionItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.TotalPrice)
	}
	return total.Round(0)
}
