package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryItem is a stocked SKU that quotation lines refer to.
type InventoryItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Sku            string          `gorm:"size:100;not null;uniqueIndex" json:"sku"`
	Description    string          `gorm:"size:500" json:"description,omitempty"`
	Mpn            string          `gorm:"size:100;index" json:"mpn,omitempty"`
	Brand          string          `gorm:"size:100;index" json:"brand,omitempty"`
	QuantityOnHand int             `gorm:"not null;default:0" json:"quantity_on_hand"`
	UnitCost       decimal.Decimal `gorm:"type:decimal(14,4);not null;default:0" json:"unit_cost"`
}

// Descriptor returns the minimal SKU fields shown next to quotation lines.
func (i *InventoryItem) Descriptor() SkuDescriptor {
	return SkuDescriptor{ID: i.ID, Sku: i.Sku, Description: i.Description, Mpn: i.Mpn, Brand: i.Brand}
}

// SkuDescriptor is the inventory summary attached to version items.
type SkuDescriptor struct {
	ID          uint   `json:"id"`
	Sku         string `json:"sku"`
	Description string `json:"description,omitempty"`
	Mpn         string `json:"mpn,omitempty"`
	Brand       string `json:"brand,omitempty"`
}

// Customer is the party an RFQ is raised for.
type Customer struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name    string `gorm:"size:255;not null;index" json:"name"`
	Company string `gorm:"size:255" json:"company,omitempty"`
	Email   string `gorm:"size:255" json:"email,omitempty"`
	Phone   string `gorm:"size:50" json:"phone,omitempty"`
}
