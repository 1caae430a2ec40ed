package models

import (
	"time"

	"github.com/diewo77/uds-rfq/internal/lifecycle"
)

// Rfq is a customer request for quote. It is never deleted; closed deals stay in a
// terminal status.
type Rfq struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Optional customer relationship
	CustomerID *uint     `gorm:"index" json:"customer_id,omitempty"`
	Customer   *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`

	Title       string     `gorm:"size:255;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`

	Status lifecycle.Status `gorm:"size:20;not null;default:'NEW';index" json:"status"`

	// CurrentVersionID points at the latest quotation version (weak reference, no FK).
	CurrentVersionID *uint `gorm:"index" json:"current_version_id,omitempty"`

	CreatedBy string `gorm:"size:255" json:"created_by,omitempty"`
}

// CanCreateVersion returns true if a new quotation version may still be entered.
func (r *Rfq) CanCreateVersion() bool {
	return lifecycle.CanCreateVersion(r.Status)
}

// IsClosed returns true once the RFQ can no longer be edited.
func (r *Rfq) IsClosed() bool {
	return !lifecycle.CanEditItems(r.Status)
}

// Rules returns the lifecycle rules for the RFQ's current status.
func (r *Rfq) Rules() lifecycle.Rules {
	return lifecycle.RulesFor(r.Status)
}
