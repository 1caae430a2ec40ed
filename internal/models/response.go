package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ResponseStatus string

const (
	ResponseAccepted    ResponseStatus = "ACCEPTED"
	ResponseDeclined    ResponseStatus = "DECLINED"
	ResponseNegotiating ResponseStatus = "NEGOTIATING"
)

var ResponseStatuses = []ResponseStatus{ResponseAccepted, ResponseDeclined, ResponseNegotiating}

// ResponseKind tags the two shapes a customer response can take.
type ResponseKind string

const (
	ResponseKindSummary  ResponseKind = "summary"
	ResponseKindItemized ResponseKind = "itemized"
)

// Response is a customer's reaction to one quotation version, either as a whole-version
// verdict or itemized per SKU.
type Response interface {
	ResponseVersionID() uint
	ResponseKind() ResponseKind
	Verdict() ResponseStatus
	RespondedOn() time.Time
}

// CustomerResponse is the whole-version verdict.
type CustomerResponse struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	QuotationVersionID uint           `gorm:"index;not null" json:"quotation_version_id"`
	Status             ResponseStatus `gorm:"size:20;not null" json:"status"`
	Comments           string         `gorm:"type:text" json:"comments,omitempty"`
	// RequestedChanges only matters for NEGOTIATING but is kept whatever the status.
	RequestedChanges string    `gorm:"type:text" json:"requested_changes,omitempty"`
	RespondedAt      time.Time `gorm:"not null" json:"responded_at"`
}

func (r *CustomerResponse) ResponseVersionID() uint { return r.QuotationVersionID }
func (r *CustomerResponse) ResponseKind() ResponseKind { return ResponseKindSummary }
func (r *CustomerResponse) Verdict() ResponseStatus { return r.Status }
func (r *CustomerResponse) RespondedOn() time.Time { return r.RespondedAt }

// QuotationResponse is an itemized, numbered response round on a version.
type QuotationResponse struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// (quotation_version_id, response_number) is unique, numbered 1, 2, 3... per version.
	QuotationVersionID uint `gorm:"not null;uniqueIndex:idx_version_response_number,priority:1" json:"quotation_version_id"`
	ResponseNumber     int  `gorm:"not null;uniqueIndex:idx_version_response_number,priority:2" json:"response_number"`

	OverallStatus   ResponseStatus `gorm:"size:20;not null" json:"overall_status"`
	ResponseDate    time.Time      `gorm:"not null" json:"response_date"`
	Notes           string         `gorm:"type:text" json:"notes,omitempty"`
	EnteredByUserID *string        `gorm:"size:255" json:"entered_by_user_id,omitempty"`

	Items []QuotationResponseItem `gorm:"foreignKey:QuotationResponseID" json:"items,omitempty"`
}

func (r *QuotationResponse) ResponseVersionID() uint { return r.QuotationVersionID }
func (r *QuotationResponse) ResponseKind() ResponseKind { return ResponseKindItemized }
func (r *QuotationResponse) Verdict() ResponseStatus { return r.OverallStatus }
func (r *QuotationResponse) RespondedOn() time.Time { return r.ResponseDate }

// QuotationResponseItem is the customer's position on one version line.
type QuotationResponseItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	QuotationResponseID    uint `gorm:"index;not null" json:"quotation_response_id"`
	QuotationVersionItemID uint `gorm:"index;not null" json:"quotation_version_item_id"`
	SkuID                  uint `gorm:"index;not null" json:"sku_id"`

	Status              ResponseStatus   `gorm:"size:20;not null" json:"status"`
	RequestedQuantity   *int             `json:"requested_quantity,omitempty"`
	RequestedUnitPrice  *decimal.Decimal `gorm:"type:decimal(14,4)" json:"requested_unit_price,omitempty"`
	RequestedTotalPrice *decimal.Decimal `gorm:"type:decimal(16,4)" json:"requested_total_price,omitempty"`
	Comment             string           `gorm:"type:text" json:"comment,omitempty"`
}

// RequestedTotal returns quantity × unit price when both were requested.
func (item *QuotationResponseItem) RequestedTotal() *decimal.Decimal {
	if item.RequestedQuantity == nil || item.RequestedUnitPrice == nil {
		return nil
	}
	total := item.RequestedUnitPrice.Mul(decimal.NewFromInt(int64(*item.RequestedQuantity)))
	return &total
}
