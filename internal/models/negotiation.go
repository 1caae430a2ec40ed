package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type CommunicationType string

const (
	CommunicationEmail        CommunicationType = "EMAIL"
	CommunicationPhoneCall    CommunicationType = "PHONE_CALL"
	CommunicationMeeting      CommunicationType = "MEETING"
	CommunicationInternalNote CommunicationType = "INTERNAL_NOTE"
)

// CommunicationTypes lists the accepted communication types.
var CommunicationTypes = []CommunicationType{
	CommunicationEmail, CommunicationPhoneCall, CommunicationMeeting, CommunicationInternalNote,
}

type Direction string

const (
	DirectionInbound  Direction = "INBOUND"
	DirectionOutbound Direction = "OUTBOUND"
)

var Directions = []Direction{DirectionInbound, DirectionOutbound}

// NegotiationCommunication is a logged interaction on an RFQ. Append-only except for the
// follow-up completion fields.
type NegotiationCommunication struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	RfqID              uint  `gorm:"index;not null" json:"rfq_id"`
	QuotationVersionID *uint `gorm:"index" json:"quotation_version_id,omitempty"`

	CommunicationType CommunicationType `gorm:"size:20;not null" json:"communication_type"`
	Direction         Direction         `gorm:"size:10;not null" json:"direction"`
	Subject           string            `gorm:"size:255" json:"subject,omitempty"`
	Content           string            `gorm:"type:text;not null" json:"content"`
	ContactPerson     string            `gorm:"size:255" json:"contact_person,omitempty"`
	CommunicationDate time.Time         `gorm:"not null;index" json:"communication_date"`

	FollowUpRequired    bool       `gorm:"not null;default:false" json:"follow_up_required"`
	FollowUpDate        *time.Time `json:"follow_up_date,omitempty"`
	FollowUpCompleted   bool       `gorm:"not null;default:false" json:"follow_up_completed"`
	FollowUpCompletedAt *time.Time `json:"follow_up_completed_at,omitempty"`

	EnteredByUserID *string `gorm:"size:255" json:"entered_by_user_id,omitempty"`
}

// IsFollowUpPending returns true if a follow-up is required and not yet done.
func (c *NegotiationCommunication) IsFollowUpPending() bool {
	return c.FollowUpRequired && !c.FollowUpCompleted
}

type ChangeType string

const (
	ChangePrice    ChangeType = "PRICE_CHANGE"
	ChangeQuantity ChangeType = "QUANTITY_CHANGE"
	ChangeBoth     ChangeType = "BOTH"
)

var ChangeTypes = []ChangeType{ChangePrice, ChangeQuantity, ChangeBoth}

type ChangedBy string

const (
	ChangedByCustomer ChangedBy = "CUSTOMER"
	ChangedByInternal ChangedBy = "INTERNAL"
)

var ChangedByValues = []ChangedBy{ChangedByCustomer, ChangedByInternal}

// SkuNegotiationHistory is an audit record of a quantity/price change for one SKU.
// Rows are never updated or deleted.
type SkuNegotiationHistory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	RfqID              uint  `gorm:"index;not null" json:"rfq_id"`
	SkuID              uint  `gorm:"index;not null" json:"sku_id"`
	QuotationVersionID *uint `gorm:"index" json:"quotation_version_id,omitempty"`
	CommunicationID    *uint `gorm:"index" json:"communication_id,omitempty"`

	ChangeType   ChangeType       `gorm:"size:20;not null" json:"change_type"`
	OldQuantity  *int             `json:"old_quantity,omitempty"`
	NewQuantity  *int             `json:"new_quantity,omitempty"`
	OldUnitPrice *decimal.Decimal `gorm:"type:decimal(14,4)" json:"old_unit_price,omitempty"`
	NewUnitPrice *decimal.Decimal `gorm:"type:decimal(14,4)" json:"new_unit_price,omitempty"`
	ChangeReason string           `gorm:"type:text" json:"change_reason,omitempty"`
	ChangedBy    ChangedBy        `gorm:"size:10;not null;default:'CUSTOMER'" json:"changed_by"`

	EnteredByUserID *string `gorm:"size:255" json:"entered_by_user_id,omitempty"`
}

func (SkuNegotiationHistory) TableName() string { return "sku_negotiation_history" }
