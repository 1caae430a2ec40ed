package services

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/diewo77/uds-rfq/internal/events"
	"github.com/diewo77/uds-rfq/internal/models"
	"github.com/diewo77/uds-rfq/validation"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// NegotiationService is the append-only ledger of communications and SKU changes on an
// RFQ. The only mutation it allows is the follow-up completion toggle.
type NegotiationService struct {
	base
	skus SkuResolver
}

func NewNegotiationService(db *gorm.DB, skus SkuResolver, opts ...Option) *NegotiationService {
	return &NegotiationService{base: newBase(db, opts), skus: skus}
}

type CommunicationInput struct {
	VersionID         *uint                    `json:"version_id,omitempty"`
	CommunicationType models.CommunicationType `json:"communication_type"`
	Direction         models.Direction         `json:"direction"`
	Subject           string                   `json:"subject,omitempty"`
	Content           string                   `json:"content"`
	ContactPerson     string                   `json:"contact_person,omitempty"`
	CommunicationDate *time.Time               `json:"communication_date"`
	FollowUpRequired  bool                     `json:"follow_up_required"`
	FollowUpDate      *time.Time               `json:"follow_up_date,omitempty"`
	EnteredByUserID   *string                  `json:"entered_by_user_id,omitempty"`
}

type SkuChangeInput struct {
	VersionID       *uint             `json:"version_id,omitempty"`
	CommunicationID *uint             `json:"communication_id,omitempty"`
	ChangeType      models.ChangeType `json:"change_type,omitempty"`
	OldQuantity     *int              `json:"old_quantity,omitempty"`
	NewQuantity     *int              `json:"new_quantity,omitempty"`
	OldUnitPrice    *decimal.Decimal  `json:"old_unit_price,omitempty"`
	NewUnitPrice    *decimal.Decimal  `json:"new_unit_price,omitempty"`
	ChangeReason    string            `json:"change_reason,omitempty"`
	ChangedBy       models.ChangedBy  `json:"changed_by,omitempty"`
	EnteredByUserID *string           `json:"entered_by_user_id,omitempty"`
}

// NegotiationSummary aggregates the ledger of one RFQ. Degraded names the aggregates that
// could not be computed and were left at their zero value.
type NegotiationSummary struct {
	RfqID                  uint       `json:"rfq_id"`
	TotalCommunications    int64      `json:"total_communications"`
	TotalSkuChanges        int64      `json:"total_sku_changes"`
	PendingFollowUps       int64      `json:"pending_follow_ups"`
	FirstCommunicationDate *time.Time `json:"first_communication_date"`
	NegotiationDuration    int        `json:"negotiation_duration"`
	Degraded               []string   `json:"degraded,omitempty"`
}

// RecordCommunication logs an interaction on the RFQ.
func (s *NegotiationService) RecordCommunication(ctx context.Context, rfqID uint, in CommunicationInput) (*models.NegotiationCommunication, error) {
	if _, err := s.loadRfq(ctx, rfqID); err != nil {
		return nil, err
	}
	v := make(validation.Violations)
	validation.Required("content", in.Content, v)
	validation.OneOf("communication_type", in.CommunicationType, models.CommunicationTypes, v)
	validation.OneOf("direction", in.Direction, models.Directions, v)
	if in.CommunicationDate == nil || in.CommunicationDate.IsZero() {
		v.Add("communication_date", "required")
	}
	if !v.Empty() {
		return nil, validationFailed(v)
	}
	if err := s.checkVersionOnRfq(ctx, rfqID, in.VersionID); err != nil {
		return nil, err
	}

	comm := &models.NegotiationCommunication{
		RfqID:              rfqID,
		QuotationVersionID: in.VersionID,
		CommunicationType:  in.CommunicationType,
		Direction:          in.Direction,
		Subject:            in.Subject,
		Content:            in.Content,
		ContactPerson:      in.ContactPerson,
		CommunicationDate:  *in.CommunicationDate,
		FollowUpRequired:   in.FollowUpRequired,
		EnteredByUserID:    in.EnteredByUserID,
	}
	if in.FollowUpRequired {
		comm.FollowUpDate = in.FollowUpDate
	}
	if err := s.db.WithContext(ctx).Create(comm).Error; err != nil {
		return nil, dbError(err, "communication")
	}

	s.log.InfoContext(ctx, "communication recorded", "rfq_id", rfqID, "communication_id", comm.ID, "type", comm.CommunicationType)
	s.publish(events.Event{Type: events.CommunicationRecorded, RfqID: rfqID, ID: comm.ID, Action: "create"})
	return comm, nil
}

// CompleteFollowUp marks a required follow-up done, or reopens it when completed is false.
func (s *NegotiationService) CompleteFollowUp(ctx context.Context, communicationID uint, completed bool) (*models.NegotiationCommunication, error) {
	var comm models.NegotiationCommunication
	err := s.db.WithContext(ctx).First(&comm, communicationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("communication %d not found", communicationID)
	}
	if err != nil {
		return nil, dbError(err, "communication")
	}
	if !comm.FollowUpRequired {
		return nil, invalidState("communication %d has no follow-up to complete", communicationID)
	}

	var completedAt *time.Time
	if completed {
		now := s.now()
		completedAt = &now
	}
	err = s.db.WithContext(ctx).Model(&comm).Updates(map[string]any{
		"follow_up_completed":    completed,
		"follow_up_completed_at": completedAt,
	}).Error
	if err != nil {
		return nil, dbError(err, "communication")
	}
	comm.FollowUpCompleted = completed
	comm.FollowUpCompletedAt = completedAt

	s.publish(events.Event{Type: events.FollowUpCompleted, RfqID: comm.RfqID, ID: comm.ID, Action: "update"})
	return &comm, nil
}

// RecordSkuChange appends an audit record of a quantity or price change on a SKU. The
// numeric pairs are optional; the change type is derived from them when omitted.
func (s *NegotiationService) RecordSkuChange(ctx context.Context, rfqID, skuID uint, in SkuChangeInput) (*models.SkuNegotiationHistory, error) {
	if _, err := s.loadRfq(ctx, rfqID); err != nil {
		return nil, err
	}
	if in.ChangedBy == "" {
		in.ChangedBy = models.ChangedByCustomer
	}
	if in.ChangeType == "" {
		in.ChangeType = deriveChangeType(in)
	}

	v := make(validation.Violations)
	validation.PositiveID("sku_id", skuID, v)
	validation.OneOf("change_type", in.ChangeType, models.ChangeTypes, v)
	validation.OneOf("changed_by", in.ChangedBy, models.ChangedByValues, v)
	if in.OldQuantity != nil {
		validation.NonNegativeInt("old_quantity", *in.OldQuantity, v)
	}
	if in.NewQuantity != nil {
		validation.NonNegativeInt("new_quantity", *in.NewQuantity, v)
	}
	if in.OldUnitPrice != nil {
		validation.NonNegativeDecimal("old_unit_price", *in.OldUnitPrice, v)
	}
	if in.NewUnitPrice != nil {
		validation.NonNegativeDecimal("new_unit_price", *in.NewUnitPrice, v)
	}
	if !v.Empty() {
		return nil, validationFailed(v)
	}

	if s.skus != nil {
		found, err := s.skus.ResolveSkus(ctx, []uint{skuID})
		if err != nil {
			return nil, err
		}
		if _, ok := found[skuID]; !ok {
			return nil, notFound("sku %d not found", skuID)
		}
	}
	if err := s.checkVersionOnRfq(ctx, rfqID, in.VersionID); err != nil {
		return nil, err
	}
	if in.CommunicationID != nil {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.NegotiationCommunication{}).
			Where("id = ? AND rfq_id = ?", *in.CommunicationID, rfqID).Count(&count).Error; err != nil {
			return nil, dbError(err, "communication")
		}
		if count == 0 {
			return nil, notFound("communication %d not found on rfq %d", *in.CommunicationID, rfqID)
		}
	}

	change := &models.SkuNegotiationHistory{
		RfqID:              rfqID,
		SkuID:              skuID,
		QuotationVersionID: in.VersionID,
		CommunicationID:    in.CommunicationID,
		ChangeType:         in.ChangeType,
		OldQuantity:        in.OldQuantity,
		NewQuantity:        in.NewQuantity,
		OldUnitPrice:       in.OldUnitPrice,
		NewUnitPrice:       in.NewUnitPrice,
		ChangeReason:       in.ChangeReason,
		ChangedBy:          in.ChangedBy,
		EnteredByUserID:    in.EnteredByUserID,
	}
	if err := s.db.WithContext(ctx).Create(change).Error; err != nil {
		return nil, dbError(err, "sku change")
	}

	s.log.InfoContext(ctx, "sku change recorded", "rfq_id", rfqID, "sku_id", skuID, "change_type", change.ChangeType)
	s.publish(events.Event{Type: events.SkuChangeRecorded, RfqID: rfqID, ID: change.ID, Action: "create"})
	return change, nil
}

func deriveChangeType(in SkuChangeInput) models.ChangeType {
	quantity := in.OldQuantity != nil || in.NewQuantity != nil
	price := in.OldUnitPrice != nil || in.NewUnitPrice != nil
	switch {
	case quantity && price:
		return models.ChangeBoth
	case quantity:
		return models.ChangeQuantity
	default:
		return models.ChangePrice
	}
}

// checkVersionOnRfq verifies an optional version reference belongs to the RFQ.
func (s *NegotiationService) checkVersionOnRfq(ctx context.Context, rfqID uint, versionID *uint) error {
	if versionID == nil {
		return nil
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.QuotationVersion{}).
		Where("id = ? AND rfq_id = ?", *versionID, rfqID).Count(&count).Error; err != nil {
		return dbError(err, "quotation version")
	}
	if count == 0 {
		return notFound("version %d not found on rfq %d", *versionID, rfqID)
	}
	return nil
}

// ListCommunications returns the RFQ's communications, most recent first.
func (s *NegotiationService) ListCommunications(ctx context.Context, rfqID uint) ([]models.NegotiationCommunication, error) {
	if _, err := s.loadRfq(ctx, rfqID); err != nil {
		return nil, err
	}
	var comms []models.NegotiationCommunication
	err := s.db.WithContext(ctx).
		Where("rfq_id = ?", rfqID).
		Order("communication_date DESC, id DESC").
		Find(&comms).Error
	if err != nil {
		return nil, dbError(err, "communication")
	}
	return comms, nil
}

// ListSkuChanges returns the RFQ's SKU changes, most recent first, optionally for one SKU.
func (s *NegotiationService) ListSkuChanges(ctx context.Context, rfqID uint, skuID *uint) ([]models.SkuNegotiationHistory, error) {
	if _, err := s.loadRfq(ctx, rfqID); err != nil {
		return nil, err
	}
	q := s.db.WithContext(ctx).Where("rfq_id = ?", rfqID)
	if skuID != nil {
		q = q.Where("sku_id = ?", *skuID)
	}
	var changes []models.SkuNegotiationHistory
	if err := q.Order("created_at DESC, id DESC").Find(&changes).Error; err != nil {
		return nil, dbError(err, "sku change")
	}
	return changes, nil
}

// GetSummary aggregates the RFQ's negotiation ledger. Each aggregate is computed on its
// own: a failing one is logged, counted and left at zero/null while the rest still return.
func (s *NegotiationService) GetSummary(ctx context.Context, rfqID uint) (*NegotiationSummary, error) {
	rfq, err := s.loadRfq(ctx, rfqID)
	if err != nil {
		return nil, err
	}
	sum := &NegotiationSummary{RfqID: rfqID}
	db := s.db.WithContext(ctx)

	degrade := func(aggregate string, err error) {
		s.log.WarnContext(ctx, "negotiation summary aggregate failed", "rfq_id", rfqID, "aggregate", aggregate, "error", err)
		s.metrics.SummaryDegraded(ctx, aggregate)
		sum.Degraded = append(sum.Degraded, aggregate)
	}

	if err := db.Model(&models.NegotiationCommunication{}).
		Where("rfq_id = ?", rfqID).Count(&sum.TotalCommunications).Error; err != nil {
		sum.TotalCommunications = 0
		degrade("total_communications", err)
	}
	if err := db.Model(&models.SkuNegotiationHistory{}).
		Where("rfq_id = ?", rfqID).Count(&sum.TotalSkuChanges).Error; err != nil {
		sum.TotalSkuChanges = 0
		degrade("total_sku_changes", err)
	}
	if err := db.Model(&models.NegotiationCommunication{}).
		Where("rfq_id = ? AND follow_up_required = ? AND follow_up_completed = ?", rfqID, true, false).
		Count(&sum.PendingFollowUps).Error; err != nil {
		sum.PendingFollowUps = 0
		degrade("pending_follow_ups", err)
	}

	var dates []time.Time
	if err := db.Model(&models.NegotiationCommunication{}).
		Where("rfq_id = ?", rfqID).
		Order("communication_date ASC").Limit(1).
		Pluck("communication_date", &dates).Error; err != nil {
		degrade("first_communication_date", err)
	} else if len(dates) > 0 {
		first := dates[0]
		sum.FirstCommunicationDate = &first
	}

	if sum.TotalCommunications > 0 || sum.TotalSkuChanges > 0 {
		sum.NegotiationDuration = durationDays(rfq.CreatedAt, s.now())
	}
	return sum, nil
}

// durationDays returns the whole days from start to now, rounded up.
func durationDays(start, now time.Time) int {
	elapsed := now.Sub(start)
	if elapsed <= 0 {
		return 0
	}
	return int(math.Ceil(elapsed.Hours() / 24))
}
