package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/diewo77/uds-rfq/internal/events"
	"github.com/diewo77/uds-rfq/internal/lifecycle"
	"github.com/diewo77/uds-rfq/internal/models"
	"github.com/diewo77/uds-rfq/validation"
	"gorm.io/gorm"
)

type RfqService struct {
	base
}

func NewRfqService(db *gorm.DB, opts ...Option) *RfqService {
	return &RfqService{base: newBase(db, opts)}
}

type RfqInput struct {
	CustomerID  *uint      `json:"customer_id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedBy   string     `json:"created_by,omitempty"`
}

type RfqFilter struct {
	Status lifecycle.Status
	Limit  int
	Offset int
}

// CreateRfq opens a new RFQ in status NEW.
func (s *RfqService) CreateRfq(ctx context.Context, in RfqInput) (*models.Rfq, error) {
	v := make(validation.Violations)
	validation.Required("title", in.Title, v)
	if !v.Empty() {
		return nil, validationFailed(v)
	}
	if in.CustomerID != nil {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Customer{}).Where("id = ?", *in.CustomerID).Count(&count).Error; err != nil {
			return nil, dbError(err, "customer")
		}
		if count == 0 {
			return nil, notFound("customer %d not found", *in.CustomerID)
		}
	}

	rfq := &models.Rfq{
		CustomerID:  in.CustomerID,
		Title:       in.Title,
		Description: in.Description,
		DueDate:     in.DueDate,
		Status:      lifecycle.StatusNew,
		CreatedBy:   in.CreatedBy,
	}
	if err := s.db.WithContext(ctx).Create(rfq).Error; err != nil {
		return nil, dbError(err, "rfq")
	}
	s.log.InfoContext(ctx, "rfq created", "rfq_id", rfq.ID)
	s.publish(events.Event{Type: events.RfqCreated, RfqID: rfq.ID, ID: rfq.ID, Action: "create", Status: string(rfq.Status)})
	return rfq, nil
}

// GetRfq returns the RFQ with its customer.
func (s *RfqService) GetRfq(ctx context.Context, id uint) (*models.Rfq, error) {
	var rfq models.Rfq
	err := s.db.WithContext(ctx).Preload("Customer").First(&rfq, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("rfq %d not found", id)
	}
	if err != nil {
		return nil, dbError(err, "rfq")
	}
	return &rfq, nil
}

// ListRfqs returns a page of RFQs, newest first, and the total matching the filter.
func (s *RfqService) ListRfqs(ctx context.Context, f RfqFilter) ([]models.Rfq, int64, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, validationFailed(validation.Violations{"status": "invalid"})
	}
	limit, offset := pageBounds(f.Limit, f.Offset)

	q := s.db.WithContext(ctx).Model(&models.Rfq{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, dbError(err, "rfq")
	}
	var rfqs []models.Rfq
	if err := q.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&rfqs).Error; err != nil {
		return nil, 0, dbError(err, "rfq")
	}
	return rfqs, total, nil
}

// Rules returns what the RFQ's current status allows.
func (s *RfqService) Rules(ctx context.Context, id uint) (lifecycle.Rules, error) {
	rfq, err := s.loadRfq(ctx, id)
	if err != nil {
		return lifecycle.Rules{}, err
	}
	return rfq.Rules(), nil
}

// TransitionRfq moves an RFQ to one of the next possible statuses of its current one. This
// is the only way into SENT, ACCEPTED, DECLINED and PROCESSED, and the way to reopen a
// declined RFQ as DRAFT.
func (s *RfqService) TransitionRfq(ctx context.Context, id uint, target lifecycle.Status) (*models.Rfq, error) {
	if !target.Valid() {
		return nil, validationFailed(validation.Violations{"status": "invalid"})
	}
	rfq, err := s.loadRfq(ctx, id)
	if err != nil {
		return nil, err
	}
	from := rfq.Status
	if !lifecycle.CanTransition(from, target) {
		return nil, invalidState("rfq %d cannot move from %s to %s", id, from, target)
	}

	res := s.db.WithContext(ctx).Model(&models.Rfq{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": target, "updated_at": s.now()})
	if res.Error != nil {
		return nil, dbError(res.Error, "rfq")
	}
	if res.RowsAffected == 0 {
		return nil, &Error{Kind: ErrConflict, Message: fmt.Sprintf("rfq %d changed status concurrently", id)}
	}
	rfq.Status = target

	s.log.InfoContext(ctx, "rfq transitioned", "rfq_id", id, "from", from, "to", target)
	s.publish(events.Event{Type: events.RfqTransitioned, RfqID: id, ID: id, Action: "transition", Status: string(target)})
	return s.GetRfq(ctx, id)
}
