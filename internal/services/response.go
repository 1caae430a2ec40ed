package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/diewo77/uds-rfq/internal/events"
	"github.com/diewo77/uds-rfq/internal/models"
	"github.com/diewo77/uds-rfq/validation"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ResponseService records customer responses to quotation versions, either as a
// whole-version verdict or itemized per version line.
type ResponseService struct {
	base
}

func NewResponseService(db *gorm.DB, opts ...Option) *ResponseService {
	return &ResponseService{base: newBase(db, opts)}
}

type ResponseInput struct {
	Status           models.ResponseStatus `json:"status"`
	Comments         string                `json:"comments,omitempty"`
	RequestedChanges string                `json:"requested_changes,omitempty"`
	RespondedAt      *time.Time            `json:"responded_at,omitempty"`
}

type ResponseItemInput struct {
	VersionItemID      uint                  `json:"version_item_id"`
	SkuID              uint                  `json:"sku_id,omitempty"`
	Status             models.ResponseStatus `json:"status,omitempty"`
	RequestedQuantity  *int                  `json:"requested_quantity,omitempty"`
	RequestedUnitPrice *decimal.Decimal      `json:"requested_unit_price,omitempty"`
	Comment            string                `json:"comment,omitempty"`
}

type DetailedResponseInput struct {
	OverallStatus   models.ResponseStatus `json:"overall_status"`
	ResponseDate    *time.Time            `json:"response_date"`
	Notes           string                `json:"notes,omitempty"`
	EnteredByUserID *string               `json:"entered_by_user_id,omitempty"`
	Items           []ResponseItemInput   `json:"items"`
}

// ResponseEntry is one response of either kind, as listed for a version.
type ResponseEntry struct {
	Kind        models.ResponseKind       `json:"kind"`
	VersionID   uint                      `json:"version_id"`
	Status      models.ResponseStatus     `json:"status"`
	RespondedAt time.Time                 `json:"responded_at"`
	Summary     *models.CustomerResponse  `json:"summary,omitempty"`
	Itemized    *models.QuotationResponse `json:"itemized,omitempty"`
}

func newResponseEntry(r models.Response) ResponseEntry {
	e := ResponseEntry{
		Kind:        r.ResponseKind(),
		VersionID:   r.ResponseVersionID(),
		Status:      r.Verdict(),
		RespondedAt: r.RespondedOn(),
	}
	switch v := r.(type) {
	case *models.CustomerResponse:
		e.Summary = v
	case *models.QuotationResponse:
		e.Itemized = v
	}
	return e
}

func (s *ResponseService) loadVersion(ctx context.Context, versionID uint) (*models.QuotationVersion, error) {
	var version models.QuotationVersion
	err := s.db.WithContext(ctx).First(&version, versionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("version %d not found", versionID)
	}
	if err != nil {
		return nil, dbError(err, "quotation version")
	}
	return &version, nil
}

// RecordResponse stores the customer's verdict on a whole version. Requested changes are
// kept whatever the status.
func (s *ResponseService) RecordResponse(ctx context.Context, versionID uint, in ResponseInput) (*models.CustomerResponse, error) {
	version, err := s.loadVersion(ctx, versionID)
	if err != nil {
		return nil, err
	}
	v := make(validation.Violations)
	validation.OneOf("status", in.Status, models.ResponseStatuses, v)
	if !v.Empty() {
		return nil, validationFailed(v)
	}

	resp := &models.CustomerResponse{
		QuotationVersionID: version.ID,
		Status:             in.Status,
		Comments:           in.Comments,
		RequestedChanges:   in.RequestedChanges,
		RespondedAt:        s.now(),
	}
	if in.RespondedAt != nil && !in.RespondedAt.IsZero() {
		resp.RespondedAt = *in.RespondedAt
	}
	if err := s.db.WithContext(ctx).Create(resp).Error; err != nil {
		return nil, dbError(err, "customer response")
	}

	s.log.InfoContext(ctx, "customer response recorded", "version_id", version.ID, "status", resp.Status)
	s.publish(events.Event{Type: events.ResponseRecorded, RfqID: version.RfqID, ID: resp.ID, Action: "create", Status: string(resp.Status)})
	return resp, nil
}

// RecordDetailedResponse stores a numbered, itemized response round on a version of the
// RFQ. Every item must point at a line of that version.
func (s *ResponseService) RecordDetailedResponse(ctx context.Context, rfqID, versionID uint, in DetailedResponseInput) (*models.QuotationResponse, error) {
	version, err := s.loadVersion(ctx, versionID)
	if err != nil {
		return nil, err
	}
	if version.RfqID != rfqID {
		return nil, notFound("version %d not found on rfq %d", versionID, rfqID)
	}

	var lines []models.QuotationVersionItem
	if err := s.db.WithContext(ctx).Where("quotation_version_id = ?", versionID).Find(&lines).Error; err != nil {
		return nil, dbError(err, "quotation version item")
	}
	byID := make(map[uint]models.QuotationVersionItem, len(lines))
	for _, l := range lines {
		byID[l.ID] = l
	}

	if v := validateDetailedResponse(in, byID); !v.Empty() {
		return nil, validationFailed(v)
	}

	var resp *models.QuotationResponse
	err = s.retryOnConflict(ctx, "response", func() error {
		var txErr error
		resp, txErr = s.insertDetailedResponse(ctx, version, in, byID)
		return dbError(txErr, "quotation response")
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "detailed response recorded",
		"rfq_id", rfqID, "version_id", versionID, "response_number", resp.ResponseNumber, "status", resp.OverallStatus)
	s.publish(events.Event{Type: events.ResponseRecorded, RfqID: rfqID, ID: resp.ID, Action: "create", Status: string(resp.OverallStatus)})
	return resp, nil
}

func validateDetailedResponse(in DetailedResponseInput, lines map[uint]models.QuotationVersionItem) validation.Violations {
	v := make(validation.Violations)
	if in.OverallStatus == "" {
		v.Add("overall_status", "required")
	} else {
		validation.OneOf("overall_status", in.OverallStatus, models.ResponseStatuses, v)
	}
	if in.ResponseDate == nil || in.ResponseDate.IsZero() {
		v.Add("response_date", "required")
	}
	if len(in.Items) == 0 {
		v.Add("items", "required")
	}
	for i, it := range in.Items {
		field := func(name string) string { return validation.Item("items", i, name) }
		if it.VersionItemID == 0 {
			v.Add(field("version_item_id"), "required")
		} else if line, ok := lines[it.VersionItemID]; !ok {
			v.Add(field("version_item_id"), "invalid")
		} else if it.SkuID != 0 && it.SkuID != line.SkuID {
			v.Add(field("sku_id"), "invalid")
		}
		if it.Status != "" {
			validation.OneOf(field("status"), it.Status, models.ResponseStatuses, v)
		}
		if it.RequestedQuantity != nil {
			validation.PositiveInt(field("requested_quantity"), *it.RequestedQuantity, v)
		}
		if it.RequestedUnitPrice != nil {
			validation.NonNegativeDecimal(field("requested_unit_price"), *it.RequestedUnitPrice, v)
		}
	}
	return v
}

func (s *ResponseService) insertDetailedResponse(ctx context.Context, version *models.QuotationVersion, in DetailedResponseInput, lines map[uint]models.QuotationVersionItem) (*models.QuotationResponse, error) {
	var resp *models.QuotationResponse
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.lockRfq(tx, version.RfqID); err != nil {
			return err
		}

		var last int
		if err := tx.Model(&models.QuotationResponse{}).
			Where("quotation_version_id = ?", version.ID).
			Select("COALESCE(MAX(response_number), 0)").
			Scan(&last).Error; err != nil {
			return err
		}

		resp = &models.QuotationResponse{
			QuotationVersionID: version.ID,
			ResponseNumber:     last + 1,
			OverallStatus:      in.OverallStatus,
			ResponseDate:       *in.ResponseDate,
			Notes:              in.Notes,
			EnteredByUserID:    in.EnteredByUserID,
		}
		if err := tx.Create(resp).Error; err != nil {
			return err
		}

		items := make([]models.QuotationResponseItem, len(in.Items))
		for i, it := range in.Items {
			status := it.Status
			if status == "" {
				status = in.OverallStatus
			}
			items[i] = models.QuotationResponseItem{
				QuotationResponseID:    resp.ID,
				QuotationVersionItemID: it.VersionItemID,
				SkuID:                  lines[it.VersionItemID].SkuID,
				Status:                 status,
				RequestedQuantity:      it.RequestedQuantity,
				RequestedUnitPrice:     it.RequestedUnitPrice,
				Comment:                it.Comment,
			}
			items[i].RequestedTotalPrice = items[i].RequestedTotal()
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
		resp.Items = items
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// GetResponses lists every response on a version, oldest first, summary and itemized
// responses interleaved by response time.
func (s *ResponseService) GetResponses(ctx context.Context, versionID uint) ([]ResponseEntry, error) {
	if _, err := s.loadVersion(ctx, versionID); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	var summaries []models.CustomerResponse
	if err := db.Where("quotation_version_id = ?", versionID).Order("responded_at, id").Find(&summaries).Error; err != nil {
		return nil, dbError(err, "customer response")
	}
	var itemized []models.QuotationResponse
	if err := db.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("quotation_version_id = ?", versionID).
		Order("response_number").
		Find(&itemized).Error; err != nil {
		return nil, dbError(err, "quotation response")
	}

	entries := make([]ResponseEntry, 0, len(summaries)+len(itemized))
	for i := range summaries {
		entries = append(entries, newResponseEntry(&summaries[i]))
	}
	for i := range itemized {
		entries = append(entries, newResponseEntry(&itemized[i]))
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].RespondedAt.Before(entries[j].RespondedAt)
	})
	return entries, nil
}
