package services

import (
	"context"
	"errors"

	"github.com/diewo77/uds-rfq/internal/events"
	"github.com/diewo77/uds-rfq/internal/lifecycle"
	"github.com/diewo77/uds-rfq/internal/models"
	"github.com/diewo77/uds-rfq/validation"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// VersionService creates and reads quotation versions.
type VersionService struct {
	base
	skus SkuResolver
}

func NewVersionService(db *gorm.DB, skus SkuResolver, opts ...Option) *VersionService {
	return &VersionService{base: newBase(db, opts), skus: skus}
}

// priceScale matches the decimal(14,2) version price columns.
const priceScale = 2

type ItemInput struct {
	SkuID     uint            `json:"sku_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Comment   string          `json:"comment,omitempty"`
}

type CreateVersionInput struct {
	RfqID             uint                `json:"-"`
	EntryType         lifecycle.EntryType `json:"entry_type"`
	Items             []ItemInput         `json:"items"`
	Notes             string              `json:"notes,omitempty"`
	Changes           string              `json:"changes,omitempty"`
	CreatedBy         string              `json:"created_by,omitempty"`
	SubmittedByUserID *string             `json:"submitted_by_user_id,omitempty"`

	// Explicit prices replace the aggregate computed from the items.
	EstimatedPrice *decimal.Decimal `json:"estimated_price,omitempty"`
	FinalPrice     *decimal.Decimal `json:"final_price,omitempty"`
}

type VersionStatusUpdate struct {
	Status     lifecycle.Status `json:"status"`
	Notes      *string          `json:"notes,omitempty"`
	FinalPrice *decimal.Decimal `json:"final_price,omitempty"`
}

// CreateVersion appends the next quotation version to an RFQ and advances the RFQ status
// according to the entry type. The RFQ must accept new versions.
func (s *VersionService) CreateVersion(ctx context.Context, in CreateVersionInput) (*models.QuotationVersion, error) {
	rfq, err := s.loadRfq(ctx, in.RfqID)
	if err != nil {
		return nil, err
	}
	if !lifecycle.CanCreateVersion(rfq.Status) {
		return nil, invalidState("cannot create a version for rfq %d in status %s", rfq.ID, rfq.Status)
	}
	if v := validateVersionInput(in); !v.Empty() {
		return nil, validationFailed(v)
	}

	var version *models.QuotationVersion
	err = s.retryOnConflict(ctx, "version", func() error {
		var txErr error
		version, txErr = s.insertVersion(ctx, in)
		return dbError(txErr, "quotation version")
	})
	if err != nil {
		return nil, err
	}

	s.metrics.VersionCreated(ctx, string(in.EntryType))
	s.log.InfoContext(ctx, "quotation version created",
		"rfq_id", in.RfqID, "version_id", version.ID, "version_number", version.VersionNumber,
		"entry_type", in.EntryType, "status", version.Status)
	s.publish(events.Event{Type: events.VersionCreated, RfqID: in.RfqID, ID: version.ID, Action: "create", Status: string(version.Status)})

	s.enrich(ctx, version)
	return version, nil
}

// insertVersion allocates the version number, writes version and items and advances the
// RFQ, all in one transaction.
func (s *VersionService) insertVersion(ctx context.Context, in CreateVersionInput) (*models.QuotationVersion, error) {
	var version *models.QuotationVersion
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rfq, err := s.lockRfq(tx, in.RfqID)
		if err != nil {
			return err
		}
		// Status may have moved since the pre-check.
		if !lifecycle.CanCreateVersion(rfq.Status) {
			return invalidState("cannot create a version for rfq %d in status %s", rfq.ID, rfq.Status)
		}

		var last int
		if err := tx.Model(&models.QuotationVersion{}).
			Where("rfq_id = ?", rfq.ID).
			Select("COALESCE(MAX(version_number), 0)").
			Scan(&last).Error; err != nil {
			return err
		}

		items := buildItems(in.Items)
		estimated := models.AggregatePrice(items)
		final := estimated
		if in.EstimatedPrice != nil {
			estimated = in.EstimatedPrice.Round(priceScale)
		}
		if in.FinalPrice != nil {
			final = in.FinalPrice.Round(priceScale)
		}
		next := lifecycle.NextRfqStatus(rfq.Status, in.EntryType)

		version = &models.QuotationVersion{
			RfqID:             rfq.ID,
			VersionNumber:     last + 1,
			EntryType:         in.EntryType,
			Status:            next,
			EstimatedPrice:    estimated,
			FinalPrice:        final,
			Changes:           in.Changes,
			Notes:             in.Notes,
			CreatedBy:         in.CreatedBy,
			SubmittedByUserID: in.SubmittedByUserID,
		}
		if err := tx.Create(version).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].QuotationVersionID = version.ID
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
		version.Items = items

		return tx.Model(&models.Rfq{}).Where("id = ?", rfq.ID).Updates(map[string]any{
			"status":             next,
			"current_version_id": version.ID,
			"updated_at":         s.now(),
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return version, nil
}

func validateVersionInput(in CreateVersionInput) validation.Violations {
	v := make(validation.Violations)
	if !in.EntryType.Valid() {
		v.Add("entry_type", "invalid")
	}
	if len(in.Items) == 0 {
		v.Add("items", "required")
	}
	for i, it := range in.Items {
		validation.PositiveID(validation.Item("items", i, "sku_id"), it.SkuID, v)
		validation.PositiveInt(validation.Item("items", i, "quantity"), it.Quantity, v)
		validation.NonNegativeDecimal(validation.Item("items", i, "unit_price"), it.UnitPrice, v)
	}
	if in.EstimatedPrice != nil {
		validation.NonNegativeDecimal("estimated_price", *in.EstimatedPrice, v)
	}
	if in.FinalPrice != nil {
		validation.NonNegativeDecimal("final_price", *in.FinalPrice, v)
	}
	return v
}

func buildItems(in []ItemInput) []models.QuotationVersionItem {
	items := make([]models.QuotationVersionItem, len(in))
	for i, it := range in {
		items[i] = models.QuotationVersionItem{
			SkuID:     it.SkuID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Comment:   it.Comment,
		}
		items[i].TotalPrice = items[i].LineTotal()
	}
	return items
}

// GetVersions lists an RFQ's versions, newest first, with their items.
func (s *VersionService) GetVersions(ctx context.Context, rfqID uint) ([]models.QuotationVersion, error) {
	if _, err := s.loadRfq(ctx, rfqID); err != nil {
		return nil, err
	}
	var versions []models.QuotationVersion
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("rfq_id = ?", rfqID).
		Order("version_number DESC").
		Find(&versions).Error
	if err != nil {
		return nil, dbError(err, "quotation version")
	}
	ptrs := make([]*models.QuotationVersion, len(versions))
	for i := range versions {
		ptrs[i] = &versions[i]
	}
	s.enrich(ctx, ptrs...)
	return versions, nil
}

// GetVersion returns one version of an RFQ by its number.
func (s *VersionService) GetVersion(ctx context.Context, rfqID uint, number int) (*models.QuotationVersion, error) {
	version, err := s.findVersion(ctx, rfqID, number)
	if err != nil {
		return nil, err
	}
	s.enrich(ctx, version)
	return version, nil
}

func (s *VersionService) findVersion(ctx context.Context, rfqID uint, number int) (*models.QuotationVersion, error) {
	var version models.QuotationVersion
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("rfq_id = ? AND version_number = ?", rfqID, number).
		First(&version).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("version %d of rfq %d not found", number, rfqID)
	}
	if err != nil {
		return nil, dbError(err, "quotation version")
	}
	return &version, nil
}

// UpdateVersionStatus is the administrative override of a version's status. The status is
// checked against the enum only; the RFQ itself is left alone. Only status, notes and
// final price change.
func (s *VersionService) UpdateVersionStatus(ctx context.Context, rfqID uint, number int, upd VersionStatusUpdate) (*models.QuotationVersion, error) {
	version, err := s.findVersion(ctx, rfqID, number)
	if err != nil {
		return nil, err
	}
	v := make(validation.Violations)
	if !upd.Status.Valid() {
		v.Add("status", "invalid")
	}
	if upd.FinalPrice != nil {
		validation.NonNegativeDecimal("final_price", *upd.FinalPrice, v)
	}
	if !v.Empty() {
		return nil, validationFailed(v)
	}

	changes := map[string]any{"status": upd.Status}
	if upd.Notes != nil {
		changes["notes"] = *upd.Notes
	}
	if upd.FinalPrice != nil {
		changes["final_price"] = upd.FinalPrice.Round(priceScale)
	}
	if err := s.db.WithContext(ctx).Model(version).Updates(changes).Error; err != nil {
		return nil, dbError(err, "quotation version")
	}

	s.log.InfoContext(ctx, "quotation version status updated", "rfq_id", rfqID, "version_number", number, "status", upd.Status)
	s.publish(events.Event{Type: events.VersionStatusUpdated, RfqID: rfqID, ID: version.ID, Action: "update", Status: string(upd.Status)})
	return s.GetVersion(ctx, rfqID, number)
}

// enrich attaches inventory descriptors to every item. A failed lookup leaves the items
// as stored.
func (s *VersionService) enrich(ctx context.Context, versions ...*models.QuotationVersion) {
	if s.skus == nil {
		return
	}
	var ids []uint
	for _, v := range versions {
		for _, it := range v.Items {
			ids = append(ids, it.SkuID)
		}
	}
	if len(ids) == 0 {
		return
	}
	skus, err := s.skus.ResolveSkus(ctx, ids)
	if err != nil {
		s.log.WarnContext(ctx, "sku enrichment failed", "error", err)
		return
	}
	for _, v := range versions {
		for i := range v.Items {
			if d, ok := skus[v.Items[i].SkuID]; ok {
				v.Items[i].Sku = &d
			}
		}
	}
}
