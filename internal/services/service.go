// Package services implements the quotation lifecycle: RFQs, versioned quotations, the
// negotiation ledger and customer responses, on top of gorm.
package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/diewo77/uds-rfq/internal/events"
	"github.com/diewo77/uds-rfq/internal/models"
	"github.com/diewo77/uds-rfq/internal/telemetry"
	"gorm.io/gorm"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// base carries the collaborators every service shares.
type base struct {
	db      *gorm.DB
	events  events.Publisher
	metrics *telemetry.Metrics
	log     *slog.Logger
	now     func() time.Time
}

// Option configures a service.
type Option func(*base)

// WithPublisher emits lifecycle events to p after each successful write.
func WithPublisher(p events.Publisher) Option { return func(b *base) { b.events = p } }

// WithMetrics records service metrics on m.
func WithMetrics(m *telemetry.Metrics) Option { return func(b *base) { b.metrics = m } }

// WithLogger replaces the default slog logger.
func WithLogger(l *slog.Logger) Option { return func(b *base) { b.log = l } }

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option { return func(b *base) { b.now = now } }

func newBase(db *gorm.DB, opts []Option) base {
	b := base{db: db, log: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func (b *base) publish(evt events.Event) {
	if b.events != nil {
		b.events.Publish(evt)
	}
}

// loadRfq fetches an RFQ or returns a not_found error.
func (b *base) loadRfq(ctx context.Context, id uint) (*models.Rfq, error) {
	var rfq models.Rfq
	if err := b.db.WithContext(ctx).First(&rfq, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("rfq %d not found", id)
		}
		return nil, dbError(err, "rfq")
	}
	return &rfq, nil
}

// lockRfq writes the RFQ row inside tx. The write takes the row lock on PostgreSQL and the
// database write lock on SQLite, so sequence allocation under one RFQ is serialized until
// tx ends.
func (b *base) lockRfq(tx *gorm.DB, id uint) (*models.Rfq, error) {
	res := tx.Model(&models.Rfq{}).Where("id = ?", id).Update("updated_at", b.now())
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, notFound("rfq %d not found", id)
	}
	var rfq models.Rfq
	if err := tx.First(&rfq, id).Error; err != nil {
		return nil, err
	}
	return &rfq, nil
}

// retryOnConflict runs fn and, if it lost a sequence race, runs it once more.
func (b *base) retryOnConflict(ctx context.Context, sequence string, fn func() error) error {
	err := fn()
	if errors.Is(err, ErrConflict) {
		b.metrics.SequenceConflict(ctx, sequence)
		b.log.WarnContext(ctx, "sequence conflict, retrying", "sequence", sequence, "error", err)
		err = fn()
	}
	return err
}

// pageBounds applies the default and maximum list sizes.
func pageBounds(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// Services groups every service over one database.
type Services struct {
	Rfqs        *RfqService
	Versions    *VersionService
	Negotiation *NegotiationService
	Responses   *ResponseService
	Inventory   *InventoryService
	Customers   *CustomerService
	Export      *ExportService
}

// New builds all services sharing db and opts. The inventory service resolves SKUs for
// the others.
func New(db *gorm.DB, opts ...Option) *Services {
	inv := NewInventoryService(db, opts...)
	return &Services{
		Rfqs:        NewRfqService(db, opts...),
		Versions:    NewVersionService(db, inv, opts...),
		Negotiation: NewNegotiationService(db, inv, opts...),
		Responses:   NewResponseService(db, opts...),
		Inventory:   inv,
		Customers:   NewCustomerService(db, opts...),
		Export:      NewExportService(db, inv, opts...),
	}
}
