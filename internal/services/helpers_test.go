package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/diewo77/uds-rfq/internal/db"
	"github.com/diewo77/uds-rfq/internal/events"
	"github.com/diewo77/uds-rfq/internal/lifecycle"
	"github.com/diewo77/uds-rfq/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openGorm(t *testing.T, dsn string) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}

// newTestDB returns a private in-memory database for the running test.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	return openGorm(t, fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
}

// newFileDB returns a file-backed database that tolerates concurrent writers.
func newFileDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rfq.db")
	return openGorm(t, path+"?_busy_timeout=10000&_journal_mode=WAL&_txlock=immediate")
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(evt events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

func createSku(t *testing.T, gdb *gorm.DB, sku string) models.InventoryItem {
	t.Helper()
	item := models.InventoryItem{Sku: sku, Description: sku + " part", Mpn: "MPN-" + sku, Brand: "Acme", QuantityOnHand: 10, UnitCost: decimal.NewFromInt(1)}
	require.NoError(t, gdb.Create(&item).Error)
	return item
}

func createRfq(t *testing.T, gdb *gorm.DB, status lifecycle.Status) models.Rfq {
	t.Helper()
	rfq := models.Rfq{Title: "Bearings for line 3", Status: status, CreatedBy: "buyer@uds.example"}
	require.NoError(t, gdb.Create(&rfq).Error)
	return rfq
}

func reloadRfq(t *testing.T, gdb *gorm.DB, id uint) models.Rfq {
	t.Helper()
	var rfq models.Rfq
	require.NoError(t, gdb.First(&rfq, id).Error)
	return rfq
}

func countVersions(t *testing.T, gdb *gorm.DB, rfqID uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, gdb.Model(&models.QuotationVersion{}).Where("rfq_id = ?", rfqID).Count(&n).Error)
	return n
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr[T any](v T) *T { return &v }

func fixedClock(at time.Time) Option {
	return WithClock(func() time.Time { return at })
}

var bg = context.Background()
