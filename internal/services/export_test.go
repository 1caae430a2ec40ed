package services

import (
	"bytes"
	"testing"
	"time"

	"github.com/diewo77/uds-rfq/internal/lifecycle"
	"github.com/diewo77/uds-rfq/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExportRfqWorkbook(t *testing.T) {
	gdb := newTestDB(t)
	svc := New(gdb)
	sku := createSku(t, gdb, "UDS-7")
	rfq := createRfq(t, gdb, lifecycle.StatusNew)

	_, err := svc.Versions.CreateVersion(bg, CreateVersionInput{
		RfqID: rfq.ID, EntryType: lifecycle.EntryInternalQuote,
		Items: []ItemInput{{SkuID: sku.ID, Quantity: 3, UnitPrice: dec("10.5")}},
	})
	require.NoError(t, err)
	in := communication("quote sent", time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC))
	in.FollowUpRequired = true
	_, err = svc.Negotiation.RecordCommunication(bg, rfq.ID, in)
	require.NoError(t, err)
	_, err = svc.Negotiation.RecordSkuChange(bg, rfq.ID, sku.ID, SkuChangeInput{OldQuantity: ptr(3), NewQuantity: ptr(5), ChangedBy: models.ChangedByInternal})
	require.NoError(t, err)

	data, err := svc.Export.ExportRfqWorkbook(bg, rfq.ID)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Versions", "Communications", "SKU Changes"}, f.GetSheetList())

	rows, err := f.GetRows("Versions")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Version", rows[0][0])
	assert.Equal(t, []string{"1", "internal_quote", "PRICED", "UDS-7", "3", "10.5", "31.5", "32", "32"}, rows[1][:9])

	rows, err = f.GetRows("Communications")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2026-09-01 10:00", rows[1][0])
	assert.Equal(t, "pending", rows[1][6])

	rows, err = f.GetRows("SKU Changes")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"UDS-7", "QUANTITY_CHANGE", "3", "5"}, rows[1][1:5])
	assert.Equal(t, "INTERNAL", rows[1][7])

	_, err = svc.Export.ExportRfqWorkbook(bg, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExportEmptyRfq(t *testing.T) {
	gdb := newTestDB(t)
	svc := New(gdb)
	rfq := createRfq(t, gdb, lifecycle.StatusNew)

	data, err := svc.Export.ExportRfqWorkbook(bg, rfq.ID)
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Versions")
	require.NoError(t, err)
	assert.Len(t, rows, 1, "header only")
}
