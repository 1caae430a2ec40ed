package services

import (
	"testing"
	"time"

	"github.com/diewo77/uds-rfq/internal/events"
	"github.com/diewo77/uds-rfq/internal/lifecycle"
	"github.com/diewo77/uds-rfq/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type quotedRfq struct {
	rfq     models.Rfq
	version *models.QuotationVersion
}

func quote(t *testing.T, gdb *gorm.DB, svc *Services, prefix string) quotedRfq {
	t.Helper()
	a := createSku(t, gdb, prefix+"-A")
	b := createSku(t, gdb, prefix+"-B")
	rfq := createRfq(t, gdb, lifecycle.StatusNew)
	v, err := svc.Versions.CreateVersion(bg, CreateVersionInput{
		RfqID: rfq.ID, EntryType: lifecycle.EntryInternalQuote,
		Items: []ItemInput{
			{SkuID: a.ID, Quantity: 10, UnitPrice: dec("2.50")},
			{SkuID: b.ID, Quantity: 4, UnitPrice: dec("7")},
		},
	})
	require.NoError(t, err)
	return quotedRfq{rfq: rfq, version: v}
}

func TestRecordResponse(t *testing.T) {
	gdb := newTestDB(t)
	pub := &recordingPublisher{}
	now := time.Date(2026, 7, 1, 15, 0, 0, 0, time.UTC)
	svc := New(gdb, WithPublisher(pub), fixedClock(now))
	q := quote(t, gdb, svc, "Q1")

	resp, err := svc.Responses.RecordResponse(bg, q.version.ID, ResponseInput{
		Status:           models.ResponseAccepted,
		RequestedChanges: "none really",
	})
	require.NoError(t, err)
	assert.Equal(t, "none really", resp.RequestedChanges, "kept whatever the status")
	assert.True(t, resp.RespondedAt.Equal(now))
	assert.Contains(t, pub.types(), events.ResponseRecorded)

	// A response never moves the RFQ.
	assert.Equal(t, lifecycle.StatusPriced, reloadRfq(t, gdb, q.rfq.ID).Status)

	_, err = svc.Responses.RecordResponse(bg, q.version.ID, ResponseInput{Status: "MAYBE"})
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "invalid", AsError(err).Details["status"])

	_, err = svc.Responses.RecordResponse(bg, 999, ResponseInput{Status: models.ResponseAccepted})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordDetailedResponse(t *testing.T) {
	gdb := newTestDB(t)
	svc := New(gdb)
	q := quote(t, gdb, svc, "Q1")
	lineA, lineB := q.version.Items[0], q.version.Items[1]
	at := time.Date(2026, 7, 2, 9, 0, 0, 0, time.UTC)

	resp, err := svc.Responses.RecordDetailedResponse(bg, q.rfq.ID, q.version.ID, DetailedResponseInput{
		OverallStatus: models.ResponseNegotiating,
		ResponseDate:  &at,
		Items: []ResponseItemInput{
			{VersionItemID: lineA.ID, RequestedQuantity: ptr(12), RequestedUnitPrice: ptr(dec("2.25"))},
			{VersionItemID: lineB.ID, Status: models.ResponseAccepted},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.ResponseNumber)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, lineA.SkuID, resp.Items[0].SkuID, "sku taken from the version line")
	assert.Equal(t, models.ResponseNegotiating, resp.Items[0].Status, "defaults to the overall status")
	require.NotNil(t, resp.Items[0].RequestedTotalPrice)
	assert.True(t, resp.Items[0].RequestedTotalPrice.Equal(dec("27")))
	assert.Equal(t, models.ResponseAccepted, resp.Items[1].Status)
	assert.Nil(t, resp.Items[1].RequestedTotalPrice)

	second, err := svc.Responses.RecordDetailedResponse(bg, q.rfq.ID, q.version.ID, DetailedResponseInput{
		OverallStatus: models.ResponseAccepted,
		ResponseDate:  ptr(at.Add(time.Hour)),
		Items:         []ResponseItemInput{{VersionItemID: lineA.ID, SkuID: lineA.SkuID}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, second.ResponseNumber)
}

func TestRecordDetailedResponseValidation(t *testing.T) {
	gdb := newTestDB(t)
	svc := New(gdb)
	q := quote(t, gdb, svc, "Q1")
	other := quote(t, gdb, svc, "Q2")
	line := q.version.Items[0]

	_, err := svc.Responses.RecordDetailedResponse(bg, q.rfq.ID, q.version.ID, DetailedResponseInput{})
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, map[string]string{
		"overall_status": "required",
		"response_date":  "required",
		"items":          "required",
	}, map[string]string(AsError(err).Details))

	_, err = svc.Responses.RecordDetailedResponse(bg, q.rfq.ID, q.version.ID, DetailedResponseInput{
		OverallStatus: models.ResponseDeclined,
		ResponseDate:  ptr(time.Now()),
		Items: []ResponseItemInput{
			{VersionItemID: other.version.Items[0].ID},
			{VersionItemID: line.ID, SkuID: line.SkuID + 100, RequestedQuantity: ptr(0)},
		},
	})
	require.ErrorIs(t, err, ErrValidation)
	details := AsError(err).Details
	assert.Equal(t, "invalid", details["items[0].version_item_id"])
	assert.Equal(t, "invalid", details["items[1].sku_id"])
	assert.Equal(t, "must_be_positive", details["items[1].requested_quantity"])

	_, err = svc.Responses.RecordDetailedResponse(bg, q.rfq.ID, other.version.ID, DetailedResponseInput{})
	assert.ErrorIs(t, err, ErrNotFound, "version belongs to another rfq")
}

func TestGetResponsesInterleaves(t *testing.T) {
	gdb := newTestDB(t)
	svc := New(gdb)
	q := quote(t, gdb, svc, "Q1")
	t0 := time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)

	_, err := svc.Responses.RecordResponse(bg, q.version.ID, ResponseInput{Status: models.ResponseNegotiating, RespondedAt: ptr(t0.Add(2 * time.Hour))})
	require.NoError(t, err)
	_, err = svc.Responses.RecordDetailedResponse(bg, q.rfq.ID, q.version.ID, DetailedResponseInput{
		OverallStatus: models.ResponseNegotiating,
		ResponseDate:  &t0,
		Items:         []ResponseItemInput{{VersionItemID: q.version.Items[0].ID}},
	})
	require.NoError(t, err)
	_, err = svc.Responses.RecordResponse(bg, q.version.ID, ResponseInput{Status: models.ResponseAccepted, RespondedAt: ptr(t0.Add(3 * time.Hour))})
	require.NoError(t, err)

	entries, err := svc.Responses.GetResponses(bg, q.version.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, models.ResponseKindItemized, entries[0].Kind)
	require.NotNil(t, entries[0].Itemized)
	assert.Nil(t, entries[0].Summary)
	assert.Len(t, entries[0].Itemized.Items, 1)

	assert.Equal(t, models.ResponseKindSummary, entries[1].Kind)
	assert.Equal(t, models.ResponseNegotiating, entries[1].Status)
	assert.Equal(t, models.ResponseAccepted, entries[2].Status)
	for _, e := range entries {
		assert.Equal(t, q.version.ID, e.VersionID)
	}

	_, err = svc.Responses.GetResponses(bg, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}
