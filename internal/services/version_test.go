package services

import (
	"sort"
	"sync"
	"testing"

	"github.com/diewo77/uds-rfq/internal/events"
	"github.com/diewo77/uds-rfq/internal/lifecycle"
	"github.com/diewo77/uds-rfq/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuotationLifecycleScenario(t *testing.T) {
	gdb := newTestDB(t)
	pub := &recordingPublisher{}
	svc := New(gdb, WithPublisher(pub))
	sku := createSku(t, gdb, "UDS-1")

	rfq, err := svc.Rfqs.CreateRfq(bg, RfqInput{Title: "Pump spares"})
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusNew, rfq.Status)

	v1, err := svc.Versions.CreateVersion(bg, CreateVersionInput{
		RfqID:     rfq.ID,
		EntryType: lifecycle.EntryInternalQuote,
		Items:     []ItemInput{{SkuID: sku.ID, Quantity: 2, UnitPrice: dec("5")}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, v1.VersionNumber)
	assert.Equal(t, lifecycle.StatusPriced, v1.Status)

	got := reloadRfq(t, gdb, rfq.ID)
	assert.Equal(t, lifecycle.StatusPriced, got.Status)
	require.NotNil(t, got.CurrentVersionID)
	assert.Equal(t, v1.ID, *got.CurrentVersionID)
	assert.Equal(t, uint(1), *got.CurrentVersionID)

	_, err = svc.Negotiation.RecordCommunication(bg, rfq.ID, CommunicationInput{
		Direction:         models.DirectionOutbound,
		CommunicationType: models.CommunicationEmail,
		Content:           "sent quote",
		CommunicationDate: ptr(got.UpdatedAt),
	})
	require.NoError(t, err)

	v2, err := svc.Versions.CreateVersion(bg, CreateVersionInput{
		RfqID:     rfq.ID,
		EntryType: lifecycle.EntryCustomerFeedback,
		Items:     []ItemInput{{SkuID: sku.ID, Quantity: 3, UnitPrice: dec("4.5")}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, v2.VersionNumber)

	got = reloadRfq(t, gdb, rfq.ID)
	assert.Equal(t, lifecycle.StatusNegotiating, got.Status)
	assert.Equal(t, v2.ID, *got.CurrentVersionID)

	assert.Equal(t, []string{
		events.RfqCreated, events.VersionCreated, events.CommunicationRecorded, events.VersionCreated,
	}, pub.types())
}

func TestCreateVersionPricing(t *testing.T) {
	gdb := newTestDB(t)
	svc := New(gdb)
	a := createSku(t, gdb, "A")
	b := createSku(t, gdb, "B")

	tests := []struct {
		name      string
		items     []ItemInput
		lineTotal []string
		estimate  string
	}{
		{"cents kept per item, aggregate rounded", []ItemInput{{SkuID: a.ID, Quantity: 3, UnitPrice: dec("10.5")}}, []string{"31.5"}, "32"},
		{"rounds down below half", []ItemInput{{SkuID: a.ID, Quantity: 1, UnitPrice: dec("0.25")}, {SkuID: b.ID, Quantity: 1, UnitPrice: dec("0.24")}}, []string{"0.25", "0.24"}, "0"},
		{"sums before rounding", []ItemInput{{SkuID: a.ID, Quantity: 2, UnitPrice: dec("1.25")}, {SkuID: b.ID, Quantity: 4, UnitPrice: dec("0.5")}}, []string{"2.5", "2"}, "5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rfq := createRfq(t, gdb, lifecycle.StatusNew)
			v, err := svc.Versions.CreateVersion(bg, CreateVersionInput{RfqID: rfq.ID, EntryType: lifecycle.EntryInternalQuote, Items: tt.items})
			require.NoError(t, err)
			assert.True(t, v.EstimatedPrice.Equal(dec(tt.estimate)), "estimated %s", v.EstimatedPrice)
			assert.True(t, v.FinalPrice.Equal(dec(tt.estimate)), "final %s", v.FinalPrice)

			stored, err := svc.Versions.GetVersion(bg, rfq.ID, v.VersionNumber)
			require.NoError(t, err)
			require.Len(t, stored.Items, len(tt.lineTotal))
			for i, want := range tt.lineTotal {
				assert.True(t, stored.Items[i].TotalPrice.Equal(dec(want)), "item %d total %s", i, stored.Items[i].TotalPrice)
			}
			assert.True(t, stored.EstimatedPrice.Equal(dec(tt.estimate)))
		})
	}
}

func TestCreateVersionExplicitPrices(t *testing.T) {
	gdb := newTestDB(t)
	svc := New(gdb)
	sku := createSku(t, gdb, "A")
	rfq := createRfq(t, gdb, lifecycle.StatusDraft)

	v, err := svc.Versions.CreateVersion(bg, CreateVersionInput{
		RfqID:          rfq.ID,
		EntryType:      lifecycle.EntryInternalQuote,
		Items:          []ItemInput{{SkuID: sku.ID, Quantity: 10, UnitPrice: dec("2")}},
		EstimatedPrice: ptr(dec("19")),
		FinalPrice:     ptr(dec("18")),
	})
	require.NoError(t, err)
	assert.True(t, v.EstimatedPrice.Equal(dec("19")))
	assert.True(t, v.FinalPrice.Equal(dec("18")))
}

func TestCreateVersionRoundsExplicitPrices(t *testing.T) {
	gdb := newTestDB(t)
	svc := New(gdb)
	sku := createSku(t, gdb, "A")
	rfq := createRfq(t, gdb, lifecycle.StatusNew)

	v, err := svc.Versions.CreateVersion(bg, CreateVersionInput{
		RfqID:          rfq.ID,
		EntryType:      lifecycle.EntryInternalQuote,
		Items:          []ItemInput{{SkuID: sku.ID, Quantity: 1, UnitPrice: dec("12")}},
		EstimatedPrice: ptr(dec("12.345")),
		FinalPrice:     ptr(dec("11.994")),
	})
	require.NoError(t, err)
	assert.Equal(t, "12.35", v.EstimatedPrice.StringFixed(2))
	assert.True(t, v.EstimatedPrice.Equal(dec("12.35")))
	assert.True(t, v.FinalPrice.Equal(dec("11.99")))

	updated, err := svc.Versions.UpdateVersionStatus(bg, rfq.ID, v.VersionNumber, VersionStatusUpdate{
		Status:     lifecycle.StatusPriced,
		FinalPrice: ptr(dec("10.005")),
	})
	require.NoError(t, err)
	assert.True(t, updated.FinalPrice.Equal(dec("10.01")))
}

func TestCreateVersionRollsBackOnItemFailure(t *testing.T) {
	gdb := newTestDB(t)
	svc := New(gdb)
	sku := createSku(t, gdb, "A")
	rfq := createRfq(t, gdb, lifecycle.StatusNew)
	require.NoError(t, gdb.Migrator().DropTable(&models.QuotationVersionItem{}))

	_, err := svc.Versions.CreateVersion(bg, CreateVersionInput{
		RfqID:     rfq.ID,
		EntryType: lifecycle.EntryInternalQuote,
		Items:     []ItemInput{{SkuID: sku.ID, Quantity: 2, UnitPrice: dec("3")}},
	})
	require.ErrorIs(t, err, ErrPersistence)

	assert.Zero(t, countVersions(t, gdb, rfq.ID))
	got := reloadRfq(t, gdb, rfq.ID)
	assert.Equal(t, lifecycle.StatusNew, got.Status)
	assert.Nil(t, got.CurrentVersionID)
}

func TestCreateVersionEmptyItemsWritesNothing(t *testing.T) {
	gdb := newTestDB(t)
	svc := New(gdb)
	rfq := createRfq(t, gdb, lifecycle.StatusNew)

	_, err := svc.Versions.CreateVersion(bg, CreateVersionInput{RfqID: rfq.ID, EntryType: lifecycle.EntryInternalQuote})
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "required", AsError(err).Details["items"])

	assert.Zero(t, countVersions(t, gdb, rfq.ID))
	got := reloadRfq(t, gdb, rfq.ID)
	assert.Equal(t, lifecycle.StatusNew, got.Status)
	assert.Nil(t, got.CurrentVersionID)
}

func TestCreateVersionReportsOffendingItems(t *testing.T) {
	gdb := newTestDB(t)
	svc := New(gdb)
	sku := createSku(t, gdb, "A")
	rfq := createRfq(t, gdb, lifecycle.StatusNew)

	_, err := svc.Versions.CreateVersion(bg, CreateVersionInput{
		RfqID:     rfq.ID,
		EntryType: "price_hike",
		Items: []ItemInput{
			{SkuID: sku.ID, Quantity: 1, UnitPrice: dec("1")},
			{SkuID: sku.ID, Quantity: 0, UnitPrice: dec("1")},
			{Quantity: 1, UnitPrice: dec("-0.01")},
		},
	})
	require.ErrorIs(t, err, ErrValidation)
	details := AsError(err).Details
	assert.Equal(t, "invalid", details["entry_type"])
	assert.Equal(t, "must_be_positive", details["items[1].quantity"])
	assert.Equal(t, "required", details["items[2].sku_id"])
	assert.Equal(t, "must_not_be_negative", details["items[2].unit_price"])
	assert.NotContains(t, details, "items[0].quantity")
	assert.Zero(t, countVersions(t, gdb, rfq.ID))
}

func TestCreateVersionClosedRfq(t *testing.T) {
	gdb := newTestDB(t)
	svc := New(gdb)
	sku := createSku(t, gdb, "A")
	rfq := createRfq(t, gdb, lifecycle.StatusNew)
	items := []ItemInput{{SkuID: sku.ID, Quantity: 1, UnitPrice: dec("3")}}

	_, err := svc.Versions.CreateVersion(bg, CreateVersionInput{RfqID: rfq.ID, EntryType: lifecycle.EntryInternalQuote, Items: items})
	require.NoError(t, err)

	for _, status := range []lifecycle.Status{lifecycle.StatusAccepted, lifecycle.StatusDeclined, lifecycle.StatusProcessed} {
		t.Run(string(status), func(t *testing.T) {
			require.NoError(t, gdb.Model(&models.Rfq{}).Where("id = ?", rfq.ID).Update("status", status).Error)

			_, err := svc.Versions.CreateVersion(bg, CreateVersionInput{RfqID: rfq.ID, EntryType: lifecycle.EntryCounterOffer, Items: items})
			require.ErrorIs(t, err, ErrInvalidState)
			assert.Contains(t, err.Error(), string(status))
			assert.Equal(t, int64(1), countVersions(t, gdb, rfq.ID))
			assert.Equal(t, status, reloadRfq(t, gdb, rfq.ID).Status)
		})
	}
}

func TestCreateVersionUnknownRfq(t *testing.T) {
	svc := New(newTestDB(t))
	_, err := svc.Versions.CreateVersion(bg, CreateVersionInput{RfqID: 404, EntryType: lifecycle.EntryInternalQuote})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateVersionConcurrentNumbersAreGapless(t *testing.T) {
	gdb := newFileDB(t)
	svc := New(gdb)
	sku := createSku(t, gdb, "A")
	rfq := createRfq(t, gdb, lifecycle.StatusSent)

	const n = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers []int
		errs    []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := svc.Versions.CreateVersion(bg, CreateVersionInput{
				RfqID:     rfq.ID,
				EntryType: lifecycle.EntryCounterOffer,
				Items:     []ItemInput{{SkuID: sku.ID, Quantity: 1, UnitPrice: dec("1")}},
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			numbers = append(numbers, v.VersionNumber)
		}()
	}
	wg.Wait()

	require.Empty(t, errs)
	sort.Ints(numbers)
	want := make([]int, n)
	for i := range want {
		want[i] = i + 1
	}
	assert.Equal(t, want, numbers)

	var latest models.QuotationVersion
	require.NoError(t, gdb.Where("rfq_id = ? AND version_number = ?", rfq.ID, n).First(&latest).Error)
	got := reloadRfq(t, gdb, rfq.ID)
	require.NotNil(t, got.CurrentVersionID)
	assert.Equal(t, latest.ID, *got.CurrentVersionID)
	assert.Equal(t, lifecycle.StatusNegotiating, got.Status)
}

func TestGetVersionsNewestFirstWithSkus(t *testing.T) {
	gdb := newTestDB(t)
	svc := New(gdb)
	sku := createSku(t, gdb, "UDS-9")
	rfq := createRfq(t, gdb, lifecycle.StatusNew)

	for i := 0; i < 3; i++ {
		_, err := svc.Versions.CreateVersion(bg, CreateVersionInput{
			RfqID:     rfq.ID,
			EntryType: lifecycle.EntryInternalQuote,
			Items:     []ItemInput{{SkuID: sku.ID, Quantity: i + 1, UnitPrice: dec("2")}},
		})
		require.NoError(t, err)
	}

	versions, err := svc.Versions.GetVersions(bg, rfq.ID)
	require.NoError(t, err)
	require.Len(t, versions, 3)
	for i, want := range []int{3, 2, 1} {
		assert.Equal(t, want, versions[i].VersionNumber)
		require.Len(t, versions[i].Items, 1)
		require.NotNil(t, versions[i].Items[0].Sku)
		assert.Equal(t, "UDS-9", versions[i].Items[0].Sku.Sku)
		assert.Equal(t, "Acme", versions[i].Items[0].Sku.Brand)
	}

	_, err = svc.Versions.GetVersions(bg, 999)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Versions.GetVersion(bg, rfq.ID, 7)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateVersionStatus(t *testing.T) {
	gdb := newTestDB(t)
	svc := New(gdb)
	sku := createSku(t, gdb, "A")
	rfq := createRfq(t, gdb, lifecycle.StatusNew)
	v, err := svc.Versions.CreateVersion(bg, CreateVersionInput{
		RfqID: rfq.ID, EntryType: lifecycle.EntryInternalQuote, Notes: "first pass",
		Items: []ItemInput{{SkuID: sku.ID, Quantity: 4, UnitPrice: dec("2.5")}},
	})
	require.NoError(t, err)

	updated, err := svc.Versions.UpdateVersionStatus(bg, rfq.ID, v.VersionNumber, VersionStatusUpdate{
		Status:     lifecycle.StatusAccepted,
		Notes:      ptr("customer signed"),
		FinalPrice: ptr(dec("9.5")),
	})
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusAccepted, updated.Status)
	assert.Equal(t, "customer signed", updated.Notes)
	assert.True(t, updated.FinalPrice.Equal(dec("9.5")))
	assert.True(t, updated.EstimatedPrice.Equal(dec("10")), "estimated price is untouched")
	assert.Equal(t, lifecycle.StatusPriced, reloadRfq(t, gdb, rfq.ID).Status, "rfq status is not routed through the table")

	// Notes omitted: kept as is.
	updated, err = svc.Versions.UpdateVersionStatus(bg, rfq.ID, v.VersionNumber, VersionStatusUpdate{Status: lifecycle.StatusDeclined})
	require.NoError(t, err)
	assert.Equal(t, "customer signed", updated.Notes)

	_, err = svc.Versions.UpdateVersionStatus(bg, rfq.ID, v.VersionNumber, VersionStatusUpdate{Status: "LOST"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.Versions.UpdateVersionStatus(bg, rfq.ID, 42, VersionStatusUpdate{Status: lifecycle.StatusAccepted})
	assert.ErrorIs(t, err, ErrNotFound)
}
