package catalog

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadbridge/leadbridge/internal/shopify"
)

const testStore = "demo.myshopify.com"

type syncFixture struct {
	shop     *fakeShop
	catalog  *memoryCatalog
	runs     *memoryRuns
	sleeps   *sleepLog
	recorder *countingRecorder
	syncer   *Syncer
}

func newSyncFixture(t *testing.T) *syncFixture {
	t.Helper()
	f := &syncFixture{
		shop:     newFakeShop(),
		catalog:  newMemoryCatalog(),
		runs:     newMemoryRuns(),
		sleeps:   &sleepLog{},
		recorder: newCountingRecorder(),
	}
	f.syncer = NewSyncer(SyncerParams{
		Products: f.catalog,
		Runs:     f.runs,
		NewAPI:   f.shop.factory(),
		Sleep:    f.sleeps.sleep,
		Recorder: f.recorder,
		Fallback: Credentials{StoreAddress: "https://" + testStore + "/", AccessToken: "shpat_env"},
	})
	return f
}

func (f *syncFixture) sync(t *testing.T) SyncResult {
	t.Helper()
	res, err := f.syncer.Synchronize(context.Background(), SyncRequest{})
	require.NoError(t, err)
	return res
}

func TestSynchronizeEndToEnd(t *testing.T) {
	f := newSyncFixture(t)
	f.shop.pages[shopify.StatusActive] = [][]shopify.Product{products(1, 250), products(251, 10)}
	f.shop.counts[shopify.StatusActive] = 260

	res := f.sync(t)

	assert.Equal(t, SyncResult{Saved: 260, TotalRemote: 260, Fetched: 260, Errors: 0}, res)
	assert.Equal(t, 3, f.shop.listCalls[shopify.StatusActive])
	assert.Equal(t, 1, f.shop.listCalls[shopify.StatusDraft])
	assert.Equal(t, 1, f.shop.listCalls[shopify.StatusArchived])
	assert.Equal(t, []int64{0, 250, 260}, f.shop.cursors[shopify.StatusActive])
	assert.Len(t, f.catalog.remoteIDs(), 260)
	assert.Equal(t, 2, f.sleeps.count(shopify.PagePause))
	assert.Zero(t, f.sleeps.count(shopify.RateLimitBackoff))
	assert.Equal(t, 2, f.recorder.pages[shopify.StatusActive])
	assert.Equal(t, 260, f.recorder.items[OutcomeSaved])
}

func TestSynchronizeCountFailuresDoNotBlockFetch(t *testing.T) {
	f := newSyncFixture(t)
	for _, state := range shopify.LifecycleStates() {
		f.shop.countErrs[state] = &shopify.StatusError{Code: http.StatusInternalServerError}
		f.shop.pages[state] = nil
	}
	f.shop.pages[shopify.StatusActive] = [][]shopify.Product{products(1, 3)}
	f.shop.pages[shopify.StatusDraft] = [][]shopify.Product{products(100, 2)}
	f.shop.pages[shopify.StatusArchived] = [][]shopify.Product{products(200, 1)}

	res := f.sync(t)

	assert.Zero(t, res.TotalRemote)
	assert.Equal(t, 6, res.Fetched)
	assert.Equal(t, 6, res.Saved)
}

func TestSynchronizeIsIdempotent(t *testing.T) {
	f := newSyncFixture(t)
	f.shop.pages[shopify.StatusActive] = [][]shopify.Product{products(1, 5)}
	f.shop.pages[shopify.StatusDraft] = [][]shopify.Product{products(50, 2)}

	first := f.sync(t)
	second := f.sync(t)

	assert.Equal(t, first.Saved, second.Saved)
	assert.Zero(t, first.Errors)
	assert.Zero(t, second.Errors)
	assert.Len(t, f.catalog.remoteIDs(), 7)
}

func TestSynchronizeStopsOnEmptyPage(t *testing.T) {
	f := newSyncFixture(t)
	f.shop.pages[shopify.StatusActive] = [][]shopify.Product{products(1, 250)}

	res := f.sync(t)

	assert.Equal(t, 250, res.Fetched)
	assert.Equal(t, 2, f.shop.listCalls[shopify.StatusActive])
}

func TestSynchronizeRetriesRateLimitedPage(t *testing.T) {
	f := newSyncFixture(t)
	f.shop.pages[shopify.StatusActive] = [][]shopify.Product{products(1, 5)}
	f.shop.listErrs[shopify.StatusActive] = []error{errTooMany}

	res := f.sync(t)

	assert.Equal(t, 5, res.Fetched)
	assert.Equal(t, 5, res.Saved)
	assert.Equal(t, 1, f.sleeps.count(shopify.RateLimitBackoff))
	assert.Equal(t, []int64{0, 0, 5}, f.shop.cursors[shopify.StatusActive])
	assert.Equal(t, 1, f.recorder.rateLimits)
}

func TestSynchronizeAbandonsOnlyFailingState(t *testing.T) {
	f := newSyncFixture(t)
	f.shop.pages[shopify.StatusActive] = [][]shopify.Product{products(1, 2)}
	f.shop.pages[shopify.StatusDraft] = [][]shopify.Product{products(10, 2), products(20, 2)}
	f.shop.pages[shopify.StatusArchived] = [][]shopify.Product{products(30, 2)}
	f.shop.listErrs[shopify.StatusDraft] = []error{&shopify.StatusError{Code: http.StatusBadGateway}}

	res := f.sync(t)

	assert.Equal(t, 4, res.Fetched)
	assert.Equal(t, 1, f.shop.listCalls[shopify.StatusDraft])
	assert.Equal(t, 2, f.shop.listCalls[shopify.StatusArchived])
}

func TestSynchronizeCountsItemFailures(t *testing.T) {
	f := newSyncFixture(t)
	f.shop.pages[shopify.StatusActive] = [][]shopify.Product{products(1, 4)}
	f.catalog.failSKU["SKU-2"] = errors.New("connection reset")

	res := f.sync(t)

	assert.Equal(t, SyncResult{Saved: 3, Fetched: 4, Errors: 1}, res)
	assert.Equal(t, 1, f.recorder.items[OutcomeError])
}

func TestSynchronizeSyntheticSKUCollidesWithManualProduct(t *testing.T) {
	f := newSyncFixture(t)
	manual := Product{ID: 1, Name: "Hand entered", SKU: "SHOPIFY-1001", Category: "Manual"}
	f.catalog.manual[manual.SKU] = manual
	f.shop.pages[shopify.StatusActive] = [][]shopify.Product{{
		{ID: 1001, Title: "No sku", Variants: []shopify.Variant{{SKU: ""}}},
		{ID: 1002, Title: "Has sku", Variants: []shopify.Variant{{SKU: "REAL-1"}}},
	}}

	res := f.sync(t)

	assert.Equal(t, 1, res.Errors)
	assert.Equal(t, 1, res.Saved)
	assert.Equal(t, manual, f.catalog.manual["SHOPIFY-1001"])
	assert.Equal(t, []string{"1002"}, f.catalog.remoteIDs())
}

func TestSynchronizeSyntheticSKUIsStable(t *testing.T) {
	f := newSyncFixture(t)
	f.shop.pages[shopify.StatusArchived] = [][]shopify.Product{{
		{ID: 77, Title: "Legacy", Variants: []shopify.Variant{{SKU: " "}}},
	}}

	f.sync(t)
	first := f.catalog.byRemote["77"].SKU
	res := f.sync(t)

	assert.Equal(t, "SHOPIFY-77", first)
	assert.Equal(t, first, f.catalog.byRemote["77"].SKU)
	assert.Zero(t, res.Errors)
}

func TestSynchronizeCredentials(t *testing.T) {
	f := newSyncFixture(t)
	var gotStore, gotToken string
	f.syncer.p.NewAPI = func(store, token string) (shopify.CatalogAPI, error) {
		gotStore, gotToken = store, token
		return f.shop, nil
	}

	_, err := f.syncer.Synchronize(context.Background(), SyncRequest{StoreAddress: "https://admin.shopify.com/store/acme", AccessToken: "shpat_req"})
	require.NoError(t, err)
	assert.Equal(t, "acme.myshopify.com", gotStore)
	assert.Equal(t, "shpat_req", gotToken)

	_, err = f.syncer.Synchronize(context.Background(), SyncRequest{})
	require.NoError(t, err)
	assert.Equal(t, testStore, gotStore)
	assert.Equal(t, "shpat_env", gotToken)

	f.syncer.p.Fallback = Credentials{}
	_, err = f.syncer.Synchronize(context.Background(), SyncRequest{StoreAddress: testStore})
	assert.ErrorIs(t, err, ErrMissingCredentials)

	_, err = f.syncer.Synchronize(context.Background(), SyncRequest{StoreAddress: "https://", AccessToken: "x"})
	assert.ErrorIs(t, err, shopify.ErrInvalidStoreAddress)
}

func TestSynchronizeRecordsRun(t *testing.T) {
	f := newSyncFixture(t)
	f.shop.pages[shopify.StatusActive] = [][]shopify.Product{products(1, 3)}

	res := f.sync(t)

	require.Len(t, f.runs.runs, 1)
	for _, run := range f.runs.runs {
		assert.True(t, run.done)
		assert.Equal(t, testStore, run.store)
		assert.Equal(t, res, run.result)
		assert.NoError(t, run.err)
	}
}

func TestSynchronizeCancelledContext(t *testing.T) {
	f := newSyncFixture(t)
	f.shop.pages[shopify.StatusActive] = [][]shopify.Product{products(1, 3), products(10, 3)}
	ctx, cancel := context.WithCancel(context.Background())
	f.syncer.p.Sleep = func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}

	res, err := f.syncer.Synchronize(ctx, SyncRequest{})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 3, res.Saved)
	for _, run := range f.runs.runs {
		assert.Error(t, run.err)
	}
}
