package catalog

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/leadbridge/leadbridge/internal/shopify"
)

// fakeShop serves since_id pagination over fixed pages per state.
type fakeShop struct {
	mu        sync.Mutex
	pages     map[string][][]shopify.Product
	counts    map[string]int
	countErrs map[string]error
	listErrs  map[string][]error
	listCalls map[string]int
	cursors   map[string][]int64
}

func newFakeShop() *fakeShop {
	return &fakeShop{
		pages:     map[string][][]shopify.Product{},
		counts:    map[string]int{},
		countErrs: map[string]error{},
		listErrs:  map[string][]error{},
		listCalls: map[string]int{},
		cursors:   map[string][]int64{},
	}
}

func (f *fakeShop) Count(_ context.Context, status string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.countErrs[status]; err != nil {
		return 0, err
	}
	return f.counts[status], nil
}

func (f *fakeShop) List(_ context.Context, status string, sinceID int64) (shopify.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls[status]++
	f.cursors[status] = append(f.cursors[status], sinceID)
	if errs := f.listErrs[status]; len(errs) > 0 {
		f.listErrs[status] = errs[1:]
		return shopify.Page{}, errs[0]
	}
	for _, page := range f.pages[status] {
		if len(page) > 0 && page[0].ID > sinceID {
			return shopify.Page{Products: page, Next: page[len(page)-1].ID}, nil
		}
	}
	return shopify.Page{}, nil
}

func (f *fakeShop) factory() APIFactory {
	return func(string, string) (shopify.CatalogAPI, error) { return f, nil }
}

// products builds n products with ascending ids starting at first. Every
// product carries a variant sku derived from its id.
func products(first int64, n int) []shopify.Product {
	out := make([]shopify.Product, 0, n)
	for i := int64(0); i < int64(n); i++ {
		id := first + i
		out = append(out, shopify.Product{
			ID:          id,
			Title:       fmt.Sprintf("Product %d", id),
			ProductType: "Apparel",
			Variants:    []shopify.Variant{{ID: id * 10, SKU: fmt.Sprintf("SKU-%d", id), Title: "Default"}},
		})
	}
	return out
}

var errTooMany = &shopify.StatusError{Code: http.StatusTooManyRequests}

// memoryCatalog enforces the remote id upsert and global sku uniqueness.
type memoryCatalog struct {
	mu       sync.Mutex
	byRemote map[string]RemoteUpsert
	manual   map[string]Product
	failSKU  map[string]error
}

func newMemoryCatalog() *memoryCatalog {
	return &memoryCatalog{
		byRemote: map[string]RemoteUpsert{},
		manual:   map[string]Product{},
		failSKU:  map[string]error{},
	}
}

func (m *memoryCatalog) UpsertRemote(_ context.Context, u RemoteUpsert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failSKU[u.SKU]; err != nil {
		return err
	}
	if _, taken := m.manual[u.SKU]; taken {
		return fmt.Errorf("%w: %q", ErrDuplicateSKU, u.SKU)
	}
	for remoteID, existing := range m.byRemote {
		if remoteID != u.RemoteID && existing.SKU == u.SKU {
			return fmt.Errorf("%w: %q", ErrDuplicateSKU, u.SKU)
		}
	}
	m.byRemote[u.RemoteID] = u
	return nil
}

func (m *memoryCatalog) remoteIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.byRemote))
	for id := range m.byRemote {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

type recordedRun struct {
	store  string
	result SyncResult
	err    error
	done   bool
}

type memoryRuns struct {
	mu   sync.Mutex
	runs map[uuid.UUID]*recordedRun
}

func newMemoryRuns() *memoryRuns {
	return &memoryRuns{runs: map[uuid.UUID]*recordedRun{}}
}

func (m *memoryRuns) StartRun(_ context.Context, store string) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New()
	m.runs[id] = &recordedRun{store: store}
	return id, nil
}

func (m *memoryRuns) FinishRun(_ context.Context, id uuid.UUID, res SyncResult, runErr error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return fmt.Errorf("unknown run %s", id)
	}
	run.result, run.err, run.done = res, runErr, true
	return nil
}

type sleepLog struct {
	mu     sync.Mutex
	pauses []time.Duration
}

func (s *sleepLog) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pauses = append(s.pauses, d)
	return ctx.Err()
}

func (s *sleepLog) count(d time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.pauses {
		if p == d {
			n++
		}
	}
	return n
}

type countingRecorder struct {
	mu         sync.Mutex
	pages      map[string]int
	items      map[string]int
	rateLimits int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{pages: map[string]int{}, items: map[string]int{}}
}

func (r *countingRecorder) ObservePage(state string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pages[state]++
}

func (r *countingRecorder) ObserveItem(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[outcome]++
}

func (r *countingRecorder) ObserveRateLimit(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rateLimits++
}
