package catalog

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadbridge/leadbridge/internal/shared"
)

type mockStore struct {
	products map[int64]Product
	nextID   int64
	runs     []SyncRun
	searched []SearchParams
}

func newMockStore() *mockStore {
	return &mockStore{products: map[int64]Product{}, nextID: 1}
}

func (m *mockStore) skuTaken(sku string, except int64) bool {
	for id, p := range m.products {
		if id != except && p.SKU == sku {
			return true
		}
	}
	return false
}

func (m *mockStore) Create(_ context.Context, p Product) (Product, error) {
	if m.skuTaken(p.SKU, 0) {
		return Product{}, fmt.Errorf("%w: %q", ErrDuplicateSKU, p.SKU)
	}
	p.ID = m.nextID
	m.nextID++
	p.CreatedAt = time.Now()
	m.products[p.ID] = p
	return p, nil
}

func (m *mockStore) Get(_ context.Context, id int64) (Product, error) {
	p, ok := m.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (m *mockStore) Update(_ context.Context, p Product) (Product, error) {
	if _, ok := m.products[p.ID]; !ok {
		return Product{}, ErrNotFound
	}
	if m.skuTaken(p.SKU, p.ID) {
		return Product{}, fmt.Errorf("%w: %q", ErrDuplicateSKU, p.SKU)
	}
	m.products[p.ID] = p
	return p, nil
}

func (m *mockStore) Delete(_ context.Context, id int64) error {
	if _, ok := m.products[id]; !ok {
		return ErrNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockStore) Reset(context.Context) (int64, error) {
	n := int64(len(m.products))
	m.products = map[int64]Product{}
	return n, nil
}

func (m *mockStore) Search(_ context.Context, params SearchParams) ([]Product, error) {
	m.searched = append(m.searched, params)
	var out []Product
	for _, p := range m.products {
		if params.Query == "" || strings.Contains(strings.ToLower(p.Name), strings.ToLower(params.Query)) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockStore) ListRuns(context.Context, int) ([]SyncRun, error) {
	return m.runs, nil
}

type auditSpy struct {
	entries []shared.AuditLog
}

func (a *auditSpy) Record(_ context.Context, log shared.AuditLog) error {
	a.entries = append(a.entries, log)
	return nil
}

func TestServiceCreateDefaultsCategory(t *testing.T) {
	svc := NewService(newMockStore(), nil, nil)

	p, err := svc.Create(context.Background(), CreateProductRequest{Name: " Mug ", SKU: "MUG-1"})
	require.NoError(t, err)
	assert.Equal(t, "Mug", p.Name)
	assert.Equal(t, "Uncategorized", p.Category)
	assert.Nil(t, p.RemoteID)
	assert.Empty(t, p.Variants)

	_, err = svc.Create(context.Background(), CreateProductRequest{Name: "Other", SKU: "MUG-1"})
	assert.ErrorIs(t, err, ErrDuplicateSKU)
}

func TestServiceUpdateIsPartial(t *testing.T) {
	store := newMockStore()
	svc := NewService(store, nil, nil)
	created, err := svc.Create(context.Background(), CreateProductRequest{Name: "Mug", SKU: "MUG-1", Category: "Kitchen"})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), created.ID, UpdateProductRequest{Name: "Big Mug"})
	require.NoError(t, err)
	assert.Equal(t, "Big Mug", updated.Name)
	assert.Equal(t, "MUG-1", updated.SKU)
	assert.Equal(t, "Kitchen", updated.Category)

	_, err = svc.Update(context.Background(), 404, UpdateProductRequest{Name: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServiceDeleteAndResetAreAudited(t *testing.T) {
	store := newMockStore()
	audit := &auditSpy{}
	svc := NewService(store, audit, nil)
	for i := 0; i < 3; i++ {
		_, err := svc.Create(context.Background(), CreateProductRequest{Name: "P", SKU: fmt.Sprintf("P-%d", i)})
		require.NoError(t, err)
	}

	require.NoError(t, svc.Delete(context.Background(), 7, 1))
	n, err := svc.Reset(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.Len(t, audit.entries, 2)
	assert.Equal(t, shared.AuditProductDelete, audit.entries[0].Action)
	assert.Equal(t, "1", audit.entries[0].EntityID)
	assert.Equal(t, shared.AuditCatalogReset, audit.entries[1].Action)
	assert.Equal(t, int64(7), audit.entries[1].ActorID)

	assert.ErrorIs(t, svc.Delete(context.Background(), 7, 1), ErrNotFound)
}

func TestSearchParamsNormalized(t *testing.T) {
	assert.Equal(t, 50, SearchParams{}.normalized().Limit)
	assert.Equal(t, 200, SearchParams{Limit: 5000}.normalized().Limit)
	assert.Equal(t, 10, SearchParams{Limit: 10}.normalized().Limit)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\% off\_now\\`, escapeLike(`50% off_now\`))
}
