package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/leadbridge/leadbridge/internal/shared"
)

// ProductStore is the persistence surface used by Service.
type ProductStore interface {
	Create(ctx context.Context, p Product) (Product, error)
	Get(ctx context.Context, id int64) (Product, error)
	Update(ctx context.Context, p Product) (Product, error)
	Delete(ctx context.Context, id int64) error
	Reset(ctx context.Context) (int64, error)
	Search(ctx context.Context, params SearchParams) ([]Product, error)
	ListRuns(ctx context.Context, limit int) ([]SyncRun, error)
}

// Auditor records privileged actions.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles manual catalog maintenance.
type Service struct {
	store   ProductStore
	auditor Auditor
	logger  *slog.Logger
}

// NewService builds a Service. auditor may be nil.
func NewService(store ProductStore, auditor Auditor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, auditor: auditor, logger: logger}
}

// Search lists products matching params.
func (s *Service) Search(ctx context.Context, params SearchParams) ([]Product, error) {
	params.Query = strings.TrimSpace(params.Query)
	return s.store.Search(ctx, params)
}

// Create stores a manual product.
func (s *Service) Create(ctx context.Context, req CreateProductRequest) (Product, error) {
	p := Product{
		Name:     strings.TrimSpace(req.Name),
		SKU:      strings.TrimSpace(req.SKU),
		Category: CategoryOrDefault(strings.TrimSpace(req.Category)),
		Variants: []Variant{},
	}
	created, err := s.store.Create(ctx, p)
	if err != nil {
		return Product{}, fmt.Errorf("create product: %w", err)
	}
	return created, nil
}

// Update applies a partial update.
func (s *Service) Update(ctx context.Context, id int64, req UpdateProductRequest) (Product, error) {
	existing, err := s.store.Get(ctx, id)
	if err != nil {
		return Product{}, fmt.Errorf("get product: %w", err)
	}
	if v := strings.TrimSpace(req.Name); v != "" {
		existing.Name = v
	}
	if v := strings.TrimSpace(req.SKU); v != "" {
		existing.SKU = v
	}
	if v := strings.TrimSpace(req.Category); v != "" {
		existing.Category = v
	}
	updated, err := s.store.Update(ctx, existing)
	if err != nil {
		return Product{}, fmt.Errorf("update product: %w", err)
	}
	return updated, nil
}

// Delete removes one product.
func (s *Service) Delete(ctx context.Context, actorID, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	s.audit(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   shared.AuditProductDelete,
		Entity:   "product",
		EntityID: strconv.FormatInt(id, 10),
	})
	return nil
}

// Reset removes every product.
func (s *Service) Reset(ctx context.Context, actorID int64) (int64, error) {
	n, err := s.store.Reset(ctx)
	if err != nil {
		return 0, err
	}
	s.audit(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   shared.AuditCatalogReset,
		Entity:   "product",
		EntityID: "*",
		Meta:     map[string]any{"deleted": n},
	})
	return n, nil
}

// Runs lists recent sync runs.
func (s *Service) Runs(ctx context.Context, limit int) ([]SyncRun, error) {
	return s.store.ListRuns(ctx, limit)
}

func (s *Service) audit(ctx context.Context, entry shared.AuditLog) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Record(ctx, entry); err != nil {
		s.logger.Warn("audit record failed", slog.String("action", entry.Action), slog.Any("error", err))
	}
}
