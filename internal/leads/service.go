package leads

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/leadbridge/leadbridge/internal/platform/httpx"
	"github.com/leadbridge/leadbridge/internal/shared"
)

// RepositoryPort defines data access methods for leads.
type RepositoryPort interface {
	Create(ctx context.Context, l Lead) (Lead, error)
	Get(ctx context.Context, id int64) (Lead, error)
	FindByPhone(ctx context.Context, phone string) (Lead, error)
	List(ctx context.Context, f ListFilter) ([]Lead, error)
	Update(ctx context.Context, l Lead) (Lead, error)
	Delete(ctx context.Context, id int64) error
}

// AssigneeFinder picks the owner of leads opened without a signed-in user.
type AssigneeFinder interface {
	DefaultAssignee(ctx context.Context) (int64, error)
}

// Auditor records privileged actions.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles lead business logic.
type Service struct {
	repo      RepositoryPort
	assignees AssigneeFinder
	auditor   Auditor
	keyHash   []byte
	logger    *slog.Logger
}

// NewService builds a Service. An empty intakeKeyHash leaves the inbound call
// endpoint open.
func NewService(repo RepositoryPort, assignees AssigneeFinder, auditor Auditor, intakeKeyHash string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	var hash []byte
	if intakeKeyHash != "" {
		hash = []byte(intakeKeyHash)
	}
	return &Service{repo: repo, assignees: assignees, auditor: auditor, keyHash: hash, logger: logger}
}

// Create stores a lead owned by createdBy.
func (s *Service) Create(ctx context.Context, createdBy int64, req CreateLeadRequest) (Lead, error) {
	l := Lead{
		Name:      strings.TrimSpace(req.Name),
		Phone:     strings.TrimSpace(req.Phone),
		Product:   strings.TrimSpace(req.Product),
		Status:    StatusNew,
		CreatedBy: createdBy,
	}
	if sku := strings.TrimSpace(req.ProductSKU); sku != "" {
		l.ProductSKU = &sku
	}
	created, err := s.repo.Create(ctx, l)
	if err != nil {
		return Lead{}, fmt.Errorf("create lead: %w", err)
	}
	return created, nil
}

// List returns leads matching f.
func (s *Service) List(ctx context.Context, f ListFilter) ([]Lead, error) {
	return s.repo.List(ctx, f)
}

// Update applies a partial update.
func (s *Service) Update(ctx context.Context, id int64, req UpdateLeadRequest) (Lead, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return Lead{}, err
	}
	if req.Status != "" {
		existing.Status = req.Status
	}
	if v := strings.TrimSpace(req.Name); v != "" {
		existing.Name = v
	}
	if v := strings.TrimSpace(req.Product); v != "" {
		existing.Product = v
	}
	updated, err := s.repo.Update(ctx, existing)
	if err != nil {
		return Lead{}, fmt.Errorf("update lead: %w", err)
	}
	return updated, nil
}

// Delete removes a lead.
func (s *Service) Delete(ctx context.Context, actorID, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.auditor != nil {
		err := s.auditor.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   shared.AuditLeadDelete,
			Entity:   "lead",
			EntityID: strconv.FormatInt(id, 10),
		})
		if err != nil {
			s.logger.Warn("audit record failed", slog.String("action", shared.AuditLeadDelete), slog.Any("error", err))
		}
	}
	return nil
}

// HandleIncomingCall opens a lead for an unknown caller. The bool reports
// whether a new lead was created; a known phone returns its existing lead.
func (s *Service) HandleIncomingCall(ctx context.Context, req IncomingCallRequest) (Lead, bool, error) {
	if len(s.keyHash) > 0 {
		if err := bcrypt.CompareHashAndPassword(s.keyHash, []byte(req.APIKey)); err != nil {
			return Lead{}, false, ErrInvalidIntakeKey
		}
	}
	phone := strings.TrimSpace(req.Phone)
	existing, err := s.repo.FindByPhone(ctx, phone)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Lead{}, false, fmt.Errorf("find lead by phone: %w", err)
	}

	owner, err := s.assignees.DefaultAssignee(ctx)
	if err != nil {
		s.logger.Error("no assignee for inbound lead", slog.Any("error", err))
		return Lead{}, false, ErrNoAssignee
	}
	created, err := s.repo.Create(ctx, Lead{
		Name:      UnknownCallerName,
		Phone:     phone,
		Product:   PendingProduct,
		Status:    StatusNew,
		CreatedBy: owner,
	})
	if errors.Is(err, ErrDuplicatePhone) {
		// a concurrent call for the same number won the insert
		existing, findErr := s.repo.FindByPhone(ctx, phone)
		if findErr == nil {
			return existing, false, nil
		}
	}
	if err != nil {
		return Lead{}, false, fmt.Errorf("create inbound lead: %w", err)
	}
	return created, true, nil
}

// ParseDateRange converts YYYY-MM-DD bounds into an inclusive creation range.
// The end date covers its whole day up to 23:59:59.999.
func ParseDateRange(start, end string) (*time.Time, *time.Time, error) {
	var from, to *time.Time
	if start != "" {
		t, err := time.Parse(time.DateOnly, start)
		if err != nil {
			return nil, nil, ErrInvalidDate
		}
		from = &t
	}
	if end != "" {
		t, err := time.Parse(time.DateOnly, end)
		if err != nil {
			return nil, nil, ErrInvalidDate
		}
		t = t.Add(24*time.Hour - time.Millisecond)
		to = &t
	}
	return from, to, nil
}

// ParseLimit reads the list limit; "0" and "all" disable it.
func ParseLimit(raw string, fallback int) (int, error) {
	switch raw {
	case "":
		return fallback, nil
	case "all", "0":
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("leads: limit must be a non-negative integer or all: %w", httpx.ErrValidation)
	}
	return n, nil
}
