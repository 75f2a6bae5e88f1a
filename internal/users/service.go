package users

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/leadbridge/leadbridge/internal/auth"
	"github.com/leadbridge/leadbridge/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	Create(ctx context.Context, u User) (User, error)
	Get(ctx context.Context, id int64) (User, error)
	List(ctx context.Context) ([]User, error)
	SetRole(ctx context.Context, id int64, role string, approved bool) (User, error)
	DeleteReassigning(ctx context.Context, id, heir int64) (int64, error)
}

// Notifier tells administrators about new registrations.
type Notifier interface {
	NotifyRegistration(ctx context.Context, u User) error
}

// Auditor records privileged actions.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles user business logic.
type Service struct {
	repo     RepositoryPort
	notifier Notifier
	auditor  Auditor
	logger   *slog.Logger
}

// NewService builds Service instance. notifier and auditor may be nil.
func NewService(repo RepositoryPort, notifier Notifier, auditor Auditor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, notifier: notifier, auditor: auditor, logger: logger}
}

// Register creates a pending account and notifies administrators. A failed
// notification is logged and does not fail the registration.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (User, error) {
	u, err := s.repo.Create(ctx, User{
		Username: strings.TrimSpace(req.Username),
		Email:    strings.TrimSpace(req.Email),
		Role:     auth.RoleUser,
	})
	if err != nil {
		return User{}, fmt.Errorf("register user: %w", err)
	}
	if s.notifier != nil {
		if err := s.notifier.NotifyRegistration(ctx, u); err != nil {
			s.logger.Warn("registration notification failed", slog.Int64("user_id", u.ID), slog.Any("error", err))
		}
	}
	return u, nil
}

// CreateAdmin creates an approved admin account.
func (s *Service) CreateAdmin(ctx context.Context, actorID int64, req RegisterRequest) (User, error) {
	u, err := s.repo.Create(ctx, User{
		Username:   strings.TrimSpace(req.Username),
		Email:      strings.TrimSpace(req.Email),
		Role:       auth.RoleAdmin,
		IsApproved: true,
	})
	if err != nil {
		return User{}, fmt.Errorf("create admin: %w", err)
	}
	s.audit(ctx, actorID, shared.AuditUserPromote, u.ID)
	return u, nil
}

// LoadAccount implements auth.AccountLoader.
func (s *Service) LoadAccount(ctx context.Context, id int64) (auth.Account, error) {
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return auth.Account{}, err
	}
	return auth.Account{ID: u.ID, Email: u.Email, Role: u.Role, Approved: u.IsApproved}, nil
}

// Get returns one user.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	return s.repo.Get(ctx, id)
}

// List returns all users.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// Approve lets a pending user sign in, keeping their role.
func (s *Service) Approve(ctx context.Context, actorID, id int64) (User, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	u, err := s.repo.SetRole(ctx, id, existing.Role, true)
	if err != nil {
		return User{}, fmt.Errorf("approve user: %w", err)
	}
	s.audit(ctx, actorID, shared.AuditUserApprove, id)
	return u, nil
}

// Promote grants the admin role; promotion also approves.
func (s *Service) Promote(ctx context.Context, actorID, id int64) (User, error) {
	u, err := s.repo.SetRole(ctx, id, auth.RoleAdmin, true)
	if err != nil {
		return User{}, fmt.Errorf("promote user: %w", err)
	}
	s.audit(ctx, actorID, shared.AuditUserPromote, id)
	return u, nil
}

// Delete removes a user, handing their leads to the acting admin.
func (s *Service) Delete(ctx context.Context, actorID, id int64) error {
	if actorID == id {
		return ErrSelfDelete
	}
	moved, err := s.repo.DeleteReassigning(ctx, id, actorID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	s.logger.Info("user deleted", slog.Int64("user_id", id), slog.Int64("leads_reassigned", moved))
	s.audit(ctx, actorID, shared.AuditUserDelete, id)
	return nil
}

func (s *Service) audit(ctx context.Context, actorID int64, action string, id int64) {
	if s.auditor == nil {
		return
	}
	err := s.auditor.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "user",
		EntityID: strconv.FormatInt(id, 10),
	})
	if err != nil {
		s.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}

var _ auth.AccountLoader = (*Service)(nil)
