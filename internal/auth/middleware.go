package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/leadbridge/leadbridge/internal/platform/httpx"
)

// SessionResolver maps a token to a user id.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (int64, error)
}

// Middleware authenticates API requests.
type Middleware struct {
	Sessions SessionResolver
	Accounts AccountLoader
	Logger   *slog.Logger
}

// Authenticate resolves the caller and stores a Principal in the request context.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := m.Sessions.Resolve(ctx, TokenFromRequest(r))
		if err != nil {
			if !errors.Is(err, ErrNoSession) {
				m.logger().Error("resolve session", slog.Any("error", err))
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				return
			}
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
			return
		}
		account, err := m.Accounts.LoadAccount(ctx, userID)
		if err != nil {
			if errors.Is(err, httpx.ErrNotFound) {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
				return
			}
			m.logger().Error("load account", slog.Int64("user_id", userID), slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
		if !account.Approved {
			httpx.Problem(w, http.StatusForbidden, "Forbidden", ErrNotApproved.Error())
			return
		}
		ctx = ContextWithPrincipal(ctx, Principal{UserID: account.ID, Email: account.Email, Role: account.Role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin rejects principals without the admin role.
func (m Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFromContext(r.Context())
		if !ok {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
			return
		}
		if !p.IsAdmin() {
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m Middleware) logger() *slog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return slog.Default()
}
