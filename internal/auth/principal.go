package auth

import (
	"context"
	"errors"
)

// Roles understood by the API.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

var (
	// ErrNoSession indicates the request carried no resolvable session token.
	ErrNoSession = errors.New("auth: no session")
	// ErrNotApproved indicates the account exists but awaits admin approval.
	ErrNotApproved = errors.New("auth: account not approved")
)

// Account is the subset of a user record needed to authorize a request.
type Account struct {
	ID       int64
	Email    string
	Role     string
	Approved bool
}

// AccountLoader resolves a user id to its account.
type AccountLoader interface {
	LoadAccount(ctx context.Context, id int64) (Account, error)
}

// Principal identifies the caller of an authenticated request.
type Principal struct {
	UserID int64
	Email  string
	Role   string
}

// IsAdmin reports whether the principal holds the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}
