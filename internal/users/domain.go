package users

import (
	"fmt"
	"time"

	"github.com/leadbridge/leadbridge/internal/platform/httpx"
)

var (
	// ErrNotFound indicates the user does not exist.
	ErrNotFound = fmt.Errorf("users: user %w", httpx.ErrNotFound)
	// ErrEmailTaken indicates another account already uses the email.
	ErrEmailTaken = fmt.Errorf("users: email %w", httpx.ErrDuplicate)
	// ErrSelfDelete indicates an admin tried to delete their own account.
	ErrSelfDelete = fmt.Errorf("users: cannot delete own account: %w", httpx.ErrValidation)
)

// User is an account of the CRM.
type User struct {
	ID         int64     `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	IsApproved bool      `json:"isApproved"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// RegisterRequest is the public self-registration payload.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email,max=254"`
}
