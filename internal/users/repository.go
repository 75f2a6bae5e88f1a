package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/leadbridge/leadbridge/internal/auth"
	"github.com/leadbridge/leadbridge/internal/platform/db"
)

const emailConstraint = "users_email_key"

const userColumns = `id, username, email, role, is_approved, created_at, updated_at`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a user.
func (r *Repository) Create(ctx context.Context, u User) (User, error) {
	row := r.pool.QueryRow(ctx, `
INSERT INTO users (username, email, role, is_approved)
VALUES ($1, $2, $3, $4)
RETURNING `+userColumns, u.Username, strings.ToLower(u.Email), u.Role, u.IsApproved)
	created, err := scanUser(row)
	if err != nil {
		if db.IsUniqueViolation(err, emailConstraint) {
			return User{}, ErrEmailTaken
		}
		return User{}, fmt.Errorf("users: create: %w", err)
	}
	return created, nil
}

// Get loads a user by id.
func (r *Repository) Get(ctx context.Context, id int64) (User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

// List returns all users, oldest first.
func (r *Repository) List(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// SetRole updates role and approval in one statement.
func (r *Repository) SetRole(ctx context.Context, id int64, role string, approved bool) (User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `
UPDATE users SET role = $2, is_approved = $3, updated_at = NOW()
WHERE id = $1
RETURNING `+userColumns, id, role, approved))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

// DeleteReassigning moves the user's leads to heir and deletes the user.
func (r *Repository) DeleteReassigning(ctx context.Context, id, heir int64) (int64, error) {
	var moved int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE leads SET created_by = $2, updated_at = NOW() WHERE created_by = $1`, id, heir)
		if err != nil {
			return fmt.Errorf("users: reassign leads: %w", err)
		}
		moved = tag.RowsAffected()
		tag, err = tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("users: delete: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
	return moved, err
}

// DefaultAssignee returns the earliest admin, falling back to the earliest user.
func (r *Repository) DefaultAssignee(ctx context.Context) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
SELECT id FROM users
ORDER BY (role = $1) DESC, created_at, id
LIMIT 1`, auth.RoleAdmin).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	return id, err
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Role, &u.IsApproved, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}
