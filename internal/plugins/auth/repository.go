package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/collabwave/collabwave/internal/apperror"
)

// UserRepository reads the users table. Users are created by the login
// service; this side never writes them.
type UserRepository interface {
	// FindDisplayName returns the name activity text should show for a
	// user: the display name, or the email when the display name is blank.
	FindDisplayName(ctx context.Context, id string) (string, error)
}

type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository backed by the given DB pool.
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

// FindDisplayName returns apperror.NotFound if no user exists with this ID.
func (r *userRepository) FindDisplayName(ctx context.Context, id string) (string, error) {
	var name string
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(NULLIF(TRIM(display_name), ''), email) FROM users WHERE id = ?`, id,
	).Scan(&name)
	if err != nil {
		return "", notFoundOr("querying user display name", err)
	}
	return name, nil
}

func notFoundOr(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.NewNotFound("user not found")
	}
	return fmt.Errorf("%s: %w", op, err)
}
