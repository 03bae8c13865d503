package categories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/collabwave/collabwave/internal/apperror"
)

// CategoryRepository defines the data access contract for categories.
type CategoryRepository interface {
	Create(ctx context.Context, c *Category) error
	FindByID(ctx context.Context, id string) (*Category, error)
	List(ctx context.Context) ([]Category, error)
	Update(ctx context.Context, c *Category) error
	Delete(ctx context.Context, id string) error
}

type categoryRepository struct {
	db *sql.DB
}

// NewCategoryRepository creates a MariaDB-backed category repository.
func NewCategoryRepository(db *sql.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

const categoryColumns = `id, name, color, emoji, created_by, created_at, updated_at`

func (r *categoryRepository) Create(ctx context.Context, c *Category) error {
	query := `INSERT INTO categories (` + categoryColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query,
		c.ID, c.Name, c.Color, c.Emoji, c.CreatedBy, c.CreatedAt, c.UpdatedAt,
	); err != nil {
		return fmt.Errorf("inserting category: %w", err)
	}
	return nil
}

// FindByID returns apperror.NotFound if no category has this ID.
func (r *categoryRepository) FindByID(ctx context.Context, id string) (*Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = ?`

	c := &Category{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.Color, &c.Emoji, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("category not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying category by id: %w", err)
	}
	return c, nil
}

// List returns every category ordered by name.
func (r *categoryRepository) List(ctx context.Context) ([]Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Color, &c.Emoji, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *categoryRepository) Update(ctx context.Context, c *Category) error {
	query := `UPDATE categories SET name = ?, color = ?, emoji = ?, updated_at = ? WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, c.Name, c.Color, c.Emoji, c.UpdatedAt, c.ID)
	if err != nil {
		return fmt.Errorf("updating category: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return apperror.NewNotFound("category not found")
	}
	return nil
}

// Delete removes a category. Tasks referencing it keep existing with a
// NULL category_id (ON DELETE SET NULL).
func (r *categoryRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting category: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking deleted category: %w", err)
	}
	if n == 0 {
		return apperror.NewNotFound("category not found")
	}
	return nil
}
