package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/collabwave/collabwave/internal/apperror"
)

// mysqlErrNoReferencedRow is raised when category_id names a missing category.
const mysqlErrNoReferencedRow = 1452

// TaskRepository defines the data access contract for tasks.
type TaskRepository interface {
	Create(ctx context.Context, task *Task) error
	FindByID(ctx context.Context, id string) (*Task, error)
	ListByCreator(ctx context.Context, userID string) ([]Task, error)
	Update(ctx context.Context, task *Task) error
	Delete(ctx context.Context, id string) error
}

// taskRepository implements TaskRepository with MariaDB queries.
type taskRepository struct {
	db *sql.DB
}

// NewTaskRepository creates a new task repository backed by the given DB pool.
func NewTaskRepository(db *sql.DB) TaskRepository {
	return &taskRepository{db: db}
}

const taskColumns = `id, title, description, status, priority, category_id, due_date, created_by, created_at, updated_at`

// Create inserts a new task row.
func (r *taskRepository) Create(ctx context.Context, t *Task) error {
	query := `INSERT INTO tasks (` + taskColumns + `)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.Title, nullString(t.Description), string(t.Status), string(t.Priority),
		t.CategoryID, t.DueDate, t.CreatedBy, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return mapWriteError("inserting task", err)
	}
	return nil
}

// FindByID retrieves a task by its UUID.
// Returns apperror.NotFound if no task exists with this ID.
func (r *taskRepository) FindByID(ctx context.Context, id string) (*Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`

	t, err := scanTask(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("task not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying task by id: %w", err)
	}
	return t, nil
}

// ListByCreator returns a user's tasks, most recently updated first.
func (r *taskRepository) ListByCreator(ctx context.Context, userID string) ([]Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
	          WHERE created_by = ?
	          ORDER BY updated_at DESC, id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tasks: %w", err)
	}
	return tasks, nil
}

// Update writes every editable column of an existing task.
func (r *taskRepository) Update(ctx context.Context, t *Task) error {
	query := `UPDATE tasks
	          SET title = ?, description = ?, status = ?, priority = ?,
	              category_id = ?, due_date = ?, updated_at = ?
	          WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		t.Title, nullString(t.Description), string(t.Status), string(t.Priority),
		t.CategoryID, t.DueDate, t.UpdatedAt, t.ID,
	)
	if err != nil {
		return mapWriteError("updating task", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return apperror.NewNotFound("task not found")
	}
	return nil
}

// Delete removes a task.
func (r *taskRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking deleted task: %w", err)
	}
	if n == 0 {
		return apperror.NewNotFound("task not found")
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*Task, error) {
	t := &Task{}
	var status, priority string
	var description, categoryID sql.NullString
	var due sql.NullTime

	if err := row.Scan(
		&t.ID, &t.Title, &description, &status, &priority,
		&categoryID, &due, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, err
	}

	t.Description = description.String
	t.Status = Status(status)
	t.Priority = Priority(priority)
	if categoryID.Valid {
		t.CategoryID = &categoryID.String
	}
	if due.Valid {
		d := due.Time.UTC()
		t.DueDate = &d
	}
	return t, nil
}

// mapWriteError turns a foreign key violation on category_id into a 400.
func mapWriteError(op string, err error) error {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlErrNoReferencedRow {
		return apperror.NewBadRequest("category not found")
	}
	return fmt.Errorf("%s: %w", op, err)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
