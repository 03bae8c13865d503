// Package tasks is the to-do list of CollabWave. It is a plain CRUD plugin;
// its interest here is that every successful write is reported to the
// activity trail with before/after snapshots of the task.
package tasks

import (
	"context"
	"time"

	"github.com/collabwave/collabwave/internal/plugins/activity"
)

// Status is the workflow state of a task.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Priority orders tasks on the board.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task is a row of the tasks table.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      Status     `json:"status"`
	Priority    Priority   `json:"priority"`
	CategoryID  *string    `json:"categoryId"`
	DueDate     *time.Time `json:"dueDate"`
	CreatedBy   string     `json:"createdBy"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Snapshot captures the task for the activity trail. Field order is the
// order shown in the admin diff view.
func (t *Task) Snapshot() *activity.Snapshot {
	s := activity.NewSnapshot().
		Set("id", activity.String(t.ID)).
		Set("title", activity.String(t.Title)).
		Set("description", activity.String(t.Description)).
		Set("status", activity.String(string(t.Status))).
		Set("priority", activity.String(string(t.Priority))).
		Set("categoryId", activity.ValueOf(t.CategoryID)).
		Set("dueDate", activity.Null())
	if t.DueDate != nil {
		s.Set("dueDate", activity.String(t.DueDate.UTC().Format(dateLayout)))
	}
	return s.
		Set("createdBy", activity.String(t.CreatedBy)).
		Set("createdAt", activity.Time(t.CreatedAt)).
		Set("updatedAt", activity.Time(t.UpdatedAt))
}

// dateLayout is the wire and storage format of due dates.
const dateLayout = "2006-01-02"

// --- Cross-Plugin Interfaces ---

// ActivityRecorder receives a report after each successful write.
// Implemented by *activity.Recorder; calls never fail and never block.
type ActivityRecorder interface {
	RecordCreate(ctx context.Context, actor activity.Actor, entityKind string, after *activity.Snapshot, info activity.RequestInfo)
	RecordEdit(ctx context.Context, actor activity.Actor, entityKind string, before, after *activity.Snapshot, info activity.RequestInfo)
	RecordDelete(ctx context.Context, actor activity.Actor, entityKind string, before *activity.Snapshot, info activity.RequestInfo)
}

// --- Service Inputs ---

// TaskInput holds the editable fields of a task. Create and full update
// take the same input; empty Status and Priority mean the defaults.
type TaskInput struct {
	Title       string
	Description string
	Status      Status
	Priority    Priority
	CategoryID  string
	DueDate     *time.Time
}

// --- Request DTOs (bound from HTTP requests) ---

// TaskRequest is the JSON body of POST /api/todos and PUT /api/todos/:id.
// dueDate is YYYY-MM-DD or empty.
type TaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	CategoryID  string `json:"categoryId"`
	DueDate     string `json:"dueDate"`
}
