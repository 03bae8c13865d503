// Package categories manages the shared task categories of a CollabWave
// workspace. Categories are visible to every signed-in user and each
// successful write is reported to the activity trail.
package categories

import (
	"context"
	"time"

	"github.com/collabwave/collabwave/internal/plugins/activity"
)

// Defaults applied when a category is created without a color or emoji.
const (
	DefaultColor = "#3B82F6"
	DefaultEmoji = "📁"
)

// Category is a row of the categories table.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	Emoji     string    `json:"emoji"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Snapshot captures the category for the activity trail.
func (c *Category) Snapshot() *activity.Snapshot {
	return activity.NewSnapshot().
		Set("id", activity.String(c.ID)).
		Set("name", activity.String(c.Name)).
		Set("color", activity.String(c.Color)).
		Set("emoji", activity.String(c.Emoji)).
		Set("createdBy", activity.String(c.CreatedBy)).
		Set("createdAt", activity.Time(c.CreatedAt)).
		Set("updatedAt", activity.Time(c.UpdatedAt))
}

// --- Cross-Plugin Interfaces ---

// ActivityRecorder receives a report after each successful write.
// Implemented by *activity.Recorder.
type ActivityRecorder interface {
	RecordCreate(ctx context.Context, actor activity.Actor, entityKind string, after *activity.Snapshot, info activity.RequestInfo)
	RecordEdit(ctx context.Context, actor activity.Actor, entityKind string, before, after *activity.Snapshot, info activity.RequestInfo)
	RecordDelete(ctx context.Context, actor activity.Actor, entityKind string, before *activity.Snapshot, info activity.RequestInfo)
}

// --- Request DTOs (bound from HTTP requests) ---

// CategoryRequest is the JSON body of POST /api/categories and
// PUT /api/categories/:id. On update, empty color and emoji keep the
// current values.
type CategoryRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Emoji string `json:"emoji"`
}
