// Package activity records what users do in CollabWave. Every create, edit
// and delete on a project, task or category, plus every tracked page view,
// is captured as a Record with before/after snapshots and a human-readable
// sentence, appended to the user_activity table, and served back to site
// admins as a filterable audit trail.
//
// Capture is best-effort: a failed or slow write never reaches the request
// that triggered it. Reads are the opposite and always surface errors.
package activity

import (
	"strings"
	"time"
)

// ActionKind classifies a recorded event and decides which snapshots it
// carries: create has After, delete has Before, edit has both, navigation
// has neither.
type ActionKind string

const (
	ActionCreate     ActionKind = "create"
	ActionEdit       ActionKind = "edit"
	ActionDelete     ActionKind = "delete"
	ActionNavigation ActionKind = "navigation"
)

// ActionKinds returns every known action kind in display order.
func ActionKinds() []ActionKind {
	return []ActionKind{ActionNavigation, ActionCreate, ActionEdit, ActionDelete}
}

// Valid reports whether a is one of the known action kinds.
func (a ActionKind) Valid() bool {
	switch a {
	case ActionCreate, ActionEdit, ActionDelete, ActionNavigation:
		return true
	}
	return false
}

// ParseActionKind normalizes client-supplied action names. Matching is
// case-insensitive so "Create", "create" and "Navigation" all resolve.
func ParseActionKind(s string) (ActionKind, bool) {
	a := ActionKind(strings.ToLower(strings.TrimSpace(s)))
	return a, a.Valid()
}

// Entity kinds with dedicated sentence templates. Any other string is
// accepted and rendered with the generic template.
const (
	EntityTask       = "task"
	EntityCategory   = "category"
	EntityProject    = "project"
	EntityNavigation = "navigation"
)

// entityAliases maps legacy and localized entity names onto the canonical kinds.
var entityAliases = map[string]string{
	"task":      EntityTask,
	"todo":      EntityTask,
	"tâche":     EntityTask,
	"tache":     EntityTask,
	"category":  EntityCategory,
	"catégorie": EntityCategory,
	"categorie": EntityCategory,
	"project":   EntityProject,
	"projet":    EntityProject,
}

// NormalizeEntityKind returns the canonical kind for known aliases and the
// trimmed input otherwise.
func NormalizeEntityKind(s string) string {
	trimmed := strings.TrimSpace(s)
	if canonical, ok := entityAliases[strings.ToLower(trimmed)]; ok {
		return canonical
	}
	return trimmed
}

// Record is one persisted activity row. Records are never updated; they are
// only removed by retention cleanup.
type Record struct {
	ID           int64      `json:"id"`
	ActorID      string     `json:"actorId"`
	EntityKind   string     `json:"entityKind"`
	ActionKind   ActionKind `json:"actionKind"`
	Before       *Snapshot  `json:"before"`
	After        *Snapshot  `json:"after"`
	Text         string     `json:"text"`
	RequestIP    string     `json:"requestIp,omitempty"`
	RequestAgent string     `json:"requestAgent,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`

	// ActorName is joined from the users table at query time. Not stored.
	ActorName string `json:"actorName,omitempty"`
}

// Actor identifies who performed an action. Name is the display name at
// the time of the action and is frozen into the generated text.
type Actor struct {
	ID   string
	Name string
}

// RequestInfo is the provenance captured at the HTTP boundary.
type RequestInfo struct {
	IP        string
	UserAgent string
}

// Event is the input to Recorder.Record. Text is optional; when empty it is
// generated from the other fields before the record is stored.
type Event struct {
	Actor      Actor
	EntityKind string
	Action     ActionKind
	Before     *Snapshot
	After      *Snapshot
	Request    RequestInfo
	Text       string
}

// Filter narrows list and count queries. Zero-valued fields are ignored;
// set fields are combined with AND. From and To are inclusive.
type Filter struct {
	ActorID    string
	ActionKind ActionKind
	From       time.Time
	To         time.Time
}

// ListResult is one page of records, most recent first.
type ListResult struct {
	Records    []Record `json:"records"`
	TotalCount int      `json:"totalCount"`
	Page       int      `json:"page"`
	PageSize   int      `json:"pageSize"`
	TotalPages int      `json:"totalPages"`
}

// Summary feeds the admin dashboard tiles.
type Summary struct {
	// Counts holds per-kind totals since Since. Every kind is present.
	Counts map[ActionKind]int `json:"counts"`

	// ActiveActors is the number of distinct users with activity since Since.
	ActiveActors int `json:"activeActors"`

	// Recent is the newest records regardless of Since.
	Recent []Record `json:"recent"`

	Since       time.Time `json:"since"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// emptyCounts returns a count map with every action kind set to zero.
func emptyCounts() map[ActionKind]int {
	counts := make(map[ActionKind]int, 4)
	for _, a := range ActionKinds() {
		counts[a] = 0
	}
	return counts
}
