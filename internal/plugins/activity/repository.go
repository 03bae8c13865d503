package activity

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ActivityRepository is the append-only activity store. There is no update
// or single-record delete; the only removal is age-based bulk cleanup.
type ActivityRepository interface {
	// Append stores a record, assigning its ID and CreatedAt.
	Append(ctx context.Context, rec *Record) error

	// DeleteOlderThan removes every record created before cutoff and
	// returns how many were removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	// List returns matching records ordered by created_at DESC, id DESC,
	// plus the total number of matches.
	List(ctx context.Context, f Filter, limit, offset int) ([]Record, int, error)

	// CountByActionKind returns per-kind totals of matching records. Kinds
	// with no matches may be absent.
	CountByActionKind(ctx context.Context, f Filter) (map[ActionKind]int, error)

	// CountDistinctActors returns the number of distinct actors among
	// matching records.
	CountDistinctActors(ctx context.Context, f Filter) (int, error)
}

// activityRepository implements ActivityRepository with MariaDB queries
// against the user_activity table.
type activityRepository struct {
	db *sql.DB
}

// NewActivityRepository creates a repository backed by the given DB pool.
func NewActivityRepository(db *sql.DB) ActivityRepository {
	return &activityRepository{db: db}
}

// Append inserts a record. Snapshots are stored as JSON; nil snapshots and
// empty provenance fields are stored as SQL NULL.
func (r *activityRepository) Append(ctx context.Context, rec *Record) error {
	before, err := marshalSnapshot(rec.Before)
	if err != nil {
		return fmt.Errorf("marshaling before snapshot: %w", err)
	}
	after, err := marshalSnapshot(rec.After)
	if err != nil {
		return fmt.Errorf("marshaling after snapshot: %w", err)
	}

	// DATETIME(6) keeps microseconds; truncate so the in-memory value
	// matches what a later read returns.
	createdAt := time.Now().UTC().Truncate(time.Microsecond)

	query := `INSERT INTO user_activity
	          (user_id, entity_kind, action_kind, before_state, after_state, text_log, ip_address, user_agent, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		rec.ActorID, rec.EntityKind, string(rec.ActionKind),
		before, after,
		nullString(rec.Text), nullString(rec.RequestIP), nullString(rec.RequestAgent),
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("inserting activity record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting activity record id: %w", err)
	}
	rec.ID = id
	rec.CreatedAt = createdAt

	return nil
}

// DeleteOlderThan removes records created before cutoff.
func (r *activityRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM user_activity WHERE created_at < ?`, cutoff.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting old activity records: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted activity records: %w", err)
	}
	return n, nil
}

// List returns a page of matching records with the actor's current display
// name joined from users.
func (r *activityRepository) List(ctx context.Context, f Filter, limit, offset int) ([]Record, int, error) {
	where, args := buildWhere(f, "a.")

	var total int
	countQuery := `SELECT COUNT(*) FROM user_activity a` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting activity records: %w", err)
	}

	query := `SELECT a.id, a.user_id, a.entity_kind, a.action_kind,
	                 a.before_state, a.after_state, a.text_log,
	                 a.ip_address, a.user_agent, a.created_at,
	                 COALESCE(u.display_name, '') AS user_name
	          FROM user_activity a
	          LEFT JOIN users u ON u.id = a.user_id` + where + `
	          ORDER BY a.created_at DESC, a.id DESC
	          LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing activity records: %w", err)
	}
	defer rows.Close()

	records, err := scanActivityRows(rows)
	if err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

// CountByActionKind groups matching records by action kind.
func (r *activityRepository) CountByActionKind(ctx context.Context, f Filter) (map[ActionKind]int, error) {
	where, args := buildWhere(f, "")

	rows, err := r.db.QueryContext(ctx,
		`SELECT action_kind, COUNT(*) FROM user_activity`+where+` GROUP BY action_kind`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("counting activity by action: %w", err)
	}
	defer rows.Close()

	counts := make(map[ActionKind]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("scanning action count: %w", err)
		}
		counts[ActionKind(kind)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating action counts: %w", err)
	}

	return counts, nil
}

// CountDistinctActors counts distinct user_id values among matching records.
func (r *activityRepository) CountDistinctActors(ctx context.Context, f Filter) (int, error) {
	where, args := buildWhere(f, "")

	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT user_id) FROM user_activity`+where, args...,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting distinct actors: %w", err)
	}
	return n, nil
}

// buildWhere renders a filter as a WHERE clause (with leading space) and
// its arguments. prefix qualifies column names, e.g. "a.".
func buildWhere(f Filter, prefix string) (string, []any) {
	var conds []string
	var args []any

	if f.ActorID != "" {
		conds = append(conds, prefix+"user_id = ?")
		args = append(args, f.ActorID)
	}
	if f.ActionKind != "" {
		conds = append(conds, prefix+"action_kind = ?")
		args = append(args, string(f.ActionKind))
	}
	if !f.From.IsZero() {
		conds = append(conds, prefix+"created_at >= ?")
		args = append(args, f.From.UTC())
	}
	if !f.To.IsZero() {
		conds = append(conds, prefix+"created_at <= ?")
		args = append(args, f.To.UTC())
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// scanActivityRows scans rows from an activity list query. Expects columns:
// id, user_id, entity_kind, action_kind, before_state, after_state,
// text_log, ip_address, user_agent, created_at, user_name.
func scanActivityRows(rows *sql.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		var rec Record
		var kind string
		var before, after, text, ip, agent sql.NullString
		if err := rows.Scan(
			&rec.ID, &rec.ActorID, &rec.EntityKind, &kind,
			&before, &after, &text,
			&ip, &agent, &rec.CreatedAt,
			&rec.ActorName,
		); err != nil {
			return nil, fmt.Errorf("scanning activity record: %w", err)
		}

		rec.ActionKind = ActionKind(kind)
		rec.Before = unmarshalSnapshot(before)
		rec.After = unmarshalSnapshot(after)
		rec.Text = text.String
		rec.RequestIP = ip.String
		rec.RequestAgent = agent.String

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating activity rows: %w", err)
	}

	return records, nil
}

func marshalSnapshot(s *Snapshot) (any, error) {
	if s == nil {
		return nil, nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// unmarshalSnapshot decodes a stored snapshot. A row with invalid JSON
// still lists, with a marker field in place of its contents.
func unmarshalSnapshot(col sql.NullString) *Snapshot {
	if !col.Valid || col.String == "" {
		return nil
	}
	s := NewSnapshot()
	if err := json.Unmarshal([]byte(col.String), s); err != nil {
		return NewSnapshot().Set("_parse_error", String("invalid JSON"))
	}
	return s
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
