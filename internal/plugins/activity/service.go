package activity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/collabwave/collabwave/internal/apperror"
)

const (
	// DefaultPageSize is used when the caller does not ask for a page size.
	DefaultPageSize = 50

	// MaxPageSize caps a single page of records.
	MaxPageSize = 200

	// DefaultRetention is how long records are kept before cleanup.
	DefaultRetention = 90 * 24 * time.Hour

	// summaryWindow is the period covered by the dashboard counters.
	summaryWindow = 24 * time.Hour

	// summaryRecent is the number of newest records shown on the dashboard.
	summaryRecent = 10
)

// ActivityService is the read and maintenance side of the audit trail.
// Unlike capture, every failure here is returned to the caller.
type ActivityService interface {
	// List returns one page of records matching f, most recent first. Pages
	// are 1-indexed; page < 1 is treated as 1. pageSize < 1 means
	// DefaultPageSize, and larger than MaxPageSize is capped.
	List(ctx context.Context, f Filter, page, pageSize int) (*ListResult, error)

	// CountByActionKind returns per-kind totals of records matching f, with
	// every kind present.
	CountByActionKind(ctx context.Context, f Filter) (map[ActionKind]int, error)

	// CountDistinctActors returns how many distinct users match f.
	CountDistinctActors(ctx context.Context, f Filter) (int, error)

	// Summary returns the dashboard tiles: counts and active users over the
	// last 24 hours and the most recent records.
	Summary(ctx context.Context) (*Summary, error)

	// Cleanup deletes records older than olderThan and returns how many
	// were removed.
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}

// activityService implements ActivityService.
type activityService struct {
	repo  ActivityRepository
	cache SummaryCache
	now   func() time.Time
}

// NewActivityService creates the service. cache may be nil to disable
// summary caching.
func NewActivityService(repo ActivityRepository, cache SummaryCache) ActivityService {
	return &activityService{
		repo:  repo,
		cache: cache,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// validateFilter rejects filters that cannot match anything meaningful.
func validateFilter(f Filter) error {
	if f.ActionKind != "" && !f.ActionKind.Valid() {
		return apperror.NewBadRequest(fmt.Sprintf("unknown action kind %q", f.ActionKind))
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return apperror.NewBadRequest("start date must not be after end date")
	}
	return nil
}

func (s *activityService) List(ctx context.Context, f Filter, page, pageSize int) (*ListResult, error) {
	if err := validateFilter(f); err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	switch {
	case pageSize < 1:
		pageSize = DefaultPageSize
	case pageSize > MaxPageSize:
		pageSize = MaxPageSize
	}

	offset := (page - 1) * pageSize
	records, total, err := s.repo.List(ctx, f, pageSize, offset)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing activity: %w", err))
	}
	if records == nil {
		records = []Record{}
	}

	return &ListResult{
		Records:    records,
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	}, nil
}

func (s *activityService) CountByActionKind(ctx context.Context, f Filter) (map[ActionKind]int, error) {
	if err := validateFilter(f); err != nil {
		return nil, err
	}

	raw, err := s.repo.CountByActionKind(ctx, f)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("counting activity by action: %w", err))
	}

	counts := emptyCounts()
	for kind, n := range raw {
		if kind.Valid() {
			counts[kind] = n
		}
	}
	return counts, nil
}

func (s *activityService) CountDistinctActors(ctx context.Context, f Filter) (int, error) {
	if err := validateFilter(f); err != nil {
		return 0, err
	}

	n, err := s.repo.CountDistinctActors(ctx, f)
	if err != nil {
		return 0, apperror.NewInternal(fmt.Errorf("counting active users: %w", err))
	}
	return n, nil
}

// Summary serves from the cache when it holds a value. Cache errors are
// logged and treated as a miss.
func (s *activityService) Summary(ctx context.Context) (*Summary, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx)
		if err != nil {
			slog.Warn("activity summary cache read failed", slog.Any("error", err))
		} else if cached != nil {
			return cached, nil
		}
	}

	now := s.now()
	since := now.Add(-summaryWindow)
	window := Filter{From: since, To: now}

	counts, err := s.CountByActionKind(ctx, window)
	if err != nil {
		return nil, err
	}
	actors, err := s.CountDistinctActors(ctx, window)
	if err != nil {
		return nil, err
	}
	recent, _, err := s.repo.List(ctx, Filter{}, summaryRecent, 0)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing recent activity: %w", err))
	}
	if recent == nil {
		recent = []Record{}
	}

	summary := &Summary{
		Counts:       counts,
		ActiveActors: actors,
		Recent:       recent,
		Since:        since,
		GeneratedAt:  now,
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, summary); err != nil {
			slog.Warn("activity summary cache write failed", slog.Any("error", err))
		}
	}

	return summary, nil
}

func (s *activityService) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, apperror.NewBadRequest("retention period must be positive")
	}

	cutoff := s.now().Add(-olderThan)
	n, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, apperror.NewInternal(fmt.Errorf("deleting old activity: %w", err))
	}
	retentionDeleted.Add(float64(n))

	if n > 0 && s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			slog.Warn("activity summary cache invalidation failed", slog.Any("error", err))
		}
	}

	slog.Info("activity retention cleanup",
		slog.Time("cutoff", cutoff),
		slog.Int64("deleted", n),
	)
	return n, nil
}
