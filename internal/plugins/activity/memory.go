package activity

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepository keeps activity records in process memory. Used by tests
// and by local development when no database is configured.
type MemoryRepository struct {
	mu      sync.RWMutex
	records []Record
	nextID  int64
	now     func() time.Time
}

// NewMemoryRepository constructs an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		nextID: 1,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source used to stamp appended records.
func (r *MemoryRepository) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

// Append implements ActivityRepository.
func (r *MemoryRepository) Append(ctx context.Context, rec *Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec.ID = r.nextID
	rec.CreatedAt = r.now()
	r.nextID++

	r.records = append(r.records, *rec)
	return nil
}

// DeleteOlderThan implements ActivityRepository.
func (r *MemoryRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.records[:0]
	var removed int64
	for _, rec := range r.records {
		if rec.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	r.records = kept
	return removed, nil
}

// List implements ActivityRepository.
func (r *MemoryRepository) List(ctx context.Context, f Filter, limit, offset int) ([]Record, int, error) {
	matched, err := r.matching(ctx, f)
	if err != nil {
		return nil, 0, err
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := len(matched)
	if offset >= total {
		return nil, total, nil
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return matched[offset:end], total, nil
}

// CountByActionKind implements ActivityRepository.
func (r *MemoryRepository) CountByActionKind(ctx context.Context, f Filter) (map[ActionKind]int, error) {
	matched, err := r.matching(ctx, f)
	if err != nil {
		return nil, err
	}

	counts := make(map[ActionKind]int)
	for _, rec := range matched {
		counts[rec.ActionKind]++
	}
	return counts, nil
}

// CountDistinctActors implements ActivityRepository.
func (r *MemoryRepository) CountDistinctActors(ctx context.Context, f Filter) (int, error) {
	matched, err := r.matching(ctx, f)
	if err != nil {
		return 0, err
	}

	actors := make(map[string]struct{})
	for _, rec := range matched {
		actors[rec.ActorID] = struct{}{}
	}
	return len(actors), nil
}

// Len returns the number of stored records.
func (r *MemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// matching returns a copy of every record that satisfies f.
func (r *MemoryRepository) matching(ctx context.Context, f Filter) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Record
	for _, rec := range r.records {
		if f.ActorID != "" && rec.ActorID != f.ActorID {
			continue
		}
		if f.ActionKind != "" && rec.ActionKind != f.ActionKind {
			continue
		}
		if !f.From.IsZero() && rec.CreatedAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && rec.CreatedAt.After(f.To) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}
