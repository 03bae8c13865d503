package activity

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collabwave/collabwave/internal/apperror"
)

// --- Mock Repository ---

// mockActivityRepo implements ActivityRepository for testing.
type mockActivityRepo struct {
	appendFn              func(ctx context.Context, rec *Record) error
	deleteOlderThanFn     func(ctx context.Context, cutoff time.Time) (int64, error)
	listFn                func(ctx context.Context, f Filter, limit, offset int) ([]Record, int, error)
	countByActionKindFn   func(ctx context.Context, f Filter) (map[ActionKind]int, error)
	countDistinctActorsFn func(ctx context.Context, f Filter) (int, error)
}

func (m *mockActivityRepo) Append(ctx context.Context, rec *Record) error {
	if m.appendFn != nil {
		return m.appendFn(ctx, rec)
	}
	return nil
}

func (m *mockActivityRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	if m.deleteOlderThanFn != nil {
		return m.deleteOlderThanFn(ctx, cutoff)
	}
	return 0, nil
}

func (m *mockActivityRepo) List(ctx context.Context, f Filter, limit, offset int) ([]Record, int, error) {
	if m.listFn != nil {
		return m.listFn(ctx, f, limit, offset)
	}
	return nil, 0, nil
}

func (m *mockActivityRepo) CountByActionKind(ctx context.Context, f Filter) (map[ActionKind]int, error) {
	if m.countByActionKindFn != nil {
		return m.countByActionKindFn(ctx, f)
	}
	return map[ActionKind]int{}, nil
}

func (m *mockActivityRepo) CountDistinctActors(ctx context.Context, f Filter) (int, error) {
	if m.countDistinctActorsFn != nil {
		return m.countDistinctActorsFn(ctx, f)
	}
	return 0, nil
}

// --- Test Helpers ---

var fixedNow = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

func newTestService(repo ActivityRepository, cache SummaryCache) *activityService {
	svc := NewActivityService(repo, cache).(*activityService)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func newTestCache(t *testing.T) (SummaryCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisSummaryCache(rdb, time.Minute), mr
}

// assertAppError checks that err is an *apperror.AppError with the expected code.
func assertAppError(t *testing.T, err error, expectedCode int) {
	t.Helper()
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, expectedCode, appErr.Code, appErr.Message)
}

// seed appends records at the given ages relative to fixedNow.
func seed(t *testing.T, repo *MemoryRepository, entries ...seedEntry) {
	t.Helper()
	for _, e := range entries {
		at := fixedNow.Add(-e.age)
		repo.SetClock(func() time.Time { return at })
		rec := &Record{ActorID: e.actor, EntityKind: EntityTask, ActionKind: e.action, Text: "seeded"}
		require.NoError(t, repo.Append(context.Background(), rec))
	}
}

type seedEntry struct {
	actor  string
	action ActionKind
	age    time.Duration
}

// --- List Tests ---

func TestList_DefaultsAndClamps(t *testing.T) {
	var gotLimit, gotOffset int
	repo := &mockActivityRepo{
		listFn: func(ctx context.Context, f Filter, limit, offset int) ([]Record, int, error) {
			gotLimit, gotOffset = limit, offset
			return nil, 120, nil
		},
	}
	svc := newTestService(repo, nil)

	result, err := svc.List(context.Background(), Filter{}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultPageSize, gotLimit)
	assert.Equal(t, 0, gotOffset)
	assert.Equal(t, 1, result.Page)
	assert.Equal(t, 3, result.TotalPages)
	assert.NotNil(t, result.Records)
	assert.Empty(t, result.Records)

	result, err = svc.List(context.Background(), Filter{}, 3, 1000)
	require.NoError(t, err)
	assert.Equal(t, MaxPageSize, gotLimit)
	assert.Equal(t, 2*MaxPageSize, gotOffset)
	assert.Equal(t, MaxPageSize, result.PageSize)
	assert.Equal(t, 1, result.TotalPages)
}

func TestList_FiltersAndOrders(t *testing.T) {
	repo := NewMemoryRepository()
	seed(t, repo,
		seedEntry{"u-1", ActionCreate, 3 * time.Hour},
		seedEntry{"u-2", ActionEdit, 2 * time.Hour},
		seedEntry{"u-1", ActionEdit, time.Hour},
		seedEntry{"u-1", ActionDelete, 48 * time.Hour},
	)
	svc := newTestService(repo, nil)
	ctx := context.Background()

	result, err := svc.List(ctx, Filter{ActorID: "u-1"}, 1, 10)
	require.NoError(t, err)
	require.Equal(t, 3, result.TotalCount)
	assert.Equal(t, ActionEdit, result.Records[0].ActionKind)
	assert.Equal(t, ActionCreate, result.Records[1].ActionKind)
	assert.Equal(t, ActionDelete, result.Records[2].ActionKind)

	result, err = svc.List(ctx, Filter{ActorID: "u-1", ActionKind: ActionEdit}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalCount)

	result, err = svc.List(ctx, Filter{From: fixedNow.Add(-24 * time.Hour), To: fixedNow}, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, result.TotalCount)
	assert.Len(t, result.Records, 2)
	assert.Equal(t, 2, result.TotalPages)

	result, err = svc.List(ctx, Filter{}, 5, 10)
	require.NoError(t, err)
	assert.Empty(t, result.Records)
	assert.Equal(t, 4, result.TotalCount)
}

func TestList_UnfilteredIsNewestFirstAndPartitionsByActor(t *testing.T) {
	repo := NewMemoryRepository()
	seed(t, repo,
		seedEntry{"u-1", ActionCreate, 5 * time.Hour},
		seedEntry{"u-2", ActionNavigation, 30 * time.Minute},
		seedEntry{"u-3", ActionCreate, 2 * time.Hour},
		seedEntry{"u-2", ActionEdit, 2 * time.Hour},
		seedEntry{"u-1", ActionDelete, 10 * time.Minute},
		seedEntry{"u-3", ActionEdit, 26 * time.Hour},
	)
	svc := newTestService(repo, nil)
	ctx := context.Background()

	all, err := svc.List(ctx, Filter{}, 1, MaxPageSize)
	require.NoError(t, err)
	require.Equal(t, 6, all.TotalCount)
	require.Len(t, all.Records, 6)

	for i := 1; i < len(all.Records); i++ {
		prev, cur := all.Records[i-1], all.Records[i]
		if prev.CreatedAt.Equal(cur.CreatedAt) {
			assert.Greater(t, prev.ID, cur.ID, "equal timestamps must be ordered by id desc")
			continue
		}
		assert.True(t, prev.CreatedAt.After(cur.CreatedAt), "record %d is not older than record %d", i, i-1)
	}

	// The two records seeded two hours back share a timestamp; the later
	// append comes first.
	assert.Equal(t, "u-2", all.Records[2].ActorID)
	assert.Equal(t, "u-3", all.Records[3].ActorID)

	union := map[int64]Record{}
	for _, actor := range []string{"u-1", "u-2", "u-3"} {
		part, err := svc.List(ctx, Filter{ActorID: actor}, 1, MaxPageSize)
		require.NoError(t, err)
		for _, rec := range part.Records {
			assert.Equal(t, actor, rec.ActorID)
			_, dup := union[rec.ID]
			assert.False(t, dup, "record %d listed for two actors", rec.ID)
			union[rec.ID] = rec
		}
	}
	require.Len(t, union, len(all.Records))
	for _, rec := range all.Records {
		assert.Equal(t, rec, union[rec.ID])
	}
}

func TestList_RejectsInvalidFilters(t *testing.T) {
	svc := newTestService(&mockActivityRepo{}, nil)
	ctx := context.Background()

	_, err := svc.List(ctx, Filter{ActionKind: "archive"}, 1, 10)
	assertAppError(t, err, http.StatusBadRequest)

	_, err = svc.List(ctx, Filter{From: fixedNow, To: fixedNow.Add(-time.Hour)}, 1, 10)
	assertAppError(t, err, http.StatusBadRequest)
}

func TestList_StoreErrorIsInternal(t *testing.T) {
	repo := &mockActivityRepo{
		listFn: func(ctx context.Context, f Filter, limit, offset int) ([]Record, int, error) {
			return nil, 0, errors.New("connection reset")
		},
	}
	svc := newTestService(repo, nil)

	_, err := svc.List(context.Background(), Filter{}, 1, 10)
	assertAppError(t, err, http.StatusInternalServerError)
}

// --- Count Tests ---

func TestCountByActionKind_ZeroFills(t *testing.T) {
	repo := NewMemoryRepository()
	seed(t, repo,
		seedEntry{"u-1", ActionCreate, time.Hour},
		seedEntry{"u-1", ActionCreate, time.Hour},
		seedEntry{"u-2", ActionNavigation, time.Hour},
	)
	svc := newTestService(repo, nil)

	counts, err := svc.CountByActionKind(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Equal(t, map[ActionKind]int{
		ActionCreate:     2,
		ActionNavigation: 1,
		ActionEdit:       0,
		ActionDelete:     0,
	}, counts)

	empty, err := svc.CountByActionKind(context.Background(), Filter{ActorID: "nobody"})
	require.NoError(t, err)
	assert.Len(t, empty, 4)
}

func TestCountDistinctActors(t *testing.T) {
	repo := NewMemoryRepository()
	seed(t, repo,
		seedEntry{"u-1", ActionCreate, time.Hour},
		seedEntry{"u-1", ActionEdit, time.Hour},
		seedEntry{"u-2", ActionNavigation, time.Hour},
		seedEntry{"u-3", ActionNavigation, 30 * time.Hour},
	)
	svc := newTestService(repo, nil)
	ctx := context.Background()

	n, err := svc.CountDistinctActors(ctx, Filter{})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = svc.CountDistinctActors(ctx, Filter{From: fixedNow.Add(-24 * time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

// --- Summary Tests ---

func TestSummary_ComputesAndCaches(t *testing.T) {
	repo := NewMemoryRepository()
	seed(t, repo,
		seedEntry{"u-1", ActionCreate, time.Hour},
		seedEntry{"u-2", ActionEdit, 2 * time.Hour},
		seedEntry{"u-3", ActionDelete, 30 * time.Hour},
	)
	cache, mr := newTestCache(t)
	svc := newTestService(repo, cache)
	ctx := context.Background()

	summary, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Counts[ActionCreate])
	assert.Equal(t, 1, summary.Counts[ActionEdit])
	assert.Equal(t, 0, summary.Counts[ActionDelete])
	assert.Equal(t, 2, summary.ActiveActors)
	assert.Len(t, summary.Recent, 3)
	assert.True(t, summary.Since.Equal(fixedNow.Add(-24*time.Hour)))
	assert.True(t, mr.Exists(summaryKey))

	// A cached summary is served without touching the store.
	seed(t, repo, seedEntry{"u-4", ActionCreate, time.Minute})
	cached, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, cached.Counts[ActionCreate])

	mr.FastForward(2 * time.Minute)
	fresh, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, fresh.Counts[ActionCreate])
}

func TestSummary_CacheFailureFallsBackToStore(t *testing.T) {
	repo := NewMemoryRepository()
	seed(t, repo, seedEntry{"u-1", ActionCreate, time.Hour})
	cache, mr := newTestCache(t)
	mr.Close()

	svc := newTestService(repo, cache)
	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Counts[ActionCreate])
}

func TestSummary_StoreErrorIsInternal(t *testing.T) {
	repo := &mockActivityRepo{
		countByActionKindFn: func(ctx context.Context, f Filter) (map[ActionKind]int, error) {
			return nil, errors.New("timeout")
		},
	}
	svc := newTestService(repo, nil)

	_, err := svc.Summary(context.Background())
	assertAppError(t, err, http.StatusInternalServerError)
}

// --- Cleanup Tests ---

func TestCleanup_DeletesOldRecords(t *testing.T) {
	repo := NewMemoryRepository()
	seed(t, repo,
		seedEntry{"u-1", ActionCreate, 100 * 24 * time.Hour},
		seedEntry{"u-1", ActionEdit, 91 * 24 * time.Hour},
		seedEntry{"u-1", ActionEdit, 89 * 24 * time.Hour},
		seedEntry{"u-2", ActionNavigation, time.Hour},
	)
	cache, mr := newTestCache(t)
	svc := newTestService(repo, cache)
	ctx := context.Background()

	_, err := svc.Summary(ctx)
	require.NoError(t, err)
	require.True(t, mr.Exists(summaryKey))

	n, err := svc.Cleanup(ctx, DefaultRetention)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, 2, repo.Len())
	assert.False(t, mr.Exists(summaryKey), "cleanup should invalidate the cached summary")

	n, err = svc.Cleanup(ctx, DefaultRetention)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCleanup_PassesCutoff(t *testing.T) {
	var cutoff time.Time
	repo := &mockActivityRepo{
		deleteOlderThanFn: func(ctx context.Context, c time.Time) (int64, error) {
			cutoff = c
			return 0, nil
		},
	}
	svc := newTestService(repo, nil)

	_, err := svc.Cleanup(context.Background(), 7*24*time.Hour)
	require.NoError(t, err)
	assert.True(t, cutoff.Equal(fixedNow.Add(-7*24*time.Hour)))
}

func TestCleanup_RejectsNonPositive(t *testing.T) {
	svc := newTestService(&mockActivityRepo{}, nil)

	_, err := svc.Cleanup(context.Background(), 0)
	assertAppError(t, err, http.StatusBadRequest)
}

func TestCleanup_StoreErrorIsInternal(t *testing.T) {
	repo := &mockActivityRepo{
		deleteOlderThanFn: func(ctx context.Context, cutoff time.Time) (int64, error) {
			return 0, errors.New("lock wait timeout")
		},
	}
	svc := newTestService(repo, nil)

	_, err := svc.Cleanup(context.Background(), DefaultRetention)
	assertAppError(t, err, http.StatusInternalServerError)
}

// --- Retention Worker ---

func TestRetentionWorker_RunsUntilCancelled(t *testing.T) {
	calls := make(chan time.Time, 8)
	repo := &mockActivityRepo{
		deleteOlderThanFn: func(ctx context.Context, cutoff time.Time) (int64, error) {
			select {
			case calls <- cutoff:
			default:
			}
			return 0, nil
		},
	}
	svc := newTestService(repo, nil)
	w := NewRetentionWorker(svc, 30*24*time.Hour, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	go w.Start(ctx)

	for i := 0; i < 2; i++ {
		select {
		case cutoff := <-calls:
			assert.True(t, cutoff.Equal(fixedNow.Add(-30*24*time.Hour)))
		case <-time.After(2 * time.Second):
			t.Fatal("retention worker did not run")
		}
	}

	cancel()
	w.Wait()
}
