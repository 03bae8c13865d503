package activity

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"
)

// UserDirectory resolves an actor's current display name when the caller
// did not supply one.
type UserDirectory interface {
	DisplayName(ctx context.Context, userID string) (string, error)
}

// RecorderConfig tunes the capture queue.
type RecorderConfig struct {
	// Workers is the number of append goroutines. Events of one actor always
	// go to the same worker, so they are appended in call order.
	Workers int

	// QueueSize is the total number of events that may wait across all
	// workers. Events beyond it are dropped.
	QueueSize int

	// AppendTimeout bounds each store append.
	AppendTimeout time.Duration
}

const (
	defaultWorkers       = 4
	defaultQueueSize     = 1024
	defaultAppendTimeout = 5 * time.Second
)

// Recorder is the single entry point through which handlers report
// activity. Recording never blocks on the store and never fails the
// caller: events are queued and appended by background workers, and every
// failure is logged and counted here and nowhere else.
type Recorder struct {
	repo     ActivityRepository
	users    UserDirectory
	gen      *Generator
	timeout  time.Duration
	shards   []chan Event
	wg       sync.WaitGroup
	mu       sync.RWMutex
	closed   bool
	onAppend func(Record, error)
}

// NewRecorder starts the append workers. users may be nil, in which case
// events without an actor name use the locale's placeholder.
func NewRecorder(repo ActivityRepository, users UserDirectory, gen *Generator, cfg RecorderConfig) *Recorder {
	if cfg.Workers < 1 {
		cfg.Workers = defaultWorkers
	}
	if cfg.QueueSize < cfg.Workers {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.AppendTimeout <= 0 {
		cfg.AppendTimeout = defaultAppendTimeout
	}
	if gen == nil {
		gen = defaultGenerator
	}

	r := &Recorder{
		repo:    repo,
		users:   users,
		gen:     gen,
		timeout: cfg.AppendTimeout,
		shards:  make([]chan Event, cfg.Workers),
	}

	perShard := cfg.QueueSize / cfg.Workers
	for i := range r.shards {
		ch := make(chan Event, perShard)
		r.shards[i] = ch
		r.wg.Add(1)
		go r.work(ch)
	}

	return r
}

// Record queues an event for persistence. Events missing an actor or with an
// unknown action are discarded with a warning. Snapshots the action kind must not carry
// are cleared: create keeps only After, delete only Before, navigation
// neither.
func (r *Recorder) Record(ctx context.Context, ev Event) {
	action, ok := ParseActionKind(string(ev.Action))
	if ev.Actor.ID == "" || !ok {
		slog.WarnContext(ctx, "activity event missing actor or action",
			slog.String("actor_id", ev.Actor.ID),
			slog.String("action", string(ev.Action)),
		)
		eventsCounter.WithLabelValues(resultInvalid).Inc()
		return
	}
	ev.Action = action

	switch ev.Action {
	case ActionCreate:
		ev.Before = nil
	case ActionDelete:
		ev.After = nil
	case ActionNavigation:
		ev.Before, ev.After = nil, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		slog.WarnContext(ctx, "activity recorder closed, dropping event",
			slog.String("actor_id", ev.Actor.ID),
			slog.String("action", string(ev.Action)),
		)
		eventsCounter.WithLabelValues(resultDropped).Inc()
		return
	}

	select {
	case r.shardFor(ev.Actor.ID) <- ev:
		queueDepth.Inc()
	default:
		slog.WarnContext(ctx, "activity queue full, dropping event",
			slog.String("actor_id", ev.Actor.ID),
			slog.String("action", string(ev.Action)),
			slog.String("entity_kind", ev.EntityKind),
		)
		eventsCounter.WithLabelValues(resultDropped).Inc()
	}
}

// RecordCreate records the creation of an entity.
func (r *Recorder) RecordCreate(ctx context.Context, actor Actor, entityKind string, after *Snapshot, info RequestInfo) {
	r.Record(ctx, Event{Actor: actor, EntityKind: entityKind, Action: ActionCreate, After: after, Request: info})
}

// RecordEdit records a modification of an entity.
func (r *Recorder) RecordEdit(ctx context.Context, actor Actor, entityKind string, before, after *Snapshot, info RequestInfo) {
	r.Record(ctx, Event{Actor: actor, EntityKind: entityKind, Action: ActionEdit, Before: before, After: after, Request: info})
}

// RecordDelete records the removal of an entity.
func (r *Recorder) RecordDelete(ctx context.Context, actor Actor, entityKind string, before *Snapshot, info RequestInfo) {
	r.Record(ctx, Event{Actor: actor, EntityKind: entityKind, Action: ActionDelete, Before: before, Request: info})
}

// RecordNavigation records a page view. path is the visited path or page
// identifier and is stored as the entity kind.
func (r *Recorder) RecordNavigation(ctx context.Context, actor Actor, path string, info RequestInfo) {
	r.Record(ctx, Event{Actor: actor, EntityKind: path, Action: ActionNavigation, Request: info})
}

// Close stops accepting events and waits for queued ones to be appended,
// or for ctx to end.
func (r *Recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		for _, ch := range r.shards {
			close(ch)
		}
	}
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("draining activity queue: %w", ctx.Err())
	}
}

func (r *Recorder) shardFor(actorID string) chan Event {
	if len(r.shards) == 1 {
		return r.shards[0]
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(actorID))
	return r.shards[h.Sum32()%uint32(len(r.shards))]
}

func (r *Recorder) work(ch <-chan Event) {
	defer r.wg.Done()
	for ev := range ch {
		queueDepth.Dec()
		r.append(ev)
	}
}

// append persists one event. This is the only place capture errors are
// handled: they are logged and counted, then discarded.
func (r *Recorder) append(ev Event) {
	var rec Record
	var err error

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic while appending activity: %v", p)
		}
		if err != nil {
			slog.Error("failed to record activity",
				slog.String("actor_id", ev.Actor.ID),
				slog.String("action", string(ev.Action)),
				slog.String("entity_kind", ev.EntityKind),
				slog.Any("error", err),
			)
			eventsCounter.WithLabelValues(resultFailed).Inc()
		} else {
			eventsCounter.WithLabelValues(resultPersisted).Inc()
		}
		if r.onAppend != nil {
			r.onAppend(rec, err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if ev.Text == "" {
		name := ev.Actor.Name
		if name == "" {
			name = r.lookupName(ctx, ev.Actor.ID)
		}
		ev.Text = r.gen.Generate(ev.EntityKind, ev.Action, name, ev.Before, ev.After)
	}

	rec = Record{
		ActorID:      ev.Actor.ID,
		EntityKind:   ev.EntityKind,
		ActionKind:   ev.Action,
		Before:       ev.Before,
		After:        ev.After,
		Text:         ev.Text,
		RequestIP:    ev.Request.IP,
		RequestAgent: ev.Request.UserAgent,
	}

	start := time.Now()
	err = r.repo.Append(ctx, &rec)
	appendDuration.Observe(time.Since(start).Seconds())
	if errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("append exceeded %s: %w", r.timeout, err)
	}
}

// lookupName resolves a display name through the user directory. Failures
// fall back to the placeholder used by the generator.
func (r *Recorder) lookupName(ctx context.Context, userID string) string {
	if r.users == nil {
		return ""
	}
	name, err := r.users.DisplayName(ctx, userID)
	if err != nil {
		slog.Warn("resolving actor name for activity",
			slog.String("actor_id", userID),
			slog.Any("error", err),
		)
		return ""
	}
	return name
}
