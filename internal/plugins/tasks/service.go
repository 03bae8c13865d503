package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/collabwave/collabwave/internal/apperror"
	"github.com/collabwave/collabwave/internal/plugins/activity"
	"github.com/collabwave/collabwave/internal/sanitize"
)

// maxTitleLength matches the tasks.title column.
const maxTitleLength = 200

// TaskService handles business logic for tasks. Writes are reported to the
// activity trail only after they succeed.
type TaskService interface {
	Create(ctx context.Context, actor activity.Actor, info activity.RequestInfo, input TaskInput) (*Task, error)
	Get(ctx context.Context, actor activity.Actor, id string) (*Task, error)
	List(ctx context.Context, actor activity.Actor) ([]Task, error)
	Update(ctx context.Context, actor activity.Actor, info activity.RequestInfo, id string, input TaskInput) (*Task, error)
	Delete(ctx context.Context, actor activity.Actor, info activity.RequestInfo, id string) error
}

// taskService implements TaskService.
type taskService struct {
	repo     TaskRepository
	activity ActivityRecorder
	now      func() time.Time
}

// NewTaskService creates a new task service.
func NewTaskService(repo TaskRepository, recorder ActivityRecorder) TaskService {
	return &taskService{
		repo:     repo,
		activity: recorder,
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// normalize validates input and fills defaults. The description is rich
// text and is sanitized; the title is reduced to plain text.
func normalize(input TaskInput) (TaskInput, error) {
	input.Title = sanitize.Text(input.Title)
	if input.Title == "" {
		return input, apperror.NewBadRequest("task title is required")
	}
	if utf8.RuneCountInString(input.Title) > maxTitleLength {
		return input, apperror.NewBadRequest(fmt.Sprintf("task title must be at most %d characters", maxTitleLength))
	}

	input.Description = sanitize.HTML(strings.TrimSpace(input.Description))

	if input.Status == "" {
		input.Status = StatusTodo
	}
	if !input.Status.Valid() {
		return input, apperror.NewBadRequest("status must be todo, in_progress or done")
	}
	if input.Priority == "" {
		input.Priority = PriorityMedium
	}
	if !input.Priority.Valid() {
		return input, apperror.NewBadRequest("priority must be low, medium or high")
	}

	input.CategoryID = strings.TrimSpace(input.CategoryID)
	if input.CategoryID != "" {
		if _, err := uuid.Parse(input.CategoryID); err != nil {
			return input, apperror.NewBadRequest("invalid category id")
		}
	}
	return input, nil
}

func (s *taskService) Create(ctx context.Context, actor activity.Actor, info activity.RequestInfo, input TaskInput) (*Task, error) {
	input, err := normalize(input)
	if err != nil {
		return nil, err
	}

	now := s.now()
	task := &Task{
		ID:        uuid.NewString(),
		CreatedBy: actor.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	apply(task, input)

	if err := s.repo.Create(ctx, task); err != nil {
		return nil, wrap("creating task", err)
	}

	s.activity.RecordCreate(ctx, actor, activity.EntityTask, task.Snapshot(), info)
	return task, nil
}

func (s *taskService) Get(ctx context.Context, actor activity.Actor, id string) (*Task, error) {
	return s.owned(ctx, actor, id)
}

func (s *taskService) List(ctx context.Context, actor activity.Actor) ([]Task, error) {
	tasks, err := s.repo.ListByCreator(ctx, actor.ID)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing tasks: %w", err))
	}
	if tasks == nil {
		tasks = []Task{}
	}
	return tasks, nil
}

func (s *taskService) Update(ctx context.Context, actor activity.Actor, info activity.RequestInfo, id string, input TaskInput) (*Task, error) {
	input, err := normalize(input)
	if err != nil {
		return nil, err
	}

	task, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	before := task.Snapshot()

	apply(task, input)
	task.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, task); err != nil {
		return nil, wrap("updating task", err)
	}

	s.activity.RecordEdit(ctx, actor, activity.EntityTask, before, task.Snapshot(), info)
	return task, nil
}

func (s *taskService) Delete(ctx context.Context, actor activity.Actor, info activity.RequestInfo, id string) error {
	task, err := s.owned(ctx, actor, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return wrap("deleting task", err)
	}

	s.activity.RecordDelete(ctx, actor, activity.EntityTask, task.Snapshot(), info)
	return nil
}

// owned loads a task and hides tasks of other users behind a 404.
func (s *taskService) owned(ctx context.Context, actor activity.Actor, id string) (*Task, error) {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, wrap("loading task", err)
	}
	if task.CreatedBy != actor.ID {
		return nil, apperror.NewNotFound("task not found")
	}
	return task, nil
}

func apply(t *Task, input TaskInput) {
	t.Title = input.Title
	t.Description = input.Description
	t.Status = input.Status
	t.Priority = input.Priority
	t.CategoryID = nil
	if input.CategoryID != "" {
		id := input.CategoryID
		t.CategoryID = &id
	}
	t.DueDate = nil
	if input.DueDate != nil {
		d := input.DueDate.UTC().Truncate(24 * time.Hour)
		t.DueDate = &d
	}
}

// wrap passes AppErrors through and turns anything else into a 500.
func wrap(op string, err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.NewInternal(fmt.Errorf("%s: %w", op, err))
}
