package categories

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/collabwave/collabwave/internal/apperror"
	"github.com/collabwave/collabwave/internal/plugins/activity"
	"github.com/collabwave/collabwave/internal/sanitize"
)

const (
	maxNameLength  = 100
	maxEmojiLength = 16
)

// hexColorPattern accepts #RGB and #RRGGBB.
var hexColorPattern = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// CategoryService handles business logic for categories.
type CategoryService interface {
	Create(ctx context.Context, actor activity.Actor, info activity.RequestInfo, req CategoryRequest) (*Category, error)
	List(ctx context.Context) ([]Category, error)
	Update(ctx context.Context, actor activity.Actor, info activity.RequestInfo, id string, req CategoryRequest) (*Category, error)
	Delete(ctx context.Context, actor activity.Actor, info activity.RequestInfo, id string) error
}

type categoryService struct {
	repo     CategoryRepository
	activity ActivityRecorder
	now      func() time.Time
}

// NewCategoryService creates a new category service.
func NewCategoryService(repo CategoryRepository, recorder ActivityRecorder) CategoryService {
	return &categoryService{
		repo:     repo,
		activity: recorder,
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

func (s *categoryService) Create(ctx context.Context, actor activity.Actor, info activity.RequestInfo, req CategoryRequest) (*Category, error) {
	name, err := validateName(req.Name)
	if err != nil {
		return nil, err
	}

	now := s.now()
	c := &Category{
		ID:        uuid.NewString(),
		Name:      name,
		Color:     DefaultColor,
		Emoji:     DefaultEmoji,
		CreatedBy: actor.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := applyStyle(c, req); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, wrap("creating category", err)
	}

	s.activity.RecordCreate(ctx, actor, activity.EntityCategory, c.Snapshot(), info)
	return c, nil
}

func (s *categoryService) List(ctx context.Context) ([]Category, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, wrap("listing categories", err)
	}
	if list == nil {
		list = []Category{}
	}
	return list, nil
}

func (s *categoryService) Update(ctx context.Context, actor activity.Actor, info activity.RequestInfo, id string, req CategoryRequest) (*Category, error) {
	name, err := validateName(req.Name)
	if err != nil {
		return nil, err
	}

	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, wrap("loading category", err)
	}
	before := c.Snapshot()

	c.Name = name
	if err := applyStyle(c, req); err != nil {
		return nil, err
	}
	c.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, wrap("updating category", err)
	}

	s.activity.RecordEdit(ctx, actor, activity.EntityCategory, before, c.Snapshot(), info)
	return c, nil
}

func (s *categoryService) Delete(ctx context.Context, actor activity.Actor, info activity.RequestInfo, id string) error {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return wrap("loading category", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return wrap("deleting category", err)
	}

	s.activity.RecordDelete(ctx, actor, activity.EntityCategory, c.Snapshot(), info)
	return nil
}

func validateName(raw string) (string, error) {
	name := sanitize.Text(raw)
	if name == "" {
		return "", apperror.NewBadRequest("category name is required")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return "", apperror.NewBadRequest(fmt.Sprintf("category name must be at most %d characters", maxNameLength))
	}
	return name, nil
}

// applyStyle sets color and emoji from req. Empty values leave c unchanged.
func applyStyle(c *Category, req CategoryRequest) error {
	if color := strings.TrimSpace(req.Color); color != "" {
		if !hexColorPattern.MatchString(color) {
			return apperror.NewBadRequest("color must be a hex color like #3B82F6")
		}
		c.Color = color
	}
	if emoji := sanitize.Text(req.Emoji); emoji != "" {
		if utf8.RuneCountInString(emoji) > maxEmojiLength {
			return apperror.NewBadRequest(fmt.Sprintf("emoji must be at most %d characters", maxEmojiLength))
		}
		c.Emoji = emoji
	}
	return nil
}

func wrap(op string, err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.NewInternal(fmt.Errorf("%s: %w", op, err))
}
