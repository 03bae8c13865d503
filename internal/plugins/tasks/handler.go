package tasks

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/collabwave/collabwave/internal/apperror"
	"github.com/collabwave/collabwave/internal/plugins/activity"
	"github.com/collabwave/collabwave/internal/plugins/auth"
)

// Handler handles HTTP requests for tasks. Handlers are thin: bind request,
// call service, render response.
type Handler struct {
	service TaskService
}

// NewHandler creates a new task handler.
func NewHandler(service TaskService) *Handler {
	return &Handler{service: service}
}

// List returns the caller's tasks (GET /api/todos).
func (h *Handler) List(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	tasks, err := h.service.List(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tasks)
}

// Get returns a single task (GET /api/todos/:id).
func (h *Handler) Get(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	task, err := h.service.Get(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

// Create adds a task (POST /api/todos).
func (h *Handler) Create(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	input, err := bindInput(c)
	if err != nil {
		return err
	}

	task, err := h.service.Create(c.Request().Context(), actor, activity.RequestInfoFromHeaders(c.Request().Header), input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, task)
}

// Update replaces a task's editable fields (PUT /api/todos/:id).
func (h *Handler) Update(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	input, err := bindInput(c)
	if err != nil {
		return err
	}

	task, err := h.service.Update(c.Request().Context(), actor, activity.RequestInfoFromHeaders(c.Request().Header), c.Param("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

// Delete removes a task (DELETE /api/todos/:id).
func (h *Handler) Delete(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), actor, activity.RequestInfoFromHeaders(c.Request().Header), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// actorFrom builds the activity actor from the authenticated session.
func actorFrom(c echo.Context) (activity.Actor, error) {
	session := auth.GetSession(c)
	if session == nil {
		return activity.Actor{}, apperror.NewUnauthorized("authentication required")
	}
	return activity.Actor{ID: session.UserID, Name: session.Name}, nil
}

func bindInput(c echo.Context) (TaskInput, error) {
	var req TaskRequest
	if err := c.Bind(&req); err != nil {
		return TaskInput{}, apperror.NewBadRequest("invalid request body")
	}

	input := TaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      Status(strings.ToLower(strings.TrimSpace(req.Status))),
		Priority:    Priority(strings.ToLower(strings.TrimSpace(req.Priority))),
		CategoryID:  req.CategoryID,
	}

	if raw := strings.TrimSpace(req.DueDate); raw != "" {
		due, err := time.Parse(dateLayout, raw)
		if err != nil {
			return TaskInput{}, apperror.NewBadRequest("dueDate must be YYYY-MM-DD")
		}
		input.DueDate = &due
	}
	return input, nil
}
