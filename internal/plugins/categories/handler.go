package categories

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/collabwave/collabwave/internal/apperror"
	"github.com/collabwave/collabwave/internal/plugins/activity"
	"github.com/collabwave/collabwave/internal/plugins/auth"
)

// Handler handles HTTP requests for categories.
type Handler struct {
	service CategoryService
}

// NewHandler creates a new category handler.
func NewHandler(service CategoryService) *Handler {
	return &Handler{service: service}
}

// List returns every category (GET /api/categories).
func (h *Handler) List(c echo.Context) error {
	list, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// Create adds a category (POST /api/categories).
func (h *Handler) Create(c echo.Context) error {
	session := auth.GetSession(c)
	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	cat, err := h.service.Create(c.Request().Context(), actorOf(session), activity.RequestInfoFromHeaders(c.Request().Header), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, cat)
}

// Update changes a category (PUT /api/categories/:id).
func (h *Handler) Update(c echo.Context) error {
	session := auth.GetSession(c)
	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	cat, err := h.service.Update(c.Request().Context(), actorOf(session), activity.RequestInfoFromHeaders(c.Request().Header), c.Param("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cat)
}

// Delete removes a category (DELETE /api/categories/:id).
func (h *Handler) Delete(c echo.Context) error {
	session := auth.GetSession(c)
	if err := h.service.Delete(c.Request().Context(), actorOf(session), activity.RequestInfoFromHeaders(c.Request().Header), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// actorOf is only called behind RequireAuth, so session is never nil.
func actorOf(s *auth.Session) activity.Actor {
	return activity.Actor{ID: s.UserID, Name: s.Name}
}
