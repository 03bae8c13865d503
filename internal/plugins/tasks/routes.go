package tasks

import (
	"github.com/labstack/echo/v4"

	"github.com/collabwave/collabwave/internal/plugins/auth"
)

// RegisterRoutes sets up the task API. Every route requires a session;
// tasks are private to the user who created them.
func RegisterRoutes(e *echo.Echo, h *Handler, authSvc auth.AuthService) {
	g := e.Group("/api/todos", auth.RequireAuth(authSvc))
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}
