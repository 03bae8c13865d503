package categories

import (
	"github.com/labstack/echo/v4"

	"github.com/collabwave/collabwave/internal/plugins/auth"
)

// RegisterRoutes sets up the category API. Categories are shared, so any
// signed-in user may manage them.
func RegisterRoutes(e *echo.Echo, h *Handler, authSvc auth.AuthService) {
	g := e.Group("/api/categories", auth.RequireAuth(authSvc))
	g.GET("", h.List)
	g.POST("", h.Create)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}
