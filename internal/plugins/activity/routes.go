package activity

import (
	"github.com/labstack/echo/v4"

	"github.com/collabwave/collabwave/internal/plugins/auth"
)

// RegisterRoutes sets up the activity routes. Reading and cleaning up the
// trail is restricted to site admins; reporting navigation only needs a
// session. trackMW runs after authentication on the tracking endpoint, which
// browsers call on every page change.
func RegisterRoutes(e *echo.Echo, h *Handler, authSvc auth.AuthService, trackMW ...echo.MiddlewareFunc) {
	requireAuth := auth.RequireAuth(authSvc)

	admin := e.Group("/api/admin/user-activity", requireAuth, auth.RequireSiteAdmin())
	admin.GET("", h.ListLogs)
	admin.GET("/summary", h.Summary)
	admin.DELETE("", h.Cleanup)

	e.POST("/api/user-activity", h.Track, append([]echo.MiddlewareFunc{requireAuth}, trackMW...)...)

	// The HTML trail records its own page views.
	e.GET("/admin/activity", h.ActivityPage,
		requireAuth, auth.RequireSiteAdmin(), TrackNavigation(h.recorder))
}
