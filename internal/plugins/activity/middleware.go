package activity

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/collabwave/collabwave/internal/plugins/auth"
)

// TrackNavigation records a navigation event for every successful GET on
// the routes it wraps. Must be applied AFTER auth.RequireAuth; requests
// without a session are not recorded.
func TrackNavigation(recorder *Recorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := next(c); err != nil {
				return err
			}

			req := c.Request()
			if req.Method != http.MethodGet || c.Response().Status >= http.StatusBadRequest {
				return nil
			}
			session := auth.GetSession(c)
			if session == nil {
				return nil
			}

			recorder.RecordNavigation(req.Context(),
				Actor{ID: session.UserID, Name: session.Name},
				req.URL.RequestURI(),
				RequestInfoFromHeaders(req.Header),
			)
			return nil
		}
	}
}
