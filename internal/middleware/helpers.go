package middleware

import (
	"bytes"
	"context"
	"fmt"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

// LayoutInjector copies layout data (the signed-in user, the active path)
// from the Echo context into the Go context read by components. It is set
// once at startup in app/routes.go so this package imports no plugin.
var LayoutInjector func(echo.Context, context.Context) context.Context

// Render writes a component with the given status. The component is
// rendered into a buffer first, so a failing component produces a clean
// error response instead of a truncated page.
func Render(c echo.Context, statusCode int, component templ.Component) error {
	ctx := c.Request().Context()
	if LayoutInjector != nil {
		ctx = LayoutInjector(c, ctx)
	}

	var buf bytes.Buffer
	if err := component.Render(ctx, &buf); err != nil {
		return fmt.Errorf("rendering page: %w", err)
	}
	return c.HTMLBlob(statusCode, buf.Bytes())
}
