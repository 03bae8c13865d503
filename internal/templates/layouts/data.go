// Package layouts holds the page shell shared by every server-rendered
// page. Request data reaches it through context values set by
// middleware.LayoutInjector, so this package never imports plugin types.
package layouts

import "context"

// Viewer is the signed-in user as the page shell sees it.
type Viewer struct {
	ID      string
	Name    string
	IsAdmin bool
}

type ctxKey int

const (
	viewerKey ctxKey = iota
	activePathKey
)

// WithViewer stores the signed-in user in ctx.
func WithViewer(ctx context.Context, v Viewer) context.Context {
	return context.WithValue(ctx, viewerKey, v)
}

// ViewerFrom returns the signed-in user, or false for anonymous requests.
func ViewerFrom(ctx context.Context) (Viewer, bool) {
	v, ok := ctx.Value(viewerKey).(Viewer)
	return v, ok
}

// WithActivePath stores the request path used to highlight the nav link.
func WithActivePath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, activePathKey, path)
}

// ActivePath returns the path stored by WithActivePath, or "".
func ActivePath(ctx context.Context) string {
	p, _ := ctx.Value(activePathKey).(string)
	return p
}
