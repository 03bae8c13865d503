// Package pages holds full-page Templ components that do not belong to a
// single plugin.
package pages

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/a-h/templ"

	"github.com/collabwave/collabwave/internal/templates/layouts"
)

// ErrorPage renders a full error page for browser requests.
func ErrorPage(code int, message string) templ.Component {
	title := http.StatusText(code)
	if title == "" {
		title = "Error"
	}

	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<section class="error-page"><h1>`+
			strconv.Itoa(code)+` `+templ.EscapeString(title)+`</h1><p>`+
			templ.EscapeString(message)+`</p><a href="/">Back to projects</a></section>`)
		return err
	})

	return layouts.Base(title, body)
}
