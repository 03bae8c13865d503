package layouts

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// navLinks are shown to site admins in the header.
var navLinks = []struct {
	Path  string
	Label string
}{
	{"/", "Projects"},
	{"/admin/activity", "Activities"},
}

// Base wraps body in the application shell: document head, header with the
// signed-in user, and the main content area.
func Base(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`+
			`<meta name="viewport" content="width=device-width, initial-scale=1">`+
			`<title>`+templ.EscapeString(title)+` · CollabWave</title>`+
			`<link rel="stylesheet" href="/static/css/app.css"></head><body>`); err != nil {
			return err
		}

		if err := header(ctx, w); err != nil {
			return err
		}

		if _, err := io.WriteString(w, `<main class="container">`); err != nil {
			return err
		}
		if body != nil {
			if err := body.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</main></body></html>`)
		return err
	})
}

func header(ctx context.Context, w io.Writer) error {
	viewer, signedIn := ViewerFrom(ctx)
	active := ActivePath(ctx)

	out := `<header class="topbar"><a class="brand" href="/">CollabWave</a>`
	if viewer.IsAdmin {
		out += `<nav>`
		for _, link := range navLinks {
			class := "nav-link"
			if link.Path == active {
				class += " active"
			}
			out += `<a class="` + class + `" href="` + templ.EscapeString(link.Path) + `">` +
				templ.EscapeString(link.Label) + `</a>`
		}
		out += `</nav>`
	}
	if signedIn {
		out += `<span class="user">` + templ.EscapeString(viewer.Name) + `</span>`
	}
	out += `</header>`

	_, err := io.WriteString(w, out)
	return err
}
