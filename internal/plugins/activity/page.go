package activity

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/collabwave/collabwave/internal/templates/layouts"
)

// pageData is everything the activity page renders.
type pageData struct {
	Result  *ListResult
	Summary *Summary
	Filter  Filter
	Query   url.Values
}

// actionLabels are the English labels of the action badges and tiles.
var actionLabels = map[ActionKind]string{
	ActionNavigation: "Navigation",
	ActionCreate:     "Create",
	ActionEdit:       "Edit",
	ActionDelete:     "Delete",
}

// activityPage renders the admin activity trail inside the application layout.
func activityPage(data pageData) templ.Component {
	return layouts.Base("Activities", templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var head strings.Builder
		head.WriteString(`<section class="activity"><h1>Activities</h1>`)
		writeTiles(&head, data.Summary)
		writeFilterForm(&head, data.Filter)
		if _, err := io.WriteString(w, head.String()); err != nil {
			return err
		}

		if err := activityTable(data.Result).Render(ctx, w); err != nil {
			return err
		}

		var tail strings.Builder
		writePager(&tail, data.Result, data.Query)
		tail.WriteString(`</section>`)
		_, err := io.WriteString(w, tail.String())
		return err
	}))
}

func writeTiles(b *strings.Builder, s *Summary) {
	if s == nil {
		return
	}
	b.WriteString(`<div class="tiles">`)
	for _, kind := range ActionKinds() {
		fmt.Fprintf(b, `<div class="tile tile-%s"><span class="tile-value">%d</span><span class="tile-label">%s</span></div>`,
			kind, s.Counts[kind], templ.EscapeString(actionLabels[kind]))
	}
	fmt.Fprintf(b, `<div class="tile tile-users"><span class="tile-value">%d</span><span class="tile-label">Active users</span></div>`,
		s.ActiveActors)
	b.WriteString(`</div><p class="tiles-note">Last 24 hours</p>`)
}

func writeFilterForm(b *strings.Builder, f Filter) {
	b.WriteString(`<form class="filters" method="get" action="/admin/activity">`)
	fmt.Fprintf(b, `<input type="text" name="userId" placeholder="User ID" value="%s">`, templ.EscapeString(f.ActorID))

	b.WriteString(`<select name="action"><option value="">All actions</option>`)
	for _, kind := range ActionKinds() {
		selected := ""
		if f.ActionKind == kind {
			selected = " selected"
		}
		fmt.Fprintf(b, `<option value="%s"%s>%s</option>`, kind, selected, templ.EscapeString(actionLabels[kind]))
	}
	b.WriteString(`</select>`)

	fmt.Fprintf(b, `<input type="date" name="startDate" value="%s">`, formatDateInput(f.From))
	fmt.Fprintf(b, `<input type="date" name="endDate" value="%s">`, formatDateInput(f.To))
	b.WriteString(`<button type="submit">Filter</button></form>`)
}

// activityTable lists records newest first, or an empty-state message.
func activityTable(result *ListResult) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if result == nil || len(result.Records) == 0 {
			_, err := io.WriteString(w, `<p class="empty">No activity matches these filters.</p>`)
			return err
		}

		if _, err := io.WriteString(w, `<table class="activity-table"><thead><tr><th>When</th><th>User</th><th>Action</th><th>Activity</th><th>Changes</th></tr></thead><tbody>`); err != nil {
			return err
		}
		for _, rec := range result.Records {
			if err := activityRow(rec).Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</tbody></table>`)
		return err
	})
}

func activityRow(rec Record) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		actor := rec.ActorName
		if actor == "" {
			actor = rec.ActorID
		}

		cells := []templ.Component{
			cell("", timeCell(rec.CreatedAt)),
			cell("", textCell(actor)),
			cell("", actionBadge(rec.ActionKind)),
			cell("activity-text", tokenText(HighlightTokens(rec.Text))),
			cell("", changesCell(rec)),
		}
		if _, err := io.WriteString(w, `<tr>`); err != nil {
			return err
		}
		for _, c := range cells {
			if err := c.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</tr>`)
		return err
	})
}

// cell wraps body in a <td>, with an optional class.
func cell(class string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		open := `<td>`
		if class != "" {
			open = `<td class="` + templ.EscapeString(class) + `">`
		}
		if _, err := io.WriteString(w, open); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</td>`)
		return err
	})
}

func textCell(s string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, templ.EscapeString(s))
		return err
	})
}

func timeCell(t time.Time) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<time datetime="%s">%s</time>`,
			t.UTC().Format("2006-01-02T15:04:05Z"), t.UTC().Format("2006-01-02 15:04"))
		return err
	})
}

func actionBadge(kind ActionKind) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<span class="badge badge-%s">%s</span>`,
			templ.EscapeString(string(kind)), templ.EscapeString(badgeLabel(kind)))
		return err
	})
}

// tokenText renders literal runs as text and tokens as styled spans.
func tokenText(segs []Segment) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		for _, seg := range segs {
			if !seg.IsToken() {
				b.WriteString(templ.EscapeString(seg.Value))
				continue
			}
			fmt.Fprintf(&b, `<span class="token token-%s">%s</span>`, seg.Kind, templ.EscapeString(seg.Value))
		}
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// changesCell shows the field diff for edits and the full snapshot for
// creates and deletes.
func changesCell(rec Record) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var changes []FieldChange
		switch rec.ActionKind {
		case ActionEdit:
			changes = Diff(rec.Before, rec.After)
		case ActionCreate:
			changes = Diff(nil, rec.After)
		case ActionDelete:
			changes = Diff(rec.Before, nil)
		}
		if len(changes) == 0 {
			return nil
		}

		var b strings.Builder
		b.WriteString(`<details><summary>`)
		fmt.Fprintf(&b, "%d field", len(changes))
		if len(changes) != 1 {
			b.WriteString("s")
		}
		b.WriteString(`</summary><dl class="diff">`)
		for _, ch := range changes {
			fmt.Fprintf(&b, `<dt>%s</dt><dd>`, templ.EscapeString(ch.Field))
			switch {
			case ch.Added:
				fmt.Fprintf(&b, `<ins>%s</ins>`, templ.EscapeString(ch.After.Text()))
			case ch.Removed:
				fmt.Fprintf(&b, `<del>%s</del>`, templ.EscapeString(ch.Before.Text()))
			default:
				fmt.Fprintf(&b, `<del>%s</del> → <ins>%s</ins>`,
					templ.EscapeString(ch.Before.Text()), templ.EscapeString(ch.After.Text()))
			}
			b.WriteString(`</dd>`)
		}
		b.WriteString(`</dl></details>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func writePager(b *strings.Builder, result *ListResult, query url.Values) {
	if result == nil || result.TotalPages <= 1 {
		return
	}

	b.WriteString(`<nav class="pager">`)
	if result.Page > 1 {
		fmt.Fprintf(b, `<a href="%s">Previous</a>`, templ.EscapeString(pageURL(query, result.Page-1)))
	}
	fmt.Fprintf(b, `<span>Page %d of %d</span>`, result.Page, result.TotalPages)
	if result.Page < result.TotalPages {
		fmt.Fprintf(b, `<a href="%s">Next</a>`, templ.EscapeString(pageURL(query, result.Page+1)))
	}
	b.WriteString(`</nav>`)
}

// pageURL keeps the current filters and replaces the page number.
func pageURL(query url.Values, page int) string {
	q := url.Values{}
	for k, v := range query {
		q[k] = append([]string(nil), v...)
	}
	q.Set("page", strconv.Itoa(page))
	return "/admin/activity?" + q.Encode()
}

func badgeLabel(kind ActionKind) string {
	if label, ok := actionLabels[kind]; ok {
		return label
	}
	return string(kind)
}

func formatDateInput(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateOnly)
}
