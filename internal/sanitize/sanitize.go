// Package sanitize cleans user-provided content before it is stored. Uses
// bluemonday to strip dangerous HTML (script tags, event handlers,
// javascript: URLs) from rich text, and to reduce names, paths and other
// single-line fields to plain text.
package sanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// Policies are built once and shared; bluemonday policies are safe for
// concurrent use after construction.
var (
	ugcPolicy    *bluemonday.Policy
	strictPolicy *bluemonday.Policy
	policyOnce   sync.Once
)

func policies() (*bluemonday.Policy, *bluemonday.Policy) {
	policyOnce.Do(func() {
		ugcPolicy = bluemonday.UGCPolicy()

		// Task descriptions come from a rich text editor that uses classes
		// for alignment and code blocks.
		ugcPolicy.AllowAttrs("class").Globally()

		strictPolicy = bluemonday.StrictPolicy()
	})
	return ugcPolicy, strictPolicy
}

// HTML sanitizes user-generated HTML content by stripping dangerous elements
// while preserving safe formatting tags.
//
// This MUST be called on all user-provided HTML before storing it in the database.
func HTML(input string) string {
	if input == "" {
		return ""
	}
	ugc, _ := policies()
	return ugc.Sanitize(input)
}

// Text strips every tag from input and returns trimmed plain text. HTML
// entities are decoded so "Q&amp;A" is stored as "Q&A"; templ escapes it
// again on output.
func Text(input string) string {
	if input == "" {
		return ""
	}
	_, strict := policies()
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(input)))
}
