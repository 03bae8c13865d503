package activity

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// SegmentKind classifies a piece of activity text.
type SegmentKind string

const (
	SegmentLiteral SegmentKind = "literal"
	SegmentActor   SegmentKind = "actor"
	SegmentEntity  SegmentKind = "entity"
	SegmentPage    SegmentKind = "page"
)

// Segment is a run of literal text or one highlighted token.
type Segment struct {
	Kind  SegmentKind `json:"kind"`
	Value string      `json:"value"`
}

// IsToken reports whether s is a bracketed token rather than literal text.
func (s Segment) IsToken() bool { return s.Kind != SegmentLiteral }

// Message is generated activity text kept as typed segments.
type Message struct {
	Segments []Segment
}

// String renders the message in its stored form, with every token wrapped
// in square brackets. Brackets and backslashes inside token values are
// backslash-escaped so HighlightTokens can recover the exact value.
func (m Message) String() string {
	var b strings.Builder
	for _, seg := range m.Segments {
		if !seg.IsToken() {
			b.WriteString(seg.Value)
			continue
		}
		b.WriteByte('[')
		b.WriteString(escapeToken(seg.Value))
		b.WriteByte(']')
	}
	return b.String()
}

// Tokens returns only the token segments, in order.
func (m Message) Tokens() []Segment {
	var tokens []Segment
	for _, seg := range m.Segments {
		if seg.IsToken() {
			tokens = append(tokens, seg)
		}
	}
	return tokens
}

var tokenEscaper = strings.NewReplacer(`\`, `\\`, `[`, `\[`, `]`, `\]`)

func escapeToken(s string) string {
	return tokenEscaper.Replace(s)
}

// Generator turns activity events into sentences. It holds no mutable
// state and is safe for concurrent use.
type Generator struct {
	cat *catalog
}

// NewGenerator returns a generator for the given locale.
func NewGenerator(locale Locale) *Generator {
	return &Generator{cat: catalogFor(locale)}
}

// defaultGenerator backs the package-level helpers.
var defaultGenerator = NewGenerator(LocaleEnglish)

// GenerateText renders an event in English. See Generator.Generate.
func GenerateText(entityKind string, action ActionKind, actorName string, before, after *Snapshot) string {
	return defaultGenerator.Generate(entityKind, action, actorName, before, after)
}

// PageLabel returns the English label for a navigated path.
func PageLabel(path string) string {
	return defaultGenerator.PageLabel(path)
}

// Generate renders an event as stored text with bracketed tokens.
func (g *Generator) Generate(entityKind string, action ActionKind, actorName string, before, after *Snapshot) string {
	return g.Compose(entityKind, action, actorName, before, after).String()
}

// Compose renders an event as typed segments. For create, edit and delete
// the message holds one entity token and one actor token; for navigation
// it holds one actor token and one page token. For navigation events
// entityKind carries the visited path.
func (g *Generator) Compose(entityKind string, action ActionKind, actorName string, before, after *Snapshot) Message {
	if strings.TrimSpace(actorName) == "" {
		actorName = g.cat.actorPlaceholder
	}
	actor := Segment{Kind: SegmentActor, Value: actorName}

	if parsed, ok := ParseActionKind(string(action)); ok {
		action = parsed
	}

	switch action {
	case ActionNavigation:
		page := Segment{Kind: SegmentPage, Value: g.PageLabel(entityKind)}
		return fill(g.cat.navigation, map[string]Segment{"actor": actor, "page": page})

	case ActionCreate, ActionEdit, ActionDelete:
		entity := Segment{Kind: SegmentEntity, Value: g.entityName(before, after)}
		pattern, ok := g.cat.templates[templateKey{NormalizeEntityKind(entityKind), action}]
		if !ok {
			pattern = g.cat.generic[action]
		}
		return fill(pattern, map[string]Segment{"actor": actor, "entity": entity})
	}

	return fill(g.cat.unknownAction, map[string]Segment{
		"actor":   actor,
		"action":  {Kind: SegmentLiteral, Value: string(action)},
		"element": {Kind: SegmentLiteral, Value: entityKind},
	})
}

// nameFields lists snapshot fields that carry a display name, by preference.
var nameFields = []string{"name", "title"}

// entityName picks the affected entity's display name: after.name,
// after.title, before.name, before.title, then the placeholder.
func (g *Generator) entityName(before, after *Snapshot) string {
	for _, snap := range []*Snapshot{after, before} {
		for _, field := range nameFields {
			v, ok := snap.Get(field)
			if !ok {
				continue
			}
			if text := strings.TrimSpace(v.Text()); text != "" && v.Kind() != KindObject && v.Kind() != KindList {
				return text
			}
		}
	}
	return g.cat.entityPlaceholder
}

// deepLinkRe matches the "{path} ({name})" form sent for resource pages.
var deepLinkRe = regexp.MustCompile(`^(.+) \((.+)\)$`)

// PageLabel returns the human-readable label of a navigated path. Lookup
// order: exact path, path without query or fragment, "{path} ({name})"
// deep links, prefix patterns, and finally the input with its first
// letter upper-cased.
func (g *Generator) PageLabel(raw string) string {
	target := stripOrigin(strings.TrimSpace(raw))
	if target == "" {
		target = "/"
	}

	if label, ok := g.cat.pages[target]; ok {
		return label
	}

	base := target
	if i := strings.IndexAny(base, "?#"); i >= 0 {
		base = base[:i]
	}
	if label, ok := g.cat.pages[base]; ok {
		return label
	}

	if m := deepLinkRe.FindStringSubmatch(target); m != nil {
		for _, prefix := range g.cat.deepLinkPrefixes {
			if strings.HasPrefix(m[1], prefix) {
				return g.cat.deepLinkLabel + " " + m[2]
			}
		}
	}

	for _, p := range g.cat.patterns {
		if strings.HasPrefix(base, p.prefix) {
			return p.label
		}
	}

	return upperFirst(target)
}

// stripOrigin reduces an absolute URL to its path and query.
func stripOrigin(s string) string {
	i := strings.Index(s, "://")
	if i < 0 || strings.ContainsAny(s[:i], "/ ") {
		return s
	}
	rest := s[i+3:]
	if j := strings.IndexAny(rest, "/?#"); j >= 0 {
		if rest[j] != '/' {
			return "/" + rest[j:]
		}
		return rest[j:]
	}
	return "/"
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// fill expands a template into segments. Unknown placeholders are kept as
// literal text.
func fill(pattern string, values map[string]Segment) Message {
	var segs []Segment
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			segs = append(segs, Segment{Kind: SegmentLiteral, Value: lit.String()})
			lit.Reset()
		}
	}

	for len(pattern) > 0 {
		open := strings.IndexByte(pattern, '{')
		if open < 0 {
			lit.WriteString(pattern)
			break
		}
		end := strings.IndexByte(pattern[open:], '}')
		if end < 0 {
			lit.WriteString(pattern)
			break
		}
		end += open

		lit.WriteString(pattern[:open])
		seg, ok := values[pattern[open+1:end]]
		switch {
		case !ok:
			lit.WriteString(pattern[open : end+1])
		case seg.IsToken():
			flush()
			segs = append(segs, seg)
		default:
			lit.WriteString(seg.Value)
		}
		pattern = pattern[end+1:]
	}
	flush()

	return Message{Segments: segs}
}
