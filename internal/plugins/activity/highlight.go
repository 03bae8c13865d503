package activity

import "strings"

// Cue words of every supported locale, lower-cased. A token preceded by a
// "by" cue or followed by a "navigated" cue names the actor; a token
// preceded by a "navigated to" cue names a page.
var (
	actorBeforeCues = []string{"by ", "par "}
	actorAfterCues  = []string{" navigated", " a navigué"}
	pageBeforeCues  = []string{"navigated to ", "navigué vers "}
)

// HighlightTokens splits stored activity text into literal runs and
// bracketed tokens, classifying each token as actor, page or entity from
// the words around it. Empty literal runs are omitted.
//
// Text without tokens, or with unbalanced or empty brackets, comes back as
// a single literal segment holding the original string.
func HighlightTokens(text string) []Segment {
	whole := []Segment{{Kind: SegmentLiteral, Value: text}}

	parts, ok := splitTokens(text)
	if !ok {
		return whole
	}

	hasToken := false
	for i := range parts {
		if !parts[i].IsToken() {
			continue
		}
		hasToken = true

		var before, after string
		if i > 0 && !parts[i-1].IsToken() {
			before = strings.ToLower(parts[i-1].Value)
		}
		if i+1 < len(parts) && !parts[i+1].IsToken() {
			after = strings.ToLower(parts[i+1].Value)
		}
		parts[i].Kind = classifyToken(before, after)
	}
	if !hasToken {
		return whole
	}

	return parts
}

// classifyToken applies the cue-word heuristic. This is presentation only;
// Generator.Compose carries authoritative token kinds.
func classifyToken(before, after string) SegmentKind {
	if hasSuffixAny(before, pageBeforeCues) {
		return SegmentPage
	}
	if hasSuffixAny(before, actorBeforeCues) || hasPrefixAny(after, actorAfterCues) {
		return SegmentActor
	}
	return SegmentEntity
}

// splitTokens scans text into literal and token segments. Token segments
// are returned with SegmentEntity and unescaped values. ok is false when
// the brackets do not pair up.
func splitTokens(text string) ([]Segment, bool) {
	var parts []Segment
	var lit, tok strings.Builder
	inToken := false

	for i := 0; i < len(text); i++ {
		ch := text[i]

		if inToken {
			switch ch {
			case '\\':
				if i+1 >= len(text) {
					return nil, false
				}
				i++
				tok.WriteByte(text[i])
			case '[':
				return nil, false
			case ']':
				if tok.Len() == 0 {
					return nil, false
				}
				parts = append(parts, Segment{Kind: SegmentEntity, Value: tok.String()})
				tok.Reset()
				inToken = false
			default:
				tok.WriteByte(ch)
			}
			continue
		}

		switch ch {
		case '[':
			if lit.Len() > 0 {
				parts = append(parts, Segment{Kind: SegmentLiteral, Value: lit.String()})
				lit.Reset()
			}
			inToken = true
		case ']':
			return nil, false
		default:
			lit.WriteByte(ch)
		}
	}

	if inToken {
		return nil, false
	}
	if lit.Len() > 0 {
		parts = append(parts, Segment{Kind: SegmentLiteral, Value: lit.String()})
	}
	return parts, true
}

func hasSuffixAny(s string, suffixes []string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}
	return false
}

func hasPrefixAny(s string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}
