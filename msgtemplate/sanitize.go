package msgtemplate

import (
	"regexp"
	"strings"
)

var (
	interpolationPattern = regexp.MustCompile(`\$\{[^}]*\}`)
	urlSchemePattern     = regexp.MustCompile(`(?i)(javascript|data|vbscript):`)
)

var escapedEntities = []string{"&amp;", "&lt;", "&gt;", "&quot;", "&#39;"}

// Sanitize makes a value safe to embed in an outbound message. It removes C0
// and C1 control characters, HTML escapes < > & " and ', and strips ${...}
// interpolation markers and javascript:, data: and vbscript: scheme prefixes.
//
// Sanitize is idempotent: entities it produced are not escaped again, so a
// rendered message can be passed through it a second time unchanged. The same
// applies to input that is already escaped: "&amp;", "&lt;", "&gt;", "&quot;"
// and "&#39;" pass through as written, so "&lt;" and "<" sanitize to the same
// output and the original text cannot be recovered from the result.
func Sanitize(value string) string {
	if value == "" {
		return ""
	}

	out := stripControl(value)
	out = escapeHTML(out)

	// Removing one marker can join the text around it into another one,
	// so strip until nothing changes. Each round shrinks the string.
	for {
		next := interpolationPattern.ReplaceAllString(out, "")
		next = strings.ReplaceAll(next, "${", "")
		next = urlSchemePattern.ReplaceAllString(next, "")
		if next == out {
			break
		}
		out = next
	}

	return out
}

func stripControl(value string) string {
	return strings.Map(func(r rune) rune {
		if isControl(r) {
			return -1
		}
		return r
	}, value)
}

func isControl(r rune) bool {
	return r <= 0x1F || (r >= 0x7F && r <= 0x9F)
}

func escapeHTML(value string) string {
	if !strings.ContainsAny(value, `<>&"'`) {
		return value
	}

	var b strings.Builder
	b.Grow(len(value) + 16)
	for i := 0; i < len(value); i++ {
		switch c := value[i]; c {
		case '&':
			if hasEntityPrefix(value[i:]) {
				b.WriteByte(c)
			} else {
				b.WriteString("&amp;")
			}
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		case '\'':
			b.WriteString("&#39;")
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func hasEntityPrefix(s string) bool {
	for _, entity := range escapedEntities {
		if strings.HasPrefix(s, entity) {
			return true
		}
	}
	return false
}

// trimPartialEntity drops a trailing entity that truncation cut in half, so a
// bare "&" never ends a truncated message.
func trimPartialEntity(s string) string {
	idx := strings.LastIndexByte(s, '&')
	if idx < 0 {
		return s
	}
	if strings.IndexByte(s[idx:], ';') >= 0 {
		return s
	}
	return s[:idx]
}
