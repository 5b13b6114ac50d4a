package msgtemplate

import "strings"

const (
	placeholderOpen  = "#{"
	placeholderClose = '}'
)

// segment is either literal template text or a placeholder token.
type segment struct {
	text        string
	name        string
	placeholder bool
}

// scan splits a template into literal and placeholder segments in a single
// left to right pass. A placeholder is "#{" followed by a non-empty run of
// characters without braces and a closing "}". An empty body, an opening
// brace inside the body or a missing closing brace turns the "#{" into
// literal text and scanning resumes
// right after it, so the work is linear in the template length.
func scan(template string) []segment {
	var segments []segment
	literalStart := 0
	i := 0

	for i < len(template) {
		open := strings.Index(template[i:], placeholderOpen)
		if open < 0 {
			break
		}
		open += i
		bodyStart := open + len(placeholderOpen)

		end := -1
		for j := bodyStart; j < len(template); j++ {
			c := template[j]
			if c == placeholderClose {
				end = j
				break
			}
			if c == '{' {
				break
			}
		}

		if end <= bodyStart {
			i = bodyStart
			continue
		}

		if open > literalStart {
			segments = append(segments, segment{text: template[literalStart:open]})
		}
		segments = append(segments, segment{
			text:        template[open : end+1],
			name:        template[bodyStart:end],
			placeholder: true,
		})
		i = end + 1
		literalStart = i
	}

	if literalStart < len(template) {
		segments = append(segments, segment{text: template[literalStart:]})
	}

	return segments
}

// ExtractPlaceholders returns the distinct placeholder names referenced by
// template in order of first appearance. Names are returned as written,
// including invalid ones.
func ExtractPlaceholders(template string) []string {
	seen := map[string]struct{}{}
	names := []string{}
	for _, seg := range scan(template) {
		if !seg.placeholder {
			continue
		}
		if _, ok := seen[seg.name]; ok {
			continue
		}
		seen[seg.name] = struct{}{}
		names = append(names, seg.name)
	}
	return names
}

func countPlaceholders(segments []segment) int {
	count := 0
	for _, seg := range segments {
		if seg.placeholder {
			count++
		}
	}
	return count
}
