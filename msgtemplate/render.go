package msgtemplate

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// WarningReason classifies a skipped placeholder.
type WarningReason string

const (
	WarningInvalidPlaceholder WarningReason = "invalid_placeholder"
	WarningDisallowedColumn   WarningReason = "disallowed_column"
)

// Warning describes a placeholder that was left unreplaced.
type Warning struct {
	Column  string        `json:"column"`
	Reason  WarningReason `json:"reason"`
	Message string        `json:"message"`
}

// Report is the detailed outcome of a render.
type Report struct {
	Message   string    `json:"message"`
	Warnings  []Warning `json:"warnings,omitempty"`
	Truncated bool      `json:"truncated"`
}

// Render substitutes row values into template and returns the sanitized
// message. See RenderReport for the skipped placeholder details.
func Render(template string, row map[string]any, opts ...RenderOption) (string, error) {
	report, err := RenderReport(template, row, opts...)
	if err != nil {
		return "", err
	}
	return report.Message, nil
}

// RenderReport renders template against row.
//
// Each distinct placeholder is resolved once: invalid names and columns
// outside the allow-list are kept verbatim and reported, missing or nil
// values become empty strings, and everything else is sanitized before it is
// written. The assembled message is sanitized again and truncated to the max
// length with a "..." marker.
func RenderReport(template string, row map[string]any, opts ...RenderOption) (*Report, error) {
	options, err := buildRenderOptions(opts...)
	if err != nil {
		return nil, err
	}

	if template == "" {
		return &Report{}, nil
	}

	if n := utf8.RuneCountInString(template); n > options.maxLength {
		return nil, fmt.Errorf("%w: %d characters, maximum %d", ErrTemplateTooLong, n, options.maxLength)
	}

	report := &Report{}
	resolved := map[string]string{}

	var b strings.Builder
	b.Grow(len(template))

	for _, seg := range scan(template) {
		if !seg.placeholder {
			b.WriteString(seg.text)
			continue
		}

		value, ok := resolved[seg.text]
		if !ok {
			value = resolvePlaceholder(seg, row, options, report)
			resolved[seg.text] = value
		}
		b.WriteString(value)
	}

	message := Sanitize(b.String())
	if utf8.RuneCountInString(message) > options.maxLength {
		message = truncate(message, options.maxLength)
		report.Truncated = true
	}

	report.Message = message
	return report, nil
}

func resolvePlaceholder(seg segment, row map[string]any, options *renderOptions, report *Report) string {
	if err := ValidateColumnName(seg.name); err != nil {
		report.warn(options, Warning{
			Column:  seg.name,
			Reason:  WarningInvalidPlaceholder,
			Message: fmt.Sprintf("invalid placeholder %q: %v", seg.name, err),
		})
		return seg.text
	}

	if !options.columnAllowed(seg.name) {
		report.warn(options, Warning{
			Column:  seg.name,
			Reason:  WarningDisallowedColumn,
			Message: fmt.Sprintf("column %q is not in the allowed list", seg.name),
		})
		return seg.text
	}

	return Sanitize(stringify(row[seg.name]))
}

func (r *Report) warn(options *renderOptions, w Warning) {
	r.Warnings = append(r.Warnings, w)
	options.logger.Warn("message template placeholder skipped",
		"column", w.Column,
		"reason", string(w.Reason),
	)
}

func truncate(message string, maxLength int) string {
	runes := []rune(message)
	cut := string(runes[:maxLength-len(truncationMarker)])
	return trimPartialEntity(cut) + truncationMarker
}

func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
