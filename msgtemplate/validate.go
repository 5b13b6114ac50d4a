package msgtemplate

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

// ValidationResult is the outcome of ValidateTemplate. IsValid is true iff
// Errors is empty; warnings never affect validity.
type ValidationResult struct {
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

const (
	msgTemplateRequired  = "message template is required"
	msgTemplateTooLong   = "message template must be at most %d characters"
	msgSuspiciousContent = "message template contains disallowed content"
	msgInvalidVariable   = "invalid variable name: %s"
	msgNoVariables       = "message template contains no variables"
	msgTooManyVariables  = "message template uses %d variables; more than %d is hard to maintain"
)

var suspiciousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)vbscript:`),
	regexp.MustCompile(`(?i)data:`),
	regexp.MustCompile(`(?i)<script`),
	regexp.MustCompile(`(?i)\bon[a-z]+\s*=`),
	regexp.MustCompile(`(?i)eval\s*\(`),
	regexp.MustCompile(`(?i)function\s*\(`),
	regexp.MustCompile(`=>`),
	regexp.MustCompile(`\$\{`),
}

// ValidateTemplate checks a template at authoring time. It never fails; all
// problems are reported in the result.
func ValidateTemplate(template string) ValidationResult {
	result := ValidationResult{
		Errors:   []string{},
		Warnings: []string{},
	}

	if template == "" {
		result.Errors = append(result.Errors, msgTemplateRequired)
		return result
	}

	if utf8.RuneCountInString(template) > MaxAuthoringLength {
		result.Errors = append(result.Errors, fmt.Sprintf(msgTemplateTooLong, MaxAuthoringLength))
	}

	for _, pattern := range suspiciousPatterns {
		if pattern.MatchString(template) {
			result.Errors = append(result.Errors, msgSuspiciousContent)
			break
		}
	}

	segments := scan(template)
	seen := map[string]struct{}{}
	for _, seg := range segments {
		if !seg.placeholder {
			continue
		}
		if _, ok := seen[seg.name]; ok {
			continue
		}
		seen[seg.name] = struct{}{}
		if !IsValidColumnName(seg.name) {
			result.Errors = append(result.Errors, fmt.Sprintf(msgInvalidVariable, seg.name))
		}
	}

	switch count := countPlaceholders(segments); {
	case count == 0:
		result.Warnings = append(result.Warnings, msgNoVariables)
	case count > MaxRecommendedPlaceholders:
		result.Warnings = append(result.Warnings, fmt.Sprintf(msgTooManyVariables, count, MaxRecommendedPlaceholders))
	}

	result.IsValid = len(result.Errors) == 0
	return result
}
