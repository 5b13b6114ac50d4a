package msgtemplate

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/hashicorp/go-hclog"
)

const (
	// DefaultMaxLength caps rendered messages and templates passed to Render.
	DefaultMaxLength = 2000
	// MaxAuthoringLength caps templates checked by ValidateTemplate.
	MaxAuthoringLength = 1000
	// MaxColumnNameLength caps placeholder names, counted in runes.
	MaxColumnNameLength = 100
	// MaxRecommendedPlaceholders is the count above which ValidateTemplate warns.
	MaxRecommendedPlaceholders = 10

	truncationMarker = "..."
	minMaxLength     = len(truncationMarker) + 1
)

// Logger receives render warnings. hclog.Logger satisfies it.
type Logger interface {
	Warn(msg string, args ...any)
}

// RenderOption customizes a single Render call.
type RenderOption func(*renderOptions)

type renderOptions struct {
	maxLength int
	allowed   map[string]struct{}
	restrict  bool
	logger    Logger
}

// WithMaxLength overrides DefaultMaxLength for both the template length check
// and the output cap.
func WithMaxLength(n int) RenderOption {
	return func(o *renderOptions) {
		o.maxLength = n
	}
}

// WithAllowedColumns restricts substitution to the given columns. Calling it
// with no columns disallows every placeholder.
func WithAllowedColumns(columns ...string) RenderOption {
	return func(o *renderOptions) {
		o.restrict = true
		if o.allowed == nil {
			o.allowed = make(map[string]struct{}, len(columns))
		}
		for _, c := range columns {
			o.allowed[c] = struct{}{}
		}
	}
}

// WithLogger sets the logger used for skipped placeholder warnings.
func WithLogger(logger Logger) RenderOption {
	return func(o *renderOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

var defaultLogger Logger = hclog.New(&hclog.LoggerOptions{
	Name:  "courier.msgtemplate",
	Level: hclog.Warn,
})

func buildRenderOptions(opts ...RenderOption) (*renderOptions, error) {
	options := &renderOptions{
		maxLength: DefaultMaxLength,
		logger:    defaultLogger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}

	if err := validation.Validate(options.maxLength, validation.Min(minMaxLength)); err != nil {
		return nil, fmt.Errorf("%w: max length %d: %v", ErrInvalidOption, options.maxLength, err)
	}

	return options, nil
}

func (o *renderOptions) columnAllowed(name string) bool {
	if !o.restrict {
		return true
	}
	_, ok := o.allowed[name]
	return ok
}
