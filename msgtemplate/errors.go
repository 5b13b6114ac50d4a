package msgtemplate

import goerrors "github.com/goliatone/go-errors"

const (
	TextCodeTemplateTooLong = "MESSAGE_TEMPLATE_TOO_LONG"
	TextCodeInvalidOption   = "MESSAGE_TEMPLATE_INVALID_OPTION"
)

// ErrTemplateTooLong is returned by Render when the template is longer than
// the configured maximum. It is checked before any substitution happens.
var ErrTemplateTooLong = goerrors.New("message template exceeds maximum length", goerrors.CategoryBadInput).
	WithTextCode(TextCodeTemplateTooLong).
	WithCode(goerrors.CodeBadRequest)

// ErrInvalidOption is returned when render options fail validation.
var ErrInvalidOption = goerrors.New("invalid message template option", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvalidOption).
	WithCode(goerrors.CodeBadRequest)
