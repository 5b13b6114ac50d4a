package msgtemplate

import (
	"errors"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
)

// columnNamePattern allows ASCII letters, digits, Hangul syllables, spaces
// and a small punctuation set.
var columnNamePattern = regexp.MustCompile(`^[A-Za-z0-9가-힣 _\-().]+$`)

var errPathTraversal = errors.New("must not contain path traversal sequences")

// ValidateColumnName reports whether name may be used as a placeholder. It
// returns nil for valid names.
func ValidateColumnName(name string) error {
	return validation.Validate(name,
		validation.Required,
		validation.RuneLength(1, MaxColumnNameLength),
		validation.Match(columnNamePattern),
		validation.By(func(value interface{}) error {
			s, _ := value.(string)
			if strings.Contains(s, "..") {
				return errPathTraversal
			}
			return nil
		}),
	)
}

// IsValidColumnName is the boolean form of ValidateColumnName.
func IsValidColumnName(name string) bool {
	return ValidateColumnName(name) == nil
}
