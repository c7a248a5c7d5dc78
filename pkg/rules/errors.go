package rules

import (
	"errors"
	"fmt"
)

// Sentinel errors for rule validation.
var (
	// ErrEmptyPattern indicates a rule without a keyword or expression.
	ErrEmptyPattern = errors.New("empty pattern")
	// ErrMissingColor indicates a rule without a color.
	ErrMissingColor = errors.New("missing color")
	// ErrUnknownColor indicates a color name or value that cannot be rendered.
	ErrUnknownColor = errors.New("unknown color")
	// ErrInvalidRegex indicates an expression the regex engine rejected.
	ErrInvalidRegex = errors.New("invalid regular expression")
)

// ConfigError reports a malformed rule. It is always fatal and is raised
// before any input is read.
type ConfigError struct {
	Index   int
	Pattern string
	Err     error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("rule %d (%q): %v", e.Index, e.Pattern, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
