// Package rules defines highlighting rules and their colors.
//
// A Rule pairs a keyword or regular expression with the color used to
// render its matches. Rules are built once from configuration or a preset
// and never change afterwards.
package rules

// Rule is a single highlighting rule.
type Rule struct {
	// Pattern is the keyword, or the expression when IsRegex is set.
	Pattern string
	// IsRegex makes Pattern an RE2 expression instead of a literal.
	IsRegex bool
	// IgnoreCase folds case for this rule only. A global override may
	// force it on for every rule.
	IgnoreCase bool
	Color      Color
}

// Keyword returns a literal rule.
func Keyword(pattern string, c Color) Rule {
	return Rule{Pattern: pattern, Color: c}
}

// Regex returns a regular expression rule.
func Regex(pattern string, c Color) Rule {
	return Rule{Pattern: pattern, IsRegex: true, Color: c}
}

// Fold returns a copy of r that matches case-insensitively.
func (r Rule) Fold() Rule {
	r.IgnoreCase = true
	return r
}

// Validate checks the parts of a rule that do not need the regex engine.
// index is the rule's position in the flattened list and is only used for
// error reporting.
func (r Rule) Validate(index int) error {
	if r.Pattern == "" {
		return &ConfigError{Index: index, Pattern: r.Pattern, Err: ErrEmptyPattern}
	}
	if r.Color.IsZero() {
		return &ConfigError{Index: index, Pattern: r.Pattern, Err: ErrMissingColor}
	}
	if !r.Color.Valid() {
		return &ConfigError{Index: index, Pattern: r.Pattern, Err: ErrUnknownColor}
	}
	return nil
}

// ValidateAll validates every rule and returns the first failure.
func ValidateAll(rs []Rule) error {
	for i, r := range rs {
		if err := r.Validate(i); err != nil {
			return err
		}
	}
	return nil
}
