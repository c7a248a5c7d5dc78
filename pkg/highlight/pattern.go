// Package highlight compiles highlighting rules into a single regular
// expression and renders matches with ANSI color sequences.
//
// Every rule becomes one named capture group r<i> inside a leftmost-first
// alternation, so one scan per line finds all matches for all rules and the
// group that participated identifies the rule.
package highlight

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Veraticus/highlite/pkg/rules"
)

// Pattern is the compiled form of a rule list. It is immutable and safe for
// concurrent use.
type Pattern struct {
	re *regexp.Regexp
	// groups[i] is the capture group index of rule i.
	groups []int
	starts [][]byte
	rules  []rules.Rule
}

// Compile merges rs into one Pattern. forceIgnoreCase makes every rule
// case-insensitive regardless of its own setting.
//
// Rules are validated and compiled one by one first so that a failure
// names the offending rule; the result is a *rules.ConfigError.
func Compile(rs []rules.Rule, forceIgnoreCase bool) (*Pattern, error) {
	p := &Pattern{
		groups: make([]int, len(rs)),
		starts: make([][]byte, len(rs)),
		rules:  append([]rules.Rule(nil), rs...),
	}
	if len(rs) == 0 {
		p.re = regexp.MustCompile(`[^\x00-\x{10FFFF}]`)
		return p, nil
	}

	var sb strings.Builder
	group := 1
	for i, rule := range rs {
		if err := rule.Validate(i); err != nil {
			return nil, err
		}

		// The raw expression is compiled on its own: once wrapped, an
		// unbalanced one like "x)|(y" could parse and escape its group.
		single, err := regexp.Compile(literalOrRegex(rule))
		if err != nil {
			return nil, &rules.ConfigError{
				Index:   i,
				Pattern: rule.Pattern,
				Err:     fmt.Errorf("%w: %v", rules.ErrInvalidRegex, err),
			}
		}

		if i > 0 {
			sb.WriteByte('|')
		}
		fmt.Fprintf(&sb, "(?P<r%d>%s)", i, ruleExpr(rule, forceIgnoreCase))

		p.groups[i] = group
		group += 1 + single.NumSubexp()
		p.starts[i] = []byte(rule.Color.ANSI())
	}

	re, err := regexp.Compile(sb.String())
	if err != nil {
		return nil, &rules.ConfigError{
			Index:   -1,
			Pattern: sb.String(),
			Err:     fmt.Errorf("%w: %v", rules.ErrInvalidRegex, err),
		}
	}
	p.re = re
	return p, nil
}

func literalOrRegex(rule rules.Rule) string {
	if rule.IsRegex {
		return rule.Pattern
	}
	return regexp.QuoteMeta(rule.Pattern)
}

// ruleExpr returns the expression for a single rule, without its group.
func ruleExpr(rule rules.Rule, forceIgnoreCase bool) string {
	expr := literalOrRegex(rule)
	if forceIgnoreCase || rule.IgnoreCase {
		return "(?i:" + expr + ")"
	}
	// Wrap so that a top-level alternation inside the rule stays inside
	// the rule's group.
	return "(?:" + expr + ")"
}

// String returns the combined expression.
func (p *Pattern) String() string {
	return p.re.String()
}

// Len returns the number of rules.
func (p *Pattern) Len() int {
	return len(p.rules)
}

// Rule returns rule i as it was compiled.
func (p *Pattern) Rule(i int) rules.Rule {
	return p.rules[i]
}

// ruleFor maps a submatch index slice to the rule that produced it, or -1.
func (p *Pattern) ruleFor(m []int) int {
	for i, g := range p.groups {
		if m[2*g] >= 0 {
			return i
		}
	}
	return -1
}
