// Package preset holds the built-in rule sets.
//
// A preset resolves to an ordinary []rules.Rule; nothing downstream can tell
// it apart from rules loaded from a file.
package preset

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Veraticus/highlite/pkg/rules"
)

// Default is the preset used when neither a config file nor a preset is given.
const Default = "logs"

// ErrUnknownPreset indicates a preset name that is not built in.
var ErrUnknownPreset = errors.New("unknown preset")

var registry = map[string]func() []rules.Rule{
	"logs": logs,
	"json": jsonRules,
	"cpp":  cpp,
}

// Get returns a fresh copy of the named preset.
func Get(name string) ([]rules.Rule, error) {
	build, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (available: %v)", ErrUnknownPreset, name, Names())
	}
	return build(), nil
}

// MustGet is like Get but panics on an unknown name.
func MustGet(name string) []rules.Rule {
	rs, err := Get(name)
	if err != nil {
		panic(err)
	}
	return rs
}

// Names returns the preset names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
