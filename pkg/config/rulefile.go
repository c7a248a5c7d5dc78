package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/Veraticus/highlite/pkg/preset"
	"github.com/Veraticus/highlite/pkg/rules"
)

// presetInclude names a built-in preset inside an include list.
const presetInclude = "preset:"

// ruleFile is the on-disk layout of a rule file.
type ruleFile struct {
	Include    []string    `yaml:"include" toml:"include"`
	IgnoreCase bool        `yaml:"ignore_case" toml:"ignore_case"`
	Rules      []ruleEntry `yaml:"rules" toml:"rules"`
}

type ruleEntry struct {
	Keyword    string `yaml:"keyword" toml:"keyword"`
	Regex      string `yaml:"regex" toml:"regex"`
	IsRegex    bool   `yaml:"is_regex" toml:"is_regex"`
	IgnoreCase *bool  `yaml:"ignore_case" toml:"ignore_case"`
	// Color is a name, a hex string or a table; see parseColor.
	Color any `yaml:"color" toml:"color"`
}

// LoadRules reads a rule file and everything it includes, returning the
// flattened rules in order: each file's includes first, then its own rules.
// Malformed files wrap ErrConfig; invalid rules are *rules.ConfigError.
func LoadRules(path string) ([]rules.Rule, error) {
	l := &ruleLoader{active: make(map[string]bool)}
	if err := l.loadFile(path); err != nil {
		return nil, err
	}
	if err := rules.ValidateAll(l.out); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return l.out, nil
}

// Rules resolves the rule set: the configured rule file, then the
// configured preset, then the default rule file when it exists, then
// preset.Default. It also describes where the rules came from.
func (c *Config) Rules() ([]rules.Rule, string, error) {
	if c.ConfigPath != "" {
		rs, err := LoadRules(c.ConfigPath)
		return rs, c.ConfigPath, err
	}
	if c.Preset != "" {
		rs, err := preset.Get(c.Preset)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %w", ErrConfig, err)
		}
		return rs, presetInclude + c.Preset, nil
	}
	if path := DefaultRulesPath(); path != "" {
		if _, err := os.Stat(path); err == nil {
			rs, err := LoadRules(path)
			return rs, path, err
		}
	}
	return preset.MustGet(preset.Default), presetInclude + preset.Default, nil
}

type ruleLoader struct {
	// active holds the files on the current include chain.
	active map[string]bool
	out    []rules.Rule
}

func (l *ruleLoader) loadFile(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrConfig, path, err)
	}
	if l.active[abs] {
		return fmt.Errorf("%w: include cycle through %s", ErrConfig, path)
	}
	l.active[abs] = true
	defer delete(l.active, abs)

	f, err := readRuleFile(abs)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrConfig, path, err)
	}

	for _, inc := range f.Include {
		if name, ok := strings.CutPrefix(inc, presetInclude); ok {
			rs, err := preset.Get(strings.TrimSpace(name))
			if err != nil {
				return fmt.Errorf("%w: %s: %w", ErrConfig, path, err)
			}
			l.out = append(l.out, rs...)
			continue
		}
		if !filepath.IsAbs(inc) {
			inc = filepath.Join(filepath.Dir(abs), inc)
		}
		if err := l.loadFile(inc); err != nil {
			return err
		}
	}

	for _, e := range f.Rules {
		r, err := e.rule(f.IgnoreCase)
		if err != nil {
			var cfgErr *rules.ConfigError
			if errors.As(err, &cfgErr) {
				cfgErr.Index = len(l.out)
			}
			return fmt.Errorf("%s: %w", path, err)
		}
		l.out = append(l.out, r)
	}
	return nil
}

func readRuleFile(path string) (*ruleFile, error) {
	// #nosec G304 - rule files are chosen by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f ruleFile
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&f); err != nil {
			return nil, err
		}
		return &f, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return &f, nil
}

func (e ruleEntry) rule(fileIgnoreCase bool) (rules.Rule, error) {
	r := rules.Rule{
		Pattern:    e.Keyword,
		IsRegex:    e.IsRegex,
		IgnoreCase: fileIgnoreCase,
	}
	if e.Regex != "" {
		if e.Keyword != "" {
			return r, &rules.ConfigError{Pattern: e.Keyword,
				Err: fmt.Errorf("%w: keyword and regex are mutually exclusive", ErrConfig)}
		}
		r.Pattern = e.Regex
		r.IsRegex = true
	}
	if e.IgnoreCase != nil {
		r.IgnoreCase = *e.IgnoreCase
	}

	c, err := parseColor(e.Color)
	if err != nil {
		return r, &rules.ConfigError{Pattern: r.Pattern, Err: err}
	}
	r.Color = c
	return r, nil
}

// parseColor accepts "red", "#b5cea8", {name: Red}, {type: Red} and
// {r: 181, g: 206, b: 168}. A missing color yields the zero Color, which
// rule validation reports.
func parseColor(v any) (rules.Color, error) {
	switch c := v.(type) {
	case nil:
		return rules.Color{}, nil
	case string:
		return rules.ParseColor(c)
	case map[string]any:
		for _, key := range []string{"name", "type"} {
			if name, ok := c[key]; ok {
				s, ok := name.(string)
				if !ok {
					return rules.Color{}, fmt.Errorf("%w: %s must be a string", rules.ErrUnknownColor, key)
				}
				return rules.ParseColor(s)
			}
		}
		var rgb [3]uint8
		for i, key := range []string{"r", "g", "b"} {
			n, err := channel(c[key])
			if err != nil {
				return rules.Color{}, fmt.Errorf("%w: %s: %w", rules.ErrUnknownColor, key, err)
			}
			rgb[i] = n
		}
		return rules.RGB(rgb[0], rgb[1], rgb[2]), nil
	default:
		return rules.Color{}, fmt.Errorf("%w: unsupported value %v", rules.ErrUnknownColor, v)
	}
}

// channel converts a decoded number to a color channel. YAML yields int,
// TOML yields int64 and either may yield float64.
func channel(v any) (uint8, error) {
	var n float64
	switch x := v.(type) {
	case int:
		n = float64(x)
	case int64:
		n = float64(x)
	case uint64:
		n = float64(x)
	case float64:
		if x != math.Trunc(x) {
			return 0, fmt.Errorf("%v is not an integer", x)
		}
		n = x
	case nil:
		return 0, errors.New("missing")
	default:
		return 0, fmt.Errorf("%v is not a number", v)
	}
	if n < 0 || n > 255 {
		return 0, fmt.Errorf("%v out of range 0-255", n)
	}
	return uint8(n), nil
}
