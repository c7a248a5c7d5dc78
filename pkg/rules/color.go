package rules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
)

// Reset ends a colored span.
const Reset = "\x1b[0m"

// Preset is one of the fixed terminal foreground colors.
type Preset int

// Supported preset colors. The zero value means "no preset".
const (
	Red Preset = iota + 1
	Yellow
	Blue
	Green
	Cyan
	Magenta
	Black
	White
	BrightRed
	BrightYellow
	BrightBlue
	BrightGreen
	BrightCyan
	BrightMagenta
	BrightBlack
	BrightWhite
)

type presetInfo struct {
	name    string
	attr    color.Attribute
	aliases []string
}

var presetTable = map[Preset]presetInfo{
	Red:           {"Red", color.FgRed, []string{"red"}},
	Yellow:        {"Yellow", color.FgYellow, []string{"yellow", "yel"}},
	Blue:          {"Blue", color.FgBlue, []string{"blue"}},
	Green:         {"Green", color.FgGreen, []string{"green"}},
	Cyan:          {"Cyan", color.FgCyan, []string{"cyan"}},
	Magenta:       {"Magenta", color.FgMagenta, []string{"magenta", "purple"}},
	Black:         {"Black", color.FgBlack, []string{"black"}},
	White:         {"White", color.FgWhite, []string{"white"}},
	BrightRed:     {"BrightRed", color.FgHiRed, []string{"brightred", "bright_red"}},
	BrightYellow:  {"BrightYellow", color.FgHiYellow, []string{"brightyellow", "bright_yellow"}},
	BrightBlue:    {"BrightBlue", color.FgHiBlue, []string{"brightblue", "bright_blue"}},
	BrightGreen:   {"BrightGreen", color.FgHiGreen, []string{"brightgreen", "bright_green"}},
	BrightCyan:    {"BrightCyan", color.FgHiCyan, []string{"brightcyan", "bright_cyan"}},
	BrightMagenta: {"BrightMagenta", color.FgHiMagenta, []string{"brightmagenta", "bright_magenta"}},
	BrightBlack:   {"BrightBlack", color.FgHiBlack, []string{"brightblack", "bright_black", "gray", "grey"}},
	BrightWhite:   {"BrightWhite", color.FgHiWhite, []string{"brightwhite", "bright_white"}},
}

var presetByAlias = func() map[string]Preset {
	m := make(map[string]Preset)
	for p, info := range presetTable {
		for _, alias := range info.aliases {
			m[alias] = p
		}
	}
	return m
}()

// String returns the canonical preset name.
func (p Preset) String() string {
	if info, ok := presetTable[p]; ok {
		return info.name
	}
	return fmt.Sprintf("Preset(%d)", int(p))
}

// ParsePreset resolves a preset name or alias, ignoring case.
func ParsePreset(name string) (Preset, error) {
	p, ok := presetByAlias[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("%w: %q (known: %s)", ErrUnknownColor, name, strings.Join(PresetNames(), ", "))
	}
	return p, nil
}

// PresetNames returns the canonical names of all presets in declaration order.
func PresetNames() []string {
	names := make([]string, 0, len(presetTable))
	for p := Red; p <= BrightWhite; p++ {
		names = append(names, presetTable[p].name)
	}
	return names
}

// Color is either a preset terminal color or a 24-bit RGB value.
type Color struct {
	Preset  Preset
	R, G, B uint8
	IsRGB   bool
}

// PresetColor returns a Color for the given preset.
func PresetColor(p Preset) Color {
	return Color{Preset: p}
}

// RGB returns a true-color Color.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b, IsRGB: true}
}

// IsZero reports whether no color was set.
func (c Color) IsZero() bool {
	return !c.IsRGB && c.Preset == 0
}

// Valid reports whether c can be rendered.
func (c Color) Valid() bool {
	if c.IsRGB {
		return true
	}
	_, ok := presetTable[c.Preset]
	return ok
}

// ANSI returns the escape sequence that starts this color.
func (c Color) ANSI() string {
	if c.IsRGB {
		return fmt.Sprintf("\x1b[38;2;%d;%d;%dm", c.R, c.G, c.B)
	}
	if info, ok := presetTable[c.Preset]; ok {
		return fmt.Sprintf("\x1b[%dm", int(info.attr))
	}
	return ""
}

// String renders the color the way it is written in rule files.
func (c Color) String() string {
	if c.IsRGB {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return c.Preset.String()
}

// ParseColor accepts a preset name ("red", "Yellow", "purple") or a hex
// triple ("#b5cea8", "b5cea8").
func ParseColor(s string) (Color, error) {
	trimmed := strings.TrimSpace(s)
	hex := strings.TrimPrefix(trimmed, "#")
	if len(hex) == 6 && (strings.HasPrefix(trimmed, "#") || isHex(hex)) {
		v, err := strconv.ParseUint(hex, 16, 32)
		if err == nil {
			return RGB(uint8(v>>16), uint8(v>>8), uint8(v)), nil
		}
	}
	p, err := ParsePreset(trimmed)
	if err != nil {
		return Color{}, err
	}
	return PresetColor(p), nil
}

func isHex(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
