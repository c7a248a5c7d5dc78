package highlight

import (
	"bytes"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/highlite/pkg/preset"
	"github.com/Veraticus/highlite/pkg/rules"
)

var ansiSeq = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func strip(s string) string {
	return ansiSeq.ReplaceAllString(s, "")
}

func mustCompile(t *testing.T, rs []rules.Rule, force bool) *Pattern {
	t.Helper()
	p, err := Compile(rs, force)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return p
}

func render(t *testing.T, rs []rules.Rule, force bool, line string) string {
	t.Helper()
	return string(NewHighlighter(mustCompile(t, rs, force), true).Render(line))
}

var (
	red    = rules.PresetColor(rules.Red)
	yellow = rules.PresetColor(rules.Yellow)
	green  = rules.PresetColor(rules.Green)
	blue   = rules.PresetColor(rules.Blue)
)

func TestHighlighter_Render(t *testing.T) {
	tests := []struct {
		name  string
		rules []rules.Rule
		force bool
		line  string
		want  string
	}{
		{
			name:  "keyword scenario",
			rules: []rules.Rule{rules.Keyword("ERROR", red)},
			line:  "ERROR: disk full",
			want:  "\x1b[31mERROR\x1b[0m: disk full",
		},
		{
			name:  "no match passes through",
			rules: []rules.Rule{rules.Keyword("ERROR", red)},
			line:  "all good here",
			want:  "all good here",
		},
		{
			name:  "literal keyword is escaped",
			rules: []rules.Rule{rules.Keyword("a.b", red)},
			line:  "axb a.b",
			want:  "axb \x1b[31ma.b\x1b[0m",
		},
		{
			name:  "literal keyword never matches as regex",
			rules: []rules.Rule{rules.Keyword("a.b", red)},
			line:  "axb",
			want:  "axb",
		},
		{
			name:  "earlier rule wins at the same position",
			rules: []rules.Rule{rules.Keyword("TODO", yellow), rules.Regex(".*", red)},
			line:  "TODO here",
			want:  "\x1b[33mTODO\x1b[0m\x1b[31m here\x1b[0m",
		},
		{
			name:  "case sensitive rule",
			rules: []rules.Rule{rules.Keyword("error", red)},
			line:  "ERROR",
			want:  "ERROR",
		},
		{
			name:  "rule level ignore case",
			rules: []rules.Rule{rules.Keyword("error", red).Fold()},
			line:  "ERROR",
			want:  "\x1b[31mERROR\x1b[0m",
		},
		{
			name:  "global ignore case overrides rule",
			rules: []rules.Rule{rules.Keyword("error", red)},
			force: true,
			line:  "ERROR",
			want:  "\x1b[31mERROR\x1b[0m",
		},
		{
			name: "mixed case sensitivity in one pattern",
			rules: []rules.Rule{
				rules.Keyword("Foo", red),
				rules.Keyword("bar", blue).Fold(),
			},
			line: "foo BAR Foo",
			want: "foo \x1b[34mBAR\x1b[0m \x1b[31mFoo\x1b[0m",
		},
		{
			name:  "rgb color",
			rules: []rules.Rule{rules.Regex(`\d+`, rules.RGB(181, 206, 168))},
			line:  "took 42ms",
			want:  "took \x1b[38;2;181;206;168m42\x1b[0mms",
		},
		{
			name: "inner capture groups keep rule mapping",
			rules: []rules.Rule{
				rules.Regex(`(a)(b)`, red),
				rules.Keyword("c", green),
			},
			line: "abc",
			want: "\x1b[31mab\x1b[0m\x1b[32mc\x1b[0m",
		},
		{
			name: "alternation inside a rule stays in its group",
			rules: []rules.Rule{
				rules.Regex(`foo|bar`, red),
				rules.Keyword("baz", blue),
			},
			line: "bar baz foo",
			want: "\x1b[31mbar\x1b[0m \x1b[34mbaz\x1b[0m \x1b[31mfoo\x1b[0m",
		},
		{
			name: "user group named like an internal group",
			rules: []rules.Rule{
				rules.Regex(`(?P<r1>x)`, red),
				rules.Keyword("y", green),
			},
			line: "xy",
			want: "\x1b[31mx\x1b[0m\x1b[32my\x1b[0m",
		},
		{
			name:  "zero length matches are skipped",
			rules: []rules.Rule{rules.Regex(`x*`, red)},
			line:  "abc",
			want:  "abc",
		},
		{
			name:  "zero capable rule still colors real matches",
			rules: []rules.Rule{rules.Regex(`x*`, red)},
			line:  "axxb",
			want:  "a\x1b[31mxx\x1b[0mb",
		},
		{
			name:  "multiple matches",
			rules: []rules.Rule{rules.Regex(`\d+`, red)},
			line:  "1 22 333",
			want:  "\x1b[31m1\x1b[0m \x1b[31m22\x1b[0m \x1b[31m333\x1b[0m",
		},
		{
			name:  "anchors apply to the line",
			rules: []rules.Rule{rules.Regex(`^\s+at .*$`, red)},
			line:  "    at main.go:12",
			want:  "\x1b[31m    at main.go:12\x1b[0m",
		},
		{
			name:  "empty line",
			rules: []rules.Rule{rules.Keyword("x", red)},
			line:  "",
			want:  "",
		},
		{
			name:  "no rules",
			rules: nil,
			line:  "anything at all",
			want:  "anything at all",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := render(t, tt.rules, tt.force, tt.line)
			if got != tt.want {
				t.Errorf("expected %q but got %q", tt.want, got)
			}
		})
	}
}

func TestHighlighter_StripRoundTrip(t *testing.T) {
	lines := []string{
		"",
		"plain text without any matches",
		"2024-01-15 14:30:45 ERROR [worker-3] GET /api/v1/items 500 took 12.5ms",
		`{"user": "alice", "count": 3, "ok": true}`,
		"    at com.example.Service.run(Service.java:42)",
		"naïve café – unicode ✓ 192.168.1.100",
		"TODO: TODO TODO",
	}
	sets := map[string][]rules.Rule{
		"logs": preset.MustGet("logs"),
		"json": preset.MustGet("json"),
		"cpp":  preset.MustGet("cpp"),
		"overlapping": {
			rules.Keyword("TODO", yellow),
			rules.Regex(".*", red),
			rules.Regex(`x*`, blue),
		},
	}

	for name, rs := range sets {
		h := NewHighlighter(mustCompile(t, rs, false), true)
		for _, line := range lines {
			if got := strip(string(h.Render(line))); got != line {
				t.Errorf("%s: stripping %q gave %q", name, line, got)
			}
		}
	}
}

func TestHighlighter_ZeroLengthBounded(t *testing.T) {
	h := NewHighlighter(mustCompile(t, []rules.Rule{rules.Regex(`x*`, red), rules.Regex(`\b`, blue)}, false), true)
	line := strings.Repeat("ab ", 50000)

	done := make(chan string, 1)
	go func() {
		done <- string(h.Render(line))
	}()

	select {
	case got := <-done:
		if got != line {
			t.Error("expected line without matches to pass through")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("render did not finish")
	}
}

func TestHighlighter_ReusesBuffer(t *testing.T) {
	h := NewHighlighter(mustCompile(t, []rules.Rule{rules.Keyword("ERROR", red)}, false), true)
	initialCap := cap(h.buf)

	first := string(h.Render("ERROR one"))
	second := string(h.Render("two"))

	if first != "\x1b[31mERROR\x1b[0m one" {
		t.Errorf("unexpected first render %q", first)
	}
	if second != "two" {
		t.Errorf("expected buffer to be cleared between lines, got %q", second)
	}
	if cap(h.buf) != initialCap {
		t.Errorf("expected buffer to be reused (cap %d), got cap %d", initialCap, cap(h.buf))
	}
}

func TestHighlighter_Disabled(t *testing.T) {
	h := NewHighlighter(mustCompile(t, []rules.Rule{rules.Keyword("ERROR", red)}, false), false)
	if h.Enabled() {
		t.Fatal("expected highlighter to be disabled")
	}
	if got := string(h.Render("ERROR: x")); got != "ERROR: x" {
		t.Errorf("expected pass through, got %q", got)
	}
}

func TestHighlighter_WriteLine(t *testing.T) {
	h := NewHighlighter(mustCompile(t, []rules.Rule{rules.Keyword("ok", green)}, false), true)
	var buf bytes.Buffer

	if err := h.WriteLine(&buf, "status ok"); err != nil {
		t.Fatalf("WriteLine: %v", err)
	}
	if err := h.WriteLine(&buf, "next"); err != nil {
		t.Fatalf("WriteLine: %v", err)
	}

	want := "status \x1b[32mok\x1b[0m\nnext\n"
	if buf.String() != want {
		t.Errorf("expected %q but got %q", want, buf.String())
	}
}

func TestCompile_InvalidRegex(t *testing.T) {
	_, err := Compile([]rules.Rule{
		rules.Keyword("fine", red),
		rules.Regex(`(unclosed`, red),
	}, false)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, rules.ErrInvalidRegex) {
		t.Errorf("expected ErrInvalidRegex, got %v", err)
	}
	var cfgErr *rules.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *rules.ConfigError, got %T", err)
	}
	if cfgErr.Index != 1 || cfgErr.Pattern != "(unclosed" {
		t.Errorf("expected rule 1 (unclosed), got %d %q", cfgErr.Index, cfgErr.Pattern)
	}
}

func TestCompile_RejectsGroupEscape(t *testing.T) {
	for _, fold := range []bool{false, true} {
		_, err := Compile([]rules.Rule{rules.Regex(`x)|(y`, red)}, fold)
		var cfgErr *rules.ConfigError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("ignore case %v: expected *rules.ConfigError, got %v", fold, err)
		}
		if cfgErr.Index != 0 || !errors.Is(err, rules.ErrInvalidRegex) {
			t.Errorf("ignore case %v: expected invalid regex at rule 0, got %v", fold, err)
		}
	}
}

func TestCompile_RejectsEmptyPattern(t *testing.T) {
	_, err := Compile([]rules.Rule{rules.Keyword("", red)}, false)
	if !errors.Is(err, rules.ErrEmptyPattern) {
		t.Errorf("expected ErrEmptyPattern, got %v", err)
	}
}

func TestCompile_GroupNames(t *testing.T) {
	p := mustCompile(t, []rules.Rule{
		rules.Regex(`(a)|(b)`, red),
		rules.Keyword("c", green),
		rules.Keyword("d", blue).Fold(),
	}, false)

	if p.Len() != 3 {
		t.Fatalf("expected 3 rules, got %d", p.Len())
	}
	for i, want := range []string{"r0", "r1", "r2"} {
		if got := p.re.SubexpNames()[p.groups[i]]; got != want {
			t.Errorf("rule %d: expected group %q, got %q", i, want, got)
		}
	}
	if !strings.Contains(p.String(), "(?P<r2>(?i:d))") {
		t.Errorf("expected inline case folding scoped to rule 2, got %s", p.String())
	}
}

func TestHighlighter_RepeatedMatches(t *testing.T) {
	p := mustCompile(t, []rules.Rule{
		rules.Keyword("WARN", yellow),
		rules.Regex(`\d+`, red),
	}, false)

	got := string(NewHighlighter(p, true).Render("WARN 3 of 10"))
	want := "\x1b[33mWARN\x1b[0m \x1b[31m3\x1b[0m of \x1b[31m10\x1b[0m"
	if got != want {
		t.Errorf("expected %q but got %q", want, got)
	}
}
