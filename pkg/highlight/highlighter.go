package highlight

import (
	"io"

	"github.com/Veraticus/highlite/pkg/rules"
)

// Highlighter renders lines against a Pattern. It owns a single output
// buffer that is reused for every line, so a Highlighter must not be shared
// between goroutines.
type Highlighter struct {
	pattern *Pattern
	enabled bool
	buf     []byte
}

// NewHighlighter creates a highlighter. When enabled is false lines are
// passed through without escape sequences.
func NewHighlighter(p *Pattern, enabled bool) *Highlighter {
	return &Highlighter{
		pattern: p,
		enabled: enabled && p != nil,
		buf:     make([]byte, 0, 4096),
	}
}

// Render returns line with every match wrapped in its rule's color. The
// returned slice is only valid until the next call.
func (h *Highlighter) Render(line string) []byte {
	h.buf = h.buf[:0]
	if !h.enabled {
		h.buf = append(h.buf, line...)
		return h.buf
	}

	last := 0
	for _, m := range h.pattern.re.FindAllStringSubmatchIndex(line, -1) {
		// Empty matches carry no text to color. The regexp engine already
		// advances past them, so skipping is enough.
		if m[0] == m[1] {
			continue
		}
		i := h.pattern.ruleFor(m)
		if i < 0 {
			continue
		}
		h.buf = append(h.buf, line[last:m[0]]...)
		h.buf = append(h.buf, h.pattern.starts[i]...)
		h.buf = append(h.buf, line[m[0]:m[1]]...)
		h.buf = append(h.buf, rules.Reset...)
		last = m[1]
	}
	h.buf = append(h.buf, line[last:]...)
	return h.buf
}

// WriteLine renders line, appends a newline and writes the result to w.
func (h *Highlighter) WriteLine(w io.Writer, line string) error {
	h.Render(line)
	h.buf = append(h.buf, '\n')
	_, err := w.Write(h.buf)
	return err
}

// Enabled reports whether escape sequences are emitted.
func (h *Highlighter) Enabled() bool {
	return h.enabled
}
