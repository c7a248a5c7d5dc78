package source

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"
	"unicode/utf8"
)

const readBufferSize = 64 * 1024

// lineReader splits a byte stream into lines and validates their encoding.
type lineReader struct {
	r    *bufio.Reader
	line int
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{r: bufio.NewReaderSize(r, readBufferSize)}
}

// next returns the next line. A final line without terminator is returned
// before io.EOF.
func (lr *lineReader) next() (string, error) {
	s, err := lr.r.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) || s == "" {
			return "", err
		}
	}
	lr.line++
	return checkLine(lr.line, trimEOL(s))
}

// pending reports whether a complete line is already buffered. A partial
// line does not count: returning it would block until its terminator arrives.
func (lr *lineReader) pending() bool {
	return bytes.IndexByte(peekBuffered(lr.r), '\n') >= 0
}

func trimEOL(s string) string {
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r")
}

func checkLine(n int, s string) (string, error) {
	if !utf8.ValidString(s) {
		return s, &DecodeError{Line: n, Raw: s}
	}
	return s, nil
}
