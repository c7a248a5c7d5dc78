package source

import (
	"errors"
	"fmt"
)

// ErrStreamEnded indicates that a source which should follow forever
// stopped producing output.
var ErrStreamEnded = errors.New("stream ended unexpectedly")

// SetupError reports a source that could not be opened. It is fatal and
// always happens before the first line is read.
type SetupError struct {
	Kind   Kind
	Target string
	Err    error
}

func (e *SetupError) Error() string {
	if e.Target == "" {
		return fmt.Sprintf("open %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("open %s %s: %v", e.Kind, e.Target, e.Err)
}

func (e *SetupError) Unwrap() error {
	return e.Err
}

// DecodeError reports a line whose bytes are not valid UTF-8. The stream
// stays usable; Raw holds the line as read.
type DecodeError struct {
	Line int
	Raw  string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("line %d: invalid UTF-8", e.Line)
}
