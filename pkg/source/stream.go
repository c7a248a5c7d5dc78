package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/muesli/cancelreader"
)

// streamSource reads lines from a single io.Reader until EOF. It backs the
// stdin, file, journal and command variants.
type streamSource struct {
	kind   Kind
	lines  *lineReader
	closer io.Closer

	// cancel unblocks a pending read; it runs when the Next context ends.
	cancel   func()
	stopHook func() bool

	// atEOF runs once when the reader is exhausted and may replace io.EOF.
	atEOF func() error
	done  bool
}

// OpenStdin reads lines from r, normally os.Stdin. Reads are cancellable
// where the platform supports it.
func OpenStdin(r io.Reader) (Source, error) {
	if r == nil {
		r = os.Stdin
	}
	cr, err := cancelreader.NewReader(r)
	if err != nil {
		// epoll refuses regular files (stdin redirected from a file).
		// Those reads never block, so plain reads are fine.
		return &streamSource{kind: KindStdin, lines: newLineReader(r)}, nil
	}
	return &streamSource{
		kind:   KindStdin,
		lines:  newLineReader(cr),
		closer: cr,
		cancel: func() { cr.Cancel() },
	}, nil
}

// OpenFile reads a file to completion.
func OpenFile(path string) (Source, error) {
	// #nosec G304 - reading the user-supplied input file is the point
	f, err := os.Open(path)
	if err != nil {
		return nil, &SetupError{Kind: KindFile, Target: path, Err: err}
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, &SetupError{Kind: KindFile, Target: path, Err: err}
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, &SetupError{Kind: KindFile, Target: path, Err: fmt.Errorf("is a directory")}
	}
	return &streamSource{
		kind:   KindFile,
		lines:  newLineReader(f),
		closer: f,
	}, nil
}

func (s *streamSource) Next(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.done {
		return "", io.EOF
	}
	if s.cancel != nil && s.stopHook == nil {
		s.stopHook = context.AfterFunc(ctx, s.cancel)
	}

	line, err := s.lines.next()
	var decodeErr *DecodeError
	if err == nil || errors.As(err, &decodeErr) {
		return line, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}
	if errors.Is(err, io.EOF) {
		s.done = true
		if s.atEOF != nil {
			if endErr := s.atEOF(); endErr != nil {
				return "", endErr
			}
		}
		return "", io.EOF
	}
	return "", fmt.Errorf("read %s: %w", s.kind, err)
}

func (s *streamSource) Pending() bool {
	return s.lines.pending()
}

func (s *streamSource) Kind() Kind {
	return s.kind
}

func (s *streamSource) Close() error {
	if s.stopHook != nil {
		s.stopHook()
	}
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
