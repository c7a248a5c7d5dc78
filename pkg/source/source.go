// Package source produces lines of text from stdin, files, followed files,
// the system journal or a child command.
//
// Every variant implements Source. Static sources (stdin, file, command)
// end with io.EOF; followed sources block for new data until their context
// is cancelled, at which point Next returns the context's error.
package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
)

// Source is an ordered stream of lines with the terminator stripped.
type Source interface {
	// Next returns the next line. It returns io.EOF once a bounded source
	// is exhausted, ctx.Err() once ctx is cancelled, and a *DecodeError
	// (together with the raw line) for a line that is not valid UTF-8.
	Next(ctx context.Context) (string, error)
	// Pending reports whether Next can return without waiting for input.
	Pending() bool
	Kind() Kind
	Close() error
}

// Kind identifies a source variant.
type Kind int

const (
	KindStdin Kind = iota
	KindFile
	KindFollowFile
	KindJournal
	KindCommand
)

func (k Kind) String() string {
	switch k {
	case KindStdin:
		return "stdin"
	case KindFile:
		return "file"
	case KindFollowFile:
		return "follow-file"
	case KindJournal:
		return "journal"
	case KindCommand:
		return "command"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Follows reports whether the variant never ends on its own.
func (k Kind) Follows() bool {
	return k == KindFollowFile || k == KindJournal
}

const (
	// DefaultLines is the history shown when a follow starts, like tail.
	DefaultLines = 10
	// DefaultPollInterval bounds how long a followed file goes unchecked
	// when no change notification arrives.
	DefaultPollInterval = 500 * time.Millisecond
	// DefaultJournalCommand is the journal follower binary.
	DefaultJournalCommand = "journalctl"
)

// Options selects and configures a source.
type Options struct {
	File          string
	FollowFile    string
	FollowJournal bool
	// Command is a program and its arguments whose output is highlighted.
	Command []string

	// Lines of existing history emitted when following. Negative means
	// DefaultLines.
	Lines        int
	PollInterval time.Duration

	JournalCommand string
	JournalArgs    []string
	Units          []string

	// Stdin defaults to os.Stdin.
	Stdin  io.Reader
	Logger *zap.Logger
}

// Select returns the variant Open would create. A journal follow wins over
// a followed file, which wins over a plain file, then a command, then stdin.
func Select(opts Options) Kind {
	switch {
	case opts.FollowJournal:
		return KindJournal
	case opts.FollowFile != "":
		return KindFollowFile
	case opts.File != "":
		return KindFile
	case len(opts.Command) > 0:
		return KindCommand
	default:
		return KindStdin
	}
}

// Open creates the source chosen by Select. Failures are *SetupError.
// ctx bounds the lifetime of any child process the source starts.
func Open(ctx context.Context, opts Options) (Source, error) {
	opts = withDefaults(opts)
	kind := Select(opts)
	opts.Logger.Debug("opening source", zap.Stringer("kind", kind))

	switch kind {
	case KindJournal:
		return OpenJournal(ctx, opts)
	case KindFollowFile:
		f, err := OpenFollow(opts.FollowFile, opts)
		if err != nil {
			return nil, err
		}
		return f, nil
	case KindFile:
		return OpenFile(opts.File)
	case KindCommand:
		c, err := OpenCommand(ctx, opts.Command)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return OpenStdin(opts.Stdin)
	}
}

func withDefaults(opts Options) Options {
	if opts.Lines < 0 {
		opts.Lines = DefaultLines
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.JournalCommand == "" {
		opts.JournalCommand = DefaultJournalCommand
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return opts
}
