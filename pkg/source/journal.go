package source

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"go.uber.org/zap"
)

// JournalArgs returns the arguments passed to the journal follower.
func JournalArgs(opts Options) []string {
	opts = withDefaults(opts)
	if len(opts.JournalArgs) > 0 {
		return opts.JournalArgs
	}
	args := []string{"--follow", "--lines=" + strconv.Itoa(opts.Lines)}
	for _, unit := range opts.Units {
		args = append(args, "--unit="+unit)
	}
	return args
}

// OpenJournal follows the system journal by running journalctl and reading
// one record per line from its output. The child is killed when ctx ends.
func OpenJournal(ctx context.Context, opts Options) (Source, error) {
	opts = withDefaults(opts)
	bin, err := exec.LookPath(opts.JournalCommand)
	if err != nil {
		return nil, &SetupError{Kind: KindJournal, Target: opts.JournalCommand, Err: err}
	}

	args := JournalArgs(opts)
	// #nosec G204 - the journal command is operator configuration
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stderr = os.Stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &SetupError{Kind: KindJournal, Target: bin, Err: err}
	}
	if err := cmd.Start(); err != nil {
		return nil, &SetupError{Kind: KindJournal, Target: bin, Err: err}
	}
	opts.Logger.Debug("journal follower started", zap.String("command", bin), zap.Strings("args", args))

	return &streamSource{
		kind:  KindJournal,
		lines: newLineReader(stdout),
		closer: closerFunc(func() error {
			if cmd.ProcessState == nil {
				_ = cmd.Process.Kill()
				_ = cmd.Wait()
			}
			return nil
		}),
		atEOF: func() error {
			err := cmd.Wait()
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err != nil {
				return fmt.Errorf("%s: %w: %v", opts.JournalCommand, ErrStreamEnded, err)
			}
			return fmt.Errorf("%s: %w", opts.JournalCommand, ErrStreamEnded)
		},
	}, nil
}

type closerFunc func() error

func (f closerFunc) Close() error {
	return f()
}
