package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"

	"github.com/creack/pty"
)

// CommandSource runs a program under a pseudo-terminal and yields its
// output. Running under a PTY keeps the program line-buffered and lets it
// behave as if attached to a terminal.
type CommandSource struct {
	*streamSource
	cmd      *exec.Cmd
	ptmx     *os.File
	exitCode int
}

// OpenCommand starts argv[0] with the remaining arguments. The child's
// standard streams are the pseudo-terminal; it is killed when ctx ends.
func OpenCommand(ctx context.Context, argv []string) (*CommandSource, error) {
	if len(argv) == 0 {
		return nil, &SetupError{Kind: KindCommand, Err: fmt.Errorf("no command given")}
	}

	// #nosec G204 - running the user's command is the point
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Env = os.Environ()

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return nil, &SetupError{Kind: KindCommand, Target: argv[0], Err: err}
	}
	// Best effort: a detached stdin has no size to copy.
	_ = pty.InheritSize(os.Stdin, ptmx)

	c := &CommandSource{cmd: cmd, ptmx: ptmx, exitCode: -1}
	c.streamSource = &streamSource{
		kind:   KindCommand,
		lines:  newLineReader(eioReader{ptmx}),
		closer: closerFunc(c.close),
		atEOF:  c.wait,
	}
	return c, nil
}

func (c *CommandSource) wait() error {
	err := c.cmd.Wait()
	if c.cmd.ProcessState != nil {
		c.exitCode = exitStatus(c.cmd.ProcessState)
	}
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return fmt.Errorf("wait for %s: %w", c.cmd.Path, err)
	}
	return nil
}

func (c *CommandSource) close() error {
	if c.cmd.ProcessState == nil && c.cmd.Process != nil {
		_ = c.cmd.Process.Kill()
		_ = c.wait()
	}
	return c.ptmx.Close()
}

// exitStatus follows the shell convention: a child killed by a signal
// exits 128+signal.
func exitStatus(ps *os.ProcessState) int {
	if ws, ok := ps.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return ps.ExitCode()
}

// ExitCode returns the child's exit status, or -1 while it is running.
func (c *CommandSource) ExitCode() int {
	return c.exitCode
}

// eioReader maps the EIO a PTY master returns after the child exits to
// io.EOF.
type eioReader struct {
	r io.Reader
}

func (e eioReader) Read(p []byte) (int, error) {
	n, err := e.r.Read(p)
	if errors.Is(err, syscall.EIO) {
		err = io.EOF
	}
	return n, err
}
