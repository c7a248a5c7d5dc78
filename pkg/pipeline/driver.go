// Package pipeline connects a line source to the highlighter and the output.
package pipeline

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Veraticus/highlite/pkg/highlight"
	"github.com/Veraticus/highlite/pkg/interfaces"
	"github.com/Veraticus/highlite/pkg/source"
)

// ErrInterrupted is returned by Run when the context ends while a source is
// being read. It is a graceful stop, not a failure.
var ErrInterrupted = errors.New("interrupted")

const (
	outputBufferSize = 64 * 1024

	// DefaultWarnBurst and DefaultWarnRefill bound decode warnings.
	DefaultWarnBurst  = 5
	DefaultWarnRefill = time.Second
)

// Stats counts what a run processed.
type Stats struct {
	Lines        int
	DecodeErrors int
	// Suppressed decode warnings that the rate limiter dropped.
	Suppressed int
}

// Driver reads lines from a source, highlights them and writes the result.
// A Driver runs a single loop and is not safe for concurrent use.
type Driver struct {
	highlighter *highlight.Highlighter
	out         *bufio.Writer
	logger      *zap.Logger
	limiter     interfaces.RateLimiter
	flushAlways bool
	stats       Stats
}

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the diagnostics logger.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Driver) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithRateLimiter sets the limiter for decode warnings.
func WithRateLimiter(limiter interfaces.RateLimiter) Option {
	return func(d *Driver) {
		if limiter != nil {
			d.limiter = limiter
		}
	}
}

// WithFlushEveryLine flushes after every line even when more input is
// already buffered.
func WithFlushEveryLine(enabled bool) Option {
	return func(d *Driver) {
		d.flushAlways = enabled
	}
}

// New creates a Driver writing to w.
func New(h *highlight.Highlighter, w io.Writer, opts ...Option) *Driver {
	d := &Driver{
		highlighter: h,
		out:         bufio.NewWriterSize(w, outputBufferSize),
		logger:      zap.NewNop(),
		limiter:     NewTokenBucketRateLimiter(DefaultWarnBurst, DefaultWarnRefill),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run processes src until it is exhausted, ctx ends or the output fails.
//
// Exhaustion returns nil. Cancellation returns an error matching both
// ErrInterrupted and the context error. A closed output pipe is a normal
// early stop and returns nil. Output is flushed whenever the source has
// nothing more buffered, so live streams appear without delay.
func (d *Driver) Run(ctx context.Context, src source.Source) error {
	d.stats = Stats{}
	d.limiter.Reset()
	d.logger.Debug("pipeline started", zap.Stringer("source", src.Kind()))
	err := d.loop(ctx, src)
	if flushErr := d.out.Flush(); err == nil {
		err = flushErr
	}
	d.summarize()

	if isBrokenPipe(err) {
		d.logger.Debug("output closed, stopping")
		return nil
	}
	return err
}

func (d *Driver) loop(ctx context.Context, src source.Source) error {
	for {
		line, err := src.Next(ctx)
		var decodeErr *source.DecodeError
		switch {
		case err == nil:
			if err := d.highlighter.WriteLine(d.out, line); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
		case errors.As(err, &decodeErr):
			d.warnDecode(decodeErr)
			if err := d.writeRaw(line); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
		case errors.Is(err, io.EOF):
			return nil
		case ctx.Err() != nil && errors.Is(err, ctx.Err()):
			return fmt.Errorf("%w: %w", ErrInterrupted, err)
		default:
			return err
		}

		d.stats.Lines++
		if d.flushAlways || !src.Pending() {
			if err := d.out.Flush(); err != nil {
				return fmt.Errorf("flush output: %w", err)
			}
		}
	}
}

func (d *Driver) writeRaw(line string) error {
	if _, err := d.out.WriteString(line); err != nil {
		return err
	}
	return d.out.WriteByte('\n')
}

func (d *Driver) warnDecode(err *source.DecodeError) {
	d.stats.DecodeErrors++
	if !d.limiter.Allow() {
		d.stats.Suppressed++
		return
	}
	d.logger.Warn("passing through line that is not valid UTF-8", zap.Int("line", err.Line))
}

func (d *Driver) summarize() {
	if d.stats.Suppressed > 0 {
		d.logger.Warn("decode warnings suppressed",
			zap.Int("suppressed", d.stats.Suppressed),
			zap.Int("total", d.stats.DecodeErrors))
	}
	d.logger.Debug("pipeline finished",
		zap.Int("lines", d.stats.Lines),
		zap.Int("decode_errors", d.stats.DecodeErrors))
}

// Stats returns the counters of the last run.
func (d *Driver) Stats() Stats {
	return d.stats
}

func isBrokenPipe(err error) bool {
	return errors.Is(err, syscall.EPIPE)
}
