package pipeline

import (
	"context"
	"errors"
	"io"
	"syscall"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Veraticus/highlite/pkg/highlight"
	"github.com/Veraticus/highlite/pkg/rules"
	"github.com/Veraticus/highlite/pkg/source"
	"github.com/Veraticus/highlite/pkg/testutil"
)

func newHighlighter(t *testing.T, enabled bool) *highlight.Highlighter {
	t.Helper()
	p, err := highlight.Compile([]rules.Rule{
		rules.Keyword("ERROR", rules.PresetColor(rules.Red)),
	}, false)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return highlight.NewHighlighter(p, enabled)
}

func TestDriver_Run(t *testing.T) {
	out := testutil.NewRecordingWriter()
	d := New(newHighlighter(t, true), out)

	err := d.Run(context.Background(), testutil.NewMockSource("ERROR: disk full", "fine"))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := "\x1b[31mERROR\x1b[0m: disk full\nfine\n"
	if out.String() != want {
		t.Errorf("expected %q but got %q", want, out.String())
	}
	if d.Stats().Lines != 2 {
		t.Errorf("expected 2 lines, got %d", d.Stats().Lines)
	}
}

func TestDriver_ColorsDisabled(t *testing.T) {
	out := testutil.NewRecordingWriter()
	d := New(newHighlighter(t, false), out)

	if err := d.Run(context.Background(), testutil.NewMockSource("ERROR: disk full")); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.String() != "ERROR: disk full\n" {
		t.Errorf("expected plain output, got %q", out.String())
	}
}

func TestDriver_DecodeErrorsPassThrough(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	out := testutil.NewRecordingWriter()
	d := New(newHighlighter(t, true), out,
		WithLogger(zap.New(core)),
		WithRateLimiter(testutil.NewCountingRateLimiter(1)),
	)

	src := testutil.NewMockSource("ERROR first").
		AddStep("\xff one", &source.DecodeError{Line: 2, Raw: "\xff one"}).
		AddStep("\xff two", &source.DecodeError{Line: 3, Raw: "\xff two"}).
		AddStep("\xff three", &source.DecodeError{Line: 4, Raw: "\xff three"}).
		AddStep("last", nil)

	if err := d.Run(context.Background(), src); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := "\x1b[31mERROR\x1b[0m first\n\xff one\n\xff two\n\xff three\nlast\n"
	if out.String() != want {
		t.Errorf("expected %q but got %q", want, out.String())
	}

	stats := d.Stats()
	if stats.Lines != 5 || stats.DecodeErrors != 3 || stats.Suppressed != 2 {
		t.Errorf("unexpected stats %+v", stats)
	}

	perLine := logs.FilterMessage("passing through line that is not valid UTF-8").All()
	if len(perLine) != 1 {
		t.Fatalf("expected 1 per-line warning, got %d", len(perLine))
	}
	if perLine[0].ContextMap()["line"] != int64(2) {
		t.Errorf("expected warning for line 2, got %v", perLine[0].ContextMap())
	}
	summary := logs.FilterMessage("decode warnings suppressed").All()
	if len(summary) != 1 || summary[0].ContextMap()["suppressed"] != int64(2) {
		t.Errorf("expected one summary with 2 suppressed, got %v", summary)
	}
}

func TestDriver_Interrupted(t *testing.T) {
	out := testutil.NewRecordingWriter()
	d := New(newHighlighter(t, true), out)

	src := testutil.NewMockSource("a", "b")
	src.SetFollow(true)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx, src) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, ErrInterrupted) {
			t.Errorf("expected ErrInterrupted, got %v", err)
		}
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled in chain, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	if out.String() != "a\nb\n" {
		t.Errorf("expected output flushed before interrupt, got %q", out.String())
	}
}

func TestDriver_BrokenPipeIsNormal(t *testing.T) {
	out := testutil.NewRecordingWriter()
	out.SetError(syscall.EPIPE)
	d := New(newHighlighter(t, true), out)

	if err := d.Run(context.Background(), testutil.NewMockSource("a", "b")); err != nil {
		t.Errorf("expected broken pipe to end quietly, got %v", err)
	}
}

func TestDriver_WriteError(t *testing.T) {
	errDisk := errors.New("disk full")
	out := testutil.NewRecordingWriter()
	out.SetError(errDisk)
	d := New(newHighlighter(t, true), out)

	err := d.Run(context.Background(), testutil.NewMockSource("a"))
	if !errors.Is(err, errDisk) {
		t.Errorf("expected write error, got %v", err)
	}
}

func TestDriver_SourceError(t *testing.T) {
	errRead := errors.New("read failed")
	out := testutil.NewRecordingWriter()
	d := New(newHighlighter(t, true), out)

	src := testutil.NewMockSource("before").AddStep("", errRead)
	err := d.Run(context.Background(), src)
	if !errors.Is(err, errRead) {
		t.Errorf("expected read error, got %v", err)
	}
	if out.String() != "before\n" {
		t.Errorf("expected earlier output to be flushed, got %q", out.String())
	}
}

func TestDriver_FlushPolicy(t *testing.T) {
	tests := []struct {
		name       string
		live       bool
		flushEvery bool
		wantWrites int
	}{
		{name: "buffered input flushes once", wantWrites: 1},
		{name: "live input flushes every line", live: true, wantWrites: 3},
		{name: "forced flush", flushEvery: true, wantWrites: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := testutil.NewRecordingWriter()
			d := New(newHighlighter(t, true), out, WithFlushEveryLine(tt.flushEvery))

			src := testutil.NewMockSource("1", "2", "3")
			src.SetLive(tt.live)
			if err := d.Run(context.Background(), src); err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if got := out.GetWriteCount(); got != tt.wantWrites {
				t.Errorf("expected %d writes, got %d", tt.wantWrites, got)
			}
			if out.String() != "1\n2\n3\n" {
				t.Errorf("unexpected output %q", out.String())
			}
		})
	}
}

func TestDriver_NilOptionsKeepDefaults(t *testing.T) {
	d := New(newHighlighter(t, true), testutil.NewRecordingWriter(), WithLogger(nil), WithRateLimiter(nil))
	if d.logger == nil || d.limiter == nil {
		t.Error("expected defaults to survive nil options")
	}
}

func TestDriver_RunResetsCounters(t *testing.T) {
	limiter := testutil.NewMockRateLimiter(true)
	d := New(newHighlighter(t, false), testutil.NewRecordingWriter(), WithRateLimiter(limiter))

	for i := 0; i < 2; i++ {
		if err := d.Run(context.Background(), testutil.NewMockSource("a", "b")); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	}
	if d.Stats().Lines != 2 {
		t.Errorf("expected stats of the last run only, got %d lines", d.Stats().Lines)
	}
	if limiter.GetResetCount() != 2 {
		t.Errorf("expected limiter reset per run, got %d", limiter.GetResetCount())
	}
}

func TestDriver_FlushesBeforePartialLine(t *testing.T) {
	pr, pw := io.Pipe()
	src, err := source.OpenStdin(pr)
	if err != nil {
		t.Fatalf("OpenStdin: %v", err)
	}
	defer src.Close()

	out := testutil.NewRecordingWriter()
	d := New(newHighlighter(t, false), out)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx, src) }()

	if _, err := pw.Write([]byte("first line\npartial")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for out.String() != "first line\n" && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if out.String() != "first line\n" {
		t.Fatalf("expected complete line flushed while the next is partial, got %q", out.String())
	}

	_ = pw.Close()
	if err := <-done; err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.String() != "first line\npartial\n" {
		t.Errorf("expected final partial line at EOF, got %q", out.String())
	}
}
