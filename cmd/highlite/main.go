package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Veraticus/highlite/pkg/config"
	"github.com/Veraticus/highlite/pkg/pipeline"
	"github.com/Veraticus/highlite/pkg/preset"
)

func main() {
	os.Exit(runProcess(os.Args[1:]))
}

// runProcess runs against the real standard streams with signal handling
// in place.
func runProcess(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Without a handler the runtime dies on SIGPIPE when stdout is closed.
	// With one, writes fail with EPIPE and the pipeline stops cleanly.
	sigpipe := make(chan os.Signal, 1)
	signal.Notify(sigpipe, syscall.SIGPIPE)
	defer signal.Stop(sigpipe)

	return run(ctx, args, Streams{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}, detectTerminal())
}

// run is the whole program minus process setup, returning the exit code.
func run(ctx context.Context, args []string, streams Streams, term Terminal) int {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(streams.Stderr, "highlite: %v\n", err)
		return exitCode(err)
	}

	// Override config with command line flags
	opts, err := parseArgs(args, cfg)
	if err != nil {
		fmt.Fprintf(streams.Stderr, "highlite: %v\n", err)
		fmt.Fprintln(streams.Stderr, "Run 'highlite --help' for usage.")
		return exitCode(err)
	}
	if opts.help {
		printUsage(streams.Stdout)
		return exitOK
	}
	if opts.listPresets {
		for _, name := range preset.Names() {
			fmt.Fprintln(streams.Stdout, name)
		}
		return exitOK
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(streams.Stderr, "highlite: %v\n", err)
		return exitCode(err)
	}

	// Create dependencies
	deps, err := NewDependencies(ctx, cfg, streams, term)
	if err != nil {
		fmt.Fprintf(streams.Stderr, "highlite: %v\n", err)
		return exitCode(err)
	}
	defer deps.Close()

	app := NewApplication(deps)
	if err := app.Run(ctx); err != nil {
		if errors.Is(err, pipeline.ErrInterrupted) {
			deps.Logger.Debug("interrupted", zap.Error(err))
			return exitOK
		}
		deps.Logger.Error("highlighting failed", zap.Error(err))
		return exitCode(err)
	}

	return app.ExitCode()
}
