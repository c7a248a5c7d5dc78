package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"

	"github.com/Veraticus/highlite/pkg/config"
	"github.com/Veraticus/highlite/pkg/highlight"
	"github.com/Veraticus/highlite/pkg/interfaces"
	"github.com/Veraticus/highlite/pkg/logging"
	"github.com/Veraticus/highlite/pkg/pipeline"
	"github.com/Veraticus/highlite/pkg/preset"
	"github.com/Veraticus/highlite/pkg/rules"
	"github.com/Veraticus/highlite/pkg/source"
)

const stdinNotice = "(Info: Waiting for stdin... Press Ctrl+D to end)"

// Terminal describes the standard streams of the process.
type Terminal struct {
	StdinTTY  bool
	StdoutTTY bool
	StderrTTY bool
	NoColor   bool
}

// detectTerminal inspects the real standard streams.
func detectTerminal() Terminal {
	_, noColor := os.LookupEnv("NO_COLOR")
	return Terminal{
		StdinTTY:  isTerminal(os.Stdin.Fd()),
		StdoutTTY: isTerminal(os.Stdout.Fd()),
		StderrTTY: isTerminal(os.Stderr.Fd()),
		NoColor:   noColor,
	}
}

func isTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// colorsEnabled applies the --color policy.
func colorsEnabled(mode string, term Terminal) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	default:
		return term.StdoutTTY && !term.NoColor
	}
}

// Streams are the process's standard streams.
type Streams struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Dependencies holds all the dependencies for the application
type Dependencies struct {
	Config      *config.Config
	Logger      *zap.Logger
	Rules       []rules.Rule
	Pattern     *highlight.Pattern
	Highlighter *highlight.Highlighter
	Source      source.Source
	Driver      *pipeline.Driver
}

// NewDependencies loads the rules, compiles them, opens the source and
// builds the pipeline. ctx bounds any child process the source starts.
func NewDependencies(ctx context.Context, cfg *config.Config, streams Streams, term Terminal) (*Dependencies, error) {
	logger, err := logging.New(cfg.LogLevel, streams.Stderr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrConfig, err)
	}
	deps := &Dependencies{Config: cfg, Logger: logger}

	rs, origin, err := cfg.Rules()
	if err != nil {
		return nil, err
	}
	logger.Debug("rules loaded", zap.String("from", origin), zap.Int("count", len(rs)))
	deps.Rules = rs

	deps.Pattern, err = highlight.Compile(rs, cfg.IgnoreCase)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", origin, err)
	}

	deps.Highlighter = highlight.NewHighlighter(deps.Pattern, colorsEnabled(cfg.Color, term))
	logger.Debug("output configured", zap.Bool("colors", deps.Highlighter.Enabled()), zap.String("mode", cfg.Color))

	deps.Source, err = source.Open(ctx, sourceOptions(cfg, streams.Stdin, logger))
	if err != nil {
		return nil, err
	}
	if deps.Source.Kind() == source.KindStdin && term.StdinTTY {
		printNotice(streams.Stderr, term.StderrTTY && !term.NoColor)
	}

	deps.Driver = pipeline.New(deps.Highlighter, streams.Stdout,
		pipeline.WithLogger(logger),
		pipeline.WithRateLimiter(pipeline.NewTokenBucketRateLimiter(pipeline.DefaultWarnBurst, pipeline.DefaultWarnRefill)),
		pipeline.WithFlushEveryLine(term.StdinTTY && deps.Source.Kind() == source.KindStdin),
	)
	return deps, nil
}

func sourceOptions(cfg *config.Config, stdin io.Reader, logger *zap.Logger) source.Options {
	return source.Options{
		File:           cfg.File,
		FollowFile:     cfg.FollowFile,
		FollowJournal:  cfg.FollowJournal,
		Command:        cfg.Command,
		Lines:          cfg.Lines,
		PollInterval:   cfg.PollInterval,
		JournalCommand: cfg.JournalCommand,
		JournalArgs:    cfg.JournalArgs,
		Units:          cfg.Units,
		Stdin:          stdin,
		Logger:         logger,
	}
}

func printNotice(w io.Writer, colored bool) {
	c := color.New(color.FgCyan)
	if colored {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	_, _ = c.Fprintln(w, stdinNotice)
}

// Close cleans up all dependencies
func (d *Dependencies) Close() {
	if d.Source != nil {
		if err := d.Source.Close(); err != nil {
			d.Logger.Debug("closing source", zap.Error(err))
		}
	}
	if d.Logger != nil {
		_ = d.Logger.Sync() // Best effort; syncing a terminal fails on some platforms
	}
}

// Application represents the main application
type Application struct {
	deps *Dependencies
}

// NewApplication creates a new application with the given dependencies
func NewApplication(deps *Dependencies) *Application {
	return &Application{
		deps: deps,
	}
}

// Run highlights the source until it ends or ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	return a.deps.Driver.Run(ctx, a.deps.Source)
}

// ExitCode returns the exit code of a wrapped command, or 0.
func (a *Application) ExitCode() int {
	if ec, ok := a.deps.Source.(interfaces.ExitCoder); ok && ec.ExitCode() > 0 {
		return ec.ExitCode()
	}
	return 0
}

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// exitCode classifies an error returned while setting up or running.
func exitCode(err error) int {
	var ruleErr *rules.ConfigError
	switch {
	case err == nil, errors.Is(err, pipeline.ErrInterrupted):
		return exitOK
	case errors.As(err, &ruleErr), errors.Is(err, config.ErrConfig):
		return exitUsage
	default:
		return exitFailure
	}
}

func presetList() string {
	return strings.Join(preset.Names(), ", ")
}
