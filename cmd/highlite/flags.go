package main

import (
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/Veraticus/highlite/pkg/config"
)

// cliOptions are the flags that do not belong in config.Config.
type cliOptions struct {
	help        bool
	listPresets bool
}

// newFlagSet binds the command line flags onto cfg. Values already in cfg
// (defaults and environment) become the flag defaults, so flags win.
func newFlagSet(cfg *config.Config, opts *cliOptions) *flag.FlagSet {
	fs := flag.NewFlagSet("highlite", flag.ContinueOnError)
	fs.SortFlags = false

	fs.StringVarP(&cfg.ConfigPath, "config", "c", cfg.ConfigPath, "rule file (YAML, or TOML with a .toml extension)")
	fs.StringVarP(&cfg.Preset, "preset", "p", cfg.Preset, "built-in preset: "+presetList())
	fs.BoolVarP(&cfg.IgnoreCase, "ignore-case", "i", cfg.IgnoreCase, "force case-insensitive matching for every rule")

	fs.StringVarP(&cfg.File, "file", "f", cfg.File, "read a file")
	fs.StringVarP(&cfg.FollowFile, "follow-file", "F", cfg.FollowFile, "follow a growing file (tail -f)")
	fs.BoolVarP(&cfg.FollowJournal, "follow-journal", "j", cfg.FollowJournal, "follow the system journal")
	fs.StringArrayVarP(&cfg.Units, "unit", "u", cfg.Units, "journal unit filter (repeatable)")
	fs.IntVarP(&cfg.Lines, "lines", "n", cfg.Lines, "lines of existing history for follow modes")
	fs.DurationVar(&cfg.PollInterval, "poll", cfg.PollInterval, "follow-file re-stat interval")

	fs.StringVar(&cfg.Color, "color", cfg.Color, "when to color output: auto, always or never")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "diagnostics level: debug, info, warn or error")
	fs.BoolVar(&opts.listPresets, "list-presets", false, "print preset names and exit")
	fs.BoolVarP(&opts.help, "help", "h", false, "show this help")

	return fs
}

// parseArgs applies args to cfg. A single positional argument names the
// file to read; everything after "--" is a command to run.
func parseArgs(args []string, cfg *config.Config) (cliOptions, error) {
	var opts cliOptions
	fs := newFlagSet(cfg, &opts)
	// Parse errors are reported by the caller.
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}

	if err := fs.Parse(args); err != nil {
		return opts, fmt.Errorf("%w: %w", config.ErrConfig, err)
	}

	positional := fs.Args()
	if dash := fs.ArgsLenAtDash(); dash >= 0 {
		cfg.Command = positional[dash:]
		positional = positional[:dash]
		if len(cfg.Command) == 0 {
			return opts, fmt.Errorf("%w: no command after --", config.ErrConfig)
		}
	}

	switch {
	case len(positional) == 0:
	case len(positional) == 1 && cfg.File == "":
		cfg.File = positional[0]
	default:
		return opts, fmt.Errorf("%w: unexpected arguments: %s", config.ErrConfig, strings.Join(positional, " "))
	}

	return opts, nil
}

func printUsage(w io.Writer) {
	var opts cliOptions
	fs := newFlagSet(config.DefaultConfig(), &opts)

	fmt.Fprintln(w, "highlite - highlight text streams with keyword and regex rules")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: highlite [OPTIONS] [FILE]")
	fmt.Fprintln(w, "       highlite [OPTIONS] -- COMMAND [ARGS...]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fmt.Fprint(w, fs.FlagUsages())
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input is read from stdin unless a file, a follow mode or a command is given.")
	fmt.Fprintln(w, "Priority: --follow-journal, --follow-file, --file, command, stdin.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment Variables:")
	fmt.Fprintln(w, "  HIGHLITE_CONFIG       Path to a rule file")
	fmt.Fprintln(w, "  HIGHLITE_PRESET       Preset name")
	fmt.Fprintln(w, "  HIGHLITE_IGNORE_CASE  Force case-insensitive matching (true/false)")
	fmt.Fprintln(w, "  HIGHLITE_COLOR        auto, always or never")
	fmt.Fprintln(w, "  HIGHLITE_LOG_LEVEL    debug, info, warn or error")
	fmt.Fprintln(w, "  HIGHLITE_JOURNALCTL   Journal follower binary (default: journalctl)")
	fmt.Fprintln(w, "  NO_COLOR              Disable colors in auto mode")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Default rule file: ~/.config/highlite/config.yaml")
}
