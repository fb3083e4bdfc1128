package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/opal-lang/mathcore/runtime/config"
	"github.com/opal-lang/mathcore/runtime/session"
)

// resolveConfig loads the config file, if any, and applies flag overrides.
func resolveConfig(cmd *cobra.Command, opts options) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("tokens") {
		cfg.Tokens = opts.tokens
	}
	if flags.Changed("spaces") {
		cfg.MaxSpaces = opts.spaces
	}
	if flags.Changed("debug") {
		cfg.Debug = opts.debug
	}
	if opts.noColor {
		cfg.Color = config.ColorNever
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func useColor(mode string, noColor bool) bool {
	switch mode {
	case config.ColorAlways:
		return !noColor
	case config.ColorNever:
		return false
	}
	return session.ShouldUseColor(noColor)
}

type runner struct {
	cfg            *config.Config
	color          bool
	stdin          io.Reader
	stdout, stderr io.Writer
	logger         *slog.Logger
}

// run executes a script file, or standard input when script is "" or "-".
func (r runner) run(ctx context.Context, script string) error {
	in, echo, closeFunc, err := r.input(script)
	if err != nil {
		return err
	}
	defer func() { _ = closeFunc() }()

	s, err := session.New(session.Config{
		Tokens:     r.cfg.Tokens,
		MaxSpaces:  r.cfg.MaxSpaces,
		AllocLimit: r.cfg.AllocLimit,
		Partitions: r.cfg.Partitions,
		Out:        r.stdout,
		Err:        r.stderr,
		Echo:       echo,
		Color:      r.color,
		Logger:     r.logger,
	})
	if err != nil {
		return err
	}
	failed, err := s.Run(ctx, in)
	if err != nil {
		return err
	}
	if failed > 0 && echo != session.EchoPrompt {
		return fmt.Errorf("%d line(s) failed", failed)
	}
	return nil
}

// input picks the line source:
// 1. a script file, echoed so prompts and answers read as a transcript
// 2. standard input from a terminal, with a prompt per line
// 3. piped standard input, silently
func (r runner) input(script string) (io.Reader, session.Echo, func() error, error) {
	if script != "" && script != "-" {
		f, err := os.Open(script)
		if err != nil {
			return nil, session.EchoNone, nil, fmt.Errorf("error opening script %s: %w", script, err)
		}
		return f, session.EchoLine, f.Close, nil
	}
	noop := func() error { return nil }
	if isTerminal(r.stdin) {
		return r.stdin, session.EchoPrompt, noop, nil
	}
	return r.stdin, session.EchoNone, noop, nil
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// watch runs script, then runs it again in a fresh session each time it is
// written, until ctx is cancelled or an interrupt arrives. The directory is
// watched so editors that replace the file on save are still seen.
func (r runner) watch(ctx context.Context, script string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	path, err := filepath.Abs(script)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("cannot start watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("cannot watch %s: %w", script, err)
	}

	r.rerun(ctx, path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Name != path || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			r.logger.Debug("script changed", "path", path, "op", ev.Op.String())
			r.rerun(ctx, path)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			session.FormatError(r.stderr, err, r.color)
		}
	}
}

// rerun runs the script once and reports failures without stopping the watch.
func (r runner) rerun(ctx context.Context, path string) {
	_, _ = fmt.Fprintln(r.stdout, session.Colorize("== "+path, session.ColorGreen, r.color))
	if err := r.run(ctx, path); err != nil {
		session.FormatError(r.stderr, err, r.color)
	}
}
