package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jward/phpreflect"
	"github.com/jward/phpreflect/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := newApp(os.Stdout, os.Stderr)
	if err := app.root.ExecuteContext(ctx); err != nil {
		if !app.errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		stop()
		os.Exit(1)
	}
}

// app holds the command tree and the values of its global flags.
type app struct {
	root   *cobra.Command
	out    io.Writer
	errOut io.Writer

	configPath string
	format     string
	cache      string
	logLevel   string
	paths      []string

	cfg    *config.Config
	logger *slog.Logger

	// errorHandled is set by outputError so main() doesn't double-print.
	errorHandled bool
}

func newApp(out, errOut io.Writer) *app {
	a := &app{out: out, errOut: errOut}
	a.root = &cobra.Command{
		Use:           "phpreflect",
		Short:         "Static reflection for PHP code",
		Long:          "phpreflect parses PHP sources and reports classes, functions and constants with inheritance resolved and constant expressions evaluated, without running the code.",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(a.format); err != nil {
				return err
			}
			return a.loadConfig()
		},
	}
	a.root.SetOut(out)
	a.root.SetErr(errOut)

	flags := a.root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default: ./"+config.DefaultFile+" when present)")
	flags.StringVar(&a.format, "format", "json", "output format: "+strings.Join(validFormats, "|"))
	flags.StringVar(&a.cache, "cache", "", "declaration cache database; enables caching")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug|info|warn|error")
	flags.StringSliceVar(&a.paths, "path", nil, "directories to scan (repeatable)")

	a.root.AddCommand(
		a.classCmd(),
		a.anonymousCmd(),
		a.functionCmd(),
		a.constantCmd(),
		a.scriptCmd(),
		a.watchCmd(),
	)
	return a
}

// loadConfig reads the config file and applies flag overrides.
func (a *app) loadConfig() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if len(a.paths) > 0 {
		cfg.Source.Paths = a.paths
	}
	if a.cache != "" {
		cfg.Cache.Enabled = true
		cfg.Cache.Path = a.cache
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	a.cfg = cfg

	logger, err := newLogger(a.errOut, cfg.Log)
	if err != nil {
		return err
	}
	a.logger = logger
	return nil
}

func newLogger(w io.Writer, l config.Log) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", l.Level, err)
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(l.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// reflectorOptions turns the loaded configuration into Reflector options.
func (a *app) reflectorOptions() []phpreflect.Option {
	src := a.cfg.Source
	opts := []phpreflect.Option{
		phpreflect.WithLogger(a.logger),
		phpreflect.WithInclude(src.Include...),
		phpreflect.WithExclude(src.Exclude...),
	}
	if src.Composer != "" {
		opts = append(opts, phpreflect.WithComposer(src.Composer))
	}
	if len(src.Psr4) > 0 {
		opts = append(opts, phpreflect.WithPsr4(src.Psr4))
	}
	if len(src.Paths) > 0 {
		opts = append(opts, phpreflect.WithPaths(absPaths(src.Paths)...))
	}
	if a.cfg.Cache.Enabled {
		opts = append(opts, phpreflect.WithCachePath(a.cfg.Cache.Path))
	}
	return opts
}

func (a *app) openReflector(ctx context.Context) (*phpreflect.Reflector, error) {
	r, err := phpreflect.New(ctx, a.reflectorOptions()...)
	if err != nil {
		return nil, fmt.Errorf("creating reflector: %w", err)
	}
	return r, nil
}

func absPaths(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		out = append(out, p)
	}
	return out
}

// resolveFilePath converts a file argument to an absolute path.
func resolveFilePath(file string) (string, error) {
	if filepath.IsAbs(file) {
		return file, nil
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		return "", fmt.Errorf("resolving file path %q: %w", file, err)
	}
	return abs, nil
}

// parseIntArg parses a positional argument as an integer with a clear error.
func parseIntArg(value, name string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: must be a non-negative integer", name, value)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid %s %q: must be non-negative", name, value)
	}
	return n, nil
}
