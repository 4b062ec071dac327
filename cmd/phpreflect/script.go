package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jward/phpreflect/internal/runtime"
	"github.com/jward/phpreflect/scripts"
)

func (a *app) scriptCmd() *cobra.Command {
	var vars map[string]string
	cmd := &cobra.Command{
		Use:   "script <file|name>",
		Short: "Run a Risor script against the reflected code",
		Long: "Runs a Risor script with reflect_class, reflect_function, reflect_constant and the evaluate_* helpers in scope. " +
			"A path runs a script from disk, importing siblings from its directory; a bare name runs a bundled script (summary, enum_cases, deprecations).",
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			r, err := a.openReflector(ctx)
			if err != nil {
				return err
			}
			defer r.Close()

			globals := make(map[string]any, len(vars))
			for k, v := range vars {
				globals[k] = v
			}

			rt, path, err := a.scriptRuntime(r, args[0])
			if err != nil {
				return err
			}
			return rt.RunScript(ctx, path, globals)
		},
	}
	cmd.Flags().StringToStringVar(&vars, "var", nil, "global passed to the script as name=value (repeatable)")
	return cmd
}

// scriptRuntime picks the script source: a file on disk, else a bundled
// script by name.
func (a *app) scriptRuntime(r runtime.Reflector, arg string) (*runtime.Runtime, string, error) {
	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		abs, err := resolveFilePath(arg)
		if err != nil {
			return nil, "", err
		}
		return runtime.NewRuntime(r, filepath.Dir(abs), runtime.WithRuntimeLogger(a.logger)), abs, nil
	}

	name := strings.TrimSuffix(arg, ".risor") + ".risor"
	if _, err := fs.Stat(scripts.FS, name); err != nil {
		return nil, "", fmt.Errorf("script %q is neither a file nor a bundled script", arg)
	}
	return runtime.NewRuntime(r, "", runtime.WithRuntimeFS(scripts.FS), runtime.WithRuntimeLogger(a.logger)), name, nil
}
