package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jward/phpreflect"
	"github.com/jward/phpreflect/internal/view"
	"github.com/jward/phpreflect/internal/watch"
)

func (a *app) watchCmd() *cobra.Command {
	var classes []string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Invalidate cached declarations as PHP files change",
		Long: "Watches the scanned directories and drops cached declarations of every changed file. " +
			"With --class, the named classes are reflected again after each change.",
		Args: cobra.NoArgs,
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

			roots := r.Roots()
			if len(roots) == 0 {
				return fmt.Errorf("nothing to watch: configure source paths or a composer project")
			}

			w, err := watch.New(a.cfg.Watch.Debounce, func(paths []string) {
				a.handleChanges(ctx, r, paths, classes)
			}, watch.WithFilter(r.Covers), watch.WithExcludeDirs(".git"), watch.WithLogger(a.logger))
			if err != nil {
				return err
			}
			defer w.Close()
			if err := w.Watch(roots); err != nil {
				return err
			}
			a.logger.Info("watching", "roots", roots)

			<-ctx.Done()
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&classes, "class", nil, "class to reflect again after each change (repeatable)")
	return cmd
}

func (a *app) handleChanges(ctx context.Context, r *phpreflect.Reflector, paths, classes []string) {
	if err := r.Invalidate(ctx, paths...); err != nil {
		a.logger.Error("invalidation failed", "error", err)
		return
	}
	_ = a.outputResult(CLIResult{Command: "watch", Results: CLIInvalidation{Paths: paths}})

	p := view.Projector{Context: r.EvaluationContext(ctx)}
	for _, name := range classes {
		c, err := r.ReflectClass(ctx, name)
		if err != nil {
			_ = a.outputResult(CLIResult{Command: "class", Error: err.Error()})
			continue
		}
		_ = a.outputResult(CLIResult{Command: "class", Results: p.Class(c)})
	}
}
