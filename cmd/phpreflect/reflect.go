package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jward/phpreflect"
	"github.com/jward/phpreflect/internal/errs"
	"github.com/jward/phpreflect/internal/view"
)

// reflectCommand wires the shared --evaluate flag and error envelope around
// a lookup that returns a view.
func (a *app) reflectCommand(cmd *cobra.Command, lookup func(ctx context.Context, r *phpreflect.Reflector, p view.Projector, args []string) (any, error)) *cobra.Command {
	var evaluate bool
	cmd.Flags().BoolVar(&evaluate, "evaluate", false, "evaluate constant expressions and defaults")
	cmd.RunE = func(c *cobra.Command, args []string) error {
		ctx := c.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		r, err := a.openReflector(ctx)
		if err != nil {
			return a.outputError(cmd.Name(), err)
		}
		defer r.Close()

		var p view.Projector
		if evaluate {
			p.Context = r.EvaluationContext(ctx)
		}
		result, err := lookup(ctx, r, p, args)
		if err != nil {
			return a.outputError(cmd.Name(), err)
		}
		return a.outputResult(CLIResult{Command: cmd.Name(), Results: result})
	}
	return cmd
}

func (a *app) classCmd() *cobra.Command {
	return a.reflectCommand(&cobra.Command{
		Use:   "class <name>",
		Short: "Reflect a class, interface, trait or enum",
		Args:  cobra.ExactArgs(1),
	}, func(ctx context.Context, r *phpreflect.Reflector, p view.Projector, args []string) (any, error) {
		c, err := r.ReflectClass(ctx, args[0])
		if err != nil {
			return nil, err
		}
		return p.Class(c), nil
	})
}

func (a *app) anonymousCmd() *cobra.Command {
	return a.reflectCommand(&cobra.Command{
		Use:   "anonymous <file> <line> [column]",
		Short: "Reflect an anonymous class by position",
		Long:  "Reflects the anonymous class declared at a 1-based line of a file. The column of the class keyword is only needed when the line declares several.",
		Args:  cobra.RangeArgs(2, 3),
	}, func(ctx context.Context, r *phpreflect.Reflector, p view.Projector, args []string) (any, error) {
		file, err := resolveFilePath(args[0])
		if err != nil {
			return nil, err
		}
		line, err := parseIntArg(args[1], "line")
		if err != nil {
			return nil, err
		}
		column := 0
		if len(args) == 3 {
			if column, err = parseIntArg(args[2], "column"); err != nil {
				return nil, err
			}
		}
		c, err := r.ReflectAnonymousClass(ctx, file, line, column)
		if err != nil {
			return nil, err
		}
		return p.Class(c), nil
	})
}

func (a *app) functionCmd() *cobra.Command {
	return a.reflectCommand(&cobra.Command{
		Use:   "function <name>",
		Short: "Reflect a function",
		Args:  cobra.ExactArgs(1),
	}, func(ctx context.Context, r *phpreflect.Reflector, p view.Projector, args []string) (any, error) {
		f, err := r.ReflectFunction(ctx, args[0])
		if err != nil {
			return nil, err
		}
		return p.Function(f), nil
	})
}

func (a *app) constantCmd() *cobra.Command {
	return a.reflectCommand(&cobra.Command{
		Use:   "constant <name>",
		Short: "Reflect a global constant, or a class constant as Class::NAME",
		Args:  cobra.ExactArgs(1),
	}, func(ctx context.Context, r *phpreflect.Reflector, p view.Projector, args []string) (any, error) {
		if class, name, ok := splitClassConstant(args[0]); ok {
			c, err := r.ReflectClass(ctx, class)
			if err != nil {
				return nil, err
			}
			k, found := c.Constants().Get(name)
			if !found {
				return nil, errs.Newf(errs.CodeNotFound, "class constant %s::%s not found", c.Name(), name)
			}
			return p.ClassConstant(k), nil
		}
		k, err := r.ReflectConstant(ctx, args[0])
		if err != nil {
			return nil, err
		}
		return p.Constant(k), nil
	})
}

func splitClassConstant(s string) (class, name string, ok bool) {
	class, name, ok = strings.Cut(s, "::")
	return class, name, ok && class != "" && name != ""
}
