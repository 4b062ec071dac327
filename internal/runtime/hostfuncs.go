package runtime

import (
	"context"
	"log/slog"

	"github.com/risor-io/risor/object"

	"github.com/jward/phpreflect/internal/expr"
	"github.com/jward/phpreflect/internal/view"
)

// makeReflectClassFn creates the "reflect_class" host function.
//
// reflect_class(name) → map
func makeReflectClassFn(r Reflector) *object.Builtin {
	return object.NewBuiltin("reflect_class", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("reflect_class", 1, len(args))
		}
		name, err := toString(args[0])
		if err != nil {
			return object.Errorf("reflect_class: %v", err)
		}
		c, err := r.ReflectClass(ctx, name)
		if err != nil {
			return object.Errorf("reflect_class: %v", err)
		}
		return viewObject("reflect_class", projector(ctx, r).Class(c))
	})
}

// makeReflectAnonymousClassFn creates the "reflect_anonymous_class" host
// function. column may be 0 when the line holds a single anonymous class.
//
// reflect_anonymous_class(file, line, column) → map
func makeReflectAnonymousClassFn(r Reflector) *object.Builtin {
	return object.NewBuiltin("reflect_anonymous_class", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) < 2 || len(args) > 3 {
			return object.NewArgsRangeError("reflect_anonymous_class", 2, 3, len(args))
		}
		file, err := toString(args[0])
		if err != nil {
			return object.Errorf("reflect_anonymous_class: file: %v", err)
		}
		line, err := toInt64(args[1])
		if err != nil {
			return object.Errorf("reflect_anonymous_class: line: %v", err)
		}
		var column int64
		if len(args) == 3 {
			if column, err = toInt64(args[2]); err != nil {
				return object.Errorf("reflect_anonymous_class: column: %v", err)
			}
		}
		c, err := r.ReflectAnonymousClass(ctx, file, int(line), int(column))
		if err != nil {
			return object.Errorf("reflect_anonymous_class: %v", err)
		}
		return viewObject("reflect_anonymous_class", projector(ctx, r).Class(c))
	})
}

// makeReflectFunctionFn creates the "reflect_function" host function.
//
// reflect_function(name) → map
func makeReflectFunctionFn(r Reflector) *object.Builtin {
	return object.NewBuiltin("reflect_function", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("reflect_function", 1, len(args))
		}
		name, err := toString(args[0])
		if err != nil {
			return object.Errorf("reflect_function: %v", err)
		}
		f, err := r.ReflectFunction(ctx, name)
		if err != nil {
			return object.Errorf("reflect_function: %v", err)
		}
		return viewObject("reflect_function", projector(ctx, r).Function(f))
	})
}

// makeReflectConstantFn creates the "reflect_constant" host function.
//
// reflect_constant(name) → map
func makeReflectConstantFn(r Reflector) *object.Builtin {
	return object.NewBuiltin("reflect_constant", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("reflect_constant", 1, len(args))
		}
		name, err := toString(args[0])
		if err != nil {
			return object.Errorf("reflect_constant: %v", err)
		}
		c, err := r.ReflectConstant(ctx, name)
		if err != nil {
			return object.Errorf("reflect_constant: %v", err)
		}
		return viewObject("reflect_constant", projector(ctx, r).Constant(c))
	})
}

// makeEvaluateConstantFn creates the "evaluate_constant" host function.
//
// evaluate_constant(name) → value
func makeEvaluateConstantFn(r Reflector) *object.Builtin {
	return object.NewBuiltin("evaluate_constant", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("evaluate_constant", 1, len(args))
		}
		name, err := toString(args[0])
		if err != nil {
			return object.Errorf("evaluate_constant: %v", err)
		}
		c, err := r.ReflectConstant(ctx, name)
		if err != nil {
			return object.Errorf("evaluate_constant: %v", err)
		}
		v, err := c.Evaluate(r.EvaluationContext(ctx))
		if err != nil {
			return object.Errorf("evaluate_constant: %v", err)
		}
		return toObject(expr.Interface(v))
	})
}

// makeEvaluateClassConstantFn creates the "evaluate_class_constant" host
// function. It also evaluates enum cases, which yield a map with the class
// and case name.
//
// evaluate_class_constant(class, name) → value
func makeEvaluateClassConstantFn(r Reflector) *object.Builtin {
	return object.NewBuiltin("evaluate_class_constant", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("evaluate_class_constant", 2, len(args))
		}
		className, err := toString(args[0])
		if err != nil {
			return object.Errorf("evaluate_class_constant: class: %v", err)
		}
		name, err := toString(args[1])
		if err != nil {
			return object.Errorf("evaluate_class_constant: name: %v", err)
		}
		c, err := r.ReflectClass(ctx, className)
		if err != nil {
			return object.Errorf("evaluate_class_constant: %v", err)
		}
		k, ok := c.Constants().Get(name)
		if !ok {
			return object.Errorf("evaluate_class_constant: %s::%s is not defined", c.Name(), name)
		}
		v, err := k.Evaluate(r.EvaluationContext(ctx))
		if err != nil {
			return object.Errorf("evaluate_class_constant: %v", err)
		}
		return toObject(expr.Interface(v))
	})
}

func projector(ctx context.Context, r Reflector) view.Projector {
	return view.Projector{Context: r.EvaluationContext(ctx)}
}

// logObject provides log.Info/Warn/Error methods for Risor scripts.
type logObject struct {
	logger *slog.Logger
}

func (l *logObject) Info(msg string) {
	l.logger.Info(msg, "source", "script")
}

func (l *logObject) Warn(msg string) {
	l.logger.Warn(msg, "source", "script")
}

func (l *logObject) Error(msg string) {
	l.logger.Error(msg, "source", "script")
}
