package builtin

import (
	"math"

	"github.com/jward/phpreflect/internal/declaration"
	"github.com/jward/phpreflect/internal/expr"
	"github.com/jward/phpreflect/internal/id"
	"github.com/jward/phpreflect/internal/types"
)

const (
	standardExtension = "standard"
	jsonExtension     = "json"
)

type constantDef struct {
	name      string
	value     expr.Value
	extension string
}

var constantDefs = []constantDef{
	{"PHP_EOL", expr.String("\n"), declaration.CoreExtension},
	{"PHP_INT_MAX", expr.Int(math.MaxInt64), declaration.CoreExtension},
	{"PHP_INT_MIN", expr.Int(math.MinInt64), declaration.CoreExtension},
	{"PHP_INT_SIZE", expr.Int(8), declaration.CoreExtension},
	{"PHP_FLOAT_EPSILON", expr.Float(2.220446049250313e-16), declaration.CoreExtension},
	{"PHP_FLOAT_MAX", expr.Float(math.MaxFloat64), declaration.CoreExtension},
	{"PHP_FLOAT_MIN", expr.Float(2.2250738585072014e-308), declaration.CoreExtension},
	{"PHP_FLOAT_DIG", expr.Int(15), declaration.CoreExtension},
	{"PHP_VERSION", expr.String("8.3.0"), declaration.CoreExtension},
	{"PHP_MAJOR_VERSION", expr.Int(8), declaration.CoreExtension},
	{"PHP_MINOR_VERSION", expr.Int(3), declaration.CoreExtension},
	{"PHP_RELEASE_VERSION", expr.Int(0), declaration.CoreExtension},
	{"PHP_VERSION_ID", expr.Int(80300), declaration.CoreExtension},
	{"PHP_OS", expr.String("Linux"), declaration.CoreExtension},
	{"PHP_OS_FAMILY", expr.String("Linux"), declaration.CoreExtension},
	{"DIRECTORY_SEPARATOR", expr.String("/"), declaration.CoreExtension},
	{"PATH_SEPARATOR", expr.String(":"), declaration.CoreExtension},
	{"E_ERROR", expr.Int(1), declaration.CoreExtension},
	{"E_WARNING", expr.Int(2), declaration.CoreExtension},
	{"E_PARSE", expr.Int(4), declaration.CoreExtension},
	{"E_NOTICE", expr.Int(8), declaration.CoreExtension},
	{"E_USER_ERROR", expr.Int(256), declaration.CoreExtension},
	{"E_USER_WARNING", expr.Int(512), declaration.CoreExtension},
	{"E_USER_NOTICE", expr.Int(1024), declaration.CoreExtension},
	{"E_STRICT", expr.Int(2048), declaration.CoreExtension},
	{"E_DEPRECATED", expr.Int(8192), declaration.CoreExtension},
	{"E_USER_DEPRECATED", expr.Int(16384), declaration.CoreExtension},
	{"E_ALL", expr.Int(32767), declaration.CoreExtension},
	{"M_PI", expr.Float(math.Pi), standardExtension},
	{"M_E", expr.Float(math.E), standardExtension},
	{"M_SQRT2", expr.Float(math.Sqrt2), standardExtension},
	{"NAN", expr.Float(math.NaN()), standardExtension},
	{"INF", expr.Float(math.Inf(1)), standardExtension},
	{"COUNT_NORMAL", expr.Int(0), standardExtension},
	{"COUNT_RECURSIVE", expr.Int(1), standardExtension},
	{"SORT_REGULAR", expr.Int(0), standardExtension},
	{"SORT_NUMERIC", expr.Int(1), standardExtension},
	{"SORT_STRING", expr.Int(2), standardExtension},
	{"SORT_FLAG_CASE", expr.Int(8), standardExtension},
	{"PHP_ROUND_HALF_UP", expr.Int(1), standardExtension},
	{"PHP_ROUND_HALF_DOWN", expr.Int(2), standardExtension},
	{"ENT_QUOTES", expr.Int(3), standardExtension},
	{"JSON_HEX_TAG", expr.Int(1), jsonExtension},
	{"JSON_UNESCAPED_SLASHES", expr.Int(64), jsonExtension},
	{"JSON_PRETTY_PRINT", expr.Int(128), jsonExtension},
	{"JSON_UNESCAPED_UNICODE", expr.Int(256), jsonExtension},
	{"JSON_PRESERVE_ZERO_FRACTION", expr.Int(1024), jsonExtension},
	{"JSON_THROW_ON_ERROR", expr.Int(4194304), jsonExtension},
}

func coreConstants() []*declaration.Constant {
	out := make([]*declaration.Constant, len(constantDefs))
	for i, d := range constantDefs {
		ctx := declaration.NewContext(declaration.ExtensionSource(d.extension), declaration.NameScope{})
		out[i] = &declaration.Constant{Context: ctx, Name: d.name, Value: expr.Lit(d.value)}
	}
	return out
}

func function(extension, name string, ret types.Type, params ...param) *declaration.Function {
	ctx := declaration.NewContext(declaration.ExtensionSource(extension), declaration.NameScope{}).EnterFunction(name)
	f := &declaration.Function{Context: ctx, ReturnType: ret}
	for _, p := range params {
		f.Parameters = append(f.Parameters, p.declare(ctx))
	}
	return f
}

func coreFunctions() []*declaration.Function {
	countMode := expr.ConstantFetch{ID: id.Constant{Name: "COUNT_NORMAL"}}
	return []*declaration.Function{
		function(declaration.CoreExtension, "strlen", types.Int, arg("string", types.String)),
		function(declaration.CoreExtension, "define", types.Bool,
			arg("constant_name", types.String), arg("value", types.Mixed), opt("case_insensitive", types.Bool, expr.Bool(false))),
		function(declaration.CoreExtension, "defined", types.Bool, arg("constant_name", types.String)),
		function(standardExtension, "constant", types.Mixed, arg("name", types.String)),
		function(standardExtension, "count", types.Int,
			arg("value", types.NewUnion(named("Countable"), types.Array)),
			param{name: "mode", typ: types.Int, def: countMode}),
		function(standardExtension, "in_array", types.Bool,
			arg("needle", types.Mixed), arg("haystack", types.Array), opt("strict", types.Bool, expr.Bool(false))),
		function(standardExtension, "array_keys", types.Array, arg("array", types.Array)),
		function(standardExtension, "sprintf", types.String, arg("format", types.String),
			param{name: "values", typ: types.Mixed, variadic: true}),
		function(jsonExtension, "json_encode", types.NewUnion(types.String, types.False),
			arg("value", types.Mixed), opt("flags", types.Int, expr.Int(0)), opt("depth", types.Int, expr.Int(512))),
	}
}
