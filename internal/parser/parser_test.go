package parser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/phpreflect/internal/declaration"
	"github.com/jward/phpreflect/internal/expr"
	"github.com/jward/phpreflect/internal/id"
	"github.com/jward/phpreflect/internal/locator"
	"github.com/jward/phpreflect/internal/types"
)

func parse(t *testing.T, code string) []declaration.Declaration {
	t.Helper()
	decls, err := New().Parse(context.Background(), locator.Source("/src/test.php", []byte(code)))
	require.NoError(t, err)
	return decls
}

func findClass(t *testing.T, decls []declaration.Declaration, name string) *declaration.Class {
	t.Helper()
	for _, d := range decls {
		if c, ok := d.(*declaration.Class); ok && c.Name() == name {
			return c
		}
	}
	require.Failf(t, "class not found", "%s", name)
	return nil
}

// evaluate evaluates e without external constants.
func evaluate(t *testing.T, e expr.Expr) any {
	t.Helper()
	v, err := expr.Evaluate(e, nil)
	require.NoError(t, err)
	return expr.Interface(v)
}

func TestParseClass(t *testing.T) {
	decls := parse(t, `<?php
namespace App\Model;

use Lib\Base as BaseModel;
use Lib\Contracts\{HasName, HasId};

/**
 * @template T
 */
abstract class User extends BaseModel implements HasName, HasId
{
    public const LIMIT = 10 * 2;
    protected const PREFIX = 'user_' . self::class;

    public ?string $name = null;
    private static array $cache = [];
    public readonly int $id;

    public function __construct(private readonly Clock $clock, public int &$count = 0)
    {
    }

    abstract protected function label(string ...$parts): string;

    final public static function &all(): iterable
    {
        yield 1;
    }
}
`)
	c := findClass(t, decls, `App\Model\User`)
	assert.Equal(t, declaration.KindClass, c.Kind)
	assert.True(t, c.Abstract)
	assert.Equal(t, `Lib\Base`, c.Parent)
	assert.Equal(t, []string{`Lib\Contracts\HasName`, `Lib\Contracts\HasId`}, c.Interfaces)
	require.NotNil(t, c.PhpDoc)
	_, ok := c.Context.Template("T")
	assert.True(t, ok)

	require.Len(t, c.Constants, 2)
	assert.Equal(t, "LIMIT", c.Constants[0].Name)
	assert.Equal(t, declaration.Public, c.Constants[0].Visibility)
	assert.Equal(t, int64(20), evaluate(t, c.Constants[0].Value))
	assert.Equal(t, "user_App\\Model\\User", evaluate(t, c.Constants[1].Value))

	require.Len(t, c.Properties, 3)
	assert.Equal(t, "name", c.Properties[0].Name)
	assert.Equal(t, "?string", c.Properties[0].Type.String())
	assert.True(t, c.Properties[1].Static)
	assert.Equal(t, declaration.Private, c.Properties[1].Visibility)
	assert.True(t, c.Properties[2].Readonly)
	assert.Nil(t, c.Properties[2].Default)

	require.Len(t, c.Methods, 3)
	ctor := c.Methods[0]
	require.Len(t, ctor.Parameters, 2)
	assert.Equal(t, "clock", ctor.Parameters[0].Name)
	assert.True(t, ctor.Parameters[0].IsPromoted())
	assert.True(t, ctor.Parameters[0].Readonly)
	assert.Equal(t, declaration.Private, ctor.Parameters[0].Visibility)
	assert.Equal(t, `App\Model\Clock`, ctor.Parameters[0].Type.String())
	assert.Equal(t, declaration.ByReference, ctor.Parameters[1].PassedBy)
	assert.Equal(t, int64(0), evaluate(t, ctor.Parameters[1].Default))

	label := c.Methods[1]
	assert.True(t, label.Abstract)
	assert.Equal(t, declaration.Protected, label.Visibility)
	assert.True(t, label.Parameters[0].Variadic)
	assert.Equal(t, "parts", label.Parameters[0].Name)

	all := c.Methods[2]
	assert.True(t, all.Static)
	assert.True(t, all.Final)
	assert.True(t, all.ReturnsReference)
	assert.True(t, all.Generator)
	assert.Equal(t, types.Iterable, all.ReturnType)
}

func TestParseInterfaceTraitEnum(t *testing.T) {
	decls := parse(t, `<?php
interface Shape extends Countable, Stringable {}

trait Greets
{
    public function hello(): string { return __TRAIT__; }
    public function bye() {}
}

final class Greeter
{
    use Greets, Waves {
        Greets::hello insteadof Waves;
        Waves::hello as protected wave;
        bye as farewell;
    }
}

enum Suit: string implements JsonSerializable
{
    case Hearts = 'H';
    case Spades = 'S';

    const Wild = self::Spades;
}
`)
	shape := findClass(t, decls, "Shape")
	assert.Equal(t, declaration.KindInterface, shape.Kind)
	assert.Equal(t, []string{"Countable", "Stringable"}, shape.Interfaces)
	assert.Empty(t, shape.Parent)

	trait := findClass(t, decls, "Greets")
	assert.Equal(t, declaration.KindTrait, trait.Kind)
	require.NotNil(t, trait.Context.Trait)

	greeter := findClass(t, decls, "Greeter")
	assert.True(t, greeter.Final)
	assert.Equal(t, []string{"Greets", "Waves"}, greeter.Traits)
	assert.Equal(t, map[string]string{"hello": "Greets"}, greeter.TraitMethodPrecedence)
	assert.Equal(t, []declaration.TraitMethodAlias{
		{Trait: "Waves", Method: "hello", NewName: "wave", NewVisibility: declaration.Protected},
		{Method: "bye", NewName: "farewell"},
	}, greeter.TraitMethodAliases)

	suit := findClass(t, decls, "Suit")
	assert.Equal(t, declaration.KindEnum, suit.Kind)
	assert.Equal(t, types.String, suit.BackingType)
	assert.Equal(t, []string{"JsonSerializable"}, suit.Interfaces)
	require.Len(t, suit.Constants, 3)
	assert.True(t, suit.Constants[0].EnumCase)
	assert.Equal(t, "H", evaluate(t, suit.Constants[0].BackingValue))
	assert.False(t, suit.Constants[2].EnumCase)
	assert.Equal(t, expr.ClassConstantFetch{Class: expr.ClassName("Suit"), Name: expr.Lit(expr.String("Spades"))}, suit.Constants[2].Value)
}

func TestEnumConstantsKeepFollowingMembers(t *testing.T) {
	decls := parse(t, `<?php
namespace Cards;

enum Suit: string
{
    case Hearts = 'H';

    /** Matches any suit. */
    public const Wild = self::Hearts;
    const LABEL = 'suit', SHORT = 's';

    case Spades = 'S';

    public function label(): object
    {
        return new class {};
    }

    public static function wild(): self { return self::Wild; }
}

function after(): void {}
`)
	for _, d := range decls {
		_, global := d.(*declaration.Constant)
		assert.False(t, global, "enum constant registered as a global constant")
	}

	suit := findClass(t, decls, `Cards\Suit`)
	var names []string
	for _, k := range suit.Constants {
		names = append(names, k.Name)
	}
	assert.Equal(t, []string{"Hearts", "Wild", "LABEL", "SHORT", "Spades"}, names)
	assert.True(t, suit.Constants[4].EnumCase)
	assert.Equal(t, "S", evaluate(t, suit.Constants[4].BackingValue))

	wild := suit.Constants[1]
	assert.False(t, wild.EnumCase)
	assert.Equal(t, declaration.Public, wild.Visibility)
	assert.Equal(t, 9, wild.Snippet.StartLine)
	require.NotNil(t, wild.PhpDoc)
	assert.Contains(t, wild.PhpDoc.Text, "Matches any suit.")
	assert.Equal(t, "suit", evaluate(t, suit.Constants[2].Value))

	require.Len(t, suit.Methods, 2)
	label, ok := suit.Method("label")
	require.True(t, ok)
	assert.Equal(t, 14, label.Snippet.StartLine)
	_, ok = suit.Method("wild")
	assert.True(t, ok)

	var anon *declaration.Class
	var after *declaration.Function
	for _, d := range decls {
		switch d := d.(type) {
		case *declaration.Class:
			if _, ok := d.ID().(id.AnonymousClass); ok {
				anon = d
			}
		case *declaration.Function:
			after = d
		}
	}
	require.NotNil(t, anon)
	assert.Equal(t, id.AnonymousClass{File: "/src/test.php", Line: 16, Column: 20}, anon.ID())
	require.NotNil(t, after)
	assert.Equal(t, id.NamedFunction{Name: `Cards\after`}, after.Context.ID)
}

func TestParseAfterCancelledContexts(t *testing.T) {
	p := New()
	res := locator.Source("/src/test.php", []byte(`<?php class A {}`))
	for i := 0; i < 50; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		_, err := p.Parse(ctx, res)
		cancel()
		require.NoError(t, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Parse(ctx, res)
	assert.ErrorIs(t, err, context.Canceled)

	decls, err := p.Parse(context.Background(), res)
	require.NoError(t, err)
	assert.Len(t, decls, 1)
}

func TestParseFunctionsAndConstants(t *testing.T) {
	decls := parse(t, `<?php
namespace App;

use function Lib\helper;
use const Lib\VERSION;

const ONE = 1, TWO = ONE + 1;
define('App\LEGACY', VERSION);
define('DYNAMIC', time());

/**
 * @template T
 * @param T $value
 */
function wrap(int|string $value, ?array $opts = null, $flag = \PHP_INT_MAX): \Generator
{
    $f = function () { yield 1; };
    return helper($value);
}
`)
	byName := map[string]declaration.Declaration{}
	for _, d := range decls {
		byName[d.SymbolID().Encode()] = d
	}

	one := byName["const:App\\ONE"].(*declaration.Constant)
	assert.Equal(t, int64(1), evaluate(t, one.Value))
	two := byName["const:App\\TWO"].(*declaration.Constant)
	assert.Equal(t, expr.BinaryOp{
		Op:    "+",
		Left:  expr.ConstantFetch{ID: id.Constant{Name: `App\ONE`}, Fallback: &id.Constant{Name: "ONE"}},
		Right: expr.Lit(expr.Int(1)),
	}, two.Value)

	legacy := byName["const:App\\LEGACY"].(*declaration.Constant)
	assert.True(t, legacy.Defined)
	assert.Equal(t, expr.ConstantFetch{ID: id.Constant{Name: `Lib\VERSION`}}, legacy.Value)
	assert.NotContains(t, byName, "const:DYNAMIC")

	fn := byName["func:app\\wrap"].(*declaration.Function)
	assert.False(t, fn.Generator)
	require.Len(t, fn.Parameters, 3)
	assert.Equal(t, "int|string", fn.Parameters[0].Type.String())
	assert.Equal(t, "?array", fn.Parameters[1].Type.String())
	assert.Nil(t, fn.Parameters[2].Type)
	assert.Equal(t, expr.ConstantFetch{ID: id.Constant{Name: "PHP_INT_MAX"}}, fn.Parameters[2].Default)
	assert.Equal(t, "Generator", fn.ReturnType.String())
	_, ok := fn.Context.Template("T")
	assert.True(t, ok)
}

func TestAnonymousClassColumns(t *testing.T) {
	decls := parse(t, `<?php new class {}; new class extends Base {};`)
	var anons []id.AnonymousClass
	for _, d := range decls {
		if c, ok := d.(*declaration.Class); ok {
			if a, ok := c.ID().(id.AnonymousClass); ok {
				anons = append(anons, a)
			}
		}
	}
	require.Len(t, anons, 2)
	assert.Equal(t, id.AnonymousClass{File: "/src/test.php", Line: 1, Column: 11}, anons[0])
	assert.Equal(t, id.AnonymousClass{File: "/src/test.php", Line: 1, Column: 25}, anons[1])
	assert.Equal(t, "Base", decls[1].(*declaration.Class).Parent)
}

func TestAnonymousClassInMethodBody(t *testing.T) {
	decls := parse(t, `<?php
class Factory
{
    public function make(): object
    {
        return new class {
            public int $x = __LINE__;
        };
    }
}
`)
	require.Len(t, decls, 2)
	anon := decls[1].(*declaration.Class)
	assert.Equal(t, 6, anon.ID().(id.AnonymousClass).Line)
	require.Len(t, anon.Properties, 1)
	assert.Equal(t, int64(7), evaluate(t, anon.Properties[0].Default))
}

func TestAttributes(t *testing.T) {
	decls := parse(t, `<?php
namespace App;

use Lib\Route;

#[Route('/users', methods: ['GET'])]
#[\Deprecated]
class Controller
{
    #[Route(name: 'list')]
    public function list() {}
}
`)
	c := findClass(t, decls, `App\Controller`)
	require.Len(t, c.Attributes, 2)
	assert.Equal(t, `Lib\Route`, c.Attributes[0].Class)
	assert.Equal(t, "Deprecated", c.Attributes[1].Class)

	args := evaluate(t, c.Attributes[0].Arguments).(map[string]any)
	assert.Equal(t, "/users", args["0"])
	assert.Equal(t, []any{"GET"}, args["methods"])

	require.Len(t, c.Methods[0].Attributes, 1)
}

func TestStringLiterals(t *testing.T) {
	decls := parse(t, `<?php
const A = 'it\'s';
const B = "tab\there\x41\u{1F600}";
const C = <<<EOT
    line one
      line two
    EOT;
const D = <<<'EOT'
    raw $x
    EOT;
const E = 0x1F + 0b11 + 017 + 1_000;
const F = ['a' => 1, ...[2, 3]][0] ?? 'none';
`)
	values := map[string]any{}
	for _, d := range decls {
		c := d.(*declaration.Constant)
		values[c.Name] = evaluate(t, c.Value)
	}
	assert.Equal(t, "it's", values["A"])
	assert.Equal(t, "tab\thereA\U0001F600", values["B"])
	assert.Equal(t, "line one\n  line two", values["C"])
	assert.Equal(t, "raw $x", values["D"])
	assert.Equal(t, int64(31+3+15+1000), values["E"])
	assert.Equal(t, int64(2), values["F"])
}

func TestUnsupportedExpression(t *testing.T) {
	_, err := New().Parse(context.Background(), locator.Source("x.php", []byte(`<?php
class A { const B = "interpolated {$x}"; }
`)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported")
}

func TestNames(t *testing.T) {
	names, err := New().Names(context.Background(), locator.Source("x.php", []byte(`<?php
namespace N;
class A {}
function f() {}
const C = 1;
new class {};
`)))
	require.NoError(t, err)
	assert.Equal(t, []string{`N\A`}, names.Classes)
	assert.Equal(t, []string{`N\f`}, names.Functions)
	assert.Equal(t, []string{`N\C`}, names.Constants)
}
