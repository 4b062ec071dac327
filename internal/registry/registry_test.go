package registry

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/phpreflect/internal/builtin"
	"github.com/jward/phpreflect/internal/declaration"
	"github.com/jward/phpreflect/internal/errs"
	"github.com/jward/phpreflect/internal/expr"
	"github.com/jward/phpreflect/internal/id"
	"github.com/jward/phpreflect/internal/locator"
	"github.com/jward/phpreflect/internal/observability"
)

// project is an in-memory set of files with their declarations. It serves
// as parser and locator at once.
type project struct {
	files map[string][]declaration.Declaration
	parse map[string]int
}

func newProject() *project {
	return &project{files: map[string][]declaration.Declaration{}, parse: map[string]int{}}
}

func (p *project) add(path string, decls ...declaration.Declaration) {
	p.files[path] = append(p.files[path], decls...)
}

func (p *project) Parse(_ context.Context, res locator.Resource) ([]declaration.Declaration, error) {
	decls, ok := p.files[res.Path]
	if !ok {
		return nil, errors.New("no such file")
	}
	p.parse[res.Path]++
	return decls, nil
}

func (p *project) find(match func(declaration.Declaration) bool) (locator.Resource, bool, error) {
	for path, decls := range p.files {
		for _, d := range decls {
			if match(d) {
				return locator.Source(path, []byte{}), true, nil
			}
		}
	}
	return locator.Resource{}, false, nil
}

func (p *project) LocateClass(_ context.Context, name string) (locator.Resource, bool, error) {
	want := id.NamedClass{Name: name}.Encode()
	return p.find(func(d declaration.Declaration) bool { return d.SymbolID().Encode() == want })
}

func (p *project) LocateFunction(_ context.Context, name string) (locator.Resource, bool, error) {
	want := id.NamedFunction{Name: name}.Encode()
	return p.find(func(d declaration.Declaration) bool { return d.SymbolID().Encode() == want })
}

func (p *project) LocateConstant(_ context.Context, name string) (locator.Resource, bool, error) {
	want := id.Constant{Name: name}.Encode()
	return p.find(func(d declaration.Declaration) bool { return d.SymbolID().Encode() == want })
}

func (p *project) LocateFile(_ context.Context, path string) (locator.Resource, bool, error) {
	if _, ok := p.files[path]; !ok {
		return locator.Resource{}, false, nil
	}
	return locator.Source(path, []byte{}), true, nil
}

func newSession(t *testing.T, p *project, opts ...Option) *Session {
	t.Helper()
	opts = append([]Option{WithLocator(p), WithHost(builtin.New())}, opts...)
	return New(p, opts...)
}

func classDecl(path, name, parent string, consts ...declaration.ClassConstant) *declaration.Class {
	ctx := declaration.NewContext(declaration.FileSource(path), declaration.NameScope{}).
		EnterClass(declaration.KindClass, id.NamedClass{Name: name}, parent)
	for i := range consts {
		consts[i].Context = ctx
	}
	return &declaration.Class{Context: ctx, Kind: declaration.KindClass, Parent: parent, Constants: consts}
}

func anonymousDecl(path string, line, column int) *declaration.Class {
	anon := id.AnonymousClass{File: path, Line: line, Column: column}
	ctx := declaration.NewContext(declaration.FileSource(path), declaration.NameScope{}).
		EnterClass(declaration.KindClass, anon, "")
	return &declaration.Class{Context: ctx, Kind: declaration.KindClass}
}

func constDecl(path, name string, value expr.Expr) *declaration.Constant {
	ctx := declaration.NewContext(declaration.FileSource(path), declaration.NameScope{})
	return &declaration.Constant{Context: ctx, Name: name, Value: value}
}

func fetch(name string) expr.Expr { return expr.ConstantFetch{ID: id.Constant{Name: name}} }

func TestReflectClassIsMemoised(t *testing.T) {
	p := newProject()
	p.add("src/a.php", classDecl("src/a.php", `App\A`, ""), classDecl("src/a.php", `App\B`, `App\A`))
	s := newSession(t, p)
	ctx := context.Background()

	first, err := s.ReflectClass(ctx, `App\A`)
	require.NoError(t, err)
	second, err := s.ReflectClass(ctx, `\app\a`)
	require.NoError(t, err)
	assert.Same(t, first, second)

	b, err := s.ReflectClass(ctx, `App\B`)
	require.NoError(t, err)
	assert.Equal(t, "App\\A", b.ParentName())

	assert.Equal(t, 2.0, testutil.ToFloat64(s.Metrics().Resolutions.WithLabelValues(observability.KindClass)))
	assert.Equal(t, 1, p.parse["src/a.php"], "a file is parsed once per session")
}

func TestInheritanceCycle(t *testing.T) {
	p := newProject()
	p.add("a.php", classDecl("a.php", "A", "B"))
	p.add("b.php", classDecl("b.php", "B", "A"))
	s := newSession(t, p)

	_, err := s.ReflectClass(context.Background(), "A")
	require.Error(t, err)
	assert.True(t, errs.IsCode(err, errs.CodeCycle))
	assert.False(t, s.Classes().Resolved(id.NamedClass{Name: "A"}.Encode()))
	assert.False(t, s.Classes().Resolved(id.NamedClass{Name: "B"}.Encode()))

	_, err = s.ReflectClass(context.Background(), "A")
	assert.True(t, errs.IsCode(err, errs.CodeCycle), "failed resolutions are retried, not memoised")
}

func TestNotFoundAndHostFallback(t *testing.T) {
	p := newProject()
	p.add("e.php", classDecl("e.php", "MyException", "Exception"))
	s := newSession(t, p)
	ctx := context.Background()

	exc, err := s.ReflectClass(ctx, "MyException")
	require.NoError(t, err)
	assert.True(t, exc.IsInstanceOf("Throwable"))
	assert.False(t, exc.IsInternallyDefined())

	parent, err := s.ReflectClass(ctx, "exception")
	require.NoError(t, err)
	assert.True(t, parent.IsInternallyDefined())

	_, err = s.ReflectClass(ctx, "Missing")
	require.Error(t, err)
	assert.True(t, errs.IsCode(err, errs.CodeNotFound))
	assert.Contains(t, err.Error(), "class Missing")

	_, err = s.ReflectFunction(ctx, "nope")
	assert.True(t, errs.IsCode(err, errs.CodeNotFound))
}

func TestAnonymousClassesOnOneLine(t *testing.T) {
	p := newProject()
	p.add("anon.php", anonymousDecl("anon.php", 3, 20), anonymousDecl("anon.php", 3, 5), anonymousDecl("anon.php", 7, 9))
	s := newSession(t, p)
	ctx := context.Background()

	_, err := s.ReflectAnonymousClass(ctx, "anon.php", 3, 0)
	require.Error(t, err)
	var e *errs.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, errs.CodeAmbiguous, e.Code)
	assert.Equal(t, []int{5, 20}, e.Context[errs.CtxColumns])
	assert.True(t, strings.HasSuffix(err.Error(), "at columns 5, 20"))

	c, err := s.ReflectAnonymousClass(ctx, "anon.php", 3, 20)
	require.NoError(t, err)
	assert.True(t, c.IsAnonymous())

	only, err := s.ReflectAnonymousClass(ctx, "anon.php", 7, 0)
	require.NoError(t, err)
	assert.Equal(t, id.AnonymousClass{File: "anon.php", Line: 7, Column: 9}, only.ID())

	byName, err := s.ReflectClass(ctx, only.Name())
	require.NoError(t, err)
	assert.Same(t, only, byName)

	_, err = s.ReflectAnonymousClass(ctx, "anon.php", 4, 0)
	assert.True(t, errs.IsCode(err, errs.CodeNotFound))
}

func TestEvaluationContext(t *testing.T) {
	p := newProject()
	p.add("consts.php",
		constDecl("consts.php", "ONE", expr.Lit(expr.Int(1))),
		constDecl("consts.php", "TWO", expr.BinaryOp{Op: "+", Left: fetch("ONE"), Right: fetch("ONE")}),
		constDecl("consts.php", "LOOP_A", fetch("LOOP_B")),
		constDecl("consts.php", "LOOP_B", fetch("LOOP_A")),
		classDecl("consts.php", "Config", "", declaration.ClassConstant{
			Name:  "LIMIT",
			Value: expr.BinaryOp{Op: "*", Left: fetch("TWO"), Right: fetch("PHP_INT_SIZE")},
		}),
	)
	s := newSession(t, p)
	ectx := s.EvaluationContext(context.Background())

	v, err := ectx.Constant(id.Constant{Name: "TWO"})
	require.NoError(t, err)
	assert.Equal(t, expr.Int(2), v)

	v, err = ectx.ClassConstant(id.ClassConstant{Class: id.NamedClass{Name: "config"}, Name: "LIMIT"})
	require.NoError(t, err)
	assert.Equal(t, expr.Int(16), v)

	_, err = ectx.Constant(id.Constant{Name: "LOOP_A"})
	assert.True(t, errs.IsCode(err, errs.CodeCycle))

	_, err = ectx.ClassConstant(id.ClassConstant{Class: id.NamedClass{Name: "Config"}, Name: "MISSING"})
	assert.True(t, errs.IsCode(err, errs.CodeNotFound))
}

type mapCache struct {
	decls map[string]declaration.Declaration
	puts  int
}

func (c *mapCache) Get(_ context.Context, sym id.ID) (declaration.Declaration, bool, error) {
	d, ok := c.decls[sym.Encode()]
	return d, ok, nil
}

func (c *mapCache) Put(context.Context, string, []byte, []declaration.Declaration) error {
	c.puts++
	return nil
}

func TestCacheHitSkipsParsing(t *testing.T) {
	p := newProject()
	p.add("a.php", classDecl("a.php", "A", ""))
	cache := &mapCache{decls: map[string]declaration.Declaration{
		id.NamedClass{Name: "A"}.Encode(): classDecl("a.php", "A", ""),
	}}
	s := newSession(t, p, WithCache(cache))

	_, err := s.ReflectClass(context.Background(), "A")
	require.NoError(t, err)
	assert.Zero(t, p.parse["a.php"])
	assert.Equal(t, 1.0, testutil.ToFloat64(s.Metrics().CacheRequests.WithLabelValues(observability.CacheHit)))

	_, err = s.ReflectClass(context.Background(), "Exception")
	require.NoError(t, err)
	// Exception, then its ancestors Throwable and Stringable.
	assert.Equal(t, 3.0, testutil.ToFloat64(s.Metrics().CacheRequests.WithLabelValues(observability.CacheMiss)))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.Metrics().CacheRequests.WithLabelValues(observability.CacheHit)))
	assert.Zero(t, cache.puts, "in-memory sources are not cached")
}
