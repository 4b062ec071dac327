package phpreflect

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/phpreflect/internal/expr"
)

func writePHP(t *testing.T, path, code string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(code), 0o644))
}

func newTestReflector(t *testing.T, opts ...Option) *Reflector {
	t.Helper()
	r, err := New(context.Background(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func newProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writePHP(t, filepath.Join(root, "src", "Model", "Base.php"), `<?php
namespace App\Model;

abstract class Base implements \Stringable
{
    public const TABLE = 'base';

    public function __toString(): string { return static::class; }
}
`)
	writePHP(t, filepath.Join(root, "src", "Model", "User.php"), `<?php
namespace App\Model;

final class User extends Base
{
    public const TABLE = 'users';
    public const LIMIT = self::PAGE * 2;
    private const PAGE = 25;

    public function name(): string { return ''; }
}
`)
	return root
}

func TestReflectClassFromDirectory(t *testing.T) {
	root := newProject(t)
	r := newTestReflector(t, WithPaths(filepath.Join(root, "src")))
	ctx := context.Background()

	c, err := r.ReflectClass(ctx, `App\Model\User`)
	require.NoError(t, err)
	assert.Equal(t, `App\Model\User`, c.Name())
	assert.Equal(t, `App\Model\Base`, c.ParentName())
	assert.True(t, c.IsInstanceOf("Stringable"))
	assert.Equal(t, filepath.Join(root, "src", "Model", "User.php"), c.File())
	assert.True(t, c.Methods().Has("__toString"))

	limit, ok := c.Constants().Get("LIMIT")
	require.True(t, ok)
	v, err := limit.Evaluate(r.EvaluationContext(ctx))
	require.NoError(t, err)
	assert.Equal(t, int64(50), expr.Interface(v))

	assert.Equal(t, float64(2), testutil.ToFloat64(r.Metrics().FilesParsed))
}

func TestReflectBuiltins(t *testing.T) {
	r := newTestReflector(t)
	ctx := context.Background()

	c, err := r.ReflectClass(ctx, "stringable")
	require.NoError(t, err)
	assert.True(t, c.IsInternallyDefined())
	assert.True(t, c.IsInterface())

	k, err := r.ReflectConstant(ctx, "PHP_EOL")
	require.NoError(t, err)
	assert.Equal(t, "Core", k.Extension())
}

func TestReflectFromCode(t *testing.T) {
	r := newTestReflector(t, WithCode("/mem/lib.php", []byte(`<?php
namespace Lib;

const GREETING = 'hello';

function greet(string $who = GREETING . ' world'): string { return $who; }

$a = new class {}; $b = new class {};
`)))
	ctx := context.Background()

	f, err := r.ReflectFunction(ctx, `Lib\greet`)
	require.NoError(t, err)
	p, ok := f.Parameters().Get("who")
	require.True(t, ok)
	v, err := p.EvaluateDefault(r.EvaluationContext(ctx))
	require.NoError(t, err)
	assert.Equal(t, "hello world", expr.Interface(v))

	k, err := r.ReflectConstant(ctx, `Lib\GREETING`)
	require.NoError(t, err)
	assert.Equal(t, "/mem/lib.php", k.File())

	columns, err := r.AnonymousColumns(ctx, "/mem/lib.php", 8)
	require.NoError(t, err)
	require.Len(t, columns, 2)

	_, err = r.ReflectAnonymousClass(ctx, "/mem/lib.php", 8, 0)
	require.Error(t, err)
	assert.True(t, IsAmbiguous(err))

	c, err := r.ReflectAnonymousClass(ctx, "/mem/lib.php", 8, columns[1])
	require.NoError(t, err)
	assert.True(t, c.IsAnonymous())
}

func TestErrors(t *testing.T) {
	r := newTestReflector(t, WithCode("/mem/cycle.php", []byte(`<?php
class A extends B {}
class B extends A {}
`)))
	ctx := context.Background()

	_, err := r.ReflectClass(ctx, "Nope")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.False(t, IsCycle(err))

	_, err = r.ReflectClass(ctx, "A")
	require.Error(t, err)
	assert.True(t, IsCycle(err))
}

func TestCacheSurvivesReflectors(t *testing.T) {
	root := newProject(t)
	dbPath := filepath.Join(t.TempDir(), "cache", "phpreflect.db")
	ctx := context.Background()

	first := newTestReflector(t, WithPaths(root), WithCachePath(dbPath))
	_, err := first.ReflectClass(ctx, `App\Model\User`)
	require.NoError(t, err)
	stats, err := first.CacheStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Files)
	require.NoError(t, first.Close())

	second := newTestReflector(t, WithPaths(root), WithCachePath(dbPath))
	c, err := second.ReflectClass(ctx, `App\Model\User`)
	require.NoError(t, err)
	assert.Equal(t, `App\Model\Base`, c.ParentName())
	assert.Equal(t, float64(0), testutil.ToFloat64(second.Metrics().FilesParsed))
}

func TestCacheStatsWithoutCache(t *testing.T) {
	r := newTestReflector(t)
	_, err := r.CacheStats(context.Background())
	require.Error(t, err)
}

func TestInvalidate(t *testing.T) {
	root := newProject(t)
	r := newTestReflector(t, WithPaths(root), WithCachePath(filepath.Join(t.TempDir(), "c.db")))
	ctx := context.Background()

	c, err := r.ReflectClass(ctx, `App\Model\User`)
	require.NoError(t, err)
	assert.True(t, c.Methods().Has("name"))

	user := filepath.Join(root, "src", "Model", "User.php")
	writePHP(t, user, `<?php
namespace App\Model;

final class User extends Base
{
    public function email(): string { return ''; }
}
`)
	added := filepath.Join(root, "src", "Model", "Admin.php")
	writePHP(t, added, "<?php\nnamespace App\\Model;\n\nclass Admin extends User {}\n")
	require.True(t, r.Covers(added))
	assert.False(t, r.Covers(filepath.Join(t.TempDir(), "Elsewhere.php")))

	require.NoError(t, r.Invalidate(ctx, user, added))

	c, err = r.ReflectClass(ctx, `App\Model\User`)
	require.NoError(t, err)
	assert.False(t, c.Methods().Has("name"))
	assert.True(t, c.Methods().Has("email"))

	admin, err := r.ReflectClass(ctx, `App\Model\Admin`)
	require.NoError(t, err)
	assert.True(t, admin.IsInstanceOf(`App\Model\Base`))

	require.NoError(t, os.Remove(added))
	require.NoError(t, r.Invalidate(ctx, added))
	_, err = r.ReflectClass(ctx, `App\Model\Admin`)
	assert.True(t, IsNotFound(err))
}

func TestWithSource(t *testing.T) {
	root := newProject(t)
	r := newTestReflector(t, WithPaths(root))
	ctx := context.Background()

	d, err := r.WithSource(ctx, "/mem/extra.php", []byte(`<?php
namespace App\Model;

class Guest extends Base {}
`))
	require.NoError(t, err)
	require.NoError(t, d.Close())

	c, err := d.ReflectClass(ctx, `App\Model\Guest`)
	require.NoError(t, err)
	assert.Equal(t, `App\Model\Base`, c.ParentName())

	_, err = r.ReflectClass(ctx, `App\Model\Guest`)
	assert.True(t, IsNotFound(err))
}

func TestWithFile(t *testing.T) {
	root := newProject(t)
	loose := filepath.Join(t.TempDir(), "loose.php")
	writePHP(t, loose, "<?php\nfunction loose_helper(): int { return 1; }\n")

	r := newTestReflector(t, WithPaths(root))
	ctx := context.Background()

	_, err := r.ReflectFunction(ctx, "loose_helper")
	assert.True(t, IsNotFound(err))

	d, err := r.WithFile(ctx, loose)
	require.NoError(t, err)
	f, err := d.ReflectFunction(ctx, "loose_helper")
	require.NoError(t, err)
	assert.Equal(t, loose, f.File())
}

func TestComposerAndPsr4(t *testing.T) {
	root := t.TempDir()
	writePHP(t, filepath.Join(root, "composer.json"), `{"autoload": {"psr-4": {"Acme\\": "lib/"}}}`)
	writePHP(t, filepath.Join(root, "lib", "Widget.php"), "<?php\nnamespace Acme;\n\nclass Widget {}\n")
	writePHP(t, filepath.Join(root, "extra", "Gadget.php"), "<?php\nnamespace Extra;\n\nclass Gadget {}\n")

	r := newTestReflector(t,
		WithComposer(root),
		WithPsr4(map[string][]string{`Extra\`: {filepath.Join(root, "extra")}}),
	)
	ctx := context.Background()

	_, err := r.ReflectClass(ctx, `Acme\Widget`)
	require.NoError(t, err)
	_, err = r.ReflectClass(ctx, `Extra\Gadget`)
	require.NoError(t, err)
}
