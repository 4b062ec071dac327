package scripts_test

import (
	"context"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/phpreflect"
	"github.com/jward/phpreflect/internal/runtime"
	"github.com/jward/phpreflect/scripts"
)

const fixture = `<?php
namespace Shop;

enum Status: string
{
    case Open = 'open';
    case Closed = 'closed';
}

interface HasTotal
{
    public function total(): float;
}

abstract class Document
{
    /** @deprecated use number() */
    public string $ref = '';

    abstract public function number(): string;
}

final class Invoice extends Document implements HasTotal
{
    public const PREFIX = 'INV';

    public function __construct(protected Status $status = Status::Open) {}

    public function number(): string { return ''; }
    public function total(): float { return 0.0; }

    /** @deprecated */
    public function legacy(): void {}
}
`

func newRuntime(t *testing.T) *runtime.Runtime {
	t.Helper()
	r, err := phpreflect.New(context.Background(), phpreflect.WithCode("/shop/shop.php", []byte(fixture)))
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return runtime.NewRuntime(r, "", runtime.WithRuntimeFS(scripts.FS))
}

func TestBundledScriptsAreEmbedded(t *testing.T) {
	names, err := fs.Glob(scripts.FS, "*.risor")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"deprecations.risor", "enum_cases.risor", "members.risor", "summary.risor"}, names)
}

func TestSummary(t *testing.T) {
	rt := newRuntime(t)
	err := rt.RunScript(context.Background(), "summary.risor", map[string]any{"class_name": `Shop\Invoice`})
	require.NoError(t, err)
}

func TestEnumCases(t *testing.T) {
	rt := newRuntime(t)
	ctx := context.Background()

	require.NoError(t, rt.RunScript(ctx, "enum_cases.risor", map[string]any{"class_name": `Shop\Status`}))

	err := rt.RunScript(ctx, "enum_cases.risor", map[string]any{"class_name": `Shop\Invoice`})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not an enum")
}

func TestDeprecations(t *testing.T) {
	rt := newRuntime(t)
	err := rt.RunScript(context.Background(), "deprecations.risor", map[string]any{"class_name": `Shop\Invoice`})
	require.NoError(t, err)
}

func TestMembersLibrary(t *testing.T) {
	rt := newRuntime(t)
	script := `
import members

c := reflect_class("Shop\\Invoice")
assert(members.has(c["methods"], "legacy"), "expected legacy")
assert(members.has(c["methods"], "total"), "expected total")
assert(!members.has(c["methods"], "missing"), "unexpected missing")

own := members.names(members.declared_in(c["properties"], "Shop\\Document"))
assert(len(own) == 1 && own[0] == "ref", 'expected ref, got {own}')

old := members.names(members.deprecated(c["methods"]))
assert(len(old) == 1 && old[0] == "legacy", 'expected legacy, got {old}')
`
	require.NoError(t, rt.RunSource(context.Background(), script, nil))
}

func TestMissingClass(t *testing.T) {
	rt := newRuntime(t)
	err := rt.RunScript(context.Background(), "summary.risor", map[string]any{"class_name": `Shop\Nope`})
	require.Error(t, err)
}
