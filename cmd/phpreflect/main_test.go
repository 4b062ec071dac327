package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const orderPHP = `<?php
namespace App;

interface HasId
{
    public function id(): int;
}

/** @deprecated use Invoice */
class Order implements HasId
{
    public const LIMIT = self::PAGE * 2;
    public const PAGE = 25;

    public function __construct(protected int $id = 0) {}

    public function id(): int { return $this->id; }
}

function order_total(float ...$prices): float { return 0.0; }

const CURRENCY = 'EUR';

$a = new class {}; $b = new class extends Order {};
`

// createFixture writes a small PHP project and returns its directory.
func createFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "Order.php"), []byte(orderPHP), 0o644))
	return dir
}

// run executes the CLI in-process and returns what it wrote to stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	a := newApp(&out, &errOut)
	a.root.SetArgs(args)
	err := a.root.Execute()
	return out.String(), err
}

func decodeJSON(t *testing.T, out string) map[string]any {
	t.Helper()
	var result map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &result), "invalid JSON output: %s", out)
	return result
}

func TestValidateFormat(t *testing.T) {
	t.Parallel()
	for _, f := range []string{"json", "yaml", "text"} {
		assert.NoError(t, validateFormat(f))
	}
	err := validateFormat("xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "json, yaml, text")
}

func TestParseIntArg(t *testing.T) {
	t.Parallel()
	n, err := parseIntArg("12", "line")
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	_, err = parseIntArg("-1", "line")
	assert.Error(t, err)
	_, err = parseIntArg("x", "column")
	assert.ErrorContains(t, err, "column")
}

func TestSplitClassConstant(t *testing.T) {
	t.Parallel()
	class, name, ok := splitClassConstant(`App\Order::LIMIT`)
	assert.True(t, ok)
	assert.Equal(t, `App\Order`, class)
	assert.Equal(t, "LIMIT", name)

	_, _, ok = splitClassConstant("PHP_EOL")
	assert.False(t, ok)
	_, _, ok = splitClassConstant("::X")
	assert.False(t, ok)
}

func TestClassJSON(t *testing.T) {
	dir := createFixture(t)
	out, err := run(t, "--path", dir, "class", `App\Order`)
	require.NoError(t, err)

	result := decodeJSON(t, out)
	assert.Equal(t, "class", result["command"])
	class := result["results"].(map[string]any)
	assert.Equal(t, `App\Order`, class["name"])
	assert.Equal(t, "use Invoice", class["deprecated"])

	interfaces := class["interfaces"].([]any)
	require.Len(t, interfaces, 1)
	assert.Equal(t, `App\HasId`, interfaces[0].(map[string]any)["name"])

	constants := class["constants"].([]any)
	require.NotEmpty(t, constants)
	_, evaluated := constants[0].(map[string]any)["value"]
	assert.False(t, evaluated, "values need --evaluate")
}

func TestClassYAML(t *testing.T) {
	dir := createFixture(t)
	out, err := run(t, "--path", dir, "--format", "yaml", "class", "--evaluate", `App\Order`)
	require.NoError(t, err)

	var result struct {
		Command string `yaml:"command"`
		Results struct {
			Kind      string `yaml:"kind"`
			Constants []struct {
				Name  string `yaml:"name"`
				Value struct {
					Value any `yaml:"value"`
				} `yaml:"value"`
			} `yaml:"constants"`
		} `yaml:"results"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &result))
	assert.Equal(t, "class", result.Results.Kind)
	require.Len(t, result.Results.Constants, 2)
	assert.Equal(t, "LIMIT", result.Results.Constants[0].Name)
	assert.Equal(t, 50, result.Results.Constants[0].Value.Value)
}

func TestClassText(t *testing.T) {
	dir := createFixture(t)
	out, err := run(t, "--path", dir, "--format", "text", "class", "--evaluate", `App\Order`)
	require.NoError(t, err)

	assert.Contains(t, out, `class App\Order`)
	assert.Contains(t, out, "Deprecated: use Invoice")
	assert.Contains(t, out, "CONSTANT")
	assert.Contains(t, out, "$id")
	assert.Contains(t, out, "id()")
}

func TestConstant(t *testing.T) {
	dir := createFixture(t)

	out, err := run(t, "--path", dir, "constant", "--evaluate", `App\CURRENCY`)
	require.NoError(t, err)
	k := decodeJSON(t, out)["results"].(map[string]any)
	assert.Equal(t, "EUR", k["value"].(map[string]any)["value"])

	out, err = run(t, "--path", dir, "constant", "--evaluate", `App\Order::LIMIT`)
	require.NoError(t, err)
	k = decodeJSON(t, out)["results"].(map[string]any)
	assert.Equal(t, float64(50), k["value"].(map[string]any)["value"])

	out, err = run(t, "--path", dir, "constant", `App\Order::NOPE`)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", decodeJSON(t, out)["code"])
}

func TestFunction(t *testing.T) {
	dir := createFixture(t)
	out, err := run(t, "--path", dir, "--format", "text", "function", `App\order_total`)
	require.NoError(t, err)
	assert.Contains(t, out, `function App\order_total(float ...$prices): float`)
}

func TestAnonymous(t *testing.T) {
	dir := createFixture(t)
	file := filepath.Join(dir, "src", "Order.php")

	out, err := run(t, "--path", dir, "anonymous", file, "24")
	require.Error(t, err)
	result := decodeJSON(t, out)
	assert.Equal(t, "AMBIGUOUS", result["code"])

	out, err = run(t, "--path", dir, "anonymous", file, "24", "29")
	require.NoError(t, err)
	class := decodeJSON(t, out)["results"].(map[string]any)
	assert.Equal(t, true, class["anonymous"])
	assert.Equal(t, `App\Order`, class["parents"].([]any)[0].(map[string]any)["name"])
}

func TestNotFound(t *testing.T) {
	dir := createFixture(t)
	out, err := run(t, "--path", dir, "class", `App\Missing`)
	require.Error(t, err)

	result := decodeJSON(t, out)
	assert.Equal(t, "NOT_FOUND", result["code"])
	assert.Contains(t, result["error"], `App\Missing`)
	assert.Nil(t, result["results"])
}

func TestInvalidFormat(t *testing.T) {
	_, err := run(t, "--format", "xml", "class", "A")
	require.Error(t, err)
}

func TestConfigFileAndCache(t *testing.T) {
	dir := createFixture(t)
	dbPath := filepath.Join(t.TempDir(), "cache.db")
	cfgPath := filepath.Join(t.TempDir(), "phpreflect.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
[source]
paths = ["`+filepath.ToSlash(filepath.Join(dir, "src"))+`"]

[cache]
enabled = true
path = "`+filepath.ToSlash(dbPath)+`"
`), 0o644))

	out, err := run(t, "--config", cfgPath, "class", `App\Order`)
	require.NoError(t, err)
	assert.Equal(t, `App\Order`, decodeJSON(t, out)["results"].(map[string]any)["name"])
	assert.FileExists(t, dbPath)
}

func TestScriptFromFile(t *testing.T) {
	dir := createFixture(t)
	script := filepath.Join(t.TempDir(), "check.risor")
	require.NoError(t, os.WriteFile(script, []byte(`
c := reflect_class(target)
assert(c["name"] == target, "unexpected class")
assert(evaluate_class_constant(target, "LIMIT") == 50, "unexpected LIMIT")
`), 0o644))

	_, err := run(t, "--path", dir, "script", script, "--var", `target=App\Order`)
	require.NoError(t, err)
}

func TestScriptBundled(t *testing.T) {
	dir := createFixture(t)
	_, err := run(t, "--path", dir, "script", "summary", "--var", `class_name=App\Order`)
	require.NoError(t, err)

	_, err = run(t, "--path", dir, "script", "no_such_script")
	require.Error(t, err)
}
