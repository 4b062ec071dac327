package locator

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lineIndexer understands one declaration per line: "class X",
// "function f" or "const C".
type lineIndexer struct{}

func (lineIndexer) Names(_ context.Context, res Resource) (Names, error) {
	code, err := res.Read()
	if err != nil {
		return Names{}, err
	}
	var names Names
	sc := bufio.NewScanner(bytes.NewReader(code))
	for sc.Scan() {
		kind, name, ok := strings.Cut(strings.TrimSpace(sc.Text()), " ")
		if !ok {
			continue
		}
		switch kind {
		case "class":
			names.Classes = append(names.Classes, name)
		case "function":
			names.Functions = append(names.Functions, name)
		case "const":
			names.Constants = append(names.Constants, name)
		}
	}
	return names, nil
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(lineIndexer{})
	require.NoError(t, m.Add(ctx, "a.php", []byte("class App\\Foo\nfunction helper\nconst VERSION\n")))

	res, ok, err := m.LocateClass(ctx, `\app\foo`)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a.php", res.Path)
	assert.True(t, res.InMemory())

	_, ok, _ = m.LocateFunction(ctx, "HELPER")
	assert.True(t, ok)
	_, ok, _ = m.LocateConstant(ctx, "version")
	assert.False(t, ok, "constants are case-sensitive")

	require.NoError(t, m.Add(ctx, "a.php", []byte("class App\\Bar\n")))
	_, ok, _ = m.LocateClass(ctx, `App\Foo`)
	assert.False(t, ok, "re-adding a file drops its old names")
}

func TestPsr4LongestPrefixWins(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "Model", "User.php"), "")
	writeFile(t, filepath.Join(root, "models", "User.php"), "")

	p := NewPsr4(map[string][]string{
		`App\`:        {filepath.Join(root, "src")},
		`App\Model\`:  {filepath.Join(root, "models")},
		`Other\Thing`: {filepath.Join(root, "other")},
	})

	res, ok, err := p.LocateClass(context.Background(), `App\Model\User`)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "models", "User.php"), res.Path)

	_, ok, _ = p.LocateClass(context.Background(), `App\Missing`)
	assert.False(t, ok)
}

func TestDirectoryIncludeExclude(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "a.php"), "class A\n")
	writeFile(t, filepath.Join(root, "src", "b.txt"), "class B\n")
	writeFile(t, filepath.Join(root, "vendor", "c.php"), "class C\n")
	writeFile(t, filepath.Join(root, "z.php"), "class A\nfunction f\n")

	d, err := NewDirectory(context.Background(), []string{root}, lineIndexer{}, WithExclude("vendor"))
	require.NoError(t, err)
	ctx := context.Background()

	res, ok, _ := d.LocateClass(ctx, "a")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "src", "a.php"), res.Path, "first file in path order wins")

	_, ok, _ = d.LocateClass(ctx, "B")
	assert.False(t, ok)
	_, ok, _ = d.LocateClass(ctx, "C")
	assert.False(t, ok)
	_, ok, _ = d.LocateFunction(ctx, "f")
	assert.True(t, ok)

	writeFile(t, filepath.Join(root, "src", "a.php"), "class D\n")
	require.NoError(t, d.Update(ctx, filepath.Join(root, "src", "a.php")))
	_, ok, _ = d.LocateClass(ctx, "D")
	assert.True(t, ok)
}

func TestComposer(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "composer.json"), `{
		"autoload": {
			"psr-4": {"App\\": "src/"},
			"files": ["helpers.php"]
		},
		"autoload-dev": {
			"psr-4": {"Tests\\": ["tests/", "more/"]}
		}
	}`)
	writeFile(t, filepath.Join(root, "src", "Kernel.php"), "class App\\Kernel\n")
	writeFile(t, filepath.Join(root, "more", "CaseTest.php"), "")
	writeFile(t, filepath.Join(root, "helpers.php"), "function app_path\nconst APP_ROOT\n")

	ctx := context.Background()
	ls, err := NewComposer(ctx, root, lineIndexer{})
	require.NoError(t, err)

	res, ok, err := ls.LocateClass(ctx, `App\Kernel`)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "src", "Kernel.php"), res.Path)

	res, ok, _ = ls.LocateClass(ctx, `Tests\CaseTest`)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "more", "CaseTest.php"), res.Path)

	_, ok, _ = ls.LocateFunction(ctx, "app_path")
	assert.True(t, ok)
	_, ok, _ = ls.LocateConstant(ctx, "APP_ROOT")
	assert.True(t, ok)
}
