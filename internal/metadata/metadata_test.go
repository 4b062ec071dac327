package metadata

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/phpreflect/internal/declaration"
	"github.com/jward/phpreflect/internal/types"
)

func TestClassWithIsRightBiased(t *testing.T) {
	a := Class{
		Final:       true,
		Deprecation: &Deprecation{Message: "old"},
		Templates:   []Template{{Name: "T"}},
		Methods: map[string]Method{
			"get": {ReturnType: types.Int, Final: true},
			"set": {ReturnType: types.Void},
		},
	}
	b := Class{
		Readonly: true,
		Methods: map[string]Method{
			"get": {ReturnType: types.String},
		},
	}

	got := a.With(b)

	assert.True(t, got.Final)
	assert.True(t, got.Readonly)
	assert.Equal(t, "old", got.Deprecation.Message)
	require.Len(t, got.Templates, 1)
	assert.Equal(t, types.String, got.Methods["get"].ReturnType)
	assert.True(t, got.Methods["get"].Final)
	assert.Equal(t, types.Void, got.Methods["set"].ReturnType)
}

func TestClassWithIdentity(t *testing.T) {
	a := Class{Final: true, Extends: map[string][]types.Type{"Base": {types.Int}}}
	assert.Equal(t, a, a.With(Class{}))
	assert.Equal(t, a, Class{}.With(a))
}

func TestFunctionWithReplacesNonEmptySlices(t *testing.T) {
	a := Function{ThrowsTypes: []types.Type{types.NewNamed("RuntimeException")}, Templates: []Template{{Name: "T"}}}
	b := Function{ThrowsTypes: []types.Type{types.NewNamed("LogicException")}}

	got := a.With(b)
	assert.Equal(t, []types.Type{types.NewNamed("LogicException")}, got.ThrowsTypes)
	assert.Equal(t, "T", got.Templates[0].Name)
}

func TestTypeArgumentsIsCaseInsensitive(t *testing.T) {
	c := Class{Implements: map[string][]types.Type{`App\Collection`: {types.Int}}}
	assert.Equal(t, []types.Type{types.Int}, c.TypeArguments(`app\collection`))
	assert.Nil(t, c.TypeArguments("Other"))
}

type fixedParser struct {
	class Class
	err   error
}

func (p fixedParser) ParseClass(*declaration.Class) (Class, error) { return p.class, p.err }

func TestParsersFoldInOrder(t *testing.T) {
	ps := Parsers{
		fixedParser{class: Class{Methods: map[string]Method{"m": {ReturnType: types.Int}}}},
		AttributeParser{},
		fixedParser{class: Class{Methods: map[string]Method{"m": {ReturnType: types.String}}}},
	}

	decl := &declaration.Class{
		Attributes: []declaration.Attribute{{Class: "Deprecated"}},
	}
	got, err := ps.ParseClass(decl)
	require.NoError(t, err)
	assert.Equal(t, types.String, got.Methods["m"].ReturnType)
	assert.NotNil(t, got.Deprecation)

	fn, err := ps.ParseFunction(&declaration.Function{})
	require.NoError(t, err)
	assert.Nil(t, fn.Deprecation)
}

func TestParsersStopOnError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Parsers{fixedParser{err: boom}}.ParseClass(&declaration.Class{})
	assert.ErrorIs(t, err, boom)
}
