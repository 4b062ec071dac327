package store

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/jward/phpreflect/internal/declaration"
	"github.com/jward/phpreflect/internal/id"
	"github.com/jward/phpreflect/internal/types"
)

func init() {
	for _, v := range []any{
		&declaration.Class{}, &declaration.Function{}, &declaration.Constant{},

		id.Constant{}, id.NamedFunction{}, id.AnonymousFunction{}, id.NamedClass{}, id.AnonymousClass{},
		id.ClassConstant{}, id.Property{}, id.Method{}, id.Parameter{}, id.Template{}, id.Alias{},

		types.Keyword{}, types.Literal{}, types.Nullable{}, types.Union{}, types.Intersection{},
		types.Generic{}, types.Named{}, types.Relative{}, types.TemplateRef{}, types.AliasRef{},
		types.Shape{}, types.Callable{},
	} {
		gob.Register(v)
	}
}

type envelope struct {
	Declaration declaration.Declaration
}

func encode(d declaration.Declaration) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(envelope{Declaration: d}); err != nil {
		return nil, fmt.Errorf("encode %s: %w", d.SymbolID().Describe(), err)
	}
	return buf.Bytes(), nil
}

func decode(payload []byte) (declaration.Declaration, error) {
	var e envelope
	if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(&e); err != nil {
		return nil, fmt.Errorf("decode declaration: %w", err)
	}
	if e.Declaration == nil {
		return nil, fmt.Errorf("decode declaration: empty payload")
	}
	return e.Declaration, nil
}

func kindOf(d declaration.Declaration) string {
	switch d.(type) {
	case *declaration.Class:
		return "class"
	case *declaration.Function:
		return "function"
	case *declaration.Constant:
		return "constant"
	}
	return "unknown"
}

// cacheable reports whether d can be looked up by symbol later. Anonymous
// declarations are always reparsed.
func cacheable(d declaration.Declaration) bool {
	switch d.SymbolID().(type) {
	case id.AnonymousClass, id.AnonymousFunction:
		return false
	}
	return true
}
