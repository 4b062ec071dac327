package declaration

import (
	"github.com/jward/phpreflect/internal/types"
)

// Enum members every enum gets implicitly. They are attributed to the Core
// extension, not to the enum's file.

func coreContext(enum Context) Context {
	return enum.WithSource(ExtensionSource(CoreExtension))
}

// EnumNameProperty is `public readonly string $name`.
func EnumNameProperty(enum Context) Property {
	return Property{
		Context:    coreContext(enum),
		Name:       "name",
		Visibility: Public,
		Readonly:   true,
		Type:       types.String,
	}
}

// EnumValueProperty is `public readonly int|string $value` of a backed enum.
func EnumValueProperty(enum Context, backing types.Type) Property {
	return Property{
		Context:    coreContext(enum),
		Name:       "value",
		Visibility: Public,
		Readonly:   true,
		Type:       backing,
	}
}

// EnumCasesMethod is `public static function cases(): array`.
func EnumCasesMethod(enum Context) Method {
	return Method{
		Context:    coreContext(enum).EnterMethod("cases"),
		Name:       "cases",
		Visibility: Public,
		Static:     true,
		ReturnType: types.Array,
	}
}

// EnumFromMethod is `public static function from(int|string $value): static`.
func EnumFromMethod(enum Context) Method {
	ctx := coreContext(enum).EnterMethod("from")
	return Method{
		Context:    ctx,
		Name:       "from",
		Visibility: Public,
		Static:     true,
		ReturnType: types.Relative{Kind: types.Static, Class: enum.SelfName()},
		Parameters: []Parameter{enumValueParameter(ctx)},
	}
}

// EnumTryFromMethod is `public static function tryFrom(int|string $value): ?static`.
func EnumTryFromMethod(enum Context) Method {
	ctx := coreContext(enum).EnterMethod("tryFrom")
	return Method{
		Context:    ctx,
		Name:       "tryFrom",
		Visibility: Public,
		Static:     true,
		ReturnType: types.Nullable{Type: types.Relative{Kind: types.Static, Class: enum.SelfName()}},
		Parameters: []Parameter{enumValueParameter(ctx)},
	}
}

func enumValueParameter(method Context) Parameter {
	return Parameter{
		Context: method,
		Name:    "value",
		Type:    types.NewUnion(types.Int, types.String),
	}
}
