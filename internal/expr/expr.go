// Package expr implements PHP constant expressions: default values,
// constant initialisers and attribute arguments.
//
// Nodes form a closed set. Evaluate computes a Value against an
// EvaluationContext that resolves external constants; Rebuild rewrites the
// magic-constant placeholders (__CLASS__, self, parent, ...) when a
// declaration is copied into another lexical context, as happens with trait
// members.
package expr

import "github.com/jward/phpreflect/internal/id"

// Expr is implemented by the node types of this package only.
type Expr interface {
	isExpr()
}

type Literal struct {
	Value Value
}

// ArrayElement is one element of an array literal. A nil Key appends.
// Unpack spreads the value, which must evaluate to an array.
type ArrayElement struct {
	Key    Expr
	Value  Expr
	Unpack bool
}

type ArrayLiteral struct {
	Elements []ArrayElement
}

type ArrayFetch struct {
	Array Expr
	Key   Expr
}

// ArrayFetchCoalesce is `$array[$key] ?? $default`.
type ArrayFetchCoalesce struct {
	Array   Expr
	Key     Expr
	Default Expr
}

type ClassConstantFetch struct {
	Class Expr
	Name  Expr
}

// ConstantFetch reads a global constant. An unqualified name inside a
// namespace carries the global name as Fallback.
type ConstantFetch struct {
	ID       id.Constant
	Fallback *id.Constant
}

type UnaryOp struct {
	Op      string
	Operand Expr
}

type BinaryOp struct {
	Op    string
	Left  Expr
	Right Expr
}

// Ternary is `cond ? then : else`; a nil Then is the short `cond ?: else`.
type Ternary struct {
	Cond Expr
	Then Expr
	Else Expr
}

// Instantiation is `new Class(...)`; Arguments evaluates to an array keyed by
// position and argument name.
type Instantiation struct {
	Class     Expr
	Arguments Expr
}

type MagicKind uint8

const (
	MagicLine MagicKind = iota + 1
	MagicFile
	MagicDir
	MagicNamespace
	MagicFunction
	MagicClass
	MagicTrait
	MagicMethod
	MagicSelf
	MagicParent
)

func (k MagicKind) String() string {
	switch k {
	case MagicLine:
		return "__LINE__"
	case MagicFile:
		return "__FILE__"
	case MagicDir:
		return "__DIR__"
	case MagicNamespace:
		return "__NAMESPACE__"
	case MagicFunction:
		return "__FUNCTION__"
	case MagicClass:
		return "__CLASS__"
	case MagicTrait:
		return "__TRAIT__"
	case MagicMethod:
		return "__METHOD__"
	case MagicSelf:
		return "self"
	case MagicParent:
		return "parent"
	}
	return "magic"
}

// Magic is an unresolved magic constant as produced by a parser. Rebuild
// replaces it with a value or a trait placeholder.
type Magic struct {
	Kind MagicKind
	Line int
}

// MagicClassInTrait is __CLASS__ inside a trait: the trait name until the
// trait is used by a class.
type MagicClassInTrait struct {
	Trait string
}

// SelfInTrait is `self` inside a trait.
type SelfInTrait struct {
	Trait string
}

// ParentInTrait is `parent` inside a trait. It has no value until the trait
// is used.
type ParentInTrait struct{}

func (Literal) isExpr()            {}
func (ArrayLiteral) isExpr()       {}
func (ArrayFetch) isExpr()         {}
func (ArrayFetchCoalesce) isExpr() {}
func (ClassConstantFetch) isExpr() {}
func (ConstantFetch) isExpr()      {}
func (UnaryOp) isExpr()            {}
func (BinaryOp) isExpr()           {}
func (Ternary) isExpr()            {}
func (Instantiation) isExpr()      {}
func (Magic) isExpr()              {}
func (MagicClassInTrait) isExpr()  {}
func (SelfInTrait) isExpr()        {}
func (ParentInTrait) isExpr()      {}

// Lit wraps v as a literal.
func Lit(v Value) Expr {
	return Literal{Value: v}
}

// ClassName is the literal `Foo::class`.
func ClassName(name string) Expr {
	return Literal{Value: String(name)}
}
