package expr

import (
	"strconv"
	"strings"
)

// Format renders e as PHP source.
func Format(e Expr) string {
	var b strings.Builder
	format(&b, e)
	return b.String()
}

// FormatValue renders v as a PHP literal.
func FormatValue(v Value) string {
	var b strings.Builder
	formatValue(&b, v)
	return b.String()
}

func format(b *strings.Builder, e Expr) {
	switch n := e.(type) {
	case nil:
		b.WriteString("null")
	case Literal:
		formatValue(b, n.Value)
	case ArrayLiteral:
		b.WriteByte('[')
		for i, el := range n.Elements {
			if i > 0 {
				b.WriteString(", ")
			}
			if el.Unpack {
				b.WriteString("...")
			} else if el.Key != nil {
				format(b, el.Key)
				b.WriteString(" => ")
			}
			format(b, el.Value)
		}
		b.WriteByte(']')
	case ArrayFetch:
		format(b, n.Array)
		b.WriteByte('[')
		format(b, n.Key)
		b.WriteByte(']')
	case ArrayFetchCoalesce:
		format(b, n.Array)
		b.WriteByte('[')
		format(b, n.Key)
		b.WriteString("] ?? ")
		format(b, n.Default)
	case ClassConstantFetch:
		formatClass(b, n.Class)
		b.WriteString("::")
		if lit, ok := n.Name.(Literal); ok {
			if s, ok := lit.Value.(String); ok {
				b.WriteString(string(s))
				return
			}
		}
		b.WriteByte('{')
		format(b, n.Name)
		b.WriteByte('}')
	case ConstantFetch:
		if n.Fallback != nil {
			b.WriteString(n.Fallback.Name)
			return
		}
		b.WriteString(`\` + strings.TrimPrefix(n.ID.Name, `\`))
	case UnaryOp:
		b.WriteString(n.Op)
		format(b, n.Operand)
	case BinaryOp:
		b.WriteByte('(')
		format(b, n.Left)
		b.WriteString(" " + n.Op + " ")
		format(b, n.Right)
		b.WriteByte(')')
	case Ternary:
		format(b, n.Cond)
		if n.Then == nil {
			b.WriteString(" ?: ")
		} else {
			b.WriteString(" ? ")
			format(b, n.Then)
			b.WriteString(" : ")
		}
		format(b, n.Else)
	case Instantiation:
		b.WriteString("new ")
		formatClass(b, n.Class)
		b.WriteByte('(')
		if arr, ok := n.Arguments.(ArrayLiteral); ok {
			for i, el := range arr.Elements {
				if i > 0 {
					b.WriteString(", ")
				}
				if lit, ok := el.Key.(Literal); ok {
					if s, ok := lit.Value.(String); ok {
						b.WriteString(string(s) + ": ")
					}
				}
				format(b, el.Value)
			}
		}
		b.WriteByte(')')
	case Magic:
		b.WriteString(n.Kind.String())
	case MagicClassInTrait:
		b.WriteString("__CLASS__")
	case SelfInTrait:
		b.WriteString("self")
	case ParentInTrait:
		b.WriteString("parent")
	}
}

func formatClass(b *strings.Builder, e Expr) {
	if lit, ok := e.(Literal); ok {
		if s, ok := lit.Value.(String); ok {
			b.WriteString(`\` + strings.TrimPrefix(string(s), `\`))
			return
		}
	}
	format(b, e)
}

func formatValue(b *strings.Builder, v Value) {
	switch v := v.(type) {
	case nil, Null:
		b.WriteString("null")
	case Bool:
		if v {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case Int:
		b.WriteString(strconv.FormatInt(int64(v), 10))
	case Float:
		s := FormatFloat(float64(v))
		if !strings.ContainsAny(s, ".EN") {
			s += ".0"
		}
		b.WriteString(s)
	case String:
		b.WriteByte('\'')
		b.WriteString(strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(string(v)))
		b.WriteByte('\'')
	case *Array:
		b.WriteByte('[')
		list := v.IsList()
		i := 0
		for k, item := range v.All() {
			if i > 0 {
				b.WriteString(", ")
			}
			if !list {
				formatValue(b, k)
				b.WriteString(" => ")
			}
			formatValue(b, item)
			i++
		}
		b.WriteByte(']')
	case *Object:
		if v.Case != "" {
			b.WriteString(`\` + v.Class + "::" + v.Case)
			return
		}
		b.WriteString(`new \` + v.Class + "(")
		i := 0
		for k, item := range v.Arguments.All() {
			if i > 0 {
				b.WriteString(", ")
			}
			if s, ok := k.(String); ok {
				b.WriteString(string(s) + ": ")
			}
			formatValue(b, item)
			i++
		}
		b.WriteByte(')')
	}
}
