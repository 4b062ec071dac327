package expr

import (
	"bytes"
	"encoding/gob"
	"iter"
	"math"
	"strconv"
	"strings"

	"github.com/jward/phpreflect/internal/errs"
)

// Value is a PHP runtime value produced by evaluation.
type Value interface {
	isValue()
}

type Null struct{}
type Bool bool
type Int int64
type Float float64
type String string

// Object is an instance created by `new` in a constant expression, or an
// enum case when Case is set.
type Object struct {
	Class     string
	Arguments *Array
	Case      string
}

func (Null) isValue()    {}
func (Bool) isValue()    {}
func (Int) isValue()     {}
func (Float) isValue()   {}
func (String) isValue()  {}
func (*Array) isValue()  {}
func (*Object) isValue() {}

// Array is an ordered PHP array. Keys are Int or String after the usual PHP
// normalisation.
type Array struct {
	keys   []Value
	values map[Value]Value
	next   int64
}

func NewArray() *Array {
	return &Array{values: make(map[Value]Value)}
}

// NewList builds a list-shaped array.
func NewList(values ...Value) *Array {
	a := NewArray()
	for _, v := range values {
		a.append(v)
	}
	return a
}

func (a *Array) Len() int {
	if a == nil {
		return 0
	}
	return len(a.keys)
}

func (a *Array) Get(key Value) (Value, bool, error) {
	k, err := NormalizeKey(key)
	if err != nil {
		return nil, false, err
	}
	if a == nil {
		return nil, false, nil
	}
	v, ok := a.values[k]
	return v, ok, nil
}

func (a *Array) Set(key Value, value Value) error {
	k, err := NormalizeKey(key)
	if err != nil {
		return err
	}
	a.set(k, value)
	return nil
}

func (a *Array) set(k, value Value) {
	if a.values == nil {
		a.values = make(map[Value]Value)
	}
	if _, ok := a.values[k]; !ok {
		a.keys = append(a.keys, k)
	}
	a.values[k] = value
	if i, ok := k.(Int); ok && int64(i) >= a.next {
		if int64(i) == math.MaxInt64 {
			a.next = math.MaxInt64
		} else {
			a.next = int64(i) + 1
		}
	}
}

// Append adds value under the next free integer key.
func (a *Array) Append(value Value) error {
	if a.next == math.MaxInt64 {
		if _, taken := a.values[Int(math.MaxInt64)]; taken {
			return errs.Evaluation("cannot add element to the array as the next element is already occupied")
		}
	}
	a.append(value)
	return nil
}

func (a *Array) append(value Value) {
	a.set(Int(a.next), value)
}

// All iterates entries in insertion order.
func (a *Array) All() iter.Seq2[Value, Value] {
	return func(yield func(Value, Value) bool) {
		if a == nil {
			return
		}
		for _, k := range a.keys {
			if !yield(k, a.values[k]) {
				return
			}
		}
	}
}

func (a *Array) Keys() []Value {
	if a == nil {
		return nil
	}
	return append([]Value(nil), a.keys...)
}

// IsList reports whether keys are 0..n-1 in order.
func (a *Array) IsList() bool {
	for i, k := range a.Keys() {
		if k != Int(i) {
			return false
		}
	}
	return true
}

func (a *Array) Clone() *Array {
	c := NewArray()
	for k, v := range a.All() {
		c.set(k, v)
	}
	c.next = a.next
	return c
}

type arrayEntry struct {
	Key   Value
	Value Value
}

func (a *Array) GobEncode() ([]byte, error) {
	entries := make([]arrayEntry, 0, a.Len())
	for k, v := range a.All() {
		entries = append(entries, arrayEntry{Key: k, Value: v})
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(entries); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (a *Array) GobDecode(data []byte) error {
	var entries []arrayEntry
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&entries); err != nil {
		return err
	}
	*a = Array{values: make(map[Value]Value, len(entries))}
	for _, e := range entries {
		a.set(e.Key, e.Value)
	}
	return nil
}

// NormalizeKey applies PHP array key coercion.
func NormalizeKey(key Value) (Value, error) {
	switch k := key.(type) {
	case Int:
		return k, nil
	case String:
		if i, ok := canonicalInt(string(k)); ok {
			return Int(i), nil
		}
		return k, nil
	case Bool:
		if k {
			return Int(1), nil
		}
		return Int(0), nil
	case Float:
		if math.IsNaN(float64(k)) || math.IsInf(float64(k), 0) {
			return Int(0), nil
		}
		return Int(int64(k)), nil
	case Null:
		return String(""), nil
	}
	return nil, errs.Evaluation("illegal offset type %s", TypeName(key))
}

// canonicalInt accepts decimal integers without leading zeros, plus sign or
// surrounding whitespace.
func canonicalInt(s string) (int64, bool) {
	if s == "" || s == "-" {
		return 0, false
	}
	digits := strings.TrimPrefix(s, "-")
	if digits == "" || (len(digits) > 1 && digits[0] == '0') || (s[0] == '-' && digits == "0") {
		return 0, false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return 0, false
		}
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return i, true
}

// TypeName returns PHP's get_debug_type style name.
func TypeName(v Value) string {
	switch v := v.(type) {
	case nil, Null:
		return "null"
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "string"
	case *Array:
		return "array"
	case *Object:
		return v.Class
	}
	return "unknown"
}

// Interface converts v into plain Go values: nil, bool, int64, float64,
// string, map[string]any for arrays with string keys, []any for lists.
func Interface(v Value) any {
	switch v := v.(type) {
	case nil, Null:
		return nil
	case Bool:
		return bool(v)
	case Int:
		return int64(v)
	case Float:
		return float64(v)
	case String:
		return string(v)
	case *Array:
		if v.IsList() {
			out := make([]any, 0, v.Len())
			for _, item := range v.All() {
				out = append(out, Interface(item))
			}
			return out
		}
		out := make(map[string]any, v.Len())
		for k, item := range v.All() {
			s, _ := ToString(k)
			out[s] = Interface(item)
		}
		return out
	case *Object:
		out := map[string]any{"class": v.Class}
		if v.Case != "" {
			out["case"] = v.Case
		}
		if v.Arguments != nil {
			out["arguments"] = Interface(v.Arguments)
		}
		return out
	}
	return nil
}
