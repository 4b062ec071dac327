package expr

import "encoding/gob"

// Values and nodes travel through interfaces, so gob needs them registered.
func init() {
	for _, v := range []any{
		Null{}, Bool(false), Int(0), Float(0), String(""), &Array{}, &Object{},
		Literal{}, ArrayLiteral{}, ArrayFetch{}, ArrayFetchCoalesce{}, ClassConstantFetch{},
		ConstantFetch{}, UnaryOp{}, BinaryOp{}, Ternary{}, Instantiation{}, Magic{},
		MagicClassInTrait{}, SelfInTrait{}, ParentInTrait{},
	} {
		gob.Register(v)
	}
}

// gob refuses structs without exported fields.
func (Null) GobEncode() ([]byte, error)  { return []byte{0}, nil }
func (*Null) GobDecode([]byte) error     { return nil }

func (ParentInTrait) GobEncode() ([]byte, error) { return []byte{0}, nil }
func (*ParentInTrait) GobDecode([]byte) error    { return nil }
