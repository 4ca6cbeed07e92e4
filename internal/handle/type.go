package handle

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jward/interop/internal/compiler"
)

// Shape classifies a TypeHandle.
type Shape int

const (
	Declared Shape = iota + 1
	Array
	Wildcard
	TypeVariable
	Primitive
	Error
)

var shapeNames = map[Shape]string{
	Declared:     "declared",
	Array:        "array",
	Wildcard:     "wildcard",
	TypeVariable: "type-variable",
	Primitive:    "primitive",
	Error:        "error",
}

func (s Shape) String() string {
	if n, ok := shapeNames[s]; ok {
		return n
	}
	return fmt.Sprintf("shape(%d)", int(s))
}

func (s Shape) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Shape) UnmarshalText(b []byte) error {
	for k, n := range shapeNames {
		if n == string(b) {
			*s = k
			return nil
		}
	}
	return fmt.Errorf("unknown type shape %q", b)
}

// TypeHandle is a durable, structural identity for a type use. Which fields
// are meaningful depends on Shape:
//
//	Declared      Element (the class) and Args
//	Array         Component
//	Wildcard      Bound (nil when unbounded) and Super
//	TypeVariable  Element (the declaring class, method or constructor),
//	              Index (position among its type parameters) and Name
//	Primitive     Name, including "void"
//	Error         Name as written in source
type TypeHandle struct {
	Shape     Shape         `json:"shape"`
	Element   ElementHandle `json:"element,omitzero"`
	Args      []TypeHandle  `json:"args,omitempty"`
	Component *TypeHandle   `json:"component,omitempty"`
	Bound     *TypeHandle   `json:"bound,omitempty"`
	Super     bool          `json:"super,omitempty"`
	Index     int           `json:"index,omitempty"`
	Name      string        `json:"name,omitempty"`
}

func DeclaredOf(class ElementHandle, args ...TypeHandle) TypeHandle {
	return TypeHandle{Shape: Declared, Element: class, Args: args}
}

func ArrayOf(component TypeHandle) TypeHandle {
	return TypeHandle{Shape: Array, Component: &component}
}

// WildcardOf builds "? extends bound" or, with super, "? super bound". A nil
// bound is the unbounded "?".
func WildcardOf(bound *TypeHandle, super bool) TypeHandle {
	return TypeHandle{Shape: Wildcard, Bound: bound, Super: super && bound != nil}
}

func TypeVariableOf(owner ElementHandle, index int, name string) TypeHandle {
	return TypeHandle{Shape: TypeVariable, Element: owner, Index: index, Name: name}
}

func PrimitiveOf(name string) TypeHandle {
	return TypeHandle{Shape: Primitive, Name: name}
}

// IsZero reports whether t is the zero handle, the result of converting a
// missing type.
func (t TypeHandle) IsZero() bool { return t.Shape == 0 }

// Equal reports structural equality. Type argument order is significant.
func (t TypeHandle) Equal(o TypeHandle) bool { return t.Key() == o.Key() }

// Key is a canonical string that is equal for exactly the structurally
// equal handles.
func (t TypeHandle) Key() string {
	var b strings.Builder
	t.writeKey(&b)
	return b.String()
}

func (t TypeHandle) writeKey(b *strings.Builder) {
	switch t.Shape {
	case Declared:
		b.WriteString(t.Element.QualifiedName)
		if len(t.Args) > 0 {
			b.WriteByte('<')
			for i, a := range t.Args {
				if i > 0 {
					b.WriteByte(',')
				}
				a.writeKey(b)
			}
			b.WriteByte('>')
		}
	case Array:
		t.Component.writeKey(b)
		b.WriteString("[]")
	case Wildcard:
		b.WriteByte('?')
		if t.Bound != nil {
			if t.Super {
				b.WriteString(" super ")
			} else {
				b.WriteString(" extends ")
			}
			t.Bound.writeKey(b)
		}
	case TypeVariable:
		b.WriteString(t.Element.Key())
		b.WriteByte('!')
		b.WriteString(strconv.Itoa(t.Index))
	case Primitive:
		b.WriteString(t.Name)
	case Error:
		b.WriteString("error:")
		b.WriteString(t.Name)
	}
}

// String renders the type in Java syntax.
func (t TypeHandle) String() string {
	switch t.Shape {
	case Declared:
		if len(t.Args) == 0 {
			return t.Element.QualifiedName
		}
		args := make([]string, len(t.Args))
		for i, a := range t.Args {
			args[i] = a.String()
		}
		return t.Element.QualifiedName + "<" + strings.Join(args, ", ") + ">"
	case Array:
		return t.Component.String() + "[]"
	case Wildcard:
		switch {
		case t.Bound == nil:
			return "?"
		case t.Super:
			return "? super " + t.Bound.String()
		default:
			return "? extends " + t.Bound.String()
		}
	case TypeVariable, Primitive, Error:
		return t.Name
	}
	return ""
}

// FromType captures the structure of a native type. A nil type, or a
// declared type whose class has no handle, yields the zero handle.
func FromType(t compiler.TypeMirror) TypeHandle {
	switch t := t.(type) {
	case *compiler.DeclaredType:
		class, ok := FromElement(t.Element)
		if !ok {
			return TypeHandle{}
		}
		h := TypeHandle{Shape: Declared, Element: class}
		for _, a := range t.Args {
			h.Args = append(h.Args, FromType(a))
		}
		return h
	case *compiler.ArrayType:
		return ArrayOf(FromType(t.Component))
	case *compiler.WildcardType:
		if t.Bound == nil {
			return WildcardOf(nil, false)
		}
		bound := FromType(t.Bound)
		return WildcardOf(&bound, t.Super)
	case *compiler.TypeVariable:
		ownerEl := t.Element.Enclosing()
		owner, ok := FromElement(ownerEl)
		if !ok {
			return TypeHandle{}
		}
		index := 0
		for i, tp := range ownerEl.TypeParameters() {
			if tp.Same(t.Element) {
				index = i
			}
		}
		return TypeVariableOf(owner, index, t.Element.SimpleName())
	case *compiler.PrimitiveType:
		return PrimitiveOf(t.Name)
	case *compiler.ErrorType:
		return TypeHandle{Shape: Error, Name: t.Name}
	}
	return TypeHandle{}
}

// Resolve rebuilds the native type in snap. Declared types re-resolve their
// class and every argument; type variables resolve their owner and pick the
// parameter at Index. Any absent part makes the whole type absent.
func (t TypeHandle) Resolve(snap *compiler.Snapshot) (compiler.TypeMirror, bool) {
	switch t.Shape {
	case Declared:
		class, ok := t.Element.Resolve(snap)
		if !ok {
			return nil, false
		}
		dt := &compiler.DeclaredType{Element: class}
		for _, a := range t.Args {
			arg, ok := a.Resolve(snap)
			if !ok {
				return nil, false
			}
			dt.Args = append(dt.Args, arg)
		}
		return dt, true
	case Array:
		if t.Component == nil {
			return nil, false
		}
		comp, ok := t.Component.Resolve(snap)
		if !ok {
			return nil, false
		}
		return &compiler.ArrayType{Component: comp}, true
	case Wildcard:
		w := &compiler.WildcardType{Super: t.Super}
		if t.Bound != nil {
			bound, ok := t.Bound.Resolve(snap)
			if !ok {
				return nil, false
			}
			w.Bound = bound
		}
		return w, true
	case TypeVariable:
		owner, ok := t.Element.Resolve(snap)
		if !ok {
			return nil, false
		}
		tps := owner.TypeParameters()
		if t.Index < 0 || t.Index >= len(tps) {
			return nil, false
		}
		return &compiler.TypeVariable{Element: tps[t.Index]}, true
	case Primitive:
		return &compiler.PrimitiveType{Name: t.Name}, true
	case Error:
		return &compiler.ErrorType{Name: t.Name}, true
	}
	return nil, false
}
