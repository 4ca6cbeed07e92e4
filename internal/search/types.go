package search

import (
	"fmt"

	"github.com/jward/interop/internal/compiler"
	"github.com/jward/interop/internal/handle"
)

// FieldType reads the declared type of a field or enum constant.
type FieldType struct {
	Handle handle.ElementHandle

	Type  handle.TypeHandle
	Found bool
}

func (*FieldType) Name() string          { return "field-type" }
func (*FieldType) Phase() compiler.Phase { return compiler.PhaseElementsResolved }

func (s *FieldType) Run(snap *compiler.Snapshot) error {
	if err := expectKind(s.Name(), s.Handle, handle.Field); err != nil {
		return err
	}
	if el := begin(snap, s.Phase(), s.Handle); el != nil {
		s.Type = handle.FromType(el.Type())
		s.Found = !s.Type.IsZero()
	}
	return nil
}

// ReturnType reads the return type of a method; void is a primitive.
type ReturnType struct {
	Handle handle.ElementHandle

	Type  handle.TypeHandle
	Found bool
}

func (*ReturnType) Name() string          { return "return-type" }
func (*ReturnType) Phase() compiler.Phase { return compiler.PhaseElementsResolved }

func (s *ReturnType) Run(snap *compiler.Snapshot) error {
	if err := expectKind(s.Name(), s.Handle, handle.Method); err != nil {
		return err
	}
	if el := begin(snap, s.Phase(), s.Handle); el != nil {
		s.Type = handle.FromType(el.ReturnType())
		s.Found = !s.Type.IsZero()
	}
	return nil
}

// TypeParameterBounds lists the upper bounds of a type parameter in
// declaration order. An unbounded parameter reports java.lang.Object.
type TypeParameterBounds struct {
	Handle handle.ElementHandle

	Bounds []handle.TypeHandle
}

func (*TypeParameterBounds) Name() string          { return "type-parameter-bounds" }
func (*TypeParameterBounds) Phase() compiler.Phase { return compiler.PhaseElementsResolved }

func (s *TypeParameterBounds) Run(snap *compiler.Snapshot) error {
	if err := expectKind(s.Name(), s.Handle, handle.TypeParameter); err != nil {
		return err
	}
	el := begin(snap, s.Phase(), s.Handle)
	if el == nil {
		return nil
	}
	s.Bounds = typesOf(el.Bounds())
	if len(s.Bounds) == 0 {
		s.Bounds = []handle.TypeHandle{objectType()}
	}
	return nil
}

// Variance is the direction of a wildcard bound.
type Variance int

const (
	Invariant Variance = iota
	Covariant          // ? extends T
	Contravariant      // ? super T
)

func (v Variance) String() string {
	switch v {
	case Invariant:
		return "invariant"
	case Covariant:
		return "extends"
	case Contravariant:
		return "super"
	}
	return fmt.Sprintf("variance(%d)", int(v))
}

func (v Variance) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

// TypeShape re-resolves a type and reports its structure: whether a
// declared type is a raw use of a generic class, its type arguments, an
// array's component, a wildcard's bound and variance, and the class or type
// parameter behind it.
type TypeShape struct {
	Type handle.TypeHandle

	Shape          handle.Shape
	IsRaw          bool
	TypeArguments  []handle.TypeHandle
	ArrayComponent *handle.TypeHandle
	WildcardBound  *handle.TypeHandle
	Variance       Variance
	Classifier     handle.ElementHandle
	Presentable    string
	Found          bool
}

func (*TypeShape) Name() string          { return "type-shape" }
func (*TypeShape) Phase() compiler.Phase { return compiler.PhaseElementsResolved }

func (s *TypeShape) Run(snap *compiler.Snapshot) error {
	snap.ToPhase(s.Phase())
	t, ok := s.Type.Resolve(snap)
	if !ok {
		return nil
	}
	th := handle.FromType(t)
	if th.IsZero() {
		return nil
	}
	s.Found = true
	s.Shape = th.Shape
	s.Presentable = th.String()

	switch t := t.(type) {
	case *compiler.DeclaredType:
		s.IsRaw = t.IsRaw()
		s.TypeArguments = th.Args
		s.Classifier = th.Element
	case *compiler.ArrayType:
		s.ArrayComponent = th.Component
	case *compiler.WildcardType:
		s.WildcardBound = th.Bound
		switch {
		case th.Bound == nil:
		case th.Super:
			s.Variance = Contravariant
		default:
			s.Variance = Covariant
		}
	case *compiler.TypeVariable:
		if h, ok := handle.FromElement(t.Element); ok {
			s.Classifier = h
		}
	}
	return nil
}
