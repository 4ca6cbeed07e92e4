package search

import (
	"github.com/jward/interop/internal/compiler"
	"github.com/jward/interop/internal/handle"
)

// Supertypes lists the direct supertypes of a class, the superclass first
// and then the interfaces in declaration order. A class with none, an
// interface without superinterfaces for instance, reports java.lang.Object;
// java.lang.Object itself reports nothing.
type Supertypes struct {
	Handle handle.ElementHandle

	Types []handle.TypeHandle
}

func (*Supertypes) Name() string          { return "supertypes" }
func (*Supertypes) Phase() compiler.Phase { return compiler.PhaseElementsResolved }

func (s *Supertypes) Run(snap *compiler.Snapshot) error {
	if err := expectKind(s.Name(), s.Handle, handle.Class); err != nil {
		return err
	}
	el := begin(snap, s.Phase(), s.Handle)
	if el == nil {
		return nil
	}

	var types []handle.TypeHandle
	if sc := el.Superclass(); sc != nil {
		types = append(types, typesOf([]compiler.TypeMirror{sc})...)
	}
	types = append(types, typesOf(el.Interfaces())...)
	if len(types) == 0 && el.QualifiedName() != objectType().Element.QualifiedName {
		types = append(types, objectType())
	}
	s.Types = types
	return nil
}

// OuterClass finds the class that directly encloses a class or member.
// Top-level classes have none.
type OuterClass struct {
	Handle handle.ElementHandle

	Outer handle.ElementHandle
	Found bool
}

func (*OuterClass) Name() string          { return "outer-class" }
func (*OuterClass) Phase() compiler.Phase { return compiler.PhaseElementsDiscovered }

func (s *OuterClass) Run(snap *compiler.Snapshot) error {
	if err := expectKind(s.Name(), s.Handle, handle.Class, handle.Method, handle.Constructor, handle.Field); err != nil {
		return err
	}
	el := begin(snap, s.Phase(), s.Handle)
	if el == nil {
		return nil
	}
	encl := el.Enclosing()
	if encl == nil || !compiler.IsClassKind(encl.Kind()) {
		return nil
	}
	s.Outer, s.Found = handle.FromElement(encl)
	return nil
}
