package search

import (
	"slices"

	"github.com/jward/interop/internal/compiler"
	"github.com/jward/interop/internal/handle"
)

// classMembers resolves a class handle and returns its members accepted by keep.
func classMembers(snap *compiler.Snapshot, phase compiler.Phase, searcher string, h handle.ElementHandle, keep func(*compiler.Element) bool) ([]handle.ElementHandle, error) {
	if err := expectKind(searcher, h, handle.Class); err != nil {
		return nil, err
	}
	el := begin(snap, phase, h)
	if el == nil {
		return nil, nil
	}
	var kept []*compiler.Element
	for _, m := range el.Enclosed() {
		if keep(m) {
			kept = append(kept, m)
		}
	}
	return handlesOf(kept), nil
}

func ofKind(kinds ...string) func(*compiler.Element) bool {
	return func(m *compiler.Element) bool {
		return slices.Contains(kinds, m.Kind())
	}
}

// InnerClasses lists the member classes of a class.
type InnerClasses struct {
	Handle handle.ElementHandle

	Handles []handle.ElementHandle
}

func (*InnerClasses) Name() string          { return "inner-classes" }
func (*InnerClasses) Phase() compiler.Phase { return compiler.PhaseElementsDiscovered }

func (s *InnerClasses) Run(snap *compiler.Snapshot) (err error) {
	s.Handles, err = classMembers(snap, s.Phase(), s.Name(), s.Handle, func(m *compiler.Element) bool {
		return compiler.IsClassKind(m.Kind())
	})
	return err
}

// Methods lists the methods a class declares, including those the compiler
// generates such as an enum's values and valueOf.
type Methods struct {
	Handle handle.ElementHandle

	Handles []handle.ElementHandle
}

func (*Methods) Name() string          { return "methods" }
func (*Methods) Phase() compiler.Phase { return compiler.PhaseElementsResolved }

func (s *Methods) Run(snap *compiler.Snapshot) (err error) {
	s.Handles, err = classMembers(snap, s.Phase(), s.Name(), s.Handle, ofKind(compiler.KindMethod))
	return err
}

// Constructors lists a class's constructors, including an implicit default
// constructor.
type Constructors struct {
	Handle handle.ElementHandle

	Handles []handle.ElementHandle
}

func (*Constructors) Name() string          { return "constructors" }
func (*Constructors) Phase() compiler.Phase { return compiler.PhaseElementsResolved }

func (s *Constructors) Run(snap *compiler.Snapshot) (err error) {
	s.Handles, err = classMembers(snap, s.Phase(), s.Name(), s.Handle, ofKind(compiler.KindConstructor))
	return err
}

// Fields lists the fields and enum constants of a class whose names can be
// referenced from source.
type Fields struct {
	Handle handle.ElementHandle

	Handles []handle.ElementHandle
}

func (*Fields) Name() string          { return "fields" }
func (*Fields) Phase() compiler.Phase { return compiler.PhaseElementsDiscovered }

func (s *Fields) Run(snap *compiler.Snapshot) (err error) {
	isField := ofKind(compiler.KindField, compiler.KindEnumConstant)
	s.Handles, err = classMembers(snap, s.Phase(), s.Name(), s.Handle, func(m *compiler.Element) bool {
		return isField(m) && validIdentifier(m.SimpleName())
	})
	return err
}

// EnumConstants lists the constants of an enum in declaration order.
type EnumConstants struct {
	Handle handle.ElementHandle

	Handles []handle.ElementHandle
}

func (*EnumConstants) Name() string          { return "enum-constants" }
func (*EnumConstants) Phase() compiler.Phase { return compiler.PhaseElementsDiscovered }

func (s *EnumConstants) Run(snap *compiler.Snapshot) (err error) {
	s.Handles, err = classMembers(snap, s.Phase(), s.Name(), s.Handle, ofKind(compiler.KindEnumConstant))
	return err
}

// TypeParameters lists the type parameters of a class, method or
// constructor.
type TypeParameters struct {
	Handle handle.ElementHandle

	Handles []handle.ElementHandle
}

func (*TypeParameters) Name() string          { return "type-parameters" }
func (*TypeParameters) Phase() compiler.Phase { return compiler.PhaseElementsResolved }

func (s *TypeParameters) Run(snap *compiler.Snapshot) error {
	if err := expectKind(s.Name(), s.Handle, handle.Class, handle.Method, handle.Constructor); err != nil {
		return err
	}
	if el := begin(snap, s.Phase(), s.Handle); el != nil {
		s.Handles = handlesOf(el.TypeParameters())
	}
	return nil
}

// ValueParameter describes one parameter of a method or constructor.
type ValueParameter struct {
	Name    string            `json:"name"`
	Type    handle.TypeHandle `json:"type"`
	Varargs bool              `json:"varargs,omitempty"`
	Index   int               `json:"index"`
}

// ValueParameters lists the parameters of a method or constructor.
type ValueParameters struct {
	Handle handle.ElementHandle

	Params []ValueParameter
	Found  bool
}

func (*ValueParameters) Name() string          { return "value-parameters" }
func (*ValueParameters) Phase() compiler.Phase { return compiler.PhaseElementsResolved }

func (s *ValueParameters) Run(snap *compiler.Snapshot) error {
	if err := expectKind(s.Name(), s.Handle, handle.Method, handle.Constructor); err != nil {
		return err
	}
	el := begin(snap, s.Phase(), s.Handle)
	if el == nil {
		return nil
	}
	s.Found = true
	for i, p := range el.Parameters() {
		s.Params = append(s.Params, ValueParameter{
			Name:    p.SimpleName(),
			Type:    handle.FromType(p.Type()),
			Varargs: p.IsVarargs(),
			Index:   i,
		})
	}
	return nil
}
