package search

import (
	"encoding/json"

	"github.com/jward/interop/internal/compiler"
	"github.com/jward/interop/internal/handle"
)

// Argument is one node of an annotation argument tree. The variants are
// Literal, ClassObject, Reference, NestedAnnotation, ArrayArg and
// Unresolved.
type Argument interface {
	argument()
}

// Literal is a primitive, string or null constant. Value holds int32,
// int64, float32, float64, rune, bool, string, or nil.
type Literal struct {
	Value any
}

// ClassObject is a class literal, such as String.class.
type ClassObject struct {
	Type handle.TypeHandle
}

// Reference names an enum constant or constant field.
type Reference struct {
	Element handle.ElementHandle
}

// NestedAnnotation is an annotation used as an argument.
type NestedAnnotation struct {
	Type handle.TypeHandle
	Args []NamedArgument
}

// ArrayArg is a braced array initializer. A single value written without
// braces stays a scalar node.
type ArrayArg struct {
	Items []Argument
}

// Unresolved is an argument expression that is not a compile-time constant
// the snapshot could evaluate, or that names something missing.
type Unresolved struct {
	Text string
}

func (Literal) argument()          {}
func (ClassObject) argument()      {}
func (Reference) argument()        {}
func (NestedAnnotation) argument() {}
func (ArrayArg) argument()         {}
func (Unresolved) argument()       {}

func (a Literal) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind  string `json:"kind"`
		Value any    `json:"value"`
	}{"literal", a.Value})
}

func (a ClassObject) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind string            `json:"kind"`
		Type handle.TypeHandle `json:"type"`
	}{"class", a.Type})
}

func (a Reference) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind    string               `json:"kind"`
		Element handle.ElementHandle `json:"element"`
	}{"reference", a.Element})
}

func (a NestedAnnotation) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind string            `json:"kind"`
		Type handle.TypeHandle `json:"type"`
		Args []NamedArgument   `json:"args"`
	}{"annotation", a.Type, a.Args})
}

func (a ArrayArg) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind  string     `json:"kind"`
		Items []Argument `json:"items"`
	}{"array", a.Items})
}

func (a Unresolved) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind string `json:"kind"`
		Text string `json:"text"`
	}{"unresolved", a.Text})
}

// NamedArgument pairs an annotation element name with its value.
type NamedArgument struct {
	Name  string   `json:"name"`
	Value Argument `json:"value"`
}

// Annotation is one annotation use with the arguments written at the use
// site, in source order. Defaults are not filled in.
type Annotation struct {
	Type handle.TypeHandle `json:"type"`
	Args []NamedArgument   `json:"args,omitempty"`
}

// Arg returns the argument written for name.
func (a Annotation) Arg(name string) (Argument, bool) {
	for _, na := range a.Args {
		if na.Name == name {
			return na.Value, true
		}
	}
	return nil, false
}

func convertAnnotation(m *compiler.AnnotationMirror) Annotation {
	a := Annotation{Type: handle.FromType(m.Type)}
	for _, v := range m.Values {
		a.Args = append(a.Args, NamedArgument{Name: v.Name, Value: convertArgument(v.Value)})
	}
	return a
}

func convertArgument(v compiler.AnnotationValue) Argument {
	switch v := v.(type) {
	case compiler.ConstantValue:
		return Literal{Value: v.Value}
	case compiler.ClassValue:
		th := handle.FromType(v.Type)
		if th.IsZero() {
			return Unresolved{Text: v.Type.String() + ".class"}
		}
		return ClassObject{Type: th}
	case compiler.ReferenceValue:
		h, ok := handle.FromElement(v.Element)
		if !ok {
			return Unresolved{Text: v.Element.SimpleName()}
		}
		return Reference{Element: h}
	case *compiler.AnnotationMirror:
		a := convertAnnotation(v)
		return NestedAnnotation{Type: a.Type, Args: a.Args}
	case compiler.ArrayValue:
		items := make([]Argument, 0, len(v.Items))
		for _, it := range v.Items {
			items = append(items, convertArgument(it))
		}
		return ArrayArg{Items: items}
	case compiler.UnresolvedValue:
		return Unresolved{Text: v.Text}
	}
	return nil
}

// Annotations lists the annotations on a declaration, each with its
// argument tree.
type Annotations struct {
	Handle handle.ElementHandle

	Annotations []Annotation
}

func (*Annotations) Name() string          { return "annotations" }
func (*Annotations) Phase() compiler.Phase { return compiler.PhaseFullyResolved }

func (s *Annotations) Run(snap *compiler.Snapshot) error {
	if el := begin(snap, s.Phase(), s.Handle); el != nil {
		s.Annotations = annotationsOf(el)
	}
	return nil
}

func annotationsOf(el *compiler.Element) []Annotation {
	mirrors := el.Annotations()
	out := make([]Annotation, 0, len(mirrors))
	for _, m := range mirrors {
		out = append(out, convertAnnotation(m))
	}
	return out
}

// TypeAnnotations lists the annotations on the declaration behind a type:
// the class of a declared type or the type parameter of a type variable.
// Other shapes have none.
type TypeAnnotations struct {
	Type handle.TypeHandle

	Annotations []Annotation
}

func (*TypeAnnotations) Name() string          { return "type-annotations" }
func (*TypeAnnotations) Phase() compiler.Phase { return compiler.PhaseFullyResolved }

func (s *TypeAnnotations) Run(snap *compiler.Snapshot) error {
	snap.ToPhase(s.Phase())
	t, ok := s.Type.Resolve(snap)
	if !ok {
		return nil
	}
	switch t := t.(type) {
	case *compiler.DeclaredType:
		s.Annotations = annotationsOf(t.Element)
	case *compiler.TypeVariable:
		s.Annotations = annotationsOf(t.Element)
	}
	return nil
}

// AnnotationArgument resolves one argument of the annotation of type
// AnnotationType on Owner. When the use site omits the argument, the
// annotation type element's default is reported with Defaulted set.
type AnnotationArgument struct {
	Owner          handle.ElementHandle
	AnnotationType handle.ElementHandle
	Element        string

	Argument  Argument
	Defaulted bool
	Found     bool
}

func (*AnnotationArgument) Name() string          { return "annotation-argument" }
func (*AnnotationArgument) Phase() compiler.Phase { return compiler.PhaseFullyResolved }

func (s *AnnotationArgument) Run(snap *compiler.Snapshot) error {
	if err := expectKind(s.Name(), s.AnnotationType, handle.Class); err != nil {
		return err
	}
	owner := begin(snap, s.Phase(), s.Owner)
	if owner == nil {
		return nil
	}
	for _, m := range owner.Annotations() {
		decl := m.TypeElement()
		if decl == nil || decl.QualifiedName() != s.AnnotationType.QualifiedName {
			continue
		}
		if v, ok := m.Value(s.Element); ok {
			s.Argument, s.Found = convertArgument(v), true
			return nil
		}
		for _, member := range decl.Enclosed() {
			if member.Kind() != compiler.KindMethod || member.SimpleName() != s.Element {
				continue
			}
			if def := member.DefaultValue(); def != nil {
				s.Argument, s.Defaulted, s.Found = convertArgument(def), true, true
			}
			return nil
		}
		return nil
	}
	return nil
}
