package interop

import (
	"github.com/jward/interop/internal/handle"
	"github.com/jward/interop/internal/search"
)

// Type is a type use: a declared class with type arguments, an array, a
// wildcard, a type variable, a primitive, or a type the compiler could not
// resolve. Its handle is structural, so two adapters for the same written
// type are Equal even when obtained from different sessions.
type Type struct {
	project *Project
	handle  TypeHandle
}

func (t *Type) Handle() TypeHandle { return t.handle }

func (t *Type) Key() string { return t.handle.Key() }

// String renders the type in Java syntax without querying the compiler.
func (t *Type) String() string { return t.handle.String() }

// Equal reports structural equality; type argument order is significant.
func (t *Type) Equal(o *Type) bool { return o != nil && t.handle.Equal(o.handle) }

// Shape returns the handle's shape.
func (t *Type) Shape() Shape { return t.handle.Shape }

func (t *Type) shape() (*search.TypeShape, error) {
	return run(t.project, &search.TypeShape{Type: t.handle})
}

// Exists reports whether the type still resolves.
func (t *Type) Exists() (bool, error) {
	s, err := t.shape()
	return s.Found, err
}

// Classifier returns the class of a declared type. It is nil for other
// shapes and for classes that no longer exist.
func (t *Type) Classifier() (*Classifier, error) {
	s, err := t.shape()
	if err != nil || !s.Found || s.Shape != ShapeDeclared {
		return nil, err
	}
	return t.project.Classifier(s.Classifier), nil
}

// TypeParameter returns the declaration behind a type variable.
func (t *Type) TypeParameter() (*TypeParameter, error) {
	s, err := t.shape()
	if err != nil || !s.Found || s.Shape != ShapeTypeVariable || s.Classifier.IsZero() {
		return nil, err
	}
	return &TypeParameter{t.project.element(s.Classifier)}, nil
}

// Arguments returns the type arguments of a declared type in declaration
// order.
func (t *Type) Arguments() ([]*Type, error) {
	s, err := t.shape()
	if err != nil {
		return nil, err
	}
	return t.project.types(s.TypeArguments), nil
}

// IsRaw reports whether a declared type uses a generic class without type
// arguments.
func (t *Type) IsRaw() (bool, error) {
	s, err := t.shape()
	return s.IsRaw, err
}

// ArrayComponent returns the component type of an array.
func (t *Type) ArrayComponent() (*Type, error) {
	s, err := t.shape()
	if err != nil || s.ArrayComponent == nil {
		return nil, err
	}
	return t.project.Type(*s.ArrayComponent), nil
}

// WildcardBound returns a wildcard's bound and its variance. An unbounded
// wildcard has a nil bound and Invariant variance.
func (t *Type) WildcardBound() (*Type, Variance, error) {
	s, err := t.shape()
	if err != nil || s.WildcardBound == nil {
		return nil, Invariant, err
	}
	return t.project.Type(*s.WildcardBound), s.Variance, nil
}

// Annotations lists the annotations on the declaration behind the type.
func (t *Type) Annotations() ([]*Annotation, error) {
	s, err := run(t.project, &search.TypeAnnotations{Type: t.handle})
	if err != nil {
		return nil, err
	}
	owner := t.handle.Element
	if t.handle.Shape == ShapeTypeVariable {
		owner = handle.ForTypeParameter(owner, t.handle.Name)
	}
	return t.project.annotations(owner, s.Annotations), nil
}

// Annotation is one annotation use. The arguments are those written at the
// use site; Argument also consults the annotation type's defaults.
type Annotation struct {
	project *Project
	owner   ElementHandle
	value   search.Annotation
}

func (p *Project) annotations(owner ElementHandle, as []search.Annotation) []*Annotation {
	out := make([]*Annotation, len(as))
	for i, a := range as {
		out[i] = &Annotation{project: p, owner: owner, value: a}
	}
	return out
}

// Type returns the annotation type.
func (a *Annotation) Type() *Type { return a.project.Type(a.value.Type) }

// QualifiedName returns the annotation type's name.
func (a *Annotation) QualifiedName() string { return a.value.Type.Element.QualifiedName }

// Arguments returns the written arguments in source order.
func (a *Annotation) Arguments() []NamedArgument { return a.value.Args }

// Argument returns the value of the named element. An argument omitted at
// the use site yields the annotation type's default with defaulted set. A
// missing element yields a nil argument.
func (a *Annotation) Argument(name string) (arg AnnotationArgument, defaulted bool, err error) {
	if v, ok := a.value.Arg(name); ok {
		return v, false, nil
	}
	if a.owner.IsZero() || a.value.Type.Shape != ShapeDeclared {
		return nil, false, nil
	}
	s, err := run(a.project, &search.AnnotationArgument{
		Owner:          a.owner,
		AnnotationType: a.value.Type.Element,
		Element:        name,
	})
	if err != nil || !s.Found {
		return nil, false, err
	}
	return s.Argument, s.Defaulted, nil
}
