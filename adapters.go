package interop

import (
	"github.com/jward/interop/internal/search"
)

// Adapter is implemented by every element adapter.
type Adapter interface {
	Handle() ElementHandle
	Key() string
	SimpleName() (string, error)
}

// element is the part shared by every element adapter: a project and a
// handle. It holds no compiler state; every accessor runs a new query.
type element struct {
	project *Project
	handle  ElementHandle
}

func (e element) Handle() ElementHandle { return e.handle }

// Key is the handle's canonical string; equal keys denote the same
// declaration.
func (e element) Key() string { return e.handle.Key() }

func (e element) String() string { return e.handle.Key() }

// SimpleName returns the declared name, or "" when the element no longer
// exists.
func (e element) SimpleName() (string, error) {
	s, err := run(e.project, &search.SimpleName{Handle: e.handle})
	return s.Value, err
}

// Exists reports whether the element resolves in the current snapshot.
func (e element) Exists() (bool, error) {
	s, err := run(e.project, &search.SimpleName{Handle: e.handle})
	return s.Found, err
}

// Info reports the native kind and source location.
func (e element) Info() (ElementInfo, error) {
	s, err := run(e.project, &search.ElementInfo{Handle: e.handle})
	if err != nil || !s.Found {
		return ElementInfo{}, err
	}
	return ElementInfo{
		Kind:      s.Kind,
		Path:      s.Path,
		Origin:    string(s.Origin),
		Line:      s.Line,
		Generated: s.Generated,
	}, nil
}

// Annotations lists the element's annotations.
func (e element) Annotations() ([]*Annotation, error) {
	s, err := run(e.project, &search.Annotations{Handle: e.handle})
	if err != nil {
		return nil, err
	}
	return e.project.annotations(e.handle, s.Annotations), nil
}

// ElementInfo describes where and what an element is.
type ElementInfo struct {
	Kind      string `json:"kind"`
	Path      string `json:"path,omitempty"`
	Origin    string `json:"origin,omitempty"`
	Line      int    `json:"line,omitempty"`
	Generated bool   `json:"generated,omitempty"`
}

// member adds the accessors of declarations that carry modifiers.
type member struct{ element }

func (m member) Modifiers() (ModifierSet, error) {
	s, err := run(m.project, &search.Modifiers{Handle: m.handle})
	return s.Set, err
}

func (m member) Visibility() (Visibility, error) {
	s, err := run(m.project, &search.GetVisibility{Handle: m.handle})
	return s.Visibility, err
}

// Owner returns the class declaring a member, or the enclosing class of a
// nested class. It is nil for top-level classes.
func (m member) Owner() (*Classifier, error) {
	s, err := run(m.project, &search.OuterClass{Handle: m.handle})
	if err != nil || !s.Found {
		return nil, err
	}
	return m.project.Classifier(s.Outer), nil
}

// Classifier is a class, interface, enum, annotation type or record.
type Classifier struct{ element }

// QualifiedName is the canonical name the handle was built from.
func (c *Classifier) QualifiedName() string { return c.handle.QualifiedName }

// Equal reports whether both adapters denote the same class.
func (c *Classifier) Equal(o *Classifier) bool { return o != nil && c.handle == o.handle }

func (c *Classifier) Modifiers() (ModifierSet, error) { return member(*c).Modifiers() }
func (c *Classifier) Visibility() (Visibility, error) { return member(*c).Visibility() }

// Outer returns the enclosing class of a nested class.
func (c *Classifier) Outer() (*Classifier, error) { return member(*c).Owner() }

// ClassKind returns "class", "interface", "enum", "annotation_type" or
// "record"; "" when the class no longer exists.
func (c *Classifier) ClassKind() (string, error) {
	s, err := run(c.project, &search.ElementInfo{Handle: c.handle})
	return s.ClassKind, err
}

// Supertypes returns the direct supertypes, the superclass first. A class
// without declared supertypes reports java.lang.Object.
func (c *Classifier) Supertypes() ([]*Type, error) {
	s, err := run(c.project, &search.Supertypes{Handle: c.handle})
	if err != nil {
		return nil, err
	}
	return c.project.types(s.Types), nil
}

func (c *Classifier) InnerClasses() ([]*Classifier, error) {
	s, err := run(c.project, &search.InnerClasses{Handle: c.handle})
	if err != nil {
		return nil, err
	}
	out := make([]*Classifier, len(s.Handles))
	for i, h := range s.Handles {
		out[i] = c.project.Classifier(h)
	}
	return out, nil
}

func (c *Classifier) Methods() ([]*Method, error) {
	s, err := run(c.project, &search.Methods{Handle: c.handle})
	if err != nil {
		return nil, err
	}
	out := make([]*Method, len(s.Handles))
	for i, h := range s.Handles {
		out[i] = &Method{c.project.element(h)}
	}
	return out, nil
}

func (c *Classifier) Constructors() ([]*Constructor, error) {
	s, err := run(c.project, &search.Constructors{Handle: c.handle})
	if err != nil {
		return nil, err
	}
	out := make([]*Constructor, len(s.Handles))
	for i, h := range s.Handles {
		out[i] = &Constructor{c.project.element(h)}
	}
	return out, nil
}

// Fields lists fields and enum constants.
func (c *Classifier) Fields() ([]*Field, error) {
	s, err := run(c.project, &search.Fields{Handle: c.handle})
	if err != nil {
		return nil, err
	}
	return c.project.fields(s.Handles), nil
}

func (c *Classifier) EnumConstants() ([]*Field, error) {
	s, err := run(c.project, &search.EnumConstants{Handle: c.handle})
	if err != nil {
		return nil, err
	}
	return c.project.fields(s.Handles), nil
}

func (c *Classifier) TypeParameters() ([]*TypeParameter, error) {
	return typeParameters(c.element)
}

// NestedID computes the package and nesting chain of the class. ok is
// false when the class no longer exists.
func (c *Classifier) NestedID() (id ClassID, ok bool, err error) {
	s, err := run(c.project, &search.NestedClassID{Handle: c.handle})
	return s.ID, s.Found, err
}

// FindMember locates the member matching an analyzer-side descriptor by
// name and kind. arity narrows methods and constructors; -1 matches any.
func (c *Classifier) FindMember(name string, kind Kind, arity int) (Adapter, error) {
	s, err := run(c.project, &search.FindMember{Owner: c.handle, Member: name, Kind: kind, Arity: arity})
	if err != nil || !s.Found {
		return nil, err
	}
	return c.project.Element(s.Handle)
}

// DefaultType is the class used as a type with no type arguments.
func (c *Classifier) DefaultType() *Type {
	return c.project.Type(TypeHandle{Shape: ShapeDeclared, Element: c.handle})
}

// Method is a method declaration.
type Method struct{ element }

func (m *Method) Equal(o *Method) bool { return o != nil && m.handle == o.handle }

func (m *Method) Modifiers() (ModifierSet, error) { return member(*m).Modifiers() }
func (m *Method) Visibility() (Visibility, error) { return member(*m).Visibility() }
func (m *Method) Owner() (*Classifier, error)     { return member(*m).Owner() }

func (m *Method) ReturnType() (*Type, error) {
	s, err := run(m.project, &search.ReturnType{Handle: m.handle})
	if err != nil || !s.Found {
		return nil, err
	}
	return m.project.Type(s.Type), nil
}

func (m *Method) ValueParameters() ([]*ValueParameter, error) { return valueParameters(m.element) }
func (m *Method) TypeParameters() ([]*TypeParameter, error)   { return typeParameters(m.element) }

// Constructor is a constructor declaration.
type Constructor struct{ element }

func (c *Constructor) Equal(o *Constructor) bool { return o != nil && c.handle == o.handle }

func (c *Constructor) Modifiers() (ModifierSet, error) { return member(*c).Modifiers() }
func (c *Constructor) Visibility() (Visibility, error) { return member(*c).Visibility() }
func (c *Constructor) Owner() (*Classifier, error)     { return member(*c).Owner() }

func (c *Constructor) ValueParameters() ([]*ValueParameter, error) { return valueParameters(c.element) }
func (c *Constructor) TypeParameters() ([]*TypeParameter, error)   { return typeParameters(c.element) }

// Field is a field or enum constant.
type Field struct{ element }

func (f *Field) Equal(o *Field) bool { return o != nil && f.handle == o.handle }

func (f *Field) Modifiers() (ModifierSet, error) { return member(*f).Modifiers() }
func (f *Field) Visibility() (Visibility, error) { return member(*f).Visibility() }
func (f *Field) Owner() (*Classifier, error)     { return member(*f).Owner() }

func (f *Field) Type() (*Type, error) {
	s, err := run(f.project, &search.FieldType{Handle: f.handle})
	if err != nil || !s.Found {
		return nil, err
	}
	return f.project.Type(s.Type), nil
}

// ValueParameter is one parameter of a method or constructor. Parameters
// have no handle of their own; they are read with their executable.
type ValueParameter struct {
	Name    string
	Type    *Type
	Varargs bool
	Index   int
}

func valueParameters(e element) ([]*ValueParameter, error) {
	s, err := run(e.project, &search.ValueParameters{Handle: e.handle})
	if err != nil {
		return nil, err
	}
	out := make([]*ValueParameter, len(s.Params))
	for i, p := range s.Params {
		out[i] = &ValueParameter{Name: p.Name, Type: e.project.Type(p.Type), Varargs: p.Varargs, Index: p.Index}
	}
	return out, nil
}

// TypeParameter is a type parameter of a class, method or constructor.
type TypeParameter struct{ element }

func (t *TypeParameter) Equal(o *TypeParameter) bool { return o != nil && t.handle == o.handle }

// Bounds returns the upper bounds; java.lang.Object when unbounded.
func (t *TypeParameter) Bounds() ([]*Type, error) {
	s, err := run(t.project, &search.TypeParameterBounds{Handle: t.handle})
	if err != nil {
		return nil, err
	}
	return t.project.types(s.Bounds), nil
}

func typeParameters(e element) ([]*TypeParameter, error) {
	s, err := run(e.project, &search.TypeParameters{Handle: e.handle})
	if err != nil {
		return nil, err
	}
	out := make([]*TypeParameter, len(s.Handles))
	for i, h := range s.Handles {
		out[i] = &TypeParameter{e.project.element(h)}
	}
	return out, nil
}

// Package is a Java package.
type Package struct{ element }

func (p *Package) QualifiedName() string { return p.handle.QualifiedName }

func (p *Package) Equal(o *Package) bool { return o != nil && p.handle == o.handle }

// Classes lists the package's top-level classes.
func (p *Package) Classes() ([]*Classifier, error) {
	s, err := run(p.project, &search.PackageContents{Handle: p.handle})
	if err != nil {
		return nil, err
	}
	out := make([]*Classifier, len(s.Classes))
	for i, h := range s.Classes {
		out[i] = p.project.Classifier(h)
	}
	return out, nil
}

// SubPackages lists the direct subpackages.
func (p *Package) SubPackages() ([]*Package, error) {
	s, err := run(p.project, &search.PackageContents{Handle: p.handle})
	if err != nil {
		return nil, err
	}
	out := make([]*Package, len(s.SubPackages))
	for i, h := range s.SubPackages {
		out[i] = p.project.Package(h)
	}
	return out, nil
}

func (p *Project) types(hs []TypeHandle) []*Type {
	out := make([]*Type, len(hs))
	for i, h := range hs {
		out[i] = p.Type(h)
	}
	return out
}

func (p *Project) fields(hs []ElementHandle) []*Field {
	out := make([]*Field, len(hs))
	for i, h := range hs {
		out[i] = &Field{p.element(h)}
	}
	return out
}
