package compiler

import (
	"github.com/jward/interop/internal/store"
)

// Element kinds as recorded in the index.
const (
	KindPackage        = "package"
	KindClass          = "class"
	KindInterface      = "interface"
	KindEnum           = "enum"
	KindAnnotationType = "annotation_type"
	KindRecord         = "record"
	KindMethod         = "method"
	KindConstructor    = "constructor"
	KindField          = "field"
	KindEnumConstant   = "enum_constant"
	KindTypeParameter  = "type_parameter"
	KindParameter      = "parameter"
)

// Modifier keywords.
const (
	ModPublic       = "public"
	ModProtected    = "protected"
	ModPrivate      = "private"
	ModStatic       = "static"
	ModFinal        = "final"
	ModAbstract     = "abstract"
	ModDefault      = "default"
	ModNative       = "native"
	ModSynchronized = "synchronized"
	ModTransient    = "transient"
	ModVolatile     = "volatile"
	ModStrictfp     = "strictfp"
	ModSealed       = "sealed"
	ModNonSealed    = "non-sealed"
)

// ConstructorName is the simple name recorded for constructors.
const ConstructorName = "<init>"

const (
	relationSuperclass = "superclass"
	relationInterface  = "interface"
)

const objectName = "java.lang.Object"

// IsClassKind reports whether kind names a class-like declaration.
func IsClassKind(kind string) bool {
	switch kind {
	case KindClass, KindInterface, KindEnum, KindAnnotationType, KindRecord:
		return true
	}
	return false
}

// Element is a native declaration bound to the snapshot that produced it.
// Every method panics with a *UsageError once that snapshot's round has
// ended.
type Element struct {
	snap *Snapshot
	row  *store.Element // nil for packages
	pkg  string         // package name for package elements
}

func (e *Element) check(op string) {
	e.snap.check(op)
}

// Kind returns the element kind.
func (e *Element) Kind() string {
	e.check("Kind")
	if e.row == nil {
		return KindPackage
	}
	return e.row.Kind
}

// SimpleName returns the declared name; "<init>" for constructors and the
// last segment for packages.
func (e *Element) SimpleName() string {
	e.check("SimpleName")
	if e.row == nil {
		return lastSegment(e.pkg)
	}
	return e.row.Name
}

// QualifiedName returns the canonical name of a class or package, or the
// simple name of any other element.
func (e *Element) QualifiedName() string {
	e.check("QualifiedName")
	if e.row == nil {
		return e.pkg
	}
	if e.row.QualifiedName != "" {
		return e.row.QualifiedName
	}
	return e.row.Name
}

// Modifiers returns the explicit and implicit modifiers.
func (e *Element) Modifiers() []string {
	e.check("Modifiers")
	if e.row == nil {
		return nil
	}
	return e.row.Modifiers
}

// HasModifier reports whether m is among the element's modifiers.
func (e *Element) HasModifier(m string) bool {
	return containsString(e.Modifiers(), m)
}

// IsVarargs reports whether a parameter is variadic, or whether a method's
// last parameter is.
func (e *Element) IsVarargs() bool {
	e.check("IsVarargs")
	if e.row == nil {
		return false
	}
	switch e.row.Kind {
	case KindParameter:
		return e.row.Varargs
	case KindMethod, KindConstructor:
		params := e.Parameters()
		return len(params) > 0 && params[len(params)-1].row.Varargs
	}
	return false
}

// IsGenerated reports whether the compiler supplied the member rather than
// the source: default constructors, enum values and valueOf, record
// accessors and canonical constructors, and their parameters.
func (e *Element) IsGenerated() bool {
	e.check("IsGenerated")
	if e.row == nil || e.row.ParentID == nil {
		return false
	}
	return e.row.EndLine == 0 && e.row.EndCol == 0
}

// Package returns the name of the package the element is declared in.
func (e *Element) Package() string {
	e.check("Package")
	if e.row == nil {
		return e.pkg
	}
	return e.snap.fileOf(e.row.FileID).Package
}

// Enclosing returns the enclosing element: the owner of a member, the outer
// class of a nested class, or the package of a top-level class. Packages
// have no enclosing element.
func (e *Element) Enclosing() *Element {
	e.check("Enclosing")
	if e.row == nil {
		return nil
	}
	if e.row.ParentID != nil {
		return e.snap.element(*e.row.ParentID)
	}
	return e.snap.packageElement(e.Package())
}

// Enclosed returns member declarations in declaration order: fields, enum
// constants, methods, constructors and member classes. Packages return their
// top-level classes.
func (e *Element) Enclosed() []*Element {
	e.check("Enclosed")
	if e.row == nil {
		rows, err := e.snap.st.TopLevelClasses(e.pkg)
		e.snap.must("Enclosed", err)
		return e.snap.wrap(rows)
	}
	rows, err := e.snap.st.ElementChildrenByKind(e.row.ID,
		KindField, KindEnumConstant, KindMethod, KindConstructor,
		KindClass, KindInterface, KindEnum, KindAnnotationType, KindRecord)
	e.snap.must("Enclosed", err)
	return e.snap.wrap(rows)
}

// TypeParameters returns the declared type parameters of a class, method or
// constructor.
func (e *Element) TypeParameters() []*Element {
	e.check("TypeParameters")
	if e.row == nil {
		return nil
	}
	rows, err := e.snap.st.ElementChildrenByKind(e.row.ID, KindTypeParameter)
	e.snap.must("TypeParameters", err)
	return e.snap.wrap(rows)
}

// Parameters returns the value parameters of a method or constructor.
func (e *Element) Parameters() []*Element {
	e.check("Parameters")
	if e.row == nil {
		return nil
	}
	rows, err := e.snap.st.ElementChildrenByKind(e.row.ID, KindParameter)
	e.snap.must("Parameters", err)
	return e.snap.wrap(rows)
}

// Superclass returns the direct superclass, or nil for interfaces,
// annotation types and java.lang.Object. Requires PhaseElementsResolved.
func (e *Element) Superclass() TypeMirror {
	e.snap.require("Superclass", PhaseElementsResolved)
	if e.row == nil || !IsClassKind(e.row.Kind) {
		return nil
	}
	for _, st := range e.snap.supertypeRows(e.row.ID) {
		if st.Relation == relationSuperclass {
			return e.snap.resolveType(e, decodeTypeSyntax(st.TypeSyntax), true)
		}
	}
	switch e.row.Kind {
	case KindClass:
		if e.row.QualifiedName == objectName {
			return nil
		}
		return e.snap.declaredByName(objectName)
	case KindEnum:
		enum := e.snap.TypeElement("java.lang.Enum")
		if enum == nil {
			return &ErrorType{Name: "java.lang.Enum"}
		}
		return &DeclaredType{Element: enum, Args: []TypeMirror{&DeclaredType{Element: e}}}
	case KindRecord:
		return e.snap.declaredByName("java.lang.Record")
	}
	return nil
}

// Interfaces returns the directly implemented or extended interfaces.
// Requires PhaseElementsResolved.
func (e *Element) Interfaces() []TypeMirror {
	e.snap.require("Interfaces", PhaseElementsResolved)
	if e.row == nil || !IsClassKind(e.row.Kind) {
		return nil
	}
	var out []TypeMirror
	for _, st := range e.snap.supertypeRows(e.row.ID) {
		if st.Relation == relationInterface {
			out = append(out, e.snap.resolveType(e, decodeTypeSyntax(st.TypeSyntax), true))
		}
	}
	if e.row.Kind == KindAnnotationType && len(out) == 0 {
		out = append(out, e.snap.declaredByName("java.lang.annotation.Annotation"))
	}
	return out
}

// Type returns the declared type of a field, enum constant or parameter.
// Requires PhaseElementsResolved.
func (e *Element) Type() TypeMirror {
	e.snap.require("Type", PhaseElementsResolved)
	if e.row == nil {
		return nil
	}
	switch e.row.Kind {
	case KindField, KindEnumConstant, KindParameter:
		return e.snap.resolveType(e, decodeTypeSyntax(e.row.TypeSyntax), false)
	}
	return nil
}

// ReturnType returns the return type of a method. Requires
// PhaseElementsResolved.
func (e *Element) ReturnType() TypeMirror {
	e.snap.require("ReturnType", PhaseElementsResolved)
	if e.row == nil || e.row.Kind != KindMethod {
		return nil
	}
	return e.snap.resolveType(e, decodeTypeSyntax(e.row.TypeSyntax), false)
}

// Bounds returns the declared upper bounds of a type parameter. Requires
// PhaseElementsResolved.
func (e *Element) Bounds() []TypeMirror {
	e.snap.require("Bounds", PhaseElementsResolved)
	if e.row == nil || e.row.Kind != KindTypeParameter {
		return nil
	}
	rows, err := e.snap.st.TypeBounds(e.row.ID)
	e.snap.must("Bounds", err)
	owner := e.Enclosing()
	out := make([]TypeMirror, 0, len(rows))
	for _, b := range rows {
		out = append(out, e.snap.resolveType(owner, decodeTypeSyntax(b.TypeSyntax), false))
	}
	return out
}

// Annotations returns the declaration annotations. Requires
// PhaseFullyResolved.
func (e *Element) Annotations() []*AnnotationMirror {
	e.snap.require("Annotations", PhaseFullyResolved)
	if e.row == nil {
		return nil
	}
	rows, err := e.snap.st.Annotations(e.row.ID)
	e.snap.must("Annotations", err)
	out := make([]*AnnotationMirror, 0, len(rows))
	for _, a := range rows {
		out = append(out, e.snap.annotationMirror(e, a.Name, decodeNamedValues(a.Arguments)))
	}
	return out
}

// DefaultValue returns the default of an annotation type element, or nil.
// Requires PhaseFullyResolved.
func (e *Element) DefaultValue() AnnotationValue {
	e.snap.require("DefaultValue", PhaseFullyResolved)
	if e.row == nil || e.row.DefaultValue == "" {
		return nil
	}
	return e.snap.annotationValue(e, decodeValueSyntax(e.row.DefaultValue))
}

// Location is a declaration's position in its source file. Lines and
// columns are 0-based.
type Location struct {
	Path      string
	Origin    store.Origin
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

// Location returns where the element is declared. Packages have no location.
func (e *Element) Location() (Location, bool) {
	e.check("Location")
	if e.row == nil {
		return Location{}, false
	}
	f := e.snap.fileOf(e.row.FileID)
	return Location{
		Path:      f.Path,
		Origin:    f.Origin,
		StartLine: e.row.StartLine,
		StartCol:  e.row.StartCol,
		EndLine:   e.row.EndLine,
		EndCol:    e.row.EndCol,
	}, true
}

// Same reports whether two elements denote the same declaration.
func (e *Element) Same(o *Element) bool {
	if e == nil || o == nil {
		return e == o
	}
	if e.row == nil || o.row == nil {
		return e.row == nil && o.row == nil && e.pkg == o.pkg
	}
	return e.row.ID == o.row.ID
}

func lastSegment(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[i+1:]
		}
	}
	return name
}
