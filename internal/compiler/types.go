package compiler

import "strings"

// TypeKind classifies a TypeMirror.
type TypeKind int

const (
	TypeDeclared TypeKind = iota
	TypeArray
	TypeWildcard
	TypeVar
	TypePrimitive
	TypeError
)

// TypeMirror is a native type valid for the lifetime of one snapshot.
type TypeMirror interface {
	Kind() TypeKind
	String() string
}

// DeclaredType is a use of a class or interface, with type arguments when
// written.
type DeclaredType struct {
	Element *Element
	Args    []TypeMirror
}

func (t *DeclaredType) Kind() TypeKind { return TypeDeclared }

func (t *DeclaredType) String() string {
	name := t.Element.QualifiedName()
	if len(t.Args) == 0 {
		return name
	}
	return name + "<" + joinTypes(t.Args) + ">"
}

// IsRaw reports whether the type omits the type arguments of a generic
// declaration.
func (t *DeclaredType) IsRaw() bool {
	return len(t.Args) == 0 && len(t.Element.TypeParameters()) > 0
}

type ArrayType struct {
	Component TypeMirror
}

func (t *ArrayType) Kind() TypeKind { return TypeArray }
func (t *ArrayType) String() string { return t.Component.String() + "[]" }

// WildcardType is "?", "? extends Bound" or "? super Bound".
type WildcardType struct {
	Bound TypeMirror
	Super bool
}

func (t *WildcardType) Kind() TypeKind { return TypeWildcard }

func (t *WildcardType) String() string {
	switch {
	case t.Bound == nil:
		return "?"
	case t.Super:
		return "? super " + t.Bound.String()
	default:
		return "? extends " + t.Bound.String()
	}
}

// TypeVariable is a use of a declared type parameter.
type TypeVariable struct {
	Element *Element
}

func (t *TypeVariable) Kind() TypeKind { return TypeVar }
func (t *TypeVariable) String() string { return t.Element.SimpleName() }

// PrimitiveType covers the eight primitive types and void.
type PrimitiveType struct {
	Name string
}

func (t *PrimitiveType) Kind() TypeKind { return TypePrimitive }
func (t *PrimitiveType) String() string { return t.Name }

// ErrorType stands in for a name that did not resolve in the snapshot.
type ErrorType struct {
	Name string
}

func (t *ErrorType) Kind() TypeKind { return TypeError }
func (t *ErrorType) String() string { return t.Name }

func joinTypes(ts []TypeMirror) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ",")
}

// Erasure returns the erased type name used in member signatures. A type
// variable whose bounds lead back to itself erases to java.lang.Object.
func Erasure(t TypeMirror) string {
	return erasure(t, nil)
}

func erasure(t TypeMirror, seen map[int64]bool) string {
	switch t := t.(type) {
	case *DeclaredType:
		return t.Element.QualifiedName()
	case *ArrayType:
		return erasure(t.Component, seen) + "[]"
	case *TypeVariable:
		id := t.Element.row.ID
		if seen[id] {
			return objectName
		}
		bounds := t.Element.Bounds()
		if len(bounds) == 0 {
			return objectName
		}
		if seen == nil {
			seen = make(map[int64]bool)
		}
		seen[id] = true
		return erasure(bounds[0], seen)
	case *WildcardType:
		if t.Bound == nil || t.Super {
			return objectName
		}
		return erasure(t.Bound, seen)
	case nil:
		return ""
	default:
		return t.String()
	}
}
