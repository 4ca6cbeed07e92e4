// Package handle provides durable identities for declarations and types
// owned by the compiler. A handle holds names only; it is re-resolved against
// each snapshot it is used with.
package handle

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jward/interop/internal/compiler"
)

// Kind is the kind of declaration an ElementHandle denotes.
type Kind int

const (
	Class Kind = iota + 1
	Method
	Field
	Constructor
	Package
	TypeParameter
)

var kindNames = map[Kind]string{
	Class:         "class",
	Method:        "method",
	Field:         "field",
	Constructor:   "constructor",
	Package:       "package",
	TypeParameter: "type-parameter",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(b []byte) error {
	kind, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// ParseKind maps a kind name back to its Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown element kind %q", s)
}

// ElementHandle identifies a declaration by kind and encoded name. Two
// handles are the same declaration exactly when they are ==.
//
// Encodings:
//
//	package          java.util
//	class            java.util.Map.Entry
//	field            java.util.Map#size
//	method           java.util.Map#put(java.lang.Object,java.lang.Object)
//	constructor      java.lang.String#<init>(char[])
//	type parameter   java.util.Map!K, java.util.List#of(java.lang.Object[])!E
type ElementHandle struct {
	Kind          Kind   `json:"kind"`
	QualifiedName string `json:"name"`
}

func ForClass(qualifiedName string) ElementHandle {
	return ElementHandle{Kind: Class, QualifiedName: qualifiedName}
}

func ForPackage(name string) ElementHandle {
	return ElementHandle{Kind: Package, QualifiedName: name}
}

func ForField(owner ElementHandle, name string) ElementHandle {
	return ElementHandle{Kind: Field, QualifiedName: owner.QualifiedName + "#" + name}
}

// ForMethod builds a method handle from the erased parameter types.
func ForMethod(owner ElementHandle, name string, erasures ...string) ElementHandle {
	return ElementHandle{Kind: Method, QualifiedName: owner.QualifiedName + "#" + name + "(" + strings.Join(erasures, ",") + ")"}
}

func ForConstructor(owner ElementHandle, erasures ...string) ElementHandle {
	h := ForMethod(owner, compiler.ConstructorName, erasures...)
	h.Kind = Constructor
	return h
}

func ForTypeParameter(owner ElementHandle, name string) ElementHandle {
	return ElementHandle{Kind: TypeParameter, QualifiedName: owner.QualifiedName + "!" + name}
}

// IsZero reports whether h is the zero handle.
func (h ElementHandle) IsZero() bool { return h == ElementHandle{} }

// Key is a canonical string form, unique across kinds.
func (h ElementHandle) Key() string { return h.Kind.String() + ":" + h.QualifiedName }

func (h ElementHandle) String() string { return h.Key() }

// Parse reads a handle back from its Key form.
func Parse(key string) (ElementHandle, error) {
	kind, name, ok := strings.Cut(key, ":")
	if !ok || name == "" {
		return ElementHandle{}, fmt.Errorf("malformed handle %q", key)
	}
	k, err := ParseKind(kind)
	if err != nil {
		return ElementHandle{}, err
	}
	return ElementHandle{Kind: k, QualifiedName: name}, nil
}

// Owner derives the declaration that owns h: the class of a member, the
// declaring class or executable of a type parameter. Classes and packages
// have no owner.
func (h ElementHandle) Owner() (ElementHandle, bool) {
	switch h.Kind {
	case Field, Method, Constructor:
		i := strings.IndexByte(h.QualifiedName, '#')
		if i < 0 {
			return ElementHandle{}, false
		}
		return ForClass(h.QualifiedName[:i]), true
	case TypeParameter:
		i := strings.LastIndexByte(h.QualifiedName, '!')
		if i < 0 {
			return ElementHandle{}, false
		}
		owner := h.QualifiedName[:i]
		j := strings.IndexByte(owner, '#')
		switch {
		case j < 0:
			return ForClass(owner), true
		case strings.HasPrefix(owner[j+1:], compiler.ConstructorName+"("):
			return ElementHandle{Kind: Constructor, QualifiedName: owner}, true
		default:
			return ElementHandle{Kind: Method, QualifiedName: owner}, true
		}
	}
	return ElementHandle{}, false
}

// SimpleName is the declared name: the last segment of a class or package,
// the member name, "<init>" for constructors.
func (h ElementHandle) SimpleName() string {
	n := h.QualifiedName
	switch h.Kind {
	case Field:
		return n[strings.IndexByte(n, '#')+1:]
	case Method, Constructor:
		n = n[strings.IndexByte(n, '#')+1:]
		if i := strings.IndexByte(n, '('); i >= 0 {
			n = n[:i]
		}
		return n
	case TypeParameter:
		return n[strings.LastIndexByte(n, '!')+1:]
	}
	return n[strings.LastIndexByte(n, '.')+1:]
}

// ParameterErasures returns the erased parameter types of a method or
// constructor handle.
func (h ElementHandle) ParameterErasures() []string {
	if h.Kind != Method && h.Kind != Constructor {
		return nil
	}
	open := strings.IndexByte(h.QualifiedName, '(')
	end := strings.LastIndexByte(h.QualifiedName, ')')
	if open < 0 || end < open {
		return nil
	}
	params := h.QualifiedName[open+1 : end]
	if params == "" {
		return []string{}
	}
	return strings.Split(params, ",")
}

// Arity is the parameter count of a method or constructor, -1 otherwise.
func (h ElementHandle) Arity() int {
	if h.Kind != Method && h.Kind != Constructor {
		return -1
	}
	return len(h.ParameterErasures())
}

// KindOf maps a native element kind to a handle kind. Value parameters have
// no handle.
func KindOf(nativeKind string) (Kind, bool) {
	switch nativeKind {
	case compiler.KindClass, compiler.KindInterface, compiler.KindEnum,
		compiler.KindAnnotationType, compiler.KindRecord:
		return Class, true
	case compiler.KindMethod:
		return Method, true
	case compiler.KindConstructor:
		return Constructor, true
	case compiler.KindField, compiler.KindEnumConstant:
		return Field, true
	case compiler.KindPackage:
		return Package, true
	case compiler.KindTypeParameter:
		return TypeParameter, true
	}
	return 0, false
}

// FromElement captures the identity of a native element. Method and
// constructor handles embed erased parameter types, so the snapshot must be
// at least at PhaseElementsResolved for those.
func FromElement(el *compiler.Element) (ElementHandle, bool) {
	if el == nil {
		return ElementHandle{}, false
	}
	kind, ok := KindOf(el.Kind())
	if !ok {
		return ElementHandle{}, false
	}
	switch kind {
	case Class:
		return ForClass(el.QualifiedName()), true
	case Package:
		return ForPackage(el.QualifiedName()), true
	}

	owner, ok := FromElement(el.Enclosing())
	if !ok {
		return ElementHandle{}, false
	}
	switch kind {
	case Field:
		return ForField(owner, el.SimpleName()), true
	case Method:
		return ForMethod(owner, el.SimpleName(), erasures(el)...), true
	case Constructor:
		return ForConstructor(owner, erasures(el)...), true
	default:
		return ForTypeParameter(owner, el.SimpleName()), true
	}
}

func erasures(exec *compiler.Element) []string {
	params := exec.Parameters()
	out := make([]string, len(params))
	for i, p := range params {
		out[i] = compiler.Erasure(p.Type())
	}
	return out
}

// Resolve re-derives the native element h denotes in snap. Classes and
// packages are looked up by name; members are found by walking from the
// owner and matching name, kind and arity, with ties broken by erased
// signature. A declaration that no longer exists yields (nil, false).
func (h ElementHandle) Resolve(snap *compiler.Snapshot) (*compiler.Element, bool) {
	switch h.Kind {
	case Class:
		el := snap.TypeElement(h.QualifiedName)
		return el, el != nil
	case Package:
		el := snap.PackageElement(h.QualifiedName)
		return el, el != nil
	}

	ownerHandle, ok := h.Owner()
	if !ok {
		return nil, false
	}
	owner, ok := ownerHandle.Resolve(snap)
	if !ok {
		return nil, false
	}
	name := h.SimpleName()

	switch h.Kind {
	case Field:
		for _, m := range owner.Enclosed() {
			if k := m.Kind(); (k == compiler.KindField || k == compiler.KindEnumConstant) && m.SimpleName() == name {
				return m, true
			}
		}
	case TypeParameter:
		for _, tp := range owner.TypeParameters() {
			if tp.SimpleName() == name {
				return tp, true
			}
		}
	case Method, Constructor:
		return h.resolveExecutable(snap, owner, name)
	}
	return nil, false
}

func (h ElementHandle) resolveExecutable(snap *compiler.Snapshot, owner *compiler.Element, name string) (*compiler.Element, bool) {
	nativeKind := compiler.KindMethod
	if h.Kind == Constructor {
		nativeKind = compiler.KindConstructor
	}
	want := h.ParameterErasures()

	var candidates []*compiler.Element
	for _, m := range owner.Enclosed() {
		if m.Kind() == nativeKind && m.SimpleName() == name && len(m.Parameters()) == len(want) {
			candidates = append(candidates, m)
		}
	}
	switch len(candidates) {
	case 0:
		return nil, false
	case 1:
		return candidates[0], true
	}

	snap.ToPhase(compiler.PhaseElementsResolved)
	for _, c := range candidates {
		if slices.Equal(erasures(c), want) {
			return c, true
		}
	}
	return nil, false
}
