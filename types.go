package interop

import (
	"github.com/jward/interop/internal/compiler"
	"github.com/jward/interop/internal/handle"
	"github.com/jward/interop/internal/search"
	"github.com/jward/interop/internal/session"
)

// Public type aliases for the internal types that appear in the adapter
// API. These are Go type aliases (=), identical to the internal types at
// compile time; no conversion is needed.

type ElementHandle = handle.ElementHandle
type TypeHandle = handle.TypeHandle
type Kind = handle.Kind
type Shape = handle.Shape

const (
	KindClass         = handle.Class
	KindMethod        = handle.Method
	KindField         = handle.Field
	KindConstructor   = handle.Constructor
	KindPackage       = handle.Package
	KindTypeParameter = handle.TypeParameter
)

const (
	ShapeDeclared     = handle.Declared
	ShapeArray        = handle.Array
	ShapeWildcard     = handle.Wildcard
	ShapeTypeVariable = handle.TypeVariable
	ShapePrimitive    = handle.Primitive
	ShapeError        = handle.Error
)

// ParseHandle reads an element handle back from its Key form.
func ParseHandle(key string) (ElementHandle, error) { return handle.Parse(key) }

type Visibility = search.Visibility

const (
	Public              = search.Public
	Private             = search.Private
	ProtectedStatic     = search.ProtectedStatic
	ProtectedAndPackage = search.ProtectedAndPackage
	PackagePrivate      = search.Package
)

type Variance = search.Variance

const (
	Invariant     = search.Invariant
	Covariant     = search.Covariant
	Contravariant = search.Contravariant
)

type ModifierSet = search.ModifierSet
type ClassID = search.ClassID

// Annotation argument tree.
type (
	AnnotationArgument = search.Argument
	NamedArgument      = search.NamedArgument
	Literal            = search.Literal
	ClassObject        = search.ClassObject
	Reference          = search.Reference
	NestedAnnotation   = search.NestedAnnotation
	ArrayArgument      = search.ArrayArg
	Unresolved         = search.Unresolved
)

type ContractError = search.ContractError

// ErrContractViolation is wrapped by errors from accessors asked a question
// that does not apply to their element.
var ErrContractViolation = search.ErrContractViolation

type Paths = compiler.Paths
type Phase = compiler.Phase
type UsageError = compiler.UsageError

// ErrLookupPath is wrapped by session build failures caused by a missing or
// unreadable lookup path.
var ErrLookupPath = compiler.ErrLookupPath

type ClasspathProvider = session.ClasspathProvider
type ClasspathFunc = session.ClasspathFunc
