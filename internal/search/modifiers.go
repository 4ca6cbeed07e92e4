package search

import (
	"fmt"

	"github.com/jward/interop/internal/compiler"
	"github.com/jward/interop/internal/handle"
)

// ModifierSet holds the modifier flags of a declaration, implicit ones
// included.
type ModifierSet struct {
	Public       bool `json:"public,omitempty"`
	Protected    bool `json:"protected,omitempty"`
	Private      bool `json:"private,omitempty"`
	Abstract     bool `json:"abstract,omitempty"`
	Static       bool `json:"static,omitempty"`
	Final        bool `json:"final,omitempty"`
	Default      bool `json:"default,omitempty"`
	Native       bool `json:"native,omitempty"`
	Synchronized bool `json:"synchronized,omitempty"`
	Transient    bool `json:"transient,omitempty"`
	Volatile     bool `json:"volatile,omitempty"`
	Sealed       bool `json:"sealed,omitempty"`
	// Synthetic marks members generated by the compiler.
	Synthetic bool `json:"synthetic,omitempty"`
}

func modifierSet(el *compiler.Element) ModifierSet {
	var set ModifierSet
	for _, m := range el.Modifiers() {
		switch m {
		case compiler.ModPublic:
			set.Public = true
		case compiler.ModProtected:
			set.Protected = true
		case compiler.ModPrivate:
			set.Private = true
		case compiler.ModAbstract:
			set.Abstract = true
		case compiler.ModStatic:
			set.Static = true
		case compiler.ModFinal:
			set.Final = true
		case compiler.ModDefault:
			set.Default = true
		case compiler.ModNative:
			set.Native = true
		case compiler.ModSynchronized:
			set.Synchronized = true
		case compiler.ModTransient:
			set.Transient = true
		case compiler.ModVolatile:
			set.Volatile = true
		case compiler.ModSealed:
			set.Sealed = true
		}
	}
	set.Synthetic = el.IsGenerated()
	return set
}

// Modifiers reads the modifier flags of a class or member.
type Modifiers struct {
	Handle handle.ElementHandle

	Set   ModifierSet
	Found bool
}

func (*Modifiers) Name() string          { return "modifiers" }
func (*Modifiers) Phase() compiler.Phase { return compiler.PhaseElementsDiscovered }

func (s *Modifiers) Run(snap *compiler.Snapshot) error {
	if err := expectKind(s.Name(), s.Handle, handle.Class, handle.Method, handle.Constructor, handle.Field); err != nil {
		return err
	}
	if el := begin(snap, s.Phase(), s.Handle); el != nil {
		s.Set, s.Found = modifierSet(el), true
	}
	return nil
}

// Visibility is the accessibility of a declaration as the analyzer models
// it. Protected is split on staticness: a protected static member is
// reachable through the class from any subclass, while a protected instance
// member is only reachable through the subclass's own instances.
type Visibility int

const (
	VisibilityUnknown Visibility = iota
	Public
	Private
	ProtectedStatic
	ProtectedAndPackage
	Package
)

var visibilityNames = map[Visibility]string{
	Public:              "public",
	Private:             "private",
	ProtectedStatic:     "protected-static",
	ProtectedAndPackage: "protected-and-package",
	Package:             "package",
}

func (v Visibility) String() string {
	if n, ok := visibilityNames[v]; ok {
		return n
	}
	return fmt.Sprintf("visibility(%d)", int(v))
}

func (v Visibility) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

// VisibilityOf maps a modifier set onto the visibility lattice.
func VisibilityOf(set ModifierSet) Visibility {
	switch {
	case set.Public:
		return Public
	case set.Private:
		return Private
	case set.Protected && set.Static:
		return ProtectedStatic
	case set.Protected:
		return ProtectedAndPackage
	default:
		return Package
	}
}

// GetVisibility reads the visibility of a class or member.
type GetVisibility struct {
	Handle handle.ElementHandle

	Visibility Visibility
	Found      bool
}

func (*GetVisibility) Name() string          { return "visibility" }
func (*GetVisibility) Phase() compiler.Phase { return compiler.PhaseElementsDiscovered }

func (s *GetVisibility) Run(snap *compiler.Snapshot) error {
	if err := expectKind(s.Name(), s.Handle, handle.Class, handle.Method, handle.Constructor, handle.Field); err != nil {
		return err
	}
	if el := begin(snap, s.Phase(), s.Handle); el != nil {
		s.Visibility, s.Found = VisibilityOf(modifierSet(el)), true
	}
	return nil
}
