package search

import (
	"slices"
	"strings"

	"github.com/jward/interop/internal/compiler"
	"github.com/jward/interop/internal/handle"
	"github.com/jward/interop/internal/store"
)

// ResolveClass looks a class up by canonical name. A binary name such as
// p.Outer$Inner is accepted as well.
type ResolveClass struct {
	QualifiedName string

	Handle handle.ElementHandle
	Found  bool
}

func (*ResolveClass) Name() string          { return "resolve-class" }
func (*ResolveClass) Phase() compiler.Phase { return compiler.PhaseElementsDiscovered }

func (s *ResolveClass) Run(snap *compiler.Snapshot) error {
	snap.ToPhase(s.Phase())
	el := snap.TypeElement(s.QualifiedName)
	if el == nil && strings.Contains(s.QualifiedName, "$") {
		el = snap.TypeElement(strings.ReplaceAll(s.QualifiedName, "$", "."))
	}
	if el != nil {
		s.Handle, s.Found = handle.FromElement(el)
	}
	return nil
}

// ResolvePackage looks a package up by name.
type ResolvePackage struct {
	QualifiedName string

	Handle handle.ElementHandle
	Found  bool
}

func (*ResolvePackage) Name() string          { return "resolve-package" }
func (*ResolvePackage) Phase() compiler.Phase { return compiler.PhaseElementsDiscovered }

func (s *ResolvePackage) Run(snap *compiler.Snapshot) error {
	snap.ToPhase(s.Phase())
	if el := snap.PackageElement(s.QualifiedName); el != nil {
		s.Handle, s.Found = handle.FromElement(el)
	}
	return nil
}

// SimpleName reads the declared name of any element.
type SimpleName struct {
	Handle handle.ElementHandle

	Value string
	Found bool
}

func (*SimpleName) Name() string          { return "simple-name" }
func (*SimpleName) Phase() compiler.Phase { return compiler.PhaseElementsDiscovered }

func (s *SimpleName) Run(snap *compiler.Snapshot) error {
	if el := begin(snap, s.Phase(), s.Handle); el != nil {
		s.Value, s.Found = el.SimpleName(), true
	}
	return nil
}

// ElementInfo reports the native kind and declaring location of an element.
type ElementInfo struct {
	Handle handle.ElementHandle

	Kind      string // native kind, such as "interface" or "enum_constant"
	ClassKind string // Kind when the element is class-like, else empty
	Path      string
	Origin    store.Origin
	Line      int // 1-based; 0 when the element has no location
	Generated bool
	Found     bool
}

func (*ElementInfo) Name() string          { return "element-info" }
func (*ElementInfo) Phase() compiler.Phase { return compiler.PhaseElementsDiscovered }

func (s *ElementInfo) Run(snap *compiler.Snapshot) error {
	el := begin(snap, s.Phase(), s.Handle)
	if el == nil {
		return nil
	}
	s.Found = true
	s.Kind = el.Kind()
	if compiler.IsClassKind(s.Kind) {
		s.ClassKind = s.Kind
	}
	s.Generated = el.IsGenerated()
	if loc, ok := el.Location(); ok {
		s.Path, s.Origin = loc.Path, loc.Origin
		if !s.Generated {
			s.Line = loc.StartLine + 1
		}
	}
	return nil
}

// ClassID is the identity of a possibly nested class: its package and the
// chain of simple names from the top-level class inwards.
type ClassID struct {
	Package string   `json:"package"`
	Names   []string `json:"names"`
}

// FqName renders the canonical dotted name, p.Outer.Middle.Inner.
func (id ClassID) FqName() string { return id.render(".") }

// BinaryName renders the JVM binary name, p.Outer$Middle$Inner.
func (id ClassID) BinaryName() string { return id.render("$") }

// IsNested reports whether the class has an enclosing class.
func (id ClassID) IsNested() bool { return len(id.Names) > 1 }

func (id ClassID) render(sep string) string {
	rel := strings.Join(id.Names, sep)
	if id.Package == "" {
		return rel
	}
	return id.Package + "." + rel
}

// NestedClassID computes a class's ClassID by walking enclosing elements
// until it reaches the package.
type NestedClassID struct {
	Handle handle.ElementHandle

	ID    ClassID
	Found bool
}

func (*NestedClassID) Name() string          { return "nested-class-id" }
func (*NestedClassID) Phase() compiler.Phase { return compiler.PhaseElementsDiscovered }

func (s *NestedClassID) Run(snap *compiler.Snapshot) error {
	if err := expectKind(s.Name(), s.Handle, handle.Class); err != nil {
		return err
	}
	el := begin(snap, s.Phase(), s.Handle)
	if el == nil {
		return nil
	}
	s.ID, s.Found = classID(el), true
	return nil
}

func classID(el *compiler.Element) ClassID {
	encl := el.Enclosing()
	if encl == nil || encl.Kind() == compiler.KindPackage {
		var pkg string
		if encl != nil {
			pkg = encl.QualifiedName()
		}
		return ClassID{Package: pkg, Names: []string{el.SimpleName()}}
	}
	id := classID(encl)
	id.Names = append(id.Names, el.SimpleName())
	return id
}

// FindMember locates the member of Owner matching an analyzer-side
// descriptor by name and kind. Arity narrows methods and constructors; -1
// matches any arity. The first match in declaration order wins.
type FindMember struct {
	Owner  handle.ElementHandle
	Member string
	Kind   handle.Kind
	Arity  int

	Handle handle.ElementHandle
	Found  bool
}

func (*FindMember) Name() string          { return "find-member" }
func (*FindMember) Phase() compiler.Phase { return compiler.PhaseElementsResolved }

func (s *FindMember) Run(snap *compiler.Snapshot) error {
	if err := expectKind(s.Name(), s.Owner, handle.Class); err != nil {
		return err
	}
	switch s.Kind {
	case handle.Method, handle.Constructor, handle.Field, handle.Class, handle.TypeParameter:
	default:
		return &ContractError{Searcher: s.Name(), Handle: handle.ElementHandle{Kind: s.Kind, QualifiedName: s.Member},
			Want: []handle.Kind{handle.Method, handle.Constructor, handle.Field, handle.Class, handle.TypeParameter}}
	}
	owner := begin(snap, s.Phase(), s.Owner)
	if owner == nil {
		return nil
	}

	candidates := owner.Enclosed()
	if s.Kind == handle.TypeParameter {
		candidates = owner.TypeParameters()
	}
	name := s.Member
	if s.Kind == handle.Constructor {
		name = compiler.ConstructorName
	}
	for _, m := range candidates {
		kind, ok := handle.KindOf(m.Kind())
		if !ok || kind != s.Kind || m.SimpleName() != name {
			continue
		}
		if (kind == handle.Method || kind == handle.Constructor) && s.Arity >= 0 && len(m.Parameters()) != s.Arity {
			continue
		}
		s.Handle, s.Found = handle.FromElement(m)
		return nil
	}
	return nil
}

// PackageContents lists a package's top-level classes and its direct
// subpackages.
type PackageContents struct {
	Handle handle.ElementHandle

	Classes     []handle.ElementHandle
	SubPackages []handle.ElementHandle
	Found       bool
}

func (*PackageContents) Name() string          { return "package-contents" }
func (*PackageContents) Phase() compiler.Phase { return compiler.PhaseElementsDiscovered }

func (s *PackageContents) Run(snap *compiler.Snapshot) error {
	if err := expectKind(s.Name(), s.Handle, handle.Package); err != nil {
		return err
	}
	pkg := begin(snap, s.Phase(), s.Handle)
	if pkg == nil {
		return nil
	}
	s.Found = true
	s.Classes = handlesOf(pkg.Enclosed())

	prefix := s.Handle.QualifiedName + "."
	var subs []string
	for _, p := range snap.Packages() {
		rest, ok := strings.CutPrefix(p, prefix)
		if !ok {
			continue
		}
		if i := strings.IndexByte(rest, '.'); i >= 0 {
			rest = rest[:i]
		}
		if sub := prefix + rest; !slices.Contains(subs, sub) {
			subs = append(subs, sub)
		}
	}
	slices.Sort(subs)
	for _, sub := range subs {
		s.SubPackages = append(s.SubPackages, handle.ForPackage(sub))
	}
	return nil
}
