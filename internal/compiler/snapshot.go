package compiler

import (
	"fmt"

	"github.com/jward/interop/internal/store"
)

// Phase is a level of analysis completeness a snapshot can be advanced to.
type Phase int

const (
	PhaseElementsDiscovered Phase = iota + 1
	PhaseElementsResolved
	PhaseFullyResolved
)

func (p Phase) String() string {
	switch p {
	case PhaseElementsDiscovered:
		return "elements-discovered"
	case PhaseElementsResolved:
		return "elements-resolved"
	case PhaseFullyResolved:
		return "fully-resolved"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// ParsePhase maps a phase name back to its Phase.
func ParsePhase(s string) (Phase, error) {
	for _, p := range []Phase{PhaseElementsDiscovered, PhaseElementsResolved, PhaseFullyResolved} {
		if p.String() == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown phase %q", s)
}

// Snapshot is the consistent view of the index for one compilation round.
// It is only valid inside the task passed to RunUserActionTask; every
// Element, TypeMirror and AnnotationMirror it hands out shares its lifetime.
type Snapshot struct {
	st    *store.Store
	round uint64
	phase Phase
	done  bool

	elements map[int64]*Element
	packages map[string]*Element
	files    map[int64]*store.File
	scopes   map[int64]*fileScope
	supers   map[int64][]TypeMirror
	inFlight map[int64]bool
}

// queryError carries a store failure out of a task.
type queryError struct {
	op  string
	err error
}

func (e *queryError) Error() string { return fmt.Sprintf("compiler: %s: %v", e.op, e.err) }
func (e *queryError) Unwrap() error { return e.err }

func newSnapshot(st *store.Store, round uint64) *Snapshot {
	return &Snapshot{
		st:       st,
		round:    round,
		phase:    PhaseElementsDiscovered,
		elements: make(map[int64]*Element),
		packages: make(map[string]*Element),
		files:    make(map[int64]*store.File),
		scopes:   make(map[int64]*fileScope),
		supers:   make(map[int64][]TypeMirror),
		inFlight: make(map[int64]bool),
	}
}

func (s *Snapshot) close() { s.done = true }

func (s *Snapshot) check(op string) {
	if s.done {
		usagePanic(op, "native value used after compilation round %d ended", s.round)
	}
}

func (s *Snapshot) require(op string, p Phase) {
	s.check(op)
	if s.phase < p {
		usagePanic(op, "snapshot is at %s, query needs %s", s.phase, p)
	}
}

func (s *Snapshot) must(op string, err error) {
	if err != nil {
		panic(&queryError{op: op, err: err})
	}
}

// Round returns the number of the compilation round this snapshot belongs to.
func (s *Snapshot) Round() uint64 { return s.round }

// Phase returns the phase the snapshot has been advanced to.
func (s *Snapshot) Phase() Phase {
	s.check("Phase")
	return s.phase
}

// ToPhase advances the snapshot to at least p. It never regresses.
func (s *Snapshot) ToPhase(p Phase) Phase {
	s.check("ToPhase")
	if p > s.phase {
		s.phase = p
	}
	return s.phase
}

// TypeElement returns the class with the given canonical name, or nil.
// Classes nested in a shadowed top-level class are not visible.
func (s *Snapshot) TypeElement(qualifiedName string) *Element {
	s.check("TypeElement")
	if qualifiedName == "" {
		return nil
	}
	row, err := s.st.ClassByQualifiedName(qualifiedName)
	s.must("TypeElement", err)
	if row == nil {
		return nil
	}
	el := s.element(row.ID)
	if row.ParentID != nil && !s.visible(el) {
		return nil
	}
	return el
}

// visible reports whether the top-level class enclosing el is the one the
// lookup paths resolve its name to.
func (s *Snapshot) visible(el *Element) bool {
	top := el
	for top.row.ParentID != nil {
		top = s.element(*top.row.ParentID)
	}
	winner, err := s.st.ClassByQualifiedName(top.row.QualifiedName)
	s.must("TypeElement", err)
	return winner != nil && winner.ID == top.row.ID
}

// PackageElement returns the named package if any file declares it or one
// of its subpackages, or nil.
func (s *Snapshot) PackageElement(name string) *Element {
	s.check("PackageElement")
	if p, ok := s.packages[name]; ok {
		return p
	}
	ok, err := s.st.PackageExists(name)
	s.must("PackageElement", err)
	if !ok {
		return nil
	}
	return s.packageElement(name)
}

// Packages returns the names of all declared packages, sorted.
func (s *Snapshot) Packages() []string {
	s.check("Packages")
	pkgs, err := s.st.Packages()
	s.must("Packages", err)
	return pkgs
}

// Object returns java.lang.Object, or nil when the platform lacks it.
func (s *Snapshot) Object() *Element {
	return s.TypeElement(objectName)
}

func (s *Snapshot) packageElement(name string) *Element {
	if p, ok := s.packages[name]; ok {
		return p
	}
	p := &Element{snap: s, pkg: name}
	s.packages[name] = p
	return p
}

func (s *Snapshot) element(id int64) *Element {
	if el, ok := s.elements[id]; ok {
		return el
	}
	row, err := s.st.ElementByID(id)
	s.must("element", err)
	if row == nil {
		return nil
	}
	el := &Element{snap: s, row: row}
	s.elements[id] = el
	return el
}

func (s *Snapshot) wrap(rows []*store.Element) []*Element {
	out := make([]*Element, 0, len(rows))
	for _, row := range rows {
		el, ok := s.elements[row.ID]
		if !ok {
			el = &Element{snap: s, row: row}
			s.elements[row.ID] = el
		}
		out = append(out, el)
	}
	return out
}

func (s *Snapshot) fileOf(id int64) *store.File {
	if f, ok := s.files[id]; ok {
		return f
	}
	f, err := s.st.FileByID(id)
	s.must("file", err)
	if f == nil {
		f = &store.File{ID: id}
	}
	s.files[id] = f
	return f
}

func (s *Snapshot) supertypeRows(id int64) []*store.Supertype {
	rows, err := s.st.Supertypes(id)
	s.must("supertypes", err)
	return rows
}

func (s *Snapshot) declaredByName(name string) TypeMirror {
	if el := s.TypeElement(name); el != nil {
		return &DeclaredType{Element: el}
	}
	return &ErrorType{Name: name}
}

// directSupertypes returns the superclass (when any) followed by the
// interfaces of a class, memoized per round. A class reached again while its
// own supertypes are being resolved reports none, which cuts inheritance
// cycles.
func (s *Snapshot) directSupertypes(c *Element) []TypeMirror {
	if ts, ok := s.supers[c.row.ID]; ok {
		return ts
	}
	if s.inFlight[c.row.ID] {
		return nil
	}
	s.inFlight[c.row.ID] = true
	defer delete(s.inFlight, c.row.ID)

	var ts []TypeMirror
	if sc := c.Superclass(); sc != nil {
		ts = append(ts, sc)
	}
	ts = append(ts, c.Interfaces()...)
	s.supers[c.row.ID] = ts
	return ts
}
