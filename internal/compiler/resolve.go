package compiler

import (
	"strings"

	"github.com/jward/interop/internal/store"
)

// fileScope holds the imports of one compilation unit.
type fileScope struct {
	pkg     string
	imports []*store.Import
}

func (s *Snapshot) scopeOf(fileID int64) *fileScope {
	if sc, ok := s.scopes[fileID]; ok {
		return sc
	}
	imps, err := s.st.ImportsByFile(fileID)
	s.must("imports", err)
	sc := &fileScope{pkg: s.fileOf(fileID).Package, imports: imps}
	s.scopes[fileID] = sc
	return sc
}

// resolveType turns written type syntax into a TypeMirror, resolving names
// in the scope of ctx. With header set and ctx a class, the class's own
// members are not in scope, as for its extends and implements clauses.
func (s *Snapshot) resolveType(ctx *Element, syn *TypeSyntax, header bool) TypeMirror {
	if syn == nil {
		return nil
	}
	switch syn.Kind {
	case syntaxPrim:
		return &PrimitiveType{Name: syn.Name}
	case syntaxArray:
		comp := s.resolveType(ctx, syn.Elem, header)
		if comp == nil {
			comp = &ErrorType{Name: "?"}
		}
		return &ArrayType{Component: comp}
	case syntaxWildcard:
		w := &WildcardType{Super: syn.Super}
		if syn.Elem != nil {
			w.Bound = s.resolveType(ctx, syn.Elem, header)
		}
		return w
	}

	if !strings.Contains(syn.Name, ".") {
		if tv := s.typeVariable(ctx, syn.Name); tv != nil {
			return &TypeVariable{Element: tv}
		}
	}
	el := s.resolveClassName(ctx, syn.Name, header)
	if el == nil {
		return &ErrorType{Name: syn.String()}
	}
	t := &DeclaredType{Element: el}
	for _, a := range syn.Args {
		arg := s.resolveType(ctx, a, header)
		if arg == nil {
			arg = &ErrorType{Name: "?"}
		}
		t.Args = append(t.Args, arg)
	}
	return t
}

// typeVariable finds a type parameter named name declared by ctx or one of
// its enclosing declarations, innermost first.
func (s *Snapshot) typeVariable(ctx *Element, name string) *Element {
	for e := ctx; e != nil && e.row != nil; e = e.Enclosing() {
		switch e.row.Kind {
		case KindMethod, KindConstructor, KindClass, KindInterface, KindRecord:
			for _, tp := range e.TypeParameters() {
				if tp.row.Name == name {
					return tp
				}
			}
		}
	}
	return nil
}

// enclosingClass returns the innermost class containing ctx, ctx itself
// included unless header is set.
func enclosingClass(ctx *Element, header bool) *Element {
	e := ctx
	if header && e != nil && e.row != nil && IsClassKind(e.row.Kind) {
		e = e.Enclosing()
	}
	for ; e != nil && e.row != nil; e = e.Enclosing() {
		if IsClassKind(e.row.Kind) {
			return e
		}
	}
	return nil
}

// resolveClassName resolves a simple or dotted class name as written in the
// scope of ctx.
func (s *Snapshot) resolveClassName(ctx *Element, name string, header bool) *Element {
	segs := strings.Split(name, ".")
	if el := s.resolveSimpleType(ctx, segs[0], header); el != nil {
		if nested := s.memberPath(el, segs[1:]); nested != nil {
			return nested
		}
	}
	if len(segs) == 1 {
		return nil
	}
	if el := s.TypeElement(name); el != nil {
		return el
	}
	// A qualified prefix naming a class whose remaining segments are
	// inherited member types.
	for i := len(segs) - 1; i >= 1; i-- {
		if base := s.TypeElement(strings.Join(segs[:i], ".")); base != nil {
			return s.memberPath(base, segs[i:])
		}
	}
	return nil
}

func (s *Snapshot) memberPath(el *Element, segs []string) *Element {
	for _, seg := range segs {
		if el = s.memberType(el, seg, make(map[int64]bool)); el == nil {
			return nil
		}
	}
	return el
}

func (s *Snapshot) resolveSimpleType(ctx *Element, name string, header bool) *Element {
	for c := enclosingClass(ctx, header); c != nil; c = enclosingClass(c.Enclosing(), false) {
		if m := s.memberType(c, name, make(map[int64]bool)); m != nil {
			return m
		}
		if c.row.Name == name {
			return c
		}
	}

	var scope *fileScope
	if ctx != nil && ctx.row != nil {
		scope = s.scopeOf(ctx.row.FileID)
	} else {
		scope = &fileScope{}
		if ctx != nil {
			scope.pkg = ctx.pkg
		}
	}

	for _, imp := range scope.imports {
		if imp.OnDemand || lastSegment(imp.Name) != name {
			continue
		}
		if el := s.TypeElement(imp.Name); el != nil {
			return el
		}
		if imp.IsStatic {
			owner, member := splitLast(imp.Name)
			if base := s.TypeElement(owner); base != nil {
				if el := s.memberType(base, member, make(map[int64]bool)); el != nil {
					return el
				}
			}
		}
	}

	if el := s.TypeElement(joinName(scope.pkg, name)); el != nil {
		return el
	}

	for _, imp := range scope.imports {
		if !imp.OnDemand {
			continue
		}
		if imp.IsStatic {
			if base := s.TypeElement(imp.Name); base != nil {
				if el := s.memberType(base, name, make(map[int64]bool)); el != nil {
					return el
				}
			}
			continue
		}
		if el := s.TypeElement(imp.Name + "." + name); el != nil {
			return el
		}
	}

	return s.TypeElement("java.lang." + name)
}

// memberType finds a member class named name declared in c or inherited
// from its supertypes.
func (s *Snapshot) memberType(c *Element, name string, visited map[int64]bool) *Element {
	if c == nil || c.row == nil || visited[c.row.ID] {
		return nil
	}
	visited[c.row.ID] = true
	rows, err := s.st.ElementChildrenByKind(c.row.ID,
		KindClass, KindInterface, KindEnum, KindAnnotationType, KindRecord)
	s.must("member types", err)
	for _, el := range s.wrap(rows) {
		if el.row.Name == name {
			return el
		}
	}
	if s.phase < PhaseElementsResolved {
		return nil
	}
	for _, st := range s.directSupertypes(c) {
		if dt, ok := st.(*DeclaredType); ok {
			if m := s.memberType(dt.Element, name, visited); m != nil {
				return m
			}
		}
	}
	return nil
}

// resolveReference resolves a constant or enum constant name used as an
// annotation value.
func (s *Snapshot) resolveReference(ctx *Element, text string) *Element {
	owner, member := splitLast(text)
	if owner != "" {
		base := s.resolveClassName(ctx, owner, false)
		if base == nil {
			base = s.TypeElement(owner)
		}
		return s.fieldNamed(base, member, make(map[int64]bool))
	}

	for c := enclosingClass(ctx, false); c != nil; c = enclosingClass(c.Enclosing(), false) {
		if f := s.fieldNamed(c, member, make(map[int64]bool)); f != nil {
			return f
		}
	}
	if ctx == nil || ctx.row == nil {
		return nil
	}
	scope := s.scopeOf(ctx.row.FileID)
	for _, imp := range scope.imports {
		if !imp.IsStatic {
			continue
		}
		if imp.OnDemand {
			if f := s.fieldNamed(s.TypeElement(imp.Name), member, make(map[int64]bool)); f != nil {
				return f
			}
			continue
		}
		o, m := splitLast(imp.Name)
		if m == member {
			if f := s.fieldNamed(s.TypeElement(o), member, make(map[int64]bool)); f != nil {
				return f
			}
		}
	}
	return nil
}

func (s *Snapshot) fieldNamed(c *Element, name string, visited map[int64]bool) *Element {
	if c == nil || c.row == nil || visited[c.row.ID] {
		return nil
	}
	visited[c.row.ID] = true
	rows, err := s.st.ElementChildrenByKind(c.row.ID, KindField, KindEnumConstant)
	s.must("fields", err)
	for _, el := range s.wrap(rows) {
		if el.row.Name == name {
			return el
		}
	}
	for _, st := range s.directSupertypes(c) {
		if dt, ok := st.(*DeclaredType); ok {
			if f := s.fieldNamed(dt.Element, name, visited); f != nil {
				return f
			}
		}
	}
	return nil
}

func splitLast(name string) (string, string) {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return "", name
	}
	return name[:i], name[i+1:]
}

func joinName(pkg, name string) string {
	if pkg == "" {
		return name
	}
	return pkg + "." + name
}
