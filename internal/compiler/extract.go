package compiler

import (
	"context"
	"fmt"
	"strings"
	"time"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"github.com/jward/interop/internal/store"
)

// extractor walks one parsed Java file and writes its declarations to the
// index. It is single-use.
type extractor struct {
	st      *store.Store
	src     []byte
	fileID  int64
	pkg     string
	ordinal map[int64]int // parent element ID → next member ordinal
}

// parseJava parses src with the tree-sitter Java grammar.
func parseJava(ctx context.Context, src []byte) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(java.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse: %w", err)
	}
	return tree, nil
}

// indexFile parses src and records the file and its declarations in st.
func indexFile(ctx context.Context, st *store.Store, f *store.File, src []byte) error {
	tree, err := parseJava(ctx, src)
	if err != nil {
		return err
	}
	defer tree.Close()
	root := tree.RootNode()

	x := &extractor{st: st, src: src, ordinal: make(map[int64]int)}
	x.pkg = x.packageName(root)

	f.Package = x.pkg
	f.LastIndexed = time.Now()
	if _, err := st.InsertFile(f); err != nil {
		return err
	}
	x.fileID = f.ID

	for _, child := range namedChildren(root) {
		switch child.Type() {
		case "import_declaration":
			if err := x.importDecl(child); err != nil {
				return err
			}
		case "class_declaration", "interface_declaration", "enum_declaration",
			"annotation_type_declaration", "record_declaration":
			if err := x.classDecl(child, nil, "", ""); err != nil {
				return err
			}
		}
	}
	return nil
}

// --- tree helpers ---

// namedChildren returns the named children of n, comments excluded.
func namedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	count := int(n.NamedChildCount())
	out := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "line_comment", "block_comment", "comment":
			continue
		}
		out = append(out, c)
	}
	return out
}

// childOfType returns the first direct child of n with the given node type.
func childOfType(n *sitter.Node, typ string) *sitter.Node {
	if n == nil {
		return nil
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c.Type() == typ {
			return c
		}
	}
	return nil
}

func hasChildOfType(n *sitter.Node, typ string) bool {
	return childOfType(n, typ) != nil
}

func (x *extractor) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(x.src)
}

// compactName strips whitespace from a dotted name.
func compactName(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func (x *extractor) nextOrdinal(parent int64) int {
	o := x.ordinal[parent]
	x.ordinal[parent] = o + 1
	return o
}

func locate(n *sitter.Node, el *store.Element) {
	el.StartLine = int(n.StartPoint().Row)
	el.StartCol = int(n.StartPoint().Column)
	el.EndLine = int(n.EndPoint().Row)
	el.EndCol = int(n.EndPoint().Column)
}

// --- package and imports ---

func (x *extractor) packageName(root *sitter.Node) string {
	for _, child := range namedChildren(root) {
		if child.Type() != "package_declaration" {
			continue
		}
		for _, n := range namedChildren(child) {
			if n.Type() == "scoped_identifier" || n.Type() == "identifier" {
				return compactName(x.text(n))
			}
		}
	}
	return ""
}

func (x *extractor) importDecl(n *sitter.Node) error {
	imp := &store.Import{
		FileID:   x.fileID,
		IsStatic: hasChildOfType(n, "static"),
		OnDemand: hasChildOfType(n, "asterisk"),
	}
	for _, c := range namedChildren(n) {
		if c.Type() == "scoped_identifier" || c.Type() == "identifier" {
			imp.Name = compactName(x.text(c))
			break
		}
	}
	if imp.Name == "" {
		return nil
	}
	_, err := x.st.InsertImport(imp)
	return err
}

// --- modifiers and annotations ---

var modifierKeywords = map[string]bool{
	ModPublic: true, ModProtected: true, ModPrivate: true, ModStatic: true,
	ModFinal: true, ModAbstract: true, ModDefault: true, ModNative: true,
	ModSynchronized: true, ModTransient: true, ModVolatile: true, ModStrictfp: true,
	ModSealed: true, ModNonSealed: true,
}

// modifiers collects the keyword modifiers and annotation nodes of a declaration.
func (x *extractor) modifiers(decl *sitter.Node) ([]string, []*sitter.Node) {
	mn := childOfType(decl, "modifiers")
	if mn == nil {
		return nil, nil
	}
	var mods []string
	var annots []*sitter.Node
	for i := 0; i < int(mn.ChildCount()); i++ {
		c := mn.Child(i)
		switch t := c.Type(); {
		case t == "marker_annotation" || t == "annotation":
			annots = append(annots, c)
		case modifierKeywords[t]:
			mods = append(mods, t)
		case modifierKeywords[x.text(c)]:
			mods = append(mods, x.text(c))
		}
	}
	return mods, annots
}

func addModifier(mods []string, extra ...string) []string {
	for _, m := range extra {
		if !containsString(mods, m) {
			mods = append(mods, m)
		}
	}
	return mods
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func hasAccess(mods []string) bool {
	return containsString(mods, ModPublic) || containsString(mods, ModProtected) || containsString(mods, ModPrivate)
}

func (x *extractor) annotations(elementID int64, nodes []*sitter.Node) error {
	for i, a := range nodes {
		ann := &store.Annotation{
			ElementID: elementID,
			Ordinal:   i,
			Name:      compactName(x.text(a.ChildByFieldName("name"))),
			Arguments: encodeJSON(x.annotationArgs(a)),
		}
		if _, err := x.st.InsertAnnotation(ann); err != nil {
			return err
		}
	}
	return nil
}

// --- declarations ---

var classKinds = map[string]string{
	"class_declaration":           KindClass,
	"interface_declaration":       KindInterface,
	"enum_declaration":            KindEnum,
	"annotation_type_declaration": KindAnnotationType,
	"record_declaration":          KindRecord,
}

func (x *extractor) classDecl(n *sitter.Node, parent *int64, parentQName, parentKind string) error {
	kind := classKinds[n.Type()]
	name := x.text(n.ChildByFieldName("name"))
	if name == "" {
		return nil
	}
	qname := name
	switch {
	case parentQName != "":
		qname = parentQName + "." + name
	case x.pkg != "":
		qname = x.pkg + "." + name
	}

	mods, annots := x.modifiers(n)
	if parentKind == KindInterface || parentKind == KindAnnotationType {
		mods = addModifier(mods, ModPublic, ModStatic)
	}
	switch kind {
	case KindInterface, KindAnnotationType:
		mods = addModifier(mods, ModAbstract)
		if parent != nil {
			mods = addModifier(mods, ModStatic)
		}
	case KindRecord:
		mods = addModifier(mods, ModFinal)
		if parent != nil {
			mods = addModifier(mods, ModStatic)
		}
	case KindEnum:
		if !x.enumHasConstantBodies(n) {
			mods = addModifier(mods, ModFinal)
		}
		if parent != nil {
			mods = addModifier(mods, ModStatic)
		}
	}

	el := &store.Element{
		FileID:        x.fileID,
		ParentID:      parent,
		Kind:          kind,
		Name:          name,
		QualifiedName: qname,
		Modifiers:     mods,
	}
	if parent != nil {
		el.Ordinal = x.nextOrdinal(*parent)
	}
	locate(n, el)
	if _, err := x.st.InsertElement(el); err != nil {
		return err
	}
	if err := x.annotations(el.ID, annots); err != nil {
		return err
	}
	if err := x.typeParameters(el.ID, n); err != nil {
		return err
	}
	if err := x.supertypes(el.ID, n); err != nil {
		return err
	}

	c := &classBody{id: el.ID, qname: qname, kind: kind, mods: mods}
	if kind == KindRecord {
		if err := x.recordComponents(c, n); err != nil {
			return err
		}
	}
	body := n.ChildByFieldName("body")
	if body == nil {
		for _, typ := range []string{"class_body", "interface_body", "enum_body", "annotation_type_body"} {
			if body = childOfType(n, typ); body != nil {
				break
			}
		}
	}
	if err := x.members(c, body); err != nil {
		return err
	}
	return x.implicitMembers(c)
}

// classBody tracks what a class declares so implicit members can be added.
type classBody struct {
	id         int64
	qname      string
	kind       string
	mods       []string
	ctorArity  []int
	methods    map[string]bool // "name/arity"
	components []*TypeSyntax
	compNames  []string
}

func (c *classBody) declared(name string, arity int) bool {
	return c.methods[fmt.Sprintf("%s/%d", name, arity)]
}

func (c *classBody) declare(name string, arity int) {
	if c.methods == nil {
		c.methods = make(map[string]bool)
	}
	c.methods[fmt.Sprintf("%s/%d", name, arity)] = true
}

func (x *extractor) enumHasConstantBodies(n *sitter.Node) bool {
	body := n.ChildByFieldName("body")
	for _, c := range namedChildren(body) {
		if c.Type() == "enum_constant" && c.ChildByFieldName("body") != nil {
			return true
		}
	}
	return false
}

func (x *extractor) typeParameters(ownerID int64, decl *sitter.Node) error {
	tps := decl.ChildByFieldName("type_parameters")
	if tps == nil {
		tps = childOfType(decl, "type_parameters")
	}
	for i, tp := range namedChildren(tps) {
		if tp.Type() != "type_parameter" {
			continue
		}
		var name string
		var annots []*sitter.Node
		var bound *sitter.Node
		for _, c := range namedChildren(tp) {
			switch c.Type() {
			case "type_identifier", "identifier":
				if name == "" {
					name = x.text(c)
				}
			case "type_bound":
				bound = c
			case "marker_annotation", "annotation":
				annots = append(annots, c)
			}
		}
		if name == "" {
			continue
		}
		el := &store.Element{
			FileID:   x.fileID,
			ParentID: &ownerID,
			Kind:     KindTypeParameter,
			Name:     name,
			Ordinal:  i,
		}
		locate(tp, el)
		if _, err := x.st.InsertElement(el); err != nil {
			return err
		}
		if err := x.annotations(el.ID, annots); err != nil {
			return err
		}
		for j, b := range namedChildren(bound) {
			tb := &store.TypeBound{ElementID: el.ID, Ordinal: j, TypeSyntax: encodeTypeSyntax(x.typeSyntax(b))}
			if _, err := x.st.InsertTypeBound(tb); err != nil {
				return err
			}
		}
	}
	return nil
}

func (x *extractor) supertypes(classID int64, n *sitter.Node) error {
	ordinal := 0
	add := func(relation string, t *sitter.Node) error {
		st := &store.Supertype{
			ElementID:  classID,
			Ordinal:    ordinal,
			Relation:   relation,
			TypeSyntax: encodeTypeSyntax(x.typeSyntax(t)),
		}
		ordinal++
		_, err := x.st.InsertSupertype(st)
		return err
	}

	if sc := childOfType(n, "superclass"); sc != nil {
		if types := namedChildren(sc); len(types) > 0 {
			if err := add(relationSuperclass, types[len(types)-1]); err != nil {
				return err
			}
		}
	}
	for _, typ := range []string{"super_interfaces", "extends_interfaces"} {
		list := childOfType(childOfType(n, typ), "type_list")
		for _, t := range namedChildren(list) {
			if err := add(relationInterface, t); err != nil {
				return err
			}
		}
	}
	return nil
}

func (x *extractor) members(c *classBody, body *sitter.Node) error {
	for _, m := range namedChildren(body) {
		var err error
		switch m.Type() {
		case "field_declaration", "constant_declaration":
			err = x.fieldDecl(c, m)
		case "method_declaration":
			err = x.methodDecl(c, m)
		case "annotation_type_element_declaration":
			err = x.annotationElementDecl(c, m)
		case "constructor_declaration":
			err = x.constructorDecl(c, m)
		case "compact_constructor_declaration":
			err = x.compactConstructorDecl(c, m)
		case "enum_constant":
			err = x.enumConstant(c, m)
		case "enum_body_declarations":
			err = x.members(c, m)
		case "class_declaration", "interface_declaration", "enum_declaration",
			"annotation_type_declaration", "record_declaration":
			err = x.classDecl(m, &c.id, c.qname, c.kind)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (x *extractor) insertMember(c *classBody, n *sitter.Node, el *store.Element, annots []*sitter.Node) error {
	el.FileID = x.fileID
	el.ParentID = &c.id
	el.Ordinal = x.nextOrdinal(c.id)
	if n != nil {
		locate(n, el)
	}
	if _, err := x.st.InsertElement(el); err != nil {
		return err
	}
	return x.annotations(el.ID, annots)
}

func (x *extractor) fieldDecl(c *classBody, n *sitter.Node) error {
	mods, annots := x.modifiers(n)
	if c.kind == KindInterface || c.kind == KindAnnotationType {
		mods = addModifier(mods, ModPublic, ModStatic, ModFinal)
	}
	base := x.typeSyntax(n.ChildByFieldName("type"))
	for _, d := range namedChildren(n) {
		if d.Type() != "variable_declarator" {
			continue
		}
		t := arrayOf(base, x.dims(childOfType(d, "dimensions")))
		el := &store.Element{
			Kind:       KindField,
			Name:       x.text(d.ChildByFieldName("name")),
			Modifiers:  mods,
			TypeSyntax: encodeTypeSyntax(t),
		}
		if err := x.insertMember(c, d, el, annots); err != nil {
			return err
		}
	}
	return nil
}

func (x *extractor) interfaceMethodModifiers(c *classBody, mods []string, hasBody bool) []string {
	if c.kind != KindInterface && c.kind != KindAnnotationType {
		return mods
	}
	if !containsString(mods, ModPrivate) {
		mods = addModifier(mods, ModPublic)
	}
	if !hasBody && !containsString(mods, ModDefault) && !containsString(mods, ModStatic) && !containsString(mods, ModPrivate) {
		mods = addModifier(mods, ModAbstract)
	}
	return mods
}

func (x *extractor) methodDecl(c *classBody, n *sitter.Node) error {
	mods, annots := x.modifiers(n)
	mods = x.interfaceMethodModifiers(c, mods, n.ChildByFieldName("body") != nil)
	ret := arrayOf(x.typeSyntax(n.ChildByFieldName("type")), x.dims(childOfType(n, "dimensions")))
	el := &store.Element{
		Kind:       KindMethod,
		Name:       x.text(n.ChildByFieldName("name")),
		Modifiers:  mods,
		TypeSyntax: encodeTypeSyntax(ret),
	}
	if err := x.insertMember(c, n, el, annots); err != nil {
		return err
	}
	if err := x.typeParameters(el.ID, n); err != nil {
		return err
	}
	arity, err := x.parameters(el.ID, n.ChildByFieldName("parameters"))
	if err != nil {
		return err
	}
	c.declare(el.Name, arity)
	return nil
}

func (x *extractor) annotationElementDecl(c *classBody, n *sitter.Node) error {
	mods, annots := x.modifiers(n)
	mods = addModifier(mods, ModPublic, ModAbstract)
	ret := arrayOf(x.typeSyntax(n.ChildByFieldName("type")), x.dims(childOfType(n, "dimensions")))
	el := &store.Element{
		Kind:       KindMethod,
		Name:       x.text(n.ChildByFieldName("name")),
		Modifiers:  mods,
		TypeSyntax: encodeTypeSyntax(ret),
	}
	if v := n.ChildByFieldName("value"); v != nil {
		el.DefaultValue = encodeJSON(x.elementValue(v))
	}
	c.declare(el.Name, 0)
	return x.insertMember(c, n, el, annots)
}

func (x *extractor) constructorDecl(c *classBody, n *sitter.Node) error {
	mods, annots := x.modifiers(n)
	if c.kind == KindEnum {
		mods = addModifier(mods, ModPrivate)
	}
	el := &store.Element{
		Kind:      KindConstructor,
		Name:      ConstructorName,
		Modifiers: mods,
	}
	if err := x.insertMember(c, n, el, annots); err != nil {
		return err
	}
	if err := x.typeParameters(el.ID, n); err != nil {
		return err
	}
	arity, err := x.parameters(el.ID, n.ChildByFieldName("parameters"))
	if err != nil {
		return err
	}
	c.ctorArity = append(c.ctorArity, arity)
	return nil
}

// compactConstructorDecl records the canonical constructor of a record.
func (x *extractor) compactConstructorDecl(c *classBody, n *sitter.Node) error {
	mods, annots := x.modifiers(n)
	el := &store.Element{Kind: KindConstructor, Name: ConstructorName, Modifiers: mods}
	if err := x.insertMember(c, n, el, annots); err != nil {
		return err
	}
	if err := x.syntheticParameters(el.ID, c.compNames, c.components); err != nil {
		return err
	}
	c.ctorArity = append(c.ctorArity, len(c.components))
	return nil
}

func (x *extractor) enumConstant(c *classBody, n *sitter.Node) error {
	mods, annots := x.modifiers(n)
	mods = addModifier(mods, ModPublic, ModStatic, ModFinal)
	el := &store.Element{
		Kind:       KindEnumConstant,
		Name:       x.text(n.ChildByFieldName("name")),
		Modifiers:  mods,
		TypeSyntax: encodeTypeSyntax(&TypeSyntax{Kind: syntaxClass, Name: c.qname}),
	}
	return x.insertMember(c, n, el, annots)
}

func (x *extractor) recordComponents(c *classBody, n *sitter.Node) error {
	params := n.ChildByFieldName("parameters")
	if params == nil {
		params = childOfType(n, "formal_parameters")
	}
	for _, p := range namedChildren(params) {
		if p.Type() != "formal_parameter" {
			continue
		}
		_, annots := x.modifiers(p)
		t := arrayOf(x.typeSyntax(p.ChildByFieldName("type")), x.dims(childOfType(p, "dimensions")))
		name := x.text(p.ChildByFieldName("name"))
		el := &store.Element{
			Kind:       KindField,
			Name:       name,
			Modifiers:  []string{ModPrivate, ModFinal},
			TypeSyntax: encodeTypeSyntax(t),
		}
		if err := x.insertMember(c, p, el, annots); err != nil {
			return err
		}
		c.components = append(c.components, t)
		c.compNames = append(c.compNames, name)
	}
	return nil
}

// implicitMembers adds the members javac generates for a class body.
func (x *extractor) implicitMembers(c *classBody) error {
	switch c.kind {
	case KindClass:
		if len(c.ctorArity) == 0 {
			var mods []string
			for _, m := range []string{ModPublic, ModProtected, ModPrivate} {
				if containsString(c.mods, m) {
					mods = []string{m}
				}
			}
			el := &store.Element{Kind: KindConstructor, Name: ConstructorName, Modifiers: mods}
			return x.insertMember(c, nil, el, nil)
		}
	case KindEnum:
		if len(c.ctorArity) == 0 {
			el := &store.Element{Kind: KindConstructor, Name: ConstructorName, Modifiers: []string{ModPrivate}}
			if err := x.insertMember(c, nil, el, nil); err != nil {
				return err
			}
		}
		self := &TypeSyntax{Kind: syntaxClass, Name: c.qname}
		if !c.declared("values", 0) {
			el := &store.Element{
				Kind: KindMethod, Name: "values",
				Modifiers:  []string{ModPublic, ModStatic},
				TypeSyntax: encodeTypeSyntax(arrayOf(self, 1)),
			}
			if err := x.insertMember(c, nil, el, nil); err != nil {
				return err
			}
		}
		if !c.declared("valueOf", 1) {
			el := &store.Element{
				Kind: KindMethod, Name: "valueOf",
				Modifiers:  []string{ModPublic, ModStatic},
				TypeSyntax: encodeTypeSyntax(self),
			}
			if err := x.insertMember(c, nil, el, nil); err != nil {
				return err
			}
			str := &TypeSyntax{Kind: syntaxClass, Name: "java.lang.String"}
			if err := x.syntheticParameters(el.ID, []string{"name"}, []*TypeSyntax{str}); err != nil {
				return err
			}
		}
	case KindRecord:
		for i, name := range c.compNames {
			if c.declared(name, 0) {
				continue
			}
			el := &store.Element{
				Kind: KindMethod, Name: name,
				Modifiers:  []string{ModPublic},
				TypeSyntax: encodeTypeSyntax(c.components[i]),
			}
			if err := x.insertMember(c, nil, el, nil); err != nil {
				return err
			}
		}
		for _, a := range c.ctorArity {
			if a == len(c.components) {
				return nil
			}
		}
		el := &store.Element{Kind: KindConstructor, Name: ConstructorName, Modifiers: []string{ModPublic}}
		if err := x.insertMember(c, nil, el, nil); err != nil {
			return err
		}
		return x.syntheticParameters(el.ID, c.compNames, c.components)
	}
	return nil
}

func (x *extractor) syntheticParameters(ownerID int64, names []string, types []*TypeSyntax) error {
	for i, t := range types {
		el := &store.Element{
			FileID:     x.fileID,
			ParentID:   &ownerID,
			Kind:       KindParameter,
			Name:       names[i],
			Ordinal:    i,
			Modifiers:  []string{},
			TypeSyntax: encodeTypeSyntax(t),
		}
		if _, err := x.st.InsertElement(el); err != nil {
			return err
		}
	}
	return nil
}

// parameters records the value parameters of a method or constructor and
// returns their count.
func (x *extractor) parameters(ownerID int64, params *sitter.Node) (int, error) {
	ordinal := 0
	for _, p := range namedChildren(params) {
		el := &store.Element{FileID: x.fileID, ParentID: &ownerID, Kind: KindParameter}
		mods, annots := x.modifiers(p)
		el.Modifiers = mods
		switch p.Type() {
		case "formal_parameter":
			el.Name = x.text(p.ChildByFieldName("name"))
			el.TypeSyntax = encodeTypeSyntax(arrayOf(x.typeSyntax(p.ChildByFieldName("type")), x.dims(childOfType(p, "dimensions"))))
		case "spread_parameter":
			var elem *TypeSyntax
			for _, c := range namedChildren(p) {
				switch c.Type() {
				case "modifiers":
				case "variable_declarator":
					el.Name = x.text(c.ChildByFieldName("name"))
				default:
					if elem == nil {
						elem = x.typeSyntax(c)
					}
				}
			}
			el.Varargs = true
			el.TypeSyntax = encodeTypeSyntax(arrayOf(elem, 1))
		default:
			continue
		}
		el.Ordinal = ordinal
		ordinal++
		locate(p, el)
		if _, err := x.st.InsertElement(el); err != nil {
			return 0, err
		}
		if err := x.annotations(el.ID, annots); err != nil {
			return 0, err
		}
	}
	return ordinal, nil
}

// --- type syntax ---

// dims counts the bracket pairs of a dimensions node.
func (x *extractor) dims(n *sitter.Node) int {
	if n == nil {
		return 0
	}
	count := 0
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.Child(i).Type() == "[" {
			count++
		}
	}
	return count
}

// typeName returns the dotted name of a (possibly scoped or generic) type
// node with annotations and type arguments removed.
func (x *extractor) typeName(n *sitter.Node) string {
	switch n.Type() {
	case "type_identifier", "identifier":
		return x.text(n)
	case "scoped_type_identifier", "scoped_identifier":
		var parts []string
		for _, c := range namedChildren(n) {
			switch c.Type() {
			case "marker_annotation", "annotation":
				continue
			}
			parts = append(parts, x.typeName(c))
		}
		return strings.Join(parts, ".")
	case "generic_type":
		if cs := namedChildren(n); len(cs) > 0 {
			return x.typeName(cs[0])
		}
	}
	return compactName(x.text(n))
}

func (x *extractor) typeSyntax(n *sitter.Node) *TypeSyntax {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case "integral_type", "floating_point_type", "boolean_type", "void_type":
		return &TypeSyntax{Kind: syntaxPrim, Name: x.text(n)}
	case "type_identifier", "identifier", "scoped_type_identifier", "scoped_identifier":
		return &TypeSyntax{Kind: syntaxClass, Name: x.typeName(n)}
	case "generic_type":
		t := &TypeSyntax{Kind: syntaxClass, Name: x.typeName(n)}
		for _, a := range namedChildren(childOfType(n, "type_arguments")) {
			switch a.Type() {
			case "marker_annotation", "annotation":
				continue
			}
			t.Args = append(t.Args, x.typeSyntax(a))
		}
		return t
	case "array_type":
		return arrayOf(x.typeSyntax(n.ChildByFieldName("element")), x.dims(n.ChildByFieldName("dimensions")))
	case "annotated_type":
		for _, c := range namedChildren(n) {
			switch c.Type() {
			case "marker_annotation", "annotation":
				continue
			}
			return x.typeSyntax(c)
		}
	case "wildcard":
		t := &TypeSyntax{Kind: syntaxWildcard, Super: hasChildOfType(n, "super")}
		for _, c := range namedChildren(n) {
			switch c.Type() {
			case "marker_annotation", "annotation", "super":
				continue
			}
			t.Elem = x.typeSyntax(c)
		}
		return t
	}
	return &TypeSyntax{Kind: syntaxClass, Name: compactName(x.text(n))}
}

// --- annotation values ---

func (x *extractor) annotationArgs(a *sitter.Node) []NamedValue {
	args := a.ChildByFieldName("arguments")
	if args == nil {
		return nil
	}
	var out []NamedValue
	for _, c := range namedChildren(args) {
		if c.Type() == "element_value_pair" {
			out = append(out, NamedValue{
				Name:  x.text(c.ChildByFieldName("key")),
				Value: x.elementValue(c.ChildByFieldName("value")),
			})
			continue
		}
		out = append(out, NamedValue{Name: "value", Value: x.elementValue(c)})
	}
	return out
}

func (x *extractor) elementValue(n *sitter.Node) *ValueSyntax {
	if n == nil {
		return &ValueSyntax{Kind: valueExpr}
	}
	text := x.text(n)
	switch n.Type() {
	case "string_literal", "text_block":
		return &ValueSyntax{Kind: valueLiteral, Lit: litString, Text: unquoteJavaString(text)}
	case "character_literal":
		return &ValueSyntax{Kind: valueLiteral, Lit: litChar, Text: unquoteJavaChar(text)}
	case "decimal_integer_literal", "hex_integer_literal", "octal_integer_literal", "binary_integer_literal":
		lit := litInt
		if strings.HasSuffix(text, "l") || strings.HasSuffix(text, "L") {
			lit = litLong
		}
		return &ValueSyntax{Kind: valueLiteral, Lit: lit, Text: text}
	case "decimal_floating_point_literal", "hex_floating_point_literal":
		lit := litDouble
		if strings.HasSuffix(text, "f") || strings.HasSuffix(text, "F") {
			lit = litFloat
		}
		return &ValueSyntax{Kind: valueLiteral, Lit: lit, Text: text}
	case "true", "false":
		return &ValueSyntax{Kind: valueLiteral, Lit: litBool, Text: text}
	case "null_literal":
		return &ValueSyntax{Kind: valueLiteral, Lit: litNull, Text: text}
	case "class_literal":
		if cs := namedChildren(n); len(cs) > 0 {
			return &ValueSyntax{Kind: valueClass, Type: x.typeSyntax(cs[0])}
		}
	case "identifier", "field_access", "scoped_identifier":
		return &ValueSyntax{Kind: valueName, Text: compactName(text)}
	case "marker_annotation", "annotation":
		return &ValueSyntax{
			Kind: valueAnnotation,
			Name: compactName(x.text(n.ChildByFieldName("name"))),
			Args: x.annotationArgs(n),
		}
	case "element_value_array_initializer", "array_initializer":
		v := &ValueSyntax{Kind: valueArray, Items: []*ValueSyntax{}}
		for _, c := range namedChildren(n) {
			v.Items = append(v.Items, x.elementValue(c))
		}
		return v
	case "parenthesized_expression":
		if cs := namedChildren(n); len(cs) == 1 {
			return x.elementValue(cs[0])
		}
	case "unary_expression":
		cs := namedChildren(n)
		if len(cs) == 1 && strings.HasPrefix(strings.TrimSpace(text), "-") {
			inner := x.elementValue(cs[0])
			if inner.Kind == valueLiteral {
				switch inner.Lit {
				case litInt, litLong, litFloat, litDouble:
					inner.Text = "-" + inner.Text
					return inner
				}
			}
		}
	}
	return &ValueSyntax{Kind: valueExpr, Text: text}
}
