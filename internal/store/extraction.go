package store

import (
	"database/sql"
	"fmt"
)

// --- File operations ---

func (s *Store) InsertFile(f *File) (int64, error) {
	res, err := s.q.Exec(
		"INSERT INTO files (path, root, origin, rank, package, hash, last_indexed) VALUES (?, ?, ?, ?, ?, ?, ?)",
		f.Path, f.Root, string(f.Origin), f.Rank, f.Package, f.Hash, f.LastIndexed,
	)
	if err != nil {
		return 0, fmt.Errorf("insert file: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	f.ID = id
	return id, nil
}

const fileCols = "id, path, root, origin, rank, package, hash, last_indexed"

func scanFile(scanner interface{ Scan(...any) error }) (*File, error) {
	f := &File{}
	var origin string
	if err := scanner.Scan(&f.ID, &f.Path, &f.Root, &origin, &f.Rank, &f.Package, &f.Hash, &f.LastIndexed); err != nil {
		return nil, err
	}
	f.Origin = Origin(origin)
	return f, nil
}

func (s *Store) FileByPath(path string) (*File, error) {
	f, err := scanFile(s.q.QueryRow("SELECT "+fileCols+" FROM files WHERE path = ?", path))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file by path: %w", err)
	}
	return f, nil
}

func (s *Store) FileByID(id int64) (*File, error) {
	f, err := scanFile(s.q.QueryRow("SELECT "+fileCols+" FROM files WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file by id: %w", err)
	}
	return f, nil
}

// Files returns every indexed file ordered by lookup rank.
func (s *Store) Files() ([]*File, error) {
	rows, err := s.q.Query("SELECT " + fileCols + " FROM files ORDER BY rank, path")
	if err != nil {
		return nil, fmt.Errorf("files: %w", err)
	}
	defer rows.Close()
	var files []*File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// --- Import operations ---

func (s *Store) InsertImport(imp *Import) (int64, error) {
	res, err := s.q.Exec(
		"INSERT INTO imports (file_id, name, is_static, on_demand) VALUES (?, ?, ?, ?)",
		imp.FileID, imp.Name, imp.IsStatic, imp.OnDemand,
	)
	if err != nil {
		return 0, fmt.Errorf("insert import: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	imp.ID = id
	return id, nil
}

func (s *Store) ImportsByFile(fileID int64) ([]*Import, error) {
	rows, err := s.q.Query("SELECT id, file_id, name, is_static, on_demand FROM imports WHERE file_id = ? ORDER BY id", fileID)
	if err != nil {
		return nil, fmt.Errorf("imports by file: %w", err)
	}
	defer rows.Close()
	var imports []*Import
	for rows.Next() {
		imp := &Import{}
		if err := rows.Scan(&imp.ID, &imp.FileID, &imp.Name, &imp.IsStatic, &imp.OnDemand); err != nil {
			return nil, fmt.Errorf("scan import: %w", err)
		}
		imports = append(imports, imp)
	}
	return imports, rows.Err()
}

// --- Element operations ---

func (s *Store) InsertElement(el *Element) (int64, error) {
	var qname any
	if el.QualifiedName != "" {
		qname = el.QualifiedName
	}
	res, err := s.q.Exec(
		`INSERT INTO elements (file_id, parent_id, kind, name, qualified_name, modifiers, type_syntax,
			ordinal, varargs, default_value, start_line, start_col, end_line, end_col)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		el.FileID, el.ParentID, el.Kind, el.Name, qname, marshalModifiers(el.Modifiers), el.TypeSyntax,
		el.Ordinal, el.Varargs, el.DefaultValue, el.StartLine, el.StartCol, el.EndLine, el.EndCol,
	)
	if err != nil {
		return 0, fmt.Errorf("insert element: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	el.ID = id
	return id, nil
}

// ElementCols is the column list for element queries.
const ElementCols = `e.id, e.file_id, e.parent_id, e.kind, e.name, COALESCE(e.qualified_name, ''),
	e.modifiers, COALESCE(e.type_syntax, ''), e.ordinal, e.varargs, COALESCE(e.default_value, ''),
	e.start_line, e.start_col, e.end_line, e.end_col`

func scanElement(scanner interface{ Scan(...any) error }) (*Element, error) {
	el := &Element{}
	var mods string
	err := scanner.Scan(
		&el.ID, &el.FileID, &el.ParentID, &el.Kind, &el.Name, &el.QualifiedName,
		&mods, &el.TypeSyntax, &el.Ordinal, &el.Varargs, &el.DefaultValue,
		&el.StartLine, &el.StartCol, &el.EndLine, &el.EndCol,
	)
	if err != nil {
		return nil, err
	}
	el.Modifiers = unmarshalModifiers(mods)
	return el, nil
}

func (s *Store) queryElements(query string, args ...any) ([]*Element, error) {
	rows, err := s.q.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var elements []*Element
	for rows.Next() {
		el, err := scanElement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan element: %w", err)
		}
		elements = append(elements, el)
	}
	return elements, rows.Err()
}

func (s *Store) ElementByID(id int64) (*Element, error) {
	el, err := scanElement(s.q.QueryRow("SELECT "+ElementCols+" FROM elements e WHERE e.id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("element by id: %w", err)
	}
	return el, nil
}

// ClassByQualifiedName returns the class declared under qname on the
// highest-priority lookup path, or nil.
func (s *Store) ClassByQualifiedName(qname string) (*Element, error) {
	el, err := scanElement(s.q.QueryRow(
		"SELECT "+ElementCols+` FROM elements e JOIN files f ON f.id = e.file_id
		 WHERE e.qualified_name = ? ORDER BY f.rank, e.id LIMIT 1`, qname))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("class by qualified name: %w", err)
	}
	return el, nil
}

// ElementChildren returns the direct children of an element in declaration order.
func (s *Store) ElementChildren(parentID int64) ([]*Element, error) {
	els, err := s.queryElements("SELECT "+ElementCols+" FROM elements e WHERE e.parent_id = ? ORDER BY e.ordinal, e.id", parentID)
	if err != nil {
		return nil, fmt.Errorf("element children: %w", err)
	}
	return els, nil
}

// ElementChildrenByKind returns the children of parentID with one of kinds.
func (s *Store) ElementChildrenByKind(parentID int64, kinds ...string) ([]*Element, error) {
	args := append([]any{parentID}, stringsToArgs(kinds)...)
	els, err := s.queryElements(
		"SELECT "+ElementCols+" FROM elements e WHERE e.parent_id = ? AND e.kind IN ("+placeholderList(len(kinds))+") ORDER BY e.ordinal, e.id",
		args...)
	if err != nil {
		return nil, fmt.Errorf("element children by kind: %w", err)
	}
	return els, nil
}

// TopLevelClasses returns the top-level classes of a package, shadowed
// duplicates from lower-priority lookup paths removed.
func (s *Store) TopLevelClasses(pkg string) ([]*Element, error) {
	els, err := s.queryElements(
		"SELECT "+ElementCols+` FROM elements e JOIN files f ON f.id = e.file_id
		 WHERE f.package = ? AND e.parent_id IS NULL AND e.qualified_name IS NOT NULL
		 ORDER BY f.rank, e.name, e.id`, pkg)
	if err != nil {
		return nil, fmt.Errorf("top level classes: %w", err)
	}
	seen := make(map[string]bool, len(els))
	result := els[:0]
	for _, el := range els {
		if seen[el.QualifiedName] {
			continue
		}
		seen[el.QualifiedName] = true
		result = append(result, el)
	}
	return result, nil
}

// --- Package operations ---

// PackageExists reports whether any file declares pkg or a subpackage of it.
func (s *Store) PackageExists(pkg string) (bool, error) {
	var n int
	err := s.q.QueryRow(
		"SELECT COUNT(*) FROM files WHERE package = ? OR package LIKE ? ESCAPE '\\'",
		pkg, escapeLike(pkg)+".%",
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("package exists: %w", err)
	}
	return n > 0, nil
}

// Packages returns every distinct declared package name, sorted.
func (s *Store) Packages() ([]string, error) {
	rows, err := s.q.Query("SELECT DISTINCT package FROM files ORDER BY package")
	if err != nil {
		return nil, fmt.Errorf("packages: %w", err)
	}
	defer rows.Close()
	var pkgs []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan package: %w", err)
		}
		pkgs = append(pkgs, p)
	}
	return pkgs, rows.Err()
}

func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}

// --- Supertype operations ---

func (s *Store) InsertSupertype(st *Supertype) (int64, error) {
	res, err := s.q.Exec(
		"INSERT INTO supertypes (element_id, ordinal, relation, type_syntax) VALUES (?, ?, ?, ?)",
		st.ElementID, st.Ordinal, st.Relation, st.TypeSyntax,
	)
	if err != nil {
		return 0, fmt.Errorf("insert supertype: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	st.ID = id
	return id, nil
}

func (s *Store) Supertypes(elementID int64) ([]*Supertype, error) {
	rows, err := s.q.Query(
		"SELECT id, element_id, ordinal, relation, type_syntax FROM supertypes WHERE element_id = ? ORDER BY ordinal", elementID)
	if err != nil {
		return nil, fmt.Errorf("supertypes: %w", err)
	}
	defer rows.Close()
	var result []*Supertype
	for rows.Next() {
		st := &Supertype{}
		if err := rows.Scan(&st.ID, &st.ElementID, &st.Ordinal, &st.Relation, &st.TypeSyntax); err != nil {
			return nil, fmt.Errorf("scan supertype: %w", err)
		}
		result = append(result, st)
	}
	return result, rows.Err()
}

// --- Type bound operations ---

func (s *Store) InsertTypeBound(b *TypeBound) (int64, error) {
	res, err := s.q.Exec(
		"INSERT INTO type_bounds (element_id, ordinal, type_syntax) VALUES (?, ?, ?)",
		b.ElementID, b.Ordinal, b.TypeSyntax,
	)
	if err != nil {
		return 0, fmt.Errorf("insert type bound: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	b.ID = id
	return id, nil
}

func (s *Store) TypeBounds(elementID int64) ([]*TypeBound, error) {
	rows, err := s.q.Query(
		"SELECT id, element_id, ordinal, type_syntax FROM type_bounds WHERE element_id = ? ORDER BY ordinal", elementID)
	if err != nil {
		return nil, fmt.Errorf("type bounds: %w", err)
	}
	defer rows.Close()
	var result []*TypeBound
	for rows.Next() {
		b := &TypeBound{}
		if err := rows.Scan(&b.ID, &b.ElementID, &b.Ordinal, &b.TypeSyntax); err != nil {
			return nil, fmt.Errorf("scan type bound: %w", err)
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

// --- Annotation operations ---

func (s *Store) InsertAnnotation(a *Annotation) (int64, error) {
	res, err := s.q.Exec(
		"INSERT INTO annotations (element_id, ordinal, name, arguments) VALUES (?, ?, ?, ?)",
		a.ElementID, a.Ordinal, a.Name, a.Arguments,
	)
	if err != nil {
		return 0, fmt.Errorf("insert annotation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	a.ID = id
	return id, nil
}

func (s *Store) Annotations(elementID int64) ([]*Annotation, error) {
	rows, err := s.q.Query(
		"SELECT id, element_id, ordinal, name, COALESCE(arguments, '') FROM annotations WHERE element_id = ? ORDER BY ordinal", elementID)
	if err != nil {
		return nil, fmt.Errorf("annotations: %w", err)
	}
	defer rows.Close()
	var result []*Annotation
	for rows.Next() {
		a := &Annotation{}
		if err := rows.Scan(&a.ID, &a.ElementID, &a.Ordinal, &a.Name, &a.Arguments); err != nil {
			return nil, fmt.Errorf("scan annotation: %w", err)
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

// Stats counts the rows of the main tables.
type Stats struct {
	Files       int
	Elements    int
	Annotations int
}

func (s *Store) Stats() (Stats, error) {
	var st Stats
	err := s.q.QueryRow(
		"SELECT (SELECT COUNT(*) FROM files), (SELECT COUNT(*) FROM elements), (SELECT COUNT(*) FROM annotations)",
	).Scan(&st.Files, &st.Elements, &st.Annotations)
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	return st, nil
}
