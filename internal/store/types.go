package store

import "time"

// Origin identifies which lookup path a file was found on.
type Origin string

const (
	OriginPlatform   Origin = "platform"
	OriginDependency Origin = "dependency"
	OriginSource     Origin = "source"
)

type File struct {
	ID          int64
	Path        string
	Root        string
	Origin      Origin
	Rank        int
	Package     string
	Hash        string
	LastIndexed time.Time
}

type Import struct {
	ID       int64
	FileID   int64
	Name     string
	IsStatic bool
	OnDemand bool
}

// Element is one extracted declaration. Classes carry a canonical
// QualifiedName; members are addressed through ParentID.
type Element struct {
	ID            int64
	FileID        int64
	ParentID      *int64
	Kind          string
	Name          string
	QualifiedName string
	Modifiers     []string
	TypeSyntax    string
	Ordinal       int
	Varargs       bool
	DefaultValue  string
	StartLine     int
	StartCol      int
	EndLine       int
	EndCol        int
}

type Supertype struct {
	ID         int64
	ElementID  int64
	Ordinal    int
	Relation   string // "superclass" or "interface"
	TypeSyntax string
}

type TypeBound struct {
	ID         int64
	ElementID  int64
	Ordinal    int
	TypeSyntax string
}

type Annotation struct {
	ID        int64
	ElementID int64
	Ordinal   int
	Name      string
	Arguments string
}
