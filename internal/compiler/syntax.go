package compiler

import (
	"encoding/json"
	"strings"
)

// Type syntax kinds, as written in source before name resolution.
const (
	syntaxClass    = "class"
	syntaxArray    = "array"
	syntaxWildcard = "wildcard"
	syntaxPrim     = "prim"
)

// TypeSyntax is an unresolved type expression. It is stored as JSON in the
// index and resolved against a snapshot on demand.
type TypeSyntax struct {
	Kind  string        `json:"k"`
	Name  string        `json:"n,omitempty"`
	Args  []*TypeSyntax `json:"a,omitempty"`
	Elem  *TypeSyntax   `json:"e,omitempty"`
	Super bool          `json:"s,omitempty"`
}

func (t *TypeSyntax) String() string {
	if t == nil {
		return ""
	}
	switch t.Kind {
	case syntaxArray:
		return t.Elem.String() + "[]"
	case syntaxWildcard:
		switch {
		case t.Elem == nil:
			return "?"
		case t.Super:
			return "? super " + t.Elem.String()
		default:
			return "? extends " + t.Elem.String()
		}
	case syntaxClass:
		if len(t.Args) == 0 {
			return t.Name
		}
		args := make([]string, len(t.Args))
		for i, a := range t.Args {
			args[i] = a.String()
		}
		return t.Name + "<" + strings.Join(args, ", ") + ">"
	default:
		return t.Name
	}
}

func arrayOf(elem *TypeSyntax, dims int) *TypeSyntax {
	for range dims {
		elem = &TypeSyntax{Kind: syntaxArray, Elem: elem}
	}
	return elem
}

func encodeTypeSyntax(t *TypeSyntax) string {
	if t == nil {
		return ""
	}
	b, _ := json.Marshal(t)
	return string(b)
}

func decodeTypeSyntax(s string) *TypeSyntax {
	if s == "" {
		return nil
	}
	var t TypeSyntax
	if err := json.Unmarshal([]byte(s), &t); err != nil {
		return nil
	}
	return &t
}

// Value syntax kinds for annotation element values.
const (
	valueLiteral    = "lit"
	valueClass      = "class"
	valueName       = "name"
	valueAnnotation = "annotation"
	valueArray      = "array"
	valueExpr       = "expr"
)

// Literal kinds carried by ValueSyntax.Lit.
const (
	litString = "string"
	litChar   = "char"
	litInt    = "int"
	litLong   = "long"
	litFloat  = "float"
	litDouble = "double"
	litBool   = "bool"
	litNull   = "null"
)

// ValueSyntax is an unresolved annotation element value.
type ValueSyntax struct {
	Kind  string         `json:"k"`
	Lit   string         `json:"l,omitempty"`
	Text  string         `json:"t,omitempty"`
	Type  *TypeSyntax    `json:"ty,omitempty"`
	Name  string         `json:"n,omitempty"`
	Args  []NamedValue   `json:"a,omitempty"`
	Items []*ValueSyntax `json:"i,omitempty"`
}

// NamedValue pairs an annotation element name with its value.
type NamedValue struct {
	Name  string       `json:"n"`
	Value *ValueSyntax `json:"v"`
}

func encodeJSON(v any) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func decodeValueSyntax(s string) *ValueSyntax {
	if s == "" {
		return nil
	}
	var v ValueSyntax
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil
	}
	return &v
}

func decodeNamedValues(s string) []NamedValue {
	if s == "" {
		return nil
	}
	var vs []NamedValue
	if err := json.Unmarshal([]byte(s), &vs); err != nil {
		return nil
	}
	return vs
}
