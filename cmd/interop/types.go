package main

import "github.com/jward/interop"

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command string `json:"command"`
	Results any    `json:"results"`
	Error   string `json:"error,omitempty"`
}

// CLIElement is a JSON-friendly element representation. Key can be passed
// back to any command that takes an element.
type CLIElement struct {
	Key        string               `json:"key"`
	Name       string               `json:"name"`
	Kind       string               `json:"kind"`
	Visibility string               `json:"visibility,omitempty"`
	Modifiers  *interop.ModifierSet `json:"modifiers,omitempty"`
	Path       string               `json:"path,omitempty"`
	Line       int                  `json:"line,omitempty"`
	Generated  bool                 `json:"generated,omitempty"`
}

// CLIType is a type use with its structural handle.
type CLIType struct {
	Type   string             `json:"type"`
	Handle interop.TypeHandle `json:"handle"`
}

// CLIParameter is one value parameter of a method or constructor.
type CLIParameter struct {
	Index   int    `json:"index"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Varargs bool   `json:"varargs,omitempty"`
}

// CLIAnnotation is one annotation with its argument tree.
type CLIAnnotation struct {
	Type string                  `json:"type"`
	Args []interop.NamedArgument `json:"args,omitempty"`
}

// CLINestedID is the package and nesting chain of a class.
type CLINestedID struct {
	Package    string   `json:"package"`
	Names      []string `json:"names"`
	FqName     string   `json:"fq_name"`
	BinaryName string   `json:"binary_name"`
	Nested     bool     `json:"nested"`
}

// CLIVisibility is the analyzer-side visibility of an element.
type CLIVisibility struct {
	Key        string `json:"key"`
	Visibility string `json:"visibility"`
}
