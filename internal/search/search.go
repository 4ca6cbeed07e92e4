// Package search holds the one-shot queries run against a compiler
// snapshot. Each searcher keeps its inputs and outputs in exported fields:
// the caller fills the inputs, dispatches the searcher once and reads the
// outputs afterwards. No native compiler value survives Run.
//
// An input handle that no longer resolves leaves the outputs at their zero
// values. Asking a question that does not apply to the input's kind, such as
// the field type of a method, fails with a *ContractError.
package search

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/jward/interop/internal/compiler"
	"github.com/jward/interop/internal/handle"
)

// ErrContractViolation is wrapped by every *ContractError.
var ErrContractViolation = errors.New("search: contract violation")

// ContractError reports a searcher run on an input of the wrong kind.
type ContractError struct {
	Searcher string
	Handle   handle.ElementHandle
	Want     []handle.Kind
}

func (e *ContractError) Error() string {
	want := make([]string, len(e.Want))
	for i, k := range e.Want {
		want[i] = k.String()
	}
	return fmt.Sprintf("search: %s: %s is a %s, want %s",
		e.Searcher, e.Handle.QualifiedName, e.Handle.Kind, strings.Join(want, " or "))
}

func (e *ContractError) Unwrap() error { return ErrContractViolation }

// Searcher is a query together with the phase it needs.
type Searcher interface {
	Name() string
	Phase() compiler.Phase
	Run(snap *compiler.Snapshot) error
}

func expectKind(searcher string, h handle.ElementHandle, kinds ...handle.Kind) error {
	if slices.Contains(kinds, h.Kind) {
		return nil
	}
	return &ContractError{Searcher: searcher, Handle: h, Want: kinds}
}

// begin advances snap to phase and resolves h. A nil element means h is
// absent from the snapshot.
func begin(snap *compiler.Snapshot, phase compiler.Phase, h handle.ElementHandle) *compiler.Element {
	snap.ToPhase(phase)
	el, ok := h.Resolve(snap)
	if !ok {
		return nil
	}
	return el
}

// handlesOf converts elements, dropping any that have no handle.
func handlesOf(els []*compiler.Element) []handle.ElementHandle {
	out := make([]handle.ElementHandle, 0, len(els))
	for _, el := range els {
		if h, ok := handle.FromElement(el); ok {
			out = append(out, h)
		}
	}
	return out
}

// typesOf converts types, dropping any whose class has no handle.
func typesOf(ts []compiler.TypeMirror) []handle.TypeHandle {
	out := make([]handle.TypeHandle, 0, len(ts))
	for _, t := range ts {
		if th := handle.FromType(t); !th.IsZero() {
			out = append(out, th)
		}
	}
	return out
}

// objectType is the universal root type.
func objectType() handle.TypeHandle {
	return handle.DeclaredOf(handle.ForClass("java.lang.Object"))
}

var javaKeywords = map[string]bool{
	"abstract": true, "assert": true, "boolean": true, "break": true, "byte": true,
	"case": true, "catch": true, "char": true, "class": true, "const": true,
	"continue": true, "default": true, "do": true, "double": true, "else": true,
	"enum": true, "extends": true, "final": true, "finally": true, "float": true,
	"for": true, "goto": true, "if": true, "implements": true, "import": true,
	"instanceof": true, "int": true, "interface": true, "long": true, "native": true,
	"new": true, "package": true, "private": true, "protected": true, "public": true,
	"return": true, "short": true, "static": true, "strictfp": true, "super": true,
	"switch": true, "synchronized": true, "this": true, "throw": true, "throws": true,
	"transient": true, "try": true, "void": true, "volatile": true, "while": true,
	"true": true, "false": true, "null": true, "_": true,
}

// validIdentifier reports whether name can be referenced from source.
// Compiler-internal names such as this$0 or $assertionsDisabled are not.
func validIdentifier(name string) bool {
	if name == "" || javaKeywords[name] || strings.HasPrefix(name, "$") || isSyntheticDollar(name) {
		return false
	}
	for i, r := range name {
		letter := r == '_' || r == '$' || 'a' <= r && r <= 'z' || 'A' <= r && r <= 'Z' || r > 0x7f
		if !letter && (i == 0 || r < '0' || r > '9') {
			return false
		}
	}
	return true
}

// isSyntheticDollar matches the javac patterns this$N and val$name.
func isSyntheticDollar(name string) bool {
	return strings.HasPrefix(name, "this$") || strings.HasPrefix(name, "val$") || strings.HasPrefix(name, "access$")
}
