package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jward/interop"
)

// --- Helpers ---

// outputResult writes result in the selected format.
func outputResult(w io.Writer, result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(w, result)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(w io.Writer, command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(CLIResult{Command: command, Error: err.Error()})
	return err
}

// queryCommand opens a session, runs fn against the selected project and
// prints its result.
func queryCommand(name string, fn func(p *interop.Project, args []string) (any, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		s, err := openSession()
		if err != nil {
			return outputError(w, name, err)
		}
		defer s.Close()

		results, err := fn(s.project.WithContext(cmd.Context()), args)
		if err != nil {
			return outputError(w, name, err)
		}
		return outputResult(w, CLIResult{Command: name, Results: results})
	}
}

// lookupElement accepts either an element key such as
// "method:a.B#run()" or a class name in canonical or binary form.
func lookupElement(p *interop.Project, arg string) (interop.Adapter, error) {
	if strings.Contains(arg, ":") {
		h, err := interop.ParseHandle(arg)
		if err != nil {
			return nil, err
		}
		a, err := p.Element(h)
		if err != nil {
			return nil, err
		}
		name, err := a.SimpleName()
		if err != nil {
			return nil, err
		}
		if name == "" {
			return nil, fmt.Errorf("element not found: %s", arg)
		}
		return a, nil
	}
	c, err := p.FindClass(arg)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("class not found: %s", arg)
	}
	return c, nil
}

func lookupClass(p *interop.Project, arg string) (*interop.Classifier, error) {
	a, err := lookupElement(p, arg)
	if err != nil {
		return nil, err
	}
	c, ok := a.(*interop.Classifier)
	if !ok {
		return nil, fmt.Errorf("not a class: %s", a.Key())
	}
	return c, nil
}

type describable interface {
	interop.Adapter
	Info() (interop.ElementInfo, error)
}

type modified interface {
	Modifiers() (interop.ModifierSet, error)
	Visibility() (interop.Visibility, error)
}

// describe builds the CLI form of an element.
func describe(a interop.Adapter) (CLIElement, error) {
	name, err := a.SimpleName()
	if err != nil {
		return CLIElement{}, err
	}
	el := CLIElement{Key: a.Key(), Name: name, Kind: a.Handle().Kind.String()}
	if d, ok := a.(describable); ok {
		info, err := d.Info()
		if err != nil {
			return CLIElement{}, err
		}
		if info.Kind != "" {
			el.Kind = info.Kind
		}
		el.Path, el.Line, el.Generated = info.Path, info.Line, info.Generated
	}
	if m, ok := a.(modified); ok {
		mods, err := m.Modifiers()
		if err != nil {
			return CLIElement{}, err
		}
		vis, err := m.Visibility()
		if err != nil {
			return CLIElement{}, err
		}
		el.Modifiers = &mods
		el.Visibility = vis.String()
	}
	return el, nil
}

func describeAll[A interop.Adapter](as []A, err error) ([]CLIElement, error) {
	if err != nil {
		return nil, err
	}
	out := make([]CLIElement, 0, len(as))
	for _, a := range as {
		el, err := describe(a)
		if err != nil {
			return nil, err
		}
		out = append(out, el)
	}
	return out, nil
}

func cliTypes(types []*interop.Type) []CLIType {
	out := make([]CLIType, len(types))
	for i, t := range types {
		out[i] = CLIType{Type: t.String(), Handle: t.Handle()}
	}
	return out
}

// --- Commands ---

var resolveCmd = &cobra.Command{
	Use:   "resolve <class|key>",
	Short: "Resolve a class name or element key",
	Args:  cobra.ExactArgs(1),
	RunE: queryCommand("resolve", func(p *interop.Project, args []string) (any, error) {
		a, err := lookupElement(p, args[0])
		if err != nil {
			return nil, err
		}
		return describe(a)
	}),
}

var supertypesCmd = &cobra.Command{
	Use:   "supertypes <class>",
	Short: "List the direct supertypes of a class, superclass first",
	Args:  cobra.ExactArgs(1),
	RunE: queryCommand("supertypes", func(p *interop.Project, args []string) (any, error) {
		c, err := lookupClass(p, args[0])
		if err != nil {
			return nil, err
		}
		types, err := c.Supertypes()
		if err != nil {
			return nil, err
		}
		return cliTypes(types), nil
	}),
}

var flagMemberKind string

var membersCmd = &cobra.Command{
	Use:   "members <class>",
	Short: "List the members of a class",
	Args:  cobra.ExactArgs(1),
	RunE: queryCommand("members", func(p *interop.Project, args []string) (any, error) {
		c, err := lookupClass(p, args[0])
		if err != nil {
			return nil, err
		}
		return classMembers(c, flagMemberKind)
	}),
}

func init() {
	membersCmd.Flags().StringVar(&flagMemberKind, "kind", "all", "member kind: all|methods|constructors|fields|enum-constants|classes|type-parameters")
}

func classMembers(c *interop.Classifier, kind string) ([]CLIElement, error) {
	switch kind {
	case "methods":
		return describeAll(c.Methods())
	case "constructors":
		return describeAll(c.Constructors())
	case "fields":
		return describeAll(c.Fields())
	case "enum-constants":
		return describeAll(c.EnumConstants())
	case "classes":
		return describeAll(c.InnerClasses())
	case "type-parameters":
		return describeAll(c.TypeParameters())
	case "all":
		var out []CLIElement
		for _, k := range []string{"type-parameters", "fields", "constructors", "methods", "classes"} {
			els, err := classMembers(c, k)
			if err != nil {
				return nil, err
			}
			out = append(out, els...)
		}
		return out, nil
	}
	return nil, fmt.Errorf("invalid member kind %q", kind)
}

var paramsCmd = &cobra.Command{
	Use:   "params <key>",
	Short: "List the value parameters of a method or constructor",
	Args:  cobra.ExactArgs(1),
	RunE: queryCommand("params", func(p *interop.Project, args []string) (any, error) {
		a, err := lookupElement(p, args[0])
		if err != nil {
			return nil, err
		}
		e, ok := a.(interface {
			ValueParameters() ([]*interop.ValueParameter, error)
		})
		if !ok {
			return nil, fmt.Errorf("not a method or constructor: %s", a.Key())
		}
		params, err := e.ValueParameters()
		if err != nil {
			return nil, err
		}
		out := make([]CLIParameter, len(params))
		for i, vp := range params {
			out[i] = CLIParameter{Index: vp.Index, Name: vp.Name, Type: vp.Type.String(), Varargs: vp.Varargs}
		}
		return out, nil
	}),
}

var annotationsCmd = &cobra.Command{
	Use:   "annotations <class|key>",
	Short: "List the annotations of an element with their arguments",
	Args:  cobra.ExactArgs(1),
	RunE: queryCommand("annotations", func(p *interop.Project, args []string) (any, error) {
		a, err := lookupElement(p, args[0])
		if err != nil {
			return nil, err
		}
		h, ok := a.(interface {
			Annotations() ([]*interop.Annotation, error)
		})
		if !ok {
			return []CLIAnnotation{}, nil
		}
		anns, err := h.Annotations()
		if err != nil {
			return nil, err
		}
		out := make([]CLIAnnotation, len(anns))
		for i, ann := range anns {
			out[i] = CLIAnnotation{Type: ann.QualifiedName(), Args: ann.Arguments()}
		}
		return out, nil
	}),
}

var nestedIDCmd = &cobra.Command{
	Use:   "nested-id <class>",
	Short: "Show the package and nesting chain of a class",
	Args:  cobra.ExactArgs(1),
	RunE: queryCommand("nested-id", func(p *interop.Project, args []string) (any, error) {
		c, err := lookupClass(p, args[0])
		if err != nil {
			return nil, err
		}
		id, ok, err := c.NestedID()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("class not found: %s", args[0])
		}
		return CLINestedID{
			Package:    id.Package,
			Names:      id.Names,
			FqName:     id.FqName(),
			BinaryName: id.BinaryName(),
			Nested:     id.IsNested(),
		}, nil
	}),
}

var visibilityCmd = &cobra.Command{
	Use:   "visibility <class|key>",
	Short: "Show the analyzer-side visibility of an element",
	Args:  cobra.ExactArgs(1),
	RunE: queryCommand("visibility", func(p *interop.Project, args []string) (any, error) {
		a, err := lookupElement(p, args[0])
		if err != nil {
			return nil, err
		}
		m, ok := a.(modified)
		if !ok {
			return nil, fmt.Errorf("no visibility for %s", a.Key())
		}
		vis, err := m.Visibility()
		if err != nil {
			return nil, err
		}
		return CLIVisibility{Key: a.Key(), Visibility: vis.String()}, nil
	}),
}
