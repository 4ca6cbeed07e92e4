package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// formatElementsText formats CLIElement results as aligned columns.
func formatElementsText(w io.Writer, els []CLIElement) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tNAME\tVISIBILITY\tLOCATION\tKEY")
	for _, e := range els {
		loc := e.Path
		if e.Line > 0 {
			loc = fmt.Sprintf("%s:%d", e.Path, e.Line)
		}
		if e.Generated {
			loc = "(generated)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.Kind, e.Name, e.Visibility, loc, e.Key)
	}
	tw.Flush()
}

// formatTypesText formats CLIType results one per line.
func formatTypesText(w io.Writer, types []CLIType) {
	for _, t := range types {
		fmt.Fprintln(w, t.Type)
	}
}

// formatParametersText formats CLIParameter results as aligned columns.
func formatParametersText(w io.Writer, params []CLIParameter) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tNAME\tTYPE")
	for _, p := range params {
		typ := p.Type
		if p.Varargs {
			typ = strings.TrimSuffix(typ, "[]") + "..."
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", p.Index, p.Name, typ)
	}
	tw.Flush()
}

// formatAnnotationsText prints each annotation with its arguments in JSON
// form, since argument trees nest arbitrarily.
func formatAnnotationsText(w io.Writer, anns []CLIAnnotation) error {
	for _, a := range anns {
		fmt.Fprintf(w, "@%s\n", a.Type)
		for _, arg := range a.Args {
			v, err := json.Marshal(arg.Value)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "  %s = %s\n", arg.Name, v)
		}
	}
	return nil
}

// outputResultText dispatches to the appropriate text formatter based on the
// result type.
func outputResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case CLIElement:
		formatElementsText(w, []CLIElement{v})
	case []CLIElement:
		formatElementsText(w, v)
	case []CLIType:
		formatTypesText(w, v)
	case []CLIParameter:
		formatParametersText(w, v)
	case []CLIAnnotation:
		return formatAnnotationsText(w, v)
	case CLINestedID:
		fmt.Fprintf(w, "%s\n%s\n", v.FqName, v.BinaryName)
	case CLIVisibility:
		fmt.Fprintln(w, v.Visibility)
	case string:
		fmt.Fprintln(w, v)
	case nil:
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}
	return nil
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
