package main

import (
	"fmt"
	"path/filepath"

	"github.com/risor-io/risor/object"
	"github.com/spf13/cobra"

	"github.com/jward/interop/internal/runtime"
)

var flagEval string

var scriptCmd = &cobra.Command{
	Use:   "script [file.risor]",
	Short: "Run a Risor script against the project",
	Long: `Runs a Risor script with bridge host functions such as find_class,
supertypes, methods, fields, annotations, visibility and nested_id. Element
arguments and results are element keys. The value of the script's last
expression is printed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScript,
}

func init() {
	scriptCmd.Flags().StringVarP(&flagEval, "eval", "e", "", "evaluate source instead of a file")
}

func runScript(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	if (flagEval == "") == (len(args) == 0) {
		return outputError(w, "script", fmt.Errorf("requires exactly one of a script file or --eval"))
	}
	s, err := openSession()
	if err != nil {
		return outputError(w, "script", err)
	}
	defer s.Close()

	var res object.Object
	if flagEval != "" {
		rt := runtime.NewRuntime(s.project, "", runtime.WithRuntimeLogger(s.log))
		res, err = rt.RunSource(cmd.Context(), flagEval, nil)
	} else {
		path, absErr := filepath.Abs(args[0])
		if absErr != nil {
			return outputError(w, "script", absErr)
		}
		rt := runtime.NewRuntime(s.project, filepath.Dir(path), runtime.WithRuntimeLogger(s.log))
		res, err = rt.RunScript(cmd.Context(), path, nil)
	}
	if err != nil {
		return outputError(w, "script", err)
	}
	var out any
	if res != nil && res != object.Nil {
		out = res.Interface()
	}
	if flagFormat == "text" {
		if res == nil {
			return nil
		}
		out = res.Inspect()
	}
	return outputResult(w, CLIResult{Command: "script", Results: out})
}
