// Copyright © 2024 The ELPS authors

package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/luthersystems/pyscope/analysis"
)

// refsOutput is the --json form of a references query.
type refsOutput struct {
	Name       string         `json:"name"`
	Kind       string         `json:"kind"`
	Scope      string         `json:"scope,omitempty"`
	Definition *refsLocation  `json:"definition,omitempty"`
	References []refsLocation `json:"references"`
}

type refsLocation struct {
	File string `json:"file"`
	Line int    `json:"line"`
	Col  int    `json:"col"`
	Site string `json:"site"`
}

func locationOf(o *analysis.Occurrence) refsLocation {
	start := o.Start()
	return refsLocation{File: start.File, Line: start.Line, Col: start.Col, Site: o.Site.String()}
}

// RefsCommand creates the "refs" cobra command.
func RefsCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts)

	var (
		at     string
		offset int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "refs [flags] FILE",
		Short: "List every occurrence of the name at a position",
		Long: `List every occurrence of the binding denoted by the name at a position.

The position is given either as --at LINE:COL (1-based, columns count
characters) or as a byte --offset. Occurrences are printed in source order
with the way each one uses the name: read, assign, declare or rebind.

Names that resolve to no binding list the other free occurrences of the same
name in the file, which is how builtins and undefined names are reported.

Examples:
  pyscope refs app.py --at 12:5
  pyscope refs app.py --offset 240 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := cfg.loadSettings()
			if err != nil {
				return &exitError{code: 2, err: err}
			}
			_, res, err := analyzeFile(args[0], st)
			if err != nil {
				return err
			}
			o, err := occurrenceAt(res, at, offset)
			if err != nil {
				return &exitError{code: 2, err: err}
			}
			out := describeRefs(res.Graph, o)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}
			writeRefs(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "Position of the name as LINE:COL.")
	cmd.Flags().IntVar(&offset, "offset", -1, "Byte offset of the name.")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output the references as JSON.")

	return cmd
}

func describeRefs(g *analysis.Graph, o *analysis.Occurrence) *refsOutput {
	out := &refsOutput{Name: o.Name(), References: []refsLocation{}}
	outcome := g.Outcome(o)
	switch {
	case outcome.Binding != nil:
		out.Kind = outcome.Binding.Kind.String()
		out.Scope = scopeName(outcome.Binding.Scope)
		if def := g.Definition(o); def != nil {
			loc := locationOf(def)
			out.Definition = &loc
		}
	case outcome.Predeclared:
		out.Kind = "builtin"
	default:
		out.Kind = "undefined"
	}
	for _, r := range g.ReferencesOf(o) {
		out.References = append(out.References, locationOf(r))
	}
	return out
}

func writeRefs(w io.Writer, out *refsOutput) {
	for _, r := range out.References {
		fmt.Fprintf(w, "%s:%d:%d: %s (%s)\n", r.File, r.Line, r.Col, out.Name, r.Site)
	}
}

// scopeName names a scope for display, e.g. "function f".
func scopeName(sc *analysis.Scope) string {
	if sc.Kind == analysis.ScopeModule || sc.Name == "" {
		return sc.Kind.String()
	}
	return sc.Kind.String() + " " + sc.Name
}
