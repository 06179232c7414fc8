// Copyright © 2021 The ELPS authors

package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/cobra"

	"github.com/luthersystems/pyscope/docs"
	"github.com/luthersystems/pyscope/lint"
)

const docWidth = 76

// DocCommand creates the "doc" cobra command.
func DocCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts)

	var guide bool

	cmd := &cobra.Command{
		Use:   "doc [CHECK]",
		Short: "Show documentation for the checks run by check",
		Long: `Show documentation for the checks run by "pyscope check".

With no argument, every check is listed with a one line summary. With the
name of a check, its full description is shown. Use --guide to print the
reference for the scoping rules the analysis follows.

Examples:
  pyscope doc                      List the available checks
  pyscope doc unused-variable      Show docs for the unused-variable check
  pyscope doc --guide              Show the scoping reference`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if guide {
				_, err := fmt.Fprint(cmd.OutOrStdout(), docs.ScopingGuide)
				return err
			}
			l, err := cfg.linter(args)
			if err != nil {
				return &exitError{code: 2, err: err}
			}
			out := bufio.NewWriter(cmd.OutOrStdout())
			defer out.Flush() //nolint:errcheck // best-effort flush on exit
			if len(args) == 0 {
				renderCheckList(out, l.Analyzers)
				return nil
			}
			renderCheck(out, l.Analyzers[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&guide, "guide", false,
		"Print the scoping reference.")

	return cmd
}

func renderCheckList(w io.Writer, analyzers []*lint.Analyzer) {
	for _, a := range analyzers {
		summary, _, _ := strings.Cut(a.Doc, "\n")
		fmt.Fprintf(w, "%-20s %s\n", a.Name, summary)
	}
}

func renderCheck(w io.Writer, a *lint.Analyzer) {
	fmt.Fprintf(w, "%s (%s)\n\n", a.Name, a.Severity)
	for _, para := range strings.Split(a.Doc, "\n\n") {
		text := wordwrap.String(strings.TrimSpace(para), docWidth-2)
		fmt.Fprintf(w, "%s\n\n", indent.String(text, 2))
	}
}
