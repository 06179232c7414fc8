// Copyright © 2024 The ELPS authors

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/luthersystems/pyscope/lint"
	"github.com/luthersystems/pyscope/workspace"
)

// CheckCommand creates the "check" cobra command.  Embedders can pass
// WithUniverse or WithAnalyzers to adjust the names and checks it knows.
func CheckCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts)

	var (
		asJSON   bool
		checks   string
		listAll  bool
		excludes []string
	)

	cmd := &cobra.Command{
		Use:     "check [flags] [files...]",
		Aliases: []string{"lint"},
		Short:   "Report scoping mistakes in python source files",
		Long: `Report scoping mistakes in python source files.

Every file is resolved on its own and handed to a set of independent checks,
similar to "go vet" for Go. Files are analyzed in parallel (see --workers).

With no files, reads from stdin. Arguments may be files, directories, or
patterns ending in "/..." which expand to every .py file beneath them.

Exit codes:
  0  No problems found
  1  One or more problems were reported, or a file failed to parse
  2  Bad invocation (invalid flags, unreadable files)

To suppress a specific diagnostic, add a comment on the same line:
  unused = compute()  # nolint:unused-variable

To suppress all checks on a line:
  unused = compute()  # nolint

Available checks (use --checks to select specific ones):
` + lint.AnalyzerDoc() + `
Examples:
  pyscope check file.py                               # Check a single file
  pyscope check ./...                                 # Check a source tree
  pyscope check --json file.py                        # Output diagnostics as JSON
  pyscope check --checks=undefined-name file.py       # Run only specific checks
  pyscope check --list                                # List available checks
  pyscope check --exclude='migrations' ./...          # Exclude a directory
  cat file.py | pyscope check                         # Check stdin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listAll {
				for _, name := range lint.AnalyzerNames() {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			}
			var names []string
			if checks != "" {
				names = strings.Split(checks, ",")
			}
			l, err := cfg.linter(names)
			if err != nil {
				return &exitError{code: 2, err: err}
			}
			st, err := cfg.loadSettings()
			if err != nil {
				return &exitError{code: 2, err: err}
			}

			var units []workspace.Unit
			if len(args) == 0 {
				src, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return &exitError{code: 2, err: fmt.Errorf("reading stdin: %w", err)}
				}
				units = append(units, workspace.Unit{Filename: "<stdin>", Source: src})
			} else {
				paths, err := expandArgs(args, excludes)
				if err != nil {
					return &exitError{code: 2, err: err}
				}
				var unreadable workspace.Results
				units, unreadable = workspace.ReadUnits(paths)
				if len(unreadable) > 0 {
					return &exitError{code: 2, err: unreadable.Err()}
				}
			}

			results := workspace.NewBatch(&st.workspace).Run(cmd.Context(), units)
			diags, failed := checkResults(cmd.ErrOrStderr(), l, results)
			if asJSON {
				if err := lint.FormatJSON(cmd.OutOrStdout(), diags); err != nil {
					return &exitError{code: 2, err: err}
				}
			} else {
				renderLintDiagnostics(cmd.ErrOrStderr(), diags)
			}
			log.Infof("checked %d files: %d problems, %d failed", len(results), len(diags), failed)
			if len(diags) > 0 || failed > 0 {
				return &exitError{code: 1}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false,
		"Output diagnostics as JSON.")
	cmd.Flags().StringVar(&checks, "checks", "",
		"Comma-separated list of checks to run (default: all).")
	cmd.Flags().BoolVar(&listAll, "list", false,
		"List available checks and exit.")
	cmd.Flags().StringArrayVar(&excludes, "exclude", nil,
		"Glob pattern for files to exclude (may be repeated).")

	return cmd
}

// checkResults lints every resolved unit.  Units that failed to parse or
// resolve are rendered to w and counted.
func checkResults(w io.Writer, l *lint.Linter, results workspace.Results) ([]lint.Diagnostic, int) {
	var (
		all    []lint.Diagnostic
		failed int
	)
	for _, r := range results {
		if r.Err != nil {
			renderError(w, r.Err)
			failed++
			continue
		}
		diags, err := l.LintResult(r.Filename, r.File, r.Result)
		if err != nil {
			renderError(w, err)
			failed++
			continue
		}
		all = append(all, diags...)
	}
	return all, failed
}
