// Copyright © 2024 The ELPS authors

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"

	"github.com/luthersystems/pyscope/diagnostic"
	"github.com/luthersystems/pyscope/refactor"
)

// RenameCommand creates the "rename" cobra command.
func RenameCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts)

	var (
		at     string
		offset int
		to     string
		write  bool
		diff   bool
	)

	cmd := &cobra.Command{
		Use:   "rename [flags] FILE",
		Short: "Rename the binding of the name at a position",
		Long: `Rename every occurrence of the binding denoted by the name at a position.

The rename is refused when it would change what any name in the file refers
to: when the new name is already bound in the same scope, when an occurrence
would be captured by a nearer binding of the new name, or when a free use of
the new name would be captured by the renamed binding. Shadowing a builtin is
reported as a warning and does not stop the rename.

By default the rewritten source is printed to stdout. Use --write to update
the file in place, or --diff to print a unified diff instead.

Examples:
  pyscope rename app.py --at 12:5 --to total --diff
  pyscope rename app.py --offset 240 --to total -w`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if to == "" {
				return &exitError{code: 2, err: errors.New("the new name is required: use --to NAME")}
			}
			if write && diff {
				return &exitError{code: 2, err: errors.New("--write and --diff are mutually exclusive")}
			}
			st, err := cfg.loadSettings()
			if err != nil {
				return &exitError{code: 2, err: err}
			}
			path := args[0]
			src, res, err := analyzeFile(path, st)
			if err != nil {
				return err
			}
			o, err := occurrenceAt(res, at, offset)
			if err != nil {
				return &exitError{code: 2, err: err}
			}
			if o.Binding() == nil {
				return fmt.Errorf("%w: %q", refactor.ErrUnresolved, o.Name())
			}
			plan, err := refactor.RenameBinding(res, o.Binding(), to)
			if err != nil {
				return err
			}
			renderWarnings(cmd.ErrOrStderr(), plan.Warnings)

			out := refactor.Apply(src, plan)
			log.Infof("%s: renaming %d occurrences of %q to %q", path, len(plan.Edits), plan.OldName, plan.NewName)
			switch {
			case write:
				info, err := os.Stat(path)
				if err != nil {
					return err
				}
				return os.WriteFile(path, out, info.Mode().Perm())
			case diff:
				return writeDiff(cmd.OutOrStdout(), path, src, out)
			default:
				_, err := cmd.OutOrStdout().Write(out)
				return err
			}
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "Position of the name as LINE:COL.")
	cmd.Flags().IntVar(&offset, "offset", -1, "Byte offset of the name.")
	cmd.Flags().StringVar(&to, "to", "", "The new name.")
	cmd.Flags().BoolVarP(&write, "write", "w", false, "Write the result to the file instead of stdout.")
	cmd.Flags().BoolVarP(&diff, "diff", "d", false, "Print a unified diff instead of the rewritten source.")

	return cmd
}

func renderWarnings(w io.Writer, warnings []refactor.Conflict) {
	if len(warnings) == 0 {
		return
	}
	var ds []diagnostic.Diagnostic
	for _, c := range warnings {
		ds = append(ds, diagnostic.FromConflict(c))
	}
	_ = newRenderer().RenderAll(w, ds)
}

// writeDiff writes a unified diff between two versions of path.
func writeDiff(w io.Writer, path string, before, after []byte) error {
	return difflib.WriteUnifiedDiff(w, difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(before)),
		B:        difflib.SplitLines(string(after)),
		FromFile: path,
		ToFile:   path,
		Context:  3,
	})
}
