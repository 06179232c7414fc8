// Copyright © 2024 The ELPS authors

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/luthersystems/pyscope/analysis"
)

// DumpCommand creates the "dump" cobra command.
func DumpCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts)

	return &cobra.Command{
		Use:   "dump FILE",
		Short: "Print the scope tree and reference graph of a file",
		Long: `Print the scope tree of a file with the bindings of every scope, the
occurrences resolved to each binding, the names redirected by global and
nonlocal, and the names left unresolved.

The output is deterministic, so dumps of two versions of a file can be
compared with diff.`,
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
			_, err = fmt.Fprint(cmd.OutOrStdout(), analysis.Dump(res))
			return err
		},
	}
}
