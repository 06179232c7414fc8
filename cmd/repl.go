// Copyright © 2018 The ELPS authors

package cmd

import (
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/luthersystems/pyscope/repl"
)

// ReplCommand creates the "repl" cobra command.
func ReplCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts)

	return &cobra.Command{
		Use:   "repl [FILE]",
		Short: "Query the scopes of a file interactively",
		Long: `Start an interactive shell for querying the scope analysis of a file.

Line editing, tab completion of commands and paths, and command history are
supported via readline. History is kept in $HOME/.pyscope_history. Use
Ctrl-D or "quit" to exit.

Example session:
  pyscope> load app.py
  loaded app.py: 3 scopes, 4 bindings, 11 occurrences
  pyscope> refs 5:9
  assignment "count" in module (6)
    app.py:1:1 assign
    ...
  pyscope> rename 5:9 total
  renamed 6 occurrences of "count" to "total"
  pyscope> dump
  ...`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := cfg.loadSettings()
			if err != nil {
				return &exitError{code: 2, err: err}
			}
			replOpts := []repl.Option{
				repl.WithConfig(st.workspace),
				repl.WithColor(st.color),
			}
			if len(args) == 1 {
				replOpts = append(replOpts, repl.WithFile(args[0]))
			}
			if in := cmd.InOrStdin(); in != os.Stdin {
				replOpts = append(replOpts, repl.WithStdin(io.NopCloser(in)))
			}
			if errw := cmd.ErrOrStderr(); errw != os.Stderr {
				replOpts = append(replOpts, repl.WithStderr(nopWriteCloser{errw}))
			}
			return repl.RunRepl(filepath.Base(os.Args[0])+"> ", replOpts...)
		},
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
