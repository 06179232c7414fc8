// Copyright © 2024 The ELPS authors

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/luthersystems/pyscope/lsp"
)

// LSPCommand creates the "lsp" cobra command with optional embedder
// configuration.  Embedders can pass WithUniverse or WithAnalyzers to adjust
// the names and checks the server knows.
func LSPCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts)

	var (
		stdio bool
		port  int
	)

	cmd := &cobra.Command{
		Use:   "lsp [flags]",
		Short: "Start the python scope Language Server Protocol server",
		Long: `Start an LSP server for python source files.

The language server keeps the scope analysis of every open document current
and answers find references, go to definition, document highlight, hover,
completion, document and workspace symbols, and rename. Renames are checked
like "pyscope rename" and refused with the conflicting occurrences as the
error text. Diagnostics combine parse errors with the checks of
"pyscope check".

Transport modes:
  --stdio      Use stdin/stdout for LSP communication (default)
  --port N     Listen for an LSP client on TCP port N

Examples:
  pyscope lsp                        Start with stdio transport
  pyscope lsp --stdio                Same as above (explicit)
  pyscope lsp --port 7998            Start with TCP on port 7998

Editor configuration (VS Code):
  Install a generic LSP client extension and configure it to run
  "pyscope lsp --stdio" for .py files.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			st, err := cfg.loadSettings()
			if err != nil {
				return &exitError{code: 2, err: err}
			}
			serverOpts := []lsp.Option{lsp.WithConfig(st.workspace)}
			if cfg.analyzers != nil {
				serverOpts = append(serverOpts, lsp.WithAnalyzers(cfg.analyzers))
			}
			srv := lsp.New(serverOpts...)

			if !stdio && port > 0 {
				addr := fmt.Sprintf("localhost:%d", port)
				log.Infof("pyscope LSP server listening on %s", addr)
				if err := srv.RunTCP(addr); err != nil {
					return fmt.Errorf("lsp server: %w", err)
				}
				return nil
			}
			if err := srv.RunStdio(); err != nil {
				return fmt.Errorf("lsp server: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&stdio, "stdio", false,
		"Use stdin/stdout for LSP communication (default behavior)")
	cmd.Flags().IntVar(&port, "port", 0,
		"TCP port for LSP server (use instead of --stdio)")

	return cmd
}
