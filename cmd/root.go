// Copyright © 2018 The ELPS authors

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple" // log backend
)

var log = commonlog.GetLogger("pyscope.cmd")

var (
	cfgFile   string
	verbosity int
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pyscope",
	Short: "Static scope resolution for python sources",
	Long: `pyscope resolves every identifier of a python source file to the binding
it refers to, without running the code. The resulting reference graph answers
find-references and go-to-definition queries, checks renames for safety and
drives a small set of vet-style checks.

Getting started:
  pyscope refs file.py --at 12:5       List the references of the name at 12:5
  pyscope rename file.py --at 12:5 --to total --diff
                                       Preview a scope-safe rename
  pyscope check ./...                  Run the checks over a source tree
  pyscope dump file.py                 Print the scope tree of a file
  pyscope repl file.py                 Query a file interactively
  pyscope lsp                          Start the language server

Scoping follows python: names written anywhere in a function body are local to
the whole body, global and nonlocal redirect a name to the module or to an
enclosing function, and class bodies are skipped by the functions nested in
them.

Configuration is read from --config, $HOME/.pyscope.yaml, and environment
variables prefixed with PYSCOPE_ (for example PYSCOPE_NOTEBOOK=true).`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if viper.GetBool("trace") {
			return startTracing(cmd.ErrOrStderr())
		}
		return nil
	},
}

// exitError carries a process exit status through cobra.  When err is set
// it is reported before exiting.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return fmt.Sprintf("exit status %d", e.code)
}

func (e *exitError) Unwrap() error { return e.err }

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	stopTracing()
	if err == nil {
		return
	}
	code := 1
	var ee *exitError
	if errors.As(err, &ee) {
		code = ee.code
		err = ee.err
	}
	if err != nil {
		renderError(os.Stderr, err)
	}
	os.Exit(code)
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.pyscope.yaml)")
	flags.String("color", "auto", `Control colored output: "auto", "always", or "never".`)
	flags.Bool("trace", false, "Write OpenTelemetry spans for each analyzed file to stderr.")
	flags.Bool("notebook", false, "Treat sources as notebook exports and blank out %magic and !shell lines.")
	flags.StringSlice("builtins", nil, "Extra predeclared names, comma separated.")
	flags.Int("workers", 0, "Number of files analyzed in parallel (default GOMAXPROCS).")
	flags.CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (may be repeated).")

	for _, key := range []string{"color", "trace", "notebook", "builtins", "workers"} {
		if err := viper.BindPFlag(key, flags.Lookup(key)); err != nil {
			panic(err)
		}
	}

	rootCmd.AddCommand(
		RefsCommand(),
		RenameCommand(),
		CheckCommand(),
		DumpCommand(),
		DocCommand(),
		LSPCommand(),
		ReplCommand(),
	)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	commonlog.Configure(verbosity, nil)

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		// Search config in home directory with name ".pyscope" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".pyscope")
	}

	viper.SetEnvPrefix("pyscope")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		log.Infof("using config file: %s", viper.ConfigFileUsed())
	}
}
