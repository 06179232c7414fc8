// Copyright © 2024 The ELPS authors

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/luthersystems/pyscope/analysis"
	"github.com/luthersystems/pyscope/diagnostic"
	"github.com/luthersystems/pyscope/lint"
	"github.com/luthersystems/pyscope/workspace"
)

// Option configures an exported command factory (CheckCommand, LSPCommand).
type Option func(*cmdConfig)

type cmdConfig struct {
	universe  *analysis.Universe
	analyzers []*lint.Analyzer
}

func newCmdConfig(opts []Option) *cmdConfig {
	var c cmdConfig
	for _, o := range opts {
		o(&c)
	}
	return &c
}

// WithUniverse replaces the predeclared names used for resolution.  Embedders
// that inject globals into the interpreter pass them here so that the checks
// do not report them as undefined.
func WithUniverse(u *analysis.Universe) Option {
	return func(c *cmdConfig) { c.universe = u }
}

// WithAnalyzers replaces the default set of checks.
func WithAnalyzers(analyzers []*lint.Analyzer) Option {
	return func(c *cmdConfig) { c.analyzers = analyzers }
}

// settings are the values of the global flags after merging the config
// file and environment.
type settings struct {
	color     diagnostic.ColorMode
	workspace workspace.Config
}

// loadSettings reads the global configuration.  Names given with --builtins
// extend the embedder's universe, or the python builtins.
func (c *cmdConfig) loadSettings() (*settings, error) {
	color, err := diagnostic.ParseColorMode(viper.GetString("color"))
	if err != nil {
		return nil, err
	}
	universe := c.universe
	if universe == nil {
		universe = analysis.Builtins
	}
	if extra := viper.GetStringSlice("builtins"); len(extra) > 0 {
		universe = universe.With(extra...)
	}
	return &settings{
		color: color,
		workspace: workspace.Config{
			Analysis: analysis.Config{Universe: universe},
			Notebook: viper.GetBool("notebook"),
			Workers:  viper.GetInt("workers"),
		},
	}, nil
}

// linter returns the configured checks, narrowed to names when given.
func (c *cmdConfig) linter(names []string) (*lint.Linter, error) {
	if c.analyzers == nil {
		analyzers, err := lint.Select(names)
		if err != nil {
			return nil, err
		}
		return &lint.Linter{Analyzers: analyzers}, nil
	}
	if len(names) == 0 {
		return &lint.Linter{Analyzers: c.analyzers}, nil
	}
	byName := make(map[string]*lint.Analyzer, len(c.analyzers))
	for _, a := range c.analyzers {
		byName[a.Name] = a
	}
	var selected []*lint.Analyzer
	for _, name := range names {
		a, ok := byName[strings.TrimSpace(name)]
		if !ok {
			return nil, fmt.Errorf("unknown check: %q", name)
		}
		selected = append(selected, a)
	}
	return &lint.Linter{Analyzers: selected}, nil
}
