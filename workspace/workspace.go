// Copyright © 2024 The ELPS authors

// Package workspace resolves many independent source units in parallel.
//
// Units share nothing but the read-only predeclared table, so each one is
// parsed and resolved on its own worker.  A unit that fails to parse or
// resolve yields an error in its UnitResult without affecting the others.
package workspace

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/sourcegraph/conc/pool"
	"github.com/tliron/commonlog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/multierr"

	"github.com/luthersystems/pyscope/analysis"
	"github.com/luthersystems/pyscope/parser/cellfilter"
	"github.com/luthersystems/pyscope/parser/rdparser"
	"github.com/luthersystems/pyscope/syntax"
)

// TracerName is the instrumentation name of the spans emitted by this
// package.
const TracerName = "pyscope"

var log = commonlog.GetLogger("pyscope.workspace")

// Config controls how units are analyzed.
type Config struct {
	// Analysis is applied to every unit.  Its Filename is replaced by the
	// unit's filename.
	Analysis analysis.Config

	// Notebook replaces interactive shell annotations (%magic, !cmd) before
	// parsing.
	Notebook bool

	// Workers bounds the number of units analyzed at once.  Defaults to
	// GOMAXPROCS.
	Workers int
}

func (c *Config) workers() int {
	if c == nil || c.Workers <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return c.Workers
}

// Unit is one source file to analyze.
type Unit struct {
	Filename string
	Source   []byte
}

// UnitResult is the outcome of analyzing a Unit.  Exactly one of Result and
// Err is nil, except that File may be set alongside a resolution error.
type UnitResult struct {
	Filename string
	Source   []byte
	File     *syntax.File
	Result   *analysis.Result
	Err      error
}

// Results holds the results of a batch in unit order.
type Results []UnitResult

// Err combines the errors of every failed unit, or returns nil.
func (rs Results) Err() error {
	var err error
	for _, r := range rs {
		err = multierr.Append(err, r.Err)
	}
	return err
}

// Failed returns the number of units that failed.
func (rs Results) Failed() int {
	n := 0
	for _, r := range rs {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// AnalyzeFile parses and resolves a single source file.
func AnalyzeFile(src []byte, filename string, cfg *Config) (*syntax.File, *analysis.Result, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Notebook {
		src = cellfilter.Filter(src)
	}
	file, err := rdparser.Parse(filename, src)
	if err != nil {
		return nil, nil, err
	}
	acfg := cfg.Analysis
	acfg.Filename = filename
	res, err := analysis.Analyze(file, &acfg)
	if err != nil {
		return file, nil, fmt.Errorf("%s: %w", filename, err)
	}
	return file, res, nil
}

// Batch analyzes units on a bounded worker pool.
type Batch struct {
	cfg    Config
	tracer trace.Tracer
}

// NewBatch returns a Batch using cfg.  Spans are created with the global
// tracer provider.
func NewBatch(cfg *Config) *Batch {
	b := &Batch{tracer: otel.GetTracerProvider().Tracer(TracerName)}
	if cfg != nil {
		b.cfg = *cfg
	}
	return b
}

// Run analyzes every unit and returns their results in unit order.  Units
// not started before ctx is done fail with the context's error.
func (b *Batch) Run(ctx context.Context, units []Unit) Results {
	ctx, span := b.tracer.Start(ctx, "pyscope.batch",
		trace.WithAttributes(attribute.Int("pyscope.units", len(units))))
	defer span.End()

	results := make(Results, len(units))
	p := pool.New().WithMaxGoroutines(b.cfg.workers())
	for i := range units {
		i := i
		p.Go(func() {
			results[i] = b.unit(ctx, units[i])
		})
	}
	p.Wait()

	if failed := results.Failed(); failed > 0 {
		span.SetAttributes(attribute.Int("pyscope.failed", failed))
		span.SetStatus(codes.Error, fmt.Sprintf("%d of %d units failed", failed, len(units)))
	}
	log.Debugf("analyzed %d units, %d failed", len(units), results.Failed())
	return results
}

func (b *Batch) unit(ctx context.Context, u Unit) (r UnitResult) {
	r = UnitResult{Filename: u.Filename, Source: u.Source}
	if err := ctx.Err(); err != nil {
		r.Err = fmt.Errorf("%s: %w", u.Filename, err)
		return r
	}
	_, span := b.tracer.Start(ctx, "pyscope.analyze",
		trace.WithAttributes(semconv.CodeFilepath(u.Filename)))
	defer func() {
		if p := recover(); p != nil {
			r.Result = nil
			r.Err = fmt.Errorf("%s: internal error: %v", u.Filename, p)
		}
		if r.Err != nil {
			span.RecordError(r.Err)
			span.SetStatus(codes.Error, r.Err.Error())
			log.Warningf("%s", r.Err)
		}
		span.End()
	}()

	cfg := b.cfg
	cfg.Notebook = cfg.Notebook || IsNotebookExport(u.Filename)
	r.File, r.Result, r.Err = AnalyzeFile(u.Source, u.Filename, &cfg)
	if r.Result != nil {
		span.SetAttributes(
			attribute.Int("pyscope.scopes", len(r.Result.Graph.Scopes())),
			attribute.Int("pyscope.occurrences", len(r.Result.Graph.AllOccurrences())),
			attribute.Int("pyscope.diagnostics", len(r.Result.Diagnostics)),
		)
	}
	return r
}

// IsNotebookExport reports whether filename looks like a script exported
// from a notebook, which may contain interactive shell annotations.
func IsNotebookExport(filename string) bool {
	return strings.HasSuffix(filename, ".ipynb.py")
}
