// Copyright © 2024 The ELPS authors

package repl

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/luthersystems/pyscope/analysis"
	"github.com/luthersystems/pyscope/diagnostic"
	"github.com/luthersystems/pyscope/refactor"
	"github.com/luthersystems/pyscope/workspace"
)

var errNotLoaded = errors.New("no file loaded")

// command is a shell command taking whitespace separated arguments.
type command struct {
	name  string
	usage string
	help  string
	nargs int
	run   func(s *Session, args []string) error
}

var commands = []*command{
	{"load", "load FILE", "parse and resolve FILE", 1, (*Session).cmdLoad},
	{"refs", "refs LINE:COL", "list every occurrence sharing the binding at the position", 1, (*Session).cmdRefs},
	{"def", "def LINE:COL", "show where the name at the position is defined", 1, (*Session).cmdDef},
	{"scope", "scope LINE:COL", "show the scopes searched from the position and their names", 1, (*Session).cmdScope},
	{"rename", "rename LINE:COL NEW", "rename the binding at the position in the loaded buffer", 2, (*Session).cmdRename},
	{"dump", "dump", "print the scope tree of the loaded file", 0, (*Session).cmdDump},
}

func lookupCommand(name string) *command {
	for _, c := range commands {
		if c.name == name {
			return c
		}
	}
	return nil
}

// Session holds the file loaded into the shell.  Renames edit the loaded
// buffer, never the file on disk.
type Session struct {
	out      io.Writer
	cfg      workspace.Config
	renderer *diagnostic.Renderer

	filename string
	src      []byte
	result   *analysis.Result
}

// NewSession returns a session writing to out.
func NewSession(out io.Writer, cfg workspace.Config, color diagnostic.ColorMode) *Session {
	s := &Session{out: out, cfg: cfg}
	s.renderer = &diagnostic.Renderer{Color: color, SourceReader: s.readSource}
	return s
}

// readSource serves the loaded buffer in place of the file it came from.
func (s *Session) readSource(path string) ([]byte, error) {
	if s.src != nil && path == s.filename {
		return s.src, nil
	}
	return os.ReadFile(path) //nolint:gosec // diagnostics name user files
}

// Exec runs one command line and reports whether the session should end.
func (s *Session) Exec(line string) (quit bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	switch fields[0] {
	case "quit", "exit":
		return true
	case "help":
		s.help()
		return false
	}
	c := lookupCommand(fields[0])
	if c == nil {
		s.render(diagnostic.Diagnostic{
			Severity: diagnostic.SeverityError,
			Message:  fmt.Sprintf("unknown command %q", fields[0]),
			Notes:    []string{"type help for a list of commands"},
		})
		return false
	}
	args := fields[1:]
	if len(args) != c.nargs {
		s.render(diagnostic.Diagnostic{
			Severity: diagnostic.SeverityError,
			Message:  "usage: " + c.usage,
		})
		return false
	}
	if err := c.run(s, args); err != nil {
		s.renderError(err)
	}
	return false
}

func (s *Session) help() {
	for _, c := range commands {
		s.printf("  %-22s %s\n", c.usage, c.help)
	}
	s.printf("  %-22s %s\n", "help", "show this message")
	s.printf("  %-22s %s\n", "quit", "leave the shell")
	s.printf("Positions are 1-based; columns count characters.\n")
}

func (s *Session) printf(format string, v ...interface{}) {
	fmt.Fprintf(s.out, format, v...) //nolint:errcheck // best-effort REPL output
}

func (s *Session) render(d diagnostic.Diagnostic) {
	_ = s.renderer.Render(s.out, d)
}

func (s *Session) renderError(err error) {
	var cerr *refactor.ConflictError
	if errors.As(err, &cerr) {
		for _, c := range cerr.Conflicts {
			s.render(diagnostic.FromConflict(c))
		}
		return
	}
	s.render(diagnostic.FromError(err))
}

// Load reads, parses and resolves filename.
func (s *Session) Load(filename string) error {
	src, err := os.ReadFile(filename) //nolint:gosec // REPL reads user-specified files
	if err != nil {
		return err
	}
	if err := s.analyze(filename, src); err != nil {
		return err
	}
	s.printf("loaded %s: %d scopes, %d bindings, %d occurrences\n", filename,
		len(s.result.Graph.Scopes()), len(s.result.Graph.Bindings()), len(s.result.Graph.AllOccurrences()))
	for _, d := range s.result.Diagnostics {
		s.render(diagnostic.FromAnalysis(d))
	}
	return nil
}

// analyze replaces the loaded buffer when src resolves.
func (s *Session) analyze(filename string, src []byte) error {
	cfg := s.cfg
	cfg.Notebook = cfg.Notebook || workspace.IsNotebookExport(filename)
	_, res, err := workspace.AnalyzeFile(src, filename, &cfg)
	if err != nil {
		return err
	}
	s.filename, s.src, s.result = filename, src, res
	return nil
}

func (s *Session) cmdLoad(args []string) error {
	return s.Load(args[0])
}

// occurrence returns the occurrence at a LINE:COL argument.
func (s *Session) occurrence(pos string) (*analysis.Occurrence, error) {
	if s.result == nil {
		return nil, errNotLoaded
	}
	line, col, err := workspace.ParsePosition(pos)
	if err != nil {
		return nil, err
	}
	o := s.result.Graph.OccurrenceAtLine(line, col)
	if o == nil {
		return nil, fmt.Errorf("no name at %s", pos)
	}
	return o, nil
}

func (s *Session) cmdRefs(args []string) error {
	o, err := s.occurrence(args[0])
	if err != nil {
		return err
	}
	g := s.result.Graph
	refs := g.ReferencesOf(o)
	switch out := g.Outcome(o); {
	case out.Kind == analysis.Resolved:
		s.printf("%s %q in %s (%d)\n", out.Binding.Kind, o.Name(), describeScope(out.Binding.Scope), len(refs))
	case out.Predeclared:
		s.printf("builtin %q (%d)\n", o.Name(), len(refs))
	default:
		s.printf("undefined %q (%d)\n", o.Name(), len(refs))
	}
	for _, r := range refs {
		start := r.Start()
		s.printf("  %s:%d:%d %s\n", s.filename, start.Line, start.Col, r.Site)
	}
	return nil
}

func (s *Session) cmdDef(args []string) error {
	o, err := s.occurrence(args[0])
	if err != nil {
		return err
	}
	g := s.result.Graph
	out := g.Outcome(o)
	if out.Kind != analysis.Resolved {
		if out.Predeclared {
			s.printf("%q is a builtin\n", o.Name())
		} else {
			s.printf("%q is undefined\n", o.Name())
		}
		return nil
	}
	def := g.Definition(o)
	start := def.Start()
	s.printf("%s %q defined at %s:%d:%d in %s\n", out.Binding.Kind, o.Name(),
		s.filename, start.Line, start.Col, describeScope(out.Binding.Scope))
	return nil
}

func (s *Session) cmdScope(args []string) error {
	if s.result == nil {
		return errNotLoaded
	}
	line, col, err := workspace.ParsePosition(args[0])
	if err != nil {
		return err
	}
	offset, err := workspace.Offset(s.src, line, col)
	if err != nil {
		return err
	}
	for _, sc := range analysis.Path(s.result.Graph.ScopeAt(offset)) {
		s.printf("%s: %s\n", describeScope(sc), strings.Join(sc.Names(), ", "))
		for _, name := range sc.RedirectedNames() {
			s.printf("  %s %s\n", sc.Declared(name), name)
		}
	}
	return nil
}

func (s *Session) cmdRename(args []string) error {
	o, err := s.occurrence(args[0])
	if err != nil {
		return err
	}
	if o.Binding() == nil {
		return fmt.Errorf("%w: %q", refactor.ErrUnresolved, o.Name())
	}
	plan, err := refactor.RenameBinding(s.result, o.Binding(), args[1])
	if err != nil {
		return err
	}
	for _, w := range plan.Warnings {
		s.render(diagnostic.FromConflict(w))
	}
	if err := s.analyze(s.filename, refactor.Apply(s.src, plan)); err != nil {
		return fmt.Errorf("renamed buffer does not resolve: %w", err)
	}
	s.printf("renamed %d %s of %q to %q\n", len(plan.Edits),
		plural(len(plan.Edits), "occurrence", "occurrences"), plan.OldName, plan.NewName)
	return nil
}

func (s *Session) cmdDump(_ []string) error {
	if s.result == nil {
		return errNotLoaded
	}
	s.printf("%s", analysis.Dump(s.result))
	return nil
}

// describeScope names a scope for display, e.g. "function f".
func describeScope(sc *analysis.Scope) string {
	if sc.Kind == analysis.ScopeModule || sc.Name == "" {
		return sc.Kind.String()
	}
	return sc.Kind.String() + " " + sc.Name
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
