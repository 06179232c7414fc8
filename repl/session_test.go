// Copyright © 2024 The ELPS authors

package repl

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/pyscope/analysis"
	"github.com/luthersystems/pyscope/diagnostic"
	"github.com/luthersystems/pyscope/workspace"
)

const counterSource = `count = 0

def bump(step):
    global count
    count = count + step
    return count

bump(2)
print(count)
`

func writeSource(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "counter.py")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o600))
	return path
}

func newTestSession(t *testing.T) (*Session, *bytes.Buffer, string) {
	t.Helper()
	var out bytes.Buffer
	s := NewSession(&out, workspace.Config{}, diagnostic.ColorNever)
	path := writeSource(t, counterSource)
	require.NoError(t, s.Load(path))
	return s, &out, path
}

// exec runs a command and returns what it printed.
func exec(s *Session, out *bytes.Buffer, line string) string {
	out.Reset()
	s.Exec(line)
	return out.String()
}

func TestSessionLoad(t *testing.T) {
	_, out, path := newTestSession(t)
	assert.Contains(t, out.String(), "loaded "+path+": 2 scopes")
}

func TestSessionLoadErrors(t *testing.T) {
	var out bytes.Buffer
	s := NewSession(&out, workspace.Config{}, diagnostic.ColorNever)

	got := exec(s, &out, "load "+filepath.Join(t.TempDir(), "missing.py"))
	assert.Contains(t, got, "error: ")
	assert.Contains(t, got, "missing.py")

	bad := writeSource(t, "def broken(:\n")
	got = exec(s, &out, "load "+bad)
	assert.Contains(t, got, "error: syntax error")
	assert.Contains(t, got, "--> "+bad+":1:")
	assert.Nil(t, s.result, "a failed load leaves nothing loaded")
}

func TestSessionLoadReportsResolverDiagnostics(t *testing.T) {
	var out bytes.Buffer
	s := NewSession(&out, workspace.Config{}, diagnostic.ColorNever)
	path := writeSource(t, "def f(x):\n    global x\n")
	require.NoError(t, s.Load(path))
	assert.Contains(t, out.String(), `error: name "x" is parameter and global`)
}

func TestSessionRefs(t *testing.T) {
	s, out, path := newTestSession(t)
	got := exec(s, out, "refs 6:12")
	assert.Contains(t, got, `assignment "count" in module (6)`)
	for _, want := range []string{"1:1 assign", "4:12 rebind", "5:5 assign", "5:13 read", "6:12 read", "9:7 read"} {
		assert.Contains(t, got, fmt.Sprintf("  %s:%s\n", path, want))
	}

	got = exec(s, out, "refs 9:1")
	assert.Contains(t, got, `builtin "print" (1)`)

	got = exec(s, out, "refs 2:1")
	assert.Contains(t, got, "no name at 2:1")
}

func TestSessionDef(t *testing.T) {
	s, out, path := newTestSession(t)
	assert.Contains(t, exec(s, out, "def 8:1"), `function "bump" defined at `+path+":3:5 in module")
	assert.Contains(t, exec(s, out, "def 5:21"), `parameter "step" defined at `+path+":3:10 in function bump")
	assert.Contains(t, exec(s, out, "def 9:1"), `"print" is a builtin`)
}

func TestSessionScope(t *testing.T) {
	s, out, _ := newTestSession(t)
	got := exec(s, out, "scope 5:5")
	assert.Equal(t, "function bump: step\n  global count\nmodule: count, bump\n", got)

	got = exec(s, out, "scope 99:1")
	assert.Contains(t, got, "line 99 out of range")
}

func TestSessionRename(t *testing.T) {
	s, out, path := newTestSession(t)
	got := exec(s, out, "rename 1:1 total")
	assert.Contains(t, got, `renamed 6 occurrences of "count" to "total"`)
	assert.Contains(t, exec(s, out, "refs 6:12"), `assignment "total" in module (6)`)

	src, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, counterSource, string(src), "the file on disk is unchanged")
}

func TestSessionRenameConflict(t *testing.T) {
	s, out, _ := newTestSession(t)
	got := exec(s, out, "rename 3:10 count")
	assert.Contains(t, got, "error: collision: ")
	assert.Contains(t, exec(s, out, "refs 3:10"), `parameter "step"`, "the buffer is unchanged")

	got = exec(s, out, "rename 3:10 class")
	assert.Contains(t, got, "error: invalid-name: ")

	got = exec(s, out, "rename 9:1 show")
	assert.Contains(t, got, "cannot rename an unresolved name")
}

func TestSessionRenameWarning(t *testing.T) {
	s, out, _ := newTestSession(t)
	got := exec(s, out, "rename 3:10 len")
	assert.Contains(t, got, "warning: shadows-predeclared: ")
	assert.Contains(t, got, `renamed 2 occurrences of "step" to "len"`)
}

func TestSessionDump(t *testing.T) {
	s, out, _ := newTestSession(t)
	assert.Equal(t, analysis.Dump(s.result), exec(s, out, "dump"))
}

func TestSessionCommandErrors(t *testing.T) {
	var out bytes.Buffer
	s := NewSession(&out, workspace.Config{}, diagnostic.ColorNever)

	assert.Contains(t, exec(s, &out, "frobnicate"), `unknown command "frobnicate"`)
	assert.Contains(t, exec(s, &out, "refs"), "usage: refs LINE:COL")
	assert.Contains(t, exec(s, &out, "dump"), "no file loaded")
	assert.Contains(t, exec(s, &out, "scope 1:1"), "no file loaded")
	assert.Empty(t, exec(s, &out, "   "))
	assert.Contains(t, exec(s, &out, "help"), "rename LINE:COL NEW")
	assert.True(t, s.Exec("quit"))
	assert.True(t, s.Exec("exit"))
	assert.False(t, s.Exec("help"))
}

func TestSessionNotebookExport(t *testing.T) {
	var out bytes.Buffer
	s := NewSession(&out, workspace.Config{}, diagnostic.ColorNever)
	path := filepath.Join(t.TempDir(), "explore.ipynb.py")
	require.NoError(t, os.WriteFile(path, []byte("!ls\nx = 1\nprint(x)\n"), 0o600))
	require.NoError(t, s.Load(path))
	assert.Contains(t, exec(s, &out, "refs 3:7"), `assignment "x" in module (2)`)
}
