// Copyright © 2024 The ELPS authors

package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/pyscope/analysis"
	"github.com/luthersystems/pyscope/lint"
	"github.com/luthersystems/pyscope/refactor"
)

const counterSource = `count = 0

def bump(step):
    global count
    count = count + step
    return count

bump(2)
print(count)
`

func writeSource(t *testing.T, name, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o600))
	return path
}

// run executes cmd with args and returns its stdout, stderr and error.
func run(t *testing.T, cmd *cobra.Command, stdin string, args ...string) (string, string, error) {
	t.Helper()
	t.Cleanup(viper.Reset)
	var stdout, stderr bytes.Buffer
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return 1
}

func TestCommandFlags(t *testing.T) {
	tests := []struct {
		cmd   *cobra.Command
		use   string
		flags []string
	}{
		{CheckCommand(), "check [flags] [files...]", []string{"json", "checks", "list", "exclude"}},
		{RefsCommand(), "refs [flags] FILE", []string{"at", "offset", "json"}},
		{RenameCommand(), "rename [flags] FILE", []string{"at", "offset", "to", "write", "diff"}},
		{LSPCommand(), "lsp [flags]", []string{"stdio", "port"}},
		{DumpCommand(), "dump FILE", nil},
		{DocCommand(), "doc [CHECK]", []string{"guide"}},
		{ReplCommand(), "repl [FILE]", nil},
	}
	for _, test := range tests {
		assert.Equal(t, test.use, test.cmd.Use)
		for _, name := range test.flags {
			assert.NotNil(t, test.cmd.Flags().Lookup(name), "%s: missing flag: %s", test.use, name)
		}
	}
	assert.Contains(t, CheckCommand().Aliases, "lint")
}

func TestRootCommand(t *testing.T) {
	for _, name := range []string{"config", "color", "trace", "notebook", "builtins", "workers", "verbose"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), "missing flag: %s", name)
	}
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"refs", "rename", "check", "dump", "doc", "lsp", "repl"})
}

func TestCheck_Clean(t *testing.T) {
	path := writeSource(t, "counter.py", counterSource)
	stdout, stderr, err := run(t, CheckCommand(), "", path)
	assert.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Empty(t, stderr)
}

func TestCheck_Problems(t *testing.T) {
	path := writeSource(t, "bad.py", "def f():\n    unused = 1\n    return missing\n")
	_, stderr, err := run(t, CheckCommand(), "", path)
	assert.Equal(t, 1, exitCode(t, err))
	assert.Contains(t, stderr, `undefined name "missing"`)
	assert.Contains(t, stderr, "(unused-variable)")
	assert.Contains(t, stderr, "# nolint:undefined-name")
}

func TestCheck_JSON(t *testing.T) {
	path := writeSource(t, "bad.py", "print(missing)\n")
	stdout, _, err := run(t, CheckCommand(), "", "--json", path)
	assert.Equal(t, 1, exitCode(t, err))

	var diags []lint.Diagnostic
	require.NoError(t, json.Unmarshal([]byte(stdout), &diags))
	require.Len(t, diags, 1)
	assert.Equal(t, "undefined-name", diags[0].Analyzer)
	assert.Equal(t, lint.SeverityError, diags[0].Severity)
	assert.Equal(t, lint.Position{File: path, Line: 1, Col: 7}, diags[0].Pos)
	assert.Equal(t, 7, diags[0].Len)
}

func TestCheck_SelectChecks(t *testing.T) {
	path := writeSource(t, "bad.py", "def f():\n    unused = 1\n    return missing\n")
	_, stderr, err := run(t, CheckCommand(), "", "--checks", "unused-variable", path)
	assert.Equal(t, 1, exitCode(t, err))
	assert.Contains(t, stderr, "unused-variable")
	assert.NotContains(t, stderr, "undefined name")

	_, _, err = run(t, CheckCommand(), "", "--checks", "no-such-check", path)
	assert.Equal(t, 2, exitCode(t, err))
}

func TestCheck_List(t *testing.T) {
	stdout, _, err := run(t, CheckCommand(), "", "--list")
	require.NoError(t, err)
	assert.Equal(t, strings.Join(lint.AnalyzerNames(), "\n")+"\n", stdout)
}

func TestCheck_Stdin(t *testing.T) {
	_, stderr, err := run(t, CheckCommand(), "x = undefined_thing\n")
	assert.Equal(t, 1, exitCode(t, err))
	assert.Contains(t, stderr, "<stdin>")

	_, _, err = run(t, CheckCommand(), "x = 1\n")
	assert.NoError(t, err)
}

func TestCheck_Tree(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{
		"ok.py":           "import os\nprint(os.sep)\n",
		"pkg/broken.py":   "def (:\n",
		"vendor/noisy.py": "print(missing)\n",
	}
	for name, src := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(src), 0o600))
	}

	_, stderr, err := run(t, CheckCommand(), "", "--exclude", "vendor", root+"/...")
	assert.Equal(t, 1, exitCode(t, err), "a parse error is a problem")
	assert.Contains(t, stderr, "broken.py")
	assert.NotContains(t, stderr, "missing")

	_, _, err = run(t, CheckCommand(), "", "--exclude", "vendor", "--exclude", "pkg", root)
	assert.NoError(t, err)
}

func TestCheck_Unreadable(t *testing.T) {
	_, _, err := run(t, CheckCommand(), "", filepath.Join(t.TempDir(), "missing.py"))
	assert.Equal(t, 2, exitCode(t, err))
}

func TestCheck_Builtins(t *testing.T) {
	path := writeSource(t, "spark.py", "spark.stop()\n")
	_, _, err := run(t, CheckCommand(), "", path)
	assert.Equal(t, 1, exitCode(t, err))

	_, _, err = run(t, CheckCommand(WithUniverse(analysis.Builtins.With("spark"))), "", path)
	assert.NoError(t, err)
}

func TestCheck_WithAnalyzers(t *testing.T) {
	path := writeSource(t, "bad.py", "print(missing)\n")
	cmd := CheckCommand(WithAnalyzers([]*lint.Analyzer{lint.AnalyzerUnusedVariable}))
	_, _, err := run(t, cmd, "", path)
	assert.NoError(t, err)
}

func TestRefs_Text(t *testing.T) {
	path := writeSource(t, "counter.py", counterSource)
	stdout, _, err := run(t, RefsCommand(), "", "--at", "5:5", path)
	require.NoError(t, err)
	want := []string{
		path + ":1:1: count (assign)",
		path + ":4:12: count (rebind)",
		path + ":5:5: count (assign)",
		path + ":5:13: count (read)",
		path + ":6:12: count (read)",
		path + ":9:7: count (read)",
	}
	assert.Equal(t, strings.Join(want, "\n")+"\n", stdout)
}

func TestRefs_JSON(t *testing.T) {
	path := writeSource(t, "counter.py", counterSource)
	stdout, _, err := run(t, RefsCommand(), "", "--at", "3:10", "--json", path)
	require.NoError(t, err)

	var out refsOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, "step", out.Name)
	assert.Equal(t, "parameter", out.Kind)
	assert.Equal(t, "function bump", out.Scope)
	require.NotNil(t, out.Definition)
	assert.Equal(t, refsLocation{File: path, Line: 3, Col: 10, Site: "declare"}, *out.Definition)
	assert.Len(t, out.References, 2)
}

func TestRefs_Builtin(t *testing.T) {
	path := writeSource(t, "counter.py", counterSource)
	offset := strings.Index(counterSource, "print")
	stdout, _, err := run(t, RefsCommand(), "", "--offset", "2", "--json", path)
	require.NoError(t, err)
	var out refsOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, "assignment", out.Kind)

	stdout, _, err = run(t, RefsCommand(), "", "--offset", strconv.Itoa(offset), "--json", path)
	require.NoError(t, err)
	out = refsOutput{}
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, "print", out.Name)
	assert.Equal(t, "builtin", out.Kind)
	assert.Nil(t, out.Definition)
	assert.Len(t, out.References, 1)
}

func TestRefs_BadPosition(t *testing.T) {
	path := writeSource(t, "counter.py", counterSource)
	for _, args := range [][]string{
		{path},
		{"--at", "2:1", path},
		{"--at", "x", path},
		{"--at", "1:1", "--offset", "0", path},
	} {
		_, _, err := run(t, RefsCommand(), "", args...)
		assert.Equal(t, 2, exitCode(t, err), "%v", args)
	}

	bad := writeSource(t, "bad.py", "def (:\n")
	_, _, err := run(t, RefsCommand(), "", "--at", "1:1", bad)
	assert.Equal(t, 1, exitCode(t, err))
}

func TestRename_Stdout(t *testing.T) {
	path := writeSource(t, "counter.py", counterSource)
	stdout, _, err := run(t, RenameCommand(), "", "--at", "1:1", "--to", "total", path)
	require.NoError(t, err)
	assert.Equal(t, strings.ReplaceAll(counterSource, "count", "total"), stdout)

	src, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, counterSource, string(src), "the file is unchanged without --write")
}

func TestRename_Write(t *testing.T) {
	path := writeSource(t, "counter.py", counterSource)
	stdout, _, err := run(t, RenameCommand(), "", "--at", "3:10", "--to", "n", "-w", path)
	require.NoError(t, err)
	assert.Empty(t, stdout)

	src, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strings.ReplaceAll(counterSource, "step", "n"), string(src))
}

func TestRename_Diff(t *testing.T) {
	path := writeSource(t, "counter.py", counterSource)
	stdout, _, err := run(t, RenameCommand(), "", "--at", "3:5", "--to", "incr", "--diff", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "--- "+path)
	assert.Contains(t, stdout, "-def bump(step):\n")
	assert.Contains(t, stdout, "+def incr(step):\n")
	assert.Contains(t, stdout, "-bump(2)\n")
	assert.Contains(t, stdout, "+incr(2)\n")
	assert.NotContains(t, stdout, "+count")
}

func TestRename_Conflict(t *testing.T) {
	path := writeSource(t, "counter.py", counterSource)
	stdout, _, err := run(t, RenameCommand(), "", "--at", "3:10", "--to", "count", path)
	require.Error(t, err)
	var cerr *refactor.ConflictError
	assert.True(t, errors.As(err, &cerr), "got %T", err)
	assert.Empty(t, stdout)
}

func TestRename_Warning(t *testing.T) {
	path := writeSource(t, "counter.py", counterSource)
	stdout, stderr, err := run(t, RenameCommand(), "", "--at", "3:10", "--to", "len", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "def bump(len):")
	assert.Contains(t, stderr, "shadows-predeclared")
}

func TestRename_BadInvocation(t *testing.T) {
	path := writeSource(t, "counter.py", counterSource)
	for _, args := range [][]string{
		{"--at", "1:1", path},
		{"--at", "1:1", "--to", "x", "-w", "-d", path},
	} {
		_, _, err := run(t, RenameCommand(), "", args...)
		assert.Equal(t, 2, exitCode(t, err), "%v", args)
	}

	_, _, err := run(t, RenameCommand(), "", "--at", "9:1", "--to", "show", path)
	assert.ErrorIs(t, err, refactor.ErrUnresolved)
}

func TestDump(t *testing.T) {
	path := writeSource(t, "counter.py", counterSource)
	stdout, _, err := run(t, DumpCommand(), "", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "module")
	assert.Contains(t, stdout, "function bump")
	assert.Contains(t, stdout, "print")

	again, _, err := run(t, DumpCommand(), "", path)
	require.NoError(t, err)
	assert.Equal(t, stdout, again)
}

func TestDoc(t *testing.T) {
	stdout, _, err := run(t, DocCommand(), "")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	assert.Len(t, lines, len(lint.DefaultAnalyzers()))
	assert.True(t, strings.HasPrefix(lines[0], "undefined-name "))

	stdout, _, err = run(t, DocCommand(), "", "unused-variable")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "unused-variable (warning)\n\n"))
	for _, line := range strings.Split(stdout, "\n") {
		assert.LessOrEqual(t, len(line), docWidth, line)
	}

	_, _, err = run(t, DocCommand(), "", "no-such-check")
	assert.Equal(t, 2, exitCode(t, err))
}

func TestDoc_Guide(t *testing.T) {
	stdout, _, err := run(t, DocCommand(), "", "--guide")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "# How pyscope resolves names"))
	assert.Contains(t, stdout, "## global and nonlocal")
}

func TestCheck_Summary(t *testing.T) {
	path := writeSource(t, "bad.py", "def f():\n    unused = 1\n    return missing\n")
	_, stderr, err := run(t, CheckCommand(), "", path)
	assert.Equal(t, 1, exitCode(t, err))
	assert.True(t, strings.HasSuffix(stderr, "\n1 error, 1 warning\n"), stderr)
}
