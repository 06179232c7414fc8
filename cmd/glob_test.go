// Copyright © 2024 The ELPS authors

package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterExcludes_ByName(t *testing.T) {
	paths := []string{
		"src/main.py",
		"src/settings_local.py",
		"lib/utils.py",
	}
	result := filterExcludes(paths, []string{"settings_local.py"})
	assert.Equal(t, []string{"src/main.py", "lib/utils.py"}, result)
}

func TestFilterExcludes_ByDirectory(t *testing.T) {
	paths := []string{
		"src/main.py",
		"build/output.py",
		"build/sub/deep.py",
		"lib/utils.py",
	}
	result := filterExcludes(paths, []string{"build"})
	assert.Equal(t, []string{"src/main.py", "lib/utils.py"}, result)
}

func TestFilterExcludes_GlobPattern(t *testing.T) {
	paths := []string{
		"src/main.py",
		"src/test_foo.py",
		"src/test_bar.py",
		"lib/utils.py",
	}
	result := filterExcludes(paths, []string{"test_*"})
	assert.Equal(t, []string{"src/main.py", "lib/utils.py"}, result)
}

func TestFilterExcludes_MultiplePatterns(t *testing.T) {
	paths := []string{
		"src/main.py",
		"build/output.py",
		"src/settings_local.py",
		"lib/utils.py",
	}
	result := filterExcludes(paths, []string{"build", "settings_local.py"})
	assert.Equal(t, []string{"src/main.py", "lib/utils.py"}, result)
}

func TestFilterExcludes_NoMatches(t *testing.T) {
	paths := []string{
		"src/main.py",
		"lib/utils.py",
	}
	result := filterExcludes(paths, []string{"nonexistent"})
	assert.Equal(t, []string{"src/main.py", "lib/utils.py"}, result)
}

func TestFilterExcludes_EmptyExcludes(t *testing.T) {
	paths := []string{"src/main.py"}
	result := filterExcludes(paths, nil)
	assert.Equal(t, []string{"src/main.py"}, result)
}

func TestMatchesAny_FullPath(t *testing.T) {
	// filepath.Match on the full path
	assert.True(t, matchesAny("src/main.py", []string{"src/*.py"}))
	assert.False(t, matchesAny("lib/main.py", []string{"src/*.py"}))
}

func TestMatchesAny_BaseName(t *testing.T) {
	assert.True(t, matchesAny("deep/nested/settings_local.py", []string{"settings_local.py"}))
}

func TestMatchesAny_Component(t *testing.T) {
	assert.True(t, matchesAny("project/build/output.py", []string{"build"}))
	assert.False(t, matchesAny("project/src/output.py", []string{"build"}))
}

func TestSplitPath(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c.py"}, splitPath("./a/b/c.py"))
}

func TestExpandArgs(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"a.py", "pkg/b.py", "pkg/gen/c.py", "notes.txt"} {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, nil, 0o600))
	}
	rel := func(paths []string) []string {
		var out []string
		for _, p := range paths {
			r, err := filepath.Rel(root, p)
			require.NoError(t, err)
			out = append(out, filepath.ToSlash(r))
		}
		return out
	}

	files, err := expandArgs([]string{root + "/..."}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.py", "pkg/b.py", "pkg/gen/c.py"}, rel(files))

	files, err = expandArgs([]string{filepath.Join(root, "pkg")}, []string{"gen"})
	require.NoError(t, err)
	assert.Equal(t, []string{"pkg/b.py"}, rel(files))

	files, err = expandArgs([]string{filepath.Join(root, "notes.txt")}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"notes.txt"}, rel(files), "files pass through unchanged")

	_, err = expandArgs([]string{root}, []string{"["})
	assert.Error(t, err)
}
