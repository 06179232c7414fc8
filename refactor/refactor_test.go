// Copyright © 2024 The ELPS authors

package refactor_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/pyscope/analysis"
	"github.com/luthersystems/pyscope/pyscopetest"
	"github.com/luthersystems/pyscope/refactor"
)

func bindingAt(t *testing.T, res *analysis.Result, src, marker string) *analysis.Binding {
	t.Helper()
	offset := strings.Index(src, marker)
	require.GreaterOrEqual(t, offset, 0, "marker %q not found", marker)
	o := res.Graph.OccurrenceAt(offset)
	require.NotNil(t, o)
	require.NotNil(t, o.Binding())
	return o.Binding()
}

func conflictKinds(conflicts []refactor.Conflict) []refactor.ConflictKind {
	var kinds []refactor.ConflictKind
	for _, c := range conflicts {
		kinds = append(kinds, c.Kind)
	}
	return kinds
}

func TestRename(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		offset int
		to     string
		want   string
	}{
		{
			name: "module variable",
			src:  "x = 1\nprint(x)\n",
			to:   "count",
			want: "count = 1\nprint(count)\n",
		},
		{
			name: "through global declaration",
			src:  "x = 1\ndef f():\n    global x\n    x = 2\n",
			to:   "y",
			want: "y = 1\ndef f():\n    global y\n    y = 2\n",
		},
		{
			name:   "parameter keeps keyword arguments",
			src:    "def f(a):\n    return a\nf(a=1)\n",
			offset: 6,
			to:     "b",
			want:   "def f(b):\n    return b\nf(a=1)\n",
		},
		{
			name:   "local shadowing module name",
			src:    "v = 1\ndef f():\n    v = 2\n    return v\nprint(v)\n",
			offset: 19,
			to:     "w",
			want:   "v = 1\ndef f():\n    w = 2\n    return w\nprint(v)\n",
		},
		{
			name:   "nonlocal chain",
			src:    "def a():\n    n = 0\n    def b():\n        nonlocal n\n        n += 1\n",
			offset: 13,
			to:     "total",
			want:   "def a():\n    total = 0\n    def b():\n        nonlocal total\n        total += 1\n",
		},
		{
			name: "formatted string fields",
			src:  "name = 'a'\nprint(f\"hi {name}\")\n",
			to:   "who",
			want: "who = 'a'\nprint(f\"hi {who}\")\n",
		},
		{
			name: "nested format spec",
			src:  "w = 4\ns = f'{w:>{w}}'\n",
			to:   "width",
			want: "width = 4\ns = f'{width:>{width}}'\n",
		},
		{
			name:   "assignment expression in comprehension",
			src:    "def f(d):\n    [(y := x) for x in d]\n    return y\n",
			offset: 16,
			to:     "last",
			want:   "def f(d):\n    [(last := x) for x in d]\n    return last\n",
		},
		{
			name:   "coroutine",
			src:    "async def f(a):\n    await a\n",
			offset: 12,
			to:     "b",
			want:   "async def f(b):\n    await b\n",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			res := pyscopetest.Analyze(t, "test.py", []byte(test.src))
			plan, err := refactor.Rename(res, test.offset, test.to)
			require.NoError(t, err)
			assert.Empty(t, plan.Warnings)
			assert.Equal(t, test.want, string(refactor.Apply([]byte(test.src), plan)))
		})
	}
}

func TestRename_FormattedStringEdits(t *testing.T) {
	src := "name = 'a'\nprint(f\"hi {name}\")\n"
	res := pyscopetest.Analyze(t, "test.py", []byte(src))
	plan, err := refactor.Rename(res, 0, "who")
	require.NoError(t, err)
	require.Len(t, plan.Edits, 2)
	assert.Equal(t, 23, plan.Edits[1].Start)
	assert.Equal(t, 27, plan.Edits[1].End)
}

func TestRename_EditsSorted(t *testing.T) {
	src := "def f():\n    return f\nf()\n"
	res := pyscopetest.Analyze(t, "test.py", []byte(src))
	plan, err := refactor.Rename(res, 4, "g")
	require.NoError(t, err)
	require.Len(t, plan.Edits, 3)
	for i := 1; i < len(plan.Edits); i++ {
		assert.Less(t, plan.Edits[i-1].Start, plan.Edits[i].Start)
	}
	assert.Equal(t, "f", plan.OldName)
	assert.Equal(t, "g", plan.NewName)
}

func TestRename_Errors(t *testing.T) {
	src := "print(z)\n"
	res := pyscopetest.Analyze(t, "test.py", []byte(src))

	_, err := refactor.Rename(res, 6, "w")
	assert.True(t, errors.Is(err, refactor.ErrUnresolved), "%v", err)

	_, err = refactor.Rename(res, 8, "w")
	assert.True(t, errors.Is(err, refactor.ErrNoOccurrence), "%v", err)

	_, err = refactor.Rename(res, 0, "w")
	assert.True(t, errors.Is(err, refactor.ErrUnresolved), "predeclared names are not renameable")
}

func TestCheckRename(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		marker string
		to     string
		want   []refactor.ConflictKind
	}{
		{"invalid start", "x = 1\n", "x", "1x", []refactor.ConflictKind{refactor.InvalidName}},
		{"keyword", "x = 1\n", "x", "class", []refactor.ConflictKind{refactor.InvalidName}},
		{"empty", "x = 1\n", "x", "", []refactor.ConflictKind{refactor.InvalidName}},
		{"same name", "x = 1\n", "x", "x", nil},
		{"collision", "x = 1\ny = 2\n", "x", "y", []refactor.ConflictKind{refactor.Collision}},
		{
			"shadowed by local",
			"x = 1\ndef f():\n    y = 2\n    return x\n",
			"x", "y",
			[]refactor.ConflictKind{refactor.Shadowed},
		},
		{
			"captures free name",
			"x = 1\ndef f():\n    return y\n",
			"x", "y",
			[]refactor.ConflictKind{refactor.Capture},
		},
		{
			"local of same name is safe",
			"x = 1\ndef f():\n    y = 2\n    return y\n",
			"x", "y",
			nil,
		},
		{
			"class attribute does not capture method reads",
			"class C:\n    a = 1\n    def m(self):\n        return b\n",
			"a = 1", "b",
			nil,
		},
		{
			"method read captures module rename",
			"a = 1\nclass C:\n    def m(self):\n        return b\n",
			"a", "b",
			[]refactor.ConflictKind{refactor.Capture},
		},
		{
			"global declaration collides with local",
			"x = 1\ndef f():\n    global x\n    y = 2\n    x = y\n",
			"x", "y",
			[]refactor.ConflictKind{refactor.Collision},
		},
		{
			"formatted string read is captured",
			"x = 1\nprint(f'{y}')\n",
			"x", "y",
			[]refactor.ConflictKind{refactor.Capture},
		},
		{
			"predeclared",
			"x = 1\n",
			"x", "len",
			[]refactor.ConflictKind{refactor.ShadowsPredeclared},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			res := pyscopetest.Analyze(t, "test.py", []byte(test.src))
			b := bindingAt(t, res, test.src, test.marker)
			assert.Equal(t, test.want, conflictKinds(refactor.CheckRename(res, b, test.to)))
		})
	}
}

func TestRename_ConflictError(t *testing.T) {
	src := "x = 1\ny = 2\n"
	res := pyscopetest.Analyze(t, "test.py", []byte(src))
	_, err := refactor.Rename(res, 0, "y")
	var cerr *refactor.ConflictError
	require.True(t, errors.As(err, &cerr))
	require.Len(t, cerr.Conflicts, 1)
	assert.Contains(t, err.Error(), "collision")
	assert.Contains(t, err.Error(), `already binds "y"`)
}

func TestRename_PredeclaredIsWarning(t *testing.T) {
	src := "x = 1\nprint(x)\n"
	res := pyscopetest.Analyze(t, "test.py", []byte(src))
	plan, err := refactor.Rename(res, 0, "len")
	require.NoError(t, err)
	require.Len(t, plan.Warnings, 1)
	assert.False(t, plan.Warnings[0].Blocking())
	assert.Equal(t, "len = 1\nprint(len)\n", string(refactor.Apply([]byte(src), plan)))
}

func TestIsIdentifier(t *testing.T) {
	for _, name := range []string{"a", "_", "__init__", "x1", "café"} {
		assert.True(t, refactor.IsIdentifier(name), name)
	}
	for _, name := range []string{"", "1", "a-b", "a b", "None", "lambda"} {
		assert.False(t, refactor.IsIdentifier(name), name)
	}
}

// partition labels every occurrence with the index of the first occurrence
// of its binding, or -1 when it is unresolved.
func partition(res *analysis.Result) []int {
	occs := res.Graph.AllOccurrences()
	first := make(map[*analysis.Binding]int)
	labels := make([]int, len(occs))
	for i, o := range occs {
		b := o.Binding()
		if b == nil {
			labels[i] = -1
			continue
		}
		if _, ok := first[b]; !ok {
			first[b] = i
		}
		labels[i] = first[b]
	}
	return labels
}

func TestRename_PreservesFixtureResolution(t *testing.T) {
	src, err := os.ReadFile(filepath.Join("..", "analysis", "testdata", "python.py"))
	require.NoError(t, err)
	res := pyscopetest.Analyze(t, "python.py", src)
	want := partition(res)

	renamed := 0
	for _, b := range res.Graph.Bindings() {
		plan, err := refactor.RenameBinding(res, b, "zz_fresh")
		require.NoError(t, err, "renaming %s at %s", b.Name, b.Source())
		out := refactor.Apply(src, plan)
		after := pyscopetest.Analyze(t, "python.py", out)
		assert.Equal(t, want, partition(after), "renaming %s changed resolution", b.Name)
		renamed++
	}
	assert.Greater(t, renamed, 50)
}
