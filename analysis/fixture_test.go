// Copyright © 2024 The ELPS authors

package analysis_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/pyscope/analysis"
	"github.com/luthersystems/pyscope/pyscopetest"
)

func loadPythonFixture(t *testing.T) ([]byte, *analysis.Result) {
	t.Helper()
	src := pyscopetest.LoadFixture(t, "python.py")
	return src, pyscopetest.Analyze(t, "python.py", src)
}

// offsetOf converts a 0-based row and column into a byte offset.
func offsetOf(t *testing.T, src []byte, row, col int) int {
	t.Helper()
	lines := strings.SplitAfter(string(src), "\n")
	require.Less(t, row, len(lines))
	offset := 0
	for _, line := range lines[:row] {
		offset += len(line)
	}
	return offset + col
}

func TestFixtureReferencesAtOffset(t *testing.T) {
	_, res := loadPythonFixture(t)
	tests := []struct {
		name   string
		offset int
		want   string
	}{
		{"global ref", 2, "1:0 1:7 mut"},
		{"cursor at first char", 1, "1:0 1:7 mut"},
		{"cursor at last char", 7, "1:0 1:7 mut"},
		{"cursor before first char", 0, ""},
		{"cursor after last char", 8, ""},
		{"all global refs", 14, "3:0 3:7 mut, 4:6 4:13, 5:0 5:7 mut"},
		{"global read in inner scope", 54, "7:0 7:7 mut, 9:10 9:17"},
		{"global read from inner scope", 96, "7:0 7:7 mut, 9:10 9:17"},
		{"locals with same name as globals", 106, "11:0 11:7 mut"},
		{"shadowed global", 150, "13:4 13:11 mut"},
		{"shadowed inner from locals", 216, "17:4 17:11 mut"},
		{"locals shadowed by inner", 273, "20:8 20:15 mut"},
		{"inner reads from locals", 238, "18:4 18:9 mut, 21:14 21:19"},
		{"locals from inner reads", 305, "18:4 18:9 mut, 21:14 21:19"},
		{"inner reads from shadowing locals", 370, "25:4 25:11 mut, 27:14 27:21"},
		{"shadowing locals from inner reads", 419, "25:4 25:11 mut, 27:14 27:21"},
		{"mixed read before write from read", 477, "31:10 31:17, 32:4 32:11 mut"},
		{"mixed read before write from write", 541, "31:10 31:17, 32:4 32:11 mut"},
		{"global keyword", 608, "34:0 34:7 mut, 36:20 36:27, 37:4 37:11 mut, 38:6 38:13"},
		{"global keyword from local overwrite", 620, "34:0 34:7 mut, 36:20 36:27, 37:4 37:11 mut, 38:6 38:13"},
		{"global keyword from global write", 554, "34:0 34:7 mut, 36:20 36:27, 37:4 37:11 mut, 38:6 38:13"},
		{"global keyword from global read", 639, "34:0 34:7 mut, 36:20 36:27, 37:4 37:11 mut, 38:6 38:13"},
		{"expression list global", 649, "40:0 40:2 mut, 43:10 43:12, 44:10 44:12, 45:15 45:17"},
		{"expression list local read", 719, "40:0 40:2 mut, 43:10 43:12, 44:10 44:12, 45:15 45:17"},
		{"expression list local read in list", 750, "40:0 40:2 mut, 43:10 43:12, 44:10 44:12, 45:15 45:17"},
		{"expression list shadowed global", 653, "40:4 40:7 mut"},
		{"expression list local write", 713, "43:4 43:7 mut, 45:4 45:7 mut, 45:19 45:22"},
		{"expression list local list write", 739, "43:4 43:7 mut, 45:4 45:7 mut, 45:19 45:22"},
		{"expression list local list read", 754, "43:4 43:7 mut, 45:4 45:7 mut, 45:19 45:22"},
		{"global class from definition", 765, "47:6 47:8 decl, 49:5 49:7, 51:9 51:11"},
		{"global class from global scope", 802, "47:6 47:8 decl, 49:5 49:7, 51:9 51:11"},
		{"global class from nested scope", 836, "47:6 47:8 decl, 49:5 49:7, 51:9 51:11"},
		{"local class from definition", 871, "54:10 54:12 decl, 56:9 56:11"},
		{"local class from local scope", 916, "54:10 54:12 decl, 56:9 56:11"},
		{"local class not visible outside", 926, "57:5 57:7"},
		{"global function from definition", 936, "59:4 59:9 decl, 60:4 60:9, 62:8 62:13, 65:0 65:5"},
		{"global function from local reference", 949, "59:4 59:9 decl, 60:4 60:9, 62:8 62:13, 65:0 65:5"},
		{"global function from inner reference", 982, "59:4 59:9 decl, 60:4 60:9, 62:8 62:13, 65:0 65:5"},
		{"global function from global reference", 1018, "59:4 59:9 decl, 60:4 60:9, 62:8 62:13, 65:0 65:5"},
		{"local function from definition", 965, "61:8 61:13 decl, 63:8 63:13, 64:4 64:9"},
		{"local function from local reference", 1010, "61:8 61:13 decl, 63:8 63:13, 64:4 64:9"},
		{"local function from inner reference", 998, "61:8 61:13 decl, 63:8 63:13, 64:4 64:9"},
		{"nested functions with same name", 1039, "68:4 68:9 decl, 74:0 74:5"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			pyscopetest.AssertRanges(t, test.want, res.Graph.References(test.offset))
		})
	}
}

func TestFixtureReferencesAtPosition(t *testing.T) {
	src, res := loadPythonFixture(t)
	tests := []struct {
		name     string
		row, col int
		want     string
	}{
		{"global list member", 40, 9, "40:9 40:12 mut, 42:11 42:14, 44:4 44:7 mut, 45:9 45:12 mut"},
		{"global declared alongside another", 29, 0, "29:0 29:7 mut, 36:11 36:18"},
		{"inner same-name function", 69, 8, "69:8 69:13 decl, 73:4 73:9"},
		{"innermost same-name function", 72, 12, "70:8 70:13, 71:12 71:17 decl, 72:12 72:17"},
		{"unresolved local of sibling", 66, 0, "66:0 66:5"},
		{"magic cell function", 80, 4, "80:4 80:8 decl"},
		{"function called with keywords", 85, 4, "85:4 85:19 decl, 96:0 96:15, 100:4 100:19, 102:8 102:23"},
		{"parameter reassigned", 92, 4, "91:20 91:21 decl, 92:4 92:5 mut, 93:10 93:11"},
		{"positional after keyword", 97, 30, "95:0 95:1 mut, 97:23 97:24, 97:30 97:31"},
		{"parameter read by closure", 104, 8, "99:20 99:21 decl, 100:24 100:25, 102:28 102:29, 103:25 103:26, 104:8 104:9"},
		{"default resolves outside", 108, 28, "107:0 107:2 mut, 108:28 108:30"},
		{"parameter shadowing default name", 109, 10, "108:20 108:22 decl, 109:10 109:12"},
		{"module class", 114, 6, "114:6 114:9 decl, 130:10 130:13, 132:6 132:9"},
		{"class attribute method", 115, 8, "115:8 115:14 decl"},
		{"method parameter seen by nested defaults", 116, 16, "115:24 115:25 decl, 116:16 116:17, 120:39 120:40, 125:33 125:34, 128:19 128:20, 128:22 128:23"},
		{"method local seen by default", 125, 26, "116:8 116:9 mut, 117:18 117:19, 123:21 123:22, 125:26 125:27"},
		{"local class shadowing module class", 123, 14, "119:14 119:17 decl, 123:14 123:17"},
		{"local function shadowing method", 128, 8, "125:12 125:18 decl, 128:8 128:14"},
		{"nested parameter", 126, 25, "125:19 125:20 decl, 126:18 126:19, 126:25 126:26"},
		{"class attribute", 130, 4, "130:4 130:7 mut"},
		{"module attribute receiver", 133, 0, "132:0 132:3 mut, 133:0 133:3"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			offset := offsetOf(t, src, test.row, test.col)
			require.NotNil(t, res.Graph.OccurrenceAt(offset), "no occurrence at %d:%d", test.row, test.col)
			pyscopetest.AssertRanges(t, test.want, res.Graph.References(offset))
		})
	}
}

func TestFixtureOccurrenceAtLineMatchesOffset(t *testing.T) {
	src, res := loadPythonFixture(t)
	for _, o := range res.Graph.AllOccurrences() {
		start := o.Start()
		assert.Same(t, o, res.Graph.OccurrenceAtLine(start.Line, start.Col))
		assert.Same(t, o, res.Graph.OccurrenceAt(offsetOf(t, src, start.Line-1, start.Col-1)))
	}
}

func TestFixtureHasNoDiagnostics(t *testing.T) {
	_, res := loadPythonFixture(t)
	assert.Empty(t, res.Diagnostics)
}

func BenchmarkAnalyzeFixture(b *testing.B) {
	b.Run("python.py", pyscopetest.BenchmarkAnalyze("testdata/python.py"))
}
