// Copyright © 2018 The ELPS authors

package pyscopetest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/pyscope/analysis"
	"github.com/luthersystems/pyscope/parser/cellfilter"
	"github.com/luthersystems/pyscope/parser/rdparser"
)

// LoadFixture reads testdata/name relative to the calling test's package.
func LoadFixture(t testing.TB, name string) []byte {
	t.Helper()
	buf, err := os.ReadFile(filepath.Join("testdata", name)) //#nosec G304
	require.NoError(t, err, "unable to read fixture %s", name)
	return buf
}

// Analyze filters notebook annotations from src, parses it and resolves it
// with the default configuration.  Any error fails the test.
func Analyze(t testing.TB, filename string, src []byte) *analysis.Result {
	t.Helper()
	file, err := rdparser.Parse(filename, cellfilter.Filter(src))
	require.NoError(t, err)
	res, err := analysis.Analyze(file, &analysis.Config{Filename: filename})
	require.NoError(t, err)
	return res
}

// AssertRanges checks that occs match the range spec exactly, in order.
func AssertRanges(t testing.TB, spec string, occs []*analysis.Occurrence, msgAndArgs ...interface{}) bool {
	t.Helper()
	want, err := ParseRanges(spec)
	require.NoError(t, err)
	return assert.Equal(t, FormatRanges(want), FormatRanges(OccurrenceRanges(occs)), msgAndArgs...)
}

// BenchmarkAnalyze returns a benchmark that parses and resolves the file at
// path.
func BenchmarkAnalyze(path string) func(*testing.B) {
	return func(b *testing.B) {
		buf, err := os.ReadFile(path) //#nosec G304
		if err != nil {
			b.Fatalf("Unable to read source file %v: %v", path, err)
		}
		src := cellfilter.Filter(buf)
		b.SetBytes(int64(len(buf)))
		for i := 0; i < b.N; i++ {
			file, err := rdparser.Parse(path, src)
			if err != nil {
				b.Fatalf("Parse failure: %v", err)
			}
			if _, err := analysis.Analyze(file, nil); err != nil {
				b.Fatalf("Analysis failure: %v", err)
			}
		}
	}
}
