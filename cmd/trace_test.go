// Copyright © 2024 The ELPS authors

package cmd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/pyscope/pyscopetest"
)

func TestTracing(t *testing.T) {
	out := pyscopetest.NewLogger(t, "trace: ")
	require.NoError(t, startTracing(out))
	t.Cleanup(stopTracing)

	path := writeSource(t, "counter.py", counterSource)
	_, _, err := run(t, CheckCommand(), "", path)
	require.NoError(t, err)

	stopTracing()
	out.Flush()
	spans := strings.Join(out.Lines(), "\n")
	assert.Contains(t, spans, `"Name": "pyscope.batch"`)
	assert.Contains(t, spans, `"Name": "pyscope.analyze"`)
	assert.Contains(t, spans, path)
}
