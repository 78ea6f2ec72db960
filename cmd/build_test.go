package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompilerBuildProducesOneTaskAndDriverOps(t *testing.T) {
	c, err := NewCompiler(t.TempDir())
	require.NoError(t, err)

	bundle, err := c.Build()
	require.NoError(t, err)

	require.Len(t, bundle.Tasks, 1)
	assert.Equal(t, "reset_temperature", bundle.Tasks[0].Name)
	require.Len(t, bundle.Driver.ControlBody, 2)
	assert.Contains(t, bundleSummary(bundle), "1 task(s)")
}
