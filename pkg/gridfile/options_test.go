package gridfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toy-powerflow/pkg/analysis"
)

func writeOptions(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "options.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// TestLoadOptionsFull: every key set wins over its default.
func TestLoadOptionsFull(t *testing.T) {
	opts, err := LoadOptions(writeOptions(t, `
tolerance: 1.0e-10
max_iter: 50
trust_radius: 0.8
acceleration: 0.5
control_q: true
control_taps: false
verbose: true
`))
	require.NoError(t, err)
	assert.Equal(t, 1e-10, opts.Tolerance)
	assert.Equal(t, 50, opts.MaxIter)
	assert.Equal(t, 0.8, opts.TrustRadius)
	assert.Equal(t, 0.5, opts.Acceleration)
	assert.True(t, opts.ControlQ)
	assert.False(t, opts.ControlTaps)
	assert.True(t, opts.Verbose)
}

// TestLoadOptionsPartial: absent keys keep their defaults.
func TestLoadOptionsPartial(t *testing.T) {
	opts, err := LoadOptions(writeOptions(t, `
tolerance: 1.0e-06
control_q: true
`))
	require.NoError(t, err)
	assert.Equal(t, 1e-6, opts.Tolerance)
	assert.True(t, opts.ControlQ)
	assert.Equal(t, 25, opts.MaxIter)
	assert.Equal(t, 1.0, opts.TrustRadius)
	assert.Equal(t, 0.05, opts.Acceleration)
	assert.True(t, opts.ControlTaps)
	assert.False(t, opts.Verbose)
}

// TestLoadOptionsMissingFile: an unreadable file errors but still hands
// back usable defaults.
func TestLoadOptionsMissingFile(t *testing.T) {
	opts, err := LoadOptions(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading options file")
	assert.Equal(t, analysis.DefaultOptions(), opts)
}

func TestLoadOptionsBadYAML(t *testing.T) {
	_, err := LoadOptions(writeOptions(t, "max_iter: [nope"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing options file")
}
