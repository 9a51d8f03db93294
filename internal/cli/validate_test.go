package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRegistry(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "registry.cue")
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))
	return path
}

const validRegistry = `version: "1.2.0"
reserved_types: ["Index1D"]
kinds: {
	Map: {
		roles: ["element"]
		arity: [{targ: 0}]
		factories: ["skepu::Map"]
	}
}
`

func TestValidateValidRegistry(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{writeRegistry(t, validRegistry)})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "✓ Registry valid (version 1.2.0, 1 kind(s))")
}

func TestValidateValidRegistryJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{writeRegistry(t, validRegistry)})

	require.NoError(t, cmd.Execute())

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, 1, resp.Data.Kinds)
}

func TestValidateBuiltInTable(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{filepath.Join("..", "skeleton", "registry.cue")})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "✓ Registry valid (version 1.0.0")
}

const invalidRegistry = `version: "3.0.0"
reserved_types: []
kinds: {
	A: {roles: [], arity: [{fixed: 1}]}
	B: {roles: ["x"], arity: [{fixed: 1}], paired: true}
}
`

func TestValidateInvalidRegistry(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{writeRegistry(t, invalidRegistry)})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "validation failed with 3 error(s)")

	out := buf.String()
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "E402")
	assert.Contains(t, out, "E403")
	assert.Contains(t, out, "E404")
}

func TestValidateInvalidRegistryJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{writeRegistry(t, invalidRegistry)})

	err := cmd.Execute()
	require.Error(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	assert.Len(t, resp.Data.Errors, 3)
	require.NotNil(t, resp.Error)
}

func TestValidateSyntaxError(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{writeRegistry(t, `version: "1.0.0" kinds: {`)})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), ErrCodeBuildFailed)
}

func TestValidateNonExistentFile(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"/nonexistent/registry.cue"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "E005")
	assert.Contains(t, buf.String(), "not found")
}
