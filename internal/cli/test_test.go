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

func runTestCommand(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// copyScenario copies one scenario, its input and its golden file (if
// any) into a fresh directory.
func copyScenario(t *testing.T, name, input string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "inputs"), 0755))

	copyInput(t, filepath.Join(scenariosDir, name+".yaml"), dir)
	copyInput(t, filepath.Join(scenariosDir, "inputs", input), filepath.Join(dir, "inputs"))

	golden := filepath.Join(scenariosDir, "golden", name+".golden")
	if _, err := os.Stat(golden); err == nil {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "golden"), 0755))
		copyInput(t, golden, filepath.Join(dir, "golden"))
	}
	return dir
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := runTestCommand(t, "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentDir(t *testing.T) {
	out, err := runTestCommand(t, "text", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "scenarios directory not found")
}

func TestTestCommandEmptyDir(t *testing.T) {
	out, err := runTestCommand(t, "text", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTestCommandEmptyDirJSON(t *testing.T) {
	out, err := runTestCommand(t, "json", t.TempDir())
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 0, resp.Data.Total)
}

func TestTestCommandAllScenarios(t *testing.T) {
	out, err := runTestCommand(t, "text", scenariosDir)
	require.NoError(t, err, out)

	assert.Contains(t, out, "✓ dotproduct")
	assert.Contains(t, out, "✓ capture")
	assert.Contains(t, out, "✓ particles")
	assert.Contains(t, out, "✓ limits")
	assert.Contains(t, out, "4 passed, 0 failed, 4 total")
}

func TestTestCommandFilterJSON(t *testing.T) {
	out, err := runTestCommand(t, "json", scenariosDir, "--filter", "dot*")
	require.NoError(t, err, out)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 1, resp.Data.Total)
	assert.Equal(t, 1, resp.Data.Passed)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.Equal(t, "dotproduct", resp.Data.Scenarios[0].Name)
}

func TestTestCommandGoldenMismatch(t *testing.T) {
	dir := copyScenario(t, "dotproduct", "dotproduct.yaml")
	golden := filepath.Join(dir, "golden", "dotproduct.golden")
	require.NoError(t, os.WriteFile(golden, []byte("stale\n"), 0644))

	out, err := runTestCommand(t, "text", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ dotproduct")
	assert.Contains(t, out, "does not match golden file")
}

func TestTestCommandUpdate(t *testing.T) {
	dir := copyScenario(t, "dotproduct", "dotproduct.yaml")
	golden := filepath.Join(dir, "golden", "dotproduct.golden")
	require.NoError(t, os.Remove(golden))

	out, err := runTestCommand(t, "text", dir, "--update")
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ dotproduct (golden updated)")

	want, err := os.ReadFile(filepath.Join(scenariosDir, "golden", "dotproduct.golden"))
	require.NoError(t, err)
	got, err := os.ReadFile(golden)
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))

	// A second run compares against the regenerated file.
	out, err = runTestCommand(t, "text", dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ dotproduct")
}

func TestTestCommandBadScenario(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("name: broken\n"), 0644))

	out, err := runTestCommand(t, "text", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "failed to load scenario")
}
