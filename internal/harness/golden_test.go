package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithGolden_Dotproduct(t *testing.T) {
	// Regenerate with:
	//   go test ./internal/harness -run TestRunWithGolden -update
	result, err := RunWithGolden(t, loadTestScenario(t, "dotproduct"))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRunWithGolden_Capture(t *testing.T) {
	result, err := RunWithGolden(t, loadTestScenario(t, "capture"))
	require.NoError(t, err)
	assert.True(t, result.Pass)
}

func TestGoldenPath(t *testing.T) {
	assert.Equal(t,
		filepath.Join("scenarios", "golden", "dot.golden"),
		GoldenPath(filepath.Join("scenarios", "dot.yaml")))
}

func TestUpdateAndCompareGolden(t *testing.T) {
	dir := t.TempDir()
	scenarioFile := filepath.Join(dir, "dot.yaml")
	result := &Result{Pass: true, Digest: "unit dot.cpp (registry 1.0.0, backends sequential)\n"}

	_, exists, err := CompareGolden(scenarioFile, result)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, UpdateGolden(scenarioFile, result))

	data, err := os.ReadFile(filepath.Join(dir, "golden", "dot.golden"))
	require.NoError(t, err)
	assert.Equal(t, result.Digest, string(data))

	match, exists, err := CompareGolden(scenarioFile, result)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.True(t, match)

	changed := &Result{Pass: true, Digest: "unit dot.cpp (registry 1.0.0, backends cuda)\n"}
	match, _, err = CompareGolden(scenarioFile, changed)
	require.NoError(t, err)
	assert.False(t, match)
}

func TestScenarioGoldensMatch(t *testing.T) {
	files, err := Discover(filepath.Join("testdata", "scenarios"), "")
	require.NoError(t, err)

	for _, file := range files {
		t.Run(filepath.Base(file), func(t *testing.T) {
			s, err := LoadScenario(file)
			require.NoError(t, err)
			result, err := Run(s)
			require.NoError(t, err)

			match, exists, err := CompareGolden(file, result)
			require.NoError(t, err)
			if exists {
				assert.True(t, match, "digest:\n%s", result.Snapshot())
			}
		})
	}
}

func TestResultSnapshot(t *testing.T) {
	assert.Equal(t, "fatal E220\n", string((&Result{Fatal: "E220"}).Snapshot()))
	assert.Equal(t, "x\n", string((&Result{Digest: "x\n"}).Snapshot()))
}
