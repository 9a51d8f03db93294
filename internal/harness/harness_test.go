package harness

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/skelc/internal/analysis"
	"github.com/roach88/skelc/internal/ir"
)

func loadTestScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)
	return s
}

func TestRun_Scenarios(t *testing.T) {
	for _, name := range []string{"dotproduct", "particles", "capture", "limits"} {
		t.Run(name, func(t *testing.T) {
			result, err := Run(loadTestScenario(t, name))
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Empty(t, result.Errors)
		})
	}
}

func TestRun_DispatchesAndRecordsBackends(t *testing.T) {
	result, err := Run(loadTestScenario(t, "dotproduct"))
	require.NoError(t, err)
	require.NotNil(t, result.Manifest)

	assert.Equal(t, []string{"openmp"}, result.Manifest.Backends)
	assert.Equal(t, "dotproduct.cpp", result.Manifest.Unit)
	assert.Contains(t, result.Digest, "instance 1 dotprod MapReduce [1 1]")
	assert.Empty(t, result.Fatal)
}

func TestRun_DefaultBackendIsSequential(t *testing.T) {
	s := loadTestScenario(t, "particles")
	result, err := Run(s)
	require.NoError(t, err)
	require.NotNil(t, result.Manifest)
	assert.Equal(t, []string{"sequential"}, result.Manifest.Backends)
}

func TestRun_Diagnostics(t *testing.T) {
	result, err := Run(loadTestScenario(t, "limits"))
	require.NoError(t, err)
	assert.Equal(t, []string{analysis.WarnInvalidConstant}, result.DiagnosticCodes())
}

func TestRun_FatalError(t *testing.T) {
	result, err := Run(loadTestScenario(t, "capture"))
	require.NoError(t, err)
	assert.True(t, result.Pass)
	assert.Equal(t, analysis.ErrCapture, result.Fatal)
	assert.Nil(t, result.Manifest)
	assert.Equal(t, "fatal E234\n", string(result.Snapshot()))
}

func TestRun_WrongFatalCode(t *testing.T) {
	s := loadTestScenario(t, "capture")
	s.Expect.Error = analysis.ErrArityMismatch

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expected fatal error E220, got E234")
}

func TestRun_UnexpectedFatal(t *testing.T) {
	s := loadTestScenario(t, "capture")
	s.Expect.Error = ""
	s.Assertions = []Assertion{{Type: AssertCount, Of: "instances", Count: 1}}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "unexpected fatal error")
}

func TestRun_ExpectedFatalMissing(t *testing.T) {
	s := loadTestScenario(t, "particles")
	s.Expect.Error = analysis.ErrCapture

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors, "expected fatal error E234, run completed")
}

func TestRun_DiagnosticMismatch(t *testing.T) {
	s := loadTestScenario(t, "particles")
	s.Expect.Diagnostics = []string{analysis.WarnInvalidConstant}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "expected diagnostics [W301], got []")
}

func TestRun_FailedAssertion(t *testing.T) {
	s := loadTestScenario(t, "dotproduct")
	s.Assertions = append(s.Assertions, Assertion{Type: AssertCount, Of: "instances", Count: 5})

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "5 instances")
}

func TestRun_InvalidBackend(t *testing.T) {
	s := loadTestScenario(t, "dotproduct")
	s.Backends = []string{"fpga"}

	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid backends")
}

func TestRun_CustomRegistry(t *testing.T) {
	dir := t.TempDir()
	registry := filepath.Join(dir, "registry.cue")
	require.NoError(t, os.WriteFile(registry, []byte(`
version: "1.2.0"
reserved_types: []
kinds: {
	MapReduce: {
		roles: ["map", "reduce"]
		arity: [{targ: 0}, {fixed: 1}]
		factories: ["skepu::MapReduce"]
	}
}
`), 0644))

	s := loadTestScenario(t, "dotproduct")
	s.Registry = registry

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "1.2.0", result.Manifest.RegistryVersion)
}

func TestRun_MissingRegistry(t *testing.T) {
	s := loadTestScenario(t, "dotproduct")
	s.Registry = filepath.Join(t.TempDir(), "nope.cue")

	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load registry")
}

func TestRunContext_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RunContext(ctx, loadTestScenario(t, "dotproduct"))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_Deterministic(t *testing.T) {
	s := loadTestScenario(t, "particles")

	first, err := Run(s)
	require.NoError(t, err)
	second, err := Run(s)
	require.NoError(t, err)

	assert.Equal(t, first.Digest, second.Digest)
	fp1 := ir.MustFingerprint(first.Manifest)
	fp2 := ir.MustFingerprint(second.Manifest)
	assert.Equal(t, fp1, fp2)
}
