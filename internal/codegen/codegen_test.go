package codegen

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/skelc/internal/ir"
	"github.com/roach88/skelc/internal/store"
)

func TestParseBackends(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []Backend
	}{
		{"default", nil, []Backend{Sequential}},
		{"single", []string{"cuda"}, []Backend{CUDA}},
		{"sorted and deduplicated", []string{"openmp", "CUDA", "openmp", " mpi "}, []Backend{CUDA, MPI, OpenMP}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBackends(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseBackends([]string{"openmp", "fpga"})
	var unknown *UnknownBackendError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "fpga", unknown.Name)
	assert.Contains(t, err.Error(), "sequential")

	assert.Equal(t, []string{"cuda", "mpi"}, Names([]Backend{CUDA, MPI}))
}

func TestDispatch_OrderAndFinalize(t *testing.T) {
	m := sampleManifest()
	// Deliver in seq order regardless of slice order.
	m.Instances[0], m.Instances[1] = m.Instances[1], m.Instances[0]

	a, b := &Recorder{}, &Recorder{}
	d := NewDispatcher(nil, a, b)
	require.NoError(t, d.Dispatch(context.Background(), m))

	for _, r := range []*Recorder{a, b} {
		emitted := r.Emitted()
		require.Len(t, emitted, 2)
		assert.Equal(t, "dot", emitted[0].Name)
		assert.Equal(t, "pairs", emitted[1].Name)

		finalized := r.Finalized()
		require.Len(t, finalized, 1)
		assert.Equal(t, "dot.cpp", finalized[0].Unit)
		assert.Len(t, finalized[0].Functions, 2)
	}
}

func TestDispatch_RefusesSecondDispatch(t *testing.T) {
	rec := &Recorder{}
	d := NewDispatcher(nil, rec)

	require.NoError(t, d.Dispatch(context.Background(), sampleManifest()))
	err := d.Dispatch(context.Background(), sampleManifest())
	assert.ErrorIs(t, err, ErrAlreadyDispatched)
	assert.Len(t, rec.Emitted(), 2)
	assert.Len(t, rec.Finalized(), 1)

	other := sampleManifest()
	other.Unit = "other.cpp"
	assert.NoError(t, d.Dispatch(context.Background(), other))
}

type failingTarget struct {
	Recorder
	failOn string
}

func (f *failingTarget) Emit(ctx context.Context, inst ir.Instance) error {
	if inst.Name == f.failOn {
		return errors.New("backend unavailable")
	}
	return f.Recorder.Emit(ctx, inst)
}

func TestDispatch_StopsAtFirstError(t *testing.T) {
	bad := &failingTarget{failOn: "pairs"}
	d := NewDispatcher(nil, bad)

	err := d.Dispatch(context.Background(), sampleManifest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "emit pairs")
	assert.Contains(t, err.Error(), "backend unavailable")
	assert.Len(t, bad.Emitted(), 1)
	assert.Empty(t, bad.Finalized())
}

func TestDispatch_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := &Recorder{}
	err := NewDispatcher(nil, rec).Dispatch(ctx, sampleManifest())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rec.Emitted())
}

func TestManifestTarget_WritesCanonicalJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "dot.manifest.json")
	m := sampleManifest()

	require.NoError(t, NewDispatcher(nil, &ManifestTarget{Path: path}).Dispatch(context.Background(), m))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	want, err := ir.MarshalCanonical(m.Object())
	require.NoError(t, err)
	assert.Equal(t, string(want)+"\n", string(got))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestStoreTarget_RecordsRun(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "manifests.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	target := &StoreTarget{Store: s}
	m := sampleManifest()
	require.NoError(t, NewDispatcher(nil, target).Dispatch(context.Background(), m))

	runs := target.Runs()
	require.Len(t, runs, 1)
	assert.Equal(t, ir.MustFingerprint(m), runs[0])

	stored, err := s.ReadManifest(context.Background(), runs[0])
	require.NoError(t, err)
	assert.Equal(t, m.Unit, stored.Unit)
	assert.Len(t, stored.Instances, 2)
}

func TestWriteDigest(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewDispatcher(nil, &DigestTarget{W: &buf}).Dispatch(context.Background(), sampleManifest()))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "digest", buf.Bytes())
}
