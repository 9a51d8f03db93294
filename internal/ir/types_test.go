package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSumArity(t *testing.T) {
	assert.Equal(t, 0, SumArity(nil))
	assert.Equal(t, 5, SumArity([]int{3, 2}))

	inst := Instance{Arity: []int{2, 1}}
	assert.Equal(t, 3, inst.CallbackCount())
}

func TestManifestLookups(t *testing.T) {
	m := sampleManifest()

	inst, ok := m.Instance("s")
	assert.True(t, ok)
	assert.Equal(t, KindMap, inst.Kind)

	_, ok = m.Instance("missing")
	assert.False(t, ok)

	f, ok := m.Function(inst.Callbacks[0].Function)
	assert.True(t, ok)
	assert.Equal(t, "f", f.Name)
}
