package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleManifest() *Manifest {
	fid := NewDeclID("main.cpp", "f")
	return &Manifest{
		Version:         ManifestVersion,
		Unit:            "main.cpp",
		RegistryVersion: "1.0.0",
		Backends:        []string{"openmp"},
		Instances: []Instance{{
			Seq:       1,
			Name:      "s",
			Kind:      KindMap,
			Arity:     []int{1},
			Callbacks: []Binding{{Instance: "s", Function: fid, Name: "f", Position: 0, Role: "element", Slot: 0}},
		}},
		Functions: []UserFunction{{ID: fid, Name: "f", Origin: OriginNamed}},
	}
}

func TestNewDeclIDStable(t *testing.T) {
	a := NewDeclID("main.cpp", "0x1")
	b := NewDeclID("main.cpp", "0x1")
	assert.Equal(t, a, b)
	assert.Len(t, string(a), 36)

	assert.NotEqual(t, a, NewDeclID("other.cpp", "0x1"))
	assert.NotEqual(t, a, NewDeclID("main.cpp", "0x2"))
	// The separator keeps (unit, id) pairs from colliding by concatenation.
	assert.NotEqual(t, NewDeclID("ab", "c"), NewDeclID("a", "bc"))
}

func TestFingerprintDeterministic(t *testing.T) {
	fp1, err := Fingerprint(sampleManifest())
	require.NoError(t, err)
	fp2, err := Fingerprint(sampleManifest())
	require.NoError(t, err)

	assert.Equal(t, fp1, fp2)
	assert.Len(t, fp1, 64)
}

func TestFingerprintChangesWithContent(t *testing.T) {
	m := sampleManifest()
	before := MustFingerprint(m)

	m.Instances[0].Arity = []int{2}
	assert.NotEqual(t, before, MustFingerprint(m))
}

func TestFingerprintBlasRange(t *testing.T) {
	m := sampleManifest()
	before := MustFingerprint(m)

	m.BlasRange = &SourceRange{Begin: Position{File: "skepu.hpp", Line: 10}, End: Position{File: "skepu.hpp", Line: 900}}
	assert.NotEqual(t, before, MustFingerprint(m))
}

func TestHashValueDomainSeparation(t *testing.T) {
	a, err := HashValue(DomainManifest, String("x"))
	require.NoError(t, err)
	b, err := HashValue(DomainRegistry, String("x"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
