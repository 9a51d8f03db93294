package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/skelc/internal/ir"
)

// createTestStore creates a fresh store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// sampleManifest is a MapReduce instance and a MapPairs instance sharing
// one callback, with one user type and one constant.
func sampleManifest(unit string) *ir.Manifest {
	mult := ir.NewDeclID(unit, "mult<float>")
	add := ir.NewDeclID(unit, "add<float>")
	particle := ir.NewDeclID(unit, "Particle")
	scale := ir.NewDeclID(unit, "SCALE")
	pos := func(line int) ir.Position { return ir.Position{File: unit, Line: line, Col: 1} }

	dotMult := ir.Binding{Instance: "dot", Function: mult, Name: "mult", Position: 0, Role: "map", Slot: 0}
	dotAdd := ir.Binding{Instance: "dot", Function: add, Name: "add", Position: 1, Role: "reduce", Slot: 1}
	pairMult := ir.Binding{Instance: "pairs", Function: mult, Name: "mult", Position: 0, Role: "row", Slot: ir.NoSlot, Pair: []int{1, 0}}

	return &ir.Manifest{
		Version:         ir.ManifestVersion,
		Unit:            unit,
		RegistryVersion: "1.0.0",
		Backends:        []string{"openmp", "sequential"},
		Instances: []ir.Instance{
			{
				Seq: 1, Name: "dot", Kind: ir.KindMapReduce, Arity: []int{1, 1},
				Callbacks: []ir.Binding{dotMult, dotAdd},
				Types:     []ir.DeclID{particle}, Constants: []ir.DeclID{scale},
				Pos: pos(20),
			},
			{
				Seq: 2, Name: "pairs", Kind: ir.KindMapPairs, Arity: []int{1, 0},
				Callbacks: []ir.Binding{pairMult},
				Types:     []ir.DeclID{particle}, Constants: []ir.DeclID{},
				Pos: pos(21),
			},
		},
		Functions: []ir.UserFunction{
			{
				ID: mult, Name: "mult", Origin: ir.OriginNamed,
				Signature: ir.Signature{
					Params:       []ir.Param{{Name: "a", Type: "Particle"}, {Name: "b", Type: "float"}},
					Result:       "float",
					TemplateArgs: []string{"float"},
				},
				Bindings:  []ir.Binding{dotMult, pairMult},
				Types:     []ir.DeclID{particle},
				Constants: []ir.DeclID{scale},
				Pos:       pos(4),
			},
			{
				ID: add, Name: "add", Qualified: "ops::add", Origin: ir.OriginNamed,
				Signature: ir.Signature{
					Params: []ir.Param{{Name: "a", Type: "float"}, {Name: "b", Type: "float"}},
					Result: "float",
				},
				Bindings:  []ir.Binding{dotAdd},
				Types:     []ir.DeclID{},
				Constants: []ir.DeclID{},
				Pos:       pos(10),
			},
		},
		Types: []ir.UserType{
			{ID: particle, Name: "Particle", Fields: []ir.Field{{Name: "x", Type: "float"}}, Pos: pos(2)},
		},
		Constants: []ir.UserConstant{
			{ID: scale, Name: "SCALE", Type: "const int", Value: "4", Constexpr: true, Defined: true, Valid: true, Pos: pos(1)},
		},
		BlasRange: &ir.SourceRange{Begin: pos(30), End: pos(40)},
	}
}
