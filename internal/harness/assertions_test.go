package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/skelc/internal/ir"
)

func intPtr(n int) *int    { return &n }
func boolPtr(b bool) *bool { return &b }

func testManifest() *ir.Manifest {
	return &ir.Manifest{
		Version: ir.ManifestVersion,
		Unit:    "dot.cpp",
		Instances: []ir.Instance{
			{
				Seq: 1, Name: "dotprod", Kind: ir.KindMapReduce, Arity: []int{1, 1},
				Callbacks: []ir.Binding{
					{Instance: "dotprod", Function: "f-mult", Name: "mult", Position: 0, Role: "map", Slot: 0},
					{Instance: "dotprod", Function: "f-add", Name: "add", Position: 1, Role: "reduce", Slot: 1},
				},
			},
			{
				Seq: 2, Name: "square", Kind: ir.KindMap, Arity: []int{1},
				Callbacks: []ir.Binding{
					{Instance: "square", Function: "f-sq", Name: "square_lambda0", Position: 0, Role: "element", Slot: 0},
				},
			},
		},
		Functions: []ir.UserFunction{
			{ID: "f-mult", Name: "mult", Origin: ir.OriginNamed, Signature: ir.Signature{Result: "float", TemplateArgs: []string{"float"}}},
			{ID: "f-add", Name: "add", Qualified: "ops::add", Origin: ir.OriginNamed, Signature: ir.Signature{Result: "float"}},
			{ID: "f-sq", Name: "square_lambda0", Origin: ir.OriginClosure, Signature: ir.Signature{Result: "int"}},
		},
		Types:     []ir.UserType{{ID: "t-p", Name: "Particle", Qualified: "sim::Particle"}},
		Constants: []ir.UserConstant{{ID: "c-n", Name: "N", Valid: true}, {ID: "c-bad", Name: "BAD"}},
	}
}

func TestEvaluateAssertions_Pass(t *testing.T) {
	assertions := []Assertion{
		{Type: AssertInstance, Name: "dotprod", Kind: "MapReduce", Arity: []int{1, 1}},
		{Type: AssertInstance, Name: "square"},
		{Type: AssertBinding, Instance: "dotprod", Function: "mult<float>", Role: "map", Slot: intPtr(0)},
		{Type: AssertBinding, Instance: "dotprod", Function: "ops::add"},
		{Type: AssertBinding, Instance: "dotprod", Function: "add", Slot: intPtr(1)},
		{Type: AssertFunction, Name: "mult", Origin: "named", Result: "float"},
		{Type: AssertFunction, Name: "square_lambda0", Origin: "closure"},
		{Type: AssertUserType, Name: "Particle"},
		{Type: AssertUserType, Name: "sim::Particle"},
		{Type: AssertUserConstant, Name: "N", Valid: boolPtr(true)},
		{Type: AssertUserConstant, Name: "BAD", Valid: boolPtr(false)},
		{Type: AssertCount, Of: "instances", Count: 2},
		{Type: AssertCount, Of: "functions", Count: 3},
		{Type: AssertCount, Of: "types", Count: 1},
		{Type: AssertCount, Of: "constants", Count: 2},
		{Type: AssertOrder, Instances: []string{"dotprod", "square"}},
	}

	assert.Empty(t, EvaluateAssertions(testManifest(), assertions))
}

func TestEvaluateAssertions_Failures(t *testing.T) {
	tests := []struct {
		name      string
		assertion Assertion
		want      string
	}{
		{"missing instance", Assertion{Type: AssertInstance, Name: "nope"}, "instance nope"},
		{"wrong kind", Assertion{Type: AssertInstance, Name: "square", Kind: "Reduce1D"}, "kind Map"},
		{"wrong arity", Assertion{Type: AssertInstance, Name: "dotprod", Arity: []int{2, 1}}, "arity [1 1]"},
		{"binding missing instance", Assertion{Type: AssertBinding, Instance: "nope", Function: "mult"}, "instance nope"},
		{"binding wrong role", Assertion{Type: AssertBinding, Instance: "dotprod", Function: "mult", Role: "reduce"}, "no matching binding"},
		{"binding wrong slot", Assertion{Type: AssertBinding, Instance: "dotprod", Function: "add", Slot: intPtr(0)}, "in slot 0"},
		{"missing function", Assertion{Type: AssertFunction, Name: "div"}, "function div"},
		{"wrong origin", Assertion{Type: AssertFunction, Name: "mult", Origin: "closure"}, "origin named"},
		{"wrong result", Assertion{Type: AssertFunction, Name: "mult", Result: "int"}, "returns float"},
		{"missing type", Assertion{Type: AssertUserType, Name: "Vec3"}, "user type Vec3"},
		{"missing constant", Assertion{Type: AssertUserConstant, Name: "M"}, "user constant M"},
		{"wrong validity", Assertion{Type: AssertUserConstant, Name: "BAD", Valid: boolPtr(true)}, "valid=false"},
		{"wrong count", Assertion{Type: AssertCount, Of: "types", Count: 3}, "3 types"},
		{"wrong order", Assertion{Type: AssertOrder, Instances: []string{"square", "dotprod"}}, "dotprod appears out of order"},
		{"order missing instance", Assertion{Type: AssertOrder, Instances: []string{"dotprod", "nope"}}, "instance nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			failures := EvaluateAssertions(testManifest(), []Assertion{tt.assertion})
			require.Len(t, failures, 1)
			assert.Contains(t, failures[0], "assertion 0")
			assert.Contains(t, failures[0], tt.want)
		})
	}
}

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{
		Type:     AssertInstance,
		Expected: "instance x",
		Actual:   "not found",
		Subject:  "a, b",
	}
	assert.Equal(t, "Assertion failed: instance\n  Expected: instance x\n  Actual: not found\n  Seen: a, b", err.Error())
}
