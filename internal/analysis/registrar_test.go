package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/roach88/skelc/internal/ast"
	"github.com/roach88/skelc/internal/ir"
	"github.com/roach88/skelc/internal/skeleton"
	"github.com/roach88/skelc/internal/testutil"
)

func typeNames(m ir.Manifest) []string {
	names := make([]string, len(m.Types))
	for i, t := range m.Types {
		names[i] = t.Name
	}
	return names
}

func TestRegistrar_ReservedTypesNeverRegistered(t *testing.T) {
	b := testutil.NewBuilder("reserved.cpp")
	idx := b.Struct("Index2D", b.Field("row", testutil.Builtin("size_t")))
	region := b.Struct("Region2D", b.Field("oi", testutil.Builtin("int")))
	f := b.Func("stencil", testutil.Builtin("float"),
		b.Param("i", testutil.Record(idx)),
		b.Param("r", testutil.ConstRef(testutil.Record(region))),
		b.Param("v", &ast.TemplateSpecializationType{
			Template: "Vec",
			Args:     []ast.TemplateArg{testutil.TypeArg(testutil.Builtin("float"))},
			Decl:     b.Struct("Vec"),
		}),
	)
	mk := b.Factory("MakeMapOverlap2D", "MapOverlap2D", testutil.TypeArg(testutil.Builtin("float")))

	m := analyze(t, b.Unit(idx, region, f, mk, b.Instance("conv", mk, b.Ref(f)))).Manifest
	assert.Empty(t, m.Types)
	assert.Empty(t, m.Functions[0].Types)
}

func TestRegistrar_NestedAndTemplateArgTypes(t *testing.T) {
	b := testutil.NewBuilder("types.cpp")
	vec3 := b.Struct("Vec3", b.Field("x", testutil.Builtin("float")))
	particle := b.Struct("Particle",
		b.Field("pos", testutil.Record(vec3)),
		b.Field("mass", testutil.Builtin("float")),
	)
	color := b.Struct("Color", b.Field("rgb", testutil.Builtin("int")))

	f := b.Func("move", testutil.Record(particle),
		b.Param("p", testutil.ConstRef(testutil.Record(particle))),
		b.Param("c", &ast.TemplateSpecializationType{
			Template: "Mat",
			Args:     []ast.TemplateArg{testutil.TypeArg(testutil.Record(color))},
		}),
	)
	mk := b.Factory("MakeMap", "Map", testutil.Int(1))

	m := analyze(t, b.Unit(vec3, particle, color, f, mk, b.Instance("s", mk, b.Ref(f)))).Manifest

	assert.Equal(t, []string{"Particle", "Vec3", "Color"}, typeNames(m))
	assert.Equal(t, []ir.Field{{Name: "pos", Type: "Vec3"}, {Name: "mass", Type: "float"}}, m.Types[0].Fields)

	inst := m.Instances[0]
	assert.Len(t, inst.Types, 3)
	assert.Equal(t, m.Functions[0].Types, inst.Types)
}

func TestRegistrar_SelfReferentialRecord(t *testing.T) {
	b := testutil.NewBuilder("list.cpp")
	node := b.Struct("Node")
	node.Fields = append(node.Fields, b.Field("next", &ast.PointerType{Pointee: testutil.Record(node)}))
	f := b.Func("visit", testutil.Builtin("int"), b.Param("n", testutil.Record(node)))
	mk := b.Factory("MakeMap", "Map", testutil.Int(1))

	m := analyze(t, b.Unit(node, f, mk, b.Instance("s", mk, b.Ref(f)))).Manifest
	assert.Equal(t, []string{"Node"}, typeNames(m))
}

func TestRegistrar_TypesSharedAcrossFunctions(t *testing.T) {
	b := testutil.NewBuilder("shared.cpp")
	p := b.Struct("Particle", b.Field("x", testutil.Builtin("float")))
	f := b.Func("f", testutil.Record(p), b.Param("a", testutil.Record(p)))
	g := b.Func("g", testutil.Record(p), b.Param("a", testutil.Record(p)), b.Param("b", testutil.Record(p)))
	mk := b.Factory("MakeMapReduce", "MapReduce", testutil.Int(1))

	m := analyze(t, b.Unit(p, f, g, mk, b.Instance("s", mk, b.Ref(f), b.Ref(g)))).Manifest
	require.Len(t, m.Types, 1)
	assert.Equal(t, []ir.DeclID{m.Types[0].ID}, m.Instances[0].Types)
}

func TestRegistrar_InvalidConstantWarns(t *testing.T) {
	b := testutil.NewBuilder("consts.cpp")
	good := b.Constant("N", testutil.Builtin("int"), 16, true)
	notConstexpr := b.Constant("M", testutil.Builtin("int"), 8, false)
	undefined := b.Constant("E", testutil.Builtin("int"), 0, true)
	undefined.Definition = ast.DeclarationOnly
	undefined.Init = nil

	core, logs := observer.New(zap.WarnLevel)
	res, err := New(skeleton.Default(), zap.New(core)).Analyze(b.Unit(good, notConstexpr, undefined))
	require.NoError(t, err)

	m := res.Manifest
	require.Len(t, m.Constants, 3)
	assert.True(t, m.Constants[0].Valid)
	assert.Equal(t, "16", m.Constants[0].Value)
	assert.False(t, m.Constants[1].Valid)
	assert.True(t, m.Constants[1].Defined)
	assert.False(t, m.Constants[2].Valid)
	assert.False(t, m.Constants[2].Defined)
	assert.Empty(t, m.Constants[2].Value)

	require.Len(t, res.Diagnostics, 2)
	for _, d := range res.Diagnostics {
		assert.Equal(t, WarnInvalidConstant, d.Code)
	}
	assert.Equal(t, "M", res.Diagnostics[0].Decl)

	warnings := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warnings, 2)
	assert.Equal(t, WarnInvalidConstant, warnings[0].ContextMap()["code"])
	assert.Equal(t, "consts.cpp", warnings[0].ContextMap()["unit"])
}

func TestRegistrar_ConstantsReferencedFromBody(t *testing.T) {
	b := testutil.NewBuilder("ref.cpp")
	k := b.Constant("K", testutil.Builtin("float"), 3, true)
	f := b.Func("scale", testutil.Builtin("float"), b.Param("a", testutil.Builtin("float")))
	b.Return(f, &ast.BinaryOperator{Op: "*", LHS: b.VarRef(f.Params[0]), RHS: b.VarRef(k)})
	mk := b.Factory("MakeMap", "Map", testutil.Int(1))

	m := analyze(t, b.Unit(k, f, mk, b.Instance("s", mk, b.Ref(f)))).Manifest

	require.Len(t, m.Constants, 1)
	kid := m.Constants[0].ID
	assert.Equal(t, []ir.DeclID{kid}, m.Functions[0].Constants)
	assert.Equal(t, []ir.DeclID{kid}, m.Instances[0].Constants)
}

func TestRegistrar_ConstantNotDuplicated(t *testing.T) {
	b := testutil.NewBuilder("once.cpp")
	k := b.Constant("K", testutil.Builtin("int"), 1, false)
	f := b.Func("f", testutil.Builtin("int"))
	b.Return(f, b.VarRef(k))
	mk := b.Factory("MakeMap", "Map", testutil.Int(1))

	res := analyze(t, b.Unit(k, f, mk, b.Instance("s", mk, b.Ref(f))))
	assert.Len(t, res.Manifest.Constants, 1)
	assert.Len(t, res.Diagnostics, 1)
}
