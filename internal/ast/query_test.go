package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lit(v int64) *IntegerLiteral { return &IntegerLiteral{Value: v} }

func TestEvalInt(t *testing.T) {
	n := &VarDecl{Base: Base{ID: "n"}, Name: "N", Constexpr: true, Init: lit(3), Definition: Definition}
	notConst := &VarDecl{Base: Base{ID: "m"}, Name: "m", Init: lit(3), Definition: Definition}

	tests := []struct {
		name string
		expr Expr
		want int64
		ok   bool
	}{
		{"literal", lit(7), 7, true},
		{"paren", &ParenExpr{Sub: lit(4)}, 4, true},
		{"negate", &UnaryOperator{Op: "-", Sub: lit(2)}, -2, true},
		{"sum", &BinaryOperator{Op: "+", LHS: lit(2), RHS: lit(1)}, 3, true},
		{"shift", &BinaryOperator{Op: "<<", LHS: lit(1), RHS: lit(4)}, 16, true},
		{"constexpr ref", &ImplicitCastExpr{Cast: "LValueToRValue", Sub: &DeclRefExpr{Ref: "n", Decl: n}}, 3, true},
		{"non-constexpr ref", &DeclRefExpr{Ref: "m", Decl: notConst}, 0, false},
		{"division by zero", &BinaryOperator{Op: "/", LHS: lit(1), RHS: lit(0)}, 0, false},
		{"opaque", &OpaqueExpr{Kind: "CallExpr"}, 0, false},
		{"nil", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := EvalInt(tt.expr)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvalIntSelfReference(t *testing.T) {
	x := &VarDecl{Base: Base{ID: "x"}, Name: "x", Constexpr: true}
	x.Init = &DeclRefExpr{Ref: "x", Decl: x}

	_, ok := EvalInt(x.Init)
	assert.False(t, ok)
}

func TestStripTypeSugar(t *testing.T) {
	spec := &TemplateSpecializationType{Template: "Map"}

	assert.Same(t, spec, StripTypeSugar(&DecltypeType{Underlying: &ElaboratedType{Named: spec}}))
	assert.Same(t, spec, StripTypeSugar(&ElaboratedType{Named: spec}))

	// Only one layer of each is removed.
	twice := &ElaboratedType{Named: &ElaboratedType{Named: spec}}
	_, ok := StripTypeSugar(twice).(*TemplateSpecializationType)
	assert.False(t, ok)
}

func TestRecordOf(t *testing.T) {
	rec := &RecordDecl{Base: Base{ID: "r"}, Name: "Particle"}
	ty := &ConstType{Inner: &ReferenceType{Referee: &RecordType{Decl: rec}}}

	assert.Same(t, rec, RecordOf(ty))
	assert.Nil(t, RecordOf(&BuiltinType{Name: "float"}))
	assert.Equal(t, "const Particle &", ty.String())
}

func TestDirectCallee(t *testing.T) {
	fn := &FunctionDecl{Base: Base{ID: "f"}, Name: "MakeMap"}
	call := &CallExpr{Callee: &ImplicitCastExpr{Cast: "FunctionToPointerDecay", Sub: &DeclRefExpr{Ref: "f", Decl: fn}}}
	assert.Same(t, fn, DirectCallee(call))

	indirect := &CallExpr{Callee: &OpaqueExpr{Kind: "MemberExpr"}}
	assert.Nil(t, DirectCallee(indirect))
}

func TestInspectVisitsLocalsInSourceOrder(t *testing.T) {
	inner := &VarDecl{Base: Base{ID: "inner"}, Name: "inner"}
	closureLocal := &VarDecl{Base: Base{ID: "closure_local"}, Name: "closure_local"}
	op := &FunctionDecl{
		Base:   Base{ID: "op"},
		Name:   "operator()",
		Method: true,
		Body:   &CompoundStmt{Stmts: []Stmt{&DeclStmt{Decls: []Decl{closureLocal}}}},
	}
	main := &FunctionDecl{
		Base: Base{ID: "main"},
		Name: "main",
		Body: &CompoundStmt{Stmts: []Stmt{
			&DeclStmt{Decls: []Decl{&VarDecl{Base: Base{ID: "a"}, Name: "a", Init: &LambdaExpr{CallOperator: op}}}},
			&IfStmt{Cond: lit(1), Then: &CompoundStmt{Stmts: []Stmt{&DeclStmt{Decls: []Decl{inner}}}}},
		}},
	}
	unit := &Unit{Name: "main.cpp", Decls: []Decl{
		&VarDecl{Base: Base{ID: "g"}, Name: "g"},
		&NamespaceDecl{Name: "ns", Decls: []Decl{main}},
	}}

	var names []string
	InspectUnit(unit, func(n Node) bool {
		if v, ok := n.(*VarDecl); ok {
			names = append(names, v.Name)
		}
		return true
	})

	require.Equal(t, []string{"g", "a", "closure_local", "inner"}, names)
}

func TestTemplateSpecializationString(t *testing.T) {
	spec := &TemplateSpecializationType{
		Template:  "Map",
		Qualified: "skepu::backend::Map",
		Args: []TemplateArg{
			{Expr: &BinaryOperator{Op: "+", LHS: lit(1), RHS: lit(1)}},
			{Type: &BuiltinType{Name: "float"}},
		},
	}
	assert.Equal(t, "skepu::backend::Map<2, float>", spec.String())
}
