package skeleton

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/skelc/internal/ast"
)

func intArg(v int64) ast.TemplateArg {
	return ast.TemplateArg{Expr: &ast.IntegerLiteral{Value: v}}
}

func spec(template string, args ...ast.TemplateArg) *ast.TemplateSpecializationType {
	return &ast.TemplateSpecializationType{Template: template, Qualified: "skepu::backend::" + template, Args: args}
}

func TestResolveArity(t *testing.T) {
	r := Default()
	float := ast.TemplateArg{Type: &ast.BuiltinType{Name: "float"}}

	tests := []struct {
		name string
		spec *ast.TemplateSpecializationType
		want []int
	}{
		{"Map", spec("Map", intArg(2), float), []int{2}},
		{"MapReduce", spec("MapReduce", intArg(1), float), []int{1, 1}},
		{"MapPairs", spec("MapPairs", intArg(3), intArg(2), float), []int{3, 2}},
		{"MapPairsReduce", spec("MapPairsReduce", intArg(1), intArg(1), float), []int{1, 1}},
		{"MapOverlap2D", spec("MapOverlap2D", float), []int{1}},
		{"Reduce2D", spec("Reduce2D", float), []int{1, 1}},
		{"Scan", spec("Scan", float), []int{1}},
		{"Call", spec("Call", float), []int{1}},
		{"zero arity", spec("Map", intArg(0)), []int{0}},
		{
			"folded expression",
			spec("Map", ast.TemplateArg{Expr: &ast.BinaryOperator{Op: "*", LHS: &ast.IntegerLiteral{Value: 2}, RHS: &ast.IntegerLiteral{Value: 3}}}),
			[]int{6},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, arity, ok, err := r.Resolve(tt.spec)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, tt.spec.Template, entry.Template)
			assert.Equal(t, tt.want, arity)
		})
	}
}

func TestResolveUnknownTemplate(t *testing.T) {
	r := Default()

	_, _, ok, err := r.Resolve(spec("vector", ast.TemplateArg{Type: &ast.BuiltinType{Name: "int"}}))
	assert.NoError(t, err)
	assert.False(t, ok)

	_, _, ok, err = r.Resolve(nil)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestResolveArityErrors(t *testing.T) {
	r := Default()
	n := &ast.VarDecl{Base: ast.Base{ID: "n"}, Name: "n", Init: &ast.IntegerLiteral{Value: 2}, Definition: ast.Definition}

	tests := []struct {
		name string
		spec *ast.TemplateSpecializationType
		code string
	}{
		{"missing", spec("MapPairs", intArg(3)), ErrTemplateArgMissing},
		{"type argument", spec("Map", ast.TemplateArg{Type: &ast.BuiltinType{Name: "float"}}), ErrTemplateArgNotConst},
		{"runtime value", spec("Map", ast.TemplateArg{Expr: &ast.DeclRefExpr{Ref: "n", Decl: n}}), ErrTemplateArgNotConst},
		{"negative", spec("Map", intArg(-1)), ErrArityNegative},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, ok, err := r.Resolve(tt.spec)
			assert.True(t, ok)

			var ae *ArityError
			require.True(t, errors.As(err, &ae))
			assert.Equal(t, tt.code, ae.Code)
		})
	}
}
