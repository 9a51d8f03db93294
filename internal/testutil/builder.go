package testutil

import (
	"github.com/roach88/skelc/internal/ast"
)

// Builder constructs typed ASTs in the shape a full C++ front-end
// produces. Every node gets a fresh id and its own line, so positions are
// distinct and stable.
type Builder struct {
	File string
	ids  *DeterministicIDs
	line int
}

// NewBuilder creates a builder for one translation unit.
func NewBuilder(file string) *Builder {
	return &Builder{File: file, ids: NewDeterministicIDs()}
}

func (b *Builder) base() ast.Base {
	b.line++
	return ast.Base{ID: b.ids.Next(), Loc: ast.Pos{File: b.File, Line: b.line, Col: 1}}
}

// Unit wraps decls into a translation unit named after the builder's file.
func (b *Builder) Unit(decls ...ast.Decl) *ast.Unit {
	return &ast.Unit{Name: b.File, Decls: decls}
}

// Builtin is a fundamental type.
func Builtin(name string) *ast.BuiltinType { return &ast.BuiltinType{Name: name} }

// Record refers to a struct declaration.
func Record(rd *ast.RecordDecl) *ast.RecordType { return &ast.RecordType{Decl: rd} }

// ConstRef is const T &.
func ConstRef(t ast.Type) ast.Type {
	return &ast.ReferenceType{Referee: &ast.ConstType{Inner: t}}
}

// Int is a non-type template argument.
func Int(v int64) ast.TemplateArg { return ast.TemplateArg{Expr: &ast.IntegerLiteral{Value: v}} }

// TypeArg is a type template argument.
func TypeArg(t ast.Type) ast.TemplateArg { return ast.TemplateArg{Type: t} }

// Lit is an integer literal node.
func (b *Builder) Lit(v int64) *ast.IntegerLiteral {
	return &ast.IntegerLiteral{Base: b.base(), Value: v}
}

// Param is a function parameter.
func (b *Builder) Param(name string, t ast.Type) *ast.VarDecl {
	return &ast.VarDecl{Base: b.base(), Name: name, Type: t, Param: true, Definition: ast.Definition}
}

// Func is a function definition with an empty body.
func (b *Builder) Func(name string, result ast.Type, params ...*ast.VarDecl) *ast.FunctionDecl {
	base := b.base()
	return &ast.FunctionDecl{
		Base:   base,
		Name:   name,
		Params: params,
		Result: result,
		Body:   &ast.CompoundStmt{Base: b.base()},
	}
}

// Return appends "return x;" to fn's body.
func (b *Builder) Return(fn *ast.FunctionDecl, x ast.Expr) {
	fn.Body.Stmts = append(fn.Body.Stmts, &ast.ReturnStmt{Base: b.base(), X: x})
}

// Local appends a declaration statement to fn's body.
func (b *Builder) Local(fn *ast.FunctionDecl, decls ...ast.Decl) {
	fn.Body.Stmts = append(fn.Body.Stmts, &ast.DeclStmt{Base: b.base(), Decls: decls})
}

// Struct is a record definition.
func (b *Builder) Struct(name string, fields ...*ast.FieldDecl) *ast.RecordDecl {
	return &ast.RecordDecl{Base: b.base(), Name: name, Fields: fields}
}

// Field is a record member.
func (b *Builder) Field(name string, t ast.Type) *ast.FieldDecl {
	return &ast.FieldDecl{Base: b.base(), Name: name, Type: t}
}

// Namespace groups decls.
func (b *Builder) Namespace(name string, decls ...ast.Decl) *ast.NamespaceDecl {
	return &ast.NamespaceDecl{Base: b.base(), Name: name, Decls: decls}
}

// Factory declares a skeleton factory such as MakeMap<2>, returning
// skepu::backend::<template><args...>.
func (b *Builder) Factory(name, template string, args ...ast.TemplateArg) *ast.FunctionDecl {
	return &ast.FunctionDecl{
		Base:      b.base(),
		Name:      name,
		Qualified: "skepu::" + name,
		Result: &ast.ElaboratedType{
			Qualifier: "skepu::backend::",
			Named: &ast.TemplateSpecializationType{
				Template:  template,
				Qualified: "skepu::backend::" + template,
				Args:      args,
			},
		},
	}
}

// Ref is a plain function reference argument: f.
func (b *Builder) Ref(fn *ast.FunctionDecl) ast.Expr {
	return &ast.ImplicitCastExpr{
		Base: b.base(),
		Cast: "FunctionToPointerDecay",
		Sub:  &ast.DeclRefExpr{Base: b.base(), Ref: fn.ID, Decl: fn},
	}
}

// AddrOf is an address-of function argument: &f.
func (b *Builder) AddrOf(fn *ast.FunctionDecl) ast.Expr {
	return &ast.UnaryOperator{
		Base: b.base(),
		Op:   "&",
		Sub:  &ast.DeclRefExpr{Base: b.base(), Ref: fn.ID, Decl: fn},
	}
}

// VarRef reads a variable.
func (b *Builder) VarRef(vd *ast.VarDecl) ast.Expr {
	return &ast.ImplicitCastExpr{
		Base: b.base(),
		Cast: "LValueToRValue",
		Sub:  &ast.DeclRefExpr{Base: b.base(), Ref: vd.ID, Decl: vd},
	}
}

// Lambda is a closure argument as it appears in a call: a temporary
// construction wrapping the closure literal. The returned call operator
// can be given a body.
func (b *Builder) Lambda(result ast.Type, params []*ast.VarDecl, captures ...ast.Capture) (ast.Expr, *ast.FunctionDecl) {
	op := &ast.FunctionDecl{
		Base:   b.base(),
		Name:   "operator()",
		Params: params,
		Result: result,
		Body:   &ast.CompoundStmt{Base: b.base()},
		Method: true,
	}
	lambda := &ast.LambdaExpr{Base: b.base(), Captures: captures, CallOperator: op}
	return &ast.ConstructExpr{
		Base:         b.base(),
		Construction: ast.Complete,
		Args:         []ast.Expr{&ast.MaterializeTemporaryExpr{Base: b.base(), Sub: lambda}},
	}, op
}

// Instance declares "auto name = factory(callbacks...);" in the wrapped
// form: cleanups, complete construction, materialized and bound
// temporary around the factory call.
func (b *Builder) Instance(name string, factory *ast.FunctionDecl, callbacks ...ast.Expr) *ast.VarDecl {
	call := &ast.CallExpr{
		Base: b.base(),
		Callee: &ast.ImplicitCastExpr{
			Base: b.base(),
			Cast: "FunctionToPointerDecay",
			Sub:  &ast.DeclRefExpr{Base: b.base(), Ref: factory.ID, Decl: factory},
		},
		Args: callbacks,
	}
	init := &ast.ExprWithCleanups{
		Base: b.base(),
		Sub: &ast.ConstructExpr{
			Base:         b.base(),
			Construction: ast.Complete,
			Type:         factory.Result,
			Args: []ast.Expr{&ast.MaterializeTemporaryExpr{
				Base: b.base(),
				Sub:  &ast.BindTemporaryExpr{Base: b.base(), Sub: call},
			}},
		},
	}
	return &ast.VarDecl{
		Base:       b.base(),
		Name:       name,
		Type:       factory.Result,
		Init:       init,
		Definition: ast.Definition,
	}
}

// Var is a plain variable definition.
func (b *Builder) Var(name string, t ast.Type, init ast.Expr) *ast.VarDecl {
	return &ast.VarDecl{Base: b.base(), Name: name, Type: t, Init: init, Definition: ast.Definition}
}

// Constant is a variable marked [[skepu::userconstant]].
func (b *Builder) Constant(name string, t ast.Type, value int64, constexpr bool) *ast.VarDecl {
	return &ast.VarDecl{
		Base:       b.base(),
		Name:       name,
		Type:       t,
		Init:       b.Lit(value),
		Definition: ast.Definition,
		Constexpr:  constexpr,
		Attrs:      []ast.Attr{ast.AttrUserConstant},
	}
}
