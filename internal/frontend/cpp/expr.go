package cpp

import (
	"fmt"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"go.uber.org/zap"

	"github.com/roach88/skelc/internal/ast"
	"github.com/roach88/skelc/internal/skeleton"
)

const (
	castDecay  = "FunctionToPointerDecay"
	castRValue = "LValueToRValue"
)

func (l *lowerer) expr(n *sitter.Node) ast.Expr {
	if n == nil {
		return nil
	}

	switch n.Type() {
	case "comment":
		return nil

	case "number_literal":
		text := strings.TrimRight(strings.ReplaceAll(l.text(n), "'", ""), "uUlL")
		if v, err := strconv.ParseInt(text, 0, 64); err == nil {
			return &ast.IntegerLiteral{Base: l.base(n), Value: v}
		}
		return l.opaque(n, "FloatingLiteral")

	case "identifier":
		return l.nameRef(n, l.text(n))

	case "qualified_identifier", "template_function":
		name, args := l.splitTemplate(n)
		if args != nil {
			return l.templateRef(n, name, args)
		}
		return l.nameRef(n, name)

	case "binary_expression":
		return &ast.BinaryOperator{
			Base: l.base(n),
			Op:   l.text(n.ChildByFieldName("operator")),
			LHS:  l.expr(n.ChildByFieldName("left")),
			RHS:  l.expr(n.ChildByFieldName("right")),
		}

	case "unary_expression":
		return &ast.UnaryOperator{
			Base: l.base(n),
			Op:   l.text(n.ChildByFieldName("operator")),
			Sub:  l.expr(n.ChildByFieldName("argument")),
		}

	case "pointer_expression":
		arg := n.ChildByFieldName("argument")
		op := l.text(n.ChildByFieldName("operator"))
		sub := l.expr(arg)
		if op == "&" {
			// Taking the address of a function does not decay it.
			if c, ok := sub.(*ast.ImplicitCastExpr); ok && c.Cast == castDecay {
				sub = c.Sub
			}
		}
		return &ast.UnaryOperator{Base: l.base(n), Op: op, Sub: sub}

	case "parenthesized_expression":
		var sub ast.Expr
		if n.NamedChildCount() > 0 {
			sub = l.expr(n.NamedChild(0))
		}
		return &ast.ParenExpr{Base: l.base(n), Sub: sub}

	case "call_expression":
		return l.call(n)

	case "lambda_expression":
		return l.lambda(n)

	case "true", "false":
		return l.opaque(n, "CXXBoolLiteralExpr")

	case "string_literal", "raw_string_literal", "concatenated_string", "char_literal":
		return &ast.OpaqueExpr{Base: l.base(n), Kind: "StringLiteral"}

	default:
		return l.opaque(n, n.Type())
	}
}

// opaque keeps the named sub-expressions of a construct the analysis does
// not model, so references inside it stay visible.
func (l *lowerer) opaque(n *sitter.Node, kind string) ast.Expr {
	o := &ast.OpaqueExpr{Base: l.base(n), Kind: kind}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "comment", "field_identifier", "type_identifier", "primitive_type", "type_descriptor":
			continue
		}
		if e := l.expr(c); e != nil {
			o.Children = append(o.Children, e)
		}
	}
	return o
}

// nameRef lowers a reference to name the way an rvalue use appears:
// functions decay to pointers and variables are loaded.
func (l *lowerer) nameRef(n *sitter.Node, name string) ast.Expr {
	d := l.resolve(name)
	ref := func(d ast.Decl) *ast.DeclRefExpr {
		return &ast.DeclRefExpr{Base: l.base(n), Ref: d.NodeID(), Decl: d}
	}

	switch d := d.(type) {
	case *ast.FunctionDecl:
		return &ast.ImplicitCastExpr{Base: l.synthetic(n, "ImplicitCastExpr"), Cast: castDecay, Sub: ref(d)}
	case *ast.VarDecl:
		return &ast.ImplicitCastExpr{Base: l.synthetic(n, "ImplicitCastExpr"), Cast: castRValue, Sub: ref(d)}
	case nil:
		return &ast.OpaqueExpr{Base: l.base(n), Kind: "UnresolvedLookupExpr"}
	default:
		return ref(d)
	}
}

// templateRef lowers name<args>. A function template yields a reference
// to its specialization.
func (l *lowerer) templateRef(n *sitter.Node, name string, args *sitter.Node) ast.Expr {
	fd, ok := l.resolve(name).(*ast.FunctionDecl)
	if !ok {
		return &ast.OpaqueExpr{Base: l.base(n), Kind: "UnresolvedLookupExpr"}
	}
	if _, isTemplate := l.templates[fd]; isTemplate {
		fd = l.specialize(fd, l.templateArgs(args))
	}
	return &ast.ImplicitCastExpr{
		Base: l.synthetic(n, "ImplicitCastExpr"),
		Cast: castDecay,
		Sub:  &ast.DeclRefExpr{Base: l.base(n), Ref: fd.ID, Decl: fd},
	}
}

// splitTemplate separates a possibly qualified name from its template
// argument list.
func (l *lowerer) splitTemplate(n *sitter.Node) (string, *sitter.Node) {
	switch n.Type() {
	case "template_function", "template_type":
		return l.text(n.ChildByFieldName("name")), n.ChildByFieldName("arguments")
	case "qualified_identifier":
		name, args := l.splitTemplate(n.ChildByFieldName("name"))
		if scope := n.ChildByFieldName("scope"); scope != nil {
			name = l.text(scope) + "::" + name
		} else {
			name = "::" + name
		}
		return strings.Join(strings.Fields(name), ""), args
	default:
		return strings.Join(strings.Fields(l.text(n)), ""), nil
	}
}

// specialize instantiates a function template. Instantiations are shared
// per template and argument list and keep the template's body.
func (l *lowerer) specialize(tmpl *ast.FunctionDecl, args []ast.TemplateArg) *ast.FunctionDecl {
	names := make([]string, len(args))
	for i, a := range args {
		names[i] = a.String()
	}
	key := string(tmpl.ID) + "<" + strings.Join(names, ", ") + ">"
	if fd, ok := l.specs[key]; ok {
		return fd
	}

	bindings := make(map[string]ast.Type)
	for i, p := range l.templates[tmpl] {
		if i < len(args) && args[i].Type != nil {
			bindings[p] = args[i].Type
		}
	}

	fd := &ast.FunctionDecl{
		Base:         ast.Base{ID: ast.NodeID(key), Loc: tmpl.Loc},
		Name:         tmpl.Name,
		Qualified:    tmpl.Qualified,
		Result:       substitute(tmpl.Result, bindings),
		TemplateArgs: names,
		Body:         tmpl.Body,
		Method:       tmpl.Method,
	}
	for _, p := range tmpl.Params {
		c := *p
		c.ID = ast.NodeID(string(p.ID) + "<" + strings.Join(names, ", ") + ">")
		c.Type = substitute(p.Type, bindings)
		fd.Params = append(fd.Params, &c)
	}

	l.specs[key] = fd
	return fd
}

func (l *lowerer) call(n *sitter.Node) ast.Expr {
	c := &ast.CallExpr{Base: l.base(n)}
	if list := n.ChildByFieldName("arguments"); list != nil {
		for i := 0; i < int(list.NamedChildCount()); i++ {
			if a := l.argument(list.NamedChild(i)); a != nil {
				c.Args = append(c.Args, a)
			}
		}
	}

	fn := n.ChildByFieldName("function")
	switch fn.Type() {
	case "identifier", "qualified_identifier", "template_function":
		name, targs := l.splitTemplate(fn)
		if l.resolve(name) == nil {
			if template, ok := l.skeletons.FactoryTemplate(name); ok {
				fd := l.factory(name, template, l.templateArgs(targs), len(c.Args))
				c.Callee = &ast.ImplicitCastExpr{
					Base: l.synthetic(fn, "ImplicitCastExpr"),
					Cast: castDecay,
					Sub:  &ast.DeclRefExpr{Base: l.base(fn), Ref: fd.ID, Decl: fd},
				}
				return c
			}
		}
	}
	c.Callee = l.expr(fn)
	return c
}

// argument lowers a call argument. Closures passed by value are
// constructed from a materialized temporary.
func (l *lowerer) argument(n *sitter.Node) ast.Expr {
	x := l.expr(n)
	lambda, ok := x.(*ast.LambdaExpr)
	if !ok {
		return x
	}
	return &ast.ConstructExpr{
		Base:         l.synthetic(n, "CXXConstructExpr"),
		Construction: ast.Complete,
		Type:         &ast.OpaqueType{Name: "(lambda)"},
		Args: []ast.Expr{&ast.MaterializeTemporaryExpr{
			Base: l.synthetic(n, "MaterializeTemporaryExpr"),
			Sub:  lambda,
		}},
	}
}

// factory returns the library declaration behind a call to a skeleton
// factory. A missing trailing arity argument is deduced from the number
// of callbacks, as the library's deduction guides do.
func (l *lowerer) factory(name, template string, targs []ast.TemplateArg, nargs int) *ast.FunctionDecl {
	if entry, ok := l.skeletons.Lookup(template); ok {
		targs = deduceArity(entry, targs, nargs)
	}

	names := make([]string, len(targs))
	for i, a := range targs {
		names[i] = a.String()
	}
	key := name + "<" + strings.Join(names, ", ") + ">"
	if fd, ok := l.factories[key]; ok {
		return fd
	}

	fd := &ast.FunctionDecl{
		Base:      ast.Base{ID: ast.NodeID("factory:" + key), Loc: ast.Pos{File: l.file}},
		Name:      lastSegment(name),
		Qualified: strings.TrimPrefix(name, "::"),
		Result: &ast.ElaboratedType{
			Qualifier: "skepu::backend::",
			Named: &ast.TemplateSpecializationType{
				Template:  template,
				Qualified: "skepu::backend::" + template,
				Args:      targs,
			},
		},
		TemplateArgs: names,
	}
	l.factories[key] = fd
	l.logger.Debug("synthesized skeleton factory", zap.String("factory", key))
	return fd
}

func deduceArity(entry *skeleton.Entry, targs []ast.TemplateArg, nargs int) []ast.TemplateArg {
	missing := -1
	rest := int64(nargs)
	for _, c := range entry.Arity {
		switch {
		case !c.FromTemplate:
			rest -= int64(c.Fixed)
		case c.TemplateArg < len(targs):
			v, ok := ast.EvalInt(targs[c.TemplateArg].Expr)
			if !ok {
				return targs
			}
			rest -= v
		case missing >= 0 && missing != c.TemplateArg:
			return targs
		default:
			missing = c.TemplateArg
		}
	}
	if missing != len(targs) || rest < 0 {
		return targs
	}
	out := append(append([]ast.TemplateArg(nil), targs...), ast.TemplateArg{Expr: &ast.IntegerLiteral{Value: rest}})
	return out
}

func (l *lowerer) lambda(n *sitter.Node) *ast.LambdaExpr {
	le := &ast.LambdaExpr{Base: l.base(n)}

	if caps := n.ChildByFieldName("captures"); caps != nil {
		for i := 0; i < int(caps.NamedChildCount()); i++ {
			c := caps.NamedChild(i)
			switch c.Type() {
			case "lambda_default_capture":
				le.Captures = append(le.Captures, ast.Capture{Default: true, ByRef: l.text(c) == "&"})
			case "pointer_expression":
				le.Captures = append(le.Captures, ast.Capture{Name: l.text(c.ChildByFieldName("argument")), ByRef: true})
			case "comment":
			default:
				name := l.text(c)
				if i := strings.IndexAny(name, "={"); i >= 0 {
					name = strings.TrimSpace(name[:i])
				}
				le.Captures = append(le.Captures, ast.Capture{Name: name})
			}
		}
	}

	op := &ast.FunctionDecl{
		Base:   ast.Base{ID: ast.NodeID(fmt.Sprintf("operator()@%d", n.StartByte())), Loc: pointPos(l.file, n)},
		Name:   "operator()",
		Method: true,
	}

	l.push()
	if d := n.ChildByFieldName("declarator"); d != nil {
		op.Params = l.parameters(d.ChildByFieldName("parameters"))
		op.Result = l.trailingReturn(d)
	}
	if op.Result == nil {
		op.Result = l.trailingReturn(n)
	}
	if body := n.ChildByFieldName("body"); body != nil {
		op.Body = l.compound(body)
	}
	l.pop()

	if op.Result == nil && op.Body != nil {
		op.Result = returnType(op.Body)
	}
	le.CallOperator = op
	return le
}

func (l *lowerer) trailingReturn(n *sitter.Node) ast.Type {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() == "trailing_return_type" {
			return l.typeDescriptor(c)
		}
	}
	return nil
}

// returnType deduces a lambda result from its first return statement.
func returnType(body *ast.CompoundStmt) ast.Type {
	var t ast.Type
	ast.Inspect(body, func(n ast.Node) bool {
		if t != nil {
			return false
		}
		switch n := n.(type) {
		case *ast.LambdaExpr:
			return false
		case *ast.ReturnStmt:
			if n.X != nil {
				t = typeOfExpr(n.X)
				if t == nil {
					t = exprOperandType(n.X)
				}
			}
			return false
		}
		return true
	})
	return t
}

// exprOperandType takes the type of the first typed operand of an
// arithmetic expression.
func exprOperandType(e ast.Expr) ast.Type {
	switch x := e.(type) {
	case *ast.BinaryOperator:
		if t := typeOfExpr(x.LHS); t != nil {
			return ast.StripQualifiers(t)
		}
		if t := typeOfExpr(x.RHS); t != nil {
			return ast.StripQualifiers(t)
		}
		return exprOperandType(x.LHS)
	case *ast.ParenExpr:
		return exprOperandType(x.Sub)
	case *ast.UnaryOperator:
		return exprOperandType(x.Sub)
	}
	return nil
}
