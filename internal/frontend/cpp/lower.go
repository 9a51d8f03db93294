package cpp

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"go.uber.org/zap"

	"github.com/roach88/skelc/internal/ast"
	"github.com/roach88/skelc/internal/skeleton"
)

// lowerer converts one tree-sitter tree into the typed AST.
type lowerer struct {
	file      string
	src       []byte
	skeletons *skeleton.Registry
	logger    *zap.Logger

	scope      *scope
	nsScope    *scope
	namespaces []string
	qualified  map[string]ast.Decl

	templates map[*ast.FunctionDecl][]string
	specs     map[string]*ast.FunctionDecl
	factories map[string]*ast.FunctionDecl
}

func newLowerer(file string, src []byte, skeletons *skeleton.Registry, logger *zap.Logger) *lowerer {
	root := newScope(nil)
	return &lowerer{
		file:      file,
		src:       src,
		skeletons: skeletons,
		logger:    logger,
		scope:     root,
		nsScope:   root,
		qualified: make(map[string]ast.Decl),
		templates: make(map[*ast.FunctionDecl][]string),
		specs:     make(map[string]*ast.FunctionDecl),
		factories: make(map[string]*ast.FunctionDecl),
	}
}

func (l *lowerer) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(l.src)
}

func (l *lowerer) base(n *sitter.Node) ast.Base {
	return ast.Base{
		ID:  ast.NodeID(fmt.Sprintf("%s@%d", n.Type(), n.StartByte())),
		Loc: pointPos(l.file, n),
	}
}

func (l *lowerer) push() { l.scope = newScope(l.scope) }
func (l *lowerer) pop()  { l.scope = l.scope.parent }

// withTypeParams marks names as template type parameters while f runs.
func (l *lowerer) withTypeParams(names []string, f func()) {
	var added []string
	for _, n := range names {
		if !l.scope.typeParams[n] {
			l.scope.typeParams[n] = true
			added = append(added, n)
		}
	}
	f()
	for _, n := range added {
		delete(l.scope.typeParams, n)
	}
}

func (l *lowerer) qualify(name string) string {
	if len(l.namespaces) == 0 || strings.Contains(name, "::") {
		return name
	}
	return strings.Join(l.namespaces, "::") + "::" + name
}

// declare binds name in the current scope and, at namespace level, under
// its qualified name.
func (l *lowerer) declare(name string, d ast.Decl, global bool) {
	l.scope.define(lastSegment(name), d)
	if global {
		l.qualified[strings.TrimPrefix(l.qualify(name), "::")] = d
	}
}

// resolve looks name up lexically, then by qualified name relative to
// each enclosing namespace.
func (l *lowerer) resolve(name string) ast.Decl {
	name = strings.TrimPrefix(name, "::")
	if !strings.Contains(name, "::") {
		if d := l.scope.lookup(name); d != nil {
			return d
		}
	}
	for i := len(l.namespaces); i >= 0; i-- {
		q := name
		if i > 0 {
			q = strings.Join(l.namespaces[:i], "::") + "::" + name
		}
		if d, ok := l.qualified[q]; ok {
			return d
		}
	}
	return nil
}

// topLevel lowers the children of the translation unit.
func (l *lowerer) topLevel(root *sitter.Node) []ast.Decl {
	var decls []ast.Decl
	for i := 0; i < int(root.NamedChildCount()); i++ {
		decls = append(decls, l.declsOf(root.NamedChild(i))...)
	}
	return decls
}

// declsOf lowers a namespace-level item.
func (l *lowerer) declsOf(n *sitter.Node) []ast.Decl {
	if n == nil {
		return nil
	}

	switch n.Type() {
	case "function_definition":
		if fd := l.functionDefinition(n, nil); fd != nil {
			return []ast.Decl{fd}
		}
	case "template_declaration":
		return l.templateDeclaration(n)
	case "declaration":
		return l.declaration(n, true)
	case "struct_specifier", "class_specifier":
		if rd := l.record(n); rd != nil {
			return []ast.Decl{rd}
		}
	case "namespace_definition":
		return []ast.Decl{l.namespace(n)}
	case "linkage_specification":
		return l.declsOf(n.ChildByFieldName("body"))
	case "declaration_list", "preproc_if", "preproc_ifdef", "preproc_else", "preproc_elif":
		var decls []ast.Decl
		for i := 0; i < int(n.NamedChildCount()); i++ {
			decls = append(decls, l.declsOf(n.NamedChild(i))...)
		}
		return decls
	}
	return nil
}

func (l *lowerer) namespace(n *sitter.Node) *ast.NamespaceDecl {
	name := l.text(n.ChildByFieldName("name"))
	ns := &ast.NamespaceDecl{Base: l.base(n), Name: name}

	segments := 0
	if name != "" {
		for _, s := range strings.Split(name, "::") {
			l.namespaces = append(l.namespaces, strings.TrimSpace(s))
			segments++
		}
	}
	outer := l.nsScope
	l.push()
	l.nsScope = l.scope
	if body := n.ChildByFieldName("body"); body != nil {
		for i := 0; i < int(body.NamedChildCount()); i++ {
			ns.Decls = append(ns.Decls, l.declsOf(body.NamedChild(i))...)
		}
	}
	l.pop()
	l.nsScope = outer
	l.namespaces = l.namespaces[:len(l.namespaces)-segments]
	return ns
}

// templateParams returns the parameter names of a template_parameter_list.
func (l *lowerer) templateParams(list *sitter.Node) []string {
	var names []string
	if list == nil {
		return names
	}
	for i := 0; i < int(list.NamedChildCount()); i++ {
		p := list.NamedChild(i)
		switch p.Type() {
		case "type_parameter_declaration", "variadic_type_parameter_declaration":
			for j := 0; j < int(p.NamedChildCount()); j++ {
				if c := p.NamedChild(j); c.Type() == "type_identifier" {
					names = append(names, l.text(c))
				}
			}
		case "optional_type_parameter_declaration":
			names = append(names, l.text(p.ChildByFieldName("name")))
		case "parameter_declaration", "optional_parameter_declaration":
			if d := p.ChildByFieldName("declarator"); d != nil {
				names = append(names, l.text(d))
			}
		}
	}
	return names
}

func (l *lowerer) templateDeclaration(n *sitter.Node) []ast.Decl {
	params := l.templateParams(n.ChildByFieldName("parameters"))

	var decls []ast.Decl
	l.withTypeParams(params, func() {
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			switch c.Type() {
			case "function_definition":
				if fd := l.functionDefinition(c, params); fd != nil {
					decls = append(decls, fd)
				}
			case "declaration", "struct_specifier", "class_specifier", "template_declaration":
				decls = append(decls, l.declsOf(c)...)
			}
		}
	})
	return decls
}

func (l *lowerer) functionDefinition(n *sitter.Node, templateParams []string) *ast.FunctionDecl {
	baseType := l.specifiedType(n)
	d := l.declarator(baseType, n.ChildByFieldName("declarator"))
	if d.fn == nil {
		return nil
	}

	fd := &ast.FunctionDecl{
		Base:   l.base(n),
		Name:   lastSegment(d.name),
		Result: d.typ,
	}
	if q := l.qualify(d.name); q != fd.Name {
		fd.Qualified = q
	}
	fd.Method = strings.Contains(d.name, "::") && l.isRecordScope(d.name)

	l.declare(d.name, fd, l.atNamespaceLevel())
	if templateParams != nil {
		l.templates[fd] = templateParams
	}

	l.push()
	fd.Params = l.parameters(d.fn.ChildByFieldName("parameters"))
	if body := n.ChildByFieldName("body"); body != nil && body.Type() == "compound_statement" {
		fd.Body = l.compound(body)
	}
	l.pop()

	return fd
}

// isRecordScope reports whether the qualifier of a::b names a record,
// which makes b an out-of-line method definition.
func (l *lowerer) isRecordScope(name string) bool {
	i := strings.LastIndex(name, "::")
	if i <= 0 {
		return false
	}
	_, ok := l.resolve(name[:i]).(*ast.RecordDecl)
	return ok
}

func (l *lowerer) atNamespaceLevel() bool { return l.scope == l.nsScope }

func (l *lowerer) parameters(list *sitter.Node) []*ast.VarDecl {
	var params []*ast.VarDecl
	if list == nil {
		return params
	}
	for i := 0; i < int(list.NamedChildCount()); i++ {
		p := list.NamedChild(i)
		switch p.Type() {
		case "parameter_declaration", "optional_parameter_declaration", "variadic_parameter_declaration":
		default:
			continue
		}
		d := l.declarator(l.specifiedType(p), p.ChildByFieldName("declarator"))
		vd := &ast.VarDecl{
			Base:       l.base(p),
			Name:       d.name,
			Type:       d.typ,
			Param:      true,
			Definition: ast.Definition,
		}
		l.scope.define(d.name, vd)
		params = append(params, vd)
	}
	return params
}

// record lowers a struct or class definition. Specifiers without a body
// declare nothing new.
func (l *lowerer) record(n *sitter.Node) *ast.RecordDecl {
	body := n.ChildByFieldName("body")
	if body == nil {
		return nil
	}
	name := l.text(n.ChildByFieldName("name"))

	rd := &ast.RecordDecl{Base: l.base(n), Name: lastSegment(name)}
	if q := l.qualify(name); q != rd.Name {
		rd.Qualified = q
	}
	if name != "" {
		l.declare(name, rd, l.atNamespaceLevel())
	}

	for i := 0; i < int(body.NamedChildCount()); i++ {
		f := body.NamedChild(i)
		if f.Type() != "field_declaration" {
			continue
		}
		baseType := l.specifiedType(f)
		for j := 0; j < int(f.ChildCount()); j++ {
			if f.FieldNameForChild(j) != "declarator" {
				continue
			}
			dn := f.Child(j)
			d := l.declarator(baseType, dn)
			if d.fn != nil || d.name == "" {
				continue
			}
			rd.Fields = append(rd.Fields, &ast.FieldDecl{Base: l.base(dn), Name: d.name, Type: d.typ})
		}
	}
	return rd
}

// declaration lowers a (possibly multi-declarator) declaration into
// variable and function declarations. An inline record definition in
// the type position is emitted first.
func (l *lowerer) declaration(n *sitter.Node, global bool) []ast.Decl {
	var decls []ast.Decl

	typeNode := n.ChildByFieldName("type")
	if typeNode != nil && (typeNode.Type() == "struct_specifier" || typeNode.Type() == "class_specifier") {
		if rd := l.record(typeNode); rd != nil {
			decls = append(decls, rd)
		}
	}

	spec := l.specifiers(n)
	baseType := l.specifiedType(n)

	for i := 0; i < int(n.ChildCount()); i++ {
		if n.FieldNameForChild(i) != "declarator" {
			continue
		}
		dn := n.Child(i)
		d := l.declarator(baseType, dn)

		if d.fn != nil && d.value == nil {
			fd := &ast.FunctionDecl{Base: l.base(dn), Name: lastSegment(d.name), Result: d.typ}
			if q := l.qualify(d.name); q != fd.Name {
				fd.Qualified = q
			}
			if existing, ok := l.resolve(d.name).(*ast.FunctionDecl); !ok || existing.Body == nil {
				l.declare(d.name, fd, global)
			}
			l.push()
			fd.Params = l.parameters(d.fn.ChildByFieldName("parameters"))
			l.pop()
			decls = append(decls, fd)
			continue
		}

		vd := &ast.VarDecl{
			Base:       l.base(dn),
			Name:       lastSegment(d.name),
			Type:       d.typ,
			Definition: ast.Definition,
			Constexpr:  spec.constexpr,
			Attrs:      append(append([]ast.Attr(nil), spec.attrs...), d.attrs...),
		}
		if d.value != nil {
			vd.Init = l.initializer(d.value)
		} else if spec.extern {
			vd.Definition = ast.DeclarationOnly
		}
		if o, ok := vd.Type.(*ast.OpaqueType); ok && o.Name == "auto" {
			if ce, ok := ast.StripCleanups(vd.Init).(*ast.ConstructExpr); ok && ce.Type != nil {
				vd.Type = ce.Type
			}
		}

		l.declare(d.name, vd, global)
		decls = append(decls, vd)
	}
	return decls
}

// declSpecs collects the declaration specifiers the analysis cares about.
type declSpecs struct {
	constexpr bool
	extern    bool
	attrs     []ast.Attr
}

func (l *lowerer) specifiers(n *sitter.Node) declSpecs {
	var s declSpecs
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		switch c.Type() {
		case "type_qualifier", "constexpr":
			if l.text(c) == "constexpr" {
				s.constexpr = true
			}
		case "storage_class_specifier":
			if l.text(c) == "extern" {
				s.extern = true
			}
		case "attribute_declaration":
			s.attrs = append(s.attrs, l.attributes(c)...)
		}
	}
	return s
}

// attributes returns the names of [[...]] attributes, without arguments.
func (l *lowerer) attributes(n *sitter.Node) []ast.Attr {
	var attrs []ast.Attr
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() != "attribute" {
			continue
		}
		name := l.text(c)
		if args := c.ChildByFieldName("arguments"); args != nil {
			name = strings.TrimSuffix(name, l.text(args))
		} else if j := strings.Index(name, "("); j >= 0 {
			name = name[:j]
		}
		attrs = append(attrs, ast.Attr(strings.Join(strings.Fields(name), "")))
	}
	return attrs
}

// initializer lowers the value of an init_declarator. A call returning a
// class specialization by value gets the temporary-object wrapping.
func (l *lowerer) initializer(n *sitter.Node) ast.Expr {
	switch n.Type() {
	case "initializer_list":
		return l.opaque(n, "InitListExpr")
	case "argument_list":
		return l.opaque(n, "ParenListExpr")
	}

	x := l.expr(n)
	call, ok := x.(*ast.CallExpr)
	if !ok {
		return x
	}
	callee := ast.DirectCallee(call)
	if callee == nil {
		return x
	}
	if _, ok := ast.StripTypeSugar(callee.Result).(*ast.TemplateSpecializationType); !ok {
		return x
	}

	return &ast.ExprWithCleanups{
		Base: l.synthetic(n, "ExprWithCleanups"),
		Sub: &ast.ConstructExpr{
			Base:         l.synthetic(n, "CXXConstructExpr"),
			Construction: ast.Complete,
			Type:         callee.Result,
			Args: []ast.Expr{&ast.MaterializeTemporaryExpr{
				Base: l.synthetic(n, "MaterializeTemporaryExpr"),
				Sub:  &ast.BindTemporaryExpr{Base: l.synthetic(n, "CXXBindTemporaryExpr"), Sub: call},
			}},
		},
	}
}

// synthetic is the base of a node the front-end adds around n.
func (l *lowerer) synthetic(n *sitter.Node, kind string) ast.Base {
	return ast.Base{
		ID:  ast.NodeID(fmt.Sprintf("%s@%d", kind, n.StartByte())),
		Loc: pointPos(l.file, n),
	}
}

func (l *lowerer) compound(n *sitter.Node) *ast.CompoundStmt {
	cs := &ast.CompoundStmt{Base: l.base(n)}
	l.push()
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if s := l.stmt(n.NamedChild(i)); s != nil {
			cs.Stmts = append(cs.Stmts, s)
		}
	}
	l.pop()
	return cs
}

// condition unwraps a condition_clause.
func (l *lowerer) condition(n *sitter.Node) ast.Expr {
	if n == nil {
		return nil
	}
	if n.Type() == "condition_clause" || n.Type() == "parenthesized_expression" {
		if v := n.ChildByFieldName("value"); v != nil {
			return l.expr(v)
		}
		if n.NamedChildCount() > 0 {
			return l.expr(n.NamedChild(int(n.NamedChildCount()) - 1))
		}
		return nil
	}
	return l.expr(n)
}

func (l *lowerer) stmt(n *sitter.Node) ast.Stmt {
	if n == nil {
		return nil
	}

	switch n.Type() {
	case "comment":
		return nil

	case "compound_statement":
		return l.compound(n)

	case "declaration":
		return &ast.DeclStmt{Base: l.base(n), Decls: l.declaration(n, false)}

	case "struct_specifier", "class_specifier":
		if rd := l.record(n); rd != nil {
			return &ast.DeclStmt{Base: l.base(n), Decls: []ast.Decl{rd}}
		}
		return nil

	case "expression_statement":
		es := &ast.ExprStmt{Base: l.base(n)}
		if n.NamedChildCount() > 0 {
			es.X = l.expr(n.NamedChild(0))
		}
		return es

	case "return_statement":
		rs := &ast.ReturnStmt{Base: l.base(n)}
		if n.NamedChildCount() > 0 {
			rs.X = l.expr(n.NamedChild(0))
		}
		return rs

	case "if_statement":
		is := &ast.IfStmt{Base: l.base(n)}
		l.push()
		is.Cond = l.condition(n.ChildByFieldName("condition"))
		is.Then = l.stmt(n.ChildByFieldName("consequence"))
		if alt := n.ChildByFieldName("alternative"); alt != nil {
			if alt.Type() == "else_clause" && alt.NamedChildCount() > 0 {
				alt = alt.NamedChild(0)
			}
			is.Else = l.stmt(alt)
		}
		l.pop()
		return is

	case "for_statement":
		ls := &ast.LoopStmt{Base: l.base(n)}
		l.push()
		if init := n.ChildByFieldName("initializer"); init != nil {
			if init.Type() == "declaration" {
				ls.Init = l.stmt(init)
			} else {
				ls.Init = &ast.ExprStmt{Base: l.base(init), X: l.expr(init)}
			}
		}
		ls.Cond = l.condition(n.ChildByFieldName("condition"))
		ls.Body = l.stmt(n.ChildByFieldName("body"))
		l.pop()
		return ls

	case "while_statement", "do_statement", "for_range_loop":
		ls := &ast.LoopStmt{Base: l.base(n)}
		l.push()
		ls.Cond = l.condition(n.ChildByFieldName("condition"))
		ls.Body = l.stmt(n.ChildByFieldName("body"))
		l.pop()
		return ls

	case "break_statement", "continue_statement", "goto_statement", "labeled_statement":
		return &ast.ExprStmt{Base: l.base(n), X: l.opaque(n, n.Type())}

	default:
		return &ast.ExprStmt{Base: l.base(n), X: l.expr(n)}
	}
}
