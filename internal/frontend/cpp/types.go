package cpp

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/roach88/skelc/internal/ast"
)

// declarator is the outcome of unwrapping a (possibly abstract) C++
// declarator around a base type.
type declarator struct {
	name  string
	typ   ast.Type
	fn    *sitter.Node // function_declarator, when the declarator declares a function
	value *sitter.Node // initializer of an init_declarator
	attrs []ast.Attr
}

func (l *lowerer) declarator(base ast.Type, n *sitter.Node) declarator {
	d := declarator{typ: base}
	for n != nil {
		switch n.Type() {
		case "init_declarator":
			d.value = n.ChildByFieldName("value")
			n = n.ChildByFieldName("declarator")
		case "reference_declarator", "abstract_reference_declarator":
			d.typ = &ast.ReferenceType{Referee: d.typ, RValue: strings.HasPrefix(l.text(n), "&&")}
			n = firstDeclaratorChild(n)
		case "pointer_declarator", "abstract_pointer_declarator":
			d.typ = &ast.PointerType{Pointee: d.typ}
			n = n.ChildByFieldName("declarator")
		case "array_declarator", "abstract_array_declarator":
			d.typ = &ast.PointerType{Pointee: d.typ}
			n = n.ChildByFieldName("declarator")
		case "function_declarator", "abstract_function_declarator":
			if d.fn == nil {
				d.fn = n
			}
			n = n.ChildByFieldName("declarator")
		case "attributed_declarator":
			var inner *sitter.Node
			for i := 0; i < int(n.NamedChildCount()); i++ {
				c := n.NamedChild(i)
				if c.Type() == "attribute_declaration" {
					d.attrs = append(d.attrs, l.attributes(c)...)
				} else if inner == nil {
					inner = c
				}
			}
			n = inner
		case "parenthesized_declarator", "abstract_parenthesized_declarator":
			n = firstDeclaratorChild(n)
		default:
			d.name = strings.Join(strings.Fields(l.text(n)), "")
			n = nil
		}
	}
	return d
}

func firstDeclaratorChild(n *sitter.Node) *sitter.Node {
	if d := n.ChildByFieldName("declarator"); d != nil {
		return d
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() != "type_qualifier" {
			return c
		}
	}
	return nil
}

// specifiedType lowers the type field of a declaration-like node and
// applies its const qualifier.
func (l *lowerer) specifiedType(n *sitter.Node) ast.Type {
	t := l.typeSpecifier(n.ChildByFieldName("type"))
	for i := 0; i < int(n.ChildCount()); i++ {
		if c := n.Child(i); c.Type() == "type_qualifier" && l.text(c) == "const" {
			return &ast.ConstType{Inner: t}
		}
	}
	return t
}

// typeDescriptor lowers a type_descriptor, as found in template
// arguments and trailing return types.
func (l *lowerer) typeDescriptor(n *sitter.Node) ast.Type {
	if n == nil {
		return nil
	}
	if n.Type() != "type_descriptor" {
		var first *sitter.Node
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			if c.Type() == "type_descriptor" {
				return l.typeDescriptor(c)
			}
			if first == nil && c.Type() != "type_qualifier" {
				first = c
			}
		}
		return l.typeSpecifier(first)
	}
	return l.declarator(l.specifiedType(n), n.ChildByFieldName("declarator")).typ
}

func (l *lowerer) typeSpecifier(n *sitter.Node) ast.Type {
	if n == nil {
		return nil
	}
	text := strings.Join(strings.Fields(l.text(n)), " ")

	switch n.Type() {
	case "primitive_type", "sized_type_specifier":
		if text == "void" {
			return nil
		}
		return &ast.BuiltinType{Name: text}

	case "type_identifier":
		return l.namedType(text)

	case "qualified_identifier", "nested_namespace_specifier":
		name, args := l.splitTemplate(n)
		if args != nil {
			return l.templateType(name, args)
		}
		return l.namedType(name)

	case "template_type":
		return l.templateType(l.text(n.ChildByFieldName("name")), n.ChildByFieldName("arguments"))

	case "struct_specifier", "class_specifier", "union_specifier":
		name := l.text(n.ChildByFieldName("name"))
		if rd, ok := l.resolve(name).(*ast.RecordDecl); ok {
			if n.ChildByFieldName("body") != nil {
				return &ast.RecordType{Decl: rd}
			}
			return &ast.ElaboratedType{Qualifier: strings.Fields(text)[0], Named: &ast.RecordType{Decl: rd}}
		}
		return &ast.OpaqueType{Name: text}

	case "decltype":
		var inner ast.Expr
		if n.NamedChildCount() > 0 {
			inner = l.expr(n.NamedChild(0))
		}
		return &ast.DecltypeType{Underlying: typeOfExpr(inner)}

	case "placeholder_type_specifier", "auto":
		return &ast.OpaqueType{Name: "auto"}

	default:
		return &ast.OpaqueType{Name: text}
	}
}

// namedType resolves a plain type name. Template parameters and unknown
// library types stay opaque.
func (l *lowerer) namedType(name string) ast.Type {
	if l.scope.isTypeParam(name) {
		return &ast.OpaqueType{Name: name}
	}
	if rd, ok := l.resolve(name).(*ast.RecordDecl); ok {
		return &ast.RecordType{Decl: rd}
	}
	return &ast.OpaqueType{Name: name}
}

func (l *lowerer) templateType(name string, args *sitter.Node) ast.Type {
	t := &ast.TemplateSpecializationType{
		Template: lastSegment(name),
		Args:     l.templateArgs(args),
	}
	if strings.Contains(name, "::") {
		t.Qualified = strings.TrimPrefix(name, "::")
	}
	if rd, ok := l.resolve(name).(*ast.RecordDecl); ok {
		t.Decl = rd
	}
	return t
}

// templateArgs lowers a template_argument_list. Names of variables are
// value arguments; other type-shaped arguments are types.
func (l *lowerer) templateArgs(list *sitter.Node) []ast.TemplateArg {
	var args []ast.TemplateArg
	if list == nil {
		return args
	}
	for i := 0; i < int(list.NamedChildCount()); i++ {
		c := list.NamedChild(i)
		switch c.Type() {
		case "comment":
			continue
		case "type_descriptor":
			if name := strings.TrimSpace(l.text(c)); isIdentifier(name) {
				if _, ok := l.resolve(name).(*ast.VarDecl); ok {
					args = append(args, ast.TemplateArg{Expr: l.nameRef(c, name)})
					continue
				}
			}
			args = append(args, ast.TemplateArg{Type: l.typeDescriptor(c)})
		default:
			args = append(args, ast.TemplateArg{Expr: l.expr(c)})
		}
	}
	return args
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == ':' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// typeOfExpr approximates the static type of an already lowered
// expression, for decltype.
func typeOfExpr(e ast.Expr) ast.Type {
	switch x := ast.IgnoreImplicitCasts(ast.StripCleanups(e)).(type) {
	case *ast.DeclRefExpr:
		if vd, ok := x.Decl.(*ast.VarDecl); ok {
			return vd.Type
		}
	case *ast.CallExpr:
		if fd := ast.DirectCallee(x); fd != nil {
			return fd.Result
		}
	case *ast.ConstructExpr:
		return x.Type
	case *ast.IntegerLiteral:
		return &ast.BuiltinType{Name: "int"}
	case *ast.ParenExpr:
		return typeOfExpr(x.Sub)
	}
	return nil
}

// substitute replaces template type parameters in t.
func substitute(t ast.Type, bindings map[string]ast.Type) ast.Type {
	if len(bindings) == 0 || t == nil {
		return t
	}
	switch v := t.(type) {
	case *ast.OpaqueType:
		if b, ok := bindings[v.Name]; ok {
			return b
		}
	case *ast.PointerType:
		return &ast.PointerType{Pointee: substitute(v.Pointee, bindings)}
	case *ast.ReferenceType:
		return &ast.ReferenceType{Referee: substitute(v.Referee, bindings), RValue: v.RValue}
	case *ast.ConstType:
		return &ast.ConstType{Inner: substitute(v.Inner, bindings)}
	case *ast.ElaboratedType:
		return &ast.ElaboratedType{Qualifier: v.Qualifier, Named: substitute(v.Named, bindings)}
	case *ast.DecltypeType:
		return &ast.DecltypeType{Underlying: substitute(v.Underlying, bindings)}
	case *ast.TemplateSpecializationType:
		c := *v
		c.Args = make([]ast.TemplateArg, len(v.Args))
		for i, a := range v.Args {
			c.Args[i] = ast.TemplateArg{Type: substitute(a.Type, bindings), Expr: a.Expr}
		}
		return &c
	}
	return t
}
