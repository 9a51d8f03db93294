package astdoc

import (
	"fmt"

	"github.com/roach88/skelc/internal/ast"
)

// fixup binds a reference once every declaration is known.
type fixup struct {
	path  string
	ref   string
	apply func(ast.Decl) bool // false when the target has the wrong kind
	want  string
}

type decoder struct {
	unit   string
	decls  map[ast.NodeID]ast.Decl
	fixups []fixup
}

func (d *decoder) base(n *rawNode) ast.Base {
	b := ast.Base{ID: ast.NodeID(n.ID), Loc: ast.Pos{File: d.unit}}
	if n.Loc != nil {
		b.Loc = ast.Pos{File: n.Loc.File, Line: n.Loc.Line, Col: n.Loc.Col}
		if b.Loc.File == "" {
			b.Loc.File = d.unit
		}
	}
	return b
}

func (d *decoder) define(id string, decl ast.Decl, path string) error {
	if id == "" {
		return nil
	}
	if _, dup := d.decls[ast.NodeID(id)]; dup {
		return errorf(path, "duplicate declaration id %q", id)
	}
	d.decls[ast.NodeID(id)] = decl
	return nil
}

func (d *decoder) refer(path, ref, want string, apply func(ast.Decl) bool) {
	d.fixups = append(d.fixups, fixup{path: path, ref: ref, apply: apply, want: want})
}

// resolve is the second pass: every reference must name a declaration of
// the expected kind.
func (d *decoder) resolve() error {
	for _, f := range d.fixups {
		decl, ok := d.decls[ast.NodeID(f.ref)]
		if !ok {
			return errorf(f.path, "dangling reference %q", f.ref)
		}
		if !f.apply(decl) {
			return errorf(f.path, "reference %q is a %T, want %s", f.ref, decl, f.want)
		}
	}
	return nil
}

func definitionKind(s, path string) (ast.DefinitionKind, error) {
	switch s {
	case "", "definition":
		return ast.Definition, nil
	case "tentative":
		return ast.TentativeDefinition, nil
	case "declaration":
		return ast.DeclarationOnly, nil
	default:
		return 0, errorf(path+".definition", "unknown definition kind %q", s)
	}
}

func constructionKind(s, path string) (ast.ConstructionKind, error) {
	switch s {
	case "", "complete":
		return ast.Complete, nil
	case "delegating":
		return ast.Delegating, nil
	case "non-virtual-base":
		return ast.NonVirtualBase, nil
	case "virtual-base":
		return ast.VirtualBase, nil
	default:
		return 0, errorf(path+".construction", "unknown construction kind %q", s)
	}
}

func (d *decoder) decl(n *rawNode, path string) (ast.Decl, error) {
	if n == nil {
		return nil, errorf(path, "missing declaration")
	}

	switch n.Kind {
	case "VarDecl", "ParmVarDecl":
		vd, err := d.varDecl(n, path)
		if err != nil {
			return nil, err
		}
		return vd, nil

	case "FunctionDecl", "CXXMethodDecl":
		fd, err := d.functionDecl(n, path)
		if err != nil {
			return nil, err
		}
		return fd, nil

	case "RecordDecl", "CXXRecordDecl":
		rd := &ast.RecordDecl{Base: d.base(n), Name: n.Name, Qualified: n.Qualified, External: n.External}
		if err := d.define(n.ID, rd, path); err != nil {
			return nil, err
		}
		for i, f := range n.Fields {
			fpath := fmt.Sprintf("%s.fields[%d]", path, i)
			if f == nil || f.Kind != "FieldDecl" {
				return nil, errorf(fpath, "expected FieldDecl")
			}
			fd, err := d.fieldDecl(f, fpath)
			if err != nil {
				return nil, err
			}
			rd.Fields = append(rd.Fields, fd)
		}
		return rd, nil

	case "FieldDecl":
		fd, err := d.fieldDecl(n, path)
		if err != nil {
			return nil, err
		}
		return fd, nil

	case "NamespaceDecl":
		ns := &ast.NamespaceDecl{Base: d.base(n), Name: n.Name}
		if err := d.define(n.ID, ns, path); err != nil {
			return nil, err
		}
		for i, c := range n.Decls {
			decl, err := d.decl(c, fmt.Sprintf("%s.decls[%d]", path, i))
			if err != nil {
				return nil, err
			}
			ns.Decls = append(ns.Decls, decl)
		}
		return ns, nil

	default:
		return nil, errorf(path+".kind", "unknown declaration kind %q", n.Kind)
	}
}

func (d *decoder) varDecl(n *rawNode, path string) (*ast.VarDecl, error) {
	def, err := definitionKind(n.Definition, path)
	if err != nil {
		return nil, err
	}
	vd := &ast.VarDecl{
		Base:       d.base(n),
		Name:       n.Name,
		Param:      n.Kind == "ParmVarDecl",
		Definition: def,
		Constexpr:  n.Constexpr,
	}
	for _, a := range n.Attrs {
		vd.Attrs = append(vd.Attrs, ast.Attr(a))
	}
	if err := d.define(n.ID, vd, path); err != nil {
		return nil, err
	}
	if vd.Type, err = d.typ(n.Type, path+".type"); err != nil {
		return nil, err
	}
	if vd.Init, err = d.expr(n.Init, path+".init"); err != nil {
		return nil, err
	}
	return vd, nil
}

func (d *decoder) functionDecl(n *rawNode, path string) (*ast.FunctionDecl, error) {
	fd := &ast.FunctionDecl{
		Base:         d.base(n),
		Name:         n.Name,
		Qualified:    n.Qualified,
		TemplateArgs: n.TemplateArgs,
		Method:       n.Kind == "CXXMethodDecl",
	}
	if err := d.define(n.ID, fd, path); err != nil {
		return nil, err
	}

	for i, p := range n.Params {
		ppath := fmt.Sprintf("%s.params[%d]", path, i)
		if p == nil || (p.Kind != "ParmVarDecl" && p.Kind != "VarDecl") {
			return nil, errorf(ppath, "expected ParmVarDecl")
		}
		vd, err := d.varDecl(p, ppath)
		if err != nil {
			return nil, err
		}
		vd.Param = true
		fd.Params = append(fd.Params, vd)
	}

	var err error
	if fd.Result, err = d.typ(n.Result, path+".result"); err != nil {
		return nil, err
	}

	if n.Body != nil {
		s, err := d.stmt(n.Body, path+".body")
		if err != nil {
			return nil, err
		}
		body, ok := s.(*ast.CompoundStmt)
		if !ok {
			return nil, errorf(path+".body", "function body must be a CompoundStmt, got %s", n.Body.Kind)
		}
		fd.Body = body
	}
	return fd, nil
}

func (d *decoder) fieldDecl(n *rawNode, path string) (*ast.FieldDecl, error) {
	fd := &ast.FieldDecl{Base: d.base(n), Name: n.Name}
	if err := d.define(n.ID, fd, path); err != nil {
		return nil, err
	}
	var err error
	if fd.Type, err = d.typ(n.Type, path+".type"); err != nil {
		return nil, err
	}
	return fd, nil
}

func (d *decoder) stmt(n *rawNode, path string) (ast.Stmt, error) {
	if n == nil {
		return nil, nil
	}

	var err error
	switch n.Kind {
	case "CompoundStmt":
		cs := &ast.CompoundStmt{Base: d.base(n)}
		for i, c := range n.Stmts {
			s, err := d.stmt(c, fmt.Sprintf("%s.stmts[%d]", path, i))
			if err != nil {
				return nil, err
			}
			if s != nil {
				cs.Stmts = append(cs.Stmts, s)
			}
		}
		return cs, nil

	case "DeclStmt":
		ds := &ast.DeclStmt{Base: d.base(n)}
		for i, c := range n.Decls {
			decl, err := d.decl(c, fmt.Sprintf("%s.decls[%d]", path, i))
			if err != nil {
				return nil, err
			}
			ds.Decls = append(ds.Decls, decl)
		}
		return ds, nil

	case "ExprStmt":
		es := &ast.ExprStmt{Base: d.base(n)}
		es.X, err = d.expr(n.X, path+".x")
		return es, err

	case "ReturnStmt":
		rs := &ast.ReturnStmt{Base: d.base(n)}
		rs.X, err = d.expr(n.X, path+".x")
		return rs, err

	case "IfStmt":
		is := &ast.IfStmt{Base: d.base(n)}
		if is.Cond, err = d.expr(n.Cond, path+".cond"); err != nil {
			return nil, err
		}
		if is.Then, err = d.stmt(n.Then, path+".then"); err != nil {
			return nil, err
		}
		if is.Else, err = d.stmt(n.Else, path+".else"); err != nil {
			return nil, err
		}
		return is, nil

	case "LoopStmt", "ForStmt", "WhileStmt", "DoStmt", "CXXForRangeStmt":
		ls := &ast.LoopStmt{Base: d.base(n)}
		if ls.Init, err = d.stmt(n.Init, path+".init"); err != nil {
			return nil, err
		}
		if ls.Cond, err = d.expr(n.Cond, path+".cond"); err != nil {
			return nil, err
		}
		if ls.Body, err = d.stmt(n.Body, path+".body"); err != nil {
			return nil, err
		}
		return ls, nil

	default:
		// Expressions used as statements.
		x, err := d.expr(n, path)
		if err != nil {
			return nil, err
		}
		return &ast.ExprStmt{Base: d.base(n), X: x}, nil
	}
}

func (d *decoder) exprs(ns []*rawNode, path string) ([]ast.Expr, error) {
	out := make([]ast.Expr, 0, len(ns))
	for i, c := range ns {
		x, err := d.expr(c, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		if x == nil {
			return nil, errorf(fmt.Sprintf("%s[%d]", path, i), "missing expression")
		}
		out = append(out, x)
	}
	return out, nil
}

func (d *decoder) expr(n *rawNode, path string) (ast.Expr, error) {
	if n == nil {
		return nil, nil
	}

	var err error
	switch n.Kind {
	case "ExprWithCleanups":
		e := &ast.ExprWithCleanups{Base: d.base(n)}
		e.Sub, err = d.expr(n.Sub, path+".sub")
		return e, err

	case "MaterializeTemporaryExpr":
		e := &ast.MaterializeTemporaryExpr{Base: d.base(n)}
		e.Sub, err = d.expr(n.Sub, path+".sub")
		return e, err

	case "CXXBindTemporaryExpr", "BindTemporaryExpr":
		e := &ast.BindTemporaryExpr{Base: d.base(n)}
		e.Sub, err = d.expr(n.Sub, path+".sub")
		return e, err

	case "CXXConstructExpr", "CXXTemporaryObjectExpr", "ConstructExpr":
		e := &ast.ConstructExpr{Base: d.base(n)}
		if e.Construction, err = constructionKind(n.Construction, path); err != nil {
			return nil, err
		}
		if e.Type, err = d.typ(n.Type, path+".type"); err != nil {
			return nil, err
		}
		e.Args, err = d.exprs(n.Args, path+".args")
		return e, err

	case "CallExpr":
		e := &ast.CallExpr{Base: d.base(n)}
		if e.Callee, err = d.expr(n.Callee, path+".callee"); err != nil {
			return nil, err
		}
		e.Args, err = d.exprs(n.Args, path+".args")
		return e, err

	case "ImplicitCastExpr":
		e := &ast.ImplicitCastExpr{Base: d.base(n), Cast: n.Cast}
		e.Sub, err = d.expr(n.Sub, path+".sub")
		return e, err

	case "UnaryOperator":
		e := &ast.UnaryOperator{Base: d.base(n), Op: n.Op}
		e.Sub, err = d.expr(n.Sub, path+".sub")
		return e, err

	case "BinaryOperator":
		e := &ast.BinaryOperator{Base: d.base(n), Op: n.Op}
		if e.LHS, err = d.expr(n.LHS, path+".lhs"); err != nil {
			return nil, err
		}
		e.RHS, err = d.expr(n.RHS, path+".rhs")
		return e, err

	case "ParenExpr":
		e := &ast.ParenExpr{Base: d.base(n)}
		e.Sub, err = d.expr(n.Sub, path+".sub")
		return e, err

	case "DeclRefExpr":
		if n.Ref == "" {
			return nil, errorf(path+".ref", "DeclRefExpr without ref")
		}
		e := &ast.DeclRefExpr{Base: d.base(n), Ref: ast.NodeID(n.Ref)}
		d.refer(path+".ref", n.Ref, "a declaration", func(decl ast.Decl) bool {
			e.Decl = decl
			return true
		})
		return e, nil

	case "LambdaExpr":
		e := &ast.LambdaExpr{Base: d.base(n)}
		for _, c := range n.Captures {
			e.Captures = append(e.Captures, ast.Capture{Name: c.Name, ByRef: c.ByRef, Default: c.Default})
		}
		if n.CallOperator == nil {
			return nil, errorf(path+".call_operator", "LambdaExpr without call operator")
		}
		op, err := d.functionDecl(n.CallOperator, path+".call_operator")
		if err != nil {
			return nil, err
		}
		op.Method = true
		e.CallOperator = op
		return e, nil

	case "IntegerLiteral":
		return &ast.IntegerLiteral{Base: d.base(n), Value: n.Value}, nil

	case "":
		return nil, errorf(path+".kind", "missing kind")

	default:
		e := &ast.OpaqueExpr{Base: d.base(n), Kind: n.Kind}
		e.Children, err = d.exprs(n.Children, path+".children")
		return e, err
	}
}

func (d *decoder) typ(t *rawType, path string) (ast.Type, error) {
	if t == nil {
		return nil, nil
	}

	var err error
	switch t.Kind {
	case "Builtin":
		return &ast.BuiltinType{Name: t.Name}, nil

	case "Record":
		rt := &ast.RecordType{}
		if t.Decl == "" {
			return nil, errorf(path+".decl", "Record type without decl")
		}
		d.refer(path+".decl", t.Decl, "a RecordDecl", func(decl ast.Decl) bool {
			rd, ok := decl.(*ast.RecordDecl)
			rt.Decl = rd
			return ok
		})
		return rt, nil

	case "TemplateSpecialization":
		ts := &ast.TemplateSpecializationType{Template: t.Template, Qualified: t.Qualified}
		for i, a := range t.Args {
			apath := fmt.Sprintf("%s.args[%d]", path, i)
			var arg ast.TemplateArg
			switch {
			case a.Type != nil && a.Expr != nil:
				return nil, errorf(apath, "template argument sets both type and expr")
			case a.Type != nil:
				if arg.Type, err = d.typ(a.Type, apath+".type"); err != nil {
					return nil, err
				}
			case a.Expr != nil:
				if arg.Expr, err = d.expr(a.Expr, apath+".expr"); err != nil {
					return nil, err
				}
			default:
				return nil, errorf(apath, "template argument sets neither type nor expr")
			}
			ts.Args = append(ts.Args, arg)
		}
		if t.Decl != "" {
			d.refer(path+".decl", t.Decl, "a RecordDecl", func(decl ast.Decl) bool {
				rd, ok := decl.(*ast.RecordDecl)
				ts.Decl = rd
				return ok
			})
		}
		return ts, nil

	case "Decltype":
		dt := &ast.DecltypeType{}
		dt.Underlying, err = d.typ(t.Underlying, path+".underlying")
		return dt, err

	case "Elaborated":
		et := &ast.ElaboratedType{Qualifier: t.Qualifier}
		et.Named, err = d.typ(t.Named, path+".named")
		return et, err

	case "Pointer":
		pt := &ast.PointerType{}
		pt.Pointee, err = d.typ(t.Pointee, path+".pointee")
		return pt, err

	case "LValueReference", "RValueReference":
		rt := &ast.ReferenceType{RValue: t.Kind == "RValueReference"}
		rt.Referee, err = d.typ(t.Referee, path+".referee")
		return rt, err

	case "Const":
		ct := &ast.ConstType{}
		ct.Inner, err = d.typ(t.Inner, path+".inner")
		return ct, err

	case "Opaque", "TemplateTypeParm":
		return &ast.OpaqueType{Name: t.Name}, nil

	default:
		return nil, errorf(path+".kind", "unknown type kind %q", t.Kind)
	}
}
