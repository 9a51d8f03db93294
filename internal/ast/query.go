package ast

// Inspect traverses the tree rooted at n in source order, calling f for
// each node before its children. If f returns false the children of that
// node are skipped. References (DeclRefExpr.Decl) are not followed.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	switch v := n.(type) {
	case *VarDecl:
		inspectExpr(v.Init, f)
	case *FunctionDecl:
		for _, p := range v.Params {
			if p != nil {
				Inspect(p, f)
			}
		}
		if v.Body != nil {
			Inspect(v.Body, f)
		}
	case *RecordDecl:
		for _, fd := range v.Fields {
			if fd != nil {
				Inspect(fd, f)
			}
		}
	case *FieldDecl:
	case *NamespaceDecl:
		for _, d := range v.Decls {
			Inspect(d, f)
		}

	case *CompoundStmt:
		for _, s := range v.Stmts {
			Inspect(s, f)
		}
	case *DeclStmt:
		for _, d := range v.Decls {
			Inspect(d, f)
		}
	case *ExprStmt:
		inspectExpr(v.X, f)
	case *ReturnStmt:
		inspectExpr(v.X, f)
	case *IfStmt:
		inspectExpr(v.Cond, f)
		Inspect(v.Then, f)
		Inspect(v.Else, f)
	case *LoopStmt:
		Inspect(v.Init, f)
		inspectExpr(v.Cond, f)
		Inspect(v.Body, f)

	case *ExprWithCleanups:
		inspectExpr(v.Sub, f)
	case *MaterializeTemporaryExpr:
		inspectExpr(v.Sub, f)
	case *BindTemporaryExpr:
		inspectExpr(v.Sub, f)
	case *ConstructExpr:
		for _, a := range v.Args {
			inspectExpr(a, f)
		}
	case *CallExpr:
		inspectExpr(v.Callee, f)
		for _, a := range v.Args {
			inspectExpr(a, f)
		}
	case *ImplicitCastExpr:
		inspectExpr(v.Sub, f)
	case *UnaryOperator:
		inspectExpr(v.Sub, f)
	case *BinaryOperator:
		inspectExpr(v.LHS, f)
		inspectExpr(v.RHS, f)
	case *ParenExpr:
		inspectExpr(v.Sub, f)
	case *LambdaExpr:
		if v.CallOperator != nil {
			Inspect(v.CallOperator, f)
		}
	case *DeclRefExpr, *IntegerLiteral:
	case *OpaqueExpr:
		for _, c := range v.Children {
			inspectExpr(c, f)
		}
	}
}

func inspectExpr(e Expr, f func(Node) bool) {
	if e != nil {
		Inspect(e, f)
	}
}

// InspectUnit calls Inspect on every top-level declaration of u in order.
func InspectUnit(u *Unit, f func(Node) bool) {
	for _, d := range u.Decls {
		Inspect(d, f)
	}
}

// StripCleanups removes one ExprWithCleanups layer if present.
func StripCleanups(e Expr) Expr {
	if c, ok := e.(*ExprWithCleanups); ok {
		return c.Sub
	}
	return e
}

// StripMaterialize removes one MaterializeTemporaryExpr layer if present.
func StripMaterialize(e Expr) Expr {
	if m, ok := e.(*MaterializeTemporaryExpr); ok {
		return m.Sub
	}
	return e
}

// StripBind removes one BindTemporaryExpr layer if present.
func StripBind(e Expr) Expr {
	if b, ok := e.(*BindTemporaryExpr); ok {
		return b.Sub
	}
	return e
}

// IgnoreImplicitCasts removes every ImplicitCastExpr layer.
func IgnoreImplicitCasts(e Expr) Expr {
	for {
		c, ok := e.(*ImplicitCastExpr)
		if !ok {
			return e
		}
		e = c.Sub
	}
}

// DirectCallee returns the function a call names directly, or nil for
// calls through pointers, members or unresolved names.
func DirectCallee(c *CallExpr) *FunctionDecl {
	ref, ok := IgnoreImplicitCasts(c.Callee).(*DeclRefExpr)
	if !ok {
		return nil
	}
	fn, _ := ref.Decl.(*FunctionDecl)
	return fn
}

const maxEvalDepth = 64

// EvalInt evaluates e as a compile-time integer constant. References to
// constexpr variables are followed through their initializers.
func EvalInt(e Expr) (int64, bool) {
	return evalInt(e, 0)
}

func evalInt(e Expr, depth int) (int64, bool) {
	if e == nil || depth > maxEvalDepth {
		return 0, false
	}
	switch v := e.(type) {
	case *IntegerLiteral:
		return v.Value, true
	case *ParenExpr:
		return evalInt(v.Sub, depth+1)
	case *ImplicitCastExpr:
		return evalInt(v.Sub, depth+1)
	case *DeclRefExpr:
		vd, ok := v.Decl.(*VarDecl)
		if !ok || vd == nil || !vd.Constexpr {
			return 0, false
		}
		return evalInt(vd.Init, depth+1)
	case *UnaryOperator:
		x, ok := evalInt(v.Sub, depth+1)
		if !ok {
			return 0, false
		}
		switch v.Op {
		case "+":
			return x, true
		case "-":
			return -x, true
		case "~":
			return ^x, true
		case "!":
			if x == 0 {
				return 1, true
			}
			return 0, true
		}
		return 0, false
	case *BinaryOperator:
		l, ok := evalInt(v.LHS, depth+1)
		if !ok {
			return 0, false
		}
		r, ok := evalInt(v.RHS, depth+1)
		if !ok {
			return 0, false
		}
		return evalBinary(v.Op, l, r)
	default:
		return 0, false
	}
}

func evalBinary(op string, l, r int64) (int64, bool) {
	switch op {
	case "+":
		return l + r, true
	case "-":
		return l - r, true
	case "*":
		return l * r, true
	case "/":
		if r == 0 {
			return 0, false
		}
		return l / r, true
	case "%":
		if r == 0 {
			return 0, false
		}
		return l % r, true
	case "<<":
		if r < 0 || r > 63 {
			return 0, false
		}
		return l << uint(r), true
	case ">>":
		if r < 0 || r > 63 {
			return 0, false
		}
		return l >> uint(r), true
	case "&":
		return l & r, true
	case "|":
		return l | r, true
	case "^":
		return l ^ r, true
	}
	return 0, false
}
