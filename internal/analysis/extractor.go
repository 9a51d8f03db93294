package analysis

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/skelc/internal/ast"
	"github.com/roach88/skelc/internal/ir"
)

// callback is a validated callback argument.
type callback struct {
	fn     *ast.FunctionDecl
	origin ir.Origin
}

// extractCallback reduces one callback argument to the declaration it
// names. Accepted forms:
//
//	f             implicit casts around a function reference
//	&f            unary operator around a function reference
//	[](...) {...} construction of a capture-less closure
func extractCallback(arg ast.Expr) (callback, *FatalError) {
	switch e := arg.(type) {
	case *ast.ImplicitCastExpr:
		return functionRef(ast.IgnoreImplicitCasts(e))
	case *ast.UnaryOperator:
		return functionRef(ast.IgnoreImplicitCasts(e.Sub))
	case *ast.ConstructExpr:
		return closure(e)
	case nil:
		return callback{}, &FatalError{Code: ErrArgumentShape, Message: "missing argument"}
	default:
		return callback{}, &FatalError{
			Code:    ErrArgumentShape,
			Message: fmt.Sprintf("unsupported callback form %T", arg),
			Pos:     arg.Pos(),
		}
	}
}

func functionRef(e ast.Expr) (callback, *FatalError) {
	ref, ok := e.(*ast.DeclRefExpr)
	if !ok {
		return callback{}, &FatalError{
			Code:    ErrNotFunctionRef,
			Message: "argument is not a declaration reference",
			Pos:     exprPos(e),
		}
	}
	fn, ok := ref.Decl.(*ast.FunctionDecl)
	if !ok || fn == nil {
		return callback{}, &FatalError{
			Code:    ErrNotFunctionRef,
			Message: fmt.Sprintf("reference %s does not name a function", ref.Ref),
			Pos:     ref.Pos(),
		}
	}
	return callback{fn: fn, origin: ir.OriginNamed}, nil
}

func closure(ce *ast.ConstructExpr) (callback, *FatalError) {
	if len(ce.Args) == 0 {
		return callback{}, &FatalError{
			Code:    ErrEmptyConstruct,
			Message: "closure construction has no argument",
			Pos:     ce.Pos(),
		}
	}

	lambda, ok := ast.StripBind(ast.StripMaterialize(ce.Args[0])).(*ast.LambdaExpr)
	if !ok || lambda.CallOperator == nil {
		return callback{}, &FatalError{
			Code:    ErrNotClosure,
			Message: "constructed argument is not a closure literal",
			Pos:     ce.Pos(),
		}
	}

	if len(lambda.Captures) > 0 {
		names := make([]string, len(lambda.Captures))
		for i, c := range lambda.Captures {
			switch {
			case c.Default && c.ByRef:
				names[i] = "&"
			case c.Default:
				names[i] = "="
			case c.ByRef:
				names[i] = "&" + c.Name
			default:
				names[i] = c.Name
			}
		}
		return callback{}, &FatalError{
			Code:    ErrCapture,
			Message: fmt.Sprintf("closure has non-empty capture list %v", names),
			Pos:     lambda.Pos(),
		}
	}

	return callback{fn: lambda.CallOperator, origin: ir.OriginClosure}, nil
}

func exprPos(e ast.Expr) ast.Pos {
	if e == nil {
		return ast.Pos{}
	}
	return e.Pos()
}

// userFunction returns the descriptor for cb, creating it on first sight.
// Closures are named after the instance and argument that introduced them.
func (r *run) userFunction(cb callback, instance string, arg int) *ir.UserFunction {
	id := r.reg.DeclID(cb.fn)
	if uf, ok := r.reg.Function(id); ok {
		r.logger.Debug("user function already handled", zap.String("name", uf.Name))
		return uf
	}

	name := cb.fn.Name
	if cb.origin == ir.OriginClosure {
		name = fmt.Sprintf("%s_lambda%d", instance, arg)
	}

	uf := &ir.UserFunction{
		ID:        id,
		Name:      name,
		Qualified: cb.fn.Qualified,
		Origin:    cb.origin,
		Signature: signature(cb.fn),
		Bindings:  []ir.Binding{},
		Types:     r.functionTypes(cb.fn),
		Constants: r.functionConstants(cb.fn),
		Pos:       position(cb.fn.Pos()),
	}
	r.reg.addFunction(uf)

	r.logger.Info("found user function",
		zap.String("name", uf.Name),
		zap.String("origin", string(uf.Origin)),
		zap.String("decl", string(uf.ID)),
	)
	return uf
}

func signature(fn *ast.FunctionDecl) ir.Signature {
	sig := ir.Signature{
		Params: make([]ir.Param, len(fn.Params)),
		Result: ast.TypeString(fn.Result),
	}
	for i, p := range fn.Params {
		sig.Params[i] = ir.Param{Name: p.Name, Type: ast.TypeString(p.Type)}
	}
	if len(fn.TemplateArgs) > 0 {
		sig.TemplateArgs = append([]string(nil), fn.TemplateArgs...)
	}
	return sig
}
