package skeleton

import (
	"fmt"

	"github.com/roach88/skelc/internal/ast"
)

// Arity error codes. They share the E2xx range of analysis fatal errors
// because a failed resolution always aborts the run.
const (
	ErrTemplateArgMissing  = "E210" // required template argument absent
	ErrTemplateArgNotConst = "E211" // template argument is a type or not a compile-time integer
	ErrArityNegative       = "E212" // template argument evaluates below zero
)

// ArityError reports a template argument that cannot produce an arity.
type ArityError struct {
	Code     string
	Template string
	Index    int
	Message  string
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("[%s] %s template argument %d: %s", e.Code, e.Template, e.Index, e.Message)
}

// Resolve computes the arity vector of a specialization of this entry.
// Every component that reads a template argument must evaluate to a
// non-negative compile-time integer; there is no fallback.
func (e *Entry) Resolve(spec *ast.TemplateSpecializationType) ([]int, error) {
	arity := make([]int, len(e.Arity))

	for i, c := range e.Arity {
		if !c.FromTemplate {
			arity[i] = c.Fixed
			continue
		}

		if spec == nil || c.TemplateArg >= len(spec.Args) {
			return nil, &ArityError{
				Code:     ErrTemplateArgMissing,
				Template: e.Template,
				Index:    c.TemplateArg,
				Message:  "argument not present in specialization",
			}
		}

		arg := spec.Args[c.TemplateArg]
		if arg.Expr == nil {
			return nil, &ArityError{
				Code:     ErrTemplateArgNotConst,
				Template: e.Template,
				Index:    c.TemplateArg,
				Message:  fmt.Sprintf("expected an integer, got type %s", ast.TypeString(arg.Type)),
			}
		}

		n, ok := ast.EvalInt(arg.Expr)
		if !ok {
			return nil, &ArityError{
				Code:     ErrTemplateArgNotConst,
				Template: e.Template,
				Index:    c.TemplateArg,
				Message:  "not a compile-time integer constant",
			}
		}
		if n < 0 {
			return nil, &ArityError{
				Code:     ErrArityNegative,
				Template: e.Template,
				Index:    c.TemplateArg,
				Message:  fmt.Sprintf("arity %d is negative", n),
			}
		}
		arity[i] = int(n)
	}

	return arity, nil
}

// Resolve looks up the specialization's template and resolves its arity.
// ok is false when the template is not a skeleton.
func (r *Registry) Resolve(spec *ast.TemplateSpecializationType) (entry *Entry, arity []int, ok bool, err error) {
	if spec == nil {
		return nil, nil, false, nil
	}
	entry, ok = r.Lookup(spec.Template)
	if !ok {
		return nil, nil, false, nil
	}
	arity, err = entry.Resolve(spec)
	return entry, arity, true, err
}
