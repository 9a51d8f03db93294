package analysis

import (
	"errors"
	"fmt"

	"github.com/roach88/skelc/internal/ast"
	"github.com/roach88/skelc/internal/ir"
)

// Fatal error codes (E200-E299). E210-E212 come from skeleton resolution.
const (
	ErrNotConstruction   = "E201" // initializer is not a complete-object construction
	ErrNoConstructArgs   = "E202" // construction has no argument
	ErrNotCall           = "E203" // constructed temporary is not a call
	ErrUnresolvedCallee  = "E204" // call has no direct callee
	ErrNotSpecialization = "E205" // callee does not return a known skeleton specialization
	ErrArityMismatch     = "E220" // callback count differs from sum(arity)
	ErrArgumentShape     = "E230" // callback argument matches no accepted form
	ErrNotFunctionRef    = "E231" // reference does not name a function
	ErrEmptyConstruct    = "E232" // closure construction has no argument
	ErrNotClosure        = "E233" // constructed argument is not a closure literal
	ErrCapture           = "E234" // closure has a non-empty capture list
)

// Warning codes (W300-W399)
const (
	WarnInvalidConstant = "W301" // user constant is not constexpr or not a definition
)

// FatalError aborts a run. Nothing is delivered for the unit.
type FatalError struct {
	Code    string
	Decl    string
	Message string
	Pos     ast.Pos
	Err     error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s: [%s] %s: %s", e.Pos, e.Code, e.Decl, e.Message)
}

func (e *FatalError) Unwrap() error { return e.Err }

// IsFatal reports whether err is (or wraps) a FatalError.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}

// Diagnostic is a non-fatal finding.
type Diagnostic struct {
	Code    string      `json:"code"`
	Decl    string      `json:"decl"`
	Message string      `json:"message"`
	Pos     ir.Position `json:"pos"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d:%d: [%s] %s: %s", d.Pos.File, d.Pos.Line, d.Pos.Col, d.Code, d.Decl, d.Message)
}
