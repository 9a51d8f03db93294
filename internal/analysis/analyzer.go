package analysis

import (
	"go.uber.org/zap"

	"github.com/roach88/skelc/internal/ast"
	"github.com/roach88/skelc/internal/ir"
	"github.com/roach88/skelc/internal/skeleton"
)

// Analyzer classifies declarations against a skeleton registry.
// It holds no per-run state and may be shared between goroutines; each
// Analyze call owns its own Registry.
type Analyzer struct {
	skeletons *skeleton.Registry
	logger    *zap.Logger
}

// New creates an analyzer. A nil logger discards all output.
func New(skeletons *skeleton.Registry, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{skeletons: skeletons, logger: logger}
}

// Result is the outcome of a run that completed without a fatal error.
type Result struct {
	Manifest    ir.Manifest
	Diagnostics []Diagnostic
}

// Snapshot renders the manifest in canonical form. Two runs over the same
// AST produce identical snapshots.
func (r *Result) Snapshot() ([]byte, error) {
	return ir.MarshalCanonical(r.Manifest.Object())
}

// Analyze traverses unit once. On a fatal error it returns a *FatalError
// and no result.
func (a *Analyzer) Analyze(unit *ast.Unit) (*Result, error) {
	r := &run{
		skeletons: a.skeletons,
		reg:       NewRegistry(unit.Name),
		logger:    a.logger.With(zap.String("unit", unit.Name)),
	}

	ast.InspectUnit(unit, func(n ast.Node) bool {
		if r.err != nil {
			return false
		}
		if vd, ok := n.(*ast.VarDecl); ok {
			r.visitVar(vd)
		}
		return true
	})
	if r.err != nil {
		return nil, r.err
	}

	return &Result{
		Manifest:    r.reg.Manifest(a.skeletons.Version()),
		Diagnostics: r.diags,
	}, nil
}

// run is the state of one traversal.
type run struct {
	skeletons *skeleton.Registry
	reg       *Registry
	logger    *zap.Logger
	diags     []Diagnostic
	err       error
}

func (r *run) warn(code string, decl string, pos ast.Pos, msg string) {
	r.diags = append(r.diags, Diagnostic{Code: code, Decl: decl, Message: msg, Pos: position(pos)})
	r.logger.Warn(msg,
		zap.String("code", code),
		zap.String("decl", decl),
		zap.Stringer("pos", pos),
	)
}
