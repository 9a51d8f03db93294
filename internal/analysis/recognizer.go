package analysis

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/roach88/skelc/internal/ast"
	"github.com/roach88/skelc/internal/ir"
	"github.com/roach88/skelc/internal/skeleton"
)

// Names of the variables bracketing the bundled BLAS header.
const (
	markerType      = "PrecompilerMarker"
	markerBlasBegin = "startOfBlasHPP"
	markerBlasEnd   = "endOfBlasHPP"
)

// visitVar classifies one variable declaration. Exactly one of instance,
// user constant or irrelevant applies.
func (r *run) visitVar(vd *ast.VarDecl) {
	r.visitMarker(vd)

	if isCandidate(vd, r.skeletons) {
		r.logger.Info("found instance", zap.String("name", vd.Name), zap.Stringer("pos", vd.Pos()))
		if err := r.buildInstance(vd); err != nil {
			r.err = err
		}
		return
	}

	if ast.HasAttr(vd, ast.AttrUserConstant) {
		r.registerConstant(vd)
	}
}

func (r *run) visitMarker(vd *ast.VarDecl) {
	if vd.Type == nil || !strings.Contains(vd.Type.String(), markerType) {
		return
	}
	p := position(vd.Pos())
	switch vd.Name {
	case markerBlasBegin:
		r.reg.blasBegin = &p
	case markerBlasEnd:
		r.reg.blasEnd = &p
	default:
		return
	}
	r.logger.Debug("found precompiler marker", zap.String("name", vd.Name))
}

// isCandidate is the permissive shape check. Any mismatch means the
// declaration is not a skeleton instance.
func isCandidate(vd *ast.VarDecl, skeletons *skeleton.Registry) bool {
	if vd.Param || vd.Definition != ast.Definition || vd.Init == nil {
		return false
	}

	ce, ok := ast.StripCleanups(vd.Init).(*ast.ConstructExpr)
	if !ok || ce.Construction != ast.Complete || len(ce.Args) == 0 {
		return false
	}

	call, ok := ast.StripBind(ast.StripMaterialize(ce.Args[0])).(*ast.CallExpr)
	if !ok {
		return false
	}

	callee := ast.DirectCallee(call)
	if callee == nil {
		return false
	}

	spec, ok := ast.StripTypeSugar(callee.Result).(*ast.TemplateSpecializationType)
	if !ok {
		return false
	}

	_, ok = skeletons.Lookup(spec.Template)
	return ok
}

// buildInstance is the strict builder. Every structural step is
// mandatory here; the registry is only touched once all callback
// arguments have been validated.
func (r *run) buildInstance(vd *ast.VarDecl) error {
	fatal := func(code, format string, args ...any) error {
		return &FatalError{Code: code, Decl: vd.Name, Message: fmt.Sprintf(format, args...), Pos: vd.Pos()}
	}

	if vd.Definition != ast.Definition || vd.Init == nil {
		return fatal(ErrNotConstruction, "instance is not a definition with an initializer")
	}

	ce, ok := ast.StripCleanups(vd.Init).(*ast.ConstructExpr)
	if !ok || ce.Construction != ast.Complete {
		return fatal(ErrNotConstruction, "initializer is not a complete-object construction")
	}
	if len(ce.Args) == 0 {
		return fatal(ErrNoConstructArgs, "construction has no argument")
	}

	call, ok := ast.StripBind(ast.StripMaterialize(ce.Args[0])).(*ast.CallExpr)
	if !ok {
		return fatal(ErrNotCall, "constructed temporary is not a call")
	}

	callee := ast.DirectCallee(call)
	if callee == nil {
		return fatal(ErrUnresolvedCallee, "call has no direct callee")
	}

	spec, ok := ast.StripTypeSugar(callee.Result).(*ast.TemplateSpecializationType)
	if !ok {
		return fatal(ErrNotSpecialization, "%s returns %s, not a template specialization",
			callee.QualifiedName(), ast.TypeString(callee.Result))
	}

	entry, arity, ok, err := r.skeletons.Resolve(spec)
	if !ok {
		return fatal(ErrNotSpecialization, "%s is not a skeleton", spec.Template)
	}
	if err != nil {
		code := ErrNotSpecialization
		var ae *skeleton.ArityError
		if errors.As(err, &ae) {
			code = ae.Code
		}
		return &FatalError{Code: code, Decl: vd.Name, Message: err.Error(), Pos: vd.Pos(), Err: err}
	}

	if want := ir.SumArity(arity); len(call.Args) != want {
		return fatal(ErrArityMismatch, "%s with arity %v takes %d callback(s), got %d",
			entry.Template, arity, want, len(call.Args))
	}

	// Validate every argument before committing anything.
	callbacks := make([]callback, len(call.Args))
	for i, arg := range call.Args {
		cb, err := extractCallback(arg)
		if err != nil {
			err.Decl = vd.Name
			if !err.Pos.IsValid() {
				err.Pos = vd.Pos()
			}
			err.Message = fmt.Sprintf("callback %d: %s", i, err.Message)
			return err
		}
		callbacks[i] = cb
	}

	inst := &ir.Instance{
		Seq:       r.reg.nextSeq(),
		Name:      vd.Name,
		Kind:      entry.Kind,
		Arity:     arity,
		Callbacks: make([]ir.Binding, 0, len(callbacks)),
		Types:     []ir.DeclID{},
		Constants: []ir.DeclID{},
		Pos:       position(vd.Pos()),
	}

	types := newIDSet()
	constants := newIDSet()
	for i, cb := range callbacks {
		uf := r.userFunction(cb, vd.Name, i)

		b := ir.Binding{
			Instance: vd.Name,
			Function: uf.ID,
			Name:     uf.Name,
			Position: i,
			Role:     entry.RoleAt(arity, i),
			Slot:     i,
		}
		if entry.Paired {
			b.Slot = ir.NoSlot
			b.Pair = append([]int(nil), arity...)
		}

		uf.Bindings = append(uf.Bindings, b)
		inst.Callbacks = append(inst.Callbacks, b)
		types.addAll(uf.Types)
		constants.addAll(uf.Constants)
	}
	inst.Types = types.ids
	inst.Constants = constants.ids

	r.reg.addInstance(inst)
	r.logger.Debug("instance resolved",
		zap.String("name", inst.Name),
		zap.String("kind", string(inst.Kind)),
		zap.Ints("arity", inst.Arity),
		zap.Int("seq", inst.Seq),
	)
	return nil
}

// idSet is an insertion-ordered set of declaration IDs.
type idSet struct {
	seen map[ir.DeclID]bool
	ids  []ir.DeclID
}

func newIDSet() *idSet {
	return &idSet{seen: make(map[ir.DeclID]bool), ids: []ir.DeclID{}}
}

func (s *idSet) has(id ir.DeclID) bool { return s.seen[id] }

func (s *idSet) add(id ir.DeclID) {
	if !s.seen[id] {
		s.seen[id] = true
		s.ids = append(s.ids, id)
	}
}

func (s *idSet) addAll(ids []ir.DeclID) {
	for _, id := range ids {
		s.add(id)
	}
}
