package analysis

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/roach88/skelc/internal/ast"
	"github.com/roach88/skelc/internal/ir"
)

// functionTypes registers the user types reachable from fn's signature
// and returns their IDs in first-reference order.
func (r *run) functionTypes(fn *ast.FunctionDecl) []ir.DeclID {
	seen := newIDSet()
	for _, p := range fn.Params {
		r.collectTypes(p.Type, seen)
	}
	r.collectTypes(fn.Result, seen)
	return seen.ids
}

func (r *run) collectTypes(t ast.Type, seen *idSet) {
	switch v := ast.StripQualifiers(t).(type) {
	case *ast.RecordType:
		r.collectRecord(v.Decl, seen)
	case *ast.TemplateSpecializationType:
		if !r.skeletons.Reserved(v.Template) {
			r.collectRecord(v.Decl, seen)
		}
		for _, a := range v.Args {
			if a.Type != nil {
				r.collectTypes(a.Type, seen)
			}
		}
	}
}

// collectRecord registers rd on first sight and descends into its
// fields. Reserved built-in names are skipped entirely.
func (r *run) collectRecord(rd *ast.RecordDecl, seen *idSet) {
	if rd == nil || r.skeletons.Reserved(rd.Name) {
		return
	}

	id := r.reg.DeclID(rd)
	if seen.has(id) {
		return
	}
	seen.add(id)

	if _, ok := r.reg.Type(id); !ok {
		ut := &ir.UserType{
			ID:        id,
			Name:      rd.Name,
			Qualified: rd.Qualified,
			Fields:    make([]ir.Field, 0, len(rd.Fields)),
			Pos:       position(rd.Pos()),
		}
		for _, f := range rd.Fields {
			ut.Fields = append(ut.Fields, ir.Field{Name: f.Name, Type: ast.TypeString(f.Type)})
		}
		r.reg.addType(ut)
		r.logger.Info("found user type", zap.String("name", rd.Name), zap.String("decl", string(id)))
	}

	for _, f := range rd.Fields {
		r.collectTypes(f.Type, seen)
	}
}

// functionConstants registers the user constants referenced from fn's
// body.
func (r *run) functionConstants(fn *ast.FunctionDecl) []ir.DeclID {
	seen := newIDSet()
	if fn.Body == nil {
		return seen.ids
	}
	ast.Inspect(fn.Body, func(n ast.Node) bool {
		ref, ok := n.(*ast.DeclRefExpr)
		if !ok {
			return true
		}
		if vd, ok := ref.Decl.(*ast.VarDecl); ok && vd != nil && ast.HasAttr(vd, ast.AttrUserConstant) {
			seen.add(r.registerConstant(vd).ID)
		}
		return true
	})
	return seen.ids
}

// registerConstant records a marked variable. Constants that are not
// constexpr definitions are kept with Valid=false and reported as W301.
func (r *run) registerConstant(vd *ast.VarDecl) *ir.UserConstant {
	id := r.reg.DeclID(vd)
	if c, ok := r.reg.Constant(id); ok {
		return c
	}

	c := &ir.UserConstant{
		ID:        id,
		Name:      vd.Name,
		Type:      ast.TypeString(vd.Type),
		Constexpr: vd.Constexpr,
		Defined:   vd.Definition == ast.Definition,
		Pos:       position(vd.Pos()),
	}
	c.Valid = c.Constexpr && c.Defined
	if v, ok := ast.EvalInt(vd.Init); ok {
		c.Value = strconv.FormatInt(v, 10)
	}
	r.reg.addConstant(c)

	r.logger.Info("found user constant", zap.String("name", vd.Name), zap.String("decl", string(id)))
	if !c.Valid {
		r.warn(WarnInvalidConstant, vd.Name, vd.Pos(), "invalid user constant: must be a constexpr definition")
	}
	return c
}
