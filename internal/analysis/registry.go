package analysis

import (
	"slices"

	"github.com/roach88/skelc/internal/ast"
	"github.com/roach88/skelc/internal/ir"
)

// Registry owns everything discovered in one traversal. Entities are kept
// in first-sight order and looked up by declaration ID.
type Registry struct {
	unit string
	seq  int

	instances []*ir.Instance

	functions     map[ir.DeclID]*ir.UserFunction
	functionOrder []ir.DeclID

	types     map[ir.DeclID]*ir.UserType
	typeOrder []ir.DeclID

	constants     map[ir.DeclID]*ir.UserConstant
	constantOrder []ir.DeclID

	blasBegin *ir.Position
	blasEnd   *ir.Position
}

// NewRegistry creates an empty registry for one translation unit.
func NewRegistry(unit string) *Registry {
	return &Registry{
		unit:      unit,
		functions: make(map[ir.DeclID]*ir.UserFunction),
		types:     make(map[ir.DeclID]*ir.UserType),
		constants: make(map[ir.DeclID]*ir.UserConstant),
	}
}

// DeclID is the stable identity of n within this unit. Nodes without a
// front-end id fall back to their position.
func (r *Registry) DeclID(n ast.Node) ir.DeclID {
	id := string(n.NodeID())
	if id == "" {
		id = "@" + n.Pos().String()
	}
	return ir.NewDeclID(r.unit, id)
}

func (r *Registry) nextSeq() int {
	r.seq++
	return r.seq
}

func (r *Registry) addInstance(inst *ir.Instance) {
	r.instances = append(r.instances, inst)
}

// Function returns the cached descriptor for id.
func (r *Registry) Function(id ir.DeclID) (*ir.UserFunction, bool) {
	f, ok := r.functions[id]
	return f, ok
}

func (r *Registry) addFunction(f *ir.UserFunction) {
	r.functions[f.ID] = f
	r.functionOrder = append(r.functionOrder, f.ID)
}

// Type returns the cached user type for id.
func (r *Registry) Type(id ir.DeclID) (*ir.UserType, bool) {
	t, ok := r.types[id]
	return t, ok
}

func (r *Registry) addType(t *ir.UserType) {
	r.types[t.ID] = t
	r.typeOrder = append(r.typeOrder, t.ID)
}

// Constant returns the cached user constant for id.
func (r *Registry) Constant(id ir.DeclID) (*ir.UserConstant, bool) {
	c, ok := r.constants[id]
	return c, ok
}

func (r *Registry) addConstant(c *ir.UserConstant) {
	r.constants[c.ID] = c
	r.constantOrder = append(r.constantOrder, c.ID)
}

// Manifest copies the registry into an immutable manifest. Instances keep
// sequence order; the other maps keep first-sight order.
func (r *Registry) Manifest(registryVersion string) ir.Manifest {
	m := ir.Manifest{
		Version:         ir.ManifestVersion,
		Unit:            r.unit,
		RegistryVersion: registryVersion,
		Backends:        []string{},
		Instances:       make([]ir.Instance, 0, len(r.instances)),
		Functions:       make([]ir.UserFunction, 0, len(r.functionOrder)),
		Types:           make([]ir.UserType, 0, len(r.typeOrder)),
		Constants:       make([]ir.UserConstant, 0, len(r.constantOrder)),
	}

	for _, inst := range r.instances {
		c := *inst
		c.Arity = slices.Clone(inst.Arity)
		c.Callbacks = cloneBindings(inst.Callbacks)
		c.Types = slices.Clone(inst.Types)
		c.Constants = slices.Clone(inst.Constants)
		m.Instances = append(m.Instances, c)
	}
	for _, id := range r.functionOrder {
		f := *r.functions[id]
		f.Bindings = cloneBindings(f.Bindings)
		f.Types = slices.Clone(f.Types)
		f.Constants = slices.Clone(f.Constants)
		f.Signature.Params = slices.Clone(f.Signature.Params)
		f.Signature.TemplateArgs = slices.Clone(f.Signature.TemplateArgs)
		m.Functions = append(m.Functions, f)
	}
	for _, id := range r.typeOrder {
		t := *r.types[id]
		t.Fields = slices.Clone(t.Fields)
		m.Types = append(m.Types, t)
	}
	for _, id := range r.constantOrder {
		m.Constants = append(m.Constants, *r.constants[id])
	}

	if r.blasBegin != nil {
		rng := &ir.SourceRange{Begin: *r.blasBegin}
		if r.blasEnd != nil {
			rng.End = *r.blasEnd
		}
		m.BlasRange = rng
	}

	return m
}

func cloneBindings(bs []ir.Binding) []ir.Binding {
	out := make([]ir.Binding, len(bs))
	for i, b := range bs {
		b.Pair = slices.Clone(b.Pair)
		out[i] = b
	}
	return out
}

func position(p ast.Pos) ir.Position {
	return ir.Position{File: p.File, Line: p.Line, Col: p.Col}
}
