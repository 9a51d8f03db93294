package ir

// Object conversions feed MarshalCanonical. Empty slices encode as [] and
// optional fields are omitted rather than written as null.

func (p Position) Object() Object {
	return Object{
		"file": String(p.File),
		"line": Int(p.Line),
		"col":  Int(p.Col),
	}
}

func (b Binding) Object() Object {
	obj := Object{
		"instance": String(b.Instance),
		"function": String(b.Function),
		"name":     String(b.Name),
		"position": Int(b.Position),
		"role":     String(b.Role),
		"slot":     Int(b.Slot),
	}
	if len(b.Pair) > 0 {
		obj["pair"] = Ints(b.Pair)
	}
	return obj
}

func bindingsArray(bs []Binding) Array {
	arr := make(Array, len(bs))
	for i, b := range bs {
		arr[i] = b.Object()
	}
	return arr
}

func (inst Instance) Object() Object {
	return Object{
		"seq":       Int(inst.Seq),
		"name":      String(inst.Name),
		"kind":      String(inst.Kind),
		"arity":     Ints(inst.Arity),
		"callbacks": bindingsArray(inst.Callbacks),
		"types":     Strings(inst.Types),
		"constants": Strings(inst.Constants),
		"pos":       inst.Pos.Object(),
	}
}

func (f UserFunction) Object() Object {
	params := make(Array, len(f.Signature.Params))
	for i, p := range f.Signature.Params {
		params[i] = Object{"name": String(p.Name), "type": String(p.Type)}
	}
	return Object{
		"id":        String(f.ID),
		"name":      String(f.Name),
		"qualified": String(f.Qualified),
		"origin":    String(f.Origin),
		"signature": Object{
			"params":        params,
			"result":        String(f.Signature.Result),
			"template_args": Strings(f.Signature.TemplateArgs),
		},
		"bindings":  bindingsArray(f.Bindings),
		"types":     Strings(f.Types),
		"constants": Strings(f.Constants),
		"pos":       f.Pos.Object(),
	}
}

func (t UserType) Object() Object {
	fields := make(Array, len(t.Fields))
	for i, fd := range t.Fields {
		fields[i] = Object{"name": String(fd.Name), "type": String(fd.Type)}
	}
	return Object{
		"id":        String(t.ID),
		"name":      String(t.Name),
		"qualified": String(t.Qualified),
		"fields":    fields,
		"pos":       t.Pos.Object(),
	}
}

func (c UserConstant) Object() Object {
	return Object{
		"id":        String(c.ID),
		"name":      String(c.Name),
		"type":      String(c.Type),
		"value":     String(c.Value),
		"constexpr": Bool(c.Constexpr),
		"defined":   Bool(c.Defined),
		"valid":     Bool(c.Valid),
		"pos":       c.Pos.Object(),
	}
}

// Object converts the manifest for canonical encoding.
func (m *Manifest) Object() Object {
	instances := make(Array, len(m.Instances))
	for i, inst := range m.Instances {
		instances[i] = inst.Object()
	}
	functions := make(Array, len(m.Functions))
	for i, f := range m.Functions {
		functions[i] = f.Object()
	}
	types := make(Array, len(m.Types))
	for i, t := range m.Types {
		types[i] = t.Object()
	}
	constants := make(Array, len(m.Constants))
	for i, c := range m.Constants {
		constants[i] = c.Object()
	}

	obj := Object{
		"version":          String(m.Version),
		"unit":             String(m.Unit),
		"registry_version": String(m.RegistryVersion),
		"backends":         Strings(m.Backends),
		"instances":        instances,
		"functions":        functions,
		"types":            types,
		"constants":        constants,
	}
	if m.BlasRange != nil {
		obj["blas_range"] = Object{
			"begin": m.BlasRange.Begin.Object(),
			"end":   m.BlasRange.End.Object(),
		}
	}
	return obj
}
