package codegen

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/skelc/internal/ir"
)

// WriteDigest renders m as stable, line-oriented text. Declaration ids are
// replaced by names so digests stay readable and diffable.
func WriteDigest(w io.Writer, m *ir.Manifest) error {
	bw := bufio.NewWriter(w)

	names := make(map[ir.DeclID]string)
	for _, f := range m.Functions {
		names[f.ID] = DisplayName(f)
	}
	for _, t := range m.Types {
		names[t.ID] = t.Name
	}
	for _, c := range m.Constants {
		names[c.ID] = c.Name
	}
	refs := func(ids []ir.DeclID) string {
		out := make([]string, len(ids))
		for i, id := range ids {
			out[i] = names[id]
		}
		return strings.Join(out, ", ")
	}

	fmt.Fprintf(bw, "unit %s (registry %s, backends %s)\n",
		m.Unit, m.RegistryVersion, strings.Join(m.Backends, ","))

	for _, inst := range m.Instances {
		fmt.Fprintf(bw, "instance %d %s %s %v @%s\n", inst.Seq, inst.Name, inst.Kind, inst.Arity, position(inst.Pos))
		for _, b := range inst.Callbacks {
			fmt.Fprintf(bw, "  %d %s %s -> %s\n", b.Position, b.Role, slot(b), names[b.Function])
		}
		if len(inst.Types) > 0 {
			fmt.Fprintf(bw, "  types: %s\n", refs(inst.Types))
		}
		if len(inst.Constants) > 0 {
			fmt.Fprintf(bw, "  constants: %s\n", refs(inst.Constants))
		}
	}

	for _, f := range m.Functions {
		params := make([]string, len(f.Signature.Params))
		for i, p := range f.Signature.Params {
			params[i] = strings.TrimSpace(p.Type + " " + p.Name)
		}
		fmt.Fprintf(bw, "function %s %s (%s) %s, %d binding(s)\n",
			names[f.ID], f.Origin, strings.Join(params, ", "), f.Signature.Result, len(f.Bindings))
		if len(f.Types) > 0 {
			fmt.Fprintf(bw, "  types: %s\n", refs(f.Types))
		}
		if len(f.Constants) > 0 {
			fmt.Fprintf(bw, "  constants: %s\n", refs(f.Constants))
		}
	}

	for _, t := range m.Types {
		fields := make([]string, len(t.Fields))
		for i, f := range t.Fields {
			fields[i] = f.Type + " " + f.Name
		}
		fmt.Fprintf(bw, "type %s {%s}\n", qualifiedOr(t.Qualified, t.Name), strings.Join(fields, "; "))
	}

	for _, c := range m.Constants {
		value := c.Value
		if value == "" {
			value = "?"
		}
		state := "valid"
		if !c.Valid {
			state = "invalid"
		}
		fmt.Fprintf(bw, "constant %s %s = %s %s\n", c.Name, c.Type, value, state)
	}

	if m.BlasRange != nil {
		fmt.Fprintf(bw, "blas %s - %s\n", position(m.BlasRange.Begin), position(m.BlasRange.End))
	}
	return bw.Flush()
}

// DisplayName is the name a digest uses for f: qualified when known, with
// its template arguments.
func DisplayName(f ir.UserFunction) string {
	name := qualifiedOr(f.Qualified, f.Name)
	if len(f.Signature.TemplateArgs) > 0 {
		name += "<" + strings.Join(f.Signature.TemplateArgs, ", ") + ">"
	}
	return name
}

func qualifiedOr(qualified, name string) string {
	if qualified != "" {
		return qualified
	}
	return name
}

func slot(b ir.Binding) string {
	if b.Slot == ir.NoSlot {
		return fmt.Sprintf("pair %v", b.Pair)
	}
	return fmt.Sprintf("slot %d", b.Slot)
}

func position(p ir.Position) string {
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
}
