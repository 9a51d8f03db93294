package skeleton

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/skelc/internal/ir"
)

//go:embed schema.cue
var schemaCUE string

//go:embed registry.cue
var defaultCUE []byte

// DefaultFilename is the name reported in positions of the built-in table.
const DefaultFilename = "registry.cue"

// CompileError represents a registry compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// compileTable parses CUE source, unifies it with the registry schema and
// extracts the raw table. Structural checks beyond the schema happen in
// validateTable.
func compileTable(src []byte, filename string) (*table, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	v = schema.LookupPath(cue.ParsePath("#Registry")).Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	t := &table{}

	versionVal := v.LookupPath(cue.ParsePath("version"))
	version, err := versionVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	t.version = version
	t.versionPos = versionVal.Pos()

	t.reserved, err = stringList(v.LookupPath(cue.ParsePath("reserved_types")))
	if err != nil {
		return nil, err
	}

	t.kinds, err = parseKinds(v.LookupPath(cue.ParsePath("kinds")))
	if err != nil {
		return nil, err
	}

	return t, nil
}

// table is the registry as read from CUE, before validation.
type table struct {
	version    string
	versionPos token.Pos
	reserved   []string
	kinds      []*Entry
}

// parseKinds extracts the kind entries in declaration order.
func parseKinds(v cue.Value) ([]*Entry, error) {
	var entries []*Entry

	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	for iter.Next() {
		name := iter.Label()
		kv := iter.Value()

		entry := &Entry{
			Template: name,
			Kind:     ir.Kind(name),
			pos:      kv.Pos(),
		}

		entry.Roles, err = stringList(kv.LookupPath(cue.ParsePath("roles")))
		if err != nil {
			return nil, err
		}

		entry.Arity, err = parseComponents(resolved(kv.LookupPath(cue.ParsePath("arity"))))
		if err != nil {
			return nil, err
		}

		paired, err := resolved(kv.LookupPath(cue.ParsePath("paired"))).Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		entry.Paired = paired

		entry.Factories, err = stringList(resolved(kv.LookupPath(cue.ParsePath("factories"))))
		if err != nil {
			return nil, err
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

// parseComponents converts the arity list into components.
func parseComponents(v cue.Value) ([]Component, error) {
	var comps []Component

	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	for iter.Next() {
		item := iter.Value()

		if targ := item.LookupPath(cue.ParsePath("targ")); targ.Exists() {
			idx, err := targ.Int64()
			if err != nil {
				return nil, formatCUEError(err)
			}
			comps = append(comps, Component{FromTemplate: true, TemplateArg: int(idx)})
			continue
		}

		fixed := item.LookupPath(cue.ParsePath("fixed"))
		if !fixed.Exists() {
			return nil, &CompileError{
				Field:   "arity",
				Message: "component must set targ or fixed",
				Pos:     item.Pos(),
			}
		}
		n, err := fixed.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		comps = append(comps, Component{Fixed: int(n)})
	}

	return comps, nil
}

// stringList reads a list of strings.
func stringList(v cue.Value) ([]string, error) {
	var out []string

	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

// resolved selects the default of a disjunction when one is marked.
func resolved(v cue.Value) cue.Value {
	if d, ok := v.Default(); ok {
		return d
	}
	return v
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	positions := errors.Positions(first)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
