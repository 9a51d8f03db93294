package skeleton

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"cuelang.org/go/cue/token"

	"github.com/roach88/skelc/internal/ir"
)

// Component is one arity component: either read from a template argument
// or a fixed count.
type Component struct {
	FromTemplate bool
	TemplateArg  int
	Fixed        int
}

func (c Component) String() string {
	if c.FromTemplate {
		return fmt.Sprintf("targ%d", c.TemplateArg)
	}
	return fmt.Sprintf("%d", c.Fixed)
}

// Entry is one row of the registry table.
type Entry struct {
	Template  string
	Kind      ir.Kind
	Roles     []string
	Arity     []Component
	Paired    bool
	Factories []string

	pos token.Pos
}

// RoleAt returns the role of the callback at slot for a resolved arity
// vector: component j contributes arity[j] consecutive slots of Roles[j].
func (e *Entry) RoleAt(arity []int, slot int) string {
	next := 0
	for j, n := range arity {
		next += n
		if slot < next && j < len(e.Roles) {
			return e.Roles[j]
		}
	}
	return ""
}

// Registry is a validated, immutable skeleton table.
type Registry struct {
	version   string
	entries   map[string]*Entry
	order     []string
	reserved  map[string]bool
	factories map[string]string
	digest    string
}

// Load compiles and validates a registry table from CUE source.
func Load(src []byte, filename string) (*Registry, error) {
	t, err := compileTable(src, filename)
	if err != nil {
		return nil, err
	}

	if errs := validateTable(t); len(errs) > 0 {
		return nil, &TableError{Errors: errs}
	}

	r := &Registry{
		version:   t.version,
		entries:   make(map[string]*Entry, len(t.kinds)),
		reserved:  make(map[string]bool, len(t.reserved)),
		factories: make(map[string]string),
	}
	for _, name := range t.reserved {
		r.reserved[name] = true
	}
	for _, e := range t.kinds {
		r.entries[e.Template] = e
		r.order = append(r.order, e.Template)
		for _, f := range e.Factories {
			r.factories[f] = e.Template
		}
	}
	slices.Sort(r.order)

	r.digest, err = ir.HashValue(ir.DomainRegistry, r.object())
	if err != nil {
		return nil, err
	}

	return r, nil
}

// LoadFile reads and loads a registry table from disk.
func LoadFile(path string) (*Registry, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading registry: %w", err)
	}
	return Load(src, path)
}

// Default returns the built-in registry table.
func Default() *Registry {
	r, err := Load(defaultCUE, DefaultFilename)
	if err != nil {
		panic(fmt.Sprintf("built-in skeleton registry is invalid: %v", err))
	}
	return r
}

// Version is the table's semantic version.
func (r *Registry) Version() string { return r.version }

// Digest is the content hash of the table.
func (r *Registry) Digest() string { return r.digest }

// Lookup finds the entry for a skeleton template name.
func (r *Registry) Lookup(template string) (*Entry, bool) {
	e, ok := r.entries[template]
	return e, ok
}

// Reserved reports whether name is a built-in type the registrar must
// never record as a user type.
func (r *Registry) Reserved(name string) bool {
	return r.reserved[name]
}

// ReservedTypes lists the reserved names in sorted order.
func (r *Registry) ReservedTypes() []string {
	names := make([]string, 0, len(r.reserved))
	for n := range r.reserved {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Entries returns all entries sorted by template name.
func (r *Registry) Entries() []*Entry {
	out := make([]*Entry, len(r.order))
	for i, name := range r.order {
		out[i] = r.entries[name]
	}
	return out
}

// FactoryTemplate maps a factory function name to the template it
// instantiates. A leading "::" is ignored.
func (r *Registry) FactoryTemplate(name string) (string, bool) {
	t, ok := r.factories[strings.TrimPrefix(name, "::")]
	return t, ok
}

func (r *Registry) object() ir.Object {
	kinds := ir.Object{}
	for _, name := range r.order {
		e := r.entries[name]
		comps := make(ir.Array, len(e.Arity))
		for i, c := range e.Arity {
			comps[i] = ir.String(c.String())
		}
		kinds[name] = ir.Object{
			"roles":     ir.Strings(e.Roles),
			"arity":     comps,
			"paired":    ir.Bool(e.Paired),
			"factories": ir.Strings(e.Factories),
		}
	}
	return ir.Object{
		"version":        ir.String(r.version),
		"reserved_types": ir.Strings(r.ReservedTypes()),
		"kinds":          kinds,
	}
}
