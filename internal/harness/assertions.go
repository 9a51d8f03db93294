package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/skelc/internal/codegen"
	"github.com/roach88/skelc/internal/ir"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // assertion type
	Expected string // human-readable expected outcome
	Actual   string // human-readable actual outcome
	Subject  string // what was inspected, e.g. the instance list
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	if e.Subject != "" {
		fmt.Fprintf(&buf, "\n  Seen: %s", e.Subject)
	}
	return buf.String()
}

// EvaluateAssertions runs every assertion against m and returns the
// messages of those that failed.
func EvaluateAssertions(m *ir.Manifest, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluate(m, a); err != nil {
			failures = append(failures, fmt.Sprintf("assertion %d: %v", i, err))
		}
	}
	return failures
}

func evaluate(m *ir.Manifest, a Assertion) error {
	switch a.Type {
	case AssertInstance:
		return assertInstance(m, a)
	case AssertBinding:
		return assertBinding(m, a)
	case AssertFunction:
		return assertFunction(m, a)
	case AssertUserType:
		return assertUserType(m, a)
	case AssertUserConstant:
		return assertUserConstant(m, a)
	case AssertCount:
		return assertCount(m, a)
	case AssertOrder:
		return assertOrder(m, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func instanceNames(m *ir.Manifest) string {
	names := make([]string, len(m.Instances))
	for i, inst := range m.Instances {
		names[i] = inst.Name
	}
	return strings.Join(names, ", ")
}

func functionNames(m *ir.Manifest) string {
	names := make([]string, len(m.Functions))
	for i, f := range m.Functions {
		names[i] = codegen.DisplayName(f)
	}
	return strings.Join(names, ", ")
}

// matchFunction accepts the plain, qualified or display name of f.
func matchFunction(f ir.UserFunction, name string) bool {
	return f.Name == name || (f.Qualified != "" && f.Qualified == name) || codegen.DisplayName(f) == name
}

func assertInstance(m *ir.Manifest, a Assertion) error {
	inst, ok := m.Instance(a.Name)
	if !ok {
		return &AssertionError{
			Type:     AssertInstance,
			Expected: fmt.Sprintf("instance %s", a.Name),
			Actual:   "not found",
			Subject:  instanceNames(m),
		}
	}
	if a.Kind != "" && string(inst.Kind) != a.Kind {
		return &AssertionError{
			Type:     AssertInstance,
			Expected: fmt.Sprintf("%s of kind %s", a.Name, a.Kind),
			Actual:   fmt.Sprintf("kind %s", inst.Kind),
		}
	}
	if a.Arity != nil && !slices.Equal(inst.Arity, a.Arity) {
		return &AssertionError{
			Type:     AssertInstance,
			Expected: fmt.Sprintf("%s with arity %v", a.Name, a.Arity),
			Actual:   fmt.Sprintf("arity %v", inst.Arity),
		}
	}
	return nil
}

func assertBinding(m *ir.Manifest, a Assertion) error {
	inst, ok := m.Instance(a.Instance)
	if !ok {
		return &AssertionError{
			Type:     AssertBinding,
			Expected: fmt.Sprintf("instance %s", a.Instance),
			Actual:   "not found",
			Subject:  instanceNames(m),
		}
	}

	var seen []string
	for _, b := range inst.Callbacks {
		f, ok := m.Function(b.Function)
		if !ok {
			continue
		}
		seen = append(seen, fmt.Sprintf("%s %s slot %d", codegen.DisplayName(f), b.Role, b.Slot))
		if !matchFunction(f, a.Function) {
			continue
		}
		if a.Role != "" && b.Role != a.Role {
			continue
		}
		if a.Slot != nil && b.Slot != *a.Slot {
			continue
		}
		return nil
	}

	expected := fmt.Sprintf("%s bound by %s", a.Function, a.Instance)
	if a.Role != "" {
		expected += " as " + a.Role
	}
	if a.Slot != nil {
		expected += fmt.Sprintf(" in slot %d", *a.Slot)
	}
	return &AssertionError{
		Type:     AssertBinding,
		Expected: expected,
		Actual:   "no matching binding",
		Subject:  strings.Join(seen, "; "),
	}
}

func assertFunction(m *ir.Manifest, a Assertion) error {
	for _, f := range m.Functions {
		if !matchFunction(f, a.Name) {
			continue
		}
		if a.Origin != "" && string(f.Origin) != a.Origin {
			return &AssertionError{
				Type:     AssertFunction,
				Expected: fmt.Sprintf("%s with origin %s", a.Name, a.Origin),
				Actual:   fmt.Sprintf("origin %s", f.Origin),
			}
		}
		if a.Result != "" && f.Signature.Result != a.Result {
			return &AssertionError{
				Type:     AssertFunction,
				Expected: fmt.Sprintf("%s returning %s", a.Name, a.Result),
				Actual:   fmt.Sprintf("returns %s", f.Signature.Result),
			}
		}
		return nil
	}
	return &AssertionError{
		Type:     AssertFunction,
		Expected: fmt.Sprintf("function %s", a.Name),
		Actual:   "not found",
		Subject:  functionNames(m),
	}
}

func assertUserType(m *ir.Manifest, a Assertion) error {
	var seen []string
	for _, t := range m.Types {
		if t.Name == a.Name || t.Qualified == a.Name {
			return nil
		}
		seen = append(seen, t.Name)
	}
	return &AssertionError{
		Type:     AssertUserType,
		Expected: fmt.Sprintf("user type %s", a.Name),
		Actual:   "not found",
		Subject:  strings.Join(seen, ", "),
	}
}

func assertUserConstant(m *ir.Manifest, a Assertion) error {
	var seen []string
	for _, c := range m.Constants {
		if c.Name != a.Name {
			seen = append(seen, c.Name)
			continue
		}
		if a.Valid != nil && c.Valid != *a.Valid {
			return &AssertionError{
				Type:     AssertUserConstant,
				Expected: fmt.Sprintf("%s with valid=%t", a.Name, *a.Valid),
				Actual:   fmt.Sprintf("valid=%t", c.Valid),
			}
		}
		return nil
	}
	return &AssertionError{
		Type:     AssertUserConstant,
		Expected: fmt.Sprintf("user constant %s", a.Name),
		Actual:   "not found",
		Subject:  strings.Join(seen, ", "),
	}
}

func assertCount(m *ir.Manifest, a Assertion) error {
	var n int
	switch a.Of {
	case "instances":
		n = len(m.Instances)
	case "functions":
		n = len(m.Functions)
	case "types":
		n = len(m.Types)
	case "constants":
		n = len(m.Constants)
	default:
		return fmt.Errorf("cannot count %q", a.Of)
	}
	if n != a.Count {
		return &AssertionError{
			Type:     AssertCount,
			Expected: fmt.Sprintf("%d %s", a.Count, a.Of),
			Actual:   fmt.Sprintf("%d %s", n, a.Of),
		}
	}
	return nil
}

// assertOrder checks that the named instances appear in the given order.
// Other instances may be interleaved.
func assertOrder(m *ir.Manifest, a Assertion) error {
	seq := make(map[string]int, len(m.Instances))
	for _, inst := range m.Instances {
		seq[inst.Name] = inst.Seq
	}

	last := 0
	for _, name := range a.Instances {
		s, ok := seq[name]
		if !ok {
			return &AssertionError{
				Type:     AssertOrder,
				Expected: fmt.Sprintf("instance %s", name),
				Actual:   "not found",
				Subject:  instanceNames(m),
			}
		}
		if s <= last {
			return &AssertionError{
				Type:     AssertOrder,
				Expected: fmt.Sprintf("order %v", a.Instances),
				Actual:   fmt.Sprintf("%s appears out of order", name),
				Subject:  instanceNames(m),
			}
		}
		last = s
	}
	return nil
}
