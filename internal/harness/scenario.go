package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/skelc/internal/frontend"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Input is the translation unit to analyze: a C++ source or an AST
	// document. Relative paths are resolved against the scenario file.
	Input string `yaml:"input"`

	// Registry optionally replaces the built-in skeleton table.
	Registry string `yaml:"registry,omitempty"`

	// Backends is the backend set recorded in the manifest. Empty means
	// sequential only.
	Backends []string `yaml:"backends,omitempty"`

	// Expect states run-level outcomes.
	Expect ExpectClause `yaml:"expect,omitempty"`

	// Assertions validate the manifest.
	Assertions []Assertion `yaml:"assertions"`
}

// ExpectClause specifies run-level outcomes.
type ExpectClause struct {
	// Error is the code of the fatal error the run must abort with.
	Error string `yaml:"error,omitempty"`

	// Diagnostics are the warning codes the run must report, in order.
	// Nil skips the check; an empty list demands a clean run.
	Diagnostics []string `yaml:"diagnostics,omitempty"`
}

// Assertion validates one aspect of the manifest.
type Assertion struct {
	// Type selects the assertion: instance, binding, function, user_type,
	// user_constant, count or order.
	Type string `yaml:"type"`

	// Name is the instance, function, type or constant name.
	Name string `yaml:"name,omitempty"`

	// Kind is the expected skeleton kind (instance).
	Kind string `yaml:"kind,omitempty"`

	// Arity is the expected arity vector (instance).
	Arity []int `yaml:"arity,omitempty"`

	// Instance and Function identify a binding.
	Instance string `yaml:"instance,omitempty"`
	Function string `yaml:"function,omitempty"`

	// Role and Slot narrow a binding.
	Role string `yaml:"role,omitempty"`
	Slot *int   `yaml:"slot,omitempty"`

	// Origin and Result narrow a function.
	Origin string `yaml:"origin,omitempty"`
	Result string `yaml:"result,omitempty"`

	// Valid narrows a user constant.
	Valid *bool `yaml:"valid,omitempty"`

	// Of and Count are used by count.
	Of    string `yaml:"of,omitempty"`
	Count int    `yaml:"count,omitempty"`

	// Instances is the expected instance order (order).
	Instances []string `yaml:"instances,omitempty"`
}

// Assertion type constants.
const (
	AssertInstance     = "instance"
	AssertBinding      = "binding"
	AssertFunction     = "function"
	AssertUserType     = "user_type"
	AssertUserConstant = "user_constant"
	AssertCount        = "count"
	AssertOrder        = "order"
)

// Collections accepted by count assertions.
var countable = map[string]bool{
	"instances": true,
	"functions": true,
	"types":     true,
	"constants": true,
}

// Directories Discover does not descend into.
var skipDirs = map[string]bool{
	"golden": true,
	"inputs": true,
}

// LoadScenario reads and parses a scenario YAML file. Input and registry
// paths are resolved relative to the scenario file. Unknown fields are
// rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	scenario.Input = resolve(base, scenario.Input)
	scenario.Registry = resolve(base, scenario.Registry)

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Input == "" {
		return fmt.Errorf("input is required")
	}
	if !frontend.Supported(s.Input) {
		return fmt.Errorf("input %s: unsupported file type", s.Input)
	}
	if _, err := os.Stat(s.Input); os.IsNotExist(err) {
		return fmt.Errorf("input file not found: %s", s.Input)
	}
	if s.Registry != "" {
		if _, err := os.Stat(s.Registry); os.IsNotExist(err) {
			return fmt.Errorf("registry file not found: %s", s.Registry)
		}
	}

	if s.Expect.Error == "" && len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required unless expect.error is set")
	}
	if s.Expect.Error != "" && len(s.Assertions) > 0 {
		return fmt.Errorf("assertions cannot be combined with expect.error")
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertInstance, AssertFunction, AssertUserType, AssertUserConstant:
		if a.Name == "" {
			return fmt.Errorf("assertions[%d]: name is required for %s", index, a.Type)
		}
	case AssertBinding:
		if a.Instance == "" || a.Function == "" {
			return fmt.Errorf("assertions[%d]: instance and function are required for binding", index)
		}
	case AssertCount:
		if !countable[a.Of] {
			return fmt.Errorf("assertions[%d]: of must be one of instances, functions, types, constants", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertOrder:
		if len(a.Instances) == 0 {
			return fmt.Errorf("assertions[%d]: instances list is required for order", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

// Discover finds all YAML scenario files under dir in lexical order.
// A non-empty filter is a glob matched against the file name without
// its extension. Golden and input directories are skipped.
func Discover(dir string, filter string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if path != dir && skipDirs[info.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})
	return files, err
}
