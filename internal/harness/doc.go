// Package harness runs conformance scenarios against the analysis core.
//
// A scenario names one input (a C++ source or an AST document), optionally
// a registry and a backend set, and states what the run must produce:
//
//	name: dotproduct
//	description: "MapReduce over two named template callbacks"
//	input: inputs/dotproduct.cpp
//	backends: [openmp]
//	assertions:
//	  - type: instance
//	    name: dotprod
//	    kind: MapReduce
//	    arity: [1, 1]
//	  - type: binding
//	    instance: dotprod
//	    function: mult<float>
//	    role: map
//	    slot: 0
//	  - type: count
//	    of: functions
//	    count: 2
//
// A scenario that expects the run to abort names the error code instead:
//
//	expect:
//	  error: E234
//
// Each scenario runs in a fresh in-memory manifest store. The manifest is
// dispatched through the same targets the CLI uses, read back from the
// store and compared with the original, and rendered as a digest for
// golden comparison.
//
// # Assertion Types
//
//   - instance: an instance exists, optionally with kind and arity
//   - binding: an instance binds a function, optionally with role and slot
//   - function: a user function exists, optionally with origin and result
//   - user_type: a user type exists
//   - user_constant: a user constant exists, optionally with validity
//   - count: the number of instances, functions, types or constants
//   - order: instances appear in the given sequence order
//
// # Golden Files
//
// Digests are compared against golden/<scenario-file>.golden next to the
// scenario, or testdata/golden/<name>.golden when run from a Go test.
package harness
