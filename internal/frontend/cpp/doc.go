// Package cpp is a lightweight C++ front-end built on tree-sitter.
//
// It parses one source file and lowers the subset of C++ the analysis
// inspects into the typed AST: function definitions (templated or not),
// struct and class definitions, namespaces, variable declarations with
// attributes, lambdas and their captures, calls, address-of and integer
// arithmetic. Everything else becomes an opaque node.
//
// The front-end has no access to library headers. A call to a factory
// listed in the skeleton registry is given a synthesized external
// declaration returning the skeleton specialization, and the call is
// wrapped in the cleanup, construction, materialization and binding
// layers a full compiler front-end would produce for a by-value result.
// Template arguments the call omits are deduced from the number of
// callback arguments when exactly one arity component is missing.
package cpp
