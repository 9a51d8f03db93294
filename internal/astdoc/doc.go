// Package astdoc decodes AST documents into the typed AST.
//
// A document describes one translation unit as JSON or YAML:
//
//	unit: main.cpp
//	decls:
//	  - kind: FunctionDecl
//	    id: f
//	    name: add
//	    params:
//	      - {kind: ParmVarDecl, id: a, name: a, type: {kind: Builtin, name: float}}
//	    result: {kind: Builtin, name: float}
//
// Every node carries a kind tag and an optional id and loc. References
// (DeclRefExpr.ref, Record.decl, TemplateSpecialization.decl) name a
// declaration id and are resolved after the whole document is read, so
// they may point forward. Dangling references and unknown declaration
// kinds are errors; unknown expression kinds become opaque nodes.
package astdoc
