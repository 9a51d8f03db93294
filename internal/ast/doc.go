// Package ast is the typed syntax tree consumed by the skeleton analysis.
//
// The tree is supplied by an external front-end (see internal/astdoc and
// internal/frontend/cpp) and is read-only for everything downstream. Every
// node kind is a closed variant: Decl, Expr, Stmt and Type are sealed
// interfaces implemented only by the types in this package, so consumers
// classify nodes with exhaustive type switches instead of open-ended
// inspection.
//
// Besides the node types the package carries the query layer the analysis
// relies on:
//   - Inspect: pre-order walk over every node in source order
//   - StripCleanups / StripMaterialize / StripBind / IgnoreImplicitCasts:
//     explicit "unwrap one layer of X" steps
//   - StripTypeSugar: decltype and elaborated type unwrapping
//   - DirectCallee, EvalInt, RecordOf, HasAttr
//
// This package imports nothing internal.
package ast
