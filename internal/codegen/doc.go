// Package codegen delivers analysis results to code generation targets.
//
// A Dispatcher hands every skeleton instance of a manifest to each Target
// exactly once, in sequence order, and then finalizes the targets with the
// complete manifest (function, type and constant registries included).
// Kernel generation itself lives behind the Target interface; the
// built-in targets persist or record what they receive.
package codegen
