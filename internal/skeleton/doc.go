// Package skeleton holds the registry of skeleton kinds and resolves a
// recognized instance's kind and arity vector.
//
// The registry is a closed table written in CUE (registry.cue, embedded)
// and checked against schema.cue. Each entry maps a skeleton template
// name to its callback roles and one arity component per role; a
// component is either read from a template argument (`targ: i`, evaluated
// as a compile-time integer) or a fixed count (`fixed: n`). Adding a kind
// means adding one entry; traversal code never changes.
//
// The table carries a semantic version; Load rejects tables outside the
// supported range (SupportedVersions).
package skeleton
