// Package analysis recognizes skeleton instances in a typed AST and builds
// the registries handed to code generation.
//
// One Analyze call is one synchronous traversal of a translation unit.
// Every variable declaration is classified as a skeleton instance, a user
// constant or irrelevant. Instances are resolved against the skeleton
// registry, their callback arguments are reduced to canonical user
// function descriptors (deduplicated by declaration identity) and the user
// types reachable from callback signatures are recorded.
//
// Structural violations past the candidate check are fatal: Analyze
// returns a *FatalError and no manifest. Invalid user constants are
// recorded anyway and reported as W301 diagnostics.
package analysis
