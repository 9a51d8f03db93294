// Package ir provides the analysis output types for skelc.
//
// This package contains the records handed from the analysis core to code
// generation: skeleton instances, user functions, user types, user
// constants and the per-unit Manifest that bundles them. It imports
// nothing internal so every other package can depend on it.
//
// Key design constraints:
//   - Records are values; once the analysis returns them they are never
//     mutated again
//   - Declaration identity is a DeclID (UUIDv5 of unit + front-end node id),
//     stable across runs over the same input
//   - Canonical JSON (RFC 8785 ordering, NFC strings) is the only encoding
//     used for fingerprints
//   - All JSON tags use snake_case
package ir
