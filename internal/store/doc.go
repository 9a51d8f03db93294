// Package store provides SQLite-backed durable storage for analysis
// manifests.
//
// Every analysis run is stored under its manifest fingerprint:
//   - runs: one row per distinct manifest, numbered by seq
//   - instances: skeleton instances in sequence order
//   - user_functions / bindings: callback descriptors and their uses
//   - user_types / user_constants: the type and constant registries
//
// # Patterns
//
// Content-addressed runs: the run id is ir.Fingerprint of the manifest,
// so writing the same manifest twice is a no-op (ON CONFLICT DO NOTHING).
//
// Deterministic reads: registries are read back in registration order
// (ord column) and runs in seq order, so a stored manifest round-trips
// to the same canonical bytes.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
