package store

import (
	"context"
	"fmt"

	"github.com/roach88/skelc/internal/ir"
)

// FingerprintMismatchError reports a stored run whose rebuilt manifest no
// longer hashes to its id.
type FingerprintMismatchError struct {
	RunID string
	Got   string
}

func (e *FingerprintMismatchError) Error() string {
	return fmt.Sprintf("run %s: stored manifest fingerprints as %s", e.RunID, e.Got)
}

// Verify rebuilds the manifest of run id and checks that it still hashes
// to id. A mismatch means the stored rows no longer describe the manifest
// that was written.
func (s *Store) Verify(ctx context.Context, id string) error {
	m, err := s.ReadManifest(ctx, id)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	got, err := ir.Fingerprint(m)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	if got != id {
		return &FingerprintMismatchError{RunID: id, Got: got}
	}
	return nil
}

// LastSeq returns the highest run seq, or 0 for an empty store.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM runs`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq, nil
}
