package testutil

import (
	"fmt"
	"sync"

	"github.com/roach88/skelc/internal/ast"
)

// DeterministicIDs hands out node ids n1, n2, ... for hand-built ASTs.
//
// Rebuilding the same tree from a fresh (or Reset) generator yields the
// same ids, so declaration IDs and fingerprints are reproducible.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicIDs struct {
	mu  sync.Mutex
	seq int64
}

// NewDeterministicIDs creates a generator whose first id is "n1".
func NewDeterministicIDs() *DeterministicIDs {
	return &DeterministicIDs{}
}

// Next returns the next id.
func (g *DeterministicIDs) Next() ast.NodeID {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return ast.NodeID(fmt.Sprintf("n%d", g.seq))
}

// Count returns how many ids have been handed out.
func (g *DeterministicIDs) Count() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seq
}

// Reset starts over at "n1".
func (g *DeterministicIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}
