package codegen

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/roach88/skelc/internal/ir"
	"github.com/roach88/skelc/internal/store"
)

// ManifestTarget writes the canonical JSON manifest to Path on
// Finalize. The file is replaced atomically.
type ManifestTarget struct {
	Path string
}

func (t *ManifestTarget) Emit(context.Context, ir.Instance) error { return nil }

func (t *ManifestTarget) Finalize(_ context.Context, m ir.Manifest) error {
	data, err := ir.MarshalCanonical(m.Object())
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(t.Path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(t.Path), ".manifest-*")
	if err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := os.Rename(tmp.Name(), t.Path); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// StoreTarget records the manifest in a manifest store on Finalize.
type StoreTarget struct {
	Store  *store.Store
	Logger *zap.Logger

	mu   sync.Mutex
	runs []string
}

func (t *StoreTarget) Emit(context.Context, ir.Instance) error { return nil }

func (t *StoreTarget) Finalize(ctx context.Context, m ir.Manifest) error {
	id, inserted, err := t.Store.WriteManifest(ctx, &m)
	if err != nil {
		return err
	}
	if t.Logger != nil {
		t.Logger.Info("stored manifest",
			zap.String("unit", m.Unit),
			zap.String("run", id),
			zap.Bool("new", inserted),
		)
	}

	t.mu.Lock()
	t.runs = append(t.runs, id)
	t.mu.Unlock()
	return nil
}

// Runs returns the run ids written so far, in finalize order.
func (t *StoreTarget) Runs() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.runs...)
}

// Recorder keeps everything it receives in memory.
type Recorder struct {
	mu        sync.Mutex
	emitted   []ir.Instance
	finalized []ir.Manifest
}

func (r *Recorder) Emit(_ context.Context, inst ir.Instance) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emitted = append(r.emitted, inst)
	return nil
}

func (r *Recorder) Finalize(_ context.Context, m ir.Manifest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finalized = append(r.finalized, m)
	return nil
}

// Emitted returns the instances received, in delivery order.
func (r *Recorder) Emitted() []ir.Instance {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ir.Instance(nil), r.emitted...)
}

// Finalized returns the manifests received, in delivery order.
func (r *Recorder) Finalized() []ir.Manifest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ir.Manifest(nil), r.finalized...)
}

// DigestTarget writes the text digest of the manifest to W on Finalize.
type DigestTarget struct {
	W io.Writer
}

func (t *DigestTarget) Emit(context.Context, ir.Instance) error { return nil }

func (t *DigestTarget) Finalize(_ context.Context, m ir.Manifest) error {
	return WriteDigest(t.W, &m)
}
