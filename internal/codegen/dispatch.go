package codegen

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/roach88/skelc/internal/ir"
)

// Target receives the output of one analysis run.
type Target interface {
	// Emit is called once per instance, in sequence order.
	Emit(ctx context.Context, inst ir.Instance) error
	// Finalize is called once after every instance was emitted.
	Finalize(ctx context.Context, m ir.Manifest) error
}

// ErrAlreadyDispatched is returned when a manifest is dispatched twice
// through the same Dispatcher.
var ErrAlreadyDispatched = errors.New("manifest already dispatched")

// Dispatcher fans a manifest out to its targets.
type Dispatcher struct {
	targets []Target
	logger  *zap.Logger

	mu   sync.Mutex
	done map[string]bool
}

// NewDispatcher creates a dispatcher over targets. A nil logger is
// replaced with a no-op logger.
func NewDispatcher(logger *zap.Logger, targets ...Target) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{targets: targets, logger: logger, done: make(map[string]bool)}
}

// Dispatch delivers m. Delivery stops at the first target error; the
// manifest still counts as dispatched.
func (d *Dispatcher) Dispatch(ctx context.Context, m *ir.Manifest) error {
	fp, err := ir.Fingerprint(m)
	if err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}

	d.mu.Lock()
	if d.done[fp] {
		d.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAlreadyDispatched, m.Unit)
	}
	d.done[fp] = true
	d.mu.Unlock()

	instances := slices.Clone(m.Instances)
	slices.SortStableFunc(instances, func(a, b ir.Instance) int { return a.Seq - b.Seq })

	for _, inst := range instances {
		for _, t := range d.targets {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("dispatch %s: %w", m.Unit, err)
			}
			if err := t.Emit(ctx, inst); err != nil {
				return fmt.Errorf("dispatch %s: emit %s: %w", m.Unit, inst.Name, err)
			}
		}
		d.logger.Debug("dispatched instance",
			zap.String("unit", m.Unit),
			zap.String("instance", inst.Name),
			zap.String("kind", string(inst.Kind)),
			zap.Int("seq", inst.Seq),
		)
	}

	for _, t := range d.targets {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("dispatch %s: %w", m.Unit, err)
		}
		if err := t.Finalize(ctx, *m); err != nil {
			return fmt.Errorf("dispatch %s: finalize: %w", m.Unit, err)
		}
	}

	d.logger.Info("dispatched manifest",
		zap.String("unit", m.Unit),
		zap.Int("instances", len(instances)),
		zap.Strings("backends", m.Backends),
	)
	return nil
}
