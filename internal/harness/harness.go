package harness

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"go.uber.org/zap"

	"github.com/roach88/skelc/internal/analysis"
	"github.com/roach88/skelc/internal/codegen"
	"github.com/roach88/skelc/internal/frontend"
	"github.com/roach88/skelc/internal/ir"
	"github.com/roach88/skelc/internal/skeleton"
	"github.com/roach88/skelc/internal/store"
)

// Harness is the scenario execution engine.
type Harness struct {
	store     *store.Store
	skeletons *skeleton.Registry
	logger    *zap.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
//  1. Load the registry and the input
//  2. Analyze the unit; an aborted run is checked against expect.error
//  3. Dispatch the manifest to a recorder, the store and a digest
//  4. Read the manifest back from the store and compare
//  5. Check expected diagnostics and evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	skeletons := skeleton.Default()
	if scenario.Registry != "" {
		skeletons, err = skeleton.LoadFile(scenario.Registry)
		if err != nil {
			return nil, fmt.Errorf("failed to load registry: %w", err)
		}
	}

	backends, err := codegen.ParseBackends(scenario.Backends)
	if err != nil {
		return nil, fmt.Errorf("invalid backends: %w", err)
	}

	h := &Harness{
		store:     st,
		skeletons: skeletons,
		logger:    zap.NewNop(),
	}

	unit, err := frontend.Load(ctx, scenario.Input, skeletons, h.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load input: %w", err)
	}

	result := NewResult()

	res, err := analysis.New(skeletons, h.logger).Analyze(unit)
	if err != nil {
		var fatal *analysis.FatalError
		if !errors.As(err, &fatal) {
			return nil, fmt.Errorf("analysis failed: %w", err)
		}
		result.Fatal = fatal.Code
		switch {
		case scenario.Expect.Error == "":
			result.AddError(fmt.Sprintf("unexpected fatal error: %v", err))
		case scenario.Expect.Error != fatal.Code:
			result.AddError(fmt.Sprintf("expected fatal error %s, got %s: %v", scenario.Expect.Error, fatal.Code, err))
		}
		return result, nil
	}

	if scenario.Expect.Error != "" {
		result.AddError(fmt.Sprintf("expected fatal error %s, run completed", scenario.Expect.Error))
	}

	m := res.Manifest
	m.Backends = codegen.Names(backends)
	result.Diagnostics = res.Diagnostics

	if err := h.deliver(ctx, &m, result); err != nil {
		return nil, err
	}

	if want := scenario.Expect.Diagnostics; want != nil {
		if got := result.DiagnosticCodes(); !slices.Equal(got, want) {
			result.AddError(fmt.Sprintf("expected diagnostics %v, got %v", want, got))
		}
	}

	for _, msg := range EvaluateAssertions(&m, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// deliver dispatches m and checks what the targets received.
func (h *Harness) deliver(ctx context.Context, m *ir.Manifest, result *Result) error {
	var digest bytes.Buffer
	rec := &codegen.Recorder{}
	stored := &codegen.StoreTarget{Store: h.store, Logger: h.logger}

	d := codegen.NewDispatcher(h.logger, rec, stored, &codegen.DigestTarget{W: &digest})
	if err := d.Dispatch(ctx, m); err != nil {
		return fmt.Errorf("failed to dispatch manifest: %w", err)
	}
	result.Manifest = m
	result.Digest = digest.String()

	if got, want := len(rec.Emitted()), len(m.Instances); got != want {
		result.AddError(fmt.Sprintf("dispatcher emitted %d instance(s), manifest has %d", got, want))
	}

	runs := stored.Runs()
	if len(runs) != 1 {
		result.AddError(fmt.Sprintf("expected one stored run, got %d", len(runs)))
		return nil
	}

	back, err := h.store.ReadManifest(ctx, runs[0])
	if err != nil {
		return fmt.Errorf("failed to read stored manifest: %w", err)
	}
	if diff := cmp.Diff(m, back, cmpopts.EquateEmpty()); diff != "" {
		result.AddError("stored manifest differs (-dispatched +stored):\n" + diff)
	}
	if err := h.store.Verify(ctx, runs[0]); err != nil {
		result.AddError(fmt.Sprintf("stored run does not verify: %v", err))
	}
	return nil
}
