package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/roach88/skelc/internal/analysis"
	"github.com/roach88/skelc/internal/codegen"
	"github.com/roach88/skelc/internal/ir"
	"github.com/roach88/skelc/internal/skeleton"
	"github.com/roach88/skelc/internal/store"
)

// UnitResult is the outcome of analyzing one input.
type UnitResult struct {
	Input       string                `json:"input"`
	Unit        string                `json:"unit,omitempty"`
	Run         string                `json:"run,omitempty"` // manifest fingerprint
	Output      string                `json:"output,omitempty"`
	Manifest    *ir.Manifest          `json:"manifest,omitempty"`
	Diagnostics []analysis.Diagnostic `json:"diagnostics,omitempty"`
	Error       *CLIError             `json:"error,omitempty"`

	digest string
}

// pipeline carries everything shared by the analyses of one command
// invocation. It is safe for concurrent use.
type pipeline struct {
	skeletons *skeleton.Registry
	analyzer  *analysis.Analyzer
	backends  []string
	outputs   map[string]string // input -> manifest path
	store     *codegen.StoreTarget
	logger    *zap.Logger
}

func newPipeline(skeletons *skeleton.Registry, backends []codegen.Backend, st *store.Store, logger *zap.Logger) *pipeline {
	p := &pipeline{
		skeletons: skeletons,
		analyzer:  analysis.New(skeletons, logger),
		backends:  codegen.Names(backends),
		outputs:   map[string]string{},
		logger:    logger,
	}
	if st != nil {
		p.store = &codegen.StoreTarget{Store: st, Logger: logger}
	}
	return p
}

// run analyzes one input and delivers its manifest. Failures are
// reported in the result, not returned.
func (p *pipeline) run(ctx context.Context, input string) UnitResult {
	res := UnitResult{Input: input}
	fail := func(code, message string) UnitResult {
		res.Error = &CLIError{Code: code, Message: message}
		return res
	}

	unit, err := LoadInput(ctx, input, p.skeletons, p.logger)
	if err != nil {
		return fail(errorCode(err, ErrCodeGeneric), errorMessage(err))
	}
	res.Unit = unit.Name

	out, err := p.analyzer.Analyze(unit)
	if err != nil {
		var fatal *analysis.FatalError
		if errors.As(err, &fatal) {
			return fail(fatal.Code, fatal.Error())
		}
		return fail(ErrCodeGeneric, err.Error())
	}
	res.Diagnostics = out.Diagnostics

	m := out.Manifest
	m.Backends = p.backends
	res.Manifest = &m

	fp, err := ir.Fingerprint(&m)
	if err != nil {
		return fail(ErrCodeGeneric, err.Error())
	}
	res.Run = fp

	var digest bytes.Buffer
	targets := []codegen.Target{&codegen.DigestTarget{W: &digest}}
	if path, ok := p.outputs[input]; ok {
		targets = append(targets, &codegen.ManifestTarget{Path: path})
		res.Output = path
	}
	if p.store != nil {
		targets = append(targets, p.store)
	}

	if err := codegen.NewDispatcher(p.logger, targets...).Dispatch(ctx, &m); err != nil {
		return fail(ErrCodeWriteFailed, err.Error())
	}
	res.digest = digest.String()
	return res
}

// assignOutputs maps each input to its manifest path. A single input
// writes to output itself unless output is a directory (an existing one,
// or a path ending in a separator); several inputs always write
// <output>/<name>.manifest.json.
func assignOutputs(output string, inputs []string) (map[string]string, error) {
	out := make(map[string]string, len(inputs))
	if output == "" {
		return out, nil
	}

	isDir := strings.HasSuffix(output, string(filepath.Separator)) || strings.HasSuffix(output, "/")
	if info, err := os.Stat(output); err == nil && info.IsDir() {
		isDir = true
	}

	if len(inputs) == 1 && !isDir {
		out[inputs[0]] = output
		return out, nil
	}

	taken := make(map[string]string, len(inputs))
	for _, in := range inputs {
		base := filepath.Base(in)
		name := strings.TrimSuffix(base, filepath.Ext(base)) + ".manifest.json"
		if prev, ok := taken[name]; ok {
			return nil, fmt.Errorf("inputs %s and %s would both write %s", prev, in, name)
		}
		taken[name] = in
		out[in] = filepath.Join(output, name)
	}
	return out, nil
}

// printUnit renders one result in text form.
func printUnit(f *OutputFormatter, r UnitResult) {
	w := f.Writer
	if r.Error != nil {
		fmt.Fprintf(w, "✗ %s\n", r.Input)
		fmt.Fprintf(w, "  [%s] %s\n", r.Error.Code, r.Error.Message)
		return
	}

	fmt.Fprintf(w, "✓ %s: %d instance(s), %d user function(s)\n",
		r.Input, len(r.Manifest.Instances), len(r.Manifest.Functions))
	for _, d := range r.Diagnostics {
		fmt.Fprintf(w, "  warning %s\n", d)
	}
	if r.Output != "" {
		fmt.Fprintf(w, "  wrote %s\n", r.Output)
	}
	f.VerboseLog("run %s", r.Run)
	fmt.Fprint(w, r.digest)
}
