package codegen

import (
	"fmt"
	"slices"
	"strings"
)

// Backend names an execution model code can be generated for.
type Backend string

const (
	Sequential Backend = "sequential"
	OpenMP     Backend = "openmp"
	CUDA       Backend = "cuda"
	OpenCL     Backend = "opencl"
	MPI        Backend = "mpi"
)

// Backends lists every known backend.
var Backends = []Backend{Sequential, OpenMP, CUDA, OpenCL, MPI}

// UnknownBackendError reports a backend name outside Backends.
type UnknownBackendError struct {
	Name string
}

func (e *UnknownBackendError) Error() string {
	known := make([]string, len(Backends))
	for i, b := range Backends {
		known[i] = string(b)
	}
	return fmt.Sprintf("unknown backend %q (known: %s)", e.Name, strings.Join(known, ", "))
}

// ParseBackends validates names case-insensitively and returns the set
// sorted and without duplicates. No names selects Sequential.
func ParseBackends(names []string) ([]Backend, error) {
	if len(names) == 0 {
		return []Backend{Sequential}, nil
	}

	var out []Backend
	for _, n := range names {
		b := Backend(strings.ToLower(strings.TrimSpace(n)))
		if !slices.Contains(Backends, b) {
			return nil, &UnknownBackendError{Name: n}
		}
		if !slices.Contains(out, b) {
			out = append(out, b)
		}
	}
	slices.Sort(out)
	return out, nil
}

// Names converts backends to the strings recorded in a manifest.
func Names(bs []Backend) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = string(b)
	}
	return out
}
