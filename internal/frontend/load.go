// Package frontend picks the reader for an input file. AST documents
// (.json, .yaml, .yml) are decoded; C++ sources are parsed and lowered.
package frontend

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/roach88/skelc/internal/ast"
	"github.com/roach88/skelc/internal/astdoc"
	"github.com/roach88/skelc/internal/frontend/cpp"
	"github.com/roach88/skelc/internal/skeleton"
)

// UnsupportedError is returned for an input no front-end accepts.
type UnsupportedError struct {
	Path string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s: unsupported input (want a C++ source or a .json/.yaml AST document)", e.Path)
}

// IsDocument reports whether path names an AST document.
func IsDocument(path string) bool {
	_, err := astdoc.FormatFor(path)
	return err == nil
}

// Supported reports whether some front-end accepts path.
func Supported(path string) bool {
	return IsDocument(path) || cpp.IsSource(path)
}

// Load reads one translation unit from path.
func Load(ctx context.Context, path string, skeletons *skeleton.Registry, logger *zap.Logger) (*ast.Unit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch {
	case IsDocument(path):
		return astdoc.DecodeFile(path)
	case cpp.IsSource(path):
		return cpp.New(skeletons, logger).ParseFile(ctx, path)
	default:
		return nil, &UnsupportedError{Path: path}
	}
}

// Expand turns the given files and directories into a list of inputs.
// Files are kept as given; directories contribute every supported file
// beneath them in lexical order. Hidden directories are skipped.
func Expand(paths []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	add := func(p string) {
		clean := filepath.Clean(p)
		if !seen[clean] {
			seen[clean] = true
			out = append(out, clean)
		}
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", p, err)
		}
		if !info.IsDir() {
			add(p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != p && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if Supported(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", p, err)
		}
	}
	return out, nil
}
