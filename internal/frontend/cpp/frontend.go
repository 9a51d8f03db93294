package cpp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/cpp"
	"go.uber.org/zap"

	"github.com/roach88/skelc/internal/ast"
	"github.com/roach88/skelc/internal/skeleton"
)

// Extensions lists the source file extensions the front-end accepts.
var Extensions = []string{".cpp", ".cc", ".cxx", ".hpp", ".h"}

// IsSource reports whether path looks like a C++ source file.
func IsSource(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// SyntaxError reports the first region tree-sitter could not parse.
type SyntaxError struct {
	Pos  ast.Pos
	Text string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: syntax error near %q", e.Pos, e.Text)
}

// Frontend lowers C++ source into typed ASTs.
type Frontend struct {
	skeletons *skeleton.Registry
	logger    *zap.Logger
}

// New creates a front-end that recognizes the factories of skeletons.
func New(skeletons *skeleton.Registry, logger *zap.Logger) *Frontend {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Frontend{skeletons: skeletons, logger: logger}
}

// ParseFile reads and lowers the file at path. The unit is named after
// the file's base name.
func (f *Frontend) ParseFile(ctx context.Context, path string) (*ast.Unit, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading source: %w", err)
	}
	return f.Parse(ctx, filepath.Base(path), src)
}

// Parse lowers src as translation unit name.
func (f *Frontend) Parse(ctx context.Context, name string, src []byte) (*ast.Unit, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(cpp.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		if bad := firstError(root); bad != nil {
			return nil, &SyntaxError{Pos: pointPos(name, bad), Text: snippet(bad.Content(src))}
		}
	}

	l := newLowerer(name, src, f.skeletons, f.logger.With(zap.String("unit", name)))
	unit := &ast.Unit{Name: name, Decls: l.topLevel(root)}

	f.logger.Debug("lowered translation unit",
		zap.String("unit", name),
		zap.Int("decls", len(unit.Decls)),
		zap.Int("factories", len(l.factories)),
	)
	return unit, nil
}

// firstError finds the first ERROR or missing node in document order.
func firstError(n *sitter.Node) *sitter.Node {
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c == nil || !c.HasError() && !c.IsMissing() {
			continue
		}
		if bad := firstError(c); bad != nil {
			return bad
		}
	}
	return nil
}

func pointPos(file string, n *sitter.Node) ast.Pos {
	p := n.StartPoint()
	return ast.Pos{File: file, Line: int(p.Row) + 1, Col: int(p.Column) + 1}
}

func snippet(s string) string {
	const maxLen = 32
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}
