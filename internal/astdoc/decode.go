package astdoc

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/roach88/skelc/internal/ast"
)

// Format is the encoding of an AST document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported AST document extension %q (want .json, .yaml or .yml)", filepath.Ext(path))
	}
}

// DecodeError locates a problem inside a document.
type DecodeError struct {
	Path    string
	Message string
}

func (e *DecodeError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return e.Path + ": " + e.Message
}

func errorf(path, format string, args ...any) error {
	return &DecodeError{Path: path, Message: fmt.Sprintf(format, args...)}
}

// DecodeFile reads and decodes the document at path. A document without
// a unit name is named after the file.
func DecodeFile(path string) (*ast.Unit, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading AST document: %w", err)
	}
	return decode(data, format, filepath.Base(path))
}

// Decode decodes one document. The document must name its unit.
func Decode(data []byte, format Format) (*ast.Unit, error) {
	return decode(data, format, "")
}

func decode(data []byte, format Format, fallbackName string) (*ast.Unit, error) {
	var raw rawUnit

	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&raw); err != nil {
			return nil, &DecodeError{Message: fmt.Sprintf("invalid JSON: %v", err)}
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&raw); err != nil {
			return nil, &DecodeError{Message: fmt.Sprintf("invalid YAML: %v", err)}
		}
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}

	if raw.Unit == "" {
		raw.Unit = fallbackName
	}
	if raw.Unit == "" {
		return nil, errorf("unit", "unit name is required")
	}

	d := &decoder{
		unit:  raw.Unit,
		decls: make(map[ast.NodeID]ast.Decl),
	}

	unit := &ast.Unit{Name: raw.Unit, Decls: make([]ast.Decl, 0, len(raw.Decls))}
	for i, n := range raw.Decls {
		decl, err := d.decl(n, fmt.Sprintf("decls[%d]", i))
		if err != nil {
			return nil, err
		}
		unit.Decls = append(unit.Decls, decl)
	}

	if err := d.resolve(); err != nil {
		return nil, err
	}
	return unit, nil
}
