package cpp

import (
	"strings"

	"github.com/roach88/skelc/internal/ast"
)

// scope is one lexical level of name bindings.
type scope struct {
	parent     *scope
	names      map[string]ast.Decl
	typeParams map[string]bool
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, names: make(map[string]ast.Decl), typeParams: make(map[string]bool)}
}

func (s *scope) define(name string, d ast.Decl) {
	if name != "" {
		s.names[name] = d
	}
}

func (s *scope) lookup(name string) ast.Decl {
	for sc := s; sc != nil; sc = sc.parent {
		if d, ok := sc.names[name]; ok {
			return d
		}
	}
	return nil
}

func (s *scope) isTypeParam(name string) bool {
	for sc := s; sc != nil; sc = sc.parent {
		if sc.typeParams[name] {
			return true
		}
	}
	return false
}

// lastSegment returns the unqualified part of a::b::c.
func lastSegment(name string) string {
	if i := strings.LastIndex(name, "::"); i >= 0 {
		return name[i+2:]
	}
	return name
}
