package ast

import "fmt"

// NodeID is the identifier a front-end assigns to a node. It is unique
// within one translation unit.
type NodeID string

// Pos is a source position. Line and Col are 1-based; the zero value is
// an unknown position.
type Pos struct {
	File string `json:"file,omitempty"`
	Line int    `json:"line,omitempty"`
	Col  int    `json:"col,omitempty"`
}

// IsValid reports whether the position carries a line number.
func (p Pos) IsValid() bool {
	return p.Line > 0
}

func (p Pos) String() string {
	if !p.IsValid() {
		if p.File != "" {
			return p.File
		}
		return "-"
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
}

// Node is implemented by every declaration, statement and expression.
type Node interface {
	NodeID() NodeID
	Pos() Pos
	aNode()
}

// Base carries the identity and position shared by all nodes.
type Base struct {
	ID  NodeID
	Loc Pos
}

func (b *Base) NodeID() NodeID { return b.ID }
func (b *Base) Pos() Pos       { return b.Loc }
func (b *Base) aNode()         {}

// Unit is one translation unit: the top-level declarations in source order.
type Unit struct {
	Name  string
	Decls []Decl
}
