package ast

// Decl is a declaration node.
type Decl interface {
	Node
	aDecl()
}

type declNode struct{}

func (declNode) aDecl() {}

// DefinitionKind mirrors how completely a variable declaration defines
// its entity.
type DefinitionKind int

const (
	// DeclarationOnly is an extern-style declaration without storage.
	DeclarationOnly DefinitionKind = iota
	// TentativeDefinition is a definition that a later one may complete.
	TentativeDefinition
	// Definition is a full definition.
	Definition
)

func (k DefinitionKind) String() string {
	switch k {
	case DeclarationOnly:
		return "declaration"
	case TentativeDefinition:
		return "tentative"
	case Definition:
		return "definition"
	default:
		return "unknown"
	}
}

// Attr is a marker attribute attached to a declaration.
type Attr string

// Marker attributes understood by the analysis.
const (
	AttrUserConstant Attr = "skepu::userconstant"
	AttrUserType     Attr = "skepu::usertype"
	AttrUserFunction Attr = "skepu::userfunction"
)

// VarDecl is a variable or parameter declaration.
type VarDecl struct {
	Base
	declNode
	Name       string
	Type       Type
	Init       Expr
	Param      bool
	Definition DefinitionKind
	Constexpr  bool
	Attrs      []Attr
}

// FunctionDecl is a function, a function template specialization, or the
// call operator of a closure (Method set).
type FunctionDecl struct {
	Base
	declNode
	Name         string
	Qualified    string
	Params       []*VarDecl
	Result       Type
	TemplateArgs []string
	Body         *CompoundStmt
	Method       bool
}

// QualifiedName returns the qualified name when known, else the plain name.
func (f *FunctionDecl) QualifiedName() string {
	if f.Qualified != "" {
		return f.Qualified
	}
	return f.Name
}

// RecordDecl is a struct or class definition. External records come from
// headers the front-end did not see in full.
type RecordDecl struct {
	Base
	declNode
	Name      string
	Qualified string
	Fields    []*FieldDecl
	External  bool
}

// FieldDecl is a data member of a record.
type FieldDecl struct {
	Base
	declNode
	Name string
	Type Type
}

// NamespaceDecl groups declarations under a namespace name.
type NamespaceDecl struct {
	Base
	declNode
	Name  string
	Decls []Decl
}

// HasAttr reports whether d carries the marker attribute a.
func HasAttr(d *VarDecl, a Attr) bool {
	for _, attr := range d.Attrs {
		if attr == a {
			return true
		}
	}
	return false
}
