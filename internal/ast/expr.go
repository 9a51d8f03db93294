package ast

// Expr is an expression node.
type Expr interface {
	Node
	aExpr()
}

type exprNode struct{}

func (exprNode) aExpr() {}

// ConstructionKind says what a construct expression builds.
type ConstructionKind int

const (
	// Complete constructs a complete object of the named type.
	Complete ConstructionKind = iota
	// Delegating forwards to another constructor of the same class.
	Delegating
	// NonVirtualBase constructs a non-virtual base subobject.
	NonVirtualBase
	// VirtualBase constructs a virtual base subobject.
	VirtualBase
)

func (k ConstructionKind) String() string {
	switch k {
	case Complete:
		return "complete"
	case Delegating:
		return "delegating"
	case NonVirtualBase:
		return "non-virtual-base"
	case VirtualBase:
		return "virtual-base"
	default:
		return "unknown"
	}
}

// ExprWithCleanups wraps a full expression that needs temporaries destroyed.
type ExprWithCleanups struct {
	Base
	exprNode
	Sub Expr
}

// MaterializeTemporaryExpr turns a prvalue into a temporary object.
type MaterializeTemporaryExpr struct {
	Base
	exprNode
	Sub Expr
}

// BindTemporaryExpr binds a temporary to its destructor.
type BindTemporaryExpr struct {
	Base
	exprNode
	Sub Expr
}

// ConstructExpr is a constructor call.
type ConstructExpr struct {
	Base
	exprNode
	Construction ConstructionKind
	Type         Type
	Args         []Expr
}

// CallExpr is a function call.
type CallExpr struct {
	Base
	exprNode
	Callee Expr
	Args   []Expr
}

// ImplicitCastExpr is a conversion the front-end inserted.
type ImplicitCastExpr struct {
	Base
	exprNode
	Cast string
	Sub  Expr
}

// UnaryOperator is a prefix or postfix operator; Op is the spelling.
type UnaryOperator struct {
	Base
	exprNode
	Op  string
	Sub Expr
}

// BinaryOperator is an infix operator; Op is the spelling.
type BinaryOperator struct {
	Base
	exprNode
	Op  string
	LHS Expr
	RHS Expr
}

// ParenExpr is a parenthesized expression.
type ParenExpr struct {
	Base
	exprNode
	Sub Expr
}

// DeclRefExpr names a declaration. Decl is resolved by the front-end.
type DeclRefExpr struct {
	Base
	exprNode
	Ref  NodeID
	Decl Decl
}

// Capture is one entry of a closure capture list. Default marks a
// capture-default ("=" or "&").
type Capture struct {
	Name    string
	ByRef   bool
	Default bool
}

// LambdaExpr is a closure literal.
type LambdaExpr struct {
	Base
	exprNode
	Captures     []Capture
	CallOperator *FunctionDecl
}

// IntegerLiteral is an integer constant.
type IntegerLiteral struct {
	Base
	exprNode
	Value int64
}

// OpaqueExpr stands for any expression kind the analysis does not model.
// Children keeps nested expressions reachable for walks.
type OpaqueExpr struct {
	Base
	exprNode
	Kind     string
	Children []Expr
}
