package ast

// Stmt is a statement node.
type Stmt interface {
	Node
	aStmt()
}

type stmtNode struct{}

func (stmtNode) aStmt() {}

// CompoundStmt is a braced block.
type CompoundStmt struct {
	Base
	stmtNode
	Stmts []Stmt
}

// DeclStmt introduces local declarations.
type DeclStmt struct {
	Base
	stmtNode
	Decls []Decl
}

// ExprStmt evaluates an expression.
type ExprStmt struct {
	Base
	stmtNode
	X Expr
}

// ReturnStmt returns X (nil for a bare return).
type ReturnStmt struct {
	Base
	stmtNode
	X Expr
}

// IfStmt is a conditional. Else may be nil.
type IfStmt struct {
	Base
	stmtNode
	Cond Expr
	Then Stmt
	Else Stmt
}

// LoopStmt covers for, while and do loops. Any part may be nil.
type LoopStmt struct {
	Base
	stmtNode
	Init Stmt
	Cond Expr
	Body Stmt
}
