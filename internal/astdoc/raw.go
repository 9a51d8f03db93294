package astdoc

// rawPos is a node location. File defaults to the unit name.
type rawPos struct {
	File string `json:"file,omitempty" yaml:"file,omitempty"`
	Line int    `json:"line" yaml:"line"`
	Col  int    `json:"col,omitempty" yaml:"col,omitempty"`
}

type rawCapture struct {
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
	ByRef   bool   `json:"by_ref,omitempty" yaml:"by_ref,omitempty"`
	Default bool   `json:"default,omitempty" yaml:"default,omitempty"`
}

type rawTemplateArg struct {
	Type *rawType `json:"type,omitempty" yaml:"type,omitempty"`
	Expr *rawNode `json:"expr,omitempty" yaml:"expr,omitempty"`
}

type rawType struct {
	Kind       string           `json:"kind" yaml:"kind"`
	Name       string           `json:"name,omitempty" yaml:"name,omitempty"`
	Decl       string           `json:"decl,omitempty" yaml:"decl,omitempty"`
	Template   string           `json:"template,omitempty" yaml:"template,omitempty"`
	Qualified  string           `json:"qualified,omitempty" yaml:"qualified,omitempty"`
	Qualifier  string           `json:"qualifier,omitempty" yaml:"qualifier,omitempty"`
	Args       []rawTemplateArg `json:"args,omitempty" yaml:"args,omitempty"`
	Underlying *rawType         `json:"underlying,omitempty" yaml:"underlying,omitempty"`
	Named      *rawType         `json:"named,omitempty" yaml:"named,omitempty"`
	Pointee    *rawType         `json:"pointee,omitempty" yaml:"pointee,omitempty"`
	Referee    *rawType         `json:"referee,omitempty" yaml:"referee,omitempty"`
	Inner      *rawType         `json:"inner,omitempty" yaml:"inner,omitempty"`
}

// rawNode is the union of every declaration, statement and expression
// field. Which fields apply depends on Kind.
type rawNode struct {
	Kind string  `json:"kind" yaml:"kind"`
	ID   string  `json:"id,omitempty" yaml:"id,omitempty"`
	Loc  *rawPos `json:"loc,omitempty" yaml:"loc,omitempty"`

	// declarations
	Name         string     `json:"name,omitempty" yaml:"name,omitempty"`
	Qualified    string     `json:"qualified,omitempty" yaml:"qualified,omitempty"`
	Type         *rawType   `json:"type,omitempty" yaml:"type,omitempty"`
	Definition   string     `json:"definition,omitempty" yaml:"definition,omitempty"`
	Constexpr    bool       `json:"constexpr,omitempty" yaml:"constexpr,omitempty"`
	Attrs        []string   `json:"attrs,omitempty" yaml:"attrs,omitempty"`
	Params       []*rawNode `json:"params,omitempty" yaml:"params,omitempty"`
	Result       *rawType   `json:"result,omitempty" yaml:"result,omitempty"`
	TemplateArgs []string   `json:"template_args,omitempty" yaml:"template_args,omitempty"`
	Body         *rawNode   `json:"body,omitempty" yaml:"body,omitempty"`
	Fields       []*rawNode `json:"fields,omitempty" yaml:"fields,omitempty"`
	External     bool       `json:"external,omitempty" yaml:"external,omitempty"`
	Decls        []*rawNode `json:"decls,omitempty" yaml:"decls,omitempty"`

	// statements; Init is the initializer of a VarDecl or the init
	// statement of a LoopStmt
	Init  *rawNode   `json:"init,omitempty" yaml:"init,omitempty"`
	Stmts []*rawNode `json:"stmts,omitempty" yaml:"stmts,omitempty"`
	X     *rawNode   `json:"x,omitempty" yaml:"x,omitempty"`
	Cond  *rawNode   `json:"cond,omitempty" yaml:"cond,omitempty"`
	Then  *rawNode   `json:"then,omitempty" yaml:"then,omitempty"`
	Else  *rawNode   `json:"else,omitempty" yaml:"else,omitempty"`

	// expressions
	Sub          *rawNode     `json:"sub,omitempty" yaml:"sub,omitempty"`
	Construction string       `json:"construction,omitempty" yaml:"construction,omitempty"`
	Args         []*rawNode   `json:"args,omitempty" yaml:"args,omitempty"`
	Callee       *rawNode     `json:"callee,omitempty" yaml:"callee,omitempty"`
	Cast         string       `json:"cast,omitempty" yaml:"cast,omitempty"`
	Op           string       `json:"op,omitempty" yaml:"op,omitempty"`
	LHS          *rawNode     `json:"lhs,omitempty" yaml:"lhs,omitempty"`
	RHS          *rawNode     `json:"rhs,omitempty" yaml:"rhs,omitempty"`
	Ref          string       `json:"ref,omitempty" yaml:"ref,omitempty"`
	Captures     []rawCapture `json:"captures,omitempty" yaml:"captures,omitempty"`
	CallOperator *rawNode     `json:"call_operator,omitempty" yaml:"call_operator,omitempty"`
	Value        int64        `json:"value,omitempty" yaml:"value,omitempty"`
	Children     []*rawNode   `json:"children,omitempty" yaml:"children,omitempty"`
}

// rawUnit is the document root.
type rawUnit struct {
	Unit  string     `json:"unit" yaml:"unit"`
	Decls []*rawNode `json:"decls" yaml:"decls"`
}
