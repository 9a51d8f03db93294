package ast

import (
	"strconv"
	"strings"
)

// Type is a resolved type. Types are values, not nodes: they carry no
// identity of their own; RecordType points at the declaring node.
type Type interface {
	String() string
	aType()
}

type typeNode struct{}

func (typeNode) aType() {}

// BuiltinType is a fundamental type such as int or float.
type BuiltinType struct {
	typeNode
	Name string
}

func (t *BuiltinType) String() string { return t.Name }

// RecordType refers to a struct or class declaration.
type RecordType struct {
	typeNode
	Decl *RecordDecl
}

func (t *RecordType) String() string {
	if t.Decl == nil {
		return "<record>"
	}
	if t.Decl.Qualified != "" {
		return t.Decl.Qualified
	}
	return t.Decl.Name
}

// TemplateArg is either a type argument or a non-type (expression)
// argument; exactly one field is set.
type TemplateArg struct {
	Type Type
	Expr Expr
}

func (a TemplateArg) String() string {
	switch {
	case a.Type != nil:
		return a.Type.String()
	case a.Expr != nil:
		if v, ok := EvalInt(a.Expr); ok {
			return strconv.FormatInt(v, 10)
		}
		return "<expr>"
	default:
		return "<none>"
	}
}

// TemplateSpecializationType is Template<Args...>. Decl is the
// instantiated record when the front-end knows it.
type TemplateSpecializationType struct {
	typeNode
	Template  string
	Qualified string
	Args      []TemplateArg
	Decl      *RecordDecl
}

func (t *TemplateSpecializationType) String() string {
	name := t.Template
	if t.Qualified != "" {
		name = t.Qualified
	}
	args := make([]string, len(t.Args))
	for i, a := range t.Args {
		args[i] = a.String()
	}
	return name + "<" + strings.Join(args, ", ") + ">"
}

// DecltypeType is decltype(expr) with its resolved underlying type.
type DecltypeType struct {
	typeNode
	Underlying Type
}

func (t *DecltypeType) String() string {
	if t.Underlying == nil {
		return "decltype(<unresolved>)"
	}
	return "decltype(" + t.Underlying.String() + ")"
}

// ElaboratedType is a type written with a qualifier or tag keyword.
type ElaboratedType struct {
	typeNode
	Qualifier string
	Named     Type
}

func (t *ElaboratedType) String() string {
	if t.Named == nil {
		return t.Qualifier
	}
	return t.Named.String()
}

// PointerType is Pointee *.
type PointerType struct {
	typeNode
	Pointee Type
}

func (t *PointerType) String() string { return typeString(t.Pointee) + " *" }

// ReferenceType is Referee & (or && when RValue).
type ReferenceType struct {
	typeNode
	Referee Type
	RValue  bool
}

func (t *ReferenceType) String() string {
	if t.RValue {
		return typeString(t.Referee) + " &&"
	}
	return typeString(t.Referee) + " &"
}

// ConstType is a const-qualified type.
type ConstType struct {
	typeNode
	Inner Type
}

func (t *ConstType) String() string { return "const " + typeString(t.Inner) }

// OpaqueType is a type the front-end could not resolve further, such as a
// template parameter.
type OpaqueType struct {
	typeNode
	Name string
}

func (t *OpaqueType) String() string { return t.Name }

func typeString(t Type) string {
	if t == nil {
		return "void"
	}
	return t.String()
}

// TypeString renders t, treating nil as void.
func TypeString(t Type) string {
	return typeString(t)
}

// StripTypeSugar removes at most one decltype layer and then at most one
// elaborated layer.
func StripTypeSugar(t Type) Type {
	if d, ok := t.(*DecltypeType); ok {
		t = d.Underlying
	}
	if e, ok := t.(*ElaboratedType); ok {
		t = e.Named
	}
	return t
}

// StripQualifiers removes every const, pointer, reference, decltype and
// elaborated layer, leaving the named type underneath.
func StripQualifiers(t Type) Type {
	for {
		switch v := t.(type) {
		case *ConstType:
			t = v.Inner
		case *PointerType:
			t = v.Pointee
		case *ReferenceType:
			t = v.Referee
		case *DecltypeType:
			t = v.Underlying
		case *ElaboratedType:
			t = v.Named
		default:
			return t
		}
	}
}

// RecordOf resolves t to its record declaration, or nil when t does not
// name a record.
func RecordOf(t Type) *RecordDecl {
	switch v := StripQualifiers(t).(type) {
	case *RecordType:
		return v.Decl
	case *TemplateSpecializationType:
		return v.Decl
	default:
		return nil
	}
}
