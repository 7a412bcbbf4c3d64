package ast

import (
	"fmt"
	"strings"
)

// JSXName is a (possibly dotted or namespaced) element/attribute name, e.g.
// `div`, `My.Component`, `svg:path`.
type JSXName struct {
	Parts []string
	Pos   Pos
}

func (n *JSXName) String() string { return strings.Join(n.Parts, ".") }

// IsLowercase reports whether the name starts with a lowercase letter,
// i.e. denotes a host element rather than a component reference.
func (n *JSXName) IsLowercase() bool {
	if len(n.Parts) == 0 || n.Parts[0] == "" {
		return false
	}
	c := n.Parts[0][0]
	return c >= 'a' && c <= 'z'
}

// JSXAttribute is `name={value}`, `name="literal"`, or the bare `{...spread}`.
type JSXAttribute struct {
	Name   string // empty when Spread != nil
	Value  Expr   // nil for boolean-shorthand attributes (`disabled`)
	Spread Expr   // set for `{...expr}` spread attributes
	Pos    Pos
}

// JSXExpressionContainer is `{expr}` appearing as a child or attribute value.
type JSXExpressionContainer struct {
	Expr Expr
	Pos  Pos
}

func (j *JSXExpressionContainer) exprNode()      {}
func (j *JSXExpressionContainer) Position() Pos  { return j.Pos }
func (j *JSXExpressionContainer) String() string { return "{" + j.Expr.String() + "}" }

// JSXText is literal text between JSX tags.
type JSXText struct {
	Value string
	Pos   Pos
}

func (j *JSXText) exprNode()      {}
func (j *JSXText) Position() Pos  { return j.Pos }
func (j *JSXText) String() string { return j.Value }

// JSXElement is `<Name attr=...>children</Name>` or its self-closing form.
type JSXElement struct {
	Name       *JSXName
	Attributes []*JSXAttribute
	Children   []Expr // *JSXElement, *JSXFragment, *JSXText, *JSXExpressionContainer
	SelfClose  bool
	Pos        Pos
}

func (j *JSXElement) exprNode()     {}
func (j *JSXElement) Position() Pos { return j.Pos }
func (j *JSXElement) String() string {
	attrs := make([]string, len(j.Attributes))
	for i, a := range j.Attributes {
		switch {
		case a.Spread != nil:
			attrs[i] = "{..." + a.Spread.String() + "}"
		case a.Value == nil:
			attrs[i] = a.Name
		default:
			if lit, ok := a.Value.(*Literal); ok && lit.Kind == StringLit {
				attrs[i] = fmt.Sprintf("%s=%s", a.Name, lit.Value)
				continue
			}
			attrs[i] = fmt.Sprintf("%s={%s}", a.Name, a.Value)
		}
	}
	open := "<" + j.Name.String()
	if len(attrs) > 0 {
		open += " " + strings.Join(attrs, " ")
	}
	if j.SelfClose {
		return open + " />"
	}
	var b strings.Builder
	b.WriteString(open + ">")
	for _, c := range j.Children {
		b.WriteString(c.String())
	}
	b.WriteString("</" + j.Name.String() + ">")
	return b.String()
}

// Attr returns the named attribute, or nil if absent.
func (j *JSXElement) Attr(name string) *JSXAttribute {
	for _, a := range j.Attributes {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// JSXFragment is `<>children</>`.
type JSXFragment struct {
	Children []Expr
	Pos      Pos
}

func (j *JSXFragment) exprNode()     {}
func (j *JSXFragment) Position() Pos { return j.Pos }
func (j *JSXFragment) String() string {
	var b strings.Builder
	b.WriteString("<>")
	for _, c := range j.Children {
		b.WriteString(c.String())
	}
	b.WriteString("</>")
	return b.String()
}
