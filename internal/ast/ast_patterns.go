package ast

import (
	"fmt"
	"strings"
)

// ObjectPatternProp is one `name`, `name: alias`, or `name: alias = default`
// field of an object destructuring pattern.
type ObjectPatternProp struct {
	Key      string  // source property name
	Value    Pattern // binding pattern (often *Identifier, possibly nested)
	Default  Expr    // nil if no default
	Computed bool
	Pos      Pos
}

// ObjectPattern is `{ a, b: c, d = 1 }` used as a binding target.
type ObjectPattern struct {
	Props []*ObjectPatternProp
	Rest  Pattern // `...rest`, nil if absent
	Pos   Pos
}

func (o *ObjectPattern) Position() Pos { return o.Pos }
func (o *ObjectPattern) patternNode()  {}
func (o *ObjectPattern) String() string {
	parts := make([]string, 0, len(o.Props))
	for _, p := range o.Props {
		s := p.Key
		if id, ok := p.Value.(*Identifier); !ok || id.Name != p.Key {
			s += ": " + p.Value.String()
		}
		if p.Default != nil {
			s += " = " + p.Default.String()
		}
		parts = append(parts, s)
	}
	if o.Rest != nil {
		parts = append(parts, "..."+o.Rest.String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// ArrayPattern is `[a, , b = 1, ...rest]` used as a binding target.
type ArrayPattern struct {
	Elements []Pattern // nil entries are elisions
	Defaults []Expr    // parallel to Elements; nil if no default for that slot
	Rest     Pattern
	Pos      Pos
}

func (a *ArrayPattern) Position() Pos { return a.Pos }
func (a *ArrayPattern) patternNode()  {}
func (a *ArrayPattern) String() string {
	parts := make([]string, 0, len(a.Elements))
	for i, e := range a.Elements {
		if e == nil {
			parts = append(parts, "")
			continue
		}
		s := e.String()
		if i < len(a.Defaults) && a.Defaults[i] != nil {
			s += " = " + a.Defaults[i].String()
		}
		parts = append(parts, s)
	}
	if a.Rest != nil {
		parts = append(parts, "..."+a.Rest.String())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// AssignmentPattern is `pattern = default`, the form a bare identifier or
// nested pattern takes as a function parameter with a default value.
type AssignmentPattern struct {
	Target  Pattern
	Default Expr
	Pos     Pos
}

func (a *AssignmentPattern) Position() Pos  { return a.Pos }
func (a *AssignmentPattern) patternNode()   {}
func (a *AssignmentPattern) String() string { return fmt.Sprintf("%s = %s", a.Target, a.Default) }

// RestElement is `...name` in a parameter list or array/object pattern.
type RestElement struct {
	Target Pattern
	Pos    Pos
}

func (r *RestElement) Position() Pos  { return r.Pos }
func (r *RestElement) patternNode()   {}
func (r *RestElement) String() string { return "..." + r.Target.String() }

// MemberPattern is an (invalid-as-declaration) destructuring target that is
// itself a member expression, e.g. `({ a: obj.a } = src)`. Surfaced so the
// semantic validator can reject `$state` destructuring onto a non-identifier
// with a precise node to point at.
type MemberPattern struct {
	Expr *MemberExpr
	Pos  Pos
}

func (m *MemberPattern) Position() Pos  { return m.Pos }
func (m *MemberPattern) patternNode()   {}
func (m *MemberPattern) String() string { return m.Expr.String() }
