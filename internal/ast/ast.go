// Package ast defines the surface syntax tree for the Fict source dialect:
// JavaScript/TypeScript extended with the $state/$effect/$memo macros and
// JSX markup. Parsing itself lives in internal/parser; this package only
// describes the shapes a parse can produce.
package ast

import (
	"fmt"
	"strings"
)

// Node is the base interface for every AST node.
type Node interface {
	String() string
	Position() Pos
}

// Pos is a single point in source.
type Pos struct {
	Line   int
	Column int
	File   string
	Offset int
}

func (p Pos) String() string { return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column) }

// Span is a half-open source range.
type Span struct {
	Start Pos
	End   Pos
}

// Expr is any expression node.
type Expr interface {
	Node
	exprNode()
}

// Stmt is any statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Pattern is any binding-pattern node (identifier, destructuring, default, rest).
type Pattern interface {
	Node
	patternNode()
}

// File is one compilation unit.
type File struct {
	Path string
	Body []Stmt
	Pos  Pos
}

func (f *File) Position() Pos { return f.Pos }
func (f *File) String() string {
	parts := make([]string, 0, len(f.Body))
	for _, s := range f.Body {
		parts = append(parts, s.String())
	}
	return strings.Join(parts, "\n")
}

// ---------------------------------------------------------------------
// Identifiers & literals
// ---------------------------------------------------------------------

// Identifier is a bare name reference.
type Identifier struct {
	Name string
	Pos  Pos
}

func (i *Identifier) exprNode()      {}
func (i *Identifier) patternNode()   {}
func (i *Identifier) Position() Pos  { return i.Pos }
func (i *Identifier) String() string { return i.Name }

// LitKind classifies a Literal's Value.
type LitKind int

const (
	NumberLit LitKind = iota
	StringLit
	BoolLit
	NullLit
	UndefinedLit
	RegexLit
	BigIntLit
)

// Literal is a constant value.
type Literal struct {
	Kind  LitKind
	Value string // source text of the literal, verbatim (quotes/flags kept for strings/regex)
	Pos   Pos
}

func (l *Literal) exprNode()      {}
func (l *Literal) Position() Pos  { return l.Pos }
func (l *Literal) String() string { return l.Value }

// TemplateLiteral is a backtick string with interpolated expressions.
type TemplateLiteral struct {
	Quasis []string // raw text chunks, len(Quasis) == len(Exprs)+1
	Exprs  []Expr
	Pos    Pos
}

func (t *TemplateLiteral) exprNode()     {}
func (t *TemplateLiteral) Position() Pos { return t.Pos }
func (t *TemplateLiteral) String() string {
	var b strings.Builder
	b.WriteByte('`')
	for i, q := range t.Quasis {
		b.WriteString(q)
		if i < len(t.Exprs) {
			b.WriteString("${")
			b.WriteString(t.Exprs[i].String())
			b.WriteByte('}')
		}
	}
	b.WriteByte('`')
	return b.String()
}

// ArrayLiteral is `[a, b, ...c]`.
type ArrayLiteral struct {
	Elements []Expr // nil element = elision; *SpreadElement = spread
	Pos      Pos
}

func (a *ArrayLiteral) exprNode()     {}
func (a *ArrayLiteral) Position() Pos { return a.Pos }
func (a *ArrayLiteral) String() string {
	parts := make([]string, len(a.Elements))
	for i, e := range a.Elements {
		if e == nil {
			continue
		}
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// SpreadElement is `...expr` inside an array/call/object.
type SpreadElement struct {
	Argument Expr
	Pos      Pos
}

func (s *SpreadElement) exprNode()      {}
func (s *SpreadElement) Position() Pos  { return s.Pos }
func (s *SpreadElement) String() string { return "..." + s.Argument.String() }

// ObjectProperty is one `key: value` or shorthand `key` entry of an object literal.
type ObjectProperty struct {
	Key       Expr // *Identifier or *Literal (string) or computed Expr; nil for spread entries
	Value     Expr // nil for shorthand (Value == Key as identifier); *SpreadElement for spreads
	Computed  bool
	Shorthand bool
	Getter    bool // `get key() { return value }` accessor form
	Pos       Pos
}

// ObjectLiteral is `{ a, b: c, ...d }`.
type ObjectLiteral struct {
	Properties []*ObjectProperty
	Pos        Pos
}

func (o *ObjectLiteral) exprNode()     {}
func (o *ObjectLiteral) Position() Pos { return o.Pos }
func (o *ObjectLiteral) String() string {
	parts := make([]string, 0, len(o.Properties))
	for _, p := range o.Properties {
		switch {
		case p.Key == nil:
			parts = append(parts, p.Value.String()) // spread entry
		case p.Getter:
			parts = append(parts, fmt.Sprintf("get %s() { return %s; }", p.Key, p.Value))
		case p.Shorthand:
			parts = append(parts, p.Key.String())
		case p.Computed:
			parts = append(parts, fmt.Sprintf("[%s]: %s", p.Key, p.Value))
		default:
			parts = append(parts, fmt.Sprintf("%s: %s", p.Key, p.Value))
		}
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// ---------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------

// BinaryExpr is `a OP b`.
type BinaryExpr struct {
	Op    string
	Left  Expr
	Right Expr
	Pos   Pos
}

func (b *BinaryExpr) exprNode()      {}
func (b *BinaryExpr) Position() Pos  { return b.Pos }
func (b *BinaryExpr) String() string { return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right) }

// LogicalExpr is `a && b`, `a || b`, `a ?? b`.
type LogicalExpr struct {
	Op    string
	Left  Expr
	Right Expr
	Pos   Pos
}

func (l *LogicalExpr) exprNode()      {}
func (l *LogicalExpr) Position() Pos  { return l.Pos }
func (l *LogicalExpr) String() string { return fmt.Sprintf("(%s %s %s)", l.Left, l.Op, l.Right) }

// UnaryExpr is `!a`, `-a`, `typeof a`, etc.
type UnaryExpr struct {
	Op     string
	Arg    Expr
	Prefix bool
	Pos    Pos
}

func (u *UnaryExpr) exprNode()     {}
func (u *UnaryExpr) Position() Pos { return u.Pos }
func (u *UnaryExpr) String() string {
	op := u.Op
	if op == "typeof" || op == "void" || op == "delete" {
		op += " "
	}
	if u.Prefix {
		return op + u.Arg.String()
	}
	return u.Arg.String() + u.Op
}

// UpdateExpr is `a++`, `++a`, `a--`, `--a`.
type UpdateExpr struct {
	Op     string
	Arg    Expr
	Prefix bool
	Pos    Pos
}

func (u *UpdateExpr) exprNode()     {}
func (u *UpdateExpr) Position() Pos { return u.Pos }
func (u *UpdateExpr) String() string {
	if u.Prefix {
		return u.Op + u.Arg.String()
	}
	return u.Arg.String() + u.Op
}

// AssignmentExpr is `a = b`, `a += b`, `{a} = b`, etc.
type AssignmentExpr struct {
	Op     string // "=", "+=", "-=", ...
	Target Node   // Expr (identifier/member) or Pattern (destructuring)
	Value  Expr
	Pos    Pos
}

func (a *AssignmentExpr) exprNode()      {}
func (a *AssignmentExpr) Position() Pos  { return a.Pos }
func (a *AssignmentExpr) String() string { return fmt.Sprintf("%s %s %s", a.Target, a.Op, a.Value) }

// ConditionalExpr is `a ? b : c`.
type ConditionalExpr struct {
	Test       Expr
	Consequent Expr
	Alternate  Expr
	Pos        Pos
}

func (c *ConditionalExpr) exprNode()     {}
func (c *ConditionalExpr) Position() Pos { return c.Pos }
func (c *ConditionalExpr) String() string {
	return fmt.Sprintf("(%s ? %s : %s)", c.Test, c.Consequent, c.Alternate)
}

// MemberExpr is `a.b` or `a[b]`.
type MemberExpr struct {
	Object   Expr
	Property Expr // *Identifier when !Computed, arbitrary Expr when Computed
	Computed bool
	Optional bool // `a?.b`
	Pos      Pos
}

func (m *MemberExpr) exprNode()     {}
func (m *MemberExpr) Position() Pos { return m.Pos }
func (m *MemberExpr) String() string {
	if m.Computed {
		return fmt.Sprintf("%s[%s]", m.Object, m.Property)
	}
	return fmt.Sprintf("%s.%s", m.Object, m.Property)
}

// CallExpr is `callee(args...)`.
type CallExpr struct {
	Callee   Expr
	Args     []Expr
	Optional bool
	Pos      Pos
}

func (c *CallExpr) exprNode()     {}
func (c *CallExpr) Position() Pos { return c.Pos }
func (c *CallExpr) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.String()
	}
	callee := c.Callee.String()
	switch c.Callee.(type) {
	case *ArrowFunction, *FunctionExpr:
		callee = "(" + callee + ")" // immediately-invoked function needs parens
	}
	return fmt.Sprintf("%s(%s)", callee, strings.Join(parts, ", "))
}

// NewExpr is `new Ctor(args...)`.
type NewExpr struct {
	Callee Expr
	Args   []Expr
	Pos    Pos
}

func (n *NewExpr) exprNode()     {}
func (n *NewExpr) Position() Pos { return n.Pos }
func (n *NewExpr) String() string {
	parts := make([]string, len(n.Args))
	for i, a := range n.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("new %s(%s)", n.Callee, strings.Join(parts, ", "))
}

// SequenceExpr is `a, b, c`.
type SequenceExpr struct {
	Exprs []Expr
	Pos   Pos
}

func (s *SequenceExpr) exprNode()     {}
func (s *SequenceExpr) Position() Pos { return s.Pos }
func (s *SequenceExpr) String() string {
	parts := make([]string, len(s.Exprs))
	for i, e := range s.Exprs {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}

// ArrowFunction is `(params) => body`; Body is an Expr when ExprBody, else *BlockStmt.
type ArrowFunction struct {
	Params   []Pattern
	Body     Node
	ExprBody bool
	Async    bool
	Pos      Pos
}

func (a *ArrowFunction) exprNode()     {}
func (a *ArrowFunction) Position() Pos { return a.Pos }
func (a *ArrowFunction) String() string {
	parts := make([]string, len(a.Params))
	for i, p := range a.Params {
		parts[i] = p.String()
	}
	prefix := ""
	if a.Async {
		prefix = "async "
	}
	body := a.Body.String()
	if _, isObj := a.Body.(*ObjectLiteral); isObj && a.ExprBody {
		body = "(" + body + ")" // an unparenthesized object literal would parse as a block
	}
	return fmt.Sprintf("%s(%s) => %s", prefix, strings.Join(parts, ", "), body)
}

// FunctionExpr is `function name(params) { body }` used as an expression.
type FunctionExpr struct {
	Name   string // may be empty
	Params []Pattern
	Body   *BlockStmt
	Async  bool
	Pos    Pos
}

func (f *FunctionExpr) exprNode()     {}
func (f *FunctionExpr) Position() Pos { return f.Pos }
func (f *FunctionExpr) String() string {
	return printFunction(f.Async, f.Name, f.Params, f.Body)
}

// printFunction renders a function declaration/expression head plus body.
func printFunction(async bool, name string, params []Pattern, body *BlockStmt) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.String()
	}
	prefix := "function"
	if async {
		prefix = "async function"
	}
	if name != "" {
		prefix += " " + name
	}
	return fmt.Sprintf("%s(%s) %s", prefix, strings.Join(parts, ", "), body)
}

// TSNonNull is `expr!`; TSAs is `expr as T`; TSSatisfies is `expr satisfies T`.
// All three are stripped during lowering and otherwise transparent.
type TSNonNull struct {
	Expr Expr
	Pos  Pos
}

func (t *TSNonNull) exprNode()      {}
func (t *TSNonNull) Position() Pos  { return t.Pos }
func (t *TSNonNull) String() string { return t.Expr.String() + "!" }

type TSAs struct {
	Expr Expr
	Type string // type annotation kept only as source text; never type-checked
	Pos  Pos
}

func (t *TSAs) exprNode()      {}
func (t *TSAs) Position() Pos  { return t.Pos }
func (t *TSAs) String() string { return fmt.Sprintf("%s as %s", t.Expr, t.Type) }

type TSSatisfies struct {
	Expr Expr
	Type string
	Pos  Pos
}

func (t *TSSatisfies) exprNode()      {}
func (t *TSSatisfies) Position() Pos  { return t.Pos }
func (t *TSSatisfies) String() string { return fmt.Sprintf("%s satisfies %s", t.Expr, t.Type) }

// ImportCallExpr is a dynamic `import(...)` expression.
type ImportCallExpr struct {
	Source Expr
	Pos    Pos
}

func (i *ImportCallExpr) exprNode()      {}
func (i *ImportCallExpr) Position() Pos  { return i.Pos }
func (i *ImportCallExpr) String() string { return fmt.Sprintf("import(%s)", i.Source) }

// ImportMetaExpr is `import.meta`.
type ImportMetaExpr struct{ Pos Pos }

func (i *ImportMetaExpr) exprNode()      {}
func (i *ImportMetaExpr) Position() Pos  { return i.Pos }
func (i *ImportMetaExpr) String() string { return "import.meta" }

// AwaitExpr is `await expr`.
type AwaitExpr struct {
	Arg Expr
	Pos Pos
}

func (a *AwaitExpr) exprNode()      {}
func (a *AwaitExpr) Position() Pos  { return a.Pos }
func (a *AwaitExpr) String() string { return "await " + a.Arg.String() }

// ThisExpr is `this`.
type ThisExpr struct{ Pos Pos }

func (t *ThisExpr) exprNode()      {}
func (t *ThisExpr) Position() Pos  { return t.Pos }
func (t *ThisExpr) String() string { return "this" }

// ---------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------

// BlockStmt is `{ ...stmts }`.
type BlockStmt struct {
	Body []Stmt
	Pos  Pos
}

func (b *BlockStmt) stmtNode()     {}
func (b *BlockStmt) Position() Pos { return b.Pos }
func (b *BlockStmt) String() string {
	parts := make([]string, len(b.Body))
	for i, s := range b.Body {
		parts[i] = s.String()
	}
	return "{\n" + strings.Join(parts, "\n") + "\n}"
}

// ExprStmt wraps an expression used as a statement.
type ExprStmt struct {
	Expr Expr
	Pos  Pos
}

func (e *ExprStmt) stmtNode()      {}
func (e *ExprStmt) Position() Pos  { return e.Pos }
func (e *ExprStmt) String() string { return e.Expr.String() + ";" }

// VarKind distinguishes let/const/var declarations.
type VarKind int

const (
	KindLet VarKind = iota
	KindConst
	KindVar
)

func (k VarKind) String() string {
	switch k {
	case KindLet:
		return "let"
	case KindConst:
		return "const"
	default:
		return "var"
	}
}

// VarDeclarator is one `pattern = init` clause of a declaration.
type VarDeclarator struct {
	Name Pattern
	Init Expr // may be nil
	Pos  Pos
}

// VarDecl is `let/const/var a = 1, {b} = obj;`.
type VarDecl struct {
	VKind        VarKind
	Declarations []*VarDeclarator
	Pos          Pos
}

func (v *VarDecl) stmtNode()     {}
func (v *VarDecl) Position() Pos { return v.Pos }
func (v *VarDecl) String() string {
	parts := make([]string, len(v.Declarations))
	for i, d := range v.Declarations {
		if d.Init != nil {
			parts[i] = fmt.Sprintf("%s = %s", d.Name, d.Init)
		} else {
			parts[i] = d.Name.String()
		}
	}
	return fmt.Sprintf("%s %s;", v.VKind, strings.Join(parts, ", "))
}

// FunctionDecl is a named top-level or nested function declaration.
type FunctionDecl struct {
	Name   string
	Params []Pattern
	Body   *BlockStmt
	Async  bool
	Pos    Pos
}

func (f *FunctionDecl) stmtNode()     {}
func (f *FunctionDecl) Position() Pos { return f.Pos }
func (f *FunctionDecl) String() string {
	return printFunction(f.Async, f.Name, f.Params, f.Body)
}

// ReturnStmt is `return expr;`.
type ReturnStmt struct {
	Arg Expr // may be nil
	Pos Pos
}

func (r *ReturnStmt) stmtNode()     {}
func (r *ReturnStmt) Position() Pos { return r.Pos }
func (r *ReturnStmt) String() string {
	if r.Arg == nil {
		return "return;"
	}
	return "return " + r.Arg.String() + ";"
}

// IfStmt is `if (test) cons else alt`.
type IfStmt struct {
	Test Expr
	Cons Stmt
	Alt  Stmt // may be nil
	Pos  Pos
}

func (i *IfStmt) stmtNode()     {}
func (i *IfStmt) Position() Pos { return i.Pos }
func (i *IfStmt) String() string {
	if i.Alt != nil {
		return fmt.Sprintf("if (%s) %s else %s", i.Test, i.Cons, i.Alt)
	}
	return fmt.Sprintf("if (%s) %s", i.Test, i.Cons)
}

// SwitchCase is one `case expr:` or `default:` arm.
type SwitchCase struct {
	Test Expr // nil for default
	Body []Stmt
	Pos  Pos
}

// SwitchStmt is `switch (disc) { cases }`.
type SwitchStmt struct {
	Disc  Expr
	Cases []*SwitchCase
	Pos   Pos
}

func (s *SwitchStmt) stmtNode()     {}
func (s *SwitchStmt) Position() Pos { return s.Pos }
func (s *SwitchStmt) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "switch (%s) {\n", s.Disc)
	for _, c := range s.Cases {
		if c.Test != nil {
			fmt.Fprintf(&b, "case %s:\n", c.Test)
		} else {
			b.WriteString("default:\n")
		}
		for _, st := range c.Body {
			b.WriteString(st.String())
			b.WriteByte('\n')
		}
	}
	b.WriteByte('}')
	return b.String()
}

// WhileStmt is `while (test) body`.
type WhileStmt struct {
	Test Expr
	Body Stmt
	Pos  Pos
}

func (w *WhileStmt) stmtNode()      {}
func (w *WhileStmt) Position() Pos  { return w.Pos }
func (w *WhileStmt) String() string { return fmt.Sprintf("while (%s) %s", w.Test, w.Body) }

// DoWhileStmt is `do body while (test);`.
type DoWhileStmt struct {
	Body Stmt
	Test Expr
	Pos  Pos
}

func (d *DoWhileStmt) stmtNode()      {}
func (d *DoWhileStmt) Position() Pos  { return d.Pos }
func (d *DoWhileStmt) String() string { return fmt.Sprintf("do %s while (%s);", d.Body, d.Test) }

// ForStmt is the classic `for (init; test; update) body`.
type ForStmt struct {
	Init   Node // *VarDecl or Expr or nil
	Test   Expr // may be nil
	Update Expr // may be nil
	Body   Stmt
	Pos    Pos
}

func (f *ForStmt) stmtNode()     {}
func (f *ForStmt) Position() Pos { return f.Pos }
func (f *ForStmt) String() string {
	init := ";"
	if f.Init != nil {
		init = f.Init.String() // a VarDecl's String already ends with ";"
		if !strings.HasSuffix(init, ";") {
			init += ";"
		}
	}
	test, update := "", ""
	if f.Test != nil {
		test = f.Test.String()
	}
	if f.Update != nil {
		update = f.Update.String()
	}
	return fmt.Sprintf("for (%s %s; %s) %s", init, test, update, f.Body)
}

// ForInStmt is `for (decl in obj) body`.
type ForInStmt struct {
	Left  Node // *VarDecl (single declarator) or Pattern
	Right Expr
	Body  Stmt
	Pos   Pos
}

func (f *ForInStmt) stmtNode()     {}
func (f *ForInStmt) Position() Pos { return f.Pos }
func (f *ForInStmt) String() string {
	return fmt.Sprintf("for (%s in %s) %s", f.Left, f.Right, f.Body)
}

// ForOfStmt is `for (decl of iter) body`.
type ForOfStmt struct {
	Left  Node
	Right Expr
	Body  Stmt
	Await bool
	Pos   Pos
}

func (f *ForOfStmt) stmtNode()     {}
func (f *ForOfStmt) Position() Pos { return f.Pos }
func (f *ForOfStmt) String() string {
	return fmt.Sprintf("for (%s of %s) %s", f.Left, f.Right, f.Body)
}

// BreakStmt / ContinueStmt optionally carry a label.
type BreakStmt struct {
	Label string
	Pos   Pos
}

func (b *BreakStmt) stmtNode()     {}
func (b *BreakStmt) Position() Pos { return b.Pos }
func (b *BreakStmt) String() string {
	if b.Label == "" {
		return "break;"
	}
	return "break " + b.Label + ";"
}

type ContinueStmt struct {
	Label string
	Pos   Pos
}

func (c *ContinueStmt) stmtNode()     {}
func (c *ContinueStmt) Position() Pos { return c.Pos }
func (c *ContinueStmt) String() string {
	if c.Label == "" {
		return "continue;"
	}
	return "continue " + c.Label + ";"
}

// LabeledStmt is `label: stmt`.
type LabeledStmt struct {
	Label string
	Body  Stmt
	Pos   Pos
}

func (l *LabeledStmt) stmtNode()      {}
func (l *LabeledStmt) Position() Pos  { return l.Pos }
func (l *LabeledStmt) String() string { return fmt.Sprintf("%s: %s", l.Label, l.Body) }

// ImportSpecifier is one named import clause, e.g. `$state as s`.
type ImportSpecifier struct {
	Imported string
	Local    string
	Pos      Pos
}

// ImportDecl is `import { a, b as c } from "mod";`.
type ImportDecl struct {
	Specifiers []*ImportSpecifier
	Default    string // local name bound to default export, if any
	Source     string
	Pos        Pos
}

func (i *ImportDecl) stmtNode()     {}
func (i *ImportDecl) Position() Pos { return i.Pos }
func (i *ImportDecl) String() string {
	var clauses []string
	if i.Default != "" {
		clauses = append(clauses, i.Default)
	}
	if len(i.Specifiers) > 0 {
		named := make([]string, len(i.Specifiers))
		for j, s := range i.Specifiers {
			if s.Local != s.Imported {
				named[j] = s.Imported + " as " + s.Local
			} else {
				named[j] = s.Imported
			}
		}
		clauses = append(clauses, "{ "+strings.Join(named, ", ")+" }")
	}
	if len(clauses) == 0 {
		return fmt.Sprintf("import %q;", i.Source)
	}
	return fmt.Sprintf("import %s from %q;", strings.Join(clauses, ", "), i.Source)
}

// ExportDecl wraps a declaration or expression being exported, named or default.
type ExportDecl struct {
	Default bool
	Decl    Stmt // *FunctionDecl, *VarDecl, or *ExprStmt when exporting an expression
	Pos     Pos
}

func (e *ExportDecl) stmtNode()     {}
func (e *ExportDecl) Position() Pos { return e.Pos }
func (e *ExportDecl) String() string {
	if e.Default {
		return "export default " + e.Decl.String()
	}
	return "export " + e.Decl.String()
}

// EmptyStmt is a bare `;`.
type EmptyStmt struct{ Pos Pos }

func (e *EmptyStmt) stmtNode()      {}
func (e *EmptyStmt) Position() Pos  { return e.Pos }
func (e *EmptyStmt) String() string { return ";" }

// ThrowStmt is `throw expr;`.
type ThrowStmt struct {
	Arg Expr
	Pos Pos
}

func (t *ThrowStmt) stmtNode()      {}
func (t *ThrowStmt) Position() Pos  { return t.Pos }
func (t *ThrowStmt) String() string { return "throw " + t.Arg.String() + ";" }

// TryStmt is `try {} catch (e) {} finally {}`.
type TryStmt struct {
	Block   *BlockStmt
	Param   Pattern    // may be nil
	Handler *BlockStmt // may be nil
	Finally *BlockStmt // may be nil
	Pos     Pos
}

func (t *TryStmt) stmtNode()     {}
func (t *TryStmt) Position() Pos { return t.Pos }
func (t *TryStmt) String() string {
	var b strings.Builder
	b.WriteString("try ")
	b.WriteString(t.Block.String())
	if t.Handler != nil {
		b.WriteString(" catch ")
		if t.Param != nil {
			fmt.Fprintf(&b, "(%s) ", t.Param)
		}
		b.WriteString(t.Handler.String())
	}
	if t.Finally != nil {
		b.WriteString(" finally ")
		b.WriteString(t.Finally.String())
	}
	return b.String()
}

// IsMacroCall reports whether e is a call to a bare identifier named name.
func IsMacroCall(e Expr, name string) (*CallExpr, bool) {
	call, ok := e.(*CallExpr)
	if !ok {
		return nil, false
	}
	id, ok := call.Callee.(*Identifier)
	if !ok || id.Name != name {
		return nil, false
	}
	return call, true
}
