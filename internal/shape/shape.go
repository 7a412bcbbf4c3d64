// Package shape implements an object-shape lattice: for every binding that
// looks like an object (a destructured parameter, a literal, a
// $store(...) value, or an opaque prop bag) it tracks which keys are read,
// written, dynamically accessed, and whether the value escapes the scope.
//
// The HIR block tree (internal/hir) only carries structured nesting, not
// explicit CFG join points, so this analysis collects shape facts per
// function body as a single forward walk rather than iterating a per-edge
// fixed point to a merge node; narrowing facts gathered anywhere in a
// function are treated as available everywhere a dynamic access against the
// same key variable occurs in that function. This is a conservative
// simplification of a per-edge lattice join (it may under-narrow across
// unrelated branches but never claims a false positive subscription
// narrowing), acceptable because shape is advisory to lowering, not a
// correctness-critical rewrite.
package shape

import (
	"github.com/sunholo/fict/internal/ast"
	"github.com/sunholo/fict/internal/hir"
)

type Source int

const (
	SourceLiteral Source = iota
	SourceParam
	SourceProps
	SourceStore
	SourceUnknown
)

func (s Source) String() string {
	switch s {
	case SourceLiteral:
		return "literal"
	case SourceParam:
		return "param"
	case SourceProps:
		return "props"
	case SourceStore:
		return "store"
	default:
		return "unknown"
	}
}

// Record is the per-binding shape summary.
type Record struct {
	Source        Source
	KnownKeys     map[string]bool
	DynamicAccess bool
	NarrowedKeys  map[string]bool
	MutableKeys   map[string]bool
	Escapes       bool
	IsSpread      bool
}

func newRecord(src Source) *Record {
	return &Record{
		Source:       src,
		KnownKeys:    make(map[string]bool),
		NarrowedKeys: make(map[string]bool),
		MutableKeys:  make(map[string]bool),
	}
}

func (r *Record) join(other *Record) {
	for k := range other.KnownKeys {
		r.KnownKeys[k] = true
	}
	for k := range other.NarrowedKeys {
		r.NarrowedKeys[k] = true
	}
	for k := range other.MutableKeys {
		r.MutableKeys[k] = true
	}
	r.DynamicAccess = r.DynamicAccess || other.DynamicAccess
	r.Escapes = r.Escapes || other.Escapes
	r.IsSpread = r.IsSpread || other.IsSpread
}

// Lattice holds one Record per tracked binding name.
type Lattice struct {
	Records map[string]*Record
}

// NeedsWholeObjectSubscription reports whether name must be subscribed to as
// a whole object (dynamic access with nothing narrowed, and not a store).
func (l *Lattice) NeedsWholeObjectSubscription(name string) bool {
	r, ok := l.Records[name]
	if !ok {
		return false
	}
	return r.DynamicAccess && len(r.NarrowedKeys) == 0 && r.Source != SourceStore
}

// PropertySubscription returns the set of keys name should subscribe to at
// the property level.
func (l *Lattice) PropertySubscription(name string) []string {
	r, ok := l.Records[name]
	if !ok {
		return nil
	}
	keys := make(map[string]bool, len(r.KnownKeys)+len(r.NarrowedKeys))
	for k := range r.KnownKeys {
		keys[k] = true
	}
	for k := range r.NarrowedKeys {
		keys[k] = true
	}
	out := make([]string, 0, len(keys))
	for k := range keys {
		out = append(out, k)
	}
	return out
}

// NeedsSpreadWrapping reports whether name was observed spread on any edge.
func (l *Lattice) NeedsSpreadWrapping(name string) bool {
	r, ok := l.Records[name]
	return ok && r.IsSpread
}

// Analyze walks every function in prog and builds the shape lattice.
func Analyze(prog *hir.Program) *Lattice {
	l := &Lattice{Records: make(map[string]*Record)}
	for _, fn := range prog.Functions() {
		analyzeFunction(l, fn, prog)
	}
	return l
}

func analyzeFunction(l *Lattice, fn *hir.Function, prog *hir.Program) {
	bindingsOf := make(map[string]*hir.Binding)
	for _, b := range prog.Bindings {
		if b.Func == fn {
			bindingsOf[b.Name] = b
		}
	}
	for _, p := range fn.Params {
		seedParamShape(l, p)
	}
	for name, b := range bindingsOf {
		if _, ok := l.Records[name]; ok {
			continue
		}
		l.Records[name] = newRecord(initialSource(b.Init))
	}

	a := &funcAnalyzer{l: l}
	a.walkBlock(fn.Entry)
}

func seedParamShape(l *Lattice, pat ast.Pattern) {
	switch v := pat.(type) {
	case *ast.ObjectPattern:
		// a destructured parameter is a props-like object; each named field
		// gets its own props-sourced record. No record is kept for the
		// parameter object itself.
		for _, prop := range v.Props {
			if id, ok := prop.Value.(*ast.Identifier); ok {
				if _, ok := l.Records[id.Name]; !ok {
					l.Records[id.Name] = newRecord(SourceProps)
				}
			}
		}
	case *ast.Identifier:
		if _, ok := l.Records[v.Name]; !ok {
			l.Records[v.Name] = newRecord(SourceParam)
		}
	}
}

func initialSource(init ast.Expr) Source {
	switch v := init.(type) {
	case *ast.ObjectLiteral, *ast.ArrayLiteral:
		return SourceLiteral
	case *ast.CallExpr:
		if id, ok := v.Callee.(*ast.Identifier); ok && id.Name == "$store" {
			return SourceStore
		}
	}
	return SourceUnknown
}

type funcAnalyzer struct{ l *Lattice }

func (a *funcAnalyzer) walkBlock(b *hir.Block) {
	for b != nil {
		for _, s := range b.Stmts {
			a.walkStmt(s)
		}
		if b.Ctrl != nil {
			a.walkStmt(b.Ctrl)
			a.recordNarrowing(b.Ctrl)
		}
		for _, e := range b.Edges {
			a.walkBlock(e.Block)
		}
		b = b.Next
	}
}

// recordNarrowing looks for `if (k === "lit")` (including `||`-unions and
// `&&`-intersections of such tests), `switch(k){case "lit":}`,
// `for (const k of [...literals])`, `for (const k of Object.keys(literal))`,
// and `for (const k in {..literal})`, and records narrowed_keys for k.
// Loose equality (`==`) never narrows.
func (a *funcAnalyzer) recordNarrowing(ctrl ast.Stmt) {
	switch v := ctrl.(type) {
	case *ast.IfStmt:
		for name, keys := range narrowingsFromTest(v.Test) {
			r := a.ensure(name)
			for k := range keys {
				r.NarrowedKeys[k] = true
			}
		}
	case *ast.SwitchStmt:
		if name, ok := v.Disc.(*ast.Identifier); ok {
			for _, c := range v.Cases {
				if lit, ok := stringLiteralValue(c.Test); ok {
					a.ensure(name.Name).NarrowedKeys[lit] = true
				}
			}
		}
	case *ast.ForOfStmt:
		if id, ok := loopVarName(v.Left); ok {
			for _, lit := range stringElements(v.Right) {
				a.ensure(id).NarrowedKeys[lit] = true
			}
		}
	case *ast.ForInStmt:
		if id, ok := loopVarName(v.Left); ok {
			if obj, isLit := v.Right.(*ast.ObjectLiteral); isLit {
				for _, p := range obj.Properties {
					if key, ok := p.Key.(*ast.Identifier); ok && !p.Computed {
						a.ensure(id).NarrowedKeys[key.Name] = true
					}
				}
			}
		}
	}
}

// narrowingsFromTest computes the per-variable candidate sets a test
// establishes on its then-edge: `k === "a"` gives {a}; `a || b` unions the
// sets each side gives the same variable; `a && b` intersects them (both
// conditions hold on the then-edge).
func narrowingsFromTest(test ast.Expr) map[string]map[string]bool {
	switch v := test.(type) {
	case *ast.BinaryExpr:
		if name, lit, ok := strictEqualityNarrow(v); ok {
			return map[string]map[string]bool{name: {lit: true}}
		}
	case *ast.LogicalExpr:
		left := narrowingsFromTest(v.Left)
		right := narrowingsFromTest(v.Right)
		switch v.Op {
		case "||":
			// a variable narrowed on only one side is unconstrained on the
			// other, so || only narrows names both sides constrain
			out := map[string]map[string]bool{}
			for name, lk := range left {
				rk, ok := right[name]
				if !ok {
					continue
				}
				union := map[string]bool{}
				for k := range lk {
					union[k] = true
				}
				for k := range rk {
					union[k] = true
				}
				out[name] = union
			}
			return out
		case "&&":
			out := map[string]map[string]bool{}
			for name, lk := range left {
				if rk, both := right[name]; both {
					inter := map[string]bool{}
					for k := range lk {
						if rk[k] {
							inter[k] = true
						}
					}
					out[name] = inter
					continue
				}
				out[name] = lk
			}
			for name, rk := range right {
				if _, seen := out[name]; !seen {
					out[name] = rk
				}
			}
			return out
		}
	}
	return nil
}

func strictEqualityNarrow(bin *ast.BinaryExpr) (name, lit string, ok bool) {
	if bin.Op != "===" {
		return "", "", false
	}
	if id, isID := bin.Left.(*ast.Identifier); isID {
		if l, isLit := stringLiteralValue(bin.Right); isLit {
			return id.Name, l, true
		}
	}
	if id, isID := bin.Right.(*ast.Identifier); isID {
		if l, isLit := stringLiteralValue(bin.Left); isLit {
			return id.Name, l, true
		}
	}
	return "", "", false
}

func loopVarName(left ast.Node) (string, bool) {
	decl, ok := left.(*ast.VarDecl)
	if !ok || len(decl.Declarations) != 1 {
		return "", false
	}
	id, ok := decl.Declarations[0].Name.(*ast.Identifier)
	if !ok {
		return "", false
	}
	return id.Name, true
}

// stringElements extracts the candidate key strings an iterable expression
// is statically known to produce: an array literal of strings, or
// Object.keys over an object literal.
func stringElements(e ast.Expr) []string {
	var out []string
	switch v := e.(type) {
	case *ast.ArrayLiteral:
		for _, el := range v.Elements {
			if lit, ok := stringLiteralValue(el); ok {
				out = append(out, lit)
			}
		}
	case *ast.CallExpr:
		member, ok := v.Callee.(*ast.MemberExpr)
		if !ok || member.Computed || len(v.Args) != 1 {
			return nil
		}
		obj, okObj := member.Object.(*ast.Identifier)
		prop, okProp := member.Property.(*ast.Identifier)
		if !okObj || !okProp || obj.Name != "Object" || prop.Name != "keys" {
			return nil
		}
		if lit, ok := v.Args[0].(*ast.ObjectLiteral); ok {
			for _, p := range lit.Properties {
				if key, ok := p.Key.(*ast.Identifier); ok && !p.Computed {
					out = append(out, key.Name)
				}
			}
		}
	}
	return out
}

func stringLiteralValue(e ast.Expr) (string, bool) {
	lit, ok := e.(*ast.Literal)
	if !ok || lit.Kind != ast.StringLit {
		return "", false
	}
	v := lit.Value
	if len(v) >= 2 {
		v = v[1 : len(v)-1]
	}
	return v, true
}

// literalCandidates returns the string values an initializer expression is
// statically known to be one of: a string literal, or a conditional whose
// arms are both candidate-bearing.
func literalCandidates(e ast.Expr) []string {
	if lit, ok := stringLiteralValue(e); ok {
		return []string{lit}
	}
	if cond, ok := e.(*ast.ConditionalExpr); ok {
		cons := literalCandidates(cond.Consequent)
		alt := literalCandidates(cond.Alternate)
		if cons != nil && alt != nil {
			return append(cons, alt...)
		}
	}
	return nil
}

func (a *funcAnalyzer) ensure(name string) *Record {
	r, ok := a.l.Records[name]
	if !ok {
		r = newRecord(SourceUnknown)
		a.l.Records[name] = r
	}
	return r
}

func (a *funcAnalyzer) walkStmt(s ast.Stmt) {
	switch v := s.(type) {
	case *ast.VarDecl:
		for _, d := range v.Declarations {
			// `const k = "a"` and `const k = cond ? "a" : "b"` seed k's
			// candidate set the same way a === guard would
			if id, ok := d.Name.(*ast.Identifier); ok && d.Init != nil {
				for _, lit := range literalCandidates(d.Init) {
					a.ensure(id.Name).NarrowedKeys[lit] = true
				}
			}
			a.walkExpr(d.Init)
		}
	case *ast.ExprStmt:
		a.walkExpr(v.Expr)
	case *ast.ReturnStmt:
		if v.Arg != nil {
			a.walkExpr(v.Arg)
			a.markEscape(v.Arg)
		}
	case *ast.ThrowStmt:
		a.walkExpr(v.Arg)
	case *ast.IfStmt:
		a.walkExpr(v.Test)
	case *ast.SwitchStmt:
		a.walkExpr(v.Disc)
	case *ast.WhileStmt:
		a.walkExpr(v.Test)
	case *ast.DoWhileStmt:
		a.walkExpr(v.Test)
	case *ast.ForStmt:
		if v.Test != nil {
			a.walkExpr(v.Test)
		}
	}
}

func (a *funcAnalyzer) markEscape(e ast.Expr) {
	if id, ok := e.(*ast.Identifier); ok {
		a.ensure(id.Name).Escapes = true
	}
}

func (a *funcAnalyzer) walkExpr(e ast.Expr) {
	if e == nil {
		return
	}
	switch v := e.(type) {
	case *ast.MemberExpr:
		a.walkExpr(v.Object)
		if obj, ok := v.Object.(*ast.Identifier); ok {
			r := a.ensure(obj.Name)
			if v.Computed {
				if lit, isLit := stringLiteralValue(v.Property); isLit {
					// computed-but-literal access behaves like a known key
					r.KnownKeys[lit] = true
				} else {
					r.DynamicAccess = true
					// obj[k] with a narrowed k narrows the object's own
					// subscription to k's candidate set
					if keyID, ok := v.Property.(*ast.Identifier); ok {
						if kr, tracked := a.l.Records[keyID.Name]; tracked {
							for k := range kr.NarrowedKeys {
								r.NarrowedKeys[k] = true
							}
						}
					}
				}
			} else if prop, ok := v.Property.(*ast.Identifier); ok {
				r.KnownKeys[prop.Name] = true
			}
		} else {
			a.walkExpr(v.Property)
		}
	case *ast.AssignmentExpr:
		if member, ok := v.Target.(*ast.MemberExpr); ok {
			if obj, ok := member.Object.(*ast.Identifier); ok {
				r := a.ensure(obj.Name)
				if prop, ok := member.Property.(*ast.Identifier); ok && !member.Computed {
					r.MutableKeys[prop.Name] = true
				} else {
					r.DynamicAccess = true
				}
			}
		}
		// reassigning a key variable resets its candidate set to whatever
		// the new value is known to be (possibly nothing)
		if id, ok := v.Target.(*ast.Identifier); ok && v.Op == "=" {
			if r, tracked := a.l.Records[id.Name]; tracked {
				r.NarrowedKeys = make(map[string]bool)
				for _, lit := range literalCandidates(v.Value) {
					r.NarrowedKeys[lit] = true
				}
			}
		}
		a.walkExpr(v.Value)
	case *ast.UpdateExpr:
		if member, ok := v.Arg.(*ast.MemberExpr); ok {
			if obj, ok := member.Object.(*ast.Identifier); ok {
				if prop, ok := member.Property.(*ast.Identifier); ok && !member.Computed {
					a.ensure(obj.Name).MutableKeys[prop.Name] = true
				}
			}
		}
		// k++ leaves k at an unknown value: every candidate recorded so far
		// is invalid from here on
		if id, ok := v.Arg.(*ast.Identifier); ok {
			if r, tracked := a.l.Records[id.Name]; tracked {
				r.NarrowedKeys = make(map[string]bool)
			}
		}
	case *ast.CallExpr:
		a.walkExpr(v.Callee)
		for _, arg := range v.Args {
			a.walkExpr(arg)
			a.markEscapeIfOpaqueCall(v, arg)
		}
	case *ast.SpreadElement:
		if id, ok := v.Argument.(*ast.Identifier); ok {
			a.ensure(id.Name).IsSpread = true
		}
		a.walkExpr(v.Argument)
	case *ast.BinaryExpr:
		a.walkExpr(v.Left)
		a.walkExpr(v.Right)
	case *ast.LogicalExpr:
		a.walkExpr(v.Left)
		a.walkExpr(v.Right)
	case *ast.ConditionalExpr:
		a.walkExpr(v.Test)
		a.walkExpr(v.Consequent)
		a.walkExpr(v.Alternate)
	case *ast.ObjectLiteral:
		for _, p := range v.Properties {
			a.walkExpr(p.Value)
		}
	case *ast.ArrayLiteral:
		for _, el := range v.Elements {
			a.walkExpr(el)
		}
	case *ast.ArrowFunction:
		if expr, ok := v.Body.(ast.Expr); ok {
			a.walkExpr(expr)
		}
	}
}

// knownSafeCallees never cause their arguments to "escape" for shape purposes.
var knownSafeCallees = map[string]bool{
	"console.log": true, "console.warn": true, "console.error": true,
	"JSON.stringify": true,
}

func (a *funcAnalyzer) markEscapeIfOpaqueCall(call *ast.CallExpr, arg ast.Expr) {
	name := calleeDottedName(call.Callee)
	if knownSafeCallees[name] {
		return
	}
	a.markEscape(arg)
}

func calleeDottedName(e ast.Expr) string {
	switch v := e.(type) {
	case *ast.Identifier:
		return v.Name
	case *ast.MemberExpr:
		if !v.Computed {
			if prop, ok := v.Property.(*ast.Identifier); ok {
				return calleeDottedName(v.Object) + "." + prop.Name
			}
		}
	}
	return ""
}
