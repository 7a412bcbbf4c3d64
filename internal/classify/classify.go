// Package classify implements the central decision table for reactive
// classification: for every binding it assigns one reactive Kind, applying
// eight ordered rules (first match wins).
package classify

import (
	"fmt"
	"sort"

	"github.com/sunholo/fict/internal/ast"
	"github.com/sunholo/fict/internal/hir"
	"github.com/sunholo/fict/internal/reactscope"
)

type Kind int

const (
	Plain Kind = iota
	Signal
	Memo
	RegionMemoField
	InlinedDerived
	CapturedValue
	PropAccessor
)

func (k Kind) String() string {
	switch k {
	case Signal:
		return "signal"
	case Memo:
		return "memo"
	case RegionMemoField:
		return "region_memo_field"
	case InlinedDerived:
		return "inlined_derived"
	case CapturedValue:
		return "captured_value"
	case PropAccessor:
		return "prop_accessor"
	default:
		return "plain"
	}
}

// UseKind is a bitset over a binding's use-site profile.
type UseKind uint16

const (
	UseJSXChild UseKind = 1 << iota
	UseJSXAttr
	UseEventHandler
	UseEffectBody
	UseExportedClosure
	UseReassigned
	UseExported
	UseOpaqueCallee
)

// Info is the classification result for one binding.
type Info struct {
	Kind     Kind
	StableID int
	Region   *reactscope.Region

	// set only for Memo entries synthesized by destructuring a Signal (rule 4)
	DestructuredFromSignal string
	DestructuredKey        string

	Uses UseKind
}

// Options configures the rules that depend on CompilerOptions.
type Options struct {
	InlineDerivedMemos bool
}

// Error reports a classification-time semantic violation, e.g. an
// alias/derived reassignment.
type Error struct {
	Message string
	Pos     ast.Pos
}

func (e *Error) Error() string { return e.Message }

// Classify assigns a Kind to every binding in prog.
func Classify(prog *hir.Program, regions *reactscope.Analysis, opts Options) (map[string]*Info, []error) {
	c := &classifier{
		prog:     prog,
		regions:  regions,
		opts:     opts,
		info:     make(map[string]*Info),
		byName:   make(map[string]*hir.Binding),
		assigned: make(map[string]bool),
	}
	for _, b := range prog.Bindings {
		c.byName[b.Name] = b
	}
	c.computeUseProfiles()
	c.assignSignals()
	c.assignDestructuredSignalFields()
	c.assignAliases()
	c.assignDerivedAndProps()
	c.checkReassignments()
	return c.info, c.errors
}

type classifier struct {
	prog    *hir.Program
	regions *reactscope.Analysis
	opts    Options
	info    map[string]*Info
	byName  map[string]*hir.Binding
	nextID  int
	errors  []error

	// assigned records which names a classification rule has already
	// decided. The info map alone can't answer that: use-profile scanning
	// creates an Info (with only Uses bits) for every identifier it marks,
	// long before any rule runs.
	assigned map[string]bool
}

func (c *classifier) ensure(name string) *Info {
	i, ok := c.info[name]
	if !ok {
		i = &Info{}
		c.info[name] = i
	}
	return i
}

func (c *classifier) allocID() int {
	id := c.nextID
	c.nextID++
	return id
}

// Rule 1: let/const count = $state(expr) with a bare identifier LHS -> Signal.
func (c *classifier) assignSignals() {
	for _, b := range c.prog.Bindings {
		if b.Init == nil {
			continue
		}
		if _, ok := ast.IsMacroCall(b.Init, "$state"); !ok {
			continue
		}
		if _, ok := b.Pattern.(*ast.Identifier); ok {
			info := c.ensure(b.Name)
			info.Kind = Signal
			info.StableID = c.allocID()
			c.assigned[b.Name] = true
		}
		// non-identifier patterns are handled (as an error) in rule 3, below,
		// via assignDestructuredSignalFields.
	}
}

// Rule 3 & 4: destructuring applied to a $state(...) call is an error;
// destructuring applied to an existing Signal binding lowers each field to
// a Memo over `signal().field`.
func (c *classifier) assignDestructuredSignalFields() {
	for _, b := range c.prog.Bindings {
		if b.Init == nil {
			continue
		}
		switch pat := b.Pattern.(type) {
		case *ast.ObjectPattern, *ast.ArrayPattern:
			if _, ok := ast.IsMacroCall(b.Init, "$state"); ok {
				c.errors = append(c.errors, &Error{
					Message: "Destructuring $state is not supported",
					Pos:     b.Init.Position(),
				})
				continue
			}
			id, ok := b.Init.(*ast.Identifier)
			if !ok {
				continue
			}
			source, ok := c.info[id.Name]
			if !ok || source.Kind != Signal {
				continue
			}
			c.destructureSignalFields(pat, id.Name)
		}
	}
}

func (c *classifier) destructureSignalFields(pat ast.Pattern, signalName string) {
	switch p := pat.(type) {
	case *ast.ObjectPattern:
		for _, prop := range p.Props {
			if id, ok := prop.Value.(*ast.Identifier); ok {
				info := c.ensure(id.Name)
				info.Kind = Memo
				info.StableID = c.allocID()
				info.DestructuredFromSignal = signalName
				info.DestructuredKey = prop.Key
				c.assigned[id.Name] = true
			}
		}
	case *ast.ArrayPattern:
		for idx, el := range p.Elements {
			if id, ok := el.(*ast.Identifier); ok {
				info := c.ensure(id.Name)
				info.Kind = Memo
				info.StableID = c.allocID()
				info.DestructuredFromSignal = signalName
				info.DestructuredKey = fmt.Sprintf("%d", idx)
				c.assigned[id.Name] = true
			}
		}
	}
}

// Rule 2: const alias = count (a direct reference to a Signal).
func (c *classifier) assignAliases() {
	for _, b := range c.prog.Bindings {
		if b.Init == nil || c.assigned[b.Name] {
			continue
		}
		id, ok := b.Init.(*ast.Identifier)
		if !ok {
			continue
		}
		source, ok := c.info[id.Name]
		if !ok || source.Kind != Signal {
			continue
		}
		info := c.ensure(b.Name)
		if reactscope.IsReactiveScope(b.Func) && !b.Exported {
			info.Kind = CapturedValue
		} else {
			info.Kind = Plain
		}
		c.assigned[b.Name] = true
	}
}

// Rule 5/7/8: derived consts, prop accessors, and the fallback Plain case.
// Rule 6 (a let confined to branches) is not applied: such a let is
// classified by the same rules as any other binding.
func (c *classifier) assignDerivedAndProps() {
	for _, b := range c.prog.Bindings {
		if c.assigned[b.Name] {
			continue
		}
		if b.IsParam {
			continue
		}
		c.assigned[b.Name] = true
		if b.Init == nil {
			c.ensure(b.Name).Kind = Plain
			continue
		}
		deps := identifierDeps(b.Init, c.info)
		if len(deps) == 0 {
			c.ensure(b.Name).Kind = Plain
			continue
		}
		info := c.ensure(b.Name)
		if region, ok := c.regions.RegionOf[b.Name]; ok {
			info.Kind = RegionMemoField
			info.Region = region
			info.StableID = c.allocID()
			continue
		}
		exported := b.Exported || b.Func == c.prog.Module
		uses := info.Uses
		switch {
		case exported:
			info.Kind = Memo
		case uses&(UseJSXChild|UseJSXAttr|UseEffectBody|UseExportedClosure) != 0:
			info.Kind = Memo
		case c.opts.InlineDerivedMemos && isSingleUse(b.Name, c.prog) && isPure(b.Init):
			info.Kind = InlinedDerived
		default:
			info.Kind = Memo
		}
		if info.Kind != InlinedDerived {
			info.StableID = c.allocID()
		}
	}

	// Rule 7: prop accessors for destructured component parameters.
	for _, fn := range c.prog.Functions() {
		if !reactscope.IsReactiveScope(fn) || len(fn.Params) == 0 {
			continue
		}
		if obj, ok := fn.Params[0].(*ast.ObjectPattern); ok {
			c.assignPropAccessors(obj)
		}
	}
}

func (c *classifier) assignPropAccessors(pat *ast.ObjectPattern) {
	for _, prop := range pat.Props {
		switch v := prop.Value.(type) {
		case *ast.Identifier:
			info := c.ensure(v.Name)
			info.Kind = PropAccessor
			c.assigned[v.Name] = true
		case *ast.ObjectPattern:
			c.assignPropAccessors(v)
		}
	}
}

// checkReassignments rejects writes to Memo/RegionMemoField bindings and to
// fields destructured from a Signal (a destructured state alias).
func (c *classifier) checkReassignments() {
	reassigned := make(map[string]ast.Pos)
	var walk func(e ast.Expr)
	walk = func(e ast.Expr) {
		if e == nil {
			return
		}
		if asn, ok := e.(*ast.AssignmentExpr); ok {
			if id, ok := asn.Target.(*ast.Identifier); ok {
				reassigned[id.Name] = asn.Pos
			}
		}
	}
	for _, fn := range c.prog.Functions() {
		walkFunctionExprs(fn, walk)
	}
	names := make([]string, 0, len(reassigned))
	for name := range reassigned {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		pos := reassigned[name]
		info, ok := c.info[name]
		if !ok {
			continue
		}
		info.Uses |= UseReassigned
		switch info.Kind {
		case Memo, RegionMemoField:
			c.errors = append(c.errors, &Error{Message: name + ": cannot reassign a derived binding", Pos: pos})
		case CapturedValue:
			c.errors = append(c.errors, &Error{Message: name + ": Alias reassignment is not supported", Pos: pos})
		}
		if info.DestructuredFromSignal != "" && info.Kind == Memo {
			c.errors = append(c.errors, &Error{Message: name + ": destructured state alias", Pos: pos})
		}
	}
}

func identifierDeps(e ast.Expr, classified map[string]*Info) []string {
	var out []string
	seen := map[string]bool{}
	var walk func(ast.Expr)
	walk = func(e ast.Expr) {
		if e == nil {
			return
		}
		if id, ok := e.(*ast.Identifier); ok {
			if info, ok := classified[id.Name]; ok && (info.Kind == Signal || info.Kind == Memo || info.Kind == RegionMemoField) && !seen[id.Name] {
				seen[id.Name] = true
				out = append(out, id.Name)
			}
			return
		}
		switch v := e.(type) {
		case *ast.BinaryExpr:
			walk(v.Left)
			walk(v.Right)
		case *ast.LogicalExpr:
			walk(v.Left)
			walk(v.Right)
		case *ast.UnaryExpr:
			walk(v.Arg)
		case *ast.ConditionalExpr:
			walk(v.Test)
			walk(v.Consequent)
			walk(v.Alternate)
		case *ast.MemberExpr:
			walk(v.Object)
		case *ast.CallExpr:
			walk(v.Callee)
			for _, a := range v.Args {
				walk(a)
			}
		case *ast.TemplateLiteral:
			for _, x := range v.Exprs {
				walk(x)
			}
		case *ast.ArrayLiteral:
			for _, x := range v.Elements {
				walk(x)
			}
		case *ast.ObjectLiteral:
			for _, p := range v.Properties {
				walk(p.Value)
			}
		}
	}
	walk(e)
	return out
}

func isPure(e ast.Expr) bool {
	pure := true
	var walk func(ast.Expr)
	walk = func(e ast.Expr) {
		if e == nil || !pure {
			return
		}
		switch v := e.(type) {
		case *ast.CallExpr:
			if name := calleeName(v.Callee); name != "" && !knownPureCallees[name] {
				pure = false
				return
			}
			walk(v.Callee)
			for _, a := range v.Args {
				walk(a)
			}
		case *ast.AssignmentExpr, *ast.UpdateExpr, *ast.AwaitExpr, *ast.NewExpr:
			pure = false
		case *ast.BinaryExpr:
			walk(v.Left)
			walk(v.Right)
		case *ast.LogicalExpr:
			walk(v.Left)
			walk(v.Right)
		case *ast.ConditionalExpr:
			walk(v.Test)
			walk(v.Consequent)
			walk(v.Alternate)
		case *ast.MemberExpr:
			walk(v.Object)
		}
	}
	walk(e)
	return pure
}

var knownPureCallees = map[string]bool{"String": true, "Number": true, "Boolean": true}

func calleeName(e ast.Expr) string {
	if id, ok := e.(*ast.Identifier); ok {
		return id.Name
	}
	return ""
}

func isSingleUse(name string, prog *hir.Program) bool {
	count := 0
	var walk func(e ast.Expr)
	walk = func(e ast.Expr) {
		if e == nil {
			return
		}
		if id, ok := e.(*ast.Identifier); ok && id.Name == name {
			count++
			return
		}
		switch v := e.(type) {
		case *ast.BinaryExpr:
			walk(v.Left)
			walk(v.Right)
		case *ast.CallExpr:
			walk(v.Callee)
			for _, a := range v.Args {
				walk(a)
			}
		case *ast.MemberExpr:
			walk(v.Object)
		case *ast.ConditionalExpr:
			walk(v.Test)
			walk(v.Consequent)
			walk(v.Alternate)
		}
	}
	for _, fn := range prog.Functions() {
		walkFunctionExprs(fn, walk)
	}
	return count == 1
}

func walkFunctionExprs(fn *hir.Function, visit func(ast.Expr)) {
	var walkBlock func(b *hir.Block)
	walkBlock = func(b *hir.Block) {
		for b != nil {
			for _, s := range b.Stmts {
				walkStmtExprs(s, visit)
			}
			if b.Ctrl != nil {
				walkStmtExprs(b.Ctrl, visit)
			}
			for _, e := range b.Edges {
				walkBlock(e.Block)
			}
			b = b.Next
		}
	}
	walkBlock(fn.Entry)
}

func walkStmtExprs(s ast.Stmt, visit func(ast.Expr)) {
	switch v := s.(type) {
	case *ast.ExprStmt:
		visit(v.Expr)
	case *ast.ReturnStmt:
		visit(v.Arg)
	case *ast.VarDecl:
		for _, d := range v.Declarations {
			visit(d.Init)
		}
	case *ast.IfStmt:
		visit(v.Test)
	case *ast.SwitchStmt:
		visit(v.Disc)
	case *ast.WhileStmt:
		visit(v.Test)
	case *ast.ThrowStmt:
		visit(v.Arg)
	}
}

// computeUseProfiles does a lightweight scan for JSX/effect/export contexts;
// it is intentionally conservative (it may over-report UseKinds) since the
// profile only ever widens a Kind towards Memo, never towards something less
// safe.
func (c *classifier) computeUseProfiles() {
	for _, fn := range c.prog.Functions() {
		walkFunctionExprs(fn, func(e ast.Expr) {
			c.scanUse(e, fn)
		})
	}
	c.markEscapingClosureReads()
}

// markEscapingClosureReads sets UseExportedClosure on every identifier read
// inside a closure that outlives its declaring scope: a function literal
// initializing an exported binding, or one handed out through a return
// statement (a hook returning a getter, a component returning a render
// thunk). A derived binding read from such a closure must stay a Memo —
// inlining it at the use site would re-evaluate the expression on a stale
// capture every time the escaped closure runs.
func (c *classifier) markEscapingClosureReads() {
	for _, b := range c.prog.Bindings {
		if b.Exported && b.Init != nil {
			c.markClosureReads(b.Init)
		}
	}
	for _, fn := range c.prog.Functions() {
		walkReturnArgs(fn, c.markClosureReads)
	}
}

// markClosureReads finds every function literal under e and marks the
// identifiers its body reads.
func (c *classifier) markClosureReads(e ast.Expr) {
	if e == nil {
		return
	}
	mark := func(x ast.Expr) {
		if id, ok := x.(*ast.Identifier); ok {
			c.ensure(id.Name).Uses |= UseExportedClosure
		}
	}
	ast.WalkExpr(e, func(n ast.Expr) {
		switch v := n.(type) {
		case *ast.ArrowFunction:
			switch body := v.Body.(type) {
			case *ast.BlockStmt:
				ast.WalkStmt(body, mark)
			case ast.Expr:
				ast.WalkExpr(body, mark)
			}
		case *ast.FunctionExpr:
			ast.WalkStmt(v.Body, mark)
		}
	})
}

// walkReturnArgs visits the argument of every return statement in fn's own
// block tree. Return statements end up in a block's straight-line Stmts
// (they are not control-flow splits), so only Stmts need scanning.
func walkReturnArgs(fn *hir.Function, visit func(ast.Expr)) {
	var walkBlock func(b *hir.Block)
	walkBlock = func(b *hir.Block) {
		for b != nil {
			for _, s := range b.Stmts {
				if ret, ok := s.(*ast.ReturnStmt); ok && ret.Arg != nil {
					visit(ret.Arg)
				}
			}
			for _, e := range b.Edges {
				walkBlock(e.Block)
			}
			b = b.Next
		}
	}
	walkBlock(fn.Entry)
}

func (c *classifier) scanUse(e ast.Expr, fn *hir.Function) {
	switch v := e.(type) {
	case *ast.JSXElement:
		for _, attr := range v.Attributes {
			if attr.Value != nil {
				mark := UseJSXAttr
				if attr.Name == "key" {
					mark = 0
				}
				c.scanIdentifiers(attr.Value, mark)
			}
		}
		for _, child := range v.Children {
			c.scanIdentifiers(child, UseJSXChild)
		}
	case *ast.CallExpr:
		if _, ok := ast.IsMacroCall(e, "$effect"); ok && len(v.Args) > 0 {
			c.scanIdentifiers(v.Args[0], UseEffectBody)
		}
	}
}

func (c *classifier) scanIdentifiers(e ast.Expr, mark UseKind) {
	if e == nil || mark == 0 {
		return
	}
	var walk func(ast.Expr)
	walk = func(e ast.Expr) {
		switch v := e.(type) {
		case *ast.Identifier:
			c.ensure(v.Name).Uses |= mark
		case *ast.BinaryExpr:
			walk(v.Left)
			walk(v.Right)
		case *ast.ConditionalExpr:
			walk(v.Test)
			walk(v.Consequent)
			walk(v.Alternate)
		case *ast.MemberExpr:
			walk(v.Object)
		case *ast.CallExpr:
			for _, a := range v.Args {
				walk(a)
			}
		case *ast.JSXExpressionContainer:
			walk(v.Expr)
		}
	}
	walk(e)
}
