// Package optimize implements constant folding, algebraic and conditional
// simplification, a scope-local getter cache, and reactive-graph dead-code
// elimination of unused memo bindings. It runs on the already lowered
// *ast.File, after internal/lower and before printing, and only when
// config.Options.Optimize is set.
//
// Every rewrite here must be observationally equivalent to leaving the tree
// alone: effect-call counts, evaluation order, and emitted DOM text must not
// change. An algebraic identity that needs a numeric-type proof (e.g.
// `x + 0 -> x`, which is wrong for strings) only fires at the "full" level
// and only when provenNumeric can establish the operand is a number.
package optimize

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/sunholo/fict/internal/ast"
	"github.com/sunholo/fict/internal/config"
)

type optimizer struct {
	full        bool
	getterCache bool
	accessors   map[string]bool // memo accessor names eligible for the getter cache
	pinned      map[string]bool // explicit $memo(...) bindings, never DCE'd
}

// Optimize rewrites file in place per opts and returns it. accessors names
// the memo accessors the getter cache may hoist; signal accessors are
// excluded by the caller since a setter call in the same body would make a
// cached read stale. pinned names explicit $memo(...) bindings, which DCE
// must keep even when nothing reads them.
func Optimize(file *ast.File, opts config.Options, accessors, pinned map[string]bool) *ast.File {
	if !opts.Optimize {
		return file
	}
	o := &optimizer{
		full:        opts.OptimizeLevel == "full",
		getterCache: opts.GetterCache,
		accessors:   accessors,
		pinned:      pinned,
	}
	for i, s := range file.Body {
		file.Body[i] = o.stmt(s)
	}
	file.Body = removeDeadMemos(file.Body, o.pinned)
	return file
}

// --- constant folding / algebraic / conditional simplification ---

func (o *optimizer) stmt(s ast.Stmt) ast.Stmt {
	switch v := s.(type) {
	case *ast.VarDecl:
		for _, d := range v.Declarations {
			if d.Init != nil {
				d.Init = o.expr(d.Init)
			}
		}
		return v
	case *ast.FunctionDecl:
		v.Body = o.funcBody(v.Body)
		return v
	case *ast.ExportDecl:
		v.Decl = o.stmt(v.Decl)
		return v
	case *ast.ExprStmt:
		v.Expr = o.expr(v.Expr)
		return v
	case *ast.ReturnStmt:
		if v.Arg != nil {
			v.Arg = o.expr(v.Arg)
		}
		return v
	case *ast.IfStmt:
		v.Test = o.expr(v.Test)
		v.Cons = o.stmt(v.Cons)
		if v.Alt != nil {
			v.Alt = o.stmt(v.Alt)
		}
		return v
	case *ast.BlockStmt:
		for i, st := range v.Body {
			v.Body[i] = o.stmt(st)
		}
		return v
	case *ast.WhileStmt:
		v.Test = o.expr(v.Test)
		v.Body = o.stmt(v.Body)
		return v
	case *ast.DoWhileStmt:
		v.Body = o.stmt(v.Body)
		v.Test = o.expr(v.Test)
		return v
	case *ast.ForStmt:
		if v.Test != nil {
			v.Test = o.expr(v.Test)
		}
		if v.Update != nil {
			v.Update = o.expr(v.Update)
		}
		v.Body = o.stmt(v.Body)
		return v
	case *ast.ForOfStmt:
		v.Right = o.expr(v.Right)
		v.Body = o.stmt(v.Body)
		return v
	case *ast.ForInStmt:
		v.Right = o.expr(v.Right)
		v.Body = o.stmt(v.Body)
		return v
	case *ast.SwitchStmt:
		v.Disc = o.expr(v.Disc)
		for _, cs := range v.Cases {
			for i, st := range cs.Body {
				cs.Body[i] = o.stmt(st)
			}
		}
		return v
	case *ast.ThrowStmt:
		v.Arg = o.expr(v.Arg)
		return v
	case *ast.TryStmt:
		v.Block = o.stmt(v.Block).(*ast.BlockStmt)
		if v.Handler != nil {
			v.Handler = o.stmt(v.Handler).(*ast.BlockStmt)
		}
		if v.Finally != nil {
			v.Finally = o.stmt(v.Finally).(*ast.BlockStmt)
		}
		return v
	default:
		return s
	}
}

func (o *optimizer) funcBody(block *ast.BlockStmt) *ast.BlockStmt {
	for i, s := range block.Body {
		block.Body[i] = o.stmt(s)
	}
	hoistCommonSubexprs(block)
	if o.getterCache {
		applyGetterCache(block, o.accessors)
	}
	block.Body = removeDeadMemos(block.Body, o.pinned)
	return block
}

func (o *optimizer) expr(e ast.Expr) ast.Expr {
	if e == nil {
		return nil
	}
	switch v := e.(type) {
	case *ast.BinaryExpr:
		v.Left = o.expr(v.Left)
		v.Right = o.expr(v.Right)
		return o.foldBinary(v)
	case *ast.LogicalExpr:
		v.Left = o.expr(v.Left)
		v.Right = o.expr(v.Right)
		return o.foldLogical(v)
	case *ast.UnaryExpr:
		v.Arg = o.expr(v.Arg)
		return o.foldUnary(v)
	case *ast.ConditionalExpr:
		v.Test = o.expr(v.Test)
		v.Consequent = o.expr(v.Consequent)
		v.Alternate = o.expr(v.Alternate)
		return foldConditional(v)
	case *ast.CallExpr:
		v.Callee = o.expr(v.Callee)
		for i, a := range v.Args {
			v.Args[i] = o.expr(a)
		}
		return v
	case *ast.MemberExpr:
		v.Object = o.expr(v.Object)
		if v.Computed {
			v.Property = o.expr(v.Property)
		}
		return v
	case *ast.SequenceExpr:
		for i, x := range v.Exprs {
			v.Exprs[i] = o.expr(x)
		}
		return v
	case *ast.ArrayLiteral:
		for i, x := range v.Elements {
			if x != nil {
				v.Elements[i] = o.expr(x)
			}
		}
		return v
	case *ast.SpreadElement:
		v.Argument = o.expr(v.Argument)
		return v
	case *ast.ObjectLiteral:
		for _, p := range v.Properties {
			if p.Value != nil {
				p.Value = o.expr(p.Value)
			}
		}
		return v
	case *ast.TemplateLiteral:
		for i, x := range v.Exprs {
			v.Exprs[i] = o.expr(x)
		}
		return v
	case *ast.AwaitExpr:
		v.Arg = o.expr(v.Arg)
		return v
	case *ast.NewExpr:
		v.Callee = o.expr(v.Callee)
		for i, a := range v.Args {
			v.Args[i] = o.expr(a)
		}
		return v
	case *ast.AssignmentExpr:
		v.Value = o.expr(v.Value)
		return v
	case *ast.ArrowFunction:
		switch b := v.Body.(type) {
		case *ast.BlockStmt:
			v.Body = o.funcBody(b)
		case ast.Expr:
			v.Body = o.expr(b)
		}
		return v
	case *ast.FunctionExpr:
		v.Body = o.funcBody(v.Body)
		return v
	default:
		return e
	}
}

func numLit(e ast.Expr) (float64, bool) {
	lit, ok := e.(*ast.Literal)
	if !ok || lit.Kind != ast.NumberLit {
		return 0, false
	}
	f, err := strconv.ParseFloat(lit.Value, 64)
	return f, err == nil
}

func strLit(e ast.Expr) (string, bool) {
	lit, ok := e.(*ast.Literal)
	if !ok || lit.Kind != ast.StringLit {
		return "", false
	}
	return strings.Trim(lit.Value, `"'`), true
}

func boolLit(e ast.Expr) (bool, bool) {
	lit, ok := e.(*ast.Literal)
	if !ok || lit.Kind != ast.BoolLit {
		return false, false
	}
	return lit.Value == "true", true
}

func isNullish(e ast.Expr) bool {
	lit, ok := e.(*ast.Literal)
	return ok && (lit.Kind == ast.NullLit || lit.Kind == ast.UndefinedLit)
}

func isNonNullishLiteral(e ast.Expr) bool {
	switch v := e.(type) {
	case *ast.Literal:
		return v.Kind != ast.NullLit && v.Kind != ast.UndefinedLit
	case *ast.ArrayLiteral, *ast.ObjectLiteral:
		return true
	default:
		return false
	}
}

// isPureExpr is a conservative syntactic purity check: true only for nodes
// that can't themselves perform an observable side effect when dropped.
func isPureExpr(e ast.Expr) bool {
	switch v := e.(type) {
	case *ast.Literal, *ast.Identifier:
		return true
	case *ast.MemberExpr:
		return !v.Computed && isPureExpr(v.Object)
	case *ast.BinaryExpr:
		return isPureExpr(v.Left) && isPureExpr(v.Right)
	case *ast.UnaryExpr:
		return isPureExpr(v.Arg)
	default:
		return false
	}
}

func numExpr(f float64) ast.Expr {
	return &ast.Literal{Kind: ast.NumberLit, Value: strconv.FormatFloat(f, 'g', -1, 64)}
}

func boolExpr(b bool) ast.Expr {
	return &ast.Literal{Kind: ast.BoolLit, Value: strconv.FormatBool(b)}
}

func strExpr(s string) ast.Expr {
	return &ast.Literal{Kind: ast.StringLit, Value: `"` + s + `"`}
}

func (o *optimizer) foldBinary(v *ast.BinaryExpr) ast.Expr {
	if lv, lok := numLit(v.Left); lok {
		if rv, rok := numLit(v.Right); rok {
			switch v.Op {
			case "+":
				return numExpr(lv + rv)
			case "-":
				return numExpr(lv - rv)
			case "*":
				return numExpr(lv * rv)
			case "/":
				if rv != 0 {
					return numExpr(lv / rv)
				}
			case "**":
				return numExpr(math.Pow(lv, rv))
			case "===", "==":
				return boolExpr(lv == rv)
			case "!==", "!=":
				return boolExpr(lv != rv)
			case "<":
				return boolExpr(lv < rv)
			case "<=":
				return boolExpr(lv <= rv)
			case ">":
				return boolExpr(lv > rv)
			case ">=":
				return boolExpr(lv >= rv)
			}
		}
	}
	if ls, lok := strLit(v.Left); lok && v.Op == "+" {
		if rs, rok := strLit(v.Right); rok {
			return strExpr(ls + rs)
		}
	}
	if o.full {
		// x**0 -> 1 holds for every JS numeric value, including NaN/Infinity,
		// so it needs no numericity proof on x.
		if v.Op == "**" {
			if rv, rok := numLit(v.Right); rok && rv == 0 {
				return numExpr(1)
			}
		}
		if simplified, ok := o.identityFold(v); ok {
			return simplified
		}
	}
	return v
}

// identityFold applies the identity-element simplifications that are only
// sound on numbers: x+0, 0+x, x-0, x*1, 1*x, x/1, x**1 -> x. Each requires
// the surviving operand to be proven numeric (`"a" + 0` is "a0", not "a"),
// which in practice means it fires on folded arithmetic subtrees, never on
// bare identifiers.
func (o *optimizer) identityFold(v *ast.BinaryExpr) (ast.Expr, bool) {
	lv, lok := numLit(v.Left)
	rv, rok := numLit(v.Right)
	switch v.Op {
	case "+":
		if rok && rv == 0 && provenNumeric(v.Left) {
			return v.Left, true
		}
		if lok && lv == 0 && provenNumeric(v.Right) {
			return v.Right, true
		}
	case "-":
		if rok && rv == 0 && provenNumeric(v.Left) {
			return v.Left, true
		}
	case "*":
		if rok && rv == 1 && provenNumeric(v.Left) {
			return v.Left, true
		}
		if lok && lv == 1 && provenNumeric(v.Right) {
			return v.Right, true
		}
	case "/", "**":
		if rok && rv == 1 && provenNumeric(v.Left) {
			return v.Left, true
		}
	}
	return nil, false
}

func (o *optimizer) foldLogical(v *ast.LogicalExpr) ast.Expr {
	if v.Op == "??" {
		if isNullish(v.Left) {
			return v.Right
		}
		if isNonNullishLiteral(v.Left) && isPureExpr(v.Right) {
			return v.Left
		}
		return v
	}
	if !o.full {
		return v
	}
	b, isBool := boolLit(v.Left)
	if !isBool {
		return v
	}
	switch v.Op {
	case "&&":
		if b {
			return v.Right // true && x -> x
		}
		if isPureExpr(v.Right) {
			return v.Left // false && x -> false, dropping x only when safe to
		}
	case "||":
		if !b {
			return v.Right // false || x -> x
		}
		if isPureExpr(v.Right) {
			return v.Left // true || x -> true, dropping x only when safe to
		}
	}
	return v
}

func (o *optimizer) foldUnary(v *ast.UnaryExpr) ast.Expr {
	if v.Op == "!" {
		if b, ok := boolLit(v.Arg); ok {
			return boolExpr(!b)
		}
	}
	if v.Op == "-" {
		if f, ok := numLit(v.Arg); ok {
			return numExpr(-f)
		}
		// double negation, sound only on proven numbers (-(-x) coerces
		// anything else)
		if inner, ok := v.Arg.(*ast.UnaryExpr); ok && o.full && inner.Op == "-" && provenNumeric(inner.Arg) {
			return inner.Arg
		}
	}
	return v
}

func foldConditional(v *ast.ConditionalExpr) ast.Expr {
	if b, ok := boolLit(v.Test); ok {
		if b {
			return v.Consequent
		}
		return v.Alternate
	}
	if v.Consequent.String() == v.Alternate.String() && isPureExpr(v.Test) {
		return v.Consequent
	}
	return v
}

// --- getter cache ---

// applyGetterCache hoists a memo accessor call invoked twice or more within
// block, not crossing into a nested function's own body, into one
// `const __cN = name();` at the top of block and rewrites every call in
// block to read the cached value. Only names in accessors are eligible: an
// arbitrary zero-arg call may have side effects, and a signal read may be
// interleaved with a setter call that would make the cached value stale.
func applyGetterCache(block *ast.BlockStmt, accessors map[string]bool) {
	counts := map[string]int{}
	countGetterCallsStmt(block, counts)

	var names []string
	for name, n := range counts {
		if n >= 2 && accessors[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var prologue []ast.Stmt
	for i, name := range names {
		tmp := fmt.Sprintf("__c%d", i+1)
		prologue = append(prologue, &ast.VarDecl{
			VKind: ast.KindConst,
			Declarations: []*ast.VarDeclarator{{
				Name: &ast.Identifier{Name: tmp},
				Init: &ast.CallExpr{Callee: &ast.Identifier{Name: name}},
			}},
		})
		replaceGetterCallsStmt(block, name, tmp)
	}
	block.Body = append(prologue, block.Body...)
}

func countGetterCallsStmt(s ast.Stmt, counts map[string]int) {
	switch v := s.(type) {
	case *ast.VarDecl:
		for _, d := range v.Declarations {
			if d.Init != nil {
				countGetterCallsExpr(d.Init, counts)
			}
		}
	case *ast.ExprStmt:
		countGetterCallsExpr(v.Expr, counts)
	case *ast.ReturnStmt:
		if v.Arg != nil {
			countGetterCallsExpr(v.Arg, counts)
		}
	case *ast.IfStmt:
		countGetterCallsExpr(v.Test, counts)
		countGetterCallsStmt(v.Cons, counts)
		if v.Alt != nil {
			countGetterCallsStmt(v.Alt, counts)
		}
	case *ast.BlockStmt:
		for _, st := range v.Body {
			countGetterCallsStmt(st, counts)
		}
	case *ast.WhileStmt:
		countGetterCallsExpr(v.Test, counts)
		countGetterCallsStmt(v.Body, counts)
	case *ast.DoWhileStmt:
		countGetterCallsStmt(v.Body, counts)
		countGetterCallsExpr(v.Test, counts)
	case *ast.ForStmt:
		if v.Test != nil {
			countGetterCallsExpr(v.Test, counts)
		}
		if v.Update != nil {
			countGetterCallsExpr(v.Update, counts)
		}
		countGetterCallsStmt(v.Body, counts)
	case *ast.ForOfStmt:
		countGetterCallsExpr(v.Right, counts)
		countGetterCallsStmt(v.Body, counts)
	case *ast.ForInStmt:
		countGetterCallsExpr(v.Right, counts)
		countGetterCallsStmt(v.Body, counts)
	case *ast.SwitchStmt:
		countGetterCallsExpr(v.Disc, counts)
		for _, cs := range v.Cases {
			for _, st := range cs.Body {
				countGetterCallsStmt(st, counts)
			}
		}
	case *ast.ThrowStmt:
		countGetterCallsExpr(v.Arg, counts)
	case *ast.ExportDecl:
		countGetterCallsStmt(v.Decl, counts)
	}
	// FunctionDecl and TryStmt bodies are deliberately not descended into: a
	// nested function is its own cache scope, and a try block may abort
	// before reaching a later use, so hoisting across it isn't sound.
}

func countGetterCallsExpr(e ast.Expr, counts map[string]int) {
	if e == nil {
		return
	}
	switch v := e.(type) {
	case *ast.CallExpr:
		if id, ok := v.Callee.(*ast.Identifier); ok && len(v.Args) == 0 {
			counts[id.Name]++
			return
		}
		countGetterCallsExpr(v.Callee, counts)
		for _, a := range v.Args {
			countGetterCallsExpr(a, counts)
		}
	case *ast.BinaryExpr:
		countGetterCallsExpr(v.Left, counts)
		countGetterCallsExpr(v.Right, counts)
	case *ast.LogicalExpr:
		countGetterCallsExpr(v.Left, counts)
		countGetterCallsExpr(v.Right, counts)
	case *ast.UnaryExpr:
		countGetterCallsExpr(v.Arg, counts)
	case *ast.ConditionalExpr:
		countGetterCallsExpr(v.Test, counts)
		countGetterCallsExpr(v.Consequent, counts)
		countGetterCallsExpr(v.Alternate, counts)
	case *ast.MemberExpr:
		countGetterCallsExpr(v.Object, counts)
		if v.Computed {
			countGetterCallsExpr(v.Property, counts)
		}
	case *ast.SequenceExpr:
		for _, x := range v.Exprs {
			countGetterCallsExpr(x, counts)
		}
	case *ast.ArrayLiteral:
		for _, x := range v.Elements {
			if x != nil {
				countGetterCallsExpr(x, counts)
			}
		}
	case *ast.ObjectLiteral:
		for _, p := range v.Properties {
			if p.Value != nil {
				countGetterCallsExpr(p.Value, counts)
			}
		}
	case *ast.TemplateLiteral:
		for _, x := range v.Exprs {
			countGetterCallsExpr(x, counts)
		}
	case *ast.SpreadElement:
		countGetterCallsExpr(v.Argument, counts)
	case *ast.AwaitExpr:
		countGetterCallsExpr(v.Arg, counts)
	case *ast.AssignmentExpr:
		countGetterCallsExpr(v.Value, counts)
	}
	// ArrowFunction/FunctionExpr bodies are not descended into, same reason.
}

func replaceGetterCallsStmt(s ast.Stmt, name, tmp string) {
	switch v := s.(type) {
	case *ast.VarDecl:
		for _, d := range v.Declarations {
			if d.Init != nil {
				d.Init = replaceGetterCallsExpr(d.Init, name, tmp)
			}
		}
	case *ast.ExprStmt:
		v.Expr = replaceGetterCallsExpr(v.Expr, name, tmp)
	case *ast.ReturnStmt:
		if v.Arg != nil {
			v.Arg = replaceGetterCallsExpr(v.Arg, name, tmp)
		}
	case *ast.IfStmt:
		v.Test = replaceGetterCallsExpr(v.Test, name, tmp)
		replaceGetterCallsStmt(v.Cons, name, tmp)
		if v.Alt != nil {
			replaceGetterCallsStmt(v.Alt, name, tmp)
		}
	case *ast.BlockStmt:
		for _, st := range v.Body {
			replaceGetterCallsStmt(st, name, tmp)
		}
	case *ast.WhileStmt:
		v.Test = replaceGetterCallsExpr(v.Test, name, tmp)
		replaceGetterCallsStmt(v.Body, name, tmp)
	case *ast.DoWhileStmt:
		replaceGetterCallsStmt(v.Body, name, tmp)
		v.Test = replaceGetterCallsExpr(v.Test, name, tmp)
	case *ast.ForStmt:
		if v.Test != nil {
			v.Test = replaceGetterCallsExpr(v.Test, name, tmp)
		}
		if v.Update != nil {
			v.Update = replaceGetterCallsExpr(v.Update, name, tmp)
		}
		replaceGetterCallsStmt(v.Body, name, tmp)
	case *ast.ForOfStmt:
		v.Right = replaceGetterCallsExpr(v.Right, name, tmp)
		replaceGetterCallsStmt(v.Body, name, tmp)
	case *ast.ForInStmt:
		v.Right = replaceGetterCallsExpr(v.Right, name, tmp)
		replaceGetterCallsStmt(v.Body, name, tmp)
	case *ast.SwitchStmt:
		v.Disc = replaceGetterCallsExpr(v.Disc, name, tmp)
		for _, cs := range v.Cases {
			for i, st := range cs.Body {
				replaceGetterCallsStmt(st, name, tmp)
				cs.Body[i] = st
			}
		}
	case *ast.ThrowStmt:
		v.Arg = replaceGetterCallsExpr(v.Arg, name, tmp)
	case *ast.ExportDecl:
		replaceGetterCallsStmt(v.Decl, name, tmp)
	}
}

func replaceGetterCallsExpr(e ast.Expr, name, tmp string) ast.Expr {
	if e == nil {
		return nil
	}
	switch v := e.(type) {
	case *ast.CallExpr:
		if id, ok := v.Callee.(*ast.Identifier); ok && len(v.Args) == 0 && id.Name == name {
			return &ast.Identifier{Name: tmp}
		}
		v.Callee = replaceGetterCallsExpr(v.Callee, name, tmp)
		for i, a := range v.Args {
			v.Args[i] = replaceGetterCallsExpr(a, name, tmp)
		}
		return v
	case *ast.BinaryExpr:
		v.Left = replaceGetterCallsExpr(v.Left, name, tmp)
		v.Right = replaceGetterCallsExpr(v.Right, name, tmp)
		return v
	case *ast.LogicalExpr:
		v.Left = replaceGetterCallsExpr(v.Left, name, tmp)
		v.Right = replaceGetterCallsExpr(v.Right, name, tmp)
		return v
	case *ast.UnaryExpr:
		v.Arg = replaceGetterCallsExpr(v.Arg, name, tmp)
		return v
	case *ast.ConditionalExpr:
		v.Test = replaceGetterCallsExpr(v.Test, name, tmp)
		v.Consequent = replaceGetterCallsExpr(v.Consequent, name, tmp)
		v.Alternate = replaceGetterCallsExpr(v.Alternate, name, tmp)
		return v
	case *ast.MemberExpr:
		v.Object = replaceGetterCallsExpr(v.Object, name, tmp)
		if v.Computed {
			v.Property = replaceGetterCallsExpr(v.Property, name, tmp)
		}
		return v
	case *ast.SequenceExpr:
		for i, x := range v.Exprs {
			v.Exprs[i] = replaceGetterCallsExpr(x, name, tmp)
		}
		return v
	case *ast.ArrayLiteral:
		for i, x := range v.Elements {
			if x != nil {
				v.Elements[i] = replaceGetterCallsExpr(x, name, tmp)
			}
		}
		return v
	case *ast.ObjectLiteral:
		for _, p := range v.Properties {
			if p.Value != nil {
				p.Value = replaceGetterCallsExpr(p.Value, name, tmp)
			}
		}
		return v
	case *ast.TemplateLiteral:
		for i, x := range v.Exprs {
			v.Exprs[i] = replaceGetterCallsExpr(x, name, tmp)
		}
		return v
	case *ast.SpreadElement:
		v.Argument = replaceGetterCallsExpr(v.Argument, name, tmp)
		return v
	case *ast.AwaitExpr:
		v.Arg = replaceGetterCallsExpr(v.Arg, name, tmp)
		return v
	case *ast.AssignmentExpr:
		v.Value = replaceGetterCallsExpr(v.Value, name, tmp)
		return v
	default:
		return e
	}
}

// --- reactive-graph DCE ---

// removeDeadMemos drops `const name = __fictUseMemo(...)` declarations that
// nothing in stmts reads, iterating to a fixpoint since removing one memo
// can make another (that only it referenced) dead in turn. Bindings in
// pinned (explicit $memo wrappers) are kept regardless.
func removeDeadMemos(stmts []ast.Stmt, pinned map[string]bool) []ast.Stmt {
	for {
		refs := map[string]int{}
		for _, s := range stmts {
			countAllRefsStmt(s, refs)
		}
		changed := false
		var out []ast.Stmt
		for _, s := range stmts {
			if vd, ok := s.(*ast.VarDecl); ok {
				var kept []*ast.VarDeclarator
				for _, d := range vd.Declarations {
					if isMemoDecl(d) && refs[primaryDeclName(d)] == 0 && !pinned[primaryDeclName(d)] {
						changed = true
						continue
					}
					kept = append(kept, d)
				}
				if len(kept) == 0 {
					changed = true
					continue
				}
				vd.Declarations = kept
				out = append(out, vd)
				continue
			}
			out = append(out, s)
		}
		stmts = out
		if !changed {
			return stmts
		}
	}
}

func isMemoDecl(d *ast.VarDeclarator) bool {
	call, ok := d.Init.(*ast.CallExpr)
	if !ok {
		return false
	}
	id, ok := call.Callee.(*ast.Identifier)
	return ok && id.Name == "__fictUseMemo"
}

func primaryDeclName(d *ast.VarDeclarator) string {
	if id, ok := d.Name.(*ast.Identifier); ok {
		return id.Name
	}
	return ""
}

func countAllRefsStmt(s ast.Stmt, refs map[string]int) {
	switch v := s.(type) {
	case *ast.VarDecl:
		for _, d := range v.Declarations {
			if d.Init != nil {
				countAllRefsExpr(d.Init, refs)
			}
		}
	case *ast.FunctionDecl:
		countAllRefsStmt(v.Body, refs)
	case *ast.ExportDecl:
		countAllRefsStmt(v.Decl, refs)
	case *ast.ExprStmt:
		countAllRefsExpr(v.Expr, refs)
	case *ast.ReturnStmt:
		if v.Arg != nil {
			countAllRefsExpr(v.Arg, refs)
		}
	case *ast.IfStmt:
		countAllRefsExpr(v.Test, refs)
		countAllRefsStmt(v.Cons, refs)
		if v.Alt != nil {
			countAllRefsStmt(v.Alt, refs)
		}
	case *ast.BlockStmt:
		for _, st := range v.Body {
			countAllRefsStmt(st, refs)
		}
	case *ast.WhileStmt:
		countAllRefsExpr(v.Test, refs)
		countAllRefsStmt(v.Body, refs)
	case *ast.DoWhileStmt:
		countAllRefsStmt(v.Body, refs)
		countAllRefsExpr(v.Test, refs)
	case *ast.ForStmt:
		if v.Test != nil {
			countAllRefsExpr(v.Test, refs)
		}
		if v.Update != nil {
			countAllRefsExpr(v.Update, refs)
		}
		countAllRefsStmt(v.Body, refs)
	case *ast.ForOfStmt:
		countAllRefsExpr(v.Right, refs)
		countAllRefsStmt(v.Body, refs)
	case *ast.ForInStmt:
		countAllRefsExpr(v.Right, refs)
		countAllRefsStmt(v.Body, refs)
	case *ast.SwitchStmt:
		countAllRefsExpr(v.Disc, refs)
		for _, cs := range v.Cases {
			for _, st := range cs.Body {
				countAllRefsStmt(st, refs)
			}
		}
	case *ast.ThrowStmt:
		countAllRefsExpr(v.Arg, refs)
	case *ast.TryStmt:
		countAllRefsStmt(v.Block, refs)
		if v.Handler != nil {
			countAllRefsStmt(v.Handler, refs)
		}
		if v.Finally != nil {
			countAllRefsStmt(v.Finally, refs)
		}
	}
}

func countAllRefsExpr(e ast.Expr, refs map[string]int) {
	if e == nil {
		return
	}
	switch v := e.(type) {
	case *ast.Identifier:
		refs[v.Name]++
	case *ast.CallExpr:
		countAllRefsExpr(v.Callee, refs)
		for _, a := range v.Args {
			countAllRefsExpr(a, refs)
		}
	case *ast.NewExpr:
		countAllRefsExpr(v.Callee, refs)
		for _, a := range v.Args {
			countAllRefsExpr(a, refs)
		}
	case *ast.BinaryExpr:
		countAllRefsExpr(v.Left, refs)
		countAllRefsExpr(v.Right, refs)
	case *ast.LogicalExpr:
		countAllRefsExpr(v.Left, refs)
		countAllRefsExpr(v.Right, refs)
	case *ast.UnaryExpr:
		countAllRefsExpr(v.Arg, refs)
	case *ast.UpdateExpr:
		countAllRefsExpr(v.Arg, refs)
	case *ast.ConditionalExpr:
		countAllRefsExpr(v.Test, refs)
		countAllRefsExpr(v.Consequent, refs)
		countAllRefsExpr(v.Alternate, refs)
	case *ast.MemberExpr:
		countAllRefsExpr(v.Object, refs)
		if v.Computed {
			countAllRefsExpr(v.Property, refs)
		}
	case *ast.SequenceExpr:
		for _, x := range v.Exprs {
			countAllRefsExpr(x, refs)
		}
	case *ast.ArrayLiteral:
		for _, x := range v.Elements {
			if x != nil {
				countAllRefsExpr(x, refs)
			}
		}
	case *ast.ObjectLiteral:
		for _, p := range v.Properties {
			if p.Value != nil {
				countAllRefsExpr(p.Value, refs)
			}
		}
	case *ast.TemplateLiteral:
		for _, x := range v.Exprs {
			countAllRefsExpr(x, refs)
		}
	case *ast.SpreadElement:
		countAllRefsExpr(v.Argument, refs)
	case *ast.AwaitExpr:
		countAllRefsExpr(v.Arg, refs)
	case *ast.AssignmentExpr:
		countAllRefsExpr(v.Value, refs)
		if target, ok := v.Target.(ast.Expr); ok {
			if _, isID := v.Target.(*ast.Identifier); !isID {
				countAllRefsExpr(target, refs)
			}
		}
	case *ast.ArrowFunction:
		switch b := v.Body.(type) {
		case *ast.BlockStmt:
			countAllRefsStmt(b, refs)
		case ast.Expr:
			countAllRefsExpr(b, refs)
		}
	case *ast.FunctionExpr:
		countAllRefsStmt(v.Body, refs)
	}
}

// --- cross-block CSE ---

// hoistCommonSubexprs finds pure arithmetic expressions (identifier and
// literal operands only — no calls, no member access, nothing that can
// throw or observe state) occurring textually identical two or more times
// anywhere in block, whose input identifiers are neither written nor
// declared inside block, and hoists each into a single
// `const __cseN = expr;` temporary at the top of block.
func hoistCommonSubexprs(block *ast.BlockStmt) {
	excluded := map[string]bool{}
	collectWritesAndDecls(block, excluded)

	counts := map[string]int{}
	first := map[string]ast.Expr{}
	var order []string
	walkMaximalPureExprs(block, func(e ast.Expr) {
		if !cseEligible(e, excluded) {
			return
		}
		key := e.String()
		if counts[key] == 0 {
			first[key] = e
			order = append(order, key)
		}
		counts[key]++
	})

	var prologue []ast.Stmt
	n := 0
	for _, key := range order {
		if counts[key] < 2 {
			continue
		}
		n++
		tmp := fmt.Sprintf("__cse%d", n)
		prologue = append(prologue, &ast.VarDecl{
			VKind: ast.KindConst,
			Declarations: []*ast.VarDeclarator{{
				Name: &ast.Identifier{Name: tmp},
				Init: first[key],
			}},
		})
		replaceExprByText(block, key, tmp)
	}
	block.Body = append(prologue, block.Body...)
}

// cseEligible restricts CSE to expressions built from identifiers and
// literals under binary/logical/unary/conditional operators. Anything that
// could call, allocate, access a property, or depend on a name mutated or
// declared within the enclosing block is out.
func cseEligible(e ast.Expr, excluded map[string]bool) bool {
	compound := false
	ok := true
	var check func(x ast.Expr)
	check = func(x ast.Expr) {
		if !ok || x == nil {
			return
		}
		switch v := x.(type) {
		case *ast.Identifier:
			if excluded[v.Name] {
				ok = false
			}
		case *ast.Literal:
		case *ast.BinaryExpr:
			compound = true
			check(v.Left)
			check(v.Right)
		case *ast.LogicalExpr:
			compound = true
			check(v.Left)
			check(v.Right)
		case *ast.UnaryExpr:
			if v.Op == "delete" {
				ok = false
				return
			}
			compound = true
			check(v.Arg)
		case *ast.ConditionalExpr:
			compound = true
			check(v.Test)
			check(v.Consequent)
			check(v.Alternate)
		default:
			ok = false
		}
	}
	check(e)
	return ok && compound
}

// collectWritesAndDecls records every name assigned, updated, or declared
// anywhere in block (including nested functions, which could close over and
// mutate a block-scoped name).
func collectWritesAndDecls(s ast.Stmt, out map[string]bool) {
	markPattern := func(p ast.Pattern) {
		if p == nil {
			return
		}
		if id, ok := p.(*ast.Identifier); ok {
			out[id.Name] = true
		}
	}
	var walkExpr func(e ast.Expr)
	walkExpr = func(e ast.Expr) {
		ast.WalkExpr(e, func(x ast.Expr) {
			switch v := x.(type) {
			case *ast.AssignmentExpr:
				if id, ok := v.Target.(*ast.Identifier); ok {
					out[id.Name] = true
				}
			case *ast.UpdateExpr:
				if id, ok := v.Arg.(*ast.Identifier); ok {
					out[id.Name] = true
				}
			}
		})
	}
	var walk func(st ast.Stmt)
	walk = func(st ast.Stmt) {
		switch v := st.(type) {
		case *ast.VarDecl:
			for _, d := range v.Declarations {
				markPattern(d.Name)
				walkExpr(d.Init)
			}
		case *ast.FunctionDecl:
			out[v.Name] = true
			walk(v.Body)
		case *ast.ExportDecl:
			walk(v.Decl)
		case *ast.ExprStmt:
			walkExpr(v.Expr)
		case *ast.ReturnStmt:
			walkExpr(v.Arg)
		case *ast.IfStmt:
			walkExpr(v.Test)
			walk(v.Cons)
			if v.Alt != nil {
				walk(v.Alt)
			}
		case *ast.BlockStmt:
			for _, st2 := range v.Body {
				walk(st2)
			}
		case *ast.WhileStmt:
			walkExpr(v.Test)
			walk(v.Body)
		case *ast.DoWhileStmt:
			walk(v.Body)
			walkExpr(v.Test)
		case *ast.ForStmt:
			if init, ok := v.Init.(ast.Stmt); ok {
				walk(init)
			} else if init, ok := v.Init.(ast.Expr); ok {
				walkExpr(init)
			}
			walkExpr(v.Test)
			walkExpr(v.Update)
			walk(v.Body)
		case *ast.ForOfStmt:
			if decl, ok := v.Left.(*ast.VarDecl); ok {
				walk(decl)
			}
			walkExpr(v.Right)
			walk(v.Body)
		case *ast.ForInStmt:
			if decl, ok := v.Left.(*ast.VarDecl); ok {
				walk(decl)
			}
			walkExpr(v.Right)
			walk(v.Body)
		case *ast.SwitchStmt:
			walkExpr(v.Disc)
			for _, cs := range v.Cases {
				for _, st2 := range cs.Body {
					walk(st2)
				}
			}
		case *ast.ThrowStmt:
			walkExpr(v.Arg)
		case *ast.TryStmt:
			walk(v.Block)
			if v.Param != nil {
				markPattern(v.Param)
			}
			if v.Handler != nil {
				walk(v.Handler)
			}
			if v.Finally != nil {
				walk(v.Finally)
			}
		}
	}
	walk(s)
}

// walkMaximalPureExprs visits statement-level expressions top-down without
// descending into nested function bodies (their scopes may shadow) or into
// try blocks (hoisting across a try boundary changes what an abort skips).
func walkMaximalPureExprs(s ast.Stmt, visit func(ast.Expr)) {
	var walkExpr func(e ast.Expr)
	walkExpr = func(e ast.Expr) {
		if e == nil {
			return
		}
		visit(e)
		switch v := e.(type) {
		case *ast.BinaryExpr:
			walkExpr(v.Left)
			walkExpr(v.Right)
		case *ast.LogicalExpr:
			walkExpr(v.Left)
			walkExpr(v.Right)
		case *ast.UnaryExpr:
			walkExpr(v.Arg)
		case *ast.ConditionalExpr:
			walkExpr(v.Test)
			walkExpr(v.Consequent)
			walkExpr(v.Alternate)
		case *ast.CallExpr:
			walkExpr(v.Callee)
			for _, a := range v.Args {
				walkExpr(a)
			}
		case *ast.NewExpr:
			for _, a := range v.Args {
				walkExpr(a)
			}
		case *ast.MemberExpr:
			walkExpr(v.Object)
			if v.Computed {
				walkExpr(v.Property)
			}
		case *ast.SequenceExpr:
			for _, x := range v.Exprs {
				walkExpr(x)
			}
		case *ast.ArrayLiteral:
			for _, x := range v.Elements {
				walkExpr(x)
			}
		case *ast.ObjectLiteral:
			for _, p := range v.Properties {
				walkExpr(p.Value)
			}
		case *ast.TemplateLiteral:
			for _, x := range v.Exprs {
				walkExpr(x)
			}
		case *ast.SpreadElement:
			walkExpr(v.Argument)
		case *ast.AssignmentExpr:
			walkExpr(v.Value)
		}
	}
	var walk func(st ast.Stmt)
	walk = func(st ast.Stmt) {
		switch v := st.(type) {
		case *ast.VarDecl:
			for _, d := range v.Declarations {
				walkExpr(d.Init)
			}
		case *ast.ExportDecl:
			walk(v.Decl)
		case *ast.ExprStmt:
			walkExpr(v.Expr)
		case *ast.ReturnStmt:
			walkExpr(v.Arg)
		case *ast.IfStmt:
			walkExpr(v.Test)
			walk(v.Cons)
			if v.Alt != nil {
				walk(v.Alt)
			}
		case *ast.BlockStmt:
			for _, st2 := range v.Body {
				walk(st2)
			}
		case *ast.WhileStmt:
			walkExpr(v.Test)
			walk(v.Body)
		case *ast.DoWhileStmt:
			walk(v.Body)
			walkExpr(v.Test)
		case *ast.ForStmt:
			walkExpr(v.Test)
			walkExpr(v.Update)
			walk(v.Body)
		case *ast.ForOfStmt:
			walkExpr(v.Right)
			walk(v.Body)
		case *ast.ForInStmt:
			walkExpr(v.Right)
			walk(v.Body)
		case *ast.SwitchStmt:
			walkExpr(v.Disc)
			for _, cs := range v.Cases {
				for _, st2 := range cs.Body {
					walk(st2)
				}
			}
		case *ast.ThrowStmt:
			walkExpr(v.Arg)
		}
	}
	walk(s)
}

// replaceExprByText swaps every expression whose printed form equals key
// for a reference to tmp, using the same traversal bounds as the counting
// walk so a counted occurrence is always replaced and vice versa.
func replaceExprByText(s ast.Stmt, key, tmp string) {
	var rw func(e ast.Expr) ast.Expr
	rw = func(e ast.Expr) ast.Expr {
		if e == nil {
			return nil
		}
		if e.String() == key {
			return &ast.Identifier{Name: tmp}
		}
		switch v := e.(type) {
		case *ast.BinaryExpr:
			v.Left = rw(v.Left)
			v.Right = rw(v.Right)
		case *ast.LogicalExpr:
			v.Left = rw(v.Left)
			v.Right = rw(v.Right)
		case *ast.UnaryExpr:
			v.Arg = rw(v.Arg)
		case *ast.ConditionalExpr:
			v.Test = rw(v.Test)
			v.Consequent = rw(v.Consequent)
			v.Alternate = rw(v.Alternate)
		case *ast.CallExpr:
			v.Callee = rw(v.Callee)
			for i, a := range v.Args {
				v.Args[i] = rw(a)
			}
		case *ast.NewExpr:
			for i, a := range v.Args {
				v.Args[i] = rw(a)
			}
		case *ast.MemberExpr:
			v.Object = rw(v.Object)
			if v.Computed {
				v.Property = rw(v.Property)
			}
		case *ast.SequenceExpr:
			for i, x := range v.Exprs {
				v.Exprs[i] = rw(x)
			}
		case *ast.ArrayLiteral:
			for i, x := range v.Elements {
				if x != nil {
					v.Elements[i] = rw(x)
				}
			}
		case *ast.ObjectLiteral:
			for _, p := range v.Properties {
				if p.Value != nil {
					p.Value = rw(p.Value)
				}
			}
		case *ast.TemplateLiteral:
			for i, x := range v.Exprs {
				v.Exprs[i] = rw(x)
			}
		case *ast.SpreadElement:
			v.Argument = rw(v.Argument)
		case *ast.AssignmentExpr:
			v.Value = rw(v.Value)
		}
		return e
	}
	var walk func(st ast.Stmt)
	walk = func(st ast.Stmt) {
		switch v := st.(type) {
		case *ast.VarDecl:
			for _, d := range v.Declarations {
				if d.Init != nil {
					d.Init = rw(d.Init)
				}
			}
		case *ast.ExportDecl:
			walk(v.Decl)
		case *ast.ExprStmt:
			v.Expr = rw(v.Expr)
		case *ast.ReturnStmt:
			if v.Arg != nil {
				v.Arg = rw(v.Arg)
			}
		case *ast.IfStmt:
			v.Test = rw(v.Test)
			walk(v.Cons)
			if v.Alt != nil {
				walk(v.Alt)
			}
		case *ast.BlockStmt:
			for _, st2 := range v.Body {
				walk(st2)
			}
		case *ast.WhileStmt:
			v.Test = rw(v.Test)
			walk(v.Body)
		case *ast.DoWhileStmt:
			walk(v.Body)
			v.Test = rw(v.Test)
		case *ast.ForStmt:
			if v.Test != nil {
				v.Test = rw(v.Test)
			}
			if v.Update != nil {
				v.Update = rw(v.Update)
			}
			walk(v.Body)
		case *ast.ForOfStmt:
			v.Right = rw(v.Right)
			walk(v.Body)
		case *ast.ForInStmt:
			v.Right = rw(v.Right)
			walk(v.Body)
		case *ast.SwitchStmt:
			v.Disc = rw(v.Disc)
			for _, cs := range v.Cases {
				for _, st2 := range cs.Body {
					walk(st2)
				}
			}
		case *ast.ThrowStmt:
			v.Arg = rw(v.Arg)
		}
	}
	walk(s)
}

// --- numericity proofs for full-level algebraic identities ---

// provenNumeric reports whether e always evaluates to a JS number: a
// numeric literal, unary +/- over a proven-numeric operand, or arithmetic
// over proven-numeric operands. Identifiers are never proven (this
// compiler has no type system), which is what keeps `x + 0 -> x` from
// firing on a possible string.
func provenNumeric(e ast.Expr) bool {
	switch v := e.(type) {
	case *ast.Literal:
		return v.Kind == ast.NumberLit
	case *ast.UnaryExpr:
		return (v.Op == "-" || v.Op == "+") && provenNumeric(v.Arg)
	case *ast.BinaryExpr:
		switch v.Op {
		case "-", "*", "/", "%", "**":
			return provenNumeric(v.Left) && provenNumeric(v.Right)
		}
	}
	return false
}
