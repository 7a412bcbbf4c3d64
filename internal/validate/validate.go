// Package validate implements the semantic validator: macro placement rules
// that are rejected before classification ever runs, using the same HIR
// block-tree traversal internal/classify and internal/depgraph already
// walk. It runs after the dependency graph is built (so callers can report
// cycles first) but before classify.Classify.
package validate

import (
	"fmt"

	"github.com/sunholo/fict/internal/ast"
	"github.com/sunholo/fict/internal/hir"
)

// Error reports one semantic-validator violation.
type Error struct {
	Message string
	Pos     ast.Pos
}

func (e *Error) Error() string { return e.Message }

var macroNames = map[string]bool{"$state": true, "$effect": true, "$memo": true}

// Check runs every placement rule over prog and returns every violation
// found; it does not stop at the first one, since a single
// source file frequently has more than one and callers (the CLI, tests)
// want the full list.
func Check(file *ast.File, prog *hir.Program) []error {
	v := &validator{sanctioned: map[ast.Expr]bool{}}
	v.collectSanctionedInits(prog)
	v.bound = v.checkImports(file)
	v.checkPlacement(prog)
	v.checkCallPositions(prog)
	return v.errors
}

type validator struct {
	errors     []error
	sanctioned map[ast.Expr]bool
	bound      map[string]bool
}

func (v *validator) fail(msg string, pos ast.Pos) {
	v.errors = append(v.errors, &Error{Message: msg, Pos: pos})
}

// checkImports rejects `import { $state as s } from "fict"` (macro imports
// cannot be aliased) and records which local names are
// legitimately bound to a macro, for checkCallPositions' "must be imported"
// rule.
func (v *validator) checkImports(file *ast.File) (boundNames map[string]bool) {
	boundNames = map[string]bool{}
	for _, s := range file.Body {
		imp, ok := s.(*ast.ImportDecl)
		if !ok || imp.Source != "fict" {
			continue
		}
		for _, spec := range imp.Specifiers {
			if !macroNames[spec.Imported] {
				continue
			}
			if spec.Local != spec.Imported {
				v.fail(fmt.Sprintf("%s: macro imports cannot be aliased", spec.Imported), imp.Pos)
				continue
			}
			boundNames[spec.Imported] = true
		}
	}
	return boundNames
}

// collectSanctionedInits marks every $state(...) call that sits directly in
// the one legal position — the initializer of a `let`/`const` declarator —
// so checkCallPositions can flag every other occurrence.
func (v *validator) collectSanctionedInits(prog *hir.Program) {
	for _, fn := range prog.Functions() {
		walkDecls(fn.Entry, func(decl *ast.VarDecl) {
			if decl.VKind == ast.KindVar {
				return
			}
			for _, d := range decl.Declarations {
				if d.Init == nil {
					continue
				}
				if _, ok := ast.IsMacroCall(d.Init, "$state"); ok {
					v.sanctioned[d.Init] = true
				}
			}
		})
	}
}

func walkDecls(b *hir.Block, visit func(*ast.VarDecl)) {
	for b != nil {
		for _, s := range b.Stmts {
			if decl, ok := s.(*ast.VarDecl); ok {
				visit(decl)
			}
		}
		for _, e := range b.Edges {
			walkDecls(e.Block, visit)
		}
		b = b.Next
	}
}

// checkCallPositions rejects every $state(...) call that is not the
// sanctioned initializer of a let/const declarator (object field, array
// element, function argument, var initializer, or plain assignment RHS),
// and every call to a bare "$state"/"$effect" identifier whose name was
// never bound by an unaliased `import ... from "fict"`.
func (v *validator) checkCallPositions(prog *hir.Program) {
	bound := v.bound
	seen := map[ast.Expr]bool{}
	for _, fn := range prog.Functions() {
		walkFunctionExprsDeep(fn, func(e ast.Expr) {
			call, ok := e.(*ast.CallExpr)
			if !ok || seen[e] {
				return
			}
			id, ok := call.Callee.(*ast.Identifier)
			if !ok || !macroNames[id.Name] {
				return
			}
			seen[e] = true
			if !bound[id.Name] {
				v.fail(fmt.Sprintf("%s: must be imported from \"fict\"", id.Name), call.Pos)
				return
			}
			if id.Name == "$state" && !v.sanctioned[e] {
				v.fail("$state(...) must be assigned directly to a variable", call.Pos)
			}
		})
	}
}

// checkPlacement rejects $state/$effect calls inside loops or conditionals,
// and $state/$effect calls in a function that is not itself a reactive
// scope: nested non-reactive functions may not declare them.
func (v *validator) checkPlacement(prog *hir.Program) {
	for _, fn := range prog.Functions() {
		if fn.Scope == hir.ScopeNone {
			walkFunctionExprsShallow(fn, func(e ast.Expr) {
				if call, ok := ast.IsMacroCall(e, "$state"); ok {
					v.fail("$state cannot be declared inside nested functions", call.Pos)
				}
				if call, ok := ast.IsMacroCall(e, "$effect"); ok {
					v.fail("$effect cannot be called inside nested functions", call.Pos)
				}
			})
			continue
		}
		v.walkBlockPlacement(fn.Entry, false, false)
	}
}

func (v *validator) walkBlockPlacement(b *hir.Block, inLoop, inCond bool) {
	for b != nil {
		for _, s := range b.Stmts {
			walkStmtTopExprs(s, func(e ast.Expr) {
				v.checkMacroContext(e, inLoop, inCond)
			})
		}
		if b.Ctrl != nil {
			walkStmtTopExprs(b.Ctrl, func(e ast.Expr) {
				v.checkMacroContext(e, inLoop, inCond)
			})
		}
		for _, e := range b.Edges {
			nextLoop, nextCond := inLoop, inCond
			switch e.Kind {
			case hir.EdgeLoopBody:
				nextLoop = true
			case hir.EdgeThen, hir.EdgeElse, hir.EdgeCase, hir.EdgeDefault:
				nextCond = true
			}
			v.walkBlockPlacement(e.Block, nextLoop, nextCond)
		}
		b = b.Next
	}
}

func (v *validator) checkMacroContext(e ast.Expr, inLoop, inCond bool) {
	if call, ok := ast.IsMacroCall(e, "$state"); ok {
		if inLoop {
			v.fail("$state cannot be declared inside loops", call.Pos)
		} else if inCond {
			v.fail("$state cannot be declared inside loops or conditionals", call.Pos)
		}
	}
	if call, ok := ast.IsMacroCall(e, "$effect"); ok {
		if inLoop || inCond {
			v.fail("$effect cannot be called inside loops or conditionals", call.Pos)
		}
	}
}

// walkStmtTopExprs visits the top-level expression(s) a statement directly
// carries, without descending into nested function bodies — the same
// shallow cut internal/classify and internal/hir use elsewhere.
func walkStmtTopExprs(s ast.Stmt, visit func(ast.Expr)) {
	switch v := s.(type) {
	case *ast.ExprStmt:
		visit(v.Expr)
	case *ast.ReturnStmt:
		if v.Arg != nil {
			visit(v.Arg)
		}
	case *ast.VarDecl:
		for _, d := range v.Declarations {
			if d.Init != nil {
				visit(d.Init)
			}
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

func walkFunctionExprsShallow(fn *hir.Function, visit func(ast.Expr)) {
	var walkBlock func(b *hir.Block)
	walkBlock = func(b *hir.Block) {
		for b != nil {
			for _, s := range b.Stmts {
				walkStmtTopExprs(s, visit)
			}
			if b.Ctrl != nil {
				walkStmtTopExprs(b.Ctrl, visit)
			}
			for _, e := range b.Edges {
				walkBlock(e.Block)
			}
			b = b.Next
		}
	}
	walkBlock(fn.Entry)
}

// walkFunctionExprsDeep visits every expression reachable from fn's own
// block tree, including nested sub-expressions (call arguments, object
// fields, array elements) that walkFunctionExprsShallow's single cut at the
// statement boundary would miss — needed to find a $state call buried
// inside an argument list or object literal.
func walkFunctionExprsDeep(fn *hir.Function, visit func(ast.Expr)) {
	walkFunctionExprsShallow(fn, func(e ast.Expr) {
		ast.WalkExpr(e, visit)
	})
}
