package hir

import "github.com/sunholo/fict/internal/ast"

// WalkEffectCalls visits every `$effect(...)` call made directly in f's own
// block tree — not inside a nested Function, which gets its own Function
// node and its own call to WalkEffectCalls via Program.Functions().
func (f *Function) WalkEffectCalls(visit func(call *ast.CallExpr)) {
	var walkBlock func(b *Block)
	walkBlock = func(b *Block) {
		for b != nil {
			for _, s := range b.Stmts {
				walkStmtTopExprs(s, func(e ast.Expr) {
					if call, ok := ast.IsMacroCall(e, "$effect"); ok {
						visit(call)
					}
				})
			}
			if b.Ctrl != nil {
				walkStmtTopExprs(b.Ctrl, func(e ast.Expr) {
					if call, ok := ast.IsMacroCall(e, "$effect"); ok {
						visit(call)
					}
				})
			}
			for _, e := range b.Edges {
				walkBlock(e.Block)
			}
			b = b.Next
		}
	}
	walkBlock(f.Entry)
}

// walkStmtTopExprs visits the top-level expression(s) a statement directly
// carries, the same shallow cut internal/classify uses to scan a function's
// own statements without descending into nested function bodies.
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
