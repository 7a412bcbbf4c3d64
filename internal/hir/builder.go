package hir

import "github.com/sunholo/fict/internal/ast"

// Build lifts file into a Program. reactiveScopeCallees names extra call
// targets (from CompilerOptions.reactiveScopes) whose first-argument
// function literal counts as a reactive scope, e.g. "renderHook".
func Build(file *ast.File, reactiveScopeCallees map[string]bool) *Program {
	p := &Program{File: file}
	module := &Function{ID: p.allocID(), Name: "<module>", Scope: ScopeComponentOrHook}
	p.Module = module

	b := &builder{p: p, extraScopes: reactiveScopeCallees}
	module.Entry = b.buildBlockTree(file.Body, module)
	return p
}

type builder struct {
	p           *Program
	extraScopes map[string]bool
}

// buildBlockTree splits stmts at the first control-flow statement, building
// nested Blocks for its bodies, and returns the head of the resulting chain.
// Functions/arrows found along the way (in declarations or expressions) are
// registered as children of fn.
func (b *builder) buildBlockTree(stmts []ast.Stmt, fn *Function) *Block {
	if len(stmts) == 0 {
		return nil
	}
	head := &Block{ID: b.p.allocID()}
	cur := head
	for i := 0; i < len(stmts); i++ {
		s := stmts[i]
		b.collectFromStmt(s, fn, cur)
		if ctrl, edges := b.splitControl(s, fn); ctrl {
			cur.Ctrl = s
			cur.Edges = edges
			rest := b.buildBlockTree(stmts[i+1:], fn)
			cur.Next = rest
			return head
		}
		cur.Stmts = append(cur.Stmts, s)
	}
	return head
}

// splitControl reports whether s is a control-flow statement and, if so,
// builds its nested edges.
func (b *builder) splitControl(s ast.Stmt, fn *Function) (bool, []Edge) {
	switch v := s.(type) {
	case *ast.IfStmt:
		edges := []Edge{{Kind: EdgeThen, Block: b.buildBlockTree(asBlock(v.Cons), fn)}}
		if v.Alt != nil {
			edges = append(edges, Edge{Kind: EdgeElse, Block: b.buildBlockTree(asBlock(v.Alt), fn)})
		}
		return true, edges
	case *ast.SwitchStmt:
		var edges []Edge
		for _, c := range v.Cases {
			kind := EdgeCase
			label := ""
			if c.Test == nil {
				kind = EdgeDefault
			} else {
				label = c.Test.String()
			}
			edges = append(edges, Edge{Kind: kind, Label: label, Block: b.buildBlockTree(c.Body, fn)})
		}
		return true, edges
	case *ast.WhileStmt:
		return true, []Edge{{Kind: EdgeLoopBody, Block: b.buildBlockTree(asBlock(v.Body), fn)}}
	case *ast.DoWhileStmt:
		return true, []Edge{{Kind: EdgeLoopBody, Block: b.buildBlockTree(asBlock(v.Body), fn)}}
	case *ast.ForStmt:
		return true, []Edge{{Kind: EdgeLoopBody, Block: b.buildBlockTree(asBlock(v.Body), fn)}}
	case *ast.ForInStmt:
		return true, []Edge{{Kind: EdgeLoopBody, Block: b.buildBlockTree(asBlock(v.Body), fn)}}
	case *ast.ForOfStmt:
		return true, []Edge{{Kind: EdgeLoopBody, Block: b.buildBlockTree(asBlock(v.Body), fn)}}
	case *ast.LabeledStmt:
		return b.splitControl(v.Body, fn)
	case *ast.TryStmt:
		edges := []Edge{{Kind: EdgeTry, Block: b.buildBlockTree(v.Block.Body, fn)}}
		if v.Handler != nil {
			catchBlock := b.buildBlockTree(v.Handler.Body, fn)
			if v.Param != nil {
				b.p.Bindings = append(b.p.Bindings, &Binding{
					Name: primaryPatternName(v.Param), Pattern: v.Param, Func: fn, Block: catchBlock, Decl: v,
				})
			}
			edges = append(edges, Edge{Kind: EdgeCatch, Block: catchBlock})
		}
		if v.Finally != nil {
			edges = append(edges, Edge{Kind: EdgeFinally, Block: b.buildBlockTree(v.Finally.Body, fn)})
		}
		return true, edges
	default:
		return false, nil
	}
}

func asBlock(s ast.Stmt) []ast.Stmt {
	if b, ok := s.(*ast.BlockStmt); ok {
		return b.Body
	}
	return []ast.Stmt{s}
}

// collectFromStmt records bindings declared by s and discovers nested
// function literals inside any expression s contains. blk is the
// straight-line block s belongs to, attached to any Binding it declares.
func (b *builder) collectFromStmt(s ast.Stmt, fn *Function, blk *Block) {
	switch v := s.(type) {
	case *ast.VarDecl:
		for _, d := range v.Declarations {
			b.p.Bindings = append(b.p.Bindings, &Binding{
				Name:  primaryPatternName(d.Name),
				Pattern: d.Name, Init: d.Init, VKind: v.VKind, Func: fn, Block: blk, Decl: v,
			})
			if d.Init != nil {
				b.walkExpr(d.Init, fn)
			}
		}
	case *ast.FunctionDecl:
		b.p.Bindings = append(b.p.Bindings, &Binding{Name: v.Name, Func: fn, Block: blk, Decl: v})
		b.newFunction(v.Name, v, v.Params, v.Body, v.Async, fn, scopeForDeclContext(fn))
	case *ast.ExprStmt:
		b.walkExpr(v.Expr, fn)
	case *ast.ReturnStmt:
		if v.Arg != nil {
			b.walkExpr(v.Arg, fn)
		}
	case *ast.ThrowStmt:
		b.walkExpr(v.Arg, fn)
	case *ast.IfStmt:
		b.walkExpr(v.Test, fn)
	case *ast.SwitchStmt:
		b.walkExpr(v.Disc, fn)
		for _, c := range v.Cases {
			if c.Test != nil {
				b.walkExpr(c.Test, fn)
			}
		}
	case *ast.WhileStmt:
		b.walkExpr(v.Test, fn)
	case *ast.DoWhileStmt:
		b.walkExpr(v.Test, fn)
	case *ast.ForStmt:
		if d, ok := v.Init.(*ast.VarDecl); ok {
			b.collectFromStmt(d, fn, blk)
		} else if e, ok := v.Init.(ast.Expr); ok && e != nil {
			b.walkExpr(e, fn)
		}
		if v.Test != nil {
			b.walkExpr(v.Test, fn)
		}
		if v.Update != nil {
			b.walkExpr(v.Update, fn)
		}
	case *ast.ForInStmt:
		b.walkExpr(v.Right, fn)
	case *ast.ForOfStmt:
		b.walkExpr(v.Right, fn)
	case *ast.ExportDecl:
		b.collectFromStmt(v.Decl, fn, blk)
		markExported(v.Decl, b.p.Bindings)
	}
	// TryStmt's nested blocks are walked by splitControl, which calls
	// buildBlockTree (and thus collectFromStmt) over Block/Handler/Finally.
}

func markExported(s ast.Stmt, bindings []*Binding) {
	switch v := s.(type) {
	case *ast.VarDecl:
		for _, d := range v.Declarations {
			name := primaryPatternName(d.Name)
			for _, bd := range bindings {
				if bd.Decl == s && bd.Name == name {
					bd.Exported = true
				}
			}
		}
	case *ast.FunctionDecl:
		for _, bd := range bindings {
			if bd.Decl == s && bd.Name == v.Name {
				bd.Exported = true
			}
		}
	}
}

// walkExpr recurses through an expression tree, registering any function
// literal it finds as a child of fn.
func (b *builder) walkExpr(e ast.Expr, fn *Function) {
	if e == nil {
		return
	}
	switch v := e.(type) {
	case *ast.ArrowFunction:
		b.newFunction("", v, v.Params, v.Body, v.Async, fn, scopeForCallContext(fn, nil, false))
	case *ast.FunctionExpr:
		b.newFunction(v.Name, v, v.Params, v.Body, v.Async, fn, scopeForCallContext(fn, nil, false))
	case *ast.CallExpr:
		b.walkExpr(v.Callee, fn)
		calleeName, isFirstArgCall := calleeIdentifierName(v.Callee)
		for i, a := range v.Args {
			if i == 0 && isFirstArgCall && b.extraScopes[calleeName] {
				if isFunctionLiteral(a) {
					b.registerCallbackFunction(a, fn, ScopeConfiguredCallback)
					continue
				}
			}
			b.walkExpr(a, fn)
		}
	case *ast.NewExpr:
		b.walkExpr(v.Callee, fn)
		for _, a := range v.Args {
			b.walkExpr(a, fn)
		}
	case *ast.BinaryExpr:
		b.walkExpr(v.Left, fn)
		b.walkExpr(v.Right, fn)
	case *ast.LogicalExpr:
		b.walkExpr(v.Left, fn)
		b.walkExpr(v.Right, fn)
	case *ast.UnaryExpr:
		b.walkExpr(v.Arg, fn)
	case *ast.UpdateExpr:
		b.walkExpr(v.Arg, fn)
	case *ast.AssignmentExpr:
		if target, ok := v.Target.(ast.Expr); ok {
			b.walkExpr(target, fn)
		}
		b.walkExpr(v.Value, fn)
	case *ast.ConditionalExpr:
		b.walkExpr(v.Test, fn)
		b.walkExpr(v.Consequent, fn)
		b.walkExpr(v.Alternate, fn)
	case *ast.MemberExpr:
		b.walkExpr(v.Object, fn)
		if v.Computed {
			b.walkExpr(v.Property, fn)
		}
	case *ast.SequenceExpr:
		for _, x := range v.Exprs {
			b.walkExpr(x, fn)
		}
	case *ast.ArrayLiteral:
		for _, x := range v.Elements {
			b.walkExpr(x, fn)
		}
	case *ast.SpreadElement:
		b.walkExpr(v.Argument, fn)
	case *ast.ObjectLiteral:
		for _, prop := range v.Properties {
			if prop.Value != nil {
				b.walkExpr(prop.Value, fn)
			}
		}
	case *ast.TemplateLiteral:
		for _, x := range v.Exprs {
			b.walkExpr(x, fn)
		}
	case *ast.TSNonNull:
		b.walkExpr(v.Expr, fn)
	case *ast.TSAs:
		b.walkExpr(v.Expr, fn)
	case *ast.TSSatisfies:
		b.walkExpr(v.Expr, fn)
	case *ast.AwaitExpr:
		b.walkExpr(v.Arg, fn)
	case *ast.JSXElement:
		for _, a := range v.Attributes {
			if a.Value != nil {
				b.walkExpr(a.Value, fn)
			}
			if a.Spread != nil {
				b.walkExpr(a.Spread, fn)
			}
		}
		for _, c := range v.Children {
			b.walkExpr(c, fn)
		}
	case *ast.JSXFragment:
		for _, c := range v.Children {
			b.walkExpr(c, fn)
		}
	case *ast.JSXExpressionContainer:
		b.walkExpr(v.Expr, fn)
	}
}

func isFunctionLiteral(e ast.Expr) bool {
	switch e.(type) {
	case *ast.ArrowFunction, *ast.FunctionExpr:
		return true
	default:
		return false
	}
}

func (b *builder) registerCallbackFunction(e ast.Expr, parent *Function, scope ScopeKind) {
	switch v := e.(type) {
	case *ast.ArrowFunction:
		b.newFunction("", v, v.Params, v.Body, v.Async, parent, scope)
	case *ast.FunctionExpr:
		b.newFunction(v.Name, v, v.Params, v.Body, v.Async, parent, scope)
	}
}

func calleeIdentifierName(callee ast.Expr) (string, bool) {
	id, ok := callee.(*ast.Identifier)
	if !ok {
		return "", false
	}
	return id.Name, true
}

// scopeForDeclContext determines the default scope classification for a
// function declared directly (FunctionDecl): top-level declaration context
// makes it a component/hook; nested declarations are not reactive scopes
// unless separately recognized via a call-site check.
func scopeForDeclContext(parent *Function) ScopeKind {
	if parent == nil || parent.Name == "<module>" {
		return ScopeComponentOrHook
	}
	return ScopeNone
}

func scopeForCallContext(parent *Function, _ ast.Expr, _ bool) ScopeKind {
	if parent == nil || parent.Name == "<module>" {
		return ScopeComponentOrHook
	}
	return ScopeNone
}

func (b *builder) newFunction(name string, node ast.Node, params []ast.Pattern, body ast.Node, async bool, parent *Function, scope ScopeKind) *Function {
	fn := &Function{
		ID: b.p.allocID(), Name: name, Node: node, Params: params,
		Async: async, Parent: parent, Scope: scope,
	}
	parent.Children = append(parent.Children, fn)

	switch bd := body.(type) {
	case *ast.BlockStmt:
		fn.Entry = b.buildBlockTree(bd.Body, fn)
	case ast.Expr:
		// expression-bodied arrow: treat the implicit return as a single stmt
		ret := &ast.ReturnStmt{Arg: bd}
		fn.Entry = b.buildBlockTree([]ast.Stmt{ret}, fn)
	}
	return fn
}

func primaryPatternName(pat ast.Pattern) string {
	switch v := pat.(type) {
	case *ast.Identifier:
		return v.Name
	case *ast.AssignmentPattern:
		return primaryPatternName(v.Target)
	default:
		return ""
	}
}
