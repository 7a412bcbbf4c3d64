package lower

import (
	"fmt"

	"github.com/sunholo/fict/internal/ast"
	"github.com/sunholo/fict/internal/classify"
	"github.com/sunholo/fict/internal/hir"
)

// lowerExpr rewrites reads, writes, macro calls, and JSX within e. selfName
// suppresses rewriting of its own name (a binding's initializer refers to
// the reactive source, not to itself).
func (c *ctx) lowerExpr(e ast.Expr, fn *hir.Function, selfName string) ast.Expr {
	if e == nil {
		return nil
	}
	switch v := e.(type) {
	case *ast.Identifier:
		if v.Name == selfName {
			return v
		}
		info := c.classified[v.Name]
		if info == nil {
			return v
		}
		switch info.Kind {
		case classify.Signal, classify.Memo, classify.PropAccessor:
			return &ast.CallExpr{Callee: v}
		case classify.RegionMemoField:
			if c.opts.LazyConditional && info.Region != nil {
				// lazy regions are not destructured; each read goes back
				// through the region accessor so an unread field's getter
				// never runs
				return &ast.MemberExpr{
					Object:   &ast.CallExpr{Callee: &ast.Identifier{Name: fmt.Sprintf("__region_%d", info.Region.ID)}},
					Property: &ast.Identifier{Name: v.Name},
				}
			}
			// eager regions destructure the tuple into plain values
			return v
		case classify.InlinedDerived:
			if sub, ok := c.inlinedInits[v.Name]; ok {
				return sub
			}
			return v
		default:
			return v
		}

	case *ast.AssignmentExpr:
		return c.lowerAssignment(v, fn, selfName)

	case *ast.UpdateExpr:
		return c.lowerUpdate(v, fn, selfName)

	case *ast.CallExpr:
		if call, ok := ast.IsMacroCall(v, "$effect"); ok && len(call.Args) == 1 {
			return &ast.CallExpr{
				Callee: &ast.Identifier{Name: "__fictUseEffect"},
				Args: []ast.Expr{
					&ast.Identifier{Name: ctxIdent},
					c.lowerExpr(call.Args[0], fn, selfName),
					idLiteral(c.effectID()),
				},
			}
		}
		if keyed, ok := c.tryLowerKeyedList(v, fn, selfName); ok {
			return keyed
		}
		v.Callee = c.lowerExpr(v.Callee, fn, selfName)
		for i, a := range v.Args {
			v.Args[i] = c.lowerExpr(a, fn, selfName)
		}
		return v

	case *ast.BinaryExpr:
		v.Left = c.lowerExpr(v.Left, fn, selfName)
		v.Right = c.lowerExpr(v.Right, fn, selfName)
		return v
	case *ast.LogicalExpr:
		v.Left = c.lowerExpr(v.Left, fn, selfName)
		v.Right = c.lowerExpr(v.Right, fn, selfName)
		return v
	case *ast.UnaryExpr:
		v.Arg = c.lowerExpr(v.Arg, fn, selfName)
		return v
	case *ast.ConditionalExpr:
		v.Test = c.lowerExpr(v.Test, fn, selfName)
		v.Consequent = c.lowerExpr(v.Consequent, fn, selfName)
		v.Alternate = c.lowerExpr(v.Alternate, fn, selfName)
		return v
	case *ast.MemberExpr:
		v.Object = c.lowerExpr(v.Object, fn, selfName)
		if v.Computed {
			v.Property = c.lowerExpr(v.Property, fn, selfName)
		}
		return v
	case *ast.SequenceExpr:
		for i, x := range v.Exprs {
			v.Exprs[i] = c.lowerExpr(x, fn, selfName)
		}
		return v
	case *ast.ArrayLiteral:
		for i, x := range v.Elements {
			if x != nil {
				v.Elements[i] = c.lowerExpr(x, fn, selfName)
			}
		}
		return v
	case *ast.SpreadElement:
		v.Argument = c.lowerExpr(v.Argument, fn, selfName)
		return v
	case *ast.ObjectLiteral:
		for _, p := range v.Properties {
			if p.Value != nil {
				p.Value = c.lowerExpr(p.Value, fn, selfName)
			}
		}
		return v
	case *ast.TemplateLiteral:
		for i, x := range v.Exprs {
			v.Exprs[i] = c.lowerExpr(x, fn, selfName)
		}
		return v
	case *ast.TSNonNull:
		return c.lowerExpr(v.Expr, fn, selfName)
	case *ast.TSAs:
		return c.lowerExpr(v.Expr, fn, selfName)
	case *ast.TSSatisfies:
		return c.lowerExpr(v.Expr, fn, selfName)
	case *ast.AwaitExpr:
		v.Arg = c.lowerExpr(v.Arg, fn, selfName)
		return v
	case *ast.NewExpr:
		v.Callee = c.lowerExpr(v.Callee, fn, selfName)
		for i, a := range v.Args {
			v.Args[i] = c.lowerExpr(a, fn, selfName)
		}
		return v
	case *ast.ArrowFunction:
		switch body := v.Body.(type) {
		case *ast.BlockStmt:
			if bodyDeclaresMacros(body) {
				// a configured reactive-scope callback (renderHook-style)
				// brackets its own hook context
				v.Body, v.Params = c.lowerReactiveBody(body, v.Params, true)
			} else {
				v.Body = c.lowerStmt(body, fn, selfName)
			}
		case ast.Expr:
			v.Body = c.lowerExpr(body, fn, selfName)
		}
		return v
	case *ast.FunctionExpr:
		v.Body, v.Params = c.lowerReactiveBody(v.Body, v.Params, bodyDeclaresMacros(v.Body))
		return v
	case *ast.JSXElement:
		return c.lowerJSXElement(v, fn, selfName)
	case *ast.JSXFragment:
		return c.lowerJSXFragment(v, fn, selfName)
	case *ast.JSXExpressionContainer:
		v.Expr = c.lowerExpr(v.Expr, fn, selfName)
		return v.Expr
	default:
		return e
	}
}

func (c *ctx) effectID() int {
	c.effectCounter++
	return c.effectCounter
}

// lowerAssignment rewrites writes to Signal bindings into setter calls;
// anything else is left as a plain assignment (after lowering its RHS).
func (c *ctx) lowerAssignment(a *ast.AssignmentExpr, fn *hir.Function, selfName string) ast.Expr {
	id, ok := a.Target.(*ast.Identifier)
	if !ok {
		switch pat := a.Target.(type) {
		case *ast.ObjectPattern:
			return c.lowerDestructuringAssignment(pat, a.Value, fn, selfName)
		case *ast.ArrayPattern:
			return c.lowerArrayDestructuringAssignment(pat, a.Value, fn, selfName)
		}
		a.Value = c.lowerExpr(a.Value, fn, selfName)
		return a
	}
	info := c.classified[id.Name]
	if info == nil || info.Kind != classify.Signal {
		a.Value = c.lowerExpr(a.Value, fn, selfName)
		return a
	}
	rhs := c.lowerExpr(a.Value, fn, selfName)
	var newVal ast.Expr
	switch a.Op {
	case "=":
		newVal = rhs
	default:
		op := a.Op[:len(a.Op)-1] // "+=" -> "+"
		newVal = &ast.BinaryExpr{Op: op, Left: &ast.CallExpr{Callee: id}, Right: rhs}
	}
	return &ast.CallExpr{Callee: id, Args: []ast.Expr{newVal}}
}

// lowerDestructuringAssignment implements `({ count } = obj)` -> `count(obj.count)`.
func (c *ctx) lowerDestructuringAssignment(pat *ast.ObjectPattern, src ast.Expr, fn *hir.Function, selfName string) ast.Expr {
	src = c.lowerExpr(src, fn, selfName)
	var exprs []ast.Expr
	for _, prop := range pat.Props {
		id, ok := prop.Value.(*ast.Identifier)
		if !ok {
			continue
		}
		info := c.classified[id.Name]
		access := ast.Expr(&ast.MemberExpr{Object: src, Property: &ast.Identifier{Name: prop.Key}})
		if prop.Default != nil {
			access = &ast.LogicalExpr{Op: "??", Left: access, Right: prop.Default}
		}
		if info != nil && info.Kind == classify.Signal {
			exprs = append(exprs, &ast.CallExpr{Callee: id, Args: []ast.Expr{access}})
		} else {
			exprs = append(exprs, &ast.AssignmentExpr{Op: "=", Target: id, Value: access})
		}
	}
	if len(exprs) == 1 {
		return exprs[0]
	}
	return &ast.SequenceExpr{Exprs: exprs}
}

// lowerArrayDestructuringAssignment implements `[count] = [v]` ->
// `count(v)`: when the source is an array literal each target pairs with
// its element directly; otherwise each target reads `src[i]`.
func (c *ctx) lowerArrayDestructuringAssignment(pat *ast.ArrayPattern, src ast.Expr, fn *hir.Function, selfName string) ast.Expr {
	src = c.lowerExpr(src, fn, selfName)
	arr, srcIsLiteral := src.(*ast.ArrayLiteral)
	var exprs []ast.Expr
	for i, el := range pat.Elements {
		id, ok := el.(*ast.Identifier)
		if !ok {
			continue
		}
		var value ast.Expr
		if srcIsLiteral && i < len(arr.Elements) && arr.Elements[i] != nil {
			value = arr.Elements[i]
		} else {
			value = &ast.MemberExpr{
				Object:   src,
				Property: &ast.Literal{Kind: ast.NumberLit, Value: fmt.Sprintf("%d", i)},
				Computed: true,
			}
		}
		info := c.classified[id.Name]
		if info != nil && info.Kind == classify.Signal {
			exprs = append(exprs, &ast.CallExpr{Callee: id, Args: []ast.Expr{value}})
		} else {
			exprs = append(exprs, &ast.AssignmentExpr{Op: "=", Target: id, Value: value})
		}
	}
	if len(exprs) == 1 {
		return exprs[0]
	}
	return &ast.SequenceExpr{Exprs: exprs}
}

func (c *ctx) lowerUpdate(u *ast.UpdateExpr, fn *hir.Function, selfName string) ast.Expr {
	id, ok := u.Arg.(*ast.Identifier)
	if !ok {
		return u
	}
	info := c.classified[id.Name]
	if info == nil || info.Kind != classify.Signal {
		return u
	}
	op := "+"
	if u.Op == "--" {
		op = "-"
	}
	newVal := &ast.BinaryExpr{
		Op:    op,
		Left:  &ast.CallExpr{Callee: id},
		Right: &ast.Literal{Kind: ast.NumberLit, Value: "1"},
	}
	return &ast.CallExpr{Callee: id, Args: []ast.Expr{newVal}}
}
