package lower

import (
	"fmt"

	"github.com/sunholo/fict/internal/ast"
	"github.com/sunholo/fict/internal/classify"
	"github.com/sunholo/fict/internal/diag"
	"github.com/sunholo/fict/internal/hir"
)

// convertLastIfReturn converts the final if-return guard in a component
// body into a conditional expression: a body shaped
// `if (cond) { …; return J1 } …tail… return J2` becomes
// `…tail… return createConditional(() => cond, () => J1, () => J2)`.
// Only the last such if-return pair (the one immediately preceding the
// body's final return) is converted; earlier guard clauses are left as
// plain control flow.
func convertLastIfReturn(body []ast.Stmt) []ast.Stmt {
	if len(body) == 0 {
		return body
	}
	last, ok := body[len(body)-1].(*ast.ReturnStmt)
	if !ok || last.Arg == nil {
		return body
	}
	for i := len(body) - 2; i >= 0; i-- {
		ifs, ok := body[i].(*ast.IfStmt)
		if !ok {
			continue
		}
		if ifs.Alt != nil {
			return body
		}
		thenThunk, ok := returnThunk(ifs.Cons)
		if !ok {
			return body
		}
		conditional := &ast.ReturnStmt{Arg: &ast.CallExpr{
			Callee: &ast.Identifier{Name: "createConditional"},
			Args: []ast.Expr{
				&ast.ArrowFunction{ExprBody: true, Body: ifs.Test},
				thenThunk,
				&ast.ArrowFunction{ExprBody: true, Body: last.Arg},
			},
		}}
		out := make([]ast.Stmt, 0, len(body)-1)
		out = append(out, body[:i]...)
		out = append(out, body[i+1:len(body)-1]...)
		out = append(out, conditional)
		return out
	}
	return body
}

// returnThunk wraps a then-branch in a zero-arg arrow, provided the branch
// ends in a `return <expr>` (anything before the return stays inside the
// thunk and re-runs whenever the branch re-renders).
func returnThunk(s ast.Stmt) (ast.Expr, bool) {
	switch v := s.(type) {
	case *ast.ReturnStmt:
		if v.Arg == nil {
			return nil, false
		}
		return &ast.ArrowFunction{ExprBody: true, Body: v.Arg}, true
	case *ast.BlockStmt:
		if len(v.Body) == 0 {
			return nil, false
		}
		ret, ok := v.Body[len(v.Body)-1].(*ast.ReturnStmt)
		if !ok || ret.Arg == nil {
			return nil, false
		}
		if len(v.Body) == 1 {
			return &ast.ArrowFunction{ExprBody: true, Body: ret.Arg}, true
		}
		return &ast.ArrowFunction{Body: v}, true
	default:
		return nil, false
	}
}

// tryLowerKeyedList recognizes `list.map(item => <li key={k}>…</li>)` and
// rewrites it to createKeyedList(() => list, (item, __index, __key) =>
// ({ key, node })): the list is thunked so the container re-runs on list
// changes, and the render callback returns `{ key, node }` so the runtime
// can diff by key without a separate key-extraction callback.
func (c *ctx) tryLowerKeyedList(call *ast.CallExpr, fn *hir.Function, selfName string) (ast.Expr, bool) {
	member, ok := call.Callee.(*ast.MemberExpr)
	if !ok || member.Computed {
		return nil, false
	}
	prop, ok := member.Property.(*ast.Identifier)
	if !ok || prop.Name != "map" || len(call.Args) != 1 {
		return nil, false
	}
	arrow, ok := call.Args[0].(*ast.ArrowFunction)
	if !ok {
		return nil, false
	}
	itemName, ok := firstParamName(arrow.Params)
	if !ok {
		return nil, false
	}
	el, ok := arrowJSXResult(arrow)
	if !ok {
		return nil, false
	}

	list := c.lowerExpr(member.Object, fn, selfName)

	keyAttr := el.Attr("key")
	var keyExpr ast.Expr
	keyText := ""
	params := []ast.Pattern{
		&ast.Identifier{Name: itemName},
		&ast.Identifier{Name: "__index"},
		&ast.Identifier{Name: "__key"},
	}
	if keyAttr == nil || keyAttr.Value == nil {
		// Without a key, still use a keyed container but supply the index
		// as the key, and warn that the list has no stable identity.
		c.warn(diag.CodeMissingKey, "list rendered with .map() has no key attribute; falling back to index as key", el.Position())
		keyExpr = &ast.Identifier{Name: "__index"}
	} else {
		keyText = keyAttr.Value.String()
		keyExpr = c.lowerExpr(keyAttr.Value, fn, selfName)
		var kept []*ast.JSXAttribute
		for _, a := range el.Attributes {
			if a.Name != "key" {
				kept = append(kept, a)
			}
		}
		el.Attributes = kept
	}

	c.hoistSelectors(el, keyText)
	nodeExpr := c.lowerExpr(el, fn, selfName)

	renderFn := &ast.ArrowFunction{
		Params:   params,
		ExprBody: true,
		Body: &ast.ObjectLiteral{Properties: []*ast.ObjectProperty{
			{Key: &ast.Identifier{Name: "key"}, Value: keyExpr},
			{Key: &ast.Identifier{Name: "node"}, Value: nodeExpr},
		}},
	}
	return &ast.CallExpr{
		Callee: &ast.Identifier{Name: "createKeyedList"},
		Args: []ast.Expr{
			&ast.ArrowFunction{ExprBody: true, Body: list},
			renderFn,
		},
	}, true
}

func firstParamName(params []ast.Pattern) (string, bool) {
	if len(params) == 0 {
		return "", false
	}
	id, ok := params[0].(*ast.Identifier)
	if !ok {
		return "", false
	}
	return id.Name, true
}

// arrowJSXResult extracts the JSX element a map callback renders. Only a
// direct expression body or a lone `return <el/>` qualifies: a body with
// statements before the return keeps its plain .map() form, since those
// statements would have nowhere to live in the keyed rewrite.
func arrowJSXResult(arrow *ast.ArrowFunction) (*ast.JSXElement, bool) {
	switch b := arrow.Body.(type) {
	case *ast.JSXElement:
		return b, true
	case *ast.BlockStmt:
		if len(b.Body) != 1 {
			return nil, false
		}
		ret, ok := b.Body[0].(*ast.ReturnStmt)
		if !ok {
			return nil, false
		}
		el, ok := ret.Arg.(*ast.JSXElement)
		return el, ok
	default:
		return nil, false
	}
}

// hoistSelectors rewrites a keyed list row that compares its own key
// against a tracked signal/memo (the classic "is this row selected"
// highlight) to use createSelector, so that only the rows whose membership
// actually flips re-render, instead of every row depending on the signal
// directly. keyText is the row's key expression source text; a comparison
// side matching it is rewritten to the render callback's __key parameter.
func (c *ctx) hoistSelectors(el *ast.JSXElement, keyText string) {
	for _, attr := range el.Attributes {
		if attr.Name != "class" && attr.Name != "className" {
			continue
		}
		cond, ok := attr.Value.(*ast.ConditionalExpr)
		if !ok {
			continue
		}
		bin, ok := cond.Test.(*ast.BinaryExpr)
		if !ok || (bin.Op != "===" && bin.Op != "!==") {
			continue
		}
		sig, other, ok := c.splitSelectorSides(bin)
		if !ok {
			continue
		}
		if keyText != "" && other.String() == keyText {
			other = &ast.Identifier{Name: "__key"}
		}
		c.selCounter++
		name := fmt.Sprintf("__sel_%d", c.selCounter)
		c.selectorDecls = append(c.selectorDecls, &ast.VarDecl{
			VKind: ast.KindConst,
			Declarations: []*ast.VarDeclarator{{
				Name: &ast.Identifier{Name: name},
				Init: &ast.CallExpr{
					Callee: &ast.Identifier{Name: "createSelector"},
					Args:   []ast.Expr{&ast.ArrowFunction{ExprBody: true, Body: &ast.CallExpr{Callee: sig}}},
				},
			}},
		})
		newTest := ast.Expr(&ast.CallExpr{Callee: &ast.Identifier{Name: name}, Args: []ast.Expr{other}})
		if bin.Op == "!==" {
			newTest = &ast.UnaryExpr{Op: "!", Arg: newTest, Prefix: true}
		}
		cond.Test = newTest
	}
	for _, child := range el.Children {
		if sub, ok := child.(*ast.JSXElement); ok {
			c.hoistSelectors(sub, keyText)
		}
	}
}

func (c *ctx) splitSelectorSides(bin *ast.BinaryExpr) (sig ast.Expr, other ast.Expr, ok bool) {
	if id, isID := bin.Left.(*ast.Identifier); isID && c.isSignalLike(id.Name) {
		return bin.Left, bin.Right, true
	}
	if id, isID := bin.Right.(*ast.Identifier); isID && c.isSignalLike(id.Name) {
		return bin.Right, bin.Left, true
	}
	return nil, nil, false
}

func (c *ctx) isSignalLike(name string) bool {
	info := c.classified[name]
	return info != nil && (info.Kind == classify.Signal || info.Kind == classify.Memo)
}
