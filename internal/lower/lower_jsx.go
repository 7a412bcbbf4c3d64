package lower

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sunholo/fict/internal/ast"
	"github.com/sunholo/fict/internal/classify"
	"github.com/sunholo/fict/internal/hir"
)

// lowerJSXElement lowers a JSX element to a fine-grained template() call when
// opts.FineGrainedDom is set, and a VDOM jsx()/jsxs() call otherwise.
//
// The fine-grained path hoists a single template() declaration per element
// and binds dynamic holes against the cloned root node directly rather than
// walking a path into each nested hole, trading precision (every hole binds
// relative to the element's own root rather than its exact markup position)
// for a simpler lowering pass.
func (c *ctx) lowerJSXElement(el *ast.JSXElement, fn *hir.Function, selfName string) ast.Expr {
	if !c.opts.FineGrainedDom {
		return c.lowerJSXAsVDOM(el, fn, selfName)
	}
	if !el.Name.IsLowercase() {
		return c.lowerComponentCall(el, fn, selfName)
	}
	if markup, ok := c.renderStatic(el); ok {
		return c.templateExpr(markup)
	}

	markup, dynAttrs, dynChildren := c.splitStaticDynamic(el)
	root := c.templateExpr(markup)

	var stmts []ast.Stmt
	stmts = append(stmts, &ast.VarDecl{
		VKind:        ast.KindConst,
		Declarations: []*ast.VarDeclarator{{Name: &ast.Identifier{Name: "__r"}, Init: root}},
	})
	for _, attr := range dynAttrs {
		stmts = append(stmts, c.bindAttrStmt(attr, fn, selfName)...)
	}
	for _, child := range dynChildren {
		lowered := c.lowerExpr(child, fn, selfName)
		if isTextualChild(child) {
			stmts = append(stmts, &ast.ExprStmt{Expr: &ast.CallExpr{
				Callee: &ast.Identifier{Name: "bindText"},
				Args: []ast.Expr{
					&ast.Identifier{Name: "__r"},
					&ast.ArrowFunction{ExprBody: true, Body: lowered},
				},
			}})
			continue
		}
		stmts = append(stmts, &ast.ExprStmt{Expr: &ast.CallExpr{
			Callee: &ast.Identifier{Name: "insert"},
			Args: []ast.Expr{
				&ast.Identifier{Name: "__r"},
				&ast.Literal{Kind: ast.NullLit, Value: "null"},
				&ast.ArrowFunction{ExprBody: true, Body: lowered},
			},
		}})
	}
	stmts = append(stmts, &ast.ReturnStmt{Arg: &ast.Identifier{Name: "__r"}})

	return &ast.CallExpr{Callee: &ast.ArrowFunction{Body: &ast.BlockStmt{Body: stmts}}}
}

// isTextualChild reports whether a dynamic JSX child can only ever render
// as text: a {expr} hole over an identifier, member, template, arithmetic,
// or ternary-over-textual expression. Anything that could produce a node
// (a call like items.map, a nested element, a bare unknown value) goes
// through insert instead.
func isTextualChild(child ast.Expr) bool {
	cont, ok := child.(*ast.JSXExpressionContainer)
	if !ok {
		return false
	}
	var textual func(e ast.Expr) bool
	textual = func(e ast.Expr) bool {
		switch v := e.(type) {
		case *ast.Identifier, *ast.Literal, *ast.TemplateLiteral:
			return true
		case *ast.MemberExpr:
			return true
		case *ast.BinaryExpr:
			return textual(v.Left) && textual(v.Right)
		case *ast.ConditionalExpr:
			return textual(v.Consequent) && textual(v.Alternate)
		default:
			return false
		}
	}
	return textual(cont.Expr)
}

func (c *ctx) lowerJSXFragment(f *ast.JSXFragment, fn *hir.Function, selfName string) ast.Expr {
	var elems []ast.Expr
	for _, child := range f.Children {
		if lowered, ok := c.lowerJSXChild(child, fn, selfName); ok {
			elems = append(elems, lowered)
		}
	}
	return &ast.CallExpr{
		Callee: &ast.Identifier{Name: "toNodeArray"},
		Args:   []ast.Expr{&ast.ArrayLiteral{Elements: elems}},
	}
}

// lowerJSXChild lowers one JSX child to a target expression: literal text
// becomes a string literal (dropped entirely when whitespace-only), and
// everything else goes through the normal expression rewrite.
func (c *ctx) lowerJSXChild(child ast.Expr, fn *hir.Function, selfName string) (ast.Expr, bool) {
	if txt, ok := child.(*ast.JSXText); ok {
		if strings.TrimSpace(txt.Value) == "" {
			return nil, false
		}
		return &ast.Literal{Kind: ast.StringLit, Value: strconv.Quote(txt.Value)}, true
	}
	return c.lowerExpr(child, fn, selfName), true
}

func (c *ctx) lowerComponentCall(el *ast.JSXElement, fn *hir.Function, selfName string) ast.Expr {
	var props []*ast.ObjectProperty
	var spreads []ast.Expr
	var keyExpr ast.Expr
	for _, attr := range el.Attributes {
		if attr.Spread != nil {
			spreads = append(spreads, c.lowerExpr(attr.Spread, fn, selfName))
			continue
		}
		val := attr.Value
		if val == nil {
			val = &ast.Literal{Kind: ast.BoolLit, Value: "true"}
		}
		if attr.Name == "key" {
			keyExpr = c.lowerExpr(val, fn, selfName)
			continue
		}
		props = append(props, &ast.ObjectProperty{
			Key:   &ast.Identifier{Name: attr.Name},
			Value: c.lowerExpr(val, fn, selfName),
		})
	}
	if len(el.Children) > 0 {
		var children []ast.Expr
		for _, child := range el.Children {
			if lowered, ok := c.lowerJSXChild(child, fn, selfName); ok {
				children = append(children, lowered)
			}
		}
		if len(children) == 1 {
			props = append(props, &ast.ObjectProperty{Key: &ast.Identifier{Name: "children"}, Value: children[0]})
		} else if len(children) > 1 {
			props = append(props, &ast.ObjectProperty{Key: &ast.Identifier{Name: "children"}, Value: &ast.ArrayLiteral{Elements: children}})
		}
	}

	propsExpr := ast.Expr(&ast.ObjectLiteral{Properties: props})
	if len(spreads) > 0 {
		// spread-sensitive call sites always merge: a false-positive wrap is
		// correct, a skipped one silently drops reactivity on an
		// unknown-shaped prop bag
		args := append([]ast.Expr{propsExpr}, spreads...)
		propsExpr = &ast.CallExpr{Callee: &ast.Identifier{Name: "mergeProps"}, Args: args}
	} else if keyExpr != nil {
		propsExpr = &ast.CallExpr{
			Callee: &ast.Identifier{Name: "keyed"},
			Args:   []ast.Expr{propsExpr, &ast.ArrowFunction{ExprBody: true, Body: keyExpr}},
		}
	}
	return &ast.CallExpr{
		Callee: &ast.Identifier{Name: el.Name.String()},
		Args:   []ast.Expr{propsExpr},
	}
}

func (c *ctx) lowerJSXAsVDOM(el *ast.JSXElement, fn *hir.Function, selfName string) ast.Expr {
	name := "jsx"
	var children []ast.Expr
	for _, child := range el.Children {
		if lowered, ok := c.lowerJSXChild(child, fn, selfName); ok {
			children = append(children, lowered)
		}
	}
	if len(children) > 1 {
		name = "jsxs"
	}
	var props []*ast.ObjectProperty
	for _, attr := range el.Attributes {
		if attr.Value != nil {
			reactive := c.exprMentionsReactive(attr.Value)
			val := c.lowerExpr(attr.Value, fn, selfName)
			if reactive {
				// a reactive prop stays live by handing the runtime a thunk
				// instead of a snapshot
				val = &ast.ArrowFunction{ExprBody: true, Body: val}
			}
			props = append(props, &ast.ObjectProperty{
				Key:   &ast.Identifier{Name: attr.Name},
				Value: val,
			})
		}
	}
	if len(children) > 0 {
		elems := make([]ast.Expr, len(children))
		copy(elems, children)
		props = append(props, &ast.ObjectProperty{Key: &ast.Identifier{Name: "children"}, Value: &ast.ArrayLiteral{Elements: elems}})
	}
	var tagExpr ast.Expr
	if el.Name.IsLowercase() {
		tagExpr = &ast.Literal{Kind: ast.StringLit, Value: `"` + el.Name.String() + `"`}
	} else {
		tagExpr = &ast.Identifier{Name: el.Name.String()}
	}
	return &ast.CallExpr{
		Callee: &ast.Identifier{Name: name},
		Args:   []ast.Expr{tagExpr, &ast.ObjectLiteral{Properties: props}},
	}
}

// exprMentionsReactive reports whether e reads any binding classified as a
// signal, memo, region field, or prop accessor.
func (c *ctx) exprMentionsReactive(e ast.Expr) bool {
	found := false
	ast.WalkExpr(e, func(n ast.Expr) {
		id, ok := n.(*ast.Identifier)
		if !ok {
			return
		}
		if info := c.classified[id.Name]; info != nil {
			switch info.Kind {
			case classify.Signal, classify.Memo, classify.RegionMemoField, classify.PropAccessor:
				found = true
			}
		}
	})
	return found
}

// templateExpr returns a (CSE'd) call to a hoisted template(markup) binding.
func (c *ctx) templateExpr(markup string) ast.Expr {
	name, ok := c.templateNames[markup]
	if !ok {
		c.tmplCounter++
		name = fmt.Sprintf("__tmpl%d", c.tmplCounter)
		c.templateNames[markup] = name
		c.hoistedTemplates = append(c.hoistedTemplates, &ast.VarDecl{
			VKind: ast.KindConst,
			Declarations: []*ast.VarDeclarator{{
				Name: &ast.Identifier{Name: name},
				Init: &ast.CallExpr{
					Callee: &ast.Identifier{Name: "template"},
					Args:   []ast.Expr{&ast.Literal{Kind: ast.StringLit, Value: strconv.Quote(markup)}},
				},
			}},
		})
	}
	return &ast.CallExpr{Callee: &ast.Identifier{Name: name}}
}

// renderStatic renders el (and its subtree) to markup text, succeeding only
// if no attribute or child requires a runtime binding.
func (c *ctx) renderStatic(el *ast.JSXElement) (string, bool) {
	var b strings.Builder
	tag := el.Name.String()
	b.WriteByte('<')
	b.WriteString(tag)
	for _, attr := range el.Attributes {
		if attr.Spread != nil {
			return "", false
		}
		lit, ok := attr.Value.(*ast.Literal)
		if attr.Value != nil && (!ok || lit.Kind != ast.StringLit) {
			return "", false
		}
		b.WriteByte(' ')
		b.WriteString(attr.Name)
		if lit != nil {
			b.WriteString("=")
			b.WriteString(lit.Value)
		}
	}
	b.WriteByte('>')
	for _, child := range el.Children {
		switch v := child.(type) {
		case *ast.JSXText:
			b.WriteString(v.Value)
		case *ast.JSXElement:
			sub, ok := c.renderStatic(v)
			if !ok {
				return "", false
			}
			b.WriteString(sub)
		default:
			return "", false
		}
	}
	if !el.SelfClose {
		b.WriteString("</")
		b.WriteString(tag)
		b.WriteByte('>')
	}
	return b.String(), true
}

// splitStaticDynamic renders el's own markup (with a comment hole per
// dynamic child) and returns the dynamic attributes/children separately.
func (c *ctx) splitStaticDynamic(el *ast.JSXElement) (string, []*ast.JSXAttribute, []ast.Expr) {
	var b strings.Builder
	var dynAttrs []*ast.JSXAttribute
	var dynChildren []ast.Expr

	tag := el.Name.String()
	b.WriteByte('<')
	b.WriteString(tag)
	for _, attr := range el.Attributes {
		if attr.Spread != nil {
			dynAttrs = append(dynAttrs, attr)
			continue
		}
		lit, isLit := attr.Value.(*ast.Literal)
		if attr.Value == nil || (isLit && lit.Kind == ast.StringLit) {
			b.WriteByte(' ')
			b.WriteString(attr.Name)
			if lit != nil {
				b.WriteString("=")
				b.WriteString(lit.Value)
			}
			continue
		}
		dynAttrs = append(dynAttrs, attr)
	}
	b.WriteByte('>')
	for _, child := range el.Children {
		switch v := child.(type) {
		case *ast.JSXText:
			b.WriteString(v.Value)
		case *ast.JSXElement:
			if sub, ok := c.renderStatic(v); ok {
				b.WriteString(sub)
				continue
			}
			b.WriteString("<!---->")
			dynChildren = append(dynChildren, v)
		default:
			b.WriteString("<!---->")
			dynChildren = append(dynChildren, child)
		}
	}
	if !el.SelfClose {
		b.WriteString("</")
		b.WriteString(tag)
		b.WriteByte('>')
	}
	return b.String(), dynAttrs, dynChildren
}

func (c *ctx) bindAttrStmt(attr *ast.JSXAttribute, fn *hir.Function, selfName string) []ast.Stmt {
	if attr.Spread != nil {
		return []ast.Stmt{&ast.ExprStmt{Expr: &ast.CallExpr{
			Callee: &ast.Identifier{Name: "mergeProps"},
			Args:   []ast.Expr{&ast.Identifier{Name: "__r"}, c.lowerExpr(attr.Spread, fn, selfName)},
		}}}
	}
	value := c.lowerExpr(attr.Value, fn, selfName)
	getter := &ast.ArrowFunction{ExprBody: true, Body: value}
	switch {
	case strings.HasPrefix(attr.Name, "on") && len(attr.Name) > 2:
		return c.bindEventStmt(attr, value)
	case attr.Name == "class" || attr.Name == "className":
		return []ast.Stmt{wrapBind("bindClass", "__r", nil, getter)}
	case attr.Name == "style":
		return []ast.Stmt{wrapBind("bindStyle", "__r", nil, getter)}
	case attr.Name == "ref":
		return []ast.Stmt{&ast.ExprStmt{Expr: &ast.CallExpr{
			Callee: &ast.Identifier{Name: "bindRef"},
			Args:   []ast.Expr{&ast.Identifier{Name: "__r"}, value},
		}}}
	case attr.Name == "value" || attr.Name == "checked":
		return []ast.Stmt{wrapBind("bindProperty", "__r", &attr.Name, getter)}
	default:
		return []ast.Stmt{wrapBind("bindAttribute", "__r", &attr.Name, getter)}
	}
}

func wrapBind(fnName, node string, name *string, getter ast.Expr) ast.Stmt {
	args := []ast.Expr{&ast.Identifier{Name: node}}
	if name != nil {
		args = append(args, &ast.Literal{Kind: ast.StringLit, Value: `"` + *name + `"`})
	}
	args = append(args, getter)
	return &ast.ExprStmt{Expr: &ast.CallExpr{Callee: &ast.Identifier{Name: fnName}, Args: args}}
}

// bindEventStmt applies a delegated event-data optimization when the handler
// syntactically matches `onX={() => f(data)}` with f untracked.
func (c *ctx) bindEventStmt(attr *ast.JSXAttribute, lowered ast.Expr) []ast.Stmt {
	eventName := strings.ToLower(attr.Name[2:])
	if arrow, ok := attr.Value.(*ast.ArrowFunction); ok && arrow.ExprBody {
		if call, ok := arrow.Body.(*ast.CallExpr); ok {
			if handler, ok := call.Callee.(*ast.Identifier); ok {
				info := c.classified[handler.Name]
				tracked := info != nil && info.Kind != classify.Plain
				if !tracked && len(call.Args) == 1 {
					data := call.Args[0]
					return []ast.Stmt{
						&ast.ExprStmt{Expr: &ast.AssignmentExpr{
							Op:     "=",
							Target: &ast.MemberExpr{Object: &ast.Identifier{Name: "__r"}, Property: &ast.Identifier{Name: "$$" + eventName}},
							Value:  handler,
						}},
						&ast.ExprStmt{Expr: &ast.AssignmentExpr{
							Op:     "=",
							Target: &ast.MemberExpr{Object: &ast.Identifier{Name: "__r"}, Property: &ast.Identifier{Name: "$$" + eventName + "Data"}},
							Value:  &ast.ArrowFunction{ExprBody: true, Body: data},
						}},
					}
				}
			}
		}
	}
	name := eventName
	return []ast.Stmt{wrapBind("bindEvent", "__r", &name, lowered)}
}
