package ast

import (
	"encoding/json"
	"fmt"
)

// Dump produces a deterministic JSON representation of an AST node, used for
// golden-style snapshot tests. Source positions are omitted so snapshots
// don't churn on whitespace-only source edits; only node shape matters.
func Dump(node Node) string {
	if node == nil {
		return "null"
	}
	data, err := json.MarshalIndent(simplify(node), "", "  ")
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return string(data)
}

func simplifyMany(nodes []Stmt) []interface{} {
	out := make([]interface{}, len(nodes))
	for i, n := range nodes {
		out[i] = simplify(n)
	}
	return out
}

func simplifyExprs(nodes []Expr) []interface{} {
	out := make([]interface{}, len(nodes))
	for i, n := range nodes {
		if n == nil {
			out[i] = nil
			continue
		}
		out[i] = simplify(n)
	}
	return out
}

// simplify converts an AST node into a plain JSON-serializable map tagged
// with its Go type name, dropping position metadata.
func simplify(node interface{}) interface{} {
	if node == nil {
		return nil
	}
	switch n := node.(type) {
	case *File:
		return map[string]interface{}{"type": "File", "body": simplifyMany(n.Body)}
	case *Identifier:
		return map[string]interface{}{"type": "Identifier", "name": n.Name}
	case *Literal:
		return map[string]interface{}{"type": "Literal", "kind": int(n.Kind), "value": n.Value}
	case *TemplateLiteral:
		return map[string]interface{}{"type": "TemplateLiteral", "quasis": n.Quasis, "exprs": simplifyExprs(n.Exprs)}
	case *ArrayLiteral:
		return map[string]interface{}{"type": "ArrayLiteral", "elements": simplifyExprs(n.Elements)}
	case *SpreadElement:
		return map[string]interface{}{"type": "SpreadElement", "argument": simplify(n.Argument)}
	case *ObjectLiteral:
		props := make([]interface{}, len(n.Properties))
		for i, p := range n.Properties {
			props[i] = map[string]interface{}{
				"key": simplify(p.Key), "value": simplify(p.Value),
				"computed": p.Computed, "shorthand": p.Shorthand,
			}
		}
		return map[string]interface{}{"type": "ObjectLiteral", "properties": props}
	case *BinaryExpr:
		return map[string]interface{}{"type": "BinaryExpr", "op": n.Op, "left": simplify(n.Left), "right": simplify(n.Right)}
	case *LogicalExpr:
		return map[string]interface{}{"type": "LogicalExpr", "op": n.Op, "left": simplify(n.Left), "right": simplify(n.Right)}
	case *UnaryExpr:
		return map[string]interface{}{"type": "UnaryExpr", "op": n.Op, "arg": simplify(n.Arg), "prefix": n.Prefix}
	case *UpdateExpr:
		return map[string]interface{}{"type": "UpdateExpr", "op": n.Op, "arg": simplify(n.Arg), "prefix": n.Prefix}
	case *AssignmentExpr:
		return map[string]interface{}{"type": "AssignmentExpr", "op": n.Op, "target": simplify(n.Target), "value": simplify(n.Value)}
	case *ConditionalExpr:
		return map[string]interface{}{"type": "ConditionalExpr", "test": simplify(n.Test), "cons": simplify(n.Consequent), "alt": simplify(n.Alternate)}
	case *MemberExpr:
		return map[string]interface{}{"type": "MemberExpr", "object": simplify(n.Object), "property": simplify(n.Property), "computed": n.Computed, "optional": n.Optional}
	case *CallExpr:
		return map[string]interface{}{"type": "CallExpr", "callee": simplify(n.Callee), "args": simplifyExprs(n.Args)}
	case *ArrowFunction:
		params := make([]interface{}, len(n.Params))
		for i, p := range n.Params {
			params[i] = simplify(p)
		}
		return map[string]interface{}{"type": "ArrowFunction", "params": params, "body": simplify(n.Body), "exprBody": n.ExprBody}
	case *FunctionDecl:
		params := make([]interface{}, len(n.Params))
		for i, p := range n.Params {
			params[i] = simplify(p)
		}
		return map[string]interface{}{"type": "FunctionDecl", "name": n.Name, "params": params, "body": simplify(n.Body)}
	case *BlockStmt:
		return map[string]interface{}{"type": "BlockStmt", "body": simplifyMany(n.Body)}
	case *ExprStmt:
		return map[string]interface{}{"type": "ExprStmt", "expr": simplify(n.Expr)}
	case *VarDecl:
		decls := make([]interface{}, len(n.Declarations))
		for i, d := range n.Declarations {
			entry := map[string]interface{}{"name": simplify(d.Name)}
			if d.Init != nil {
				entry["init"] = simplify(d.Init)
			}
			decls[i] = entry
		}
		return map[string]interface{}{"type": "VarDecl", "kind": n.VKind.String(), "decls": decls}
	case *ReturnStmt:
		if n.Arg == nil {
			return map[string]interface{}{"type": "ReturnStmt"}
		}
		return map[string]interface{}{"type": "ReturnStmt", "arg": simplify(n.Arg)}
	case *IfStmt:
		m := map[string]interface{}{"type": "IfStmt", "test": simplify(n.Test), "cons": simplify(n.Cons)}
		if n.Alt != nil {
			m["alt"] = simplify(n.Alt)
		}
		return m
	case *ImportDecl:
		specs := make([]interface{}, len(n.Specifiers))
		for i, s := range n.Specifiers {
			specs[i] = map[string]interface{}{"imported": s.Imported, "local": s.Local}
		}
		return map[string]interface{}{"type": "ImportDecl", "source": n.Source, "specifiers": specs}
	case *ExportDecl:
		return map[string]interface{}{"type": "ExportDecl", "default": n.Default, "decl": simplify(n.Decl)}
	case *JSXElement:
		children := make([]interface{}, len(n.Children))
		for i, c := range n.Children {
			children[i] = simplify(c)
		}
		return map[string]interface{}{"type": "JSXElement", "name": n.Name.String(), "children": children}
	case *JSXExpressionContainer:
		return map[string]interface{}{"type": "JSXExpressionContainer", "expr": simplify(n.Expr)}
	case *JSXText:
		return map[string]interface{}{"type": "JSXText", "value": n.Value}
	default:
		if s, ok := node.(fmt.Stringer); ok {
			return map[string]interface{}{"type": "raw", "text": s.String()}
		}
		return fmt.Sprintf("%v", node)
	}
}
