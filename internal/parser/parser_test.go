package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunholo/fict/internal/ast"
	"github.com/sunholo/fict/internal/lexer"
)

func parseSource(t *testing.T, src string) *ast.File {
	t.Helper()
	p := New(lexer.New(src, "t.tsx"), "t.tsx")
	file := p.ParseFile()
	require.Empty(t, p.Errors(), "unexpected parse errors: %v", p.Errors())
	return file
}

func TestParseVarDeclWithInit(t *testing.T) {
	file := parseSource(t, "let count = $state(0);")
	require.Len(t, file.Body, 1)
	decl, ok := file.Body[0].(*ast.VarDecl)
	require.True(t, ok)
	assert.Equal(t, ast.KindLet, decl.VKind)
	require.Len(t, decl.Declarations, 1)
	id, ok := decl.Declarations[0].Name.(*ast.Identifier)
	require.True(t, ok)
	assert.Equal(t, "count", id.Name)
	call, ok := ast.IsMacroCall(decl.Declarations[0].Init, "$state")
	require.True(t, ok)
	require.Len(t, call.Args, 1)
}

func TestParseObjectDestructuringDeclaration(t *testing.T) {
	file := parseSource(t, "const { a, b: renamed, ...rest } = props;")
	decl := file.Body[0].(*ast.VarDecl)
	pattern, ok := decl.Declarations[0].Name.(*ast.ObjectPattern)
	require.True(t, ok)
	require.Len(t, pattern.Props, 2)
	assert.Equal(t, "a", pattern.Props[0].Key)
	assert.Equal(t, "b", pattern.Props[1].Key)
	renamed, ok := pattern.Props[1].Value.(*ast.Identifier)
	require.True(t, ok)
	assert.Equal(t, "renamed", renamed.Name)
	require.NotNil(t, pattern.Rest)
}

func TestParseArrowFunctionAndCallChain(t *testing.T) {
	file := parseSource(t, "const double = (x) => x * 2; double(21);")
	require.Len(t, file.Body, 2)
	decl := file.Body[0].(*ast.VarDecl)
	arrow, ok := decl.Declarations[0].Init.(*ast.ArrowFunction)
	require.True(t, ok)
	assert.True(t, arrow.ExprBody)
	require.Len(t, arrow.Params, 1)

	stmt := file.Body[1].(*ast.ExprStmt)
	call, ok := stmt.Expr.(*ast.CallExpr)
	require.True(t, ok)
	callee, ok := call.Callee.(*ast.Identifier)
	require.True(t, ok)
	assert.Equal(t, "double", callee.Name)
}

func TestParseIfElseAndBinary(t *testing.T) {
	file := parseSource(t, `
		if (count > 0) {
			return count + 1;
		} else {
			return 0;
		}
	`)
	ifStmt, ok := file.Body[0].(*ast.IfStmt)
	require.True(t, ok)
	test, ok := ifStmt.Test.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, ">", test.Op)
	require.NotNil(t, ifStmt.Alt)
}

func TestParseTemplateLiteralInterpolation(t *testing.T) {
	file := parseSource(t, "const msg = `hello ${name}!`;")
	decl := file.Body[0].(*ast.VarDecl)
	tmpl, ok := decl.Declarations[0].Init.(*ast.TemplateLiteral)
	require.True(t, ok)
	require.Len(t, tmpl.Exprs, 1)
	assert.Equal(t, []string{"hello ", "!"}, tmpl.Quasis)
	id, ok := tmpl.Exprs[0].(*ast.Identifier)
	require.True(t, ok)
	assert.Equal(t, "name", id.Name)
}

func TestParseJSXElementWithAttributesAndChildren(t *testing.T) {
	file := parseSource(t, `
		function App() {
			return <div className="app" onClick={handleClick}>
				<span>{count}</span>
			</div>;
		}
	`)
	fn, ok := file.Body[0].(*ast.FunctionDecl)
	require.True(t, ok)
	require.Len(t, fn.Body.Body, 1)
	ret := fn.Body.Body[0].(*ast.ReturnStmt)
	el, ok := ret.Arg.(*ast.JSXElement)
	require.True(t, ok)
	assert.Equal(t, "div", el.Name.String())
	assert.True(t, el.Name.IsLowercase())
	require.Len(t, el.Attributes, 2)
	assert.Equal(t, "className", el.Attributes[0].Name)

	onClick := el.Attr("onClick")
	require.NotNil(t, onClick)
	_, ok = onClick.Value.(*ast.Identifier)
	assert.True(t, ok)

	require.NotEmpty(t, el.Children)
}

func TestParseJSXFragment(t *testing.T) {
	file := parseSource(t, "const f = () => <><span/><span/></>;")
	decl := file.Body[0].(*ast.VarDecl)
	arrow := decl.Declarations[0].Init.(*ast.ArrowFunction)
	frag, ok := arrow.Body.(*ast.JSXFragment)
	require.True(t, ok)
	assert.Len(t, frag.Children, 2)
}

func TestParseDestructuredParamsWithDefault(t *testing.T) {
	file := parseSource(t, "function f({ a, b = 1 }, ...rest) { return a; }")
	fn := file.Body[0].(*ast.FunctionDecl)
	require.Len(t, fn.Params, 2)
	obj, ok := fn.Params[0].(*ast.ObjectPattern)
	require.True(t, ok)
	require.Len(t, obj.Props, 2)
	require.NotNil(t, obj.Props[1].Default)
	_, ok = fn.Params[1].(*ast.RestElement)
	assert.True(t, ok)
}

func TestParseTSAnnotationsAreStrippedNotTypechecked(t *testing.T) {
	file := parseSource(t, "const n: number = value as number;")
	decl := file.Body[0].(*ast.VarDecl)
	id, ok := decl.Declarations[0].Name.(*ast.Identifier)
	require.True(t, ok)
	assert.Equal(t, "n", id.Name)
	asExpr, ok := decl.Declarations[0].Init.(*ast.TSAs)
	require.True(t, ok)
	assert.Equal(t, "number", asExpr.Type)
}

func TestParseForOfLoop(t *testing.T) {
	file := parseSource(t, "for (const item of items) { use(item); }")
	stmt, ok := file.Body[0].(*ast.ForOfStmt)
	require.True(t, ok)
	decl, ok := stmt.Left.(*ast.VarDecl)
	require.True(t, ok)
	assert.Equal(t, ast.KindConst, decl.VKind)
}

func TestParseImportDeclaration(t *testing.T) {
	file := parseSource(t, `import { $state, $effect as fx } from "fict";`)
	imp, ok := file.Body[0].(*ast.ImportDecl)
	require.True(t, ok)
	assert.Equal(t, "fict", imp.Source)
	require.Len(t, imp.Specifiers, 2)
	assert.Equal(t, "$state", imp.Specifiers[0].Imported)
	assert.Equal(t, "fx", imp.Specifiers[1].Local)
}
