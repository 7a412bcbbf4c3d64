package parser

import (
	"github.com/sunholo/fict/internal/ast"
	"github.com/sunholo/fict/internal/lexer"
)

// parseExpression is the Pratt loop: parse a prefix, then keep folding in
// infix/postfix operators whose precedence exceeds prec.
func (p *Parser) parseExpression(prec int) ast.Expr {
	prefix, ok := p.prefixParseFns[p.curToken.Type]
	if !ok {
		p.noPrefixParseFnError(p.curToken.Type)
		return nil
	}
	left := prefix()

	for !p.curIs(lexer.SEMICOLON) && prec < p.curPrecedence() {
		infix, ok := p.infixParseFns[p.curToken.Type]
		if !ok {
			return left
		}
		left = infix(left)
	}
	return left
}

// parseExpressionFull parses a full comma expression. Expression statements
// and the `for` test/update clauses use it; declarator initializers,
// arguments, and array/object elements use the narrower non-comma form.
func (p *Parser) parseExpressionFull() ast.Expr {
	first := p.parseExpression(ASSIGN_PREC - 1)
	if !p.curIs(lexer.COMMA) {
		return first
	}
	pos := p.curPos()
	exprs := []ast.Expr{first}
	for p.curIs(lexer.COMMA) {
		p.nextToken()
		exprs = append(exprs, p.parseExpression(ASSIGN_PREC-1))
	}
	return &ast.SequenceExpr{Exprs: exprs, Pos: pos}
}

func (p *Parser) parseIdentifierExpr() ast.Expr {
	id := &ast.Identifier{Name: p.curToken.Literal, Pos: p.curPos()}
	p.nextToken()
	return id
}

func (p *Parser) parseNumberLiteral() ast.Expr {
	lit := &ast.Literal{Kind: ast.NumberLit, Value: p.curToken.Literal, Pos: p.curPos()}
	p.nextToken()
	return lit
}

func (p *Parser) parseBigIntLiteral() ast.Expr {
	lit := &ast.Literal{Kind: ast.BigIntLit, Value: p.curToken.Literal, Pos: p.curPos()}
	p.nextToken()
	return lit
}

func (p *Parser) parseStringLiteral() ast.Expr {
	lit := &ast.Literal{Kind: ast.StringLit, Value: p.curToken.Literal, Pos: p.curPos()}
	p.nextToken()
	return lit
}

func (p *Parser) parseRegexLiteral() ast.Expr {
	lit := &ast.Literal{Kind: ast.RegexLit, Value: p.curToken.Literal, Pos: p.curPos()}
	p.nextToken()
	return lit
}

func (p *Parser) parseBoolLiteral() ast.Expr {
	lit := &ast.Literal{Kind: ast.BoolLit, Value: p.curToken.Literal, Pos: p.curPos()}
	p.nextToken()
	return lit
}

func (p *Parser) parseNullLiteral() ast.Expr {
	lit := &ast.Literal{Kind: ast.NullLit, Value: "null", Pos: p.curPos()}
	p.nextToken()
	return lit
}

func (p *Parser) parseUndefinedLiteral() ast.Expr {
	lit := &ast.Literal{Kind: ast.UndefinedLit, Value: "undefined", Pos: p.curPos()}
	p.nextToken()
	return lit
}

func (p *Parser) parseThisExpr() ast.Expr {
	e := &ast.ThisExpr{Pos: p.curPos()}
	p.nextToken()
	return e
}

// parseTemplateLiteral re-splits the raw backtick token the lexer handed us
// into quasis and `${...}` sub-expressions, each parsed with a fresh Parser.
func (p *Parser) parseTemplateLiteral() ast.Expr {
	pos := p.curPos()
	raw := p.curToken.Literal // includes surrounding backticks
	p.nextToken()

	inner := raw[1 : len(raw)-1]
	var quasis []string
	var exprs []ast.Expr

	var cur []byte
	i := 0
	for i < len(inner) {
		if inner[i] == '\\' && i+1 < len(inner) {
			cur = append(cur, inner[i], inner[i+1])
			i += 2
			continue
		}
		if inner[i] == '$' && i+1 < len(inner) && inner[i+1] == '{' {
			quasis = append(quasis, string(cur))
			cur = nil
			depth := 1
			j := i + 2
			for j < len(inner) && depth > 0 {
				switch inner[j] {
				case '{':
					depth++
				case '}':
					depth--
					if depth == 0 {
						goto doneExpr
					}
				}
				j++
			}
		doneExpr:
			exprSrc := inner[i+2 : j]
			sub := New(lexer.New(exprSrc, p.file), p.file)
			exprs = append(exprs, sub.parseExpressionFull())
			i = j + 1
			continue
		}
		cur = append(cur, inner[i])
		i++
	}
	quasis = append(quasis, string(cur))

	return &ast.TemplateLiteral{Quasis: quasis, Exprs: exprs, Pos: pos}
}

func (p *Parser) parseArrayLiteral() ast.Expr {
	pos := p.curPos()
	p.nextToken() // consume '['
	var elements []ast.Expr
	for !p.curIs(lexer.RBRACKET) && !p.curIs(lexer.EOF) {
		if p.curIs(lexer.COMMA) {
			elements = append(elements, nil) // elision
			p.nextToken()
			continue
		}
		if p.curIs(lexer.ELLIPSIS) {
			spos := p.curPos()
			p.nextToken()
			elements = append(elements, &ast.SpreadElement{Argument: p.parseExpression(ASSIGN_PREC - 1), Pos: spos})
		} else {
			elements = append(elements, p.parseExpression(ASSIGN_PREC-1))
		}
		if p.curIs(lexer.COMMA) {
			p.nextToken()
		} else {
			break
		}
	}
	p.expect(lexer.RBRACKET)
	return &ast.ArrayLiteral{Elements: elements, Pos: pos}
}

func (p *Parser) parseObjectLiteral() ast.Expr {
	pos := p.curPos()
	p.nextToken() // consume '{'
	var props []*ast.ObjectProperty
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		ppos := p.curPos()
		if p.curIs(lexer.ELLIPSIS) {
			p.nextToken()
			val := p.parseExpression(ASSIGN_PREC - 1)
			props = append(props, &ast.ObjectProperty{Key: nil, Value: &ast.SpreadElement{Argument: val, Pos: ppos}, Pos: ppos})
			if p.curIs(lexer.COMMA) {
				p.nextToken()
			}
			continue
		}

		computed := false
		var key ast.Expr
		if p.curIs(lexer.LBRACKET) {
			computed = true
			p.nextToken()
			key = p.parseExpression(ASSIGN_PREC - 1)
			p.expect(lexer.RBRACKET)
		} else if p.curIs(lexer.STRING) {
			key = &ast.Literal{Kind: ast.StringLit, Value: p.curToken.Literal, Pos: ppos}
			p.nextToken()
		} else if p.curIs(lexer.NUMBER) {
			key = &ast.Literal{Kind: ast.NumberLit, Value: p.curToken.Literal, Pos: ppos}
			p.nextToken()
		} else {
			key = &ast.Identifier{Name: p.curToken.Literal, Pos: ppos}
			p.nextToken()
		}

		if p.curIs(lexer.LPAREN) {
			// method shorthand: `name(params) { body }`
			fn := p.parseFunctionTail(false, ppos)
			props = append(props, &ast.ObjectProperty{Key: key, Value: fn, Computed: computed, Pos: ppos})
		} else if p.curIs(lexer.COLON) {
			p.nextToken()
			val := p.parseExpression(ASSIGN_PREC - 1)
			props = append(props, &ast.ObjectProperty{Key: key, Value: val, Computed: computed, Pos: ppos})
		} else {
			// shorthand `{a}` or `{a = default}` (the latter only valid in a
			// pattern context; kept here as AssignmentExpr for the parser to
			// reinterpret when this literal is later read as a pattern)
			var val ast.Expr = key
			if p.curIs(lexer.ASSIGN) {
				p.nextToken()
				def := p.parseExpression(ASSIGN_PREC - 1)
				val = &ast.AssignmentExpr{Op: "=", Target: key, Value: def, Pos: ppos}
			}
			props = append(props, &ast.ObjectProperty{Key: key, Value: val, Shorthand: true, Pos: ppos})
		}

		if p.curIs(lexer.COMMA) {
			p.nextToken()
		} else {
			break
		}
	}
	p.expect(lexer.RBRACE)
	return &ast.ObjectLiteral{Properties: props, Pos: pos}
}

func (p *Parser) parseUnaryExpr() ast.Expr {
	pos := p.curPos()
	op := p.curToken.Literal
	p.nextToken()
	arg := p.parseExpression(UNARY)
	return &ast.UnaryExpr{Op: op, Arg: arg, Prefix: true, Pos: pos}
}

func (p *Parser) parseAwaitExpr() ast.Expr {
	pos := p.curPos()
	p.nextToken()
	arg := p.parseExpression(UNARY)
	return &ast.AwaitExpr{Arg: arg, Pos: pos}
}

func (p *Parser) parseUpdatePrefix() ast.Expr {
	pos := p.curPos()
	op := p.curToken.Literal
	p.nextToken()
	arg := p.parseExpression(UNARY)
	return &ast.UpdateExpr{Op: op, Arg: arg, Prefix: true, Pos: pos}
}

func (p *Parser) parseUpdatePostfix(left ast.Expr) ast.Expr {
	pos := p.curPos()
	op := p.curToken.Literal
	p.nextToken()
	return &ast.UpdateExpr{Op: op, Arg: left, Prefix: false, Pos: pos}
}

func (p *Parser) parseNonNullExpr(left ast.Expr) ast.Expr {
	pos := p.curPos()
	p.nextToken() // consume '!'
	return &ast.TSNonNull{Expr: left, Pos: pos}
}

func (p *Parser) parseAsExpr(left ast.Expr) ast.Expr {
	pos := p.curPos()
	p.nextToken() // consume 'as'
	typ := p.parseTypeAnnotationText()
	return &ast.TSAs{Expr: left, Type: typ, Pos: pos}
}

func (p *Parser) parseSatisfiesExpr(left ast.Expr) ast.Expr {
	pos := p.curPos()
	p.nextToken() // consume 'satisfies'
	typ := p.parseTypeAnnotationText()
	return &ast.TSSatisfies{Expr: left, Type: typ, Pos: pos}
}

// parseNewExpr implements `new Callee(args)` / `new Callee.member()`. The
// callee is parsed as a member-access chain only (dots/brackets, no calls),
// matching JS's `new MemberExpression Arguments` production: the first `(`
// after the chain belongs to the NewExpr, not to a nested call on the callee.
func (p *Parser) parseNewExpr() ast.Expr {
	pos := p.curPos()
	p.nextToken() // consume 'new'
	if p.curIs(lexer.NEW) {
		callee := p.parseNewExpr()
		return &ast.NewExpr{Callee: callee, Pos: pos}
	}
	callee := p.parseNewCalleeChain()
	var args []ast.Expr
	if p.curIs(lexer.LPAREN) {
		args = p.parseArgumentList()
	}
	return &ast.NewExpr{Callee: callee, Args: args, Pos: pos}
}

// parseNewCalleeChain parses a primary expression followed by `.prop` and
// `[expr]` member accesses, stopping before any `(` call or postfix operator.
func (p *Parser) parseNewCalleeChain() ast.Expr {
	prefix, ok := p.prefixParseFns[p.curToken.Type]
	if !ok {
		p.noPrefixParseFnError(p.curToken.Type)
		return nil
	}
	left := prefix()
	for {
		switch p.curToken.Type {
		case lexer.DOT:
			left = p.parseMemberExpr(left)
		case lexer.LBRACKET:
			left = p.parseComputedMemberExpr(left)
		default:
			return left
		}
	}
}

func (p *Parser) parseCallExpr(left ast.Expr) ast.Expr {
	pos := p.curPos()
	args := p.parseArgumentList()
	return &ast.CallExpr{Callee: left, Args: args, Pos: pos}
}

func (p *Parser) parseArgumentList() []ast.Expr {
	p.nextToken() // consume '('
	var args []ast.Expr
	for !p.curIs(lexer.RPAREN) && !p.curIs(lexer.EOF) {
		if p.curIs(lexer.ELLIPSIS) {
			spos := p.curPos()
			p.nextToken()
			args = append(args, &ast.SpreadElement{Argument: p.parseExpression(ASSIGN_PREC - 1), Pos: spos})
		} else {
			args = append(args, p.parseExpression(ASSIGN_PREC-1))
		}
		if p.curIs(lexer.COMMA) {
			p.nextToken()
		} else {
			break
		}
	}
	p.expect(lexer.RPAREN)
	return args
}

func (p *Parser) parseMemberExpr(left ast.Expr) ast.Expr {
	pos := p.curPos()
	p.nextToken() // consume '.'
	name := &ast.Identifier{Name: p.curToken.Literal, Pos: p.curPos()}
	p.nextToken()
	return &ast.MemberExpr{Object: left, Property: name, Pos: pos}
}

func (p *Parser) parseOptionalMemberExpr(left ast.Expr) ast.Expr {
	pos := p.curPos()
	p.nextToken() // consume '?.'
	if p.curIs(lexer.LPAREN) {
		args := p.parseArgumentList()
		return &ast.CallExpr{Callee: left, Args: args, Optional: true, Pos: pos}
	}
	if p.curIs(lexer.LBRACKET) {
		p.nextToken()
		prop := p.parseExpressionFull()
		p.expect(lexer.RBRACKET)
		return &ast.MemberExpr{Object: left, Property: prop, Computed: true, Optional: true, Pos: pos}
	}
	name := &ast.Identifier{Name: p.curToken.Literal, Pos: p.curPos()}
	p.nextToken()
	return &ast.MemberExpr{Object: left, Property: name, Optional: true, Pos: pos}
}

func (p *Parser) parseComputedMemberExpr(left ast.Expr) ast.Expr {
	pos := p.curPos()
	p.nextToken() // consume '['
	prop := p.parseExpressionFull()
	p.expect(lexer.RBRACKET)
	return &ast.MemberExpr{Object: left, Property: prop, Computed: true, Pos: pos}
}

func (p *Parser) parseBinaryExpr(left ast.Expr) ast.Expr {
	pos := p.curPos()
	op := p.curToken.Literal
	prec := p.curPrecedence()
	p.nextToken()
	right := p.parseExpression(prec)
	return &ast.BinaryExpr{Op: op, Left: left, Right: right, Pos: pos}
}

func (p *Parser) parseLogicalExpr(left ast.Expr) ast.Expr {
	pos := p.curPos()
	op := p.curToken.Literal
	prec := p.curPrecedence()
	p.nextToken()
	right := p.parseExpression(prec)
	return &ast.LogicalExpr{Op: op, Left: left, Right: right, Pos: pos}
}

func (p *Parser) parseConditionalExpr(test ast.Expr) ast.Expr {
	pos := p.curPos()
	p.nextToken() // consume '?'
	cons := p.parseExpression(ASSIGN_PREC - 1)
	p.expect(lexer.COLON)
	alt := p.parseExpression(ASSIGN_PREC - 1)
	return &ast.ConditionalExpr{Test: test, Consequent: cons, Alternate: alt, Pos: pos}
}

func (p *Parser) parseAssignmentExpr(left ast.Expr) ast.Expr {
	pos := p.curPos()
	op := p.curToken.Literal
	p.nextToken()
	value := p.parseExpression(ASSIGN_PREC - 1)
	target := p.exprToPatternTarget(left)
	return &ast.AssignmentExpr{Op: op, Target: target, Value: value, Pos: pos}
}

// exprToPatternTarget reinterprets an already-parsed expression as an
// assignment target, needed because `({a, b} = src)` parses `{a, b}` as an
// ObjectLiteral via the ordinary expression grammar.
func (p *Parser) exprToPatternTarget(e ast.Expr) ast.Node {
	switch v := e.(type) {
	case *ast.ObjectLiteral:
		return p.objectLiteralToPattern(v)
	case *ast.ArrayLiteral:
		return p.arrayLiteralToPattern(v)
	default:
		return e
	}
}

func (p *Parser) parseAsyncPrefixed() ast.Expr {
	p.nextToken() // consume 'async'
	if p.curIs(lexer.FUNCTION) {
		fn := p.parseFunctionExpr().(*ast.FunctionExpr)
		fn.Async = true
		return fn
	}
	arrow := p.parseParenOrArrow()
	if a, ok := arrow.(*ast.ArrowFunction); ok {
		a.Async = true
	}
	return arrow
}

func (p *Parser) parseFunctionExpr() ast.Expr {
	pos := p.curPos()
	return p.parseFunctionTailAt(false, pos)
}

// parseFunctionTail parses `(params) { body }` after consuming a method name,
// used for object-literal method shorthand. parseFunctionTailAt additionally
// consumes the leading `function` keyword and optional name.
func (p *Parser) parseFunctionTail(async bool, pos ast.Pos) *ast.FunctionExpr {
	params := p.parseParamList()
	p.parseOptionalReturnType()
	body := p.parseBlockStmt()
	return &ast.FunctionExpr{Params: params, Body: body, Async: async, Pos: pos}
}

func (p *Parser) parseFunctionTailAt(async bool, pos ast.Pos) ast.Expr {
	p.nextToken() // consume 'function'
	name := ""
	if p.curIs(lexer.IDENT) {
		name = p.curToken.Literal
		p.nextToken()
	}
	params := p.parseParamList()
	p.parseOptionalReturnType()
	body := p.parseBlockStmt()
	return &ast.FunctionExpr{Name: name, Params: params, Body: body, Async: async, Pos: pos}
}

func (p *Parser) parseImportExprOrMeta() ast.Expr {
	pos := p.curPos()
	p.nextToken() // consume 'import'
	if p.curIs(lexer.DOT) {
		p.nextToken()
		p.nextToken() // consume 'meta'
		return &ast.ImportMetaExpr{Pos: pos}
	}
	p.expect(lexer.LPAREN)
	src := p.parseExpressionFull()
	p.expect(lexer.RPAREN)
	return &ast.ImportCallExpr{Source: src, Pos: pos}
}

// parseParenOrArrow disambiguates `(expr)` grouping from `(params) => body`
// by first trying to parse the parenthesized content as a parameter list;
// on failure it backtracks and re-parses as a grouped expression.
func (p *Parser) parseParenOrArrow() ast.Expr {
	pos := p.curPos()
	save := *p
	savedLexer := *p.l

	if params, ok := p.tryParseArrowParams(); ok && p.curIs(lexer.ARROW) {
		p.nextToken() // consume '=>'
		return p.parseArrowBody(params, false, pos)
	}

	*p = save
	*p.l = savedLexer

	p.nextToken() // consume '('
	expr := p.parseExpressionFull()
	p.expect(lexer.RPAREN)
	return expr
}

func (p *Parser) parseArrowBody(params []ast.Pattern, async bool, pos ast.Pos) ast.Expr {
	if p.curIs(lexer.LBRACE) {
		body := p.parseBlockStmt()
		return &ast.ArrowFunction{Params: params, Body: body, ExprBody: false, Async: async, Pos: pos}
	}
	body := p.parseExpression(ASSIGN_PREC - 1)
	return &ast.ArrowFunction{Params: params, Body: body, ExprBody: true, Async: async, Pos: pos}
}

// tryParseArrowParams attempts to consume `(params)` as an arrow-function
// parameter list, reporting ok=false (with errors suppressed) if the
// parenthesized content doesn't parse as a pattern list.
func (p *Parser) tryParseArrowParams() (params []ast.Pattern, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	if !p.curIs(lexer.LPAREN) {
		return nil, false
	}
	errsBefore := len(p.errors)
	params = p.parseParamList()
	if len(p.errors) > errsBefore {
		return nil, false
	}
	return params, true
}
