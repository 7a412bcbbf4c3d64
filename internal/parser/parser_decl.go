package parser

import (
	"github.com/sunholo/fict/internal/ast"
	"github.com/sunholo/fict/internal/lexer"
)

func (p *Parser) parseStatement() ast.Stmt {
	switch p.curToken.Type {
	case lexer.LET, lexer.CONST, lexer.VAR:
		s := p.parseVarDecl()
		p.skipSemicolon()
		return s
	case lexer.FUNCTION:
		return p.parseFunctionDecl(false)
	case lexer.ASYNC:
		if p.peekIs(lexer.FUNCTION) {
			p.nextToken()
			return p.parseFunctionDecl(true)
		}
	case lexer.RETURN:
		return p.parseReturnStmt()
	case lexer.IF:
		return p.parseIfStmt()
	case lexer.SWITCH:
		return p.parseSwitchStmt()
	case lexer.WHILE:
		return p.parseWhileStmt()
	case lexer.DO:
		return p.parseDoWhileStmt()
	case lexer.FOR:
		return p.parseForStmt()
	case lexer.BREAK:
		return p.parseBreakStmt()
	case lexer.CONTINUE:
		return p.parseContinueStmt()
	case lexer.THROW:
		return p.parseThrowStmt()
	case lexer.TRY:
		return p.parseTryStmt()
	case lexer.IMPORT:
		return p.parseImportDecl()
	case lexer.EXPORT:
		return p.parseExportDecl()
	case lexer.LBRACE:
		return p.parseBlockStmt()
	case lexer.SEMICOLON:
		pos := p.curPos()
		p.nextToken()
		return &ast.EmptyStmt{Pos: pos}
	case lexer.IDENT:
		if p.peekIs(lexer.COLON) {
			return p.parseLabeledStmt()
		}
	}
	return p.parseExprStatement()
}

func (p *Parser) parseBlockStmt() *ast.BlockStmt {
	pos := p.curPos()
	p.expect(lexer.LBRACE)
	block := &ast.BlockStmt{Pos: pos}
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			block.Body = append(block.Body, stmt)
		} else {
			p.nextToken()
		}
	}
	p.expect(lexer.RBRACE)
	return block
}

func (p *Parser) parseExprStatement() ast.Stmt {
	pos := p.curPos()
	expr := p.parseExpressionFull()
	p.skipSemicolon()
	if expr == nil {
		return nil
	}
	return &ast.ExprStmt{Expr: expr, Pos: pos}
}

func (p *Parser) varKindFromToken() ast.VarKind {
	switch p.curToken.Type {
	case lexer.CONST:
		return ast.KindConst
	case lexer.VAR:
		return ast.KindVar
	default:
		return ast.KindLet
	}
}

func (p *Parser) parseVarDecl() *ast.VarDecl {
	pos := p.curPos()
	kind := p.varKindFromToken()
	p.nextToken()

	decl := &ast.VarDecl{VKind: kind, Pos: pos}
	for {
		dpos := p.curPos()
		name := p.parseBindingTarget()
		p.skipOptionalTypeAnnotation()
		var init ast.Expr
		if p.curIs(lexer.ASSIGN) {
			p.nextToken()
			init = p.parseExpression(ASSIGN_PREC - 1)
		}
		decl.Declarations = append(decl.Declarations, &ast.VarDeclarator{Name: name, Init: init, Pos: dpos})
		if p.curIs(lexer.COMMA) {
			p.nextToken()
			continue
		}
		break
	}
	return decl
}

func (p *Parser) parseFunctionDecl(async bool) ast.Stmt {
	pos := p.curPos()
	p.nextToken() // consume 'function'
	name := p.curToken.Literal
	p.nextToken()
	params := p.parseParamList()
	p.parseOptionalReturnType()
	body := p.parseBlockStmt()
	return &ast.FunctionDecl{Name: name, Params: params, Body: body, Async: async, Pos: pos}
}

func (p *Parser) parseReturnStmt() ast.Stmt {
	pos := p.curPos()
	p.nextToken() // consume 'return'
	if p.curIs(lexer.SEMICOLON) || p.curIs(lexer.RBRACE) || p.curIs(lexer.EOF) {
		p.skipSemicolon()
		return &ast.ReturnStmt{Pos: pos}
	}
	arg := p.parseExpressionFull()
	p.skipSemicolon()
	return &ast.ReturnStmt{Arg: arg, Pos: pos}
}

func (p *Parser) parseIfStmt() ast.Stmt {
	pos := p.curPos()
	p.nextToken() // consume 'if'
	p.expect(lexer.LPAREN)
	test := p.parseExpressionFull()
	p.expect(lexer.RPAREN)
	cons := p.parseStatement()
	var alt ast.Stmt
	if p.curIs(lexer.ELSE) {
		p.nextToken()
		alt = p.parseStatement()
	}
	return &ast.IfStmt{Test: test, Cons: cons, Alt: alt, Pos: pos}
}

func (p *Parser) parseSwitchStmt() ast.Stmt {
	pos := p.curPos()
	p.nextToken() // consume 'switch'
	p.expect(lexer.LPAREN)
	disc := p.parseExpressionFull()
	p.expect(lexer.RPAREN)
	p.expect(lexer.LBRACE)

	sw := &ast.SwitchStmt{Disc: disc, Pos: pos}
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		cpos := p.curPos()
		var test ast.Expr
		if p.curIs(lexer.CASE) {
			p.nextToken()
			test = p.parseExpressionFull()
		} else {
			p.expect(lexer.DEFAULT)
		}
		p.expect(lexer.COLON)
		kase := &ast.SwitchCase{Test: test, Pos: cpos}
		for !p.curIs(lexer.CASE) && !p.curIs(lexer.DEFAULT) && !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
			kase.Body = append(kase.Body, p.parseStatement())
		}
		sw.Cases = append(sw.Cases, kase)
	}
	p.expect(lexer.RBRACE)
	return sw
}

func (p *Parser) parseWhileStmt() ast.Stmt {
	pos := p.curPos()
	p.nextToken() // consume 'while'
	p.expect(lexer.LPAREN)
	test := p.parseExpressionFull()
	p.expect(lexer.RPAREN)
	body := p.parseStatement()
	return &ast.WhileStmt{Test: test, Body: body, Pos: pos}
}

func (p *Parser) parseDoWhileStmt() ast.Stmt {
	pos := p.curPos()
	p.nextToken() // consume 'do'
	body := p.parseStatement()
	p.expect(lexer.WHILE)
	p.expect(lexer.LPAREN)
	test := p.parseExpressionFull()
	p.expect(lexer.RPAREN)
	p.skipSemicolon()
	return &ast.DoWhileStmt{Body: body, Test: test, Pos: pos}
}

// parseForStmt parses the classic, for-in, and for-of forms, disambiguating
// after parsing the init clause.
func (p *Parser) parseForStmt() ast.Stmt {
	pos := p.curPos()
	p.nextToken() // consume 'for'
	isAwait := false
	if p.curIs(lexer.AWAIT) {
		isAwait = true
		p.nextToken()
	}
	p.expect(lexer.LPAREN)

	if p.curIs(lexer.SEMICOLON) {
		p.nextToken()
		return p.parseForClassicRest(pos, nil)
	}

	var left ast.Node
	if p.curIs(lexer.LET) || p.curIs(lexer.CONST) || p.curIs(lexer.VAR) {
		kind := p.varKindFromToken()
		dpos := p.curPos()
		p.nextToken()
		target := p.parseBindingTarget()
		decl := &ast.VarDecl{VKind: kind, Declarations: []*ast.VarDeclarator{{Name: target, Pos: dpos}}, Pos: dpos}
		if p.curIs(lexer.IN) {
			p.nextToken()
			right := p.parseExpressionFull()
			p.expect(lexer.RPAREN)
			body := p.parseStatement()
			return &ast.ForInStmt{Left: decl, Right: right, Body: body, Pos: pos}
		}
		if p.curIs(lexer.OF) {
			p.nextToken()
			right := p.parseExpression(ASSIGN_PREC - 1)
			p.expect(lexer.RPAREN)
			body := p.parseStatement()
			return &ast.ForOfStmt{Left: decl, Right: right, Body: body, Await: isAwait, Pos: pos}
		}
		if p.curIs(lexer.ASSIGN) {
			p.nextToken()
			decl.Declarations[0].Init = p.parseExpression(ASSIGN_PREC - 1)
		}
		for p.curIs(lexer.COMMA) {
			p.nextToken()
			dpos2 := p.curPos()
			target2 := p.parseBindingTarget()
			var init2 ast.Expr
			if p.curIs(lexer.ASSIGN) {
				p.nextToken()
				init2 = p.parseExpression(ASSIGN_PREC - 1)
			}
			decl.Declarations = append(decl.Declarations, &ast.VarDeclarator{Name: target2, Init: init2, Pos: dpos2})
		}
		left = decl
	} else {
		expr := p.parseExpressionFull()
		if p.curIs(lexer.IN) {
			p.nextToken()
			right := p.parseExpressionFull()
			p.expect(lexer.RPAREN)
			body := p.parseStatement()
			return &ast.ForInStmt{Left: p.exprToPatternTarget(expr), Right: right, Body: body, Pos: pos}
		}
		if p.curIs(lexer.OF) {
			p.nextToken()
			right := p.parseExpression(ASSIGN_PREC - 1)
			p.expect(lexer.RPAREN)
			body := p.parseStatement()
			return &ast.ForOfStmt{Left: p.exprToPatternTarget(expr), Right: right, Body: body, Await: isAwait, Pos: pos}
		}
		left = expr
	}

	p.expect(lexer.SEMICOLON)
	return p.parseForClassicRest(pos, left)
}

func (p *Parser) parseForClassicRest(pos ast.Pos, init ast.Node) ast.Stmt {
	var test ast.Expr
	if !p.curIs(lexer.SEMICOLON) {
		test = p.parseExpressionFull()
	}
	p.expect(lexer.SEMICOLON)
	var update ast.Expr
	if !p.curIs(lexer.RPAREN) {
		update = p.parseExpressionFull()
	}
	p.expect(lexer.RPAREN)
	body := p.parseStatement()
	return &ast.ForStmt{Init: init, Test: test, Update: update, Body: body, Pos: pos}
}

func (p *Parser) parseBreakStmt() ast.Stmt {
	pos := p.curPos()
	p.nextToken() // consume 'break'
	label := ""
	if p.curIs(lexer.IDENT) {
		label = p.curToken.Literal
		p.nextToken()
	}
	p.skipSemicolon()
	return &ast.BreakStmt{Label: label, Pos: pos}
}

func (p *Parser) parseContinueStmt() ast.Stmt {
	pos := p.curPos()
	p.nextToken() // consume 'continue'
	label := ""
	if p.curIs(lexer.IDENT) {
		label = p.curToken.Literal
		p.nextToken()
	}
	p.skipSemicolon()
	return &ast.ContinueStmt{Label: label, Pos: pos}
}

func (p *Parser) parseLabeledStmt() ast.Stmt {
	pos := p.curPos()
	label := p.curToken.Literal
	p.nextToken() // consume ident
	p.nextToken() // consume ':'
	body := p.parseStatement()
	return &ast.LabeledStmt{Label: label, Body: body, Pos: pos}
}

func (p *Parser) parseThrowStmt() ast.Stmt {
	pos := p.curPos()
	p.nextToken() // consume 'throw'
	arg := p.parseExpressionFull()
	p.skipSemicolon()
	return &ast.ThrowStmt{Arg: arg, Pos: pos}
}

func (p *Parser) parseTryStmt() ast.Stmt {
	pos := p.curPos()
	p.nextToken() // consume 'try'
	block := p.parseBlockStmt()
	t := &ast.TryStmt{Block: block, Pos: pos}
	if p.curIs(lexer.CATCH) {
		p.nextToken()
		if p.curIs(lexer.LPAREN) {
			p.nextToken()
			t.Param = p.parsePattern()
			p.expect(lexer.RPAREN)
		}
		t.Handler = p.parseBlockStmt()
	}
	if p.curIs(lexer.FINALLY) {
		p.nextToken()
		t.Finally = p.parseBlockStmt()
	}
	return t
}

func (p *Parser) parseImportDecl() ast.Stmt {
	pos := p.curPos()
	p.nextToken() // consume 'import'
	decl := &ast.ImportDecl{Pos: pos}

	if p.curIs(lexer.STRING) {
		decl.Source = unquoteStringLiteral(p.curToken.Literal)
		p.nextToken()
		p.skipSemicolon()
		return decl
	}

	if p.curIs(lexer.IDENT) {
		decl.Default = p.curToken.Literal
		p.nextToken()
		if p.curIs(lexer.COMMA) {
			p.nextToken()
		}
	}

	if p.curIs(lexer.STAR) {
		p.nextToken()
		p.expect(lexer.AS)
		decl.Default = p.curToken.Literal
		p.nextToken()
	} else if p.curIs(lexer.LBRACE) {
		p.nextToken()
		for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
			imported := p.curToken.Literal
			p.nextToken()
			local := imported
			if p.curIs(lexer.AS) {
				p.nextToken()
				local = p.curToken.Literal
				p.nextToken()
			}
			decl.Specifiers = append(decl.Specifiers, &ast.ImportSpecifier{Imported: imported, Local: local})
			if p.curIs(lexer.COMMA) {
				p.nextToken()
			}
		}
		p.expect(lexer.RBRACE)
	}

	if p.curIs(lexer.FROM) {
		p.nextToken()
		decl.Source = unquoteStringLiteral(p.curToken.Literal)
		p.nextToken()
	}
	p.skipSemicolon()
	return decl
}

func (p *Parser) parseExportDecl() ast.Stmt {
	pos := p.curPos()
	p.nextToken() // consume 'export'
	if p.curIs(lexer.DEFAULT) {
		p.nextToken()
		var inner ast.Stmt
		if p.curIs(lexer.FUNCTION) {
			inner = p.parseFunctionDecl(false)
		} else {
			expr := p.parseExpressionFull()
			p.skipSemicolon()
			inner = &ast.ExprStmt{Expr: expr, Pos: pos}
		}
		return &ast.ExportDecl{Default: true, Decl: inner, Pos: pos}
	}
	inner := p.parseStatement()
	return &ast.ExportDecl{Decl: inner, Pos: pos}
}
