package parser

import (
	"github.com/sunholo/fict/internal/ast"
	"github.com/sunholo/fict/internal/lexer"
)

// parseJSXPrimary is the prefix handler registered for '<', dispatching to
// a fragment or a named element.
func (p *Parser) parseJSXPrimary() ast.Expr {
	pos := p.curPos()
	p.nextToken() // consume '<'
	if p.curIs(lexer.GT) {
		return p.parseJSXFragment(pos)
	}
	return p.parseJSXElement(pos)
}

func (p *Parser) parseJSXFragment(pos ast.Pos) ast.Expr {
	p.nextToken() // consume '>'
	children := p.parseJSXChildren()
	// closing `</>`
	p.expect(lexer.LT)
	p.expect(lexer.SLASH)
	p.expect(lexer.GT)
	return &ast.JSXFragment{Children: children, Pos: pos}
}

func (p *Parser) parseJSXName() *ast.JSXName {
	pos := p.curPos()
	parts := []string{p.curToken.Literal}
	p.nextToken()
	for p.curIs(lexer.DOT) {
		p.nextToken()
		parts = append(parts, p.curToken.Literal)
		p.nextToken()
	}
	return &ast.JSXName{Parts: parts, Pos: pos}
}

func (p *Parser) parseJSXElement(pos ast.Pos) ast.Expr {
	name := p.parseJSXName()
	var attrs []*ast.JSXAttribute
	for !p.curIs(lexer.GT) && !p.curIs(lexer.SLASH) && !p.curIs(lexer.EOF) {
		attrs = append(attrs, p.parseJSXAttribute())
	}
	if p.curIs(lexer.SLASH) {
		p.nextToken()
		p.expect(lexer.GT)
		return &ast.JSXElement{Name: name, Attributes: attrs, SelfClose: true, Pos: pos}
	}
	p.expect(lexer.GT)
	children := p.parseJSXChildren()
	p.expect(lexer.LT)
	p.expect(lexer.SLASH)
	p.parseJSXName() // closing tag name, assumed to match
	p.expect(lexer.GT)
	return &ast.JSXElement{Name: name, Attributes: attrs, Children: children, Pos: pos}
}

func (p *Parser) parseJSXAttribute() *ast.JSXAttribute {
	pos := p.curPos()
	if p.curIs(lexer.LBRACE) {
		p.nextToken() // consume '{'
		p.expect(lexer.ELLIPSIS)
		val := p.parseExpressionFull()
		p.expect(lexer.RBRACE)
		return &ast.JSXAttribute{Spread: val, Pos: pos}
	}
	name := p.curToken.Literal
	p.nextToken()
	for p.curIs(lexer.MINUS) {
		p.nextToken()
		name += "-" + p.curToken.Literal
		p.nextToken()
	}
	if !p.curIs(lexer.ASSIGN) {
		return &ast.JSXAttribute{Name: name, Pos: pos}
	}
	p.nextToken() // consume '='
	if p.curIs(lexer.STRING) {
		val := &ast.Literal{Kind: ast.StringLit, Value: p.curToken.Literal, Pos: p.curPos()}
		p.nextToken()
		return &ast.JSXAttribute{Name: name, Value: val, Pos: pos}
	}
	p.expect(lexer.LBRACE)
	val := p.parseExpressionFull()
	p.expect(lexer.RBRACE)
	return &ast.JSXAttribute{Name: name, Value: val, Pos: pos}
}

// parseJSXChildren reads text/expression/element children up to (but not
// consuming) the next closing `</`. Text nodes are reassembled from the
// ordinary token stream (their literals joined with a single space) rather
// than scanned as raw source text, since the lexer has no separate JSX-text
// mode; this loses exact inter-token whitespace but keeps the structural
// content every downstream pass (classification, lowering) actually needs.
func (p *Parser) parseJSXChildren() []ast.Expr {
	var children []ast.Expr
	var textBuf []string
	textPos := p.curPos()

	flushText := func() {
		if len(textBuf) == 0 {
			return
		}
		children = append(children, &ast.JSXText{Value: joinJSXWords(textBuf), Pos: textPos})
		textBuf = nil
	}

	for {
		if p.curIs(lexer.LT) {
			if p.peekIs(lexer.SLASH) {
				flushText()
				return children
			}
			flushText()
			children = append(children, p.parseJSXPrimary())
			textPos = p.curPos()
			continue
		}
		if p.curIs(lexer.LBRACE) {
			flushText()
			pos := p.curPos()
			p.nextToken()
			if p.curIs(lexer.RBRACE) {
				p.nextToken()
				textPos = p.curPos()
				continue
			}
			expr := p.parseExpressionFull()
			p.expect(lexer.RBRACE)
			children = append(children, &ast.JSXExpressionContainer{Expr: expr, Pos: pos})
			textPos = p.curPos()
			continue
		}
		if p.curIs(lexer.EOF) {
			flushText()
			return children
		}
		if len(textBuf) == 0 {
			textPos = p.curPos()
		}
		textBuf = append(textBuf, p.curToken.Literal)
		p.nextToken()
	}
}

func joinJSXWords(words []string) string {
	out := ""
	for i, w := range words {
		if i > 0 {
			out += " "
		}
		out += w
	}
	return out
}
