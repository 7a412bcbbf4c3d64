package parser

import (
	"github.com/sunholo/fict/internal/ast"
	"github.com/sunholo/fict/internal/lexer"
)

// parsePattern parses a binding pattern: identifier, object/array
// destructuring, each optionally wrapped in a default value or rest marker.
// Used for variable declarators and function parameters.
func (p *Parser) parsePattern() ast.Pattern {
	var target ast.Pattern
	switch p.curToken.Type {
	case lexer.LBRACE:
		target = p.parseObjectPattern()
	case lexer.LBRACKET:
		target = p.parseArrayPattern()
	default:
		pos := p.curPos()
		name := p.curToken.Literal
		p.nextToken()
		target = &ast.Identifier{Name: name, Pos: pos}
	}
	p.skipOptionalTypeAnnotation()
	if p.curIs(lexer.ASSIGN) {
		pos := p.curPos()
		p.nextToken()
		def := p.parseExpression(ASSIGN_PREC - 1)
		return &ast.AssignmentPattern{Target: target, Default: def, Pos: pos}
	}
	return target
}

func (p *Parser) parseObjectPattern() *ast.ObjectPattern {
	pos := p.curPos()
	p.nextToken() // consume '{'
	out := &ast.ObjectPattern{Pos: pos}
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		if p.curIs(lexer.ELLIPSIS) {
			p.nextToken()
			restName := p.curToken.Literal
			restPos := p.curPos()
			p.nextToken()
			out.Rest = &ast.Identifier{Name: restName, Pos: restPos}
			break
		}
		ppos := p.curPos()
		key := p.curToken.Literal
		p.nextToken()

		var value ast.Pattern = &ast.Identifier{Name: key, Pos: ppos}
		if p.curIs(lexer.COLON) {
			p.nextToken()
			value = p.parseBindingTarget()
		}
		var def ast.Expr
		if p.curIs(lexer.ASSIGN) {
			p.nextToken()
			def = p.parseExpression(ASSIGN_PREC - 1)
		}
		out.Props = append(out.Props, &ast.ObjectPatternProp{Key: key, Value: value, Default: def, Pos: ppos})

		if p.curIs(lexer.COMMA) {
			p.nextToken()
		} else {
			break
		}
	}
	p.expect(lexer.RBRACE)
	return out
}

func (p *Parser) parseArrayPattern() *ast.ArrayPattern {
	pos := p.curPos()
	p.nextToken() // consume '['
	out := &ast.ArrayPattern{Pos: pos}
	for !p.curIs(lexer.RBRACKET) && !p.curIs(lexer.EOF) {
		if p.curIs(lexer.COMMA) {
			out.Elements = append(out.Elements, nil)
			out.Defaults = append(out.Defaults, nil)
			p.nextToken()
			continue
		}
		if p.curIs(lexer.ELLIPSIS) {
			p.nextToken()
			out.Rest = p.parseBindingTarget()
			break
		}
		target := p.parseBindingTarget()
		var def ast.Expr
		if p.curIs(lexer.ASSIGN) {
			p.nextToken()
			def = p.parseExpression(ASSIGN_PREC - 1)
		}
		out.Elements = append(out.Elements, target)
		out.Defaults = append(out.Defaults, def)

		if p.curIs(lexer.COMMA) {
			p.nextToken()
		} else {
			break
		}
	}
	p.expect(lexer.RBRACKET)
	return out
}

// parseBindingTarget parses a nested pattern without the trailing default
// handling performed by parsePattern (callers here manage defaults
// themselves since array/object element syntax differs slightly).
func (p *Parser) parseBindingTarget() ast.Pattern {
	switch p.curToken.Type {
	case lexer.LBRACE:
		return p.parseObjectPattern()
	case lexer.LBRACKET:
		return p.parseArrayPattern()
	default:
		pos := p.curPos()
		name := p.curToken.Literal
		p.nextToken()
		return &ast.Identifier{Name: name, Pos: pos}
	}
}

// parseParamList parses a function/arrow parameter list `(a, {b}, c = 1, ...rest)`.
func (p *Parser) parseParamList() []ast.Pattern {
	if !p.expect(lexer.LPAREN) {
		return nil
	}
	var params []ast.Pattern
	for !p.curIs(lexer.RPAREN) && !p.curIs(lexer.EOF) {
		if p.curIs(lexer.ELLIPSIS) {
			pos := p.curPos()
			p.nextToken()
			target := p.parseBindingTarget()
			p.skipOptionalTypeAnnotation()
			params = append(params, &ast.RestElement{Target: target, Pos: pos})
		} else {
			params = append(params, p.parsePattern())
		}
		if p.curIs(lexer.COMMA) {
			p.nextToken()
		} else {
			break
		}
	}
	p.expect(lexer.RPAREN)
	return params
}

// objectLiteralToPattern reinterprets an ObjectLiteral parsed as a plain
// expression (inside a parenthesized destructuring assignment target) as an
// ObjectPattern.
func (p *Parser) objectLiteralToPattern(o *ast.ObjectLiteral) ast.Pattern {
	out := &ast.ObjectPattern{Pos: o.Pos}
	for _, prop := range o.Properties {
		if prop.Key == nil {
			// spread property
			if spread, ok := prop.Value.(*ast.SpreadElement); ok {
				out.Rest = p.exprToBindingPattern(spread.Argument)
			}
			continue
		}
		id, _ := prop.Key.(*ast.Identifier)
		keyName := ""
		if id != nil {
			keyName = id.Name
		}
		var def ast.Expr
		val := prop.Value
		if assign, ok := val.(*ast.AssignmentExpr); ok {
			def = assign.Value
			val = assign.Target.(ast.Expr)
		}
		out.Props = append(out.Props, &ast.ObjectPatternProp{
			Key:      keyName,
			Value:    p.exprToBindingPattern(val),
			Default:  def,
			Computed: prop.Computed,
			Pos:      prop.Pos,
		})
	}
	return out
}

func (p *Parser) arrayLiteralToPattern(a *ast.ArrayLiteral) ast.Pattern {
	out := &ast.ArrayPattern{Pos: a.Pos}
	for _, el := range a.Elements {
		if el == nil {
			out.Elements = append(out.Elements, nil)
			out.Defaults = append(out.Defaults, nil)
			continue
		}
		if spread, ok := el.(*ast.SpreadElement); ok {
			out.Rest = p.exprToBindingPattern(spread.Argument)
			continue
		}
		var def ast.Expr
		target := el
		if assign, ok := el.(*ast.AssignmentExpr); ok {
			def = assign.Value
			target = assign.Target.(ast.Expr)
		}
		out.Elements = append(out.Elements, p.exprToBindingPattern(target))
		out.Defaults = append(out.Defaults, def)
	}
	return out
}

// exprToBindingPattern reinterprets an expression-shaped node as a pattern,
// recursing into nested object/array literals produced by destructuring.
func (p *Parser) exprToBindingPattern(e ast.Expr) ast.Pattern {
	switch v := e.(type) {
	case *ast.Identifier:
		return v
	case *ast.ObjectLiteral:
		return p.objectLiteralToPattern(v)
	case *ast.ArrayLiteral:
		return p.arrayLiteralToPattern(v)
	case *ast.MemberExpr:
		return &ast.MemberPattern{Expr: v, Pos: v.Pos}
	default:
		p.report("FICT-PAR010", "invalid destructuring target")
		return &ast.Identifier{Name: "", Pos: e.Position()}
	}
}
