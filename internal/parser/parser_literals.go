package parser

import "github.com/sunholo/fict/internal/lexer"

// parseTypeAnnotationText consumes a TypeScript type annotation as raw
// source text without attempting to structure it; types are never
// type-checked by this compiler (see ast.TSAs/TSSatisfies).
func (p *Parser) parseTypeAnnotationText() string {
	depth := 0
	text := ""
	for {
		switch p.curToken.Type {
		case lexer.LT, lexer.LPAREN, lexer.LBRACE, lexer.LBRACKET:
			depth++
		case lexer.GT, lexer.RPAREN, lexer.RBRACE, lexer.RBRACKET:
			if depth == 0 {
				return text
			}
			depth--
		case lexer.COMMA, lexer.SEMICOLON, lexer.ASSIGN, lexer.ARROW, lexer.EOF:
			if depth == 0 {
				return text
			}
		}
		if text != "" {
			text += " "
		}
		text += p.curToken.Literal
		p.nextToken()
	}
}

// unquoteStringLiteral strips the surrounding quote characters from a raw
// STRING token literal. Escape sequences are left as-is (verbatim, matching
// ast.Literal's convention); only import/export module specifiers need the
// bare text, since those are plain Go strings rather than Literal nodes.
func unquoteStringLiteral(raw string) string {
	if len(raw) >= 2 {
		return raw[1 : len(raw)-1]
	}
	return raw
}

// skipOptionalTypeAnnotation consumes `: Type` if present, discarding it.
func (p *Parser) skipOptionalTypeAnnotation() {
	if p.curIs(lexer.COLON) {
		p.nextToken()
		p.parseTypeAnnotationText()
	}
}

// parseOptionalReturnType consumes a function return-type annotation, if any.
func (p *Parser) parseOptionalReturnType() {
	p.skipOptionalTypeAnnotation()
}
