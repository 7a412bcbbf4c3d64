package parser

import (
	"fmt"

	"github.com/sunholo/fict/internal/lexer"
)

// ParseError is a structured syntax error with enough context for a caller
// to render a helpful diagnostic (see internal/diag for the wire form).
type ParseError struct {
	Code       string
	Message    string
	Pos        fmt.Stringer
	NearToken  string
	Expected   []lexer.TokenType
	Fix        string
	Confidence float64
}

func (e *ParseError) Error() string {
	if e.Pos != nil {
		return fmt.Sprintf("%s: %s at %s (near %q)", e.Code, e.Message, e.Pos, e.NearToken)
	}
	return fmt.Sprintf("%s: %s (near %q)", e.Code, e.Message, e.NearToken)
}

func (p *Parser) report(code, msg string) {
	pos := p.curPos()
	p.errors = append(p.errors, &ParseError{
		Code:       code,
		Message:    msg,
		Pos:        pos,
		NearToken:  p.curToken.Literal,
		Confidence: 1.0,
	})
}

func (p *Parser) reportExpected(want lexer.TokenType, context string) {
	msg := fmt.Sprintf("expected %s, got %s", want, p.curToken.Type)
	if context != "" {
		msg = fmt.Sprintf("%s (%s)", msg, context)
	}
	p.errors = append(p.errors, &ParseError{
		Code:       "FICT-PAR001",
		Message:    msg,
		Pos:        p.curPos(),
		NearToken:  p.curToken.Literal,
		Expected:   []lexer.TokenType{want},
		Confidence: 0.9,
	})
}

func (p *Parser) peekError(want lexer.TokenType) {
	msg := fmt.Sprintf("expected next token to be %s, got %s instead", want, p.peekToken.Type)
	p.errors = append(p.errors, &ParseError{
		Code:       "FICT-PAR002",
		Message:    msg,
		Pos:        p.curPos(),
		NearToken:  p.peekToken.Literal,
		Expected:   []lexer.TokenType{want},
		Confidence: 0.9,
	})
}

// expectPeek advances only if peekToken matches t, otherwise records a
// peekError and leaves the cursor in place.
func (p *Parser) expectPeek(t lexer.TokenType) bool {
	if p.peekIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}
