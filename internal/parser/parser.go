// Package parser turns Fict source (JS/TS + JSX, extended with the
// $state/$effect/$memo macros) into an internal/ast tree. It is a
// hand-written recursive-descent/Pratt parser; grammar coverage is
// deliberately scoped to what the core pipeline needs — it only has to
// deliver some concrete AST to internal/hir, not cover every TypeScript
// construct.
package parser

import (
	"fmt"

	"github.com/sunholo/fict/internal/ast"
	"github.com/sunholo/fict/internal/lexer"
)

// Precedence levels, lowest to highest, matching JS operator precedence.
const (
	LOWEST int = iota
	COMMA_PREC
	ASSIGN_PREC
	COND_PREC   // ?:
	NULLISH     // ??
	LOGICAL_OR  // ||
	LOGICAL_AND // &&
	BIT_OR      // |
	BIT_XOR     // ^
	BIT_AND     // &
	EQUALITY    // == != === !==
	RELATIONAL  // < > <= >= instanceof in
	SHIFT       // << >> >>>
	ADDITIVE    // + -
	MULT        // * / %
	EXPONENT    // **
	UNARY       // ! ~ + - typeof void delete await
	POSTFIX     // ++ --
	CALL_PREC   // f(x) a.b a[b] a?.b new
)

var precedences = map[lexer.TokenType]int{
	lexer.COMMA:        COMMA_PREC,
	lexer.ASSIGN:       ASSIGN_PREC,
	lexer.PLUSEQ:       ASSIGN_PREC,
	lexer.MINUSEQ:      ASSIGN_PREC,
	lexer.STAREQ:       ASSIGN_PREC,
	lexer.SLASHEQ:      ASSIGN_PREC,
	lexer.PERCENTEQ:    ASSIGN_PREC,
	lexer.STARSTAREQ:   ASSIGN_PREC,
	lexer.AMPAMPEQ:     ASSIGN_PREC,
	lexer.PIPEPIPEEQ:   ASSIGN_PREC,
	lexer.QUESTQUESTEQ: ASSIGN_PREC,
	lexer.AMPEQ:        ASSIGN_PREC,
	lexer.PIPEEQ:       ASSIGN_PREC,
	lexer.CARETEQ:      ASSIGN_PREC,
	lexer.SHLEQ:        ASSIGN_PREC,
	lexer.SHREQ:        ASSIGN_PREC,
	lexer.USHREQ:       ASSIGN_PREC,
	lexer.QUESTION:     COND_PREC,
	lexer.QUESTQUEST:   NULLISH,
	lexer.PIPEPIPE:     LOGICAL_OR,
	lexer.AMPAMP:       LOGICAL_AND,
	lexer.PIPE:         BIT_OR,
	lexer.CARET:        BIT_XOR,
	lexer.AMP:          BIT_AND,
	lexer.EQ:           EQUALITY,
	lexer.NEQ:          EQUALITY,
	lexer.EQQ:          EQUALITY,
	lexer.NEQQ:         EQUALITY,
	lexer.LT:           RELATIONAL,
	lexer.GT:           RELATIONAL,
	lexer.LTE:          RELATIONAL,
	lexer.GTE:          RELATIONAL,
	lexer.INSTANCEOF:   RELATIONAL,
	lexer.IN:           RELATIONAL,
	lexer.SHL:          SHIFT,
	lexer.SHR:          SHIFT,
	lexer.USHR:         SHIFT,
	lexer.PLUS:         ADDITIVE,
	lexer.MINUS:        ADDITIVE,
	lexer.STAR:         MULT,
	lexer.SLASH:        MULT,
	lexer.PERCENT:      MULT,
	lexer.STARSTAR:     EXPONENT,
	lexer.PLUSPLUS:     POSTFIX,
	lexer.MINUSMINUS:   POSTFIX,
	lexer.LPAREN:       CALL_PREC,
	lexer.DOT:          CALL_PREC,
	lexer.QUESTDOT:     CALL_PREC,
	lexer.LBRACKET:     CALL_PREC,
	lexer.TS_AS:        RELATIONAL,
	lexer.AS:           RELATIONAL, // the lexer returns AS for the `as` keyword
	lexer.TS_SATISFIES: RELATIONAL,
	lexer.NOT:          CALL_PREC, // postfix non-null `!`; prefix `!` never reaches peekPrecedence
}

type (
	prefixParseFn func() ast.Expr
	infixParseFn  func(ast.Expr) ast.Expr
)

// Parser holds parse state over a token stream.
type Parser struct {
	l         *lexer.Lexer
	curToken  lexer.Token
	peekToken lexer.Token
	file      string
	errors    []error

	prefixParseFns map[lexer.TokenType]prefixParseFn
	infixParseFns  map[lexer.TokenType]infixParseFn

	// macroImportSources is never set or read; New leaves it nil.
	macroImportSources map[string]bool
}

// New creates a Parser over l.
func New(l *lexer.Lexer, file string) *Parser {
	p := &Parser{l: l, file: file, errors: []error{}}

	p.prefixParseFns = make(map[lexer.TokenType]prefixParseFn)
	p.registerPrefix(lexer.IDENT, p.parseIdentifierExpr)
	p.registerPrefix(lexer.NUMBER, p.parseNumberLiteral)
	p.registerPrefix(lexer.BIGINT, p.parseBigIntLiteral)
	p.registerPrefix(lexer.STRING, p.parseStringLiteral)
	p.registerPrefix(lexer.REGEX, p.parseRegexLiteral)
	p.registerPrefix(lexer.TEMPLATE_STRING, p.parseTemplateLiteral)
	p.registerPrefix(lexer.TRUE, p.parseBoolLiteral)
	p.registerPrefix(lexer.FALSE, p.parseBoolLiteral)
	p.registerPrefix(lexer.NULL, p.parseNullLiteral)
	p.registerPrefix(lexer.UNDEFINED, p.parseUndefinedLiteral)
	p.registerPrefix(lexer.THIS, p.parseThisExpr)
	p.registerPrefix(lexer.LPAREN, p.parseParenOrArrow)
	p.registerPrefix(lexer.LBRACKET, p.parseArrayLiteral)
	p.registerPrefix(lexer.LBRACE, p.parseObjectLiteral)
	p.registerPrefix(lexer.MINUS, p.parseUnaryExpr)
	p.registerPrefix(lexer.PLUS, p.parseUnaryExpr)
	p.registerPrefix(lexer.NOT, p.parseUnaryExpr)
	p.registerPrefix(lexer.TILDE, p.parseUnaryExpr)
	p.registerPrefix(lexer.TYPEOF, p.parseUnaryExpr)
	p.registerPrefix(lexer.VOID, p.parseUnaryExpr)
	p.registerPrefix(lexer.DELETE, p.parseUnaryExpr)
	p.registerPrefix(lexer.AWAIT, p.parseAwaitExpr)
	p.registerPrefix(lexer.PLUSPLUS, p.parseUpdatePrefix)
	p.registerPrefix(lexer.MINUSMINUS, p.parseUpdatePrefix)
	p.registerPrefix(lexer.NEW, p.parseNewExpr)
	p.registerPrefix(lexer.FUNCTION, p.parseFunctionExpr)
	p.registerPrefix(lexer.ASYNC, p.parseAsyncPrefixed)
	p.registerPrefix(lexer.IMPORT, p.parseImportExprOrMeta)
	p.registerPrefix(lexer.LT, p.parseJSXPrimary)

	p.infixParseFns = make(map[lexer.TokenType]infixParseFn)
	for _, tt := range []lexer.TokenType{
		lexer.PLUS, lexer.MINUS, lexer.STAR, lexer.SLASH, lexer.PERCENT, lexer.STARSTAR,
		lexer.EQ, lexer.NEQ, lexer.EQQ, lexer.NEQQ,
		lexer.LT, lexer.GT, lexer.LTE, lexer.GTE, lexer.INSTANCEOF, lexer.IN,
		lexer.SHL, lexer.SHR, lexer.USHR,
		lexer.AMP, lexer.PIPE, lexer.CARET,
	} {
		p.registerInfix(tt, p.parseBinaryExpr)
	}
	p.registerInfix(lexer.AMPAMP, p.parseLogicalExpr)
	p.registerInfix(lexer.PIPEPIPE, p.parseLogicalExpr)
	p.registerInfix(lexer.QUESTQUEST, p.parseLogicalExpr)
	p.registerInfix(lexer.QUESTION, p.parseConditionalExpr)
	p.registerInfix(lexer.LPAREN, p.parseCallExpr)
	p.registerInfix(lexer.DOT, p.parseMemberExpr)
	p.registerInfix(lexer.QUESTDOT, p.parseOptionalMemberExpr)
	p.registerInfix(lexer.LBRACKET, p.parseComputedMemberExpr)
	p.registerInfix(lexer.PLUSPLUS, p.parseUpdatePostfix)
	p.registerInfix(lexer.MINUSMINUS, p.parseUpdatePostfix)
	for _, tt := range []lexer.TokenType{
		lexer.ASSIGN, lexer.PLUSEQ, lexer.MINUSEQ, lexer.STAREQ, lexer.SLASHEQ,
		lexer.PERCENTEQ, lexer.STARSTAREQ, lexer.AMPAMPEQ, lexer.PIPEPIPEEQ,
		lexer.QUESTQUESTEQ, lexer.AMPEQ, lexer.PIPEEQ, lexer.CARETEQ,
		lexer.SHLEQ, lexer.SHREQ, lexer.USHREQ,
	} {
		p.registerInfix(tt, p.parseAssignmentExpr)
	}
	p.registerInfix(lexer.TS_AS, p.parseAsExpr)
	p.registerInfix(lexer.AS, p.parseAsExpr)
	p.registerInfix(lexer.TS_SATISFIES, p.parseSatisfiesExpr)
	p.registerInfix(lexer.NOT, p.parseNonNullExpr)

	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) registerPrefix(t lexer.TokenType, fn prefixParseFn) { p.prefixParseFns[t] = fn }
func (p *Parser) registerInfix(t lexer.TokenType, fn infixParseFn)   { p.infixParseFns[t] = fn }

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) curIs(t lexer.TokenType) bool  { return p.curToken.Type == t }
func (p *Parser) peekIs(t lexer.TokenType) bool { return p.peekToken.Type == t }

func (p *Parser) curPos() ast.Pos {
	return ast.Pos{Line: p.curToken.Line, Column: p.curToken.Column, File: p.file, Offset: p.curToken.Offset}
}

func (p *Parser) expect(t lexer.TokenType) bool {
	if p.curIs(t) {
		p.nextToken()
		return true
	}
	p.reportExpected(t, "")
	return false
}

func (p *Parser) peekPrecedence() int {
	if pr, ok := precedences[p.peekToken.Type]; ok {
		return pr
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if pr, ok := precedences[p.curToken.Type]; ok {
		return pr
	}
	return LOWEST
}

// skipSemicolon consumes an optional trailing `;` (ASI-lite: we don't try to
// reconstruct full automatic-semicolon-insertion line-break rules).
func (p *Parser) skipSemicolon() {
	if p.curIs(lexer.SEMICOLON) {
		p.nextToken()
	}
}

// ParseFile parses a complete source file into an *ast.File.
func (p *Parser) ParseFile() *ast.File {
	file := &ast.File{Path: p.file, Pos: ast.Pos{File: p.file, Line: 1, Column: 1}}
	for !p.curIs(lexer.EOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			file.Body = append(file.Body, stmt)
		} else {
			p.nextToken()
		}
	}
	return file
}

// Errors returns accumulated parse errors.
func (p *Parser) Errors() []error { return p.errors }

func (p *Parser) noPrefixParseFnError(t lexer.TokenType) {
	p.errors = append(p.errors, fmt.Errorf("PAR001: unexpected token %s at %s", t, p.curPos()))
}
