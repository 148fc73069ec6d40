// Package contract parses the requires/ensures/constraint expressions attached
// to operations and data types. Expressions are checked for well-formedness
// and carried into generated documentation; they are never evaluated.
package contract

import (
	"fmt"
	"strings"
)

type Kind int

const (
	TokenEOF Kind = iota
	TokenIdent
	TokenNumber
	TokenString

	TokenAnd
	TokenOr
	TokenNot
	TokenIn
	TokenIs

	TokenLParen
	TokenRParen
	TokenLBracket
	TokenRBracket
	TokenLBrace
	TokenRBrace
	TokenComma
	TokenDot
	TokenColon

	TokenPlus
	TokenMinus
	TokenStar
	TokenSlash
	TokenPercent
	TokenEqEq
	TokenBangEq
	TokenLt
	TokenLtEq
	TokenGt
	TokenGtEq
)

type Token struct {
	Kind   Kind
	Lexeme string
	Pos    int
}

// SyntaxError reports malformed contract text.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("contract: %s at offset %d", e.Msg, e.Pos)
}

// Lex splits input into tokens. The last token is always TokenEOF.
func Lex(input string) ([]Token, error) {
	lx := &lexer{input: input}
	for {
		lx.skipSpace()
		start := lx.pos
		if lx.pos >= len(lx.input) {
			lx.emit(TokenEOF, "", start)
			return lx.tokens, nil
		}
		ch := lx.input[lx.pos]
		var err error
		switch {
		case isIdentStart(ch):
			lx.lexIdent()
		case isDigit(ch):
			lx.lexNumber()
		case ch == '"' || ch == '\'':
			err = lx.lexString(ch)
		default:
			err = lx.lexPunct()
		}
		if err != nil {
			return nil, err
		}
	}
}

type lexer struct {
	input  string
	pos    int
	tokens []Token
}

func (lx *lexer) emit(k Kind, lex string, start int) {
	lx.tokens = append(lx.tokens, Token{Kind: k, Lexeme: lex, Pos: start})
}

func (lx *lexer) skipSpace() {
	for lx.pos < len(lx.input) && strings.IndexByte(" \t\r\n", lx.input[lx.pos]) >= 0 {
		lx.pos++
	}
}

func (lx *lexer) lexIdent() {
	start := lx.pos
	for lx.pos < len(lx.input) && (isIdentStart(lx.input[lx.pos]) || isDigit(lx.input[lx.pos])) {
		lx.pos++
	}
	lex := lx.input[start:lx.pos]
	switch lex {
	case "and":
		lx.emit(TokenAnd, lex, start)
	case "or":
		lx.emit(TokenOr, lex, start)
	case "not":
		lx.emit(TokenNot, lex, start)
	case "in":
		lx.emit(TokenIn, lex, start)
	case "is":
		lx.emit(TokenIs, lex, start)
	default:
		lx.emit(TokenIdent, lex, start)
	}
}

func (lx *lexer) lexNumber() {
	start := lx.pos
	seenDot := false
	for lx.pos < len(lx.input) {
		ch := lx.input[lx.pos]
		if isDigit(ch) {
			lx.pos++
			continue
		}
		if ch == '.' && !seenDot && lx.pos+1 < len(lx.input) && isDigit(lx.input[lx.pos+1]) {
			seenDot = true
			lx.pos++
			continue
		}
		break
	}
	lx.emit(TokenNumber, lx.input[start:lx.pos], start)
}

func (lx *lexer) lexString(quote byte) error {
	start := lx.pos
	lx.pos++
	var b strings.Builder
	for lx.pos < len(lx.input) {
		ch := lx.input[lx.pos]
		switch ch {
		case quote:
			lx.pos++
			lx.emit(TokenString, b.String(), start)
			return nil
		case '\\':
			if lx.pos+1 >= len(lx.input) {
				return &SyntaxError{Pos: lx.pos, Msg: "unterminated escape"}
			}
			next := lx.input[lx.pos+1]
			switch next {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(next)
			}
			lx.pos += 2
		default:
			b.WriteByte(ch)
			lx.pos++
		}
	}
	return &SyntaxError{Pos: start, Msg: "unterminated string"}
}

var twoCharOps = map[string]Kind{
	"==": TokenEqEq,
	"!=": TokenBangEq,
	"<=": TokenLtEq,
	">=": TokenGtEq,
}

var oneCharOps = map[byte]Kind{
	'(': TokenLParen,
	')': TokenRParen,
	'[': TokenLBracket,
	']': TokenRBracket,
	'{': TokenLBrace,
	'}': TokenRBrace,
	',': TokenComma,
	'.': TokenDot,
	':': TokenColon,
	'+': TokenPlus,
	'-': TokenMinus,
	'*': TokenStar,
	'/': TokenSlash,
	'%': TokenPercent,
	'<': TokenLt,
	'>': TokenGt,
}

func (lx *lexer) lexPunct() error {
	start := lx.pos
	if lx.pos+1 < len(lx.input) {
		if k, ok := twoCharOps[lx.input[lx.pos:lx.pos+2]]; ok {
			lx.pos += 2
			lx.emit(k, lx.input[start:lx.pos], start)
			return nil
		}
	}
	if k, ok := oneCharOps[lx.input[lx.pos]]; ok {
		lx.pos++
		lx.emit(k, lx.input[start:lx.pos], start)
		return nil
	}
	return &SyntaxError{Pos: start, Msg: fmt.Sprintf("unexpected character %q", lx.input[start])}
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }
