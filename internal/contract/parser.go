package contract

import (
	"fmt"
	"strings"
)

// helpers lists the callable functions and their arity.
var helpers = map[string]int{
	"len":     1,
	"forall":  3,
	"exists":  3,
	"implies": 2,
}

// Parse parses a single contract expression.
func Parse(text string) (Node, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &SyntaxError{Pos: 0, Msg: "empty expression"}
	}
	toks, err := Lex(text)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	n := p.parseExpr(0)
	if p.err == nil && !p.at(TokenEOF) {
		p.errorHere("unexpected trailing input")
	}
	if p.err != nil {
		return nil, p.err
	}
	return n, nil
}

// Check reports whether text is a well-formed contract expression.
func Check(text string) error {
	_, err := Parse(text)
	return err
}

type parser struct {
	toks []Token
	pos  int
	err  *SyntaxError
}

const precNot = 3

func (p *parser) parseExpr(minPrec int) Node {
	left := p.parsePrefix()
	for p.err == nil {
		op, width, prec := p.peekInfix()
		if prec < minPrec || prec < 0 {
			break
		}
		p.pos += width
		right := p.parseExpr(prec + 1)
		left = &Binary{Op: op, Left: left, Right: right}
	}
	return left
}

// peekInfix returns the operator ahead, how many tokens it spans and its
// precedence, or -1 when no binary operator follows.
func (p *parser) peekInfix() (op string, width, prec int) {
	tok := p.peek()
	switch tok.Kind {
	case TokenOr:
		return "or", 1, 1
	case TokenAnd:
		return "and", 1, 2
	case TokenEqEq, TokenBangEq, TokenLt, TokenLtEq, TokenGt, TokenGtEq:
		return tok.Lexeme, 1, 4
	case TokenIn:
		return "in", 1, 4
	case TokenNot:
		if p.peekN(1).Kind == TokenIn {
			return "not in", 2, 4
		}
	case TokenIs:
		if p.peekN(1).Kind == TokenNot {
			return "is not", 2, 4
		}
		return "is", 1, 4
	case TokenPlus, TokenMinus:
		return tok.Lexeme, 1, 5
	case TokenStar, TokenSlash, TokenPercent:
		return tok.Lexeme, 1, 6
	}
	return "", 0, -1
}

func (p *parser) parsePrefix() Node {
	tok := p.peek()
	switch tok.Kind {
	case TokenNot:
		p.advance()
		return &Unary{Op: "not", X: p.parseExpr(precNot)}
	case TokenMinus:
		p.advance()
		return &Unary{Op: "-", X: p.parseExpr(7)}
	case TokenNumber:
		p.advance()
		return p.parsePostfix(&Number{Text: tok.Lexeme})
	case TokenString:
		p.advance()
		return p.parsePostfix(&Str{Value: tok.Lexeme})
	case TokenIdent:
		p.advance()
		switch tok.Lexeme {
		case "true", "True":
			return &Literal{Value: "true"}
		case "false", "False":
			return &Literal{Value: "false"}
		case "null", "None":
			return &Literal{Value: "null"}
		}
		if p.at(TokenLParen) {
			return p.parsePostfix(p.parseCall(tok))
		}
		return p.parsePostfix(&Name{Ident: tok.Lexeme})
	case TokenLParen:
		p.advance()
		return p.parsePostfix(p.parseParen())
	case TokenLBracket:
		p.advance()
		elems := p.parseList(TokenRBracket)
		return p.parsePostfix(&List{Elems: elems})
	case TokenLBrace:
		p.advance()
		return p.parsePostfix(p.parseDict())
	}
	p.errorHere("expected expression")
	return &Literal{Value: "null"}
}

func (p *parser) parseCall(fn Token) Node {
	arity, ok := helpers[fn.Lexeme]
	if !ok {
		p.fail(fn.Pos, fmt.Sprintf("unknown function %q", fn.Lexeme))
		return &Literal{Value: "null"}
	}
	p.advance()
	args := p.parseList(TokenRParen)
	if p.err != nil {
		return &Literal{Value: "null"}
	}
	if len(args) != arity {
		p.fail(fn.Pos, fmt.Sprintf("%s expects %d arguments, got %d", fn.Lexeme, arity, len(args)))
		return &Literal{Value: "null"}
	}
	if fn.Lexeme == "forall" || fn.Lexeme == "exists" {
		if _, ok := args[0].(*Name); !ok {
			p.fail(fn.Pos, fmt.Sprintf("%s expects a variable name as its first argument", fn.Lexeme))
		}
	}
	return &Call{Func: fn.Lexeme, Args: args}
}

// parseParen handles grouping and tuples after "(".
func (p *parser) parseParen() Node {
	if p.match(TokenRParen) {
		return &Tuple{}
	}
	first := p.parseExpr(0)
	if p.match(TokenRParen) {
		return first
	}
	elems := []Node{first}
	for p.err == nil && p.match(TokenComma) {
		if p.at(TokenRParen) {
			break
		}
		elems = append(elems, p.parseExpr(0))
	}
	p.expect(TokenRParen, "expected )")
	return &Tuple{Elems: elems}
}

// parseList reads comma separated expressions up to and including end.
func (p *parser) parseList(end Kind) []Node {
	var elems []Node
	for p.err == nil && !p.at(end) {
		elems = append(elems, p.parseExpr(0))
		if !p.match(TokenComma) {
			break
		}
	}
	p.expect(end, "expected closing bracket")
	return elems
}

func (p *parser) parseDict() Node {
	d := &Dict{}
	for p.err == nil && !p.at(TokenRBrace) {
		d.Keys = append(d.Keys, p.parseExpr(0))
		p.expect(TokenColon, "expected : in dictionary")
		d.Values = append(d.Values, p.parseExpr(0))
		if !p.match(TokenComma) {
			break
		}
	}
	p.expect(TokenRBrace, "expected }")
	return d
}

func (p *parser) parsePostfix(n Node) Node {
	for p.err == nil {
		switch {
		case p.match(TokenDot):
			id := p.expect(TokenIdent, "expected attribute name after .")
			n = &Attr{X: n, Name: id.Lexeme}
		case p.match(TokenLBracket):
			key := p.parseExpr(0)
			p.expect(TokenRBracket, "expected ]")
			n = &Index{X: n, Key: key}
		default:
			return n
		}
	}
	return n
}

func (p *parser) peek() Token {
	if p.pos >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos]
}

func (p *parser) peekN(n int) Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *parser) at(k Kind) bool { return p.peek().Kind == k }

func (p *parser) match(k Kind) bool {
	if p.at(k) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) advance() Token {
	t := p.peek()
	if t.Kind != TokenEOF {
		p.pos++
	}
	return t
}

func (p *parser) expect(k Kind, msg string) Token {
	if p.at(k) {
		return p.advance()
	}
	p.errorHere(msg)
	return p.peek()
}

func (p *parser) errorHere(msg string) { p.fail(p.peek().Pos, msg) }

func (p *parser) fail(pos int, msg string) {
	if p.err == nil {
		p.err = &SyntaxError{Pos: pos, Msg: msg}
	}
}
