package formula

import (
	perr "plancal/internal/errors"
)

// MaxDigits bounds numeric literals so they fit a 32-bit signed integer.
const MaxDigits = 9

// Parse parses a complete expression. base is the source position of
// src[0] and is used for error and node positions.
//
// Unknown variable names are rejected here as semantic errors, so a parsed
// Expr can only fail at evaluation time on types or division by zero.
func Parse(src string, base perr.Pos) (Expr, error) {
	p := &parser{src: src, base: base}
	p.skipSpace()
	if p.eof() {
		return nil, perr.Syntaxf(p.pos(), "empty formula")
	}
	e, err := p.expr()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if !p.eof() {
		if p.peek() == ')' {
			return nil, perr.Syntaxf(p.pos(), "unbalanced ')'")
		}
		return nil, perr.Syntaxf(p.pos(), "expected operator, found %q", p.peek())
	}
	return e, nil
}

type parser struct {
	src  string
	off  int
	base perr.Pos
}

func (p *parser) eof() bool     { return p.off >= len(p.src) }
func (p *parser) peek() byte    { return p.src[p.off] }
func (p *parser) pos() perr.Pos { return p.posAt(p.off) }

func (p *parser) posAt(off int) perr.Pos { return p.base.Shift(off) }

func (p *parser) skipSpace() {
	for !p.eof() && (p.peek() == ' ' || p.peek() == '\t') {
		p.off++
	}
}

// expr = unary { op unary }
func (p *parser) expr() (Expr, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		p.skipSpace()
		at := p.off
		op, ok := p.op()
		if !ok {
			return left, nil
		}
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op, L: left, R: right, At: p.posAt(at)}
	}
}

func (p *parser) op() (Op, bool) {
	if p.eof() {
		return 0, false
	}
	next := byte(0)
	if p.off+1 < len(p.src) {
		next = p.src[p.off+1]
	}
	var op Op
	width := 1
	switch p.peek() {
	case '+':
		op = OpAdd
	case '-':
		op = OpSub
	case '*':
		op = OpMul
	case '/':
		op = OpDiv
	case '%':
		op = OpMod
	case '=':
		op = OpEq
	case '&':
		op = OpAnd
	case '|':
		op = OpOr
	case '^':
		op = OpXor
	case '!':
		if next != '=' {
			return 0, false
		}
		op, width = OpNeq, 2
	case '<':
		op = OpLt
		if next == '=' {
			op, width = OpLte, 2
		}
	case '>':
		op = OpGt
		if next == '=' {
			op, width = OpGte, 2
		}
	default:
		return 0, false
	}
	p.off += width
	return op, true
}

// unary = "-" unary | "!" unary | atom
func (p *parser) unary() (Expr, error) {
	p.skipSpace()
	if p.eof() {
		return nil, perr.Syntaxf(p.pos(), "unexpected end of formula")
	}
	at := p.pos()
	switch p.peek() {
	case '-':
		p.off++
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &Negate{X: x, At: at}, nil
	case '!':
		p.off++
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &Not{X: x, At: at}, nil
	}
	return p.atom()
}

func (p *parser) atom() (Expr, error) {
	c := p.peek()
	switch {
	case c == '(':
		open := p.pos()
		p.off++
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.eof() || p.peek() != ')' {
			return nil, perr.Syntaxf(open, "unclosed '('")
		}
		p.off++
		return e, nil
	case isDigit(c):
		return p.number()
	case isLetter(c):
		return p.name()
	}
	return nil, perr.Syntaxf(p.pos(), "unexpected %q in formula", c)
}

func (p *parser) number() (Expr, error) {
	start := p.off
	var n int64
	for !p.eof() && isDigit(p.peek()) {
		n = n*10 + int64(p.peek()-'0')
		p.off++
		if p.off-start > MaxDigits {
			return nil, perr.Syntaxf(p.posAt(start), "number has more than %d digits", MaxDigits)
		}
	}
	return &NumberLit{Value: n, At: p.posAt(start)}, nil
}

func (p *parser) name() (Expr, error) {
	start := p.off
	for !p.eof() && isLetter(p.peek()) {
		p.off++
	}
	name := p.src[start:p.off]
	at := p.posAt(start)
	switch name {
	case "true":
		return &BoolLit{Value: true, At: at}, nil
	case "false":
		return &BoolLit{Value: false, At: at}, nil
	}
	v, ok := LookupVar(name)
	if !ok {
		return nil, perr.Semanticf(at, "unknown variable %q", name)
	}
	return &Variable{Var: v, At: at}, nil
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' }
