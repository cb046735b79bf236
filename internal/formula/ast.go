// Package formula parses and evaluates the small expression language used
// by "DATE (expr)" statements. Expressions are evaluated once per candidate
// day against a calendar.DayContext.
//
// All binary operators share one precedence level and associate to the
// left: 1+2*3 is (1+2)*3.
package formula

import (
	"fmt"
	"strconv"

	perr "plancal/internal/errors"
)

// Kind distinguishes numbers from booleans.
type Kind uint8

const (
	KindNumber Kind = iota + 1
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	}
	return "invalid"
}

// Value is the result of evaluating an expression.
type Value struct {
	kind Kind
	num  int64
	b    bool
}

func Number(n int64) Value { return Value{kind: KindNumber, num: n} }
func Bool(b bool) Value    { return Value{kind: KindBool, b: b} }

func (v Value) Kind() Kind { return v.kind }

// Int returns the numeric payload; it is 0 for booleans.
func (v Value) Int() int64 { return v.num }

// Bool returns the boolean payload; it is false for numbers.
func (v Value) Bool() bool { return v.b }

// Truthy decides whether a formula result selects a day: booleans as-is,
// numbers when non-zero.
func (v Value) Truthy() bool {
	if v.kind == KindBool {
		return v.b
	}
	return v.num != 0
}

func (v Value) String() string {
	if v.kind == KindBool {
		return strconv.FormatBool(v.b)
	}
	return strconv.FormatInt(v.num, 10)
}

// Op is a binary operator.
type Op uint8

const (
	OpAdd Op = iota + 1
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
	OpAnd
	OpOr
	OpXor
)

var opSymbols = [...]string{
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/", OpMod: "%",
	OpEq: "=", OpNeq: "!=", OpLt: "<", OpLte: "<=", OpGt: ">", OpGte: ">=",
	OpAnd: "&", OpOr: "|", OpXor: "^",
}

func (o Op) String() string {
	if int(o) < len(opSymbols) && opSymbols[o] != "" {
		return opSymbols[o]
	}
	return "?"
}

// Expr is a formula syntax tree node. The set of node types is closed.
type Expr interface {
	Pos() perr.Pos
	String() string
	node()
}

type (
	NumberLit struct {
		Value int64
		At    perr.Pos
	}
	BoolLit struct {
		Value bool
		At    perr.Pos
	}
	Variable struct {
		Var Var
		At  perr.Pos
	}
	// Negate is unary minus.
	Negate struct {
		X  Expr
		At perr.Pos
	}
	// Not is boolean negation.
	Not struct {
		X  Expr
		At perr.Pos
	}
	// Binary is L Op R; At is the operator position.
	Binary struct {
		Op   Op
		L, R Expr
		At   perr.Pos
	}
)

func (e *NumberLit) Pos() perr.Pos { return e.At }
func (e *BoolLit) Pos() perr.Pos   { return e.At }
func (e *Variable) Pos() perr.Pos  { return e.At }
func (e *Negate) Pos() perr.Pos    { return e.At }
func (e *Not) Pos() perr.Pos       { return e.At }
func (e *Binary) Pos() perr.Pos    { return e.At }

func (*NumberLit) node() {}
func (*BoolLit) node()   {}
func (*Variable) node()  {}
func (*Negate) node()    {}
func (*Not) node()       {}
func (*Binary) node()    {}

func (e *NumberLit) String() string { return strconv.FormatInt(e.Value, 10) }
func (e *BoolLit) String() string   { return strconv.FormatBool(e.Value) }
func (e *Variable) String() string  { return e.Var.String() }
func (e *Negate) String() string    { return "-" + e.X.String() }
func (e *Not) String() string       { return "!" + e.X.String() }

// String renders the tree fully parenthesized.
func (e *Binary) String() string {
	return fmt.Sprintf("(%s %s %s)", e.L, e.Op, e.R)
}
