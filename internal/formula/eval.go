package formula

import (
	"math"

	"plancal/internal/calendar"
	perr "plancal/internal/errors"
)

// Eval evaluates e for the day described by c. Operators never coerce:
// arithmetic and ordering need numbers, & | ^ need booleans, = and != need
// operands of the same kind. Division and modulo are Euclidean.
func Eval(e Expr, c *calendar.DayContext) (Value, error) {
	switch e := e.(type) {
	case *NumberLit:
		return Number(e.Value), nil
	case *BoolLit:
		return Bool(e.Value), nil
	case *Variable:
		return e.Var.value(c), nil
	case *Negate:
		x, err := Eval(e.X, c)
		if err != nil {
			return Value{}, err
		}
		if x.kind != KindNumber {
			return Value{}, perr.Evalf(e.At, "cannot negate a %s, use '!'", x.kind)
		}
		if x.num == math.MinInt64 {
			return Value{}, perr.Evalf(e.At, "arithmetic overflow")
		}
		return Number(-x.num), nil
	case *Not:
		x, err := Eval(e.X, c)
		if err != nil {
			return Value{}, err
		}
		if x.kind != KindBool {
			return Value{}, perr.Evalf(e.At, "cannot apply '!' to a %s", x.kind)
		}
		return Bool(!x.b), nil
	case *Binary:
		l, err := Eval(e.L, c)
		if err != nil {
			return Value{}, err
		}
		r, err := Eval(e.R, c)
		if err != nil {
			return Value{}, err
		}
		return binary(e, l, r)
	}
	return Value{}, perr.Newf(perr.KindEvaluation, "unknown expression node %T", e)
}

func binary(e *Binary, l, r Value) (Value, error) {
	switch e.Op {
	case OpEq, OpNeq:
		if l.kind != r.kind {
			return Value{}, perr.Evalf(e.At, "cannot compare %s with %s", l.kind, r.kind)
		}
		eq := l == r
		return Bool(eq == (e.Op == OpEq)), nil

	case OpAnd, OpOr, OpXor:
		if l.kind != KindBool || r.kind != KindBool {
			return Value{}, perr.Evalf(e.At, "'%s' needs booleans, got %s and %s", e.Op, l.kind, r.kind)
		}
		switch e.Op {
		case OpAnd:
			return Bool(l.b && r.b), nil
		case OpOr:
			return Bool(l.b || r.b), nil
		default:
			return Bool(l.b != r.b), nil
		}
	}

	if l.kind != KindNumber || r.kind != KindNumber {
		return Value{}, perr.Evalf(e.At, "'%s' needs numbers, got %s and %s", e.Op, l.kind, r.kind)
	}
	a, b := l.num, r.num
	switch e.Op {
	case OpLt:
		return Bool(a < b), nil
	case OpLte:
		return Bool(a <= b), nil
	case OpGt:
		return Bool(a > b), nil
	case OpGte:
		return Bool(a >= b), nil
	case OpAdd:
		if b > 0 && a > math.MaxInt64-b || b < 0 && a < math.MinInt64-b {
			return Value{}, perr.Evalf(e.At, "arithmetic overflow")
		}
		return Number(a + b), nil
	case OpSub:
		if b < 0 && a > math.MaxInt64+b || b > 0 && a < math.MinInt64+b {
			return Value{}, perr.Evalf(e.At, "arithmetic overflow")
		}
		return Number(a - b), nil
	case OpMul:
		if a != 0 && ((a*b)/a != b || a == -1 && b == math.MinInt64 || b == -1 && a == math.MinInt64) {
			return Value{}, perr.Evalf(e.At, "arithmetic overflow")
		}
		return Number(a * b), nil
	case OpDiv:
		if b == 0 {
			return Value{}, perr.Evalf(e.At, "division by zero")
		}
		q, _ := divEuclid(a, b)
		return Number(q), nil
	case OpMod:
		if b == 0 {
			return Value{}, perr.Evalf(e.At, "modulo by zero")
		}
		_, m := divEuclid(a, b)
		return Number(m), nil
	}
	return Value{}, perr.Evalf(e.At, "unknown operator %s", e.Op)
}

// divEuclid returns q and r with a = q*b + r and 0 <= r < |b|.
func divEuclid(a, b int64) (q, r int64) {
	q, r = a/b, a%b
	if r < 0 {
		if b > 0 {
			q--
			r += b
		} else {
			q++
			r -= b
		}
	}
	return q, r
}

// Matches evaluates e for c and reports whether the day is selected.
func Matches(e Expr, c *calendar.DayContext) (bool, error) {
	v, err := Eval(e, c)
	if err != nil {
		return false, perr.WithDate(err, c.Date.String())
	}
	return v.Truthy(), nil
}
