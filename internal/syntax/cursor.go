package syntax

import (
	"strings"

	"plancal/internal/calendar"
	"plancal/internal/delta"
	perr "plancal/internal/errors"
	"plancal/internal/formula"
)

// cursor scans a single source line. col is the 1-based column of src[0].
type cursor struct {
	src  string
	off  int
	line int
	col  int
}

func newCursor(src string, line, col int) *cursor {
	return &cursor{src: src, line: line, col: col}
}

func (c *cursor) eof() bool  { return c.off >= len(c.src) }
func (c *cursor) peek() byte { return c.at(0) }

func (c *cursor) at(i int) byte {
	if c.off+i >= len(c.src) {
		return 0
	}
	return c.src[c.off+i]
}

func (c *cursor) pos() perr.Pos { return c.posAt(c.off) }

func (c *cursor) posAt(off int) perr.Pos {
	return perr.Pos{Line: c.line, Column: c.col + off}
}

func (c *cursor) rest() string { return c.src[c.off:] }

func (c *cursor) skipSpace() bool {
	start := c.off
	for !c.eof() && isSpace(c.peek()) {
		c.off++
	}
	return c.off > start
}

func (c *cursor) errorf(format string, a ...any) error {
	return perr.Syntaxf(c.pos(), format, a...)
}

// describe returns a short excerpt of the input at the cursor for messages.
func (c *cursor) describe() string {
	if c.eof() {
		return "end of line"
	}
	word := c.rest()
	if i := strings.IndexAny(word, " \t"); i >= 0 {
		word = word[:i]
	}
	return "'" + word + "'"
}

// expectEnd fails unless only whitespace remains.
func (c *cursor) expectEnd() error {
	c.skipSpace()
	if !c.eof() {
		return c.errorf("unexpected %s", c.describe())
	}
	return nil
}

// keyword consumes word when it is followed by whitespace or the end of
// the line.
func (c *cursor) keyword(word string) bool {
	if !strings.HasPrefix(c.rest(), word) {
		return false
	}
	next := c.at(len(word))
	if next != 0 && !isSpace(next) {
		return false
	}
	c.off += len(word)
	return true
}

func (c *cursor) literal(s string) bool {
	if strings.HasPrefix(c.rest(), s) {
		c.off += len(s)
		return true
	}
	return false
}

// separator reports whether "--" follows.
func (c *cursor) atSeparator() bool { return c.peek() == '-' && c.at(1) == '-' }

func (c *cursor) atDate() bool {
	return isDigit(c.at(0)) && isDigit(c.at(1)) && isDigit(c.at(2)) && isDigit(c.at(3)) && c.at(4) == '-'
}

func (c *cursor) atTime() bool {
	return isDigit(c.at(0)) && isDigit(c.at(1)) && c.at(2) == ':'
}

// atDelta reports whether a signed delta step starts here.
func (c *cursor) atDelta() bool {
	return (c.peek() == '+' || c.peek() == '-') && !c.atSeparator()
}

func (c *cursor) atWeekday() bool {
	_, n := c.weekdayName()
	return n > 0 && !isLetter(c.at(n))
}

func (c *cursor) weekdayName() (calendar.Weekday, int) {
	if c.off+3 > len(c.src) {
		return 0, 0
	}
	wd, ok := calendar.ParseWeekday(c.src[c.off : c.off+3])
	if !ok {
		return 0, 0
	}
	return wd, 3
}

func (c *cursor) fixed(n int) (string, bool) {
	if c.off+n > len(c.src) {
		return "", false
	}
	return c.src[c.off : c.off+n], true
}

// date parses YYYY-MM-DD.
func (c *cursor) date() (calendar.Date, error) {
	start := c.pos()
	s, ok := c.fixed(10)
	if !ok || !c.atDate() {
		return calendar.Date{}, c.errorf("expected date YYYY-MM-DD, found %s", c.describe())
	}
	d, err := calendar.ParseDate(s)
	if err != nil {
		if isDateShape(s) {
			return calendar.Date{}, perr.Semanticf(start, "invalid date %s", s)
		}
		return calendar.Date{}, perr.Syntaxf(start, "expected date YYYY-MM-DD, found %s", c.describe())
	}
	c.off += 10
	if isDigit(c.peek()) {
		return calendar.Date{}, c.errorf("expected date YYYY-MM-DD, found trailing digits")
	}
	return d, nil
}

func isDateShape(s string) bool {
	for i := 0; i < len(s); i++ {
		if i == 4 || i == 7 {
			if s[i] != '-' {
				return false
			}
		} else if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

// time parses HH:MM. 24:00 is only accepted when allowEnd is set.
func (c *cursor) time(allowEnd bool) (calendar.Time, error) {
	start := c.pos()
	s, ok := c.fixed(5)
	if !ok || !c.atTime() {
		return calendar.Time{}, c.errorf("expected time HH:MM, found %s", c.describe())
	}
	t, err := calendar.ParseTime(s)
	if err != nil {
		return calendar.Time{}, perr.Syntaxf(start, "invalid time %s", s)
	}
	if t.IsEndOfDay() && !allowEnd {
		return calendar.Time{}, perr.Syntaxf(start, "24:00 is only valid as an end time")
	}
	c.off += 5
	if isDigit(c.peek()) {
		return calendar.Time{}, c.errorf("expected time HH:MM, found trailing digits")
	}
	return t, nil
}

// number parses at most formula.MaxDigits decimal digits.
func (c *cursor) number() (int64, error) {
	start := c.off
	var n int64
	for !c.eof() && isDigit(c.peek()) {
		if c.off-start == formula.MaxDigits {
			return 0, perr.Syntaxf(c.posAt(start), "number has more than %d digits", formula.MaxDigits)
		}
		n = n*10 + int64(c.peek()-'0')
		c.off++
	}
	if c.off == start {
		return 0, c.errorf("expected number")
	}
	return n, nil
}

// delta parses a compound delta such as "+1m-2d" or "+2d3h". The first step
// needs a sign, later steps without one inherit the previous sign, and an
// omitted amount means 1.
func (c *cursor) delta() (delta.Delta, error) {
	if !c.atDelta() {
		return delta.Delta{}, c.errorf("expected delta, found %s", c.describe())
	}
	var (
		d    delta.Delta
		sign int64
	)
	for !c.eof() && !isSpace(c.peek()) && !c.atSeparator() && c.peek() != ';' {
		stepStart := c.pos()
		switch c.peek() {
		case '+':
			sign = 1
			c.off++
		case '-':
			sign = -1
			c.off++
		default:
			if sign == 0 {
				return delta.Delta{}, c.errorf("delta step needs a sign")
			}
		}
		amount := int64(1)
		if isDigit(c.peek()) {
			n, err := c.number()
			if err != nil {
				return delta.Delta{}, err
			}
			amount = n
		}
		step := delta.Step{Amount: sign * amount, Pos: stepStart}
		if wd, n := c.weekdayName(); n > 0 {
			step.Unit, step.Weekday = delta.Weekday, wd
			c.off += n
		} else if c.literal("min") {
			step.Unit = delta.Minute
		} else {
			switch c.peek() {
			case 'y':
				step.Unit = delta.Year
			case 'm':
				step.Unit = delta.Month
			case 'M':
				step.Unit = delta.MonthReverse
			case 'd':
				step.Unit = delta.Day
			case 'w':
				step.Unit = delta.Week
			case 'h':
				step.Unit = delta.Hour
			default:
				return delta.Delta{}, c.errorf("expected delta unit (y, m, M, d, w, h, min or a weekday), found %s", c.describe())
			}
			c.off++
		}
		d.Steps = append(d.Steps, step)
	}
	return d, nil
}

// formula parses "(expr)" and returns the expression.
func (c *cursor) formula() (formula.Expr, error) {
	open := c.off
	if c.peek() != '(' {
		return nil, c.errorf("expected '(', found %s", c.describe())
	}
	depth := 0
	for i := c.off; i < len(c.src); i++ {
		switch c.src[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				inner := c.src[open+1 : i]
				e, err := formula.Parse(inner, c.posAt(open+1))
				if err != nil {
					return nil, err
				}
				c.off = i + 1
				return e, nil
			}
		}
	}
	return nil, perr.Syntaxf(c.posAt(open), "unclosed '('")
}

func isSpace(b byte) bool  { return b == ' ' || b == '\t' }
func isDigit(b byte) bool  { return b >= '0' && b <= '9' }
func isLetter(b byte) bool { return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' }
