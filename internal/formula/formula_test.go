package formula

import (
	"testing"
	"time"

	"plancal/internal/calendar"
	perr "plancal/internal/errors"
)

func ctx(y int, m time.Month, d int) *calendar.DayContext {
	c := calendar.NewDayContext(calendar.MustDate(y, m, d))
	return &c
}

func eval(t *testing.T, src string, c *calendar.DayContext) Value {
	t.Helper()
	e, err := Parse(src, perr.Pos{Line: 1, Column: 1})
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	v, err := Eval(e, c)
	if err != nil {
		t.Fatalf("Eval(%q): %v", src, err)
	}
	return v
}

func TestFlatLeftAssociative(t *testing.T) {
	c := ctx(2021, time.November, 6)
	cases := []struct {
		src  string
		want int64
	}{
		{"1+2*3", 9},
		{"2*3+1", 7},
		{"10-4-3", 3},
		{"2+3%2", 1},
		{"(1+2)*3", 9},
		{"1+(2*3)", 7},
		{"-2*3", -6},
		{"- 7 / 2", -4},
		{"-7 % 2", 1},
		{"7 % -2", 1},
		{"-7 / -2", 4},
		{"999999999 * 999999999", 999999998000000001},
	}
	for _, tc := range cases {
		v := eval(t, tc.src, c)
		if v.Kind() != KindNumber || v.Int() != tc.want {
			t.Errorf("%s = %s, want %d", tc.src, v, tc.want)
		}
	}
	e, err := Parse("1+2*3=9", perr.Pos{})
	if err != nil {
		t.Fatal(err)
	}
	if got := e.String(); got != "(((1 + 2) * 3) = 9)" {
		t.Fatalf("tree = %s", got)
	}
}

func TestBooleans(t *testing.T) {
	sat := ctx(2021, time.November, 6)
	cases := []struct {
		src  string
		want bool
	}{
		{"sat", true},
		{"mon", false},
		{"isWeekend & !isWeekday", true},
		{"wd = 6", true},
		{"m = 11 & d = 6", true},
		{"true ^ true", false},
		{"false | sat", true},
		{"d < 7", true},
		{"d >= 7", false},
		{"y != 2021", false},
		{"sat = true", true},
		{"isLeapYear", false},
	}
	for _, tc := range cases {
		v := eval(t, tc.src, sat)
		if v.Kind() != KindBool || v.Bool() != tc.want {
			t.Errorf("%s = %s, want %v", tc.src, v, tc.want)
		}
	}
}

func TestVariables(t *testing.T) {
	c := ctx(2020, time.December, 31)
	cases := map[string]int64{
		"j":   calendar.MustDate(2020, time.December, 31).DayNumber(),
		"y":   2020,
		"yl":  366,
		"yd":  366,
		"yD":  1,
		"yw":  53,
		"yW":  1,
		"m":   12,
		"ml":  31,
		"mw":  5,
		"mW":  1,
		"d":   31,
		"D":   1,
		"iy":  2020,
		"iyl": 53,
		"iw":  53,
		"wd":  4,
		"e":   int64(calendar.MustDate(2020, time.April, 12).YearDay()),
	}
	for src, want := range cases {
		if v := eval(t, src, c); v.Int() != want {
			t.Errorf("%s = %s, want %d", src, v, want)
		}
	}
	if !eval(t, "isIsoLeapYear & isLeapYear & thu", c).Bool() {
		t.Fatal("2020-12-31 is a thursday in an iso leap year")
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		src  string
		kind perr.Kind
		col  int
	}{
		{"foo = 1", perr.KindSemantic, 1},
		{"d = Mon", perr.KindSemantic, 5},
		{"1234567890", perr.KindSyntax, 1},
		{"1 +", perr.KindSyntax, 4},
		{"(1 + 2", perr.KindSyntax, 1},
		{"1 2", perr.KindSyntax, 3},
		{"1)", perr.KindSyntax, 2},
		{"", perr.KindSyntax, 1},
		{"d ! 2", perr.KindSyntax, 3},
	}
	for _, tc := range cases {
		_, err := Parse(tc.src, perr.Pos{Line: 3, Column: 1})
		e, ok := perr.As(err)
		if !ok {
			t.Fatalf("Parse(%q) err = %v", tc.src, err)
		}
		if e.Kind() != tc.kind || e.Pos().Line != 3 || e.Pos().Column != tc.col {
			t.Errorf("Parse(%q) = %v, want %s at column %d", tc.src, err, tc.kind, tc.col)
		}
	}
}

func TestEvalErrors(t *testing.T) {
	c := ctx(2021, time.November, 6)
	for _, src := range []string{
		"1 / (d - 6)",
		"1 % (d - 6)",
		"1 & true",
		"sat + 1",
		"-mon",
		"!1",
		"d = true",
		"mon < tue",
	} {
		e, err := Parse(src, perr.Pos{Line: 1, Column: 1})
		if err != nil {
			t.Fatalf("Parse(%q): %v", src, err)
		}
		if _, err := Matches(e, c); !perr.IsKind(err, perr.KindEvaluation) {
			t.Errorf("Matches(%q) err = %v, want evaluation error", src, err)
		} else if pe, _ := perr.As(err); pe.Date() != "2021-11-06" {
			t.Errorf("Matches(%q) date = %q", src, pe.Date())
		}
	}
}

func TestTruthy(t *testing.T) {
	if !Number(-3).Truthy() || Number(0).Truthy() || !Bool(true).Truthy() || Bool(false).Truthy() {
		t.Fatal("truthiness")
	}
}
