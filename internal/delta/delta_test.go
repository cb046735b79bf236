package delta

import (
	"testing"
	"time"

	"plancal/internal/calendar"
	perr "plancal/internal/errors"
)

func date(y int, m time.Month, d int) calendar.Date { return calendar.MustDate(y, m, d) }

func at(y int, m time.Month, d, hh, mm int) calendar.Moment {
	return calendar.AtTime(date(y, m, d), calendar.MustTime(hh, mm))
}

func step(u Unit, n int64) Step { return Step{Unit: u, Amount: n} }

func wd(w calendar.Weekday, n int64) Step { return Step{Unit: Weekday, Weekday: w, Amount: n} }

func TestApplyThenNegateIsIdentity(t *testing.T) {
	cases := []struct {
		name string
		base calendar.Moment
		d    Delta
	}{
		{"days", calendar.At(date(2021, time.November, 6)), Of(step(Day, 3))},
		{"weeks back", calendar.At(date(2021, time.November, 6)), Of(step(Week, -5))},
		{"mixed", calendar.At(date(2021, time.March, 15)), Of(step(Year, 1), step(Month, 2), step(Day, -3), step(Week, 1))},
		{"month over year end", calendar.At(date(2021, time.November, 15)), Of(step(Month, 3))},
		{"time carry", at(2021, time.November, 6, 10, 0), Of(step(Hour, 5), step(Minute, -30), step(Day, 2))},
		{"onto midnight", at(2021, time.November, 6, 23, 0), Of(step(Hour, 1))},
		{"across days", at(2021, time.November, 6, 22, 15), Of(step(Minute, 200))},
		{"whole day hours", calendar.At(date(2024, time.February, 28)), Of(step(Hour, 48))},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			there, err := c.d.Apply(c.base)
			if err != nil {
				t.Fatalf("apply %s: %v", c.d, err)
			}
			back, err := c.d.Negate().Apply(there)
			if err != nil {
				t.Fatalf("apply %s: %v", c.d.Negate(), err)
			}
			if !back.Equal(c.base) {
				t.Fatalf("%s %s %s = %s, want %s", c.base, c.d, c.d.Negate(), back, c.base)
			}
		})
	}
}

func TestWholeDay(t *testing.T) {
	cases := []struct {
		d    Delta
		want bool
	}{
		{Of(step(Day, 1)), true},
		{Of(step(Day, 1), step(Hour, 12), step(Hour, 12)), true},
		{Of(step(Hour, 1)), false},
		{Of(step(Hour, 23), step(Minute, 60)), true},
		{Of(step(Minute, -1440)), true},
		{Of(Step{Unit: Clock, Clock: calendar.MustTime(10, 0)}), false},
		{Delta{}, true},
	}
	for _, c := range cases {
		if got := c.d.IsWholeDay(); got != c.want {
			t.Errorf("%s IsWholeDay = %v, want %v", c.d, got, c.want)
		}
	}
}

func TestApplyWholeDayCarry(t *testing.T) {
	got, err := Of(step(Hour, 23), step(Hour, 1)).Apply(calendar.At(date(2021, time.November, 6)))
	if err != nil {
		t.Fatal(err)
	}
	if got.Timed() || got.Date != date(2021, time.November, 7) {
		t.Fatalf("got %s", got)
	}
	_, err = Of(step(Hour, 1)).Apply(calendar.At(date(2021, time.November, 6)))
	if !perr.IsKind(err, perr.KindSemantic) {
		t.Fatalf("fractional carry err = %v", err)
	}
}

func TestWeekdaySteps(t *testing.T) {
	sat := date(2021, time.November, 6)
	cases := []struct {
		s    Step
		want calendar.Date
	}{
		{wd(calendar.Monday, 1), date(2021, time.November, 8)},
		{wd(calendar.Monday, 2), date(2021, time.November, 15)},
		{wd(calendar.Monday, -1), date(2021, time.November, 1)},
		{wd(calendar.Saturday, 1), sat},
		{wd(calendar.Saturday, -1), sat},
		{wd(calendar.Saturday, -2), date(2021, time.October, 30)},
		{wd(calendar.Monday, 0), date(2021, time.November, 1)},
		{wd(calendar.Sunday, 0), date(2021, time.November, 7)},
	}
	for _, c := range cases {
		got, err := Of(c.s).ApplyDate(sat)
		if err != nil {
			t.Fatal(err)
		}
		if got != c.want {
			t.Errorf("%s %s = %s, want %s", sat, c.s, got, c.want)
		}
	}
}

func TestMonthSteps(t *testing.T) {
	if _, err := Of(step(Month, 1)).ApplyDate(date(2021, time.January, 31)); !perr.IsKind(err, perr.KindSemantic) {
		t.Fatalf("2021-01-31 +m err = %v", err)
	}
	if _, err := Of(step(Year, 1)).ApplyDate(date(2024, time.February, 29)); err == nil {
		t.Fatal("2024-02-29 +y must fail")
	}
	got, err := Of(step(MonthReverse, 1)).ApplyDate(date(2021, time.January, 31))
	if err != nil || got != date(2021, time.February, 28) {
		t.Fatalf("+M from month end = %s, %v", got, err)
	}
	got, err = Of(step(MonthReverse, 1)).ApplyDate(date(2021, time.January, 30))
	if err != nil || got != date(2021, time.February, 27) {
		t.Fatalf("+M one before month end = %s, %v", got, err)
	}
	got, err = Of(step(Month, -2)).ApplyDate(date(2021, time.January, 15))
	if err != nil || got != date(2020, time.November, 15) {
		t.Fatalf("-2m = %s, %v", got, err)
	}
}

func TestClockStep(t *testing.T) {
	ten := at(2021, time.November, 6, 10, 0)
	got, err := Of(Step{Unit: Clock, Clock: calendar.MustTime(12, 0)}).Apply(ten)
	if err != nil || !got.Equal(at(2021, time.November, 6, 12, 0)) {
		t.Fatalf("later clock = %s, %v", got, err)
	}
	got, err = Of(Step{Unit: Clock, Clock: calendar.MustTime(9, 0)}).Apply(ten)
	if err != nil || !got.Equal(at(2021, time.November, 7, 9, 0)) {
		t.Fatalf("earlier clock = %s, %v", got, err)
	}
	if _, err := Of(Step{Unit: Clock, Clock: calendar.MustTime(9, 0)}).Apply(calendar.At(ten.Date)); err == nil {
		t.Fatal("clock step on a whole day must fail")
	}
}

func TestSetClockStep(t *testing.T) {
	ten := at(2021, time.November, 6, 10, 0)
	end := Of(step(Day, 1), Step{Unit: SetClock, Clock: calendar.MustTime(9, 0)})
	got, err := end.Apply(ten)
	if err != nil || !got.Equal(at(2021, time.November, 7, 9, 0)) {
		t.Fatalf("+1d @09:00 = %s, %v", got, err)
	}
	// No roll forward, even when the time lies before the current one.
	got, err = Of(Step{Unit: SetClock, Clock: calendar.MustTime(9, 0)}).Apply(ten)
	if err != nil || !got.Equal(at(2021, time.November, 6, 9, 0)) {
		t.Fatalf("@09:00 = %s, %v", got, err)
	}
	if end.IsWholeDay() {
		t.Fatal("a delta that sets the clock is not whole-day")
	}
	if _, err := end.Apply(calendar.At(ten.Date)); err == nil {
		t.Fatal("setting the clock of a whole day must fail")
	}
}

func TestOverflowFails(t *testing.T) {
	if _, err := Of(step(Day, 1)).ApplyDate(calendar.MaxDate()); err == nil {
		t.Fatal("expected overflow past 9999-12-31")
	}
	if _, err := Of(step(Year, 999999999)).ApplyDate(date(2021, time.January, 1)); err == nil {
		t.Fatal("expected year overflow")
	}
	if _, err := Of(step(Week, -999999999)).ApplyDate(date(2021, time.January, 1)); err == nil {
		t.Fatal("expected week underflow")
	}
}

func TestBoundsContainMovement(t *testing.T) {
	deltas := []Delta{
		Of(step(Year, 1)),
		Of(step(Month, -3), step(Day, 2)),
		Of(step(MonthReverse, 2)),
		Of(wd(calendar.Friday, 1)),
		Of(wd(calendar.Friday, -2)),
		Of(wd(calendar.Wednesday, 0)),
		Of(step(Hour, 30)),
		Of(step(Minute, -90)),
	}
	start := date(2021, time.March, 1)
	for _, d := range deltas {
		lo, hi := d.Bounds()
		for i := int64(0); i < 40; i++ {
			base, _ := start.AddDays(i)
			for _, m := range []calendar.Moment{
				calendar.AtTime(base, calendar.MustTime(0, 0)),
				calendar.AtTime(base, calendar.MustTime(23, 59)),
				calendar.AtTime(base, calendar.EndOfDay),
			} {
				got, err := d.Apply(m)
				if err != nil {
					continue
				}
				moved := got.Date.Sub(base)
				if moved < lo || moved > hi {
					t.Fatalf("%s from %s moved %d days, bounds [%d, %d]", d, m, moved, lo, hi)
				}
			}
		}
	}
}

func TestString(t *testing.T) {
	d := Of(step(Day, 1), step(Hour, 3), step(Minute, -20), wd(calendar.Friday, 2))
	if got := d.String(); got != "+d+3h-20min+2fri" {
		t.Fatalf("String = %q", got)
	}
}
