package calendar

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want Date
		ok   bool
	}{
		{"2024-02-29", MustDate(2024, time.February, 29), true},
		{"2023-02-29", Date{}, false},
		{"0001-01-01", MinDate(), true},
		{"9999-12-31", MaxDate(), true},
		{"0000-01-01", Date{}, false},
		{"2024-1-01", Date{}, false},
		{"2024-13-01", Date{}, false},
		{"20x4-01-01", Date{}, false},
	}
	for _, c := range cases {
		got, err := ParseDate(c.in)
		if (err == nil) != c.ok {
			t.Fatalf("ParseDate(%q) err = %v, want ok=%v", c.in, err, c.ok)
		}
		if c.ok && got != c.want {
			t.Fatalf("ParseDate(%q) = %s, want %s", c.in, got, c.want)
		}
	}
}

func TestDayNumber(t *testing.T) {
	if n := MinDate().DayNumber(); n != 1 {
		t.Fatalf("0001-01-01 = %d, want 1", n)
	}
	if n := MustDate(1970, time.January, 1).DayNumber(); n != 719163 {
		t.Fatalf("1970-01-01 = %d", n)
	}
	if n := MustDate(2000, time.January, 1).DayNumber(); n != 730120 {
		t.Fatalf("2000-01-01 = %d", n)
	}
	if n := MaxDate().DayNumber(); n != maxDayNumber {
		t.Fatalf("9999-12-31 = %d", n)
	}
	for _, n := range []int64{1, 2, 365, 719163, 730179, maxDayNumber} {
		d, ok := FromDayNumber(n)
		if !ok || d.DayNumber() != n {
			t.Fatalf("round trip of %d gave %s", n, d)
		}
	}
	if _, ok := FromDayNumber(0); ok {
		t.Fatal("day 0 must be rejected")
	}
	if _, ok := MaxDate().AddDays(1); ok {
		t.Fatal("expected overflow past 9999-12-31")
	}
}

func TestLeapYears(t *testing.T) {
	for y, want := range map[int]bool{1900: false, 2000: true, 2023: false, 2024: true, 2100: false} {
		if IsLeapYear(y) != want {
			t.Errorf("IsLeapYear(%d) != %v", y, want)
		}
	}
	if MonthLength(2024, time.February) != 29 || MonthLength(2023, time.February) != 28 {
		t.Fatal("february length")
	}
	if YearLength(2024) != 366 {
		t.Fatal("year length")
	}
}

func TestISOWeeks(t *testing.T) {
	if !IsISOLeapYear(2020) || IsISOLeapYear(2021) || !IsISOLeapYear(2015) {
		t.Fatal("iso leap years")
	}
	y, w := MustDate(2021, time.January, 1).ISOWeek()
	if y != 2020 || w != 53 {
		t.Fatalf("2021-01-01 is %d-W%d", y, w)
	}
}

func TestEaster(t *testing.T) {
	want := map[int]Date{
		2000: MustDate(2000, time.April, 23),
		2019: MustDate(2019, time.April, 21),
		2024: MustDate(2024, time.March, 31),
		2025: MustDate(2025, time.April, 20),
	}
	for y, d := range want {
		if got := Easter(y); got != d {
			t.Errorf("Easter(%d) = %s, want %s", y, got, d)
		}
	}
}

func TestDayContext(t *testing.T) {
	c := NewDayContext(MustDate(2024, time.December, 31))
	if c.YearDay != 366 || c.YearDayReverse != 1 || c.YearWeekReverse != 1 {
		t.Fatalf("year fields: %+v", c)
	}
	if c.DayReverse != 1 || c.MonthWeekReverse != 1 || c.MonthWeek != 5 {
		t.Fatalf("month fields: %+v", c)
	}
	if c.ISOYear != 2025 || c.ISOWeek != 1 || c.Weekday != Tuesday {
		t.Fatalf("iso fields: %+v", c)
	}
	if c.Easter != Easter(2024).YearDay() || !c.IsLeapYear {
		t.Fatalf("misc fields: %+v", c)
	}
}

func TestWeekday(t *testing.T) {
	if d := MustDate(2024, time.January, 1); d.Weekday() != Monday {
		t.Fatalf("2024-01-01 is %s", d.Weekday())
	}
	if Monday.Until(Friday) != 4 || Friday.Until(Monday) != 3 || Sunday.Until(Sunday) != 0 {
		t.Fatal("Until")
	}
	if wd, ok := ParseWeekday("sun"); !ok || wd != Sunday || wd.Std() != time.Sunday {
		t.Fatal("ParseWeekday")
	}
}

func TestTimeAddMinutes(t *testing.T) {
	cases := []struct {
		from     Time
		n        int64
		wantDays int64
		want     Time
	}{
		{MustTime(23, 0), 60, 0, EndOfDay},
		{MustTime(23, 0), 61, 1, MustTime(0, 1)},
		{MustTime(0, 30), -60, -1, MustTime(23, 30)},
		{MustTime(10, 0), 3 * MinutesPerDay, 3, MustTime(10, 0)},
		{EndOfDay, 60, 1, MustTime(1, 0)},
		{MustTime(0, 0), MinutesPerDay, 0, EndOfDay},
	}
	for _, c := range cases {
		days, got := c.from.AddMinutes(c.n)
		if days != c.wantDays || got != c.want {
			t.Errorf("%s%+d = (%d, %s), want (%d, %s)", c.from, c.n, days, got, c.wantDays, c.want)
		}
	}
	if _, err := ParseTime("24:01"); err == nil {
		t.Fatal("24:01 must be rejected")
	}
}

func TestMoment(t *testing.T) {
	d := MustDate(2024, time.March, 9)
	a := AtTime(d, EndOfDay)
	b := AtTime(d.Next(), MustTime(0, 0))
	if !a.Equal(b) {
		t.Fatal("24:00 must equal next day 00:00")
	}
	if At(d).Compare(AtTime(d, MustTime(0, 0))) >= 0 {
		t.Fatal("whole-day moment sorts first")
	}
	m, ok := MomentFromMinutes(b.AbsMinutes(), true)
	if !ok || m.Date != d || !m.Time.IsEndOfDay() {
		t.Fatalf("MomentFromMinutes = %s", m)
	}
}

func TestWindow(t *testing.T) {
	w, err := NewWindow(MustDate(2024, time.January, 30), MustDate(2024, time.February, 2))
	if err != nil {
		t.Fatal(err)
	}
	var n int
	w.Each(func(Date) bool { n++; return true })
	if n != 4 || w.Days() != 4 {
		t.Fatalf("window has %d days", n)
	}
	if !w.Touches(MustDate(2024, time.January, 1), MustDate(2024, time.January, 30)) {
		t.Fatal("touching span")
	}
	if e := w.Expand(-3650000, 0); e.From != MinDate() {
		t.Fatalf("expand not clamped: %s", e)
	}
	if _, err := NewWindow(w.Until, w.From); err == nil {
		t.Fatal("reversed window accepted")
	}
}
