package calendar

import "time"

var daysInMonth = [...]int{
	time.January:   31,
	time.February:  28,
	time.March:     31,
	time.April:     30,
	time.May:       31,
	time.June:      30,
	time.July:      31,
	time.August:    31,
	time.September: 30,
	time.October:   31,
	time.November:  30,
	time.December:  31,
}

func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// YearLength is 365 or 366.
func YearLength(year int) int {
	if IsLeapYear(year) {
		return 366
	}
	return 365
}

func MonthLength(year int, month time.Month) int {
	if month < time.January || month > time.December {
		return 0
	}
	if month == time.February && IsLeapYear(year) {
		return 29
	}
	return daysInMonth[month]
}

// AddMonths moves (year, month) by delta months.
func AddMonths(year int, month time.Month, delta int64) (int64, time.Month) {
	m0 := int64(month) - 1 + delta
	y := int64(year) + floorDiv(m0, 12)
	m0 -= floorDiv(m0, 12) * 12
	return y, time.Month(m0 + 1)
}

// IsISOLeapYear reports whether the ISO week-numbering year has 53 weeks.
func IsISOLeapYear(year int) bool {
	_, w := time.Date(year, time.December, 28, 0, 0, 0, 0, time.UTC).ISOWeek()
	return w == 53
}

// ISOYearWeeks returns the number of weeks (52 or 53) of an ISO year.
func ISOYearWeeks(year int) int {
	if IsISOLeapYear(year) {
		return 53
	}
	return 52
}

// Easter returns the date of Gregorian Easter Sunday in year, using the
// anonymous Gregorian (Meeus/Jones/Butcher) algorithm.
func Easter(year int) Date {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return Date{year: year, month: time.Month(month), day: day}
}
