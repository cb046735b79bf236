package formula

import (
	"plancal/internal/calendar"
)

// Var is one of the fixed per-day variables a formula can read.
type Var uint8

const (
	VarJulianDay Var = iota + 1
	VarYear
	VarYearLength
	VarYearDay
	VarYearDayReverse
	VarYearWeek
	VarYearWeekReverse
	VarMonth
	VarMonthLength
	VarMonthWeek
	VarMonthWeekReverse
	VarDay
	VarDayReverse
	VarISOYear
	VarISOYearLength
	VarISOWeek
	VarWeekday
	VarEaster
	VarMon
	VarTue
	VarWed
	VarThu
	VarFri
	VarSat
	VarSun
	VarIsWeekday
	VarIsWeekend
	VarIsLeapYear
	VarIsISOLeapYear

	varCount
)

var varNames = [varCount]string{
	VarJulianDay:        "j",
	VarYear:             "y",
	VarYearLength:       "yl",
	VarYearDay:          "yd",
	VarYearDayReverse:   "yD",
	VarYearWeek:         "yw",
	VarYearWeekReverse:  "yW",
	VarMonth:            "m",
	VarMonthLength:      "ml",
	VarMonthWeek:        "mw",
	VarMonthWeekReverse: "mW",
	VarDay:              "d",
	VarDayReverse:       "D",
	VarISOYear:          "iy",
	VarISOYearLength:    "iyl",
	VarISOWeek:          "iw",
	VarWeekday:          "wd",
	VarEaster:           "e",
	VarMon:              "mon",
	VarTue:              "tue",
	VarWed:              "wed",
	VarThu:              "thu",
	VarFri:              "fri",
	VarSat:              "sat",
	VarSun:              "sun",
	VarIsWeekday:        "isWeekday",
	VarIsWeekend:        "isWeekend",
	VarIsLeapYear:       "isLeapYear",
	VarIsISOLeapYear:    "isIsoLeapYear",
}

var varByName = func() map[string]Var {
	m := make(map[string]Var, varCount)
	for v := Var(1); v < varCount; v++ {
		m[varNames[v]] = v
	}
	return m
}()

// LookupVar resolves a variable name. Names are case sensitive.
func LookupVar(name string) (Var, bool) {
	v, ok := varByName[name]
	return v, ok
}

func (v Var) String() string {
	if v == 0 || v >= varCount {
		return "?"
	}
	return varNames[v]
}

// Kind is the static result kind of v.
func (v Var) Kind() Kind {
	if v >= VarMon {
		return KindBool
	}
	return KindNumber
}

// value reads v from the day context.
func (v Var) value(c *calendar.DayContext) Value {
	switch v {
	case VarJulianDay:
		return Number(c.JulianDay)
	case VarYear:
		return Number(int64(c.Year))
	case VarYearLength:
		return Number(int64(c.YearLength))
	case VarYearDay:
		return Number(int64(c.YearDay))
	case VarYearDayReverse:
		return Number(int64(c.YearDayReverse))
	case VarYearWeek:
		return Number(int64(c.YearWeek))
	case VarYearWeekReverse:
		return Number(int64(c.YearWeekReverse))
	case VarMonth:
		return Number(int64(c.Month))
	case VarMonthLength:
		return Number(int64(c.MonthLength))
	case VarMonthWeek:
		return Number(int64(c.MonthWeek))
	case VarMonthWeekReverse:
		return Number(int64(c.MonthWeekReverse))
	case VarDay:
		return Number(int64(c.Day))
	case VarDayReverse:
		return Number(int64(c.DayReverse))
	case VarISOYear:
		return Number(int64(c.ISOYear))
	case VarISOYearLength:
		return Number(int64(c.ISOYearLength))
	case VarISOWeek:
		return Number(int64(c.ISOWeek))
	case VarWeekday:
		return Number(int64(c.Weekday.Num()))
	case VarEaster:
		return Number(int64(c.Easter))
	case VarMon, VarTue, VarWed, VarThu, VarFri, VarSat, VarSun:
		return Bool(c.Weekday == calendar.Weekday(v-VarMon+1))
	case VarIsWeekday:
		return Bool(!c.Weekday.IsWeekend())
	case VarIsWeekend:
		return Bool(c.Weekday.IsWeekend())
	case VarIsLeapYear:
		return Bool(c.IsLeapYear)
	case VarIsISOLeapYear:
		return Bool(c.IsISOLeapYear)
	}
	return Value{}
}
