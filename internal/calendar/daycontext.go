package calendar

// DayContext is the read-only set of facts about one candidate date that
// formulas can refer to. It is computed once per date.
type DayContext struct {
	Date Date

	JulianDay int64 // j, 0001-01-01 is 1

	Year            int // y
	YearLength      int // yl
	YearDay         int // yd
	YearDayReverse  int // yD, 1 on the last day of the year
	YearWeek        int // yw, 1 during the first seven days
	YearWeekReverse int // yW, 1 during the last seven days

	Month            int // m
	MonthLength      int // ml
	MonthWeek        int // mw
	MonthWeekReverse int // mW
	Day              int // d
	DayReverse       int // D, 1 on the last day of the month

	ISOYear       int // iy
	ISOYearLength int // iyl, in weeks
	ISOWeek       int // iw

	Weekday Weekday // wd
	Easter  int     // e, day of the year of Easter Sunday

	IsLeapYear    bool
	IsISOLeapYear bool
}

// NewDayContext derives every fact about d.
func NewDayContext(d Date) DayContext {
	yl := YearLength(d.year)
	yd := d.YearDay()
	ml := MonthLength(d.year, d.month)
	iy, iw := d.ISOWeek()

	return DayContext{
		Date:             d,
		JulianDay:        d.DayNumber(),
		Year:             d.year,
		YearLength:       yl,
		YearDay:          yd,
		YearDayReverse:   yl - yd + 1,
		YearWeek:         (yd-1)/7 + 1,
		YearWeekReverse:  (yl-yd)/7 + 1,
		Month:            int(d.month),
		MonthLength:      ml,
		MonthWeek:        (d.day-1)/7 + 1,
		MonthWeekReverse: (ml-d.day)/7 + 1,
		Day:              d.day,
		DayReverse:       ml - d.day + 1,
		ISOYear:          iy,
		ISOYearLength:    ISOYearWeeks(iy),
		ISOWeek:          iw,
		Weekday:          d.Weekday(),
		Easter:           Easter(d.year).YearDay(),
		IsLeapYear:       IsLeapYear(d.year),
		IsISOLeapYear:    IsISOLeapYear(d.year),
	}
}
