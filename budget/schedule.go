package budget

// MonthlyDayInRange reports whether a monthly scheduled transaction's day of
// month falls inside a pay period running from startDay to endDay.
//
// A period that stays in one month (startDay < endDay) matches
// startDay <= day <= endDay. A period that crosses a month boundary matches
// day <= endDay OR day >= startDay.
func MonthlyDayInRange(day, startDay, endDay int) bool {
	if startDay < endDay {
		return startDay <= day && day <= endDay
	}
	return day <= endDay || day >= startDay
}

// MonthlyDate places day-of-month day inside the period [start, end].
//
// When the period crosses into the next month and day is before start's day,
// the date lands in the following month (start on the 30th, day 5 is the 5th
// of next month). Callers filter with MonthlyDayInRange first; the engine
// does not range-check day.
func MonthlyDate(day int, start, end Date) Date {
	if start.Day() <= day && day <= end.Day() {
		return NewDate(start.Year(), start.Month(), day)
	}
	if day >= start.Day() {
		return NewDate(start.Year(), start.Month(), day)
	}
	return NewDate(start.Year(), start.Month(), day).AddMonths(1)
}
