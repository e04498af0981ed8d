package scheduler

import "time"

// Date truncates t to its calendar date, expressed at midnight UTC
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a "YYYY-MM-DD" string
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, time.UTC)
}

// IsWeekend reports whether t falls on Saturday or Sunday
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// FirstWeekday returns the earliest date on or after reference that is not a weekend day
func FirstWeekday(reference time.Time) time.Time {
	d := Date(reference)
	for IsWeekend(d) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// WeekdayIndex returns the signed number of weekdays separating target from the
// first weekday on or after reference. It is 0 on that weekday, grows by one on every
// later weekday and shrinks by one on every earlier weekday. Weekend dates carry the
// index of the weekday before them (after the epoch) or after them (before the epoch).
func WeekdayIndex(target, reference time.Time) int {
	first := dayNumber(FirstWeekday(reference))
	t := dayNumber(target)
	if t >= first {
		// weekdays in (first, t]
		return int(weekdaysBefore(t+1) - weekdaysBefore(first+1))
	}
	// -(weekdays in [t, first))
	return int(weekdaysBefore(t) - weekdaysBefore(first))
}

// DatesInRange lists every date of a year (month == 0) or of one month, ascending
func DatesInRange(year, month int) []time.Time {
	var start, end time.Time
	if month == 0 {
		start = time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(1, 0, 0)
	} else {
		start = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 1, 0)
	}

	days := make([]time.Time, 0, 366)
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// dayNumber is the number of days since 1970-01-01
func dayNumber(t time.Time) int64 {
	return Date(t).Unix() / 86400
}

// weekdaysBefore counts Mon-Fri days in [1970-01-05, day) for day >= 1970-01-05 and
// the negated count of [day, 1970-01-05) otherwise. 1970-01-05 is a Monday.
func weekdaysBefore(day int64) int64 {
	n := day - 4
	weeks := floorDiv(n, 7)
	rem := n - weeks*7
	if rem > 5 {
		rem = 5
	}
	return weeks*5 + rem
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
