// Package calendar implements ISO-8601 week arithmetic on calendar dates.
//
// All functions work on dates, not instants: inputs are truncated to their
// calendar day and results are UTC midnights. Weeks start on Monday and week 1
// of a year is the week holding that year's first Thursday, so a year has 53
// weeks exactly when the algorithm says so.
package calendar

import "time"

const daysPerWeek = 7

// Date returns the UTC midnight of the given calendar day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf truncates t to its calendar day, read in t's own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return Date(y, m, d)
}

// isoWeekday returns 1 for Monday through 7 for Sunday.
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return daysPerWeek
	}
	return wd
}

// owningThursday returns the Thursday of the Monday-based week holding t.
// That Thursday decides both the ISO week number and the ISO year.
func owningThursday(t time.Time) time.Time {
	d := DateOf(t)
	return d.AddDate(0, 0, 4-isoWeekday(d))
}

// IsoWeekNumber returns the ISO-8601 week number (1..53) of the date.
func IsoWeekNumber(t time.Time) int {
	return (owningThursday(t).YearDay()-1)/daysPerWeek + 1
}

// IsoYear returns the ISO-8601 week-numbering year of the date.
func IsoYear(t time.Time) int {
	return owningThursday(t).Year()
}

func firstThursday(year int) time.Time {
	jan1 := Date(year, time.January, 1)
	return jan1.AddDate(0, 0, (4-isoWeekday(jan1)+daysPerWeek)%daysPerWeek)
}

// WeekStart returns the Monday of ISO week `week` of `year`.
//
// Week 1 may start in the previous December; a week number past the last
// week of the year rolls into the following year.
func WeekStart(year, week int) time.Time {
	return firstThursday(year).AddDate(0, 0, (week-1)*daysPerWeek-3)
}

// WeekEnd returns the Sunday of ISO week `week` of `year`.
func WeekEnd(year, week int) time.Time {
	return WeekStart(year, week).AddDate(0, 0, daysPerWeek-1)
}

// WeeksInYear returns 52 or 53. December 28th always falls in the last ISO week.
func WeeksInYear(year int) int {
	return IsoWeekNumber(Date(year, time.December, 28))
}

// IsAlignedWeek reports whether [start, end] is exactly one Monday-to-Sunday week.
func IsAlignedWeek(start, end time.Time) bool {
	s, e := DateOf(start), DateOf(end)
	return e.Sub(s) == (daysPerWeek-1)*24*time.Hour &&
		s.Weekday() == time.Monday &&
		e.Weekday() == time.Sunday
}

// MondayOf returns the Monday of the week holding t.
func MondayOf(t time.Time) time.Time {
	d := DateOf(t)
	return d.AddDate(0, 0, 1-isoWeekday(d))
}
