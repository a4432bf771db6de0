package utils

import "time"

// MinutesIntoDay returns how many minutes past local midnight t is.
func MinutesIntoDay(t time.Time, loc *time.Location) int {
	local := t.In(loc)
	return local.Hour()*60 + local.Minute()
}

// DayStart returns local midnight of the day containing t.
func DayStart(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// AtMinutes composes a local wall-clock instant from a day and minutes
// past midnight, e.g. day + 540 -> 09:00 that day.
func AtMinutes(day time.Time, minutes int, loc *time.Location) time.Time {
	start := DayStart(day, loc)
	return start.Add(time.Duration(minutes) * time.Minute)
}

// SameLocalDay reports whether a and b fall on the same calendar day in loc.
func SameLocalDay(a, b time.Time, loc *time.Location) bool {
	al, bl := a.In(loc), b.In(loc)
	return al.Year() == bl.Year() && al.YearDay() == bl.YearDay()
}

// WithinClockWindow reports whether the span [startMin, endMin] of a
// local day fully covers the minutes-into-day range [fromMin, toMin].
func WithinClockWindow(fromMin, toMin, startMin, endMin int) bool {
	return fromMin >= startMin && toMin <= endMin
}

// InQuietHours reports whether minute-of-day m falls inside a quiet
// window. The window may wrap past midnight (start > end), e.g.
// 22:00-07:00.
func InQuietHours(m, quietStart, quietEnd int) bool {
	if quietStart == quietEnd {
		return false
	}
	if quietStart < quietEnd {
		return m >= quietStart && m < quietEnd
	}
	return m >= quietStart || m < quietEnd
}
