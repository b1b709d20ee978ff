package calendar

import (
	"fmt"
	"time"
)

// Label is the heading shown above the grid.
func Label(g Granularity, ref time.Time, r DisplayRange) string {
	switch g {
	case Day:
		return Date(ref).Format("Monday, January 2, 2006")
	case Week:
		return r.FirstDay().Format("Jan 2") + " - " + r.LastDay().Format("Jan 2, 2006")
	case Month:
		return Date(ref).Format("January 2006")
	}
	return ""
}

// HourLabel renders a slot hour as "08:00".
func HourLabel(hour int) string {
	return fmt.Sprintf("%02d:00", hour)
}

// FormatTime renders t as "3:04 PM" in UTC, the same reference used to
// pick a meeting's slot.
func FormatTime(t time.Time) string {
	return t.UTC().Format("3:04 PM")
}

// CountLabel is the month-cell badge: "1 meeting", "3 meetings".
func CountLabel(n int) string {
	if n == 1 {
		return "1 meeting"
	}
	return fmt.Sprintf("%d meetings", n)
}

// PeriodName names the visible period: "today", "this week", "this month".
func PeriodName(g Granularity) string {
	switch g {
	case Day:
		return "today"
	case Month:
		return "this month"
	default:
		return "this week"
	}
}

// EmptyNotice is shown when the visible range holds no meetings.
func EmptyNotice(g Granularity) string {
	return "No meetings scheduled " + PeriodName(g)
}
