// Package calendar computes day/week/month windows over a flat meeting
// list and places meetings into day and hour cells for rendering.
//
// All functions are pure: they never mutate their inputs and are safe to
// call on every re-render.
package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidGranularity = errors.New("calendar: invalid granularity")

// Granularity is the view zoom level.
type Granularity string

const (
	Day   Granularity = "day"
	Week  Granularity = "week"
	Month Granularity = "month"
)

// ParseGranularity accepts "day", "week" or "month" (any case).
func ParseGranularity(s string) (Granularity, error) {
	g := Granularity(strings.ToLower(strings.TrimSpace(s)))
	if !g.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidGranularity, s)
	}
	return g, nil
}

func (g Granularity) Valid() bool {
	switch g {
	case Day, Week, Month:
		return true
	}
	return false
}

// Cell is one displayable date. Month views start with Blank cells so
// that the 1st lines up under its weekday column.
type Cell struct {
	Date  time.Time
	Blank bool
}

// DisplayRange is the visible window for a view. Start is 00:00 of the
// first day and End the last instant of the last day, both in UTC.
type DisplayRange struct {
	Granularity Granularity
	Start       time.Time
	End         time.Time
	Cells       []Cell
}

// FirstDay and LastDay are the inclusive calendar-day bounds.
func (r DisplayRange) FirstDay() time.Time { return Date(r.Start) }
func (r DisplayRange) LastDay() time.Time  { return Date(r.End) }

// Days returns the non-blank cell dates in order.
func (r DisplayRange) Days() []time.Time {
	out := make([]time.Time, 0, len(r.Cells))
	for _, c := range r.Cells {
		if !c.Blank {
			out = append(out, c.Date)
		}
	}
	return out
}

// LeadingBlanks counts blank cells at the start of the range.
func (r DisplayRange) LeadingBlanks() int {
	n := 0
	for _, c := range r.Cells {
		if !c.Blank {
			break
		}
		n++
	}
	return n
}

// Date returns t's wall-clock calendar day as 00:00 UTC.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// UTCDate returns the calendar day of the instant t as seen in UTC. This
// is the only day extraction used for meeting timestamps.
func UTCDate(t time.Time) time.Time {
	return Date(t.UTC())
}

func endOfDay(day time.Time) time.Time {
	return day.AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// DaysIn returns the number of days in the month containing t.
func DaysIn(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// WeekStartOf returns the first day of the week containing day.
func WeekStartOf(day time.Time, weekStart time.Weekday) time.Time {
	day = Date(day)
	offset := (int(day.Weekday()) - int(weekStart) + 7) % 7
	return day.AddDate(0, 0, -offset)
}

// ComputeRange returns the display range anchored at ref.
func ComputeRange(ref time.Time, g Granularity, weekStart time.Weekday) (DisplayRange, error) {
	day := Date(ref)

	switch g {
	case Day:
		return DisplayRange{
			Granularity: g,
			Start:       day,
			End:         endOfDay(day),
			Cells:       []Cell{{Date: day}},
		}, nil

	case Week:
		start := WeekStartOf(day, weekStart)
		cells := make([]Cell, 7)
		for i := range cells {
			cells[i] = Cell{Date: start.AddDate(0, 0, i)}
		}
		return DisplayRange{
			Granularity: g,
			Start:       start,
			End:         endOfDay(cells[6].Date),
			Cells:       cells,
		}, nil

	case Month:
		first := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
		days := DaysIn(first)
		blanks := (int(first.Weekday()) - int(weekStart) + 7) % 7

		cells := make([]Cell, 0, blanks+days)
		for i := 0; i < blanks; i++ {
			cells = append(cells, Cell{Blank: true})
		}
		for i := 0; i < days; i++ {
			cells = append(cells, Cell{Date: first.AddDate(0, 0, i)})
		}
		return DisplayRange{
			Granularity: g,
			Start:       first,
			End:         endOfDay(first.AddDate(0, 0, days-1)),
			Cells:       cells,
		}, nil
	}

	return DisplayRange{}, fmt.Errorf("%w: %q", ErrInvalidGranularity, g)
}

// MustComputeRange is ComputeRange for callers that have already
// validated g. An invalid granularity here is a programming error.
func MustComputeRange(ref time.Time, g Granularity, weekStart time.Weekday) DisplayRange {
	r, err := ComputeRange(ref, g, weekStart)
	if err != nil {
		panic(err)
	}
	return r
}
