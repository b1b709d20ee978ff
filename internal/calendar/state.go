package calendar

import "time"

// ViewState is the transient navigation state of one dashboard.
//
// AnchorDay remembers the day-of-month the user navigated from so month
// steps can clamp (Jan 31 -> Feb 29) and still return to the 31st.
type ViewState struct {
	Granularity Granularity
	Reference   time.Time
	Previous    Granularity
	AnchorDay   int
}

// NewViewState opens on the week containing today, with month as the
// view a day drill-down returns to.
func NewViewState(today time.Time) ViewState {
	d := Date(today)
	return ViewState{
		Granularity: Week,
		Reference:   d,
		Previous:    Month,
		AnchorDay:   d.Day(),
	}
}

// Next and Prev step one unit of the current granularity.
func (s ViewState) Next() ViewState { return s.shift(1) }
func (s ViewState) Prev() ViewState { return s.shift(-1) }

// Today moves the reference to today's date, keeping the granularity.
func (s ViewState) Today(today time.Time) ViewState {
	s.Reference = Date(today)
	s.AnchorDay = s.Reference.Day()
	return s
}

// Switch changes granularity and records the outgoing one as Previous.
// Switching to the current granularity changes nothing.
func (s ViewState) Switch(g Granularity) ViewState {
	if g == s.Granularity || !g.Valid() {
		return s
	}
	s.Previous = s.Granularity
	s.Granularity = g
	return s
}

// DrillDown opens day on a week or month cell. It has no effect in day view.
func (s ViewState) DrillDown(day time.Time) ViewState {
	if s.Granularity == Day {
		return s
	}
	s.Previous = s.Granularity
	s.Granularity = Day
	s.Reference = Date(day)
	s.AnchorDay = s.Reference.Day()
	return s
}

// Return leaves day view for Previous. The reference date is kept where
// the day view left it.
func (s ViewState) Return() ViewState {
	if s.Granularity != Day {
		return s
	}
	prev := s.Previous
	if prev == Day || !prev.Valid() {
		prev = Week
	}
	s.Granularity = prev
	return s
}

func (s ViewState) shift(n int) ViewState {
	ref := Date(s.Reference)
	switch s.Granularity {
	case Day:
		s.Reference = ref.AddDate(0, 0, n)
		s.AnchorDay = s.Reference.Day()
	case Week:
		s.Reference = ref.AddDate(0, 0, 7*n)
		s.AnchorDay = s.Reference.Day()
	case Month:
		anchor := s.AnchorDay
		if anchor < 1 || anchor > 31 {
			anchor = ref.Day()
		}
		s.Reference = AddMonths(ref, n, anchor)
		s.AnchorDay = anchor
	}
	return s
}

// AddMonths moves day by n calendar months, landing on anchorDay or the
// last day of the target month when it is shorter.
func AddMonths(day time.Time, n int, anchorDay int) time.Time {
	first := time.Date(day.Year(), day.Month()+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	d := anchorDay
	if last := DaysIn(first); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}
