package calendar

import (
	"fmt"
	"time"

	"meetcal/internal/model"
)

const (
	DefaultFirstHour     = 8
	DefaultLastHour      = 18
	DefaultPixelsPerHour = 80
)

// Options control grid assembly. Zero values fall back to the defaults
// above and a Sunday week start.
type Options struct {
	WeekStart     time.Weekday
	FirstHour     int
	LastHour      int
	PixelsPerHour float64
	// Today is the current instant; its UTC calendar day is "today".
	Today time.Time
}

func (o Options) withDefaults() Options {
	if o.FirstHour == 0 && o.LastHour == 0 {
		o.FirstHour, o.LastHour = DefaultFirstHour, DefaultLastHour
	}
	if o.FirstHour < 0 || o.FirstHour > 23 {
		o.FirstHour = DefaultFirstHour
	}
	if o.LastHour < o.FirstHour || o.LastHour > 23 {
		o.LastHour = 23
	}
	if o.PixelsPerHour <= 0 {
		o.PixelsPerHour = DefaultPixelsPerHour
	}
	return o
}

// Placement is a meeting card positioned in its start cell.
type Placement struct {
	Meeting     model.Meeting
	HeightUnits float64
	HeightPx    float64
}

type Slot struct {
	Hour     int
	Meetings []Placement
}

// Column is one day in a day or week grid.
type Column struct {
	Date  time.Time
	Today bool
	Slots []Slot
}

// MonthCell is one square of the month grid. Month cells bucket by day only.
type MonthCell struct {
	Date     time.Time
	Blank    bool
	Today    bool
	Meetings []model.Meeting
}

// View is everything the rendering layer needs for one screen.
type View struct {
	State      ViewState
	Range      DisplayRange
	Label      string
	Hours      []int
	Columns    []Column
	MonthCells []MonthCell
	Visible    []model.Meeting
	Summary    Summary
}

// Empty reports whether no meeting falls in the visible range.
func (v View) Empty() bool { return len(v.Visible) == 0 }

// Build assembles the view for state over an immutable meeting snapshot.
func Build(state ViewState, meetings []model.Meeting, opts Options) (View, error) {
	opts = opts.withDefaults()

	if !state.Granularity.Valid() {
		return View{}, fmt.Errorf("%w: %q", ErrInvalidGranularity, state.Granularity)
	}
	r := MustComputeRange(state.Reference, state.Granularity, opts.WeekStart)

	visible := Bucket(meetings, r)
	idx := NewIndex(visible)
	today := UTCDate(opts.Today)

	v := View{
		State:   state,
		Range:   r,
		Label:   Label(state.Granularity, state.Reference, r),
		Visible: visible,
		Summary: Summarize(visible, meetings, today),
	}

	if state.Granularity == Month {
		v.MonthCells = make([]MonthCell, 0, len(r.Cells))
		for _, c := range r.Cells {
			if c.Blank {
				v.MonthCells = append(v.MonthCells, MonthCell{Blank: true})
				continue
			}
			v.MonthCells = append(v.MonthCells, MonthCell{
				Date:     c.Date,
				Today:    c.Date.Equal(today),
				Meetings: idx.Day(c.Date),
			})
		}
		return v, nil
	}

	for h := opts.FirstHour; h <= opts.LastHour; h++ {
		v.Hours = append(v.Hours, h)
	}
	for _, day := range r.Days() {
		col := Column{Date: day, Today: day.Equal(today)}
		for _, h := range v.Hours {
			slot := Slot{Hour: h}
			for _, m := range idx.Slot(day, h) {
				units := HeightUnits(m)
				slot.Meetings = append(slot.Meetings, Placement{
					Meeting:     m,
					HeightUnits: units,
					HeightPx:    units * opts.PixelsPerHour,
				})
			}
			col.Slots = append(col.Slots, slot)
		}
		v.Columns = append(v.Columns, col)
	}
	return v, nil
}
