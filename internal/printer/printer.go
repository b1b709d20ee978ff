// Package printer renders calendar views for the terminal.
package printer

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"meetcal/internal/calendar"
	"meetcal/internal/dashboard"
)

// Pretty writes human readable views to Out.
type Pretty struct {
	Out io.Writer
	// Color forces ANSI styling on or off regardless of the terminal.
	Color bool
	// MaxColWidth bounds a day column in the slot table.
	MaxColWidth uint
}

func New(out io.Writer, colored bool) *Pretty {
	return &Pretty{Out: out, Color: colored, MaxColWidth: 28}
}

func (pp *Pretty) style(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if pp.Color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

// View prints the heading, the grid for the view's granularity and the
// summary or empty notice.
func (pp *Pretty) View(v calendar.View, snap *dashboard.Snapshot) {
	_, _ = pp.style(color.Bold, color.Underline).Fprintln(pp.Out, v.Label)
	_, _ = fmt.Fprintln(pp.Out)

	if snap != nil && snap.Err != nil {
		_, _ = pp.style(color.FgRed, color.Bold).Fprintf(pp.Out, "Unable to load meetings: %v\n\n", snap.Err)
	}

	if v.State.Granularity == calendar.Month {
		pp.Month(v)
	} else {
		pp.Slots(v)
	}

	pp.Summary(v, snap)
}

// Month prints the month grid with days that hold meetings in bold and a
// list of per-day counts below.
func (pp *Pretty) Month(v calendar.View) {
	faint := pp.style(color.Faint)
	busy := pp.style(color.Bold)
	today := pp.style(color.Bold, color.Underline)

	for _, name := range weekdayHeaders(v.Range) {
		_, _ = faint.Fprintf(pp.Out, "%2s ", name[:2])
	}
	_, _ = fmt.Fprintln(pp.Out)

	for i, cell := range v.MonthCells {
		switch {
		case cell.Blank:
			_, _ = fmt.Fprint(pp.Out, "   ")
		case cell.Today:
			_, _ = today.Fprintf(pp.Out, "%2d", cell.Date.Day())
			_, _ = fmt.Fprint(pp.Out, " ")
		case len(cell.Meetings) > 0:
			_, _ = busy.Fprintf(pp.Out, "%2d ", cell.Date.Day())
		default:
			_, _ = faint.Fprintf(pp.Out, "%2d ", cell.Date.Day())
		}
		if (i+1)%7 == 0 {
			_, _ = fmt.Fprintln(pp.Out)
		}
	}
	if len(v.MonthCells)%7 != 0 {
		_, _ = fmt.Fprintln(pp.Out)
	}
	_, _ = fmt.Fprintln(pp.Out)

	tbl := uitable.New()
	tbl.Separator = "  "
	for _, cell := range v.MonthCells {
		if cell.Blank || len(cell.Meetings) == 0 {
			continue
		}
		tbl.AddRow(cell.Date.Format("Mon Jan 2"), calendar.CountLabel(len(cell.Meetings)))
	}
	if len(tbl.Rows) > 0 {
		_, _ = fmt.Fprintln(pp.Out, tbl)
		_, _ = fmt.Fprintln(pp.Out)
	}
}

// Slots prints the hour-by-day table of a day or week view. A meeting is
// listed only in the hour it starts.
func (pp *Pretty) Slots(v calendar.View) {
	tbl := uitable.New()
	tbl.Separator = " | "
	tbl.MaxColWidth = pp.MaxColWidth
	tbl.Wrap = true

	head := []any{"Hour"}
	for _, col := range v.Columns {
		label := col.Date.Format("Mon Jan 2")
		if col.Today {
			label += " *"
		}
		head = append(head, label)
	}
	tbl.AddRow(head...)

	for i, h := range v.Hours {
		row := []any{calendar.HourLabel(h)}
		for _, col := range v.Columns {
			cards := make([]string, 0, len(col.Slots[i].Meetings))
			for _, p := range col.Slots[i].Meetings {
				cards = append(cards, card(p))
			}
			row = append(row, strings.Join(cards, "; "))
		}
		tbl.AddRow(row...)
	}

	_, _ = fmt.Fprintln(pp.Out, tbl)
	_, _ = fmt.Fprintln(pp.Out)
}

// Summary prints the four counters, or the empty notice when nothing is
// visible, followed by any excluded records.
func (pp *Pretty) Summary(v calendar.View, snap *dashboard.Snapshot) {
	if snap == nil || snap.Err == nil {
		if v.Empty() {
			_, _ = pp.style(color.Faint, color.Italic).Fprintln(pp.Out, calendar.EmptyNotice(v.State.Granularity))
		} else {
			s := v.Summary
			_, _ = fmt.Fprintf(pp.Out, "%d %s, %d confirmed, %d today, %d total\n",
				s.Visible, calendar.PeriodName(v.State.Granularity), s.Confirmed, s.Today, s.Total)
		}
	}

	if snap == nil || len(snap.Warnings) == 0 {
		return
	}
	warn := pp.style(color.FgYellow)
	_, _ = warn.Fprintf(pp.Out, "%d meeting(s) could not be shown\n", len(snap.Warnings))
	for _, w := range snap.Warnings {
		_, _ = warn.Fprintf(pp.Out, "  %s: %v\n", w.ID, w.Err)
	}
}

func card(p calendar.Placement) string {
	m := p.Meeting
	name := m.LeadName
	if name == "" {
		name = "Unknown"
	}
	hours := strconv.FormatFloat(p.HeightUnits, 'f', -1, 64)
	return fmt.Sprintf("%s %s (%s, %sh)", calendar.FormatTime(m.Start), name, m.Status.Label(), hours)
}

func weekdayHeaders(r calendar.DisplayRange) []string {
	start := r.FirstDay().Weekday()
	if n := r.LeadingBlanks(); n > 0 {
		start = (start - time.Weekday(n) + 7) % 7
	}
	out := make([]string, 0, 7)
	for i := 0; i < 7; i++ {
		out = append(out, ((start + time.Weekday(i)) % 7).String())
	}
	return out
}
