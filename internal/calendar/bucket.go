package calendar

import (
	"sort"
	"time"

	"meetcal/internal/model"
)

// Bucket keeps the meetings whose UTC start day lies within the range's
// first and last day, inclusive. Input order is preserved.
func Bucket(meetings []model.Meeting, r DisplayRange) []model.Meeting {
	first, last := r.FirstDay(), r.LastDay()
	out := make([]model.Meeting, 0, len(meetings))
	for _, m := range meetings {
		d := UTCDate(m.Start)
		if d.Before(first) || d.After(last) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// DayMeetings keeps the meetings that start on day (UTC calendar day).
func DayMeetings(meetings []model.Meeting, day time.Time) []model.Meeting {
	day = Date(day)
	var out []model.Meeting
	for _, m := range meetings {
		if UTCDate(m.Start).Equal(day) {
			out = append(out, m)
		}
	}
	return out
}

// SlotMeetings keeps the meetings that start on day at hour, both taken
// in UTC. A meeting lives only in its starting cell however long it runs.
func SlotMeetings(meetings []model.Meeting, day time.Time, hour int) []model.Meeting {
	day = Date(day)
	var out []model.Meeting
	for _, m := range meetings {
		if m.Start.UTC().Hour() == hour && UTCDate(m.Start).Equal(day) {
			out = append(out, m)
		}
	}
	return out
}

// HeightUnits is the meeting length in hours; the rendering layer
// multiplies it by its pixels-per-hour.
func HeightUnits(m model.Meeting) float64 {
	return m.Duration().Minutes() / 60
}

type slotKey struct {
	day  time.Time
	hour int
}

// Index groups meetings by UTC day and start hour in a single pass so a
// grid can be filled without rescanning the list per cell.
type Index struct {
	byDay  map[time.Time][]model.Meeting
	bySlot map[slotKey][]model.Meeting
}

func NewIndex(meetings []model.Meeting) *Index {
	idx := &Index{
		byDay:  make(map[time.Time][]model.Meeting),
		bySlot: make(map[slotKey][]model.Meeting),
	}
	for _, m := range meetings {
		d := UTCDate(m.Start)
		idx.byDay[d] = append(idx.byDay[d], m)
		k := slotKey{day: d, hour: m.Start.UTC().Hour()}
		idx.bySlot[k] = append(idx.bySlot[k], m)
	}
	for _, list := range idx.bySlot {
		sortByStart(list)
	}
	for _, list := range idx.byDay {
		sortByStart(list)
	}
	return idx
}

func (idx *Index) Day(day time.Time) []model.Meeting {
	return idx.byDay[Date(day)]
}

func (idx *Index) Slot(day time.Time, hour int) []model.Meeting {
	return idx.bySlot[slotKey{day: Date(day), hour: hour}]
}

// sortByStart orders meetings by start, then id, so cells render the
// same way regardless of fetch order.
func sortByStart(ms []model.Meeting) {
	sort.SliceStable(ms, func(i, j int) bool {
		if !ms[i].Start.Equal(ms[j].Start) {
			return ms[i].Start.Before(ms[j].Start)
		}
		return ms[i].ID < ms[j].ID
	})
}
