package ics

import (
	"errors"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	appLog "meetcal/internal/log"
	"meetcal/internal/model"
)

const defaultMaxOccurrencesPerEvent = 5000

// Window bounds recurrence expansion. Non-recurring events are kept
// regardless of the window; the calendar engine does its own filtering.
type Window struct {
	Start time.Time
	End   time.Time

	// MaxOccurrencesPerEvent caps a single RRULE. Zero means the default.
	MaxOccurrencesPerEvent int
}

// Expand turns parsed events into meeting records. Recurring events are
// expanded within w, EXDATEs are removed and RECURRENCE-ID overrides
// replace the instance they name.
func Expand(events []ParsedEvent, w Window) ([]model.MeetingRaw, error) {
	if w.End.Before(w.Start) {
		return nil, errors.New("ics: window end is before start")
	}
	if w.MaxOccurrencesPerEvent <= 0 {
		w.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	overrides := make(map[string][]ParsedEvent)
	var bases []ParsedEvent
	for _, ev := range events {
		if ev.IsOverride() {
			overrides[ev.UID] = append(overrides[ev.UID], ev)
			continue
		}
		bases = append(bases, ev)
	}

	out := make([]model.MeetingRaw, 0, len(bases))
	for _, ev := range bases {
		if ev.RawRRule == "" {
			out = append(out, toRaw(ev, ev.UID))
			continue
		}
		occ, hitCap := expandRecurring(ev, overrides[ev.UID], w)
		if hitCap {
			appLog.Warn("ics recurrence truncated", "uid", ev.UID, "cap", w.MaxOccurrencesPerEvent)
		}
		out = append(out, occ...)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func expandRecurring(ev ParsedEvent, overrides []ParsedEvent, w Window) ([]model.MeetingRaw, bool) {
	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		appLog.Warn("ics rrule rejected", "uid", ev.UID, "rrule", ev.RawRRule, "err", err.Error())
		return nil, false
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	starts := set.Between(w.Start.In(ev.Start.Location()), w.End.In(ev.Start.Location()), true)
	hitCap := false
	if len(starts) > w.MaxOccurrencesPerEvent {
		starts = starts[:w.MaxOccurrencesPerEvent]
		hitCap = true
	}

	dur := ev.End.Sub(ev.Start)
	out := make([]model.MeetingRaw, 0, len(starts))
	for _, s := range starts {
		inst := ev
		inst.Start = s
		inst.End = s.Add(dur)
		if o, ok := findOverride(overrides, s); ok {
			inst = o
		}
		out = append(out, toRaw(inst, ev.UID+"/"+s.UTC().Format("20060102T150405Z")))
	}
	return out, hitCap
}

func findOverride(overrides []ParsedEvent, start time.Time) (ParsedEvent, bool) {
	for _, ov := range overrides {
		if ov.Recurrence != nil && ov.Recurrence.Equal(start) {
			return ov, true
		}
	}
	return ParsedEvent{}, false
}

func toRaw(ev ParsedEvent, id string) model.MeetingRaw {
	return model.MeetingRaw{
		ID:        id,
		Start:     formatTime(ev.Start),
		End:       formatTime(ev.End),
		LeadName:  ev.LeadName,
		LeadEmail: ev.LeadEmail,
		LeadPhone: ev.LeadPhone,
		Notes:     ev.Notes,
		Status:    ev.Status,
	}
}

// formatTime renders RFC 3339 in UTC; a zero time becomes "" so the
// record is rejected with a warning rather than placed at year 1.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
