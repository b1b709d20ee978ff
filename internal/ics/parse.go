package ics

import (
	"bytes"
	"errors"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "meetcal/internal/log"
)

// propLeadPhone carries the lead's phone number, which has no standard
// iCalendar property.
const propLeadPhone = "X-LEAD-PHONE"

// ParsedEvent is a VEVENT reduced to what a meeting needs. Recurring
// events keep their raw RRULE; expansion happens in expand.go.
type ParsedEvent struct {
	UID string

	LeadName  string
	LeadEmail string
	LeadPhone string
	Notes     string
	Status    string

	Start  time.Time
	End    time.Time
	AllDay bool

	RawRRule   string
	ExDates    []time.Time
	Recurrence *time.Time // RECURRENCE-ID, set on overrides
}

// IsOverride reports whether the event replaces one recurring instance.
func (ev ParsedEvent) IsOverride() bool { return ev.Recurrence != nil }

// Parse reads every VEVENT in body. Unusable VEVENTs are logged and
// skipped; only an unreadable calendar fails the whole feed.
func Parse(body []byte) ([]ParsedEvent, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errors.New("ics: empty body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	events := make([]ParsedEvent, 0)
	for _, ve := range cal.Events() {
		ev, perr := parseVEvent(ve)
		if perr != nil {
			appLog.Warn("ics vevent skipped", "err", perr.Error())
			continue
		}
		events = append(events, ev)
	}

	appLog.Debug("ics parse completed", "event_count", len(events))
	return events, nil
}

func parseVEvent(ve *ical.VEvent) (ParsedEvent, error) {
	var out ParsedEvent

	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return out, errors.New("missing UID")
	}
	out.UID = uidProp.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.LeadName = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.Notes = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyAttendee); p != nil {
		out.LeadEmail = strings.TrimPrefix(strings.TrimPrefix(p.Value, "mailto:"), "MAILTO:")
		if cn := param(p.ICalParameters, "CN"); cn != "" {
			out.LeadName = cn
		}
	}
	if p := ve.GetProperty(ical.ComponentProperty(propLeadPhone)); p != nil {
		out.LeadPhone = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyStatus); p != nil {
		out.Status = statusFromICS(p.Value)
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return out, errors.New("missing DTSTART")
	}
	out.AllDay = strings.EqualFold(param(dtStart.ICalParameters, "VALUE"), "DATE") ||
		!strings.Contains(dtStart.Value, "T")

	if out.AllDay {
		start, err := parseICSTime(dtStart.Value)
		if err != nil {
			return out, err
		}
		out.Start = start
		out.End = start.AddDate(0, 0, 1)
		if p := ve.GetProperty(ical.ComponentPropertyDtEnd); p != nil {
			if end, err := parseICSTime(p.Value); err == nil {
				out.End = end
			}
		}
	} else {
		// The library resolves TZID/VTIMEZONE for timed values. A missing
		// or broken DTEND leaves End zero and the meeting is rejected
		// downstream with a per-record warning.
		start, err := ve.GetStartAt()
		if err != nil {
			return out, err
		}
		out.Start = start
		if end, err := ve.GetEndAt(); err == nil {
			out.End = end
		}
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RawRRule = p.Value
	}

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := parseICSTime(part); err == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}

	if p := ve.GetProperty(ical.ComponentProperty("RECURRENCE-ID")); p != nil {
		if t, err := parseICSTime(p.Value); err == nil {
			out.Recurrence = &t
		}
	}

	return out, nil
}

func param(params map[string][]string, key string) string {
	if params == nil {
		return ""
	}
	if vs, ok := params[key]; ok && len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// statusFromICS maps VEVENT STATUS onto the dashboard's statuses.
func statusFromICS(v string) string {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "CONFIRMED":
		return "confirmed"
	case "CANCELLED":
		return "cancelled"
	case "TENTATIVE", "":
		return "pending"
	default:
		return strings.ToLower(v)
	}
}

// parseICSTime parses the basic DATE / DATE-TIME forms used by EXDATE
// and RECURRENCE-ID. Floating times are read as UTC.
func parseICSTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}
	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}
	if strings.Contains(v, "T") {
		return time.ParseInLocation("20060102T150405", v, time.UTC)
	}
	return time.ParseInLocation("20060102", v, time.UTC)
}
