package ics

import (
	"time"

	ical "github.com/arran4/golang-ical"

	"meetcal/internal/model"
)

const productID = "-//meetcal//dashboard//EN"

// Export renders meetings as a VCALENDAR. stamp is written as DTSTAMP on
// every event so output is reproducible for a given input.
func Export(meetings []model.Meeting, stamp time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	for _, m := range meetings {
		ev := cal.AddEvent(m.ID)
		ev.SetDtStampTime(stamp.UTC())
		ev.SetStartAt(m.Start.UTC())
		ev.SetEndAt(m.End.UTC())

		summary := m.LeadName
		if summary == "" {
			summary = "Meeting"
		}
		ev.SetSummary(summary)
		if m.Notes != "" {
			ev.SetDescription(m.Notes)
		}
		if m.LeadEmail != "" {
			if m.LeadName != "" {
				ev.AddAttendee(m.LeadEmail, ical.WithCN(m.LeadName))
			} else {
				ev.AddAttendee(m.LeadEmail)
			}
		}
		if m.LeadPhone != "" {
			ev.SetProperty(ical.ComponentProperty(propLeadPhone), m.LeadPhone)
		}
		switch m.Status.Normalized() {
		case model.StatusConfirmed:
			ev.SetStatus(ical.ObjectStatusConfirmed)
		case model.StatusCancelled:
			ev.SetStatus(ical.ObjectStatusCancelled)
		case model.StatusPending:
			ev.SetStatus(ical.ObjectStatusTentative)
		}
	}

	return cal.Serialize()
}
