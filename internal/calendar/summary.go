package calendar

import (
	"time"

	"meetcal/internal/model"
)

// Summary mixes scopes: Visible and Confirmed count the visible set,
// Today and Total count every fetched meeting.
type Summary struct {
	Visible   int `json:"visibleCount"`
	Confirmed int `json:"confirmedCount"`
	Today     int `json:"todayCount"`
	Total     int `json:"totalCount"`
}

func Summarize(visible, all []model.Meeting, today time.Time) Summary {
	s := Summary{
		Visible: len(visible),
		Total:   len(all),
	}
	for _, m := range visible {
		if m.Status.Normalized() == model.StatusConfirmed {
			s.Confirmed++
		}
	}
	day := UTCDate(today)
	for _, m := range all {
		if UTCDate(m.Start).Equal(day) {
			s.Today++
		}
	}
	return s
}
