package web

import (
	"encoding/json"
	"io"
	"time"

	"meetcal/internal/calendar"
	"meetcal/internal/dashboard"
	"meetcal/internal/model"
)

// viewResponse is the JSON response shape for /api/view.
type viewResponse struct {
	State  stateDTO  `json:"state"`
	View   viewDTO   `json:"view"`
	Status statusDTO `json:"status"`
}

type stateDTO struct {
	Granularity string `json:"granularity"`
	Previous    string `json:"previous"`
	Date        string `json:"date"`
	Anchor      int    `json:"anchor"`
}

type viewDTO struct {
	Granularity string           `json:"granularity"`
	Label       string           `json:"label"`
	RangeStart  time.Time        `json:"range_start"`
	RangeEnd    time.Time        `json:"range_end"`
	Hours       []string         `json:"hours,omitempty"`
	Columns     []columnDTO      `json:"columns,omitempty"`
	Cells       []monthCellDTO   `json:"cells,omitempty"`
	Summary     calendar.Summary `json:"summary"`
	EmptyNotice string           `json:"empty_notice,omitempty"`
}

type columnDTO struct {
	Date  string    `json:"date"`
	Today bool      `json:"today"`
	Slots []slotDTO `json:"slots"`
}

type slotDTO struct {
	Hour     int       `json:"hour"`
	Label    string    `json:"label"`
	Meetings []cardDTO `json:"meetings"`
}

// monthCellDTO has a nil Date for leading blanks.
type monthCellDTO struct {
	Date       *string `json:"date"`
	Today      bool    `json:"today,omitempty"`
	Count      int     `json:"count"`
	CountLabel string  `json:"count_label,omitempty"`
}

type cardDTO struct {
	ID          string    `json:"id"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	TimeLabel   string    `json:"time_label"`
	LeadName    string    `json:"lead_name"`
	LeadEmail   string    `json:"lead_email"`
	LeadPhone   string    `json:"lead_phone,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	Status      string    `json:"status"`
	StatusClass string    `json:"status_class"`
	HeightUnits float64   `json:"height_units"`
	HeightPx    float64   `json:"height_px"`
}

type statusDTO struct {
	Error     string       `json:"error,omitempty"`
	Warnings  []warningDTO `json:"warnings,omitempty"`
	FetchedAt time.Time    `json:"fetched_at"`
}

type warningDTO struct {
	ID    string `json:"id"`
	Field string `json:"field,omitempty"`
	Error string `json:"error"`
}

// detailDTO backs the meeting details panel.
type detailDTO struct {
	ID          string `json:"id"`
	LeadName    string `json:"lead_name"`
	LeadEmail   string `json:"lead_email"`
	LeadPhone   string `json:"lead_phone,omitempty"`
	Date        string `json:"date"`
	TimeLabel   string `json:"time_label"`
	Notes       string `json:"notes,omitempty"`
	Status      string `json:"status"`
	StatusClass string `json:"status_class"`
}

func newViewResponse(v calendar.View, snap *dashboard.Snapshot) viewResponse {
	return viewResponse{
		State:  newStateDTO(v.State),
		View:   newViewDTO(v),
		Status: newStatusDTO(snap),
	}
}

// EncodeView writes v in the /api/view response shape.
func EncodeView(w io.Writer, v calendar.View, snap *dashboard.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(newViewResponse(v, snap))
}

func newStateDTO(s calendar.ViewState) stateDTO {
	return stateDTO{
		Granularity: string(s.Granularity),
		Previous:    string(s.Previous),
		Date:        s.Reference.Format(dateLayout),
		Anchor:      s.AnchorDay,
	}
}

func newViewDTO(v calendar.View) viewDTO {
	out := viewDTO{
		Granularity: string(v.State.Granularity),
		Label:       v.Label,
		RangeStart:  v.Range.Start,
		RangeEnd:    v.Range.End,
		Summary:     v.Summary,
	}
	if v.Empty() {
		out.EmptyNotice = calendar.EmptyNotice(v.State.Granularity)
	}

	for _, h := range v.Hours {
		out.Hours = append(out.Hours, calendar.HourLabel(h))
	}
	for _, col := range v.Columns {
		c := columnDTO{Date: col.Date.Format(dateLayout), Today: col.Today}
		for _, slot := range col.Slots {
			sd := slotDTO{Hour: slot.Hour, Label: calendar.HourLabel(slot.Hour), Meetings: []cardDTO{}}
			for _, p := range slot.Meetings {
				sd.Meetings = append(sd.Meetings, newCardDTO(p))
			}
			c.Slots = append(c.Slots, sd)
		}
		out.Columns = append(out.Columns, c)
	}
	for _, cell := range v.MonthCells {
		if cell.Blank {
			out.Cells = append(out.Cells, monthCellDTO{})
			continue
		}
		d := cell.Date.Format(dateLayout)
		mc := monthCellDTO{Date: &d, Today: cell.Today, Count: len(cell.Meetings)}
		if mc.Count > 0 {
			mc.CountLabel = calendar.CountLabel(mc.Count)
		}
		out.Cells = append(out.Cells, mc)
	}
	return out
}

func newCardDTO(p calendar.Placement) cardDTO {
	m := p.Meeting
	return cardDTO{
		ID:          m.ID,
		Start:       m.Start,
		End:         m.End,
		TimeLabel:   timeLabel(m),
		LeadName:    orDefault(m.LeadName, "Unknown"),
		LeadEmail:   orDefault(m.LeadEmail, "N/A"),
		LeadPhone:   m.LeadPhone,
		Notes:       m.Notes,
		Status:      m.Status.Label(),
		StatusClass: m.Status.StyleClass(),
		HeightUnits: p.HeightUnits,
		HeightPx:    p.HeightPx,
	}
}

func newDetailDTO(m model.Meeting) detailDTO {
	return detailDTO{
		ID:          m.ID,
		LeadName:    orDefault(m.LeadName, "Not provided"),
		LeadEmail:   orDefault(m.LeadEmail, "Not provided"),
		LeadPhone:   m.LeadPhone,
		Date:        m.Start.UTC().Format("Monday, January 2, 2006"),
		TimeLabel:   timeLabel(m),
		Notes:       m.Notes,
		Status:      m.Status.Label(),
		StatusClass: m.Status.StyleClass(),
	}
}

func newStatusDTO(snap *dashboard.Snapshot) statusDTO {
	out := statusDTO{FetchedAt: snap.FetchedAt}
	if snap.Err != nil {
		out.Error = snap.Err.Error()
	}
	for _, w := range snap.Warnings {
		out.Warnings = append(out.Warnings, warningDTO{ID: w.ID, Field: w.Field, Error: w.Err.Error()})
	}
	return out
}

func timeLabel(m model.Meeting) string {
	return calendar.FormatTime(m.Start) + " - " + calendar.FormatTime(m.End)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
