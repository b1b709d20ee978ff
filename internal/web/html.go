package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"meetcal/internal/calendar"
	appLog "meetcal/internal/log"
)

//go:embed templates/*.html
var templateFS embed.FS

var dashboardTmpl = template.Must(
	template.New("dashboard.html").Funcs(template.FuncMap{
		"deref":      func(s *string) string { return *s },
		"dayOfMonth": func(d string) string { return formatDate(d, "2") },
		"weekday":    func(d string) string { return formatDate(d, "Mon") },
		"px":         func(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) + "px" },
	}).ParseFS(templateFS, "templates/dashboard.html"),
)

// pageData feeds templates/dashboard.html.
type pageData struct {
	State       calendar.ViewState
	ICSLink     string
	RefreshLink string
	View        viewDTO
	Status      statusDTO
	Updated     string
	Month       bool
	Day         bool
	PeriodName  string
	Weekdays    []string
	Link        func(extra ...string) string
	Views       []calendar.Granularity
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	state, err := stateFromQuery(q, s.today())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	v, snap, err := s.session.View(r.Context(), state, s.options(q))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	data := pageData{
		State:       state,
		ICSLink:     "/calendar.ics?" + stateQuery(state),
		RefreshLink: "/refresh?" + stateQuery(state),
		View:        newViewDTO(v),
		Status:      newStatusDTO(snap),
		Updated:     snap.FetchedAt.In(s.loc).Format("Jan 2, 15:04 MST"),
		Month:       state.Granularity == calendar.Month,
		Day:         state.Granularity == calendar.Day,
		PeriodName:  calendar.PeriodName(state.Granularity),
		Weekdays:    weekdayHeaders(s.cfg.Weekday()),
		Link:        func(extra ...string) string { return "/?" + stateQuery(state, extra...) },
		Views:       []calendar.Granularity{calendar.Day, calendar.Week, calendar.Month},
	}

	var buf bytes.Buffer
	if err := dashboardTmpl.Execute(&buf, data); err != nil {
		appLog.Error("dashboard render failed", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// handleRefreshForm is the retry button of the HTML page.
func (s *Server) handleRefreshForm(w http.ResponseWriter, r *http.Request) {
	s.session.Refresh(r.Context())
	target := "/"
	if q := r.URL.RawQuery; q != "" {
		target += "?" + q
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func formatDate(d, layout string) string {
	t, err := time.Parse(dateLayout, d)
	if err != nil {
		return d
	}
	return t.Format(layout)
}

func weekdayHeaders(start time.Weekday) []string {
	names := []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	out := make([]string, 0, 7)
	for i := 0; i < 7; i++ {
		out = append(out, names[(int(start)+i)%7])
	}
	return out
}
