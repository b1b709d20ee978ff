package web

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"meetcal/internal/calendar"
)

const dateLayout = "2006-01-02"

// Navigation operations accepted in the "op" query parameter.
const (
	opNext     = "next"
	opPrevious = "previous"
	opToday    = "today"
	opSwitch   = "switch"
	opDrill    = "drill"
	opReturn   = "return"
)

// stateFromQuery decodes the view state carried in the query string and
// applies the requested navigation op. Missing fields take the values of
// a fresh dashboard.
func stateFromQuery(q url.Values, today time.Time) (calendar.ViewState, error) {
	s := calendar.NewViewState(today)

	if v := q.Get("granularity"); v != "" {
		g, err := calendar.ParseGranularity(v)
		if err != nil {
			return s, err
		}
		s.Granularity = g
	}
	if v := q.Get("previous"); v != "" {
		g, err := calendar.ParseGranularity(v)
		if err != nil {
			return s, err
		}
		s.Previous = g
	}
	if v := q.Get("date"); v != "" {
		d, err := time.Parse(dateLayout, v)
		if err != nil {
			return s, fmt.Errorf("invalid date %q", v)
		}
		s.Reference = d
		s.AnchorDay = d.Day()
	}
	s.AnchorDay = parseIntDefault(q.Get("anchor"), s.AnchorDay)

	switch op := q.Get("op"); op {
	case "":
	case opNext:
		s = s.Next()
	case opPrevious:
		s = s.Prev()
	case opToday:
		s = s.Today(today)
	case opSwitch:
		g, err := calendar.ParseGranularity(q.Get("to"))
		if err != nil {
			return s, err
		}
		s = s.Switch(g)
	case opDrill:
		d, err := time.Parse(dateLayout, q.Get("day"))
		if err != nil {
			return s, errors.New("drill requires day=YYYY-MM-DD")
		}
		s = s.DrillDown(d)
	case opReturn:
		s = s.Return()
	default:
		return s, fmt.Errorf("unknown op %q", op)
	}
	return s, nil
}

// stateQuery encodes s so that a link reproduces it; extra pairs are
// appended (e.g. "op", "next").
func stateQuery(s calendar.ViewState, extra ...string) string {
	q := url.Values{}
	q.Set("granularity", string(s.Granularity))
	q.Set("previous", string(s.Previous))
	q.Set("date", s.Reference.Format(dateLayout))
	q.Set("anchor", strconv.Itoa(s.AnchorDay))
	for i := 0; i+1 < len(extra); i += 2 {
		q.Set(extra[i], extra[i+1])
	}
	return q.Encode()
}
