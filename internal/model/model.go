package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrMalformedTime       = errors.New("malformed timestamp")
	ErrNonPositiveDuration = errors.New("end is not after start")
)

// Status is an open enum: values outside the known set are kept as-is
// and rendered with the default style.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// Label is the text shown for the status. An empty status reads as pending.
func (s Status) Label() string {
	if s == "" {
		return string(StatusPending)
	}
	return string(s)
}

// Known reports whether s is one of the statuses the dashboard styles.
func (s Status) Known() bool {
	switch s.Normalized() {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

// Normalized lowercases the status and maps empty to pending.
func (s Status) Normalized() Status {
	if s == "" {
		return StatusPending
	}
	return Status(strings.ToLower(string(s)))
}

// StyleClass returns the CSS class used by the rendering layer.
func (s Status) StyleClass() string {
	if !s.Known() {
		return "status-default"
	}
	return "status-" + string(s.Normalized())
}

// MeetingRaw is the record shape delivered by the meetings endpoint
// ({"data":{"meetings":[...]}}). Timestamps are still unparsed strings.
type MeetingRaw struct {
	ID        string `json:"id"`
	Start     string `json:"start"`
	End       string `json:"end"`
	LeadName  string `json:"leadName,omitempty"`
	LeadEmail string `json:"leadEmail,omitempty"`
	LeadPhone string `json:"leadPhone,omitempty"`
	Notes     string `json:"notes,omitempty"`
	Status    string `json:"status,omitempty"`
}

// Meeting is a validated meeting: Start and End are parsed and End is
// strictly after Start. Meetings are never mutated after construction.
type Meeting struct {
	ID        string
	Start     time.Time
	End       time.Time
	LeadName  string
	LeadEmail string
	LeadPhone string
	Notes     string
	Status    Status
}

// Duration is End - Start.
func (m Meeting) Duration() time.Duration {
	return m.End.Sub(m.Start)
}

// Warning describes a record that was excluded from the view.
type Warning struct {
	ID    string
	Field string
	Err   error
}

func (w Warning) Error() string {
	if w.Field == "" {
		return fmt.Sprintf("meeting %s: %v", w.ID, w.Err)
	}
	return fmt.Sprintf("meeting %s: %s: %v", w.ID, w.Field, w.Err)
}

func (w Warning) Unwrap() error { return w.Err }

// timeLayouts are tried in order. Zone-less forms are read as UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses an ISO 8601 timestamp.
func ParseTimestamp(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrMalformedTime)
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedTime, v)
}

// DerivedID is the stable id given to records that arrive without one.
func DerivedID(r MeetingRaw) string {
	key := strings.TrimSpace(r.Start) + "|" + strings.TrimSpace(r.End) + "|" + strings.TrimSpace(r.LeadEmail)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String()
}

// FromRaw validates a single raw record. Records without an id get one
// derived from their times and lead email, so it survives a refetch.
func FromRaw(r MeetingRaw) (Meeting, error) {
	id := strings.TrimSpace(r.ID)
	if id == "" {
		id = DerivedID(r)
	}

	start, err := ParseTimestamp(r.Start)
	if err != nil {
		return Meeting{}, Warning{ID: id, Field: "start", Err: err}
	}
	end, err := ParseTimestamp(r.End)
	if err != nil {
		return Meeting{}, Warning{ID: id, Field: "end", Err: err}
	}
	if !end.After(start) {
		return Meeting{}, Warning{ID: id, Field: "end", Err: ErrNonPositiveDuration}
	}

	return Meeting{
		ID:        id,
		Start:     start,
		End:       end,
		LeadName:  r.LeadName,
		LeadEmail: r.LeadEmail,
		LeadPhone: r.LeadPhone,
		Notes:     r.Notes,
		Status:    Status(r.Status),
	}, nil
}

// FromRawList validates every record. Bad records are skipped and
// reported as warnings; they never fail the whole list.
func FromRawList(raws []MeetingRaw) ([]Meeting, []Warning) {
	meetings := make([]Meeting, 0, len(raws))
	var warnings []Warning
	for _, r := range raws {
		m, err := FromRaw(r)
		if err != nil {
			var w Warning
			if errors.As(err, &w) {
				warnings = append(warnings, w)
			} else {
				warnings = append(warnings, Warning{ID: r.ID, Err: err})
			}
			continue
		}
		meetings = append(meetings, m)
	}
	return meetings, warnings
}
