package printer

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meetcal/internal/calendar"
	"meetcal/internal/dashboard"
	"meetcal/internal/model"
)

var today = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

func meetings(t *testing.T) []model.Meeting {
	t.Helper()
	ms, warns := model.FromRawList([]model.MeetingRaw{
		{ID: "a", Start: "2024-03-04T15:00:00Z", End: "2024-03-04T15:30:00Z", LeadName: "Ada", Status: "confirmed"},
		{ID: "b", Start: "2024-03-06T09:00:00Z", End: "2024-03-06T10:30:00Z"},
		{ID: "c", Start: "2024-03-20T09:00:00Z", End: "2024-03-20T10:00:00Z", LeadName: "Cy"},
	})
	require.Empty(t, warns)
	return ms
}

func build(t *testing.T, g calendar.Granularity, ms []model.Meeting) calendar.View {
	t.Helper()
	s := calendar.NewViewState(today).Switch(g)
	v, err := calendar.Build(s, ms, calendar.Options{Today: today})
	require.NoError(t, err)
	return v
}

func TestWeekSlots(t *testing.T) {
	var buf bytes.Buffer
	pp := New(&buf, false)
	pp.MaxColWidth = 80

	pp.View(build(t, calendar.Week, meetings(t)), &dashboard.Snapshot{})
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "Mar 3 - Mar 9, 2024\n"))
	assert.Contains(t, out, "Mon Mar 4 *")
	assert.Contains(t, out, "3:00 PM Ada (confirmed, 0.5h)")
	assert.Contains(t, out, "9:00 AM Unknown (pending, 1.5h)")
	assert.NotContains(t, out, "Cy")
	assert.Contains(t, out, "2 this week, 1 confirmed, 1 today, 3 total")
	assert.NotContains(t, out, "\x1b[")

	var fifteen string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "15:00") {
			fifteen = line
		}
	}
	assert.Contains(t, fifteen, "Ada")
}

func TestMonthGrid(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, false).View(build(t, calendar.Month, meetings(t)), nil)
	out := buf.String()

	lines := strings.Split(out, "\n")
	require.GreaterOrEqual(t, len(lines), 4)
	assert.Equal(t, "March 2024", lines[0])
	assert.Equal(t, "Su Mo Tu We Th Fr Sa ", lines[2])
	assert.Equal(t, strings.Repeat("   ", 5)+" 1  2 ", lines[3])

	assert.Contains(t, out, "Wed Mar 6")
	assert.Contains(t, out, "Wed Mar 20")
	assert.Contains(t, out, "1 meeting")
	assert.Contains(t, out, "3 this month, 1 confirmed, 1 today, 3 total")
}

func TestEmptyAndFailures(t *testing.T) {
	var buf bytes.Buffer
	pp := New(&buf, false)

	snap := &dashboard.Snapshot{Warnings: []model.Warning{{ID: "x", Field: "end", Err: model.ErrNonPositiveDuration}}}
	pp.View(build(t, calendar.Day, nil), snap)
	out := buf.String()
	assert.Contains(t, out, "No meetings scheduled today")
	assert.Contains(t, out, "1 meeting(s) could not be shown")
	assert.Contains(t, out, "  x: ")

	buf.Reset()
	pp.View(build(t, calendar.Day, nil), &dashboard.Snapshot{Err: errors.New("API Error: 502")})
	out = buf.String()
	assert.Contains(t, out, "Unable to load meetings: API Error: 502")
	assert.NotContains(t, out, "No meetings scheduled")
}

func TestColorToggle(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, true).View(build(t, calendar.Day, nil), nil)
	assert.Contains(t, buf.String(), "\x1b[")
}
