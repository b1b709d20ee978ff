package calendar

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meetcal/internal/model"
)

func meeting(t *testing.T, id, start, end, status string) model.Meeting {
	t.Helper()
	m, err := model.FromRaw(model.MeetingRaw{ID: id, Start: start, End: end, Status: status})
	require.NoError(t, err)
	return m
}

func ids(ms []model.Meeting) []string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.ID)
	}
	return out
}

func TestBucketUsesUTCDay(t *testing.T) {
	meetings := []model.Meeting{
		meeting(t, "before", "2024-03-02T23:59:00Z", "2024-03-03T00:30:00Z", ""),
		meeting(t, "first", "2024-03-03T00:00:00Z", "2024-03-03T01:00:00Z", ""),
		// 20:00 in New York on Mar 9 is already Mar 10 in UTC.
		meeting(t, "shifted", "2024-03-09T20:00:00-05:00", "2024-03-09T21:00:00-05:00", ""),
		meeting(t, "last", "2024-03-09T23:59:59Z", "2024-03-10T00:30:00Z", ""),
		meeting(t, "after", "2024-03-10T00:00:00Z", "2024-03-10T01:00:00Z", ""),
	}
	r := MustComputeRange(day(2024, 3, 4), Week, time.Sunday)

	assert.Equal(t, []string{"first", "last"}, ids(Bucket(meetings, r)))
}

func TestBucketDoesNotMutateInput(t *testing.T) {
	meetings := []model.Meeting{
		meeting(t, "b", "2024-03-05T10:00:00Z", "2024-03-05T11:00:00Z", ""),
		meeting(t, "a", "2024-03-04T10:00:00Z", "2024-03-04T11:00:00Z", ""),
	}
	before := append([]model.Meeting(nil), meetings...)

	r := MustComputeRange(day(2024, 3, 4), Week, time.Sunday)
	_ = Bucket(meetings, r)
	_ = NewIndex(meetings)

	assert.Equal(t, before, meetings)
}

func TestBucketEmpty(t *testing.T) {
	r := MustComputeRange(day(2024, 3, 4), Month, time.Sunday)
	assert.Empty(t, Bucket(nil, r))
}

func TestSlotMeetingsOnlyInStartCell(t *testing.T) {
	long := meeting(t, "long", "2024-03-04T15:20:00Z", "2024-03-04T18:00:00Z", "")
	meetings := []model.Meeting{long}

	for h := 0; h < 24; h++ {
		got := SlotMeetings(meetings, day(2024, 3, 4), h)
		if h == 15 {
			assert.Equal(t, []string{"long"}, ids(got))
			continue
		}
		assert.Empty(t, got, "hour %d", h)
	}
	assert.Empty(t, SlotMeetings(meetings, day(2024, 3, 5), 15))
	assert.Equal(t, []string{"long"}, ids(DayMeetings(meetings, day(2024, 3, 4))))
}

func TestIndexMatchesFilters(t *testing.T) {
	meetings := []model.Meeting{
		meeting(t, "m2", "2024-03-04T09:30:00Z", "2024-03-04T10:00:00Z", ""),
		meeting(t, "m1", "2024-03-04T09:00:00Z", "2024-03-04T09:30:00Z", ""),
		meeting(t, "m3", "2024-03-05T09:00:00+01:00", "2024-03-05T10:00:00+01:00", ""),
	}
	idx := NewIndex(meetings)

	assert.Equal(t, []string{"m1", "m2"}, ids(idx.Slot(day(2024, 3, 4), 9)))
	assert.Equal(t, []string{"m3"}, ids(idx.Slot(day(2024, 3, 5), 8)))
	assert.Empty(t, idx.Slot(day(2024, 3, 5), 9))
	assert.Len(t, idx.Day(day(2024, 3, 4)), 2)
	assert.ElementsMatch(t, ids(SlotMeetings(meetings, day(2024, 3, 4), 9)), ids(idx.Slot(day(2024, 3, 4), 9)))
}

func TestHeightUnits(t *testing.T) {
	assert.InDelta(t, 0.5, HeightUnits(meeting(t, "a", "2024-03-04T15:00:00Z", "2024-03-04T15:30:00Z", "")), 1e-9)
	assert.InDelta(t, 24.0, HeightUnits(meeting(t, "b", "2024-03-04T15:00:00Z", "2024-03-05T15:00:00Z", "")), 1e-9)
	assert.InDelta(t, 1.75, HeightUnits(meeting(t, "c", "2024-03-04T15:00:00Z", "2024-03-04T16:45:00Z", "")), 1e-9)
}

func TestMalformedRecordsNeverReachBuckets(t *testing.T) {
	raws := []model.MeetingRaw{
		{ID: "good", Start: "2024-03-04T15:00:00Z", End: "2024-03-04T16:00:00Z"},
		{ID: "reversed", Start: "2024-03-04T15:00:00Z", End: "2024-03-04T14:00:00Z"},
		{ID: "garbage", Start: "soon", End: "later"},
	}
	meetings, warnings := model.FromRawList(raws)
	assert.Len(t, warnings, 2)

	r := MustComputeRange(day(2024, 3, 4), Week, time.Sunday)
	assert.Equal(t, []string{"good"}, ids(Bucket(meetings, r)))
	assert.Equal(t, []string{"good"}, ids(SlotMeetings(meetings, day(2024, 3, 4), 15)))
}

func TestSummarize(t *testing.T) {
	all := []model.Meeting{
		meeting(t, "a", "2024-03-04T15:00:00Z", "2024-03-04T15:30:00Z", "confirmed"),
		meeting(t, "b", "2024-03-04T16:00:00Z", "2024-03-04T16:30:00Z", "pending"),
		meeting(t, "c", "2024-04-20T16:00:00Z", "2024-04-20T16:30:00Z", "confirmed"),
		meeting(t, "d", "2024-04-20T18:00:00Z", "2024-04-20T18:30:00Z", "cancelled"),
	}
	r := MustComputeRange(day(2024, 3, 4), Week, time.Sunday)
	visible := Bucket(all, r)

	// Today falls outside the visible week: todayCount still counts it.
	s := Summarize(visible, all, day(2024, 4, 20))
	assert.Equal(t, Summary{Visible: 2, Confirmed: 1, Today: 2, Total: 4}, s)
}

func TestSummarizeTodayIsUTCDay(t *testing.T) {
	kiritimati, err := time.LoadLocation("Pacific/Kiritimati")
	require.NoError(t, err)

	all := []model.Meeting{
		meeting(t, "a", "2024-03-04T15:00:00Z", "2024-03-04T15:30:00Z", "Confirmed"),
		meeting(t, "b", "2024-03-05T01:00:00Z", "2024-03-05T01:30:00Z", "CONFIRMED"),
	}
	// 12:00 UTC on Mar 4 is already Mar 5 on Kiritimati wall clocks.
	now := time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC).In(kiritimati)

	s := Summarize(all, all, now)
	assert.Equal(t, 1, s.Today)
	assert.Equal(t, 2, s.Confirmed)
}
