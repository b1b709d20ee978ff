package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meetcal/internal/calendar"
	"meetcal/internal/model"
)

type fakeSource struct {
	mu    sync.Mutex
	calls int
	raws  []model.MeetingRaw
	err   error
}

func (f *fakeSource) FetchMeetings(ctx context.Context) ([]model.MeetingRaw, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.raws, nil
}

func fixedNow() time.Time { return time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC) }

func TestSnapshotFetchesOnce(t *testing.T) {
	src := &fakeSource{raws: []model.MeetingRaw{
		{ID: "a", Start: "2024-03-04T15:00:00Z", End: "2024-03-04T15:30:00Z"},
		{ID: "bad", Start: "2024-03-04T15:00:00Z", End: "2024-03-04T14:00:00Z"},
	}}
	s := NewSession(src, fixedNow)

	first := s.Snapshot(context.Background())
	second := s.Snapshot(context.Background())

	assert.Equal(t, 1, src.calls)
	assert.Same(t, first, second)
	require.Len(t, first.Meetings, 1)
	require.Len(t, first.Warnings, 1)
	assert.Equal(t, "bad", first.Warnings[0].ID)
	assert.Equal(t, fixedNow(), first.FetchedAt)

	m, ok := first.Find("a")
	assert.True(t, ok)
	assert.Equal(t, "a", m.ID)
	_, ok = first.Find("missing")
	assert.False(t, ok)
}

func TestRefreshReplacesSnapshot(t *testing.T) {
	src := &fakeSource{raws: []model.MeetingRaw{
		{ID: "a", Start: "2024-03-04T15:00:00Z", End: "2024-03-04T15:30:00Z"},
	}}
	s := NewSession(src, fixedNow)
	old := s.Snapshot(context.Background())

	src.raws = []model.MeetingRaw{
		{ID: "b", Start: "2024-03-05T15:00:00Z", End: "2024-03-05T15:30:00Z"},
	}
	fresh := s.Refresh(context.Background())

	assert.Equal(t, 2, src.calls)
	assert.Equal(t, "a", old.Meetings[0].ID)
	require.Len(t, fresh.Meetings, 1)
	assert.Equal(t, "b", fresh.Meetings[0].ID)
	assert.Same(t, fresh, s.Snapshot(context.Background()))
}

func TestFirstLoadIgnoresCallerCancellation(t *testing.T) {
	src := &fakeSource{raws: []model.MeetingRaw{
		{ID: "a", Start: "2024-03-04T15:00:00Z", End: "2024-03-04T15:30:00Z"},
	}}
	s := NewSession(src, fixedNow)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	snap := s.Snapshot(ctx)

	assert.NoError(t, snap.Err)
	require.Len(t, snap.Meetings, 1)
	assert.Same(t, snap, s.Snapshot(context.Background()))
	assert.Equal(t, 1, src.calls)
}

func TestRefreshBeforeFirstUse(t *testing.T) {
	src := &fakeSource{}
	s := NewSession(src, fixedNow)

	s.Refresh(context.Background())
	s.Snapshot(context.Background())
	assert.Equal(t, 1, src.calls)
}

func TestFetchFailureDegradesToEmpty(t *testing.T) {
	src := &fakeSource{err: errors.New("connection refused")}
	s := NewSession(src, fixedNow)

	v, snap, err := s.View(context.Background(), calendar.NewViewState(fixedNow()), calendar.Options{Today: fixedNow()})
	require.NoError(t, err)
	assert.EqualError(t, snap.Err, "connection refused")
	assert.NotNil(t, snap.Meetings)
	assert.True(t, v.Empty())
	assert.Len(t, v.Columns, 7)

	src.err = nil
	src.raws = []model.MeetingRaw{{ID: "a", Start: "2024-03-04T15:00:00Z", End: "2024-03-04T15:30:00Z"}}
	snap = s.Refresh(context.Background())
	assert.NoError(t, snap.Err)
	assert.Len(t, snap.Meetings, 1)
}

func TestNilSource(t *testing.T) {
	s := NewSession(nil, nil)
	snap := s.Snapshot(context.Background())
	assert.NoError(t, snap.Err)
	assert.Empty(t, snap.Meetings)
}
