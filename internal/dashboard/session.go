// Package dashboard holds the meeting snapshot of one dashboard session.
//
// Meetings are fetched once when the session is first used. A refresh
// replaces the snapshot wholesale; there is no incremental merge and no
// background polling.
package dashboard

import (
	"context"
	"sync"
	"time"

	"meetcal/internal/calendar"
	appLog "meetcal/internal/log"
	"meetcal/internal/model"
)

// Source is the meeting boundary: a REST client or an ICS feed.
type Source interface {
	FetchMeetings(ctx context.Context) ([]model.MeetingRaw, error)
}

// Snapshot is an immutable view of the last fetch. On failure Meetings is
// empty and Err carries the reason so the page can offer a retry.
type Snapshot struct {
	Meetings  []model.Meeting
	Warnings  []model.Warning
	Err       error
	FetchedAt time.Time
}

// Find returns the meeting with id.
func (s *Snapshot) Find(id string) (model.Meeting, bool) {
	for _, m := range s.Meetings {
		if m.ID == id {
			return m, true
		}
	}
	return model.Meeting{}, false
}

type Session struct {
	src Source
	now func() time.Time

	mu       sync.RWMutex
	snapshot *Snapshot
	loadOnce sync.Once
}

func NewSession(src Source, now func() time.Time) *Session {
	if now == nil {
		now = time.Now
	}
	return &Session{src: src, now: now}
}

// Snapshot returns the current snapshot, fetching it on first use. The
// first fetch outlives cancellation of the caller that triggered it.
func (s *Session) Snapshot(ctx context.Context) *Snapshot {
	s.loadOnce.Do(func() {
		s.store(s.fetch(context.WithoutCancel(ctx)))
	})
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Refresh fetches again and replaces the snapshot.
func (s *Session) Refresh(ctx context.Context) *Snapshot {
	// Make sure a concurrent first load cannot overwrite this refresh.
	s.loadOnce.Do(func() {})
	snap := s.fetch(ctx)
	s.store(snap)
	return snap
}

func (s *Session) store(snap *Snapshot) {
	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()
}

func (s *Session) fetch(ctx context.Context) *Snapshot {
	snap := &Snapshot{FetchedAt: s.now()}
	if s.src == nil {
		return snap
	}

	raws, err := s.src.FetchMeetings(ctx)
	if err != nil {
		appLog.Error("meetings fetch failed", err)
		snap.Err = err
		snap.Meetings = []model.Meeting{}
		return snap
	}

	snap.Meetings, snap.Warnings = model.FromRawList(raws)
	for _, w := range snap.Warnings {
		appLog.Warn("meeting excluded", "id", w.ID, "field", w.Field, "err", w.Err.Error())
	}
	appLog.Info("meetings snapshot ready",
		"count", len(snap.Meetings),
		"warnings", len(snap.Warnings),
	)
	return snap
}

// View builds the calendar view for state over the current snapshot.
func (s *Session) View(ctx context.Context, state calendar.ViewState, opts calendar.Options) (calendar.View, *Snapshot, error) {
	snap := s.Snapshot(ctx)
	v, err := calendar.Build(state, snap.Meetings, opts)
	return v, snap, err
}
