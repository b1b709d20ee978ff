package ics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"meetcal/internal/model"
)

// Feed serves meetings from an iCalendar file or URL, as an alternative
// to the REST meetings endpoint.
type Feed struct {
	client *http.Client
	url    string
	path   string

	validators validators

	backfill time.Duration
	horizon  time.Duration
	now      func() time.Time
}

// FeedOptions configures a Feed. Path wins over URL when both are set.
type FeedOptions struct {
	URL          string
	Path         string
	BackfillDays int
	HorizonDays  int
	Timeout      time.Duration
	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

func NewFeed(opts FeedOptions) *Feed {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Feed{
		client:   &http.Client{Timeout: opts.Timeout},
		url:      opts.URL,
		path:     opts.Path,
		backfill: time.Duration(opts.BackfillDays) * 24 * time.Hour,
		horizon:  time.Duration(opts.HorizonDays) * 24 * time.Hour,
		now:      opts.Now,
	}
}

// FetchMeetings reads the feed once and expands recurrences around now.
func (f *Feed) FetchMeetings(ctx context.Context) ([]model.MeetingRaw, error) {
	body, err := f.read(ctx)
	if err != nil {
		return nil, err
	}
	events, err := Parse(body)
	if err != nil {
		return nil, fmt.Errorf("ics: parse feed: %w", err)
	}

	now := f.now().UTC()
	return Expand(events, Window{
		Start: now.Add(-f.backfill),
		End:   now.Add(f.horizon),
	})
}

func (f *Feed) read(ctx context.Context) ([]byte, error) {
	if f.path != "" {
		return os.ReadFile(f.path)
	}
	if f.url == "" {
		return nil, errors.New("ics: neither path nor url configured")
	}

	return f.fetchURL(ctx)
}
