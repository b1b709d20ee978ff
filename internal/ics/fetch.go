package ics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	appLog "meetcal/internal/log"
)

// validators remembers the last body served for the feed URL together
// with its ETag / Last-Modified, so a refresh can be a conditional GET.
type validators struct {
	mu           sync.Mutex
	etag         string
	lastModified string
	body         []byte
}

func (v *validators) apply(req *http.Request) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.body) == 0 {
		return
	}
	if v.etag != "" {
		req.Header.Set("If-None-Match", v.etag)
	}
	if v.lastModified != "" {
		req.Header.Set("If-Modified-Since", v.lastModified)
	}
}

func (v *validators) store(resp *http.Response, body []byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.etag = resp.Header.Get("ETag")
	v.lastModified = resp.Header.Get("Last-Modified")
	v.body = body
}

func (v *validators) cached() []byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.body
}

// fetchURL downloads the feed. A 304 reuses the body of the previous
// fetch; every other failure is returned to the caller.
func (f *Feed) fetchURL(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, err
	}
	f.validators.apply(req)

	appLog.Debug("ics fetch start", "url", redactURL(f.url))

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ics: fetch feed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		f.validators.store(resp, body)
		appLog.Info("ics feed fetched", "url", redactURL(f.url), "bytes", len(body))
		return body, nil

	case http.StatusNotModified:
		body := f.validators.cached()
		if len(body) == 0 {
			return nil, errors.New("ics: 304 Not Modified but no previous body")
		}
		appLog.Info("ics feed not modified", "url", redactURL(f.url))
		return body, nil

	default:
		return nil, fmt.Errorf("ics: fetch feed: %s", resp.Status)
	}
}

// redactURL keeps scheme and host only; feed URLs often embed secrets.
func redactURL(u string) string {
	const redactedSuffix = "/...(redacted)"

	i := -1
	for idx := 0; idx+2 < len(u); idx++ {
		if u[idx:idx+3] == "://" {
			i = idx + 3
			break
		}
	}
	if i == -1 {
		return "ics://...(redacted)"
	}

	j := i
	for j < len(u) && u[j] != '/' {
		j++
	}
	return u[:j] + redactedSuffix
}
