package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	appLog "meetcal/internal/log"
	"meetcal/internal/model"
)

// meetingsPath is appended to the API base URL.
const meetingsPath = "/meetings"

// maxBodyBytes caps the meetings response we are willing to buffer.
const maxBodyBytes = 16 << 20

// Client talks to the scheduling backend's REST API.
type Client struct {
	client  *http.Client
	baseURL string
	token   string
}

// NewClient creates a client for baseURL (e.g. "http://localhost:5000/api").
// A non-empty token is sent as "Authorization: Bearer <token>".
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}
}

// meetingsEnvelope is the response body of GET /meetings.
type meetingsEnvelope struct {
	Data struct {
		Meetings []model.MeetingRaw `json:"meetings"`
	} `json:"data"`
	Message string `json:"message,omitempty"`
}

// FetchMeetings issues a single GET for every meeting visible to the
// caller. There is no retry: a failure is returned as-is for the caller
// to surface.
func (c *Client) FetchMeetings(ctx context.Context) ([]model.MeetingRaw, error) {
	if c.baseURL == "" {
		return nil, errors.New("api: base URL is empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+meetingsPath, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	appLog.Info("meetings fetch start", "url", redactURL(c.baseURL))

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api: fetch meetings: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("api: read meetings: %w", err)
	}

	var env meetingsEnvelope
	decodeErr := json.Unmarshal(body, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// The backend puts a human-readable reason in "message".
		if decodeErr == nil && env.Message != "" {
			return nil, &StatusError{Code: resp.StatusCode, Message: env.Message}
		}
		return nil, &StatusError{Code: resp.StatusCode, Message: fmt.Sprintf("API Error: %d", resp.StatusCode)}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("api: decode meetings: %w", decodeErr)
	}

	meetings := env.Data.Meetings
	if meetings == nil {
		meetings = []model.MeetingRaw{}
	}
	appLog.Info("meetings fetch success", "url", redactURL(c.baseURL), "count", len(meetings))
	return meetings, nil
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return e.Message
}

// redactURL keeps scheme and host only, so tokens in paths or queries
// never reach the logs.
func redactURL(u string) string {
	const redactedSuffix = "/...(redacted)"

	i := strings.Index(u, "://")
	if i == -1 {
		return "...(redacted)"
	}
	rest := u[i+3:]
	if j := strings.IndexByte(rest, '/'); j != -1 {
		return u[:i+3+j] + redactedSuffix
	}
	return u
}
