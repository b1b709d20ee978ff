package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchMeetings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/meetings", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"meetings":[
			{"id":"1","start":"2024-03-04T15:00:00Z","end":"2024-03-04T15:30:00Z","leadName":"Ada","leadEmail":"ada@example.com","status":"confirmed"},
			{"id":"2","start":"2024-03-05T09:00:00Z","end":"2024-03-05T10:00:00Z","leadPhone":"555-0100","notes":"intro"}
		]}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/api/", "tok", time.Second)
	got, err := c.FetchMeetings(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Ada", got[0].LeadName)
	assert.Equal(t, "confirmed", got[0].Status)
	assert.Equal(t, "555-0100", got[1].LeadPhone)
	assert.Equal(t, "intro", got[1].Notes)
}

func TestFetchMeetingsMissingData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	got, err := NewClient(srv.URL, "", 0).FetchMeetings(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFetchMeetingsErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Not authorized"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "", time.Second).FetchMeetings(context.Background())
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.Code)
	assert.Equal(t, "Not authorized", err.Error())
}

func TestFetchMeetingsErrorWithoutMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "", time.Second).FetchMeetings(context.Background())
	require.Error(t, err)
	assert.Equal(t, "API Error: 502", err.Error())
}

func TestFetchMeetingsBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "", time.Second).FetchMeetings(context.Background())
	assert.ErrorContains(t, err, "decode meetings")
}

func TestFetchMeetingsTransportError(t *testing.T) {
	_, err := NewClient("http://127.0.0.1:1", "", time.Second).FetchMeetings(context.Background())
	assert.Error(t, err)

	_, err = NewClient("", "", time.Second).FetchMeetings(context.Background())
	assert.Error(t, err)
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "https://api.example.com/...(redacted)", redactURL("https://api.example.com/api?token=x"))
	assert.Equal(t, "https://api.example.com", redactURL("https://api.example.com"))
	assert.Equal(t, "...(redacted)", redactURL("not a url"))
}
