package httpcaller

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallSucceedsOn200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := New()
	resp, err := c.Call(context.Background(), Request{Method: "GET", URL: srv.URL}, Options{Retries: 2, RetryDelay: time.Millisecond})
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status)
}

func TestCallRetriesOn500ThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New()
	resp, err := c.Call(context.Background(), Request{Method: "GET", URL: srv.URL}, Options{Retries: 5, RetryDelay: time.Millisecond})
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, int32(3), calls)
}

func TestCallFailsNonRetryableOn400(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := New()
	_, err := c.Call(context.Background(), Request{Method: "GET", URL: srv.URL}, Options{Retries: 5, RetryDelay: time.Millisecond})
	require.Error(t, err)
	httpErr, ok := err.(*HttpError)
	require.True(t, ok)
	assert.Equal(t, 400, httpErr.Status)
}

func TestCall429ExceedsRetryAfterCapFailsNonRetryably(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "120")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := New()
	_, err := c.Call(context.Background(), Request{Method: "GET", URL: srv.URL}, Options{Retries: 5, RetryDelay: time.Millisecond, RetryAfterCap: 60 * time.Second})
	require.Error(t, err)
}

func TestCallRejectsHTMLBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("<!doctype html><html></html>"))
	}))
	defer srv.Close()

	c := New()
	_, err := c.Call(context.Background(), Request{Method: "GET", URL: srv.URL}, Options{Retries: 0, RetryDelay: time.Millisecond})
	require.Error(t, err)
	_, ok := err.(*HtmlInsteadOfJsonError)
	assert.True(t, ok)
}

func TestCallRejectsBodyWithErrorField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"error":"bad input"}`))
	}))
	defer srv.Close()

	c := New()
	_, err := c.Call(context.Background(), Request{Method: "GET", URL: srv.URL}, Options{Retries: 0, RetryDelay: time.Millisecond})
	require.Error(t, err)
}
