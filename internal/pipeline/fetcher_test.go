package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/narrtl/internal/model"
)

func testHTTPConfig(robots bool) model.HTTPConfig {
	return model.HTTPConfig{
		Timeout:       5 * time.Second,
		UserAgent:     "narrtl-test/1.0",
		MaxBodyBytes:  1 << 20,
		RespectRobots: robots,
	}
}

func noSleep(t *testing.T) {
	orig := fetchSleepFunc
	fetchSleepFunc = func(time.Duration) {}
	t.Cleanup(func() { fetchSleepFunc = orig })
}

func TestFetch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "narrtl-test/1.0", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/plain")
		_, _ = fmt.Fprint(w, "Mary went to the store.")
	}))
	defer server.Close()

	res, err := NewFetcher(testHTTPConfig(false), nil).Fetch(context.Background(), server.URL+"/stories/a_trip.txt")
	require.NoError(t, err)
	assert.Equal(t, "Mary went to the store.", res.Body)
	assert.Equal(t, "a trip", res.Subject)
	assert.Equal(t, "text/plain", res.ContentType)
}

func TestFetch_TransientThenSuccess(t *testing.T) {
	noSleep(t)
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = fmt.Fprint(w, "OK")
	}))
	defer server.Close()

	res, err := NewFetcher(testHTTPConfig(false), nil).Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "OK", res.Body)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestFetch_PermanentFailureNotRetried(t *testing.T) {
	noSleep(t)
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewFetcher(testHTTPConfig(false), nil).Fetch(context.Background(), server.URL)
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
	assert.Equal(t, "unexpected status: 404 Not Found", err.Error())
	assert.Equal(t, int32(1), attempts.Load())
}

func TestFetch_RetriesExhausted(t *testing.T) {
	noSleep(t)
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := NewFetcher(testHTTPConfig(false), nil).Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, int32(maxFetchTries), attempts.Load())
}

func TestFetch_RobotsDisallowed(t *testing.T) {
	var pageHits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = fmt.Fprint(w, "User-agent: *\nDisallow: /private/\n")
			return
		}
		pageHits.Add(1)
		_, _ = fmt.Fprint(w, "Mary went to the store.")
	}))
	defer server.Close()

	f := NewFetcher(testHTTPConfig(true), nil)
	_, err := f.Fetch(context.Background(), server.URL+"/private/story.txt")
	assert.ErrorIs(t, err, ErrDisallowed)
	assert.Zero(t, pageHits.Load())

	res, err := f.Fetch(context.Background(), server.URL+"/public/story.txt")
	require.NoError(t, err)
	assert.Equal(t, "Mary went to the store.", res.Body)
}

func TestFetch_MissingRobotsAllows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		_, _ = fmt.Fprint(w, "OK")
	}))
	defer server.Close()

	_, err := NewFetcher(testHTTPConfig(true), nil).Fetch(context.Background(), server.URL+"/story")
	assert.NoError(t, err)
}

func TestSubjectOf(t *testing.T) {
	tests := map[string]string{
		"https://example.com/stories/my_grandmother-story.html": "my grandmother story",
		"https://example.com/":                                  "example.com",
		"/tmp/narratives/family.txt":                            "family",
		"notes":                                                 "notes",
	}
	for in, want := range tests {
		assert.Equal(t, want, subjectOf(in), in)
	}
}

func TestProductToken(t *testing.T) {
	assert.Equal(t, "narrtl", productToken("narrtl/0.1 (+https://example.com)"))
	assert.Equal(t, "", productToken(""))
}

func TestFetch_ThroughConfiguredProxy(t *testing.T) {
	for _, k := range []string{"HTTP_PROXY", "http_proxy", "NO_PROXY", "no_proxy"} {
		t.Setenv(k, "")
	}
	var proxied atomic.Value
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		proxied.Store(r.URL.String())
		_, _ = fmt.Fprint(w, "She moved to Poland.")
	}))
	defer proxy.Close()

	cfg := testHTTPConfig(false)
	cfg.HTTPProxy = proxy.URL
	res, err := NewFetcher(cfg, nil).Fetch(context.Background(), "http://stories.example/her_move.txt")
	require.NoError(t, err)
	assert.Equal(t, "She moved to Poland.", res.Body)
	assert.Equal(t, "http://stories.example/her_move.txt", proxied.Load())
}
