package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL, "test-key", Options{RequestInterval: 1})
	require.NoError(t, err)
	return c, srv
}

func TestGetSection_StripsMarkupAndCaches(t *testing.T) {
	var hits atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/api/laws/ABC/17.0", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Write([]byte(`{"success":true,"result":{"lawId":"ABC","locationId":"17.0",
			"title":"Permits","text":"<p>1. A permit is required.</p><p>(a) Applications.</p>"}}`))
	}))

	sec, err := c.GetSection(context.Background(), "ABC", "17.0")
	require.NoError(t, err)
	assert.Equal(t, "ABC", sec.LawID)
	assert.Contains(t, sec.Text, "1. A permit is required.")
	assert.Contains(t, sec.Text, "(a) Applications.")
	assert.NotContains(t, sec.Text, "<p>")

	// Second read comes from cache.
	_, err = c.GetSection(context.Background(), "ABC", "17.0")
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestGetSection_UpstreamFailureEnvelope(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"message":"no such law"}`))
	}))

	_, err := c.GetSection(context.Background(), "NOPE", "1.0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such law")
}

func TestGetSection_RetryableStatuses(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusBadGateway} {
		c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))
		_, err := c.GetSection(context.Background(), "ABC", "1.0")
		require.Error(t, err)
		var retryable *RetryableError
		assert.ErrorAs(t, err, &retryable, "status %d should be retryable", status)
	}

	// 404 is terminal, not retryable.
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	_, err := c.GetSection(context.Background(), "ABC", "1.0")
	require.Error(t, err)
	var terminal *RetryableError
	assert.False(t, errors.As(err, &terminal), "404 must not be retryable")
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestListLocations(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/laws/ABC", r.URL.Path)
		w.Write([]byte(`{"success":true,"result":{"items":[
			{"locationId":"1.0"},{"locationId":"2.0"},{"locationId":"3-a.0"}]}}`))
	}))

	ids, err := c.ListLocations(context.Background(), "ABC")
	require.NoError(t, err)
	assert.Equal(t, []string{"1.0", "2.0", "3-a.0"}, ids)
}

func TestStripTags(t *testing.T) {
	in := `<div><p>1. First.</p><p>(a) Second<br>continued.</p></div>`
	out := StripTags(in)
	assert.Contains(t, out, "1. First.\n")
	assert.Contains(t, out, "(a) Second\ncontinued.")

	plain := "1. Already plain text."
	assert.Equal(t, plain, StripTags(plain))
}

func TestCheckpoint_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crawl", "checkpoint.json")

	cp, err := LoadCheckpoint(path)
	require.NoError(t, err)
	_, ok := cp.Last("ABC")
	assert.False(t, ok)

	require.NoError(t, cp.Mark("ABC", "17.0"))
	require.NoError(t, cp.Mark("EDN", "3.1"))

	reloaded, err := LoadCheckpoint(path)
	require.NoError(t, err)
	loc, ok := reloaded.Last("ABC")
	require.True(t, ok)
	assert.Equal(t, "17.0", loc)

	require.NoError(t, reloaded.Reset("ABC"))
	_, ok = reloaded.Last("ABC")
	assert.False(t, ok)
}

func TestLoadSources(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	writeFile(t, path, `
sources:
  - law_id: ABC
    name: Alcoholic Beverage Control
  - law_id: EDN
    scope: EDN-LAW
`)

	sources, err := LoadSources(path)
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "ABC", sources[0].TokenScope())
	assert.Equal(t, "EDN-LAW", sources[1].TokenScope())

	writeFile(t, path, "sources: []\n")
	_, err = LoadSources(path)
	assert.Error(t, err)
}
