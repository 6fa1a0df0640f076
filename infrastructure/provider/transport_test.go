package provider

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countingServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var count atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Upstream", "yes")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &count
}

func post(t *testing.T, rt http.RoundTripper, url, body string) (int, string, http.Header) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := rt.RoundTrip(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(data), resp.Header
}

func TestCachingTransport_CacheHit(t *testing.T) {
	srv, count := countingServer(t, http.StatusOK, `{"result":"ok"}`)
	transport, err := NewCachingTransport(t.TempDir(), srv.Client().Transport)
	require.NoError(t, err)

	_, first, _ := post(t, transport, srv.URL+"/generate", `{"diff":"+a"}`)
	status, second, header := post(t, transport, srv.URL+"/generate", `{"diff":"+a"}`)

	assert.Equal(t, `{"result":"ok"}`, first)
	assert.Equal(t, `{"result":"ok"}`, second)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "yes", header.Get("X-Upstream"))
	assert.Equal(t, int32(1), count.Load())
}

func TestCachingTransport_DifferentBodies(t *testing.T) {
	srv, count := countingServer(t, http.StatusOK, `{}`)
	transport, err := NewCachingTransport(t.TempDir(), srv.Client().Transport)
	require.NoError(t, err)

	post(t, transport, srv.URL, `{"diff":"+a"}`)
	post(t, transport, srv.URL, `{"diff":"+b"}`)

	assert.Equal(t, int32(2), count.Load())
}

func TestCachingTransport_NonSuccessNotCached(t *testing.T) {
	srv, count := countingServer(t, http.StatusTooManyRequests, `{"error":"quota"}`)
	dir := t.TempDir()
	transport, err := NewCachingTransport(dir, srv.Client().Transport)
	require.NoError(t, err)

	status, _, _ := post(t, transport, srv.URL, `{}`)
	post(t, transport, srv.URL, `{}`)

	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, int32(2), count.Load())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCachingTransport_CorruptEntryFallsThrough(t *testing.T) {
	srv, count := countingServer(t, http.StatusOK, `{"result":"fresh"}`)
	dir := t.TempDir()
	transport, err := NewCachingTransport(dir, srv.Client().Transport)
	require.NoError(t, err)

	key := cacheKey(http.MethodPost, srv.URL, []byte(`{}`))
	require.NoError(t, os.WriteFile(filepath.Join(dir, key+".json"), []byte("not json"), 0o644))

	_, body, _ := post(t, transport, srv.URL, `{}`)

	assert.Equal(t, `{"result":"fresh"}`, body)
	assert.Equal(t, int32(1), count.Load())
}

func TestCachingTransport_GetPassesThrough(t *testing.T) {
	srv, count := countingServer(t, http.StatusOK, `{}`)
	transport, err := NewCachingTransport(t.TempDir(), srv.Client().Transport)
	require.NoError(t, err)

	for range 2 {
		req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
		require.NoError(t, err)
		resp, err := transport.RoundTrip(req)
		require.NoError(t, err)
		_ = resp.Body.Close()
	}

	assert.Equal(t, int32(2), count.Load())
}
