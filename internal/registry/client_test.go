package registry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vireotag/vireo/internal/logging"
)

func docJSON(t *testing.T, doc Document) []byte {
	t.Helper()
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	return data
}

func TestClientFetchHTTP(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Write(docJSON(t, testDoc()))
	}))
	defer srv.Close()

	c := NewClient(Options{URL: srv.URL, CacheDir: t.TempDir()}, logging.Nop())

	snap, err := c.Fetch(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, "1.0", snap.APIVersion())
	assert.Equal(t, int32(1), hits.Load())

	// Second fetch within TTL reuses the in-memory snapshot.
	again, err := c.Fetch(context.Background(), false)
	require.NoError(t, err)
	assert.Same(t, snap, again)
	assert.Equal(t, int32(1), hits.Load())

	// forceRefresh bypasses every cache.
	_, err = c.Fetch(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestClientFetchLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	require.NoError(t, os.WriteFile(path, docJSON(t, testDoc()), 0o600))

	c := NewClient(Options{URL: path}, logging.Nop())
	snap, err := c.Fetch(context.Background(), false)
	require.NoError(t, err)
	assert.NotNil(t, snap.Find("demo"))
}

func TestClientEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	require.NoError(t, os.WriteFile(path, docJSON(t, testDoc()), 0o600))
	t.Setenv(EnvRegistryURL, path)

	c := NewClient(Options{}, logging.Nop())
	assert.Equal(t, path, c.URL())

	snap, err := c.Fetch(context.Background(), false)
	require.NoError(t, err)
	assert.NotNil(t, snap.Find("demo"))
}

func TestClientDiskCacheWithinTTL(t *testing.T) {
	cacheDir := t.TempDir()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Write(docJSON(t, testDoc()))
	}))
	defer srv.Close()

	c1 := NewClient(Options{URL: srv.URL, CacheDir: cacheDir}, logging.Nop())
	_, err := c1.Fetch(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())

	// A fresh client with the same cache dir reads from disk, not the network.
	c2 := NewClient(Options{URL: srv.URL, CacheDir: cacheDir}, logging.Nop())
	snap, err := c2.Fetch(context.Background(), false)
	require.NoError(t, err)
	assert.NotNil(t, snap.Find("demo"))
	assert.Equal(t, int32(1), hits.Load())
}

func TestClientStaleCacheFallback(t *testing.T) {
	cacheDir := t.TempDir()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write(docJSON(t, testDoc()))
	}))

	c := NewClient(Options{URL: srv.URL, CacheDir: cacheDir, TTL: time.Nanosecond, MaxRetries: 1, Timeout: time.Second}, logging.Nop())
	_, err := c.Fetch(context.Background(), false)
	require.NoError(t, err)

	// Registry goes away; the stale disk cache still answers.
	srv.Close()
	snap, err := c.Fetch(context.Background(), false)
	require.NoError(t, err)
	assert.NotNil(t, snap.Find("demo"))
}

func TestClientFetchErrorNoCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(Options{URL: srv.URL, MaxRetries: 1, Timeout: time.Second}, logging.Nop())
	_, err := c.Fetch(context.Background(), false)
	assert.Error(t, err)
}

func TestClientBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("{not json"))
	}))
	defer srv.Close()

	c := NewClient(Options{URL: srv.URL}, logging.Nop())
	_, err := c.Fetch(context.Background(), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing registry document")
}
