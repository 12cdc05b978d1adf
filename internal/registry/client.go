package registry

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/sync/singleflight"

	"github.com/vireotag/vireo/internal/logging"
)

// DefaultURL is the built-in registry location. VIREO_PLUGIN_REGISTRY or the
// plugins.registryUrl config key substitute it, for staging and offline tests.
const DefaultURL = "https://plugins.vireotag.org/registry.json"

// EnvRegistryURL names the environment override for the registry source.
const EnvRegistryURL = "VIREO_PLUGIN_REGISTRY"

// DefaultTTL is how long a fetched snapshot stays fresh.
const DefaultTTL = 24 * time.Hour

// Options configures a Client.
type Options struct {
	// URL is a remote http(s) URL or a local file path. Empty picks the
	// environment override, then DefaultURL.
	URL        string
	CacheDir   string
	TTL        time.Duration
	Timeout    time.Duration
	MaxRetries int
}

// Client fetches registry snapshots with an on-disk cache.
type Client struct {
	url       string
	cachePath string
	ttl       time.Duration
	http      *retryablehttp.Client
	log       *logging.Logger

	group singleflight.Group

	mu   sync.RWMutex
	snap *Snapshot
}

// NewClient creates a registry client.
func NewClient(opts Options, log *logging.Logger) *Client {
	url := opts.URL
	if url == "" {
		url = os.Getenv(EnvRegistryURL)
	}
	if url == "" {
		url = DefaultURL
	}

	ttl := opts.TTL
	if ttl == 0 {
		ttl = DefaultTTL
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	retries := opts.MaxRetries
	if retries == 0 {
		retries = 3
	}

	clog := log.Sub("registry")

	hc := retryablehttp.NewClient()
	hc.RetryMax = retries
	hc.HTTPClient.Timeout = timeout
	hc.Logger = nil

	c := &Client{
		url:  url,
		ttl:  ttl,
		http: hc,
		log:  clog,
	}
	if opts.CacheDir != "" {
		sum := sha1.Sum([]byte(url))
		c.cachePath = filepath.Join(opts.CacheDir, "registry_"+hex.EncodeToString(sum[:8])+".json")
	}
	return c
}

// URL returns the registry source in use.
func (c *Client) URL() string { return c.url }

// Fetch returns a registry snapshot, reusing the in-memory or on-disk cache
// while it is within TTL. forceRefresh bypasses both caches. Concurrent
// callers share a single fetch.
func (c *Client) Fetch(ctx context.Context, forceRefresh bool) (*Snapshot, error) {
	if !forceRefresh {
		c.mu.RLock()
		snap := c.snap
		c.mu.RUnlock()
		if snap != nil && time.Since(snap.fetchedAt) < c.ttl {
			return snap, nil
		}
	}

	v, err, _ := c.group.Do("fetch", func() (any, error) {
		return c.fetch(ctx, forceRefresh)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

func (c *Client) fetch(ctx context.Context, forceRefresh bool) (*Snapshot, error) {
	if !forceRefresh {
		if snap := c.loadCache(false); snap != nil {
			c.store(snap)
			return snap, nil
		}
	}

	doc, err := c.load(ctx)
	if err != nil {
		// A stale cache beats no registry at all.
		if snap := c.loadCache(true); snap != nil {
			c.log.Warn().Err(err).Msg("registry fetch failed, using stale cache")
			c.store(snap)
			return snap, nil
		}
		return nil, err
	}

	snap := NewSnapshot(*doc, time.Now())
	c.saveCache(doc)
	c.store(snap)
	c.log.Debug().
		Str("url", c.url).
		Int("plugins", len(doc.Plugins)).
		Msg("registry fetched")
	return snap, nil
}

// Cached returns the current in-memory snapshot without fetching, or nil.
func (c *Client) Cached() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

func (c *Client) store(snap *Snapshot) {
	c.mu.Lock()
	c.snap = snap
	c.mu.Unlock()
}

// load reads the document from a local file or over HTTP.
func (c *Client) load(ctx context.Context) (*Document, error) {
	if info, err := os.Stat(c.url); err == nil && !info.IsDir() {
		data, err := os.ReadFile(c.url)
		if err != nil {
			return nil, fmt.Errorf("reading registry file %s: %w", c.url, err)
		}
		return parseDocument(data)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("building registry request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching registry %s: %w", c.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching registry %s: unexpected status %s", c.url, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading registry response: %w", err)
	}
	return parseDocument(data)
}

func parseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing registry document: %w", err)
	}
	return &doc, nil
}

// loadCache reads the disk cache. With allowStale false the cache must be
// within TTL.
func (c *Client) loadCache(allowStale bool) *Snapshot {
	if c.cachePath == "" {
		return nil
	}
	info, err := os.Stat(c.cachePath)
	if err != nil {
		return nil
	}
	if !allowStale && time.Since(info.ModTime()) >= c.ttl {
		return nil
	}
	data, err := os.ReadFile(c.cachePath)
	if err != nil {
		return nil
	}
	doc, err := parseDocument(data)
	if err != nil {
		c.log.Warn().Err(err).Str("path", c.cachePath).Msg("registry cache corrupted, ignoring")
		return nil
	}
	return NewSnapshot(*doc, info.ModTime())
}

func (c *Client) saveCache(doc *Document) {
	if c.cachePath == "" {
		return
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(c.cachePath), 0o700); err != nil {
		c.log.Warn().Err(err).Msg("cannot create registry cache directory")
		return
	}
	if err := os.WriteFile(c.cachePath, data, 0o600); err != nil {
		c.log.Warn().Err(err).Msg("cannot write registry cache")
	}
}
