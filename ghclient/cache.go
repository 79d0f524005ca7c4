/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package ghclient

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of responses kept by NewCache callers that
// have no better idea.
const DefaultCacheSize = 500

// Cache is a bounded, least-recently-used store of GitHub API responses. It
// is safe for concurrent use and is meant to be shared by every Session in
// the process.
type Cache struct {
	entries *lru.Cache[string, *cachedResponse]
}

type cachedResponse struct {
	status       int
	header       http.Header
	body         []byte
	etag         string
	lastModified string
}

// NewCache returns a Cache holding at most size responses.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		return nil, fmt.Errorf("cache size must be positive, got %d", size)
	}
	entries, err := lru.New[string, *cachedResponse](size)
	if err != nil {
		return nil, fmt.Errorf("creating lru: %w", err)
	}
	return &Cache{entries: entries}, nil
}

// Len reports the number of cached responses.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// Wrap returns a RoundTripper that serves GET requests through the cache and
// forwards everything else to base unchanged.
func (c *Cache) Wrap(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &cachingTransport{cache: c, base: base}
}

type cachingTransport struct {
	cache *Cache
	base  http.RoundTripper
}

func (t *cachingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet || req.Header.Get("Range") != "" {
		return t.base.RoundTrip(req)
	}

	key := cacheKey(req)
	cached, hit := t.cache.entries.Get(key)
	if hit {
		// RoundTrippers must not modify the caller's request.
		req = req.Clone(req.Context())
		if cached.etag != "" {
			req.Header.Set("If-None-Match", cached.etag)
		}
		if cached.lastModified != "" {
			req.Header.Set("If-Modified-Since", cached.lastModified)
		}
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if hit && resp.StatusCode == http.StatusNotModified {
		cacheRequests.WithLabelValues("hit").Inc()
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return cached.response(req, resp.Header), nil
	}
	cacheRequests.WithLabelValues("miss").Inc()

	if resp.StatusCode != http.StatusOK {
		return resp, nil
	}
	etag, lastModified := resp.Header.Get("ETag"), resp.Header.Get("Last-Modified")
	if etag == "" && lastModified == "" {
		return resp, nil
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	t.cache.entries.Add(key, &cachedResponse{
		status:       resp.StatusCode,
		header:       resp.Header.Clone(),
		body:         body,
		etag:         etag,
		lastModified: lastModified,
	})
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp, nil
}

// response rebuilds the cached response for req. Rate limit headers are
// taken from the fresh 304 so callers see the current quota.
func (c *cachedResponse) response(req *http.Request, fresh http.Header) *http.Response {
	header := c.header.Clone()
	for k, v := range fresh {
		if strings.HasPrefix(http.CanonicalHeaderKey(k), "X-Ratelimit-") {
			header[k] = v
		}
	}
	header.Set("X-From-Cache", "1")

	return &http.Response{
		Status:        fmt.Sprintf("%d %s", c.status, http.StatusText(c.status)),
		StatusCode:    c.status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(c.body)),
		ContentLength: int64(len(c.body)),
		Request:       req,
	}
}

// cacheKey identifies a request by method, URL, accepted media type and a
// digest of its credentials, so responses are never shared across tokens.
func cacheKey(req *http.Request) string {
	auth := sha256.Sum256([]byte(req.Header.Get("Authorization")))
	return strings.Join([]string{
		req.Method,
		req.URL.String(),
		req.Header.Get("Accept"),
		hex.EncodeToString(auth[:8]),
	}, " ")
}

// IsCached reports whether resp was served from the cache.
func IsCached(resp *http.Response) bool {
	return resp != nil && resp.Header.Get("X-From-Cache") == "1"
}

var errNilCache = errors.New("cache cannot be nil")
