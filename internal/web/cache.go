package web

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/JonMunkholm/bspitems/internal/core"
	"github.com/JonMunkholm/bspitems/internal/metrics"
)

// extractionCache keeps successful extractions keyed by the SHA-256 of the
// uploaded bytes, so re-sending the same map skips reading and parsing it.
// Report options are applied per request and are not part of the key.
type extractionCache struct {
	lru *expirable.LRU[string, *core.Extraction]
}

// newExtractionCache returns nil when size is not positive; a nil cache
// misses on every Get and ignores Set.
func newExtractionCache(size int, ttl time.Duration) *extractionCache {
	if size <= 0 {
		return nil
	}
	return &extractionCache{
		lru: expirable.NewLRU[string, *core.Extraction](size, nil, ttl),
	}
}

func contentKey(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Get returns a copy of the cached extraction for data labelled with name.
func (c *extractionCache) Get(data []byte, name string) (*core.Extraction, bool) {
	if c == nil {
		return nil, false
	}
	ex, ok := c.lru.Get(contentKey(data))
	if !ok {
		metrics.ExtractCacheLookups.WithLabelValues(metrics.CacheMiss).Inc()
		return nil, false
	}
	metrics.ExtractCacheLookups.WithLabelValues(metrics.CacheHit).Inc()

	out := *ex
	out.Path = name
	return &out, true
}

// Set stores ex under the hash of data. Only successful extractions are
// cached; failures carry the upload name in their error text.
func (c *extractionCache) Set(data []byte, ex *core.Extraction) {
	if c == nil {
		return
	}
	c.lru.Add(contentKey(data), ex)
}

// Len returns the number of live entries.
func (c *extractionCache) Len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}
