package engine

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DigestCache is a bounded LRU over digests confirmed to be in the ledger.
// It is a fast path only: a hit short-circuits the exact-match phase
// without a store round trip, a miss proves nothing and falls through to
// the authoritative indexed lookup. Digests enter the cache only after a
// store-confirmed lookup or a successful insert, so a hit can never
// misclassify.
//
// A nil *DigestCache is valid and caches nothing.
type DigestCache struct {
	lru *lru.Cache[string, struct{}]
}

// NewDigestCache creates a cache holding at most size digests.
func NewDigestCache(size int) (*DigestCache, error) {
	c, err := lru.New[string, struct{}](size)
	if err != nil {
		return nil, fmt.Errorf("create digest cache: %w", err)
	}
	return &DigestCache{lru: c}, nil
}

// Contains reports whether the digest is known to be in the ledger.
func (c *DigestCache) Contains(digest string) bool {
	if c == nil {
		return false
	}
	return c.lru.Contains(digest)
}

// Add records a store-confirmed digest.
func (c *DigestCache) Add(digest string) {
	if c == nil {
		return
	}
	c.lru.Add(digest, struct{}{})
}

// Len returns the number of cached digests.
func (c *DigestCache) Len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}
