// pkg/authn/keycache.go
package authn

import (
	"context"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
)

const (
	defaultKeyTTL       = 5 * time.Minute
	defaultFetchTimeout = 5 * time.Second
)

// FetchFunc retrieves a key set from a JWKS endpoint.
type FetchFunc func(ctx context.Context, url string) (jwk.Set, error)

// KeyCache holds one process-wide key set per instance with a freshness
// window. Refreshes are serialized; readers during a refresh either get the
// previous set or wait for the in-flight fetch. A failed refresh falls back
// to the stale set when one exists, since keys are rotated, not revoked.
type KeyCache struct {
	url     string
	ttl     time.Duration
	timeout time.Duration

	mu        sync.RWMutex
	set       jwk.Set
	fetchedAt time.Time

	now   func() time.Time
	fetch FetchFunc
}

// KeyCacheOption tweaks cache construction (tests inject clocks and fetchers).
type KeyCacheOption func(*KeyCache)

func WithKeyTTL(ttl time.Duration) KeyCacheOption {
	return func(c *KeyCache) { c.ttl = ttl }
}

func WithFetchTimeout(d time.Duration) KeyCacheOption {
	return func(c *KeyCache) { c.timeout = d }
}

func WithClock(now func() time.Time) KeyCacheOption {
	return func(c *KeyCache) { c.now = now }
}

func WithFetchFunc(f FetchFunc) KeyCacheOption {
	return func(c *KeyCache) { c.fetch = f }
}

func NewKeyCache(url string, opts ...KeyCacheOption) *KeyCache {
	c := &KeyCache{
		url:     url,
		ttl:     defaultKeyTTL,
		timeout: defaultFetchTimeout,
		now:     time.Now,
		fetch: func(ctx context.Context, url string) (jwk.Set, error) {
			return jwk.Fetch(ctx, url)
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Get returns the cached key set, refetching when the freshness window has
// passed. Double-checked locking keeps at most one fetch in flight.
func (c *KeyCache) Get(ctx context.Context) (jwk.Set, error) {
	c.mu.RLock()
	if c.set != nil && c.now().Sub(c.fetchedAt) <= c.ttl {
		set := c.set
		c.mu.RUnlock()
		return set, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.set != nil && c.now().Sub(c.fetchedAt) <= c.ttl {
		return c.set, nil
	}

	fctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	set, err := c.fetch(fctx, c.url)
	if err != nil {
		if c.set != nil {
			// Stale but not wrong: serve the old set, retry next window.
			return c.set, nil
		}
		return nil, newError(ErrCodeKeyFetch, err)
	}
	c.set = set
	c.fetchedAt = c.now()
	return c.set, nil
}

// URL returns the JWKS endpoint this cache is bound to.
func (c *KeyCache) URL() string { return c.url }
