package fulfillment

import (
	"context"
	"sync"
	"time"
)

// TokenFunc authenticates against the platform and returns a bearer token
// with its expiry.
type TokenFunc func(ctx context.Context) (string, time.Time, error)

// TokenProvider caches the platform auth token and refreshes it on expiry.
// Reads take the fast RLock path; only an expired token pays for a refresh,
// and concurrent callers refresh once.
type TokenProvider struct {
	mu        sync.RWMutex
	token     string
	expiresAt time.Time
	fetch     TokenFunc
	// skew refreshes slightly before the real expiry so in-flight requests
	// do not race the deadline.
	skew time.Duration
	now  func() time.Time
}

func NewTokenProvider(fetch TokenFunc) *TokenProvider {
	return &TokenProvider{
		fetch: fetch,
		skew:  time.Minute,
		now:   time.Now,
	}
}

func (p *TokenProvider) Token(ctx context.Context) (string, error) {
	p.mu.RLock()
	token, ok := p.token, p.valid()
	p.mu.RUnlock()

	if ok {
		return token, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// Another caller may have refreshed while we waited for the lock.
	if p.valid() {
		return p.token, nil
	}

	token, expiresAt, err := p.fetch(ctx)
	if err != nil {
		return "", err
	}

	p.token = token
	p.expiresAt = expiresAt
	return token, nil
}

// valid must be called with at least the read lock held.
func (p *TokenProvider) valid() bool {
	return p.token != "" && p.now().Add(p.skew).Before(p.expiresAt)
}
