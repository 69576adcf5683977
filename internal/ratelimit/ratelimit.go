package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aminebalti55/ChemistryJobs/internal/model"
)

// SiteRateLimiter enforces a minimum delay between requests to the same
// listing site.
type SiteRateLimiter struct {
	mu       sync.Mutex
	lastCall map[string]time.Time // key: site name
	minDelay time.Duration
}

// NewSiteRateLimiter creates a rate limiter that enforces minDelay between
// consecutive requests to the same site.
func NewSiteRateLimiter(minDelay time.Duration) *SiteRateLimiter {
	return &SiteRateLimiter{
		lastCall: make(map[string]time.Time),
		minDelay: minDelay,
	}
}

// Wait blocks until enough time has passed since the last request to the
// given site. Returns an error if the context is cancelled while waiting.
func (r *SiteRateLimiter) Wait(ctx context.Context, site string) error {
	r.mu.Lock()
	last, ok := r.lastCall[site]
	now := time.Now()

	if !ok {
		// First request for this site — no wait needed.
		r.lastCall[site] = now
		r.mu.Unlock()
		return nil
	}

	elapsed := now.Sub(last)
	if elapsed >= r.minDelay {
		// Enough time has passed — proceed immediately.
		r.lastCall[site] = now
		r.mu.Unlock()
		return nil
	}

	// Need to wait for the remainder.
	remaining := r.minDelay - elapsed
	r.mu.Unlock()

	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limiter wait for %s: %w", site, ctx.Err())
	case <-time.After(remaining):
	}

	// Record the actual time after waiting.
	r.mu.Lock()
	r.lastCall[site] = time.Now()
	r.mu.Unlock()

	return nil
}

// RateLimitedFetcher is a decorator that enforces site-level rate limiting
// before delegating to the wrapped SourceFetcher.
type RateLimitedFetcher struct {
	inner   model.SourceFetcher
	limiter *SiteRateLimiter
}

// NewRateLimitedFetcher wraps a SourceFetcher with site-level rate limiting.
// All fetchers targeting the same site should share the same limiter instance.
func NewRateLimitedFetcher(inner model.SourceFetcher, limiter *SiteRateLimiter) *RateLimitedFetcher {
	return &RateLimitedFetcher{
		inner:   inner,
		limiter: limiter,
	}
}

// Name reports the wrapped source's name.
func (f *RateLimitedFetcher) Name() string { return f.inner.Name() }

// Fetch waits for the rate limiter to allow a request, then delegates to the
// wrapped fetcher.
func (f *RateLimitedFetcher) Fetch(ctx context.Context, keyword string, known model.KnownLinkFunc) ([]model.Candidate, error) {
	if err := f.limiter.Wait(ctx, f.inner.Name()); err != nil {
		return nil, err
	}
	return f.inner.Fetch(ctx, keyword, known)
}
