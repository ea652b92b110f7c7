// Package suggest resolves partial company names into ticker candidates and
// holds the state of the visible suggestion list.
package suggest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"stockcast/internal/util"
	"stockcast/pkg/stockcast"
)

// Lookup is the suggestion endpoint. *stockcast.Client implements it.
type Lookup interface {
	Suggest(ctx context.Context, query string) ([]stockcast.Candidate, error)
}

// CacheObserver is told about lookups answered from the cache.
type CacheObserver interface {
	CacheHit()
}

// ResultMsg carries the outcome of a lookup started for Token.
type ResultMsg struct {
	Token      uint64
	Query      string
	Candidates []stockcast.Candidate
	Err        error
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithCacheTTL caches successful lookups for ttl. Zero disables caching.
func WithCacheTTL(ttl time.Duration) Option {
	return func(r *Resolver) { r.cache = newCache(ttl) }
}

// WithRateLimiter throttles outgoing lookups.
func WithRateLimiter(rl *util.RateLimiter) Option {
	return func(r *Resolver) { r.limiter = rl }
}

// WithTimeout bounds each lookup started by Command.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) { r.timeout = d }
}

// WithLogger sets the resolver logger.
func WithLogger(log *slog.Logger) Option {
	return func(r *Resolver) { r.log = log }
}

// WithCacheObserver reports cache hits.
func WithCacheObserver(o CacheObserver) Option {
	return func(r *Resolver) { r.observer = o }
}

// Resolver fetches candidates for a query.
type Resolver struct {
	lookup   Lookup
	cache    *cache
	limiter  *util.RateLimiter
	timeout  time.Duration
	log      *slog.Logger
	observer CacheObserver
}

// NewResolver creates a Resolver backed by lookup.
func NewResolver(lookup Lookup, opts ...Option) *Resolver {
	r := &Resolver{
		lookup:  lookup,
		cache:   newCache(0),
		timeout: 10 * time.Second,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns candidates for query in server order.
func (r *Resolver) Resolve(ctx context.Context, query string) ([]stockcast.Candidate, error) {
	if cands, ok := r.cache.get(query); ok {
		if r.observer != nil {
			r.observer.CacheHit()
		}
		return cands, nil
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}
	cands, err := r.lookup.Suggest(ctx, query)
	if err != nil {
		r.log.Warn("suggestion lookup failed", "query", query, "error", err)
		return nil, err
	}
	r.cache.set(query, cands)
	return cands, nil
}

// Command runs Resolve off the update loop and reports a ResultMsg tagged
// with token.
func (r *Resolver) Command(token uint64, query string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		cands, err := r.Resolve(ctx, query)
		return ResultMsg{Token: token, Query: query, Candidates: cands, Err: err}
	}
}
