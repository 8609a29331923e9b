package reference

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"
)

const (
	// DefaultCapacity is the number of distinct terms kept in memory.
	DefaultCapacity = 128
	// DefaultTimeout bounds a single upstream fetch.
	DefaultTimeout = time.Second
	// DefaultMaxChars caps the stored reference text, counted in characters.
	DefaultMaxChars = 1000
)

// Fetcher retrieves reference text for a term from an external source.
type Fetcher interface {
	FetchReferenceText(ctx context.Context, term string) (string, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, term string) (string, error)

// FetchReferenceText calls f.
func (f FetcherFunc) FetchReferenceText(ctx context.Context, term string) (string, error) {
	return f(ctx, term)
}

// Outcome classifies a cache lookup.
type Outcome string

const (
	OutcomeHit     Outcome = "hit"
	OutcomeMiss    Outcome = "miss"
	OutcomeFailure Outcome = "failure"
)

// Options configures a Cache.
type Options struct {
	Capacity int
	Timeout  time.Duration
	MaxChars int
	Logger   *logging.Logger
}

// Stats reports cache counters.
type Stats struct {
	Entries  int   `json:"entries"`
	Hits     int64 `json:"hits"`
	Misses   int64 `json:"misses"`
	Failures int64 `json:"failures"`
}

// Cache memoizes reference text per term in a bounded LRU.
//
// Every outcome is cached, including the empty string produced by a failed
// fetch. Entries are never invalidated; they leave only through eviction.
// Concurrent misses for the same term may each call the fetcher.
type Cache struct {
	fetcher  Fetcher
	entries  *lru.Cache
	timeout  time.Duration
	maxChars int
	logger   *logging.Logger

	hits     atomic.Int64
	misses   atomic.Int64
	failures atomic.Int64
}

// NewCache wraps fetcher with a bounded memoizing cache.
func NewCache(fetcher Fetcher, opts Options) (*Cache, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("reference fetcher is required")
	}
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxChars <= 0 {
		opts.MaxChars = DefaultMaxChars
	}

	entries, err := lru.New(opts.Capacity)
	if err != nil {
		return nil, fmt.Errorf("create reference cache: %w", err)
	}

	return &Cache{
		fetcher:  fetcher,
		entries:  entries,
		timeout:  opts.Timeout,
		maxChars: opts.MaxChars,
		logger:   opts.Logger,
	}, nil
}

// Fetch returns reference text for term, consulting the upstream fetcher only
// on a miss. It never fails: an empty string means no augmentation is available.
func (c *Cache) Fetch(ctx context.Context, term string) string {
	text, _ := c.Lookup(ctx, term)
	return text
}

// Lookup is Fetch that also reports how the text was obtained.
//
// The upstream call is bounded by the cache timeout and is detached from the
// caller's cancellation so an abandoned request cannot cache a spurious miss.
func (c *Cache) Lookup(ctx context.Context, term string) (string, Outcome) {
	if c == nil {
		return "", OutcomeFailure
	}
	if cached, ok := c.entries.Get(term); ok {
		c.hits.Add(1)
		text, _ := cached.(string)
		return text, OutcomeHit
	}
	c.misses.Add(1)

	if ctx == nil {
		ctx = context.Background()
	}
	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	outcome := OutcomeMiss
	text, err := c.fetcher.FetchReferenceText(fetchCtx, term)
	if err != nil {
		c.failures.Add(1)
		if c.logger != nil {
			c.logger.Debug("Reference fetch failed",
				zap.String("term", term),
				zap.Error(err))
		}
		text = ""
		outcome = OutcomeFailure
	}
	text = truncateChars(text, c.maxChars)

	c.entries.Add(term, text)
	return text, outcome
}

// Contains reports whether term is cached without touching its recency.
func (c *Cache) Contains(term string) bool {
	if c == nil {
		return false
	}
	return c.entries.Contains(term)
}

// Len returns the number of cached terms.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}

// Stats returns a snapshot of cache counters.
func (c *Cache) Stats() Stats {
	if c == nil {
		return Stats{}
	}
	return Stats{
		Entries:  c.entries.Len(),
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
		Failures: c.failures.Load(),
	}
}

func truncateChars(s string, max int) string {
	if max <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == max {
			return s[:i]
		}
		count++
	}
	return s
}
