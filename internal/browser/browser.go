// Package browser runs the fetch-and-reconcile cycle: an optional remote
// refresh, then a filtered store query, with results cached per filter key.
package browser

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"property-browser/internal/cache"
	"property-browser/internal/filter"
	"property-browser/internal/metrics"
	"property-browser/internal/models"
	"property-browser/internal/refresh"
	"property-browser/internal/source"
)

// Config tunes the cycle.
type Config struct {
	StaleTime      time.Duration
	RefreshTimeout time.Duration
	QueryTimeout   time.Duration
	// SampleFallback serves built-in sample listings when neither the
	// store nor the cache can answer.
	SampleFallback bool
}

func (c Config) withDefaults() Config {
	if c.StaleTime <= 0 {
		c.StaleTime = 5 * time.Minute
	}
	if c.RefreshTimeout <= 0 {
		c.RefreshTimeout = 10 * time.Second
	}
	if c.QueryTimeout <= 0 {
		c.QueryTimeout = 15 * time.Second
	}
	return c
}

// Browser fetches listings for criteria. Concurrent fetches of the same
// criteria share one cycle.
type Browser struct {
	cfg       Config
	refresher refresh.Refresher
	cache     cache.Cache
	chain     *source.Chain
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time

	group singleflight.Group
}

// New creates a Browser. refresher may be nil, in which case the cycle goes
// straight to the query.
func New(cfg Config, store source.Querier, refresher refresh.Refresher, c cache.Cache, m *metrics.Metrics, logger *zap.Logger) *Browser {
	if logger == nil {
		logger = zap.NewNop()
	}
	if c == nil {
		c = cache.NewMemory(10 * time.Minute)
	}
	cfg = cfg.withDefaults()

	b := &Browser{
		cfg:       cfg,
		refresher: refresher,
		cache:     c,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}

	sources := []source.Source{source.NewStore(store, cfg.QueryTimeout), source.NewCached(c)}
	if cfg.SampleFallback {
		sources = append(sources, source.NewStatic(source.SampleListings()))
	}
	b.chain = source.NewChain(b.trace, sources...)
	return b
}

func (b *Browser) trace(e source.Event) {
	switch e.Kind {
	case source.EventFailed:
		if e.Source == "store" {
			b.metrics.QueryFailed()
			b.logger.Error("Store query failed", zap.Error(e.Err))
		} else {
			b.logger.Debug("Fallback source failed", zap.String("source", e.Source), zap.Error(e.Err))
		}
	case source.EventFallingBack:
		b.logger.Warn("Falling back to next source", zap.String("source", e.Source))
	case source.EventServed:
		b.metrics.Served(e.Source)
	}
}

// Fetch returns the listings matching c. A fresh cached result is returned
// without contacting the store. When the store query fails, listings from a
// fallback source may be returned together with the query error.
func (b *Browser) Fetch(ctx context.Context, c filter.Criteria) ([]models.Listing, error) {
	key := c.Key()

	entry, ok, err := b.cache.Get(ctx, key)
	if err != nil {
		b.logger.Warn("Cache lookup failed", zap.String("key", key), zap.Error(err))
	}
	if ok && entry.Fresh(b.now(), b.cfg.StaleTime) {
		b.metrics.CacheLookup(true)
		return entry.Listings, nil
	}
	b.metrics.CacheLookup(false)

	return b.run(ctx, c)
}

// Refetch ignores freshness and runs a full cycle.
func (b *Browser) Refetch(ctx context.Context, c filter.Criteria) ([]models.Listing, error) {
	return b.run(ctx, c)
}

type outcome struct {
	listings []models.Listing
	err      error
}

func (b *Browser) run(ctx context.Context, c filter.Criteria) ([]models.Listing, error) {
	key := c.Key()

	ch := b.group.DoChan(key, func() (interface{}, error) {
		// Joined callers must not lose the cycle when the first caller leaves.
		listings, err := b.cycle(context.WithoutCancel(ctx), c)
		return outcome{listings: listings, err: err}, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		o := res.Val.(outcome)
		return o.listings, o.err
	}
}

func (b *Browser) cycle(ctx context.Context, c filter.Criteria) ([]models.Listing, error) {
	start := b.now()
	defer func() { b.metrics.ObserveFetch(b.now().Sub(start)) }()

	b.refresh(ctx, c)

	res := b.chain.Resolve(ctx, c)
	if res.Err != nil {
		if errors.Is(res.Err, context.DeadlineExceeded) {
			b.logger.Error("Store query timed out", zap.Duration("timeout", b.cfg.QueryTimeout))
		}
		return res.Listings, res.Err
	}

	if err := b.cache.Set(ctx, c.Key(), cache.Entry{Listings: res.Listings, FetchedAt: b.now()}); err != nil {
		b.logger.Warn("Failed to store result in cache", zap.String("key", c.Key()), zap.Error(err))
	}
	return res.Listings, nil
}

// refresh is best effort: every failure is logged and swallowed.
func (b *Browser) refresh(ctx context.Context, c filter.Criteria) {
	if b.refresher == nil {
		return
	}
	rctx, cancel := context.WithTimeout(ctx, b.cfg.RefreshTimeout)
	defer cancel()

	err := b.refresher.Refresh(rctx, c)
	switch {
	case err == nil:
		b.metrics.Refresh("ok")
	case errors.Is(err, refresh.ErrCircuitOpen):
		b.metrics.Refresh("skipped")
		b.logger.Debug("Refresh skipped, circuit open")
	default:
		b.metrics.Refresh("failed")
		b.logger.Warn("Error refreshing properties, continuing with stored data", zap.Error(err))
	}
}
