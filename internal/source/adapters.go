package source

import (
	"context"
	"fmt"
	"time"

	"property-browser/internal/cache"
	"property-browser/internal/filter"
	"property-browser/internal/listing"
	"property-browser/internal/models"
)

// Querier is the part of the store the browser reads from.
type Querier interface {
	QueryProperties(ctx context.Context, c filter.Criteria) ([]models.Property, error)
}

// Store is the live source: a server-filtered query, normalized.
type Store struct {
	q       Querier
	timeout time.Duration
}

// NewStore wraps q. A positive timeout bounds each query.
func NewStore(q Querier, timeout time.Duration) *Store {
	return &Store{q: q, timeout: timeout}
}

func (s *Store) Name() string { return "store" }

func (s *Store) Listings(ctx context.Context, c filter.Criteria) ([]models.Listing, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	rows, err := s.q.QueryProperties(ctx, c)
	if err != nil {
		return nil, err
	}
	return listing.NormalizeAll(rows), nil
}

// Cached serves the last stored result for the criteria regardless of its
// age, as long as the cache still retains it.
type Cached struct {
	c cache.Cache
}

func NewCached(c cache.Cache) *Cached {
	return &Cached{c: c}
}

func (s *Cached) Name() string { return "cache" }

func (s *Cached) Listings(ctx context.Context, c filter.Criteria) ([]models.Listing, error) {
	entry, ok, err := s.c.Get(ctx, c.Key())
	if err != nil {
		return nil, fmt.Errorf("read cached result: %w", err)
	}
	if !ok {
		return nil, ErrNoData
	}
	return entry.Listings, nil
}
