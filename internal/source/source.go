// Package source resolves listings from an ordered list of data sources,
// falling back to the next one when a source fails.
package source

import (
	"context"
	"errors"
	"fmt"

	"property-browser/internal/filter"
	"property-browser/internal/models"
)

// ErrNoData is returned by a fallback source that has nothing to offer.
var ErrNoData = errors.New("no data available")

// Source produces listings for a set of criteria.
type Source interface {
	Name() string
	Listings(ctx context.Context, c filter.Criteria) ([]models.Listing, error)
}

// EventKind classifies trace events.
type EventKind string

const (
	EventAttempted   EventKind = "attempted"
	EventFailed      EventKind = "failed"
	EventFallingBack EventKind = "falling_back"
	EventServed      EventKind = "served"
)

// Event is emitted for every step of a resolution.
type Event struct {
	Kind   EventKind
	Source string
	Err    error
}

// Hook receives trace events.
type Hook func(Event)

// Result is the outcome of Chain.Resolve.
type Result struct {
	Listings []models.Listing
	// ServedBy names the source that produced Listings.
	ServedBy string
	// Err is the primary source's failure when a fallback served the data,
	// or the combined failure when nothing could serve it.
	Err error
}

// Degraded reports whether the data did not come from the primary source.
func (r Result) Degraded() bool {
	return r.Err != nil
}

// Chain tries its sources in precedence order.
type Chain struct {
	sources []Source
	hook    Hook
}

// NewChain builds a chain. The first source is the primary one.
func NewChain(hook Hook, sources ...Source) *Chain {
	if hook == nil {
		hook = func(Event) {}
	}
	return &Chain{sources: sources, hook: hook}
}

// Resolve returns the first successful source's listings. The primary
// failure is kept in Result.Err even when a fallback succeeds.
func (c *Chain) Resolve(ctx context.Context, criteria filter.Criteria) Result {
	var primaryErr error
	var errs []error

	for i, src := range c.sources {
		c.hook(Event{Kind: EventAttempted, Source: src.Name()})

		listings, err := src.Listings(ctx, criteria)
		if err == nil {
			c.hook(Event{Kind: EventServed, Source: src.Name()})
			return Result{Listings: listings, ServedBy: src.Name(), Err: primaryErr}
		}

		c.hook(Event{Kind: EventFailed, Source: src.Name(), Err: err})
		errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
		if i == 0 {
			primaryErr = err
		}
		if i+1 < len(c.sources) {
			c.hook(Event{Kind: EventFallingBack, Source: c.sources[i+1].Name(), Err: err})
		}

		// A cancelled caller gets no further attempts.
		if ctx.Err() != nil {
			break
		}
	}

	if len(errs) == 0 {
		return Result{Err: ErrNoData}
	}
	return Result{Err: errors.Join(errs...)}
}
