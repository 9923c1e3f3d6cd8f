// Package cache keeps recent fetch results per filter key.
package cache

import (
	"context"
	"time"

	"property-browser/internal/models"
)

// Entry is one cached fetch result.
type Entry struct {
	Listings  []models.Listing `json:"listings"`
	FetchedAt time.Time        `json:"fetched_at"`
}

// Fresh reports whether the entry may be served without re-querying.
func (e Entry) Fresh(now time.Time, staleTime time.Duration) bool {
	return now.Sub(e.FetchedAt) < staleTime
}

// Cache stores entries for at most its retention time. Get reports a miss
// with ok=false and a nil error.
type Cache interface {
	Get(ctx context.Context, key string) (entry Entry, ok bool, err error)
	Set(ctx context.Context, key string, entry Entry) error
	Delete(ctx context.Context, key string) error
}
