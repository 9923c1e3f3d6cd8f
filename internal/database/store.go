package database

import (
	"context"
	"errors"

	"property-browser/internal/filter"
	"property-browser/internal/models"
)

// ErrNotFound is returned when a property id has no row.
var ErrNotFound = errors.New("property not found")

// Store is the backing store of the properties table.
type Store interface {
	// QueryProperties returns the rows matching the criteria's price,
	// bedroom, bathroom and type constraints, newest first.
	QueryProperties(ctx context.Context, c filter.Criteria) ([]models.Property, error)
	GetProperty(ctx context.Context, id string) (*models.Property, error)
	// UpsertProperty inserts the row, or updates the row with the same
	// property_id. It never creates a duplicate.
	UpsertProperty(ctx context.Context, p *models.Property) error
	Close() error
}
