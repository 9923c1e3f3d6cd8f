// Package listing turns raw properties rows into canonical listings.
package listing

import (
	"property-browser/internal/models"
)

const (
	// PlaceholderImage is shown when a listing has no photos.
	PlaceholderImage = "https://images.unsplash.com/photo-1721322800607-8c38375eef04?w=800&h=600&fit=crop"
	// DefaultType is used when the row has no property_type.
	DefaultType = "apartment"
	// DefaultAgentName is used when the row has no agent.
	DefaultAgentName = "Real Estate Agent"
)

// Normalize maps a stored row into a Listing, removing every optional field.
func Normalize(p models.Property) models.Listing {
	l := models.Listing{
		ID:          p.ID,
		PropertyID:  p.PropertyID,
		Title:       deref(p.Title),
		Price:       deref(p.Price),
		Bedrooms:    deref(p.Bedrooms),
		Bathrooms:   deref(p.Bathrooms),
		Sqft:        deref(p.Sqft),
		Images:      []string(p.Images),
		Address:     deref(p.Address),
		Type:        deref(p.PropertyType),
		AgentName:   deref(p.AgentName),
		Lat:         p.Latitude,
		Lng:         p.Longitude,
		Description: deref(p.Description),
		Amenities:   []any(p.Amenities),
		AgentPhone:  deref(p.AgentPhone),
		AgentEmail:  deref(p.AgentEmail),
		CreatedAt:   p.CreatedAt,
	}
	return Canonicalize(l)
}

// NormalizeAll normalizes rows preserving their order.
func NormalizeAll(rows []models.Property) []models.Listing {
	out := make([]models.Listing, 0, len(rows))
	for _, row := range rows {
		out = append(out, Normalize(row))
	}
	return out
}

// Canonicalize applies the listing defaults. It is idempotent.
func Canonicalize(l models.Listing) models.Listing {
	if l.Price < 0 {
		l.Price = 0
	}
	if l.Sqft < 0 {
		l.Sqft = 0
	}
	if l.Type == "" {
		l.Type = DefaultType
	}
	if l.AgentName == "" {
		l.AgentName = DefaultAgentName
	}

	if l.Images == nil {
		l.Images = []string{}
	}
	if l.Amenities == nil {
		l.Amenities = []any{}
	}
	l.Image = PlaceholderImage
	if len(l.Images) > 0 && l.Images[0] != "" {
		l.Image = l.Images[0]
	}

	// A zero coordinate means the feed had no location.
	l.Lat = nonZero(l.Lat)
	l.Lng = nonZero(l.Lng)
	return l
}

// Row converts a listing back into a row shape. Normalize(Row(l)) == l for
// any normalized l.
func Row(l models.Listing) models.Property {
	return models.Property{
		ID:           l.ID,
		PropertyID:   l.PropertyID,
		Title:        &l.Title,
		Price:        &l.Price,
		Bedrooms:     &l.Bedrooms,
		Bathrooms:    &l.Bathrooms,
		Sqft:         &l.Sqft,
		PropertyType: &l.Type,
		Address:      &l.Address,
		Latitude:     l.Lat,
		Longitude:    l.Lng,
		Description:  &l.Description,
		Images:       models.JSONList[string](l.Images),
		Amenities:    models.JSONList[any](l.Amenities),
		AgentName:    &l.AgentName,
		AgentPhone:   &l.AgentPhone,
		AgentEmail:   &l.AgentEmail,
		CreatedAt:    l.CreatedAt,
	}
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func nonZero(p *float64) *float64 {
	if p == nil || *p == 0 {
		return nil
	}
	v := *p
	return &v
}
