package source

import (
	"context"

	"property-browser/internal/filter"
	"property-browser/internal/listing"
	"property-browser/internal/models"
)

// Static serves a fixed set of listings, filtered by the criteria. It is the
// last resort when neither the store nor the cache can answer.
type Static struct {
	listings []models.Listing
}

// NewStatic canonicalizes the given listings once.
func NewStatic(listings []models.Listing) *Static {
	out := make([]models.Listing, 0, len(listings))
	for _, l := range listings {
		out = append(out, listing.Canonicalize(l))
	}
	return &Static{listings: out}
}

func (s *Static) Name() string { return "static" }

func (s *Static) Listings(_ context.Context, c filter.Criteria) ([]models.Listing, error) {
	if len(s.listings) == 0 {
		return nil, ErrNoData
	}
	return filter.Apply(s.listings, c, ""), nil
}

// SampleListings is the built-in sample shown when no live data exists.
func SampleListings() []models.Listing {
	return []models.Listing{
		{
			ID:          "sample-1",
			PropertyID:  "sample-1",
			Title:       "Modern Downtown Apartment",
			Price:       750000,
			Bedrooms:    2,
			Bathrooms:   2,
			Sqft:        1200,
			Address:     "123 Main St, Downtown",
			Type:        "apartment",
			Description: "Modern apartment with floor-to-ceiling windows and an open-concept design.",
			Images: []string{
				"https://images.unsplash.com/photo-1721322800607-8c38375eef04?w=800&h=600&fit=crop",
				"https://images.unsplash.com/photo-1502672260266-1c1ef2d93688?w=800&h=600&fit=crop",
			},
			Amenities:  []any{"High-Speed Internet", "Fitness Center", "Pool", "Parking Included"},
			AgentName:  "Rajesh Kumar Sharma",
			AgentPhone: "(555) 123-4567",
			AgentEmail: "rajesh.kumar.sharma@estateview.com",
		},
	}
}
