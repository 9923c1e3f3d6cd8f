package models

import "time"

// Listing is the canonical, fully-defaulted shape of a property shown to the
// user. It is produced by listing.Normalize and never written back.
type Listing struct {
	ID          string    `json:"id"`
	PropertyID  string    `json:"property_id"`
	Title       string    `json:"title"`
	Price       int64     `json:"price"`
	Bedrooms    int       `json:"bedrooms"`
	Bathrooms   int       `json:"bathrooms"`
	Sqft        int       `json:"sqft"`
	Image       string    `json:"image"`
	Images      []string  `json:"images"`
	Address     string    `json:"address"`
	Type        string    `json:"type"`
	AgentName   string    `json:"agent_name"`
	Lat         *float64  `json:"lat,omitempty"`
	Lng         *float64  `json:"lng,omitempty"`
	Description string    `json:"description"`
	Amenities   []any     `json:"amenities"`
	AgentPhone  string    `json:"agent_phone"`
	AgentEmail  string    `json:"agent_email"`
	CreatedAt   time.Time `json:"created_at"`
}

// HasLocation reports whether the listing can be placed on a map.
func (l *Listing) HasLocation() bool {
	return l.Lat != nil && l.Lng != nil
}
