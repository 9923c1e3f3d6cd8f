// Package filter decides which listings satisfy the user's filters and
// free-text search.
package filter

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"property-browser/internal/models"
)

// Raw is the filter form as the user typed it. Empty means "no constraint".
type Raw struct {
	MinPrice     string `json:"minPrice" form:"minPrice"`
	MaxPrice     string `json:"maxPrice" form:"maxPrice"`
	Bedrooms     string `json:"bedrooms" form:"bedrooms"`
	Bathrooms    string `json:"bathrooms" form:"bathrooms"`
	PropertyType string `json:"propertyType" form:"propertyType"`
	City         string `json:"city,omitempty" form:"city"`
}

// Criteria is the parsed filter state. A nil bound is inactive.
type Criteria struct {
	MinPrice     *int64
	MaxPrice     *int64
	Bedrooms     *int
	Bathrooms    *int
	PropertyType string
	// City only steers the remote refresh; the store is not filtered by it.
	City string
}

// ValidationError lists the fields whose input could not be parsed.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, name := range fieldOrder {
		if v, ok := e.Fields[name]; ok {
			parts = append(parts, fmt.Sprintf("%s=%q", name, v))
		}
	}
	return "invalid filter values: " + strings.Join(parts, ", ")
}

var fieldOrder = []string{"minPrice", "maxPrice", "bedrooms", "bathrooms"}

// Parse converts the raw form into Criteria. Malformed numbers leave the
// corresponding bound unset and are reported in a *ValidationError; the
// returned Criteria is usable either way.
func Parse(raw Raw) (Criteria, error) {
	c := Criteria{
		PropertyType: strings.TrimSpace(raw.PropertyType),
		City:         strings.TrimSpace(raw.City),
	}
	bad := map[string]string{}

	c.MinPrice = parseInt64("minPrice", raw.MinPrice, bad)
	c.MaxPrice = parseInt64("maxPrice", raw.MaxPrice, bad)
	c.Bedrooms = parseInt("bedrooms", raw.Bedrooms, bad)
	c.Bathrooms = parseInt("bathrooms", raw.Bathrooms, bad)

	if len(bad) > 0 {
		return c, &ValidationError{Fields: bad}
	}
	return c, nil
}

// FromQuery reads Raw from URL query parameters.
func FromQuery(q url.Values) Raw {
	return Raw{
		MinPrice:     q.Get("minPrice"),
		MaxPrice:     q.Get("maxPrice"),
		Bedrooms:     q.Get("bedrooms"),
		Bathrooms:    q.Get("bathrooms"),
		PropertyType: q.Get("propertyType"),
		City:         q.Get("city"),
	}
}

func parseInt64(name, s string, bad map[string]string) *int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		bad[name] = s
		return nil
	}
	return &v
}

func parseInt(name, s string, bad map[string]string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		bad[name] = s
		return nil
	}
	return &v
}

// IsEmpty reports whether no store-side constraint is active.
func (c Criteria) IsEmpty() bool {
	return c.MinPrice == nil && c.MaxPrice == nil && c.Bedrooms == nil &&
		c.Bathrooms == nil && c.PropertyType == ""
}

// Matches reports whether l satisfies every active constraint.
func (c Criteria) Matches(l models.Listing) bool {
	if c.MinPrice != nil && l.Price < *c.MinPrice {
		return false
	}
	if c.MaxPrice != nil && l.Price > *c.MaxPrice {
		return false
	}
	if c.Bedrooms != nil && l.Bedrooms < *c.Bedrooms {
		return false
	}
	if c.Bathrooms != nil && l.Bathrooms < *c.Bathrooms {
		return false
	}
	if c.PropertyType != "" && l.Type != c.PropertyType {
		return false
	}
	return true
}

// Values encodes the active constraints as query parameters using the
// refresh endpoint's names.
func (c Criteria) Values() url.Values {
	v := url.Values{}
	if c.MinPrice != nil {
		v.Set("minPrice", strconv.FormatInt(*c.MinPrice, 10))
	}
	if c.MaxPrice != nil {
		v.Set("maxPrice", strconv.FormatInt(*c.MaxPrice, 10))
	}
	if c.Bedrooms != nil {
		v.Set("bedrooms", strconv.Itoa(*c.Bedrooms))
	}
	if c.Bathrooms != nil {
		v.Set("bathrooms", strconv.Itoa(*c.Bathrooms))
	}
	if c.PropertyType != "" {
		v.Set("propertyType", c.PropertyType)
	}
	if c.City != "" {
		v.Set("city", c.City)
	}
	return v
}

// Key identifies the criteria for caching and request coalescing. Two
// criteria with the same active constraints share a key.
func (c Criteria) Key() string {
	return "properties?" + c.Values().Encode()
}
