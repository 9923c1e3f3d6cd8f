package search

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"property-browser/internal/filter"
)

// FilterExpression renders the criteria as a Meilisearch filter. City is
// included here, unlike the store query, since the index carries it.
func FilterExpression(c filter.Criteria) string {
	var filters []string

	if c.MinPrice != nil {
		filters = append(filters, fmt.Sprintf("price >= %d", *c.MinPrice))
	}
	if c.MaxPrice != nil {
		filters = append(filters, fmt.Sprintf("price <= %d", *c.MaxPrice))
	}
	if c.Bedrooms != nil {
		filters = append(filters, fmt.Sprintf("bedrooms >= %d", *c.Bedrooms))
	}
	if c.Bathrooms != nil {
		filters = append(filters, fmt.Sprintf("bathrooms >= %d", *c.Bathrooms))
	}
	if c.PropertyType != "" {
		filters = append(filters, "property_type = "+strconv.Quote(c.PropertyType))
	}
	if c.City != "" {
		filters = append(filters, "city = "+strconv.Quote(c.City))
	}

	return strings.Join(filters, " AND ")
}

func unixTime(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}
