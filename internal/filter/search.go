package filter

import (
	"strings"

	"property-browser/internal/models"
)

// MatchesSearch reports whether the trimmed query appears, ignoring case, in
// the listing's title, address or agent name. A blank query matches all.
func MatchesSearch(l models.Listing, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(l.Title), q) ||
		strings.Contains(strings.ToLower(l.Address), q) ||
		strings.Contains(strings.ToLower(l.AgentName), q)
}

// Narrow keeps the listings matching query, in order. The input slice is not
// modified.
func Narrow(listings []models.Listing, query string) []models.Listing {
	if strings.TrimSpace(query) == "" {
		return listings
	}
	out := make([]models.Listing, 0, len(listings))
	for _, l := range listings {
		if MatchesSearch(l, query) {
			out = append(out, l)
		}
	}
	return out
}

// Apply runs the full predicate: criteria and search combined.
func Apply(listings []models.Listing, c Criteria, query string) []models.Listing {
	out := make([]models.Listing, 0, len(listings))
	for _, l := range listings {
		if c.Matches(l) && MatchesSearch(l, query) {
			out = append(out, l)
		}
	}
	return out
}
