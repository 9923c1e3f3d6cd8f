package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"property-browser/internal/models"
)

var sample = []models.Listing{
	{ID: "1", Title: "Sea Facing 2BHK", Address: "Linking Road, Bandra West, Mumbai", AgentName: "Priya Shah", Price: 750000, Bedrooms: 2},
	{ID: "2", Title: "Garden Villa", Address: "Koregaon Park, Pune", AgentName: "Ravi Kumar", Price: 2500000, Bedrooms: 4},
	{ID: "3", Title: "Studio", Address: "Indiranagar, Bengaluru", AgentName: "Anil Bandra", Price: 300000, Bedrooms: 1},
}

func TestMatchesSearch(t *testing.T) {
	tests := []struct {
		name  string
		query string
		l     models.Listing
		want  bool
	}{
		{name: "blank matches", query: "   ", l: sample[0], want: true},
		{name: "address substring", query: "bandra", l: sample[0], want: true},
		{name: "title case insensitive", query: "GARDEN", l: sample[1], want: true},
		{name: "agent name", query: "ravi", l: sample[1], want: true},
		{name: "surrounding spaces trimmed", query: "  pune ", l: sample[1], want: true},
		{name: "no field matches", query: "delhi", l: sample[0], want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchesSearch(tt.l, tt.query))
		})
	}
}

func TestNarrow(t *testing.T) {
	got := Narrow(sample, "bandra")
	assert.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "3", got[1].ID)

	assert.Equal(t, sample, Narrow(sample, ""))
	assert.Empty(t, Narrow(sample, "chennai"))
}

func TestApply_SearchOnlyNarrows(t *testing.T) {
	criteria := []Raw{{}, {MinPrice: "500000"}, {Bedrooms: "2"}, {MaxPrice: "1000000", Bedrooms: "1"}}
	queries := []string{"bandra", "a", "villa", "zzz"}

	for _, raw := range criteria {
		c := mustParse(t, raw)
		base := Apply(sample, c, "")
		for _, q := range queries {
			narrowed := Apply(sample, c, q)
			assert.Subset(t, base, narrowed, "criteria %+v query %q", raw, q)
			assert.Equal(t, Narrow(base, q), narrowed)
		}
	}
}
