package filter

import (
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-browser/internal/models"
)

func mustParse(t *testing.T, raw Raw) Criteria {
	t.Helper()
	c, err := Parse(raw)
	require.NoError(t, err)
	return c
}

func TestParse_EmptyIsUnconstrained(t *testing.T) {
	c := mustParse(t, Raw{})
	assert.True(t, c.IsEmpty())
	assert.True(t, c.Matches(models.Listing{}))
	assert.True(t, c.Matches(models.Listing{Price: 1 << 40, Type: "villa"}))
}

func TestParse_TypedBounds(t *testing.T) {
	c := mustParse(t, Raw{MinPrice: "500000", MaxPrice: " 900000 ", Bedrooms: "2", Bathrooms: "1", PropertyType: "house"})

	require.NotNil(t, c.MinPrice)
	require.NotNil(t, c.MaxPrice)
	require.NotNil(t, c.Bedrooms)
	require.NotNil(t, c.Bathrooms)
	assert.Equal(t, int64(500000), *c.MinPrice)
	assert.Equal(t, int64(900000), *c.MaxPrice)
	assert.Equal(t, 2, *c.Bedrooms)
	assert.Equal(t, 1, *c.Bathrooms)
	assert.Equal(t, "house", c.PropertyType)
}

func TestParse_MalformedBoundIsIgnoredAndReported(t *testing.T) {
	c, err := Parse(Raw{MinPrice: "abc", Bedrooms: "2", Bathrooms: "1.5"})

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, map[string]string{"minPrice": "abc", "bathrooms": "1.5"}, verr.Fields)
	assert.Equal(t, `invalid filter values: minPrice="abc", bathrooms="1.5"`, verr.Error())

	assert.Nil(t, c.MinPrice)
	assert.Nil(t, c.Bathrooms)
	require.NotNil(t, c.Bedrooms)

	// The malformed bound excludes nothing.
	assert.True(t, c.Matches(models.Listing{Price: 10, Bedrooms: 3}))
	assert.False(t, c.Matches(models.Listing{Price: 10, Bedrooms: 1}))
}

func TestMatches_PerFieldRules(t *testing.T) {
	base := models.Listing{Price: 750000, Bedrooms: 2, Bathrooms: 2, Type: "apartment"}

	tests := []struct {
		name string
		raw  Raw
		want bool
	}{
		{name: "min price inclusive", raw: Raw{MinPrice: "750000"}, want: true},
		{name: "min price above", raw: Raw{MinPrice: "750001"}, want: false},
		{name: "max price inclusive", raw: Raw{MaxPrice: "750000"}, want: true},
		{name: "max price below", raw: Raw{MaxPrice: "749999"}, want: false},
		{name: "bedrooms minimum met", raw: Raw{Bedrooms: "2"}, want: true},
		{name: "bedrooms minimum not met", raw: Raw{Bedrooms: "3"}, want: false},
		{name: "bathrooms minimum met", raw: Raw{Bathrooms: "1"}, want: true},
		{name: "bathrooms minimum not met", raw: Raw{Bathrooms: "4"}, want: false},
		{name: "type exact", raw: Raw{PropertyType: "apartment"}, want: true},
		{name: "type case sensitive", raw: Raw{PropertyType: "Apartment"}, want: false},
		{name: "type mismatch", raw: Raw{PropertyType: "villa"}, want: false},
		{name: "all active and met", raw: Raw{MinPrice: "1", MaxPrice: "800000", Bedrooms: "1", Bathrooms: "2", PropertyType: "apartment"}, want: true},
		{name: "one of many fails", raw: Raw{MinPrice: "1", MaxPrice: "800000", Bedrooms: "5", PropertyType: "apartment"}, want: false},
		{name: "city does not filter", raw: Raw{City: "Pune"}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mustParse(t, tt.raw).Matches(base))
		})
	}
}

func TestMatches_MinPriceAndBedrooms(t *testing.T) {
	c := mustParse(t, Raw{MinPrice: "500000", MaxPrice: "", Bedrooms: "2", Bathrooms: "", PropertyType: ""})

	assert.True(t, c.Matches(models.Listing{Price: 750000, Bedrooms: 2}))
	assert.False(t, c.Matches(models.Listing{Price: 750000, Bedrooms: 1}))
}

func TestKey_OrderIndependentAndDistinct(t *testing.T) {
	a := mustParse(t, Raw{Bedrooms: "2", MinPrice: "100"})
	b := mustParse(t, Raw{MinPrice: "100", Bedrooms: "2"})
	c := mustParse(t, Raw{MinPrice: "100", Bedrooms: "3"})

	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())
	assert.Equal(t, "properties?", mustParse(t, Raw{}).Key())
}

func TestFromQuery(t *testing.T) {
	q, err := url.ParseQuery("minPrice=1&maxPrice=2&bedrooms=3&bathrooms=4&propertyType=villa&city=Goa")
	require.NoError(t, err)

	assert.Equal(t, Raw{MinPrice: "1", MaxPrice: "2", Bedrooms: "3", Bathrooms: "4", PropertyType: "villa", City: "Goa"}, FromQuery(q))
}
