package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"property-browser/internal/ratelimit"
)

const sampleResponse = `{
  "properties": [
    {
      "property_id": "M123",
      "description": {"name": "Sea Facing 2BHK"},
      "address": {"line": "Carter Road", "city": "Mumbai", "postal_code": "400050", "lat": 19.06, "lon": 72.82},
      "price": 25000000,
      "beds": 2,
      "baths": 2.5,
      "building_size": {"size": 1100, "units": "sqft"},
      "prop_type": "apartment",
      "photos": [{"href": "https://img/1.jpg"}],
      "features": ["Gym", {"name": "Parking"}],
      "agents": [{"name": "Asha", "phone": "123"}],
      "list_date": "2025-01-02T00:00:00Z"
    }
  ]
}`

func TestRealtorClient_ListForSale(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/properties/v2/list-for-sale", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "Mumbai", q.Get("city"))
		assert.Equal(t, "20", q.Get("limit"))
		assert.Equal(t, "0", q.Get("offset"))
		assert.Equal(t, "1000000", q.Get("price_min"))
		assert.Equal(t, "100000000", q.Get("price_max"))
		assert.Equal(t, "1", q.Get("beds_min"))
		assert.Equal(t, "apartment", q.Get("type"))
		assert.Equal(t, "relevance", q.Get("sort"))
		assert.Equal(t, "secret", r.Header.Get("X-RapidAPI-Key"))
		assert.Equal(t, "realtor.p.rapidapi.com", r.Header.Get("X-RapidAPI-Host"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	c := NewRealtorClient(Config{BaseURL: srv.URL, APIKey: "secret", Host: "realtor.p.rapidapi.com"}, nil, zaptest.NewLogger(t))
	records, err := c.ListForSale(context.Background(), Query{
		City: "Mumbai", MinPrice: 1000000, MaxPrice: 100000000, Bedrooms: 1, PropertyType: "apartment",
	})
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, "M123", r.PropertyID)
	assert.Equal(t, "Sea Facing 2BHK", r.Description.Name)
	assert.Equal(t, 2.5, r.Baths)
	assert.Equal(t, 1100.0, r.Building.Size)
	assert.Equal(t, "https://img/1.jpg", r.Photos[0].Href)
	assert.Len(t, r.Features, 2)
	assert.Equal(t, "Asha", r.Agents[0].Name)
}

func TestRealtorClient_MissingKey(t *testing.T) {
	c := NewRealtorClient(Config{}, nil, nil)
	_, err := c.ListForSale(context.Background(), Query{City: "Mumbai"})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestRealtorClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewRealtorClient(Config{BaseURL: srv.URL, APIKey: "k"}, nil, nil)
	_, err := c.ListForSale(context.Background(), Query{})
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
	assert.EqualError(t, err, "API request failed: 429")
}

func TestRealtorClient_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	records, err := NewRealtorClient(Config{BaseURL: srv.URL, APIKey: "k"}, nil, nil).ListForSale(context.Background(), Query{})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRealtorClient_RateLimited(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"properties": []}`))
	}))
	defer srv.Close()

	limiter := ratelimit.NewRateLimiter(1, 0, 0, true)
	c := NewRealtorClient(Config{BaseURL: srv.URL, APIKey: "k"}, limiter, nil)

	_, err := c.ListForSale(context.Background(), Query{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 0)
	defer cancel()
	_, err = c.ListForSale(ctx, Query{})
	assert.ErrorIs(t, err, ratelimit.ErrLimitExceeded)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, c.RateLimitStats().RequestsLastMinute)
}
