package listing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-browser/internal/models"
)

func TestNormalize_EmptyRowGetsDefaults(t *testing.T) {
	got := Normalize(models.Property{ID: "id-1", PropertyID: "ext-1"})

	assert.Equal(t, "id-1", got.ID)
	assert.Equal(t, "ext-1", got.PropertyID)
	assert.Equal(t, "", got.Title)
	assert.Equal(t, "", got.Address)
	assert.Zero(t, got.Price)
	assert.Zero(t, got.Bedrooms)
	assert.Zero(t, got.Bathrooms)
	assert.Zero(t, got.Sqft)
	assert.Equal(t, DefaultType, got.Type)
	assert.Equal(t, DefaultAgentName, got.AgentName)
	assert.Equal(t, PlaceholderImage, got.Image)
	assert.NotNil(t, got.Images)
	assert.Empty(t, got.Images)
	assert.NotNil(t, got.Amenities)
	assert.Nil(t, got.Lat)
	assert.Nil(t, got.Lng)
	assert.False(t, got.HasLocation())
}

func TestNormalize_EncodedEmptyImages(t *testing.T) {
	var images models.JSONList[string]
	require.NoError(t, images.Scan("[]"))

	got := Normalize(models.Property{ID: "id-2", Images: images})

	assert.Empty(t, got.Images)
	assert.Equal(t, PlaceholderImage, got.Image)
}

func TestNormalize_FullRow(t *testing.T) {
	var images models.JSONList[string]
	require.NoError(t, images.Scan(`["https://img/1.jpg","https://img/2.jpg"]`))
	var amenities models.JSONList[any]
	require.NoError(t, amenities.Scan(`["Pool","Gym"]`))
	created := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	got := Normalize(models.Property{
		ID:           "id-3",
		PropertyID:   "ext-3",
		Title:        models.Ptr("Sea View Flat"),
		Price:        models.Ptr[int64](750000),
		Bedrooms:     models.Ptr(2),
		Bathrooms:    models.Ptr(2),
		Sqft:         models.Ptr(1200),
		PropertyType: models.Ptr("condo"),
		Address:      models.Ptr("Linking Road, Bandra West, Mumbai"),
		Latitude:     models.Ptr(19.06),
		Longitude:    models.Ptr(72.83),
		Images:       images,
		Amenities:    amenities,
		AgentName:    models.Ptr("Priya Shah"),
		AgentPhone:   models.Ptr("+91 22 5555 0101"),
		CreatedAt:    created,
	})

	assert.Equal(t, "https://img/1.jpg", got.Image)
	assert.Len(t, got.Images, 2)
	assert.Equal(t, []any{"Pool", "Gym"}, got.Amenities)
	assert.Equal(t, int64(750000), got.Price)
	assert.Equal(t, "condo", got.Type)
	assert.Equal(t, "Priya Shah", got.AgentName)
	assert.Equal(t, "", got.AgentEmail)
	require.True(t, got.HasLocation())
	assert.InDelta(t, 19.06, *got.Lat, 1e-9)
	assert.Equal(t, created, got.CreatedAt)
}

func TestNormalize_ZeroCoordinatesAreAbsent(t *testing.T) {
	got := Normalize(models.Property{Latitude: models.Ptr(0.0), Longitude: models.Ptr(72.8)})
	assert.Nil(t, got.Lat)
	assert.NotNil(t, got.Lng)
	assert.False(t, got.HasLocation())
}

func TestNormalize_Idempotent(t *testing.T) {
	rows := []models.Property{
		{ID: "a"},
		{ID: "b", Title: models.Ptr("Villa"), Price: models.Ptr[int64](-5), Images: models.JSONList[string]{"x.jpg"}},
		{ID: "c", Latitude: models.Ptr(1.5), Longitude: models.Ptr(2.5), AgentName: models.Ptr("Ravi")},
	}

	for _, row := range rows {
		once := Normalize(row)
		assert.Equal(t, once, Canonicalize(once), row.ID)
		assert.Equal(t, once, Normalize(Row(once)), row.ID)
	}
}

func TestNormalizeAll_PreservesOrder(t *testing.T) {
	got := NormalizeAll([]models.Property{{ID: "2"}, {ID: "1"}})
	require.Len(t, got, 2)
	assert.Equal(t, "2", got[0].ID)
	assert.Equal(t, "1", got[1].ID)
}
